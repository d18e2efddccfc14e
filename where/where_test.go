package where

import (
	"path/filepath"
	"testing"

	"github.com/reel-cli/reel/filesystem"
	"github.com/samber/lo"
	. "github.com/smartystreets/goconvey/convey"
)

func init() {
	filesystem.SetMemMapFs()
}

func TestPaths(t *testing.T) {
	Convey("Path functions", t, func() {
		Convey("Config()", func() {
			path := Config()
			So(path, ShouldNotBeEmpty)
			So(lo.Must(filesystem.API().IsDir(path)), ShouldBeTrue)
		})

		Convey("Cache()", func() {
			path := Cache()
			So(path, ShouldNotBeEmpty)
			So(lo.Must(filesystem.API().IsDir(path)), ShouldBeTrue)
		})

		Convey("Logs()", func() {
			path := Logs()
			So(path, ShouldNotBeEmpty)
			So(lo.Must(filesystem.API().IsDir(path)), ShouldBeTrue)
		})

		Convey("Sockets()", func() {
			path := Sockets()
			So(lo.Must(filesystem.API().IsDir(path)), ShouldBeTrue)
			So(filepath.Dir(path), ShouldEqual, Temp())
		})

		Convey("History() should live in the cache directory", func() {
			So(filepath.Dir(History()), ShouldEqual, Cache())
		})
	})

	Convey("Given REEL_CONFIG_PATH", t, func() {
		t.Setenv(EnvConfigPath, "/custom/reel")

		Convey("Config() should honor it", func() {
			So(Config(), ShouldEqual, "/custom/reel")
			So(lo.Must(filesystem.API().IsDir("/custom/reel")), ShouldBeTrue)
		})
	})
}
