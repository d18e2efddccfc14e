package cmd

import (
	"testing"
	"time"

	"github.com/reel-cli/reel/filesystem"
	"github.com/reel-cli/reel/key"
	"github.com/reel-cli/reel/media"
	"github.com/reel-cli/reel/player"
	. "github.com/smartystreets/goconvey/convey"
	"github.com/spf13/viper"
)

func init() {
	filesystem.SetMemMapFs()
}

func TestSelectBackend(t *testing.T) {
	Convey("Given a file that has never been played", t, func() {
		file := &media.File{Name: "movie.mkv", ModTime: time.Unix(1700000000, 0), Origin: media.OriginLocal, Regular: true}
		viper.Set(key.Player, "mpv")
		viper.Set(key.HistoryRememberBackend, true)

		Convey("The flag wins", func() {
			kind, err := selectBackend("vlc", file)
			So(err, ShouldBeNil)
			So(kind, ShouldEqual, player.VLC)
		})

		Convey("An unknown flag value is rejected", func() {
			_, err := selectBackend("quicktime", file)
			So(err, ShouldNotBeNil)
		})

		Convey("The configured default is used otherwise", func() {
			kind, err := selectBackend("", file)
			So(err, ShouldBeNil)
			So(kind, ShouldEqual, player.MPV)
		})
	})
}

func TestParseValue(t *testing.T) {
	Convey("parseValue converts to the type of the default", t, func() {
		v, err := parseValue(key.PlayerRetryMax, []string{"5"})
		So(err, ShouldBeNil)
		So(v, ShouldEqual, 5)

		v, err = parseValue(key.PlayerAutoplay, []string{"false"})
		So(err, ShouldBeNil)
		So(v, ShouldEqual, false)

		_, err = parseValue(key.PlayerRetryMax, []string{"many"})
		So(err, ShouldNotBeNil)

		_, err = parseValue(key.Player, []string{"quicktime"})
		So(err, ShouldNotBeNil)

		v, err = parseValue(key.Player, []string{"vlc"})
		So(err, ShouldBeNil)
		So(v, ShouldEqual, "vlc")
	})
}
