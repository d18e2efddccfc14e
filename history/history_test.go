package history

import (
	"fmt"
	"path/filepath"
	"testing"
	"time"

	"github.com/reel-cli/reel/filesystem"
	"github.com/reel-cli/reel/media"
	"github.com/reel-cli/reel/player"
	"github.com/samber/lo"
	. "github.com/smartystreets/goconvey/convey"
)

func init() {
	filesystem.SetMemMapFs()
}

func writeMedia(name string) *media.File {
	path := filepath.Join("/videos", name)
	lo.Must0(filesystem.API().MkdirAll(filepath.Dir(path), 0o755))
	lo.Must0(filesystem.API().WriteFile(path, []byte(name), 0o644))
	return lo.Must(media.Stat(path))
}

func TestHistory(t *testing.T) {
	Convey("Given a file played on VLC", t, func() {
		lo.Must0(Clear())
		file := writeMedia("b.flv")

		So(Remember(file, player.VLC), ShouldBeNil)

		Convey("Backend should return VLC", func() {
			So(Backend(file).MustGet(), ShouldEqual, player.VLC)

			entries, err := Get()
			So(err, ShouldBeNil)
			So(entries[file.Identity().String()].Name, ShouldEqual, "b.flv")
		})

		Convey("A modified file should not match", func() {
			lo.Must0(filesystem.API().Chtimes(file.Path, file.ModTime.Add(time.Second), file.ModTime.Add(time.Second)))
			So(Backend(lo.Must(media.Stat(file.Path))).IsAbsent(), ShouldBeTrue)
		})

		Convey("Forget should remove it", func() {
			So(Forget(file), ShouldBeNil)
			So(Backend(file).IsAbsent(), ShouldBeTrue)
		})
	})

	Convey("prune should keep the newest entries", t, func() {
		saved := make(map[string]*Entry)
		now := time.Now()
		for i := 0; i < Limit+3; i++ {
			saved[fmt.Sprint(i)] = &Entry{Name: fmt.Sprint(i), PlayedAt: now.Add(time.Duration(i) * time.Second)}
		}

		prune(saved)

		So(saved, ShouldHaveLength, Limit)
		So(saved, ShouldNotContainKey, "0")
		So(saved, ShouldContainKey, fmt.Sprint(Limit+2))
	})
}
