package player

import (
	"context"
	"os/exec"
	"testing"

	"github.com/reel-cli/reel/engine/mpv"
	"github.com/reel-cli/reel/errs"
	"github.com/reel-cli/reel/filesystem"
	. "github.com/smartystreets/goconvey/convey"
)

func TestFactory(t *testing.T) {
	filesystem.SetMemMapFs()
	defer filesystem.SetOsFs()

	Convey("Given a factory with fake engines", t, func() {
		l := &launchers{}
		f := NewFactory(WithMPVLauncher(l.mpv), WithVLCLauncher(l.vlc))
		ctx := context.Background()

		Convey("An unknown kind should fail without touching an engine", func() {
			p, err := f.Create(ctx, Kind(7), "src", nil, nil)
			So(p, ShouldBeNil)
			So(err, ShouldEqual, errs.ErrUnsupportedBackend)
			So(err.Error(), ShouldEqual, "unsupported backend kind")
			So(l.calls(), ShouldEqual, 0)
		})

		Convey("Create should prepare the mount and merge options", func() {
			mount := &Mount{Dir: "/sock"}
			p, err := f.Create(ctx, MPV, "http://127.0.0.1:1/media/x", mount, Options{OptBinary: "/opt/mpv", OptVolume: 0.3})
			So(err, ShouldBeNil)
			So(p.Kind(), ShouldEqual, MPV)

			So(mount.Socket, ShouldStartWith, "/sock/mpv-")
			So(l.mpvOpts[0].Binary, ShouldEqual, "/opt/mpv")
			So(l.mpvOpts[0].Socket, ShouldEqual, mount.Socket)
			So(l.mpvOpts[0].Args, ShouldContain, "--keep-open=yes")
			So(l.mpvs[0].prop("volume"), ShouldEqual, 30)

			active, ok := f.Active().Get()
			So(ok, ShouldBeTrue)
			So(active, ShouldEqual, p)
		})

		Convey("A VLC mount should get a port and a password", func() {
			mount := &Mount{Dir: "/sock"}
			_, err := f.Create(ctx, VLC, "src", mount, Options{OptAutoplay: false})
			So(err, ShouldBeNil)
			So(mount.Port, ShouldBeGreaterThan, 0)
			So(mount.Password, ShouldNotBeEmpty)
			So(l.vlcOpts[0].Password, ShouldEqual, mount.Password)
			So(l.vlcOpts[0].Args, ShouldContain, "--start-paused")
		})

		Convey("Create should destroy the previous player first", func() {
			_, err := f.Create(ctx, MPV, "src", nil, nil)
			So(err, ShouldBeNil)

			second, err := f.Create(ctx, VLC, "src", nil, nil)
			So(err, ShouldBeNil)

			So(l.mpvs[0].quits, ShouldEqual, 1)
			So(f.Active().MustGet(), ShouldEqual, second)
		})

		Convey("A cancelled caller should leave the active player alone", func() {
			active, err := f.Create(ctx, VLC, "b.mkv", nil, nil)
			So(err, ShouldBeNil)

			cancelled, cancel := context.WithCancel(ctx)
			cancel()

			p, err := f.Create(cancelled, MPV, "a.mkv", nil, nil)
			So(p, ShouldBeNil)
			e, ok := errs.As(err)
			So(ok, ShouldBeTrue)
			So(e.Code, ShouldEqual, errs.CodeAborted)

			So(l.vlcs[0].releases, ShouldEqual, 0)
			So(l.mpvOpts, ShouldBeEmpty)
			So(f.Active().MustGet(), ShouldEqual, active)
		})

		Convey("A player finished after its caller gave up should be destroyed", func() {
			launching, cancel := context.WithCancel(ctx)
			l.launched = cancel

			p, err := f.Create(launching, VLC, "src", nil, nil)
			So(p, ShouldBeNil)
			e, _ := errs.As(err)
			So(e.Code, ShouldEqual, errs.CodeAborted)
			So(l.vlcs[0].releases, ShouldEqual, 1)
			So(f.Active().IsAbsent(), ShouldBeTrue)
		})

		Convey("Engine failures should be translated", func() {
			l.err = &mpv.Error{Reason: "unrecognized file format"}
			_, err := f.Create(ctx, MPV, "src", nil, nil)

			e, ok := errs.As(err)
			So(ok, ShouldBeTrue)
			So(e.Message, ShouldEqual, "Video format not supported by mpv")
			So(e.Recoverable, ShouldBeFalse)
			So(f.Active().IsAbsent(), ShouldBeTrue)
		})

		Convey("A missing engine should be a library error", func() {
			l.err = &exec.Error{Name: "vlc", Err: exec.ErrNotFound}
			_, err := f.Create(ctx, VLC, "src", nil, nil)

			e, _ := errs.As(err)
			So(e.Code, ShouldEqual, errs.CodeLibrary)
		})

		Convey("Release should clear the slot only for the active player", func() {
			first, _ := f.Create(ctx, MPV, "src", nil, nil)
			second, _ := f.Create(ctx, MPV, "src", nil, nil)

			f.Release(first)
			So(f.Active().MustGet(), ShouldEqual, second)

			f.Release(second)
			So(f.Active().IsAbsent(), ShouldBeTrue)
			So(l.mpvs[1].quits, ShouldEqual, 1)
		})

		Convey("Reset should destroy the active player", func() {
			_, _ = f.Create(ctx, VLC, "src", nil, nil)
			f.Reset()
			So(l.vlcs[0].releases, ShouldEqual, 1)
			So(f.Active().IsAbsent(), ShouldBeTrue)
		})
	})
}
