package player

import (
	"testing"

	"github.com/reel-cli/reel/engine/mpv"
	"github.com/reel-cli/reel/engine/vlc"
	"github.com/reel-cli/reel/errs"
	. "github.com/smartystreets/goconvey/convey"
)

// destroyedDefaults checks the values every destroyed Player must report.
func destroyedDefaults(p Player) {
	So(p.CurrentTime(), ShouldEqual, 0)
	So(p.Duration(), ShouldEqual, 0)
	So(p.Volume(), ShouldEqual, DefaultVolume)
	So(p.Muted(), ShouldBeFalse)
	So(p.Paused(), ShouldBeTrue)
	So(p.Ended(), ShouldBeFalse)
	So(p.Rate(), ShouldEqual, DefaultRate)

	So(p.Play(), ShouldBeNil)
	So(p.Pause(), ShouldBeNil)
	So(p.TogglePlayPause(), ShouldBeNil)
	So(p.Seek(10), ShouldBeNil)
	So(p.SetCurrentTime(5), ShouldBeNil)
	So(p.SetVolume(0.2), ShouldBeNil)
	So(p.SetMuted(true), ShouldBeNil)
	So(p.ToggleMute(), ShouldBeNil)
	So(p.SetRate(2), ShouldBeNil)
	p.On(EventPlay, func(any) {})
}

func TestMPVPlayer(t *testing.T) {
	Convey("Given an mpv player", t, func() {
		engine := newFakeMPVEngine()
		p := newMPVPlayer(engine, Defaults(MPV))

		Convey("Getters should read properties", func() {
			So(p.Kind(), ShouldEqual, MPV)
			So(p.CurrentTime(), ShouldEqual, 12.5)
			So(p.Duration(), ShouldEqual, 90)
			So(p.Volume(), ShouldEqual, 1)
			So(p.Paused(), ShouldBeFalse)
		})

		Convey("Volume should map to mpv's percent scale", func() {
			So(p.SetVolume(0.4), ShouldBeNil)
			So(engine.prop("volume"), ShouldEqual, 40)

			So(p.SetVolume(7), ShouldBeNil)
			So(engine.prop("volume"), ShouldEqual, 100)
		})

		Convey("Mute and rate should set properties", func() {
			So(p.ToggleMute(), ShouldBeNil)
			So(p.Muted(), ShouldBeTrue)

			So(p.SetRate(1.3), ShouldBeNil)
			So(engine.prop("speed"), ShouldEqual, 1.25)
		})

		Convey("Configured speeds should be reported ascending and copied", func() {
			custom := newMPVPlayer(newFakeMPVEngine(), Options{OptSpeeds: []float64{2, 0.5, 1, 3}})
			speeds := custom.Speeds()
			So(speeds, ShouldResemble, []float64{0.5, 1, 2, 3})

			speeds[0] = 9
			So(custom.Speeds()[0], ShouldEqual, 0.5)
		})

		Convey("Property changes should become events", func() {
			var got []Event
			for _, ev := range []Event{EventPlay, EventPause, EventTimeUpdate, EventEnded, EventVolumeChange} {
				ev := ev
				p.On(ev, func(any) { got = append(got, ev) })
			}

			var failure *errs.Error
			p.On(EventError, func(data any) { failure = data.(*errs.Error) })

			engine.emit("pause", true)
			engine.emit("pause", false)
			engine.emit("time-pos", 3.0)
			engine.emit("eof-reached", true)
			engine.emit("volume", 50.0)
			engine.emit("end-file", &mpv.Error{Reason: mpv.ReasonAborted})
			So(failure, ShouldBeNil)

			engine.emit("end-file", &mpv.Error{Reason: "no audio or video data played"})

			So(got, ShouldResemble, []Event{EventPause, EventPlay, EventTimeUpdate, EventEnded, EventVolumeChange})
			So(failure, ShouldNotBeNil)
			So(failure.Message, ShouldEqual, "Video decoding error")
		})

		Convey("Destroy should quit once and reset to safe defaults", func() {
			engine.quitErr = errBoom

			p.Destroy()
			p.Destroy()

			So(engine.quits, ShouldEqual, 1)
			destroyedDefaults(p)
		})
	})
}

func TestVLCPlayer(t *testing.T) {
	Convey("Given a VLC player", t, func() {
		engine := newFakeVLCEngine()
		p := newVLCPlayer(engine, Defaults(VLC))

		Convey("Function call access should map to Player", func() {
			So(p.Kind(), ShouldEqual, VLC)
			So(p.CurrentTime(), ShouldEqual, 30)
			So(p.Duration(), ShouldEqual, 600)
			So(p.Volume(), ShouldEqual, 1)

			So(p.Seek(-40), ShouldBeNil)
			So(p.CurrentTime(), ShouldEqual, 0)

			So(p.SetCurrentTime(99.6), ShouldBeNil)
			So(p.CurrentTime(), ShouldEqual, 100)

			So(p.SetVolume(0.5), ShouldBeNil)
			So(engine.status.Volume, ShouldEqual, 128)

			So(p.TogglePlayPause(), ShouldBeNil)
			So(p.Paused(), ShouldBeTrue)
		})

		Convey("Mute should park the volume and restore it", func() {
			So(p.SetVolume(0.75), ShouldBeNil)
			So(p.SetMuted(true), ShouldBeNil)

			So(p.Muted(), ShouldBeTrue)
			So(engine.status.Volume, ShouldEqual, 0)
			So(p.Volume(), ShouldEqual, 0.75)

			So(p.SetVolume(0.25), ShouldBeNil)
			So(engine.status.Volume, ShouldEqual, 0)

			So(p.ToggleMute(), ShouldBeNil)
			So(p.Muted(), ShouldBeFalse)
			So(engine.status.Volume, ShouldEqual, 64)
		})

		Convey("Status changes should become events", func() {
			var got []Event
			for _, ev := range []Event{EventPlay, EventPause, EventTimeUpdate, EventEnded} {
				ev := ev
				p.On(ev, func(any) { got = append(got, ev) })
			}

			var failure *errs.Error
			p.On(EventError, func(data any) { failure = data.(*errs.Error) })

			So(engine.watcher, ShouldNotBeNil)

			engine.watcher(vlc.Status{State: "paused", Time: 0, Volume: 0})
			engine.watcher(vlc.Status{State: "playing", Time: 1, Volume: 0})
			engine.watcher(vlc.Status{State: "stopped", Time: 1, Volume: 0})

			So(got, ShouldResemble, []Event{EventPause, EventPlay, EventTimeUpdate, EventEnded})
			So(failure, ShouldBeNil)

			engine.code = vlc.CodeDecode
			engine.watcher(vlc.Status{State: "stopped", Time: 1})
			So(failure, ShouldNotBeNil)
			So(failure.Message, ShouldEqual, "Video decoding error")
		})

		Convey("Destroy should release once and reset to safe defaults", func() {
			engine.relErr = errBoom

			p.Destroy()
			p.Destroy()

			So(engine.releases, ShouldEqual, 1)
			destroyedDefaults(p)
		})
	})
}
