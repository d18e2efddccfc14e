package player

import (
	"errors"
	"testing"

	"github.com/reel-cli/reel/errs"
	. "github.com/smartystreets/goconvey/convey"
)

func TestKind(t *testing.T) {
	Convey("ParseKind", t, func() {
		for in, want := range map[string]Kind{"a": MPV, "mpv": MPV, " MPV ": MPV, "b": VLC, "vlc": VLC, "VLC": VLC} {
			got, err := ParseKind(in)
			So(err, ShouldBeNil)
			So(got, ShouldEqual, want)
		}

		_, err := ParseKind("quicktime")
		So(errors.Is(err, errs.ErrUnsupportedBackend), ShouldBeTrue)
	})

	Convey("Other should swap the backends", t, func() {
		So(MPV.Other(), ShouldEqual, VLC)
		So(VLC.Other(), ShouldEqual, MPV)
	})

	Convey("Display names", t, func() {
		So(MPV.Display(), ShouldEqual, "mpv")
		So(VLC.Display(), ShouldEqual, "VLC")
		So(Kind(9).Valid(), ShouldBeFalse)
	})

	Convey("Claims", t, func() {
		So(MPV.Claims(".mp4"), ShouldBeTrue)
		So(MPV.Claims("VOB"), ShouldBeFalse)
		So(VLC.Claims("vob"), ShouldBeTrue)
		So(VLC.Claims(""), ShouldBeFalse)
	})
}

func TestOptions(t *testing.T) {
	Convey("Given caller options", t, func() {
		caller := Options{OptVolume: "0.5", OptAutoplay: false, OptBinary: "/opt/mpv"}

		Convey("Merge should let the caller win", func() {
			merged := caller.Merge(MPV)
			So(merged.Float(OptVolume), ShouldEqual, 0.5)
			So(merged.Bool(OptAutoplay), ShouldBeFalse)
			So(merged.String(OptBinary), ShouldEqual, "/opt/mpv")
			So(merged.Bool(OptKeepOpen), ShouldBeTrue)
			So(merged.Strings(OptControls), ShouldContain, "fullscreen")
		})

		Convey("Merge should not touch the defaults of other engines", func() {
			So(Defaults(VLC).Has(OptKeepOpen), ShouldBeFalse)
			So(Defaults(VLC).Floats(OptSpeeds), ShouldContain, 0.25)
		})
	})

	Convey("Floats should coerce loosely typed slices", t, func() {
		So(Options{OptSpeeds: []any{1, "1.5", "fast"}}.Floats(OptSpeeds), ShouldResemble, []float64{1, 1.5})
		So(Options{OptSpeeds: []string{"2"}}.Floats(OptSpeeds), ShouldResemble, []float64{2})
		So(Options{}.Floats(OptSpeeds), ShouldBeEmpty)
	})

	Convey("snapRate should pick the nearest configured speed", t, func() {
		speeds := []float64{0.5, 1, 1.5, 2}
		So(snapRate(1.4, speeds), ShouldEqual, 1.5)
		So(snapRate(9, speeds), ShouldEqual, 2)
		So(snapRate(1.3, nil), ShouldEqual, 1.3)
	})
}
