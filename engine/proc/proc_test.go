package proc

import (
	"context"
	"errors"
	"os/exec"
	"strings"
	"testing"
	"time"

	. "github.com/smartystreets/goconvey/convey"
)

func TestHelpers(t *testing.T) {
	Convey("Token", t, func() {
		a := Token(16)
		So(a, ShouldHaveLength, 16)
		So(a, ShouldEqual, strings.ToLower(a))

		So(Token(16), ShouldNotEqual, a)
	})

	Convey("FreePort", t, func() {
		port, err := FreePort()
		So(err, ShouldBeNil)
		So(port, ShouldBeGreaterThan, 0)
	})
}

func TestProcess(t *testing.T) {
	Convey("Given a missing binary", t, func() {
		_, err := Start(exec.Command("reel-definitely-missing-binary"))

		Convey("Start should report exec.ErrNotFound", func() {
			So(errors.Is(err, exec.ErrNotFound), ShouldBeTrue)
		})
	})

	if _, err := exec.LookPath("sleep"); err != nil {
		t.Skip("sleep is not available")
	}
	if _, err := exec.LookPath("true"); err != nil {
		t.Skip("true is not available")
	}

	Convey("Given a long running process", t, func() {
		p, err := Start(exec.Command("sleep", "30"))
		So(err, ShouldBeNil)
		defer p.Kill()

		exited := func() bool {
			select {
			case <-p.Exited():
				return true
			default:
				return false
			}
		}

		Convey("Poll should return once the check is satisfied", func() {
			calls := 0
			err := p.Poll(context.Background(), time.Millisecond, func() (bool, error) {
				calls++
				return calls == 3, nil
			})
			So(err, ShouldBeNil)
			So(calls, ShouldEqual, 3)
			So(exited(), ShouldBeFalse)
		})

		Convey("Poll should stop when the context ends", func() {
			ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
			defer cancel()
			err := p.Poll(ctx, time.Millisecond, func() (bool, error) { return false, nil })
			So(err, ShouldEqual, context.DeadlineExceeded)
		})

		Convey("Stop should kill it after the grace period", func() {
			So(p.Stop(10*time.Millisecond), ShouldBeNil)
			So(exited(), ShouldBeTrue)
		})
	})

	Convey("Given a process that exits immediately", t, func() {
		p, err := Start(exec.Command("true"))
		So(err, ShouldBeNil)

		Convey("Poll should report ErrExited", func() {
			err := p.Poll(context.Background(), 5*time.Millisecond, func() (bool, error) { return false, nil })
			So(err, ShouldEqual, ErrExited)
		})
	})

	Convey("Given no process", t, func() {
		var p *Process

		Convey("Poll should wait on the check and the context alone", func() {
			calls := 0
			err := p.Poll(context.Background(), time.Millisecond, func() (bool, error) {
				calls++
				return calls == 2, nil
			})
			So(err, ShouldBeNil)
			So(calls, ShouldEqual, 2)

			ctx, cancel := context.WithTimeout(context.Background(), 10*time.Millisecond)
			defer cancel()
			So(p.Poll(ctx, time.Millisecond, func() (bool, error) { return false, nil }), ShouldEqual, context.DeadlineExceeded)
		})
	})
}
