package session

import (
	"context"
	"sync"

	"github.com/reel-cli/reel/engine/mpv"
	"github.com/reel-cli/reel/engine/vlc"
	"github.com/reel-cli/reel/player"
)

// stubMPV and stubVLC stand in for running engines behind a real *player.Factory.
type stubMPV struct {
	mu    sync.Mutex
	quits int
}

func (e *stubMPV) GetProperty(string) (any, error) { return nil, nil }
func (e *stubMPV) SetProperty(string, any) error { return nil }
func (e *stubMPV) Command(...any) (any, error) { return nil, nil }
func (e *stubMPV) Observe(mpv.EventCallback) {}
func (e *stubMPV) Quit() error {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.quits++
	return nil
}

type stubVLC struct {
	mu       sync.Mutex
	releases int
}

func (e *stubVLC) Status() (vlc.Status, error) {
	return vlc.Status{State: "playing", Volume: vlc.UnitVolume, Rate: 1}, nil
}
func (e *stubVLC) Time() (int, error) { return 0, nil }
func (e *stubVLC) Length() (int, error) { return 0, nil }
func (e *stubVLC) Volume() (int, error) { return vlc.UnitVolume, nil }
func (e *stubVLC) SetVolume(int) error { return nil }
func (e *stubVLC) SetTime(int) error { return nil }
func (e *stubVLC) SetRate(float64) error { return nil }
func (e *stubVLC) Play() error { return nil }
func (e *stubVLC) Pause() error { return nil }
func (e *stubVLC) Code() (int, string) { return 0, "" }
func (e *stubVLC) Watch(func(vlc.Status)) {}
func (e *stubVLC) Release() error {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.releases++
	return nil
}

func (e *stubVLC) releaseCount() int {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.releases
}

// engines launches stub engines and remembers them.
type engines struct {
	mu   sync.Mutex
	mpvs []*stubMPV
	vlcs []*stubVLC
}

func (l *engines) mpv(context.Context, mpv.Options) (player.MPVEngine, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	e := &stubMPV{}
	l.mpvs = append(l.mpvs, e)
	return e, nil
}

func (l *engines) vlc(context.Context, vlc.Options) (player.VLCEngine, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	e := &stubVLC{}
	l.vlcs = append(l.vlcs, e)
	return e, nil
}

func (l *engines) launched() (mpvs, vlcs int) {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.mpvs), len(l.vlcs)
}

func (l *engines) firstVLC() *stubVLC {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.vlcs[0]
}

// heldFactory delays the first Create until hold is closed and reports its return on done.
// entered is closed once the first Create is waiting.
type heldFactory struct {
	*player.Factory

	once    sync.Once
	entered chan struct{}
	hold    chan struct{}
	done    chan error
}

func newHeldFactory(f *player.Factory) *heldFactory {
	return &heldFactory{
		Factory: f,
		entered: make(chan struct{}),
		hold:    make(chan struct{}),
		done:    make(chan error, 1),
	}
}

func (f *heldFactory) Create(ctx context.Context, kind player.Kind, source string, mount *player.Mount, opts player.Options) (player.Player, error) {
	first := false
	f.once.Do(func() { first = true })
	if !first {
		return f.Factory.Create(ctx, kind, source, mount, opts)
	}

	close(f.entered)
	<-f.hold
	p, err := f.Factory.Create(ctx, kind, source, mount, opts)
	f.done <- err
	return p, err
}
