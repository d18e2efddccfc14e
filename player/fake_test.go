package player

import (
	"context"
	"errors"
	"sync"

	"github.com/reel-cli/reel/engine/mpv"
	"github.com/reel-cli/reel/engine/vlc"
)

type fakeMPVEngine struct {
	mu       sync.Mutex
	props    map[string]any
	commands [][]any
	callback mpv.EventCallback
	quits    int
	quitErr  error
}

func newFakeMPVEngine() *fakeMPVEngine {
	return &fakeMPVEngine{props: map[string]any{
		"time-pos":    12.5,
		"duration":    90.0,
		"volume":      100.0,
		"mute":        false,
		"pause":       false,
		"speed":       1.0,
		"eof-reached": false,
	}}
}

func (f *fakeMPVEngine) GetProperty(name string) (any, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	v, ok := f.props[name]
	if !ok {
		return nil, &mpv.Error{Reason: "property unavailable"}
	}
	return v, nil
}

func (f *fakeMPVEngine) SetProperty(name string, value any) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.props[name] = value
	return nil
}

func (f *fakeMPVEngine) Command(args ...any) (any, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.commands = append(f.commands, args)
	return nil, nil
}

func (f *fakeMPVEngine) Observe(callback mpv.EventCallback) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.callback = callback
}

func (f *fakeMPVEngine) Quit() error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.quits++
	return f.quitErr
}

func (f *fakeMPVEngine) emit(name string, data any) {
	f.mu.Lock()
	callback := f.callback
	f.mu.Unlock()
	callback(name, data)
}

func (f *fakeMPVEngine) prop(name string) any {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.props[name]
}

type fakeVLCEngine struct {
	mu       sync.Mutex
	status   vlc.Status
	code     int
	watcher  func(vlc.Status)
	releases int
	relErr   error
}

func newFakeVLCEngine() *fakeVLCEngine {
	return &fakeVLCEngine{status: vlc.Status{State: "playing", Time: 30, Length: 600, Volume: vlc.UnitVolume, Rate: 1}}
}

func (f *fakeVLCEngine) Status() (vlc.Status, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.status, nil
}

func (f *fakeVLCEngine) Time() (int, error) {
	s, err := f.Status()
	return s.Time, err
}

func (f *fakeVLCEngine) Length() (int, error) {
	s, err := f.Status()
	return s.Length, err
}

func (f *fakeVLCEngine) Volume() (int, error) {
	s, err := f.Status()
	return s.Volume, err
}

func (f *fakeVLCEngine) SetVolume(volume int) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.status.Volume = volume
	return nil
}

func (f *fakeVLCEngine) SetTime(seconds int) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.status.Time = seconds
	return nil
}

func (f *fakeVLCEngine) SetRate(rate float64) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.status.Rate = rate
	return nil
}

func (f *fakeVLCEngine) Play() error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.status.State = "playing"
	return nil
}

func (f *fakeVLCEngine) Pause() error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.status.State = "paused"
	return nil
}

func (f *fakeVLCEngine) Code() (int, string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.code, "main decoder error: cannot decode"
}

func (f *fakeVLCEngine) Watch(fn func(vlc.Status)) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.watcher = fn
}

func (f *fakeVLCEngine) Release() error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.releases++
	return f.relErr
}

// launchers records launches and hands out fake engines or a fixed error.
type launchers struct {
	mu      sync.Mutex
	mpvOpts []mpv.Options
	vlcOpts []vlc.Options
	mpvs    []*fakeMPVEngine
	vlcs    []*fakeVLCEngine
	err     error
	// launched runs after an engine starts, before the factory sees it
	launched func()
}

func (l *launchers) mpv(_ context.Context, opts mpv.Options) (MPVEngine, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.mpvOpts = append(l.mpvOpts, opts)
	if l.err != nil {
		return nil, l.err
	}
	e := newFakeMPVEngine()
	l.mpvs = append(l.mpvs, e)
	if l.launched != nil {
		l.launched()
	}
	return e, nil
}

func (l *launchers) vlc(_ context.Context, opts vlc.Options) (VLCEngine, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.vlcOpts = append(l.vlcOpts, opts)
	if l.err != nil {
		return nil, l.err
	}
	e := newFakeVLCEngine()
	l.vlcs = append(l.vlcs, e)
	if l.launched != nil {
		l.launched()
	}
	return e, nil
}

func (l *launchers) calls() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.mpvOpts) + len(l.vlcOpts)
}

var errBoom = errors.New("boom")
