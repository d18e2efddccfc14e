package session

import (
	"context"
	"sync"
	"time"

	"github.com/reel-cli/reel/player"
)

// manualClock records timers and fires them on demand.
type manualClock struct {
	mu     sync.Mutex
	timers []*manualTimer
}

type manualTimer struct {
	clock   *manualClock
	delay   time.Duration
	fn      func()
	stopped bool
	fired   bool
}

func (c *manualClock) AfterFunc(d time.Duration, f func()) Timer {
	c.mu.Lock()
	defer c.mu.Unlock()
	t := &manualTimer{clock: c, delay: d, fn: f}
	c.timers = append(c.timers, t)
	return t
}

func (t *manualTimer) Stop() bool {
	t.clock.mu.Lock()
	defer t.clock.mu.Unlock()
	active := !t.stopped && !t.fired
	t.stopped = true
	return active
}

// pending returns the timers that have neither fired nor been stopped.
func (c *manualClock) pending() []*manualTimer {
	c.mu.Lock()
	defer c.mu.Unlock()

	var out []*manualTimer
	for _, t := range c.timers {
		if !t.stopped && !t.fired {
			out = append(out, t)
		}
	}
	return out
}

// delays returns the delay of every timer ever scheduled.
func (c *manualClock) delays() []time.Duration {
	c.mu.Lock()
	defer c.mu.Unlock()

	out := make([]time.Duration, len(c.timers))
	for i, t := range c.timers {
		out[i] = t.delay
	}
	return out
}

// fire runs t regardless of whether it was stopped, the way a timer that
// raced with Stop would.
func (t *manualTimer) fire() {
	t.clock.mu.Lock()
	t.fired = true
	t.clock.mu.Unlock()
	t.fn()
}

type fakePlayer struct {
	kind      player.Kind
	mu        sync.Mutex
	destroyed int
	callbacks map[player.Event][]player.Callback
}

func (p *fakePlayer) Kind() player.Kind { return p.kind }
func (p *fakePlayer) Play() error { return nil }
func (p *fakePlayer) Pause() error { return nil }
func (p *fakePlayer) TogglePlayPause() error { return nil }
func (p *fakePlayer) Seek(float64) error { return nil }
func (p *fakePlayer) CurrentTime() float64 { return 0 }
func (p *fakePlayer) SetCurrentTime(float64) error { return nil }
func (p *fakePlayer) Duration() float64 { return 0 }
func (p *fakePlayer) Volume() float64 { return player.DefaultVolume }
func (p *fakePlayer) SetVolume(float64) error { return nil }
func (p *fakePlayer) Muted() bool { return false }
func (p *fakePlayer) SetMuted(bool) error { return nil }
func (p *fakePlayer) ToggleMute() error { return nil }
func (p *fakePlayer) Rate() float64 { return player.DefaultRate }
func (p *fakePlayer) SetRate(float64) error { return nil }
func (p *fakePlayer) Paused() bool { return false }
func (p *fakePlayer) Ended() bool { return false }
func (p *fakePlayer) Speeds() []float64 { return []float64{1} }
func (p *fakePlayer) On(event player.Event, fn player.Callback) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.callbacks == nil {
		p.callbacks = make(map[player.Event][]player.Callback)
	}
	p.callbacks[event] = append(p.callbacks[event], fn)
}

// emit delivers data to the callbacks registered for event, the way an engine would.
func (p *fakePlayer) emit(event player.Event, data any) {
	p.mu.Lock()
	fns := append([]player.Callback(nil), p.callbacks[event]...)
	p.mu.Unlock()
	for _, fn := range fns {
		fn(data)
	}
}
func (p *fakePlayer) Destroy() {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.destroyed++
}

func (p *fakePlayer) destroyCount() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.destroyed
}

type createCall struct {
	kind   player.Kind
	source string
}

// fakeFactory answers Create from a script of errors; a nil entry succeeds.
// Once the script is exhausted the last entry repeats.
type fakeFactory struct {
	mu       sync.Mutex
	script   []error
	calls    []createCall
	released []player.Player
	gate     chan struct{}
}

func (f *fakeFactory) Create(_ context.Context, kind player.Kind, source string, _ *player.Mount, _ player.Options) (player.Player, error) {
	f.mu.Lock()
	f.calls = append(f.calls, createCall{kind: kind, source: source})
	n := len(f.calls)
	gate := f.gate
	var err error
	if len(f.script) > 0 {
		err = f.script[min(n, len(f.script))-1]
	}
	f.mu.Unlock()

	if gate != nil {
		<-gate
	}

	if err != nil {
		return nil, err
	}
	return &fakePlayer{kind: kind}, nil
}

func (f *fakeFactory) Release(p player.Player) {
	f.mu.Lock()
	f.released = append(f.released, p)
	f.mu.Unlock()
	p.Destroy()
}

func (f *fakeFactory) callCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.calls)
}

func (f *fakeFactory) callsFor(source string) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	n := 0
	for _, c := range f.calls {
		if c.source == source {
			n++
		}
	}
	return n
}

func (f *fakeFactory) releasedCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.released)
}

// eventually polls cond for up to two seconds.
func eventually(cond func() bool) bool {
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if cond() {
			return true
		}
		time.Sleep(time.Millisecond)
	}
	return cond()
}
