package player

import (
	"math"
	"sync"

	"github.com/reel-cli/reel/engine/vlc"
	"github.com/reel-cli/reel/log"
	"golang.org/x/exp/slices"
)

// VLCEngine is the part of *vlc.Instance the adapter uses.
type VLCEngine interface {
	Status() (vlc.Status, error)
	Time() (int, error)
	Length() (int, error)
	Volume() (int, error)
	SetVolume(volume int) error
	SetTime(seconds int) error
	SetRate(rate float64) error
	Play() error
	Pause() error
	Code() (int, string)
	Watch(fn func(vlc.Status))
	Release() error
}

// vlcPlayer adapts VLC's function call access to Player.
// VLC's HTTP interface has no mute, so muting parks the volume at zero.
type vlcPlayer struct {
	engine VLCEngine
	speeds []float64
	events listeners

	mu        sync.Mutex
	dead      bool
	muted     bool
	saved     int
	last      vlc.Status
	reported  bool
	watchOnce sync.Once
}

func newVLCPlayer(engine VLCEngine, opts Options) *vlcPlayer {
	return &vlcPlayer{
		engine: engine,
		speeds: sortedSpeeds(opts.Floats(OptSpeeds)),
		saved:  vlc.UnitVolume,
		last:   vlc.Status{State: "playing"},
	}
}

func (p *vlcPlayer) Kind() Kind { return VLC }

func (p *vlcPlayer) destroyed() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.dead
}

// call runs fn unless the player is destroyed, translating failures.
func (p *vlcPlayer) call(fn func() error) error {
	if p.destroyed() {
		return nil
	}
	if err := fn(); err != nil {
		return TranslateVLC(err)
	}
	return nil
}

func (p *vlcPlayer) status() (vlc.Status, bool) {
	if p.destroyed() {
		return vlc.Status{}, false
	}
	s, err := p.engine.Status()
	if err != nil {
		log.Debugf("vlc status: %v", err)
		return vlc.Status{}, false
	}
	return s, true
}

func (p *vlcPlayer) Play() error  { return p.call(p.engine.Play) }
func (p *vlcPlayer) Pause() error { return p.call(p.engine.Pause) }

func (p *vlcPlayer) TogglePlayPause() error {
	if p.Paused() {
		return p.Play()
	}
	return p.Pause()
}

func (p *vlcPlayer) Seek(offset float64) error {
	return p.call(func() error {
		t, err := p.engine.Time()
		if err != nil {
			return err
		}
		return p.engine.SetTime(max(0, t+int(math.Round(offset))))
	})
}

func (p *vlcPlayer) CurrentTime() float64 {
	if p.destroyed() {
		return 0
	}
	t, err := p.engine.Time()
	if err != nil {
		return 0
	}
	return float64(t)
}

func (p *vlcPlayer) SetCurrentTime(seconds float64) error {
	return p.call(func() error {
		return p.engine.SetTime(int(math.Round(max(0, seconds))))
	})
}

func (p *vlcPlayer) Duration() float64 {
	if p.destroyed() {
		return 0
	}
	l, err := p.engine.Length()
	if err != nil {
		return 0
	}
	return float64(l)
}

// Volume maps VLC's 0..256 scale to [0, 1]. While muted it reports the parked volume.
func (p *vlcPlayer) Volume() float64 {
	if p.destroyed() {
		return DefaultVolume
	}

	p.mu.Lock()
	muted, saved := p.muted, p.saved
	p.mu.Unlock()

	if muted {
		return float64(saved) / vlc.UnitVolume
	}

	v, err := p.engine.Volume()
	if err != nil {
		return DefaultVolume
	}
	return float64(v) / vlc.UnitVolume
}

func (p *vlcPlayer) SetVolume(volume float64) error {
	scaled := int(math.Round(clampVolume(volume) * vlc.UnitVolume))

	p.mu.Lock()
	if p.muted {
		p.saved = scaled
		p.mu.Unlock()
		return nil
	}
	p.mu.Unlock()

	return p.call(func() error { return p.engine.SetVolume(scaled) })
}

func (p *vlcPlayer) Muted() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return !p.dead && p.muted
}

func (p *vlcPlayer) SetMuted(muted bool) error {
	if p.destroyed() || p.Muted() == muted {
		return nil
	}

	if muted {
		current, err := p.engine.Volume()
		if err != nil {
			return TranslateVLC(err)
		}
		if err := p.engine.SetVolume(0); err != nil {
			return TranslateVLC(err)
		}

		p.mu.Lock()
		p.muted, p.saved = true, current
		p.mu.Unlock()
	} else {
		p.mu.Lock()
		saved := p.saved
		p.mu.Unlock()

		if err := p.engine.SetVolume(saved); err != nil {
			return TranslateVLC(err)
		}

		p.mu.Lock()
		p.muted = false
		p.mu.Unlock()
	}

	p.events.emit(EventVolumeChange, nil)
	return nil
}

func (p *vlcPlayer) ToggleMute() error {
	return p.SetMuted(!p.Muted())
}

func (p *vlcPlayer) Rate() float64 {
	s, ok := p.status()
	if !ok || s.Rate == 0 {
		return DefaultRate
	}
	return s.Rate
}

func (p *vlcPlayer) SetRate(rate float64) error {
	return p.call(func() error { return p.engine.SetRate(snapRate(rate, p.speeds)) })
}

func (p *vlcPlayer) Speeds() []float64 {
	return slices.Clone(p.speeds)
}

func (p *vlcPlayer) Paused() bool {
	s, ok := p.status()
	return !ok || s.State != "playing"
}

func (p *vlcPlayer) Ended() bool {
	s, ok := p.status()
	return ok && s.State == "stopped"
}

// On registers callback. The first registration starts polling VLC for changes.
func (p *vlcPlayer) On(event Event, callback Callback) {
	if p.destroyed() {
		return
	}
	p.events.on(event, callback)
	p.watchOnce.Do(func() {
		p.engine.Watch(p.observe)
	})
}

// Destroy releases VLC. Release failures are logged, never returned.
func (p *vlcPlayer) Destroy() {
	p.mu.Lock()
	if p.dead {
		p.mu.Unlock()
		return
	}
	p.dead = true
	p.mu.Unlock()

	p.events.clear()

	if err := p.engine.Release(); err != nil {
		log.Warnf("vlc release: %v", err)
	}
}

// observe diffs consecutive statuses into Player events.
func (p *vlcPlayer) observe(s vlc.Status) {
	p.mu.Lock()
	if p.dead {
		p.mu.Unlock()
		return
	}
	last, muted := p.last, p.muted
	p.last = s
	p.mu.Unlock()

	if s.State != last.State {
		switch s.State {
		case "playing":
			p.events.emit(EventPlay, nil)
		case "paused":
			p.events.emit(EventPause, nil)
		case "stopped":
			p.events.emit(EventEnded, nil)
		}
	}

	if s.Time != last.Time {
		p.events.emit(EventTimeUpdate, float64(s.Time))
	}

	if s.Volume != last.Volume && !muted {
		p.events.emit(EventVolumeChange, nil)
	}

	if code, line := p.engine.Code(); code != vlc.CodeNone {
		p.mu.Lock()
		first := !p.reported
		p.reported = true
		p.mu.Unlock()

		if first {
			p.events.emit(EventError, TranslateVLC(&vlc.Error{Code: code, Message: line}))
		}
	}
}
