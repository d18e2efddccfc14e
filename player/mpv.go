package player

import (
	"errors"
	"math"
	"sync"

	"github.com/reel-cli/reel/engine/mpv"
	"github.com/reel-cli/reel/log"
	"github.com/spf13/cast"
	"golang.org/x/exp/slices"
)

// MPVEngine is the part of *mpv.Instance the adapter uses.
type MPVEngine interface {
	GetProperty(name string) (any, error)
	SetProperty(name string, value any) error
	Command(args ...any) (any, error)
	Observe(callback mpv.EventCallback)
	Quit() error
}

// mpvPlayer adapts mpv's property based access to Player.
type mpvPlayer struct {
	engine MPVEngine
	speeds []float64
	events listeners
	mu     sync.Mutex
	dead   bool
}

func newMPVPlayer(engine MPVEngine, opts Options) *mpvPlayer {
	p := &mpvPlayer{engine: engine, speeds: sortedSpeeds(opts.Floats(OptSpeeds))}
	engine.Observe(p.observe)
	return p
}

func (p *mpvPlayer) Kind() Kind { return MPV }

func (p *mpvPlayer) destroyed() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.dead
}

func (p *mpvPlayer) set(name string, value any) error {
	if p.destroyed() {
		return nil
	}
	if err := p.engine.SetProperty(name, value); err != nil {
		return TranslateMPV(err)
	}
	return nil
}

// get reads a property, returning ok=false after destroy or on failure.
func (p *mpvPlayer) get(name string) (any, bool) {
	if p.destroyed() {
		return nil, false
	}
	v, err := p.engine.GetProperty(name)
	if err != nil {
		log.Debugf("mpv get %s: %v", name, err)
		return nil, false
	}
	return v, true
}

func (p *mpvPlayer) Play() error  { return p.set("pause", false) }
func (p *mpvPlayer) Pause() error { return p.set("pause", true) }

func (p *mpvPlayer) TogglePlayPause() error {
	if p.destroyed() {
		return nil
	}
	if _, err := p.engine.Command("cycle", "pause"); err != nil {
		return TranslateMPV(err)
	}
	return nil
}

func (p *mpvPlayer) Seek(offset float64) error {
	if p.destroyed() {
		return nil
	}
	if _, err := p.engine.Command("seek", offset, "relative"); err != nil {
		return TranslateMPV(err)
	}
	return nil
}

func (p *mpvPlayer) CurrentTime() float64 {
	v, ok := p.get("time-pos")
	if !ok {
		return 0
	}
	return cast.ToFloat64(v)
}

func (p *mpvPlayer) SetCurrentTime(seconds float64) error {
	return p.set("time-pos", max(0, seconds))
}

func (p *mpvPlayer) Duration() float64 {
	v, ok := p.get("duration")
	if !ok {
		return 0
	}
	return cast.ToFloat64(v)
}

// Volume maps mpv's 0..100 percent scale to [0, 1].
func (p *mpvPlayer) Volume() float64 {
	v, ok := p.get("volume")
	if !ok {
		return DefaultVolume
	}
	return cast.ToFloat64(v) / 100
}

func (p *mpvPlayer) SetVolume(volume float64) error {
	return p.set("volume", math.Round(clampVolume(volume)*100))
}

func (p *mpvPlayer) Muted() bool {
	v, ok := p.get("mute")
	return ok && cast.ToBool(v)
}

func (p *mpvPlayer) SetMuted(muted bool) error {
	return p.set("mute", muted)
}

func (p *mpvPlayer) ToggleMute() error {
	return p.SetMuted(!p.Muted())
}

func (p *mpvPlayer) Rate() float64 {
	v, ok := p.get("speed")
	if !ok {
		return DefaultRate
	}
	return cast.ToFloat64(v)
}

func (p *mpvPlayer) SetRate(rate float64) error {
	return p.set("speed", snapRate(rate, p.speeds))
}

func (p *mpvPlayer) Speeds() []float64 {
	return slices.Clone(p.speeds)
}

func (p *mpvPlayer) Paused() bool {
	v, ok := p.get("pause")
	if !ok {
		return true
	}
	return cast.ToBool(v)
}

func (p *mpvPlayer) Ended() bool {
	v, ok := p.get("eof-reached")
	return ok && cast.ToBool(v)
}

func (p *mpvPlayer) On(event Event, callback Callback) {
	if p.destroyed() {
		return
	}
	p.events.on(event, callback)
}

// Destroy quits mpv. Quit failures are logged, never returned.
func (p *mpvPlayer) Destroy() {
	p.mu.Lock()
	if p.dead {
		p.mu.Unlock()
		return
	}
	p.dead = true
	p.mu.Unlock()

	p.events.clear()

	if err := p.engine.Quit(); err != nil {
		log.Warnf("mpv quit: %v", err)
	}
}

// observe turns mpv property changes and events into Player events.
func (p *mpvPlayer) observe(name string, data any) {
	if p.destroyed() {
		return
	}

	switch name {
	case "pause":
		if cast.ToBool(data) {
			p.events.emit(EventPause, nil)
		} else {
			p.events.emit(EventPlay, nil)
		}
	case "time-pos":
		if data != nil {
			p.events.emit(EventTimeUpdate, cast.ToFloat64(data))
		}
	case "volume", "mute":
		p.events.emit(EventVolumeChange, nil)
	case "eof-reached":
		if cast.ToBool(data) {
			p.events.emit(EventEnded, nil)
		}
	case "end-file":
		err, _ := data.(error)
		var e *mpv.Error
		if errors.As(err, &e) && e.Reason != mpv.ReasonAborted {
			p.events.emit(EventError, TranslateMPV(err))
		}
	case "shutdown":
		p.events.emit(EventError, TranslateMPV(&mpv.Error{Reason: mpv.ReasonExited}))
	}
}

func clampVolume(volume float64) float64 {
	return max(0, min(volume, 1))
}
