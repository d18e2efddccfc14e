// Package player presents mpv and VLC behind one Player interface and owns the
// process-wide slot holding the single active engine.
package player

import (
	"fmt"
	"strings"

	"github.com/reel-cli/reel/errs"
)

// Kind identifies a playback backend.
type Kind int

const (
	// MPV is backend A.
	MPV Kind = iota + 1
	// VLC is backend B.
	VLC
)

// Kinds lists every known backend in preference order.
var Kinds = []Kind{MPV, VLC}

func (k Kind) String() string {
	switch k {
	case MPV:
		return "mpv"
	case VLC:
		return "vlc"
	default:
		return fmt.Sprintf("kind(%d)", int(k))
	}
}

// Display is the name used in user facing messages.
func (k Kind) Display() string {
	switch k {
	case MPV:
		return "mpv"
	case VLC:
		return "VLC"
	default:
		return k.String()
	}
}

// Valid reports whether k is a known backend.
func (k Kind) Valid() bool {
	return k == MPV || k == VLC
}

// Other returns the fallback backend for k.
func (k Kind) Other() Kind {
	if k == VLC {
		return MPV
	}
	return VLC
}

// ParseKind accepts a|mpv and b|vlc, case-insensitively.
func ParseKind(name string) (Kind, error) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "a", "mpv":
		return MPV, nil
	case "b", "vlc":
		return VLC, nil
	default:
		return 0, fmt.Errorf("%w: %q", errs.ErrUnsupportedBackend, name)
	}
}

// Event names accepted by Player.On.
type Event string

const (
	EventPlay         Event = "play"
	EventPause        Event = "pause"
	EventEnded        Event = "ended"
	EventTimeUpdate   Event = "timeupdate"
	EventVolumeChange Event = "volumechange"
	EventError        Event = "error"
)

// Callback receives event data: the position in seconds for timeupdate,
// the *errs.Error for error, and nil otherwise.
type Callback func(data any)

// Values reported by a destroyed Player.
const (
	DefaultVolume = 1.0
	DefaultRate   = 1.0
)

// Player is a uniform handle on one native playback engine.
//
// After Destroy every method is a no-op returning nil, and getters return
// zero time and duration, DefaultVolume, unmuted, paused and not ended.
type Player interface {
	Kind() Kind

	Play() error
	Pause() error
	TogglePlayPause() error

	// Seek moves the position by offset seconds.
	Seek(offset float64) error
	CurrentTime() float64
	// SetCurrentTime moves to an absolute position in seconds.
	SetCurrentTime(seconds float64) error
	Duration() float64

	// Volume is in the range [0, 1], independent of Muted.
	Volume() float64
	SetVolume(volume float64) error
	Muted() bool
	SetMuted(muted bool) error
	ToggleMute() error

	// Rate is the playback speed; SetRate snaps to the configured speeds.
	Rate() float64
	SetRate(rate float64) error
	// Speeds lists the rates SetRate snaps to, ascending. Empty means any rate.
	Speeds() []float64

	Paused() bool
	Ended() bool

	On(event Event, callback Callback)

	// Destroy releases the engine. It is safe to call more than once.
	Destroy()
}
