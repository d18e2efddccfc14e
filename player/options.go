package player

import (
	"github.com/reel-cli/reel/key"
	"github.com/reel-cli/reel/log"
	"github.com/samber/lo"
	"github.com/spf13/cast"
	"github.com/spf13/viper"
	"golang.org/x/exp/slices"
)

// Options is the engine configuration passed to Factory.Create. Caller values override the engine defaults.
type Options map[string]any

// Option keys.
const (
	OptAutoplay = "autoplay"
	OptVolume   = "volume"
	OptMuted    = "muted"
	OptSpeeds   = "speeds"
	OptControls = "controls"
	OptKeepOpen = "keep-open"
	OptTitle    = "title"
	OptBinary   = "binary"
	OptArgs     = "args"
)

// Defaults returns the engine specific defaults for kind.
func Defaults(kind Kind) Options {
	switch kind {
	case MPV:
		return Options{
			OptSpeeds:   []float64{0.5, 0.75, 1, 1.25, 1.5, 2},
			OptControls: []string{"play", "progress", "current-time", "mute", "volume", "fullscreen"},
			OptAutoplay: true,
			OptVolume:   1.0,
			OptMuted:    false,
			OptKeepOpen: true,
			OptBinary:   "mpv",
		}
	case VLC:
		return Options{
			OptSpeeds:   []float64{0.25, 0.5, 1, 1.5, 2},
			OptControls: []string{"play", "progress", "current-time", "mute", "volume"},
			OptAutoplay: true,
			OptVolume:   1.0,
			OptMuted:    false,
			OptBinary:   "vlc",
		}
	default:
		return Options{}
	}
}

// ConfigOptions returns the options set through configuration for kind.
// Unset keys are left out so engine defaults apply.
func ConfigOptions(kind Kind) Options {
	opts := Options{}

	binaryKey := key.PlayerMPVPath
	if kind == VLC {
		binaryKey = key.PlayerVLCPath
	}
	if binary := viper.GetString(binaryKey); binary != "" {
		opts[OptBinary] = binary
	}

	if viper.IsSet(key.PlayerAutoplay) {
		opts[OptAutoplay] = viper.GetBool(key.PlayerAutoplay)
	}
	if viper.IsSet(key.PlayerVolume) {
		opts[OptVolume] = float64(viper.GetInt(key.PlayerVolume)) / 100
	}
	if controls := viper.GetStringSlice(key.PlayerControls); len(controls) > 0 {
		opts[OptControls] = controls
	}

	return opts
}

// Merge lays o over the defaults of kind.
func (o Options) Merge(kind Kind) Options {
	return lo.Assign(Defaults(kind), o)
}

// Bool coerces the value of key, returning false when absent or invalid.
func (o Options) Bool(key string) bool {
	v, err := cast.ToBoolE(o[key])
	if err != nil {
		log.Warnf("option %s: %v", key, err)
	}
	return v
}

// Float coerces the value of key, returning 0 when absent or invalid.
func (o Options) Float(key string) float64 {
	v, err := cast.ToFloat64E(o[key])
	if err != nil {
		log.Warnf("option %s: %v", key, err)
	}
	return v
}

// String coerces the value of key.
func (o Options) String(key string) string {
	return cast.ToString(o[key])
}

// Strings coerces the value of key to a string slice.
func (o Options) Strings(key string) []string {
	return cast.ToStringSlice(o[key])
}

// Floats coerces the value of key to a float slice, dropping entries that are not numbers.
func (o Options) Floats(key string) []float64 {
	switch v := o[key].(type) {
	case []float64:
		return v
	case []any:
		return toFloats(v)
	case []string:
		return toFloats(v)
	default:
		return nil
	}
}

func toFloats[T any](items []T) []float64 {
	return lo.FilterMap(items, func(item T, _ int) (float64, bool) {
		f, err := cast.ToFloat64E(item)
		return f, err == nil
	})
}

// Has reports whether key is set.
func (o Options) Has(key string) bool {
	_, ok := o[key]
	return ok
}

// sortedSpeeds returns an ascending copy of speeds.
func sortedSpeeds(speeds []float64) []float64 {
	s := slices.Clone(speeds)
	slices.Sort(s)
	return s
}

// snapRate returns the allowed speed closest to rate.
func snapRate(rate float64, speeds []float64) float64 {
	if len(speeds) == 0 {
		return rate
	}

	return lo.MinBy(speeds, func(a, b float64) bool {
		return abs(a-rate) < abs(b-rate)
	})
}

func abs(f float64) float64 {
	if f < 0 {
		return -f
	}
	return f
}
