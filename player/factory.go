package player

import (
	"context"
	"sync"
	"time"

	"github.com/reel-cli/reel/engine/mpv"
	"github.com/reel-cli/reel/engine/vlc"
	"github.com/reel-cli/reel/errs"
	"github.com/reel-cli/reel/key"
	"github.com/reel-cli/reel/log"
	"github.com/samber/mo"
	"github.com/spf13/viper"
)

// MPVLauncher starts an mpv engine and returns once the file is loaded.
type MPVLauncher func(ctx context.Context, opts mpv.Options) (MPVEngine, error)

// VLCLauncher starts a VLC engine and returns once the input plays.
type VLCLauncher func(ctx context.Context, opts vlc.Options) (VLCEngine, error)

// Factory creates players and holds the single active one.
type Factory struct {
	mu     sync.Mutex
	active mo.Option[Player]

	launchMPV MPVLauncher
	launchVLC VLCLauncher
}

// FactoryOption configures a Factory.
type FactoryOption func(*Factory)

// WithMPVLauncher replaces the native mpv launcher.
func WithMPVLauncher(launch MPVLauncher) FactoryOption {
	return func(f *Factory) { f.launchMPV = launch }
}

// WithVLCLauncher replaces the native VLC launcher.
func WithVLCLauncher(launch VLCLauncher) FactoryOption {
	return func(f *Factory) { f.launchVLC = launch }
}

// NewFactory returns a factory launching the native engines unless overridden.
func NewFactory(options ...FactoryOption) *Factory {
	f := &Factory{
		launchMPV: func(ctx context.Context, opts mpv.Options) (MPVEngine, error) {
			inst, err := mpv.Launch(ctx, opts)
			if err != nil {
				return nil, err
			}
			return inst, nil
		},
		launchVLC: func(ctx context.Context, opts vlc.Options) (VLCEngine, error) {
			inst, err := vlc.Launch(ctx, opts)
			if err != nil {
				return nil, err
			}
			return inst, nil
		},
	}

	for _, option := range options {
		option(f)
	}

	return f
}

// Default is the process-wide factory.
var Default = NewFactory()

// Create destroys the active player, then builds a kind player playing source.
//
// Create holds the active slot for its whole duration, so at most one engine exists.
// A cancelled ctx leaves the active player alone and yields an aborted error.
// Failures are *errs.Error values translated from the engine's own taxonomy.
func (f *Factory) Create(ctx context.Context, kind Kind, source string, mount *Mount, opts Options) (Player, error) {
	if !kind.Valid() {
		return nil, errs.ErrUnsupportedBackend
	}

	f.mu.Lock()
	defer f.mu.Unlock()

	// a superseded caller that waited for the lock must not evict the current player
	if err := ctx.Err(); err != nil {
		return nil, Translate(kind, err)
	}

	f.destroyActive()

	if mount == nil {
		mount = &Mount{}
	}
	if err := mount.Prepare(kind); err != nil {
		return nil, Translate(kind, err)
	}

	merged := opts.Merge(kind)
	parent := ctx

	if timeout := viper.GetInt(key.PlayerReadyTimeout); timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, time.Duration(timeout)*time.Second)
		defer cancel()
	}

	var (
		p   Player
		err error
	)

	switch kind {
	case MPV:
		p, err = f.createMPV(ctx, source, mount, merged)
	case VLC:
		p, err = f.createVLC(ctx, source, mount, merged)
	}

	if err != nil {
		log.Warnf("create %s player: %v", kind, err)
		return nil, Translate(kind, err)
	}

	if err := p.SetVolume(merged.Float(OptVolume)); err != nil {
		log.Warnf("initial volume: %v", err)
	}
	if merged.Bool(OptMuted) {
		if err := p.SetMuted(true); err != nil {
			log.Warnf("initial mute: %v", err)
		}
	}

	if err := parent.Err(); err != nil {
		log.Infof("%s player for %s is no longer wanted", kind, source)
		p.Destroy()
		return nil, Translate(kind, err)
	}

	log.Infof("%s player ready for %s", kind, source)
	f.active = mo.Some(p)

	return p, nil
}

func (f *Factory) createMPV(ctx context.Context, source string, mount *Mount, opts Options) (Player, error) {
	args := opts.Strings(OptArgs)
	if opts.Bool(OptKeepOpen) {
		args = append(args, "--keep-open=yes")
	}
	if !opts.Bool(OptAutoplay) {
		args = append(args, "--pause=yes")
	}

	engine, err := f.launchMPV(ctx, mpv.Options{
		Binary: opts.String(OptBinary),
		Socket: mount.Socket,
		Source: source,
		Title:  opts.String(OptTitle),
		Args:   args,
	})
	if err != nil {
		return nil, err
	}

	return newMPVPlayer(engine, opts), nil
}

func (f *Factory) createVLC(ctx context.Context, source string, mount *Mount, opts Options) (Player, error) {
	args := opts.Strings(OptArgs)
	if !opts.Bool(OptAutoplay) {
		args = append(args, "--start-paused")
	}

	engine, err := f.launchVLC(ctx, vlc.Options{
		Binary:   opts.String(OptBinary),
		Source:   source,
		Title:    opts.String(OptTitle),
		Port:     mount.Port,
		Password: mount.Password,
		Args:     args,
	})
	if err != nil {
		return nil, err
	}

	return newVLCPlayer(engine, opts), nil
}

// Release destroys p, clearing the active slot if p holds it.
func (f *Factory) Release(p Player) {
	if p == nil {
		return
	}

	f.mu.Lock()
	if active, ok := f.active.Get(); ok && active == p {
		f.active = mo.None[Player]()
	}
	f.mu.Unlock()

	p.Destroy()
}

// Reset destroys the active player, if any.
func (f *Factory) Reset() {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.destroyActive()
}

// Active returns the active player.
func (f *Factory) Active() mo.Option[Player] {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.active
}

func (f *Factory) destroyActive() {
	if p, ok := f.active.Get(); ok {
		log.Debugf("destroying active %s player", p.Kind())
		p.Destroy()
	}
	f.active = mo.None[Player]()
}
