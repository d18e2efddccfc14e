// Package session owns the lifecycle of one playback session: it acquires the media
// handle, asks the factory for a player, retries recoverable failures with linear
// backoff and offers a manual retry and a fallback to the other backend.
package session

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/reel-cli/reel/errs"
	"github.com/reel-cli/reel/handle"
	"github.com/reel-cli/reel/key"
	"github.com/reel-cli/reel/log"
	"github.com/reel-cli/reel/media"
	"github.com/reel-cli/reel/player"
	"github.com/samber/mo"
	"github.com/spf13/viper"
	"golang.org/x/exp/slices"
)

const (
	// DefaultMaxRetries is the number of automatic retries after the first attempt.
	DefaultMaxRetries = 3
	// DefaultRetryDelay is the backoff unit; the nth retry waits n units.
	DefaultRetryDelay = time.Second
)

var (
	// ErrRetryUnavailable is returned by Retry outside Failed or once retries are exhausted.
	ErrRetryUnavailable = errors.New("retry is not available")
	// ErrFallbackUnavailable is returned by RequestFallback unless the last failure was a player error.
	ErrFallbackUnavailable = errors.New("fallback is not available")
	// ErrNoSession is returned when an operation needs a session and there is none.
	ErrNoSession = errors.New("no active session")
)

// Handles is the resource handle manager the controller draws handles from.
type Handles interface {
	Acquire(f *media.File) (*handle.MediaHandle, error)
	Release(h *handle.MediaHandle)
}

// Factory builds players. *player.Factory satisfies it.
type Factory interface {
	Create(ctx context.Context, kind player.Kind, source string, mount *player.Mount, opts player.Options) (player.Player, error)
	Release(p player.Player)
}

// Controller drives sessions through Initializing, Ready and Failed.
// It is safe for concurrent use. Callbacks run without the controller lock held.
type Controller struct {
	mu sync.Mutex

	handles Handles
	factory Factory
	clock   Clock

	maxRetries int
	retryDelay time.Duration
	precheck   bool
	options    func(player.Kind) player.Options

	onReady  func(player.Player)
	onError  func(Failure)
	onChange func(State)

	current *session
}

// session is one (file, kind) pair. A new value replaces it whenever either changes,
// so callbacks holding a superseded session can detect that they are stale.
type session struct {
	file    *media.File
	kind    player.Kind
	state   State
	handle  *handle.MediaHandle
	player  player.Player
	timer   Timer
	cancel  context.CancelFunc
	attempt int
}

// Option configures a Controller.
type Option func(*Controller)

// WithClock replaces the clock used for retry timers.
func WithClock(clock Clock) Option {
	return func(c *Controller) { c.clock = clock }
}

// WithRetries sets the maximum number of automatic retries and the backoff unit.
func WithRetries(retries int, delay time.Duration) Option {
	return func(c *Controller) {
		c.maxRetries = retries
		c.retryDelay = delay
	}
}

// WithPrecheck makes fallback conditional on the other backend claiming the file's extension.
func WithPrecheck(enabled bool) Option {
	return func(c *Controller) { c.precheck = enabled }
}

// WithPlayerOptions sets the per-backend options passed to the factory.
func WithPlayerOptions(fn func(player.Kind) player.Options) Option {
	return func(c *Controller) { c.options = fn }
}

// OnReady registers the callback invoked once per session when its player is ready.
func OnReady(fn func(player.Player)) Option {
	return func(c *Controller) { c.onReady = fn }
}

// OnError registers the callback invoked when a session enters Failed.
func OnError(fn func(Failure)) Option {
	return func(c *Controller) { c.onError = fn }
}

// OnChange registers the callback invoked after every state transition.
func OnChange(fn func(State)) Option {
	return func(c *Controller) { c.onChange = fn }
}

// New returns a controller. Retry limits and the fallback pre-check default to configuration.
func New(handles Handles, factory Factory, options ...Option) *Controller {
	c := &Controller{
		handles:    handles,
		factory:    factory,
		clock:      realClock{},
		maxRetries: DefaultMaxRetries,
		retryDelay: DefaultRetryDelay,
		options:    player.ConfigOptions,
	}

	if viper.IsSet(key.PlayerRetryMax) {
		c.maxRetries = max(0, viper.GetInt(key.PlayerRetryMax))
	}
	if viper.IsSet(key.PlayerRetryDelayMs) {
		c.retryDelay = time.Duration(viper.GetInt(key.PlayerRetryDelayMs)) * time.Millisecond
	}
	c.precheck = viper.GetBool(key.PlayerFallbackPrecheck)

	for _, option := range options {
		option(c)
	}

	return c
}

// MaxRetries returns the automatic retry limit.
func (c *Controller) MaxRetries() int {
	return c.maxRetries
}

// Load plays file on kind. It is a no-op when the current session already has the
// same file identity and kind; otherwise the current session is torn down first.
// A nil file fails the new session with a file error.
func (c *Controller) Load(file *media.File, kind player.Kind) {
	c.mu.Lock()

	if s := c.current; s != nil && s.kind == kind && sameFile(s.file, file) {
		c.mu.Unlock()
		return
	}

	c.teardownLocked()

	s := &session{file: file, kind: kind}
	c.current = s

	var n notes
	if file == nil {
		n = c.failLocked(s, errs.NewFile(errs.CodeFileMissing, "No file was provided"))
	} else {
		n = c.startLocked(s)
	}

	c.mu.Unlock()
	n.fire(c)
}

// Retry restarts a failed session from Initializing with the retry count reset.
func (c *Controller) Retry() error {
	c.mu.Lock()

	s := c.current
	if s == nil {
		c.mu.Unlock()
		return ErrNoSession
	}
	if s.state.Phase != Failed || !c.canRetry(s) {
		c.mu.Unlock()
		return ErrRetryUnavailable
	}

	log.Infof("manual retry of %s on %s", s.file.Name, s.kind)
	s.state = State{Phase: Initializing}

	var n notes
	if s.handle == nil || s.handle.Revoked() {
		n = c.startLocked(s)
	} else {
		c.attemptLocked(s)
		n.change = mo.Some(s.state)
	}

	c.mu.Unlock()
	n.fire(c)
	return nil
}

// RequestFallback starts a new session for the same file on the other backend.
// It returns the backend that was started.
func (c *Controller) RequestFallback() (player.Kind, error) {
	c.mu.Lock()

	s := c.current
	if s == nil {
		c.mu.Unlock()
		return 0, ErrNoSession
	}
	if s.state.Phase != Failed || !c.canFallback(s) {
		c.mu.Unlock()
		return 0, ErrFallbackUnavailable
	}

	file, kind := s.file, s.kind.Other()
	log.Infof("falling back from %s to %s for %s", s.kind, kind, file.Name)

	c.teardownLocked()

	next := &session{file: file, kind: kind}
	c.current = next
	n := c.startLocked(next)

	c.mu.Unlock()
	n.fire(c)
	return kind, nil
}

// Close tears down the current session without starting a new one.
func (c *Controller) Close() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.teardownLocked()
}

// State returns the current session state. Without a session it reports Initializing.
func (c *Controller) State() State {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.current == nil {
		return State{}
	}
	return c.current.state
}

// Player returns the player of the current session once it is Ready.
func (c *Controller) Player() mo.Option[player.Player] {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.current == nil || c.current.player == nil {
		return mo.None[player.Player]()
	}
	return mo.Some(c.current.player)
}

// Kind returns the backend of the current session.
func (c *Controller) Kind() mo.Option[player.Kind] {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.current == nil {
		return mo.None[player.Kind]()
	}
	return mo.Some(c.current.kind)
}

// Failure returns the caller facing failure of the current session when it is Failed.
func (c *Controller) Failure() mo.Option[Failure] {
	c.mu.Lock()
	defer c.mu.Unlock()

	s := c.current
	if s == nil || s.state.Phase != Failed {
		return mo.None[Failure]()
	}
	return mo.Some(c.failure(s))
}

func sameFile(a, b *media.File) bool {
	return a != nil && b != nil && a.Identity() == b.Identity()
}

// startLocked acquires the handle and makes the first attempt.
// Handle failures are file errors and fail the session without reaching the factory.
func (c *Controller) startLocked(s *session) notes {
	s.state = State{Phase: Initializing}

	h, err := c.handles.Acquire(s.file)
	if err != nil {
		log.Warnf("acquire %s: %v", s.file.Name, err)
		return c.failLocked(s, errs.Classify(err))
	}
	s.handle = h

	c.attemptLocked(s)
	return notes{change: mo.Some(s.state)}
}

// attemptLocked starts one asynchronous factory call for s.
func (c *Controller) attemptLocked(s *session) {
	s.attempt++
	s.timer = nil

	ctx, cancel := context.WithCancel(context.Background())
	s.cancel = cancel

	go c.construct(ctx, s, s.attempt, s.kind, s.handle.Reference())
}

func (c *Controller) construct(ctx context.Context, s *session, attempt int, kind player.Kind, source string) {
	log.Debugf("constructing %s player, attempt %d", kind, attempt)

	p, err := c.factory.Create(ctx, kind, source, &player.Mount{}, c.options(kind))

	c.mu.Lock()

	if c.current != s || s.attempt != attempt || s.state.Phase != Initializing {
		c.mu.Unlock()
		log.Debugf("discarding stale %s construction", kind)
		if p != nil {
			c.factory.Release(p)
		}
		return
	}

	s.cancel()
	s.cancel = nil

	var n notes
	if err != nil {
		n = c.failureLocked(s, errs.Classify(err))
	} else {
		s.player = p
		// Release may wait on the goroutine delivering the event
		p.On(player.EventError, func(data any) { go c.engineFailed(s, p, data) })
		s.state = State{Phase: Ready, RetryCount: s.state.RetryCount}
		n = notes{change: mo.Some(s.state), ready: mo.Some(p)}
		log.Infof("%s player ready after %d retries", kind, s.state.RetryCount)
	}

	c.mu.Unlock()
	n.fire(c)
}

// engineFailed fails a Ready session whose engine reported an error or went away.
// The handle is kept so a manual retry starts a new engine on the same source.
func (c *Controller) engineFailed(s *session, p player.Player, data any) {
	c.mu.Lock()

	if c.current != s || s.player != p || s.state.Phase != Ready {
		c.mu.Unlock()
		return
	}

	s.player = nil
	s.state.RetryCount = 0
	n := c.failLocked(s, engineError(s.kind, data))

	c.mu.Unlock()

	c.factory.Release(p)
	n.fire(c)
}

func engineError(kind player.Kind, data any) *errs.Error {
	if err, ok := data.(error); ok && err != nil {
		return player.Translate(kind, err)
	}
	return errs.NewPlayer(errs.CodeInit, kind.Display()+" stopped unexpectedly", true, nil)
}

// failureLocked schedules a retry for recoverable failures while retries remain,
// and fails the session otherwise.
func (c *Controller) failureLocked(s *session, e *errs.Error) notes {
	if !e.Recoverable || s.state.RetryCount >= c.maxRetries {
		return c.failLocked(s, e)
	}

	delay := c.retryDelay * time.Duration(s.state.RetryCount+1)
	s.state.RetryCount++
	s.state.LastError = e

	attempt := s.attempt
	log.Warnf("%s; retry %d/%d in %s", e.Message, s.state.RetryCount, c.maxRetries, delay)

	s.timer = c.clock.AfterFunc(delay, func() {
		c.retryAfterDelay(s, attempt)
	})

	return notes{change: mo.Some(s.state)}
}

func (c *Controller) retryAfterDelay(s *session, attempt int) {
	c.mu.Lock()

	if c.current != s || s.attempt != attempt || s.state.Phase != Initializing {
		c.mu.Unlock()
		return
	}

	c.attemptLocked(s)

	c.mu.Unlock()
}

func (c *Controller) failLocked(s *session, e *errs.Error) notes {
	s.state.Phase = Failed
	s.state.LastError = e
	log.Errorf("%s session failed: %v", s.kind, e)

	return notes{change: mo.Some(s.state), failure: mo.Some(c.failure(s))}
}

func (c *Controller) failure(s *session) Failure {
	e := s.state.LastError
	return Failure{
		Err:         e,
		CanRetry:    c.canRetry(s),
		CanFallback: c.canFallback(s),
		Suggestions: slices.Clone(e.Suggestions),
	}
}

// canRetry disables manual retry for file errors and once automatic retries are exhausted.
func (c *Controller) canRetry(s *session) bool {
	e := s.state.LastError
	return e != nil && e.Kind == errs.KindPlayer && s.state.RetryCount < c.maxRetries
}

func (c *Controller) canFallback(s *session) bool {
	e := s.state.LastError
	if e == nil || e.Kind != errs.KindPlayer {
		return false
	}
	if c.precheck {
		return s.kind.Other().Claims(s.file.Ext())
	}
	return true
}

// teardownLocked cancels pending work and releases the player before the handle.
func (c *Controller) teardownLocked() {
	s := c.current
	if s == nil {
		return
	}
	c.current = nil

	if s.timer != nil {
		s.timer.Stop()
		s.timer = nil
	}
	if s.cancel != nil {
		s.cancel()
		s.cancel = nil
	}
	if s.player != nil {
		c.factory.Release(s.player)
		s.player = nil
	}
	if s.handle != nil {
		c.handles.Release(s.handle)
		s.handle = nil
	}
}

// notes are the callbacks a transition produced, fired after the lock is released.
type notes struct {
	change  mo.Option[State]
	ready   mo.Option[player.Player]
	failure mo.Option[Failure]
}

func (n notes) fire(c *Controller) {
	if state, ok := n.change.Get(); ok && c.onChange != nil {
		c.onChange(state)
	}
	if p, ok := n.ready.Get(); ok && c.onReady != nil {
		c.onReady(p)
	}
	if f, ok := n.failure.Get(); ok && c.onError != nil {
		c.onError(f)
	}
}
