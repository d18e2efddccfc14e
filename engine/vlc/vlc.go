// Package vlc drives a native VLC process through its HTTP control interface.
//
// VLC has no structured error channel. Failures are recovered from its log stream
// and reported as numeric codes on *Error.
package vlc

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"os/exec"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/reel-cli/reel/engine/proc"
	"github.com/reel-cli/reel/log"
	"github.com/reel-cli/reel/network"
)

// Error codes, in the order VLC's own media error values use.
const (
	CodeNone        = 0
	CodeAborted     = 1
	CodeNetwork     = 2
	CodeDecode      = 3
	CodeUnsupported = 4
)

const (
	readyPollInterval = 150 * time.Millisecond
	watchInterval     = 250 * time.Millisecond
	requestTimeout    = 3 * time.Second

	// MaxVolume is VLC's 200% volume; 256 is 100%.
	MaxVolume = 512
	// UnitVolume is VLC's 100% volume.
	UnitVolume = 256
)

// Error is a VLC failure with a numeric code. Code is CodeNone for failures
// that happened before VLC could report anything, such as a spawn error.
type Error struct {
	Code    int
	Message string
	Err     error
}

func (e *Error) Error() string {
	msg := e.Message
	if msg == "" && e.Err != nil {
		msg = e.Err.Error()
	}
	if msg == "" {
		msg = "unknown failure"
	}
	return fmt.Sprintf("vlc: code %d: %s", e.Code, msg)
}

func (e *Error) Unwrap() error {
	return e.Err
}

// Options configures a native VLC instance.
type Options struct {
	Binary   string
	Source   string
	Title    string
	Port     int
	Password string
	Args     []string
}

// Status is the subset of /requests/status.json reel reads.
type Status struct {
	State    string  `json:"state"`
	Time     int     `json:"time"`
	Length   int     `json:"length"`
	Volume   int     `json:"volume"`
	Position float64 `json:"position"`
	Rate     float64 `json:"rate"`
}

// Playing reports whether VLC has an input that is playing or paused.
func (s Status) Playing() bool {
	return s.State == "playing" || s.State == "paused"
}

// Instance is one running VLC process with a loaded input.
type Instance struct {
	opts   Options
	proc   *proc.Process
	client *http.Client
	base   string
	log    *classifier

	watchOnce sync.Once
	watchMu   sync.Mutex
	watcher   func(Status)
	stop      chan struct{}

	releaseOnce sync.Once
}

// Launch starts VLC with the HTTP interface on opts.Port and waits until the input plays.
func Launch(ctx context.Context, opts Options) (*Instance, error) {
	source, err := sanitizeSource(opts.Source)
	if err != nil {
		return nil, &Error{Code: CodeNone, Message: "invalid source", Err: err}
	}
	opts.Source = source

	if opts.Binary == "" {
		opts.Binary = "vlc"
	}

	args := []string{
		"--intf", "dummy",
		"--extraintf", "http",
		"--http-host", "127.0.0.1",
		"--http-port", strconv.Itoa(opts.Port),
		"--http-password", opts.Password,
		"--no-video-title-show",
		"--verbose", "1",
	}
	if opts.Title != "" {
		args = append(args, "--meta-title", strings.TrimSpace(opts.Title))
	}
	args = append(args, opts.Args...)
	args = append(args, "--", opts.Source)

	cls := &classifier{}

	cmd := exec.Command(opts.Binary, args...)
	cmd.Stdout = nil
	cmd.Stderr = cls

	p, err := proc.Start(cmd)
	if err != nil {
		return nil, &Error{Code: CodeNone, Err: err}
	}

	base := fmt.Sprintf("http://127.0.0.1:%d", opts.Port)
	inst := newInstance(opts, p, base, network.WithBasicAuth("", opts.Password), cls)

	if err := inst.waitReady(ctx); err != nil {
		_ = p.Stop(0)
		return nil, err
	}

	return inst, nil
}

func newInstance(opts Options, p *proc.Process, base string, client *http.Client, cls *classifier) *Instance {
	if cls == nil {
		cls = &classifier{}
	}
	return &Instance{
		opts:   opts,
		proc:   p,
		client: client,
		base:   strings.TrimSuffix(base, "/"),
		log:    cls,
		stop:   make(chan struct{}),
	}
}

// waitReady polls the status endpoint until the input is playing or a failure is known.
func (v *Instance) waitReady(ctx context.Context) error {
	err := v.proc.Poll(ctx, readyPollInterval, func() (bool, error) {
		status, err := v.status(ctx, "", nil)
		if err == nil && status.Playing() {
			return true, nil
		}
		if err != nil {
			// the HTTP interface is not up yet
			log.Debugf("vlc not ready: %v", err)
		}

		if code, line := v.log.result(); code != CodeNone {
			return false, &Error{Code: code, Message: line}
		}
		return false, nil
	})

	var e *Error
	switch {
	case err == nil:
		return nil
	case errors.As(err, &e):
		return e
	case errors.Is(err, proc.ErrExited):
		code, line := v.log.result()
		if line == "" {
			line = "process exited before playback started"
		}
		return &Error{Code: code, Message: line, Err: v.proc.Err()}
	default:
		return &Error{Code: CodeAborted, Message: "loading aborted", Err: err}
	}
}

// Status fetches the current playback status.
func (v *Instance) Status() (Status, error) {
	ctx, cancel := context.WithTimeout(context.Background(), requestTimeout)
	defer cancel()
	return v.status(ctx, "", nil)
}

// Time returns the playback position in whole seconds.
func (v *Instance) Time() (int, error) {
	s, err := v.Status()
	return s.Time, err
}

// Length returns the input length in whole seconds.
func (v *Instance) Length() (int, error) {
	s, err := v.Status()
	return s.Length, err
}

// Volume returns the volume on VLC's 0..MaxVolume scale.
func (v *Instance) Volume() (int, error) {
	s, err := v.Status()
	return s.Volume, err
}

// SetVolume sets the volume on VLC's 0..MaxVolume scale.
func (v *Instance) SetVolume(volume int) error {
	volume = max(0, min(volume, MaxVolume))
	return v.command("volume", url.Values{"val": {strconv.Itoa(volume)}})
}

// SetTime seeks to an absolute position in whole seconds.
func (v *Instance) SetTime(seconds int) error {
	return v.command("seek", url.Values{"val": {strconv.Itoa(max(0, seconds))}})
}

// SetRate sets the playback rate, 1 being normal speed.
func (v *Instance) SetRate(rate float64) error {
	return v.command("rate", url.Values{"val": {strconv.FormatFloat(rate, 'f', -1, 64)}})
}

// Play resumes playback. It is a no-op when already playing.
func (v *Instance) Play() error {
	return v.command("pl_forceresume", nil)
}

// Pause pauses playback. It is a no-op when already paused.
func (v *Instance) Pause() error {
	return v.command("pl_forcepause", nil)
}

// Code returns the error code recovered from the log so far.
func (v *Instance) Code() (int, string) {
	return v.log.result()
}

// Watch polls the status and calls fn after every successful poll until Release.
// Only the first call starts the poller; later calls replace fn.
func (v *Instance) Watch(fn func(Status)) {
	v.watchMu.Lock()
	v.watcher = fn
	v.watchMu.Unlock()

	v.watchOnce.Do(func() {
		go v.watch()
	})
}

func (v *Instance) watch() {
	ticker := time.NewTicker(watchInterval)
	defer ticker.Stop()

	for {
		select {
		case <-v.stop:
			return
		case <-v.exited():
			return
		case <-ticker.C:
		}

		status, err := v.Status()
		if err != nil {
			log.Debugf("vlc status: %v", err)
			continue
		}

		v.watchMu.Lock()
		fn := v.watcher
		v.watchMu.Unlock()

		if fn != nil {
			fn(status)
		}
	}
}

// Release stops polling, stops playback and terminates VLC. Subsequent calls are no-ops.
func (v *Instance) Release() error {
	var err error

	v.releaseOnce.Do(func() {
		close(v.stop)

		v.watchMu.Lock()
		v.watcher = nil
		v.watchMu.Unlock()

		if cerr := v.command("pl_stop", nil); cerr != nil {
			log.Debugf("vlc stop command: %v", cerr)
		}

		if v.proc != nil {
			err = v.proc.Stop(0)
		}
	})

	return err
}

func (v *Instance) command(name string, params url.Values) error {
	ctx, cancel := context.WithTimeout(context.Background(), requestTimeout)
	defer cancel()
	_, err := v.status(ctx, name, params)
	return err
}

// status issues a request to status.json, optionally carrying a command.
func (v *Instance) status(ctx context.Context, command string, params url.Values) (Status, error) {
	query := url.Values{}
	for k, vs := range params {
		query[k] = vs
	}
	if command != "" {
		query.Set("command", command)
	}

	endpoint := v.base + "/requests/status.json"
	if len(query) > 0 {
		endpoint += "?" + query.Encode()
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return Status{}, fmt.Errorf("build request: %w", err)
	}

	resp, err := v.client.Do(req)
	if err != nil {
		return Status{}, fmt.Errorf("status request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return Status{}, fmt.Errorf("status request: unexpected status %s", resp.Status)
	}

	var status Status
	if err := json.NewDecoder(resp.Body).Decode(&status); err != nil {
		return Status{}, fmt.Errorf("decode status: %w", err)
	}
	return status, nil
}

func (v *Instance) exited() <-chan struct{} {
	if v.proc == nil {
		return nil
	}
	return v.proc.Exited()
}

// sanitizeSource accepts http(s) URLs and local paths.
func sanitizeSource(source string) (string, error) {
	s := strings.TrimSpace(source)
	switch {
	case s == "":
		return "", fmt.Errorf("empty source")
	case strings.ContainsAny(s, "\x00\n\r"):
		return "", fmt.Errorf("invalid control characters in source")
	}

	if !strings.Contains(s, "://") {
		return s, nil
	}

	u, err := url.Parse(s)
	if err != nil {
		return "", fmt.Errorf("invalid URL: %w", err)
	}
	switch strings.ToLower(u.Scheme) {
	case "http", "https", "file":
		return s, nil
	default:
		return "", fmt.Errorf("unsupported URL scheme: %s", u.Scheme)
	}
}
