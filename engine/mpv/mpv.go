// Package mpv drives a native mpv process through its JSON-IPC interface.
//
// mpv reports failures by name: the end-file event carries a file_error string
// such as "unrecognized file format". Launch surfaces those names unchanged in
// *Error so callers can classify them.
package mpv

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/url"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/reel-cli/reel/engine/proc"
	"github.com/reel-cli/reel/log"
)

const (
	socketPollInterval = 100 * time.Millisecond
	quitGrace          = 3 * time.Second
	loadRequestID      = 1000
)

// Failure reasons reported by this package in addition to mpv's own file_error strings.
const (
	ReasonAborted = "aborted"
	ReasonSpawn   = "spawn failed"
	ReasonExited  = "process exited"
	ReasonIPC     = "ipc unavailable"
	ReasonSource  = "invalid source"
)

// Error is a named mpv failure.
type Error struct {
	Reason string
	Err    error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("mpv: %s: %v", e.Reason, e.Err)
	}
	return "mpv: " + e.Reason
}

func (e *Error) Unwrap() error {
	return e.Err
}

// Options configures a native mpv instance.
type Options struct {
	Binary string
	Socket string
	Source string
	Title  string
	Args   []string
}

// EventCallback receives property changes (by property name, with the value) and mpv events
// (by event name). end-file carries an *Error when the file failed.
type EventCallback func(name string, data any)

// Instance is one running mpv process with a loaded file.
type Instance struct {
	opts   Options
	proc   *proc.Process
	mu     sync.Mutex
	events *eventConn

	cbMu     sync.Mutex
	callback EventCallback
	loading  chan error

	quitOnce sync.Once
}

// Launch starts mpv idle, attaches to its IPC socket and loads opts.Source.
// It returns once mpv reports file-loaded, or with an *Error once loading fails or ctx ends.
func Launch(ctx context.Context, opts Options) (*Instance, error) {
	source, err := sanitizeMediaTarget(opts.Source)
	if err != nil {
		return nil, &Error{Reason: ReasonSource, Err: err}
	}
	opts.Source = source

	if opts.Binary == "" {
		opts.Binary = "mpv"
	}

	args := []string{
		"--no-terminal",
		"--really-quiet",
		"--idle=yes",
		"--force-window=yes",
		fmt.Sprintf("--input-ipc-server=%s", opts.Socket),
	}

	if title := sanitizeTitle(opts.Title); title != "" {
		args = append(args,
			fmt.Sprintf("--force-media-title=%s", title),
			fmt.Sprintf("--title=%s", title),
		)
	}

	args = append(args, opts.Args...)

	cmd := exec.Command(opts.Binary, args...)
	cmd.Stdout = nil
	cmd.Stderr = nil
	cmd.Stdin = nil

	p, err := proc.Start(cmd)
	if err != nil {
		return nil, &Error{Reason: ReasonSpawn, Err: err}
	}

	inst, err := attach(ctx, opts, p)
	if err != nil {
		_ = p.Stop(0)
		_ = os.Remove(opts.Socket)
		return nil, err
	}

	return inst, nil
}

// attach connects to an mpv already listening on opts.Socket and loads the source.
// p may be nil when the process is not owned by this package.
func attach(ctx context.Context, opts Options, p *proc.Process) (*Instance, error) {
	inst := &Instance{opts: opts, proc: p}

	if err := inst.waitForSocket(ctx); err != nil {
		return nil, err
	}

	events, err := dialEvents(opts.Socket, inst.dispatch)
	if err != nil {
		return nil, &Error{Reason: ReasonIPC, Err: err}
	}
	inst.events = events

	if err := inst.load(ctx); err != nil {
		events.close()
		return nil, err
	}

	return inst, nil
}

// waitForSocket polls until the IPC socket accepts connections.
func (m *Instance) waitForSocket(ctx context.Context) error {
	err := m.proc.Poll(ctx, socketPollInterval, func() (bool, error) {
		conn, err := net.Dial("unix", m.opts.Socket)
		if err != nil {
			return false, nil
		}
		conn.Close()
		return true, nil
	})

	switch {
	case err == nil:
		return nil
	case errors.Is(err, proc.ErrExited):
		return &Error{Reason: ReasonExited, Err: m.proc.Err()}
	default:
		return &Error{Reason: ReasonAborted, Err: err}
	}
}

// load issues loadfile and waits for the outcome reported on the event connection.
func (m *Instance) load(ctx context.Context) error {
	result := make(chan error, 1)

	m.cbMu.Lock()
	m.loading = result
	m.cbMu.Unlock()

	defer func() {
		m.cbMu.Lock()
		m.loading = nil
		m.cbMu.Unlock()
	}()

	if err := m.events.send(loadRequestID, "loadfile", m.opts.Source, "replace"); err != nil {
		return &Error{Reason: ReasonIPC, Err: err}
	}

	select {
	case err := <-result:
		return err
	case <-ctx.Done():
		return &Error{Reason: ReasonAborted, Err: ctx.Err()}
	case <-m.exited():
		return &Error{Reason: ReasonExited, Err: m.proc.Err()}
	case <-m.events.done:
		return &Error{Reason: ReasonIPC, Err: errors.New("event connection closed while loading")}
	}
}

// dispatch routes events from the read loop to the pending load or the observer.
func (m *Instance) dispatch(ev event) {
	m.cbMu.Lock()
	loading := m.loading
	callback := m.callback
	m.cbMu.Unlock()

	if loading != nil {
		if err, settled := ev.loadOutcome(); settled {
			select {
			case loading <- err:
			default:
			}
			return
		}
	}

	if callback == nil {
		return
	}

	switch ev.Event {
	case "property-change":
		callback(ev.Name, ev.Data)
	case "end-file":
		// data is the *Error for failed files and nil otherwise
		if err, _ := ev.loadOutcome(); err != nil {
			callback(ev.Event, err)
		} else {
			callback(ev.Event, nil)
		}
	case "":
	default:
		callback(ev.Event, nil)
	}
}

// Observe registers the callback for property changes and events. It replaces any previous one.
func (m *Instance) Observe(callback EventCallback) {
	m.cbMu.Lock()
	defer m.cbMu.Unlock()
	m.callback = callback
}

// GetProperty reads an mpv property.
func (m *Instance) GetProperty(name string) (any, error) {
	return m.sendCommand([]any{"get_property", name})
}

// SetProperty writes an mpv property.
func (m *Instance) SetProperty(name string, value any) error {
	_, err := m.sendCommand([]any{"set_property", name, value})
	return err
}

// Command runs an arbitrary mpv input command.
func (m *Instance) Command(args ...any) (any, error) {
	return m.sendCommand(args)
}

// Quit asks mpv to exit, kills it if it does not within a grace period and removes the socket.
// Subsequent calls are no-ops.
func (m *Instance) Quit() error {
	var err error

	m.quitOnce.Do(func() {
		m.Observe(nil)

		if _, qerr := m.sendCommand([]any{"quit"}); qerr != nil {
			log.Debugf("mpv quit command: %v", qerr)
		}

		if m.events != nil {
			m.events.close()
		}

		if m.proc != nil {
			err = m.proc.Stop(quitGrace)
		}

		if rerr := os.Remove(m.opts.Socket); rerr != nil && !os.IsNotExist(rerr) {
			log.Debugf("remove mpv socket: %v", rerr)
		}
	})

	return err
}

func (m *Instance) exited() <-chan struct{} {
	if m.proc == nil {
		return nil
	}
	return m.proc.Exited()
}

// sanitizeMediaTarget validates that a URL is safe to pass to mpv.
func sanitizeMediaTarget(link string) (string, error) {
	l := strings.TrimSpace(link)
	if l == "" {
		return "", fmt.Errorf("empty URL")
	}

	if strings.ContainsAny(l, "\x00\n\r") {
		return "", fmt.Errorf("invalid control characters in URL")
	}

	// URLs must not be mistaken for flags.
	if strings.HasPrefix(l, "-") {
		return "", fmt.Errorf("url must not start with '-' (looks like a flag)")
	}

	if strings.Contains(l, "://") {
		u, err := url.Parse(l)
		if err != nil {
			return "", fmt.Errorf("invalid URL: %w", err)
		}
		switch strings.ToLower(u.Scheme) {
		case "http", "https":
			return l, nil
		default:
			return "", fmt.Errorf("unsupported URL scheme: %s", u.Scheme)
		}
	}

	return filepath.Clean(l), nil
}

// sanitizeTitle flattens a title onto one line.
func sanitizeTitle(title string) string {
	t := strings.NewReplacer("\n", " ", "\r", " ", "\t", " ", "\x00", "").Replace(title)
	return strings.TrimSpace(t)
}
