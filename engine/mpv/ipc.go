package mpv

import (
	"bufio"
	"encoding/json"
	"fmt"
	"net"
	"sync"
	"time"

	"github.com/reel-cli/reel/log"
)

// ipcCommand is the JSON structure sent to mpv's IPC socket.
type ipcCommand struct {
	Command   []any `json:"command"`
	RequestID int   `json:"request_id,omitempty"`
}

// event is any line mpv writes: a command reply or an asynchronous event.
type event struct {
	Event     string `json:"event"`
	Name      string `json:"name"`
	Data      any    `json:"data"`
	Error     string `json:"error"`
	RequestID int    `json:"request_id"`
	Reason    string `json:"reason"`
	FileError string `json:"file_error"`
}

func (e event) isReply() bool {
	return e.Event == "" && e.Error != ""
}

// loadOutcome reports whether the event settles a pending loadfile, and how.
func (e event) loadOutcome() (error, bool) {
	switch {
	case e.isReply() && e.RequestID == loadRequestID && e.Error != "success":
		return &Error{Reason: e.Error}, true
	case e.Event == "file-loaded":
		return nil, true
	case e.Event == "end-file":
		switch e.Reason {
		case "error":
			reason := e.FileError
			if reason == "" {
				reason = "loading failed"
			}
			return &Error{Reason: reason}, true
		case "stop", "quit", "redirect":
			return &Error{Reason: ReasonAborted}, true
		}
	}
	return nil, false
}

// observed lists the properties mirrored to the event callback.
var observed = []string{
	"time-pos",
	"duration",
	"pause",
	"mute",
	"volume",
	"eof-reached",
}

const (
	maxRetries   = 3
	retryDelay   = 100 * time.Millisecond
	readDeadline = 1 * time.Second
)

// sendCommand sends a JSON-IPC command on a short-lived connection, retrying transient failures.
func (m *Instance) sendCommand(command []any) (any, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	var lastErr error

	for attempt := 0; attempt < maxRetries; attempt++ {
		if attempt > 0 {
			time.Sleep(retryDelay)
		}

		result, err := doSendCommand(m.opts.Socket, command)
		if err == nil {
			return result, nil
		}
		if _, ok := err.(*Error); ok {
			// mpv answered; retrying will not change the answer.
			return nil, err
		}
		lastErr = err
	}

	return nil, fmt.Errorf("ipc command failed after %d attempts: %w", maxRetries, lastErr)
}

// doSendCommand performs a single IPC round trip, skipping event lines until the reply arrives.
func doSendCommand(socketPath string, command []any) (any, error) {
	conn, err := net.Dial("unix", socketPath)
	if err != nil {
		return nil, fmt.Errorf("connect: %w", err)
	}
	defer conn.Close()

	payload, err := json.Marshal(ipcCommand{Command: command})
	if err != nil {
		return nil, fmt.Errorf("marshal: %w", err)
	}

	// mpv requires newline-delimited JSON
	if _, err := conn.Write(append(payload, '\n')); err != nil {
		return nil, fmt.Errorf("write: %w", err)
	}

	if err := conn.SetReadDeadline(time.Now().Add(readDeadline)); err != nil {
		return nil, fmt.Errorf("set deadline: %w", err)
	}

	scanner := bufio.NewScanner(conn)
	for scanner.Scan() {
		var resp event
		if err := json.Unmarshal(scanner.Bytes(), &resp); err != nil {
			return nil, fmt.Errorf("unmarshal: %w", err)
		}

		if !resp.isReply() {
			continue
		}

		if resp.Error != "success" {
			return nil, &Error{Reason: resp.Error}
		}
		return resp.Data, nil
	}

	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("read: %w", err)
	}
	return nil, fmt.Errorf("read: connection closed before reply")
}

// eventConn is the persistent connection carrying observed properties and events.
type eventConn struct {
	conn    net.Conn
	writeMu sync.Mutex
	done    chan struct{}
	once    sync.Once
}

func dialEvents(socketPath string, handle func(event)) (*eventConn, error) {
	conn, err := net.Dial("unix", socketPath)
	if err != nil {
		return nil, fmt.Errorf("event connection: %w", err)
	}

	ec := &eventConn{conn: conn, done: make(chan struct{})}
	go ec.readLoop(handle)

	for i, name := range observed {
		if err := ec.send(i+1, "observe_property", i+1, name); err != nil {
			ec.close()
			return nil, fmt.Errorf("observe %s: %w", name, err)
		}
	}

	return ec, nil
}

func (ec *eventConn) send(requestID int, args ...any) error {
	payload, err := json.Marshal(ipcCommand{Command: args, RequestID: requestID})
	if err != nil {
		return fmt.Errorf("marshal: %w", err)
	}

	ec.writeMu.Lock()
	defer ec.writeMu.Unlock()

	_, err = ec.conn.Write(append(payload, '\n'))
	return err
}

// readLoop decodes newline-delimited events until the connection closes.
func (ec *eventConn) readLoop(handle func(event)) {
	defer ec.close()

	scanner := bufio.NewScanner(ec.conn)
	scanner.Buffer(make([]byte, 64*1024), 1024*1024)

	for scanner.Scan() {
		var ev event
		if err := json.Unmarshal(scanner.Bytes(), &ev); err != nil {
			continue
		}
		handle(ev)
	}

	if err := scanner.Err(); err != nil {
		log.Debugf("mpv event connection: %v", err)
	}
	handle(event{Event: "shutdown"})
}

func (ec *eventConn) close() {
	ec.once.Do(func() {
		close(ec.done)
		_ = ec.conn.Close()
	})
}
