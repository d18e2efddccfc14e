// Package proc holds the process plumbing shared by the native playback engines.
package proc

import (
	"context"
	"errors"
	"fmt"
	"net"
	"os/exec"
	"time"

	"github.com/dchest/uniuri"
)

var tokenChars = []byte("abcdefghijklmnopqrstuvwxyz0123456789")

// Token returns n random lowercase alphanumerics, for socket names and control passwords.
func Token(n int) string {
	return uniuri.NewLenChars(n, tokenChars)
}

// FreePort asks the kernel for an unused loopback TCP port.
func FreePort() (int, error) {
	l, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		return 0, fmt.Errorf("find free port: %w", err)
	}
	defer l.Close()
	return l.Addr().(*net.TCPAddr).Port, nil
}

// Process is a spawned engine process that is reaped in the background.
type Process struct {
	Cmd    *exec.Cmd
	exited chan struct{}
	err    error
}

// Start launches cmd detached from the parent process group.
// Lookup failures are returned unwrapped so callers can match exec.ErrNotFound.
func Start(cmd *exec.Cmd) (*Process, error) {
	cmd.SysProcAttr = sysProcAttr()

	if err := cmd.Start(); err != nil {
		return nil, err
	}

	p := &Process{Cmd: cmd, exited: make(chan struct{})}
	go func() {
		p.err = cmd.Wait()
		close(p.exited)
	}()

	return p, nil
}

// Exited returns a channel closed once the process has been reaped.
func (p *Process) Exited() <-chan struct{} {
	return p.exited
}

// Err returns the wait error. Only meaningful after Exited is closed.
func (p *Process) Err() error {
	<-p.exited
	return p.err
}

// Kill terminates the whole process group.
func (p *Process) Kill() error {
	return killProcess(p.Cmd)
}

// Stop waits up to grace for the process to exit on its own, then kills it.
func (p *Process) Stop(grace time.Duration) error {
	select {
	case <-p.exited:
		return nil
	case <-time.After(grace):
	}

	err := p.Kill()
	<-p.exited
	return err
}

// Poll calls check every interval until it reports done, the process exits,
// or ctx ends. It returns check's error, ErrExited or ctx.Err().
// A nil Process never exits, for engines attached to an existing endpoint.
func (p *Process) Poll(ctx context.Context, interval time.Duration, check func() (bool, error)) error {
	var exited <-chan struct{}
	if p != nil {
		exited = p.exited
	}

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		done, err := check()
		if err != nil {
			return err
		}
		if done {
			return nil
		}

		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-exited:
			return ErrExited
		case <-ticker.C:
		}
	}
}

// ErrExited is returned by Poll when the process exits before becoming ready.
var ErrExited = errors.New("engine process exited before it was ready")
