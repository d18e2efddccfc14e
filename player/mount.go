package player

import (
	"fmt"
	"path/filepath"

	"github.com/reel-cli/reel/engine/proc"
	"github.com/reel-cli/reel/filesystem"
	"github.com/reel-cli/reel/where"
)

// Mount is where an engine attaches: an IPC socket for mpv, a loopback port and password for VLC.
// The factory prepares it, so callers may pass an empty or nil Mount.
type Mount struct {
	// Dir holds IPC sockets. Defaults to where.Sockets().
	Dir string

	Kind     Kind
	Socket   string
	Port     int
	Password string
}

// Prepare assigns fresh endpoints for kind. A mount is prepared again on every Create
// so a retried engine never reuses the endpoint of a failed one.
func (m *Mount) Prepare(kind Kind) error {
	if m.Dir == "" {
		m.Dir = where.Sockets()
	}

	if err := filesystem.API().MkdirAll(m.Dir, 0o700); err != nil {
		return fmt.Errorf("prepare mount: %w", err)
	}

	token := proc.Token(16)

	*m = Mount{Dir: m.Dir, Kind: kind}

	switch kind {
	case MPV:
		m.Socket = filepath.Join(m.Dir, fmt.Sprintf("mpv-%s.sock", token))
	case VLC:
		port, err := proc.FreePort()
		if err != nil {
			return fmt.Errorf("prepare mount: %w", err)
		}
		m.Port = port
		m.Password = token
	}

	return nil
}
