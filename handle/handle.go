// Package handle issues revocable references to the bytes of local media files.
//
// A Manager keeps at most one live MediaHandle at a time: acquiring a new one
// revokes the previous first. Revoked handles refuse every read, and their
// mapping is released once in-flight reads have drained.
package handle

import (
	"errors"
	"fmt"
	"net/url"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/reel-cli/reel/errs"
	"github.com/reel-cli/reel/log"
	"github.com/reel-cli/reel/media"
	"github.com/reel-cli/reel/util"
)

// ErrRevoked is returned by reads on a revoked handle.
var ErrRevoked = errors.New("media handle revoked")

const defaultBase = "reel://media"

// MediaHandle is a revocable reference to a mapped file.
type MediaHandle struct {
	id        string
	name      string
	reference string
	owner     media.Identity
	size      int64
	modTime   time.Time

	mu      sync.RWMutex
	view    View
	revoked bool
}

// ID returns the opaque handle identifier.
func (h *MediaHandle) ID() string {
	return h.id
}

// Reference returns the URL the engines load the media from.
func (h *MediaHandle) Reference() string {
	return h.reference
}

// Owner returns the identity of the file the handle was issued for.
func (h *MediaHandle) Owner() media.Identity {
	return h.owner
}

// Size returns the mapped length in bytes.
func (h *MediaHandle) Size() int64 {
	return h.size
}

// Revoked reports whether the handle has been revoked.
func (h *MediaHandle) Revoked() bool {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return h.revoked
}

// ReadAt implements io.ReaderAt over the mapping. It fails with ErrRevoked once revoked.
func (h *MediaHandle) ReadAt(p []byte, off int64) (int, error) {
	h.mu.RLock()
	defer h.mu.RUnlock()

	if h.revoked {
		return 0, ErrRevoked
	}
	return h.view.ReadAt(p, off)
}

// revoke invalidates the handle and unmaps it. Reports whether this call did the revoking.
func (h *MediaHandle) revoke() bool {
	h.mu.Lock()
	defer h.mu.Unlock()

	if h.revoked {
		return false
	}

	h.revoked = true
	if err := h.view.Close(); err != nil {
		log.Warnf("unmap handle %s: %v", h.id, err)
	}
	h.view = nil
	return true
}

// Manager creates and revokes media handles.
type Manager struct {
	mu       sync.Mutex
	acceptor media.Acceptor
	mapper   Mapper
	base     string
	current  *MediaHandle
	live     map[string]*MediaHandle

	server *server
}

// Option configures a Manager.
type Option func(*Manager)

// WithAcceptor sets the privacy/size precondition consulted before every acquire.
func WithAcceptor(a media.Acceptor) Option {
	return func(m *Manager) { m.acceptor = a }
}

// WithMapper replaces the function used to map files.
func WithMapper(fn Mapper) Option {
	return func(m *Manager) { m.mapper = fn }
}

// New returns a Manager. Without options it accepts files under media.DefaultMaxSize.
func New(options ...Option) *Manager {
	m := &Manager{
		acceptor: media.NewPolicy(0),
		mapper:   defaultMapper,
		base:     defaultBase,
		live:     make(map[string]*MediaHandle),
	}

	for _, option := range options {
		option(m)
	}

	return m
}

// Acquire revokes the manager's current handle, then issues a new one for f.
// Precondition failures are FileErrors; nothing is mapped for a rejected file.
func (m *Manager) Acquire(f *media.File) (*MediaHandle, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.current != nil {
		m.releaseLocked(m.current)
	}

	if !m.acceptor.IsAcceptable(f) {
		return nil, rejection(m.acceptor, f)
	}

	view, err := m.mapper(f.Path)
	if err != nil {
		e := errs.NewFile(errs.CodeFileUnreadable, fmt.Sprintf("Could not read %s", f.Name))
		e.Err = err
		return nil, e
	}

	id := uuid.NewString()
	h := &MediaHandle{
		id:        id,
		name:      f.Name,
		reference: fmt.Sprintf("%s/%s/%s", m.base, id, url.PathEscape(util.SanitizeFilename(f.Name))),
		owner:     f.Identity(),
		size:      int64(view.Len()),
		modTime:   f.ModTime,
		view:      view,
	}

	m.current = h
	m.live[id] = h
	log.Debugf("acquired handle %s for %s (%d bytes)", id, f.Name, h.size)

	return h, nil
}

// Release revokes h. Releasing a revoked or foreign handle is a no-op.
func (m *Manager) Release(h *MediaHandle) {
	if h == nil {
		return
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	m.releaseLocked(h)
}

// ReleaseAll revokes every outstanding handle.
func (m *Manager) ReleaseAll() {
	m.mu.Lock()
	defer m.mu.Unlock()

	for _, h := range m.live {
		m.releaseLocked(h)
	}
}

// Live returns the number of unrevoked handles.
func (m *Manager) Live() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.live)
}

// Lookup returns the live handle with the given id.
func (m *Manager) Lookup(id string) (*MediaHandle, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()

	h, ok := m.live[id]
	return h, ok
}

func (m *Manager) releaseLocked(h *MediaHandle) {
	if h.revoke() {
		log.Debugf("revoked handle %s", h.id)
	}

	delete(m.live, h.id)
	if m.current == h {
		m.current = nil
	}
}

func rejection(a media.Acceptor, f *media.File) error {
	if explainer, ok := a.(media.Explainer); ok {
		if err := explainer.Explain(f); err != nil {
			return err
		}
	}

	name := "file"
	if f != nil {
		name = f.Name
	}
	return errs.NewFile(errs.CodeFileMissing, fmt.Sprintf("%s was rejected", name))
}
