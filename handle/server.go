package handle

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/reel-cli/reel/log"
)

type server struct {
	http     *http.Server
	listener net.Listener
}

// Handler serves live handles under /media/{id}. Revoked or unknown ids answer 410 Gone.
func (m *Manager) Handler() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.Recoverer)

	r.Get("/media/{id}", m.serveMedia)
	r.Get("/media/{id}/*", m.serveMedia)
	r.Head("/media/{id}", m.serveMedia)
	r.Head("/media/{id}/*", m.serveMedia)

	return r
}

func (m *Manager) serveMedia(w http.ResponseWriter, r *http.Request) {
	h, ok := m.Lookup(chi.URLParam(r, "id"))
	if !ok || h.Revoked() {
		http.Error(w, ErrRevoked.Error(), http.StatusGone)
		return
	}

	w.Header().Set("Cache-Control", "no-store")
	http.ServeContent(w, r, h.name, h.modTime, io.NewSectionReader(h, 0, h.size))
}

// Listen binds the loopback server on addr and points future references at it.
// Only loopback addresses are accepted. The server stops when ctx is done.
func (m *Manager) Listen(ctx context.Context, addr string) (string, error) {
	if err := checkLoopback(addr); err != nil {
		return "", err
	}

	listener, err := net.Listen("tcp", addr)
	if err != nil {
		return "", fmt.Errorf("listen %s: %w", addr, err)
	}

	srv := &server{
		listener: listener,
		http: &http.Server{
			Handler:           m.Handler(),
			ReadHeaderTimeout: 10 * time.Second,
		},
	}

	base := fmt.Sprintf("http://%s/media", listener.Addr().String())

	m.mu.Lock()
	if m.server != nil {
		m.mu.Unlock()
		_ = listener.Close()
		return "", errors.New("handle server already listening")
	}
	m.server = srv
	m.base = base
	m.mu.Unlock()

	go func() {
		if err := srv.http.Serve(listener); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Errorf("handle server: %v", err)
		}
	}()

	go func() {
		<-ctx.Done()
		_ = m.Close()
	}()

	log.Infof("handle server listening on %s", listener.Addr())
	return base, nil
}

// Close revokes every handle and stops the loopback server, if any.
func (m *Manager) Close() error {
	m.ReleaseAll()

	m.mu.Lock()
	srv := m.server
	m.server = nil
	m.base = defaultBase
	m.mu.Unlock()

	if srv == nil {
		return nil
	}

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	return srv.http.Shutdown(ctx)
}

func checkLoopback(addr string) error {
	host, _, err := net.SplitHostPort(addr)
	if err != nil {
		return fmt.Errorf("invalid listen address %q: %w", addr, err)
	}

	if host == "localhost" {
		return nil
	}

	if ip := net.ParseIP(host); ip != nil && ip.IsLoopback() {
		return nil
	}

	return fmt.Errorf("refusing to serve media on non-loopback address %q", addr)
}
