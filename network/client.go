// Package network provides the HTTP clients used to reach engine control interfaces on loopback.
package network

import (
	"net/http"
	"time"
)

// Client is the shared client for loopback control traffic.
// Control requests are small and must fail fast when the engine stops answering.
var Client = &http.Client{
	Timeout:   5 * time.Second,
	Transport: newTransport(),
}

// newTransport tunes a transport for a handful of local engine connections.
func newTransport() *http.Transport {
	t := http.DefaultTransport.(*http.Transport).Clone()
	// loopback traffic must never be routed through HTTP_PROXY
	t.Proxy = nil
	t.MaxIdleConns = 8
	t.MaxIdleConnsPerHost = 4
	t.MaxConnsPerHost = 8
	t.IdleConnTimeout = 30 * time.Second
	t.ResponseHeaderTimeout = 5 * time.Second
	t.ExpectContinueTimeout = time.Second
	return t
}

// WithBasicAuth returns a client sharing Client's transport that authenticates every request.
func WithBasicAuth(user, password string) *http.Client {
	return &http.Client{
		Timeout: Client.Timeout,
		Transport: &basicAuth{
			user:     user,
			password: password,
			next:     Client.Transport,
		},
	}
}

type basicAuth struct {
	user, password string
	next           http.RoundTripper
}

func (b *basicAuth) RoundTrip(req *http.Request) (*http.Response, error) {
	// RoundTrippers must not modify the caller's request.
	r := req.Clone(req.Context())
	r.SetBasicAuth(b.user, b.password)
	return b.next.RoundTrip(r)
}
