package httputil

import (
	"net/http"
	"time"
)

const DefaultTimeout = 30 * time.Second

// NewClient returns an HTTP client with standard timeout configuration.
func NewClient() *http.Client {
	return &http.Client{
		Timeout: DefaultTimeout,
	}
}

// NewClientWithUserAgent returns an HTTP client that stamps every request
// with the given User-Agent. Reddit rejects requests with generic agents,
// so every client that talks to it goes through this.
func NewClientWithUserAgent(agent string) *http.Client {
	return &http.Client{
		Timeout:   DefaultTimeout,
		Transport: &userAgentTransport{agent: agent, base: http.DefaultTransport},
	}
}

type userAgentTransport struct {
	agent string
	base  http.RoundTripper
}

func (t *userAgentTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	clone := req.Clone(req.Context())
	clone.Header.Set("User-Agent", t.agent)
	return t.base.RoundTrip(clone)
}
