package httpclient

import (
	"net/http"

	"imagefetch/pkg/logging"
)

// Driver provides an HTTP client with platform-specific certificate handling.
type Driver interface {
	// Client returns a configured HTTP client with proper certificate handling
	Client() *http.Client
}

// WithLogging wraps a Driver so that every HTTP request logs the URL at Debug level.
func WithLogging(d Driver) Driver {
	return &loggingDriver{inner: d}
}

type loggingDriver struct {
	inner Driver
}

func (d *loggingDriver) Client() *http.Client {
	c := d.inner.Client()
	base := c.Transport
	if base == nil {
		base = http.DefaultTransport
	}
	clone := *c
	clone.Transport = &loggingTransport{base: base}
	return &clone
}

type loggingTransport struct {
	base http.RoundTripper
}

func (t *loggingTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	logger := logging.GetLogger(req.Context())
	logger.Debug("http request", "method", req.Method, "url", req.URL.String())
	resp, err := t.base.RoundTrip(req)
	if err != nil {
		logger.Debug("http request failed", "url", req.URL.String(), "err", err)
		return nil, err
	}
	logger.Debug("http response", "url", req.URL.String(), "status", resp.StatusCode, "content_length", resp.ContentLength)
	return resp, nil
}

// NoRedirect makes the client hand 3xx responses back to the caller instead of following them.
func NoRedirect(req *http.Request, via []*http.Request) error {
	return http.ErrUseLastResponse
}
