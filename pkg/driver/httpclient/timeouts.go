package httpclient

import (
	"context"
	"net"
	"time"

	"imagefetch/pkg/config"
)

// Timeouts bounds the blocking phases of a request.
type Timeouts struct {
	// Connect bounds dialing the remote host.
	Connect time.Duration
	// Read bounds every single read from the connection, including the wait for
	// response headers. It is not a limit on the whole transfer. The deadline
	// also covers the transport's idle read loop, so a pooled connection dies
	// after Read of idleness; IdleConn keeps the pool in line with that.
	Read time.Duration
}

const maxIdleConn = 90 * time.Second

// IdleConn is the idle connection timeout matching Read.
func (t Timeouts) IdleConn() time.Duration {
	if t.Read <= 0 || t.Read > maxIdleConn {
		return maxIdleConn
	}
	return t.Read
}

// DefaultTimeouts are 15s to connect and 10s per read.
var DefaultTimeouts = Timeouts{
	Connect: 15 * time.Second,
	Read:    10 * time.Second,
}

// TimeoutsFromContext returns the timeouts configured in ctx's config.
func TimeoutsFromContext(ctx context.Context) Timeouts {
	cfg := config.FromContext(ctx)
	t := Timeouts{Connect: cfg.Fetch.ConnectTimeout, Read: cfg.Fetch.ReadTimeout}
	if t.Connect <= 0 {
		t.Connect = DefaultTimeouts.Connect
	}
	if t.Read <= 0 {
		t.Read = DefaultTimeouts.Read
	}
	return t
}

// DialFunc matches http.Transport.DialContext.
type DialFunc func(ctx context.Context, network, addr string) (net.Conn, error)

// WithReadDeadline wraps dial so every returned connection arms a fresh read
// deadline before each Read.
func WithReadDeadline(dial DialFunc, read time.Duration) DialFunc {
	return func(ctx context.Context, network, addr string) (net.Conn, error) {
		conn, err := dial(ctx, network, addr)
		if err != nil {
			return nil, err
		}
		if read <= 0 {
			return conn, nil
		}
		return &deadlineConn{Conn: conn, read: read}, nil
	}
}

type deadlineConn struct {
	net.Conn
	read time.Duration
}

func (c *deadlineConn) Read(p []byte) (int, error) {
	if err := c.Conn.SetReadDeadline(time.Now().Add(c.read)); err != nil {
		return 0, err
	}
	return c.Conn.Read(p)
}
