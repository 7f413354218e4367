package fetch

import (
	"io"
)

// ProgressFunc receives progress percentages in [1,100], strictly increasing.
type ProgressFunc func(percent int)

// Token is a cooperative cancellation signal, polled between reads.
type Token interface {
	IsCancelled() bool
}

// TokenFunc adapts a function to Token.
type TokenFunc func() bool

func (f TokenFunc) IsCancelled() bool { return f() }

type never struct{}

func (never) IsCancelled() bool { return false }

// progressReader counts bytes read from r against total and reports percentages.
// Once the token is cancelled it behaves as if the stream had ended.
type progressReader struct {
	r          io.Reader
	token      Token
	onProgress ProgressFunc

	// total is the declared body length; <= 0 disables reporting.
	total     int64
	read      int64
	last      int
	cancelled bool
}

func (p *progressReader) Read(b []byte) (int, error) {
	if p.cancelled || p.token.IsCancelled() {
		p.cancelled = true
		return 0, io.EOF
	}

	n, err := p.r.Read(b)

	// Cancelled while blocked in Read: drop what arrived
	if p.token.IsCancelled() {
		p.cancelled = true
		return 0, io.EOF
	}

	if n > 0 {
		p.read += int64(n)
		p.report()
	}
	return n, err
}

func (p *progressReader) report() {
	if p.total <= 0 || p.onProgress == nil {
		return
	}
	percent := int(p.read * 100 / p.total)
	if percent > 100 {
		percent = 100
	}
	if percent > p.last {
		p.last = percent
		p.onProgress(percent)
	}
}

// drain reads r to EOF through a fixed size buffer, so each underlying read
// is at most size bytes.
func drain(r io.Reader, size int, hint int64) ([]byte, error) {
	out := make([]byte, 0, capacityHint(hint))
	buf := make([]byte, size)
	for {
		n, err := r.Read(buf)
		out = append(out, buf[:n]...)
		if err == io.EOF {
			return out, nil
		}
		if err != nil {
			return out, err
		}
	}
}

const maxPrealloc = 64 << 20

func capacityHint(declared int64) int {
	if declared <= 0 {
		return 0
	}
	if declared > maxPrealloc {
		return maxPrealloc
	}
	return int(declared)
}
