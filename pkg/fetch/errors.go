package fetch

import (
	"errors"
	"fmt"
)

// Kind classifies a failed fetch.
type Kind int

const (
	// KindConnection covers DNS, refused or timed out connections and broken transfers.
	KindConnection Kind = iota + 1
	// KindProtocol is a response with a status other than 200.
	KindProtocol
	// KindDecode is a body that is not a decodable image.
	KindDecode
)

var (
	ErrConnection = errors.New("connection error")
	ErrProtocol   = errors.New("protocol error")
	ErrDecode     = errors.New("decode error")
)

func (k Kind) sentinel() error {
	switch k {
	case KindConnection:
		return ErrConnection
	case KindProtocol:
		return ErrProtocol
	case KindDecode:
		return ErrDecode
	default:
		return nil
	}
}

func (k Kind) String() string {
	if s := k.sentinel(); s != nil {
		return s.Error()
	}
	return "unknown error"
}

// Error describes why a fetch failed. It matches the sentinel of its Kind
// with errors.Is and unwraps to the underlying cause.
type Error struct {
	Kind Kind
	URL  string
	// StatusCode is set for KindProtocol.
	StatusCode int
	Err        error
}

func (e *Error) Error() string {
	return fmt.Sprintf("fetch %s: %s: %v", e.URL, e.Kind, e.Err)
}

func (e *Error) Unwrap() []error {
	errs := make([]error, 0, 2)
	if s := e.Kind.sentinel(); s != nil {
		errs = append(errs, s)
	}
	if e.Err != nil {
		errs = append(errs, e.Err)
	}
	return errs
}
