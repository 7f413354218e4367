package fetch

import (
	"image"
)

// Status is the terminal state an operation reached.
type Status int

const (
	StatusSucceeded Status = iota + 1
	StatusFailed
	StatusCancelled
)

func (s Status) String() string {
	switch s {
	case StatusSucceeded:
		return "succeeded"
	case StatusFailed:
		return "failed"
	case StatusCancelled:
		return "cancelled"
	default:
		return "unknown"
	}
}

// Outcome is the single result of a fetch.
// Image and Format are set only on success, Err only on failure.
type Outcome struct {
	Status Status
	Image  image.Image
	Format string
	// Bytes is the number of body bytes accepted before the operation ended.
	Bytes int64
	Err   error
}

func (o Outcome) Succeeded() bool { return o.Status == StatusSucceeded }
func (o Outcome) Failed() bool    { return o.Status == StatusFailed }
func (o Outcome) Cancelled() bool { return o.Status == StatusCancelled }

// State is a step of the fetch state machine:
//
//	Idle -> Connecting -> Downloading -> Decoding -> {Succeeded | Failed | Cancelled}
type State int

const (
	StateIdle State = iota
	StateConnecting
	StateDownloading
	StateDecoding
	StateSucceeded
	StateFailed
	StateCancelled
)

var stateNames = [...]string{
	StateIdle:        "idle",
	StateConnecting:  "connecting",
	StateDownloading: "downloading",
	StateDecoding:    "decoding",
	StateSucceeded:   "succeeded",
	StateFailed:      "failed",
	StateCancelled:   "cancelled",
}

func (s State) String() string {
	if int(s) < len(stateNames) {
		return stateNames[s]
	}
	return "unknown"
}

// Terminal reports whether no transition leaves s.
func (s State) Terminal() bool {
	return s == StateSucceeded || s == StateFailed || s == StateCancelled
}
