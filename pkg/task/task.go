// Package task runs one image fetch on a background goroutine and delivers its
// progress and outcome to a single-threaded UI context.
package task

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"

	"imagefetch/pkg/fetch"
	"imagefetch/pkg/logging"
)

var ErrAlreadyStarted = errors.New("task already started")

// Fetcher is the operation a Task runs. *fetch.Fetcher satisfies it.
type Fetcher interface {
	Fetch(ctx context.Context, url string, onProgress fetch.ProgressFunc, token fetch.Token) fetch.Outcome
}

// FetcherFunc adapts a function to Fetcher.
type FetcherFunc func(ctx context.Context, url string, onProgress fetch.ProgressFunc, token fetch.Token) fetch.Outcome

func (f FetcherFunc) Fetch(ctx context.Context, url string, onProgress fetch.ProgressFunc, token fetch.Token) fetch.Outcome {
	return f(ctx, url, onProgress, token)
}

// Poster schedules work on the UI context. *mainthread.Looper satisfies it.
type Poster interface {
	Post(fn func()) bool
}

// Observer receives callbacks on the UI context.
type Observer interface {
	OnProgress(percent int)
	// OnComplete is called exactly once, after every OnProgress.
	OnComplete(out fetch.Outcome)
}

// Starter is implemented by observers that want a callback on the UI context
// before the download begins.
type Starter interface {
	OnStart()
}

// ObserverFuncs adapts plain functions to Observer. Nil fields are skipped.
type ObserverFuncs struct {
	Progress func(percent int)
	Complete func(out fetch.Outcome)
}

func (o ObserverFuncs) OnProgress(percent int) {
	if o.Progress != nil {
		o.Progress(percent)
	}
}

func (o ObserverFuncs) OnComplete(out fetch.Outcome) {
	if o.Complete != nil {
		o.Complete(out)
	}
}

type Status int32

const (
	StatusPending Status = iota
	StatusRunning
	StatusFinished
)

func (s Status) String() string {
	switch s {
	case StatusPending:
		return "pending"
	case StatusRunning:
		return "running"
	case StatusFinished:
		return "finished"
	default:
		return "unknown"
	}
}

// Task is a single-use background fetch. It is its own cancellation token.
type Task struct {
	fetcher  Fetcher
	ui       Poster
	observer Observer

	// mu makes finishing and accepting a cancel mutually exclusive
	mu        sync.Mutex
	status    atomic.Int32
	cancelled atomic.Bool

	done    chan struct{}
	outcome fetch.Outcome
}

func New(fetcher Fetcher, ui Poster, observer Observer) *Task {
	return &Task{
		fetcher:  fetcher,
		ui:       ui,
		observer: observer,
		done:     make(chan struct{}),
	}
}

// Execute starts the fetch of url. A Task can be executed once.
func (t *Task) Execute(ctx context.Context, url string) error {
	if !t.status.CompareAndSwap(int32(StatusPending), int32(StatusRunning)) {
		return ErrAlreadyStarted
	}

	if s, ok := t.observer.(Starter); ok {
		t.ui.Post(s.OnStart)
	}

	ctx = logging.With(ctx, "url", url)
	go t.run(ctx, url)
	return nil
}

func (t *Task) run(ctx context.Context, url string) {
	logger := logging.GetLogger(ctx)

	out := t.fetcher.Fetch(ctx, url, t.publishProgress, t)

	t.mu.Lock()
	// A cancel that raced with a successful finish still wins
	if out.Succeeded() && t.IsCancelled() {
		out = fetch.Outcome{Status: fetch.StatusCancelled, Bytes: out.Bytes}
	}
	t.outcome = out
	t.status.Store(int32(StatusFinished))
	t.mu.Unlock()
	close(t.done)

	logger.Debug("task finished", "status", out.Status, "bytes", out.Bytes)

	if !t.ui.Post(func() { t.observer.OnComplete(out) }) {
		logger.Debug("ui gone, outcome dropped", "status", out.Status)
	}
}

func (t *Task) publishProgress(percent int) {
	t.ui.Post(func() { t.observer.OnProgress(percent) })
}

// Cancel requests a cooperative stop. It reports false if the task already
// finished or was already cancelled. Once it reports true the outcome is never
// StatusSucceeded.
func (t *Task) Cancel() bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.Status() == StatusFinished {
		return false
	}
	return t.cancelled.CompareAndSwap(false, true)
}

// IsCancelled implements fetch.Token.
func (t *Task) IsCancelled() bool {
	return t.cancelled.Load()
}

func (t *Task) Status() Status {
	return Status(t.status.Load())
}

// Done is closed when the outcome is available.
func (t *Task) Done() <-chan struct{} {
	return t.done
}

// Wait blocks until the fetch finished or ctx ends.
func (t *Task) Wait(ctx context.Context) (fetch.Outcome, error) {
	select {
	case <-t.done:
		return t.outcome, nil
	case <-ctx.Done():
		return fetch.Outcome{}, ctx.Err()
	}
}
