// Package mainthread provides a single-threaded executor that plays the role
// of a UI thread: work posted from any goroutine runs one item at a time, in
// posting order, on the goroutine that called Run.
package mainthread

import (
	"context"
	"sync"
)

// Looper is a FIFO queue of functions drained by Run.
type Looper struct {
	mu      sync.Mutex
	queue   []func()
	quit    bool
	running bool
	wake    chan struct{}
}

func New() *Looper {
	return &Looper{wake: make(chan struct{}, 1)}
}

// Post queues fn. It never blocks and reports false once the looper quit,
// in which case fn will never run.
func (l *Looper) Post(fn func()) bool {
	l.mu.Lock()
	if l.quit {
		l.mu.Unlock()
		return false
	}
	l.queue = append(l.queue, fn)
	l.mu.Unlock()

	select {
	case l.wake <- struct{}{}:
	default:
	}
	return true
}

// Quit stops accepting work. Run returns after everything posted before Quit has run.
func (l *Looper) Quit() {
	l.mu.Lock()
	l.quit = true
	l.mu.Unlock()

	select {
	case l.wake <- struct{}{}:
	default:
	}
}

// Run executes posted functions until Quit drained the queue (nil) or ctx ends (ctx.Err()).
// Only one Run may be active at a time.
func (l *Looper) Run(ctx context.Context) error {
	l.mu.Lock()
	if l.running {
		l.mu.Unlock()
		panic("mainthread: Run called twice")
	}
	l.running = true
	l.mu.Unlock()
	defer func() {
		l.mu.Lock()
		l.running = false
		l.mu.Unlock()
	}()

	for {
		l.mu.Lock()
		batch := l.queue
		l.queue = nil
		quit := l.quit
		l.mu.Unlock()

		for _, fn := range batch {
			if err := ctx.Err(); err != nil {
				return err
			}
			fn()
		}
		if len(batch) > 0 {
			continue
		}
		if quit {
			return nil
		}

		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-l.wake:
		}
	}
}
