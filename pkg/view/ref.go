package view

import "sync"

// Ref is a reference a host can release when it is torn down. Holders must
// check Get before every use and treat a released Ref as "collaborator gone".
type Ref[T any] struct {
	mu    sync.RWMutex
	value T
	alive bool
}

func NewRef[T any](v T) *Ref[T] {
	return &Ref[T]{value: v, alive: true}
}

// Get returns the value and whether it is still alive. A nil Ref is never alive.
func (r *Ref[T]) Get() (T, bool) {
	var zero T
	if r == nil {
		return zero, false
	}
	r.mu.RLock()
	defer r.mu.RUnlock()
	if !r.alive {
		return zero, false
	}
	return r.value, true
}

// Release drops the value. Later Get calls report not alive.
func (r *Ref[T]) Release() {
	r.mu.Lock()
	defer r.mu.Unlock()
	var zero T
	r.value = zero
	r.alive = false
}
