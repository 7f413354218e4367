// Package driver selects platform implementations at runtime.
//
// Each concern (HTTP client, image decoding, environment paths) declares a
// Driver interface in its own package. Implementations register a Provider
// from an init function and callers resolve the best compatible one with Get.
package driver

import (
	"context"
	"errors"
	"fmt"
	"reflect"
	"sort"
	"sync"
)

// DefaultWeight is the weight of a provider that has no reason to win over others.
const DefaultWeight = 50

var (
	// ErrIncompatible marks a provider as not applicable in the current environment.
	ErrIncompatible = errors.New("driver is incompatible")
	// ErrNoDriver is returned by Get when no registered provider is usable.
	ErrNoDriver = errors.New("no compatible driver")
)

// Provider creates instances of a driver of type T.
type Provider[T any] interface {
	ID() string
	Name() string
	DefaultWeight() int
	CheckCompatibility(ctx context.Context) error
	New(ctx context.Context) (T, error)
}

var (
	mu        sync.Mutex
	providers = map[reflect.Type][]any{}
	instances = map[reflect.Type]any{}
	weights   = map[string]int{}
)

// Register adds a provider for the driver type T.
func Register[T any](p Provider[T]) {
	mu.Lock()
	defer mu.Unlock()
	t := reflect.TypeFor[T]()
	providers[t] = append(providers[t], p)
	delete(instances, t)
}

// SetWeight overrides the weight of the provider with the given ID.
// Cached driver instances are dropped so the next Get honours the new order.
func SetWeight(id string, weight int) {
	mu.Lock()
	defer mu.Unlock()
	weights[id] = weight
	clear(instances)
}

func weightOf(id string, def int) int {
	if w, ok := weights[id]; ok {
		return w
	}
	return def
}

// Get returns the driver of type T built by the heaviest compatible provider.
// The instance is cached and shared by later calls.
func Get[T any](ctx context.Context) (T, error) {
	var zero T
	t := reflect.TypeFor[T]()

	mu.Lock()
	if inst, ok := instances[t]; ok {
		mu.Unlock()
		return inst.(T), nil
	}
	candidates := make([]Provider[T], 0, len(providers[t]))
	for _, p := range providers[t] {
		candidates = append(candidates, p.(Provider[T]))
	}
	order := make(map[string]int, len(candidates))
	for _, p := range candidates {
		order[p.ID()] = weightOf(p.ID(), p.DefaultWeight())
	}
	mu.Unlock()

	sort.SliceStable(candidates, func(i, j int) bool {
		return order[candidates[i].ID()] > order[candidates[j].ID()]
	})

	var errs []error
	for _, p := range candidates {
		if err := p.CheckCompatibility(ctx); err != nil {
			errs = append(errs, fmt.Errorf("%s: %w", p.ID(), err))
			continue
		}
		inst, err := p.New(ctx)
		if err != nil {
			errs = append(errs, fmt.Errorf("%s: %w", p.ID(), err))
			continue
		}

		mu.Lock()
		if existing, ok := instances[t]; ok {
			mu.Unlock()
			return existing.(T), nil
		}
		instances[t] = inst
		mu.Unlock()
		return inst, nil
	}

	if len(errs) == 0 {
		return zero, fmt.Errorf("%w for %s: none registered", ErrNoDriver, t)
	}
	return zero, fmt.Errorf("%w for %s: %w", ErrNoDriver, t, errors.Join(errs...))
}
