// Package registry owns long-lived, independently locked instances addressed
// by opaque identifiers.
//
// Two lock levels are used. The registry lock guards only the shape of the
// map and is never held while an instance lock is taken. Each entry carries
// its own mutex, held for the duration of one instance operation, so work on
// different identifiers proceeds in parallel.
package registry

import (
	"fmt"
	"sort"
	"strconv"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"banditd/internal/model"
)

type entry[T any] struct {
	mu       sync.Mutex
	value    T
	removed  atomic.Bool
	lastUsed atomic.Int64
}

// Registry is safe for concurrent use. Identifiers are allocated from a
// monotonic counter and never reused within the registry's lifetime.
type Registry[T any] struct {
	prefix string
	now    func() time.Time

	seq atomic.Uint64

	mu      sync.RWMutex
	entries map[string]*entry[T]
}

type Option[T any] func(*Registry[T])

// WithClock overrides the time source used for idle tracking.
func WithClock[T any](now func() time.Time) Option[T] {
	return func(r *Registry[T]) {
		if now != nil {
			r.now = now
		}
	}
}

func New[T any](prefix string, opts ...Option[T]) *Registry[T] {
	r := &Registry[T]{
		prefix:  prefix,
		now:     time.Now,
		entries: make(map[string]*entry[T]),
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Create builds a value and inserts it under a fresh identifier. build runs
// outside any lock; a build error allocates nothing visible.
func (r *Registry[T]) Create(build func() (T, error)) (string, error) {
	value, err := build()
	if err != nil {
		return "", err
	}
	e := &entry[T]{value: value}
	e.lastUsed.Store(r.now().UnixNano())
	id := r.nextID()

	r.mu.Lock()
	r.entries[id] = e
	r.mu.Unlock()
	return id, nil
}

// With runs fn against the instance while holding only that instance's lock.
func (r *Registry[T]) With(id string, fn func(T) error) error {
	e, err := r.lookup(id)
	if err != nil {
		return err
	}
	e.mu.Lock()
	defer e.mu.Unlock()

	if e.removed.Load() {
		return notFound(id)
	}
	e.lastUsed.Store(r.now().UnixNano())
	return fn(e.value)
}

// Remove detaches the instance. Operations already holding its lock finish
// normally; later ones observe ErrNotFound.
func (r *Registry[T]) Remove(id string) error {
	r.mu.Lock()
	e, ok := r.entries[id]
	if ok {
		delete(r.entries, id)
		e.removed.Store(true)
	}
	r.mu.Unlock()

	if !ok {
		return notFound(id)
	}
	return nil
}

func (r *Registry[T]) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.entries)
}

// IDs returns live identifiers in allocation order.
func (r *Registry[T]) IDs() []string {
	r.mu.RLock()
	ids := make([]string, 0, len(r.entries))
	for id := range r.entries {
		ids = append(ids, id)
	}
	r.mu.RUnlock()

	sort.Slice(ids, func(i, j int) bool {
		return r.sequenceOf(ids[i]) < r.sequenceOf(ids[j])
	})
	return ids
}

// Sweep removes entries unused for longer than maxIdle and returns their
// identifiers. A non-positive maxIdle disables sweeping.
func (r *Registry[T]) Sweep(maxIdle time.Duration) []string {
	if maxIdle <= 0 {
		return nil
	}
	cutoff := r.now().Add(-maxIdle).UnixNano()

	r.mu.Lock()
	var expired []string
	for id, e := range r.entries {
		if e.lastUsed.Load() < cutoff {
			delete(r.entries, id)
			e.removed.Store(true)
			expired = append(expired, id)
		}
	}
	r.mu.Unlock()

	sort.Slice(expired, func(i, j int) bool {
		return r.sequenceOf(expired[i]) < r.sequenceOf(expired[j])
	})
	return expired
}

func (r *Registry[T]) lookup(id string) (*entry[T], error) {
	r.mu.RLock()
	e, ok := r.entries[id]
	r.mu.RUnlock()
	if !ok {
		return nil, notFound(id)
	}
	return e, nil
}

func (r *Registry[T]) nextID() string {
	n := r.seq.Add(1)
	if r.prefix == "" {
		return strconv.FormatUint(n, 10)
	}
	return r.prefix + "-" + strconv.FormatUint(n, 10)
}

func (r *Registry[T]) sequenceOf(id string) uint64 {
	raw := id
	if r.prefix != "" {
		raw = strings.TrimPrefix(id, r.prefix+"-")
	}
	n, _ := strconv.ParseUint(raw, 10, 64)
	return n
}

func notFound(id string) error {
	return fmt.Errorf("%w: %s", model.ErrNotFound, id)
}
