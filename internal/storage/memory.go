package storage

import (
	"container/list"
	"context"
	"errors"
	"sync"

	"banditd/internal/model"
)

const (
	DefaultMemoryMaxEvents    = 1000
	DefaultMemoryMaxInstances = 10000
)

type MemoryOption func(*MemoryStore)

// WithMaxEvents caps the events kept per instance; older events are
// overwritten.
func WithMaxEvents(n int) MemoryOption {
	return func(s *MemoryStore) {
		if n > 0 {
			s.maxEvents = n
		}
	}
}

// WithMaxInstances caps the instance ids kept; the least recently written
// instance is dropped first.
func WithMaxInstances(n int) MemoryOption {
	return func(s *MemoryStore) {
		if n > 0 {
			s.maxInstances = n
		}
	}
}

// MemoryStore is a bounded journal. Each instance keeps its newest events in
// a ring buffer.
type MemoryStore struct {
	mu           sync.RWMutex
	initialized  bool
	seq          int64
	maxEvents    int
	maxInstances int
	events       map[string]*list.Element
	order        *list.List
}

type eventRing struct {
	id   string
	buf  []model.Event
	next int
}

func (r *eventRing) push(ev model.Event, capacity int) {
	if len(r.buf) < capacity {
		r.buf = append(r.buf, ev)
		return
	}
	r.buf[r.next] = ev
	r.next = (r.next + 1) % len(r.buf)
}

// tail returns the newest limit events, oldest first.
func (r *eventRing) tail(limit int) []model.Event {
	n := len(r.buf)
	if limit <= 0 || limit > n {
		limit = n
	}
	out := make([]model.Event, 0, limit)
	for i := n - limit; i < n; i++ {
		out = append(out, r.buf[(r.next+i)%n])
	}
	return out
}

func NewMemoryStore(opts ...MemoryOption) *MemoryStore {
	s := &MemoryStore{
		maxEvents:    DefaultMemoryMaxEvents,
		maxInstances: DefaultMemoryMaxInstances,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func (s *MemoryStore) Init(_ context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.initialized = true
	s.seq = 0
	s.events = make(map[string]*list.Element)
	s.order = list.New()
	return nil
}

func (s *MemoryStore) AppendEvent(_ context.Context, event model.Event) (model.Event, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.initialized {
		return model.Event{}, errors.New("store is not initialized")
	}
	if err := checkVersion(event.VersionedRecord); err != nil {
		return model.Event{}, err
	}
	s.seq++
	event.Seq = s.seq

	el, ok := s.events[event.InstanceID]
	if ok {
		s.order.MoveToBack(el)
	} else {
		el = s.order.PushBack(&eventRing{id: event.InstanceID})
		s.events[event.InstanceID] = el
		for s.order.Len() > s.maxInstances {
			oldest := s.order.Front()
			s.order.Remove(oldest)
			delete(s.events, oldest.Value.(*eventRing).id)
		}
	}
	el.Value.(*eventRing).push(event, s.maxEvents)
	return event, nil
}

func (s *MemoryStore) Events(_ context.Context, instanceID string, limit int) ([]model.Event, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if !s.initialized {
		return nil, errors.New("store is not initialized")
	}
	el, ok := s.events[instanceID]
	if !ok {
		return []model.Event{}, nil
	}
	return el.Value.(*eventRing).tail(limit), nil
}
