// Package memory provides an in-memory Store implementation for tests and
// single-process deployments.
package memory

import (
	"context"
	"sort"
	"sync"

	"github.com/mahmoodhamdi/hookgate"
	"github.com/mahmoodhamdi/hookgate/event"
	"github.com/mahmoodhamdi/hookgate/gateway"
	hgstore "github.com/mahmoodhamdi/hookgate/store"
)

// compile-time interface check.
var _ hgstore.Store = (*Store)(nil)

type key struct {
	gw      gateway.Gateway
	eventID string
}

// Store is an in-memory implementation of store.Store. The uniqueness
// check and the insert happen under one write lock.
type Store struct {
	mu     sync.RWMutex
	events map[key]*event.Event
	closed bool
}

// New creates a new in-memory store.
func New() *Store {
	return &Store{
		events: make(map[key]*event.Event),
	}
}

// ──────────────────────────────────────────────────
// Lifecycle
// ──────────────────────────────────────────────────

// Migrate is a no-op for the in-memory store.
func (s *Store) Migrate(_ context.Context) error { return nil }

// Ping reports ErrStoreClosed after Close.
func (s *Store) Ping(_ context.Context) error {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.closed {
		return hookgate.ErrStoreClosed
	}
	return nil
}

// Close marks the store as closed.
func (s *Store) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.closed = true
	return nil
}

// ──────────────────────────────────────────────────
// event.Store
// ──────────────────────────────────────────────────

// FindEvent returns a copy of the record for (gw, eventID).
func (s *Store) FindEvent(_ context.Context, gw gateway.Gateway, eventID string) (*event.Event, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.closed {
		return nil, hookgate.ErrStoreClosed
	}

	e, ok := s.events[key{gw, eventID}]
	if !ok {
		return nil, hookgate.ErrEventNotFound
	}
	return clone(e), nil
}

// InsertEvent stores a copy of evt unless the pair already exists.
func (s *Store) InsertEvent(_ context.Context, evt *event.Event) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return hookgate.ErrStoreClosed
	}

	k := key{evt.Gateway, evt.EventID}
	if _, exists := s.events[k]; exists {
		return hookgate.ErrDuplicateEvent
	}
	s.events[k] = clone(evt)
	return nil
}

// UpdateStatus applies t to the stored record.
func (s *Store) UpdateStatus(_ context.Context, gw gateway.Gateway, eventID string, t event.Transition) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return hookgate.ErrStoreClosed
	}

	e, ok := s.events[key{gw, eventID}]
	if !ok {
		return hookgate.ErrEventNotFound
	}
	t.Apply(e)
	return nil
}

// ListRecent returns copies of the newest records.
func (s *Store) ListRecent(_ context.Context, opts event.ListOpts) ([]*event.Event, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.closed {
		return nil, hookgate.ErrStoreClosed
	}

	result := make([]*event.Event, 0, len(s.events))
	for _, e := range s.events {
		if opts.Gateway != "" && e.Gateway != opts.Gateway {
			continue
		}
		result = append(result, e)
	}

	sort.Slice(result, func(i, j int) bool {
		if !result[i].CreatedAt.Equal(result[j].CreatedAt) {
			return result[i].CreatedAt.After(result[j].CreatedAt)
		}
		return result[i].ID.String() > result[j].ID.String()
	})

	if opts.Limit > 0 && opts.Limit < len(result) {
		result = result[:opts.Limit]
	}
	for i, e := range result {
		result[i] = clone(e)
	}
	return result, nil
}

// CountByStatus groups the windowed records by status.
func (s *Store) CountByStatus(_ context.Context, f event.StatsFilter) (map[event.Status]int64, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.closed {
		return nil, hookgate.ErrStoreClosed
	}

	out := make(map[event.Status]int64)
	for _, e := range s.events {
		if matches(e, f) {
			out[e.Status]++
		}
	}
	return out, nil
}

// CountByType groups the windowed records by event type.
func (s *Store) CountByType(_ context.Context, f event.StatsFilter) (map[string]int64, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.closed {
		return nil, hookgate.ErrStoreClosed
	}

	out := make(map[string]int64)
	for _, e := range s.events {
		if matches(e, f) {
			out[e.EventType]++
		}
	}
	return out, nil
}

// Len returns the number of stored records.
func (s *Store) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.events)
}

func matches(e *event.Event, f event.StatsFilter) bool {
	if f.Gateway != "" && e.Gateway != f.Gateway {
		return false
	}
	return !e.CreatedAt.Before(f.Since)
}

func clone(e *event.Event) *event.Event {
	c := *e
	if e.ProcessedAt != nil {
		at := *e.ProcessedAt
		c.ProcessedAt = &at
	}
	if e.Metadata != nil {
		c.Metadata = make(map[string]any, len(e.Metadata))
		for k, v := range e.Metadata {
			c.Metadata[k] = v
		}
	}
	return &c
}
