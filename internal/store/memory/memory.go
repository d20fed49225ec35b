// Package memory provides an in-process store.Store used by tests and by
// single-node deployments that do not need persistence.
package memory

import (
	"context"
	"sync"

	"tinyfeed/internal/store"
)

// Store implements store.Store with maps guarded by a single RWMutex.
// Data is lost on restart.
type Store struct {
	mu       sync.RWMutex
	counters map[string]int64
	hashes   map[string]map[string]string
	sets     map[string]map[string]struct{}
	setOrder map[string][]string // insertion order for stable SMembers
	lists    map[string][]string // stored tail-first; the head is the last element
}

var _ store.Store = (*Store)(nil)

// New creates an empty in-memory store
func New() *Store {
	return &Store{
		counters: make(map[string]int64),
		hashes:   make(map[string]map[string]string),
		sets:     make(map[string]map[string]struct{}),
		setOrder: make(map[string][]string),
		lists:    make(map[string][]string),
	}
}

func (s *Store) Incr(_ context.Context, name string) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.counters[name]++
	return s.counters[name], nil
}

func (s *Store) HGet(_ context.Context, key, field string) (string, bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	value, ok := s.hashes[key][field]
	return value, ok, nil
}

// HGetAll returns a copy so callers cannot mutate stored state
func (s *Store) HGetAll(_ context.Context, key string) (map[string]string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make(map[string]string, len(s.hashes[key]))
	for k, v := range s.hashes[key] {
		out[k] = v
	}
	return out, nil
}

func (s *Store) HSet(_ context.Context, key string, fields map[string]string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	h, ok := s.hashes[key]
	if !ok {
		h = make(map[string]string, len(fields))
		s.hashes[key] = h
	}
	for k, v := range fields {
		h[k] = v
	}
	return nil
}

func (s *Store) HSetNX(_ context.Context, key, field, value string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	h, ok := s.hashes[key]
	if !ok {
		h = make(map[string]string)
		s.hashes[key] = h
	}
	if _, exists := h[field]; exists {
		return false, nil
	}
	h[field] = value
	return true, nil
}

func (s *Store) SAdd(_ context.Context, key, member string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	set, ok := s.sets[key]
	if !ok {
		set = make(map[string]struct{})
		s.sets[key] = set
	}
	if _, exists := set[member]; exists {
		return false, nil
	}
	set[member] = struct{}{}
	s.setOrder[key] = append(s.setOrder[key], member)
	return true, nil
}

func (s *Store) SMembers(_ context.Context, key string) ([]string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	members := make([]string, len(s.setOrder[key]))
	copy(members, s.setOrder[key])
	return members, nil
}

func (s *Store) LPush(_ context.Context, key, value string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.lists[key] = append(s.lists[key], value)
	return nil
}

func (s *Store) LRange(_ context.Context, key string, start, stop int64) ([]string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	list := s.lists[key]
	n := int64(len(list))
	from, to, ok := store.NormalizeRange(start, stop, n)
	if !ok {
		return []string{}, nil
	}

	out := make([]string, 0, to-from+1)
	for i := from; i <= to; i++ {
		out = append(out, list[n-1-i])
	}
	return out, nil
}

func (s *Store) Ping(context.Context) error { return nil }

func (s *Store) Close() error { return nil }
