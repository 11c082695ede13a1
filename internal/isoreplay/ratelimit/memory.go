package ratelimit

import (
	"context"
	"sync"
	"time"
)

type window struct {
	count int
	reset time.Time
}

// MemoryStore keeps counters in process memory
type MemoryStore struct {
	mu      sync.Mutex
	windows map[LimitKey]*window
	now     func() time.Time
}

// NewMemoryStore creates an empty in-process store
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		windows: make(map[LimitKey]*window),
		now:     time.Now,
	}
}

// Increment implements Store
func (s *MemoryStore) Increment(ctx context.Context, key LimitKey, limit Limit) (int, time.Time, error) {
	now := s.now()

	s.mu.Lock()
	defer s.mu.Unlock()

	w, ok := s.windows[key]
	if !ok || !now.Before(w.reset) {
		w = &window{reset: now.Add(limit.Period)}
		s.windows[key] = w
	}
	w.count++

	return w.count, w.reset, nil
}

// Reset implements Store
func (s *MemoryStore) Reset(ctx context.Context, key LimitKey) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	delete(s.windows, key)
	return nil
}
