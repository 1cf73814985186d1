package store

import (
	"context"
	"sync"
	"time"
)

// DefaultCleanupInterval is how often expired counters are swept.
const DefaultCleanupInterval = time.Minute

type counter struct {
	value     int64
	expiresAt time.Time
}

func (c *counter) expired(now time.Time) bool {
	return !c.expiresAt.IsZero() && !now.Before(c.expiresAt)
}

// MemoryStore implements Store in process memory. Counters are not
// shared between replicas.
type MemoryStore struct {
	mu       sync.Mutex
	counters map[string]*counter
	now      func() time.Time

	done      chan struct{}
	closeOnce sync.Once
}

// MemoryOption is a functional option for configuring the memory store.
type MemoryOption func(*MemoryStore)

// WithClock replaces time.Now. Used by tests.
func WithClock(now func() time.Time) MemoryOption {
	return func(s *MemoryStore) {
		s.now = now
	}
}

// NewMemoryStore creates a new in-memory store that sweeps expired
// counters every interval. A non-positive interval uses the default.
func NewMemoryStore(interval time.Duration, opts ...MemoryOption) *MemoryStore {
	if interval <= 0 {
		interval = DefaultCleanupInterval
	}

	s := &MemoryStore{
		counters: make(map[string]*counter),
		now:      time.Now,
		done:     make(chan struct{}),
	}
	for _, opt := range opts {
		opt(s)
	}

	go s.cleanupLoop(interval)

	return s
}

// IncrementWithExpiry implements Store.
func (s *MemoryStore) IncrementWithExpiry(
	ctx context.Context,
	key string,
	delta int64,
	expiration time.Duration,
) (int64, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if s.counters == nil {
		return 0, ErrClosed
	}

	now := s.now()
	c, ok := s.counters[key]
	if !ok || c.expired(now) {
		c = &counter{}
		if expiration > 0 {
			c.expiresAt = now.Add(expiration)
		}
		s.counters[key] = c
	}

	c.value += delta
	return c.value, nil
}

// Delete implements Store.
func (s *MemoryStore) Delete(ctx context.Context, key string) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	delete(s.counters, key)
	return nil
}

// Ping implements Store.
func (s *MemoryStore) Ping(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if s.counters == nil {
		return ErrClosed
	}
	return nil
}

// Close implements Store. It is safe to call more than once.
func (s *MemoryStore) Close() error {
	s.closeOnce.Do(func() {
		close(s.done)

		s.mu.Lock()
		s.counters = nil
		s.mu.Unlock()
	})
	return nil
}

// Len returns the number of live counters.
func (s *MemoryStore) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.now()
	n := 0
	for _, c := range s.counters {
		if !c.expired(now) {
			n++
		}
	}
	return n
}

func (s *MemoryStore) cleanupLoop(interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			s.sweep()
		case <-s.done:
			return
		}
	}
}

func (s *MemoryStore) sweep() {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.now()
	for key, c := range s.counters {
		if c.expired(now) {
			delete(s.counters, key)
		}
	}
}
