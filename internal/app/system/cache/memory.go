// internal/app/system/cache/memory.go
package cache

import (
	"context"
	"path"
	"sync"
	"time"
)

type entry struct {
	value   []byte
	expires time.Time
}

// Memory is an in-process Cache. Expiry is judged against its own clock,
// which tests replace through WithClock.
type Memory struct {
	mu     sync.Mutex
	items  map[string]entry
	now    func() time.Time
	closed bool
}

// MemoryOption configures a Memory cache.
type MemoryOption func(*Memory)

// WithClock sets the clock used for expiry.
func WithClock(now func() time.Time) MemoryOption {
	return func(m *Memory) { m.now = now }
}

// NewMemory returns an empty in-process cache.
func NewMemory(opts ...MemoryOption) *Memory {
	m := &Memory{items: make(map[string]entry), now: time.Now}
	for _, o := range opts {
		o(m)
	}
	return m
}

func (m *Memory) Get(_ context.Context, key string) ([]byte, bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.closed {
		return nil, false, ErrClosed
	}

	e, ok := m.items[key]
	if !ok {
		return nil, false, nil
	}
	if !m.now().Before(e.expires) {
		delete(m.items, key)
		return nil, false, nil
	}
	return e.value, true, nil
}

// Set stores value for ttl. A non-positive ttl stores nothing.
func (m *Memory) Set(_ context.Context, key string, value []byte, ttl time.Duration) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.closed {
		return ErrClosed
	}
	if ttl <= 0 {
		delete(m.items, key)
		return nil
	}

	buf := make([]byte, len(value))
	copy(buf, value)
	m.items[key] = entry{value: buf, expires: m.now().Add(ttl)}
	return nil
}

func (m *Memory) Invalidate(_ context.Context, pattern string) (int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.closed {
		return 0, ErrClosed
	}

	n := 0
	for k := range m.items {
		if ok, _ := path.Match(pattern, k); ok {
			delete(m.items, k)
			n++
		}
	}
	return n, nil
}

// Sweep drops expired entries and returns how many were removed.
func (m *Memory) Sweep() int {
	m.mu.Lock()
	defer m.mu.Unlock()

	now := m.now()
	n := 0
	for k, e := range m.items {
		if !now.Before(e.expires) {
			delete(m.items, k)
			n++
		}
	}
	return n
}

// Len returns the number of stored entries, expired or not.
func (m *Memory) Len() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.items)
}

func (m *Memory) Close() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.closed = true
	m.items = nil
	return nil
}
