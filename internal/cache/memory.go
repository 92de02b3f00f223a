package cache

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"git.home.luguber.info/inful/folio/internal/logfields"
)

// MemoryBackend is an in-process Backend.
type MemoryBackend struct {
	mu      sync.RWMutex
	headers map[string]memoryEntry[Headers]
	content map[string]memoryEntry[[]byte]
	now     func() time.Time
}

type memoryEntry[T any] struct {
	value     T
	expiresAt time.Time
}

// MemoryOption configures a MemoryBackend.
type MemoryOption func(*MemoryBackend)

// WithClock replaces time.Now, letting tests move time forward.
func WithClock(now func() time.Time) MemoryOption {
	return func(m *MemoryBackend) { m.now = now }
}

// NewMemoryBackend creates an empty in-memory backend.
func NewMemoryBackend(opts ...MemoryOption) *MemoryBackend {
	m := &MemoryBackend{
		headers: make(map[string]memoryEntry[Headers]),
		content: make(map[string]memoryEntry[[]byte]),
		now:     time.Now,
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// GetHeaders implements Backend.
func (m *MemoryBackend) GetHeaders(_ context.Context, key string) (Headers, bool, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	e, ok := m.headers[key]
	if !ok || !m.now().Before(e.expiresAt) {
		return Headers{}, false, nil
	}
	return e.value, true, nil
}

// SetHeaders implements Backend.
func (m *MemoryBackend) SetHeaders(_ context.Context, key string, h Headers, ttl time.Duration) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.headers[key] = memoryEntry[Headers]{value: h, expiresAt: m.now().Add(ttl)}
	return nil
}

// GetContent implements Backend.
func (m *MemoryBackend) GetContent(_ context.Context, key string) ([]byte, bool, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	e, ok := m.content[key]
	if !ok || !m.now().Before(e.expiresAt) {
		return nil, false, nil
	}
	out := make([]byte, len(e.value))
	copy(out, e.value)
	return out, true, nil
}

// SetContent implements Backend.
func (m *MemoryBackend) SetContent(_ context.Context, key string, body []byte, ttl time.Duration) error {
	stored := make([]byte, len(body))
	copy(stored, body)
	m.mu.Lock()
	defer m.mu.Unlock()
	m.content[key] = memoryEntry[[]byte]{value: stored, expiresAt: m.now().Add(ttl)}
	return nil
}

// Delete implements Backend.
func (m *MemoryBackend) Delete(_ context.Context, key string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.headers, key)
	delete(m.content, key)
	return nil
}

// Close implements Backend.
func (m *MemoryBackend) Close() error { return nil }

// Sweep removes expired entries and returns how many were dropped.
func (m *MemoryBackend) Sweep() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	now := m.now()
	n := 0
	for k, e := range m.headers {
		if !now.Before(e.expiresAt) {
			delete(m.headers, k)
			n++
		}
	}
	for k, e := range m.content {
		if !now.Before(e.expiresAt) {
			delete(m.content, k)
			n++
		}
	}
	return n
}

// RunJanitor sweeps expired entries every interval until ctx is done.
func (m *MemoryBackend) RunJanitor(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if n := m.Sweep(); n > 0 {
				slog.Debug("Cache sweep", slog.Int("expired", n), logfields.Count(m.Len()))
			}
		}
	}
}

// Len returns the number of live and expired entries across both tiers.
func (m *MemoryBackend) Len() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.headers) + len(m.content)
}
