package storage

import (
	"context"
	"sort"
	"strings"
	"sync"
	"time"
)

// MemoryStore is an in-memory implementation of ArtifactStore, used by tests
// and by `storage.type: memory` for throwaway runs.
type MemoryStore struct {
	mu      sync.RWMutex
	objects map[string]*Object
	calls   MemoryCalls
	// failPut, when set, makes Put fail for matching keys.
	failPut func(key string) error
}

// MemoryCalls tracks method invocations for test verification.
type MemoryCalls struct {
	Put    int
	Get    int
	Delete int
}

// NewMemoryStore creates a new in-memory artifact store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		objects: make(map[string]*Object),
	}
}

// Put stores a copy of body under key.
func (m *MemoryStore) Put(ctx context.Context, key string, body []byte, contentType string) error {
	if err := validateKey(key); err != nil {
		return err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.calls.Put++

	if m.failPut != nil {
		if err := m.failPut(key); err != nil {
			return err
		}
	}

	stored := &Object{
		Key:         key,
		ContentType: contentType,
		ETag:        ComputeETag(body),
		Body:        make([]byte, len(body)),
		ModifiedAt:  time.Now().UTC(),
	}
	copy(stored.Body, body)
	m.objects[key] = stored
	return nil
}

// Get retrieves a copy of the object under key.
func (m *MemoryStore) Get(ctx context.Context, key string) (*Object, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.calls.Get++

	obj, ok := m.objects[key]
	if !ok {
		return nil, ErrNotFound{Key: key}
	}
	out := *obj
	out.Body = make([]byte, len(obj.Body))
	copy(out.Body, obj.Body)
	return &out, nil
}

// Delete removes key. Missing keys are ignored.
func (m *MemoryStore) Delete(ctx context.Context, key string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.calls.Delete++

	delete(m.objects, key)
	return nil
}

// Close is a no-op.
func (m *MemoryStore) Close() error { return nil }

// Keys returns the stored keys with the given prefix, sorted.
func (m *MemoryStore) Keys(prefix string) []string {
	m.mu.RLock()
	defer m.mu.RUnlock()

	var keys []string
	for k := range m.objects {
		if strings.HasPrefix(k, prefix) {
			keys = append(keys, k)
		}
	}
	sort.Strings(keys)
	return keys
}

// Calls returns a snapshot of invocation counts.
func (m *MemoryStore) Calls() MemoryCalls {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.calls
}

// ResetCalls zeroes the invocation counters.
func (m *MemoryStore) ResetCalls() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.calls = MemoryCalls{}
}

// FailPuts makes subsequent Put calls return the error produced by fn for
// that key (nil means succeed). Passing nil clears the hook.
func (m *MemoryStore) FailPuts(fn func(key string) error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.failPut = fn
}
