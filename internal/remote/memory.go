package remote

import (
	"context"
	"fmt"
	"os"
	"path"
	"sort"
	"strings"
	"sync"
	"time"

	"git.home.luguber.info/inful/folio/internal/model"
)

type memoryFile struct {
	data       []byte
	modifiedAt time.Time
}

// MemoryProvider is an in-memory Provider used by tests and local demos.
type MemoryProvider struct {
	mu       sync.RWMutex
	files    map[string]memoryFile
	reads    map[string]int
	failList error
	failRead map[string]error
}

// NewMemoryProvider returns an empty provider.
func NewMemoryProvider() *MemoryProvider {
	return &MemoryProvider{
		files:    make(map[string]memoryFile),
		reads:    make(map[string]int),
		failRead: make(map[string]error),
	}
}

// Set creates or replaces the file at p.
func (m *MemoryProvider) Set(p string, data []byte, modifiedAt time.Time) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.files[clean(p)] = memoryFile{data: append([]byte(nil), data...), modifiedAt: modifiedAt}
}

// Remove deletes the file at p.
func (m *MemoryProvider) Remove(p string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.files, clean(p))
}

// FailList makes List return err until cleared with nil.
func (m *MemoryProvider) FailList(err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.failList = err
}

// FailRead makes Read of p return err until cleared with nil.
func (m *MemoryProvider) FailRead(p string, err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err == nil {
		delete(m.failRead, clean(p))
		return
	}
	m.failRead[clean(p)] = err
}

// Reads returns how many times p was read.
func (m *MemoryProvider) Reads(p string) int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.reads[clean(p)]
}

// List returns files below dir plus the directories implied by their paths.
func (m *MemoryProvider) List(ctx context.Context, dir string) ([]model.FileRecord, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	m.mu.RLock()
	defer m.mu.RUnlock()
	if m.failList != nil {
		return nil, m.failList
	}

	root := clean(dir)
	prefix := strings.TrimSuffix(root, "/") + "/"
	dirs := map[string]time.Time{}
	var out []model.FileRecord
	for p, f := range m.files {
		if !strings.HasPrefix(p, prefix) {
			continue
		}
		out = append(out, model.FileRecord{Path: p, ModifiedAt: f.modifiedAt})
		for d := path.Dir(p); d != root && strings.HasPrefix(d, prefix); d = path.Dir(d) {
			if f.modifiedAt.After(dirs[d]) {
				dirs[d] = f.modifiedAt
			}
		}
	}
	for d, mod := range dirs {
		out = append(out, model.FileRecord{Path: d, IsDir: true, ModifiedAt: mod})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Path < out[j].Path })
	return out, nil
}

// Read returns a copy of the file at p.
func (m *MemoryProvider) Read(ctx context.Context, p string) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	p = clean(p)
	m.reads[p]++
	if err := m.failRead[p]; err != nil {
		return nil, err
	}
	f, ok := m.files[p]
	if !ok {
		return nil, fmt.Errorf("read %s: %w", p, os.ErrNotExist)
	}
	return append([]byte(nil), f.data...), nil
}

func clean(p string) string {
	return path.Clean("/" + strings.TrimPrefix(p, "/"))
}
