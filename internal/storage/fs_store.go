package storage

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"
)

// FSStore is a filesystem-based implementation of ArtifactStore.
// It stores objects under their key with a metadata sidecar:
//
//	<root>/
//	  objects/
//	    live.obj          (bare collection key, the snapshot)
//	    live/index.obj
//	    live/rss.xml.obj
//	  meta/
//	    live.json
//	    live/index.json
//	    live/rss.xml.json
//
// The suffixes keep a bare key from colliding with the directory that holds
// the keys nested below it.
type FSStore struct {
	basePath string
	mu       sync.RWMutex
}

type fsMetadata struct {
	ContentType string    `json:"content_type"`
	ETag        string    `json:"etag"`
	ModifiedAt  time.Time `json:"modified_at"`
}

// NewFSStore creates a new filesystem-based artifact store.
func NewFSStore(basePath string) (*FSStore, error) {
	dirs := []string{
		filepath.Join(basePath, "objects"),
		filepath.Join(basePath, "meta"),
	}
	for _, dir := range dirs {
		if err := os.MkdirAll(dir, 0750); err != nil {
			return nil, fmt.Errorf("create directory %s: %w", dir, err)
		}
	}

	return &FSStore{basePath: basePath}, nil
}

// Put stores an object under key.
func (fs *FSStore) Put(ctx context.Context, key string, body []byte, contentType string) error {
	if err := validateKey(key); err != nil {
		return err
	}
	fs.mu.Lock()
	defer fs.mu.Unlock()

	if err := writeFileAtomic(fs.objectPath(key), body); err != nil {
		return fmt.Errorf("write object: %w", err)
	}

	meta := fsMetadata{
		ContentType: contentType,
		ETag:        ComputeETag(body),
		ModifiedAt:  time.Now().UTC(),
	}
	data, err := json.Marshal(meta)
	if err != nil {
		return fmt.Errorf("marshal metadata: %w", err)
	}
	if err := writeFileAtomic(fs.metaPath(key), data); err != nil {
		return fmt.Errorf("write metadata: %w", err)
	}
	return nil
}

// Get retrieves an object by key.
func (fs *FSStore) Get(ctx context.Context, key string) (*Object, error) {
	if err := validateKey(key); err != nil {
		return nil, err
	}
	fs.mu.RLock()
	defer fs.mu.RUnlock()

	// #nosec G304 - path is built from a validated key under basePath
	data, err := os.ReadFile(fs.objectPath(key))
	if err != nil {
		if os.IsNotExist(err) {
			return nil, ErrNotFound{Key: key}
		}
		return nil, fmt.Errorf("read object: %w", err)
	}

	var meta fsMetadata
	// #nosec G304 - path is built from a validated key under basePath
	if raw, err := os.ReadFile(fs.metaPath(key)); err == nil {
		if err := json.Unmarshal(raw, &meta); err != nil {
			return nil, fmt.Errorf("decode metadata: %w", err)
		}
	}
	if meta.ETag == "" {
		meta.ETag = ComputeETag(data)
	}

	return &Object{
		Key:         key,
		ContentType: meta.ContentType,
		ETag:        meta.ETag,
		Body:        data,
		ModifiedAt:  meta.ModifiedAt,
	}, nil
}

// Delete removes an object by key. Missing keys are ignored.
func (fs *FSStore) Delete(ctx context.Context, key string) error {
	if err := validateKey(key); err != nil {
		return err
	}
	fs.mu.Lock()
	defer fs.mu.Unlock()

	for _, p := range []string{fs.objectPath(key), fs.metaPath(key)} {
		if err := os.Remove(p); err != nil && !os.IsNotExist(err) {
			return fmt.Errorf("delete object: %w", err)
		}
	}
	return nil
}

// Close releases resources.
func (fs *FSStore) Close() error {
	return nil
}

func (fs *FSStore) objectPath(key string) string {
	return filepath.Join(fs.basePath, "objects", filepath.FromSlash(key)+".obj")
}

func (fs *FSStore) metaPath(key string) string {
	return filepath.Join(fs.basePath, "meta", filepath.FromSlash(key)+".json")
}

// writeFileAtomic writes data to a temp file in the target directory and
// renames it into place so readers never observe a partial object.
func writeFileAtomic(path string, data []byte) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0750); err != nil {
		return err
	}
	tmp, err := os.CreateTemp(dir, ".tmp-*")
	if err != nil {
		return err
	}
	tmpName := tmp.Name()
	if _, err := tmp.Write(data); err != nil {
		_ = tmp.Close()
		_ = os.Remove(tmpName)
		return err
	}
	if err := tmp.Close(); err != nil {
		_ = os.Remove(tmpName)
		return err
	}
	if err := os.Rename(tmpName, path); err != nil {
		_ = os.Remove(tmpName)
		return err
	}
	return nil
}
