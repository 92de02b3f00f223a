// Package mirror stages the remote files a collection needs for rendering in
// a local directory keyed by basename.
package mirror

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	ferrors "git.home.luguber.info/inful/folio/internal/errors"
	"git.home.luguber.info/inful/folio/internal/logfields"
	"git.home.luguber.info/inful/folio/internal/model"
	"git.home.luguber.info/inful/folio/internal/remote"
)

// Cache is the local mirror of one collection.
type Cache struct {
	dir          string
	provider     remote.Provider
	fetchTimeout time.Duration
}

// New creates (if needed) the mirror directory for a collection.
func New(dir string, provider remote.Provider, fetchTimeout time.Duration) (*Cache, error) {
	if err := os.MkdirAll(dir, 0o750); err != nil {
		return nil, ferrors.MirrorError("create", err).WithContext("dir", dir)
	}
	return &Cache{dir: dir, provider: provider, fetchTimeout: fetchTimeout}, nil
}

// Dir returns the mirror directory.
func (c *Cache) Dir() string { return c.dir }

// EnsurePresent guarantees that every file in files is mirrored. Files in
// changed are always refetched; any other file is fetched only when its
// basename is missing from the mirror, which repairs earlier partial passes.
// The first fetch failure aborts with a RemoteUnavailable error. Entries
// already mirrored are never left half written.
func (c *Cache) EnsurePresent(ctx context.Context, files, changed []model.FileRecord) (int, error) {
	refetch := make(map[string]bool, len(changed))
	for _, f := range changed {
		refetch[f.Basename()] = true
	}

	todo := make([]model.FileRecord, 0, len(changed))
	queued := make(map[string]bool, len(files))
	for _, f := range changed {
		if !queued[f.Basename()] {
			todo = append(todo, f)
			queued[f.Basename()] = true
		}
	}
	for _, f := range files {
		name := f.Basename()
		if queued[name] || c.Has(name) {
			continue
		}
		todo = append(todo, f)
		queued[name] = true
	}

	for _, f := range todo {
		if err := c.fetch(ctx, f); err != nil {
			return 0, err
		}
		slog.Debug("Mirrored file", logfields.Path(f.Path), slog.Bool("refetch", refetch[f.Basename()]))
	}
	return len(todo), nil
}

func (c *Cache) fetch(ctx context.Context, f model.FileRecord) error {
	fetchCtx := ctx
	if c.fetchTimeout > 0 {
		var cancel context.CancelFunc
		fetchCtx, cancel = context.WithTimeout(ctx, c.fetchTimeout)
		defer cancel()
	}

	data, err := c.provider.Read(fetchCtx, f.Path)
	if err != nil {
		return ferrors.RemoteUnavailable(f.Path, err)
	}
	if err := c.write(f.Basename(), data); err != nil {
		return ferrors.MirrorError("write", err).WithContext("file", f.Basename())
	}
	return nil
}

// Has reports whether basename is mirrored.
func (c *Cache) Has(basename string) bool {
	p, err := c.path(basename)
	if err != nil {
		return false
	}
	info, err := os.Stat(p)
	return err == nil && !info.IsDir()
}

// Read returns the mirrored content of basename.
func (c *Cache) Read(basename string) ([]byte, error) {
	p, err := c.path(basename)
	if err != nil {
		return nil, err
	}
	// #nosec G304 - basename is validated to stay inside the mirror dir
	return os.ReadFile(p)
}

// Remove drops basename from the mirror. Missing entries are ignored.
func (c *Cache) Remove(basename string) error {
	p, err := c.path(basename)
	if err != nil {
		return err
	}
	if err := os.Remove(p); err != nil && !os.IsNotExist(err) {
		return ferrors.MirrorError("remove", err).WithContext("file", basename)
	}
	return nil
}

func (c *Cache) write(basename string, data []byte) error {
	p, err := c.path(basename)
	if err != nil {
		return err
	}
	tmp, err := os.CreateTemp(c.dir, ".fetch-*")
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
	return os.Rename(tmpName, p)
}

func (c *Cache) path(basename string) (string, error) {
	if basename == "" || basename == "." || basename == ".." ||
		strings.ContainsAny(basename, `/\`) || strings.HasPrefix(basename, ".fetch-") {
		return "", fmt.Errorf("invalid mirror name %q", basename)
	}
	return filepath.Join(c.dir, basename), nil
}
