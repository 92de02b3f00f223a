// Package remote defines the boundary to the remote content provider that
// holds each collection's source tree.
package remote

import (
	"context"

	"git.home.luguber.info/inful/folio/internal/model"
)

// Provider lists and reads a remote file hierarchy. Both calls are fallible
// and may be slow; callers bound them with a context deadline.
type Provider interface {
	// List returns every entry below dir, recursively, including
	// subdirectory entries. Paths are slash separated and rooted at "/".
	List(ctx context.Context, dir string) ([]model.FileRecord, error)

	// Read returns the content of the file at path.
	Read(ctx context.Context, path string) ([]byte, error)
}

// Watcher is implemented by providers that can signal changes before the
// next polling interval.
type Watcher interface {
	Watch(ctx context.Context, onChange func()) error
}
