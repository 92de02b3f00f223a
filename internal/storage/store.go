// Package storage provides durable key-value storage for published artifacts
// and collection snapshots.
package storage

import (
	"context"
	"encoding/hex"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/zeebo/blake3"
)

// ArtifactStore is the durable object store the publisher writes to and the
// read path fetches from. Keys have the form "<collection>/<artifactKey>";
// snapshots live under the bare collection name.
type ArtifactStore interface {
	// Put stores body under key with the given content type, replacing any
	// previous object.
	Put(ctx context.Context, key string, body []byte, contentType string) error

	// Get retrieves the object stored under key.
	// Returns ErrNotFound if the key doesn't exist.
	Get(ctx context.Context, key string) (*Object, error)

	// Delete removes key. Deleting a missing key is not an error.
	Delete(ctx context.Context, key string) error

	// Close releases any resources held by the store.
	Close() error
}

// Object is a stored artifact with its metadata.
type Object struct {
	Key         string
	ContentType string
	// ETag is an opaque, quoted validator that changes whenever Body changes.
	ETag       string
	Body       []byte
	ModifiedAt time.Time
}

// ErrNotFound is returned when an object doesn't exist.
type ErrNotFound struct {
	Key string
}

func (e ErrNotFound) Error() string {
	return "object not found: " + e.Key
}

// IsNotFound returns true if err is, or wraps, ErrNotFound.
func IsNotFound(err error) bool {
	var nf ErrNotFound
	return errors.As(err, &nf)
}

// Key joins a collection and an artifact key into a storage key.
func Key(collection, artifactKey string) string {
	return collection + "/" + artifactKey
}

// ComputeETag returns the quoted BLAKE3 digest of body. Stores that do not
// get a validator from their backend use it so equal bodies share an ETag.
func ComputeETag(body []byte) string {
	sum := blake3.Sum256(body)
	return `"` + hex.EncodeToString(sum[:]) + `"`
}

// validateKey rejects keys that could escape a filesystem root.
func validateKey(key string) error {
	if key == "" {
		return fmt.Errorf("empty key")
	}
	if strings.HasPrefix(key, "/") || strings.Contains(key, "\\") {
		return fmt.Errorf("invalid key %q", key)
	}
	for _, part := range strings.Split(key, "/") {
		if part == "" || part == "." || part == ".." {
			return fmt.Errorf("invalid key %q", key)
		}
	}
	return nil
}
