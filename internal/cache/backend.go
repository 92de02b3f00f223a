package cache

import (
	"context"
	"time"
)

// Headers is the header tier entry of an artifact.
type Headers struct {
	ContentType string
	ETag        string
}

// Backend stores the two cache tiers. Entries expire independently after
// their TTL; a miss in either tier is reported as ok == false.
type Backend interface {
	GetHeaders(ctx context.Context, key string) (Headers, bool, error)
	SetHeaders(ctx context.Context, key string, h Headers, ttl time.Duration) error
	GetContent(ctx context.Context, key string) ([]byte, bool, error)
	SetContent(ctx context.Context, key string, body []byte, ttl time.Duration) error
	// Delete drops both tiers of key.
	Delete(ctx context.Context, key string) error
	Close() error
}
