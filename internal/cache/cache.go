// Package cache serves published artifacts through a two-tier TTL cache
// (headers and content) in front of durable storage, answering conditional
// requests from the header tier alone.
package cache

import (
	"context"
	"errors"
	"log/slog"
	"strings"
	"time"

	ferrors "git.home.luguber.info/inful/folio/internal/errors"
	"git.home.luguber.info/inful/folio/internal/logfields"
	"git.home.luguber.info/inful/folio/internal/metrics"
	"git.home.luguber.info/inful/folio/internal/storage"
)

// ErrNotFound is returned when the artifact does not exist in storage.
var ErrNotFound = errors.New("artifact not found")

// DefaultTTL applies to collections without a configured TTL.
const DefaultTTL = 60 * time.Second

// Status is the outcome of a lookup.
type Status int

const (
	StatusOK Status = iota
	StatusNotModified
)

// Response is the answer to a lookup. Body is nil for StatusNotModified.
type Response struct {
	Status      Status
	ContentType string
	ETag        string
	Body        []byte
	// FromCache reports whether storage was bypassed.
	FromCache bool
}

// ArtifactCache is a read-through cache over an ArtifactStore. Concurrent
// misses for the same key each fetch from storage; the last write wins.
type ArtifactCache struct {
	backend  Backend
	store    storage.ArtifactStore
	ttls     map[string]time.Duration
	recorder metrics.Recorder
}

// Option configures an ArtifactCache.
type Option func(*ArtifactCache)

// WithTTL sets the entry lifetime for one collection.
func WithTTL(collection string, ttl time.Duration) Option {
	return func(c *ArtifactCache) { c.ttls[collection] = ttl }
}

// WithRecorder sets the metrics recorder.
func WithRecorder(r metrics.Recorder) Option {
	return func(c *ArtifactCache) {
		if r != nil {
			c.recorder = r
		}
	}
}

// New creates an ArtifactCache.
func New(backend Backend, store storage.ArtifactStore, opts ...Option) *ArtifactCache {
	c := &ArtifactCache{
		backend:  backend,
		store:    store,
		ttls:     make(map[string]time.Duration),
		recorder: metrics.NoopRecorder{},
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// TTL returns the entry lifetime of collection.
func (c *ArtifactCache) TTL(collection string) time.Duration {
	if ttl, ok := c.ttls[collection]; ok && ttl > 0 {
		return ttl
	}
	return DefaultTTL
}

// Get looks up resource in collection. A fresh header entry whose ETag matches
// ifNoneMatch answers StatusNotModified without touching the content tier. A
// fresh pair of entries answers from the cache. Anything else is fetched from
// storage and repopulates both tiers.
func (c *ArtifactCache) Get(ctx context.Context, collection, resource, ifNoneMatch string) (*Response, error) {
	key := storage.Key(collection, resource)

	hdr, ok, err := c.backend.GetHeaders(ctx, key)
	if err != nil {
		slog.Warn("Cache header lookup failed", logfields.Key(key), logfields.Error(err))
		ok = false
	}
	if ok {
		if ETagMatches(ifNoneMatch, hdr.ETag) {
			c.recorder.IncCacheLookup(collection, metrics.CacheNotModified)
			return &Response{Status: StatusNotModified, ContentType: hdr.ContentType, ETag: hdr.ETag, FromCache: true}, nil
		}
		body, found, err := c.backend.GetContent(ctx, key)
		if err != nil {
			slog.Warn("Cache content lookup failed", logfields.Key(key), logfields.Error(err))
			found = false
		}
		if found {
			c.recorder.IncCacheLookup(collection, metrics.CacheHit)
			return &Response{Status: StatusOK, ContentType: hdr.ContentType, ETag: hdr.ETag, Body: body, FromCache: true}, nil
		}
	}

	obj, err := c.store.Get(ctx, key)
	if err != nil {
		if storage.IsNotFound(err) {
			c.recorder.IncCacheLookup(collection, metrics.CacheNotFound)
			return nil, ErrNotFound
		}
		return nil, ferrors.StorageReadFailure(key, err)
	}
	c.recorder.IncCacheLookup(collection, metrics.CacheMiss)

	ttl := c.TTL(collection)
	if err := c.backend.SetHeaders(ctx, key, Headers{ContentType: obj.ContentType, ETag: obj.ETag}, ttl); err != nil {
		slog.Warn("Cache header store failed", logfields.Key(key), logfields.Error(err))
	}
	if err := c.backend.SetContent(ctx, key, obj.Body, ttl); err != nil {
		slog.Warn("Cache content store failed", logfields.Key(key), logfields.Error(err))
	}

	if ETagMatches(ifNoneMatch, obj.ETag) {
		return &Response{Status: StatusNotModified, ContentType: obj.ContentType, ETag: obj.ETag}, nil
	}
	return &Response{Status: StatusOK, ContentType: obj.ContentType, ETag: obj.ETag, Body: obj.Body}, nil
}

// Evict drops both tiers of one artifact.
func (c *ArtifactCache) Evict(ctx context.Context, collection, resource string) error {
	return c.backend.Delete(ctx, storage.Key(collection, resource))
}

// ETagMatches reports whether an If-None-Match header value names etag.
// The header may list several tags; weak tags compare by their opaque value.
func ETagMatches(ifNoneMatch, etag string) bool {
	ifNoneMatch = strings.TrimSpace(ifNoneMatch)
	if ifNoneMatch == "" || etag == "" {
		return false
	}
	if ifNoneMatch == etag {
		return true
	}
	want := strings.TrimPrefix(etag, "W/")
	for _, tag := range strings.Split(ifNoneMatch, ",") {
		tag = strings.TrimSpace(tag)
		if tag == "*" || strings.TrimPrefix(tag, "W/") == want {
			return true
		}
	}
	return false
}
