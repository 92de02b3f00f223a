package notify

import (
	"context"
	"log/slog"

	"git.home.luguber.info/inful/folio/internal/logfields"
)

// Evicter drops cached copies of an artifact.
type Evicter interface {
	Evict(ctx context.Context, collection, resource string) error
}

// EvictHandler returns an event handler that evicts every key named by an
// event. Eviction errors are logged; TTL expiry still bounds staleness.
func EvictHandler(ctx context.Context, cache Evicter) func(Event) {
	return func(ev Event) {
		for _, key := range ev.Keys {
			if err := cache.Evict(ctx, ev.Collection, key); err != nil {
				slog.Warn("Cache eviction failed",
					logfields.Collection(ev.Collection), logfields.Resource(key), logfields.Error(err))
			}
		}
	}
}
