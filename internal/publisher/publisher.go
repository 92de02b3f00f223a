// Package publisher writes generated artifacts and snapshots to durable
// storage and removes artifacts whose sources are gone.
package publisher

import (
	"context"
	"errors"
	"log/slog"

	ferrors "git.home.luguber.info/inful/folio/internal/errors"
	"git.home.luguber.info/inful/folio/internal/logfields"
	"git.home.luguber.info/inful/folio/internal/metrics"
	"git.home.luguber.info/inful/folio/internal/model"
	"git.home.luguber.info/inful/folio/internal/notify"
	"git.home.luguber.info/inful/folio/internal/snapshot"
	"git.home.luguber.info/inful/folio/internal/storage"
)

// MirrorRemover drops mirrored source files.
type MirrorRemover interface {
	Remove(basename string) error
}

// Publisher is the only writer of artifacts and snapshots.
type Publisher struct {
	store     storage.ArtifactStore
	snapshots *snapshot.Store
	notifier  notify.Publisher
	recorder  metrics.Recorder
}

// Option configures a Publisher.
type Option func(*Publisher)

// WithNotifier emits change events after successful writes and deletes.
func WithNotifier(n notify.Publisher) Option {
	return func(p *Publisher) {
		if n != nil {
			p.notifier = n
		}
	}
}

// WithRecorder sets the metrics recorder.
func WithRecorder(r metrics.Recorder) Option {
	return func(p *Publisher) {
		if r != nil {
			p.recorder = r
		}
	}
}

// New creates a Publisher over store.
func New(store storage.ArtifactStore, opts ...Option) *Publisher {
	p := &Publisher{
		store:     store,
		snapshots: snapshot.NewStore(store),
		notifier:  notify.NoopPublisher{},
		recorder:  metrics.NoopRecorder{},
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// Snapshots exposes the snapshot store sharing this publisher's storage.
func (p *Publisher) Snapshots() *snapshot.Store { return p.snapshots }

// Publish writes every artifact under "<collection>/<key>". Every artifact is
// attempted; failed writes are logged and returned joined.
func (p *Publisher) Publish(ctx context.Context, collection string, artifacts []model.Artifact) error {
	var errs []error
	written := make([]string, 0, len(artifacts))
	for _, a := range artifacts {
		key := storage.Key(collection, a.Key)
		if err := p.store.Put(ctx, key, a.Body, a.ContentType); err != nil {
			werr := ferrors.StorageWriteFailure(key, err)
			slog.Error("Artifact write failed", logfields.Collection(collection), logfields.Key(key), logfields.Error(err))
			errs = append(errs, werr)
			continue
		}
		written = append(written, a.Key)
	}
	p.recorder.AddArtifactsWritten(collection, len(written))
	p.notify(ctx, collection, notify.KindPublished, written)
	return errors.Join(errs...)
}

// Retract deletes the artifacts derived from removed source files and drops
// their mirror entries. Keys for which keep reports true stay in storage; a
// nil keep deletes every derived key. Missing artifacts are not errors.
func (p *Publisher) Retract(ctx context.Context, collection string, removed []model.FileRecord, mirror MirrorRemover, keep func(key string) bool) error {
	keys := make([]string, 0, len(removed))
	for _, f := range removed {
		key := model.ArtifactKey(f)
		if keep != nil && keep(key) {
			continue
		}
		keys = append(keys, key)
	}
	err := p.RetractKeys(ctx, collection, keys)

	if mirror != nil {
		for _, f := range removed {
			if rerr := mirror.Remove(f.Basename()); rerr != nil {
				slog.Warn("Mirror cleanup failed", logfields.Collection(collection), logfields.File(f.Basename()), logfields.Error(rerr))
			}
		}
	}
	return err
}

// RetractKeys deletes artifacts by key, e.g. listing pages that no longer exist.
func (p *Publisher) RetractKeys(ctx context.Context, collection string, keys []string) error {
	var errs []error
	deleted := make([]string, 0, len(keys))
	for _, k := range keys {
		key := storage.Key(collection, k)
		if err := p.store.Delete(ctx, key); err != nil && !storage.IsNotFound(err) {
			slog.Error("Artifact delete failed", logfields.Collection(collection), logfields.Key(key), logfields.Error(err))
			errs = append(errs, ferrors.StorageWriteFailure(key, err))
			continue
		}
		deleted = append(deleted, k)
	}
	p.recorder.AddArtifactsDeleted(collection, len(deleted))
	p.notify(ctx, collection, notify.KindRetracted, deleted)
	return errors.Join(errs...)
}

// Commit persists the snapshot of a collection.
func (p *Publisher) Commit(ctx context.Context, collection string, snap model.Snapshot) error {
	return p.snapshots.Save(ctx, collection, snap)
}

func (p *Publisher) notify(ctx context.Context, collection string, kind notify.Kind, keys []string) {
	if len(keys) == 0 {
		return
	}
	if err := p.notifier.Publish(ctx, notify.Event{Collection: collection, Kind: kind, Keys: keys}); err != nil {
		slog.Warn("Change notification failed", logfields.Collection(collection), logfields.Error(err))
	}
}
