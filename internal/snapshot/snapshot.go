// Package snapshot persists the last-known listing of each collection so the
// next sync pass can diff without a full remote re-read.
package snapshot

import (
	"context"
	"encoding/json"
	"fmt"

	ferrors "git.home.luguber.info/inful/folio/internal/errors"
	"git.home.luguber.info/inful/folio/internal/model"
	"git.home.luguber.info/inful/folio/internal/storage"
)

const contentTypeJSON = "application/json"

// Lookup is the result of loading a snapshot. Found is false when the
// collection has never been synced; that is a valid steady state, unlike a
// transient storage failure which is reported as an error.
type Lookup struct {
	Snapshot model.Snapshot
	Found    bool
}

// Store reads and writes snapshots as JSON arrays under the bare collection
// key of an artifact store.
type Store struct {
	objects storage.ArtifactStore
}

// NewStore wraps an artifact store.
func NewStore(objects storage.ArtifactStore) *Store {
	return &Store{objects: objects}
}

// Load fetches the persisted snapshot for collection.
func (s *Store) Load(ctx context.Context, collection string) (Lookup, error) {
	obj, err := s.objects.Get(ctx, collection)
	if err != nil {
		if storage.IsNotFound(err) {
			return Lookup{Snapshot: model.Snapshot{}}, nil
		}
		return Lookup{}, ferrors.StorageReadFailure(collection, err)
	}

	var snap model.Snapshot
	if err := json.Unmarshal(obj.Body, &snap); err != nil {
		return Lookup{}, ferrors.Wrap(err, ferrors.CategoryStorage, ferrors.SeverityError, "decode snapshot").
			WithContext("collection", collection)
	}
	if snap == nil {
		snap = model.Snapshot{}
	}
	return Lookup{Snapshot: snap, Found: true}, nil
}

// Save replaces the persisted snapshot for collection.
func (s *Store) Save(ctx context.Context, collection string, snap model.Snapshot) error {
	if snap == nil {
		snap = model.Snapshot{}
	}
	data, err := json.Marshal(snap)
	if err != nil {
		return fmt.Errorf("encode snapshot: %w", err)
	}
	if err := s.objects.Put(ctx, collection, data, contentTypeJSON); err != nil {
		return ferrors.StorageWriteFailure(collection, err)
	}
	return nil
}
