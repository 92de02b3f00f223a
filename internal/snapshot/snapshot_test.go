package snapshot

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	ferrors "git.home.luguber.info/inful/folio/internal/errors"
	"git.home.luguber.info/inful/folio/internal/model"
	"git.home.luguber.info/inful/folio/internal/storage"
)

type brokenStore struct{ storage.ArtifactStore }

func (brokenStore) Get(context.Context, string) (*storage.Object, error) {
	return nil, errors.New("connection reset")
}

func TestLoadAbsentIsNotAnError(t *testing.T) {
	store := NewStore(storage.NewMemoryStore())

	got, err := store.Load(context.Background(), "live")
	require.NoError(t, err)
	assert.False(t, got.Found)
	assert.Empty(t, got.Snapshot)
}

func TestLoadTransientFailure(t *testing.T) {
	store := NewStore(brokenStore{storage.NewMemoryStore()})

	_, err := store.Load(context.Background(), "live")
	require.Error(t, err)
	assert.True(t, ferrors.IsCategory(err, ferrors.CategoryStorage))
	assert.True(t, ferrors.IsRetryable(err))
}

func TestSaveThenLoad(t *testing.T) {
	objects := storage.NewMemoryStore()
	store := NewStore(objects)
	ctx := context.Background()

	snap := model.Snapshot{
		{Path: "/Live", IsDir: true, ModifiedAt: time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)},
		{Path: "/Live/hello.md", ModifiedAt: time.Date(2024, 2, 3, 4, 5, 6, 0, time.UTC)},
	}
	require.NoError(t, store.Save(ctx, "live", snap))

	raw, err := objects.Get(ctx, "live")
	require.NoError(t, err)
	assert.JSONEq(t, `[
		{"path":"/Live","is_dir":true,"modified":"2024-01-01T00:00:00Z"},
		{"path":"/Live/hello.md","is_dir":false,"modified":"2024-02-03T04:05:06Z"}
	]`, string(raw.Body))

	got, err := store.Load(ctx, "live")
	require.NoError(t, err)
	assert.True(t, got.Found)
	assert.Equal(t, snap, got.Snapshot)
}

func TestSaveNilStoresEmptyArray(t *testing.T) {
	objects := storage.NewMemoryStore()
	store := NewStore(objects)

	require.NoError(t, store.Save(context.Background(), "draft", nil))
	raw, err := objects.Get(context.Background(), "draft")
	require.NoError(t, err)
	assert.Equal(t, "[]", string(raw.Body))
}
