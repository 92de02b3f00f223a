package storage

import (
	"context"
	"os"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFSStorePutAndGet(t *testing.T) {
	store, err := NewFSStore(t.TempDir())
	require.NoError(t, err)
	defer store.Close()

	ctx := context.Background()
	body := []byte("<html>hello</html>")
	require.NoError(t, store.Put(ctx, "live/hello", body, "text/html"))

	// Verify object file exists
	_, err = os.Stat(store.objectPath("live/hello"))
	require.NoError(t, err)

	obj, err := store.Get(ctx, "live/hello")
	require.NoError(t, err)
	assert.Equal(t, body, obj.Body)
	assert.Equal(t, "text/html", obj.ContentType)
	assert.Equal(t, ComputeETag(body), obj.ETag)
	assert.Equal(t, "live/hello", obj.Key)
}

func TestFSStoreOverwriteChangesETag(t *testing.T) {
	store, err := NewFSStore(t.TempDir())
	require.NoError(t, err)
	ctx := context.Background()

	require.NoError(t, store.Put(ctx, "live/index", []byte("v1"), "text/html"))
	first, err := store.Get(ctx, "live/index")
	require.NoError(t, err)

	require.NoError(t, store.Put(ctx, "live/index", []byte("v2"), "text/html"))
	second, err := store.Get(ctx, "live/index")
	require.NoError(t, err)

	assert.NotEqual(t, first.ETag, second.ETag)
	assert.Equal(t, []byte("v2"), second.Body)
}

func TestFSStoreGetMissing(t *testing.T) {
	store, err := NewFSStore(t.TempDir())
	require.NoError(t, err)

	_, err = store.Get(context.Background(), "live/nope")
	require.Error(t, err)
	assert.True(t, IsNotFound(err))
}

func TestFSStoreDeleteIsIdempotent(t *testing.T) {
	store, err := NewFSStore(t.TempDir())
	require.NoError(t, err)
	ctx := context.Background()

	require.NoError(t, store.Put(ctx, "draft/a.css", []byte("body{}"), "text/css"))
	require.NoError(t, store.Delete(ctx, "draft/a.css"))
	require.NoError(t, store.Delete(ctx, "draft/a.css"))

	_, err = store.Get(ctx, "draft/a.css")
	assert.True(t, IsNotFound(err))
}

func TestFSStoreSnapshotKeyNextToArtifacts(t *testing.T) {
	store, err := NewFSStore(t.TempDir())
	require.NoError(t, err)
	ctx := context.Background()

	// The bare collection key and "<collection>/..." keys must coexist.
	require.NoError(t, store.Put(ctx, "live/index", []byte("x"), "text/html"))
	require.NoError(t, store.Put(ctx, "live", []byte("[]"), "application/json"))

	obj, err := store.Get(ctx, "live")
	require.NoError(t, err)
	assert.Equal(t, "[]", string(obj.Body))
}

func TestFSStoreRejectsEscapingKeys(t *testing.T) {
	store, err := NewFSStore(t.TempDir())
	require.NoError(t, err)
	ctx := context.Background()

	for _, key := range []string{"", "/abs", "../x", "live/../../x", "live//x"} {
		assert.Error(t, store.Put(ctx, key, []byte("x"), "text/plain"), key)
	}
}
