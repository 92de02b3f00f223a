package remote

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMemoryProviderListIncludesDirectories(t *testing.T) {
	p := NewMemoryProvider()
	t1 := time.Date(2024, 5, 1, 0, 0, 0, 0, time.UTC)
	p.Set("/Live/a.md", []byte("a"), t1)
	p.Set("/Live/img/cat.png", []byte("png"), t1.Add(time.Hour))
	p.Set("/Draft/b.md", []byte("b"), t1)

	recs, err := p.List(context.Background(), "/Live")
	require.NoError(t, err)
	require.Len(t, recs, 3)
	assert.Equal(t, "/Live/a.md", recs[0].Path)
	assert.Equal(t, "/Live/img", recs[1].Path)
	assert.True(t, recs[1].IsDir)
	assert.Equal(t, "/Live/img/cat.png", recs[2].Path)
}

func TestMemoryProviderReadAndFailures(t *testing.T) {
	p := NewMemoryProvider()
	p.Set("Live/a.md", []byte("hello"), time.Now())

	data, err := p.Read(context.Background(), "/Live/a.md")
	require.NoError(t, err)
	assert.Equal(t, "hello", string(data))
	assert.Equal(t, 1, p.Reads("/Live/a.md"))

	boom := errors.New("boom")
	p.FailRead("/Live/a.md", boom)
	_, err = p.Read(context.Background(), "/Live/a.md")
	assert.ErrorIs(t, err, boom)

	p.FailList(boom)
	_, err = p.List(context.Background(), "/Live")
	assert.ErrorIs(t, err, boom)

	_, err = p.Read(context.Background(), "/Live/missing.md")
	assert.ErrorIs(t, err, os.ErrNotExist)
}

func TestMemoryProviderHonoursCanceledContext(t *testing.T) {
	p := NewMemoryProvider()
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := p.List(ctx, "/Live")
	assert.ErrorIs(t, err, context.Canceled)
}

func TestFSProviderListAndRead(t *testing.T) {
	root := t.TempDir()
	require.NoError(t, os.MkdirAll(filepath.Join(root, "Live", "img"), 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(root, "Live", "hello.md"), []byte("# hi"), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(root, "Live", "img", "cat.png"), []byte("png"), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(root, "Live", ".DS_Store"), []byte("x"), 0o644))

	p, err := NewFSProvider(root)
	require.NoError(t, err)

	recs, err := p.List(context.Background(), "/Live")
	require.NoError(t, err)
	var paths []string
	for _, r := range recs {
		paths = append(paths, r.Path)
	}
	assert.Equal(t, []string{"/Live/hello.md", "/Live/img", "/Live/img/cat.png"}, paths)

	data, err := p.Read(context.Background(), "/Live/hello.md")
	require.NoError(t, err)
	assert.Equal(t, "# hi", string(data))
}

func TestFSProviderRejectsEscape(t *testing.T) {
	p, err := NewFSProvider(t.TempDir())
	require.NoError(t, err)

	// Cleaning pins "/../" at the root, so this resolves inside it and is
	// simply missing.
	_, err = p.Read(context.Background(), "/../../etc/passwd")
	require.Error(t, err)
	assert.ErrorIs(t, err, os.ErrNotExist)
}

func TestFSProviderWatchSignalsChange(t *testing.T) {
	root := t.TempDir()
	p, err := NewFSProvider(root)
	require.NoError(t, err)
	p.debounce = 10 * time.Millisecond

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	changed := make(chan struct{}, 1)
	require.NoError(t, p.Watch(ctx, func() {
		select {
		case changed <- struct{}{}:
		default:
		}
	}))

	require.NoError(t, os.WriteFile(filepath.Join(root, "new.md"), []byte("x"), 0o644))
	select {
	case <-changed:
	case <-time.After(5 * time.Second):
		t.Fatal("expected change notification")
	}
}
