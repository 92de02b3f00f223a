package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	ferrors "git.home.luguber.info/inful/folio/internal/errors"
)

func TestParseAppliesDefaults(t *testing.T) {
	cfg, err := Parse([]byte("remote:\n  root: ./content\n"))
	require.NoError(t, err)

	assert.Equal(t, "My blog", cfg.Site.BlogTitle)
	assert.Equal(t, 5*time.Second, cfg.Sync.Interval)
	assert.Equal(t, 5, cfg.Sync.PageSize)
	assert.Equal(t, 10, cfg.Sync.FeedSize)
	assert.Equal(t, 30*time.Second, cfg.Remote.FetchTimeout)
	assert.Equal(t, StorageFilesystem, cfg.Storage.Type)
	assert.Equal(t, filepath.Join(DefaultDataDir, "artifacts"), cfg.Storage.Root)
	assert.Equal(t, CacheMemory, cfg.Cache.Type)
	assert.Equal(t, ":8080", cfg.HTTP.Addr)

	require.Len(t, cfg.Collections, 2)
	draft, ok := cfg.Collection("draft")
	require.True(t, ok)
	assert.Equal(t, "/Draft", draft.Path)
	assert.Equal(t, 10*time.Second, draft.TTL)
	live, _ := cfg.Collection("live")
	assert.Equal(t, 60*time.Second, live.TTL)
}

func TestParseExpandsEnvironment(t *testing.T) {
	t.Setenv("FOLIO_TEST_BUCKET", "artifacts")
	cfg, err := Parse([]byte(`
remote:
  root: /srv/content
storage:
  type: s3
  bucket: ${FOLIO_TEST_BUCKET}
collections:
  - name: live
    path: /Live
    ttl: 2m
sync:
  interval: 1s
`))
	require.NoError(t, err)
	assert.Equal(t, "artifacts", cfg.Storage.Bucket)
	assert.Equal(t, time.Second, cfg.Sync.Interval)
	require.Len(t, cfg.Collections, 1)
	assert.Equal(t, 2*time.Minute, cfg.Collections[0].TTL)
}

func TestValidation(t *testing.T) {
	cases := map[string]string{
		"missing remote root": "remote:\n  type: filesystem\n",
		"unknown storage":     "remote:\n  root: x\nstorage:\n  type: ftp\n",
		"s3 without bucket":   "remote:\n  root: x\nstorage:\n  type: s3\n",
		"redis without addr":  "remote:\n  root: x\ncache:\n  type: redis\n",
		"bad collection name": "remote:\n  root: x\ncollections:\n  - name: Live/x\n    path: /Live\n",
		"duplicate":           "remote:\n  root: x\ncollections:\n  - {name: a, path: /A}\n  - {name: a, path: /B}\n",
		"notify without url":  "remote:\n  root: x\nnotify:\n  enabled: true\n",
	}
	for name, doc := range cases {
		t.Run(name, func(t *testing.T) {
			_, err := Parse([]byte(doc))
			require.Error(t, err)
			assert.True(t, ferrors.IsCategory(err, ferrors.CategoryConfig) || ferrors.IsCategory(err, ferrors.CategoryValidation))
		})
	}
}

func TestLoadAndInit(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "folio.yaml")

	_, err := Load(path)
	require.Error(t, err)
	assert.True(t, ferrors.IsCategory(err, ferrors.CategoryConfig))

	require.NoError(t, Init(path, false))
	assert.Error(t, Init(path, false))
	require.NoError(t, Init(path, true))

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "./content", cfg.Remote.Root)
	assert.Len(t, cfg.Collections, 2)

	info, err := os.Stat(path)
	require.NoError(t, err)
	assert.NotZero(t, info.Size())
}
