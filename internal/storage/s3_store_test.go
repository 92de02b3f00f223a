package storage

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type s3Object struct {
	body        []byte
	contentType string
	etag        string
}

// s3Stub serves the path-style subset of the S3 REST API the store uses.
type s3Stub struct {
	mu       sync.Mutex
	objects  map[string]s3Object
	denied   map[string]bool
	requests []string
}

func newS3Stub(t *testing.T) (*s3Stub, *httptest.Server) {
	t.Helper()
	stub := &s3Stub{objects: make(map[string]s3Object), denied: make(map[string]bool)}
	srv := httptest.NewServer(stub)
	t.Cleanup(srv.Close)
	return stub, srv
}

func (s *s3Stub) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.requests = append(s.requests, r.Method+" "+r.URL.Path)

	if s.denied[r.URL.Path] {
		writeS3Error(w, http.StatusForbidden, "AccessDenied", "Access Denied")
		return
	}

	switch r.Method {
	case http.MethodPut:
		body, err := io.ReadAll(r.Body)
		if err != nil {
			writeS3Error(w, http.StatusBadRequest, "IncompleteBody", err.Error())
			return
		}
		etag := fmt.Sprintf(`"etag-%d"`, len(s.objects)+1)
		s.objects[r.URL.Path] = s3Object{body: body, contentType: r.Header.Get("Content-Type"), etag: etag}
		w.Header().Set("ETag", etag)
		w.WriteHeader(http.StatusOK)
	case http.MethodGet:
		obj, ok := s.objects[r.URL.Path]
		if !ok {
			writeS3Error(w, http.StatusNotFound, "NoSuchKey", "The specified key does not exist.")
			return
		}
		w.Header().Set("Content-Type", obj.contentType)
		if obj.etag != "" {
			w.Header().Set("ETag", obj.etag)
		}
		w.Header().Set("Last-Modified", time.Date(2024, 6, 1, 9, 0, 0, 0, time.UTC).Format(http.TimeFormat))
		w.Header().Set("Content-Length", fmt.Sprint(len(obj.body)))
		_, _ = w.Write(obj.body)
	case http.MethodDelete:
		delete(s.objects, r.URL.Path)
		w.WriteHeader(http.StatusNoContent)
	default:
		writeS3Error(w, http.StatusMethodNotAllowed, "MethodNotAllowed", r.Method)
	}
}

func (s *s3Stub) object(path string) (s3Object, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	obj, ok := s.objects[path]
	return obj, ok
}

func writeS3Error(w http.ResponseWriter, status int, code, message string) {
	w.Header().Set("Content-Type", "application/xml")
	w.WriteHeader(status)
	_, _ = fmt.Fprintf(w, `<?xml version="1.0" encoding="UTF-8"?><Error><Code>%s</Code><Message>%s</Message><RequestId>stub</RequestId></Error>`, code, message)
}

func newTestS3Store(t *testing.T, endpoint, prefix string) *S3Store {
	t.Helper()
	dir := t.TempDir()
	t.Setenv("AWS_CONFIG_FILE", filepath.Join(dir, "config"))
	t.Setenv("AWS_SHARED_CREDENTIALS_FILE", filepath.Join(dir, "credentials"))
	t.Setenv("AWS_EC2_METADATA_DISABLED", "true")

	store, err := NewS3Store(context.Background(), S3Config{
		Endpoint:  endpoint,
		Bucket:    "site",
		AccessKey: "test",
		SecretKey: "test",
		Prefix:    prefix,
	})
	require.NoError(t, err)
	return store
}

func TestS3StoreRequiresBucket(t *testing.T) {
	_, err := NewS3Store(context.Background(), S3Config{Endpoint: "http://localhost"})
	assert.Error(t, err)
}

func TestS3StoreRoundTrip(t *testing.T) {
	ctx := context.Background()
	stub, srv := newS3Stub(t)
	store := newTestS3Store(t, srv.URL, "")

	require.NoError(t, store.Put(ctx, "live/hello", []byte("<p>hi</p>"), "text/html; charset=utf-8"))

	stored, ok := stub.object("/site/live/hello")
	require.True(t, ok)
	assert.Equal(t, "<p>hi</p>", string(stored.body))
	assert.Equal(t, "text/html; charset=utf-8", stored.contentType)

	obj, err := store.Get(ctx, "live/hello")
	require.NoError(t, err)
	assert.Equal(t, "live/hello", obj.Key)
	assert.Equal(t, []byte("<p>hi</p>"), obj.Body)
	assert.Equal(t, "text/html; charset=utf-8", obj.ContentType)
	assert.Equal(t, stored.etag, obj.ETag)
	assert.Equal(t, time.Date(2024, 6, 1, 9, 0, 0, 0, time.UTC), obj.ModifiedAt)
}

func TestS3StoreMissingKeyIsNotFound(t *testing.T) {
	_, srv := newS3Stub(t)
	store := newTestS3Store(t, srv.URL, "")

	_, err := store.Get(context.Background(), "live/missing")
	require.Error(t, err)
	assert.True(t, IsNotFound(err))
	assert.Equal(t, ErrNotFound{Key: "live/missing"}, err)
}

func TestS3StoreOtherErrorsAreNotNotFound(t *testing.T) {
	stub, srv := newS3Stub(t)
	stub.denied["/site/live/secret"] = true
	store := newTestS3Store(t, srv.URL, "")

	_, err := store.Get(context.Background(), "live/secret")
	require.Error(t, err)
	assert.False(t, IsNotFound(err))
	assert.Contains(t, err.Error(), "get object live/secret")
}

func TestS3StoreDelete(t *testing.T) {
	ctx := context.Background()
	stub, srv := newS3Stub(t)
	store := newTestS3Store(t, srv.URL, "")
	require.NoError(t, store.Put(ctx, "live/hello", []byte("hi"), "text/plain"))

	require.NoError(t, store.Delete(ctx, "live/hello"))
	_, ok := stub.object("/site/live/hello")
	assert.False(t, ok)

	_, err := store.Get(ctx, "live/hello")
	assert.True(t, IsNotFound(err))

	require.NoError(t, store.Delete(ctx, "live/never-existed"))
}

func TestS3StorePrefixesKeys(t *testing.T) {
	ctx := context.Background()
	stub, srv := newS3Stub(t)
	store := newTestS3Store(t, srv.URL, "/blog/")

	require.NoError(t, store.Put(ctx, "draft/wip", []byte("wip"), "text/plain"))
	_, ok := stub.object("/site/blog/draft/wip")
	assert.True(t, ok)

	obj, err := store.Get(ctx, "draft/wip")
	require.NoError(t, err)
	assert.Equal(t, "draft/wip", obj.Key)
}

func TestS3StoreFallsBackToComputedETag(t *testing.T) {
	stub, srv := newS3Stub(t)
	stub.objects["/site/live/bare"] = s3Object{body: []byte("bare"), contentType: "text/plain"}
	store := newTestS3Store(t, srv.URL, "")

	obj, err := store.Get(context.Background(), "live/bare")
	require.NoError(t, err)
	assert.Equal(t, ComputeETag([]byte("bare")), obj.ETag)
}

func TestS3StoreRejectsInvalidKeys(t *testing.T) {
	stub, srv := newS3Stub(t)
	store := newTestS3Store(t, srv.URL, "")

	err := store.Put(context.Background(), "../escape", []byte("x"), "text/plain")
	require.Error(t, err)

	stub.mu.Lock()
	defer stub.mu.Unlock()
	for _, req := range stub.requests {
		assert.False(t, strings.HasPrefix(req, http.MethodPut), "unexpected request %s", req)
	}
}
