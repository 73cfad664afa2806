package gcs

import (
	"bytes"
	"context"
	"errors"
	"io"
	"sync"
	"testing"

	"cloud.google.com/go/storage"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeObjects struct {
	mu       sync.Mutex
	data     map[string][]byte
	failRead error
}

func newFakeObjects() *fakeObjects {
	return &fakeObjects{data: map[string][]byte{}}
}

func (f *fakeObjects) NewReader(_ context.Context, name string) (io.ReadCloser, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.failRead != nil {
		return nil, f.failRead
	}
	d, ok := f.data[name]
	if !ok {
		return nil, storage.ErrObjectNotExist
	}
	return io.NopCloser(bytes.NewReader(d)), nil
}

func (f *fakeObjects) NewWriter(_ context.Context, name string) io.WriteCloser {
	return &fakeWriter{parent: f, name: name}
}

type fakeWriter struct {
	parent *fakeObjects
	name   string
	buf    bytes.Buffer
}

func (w *fakeWriter) Write(p []byte) (int, error) {
	return w.buf.Write(p)
}

func (w *fakeWriter) Close() error {
	w.parent.mu.Lock()
	defer w.parent.mu.Unlock()
	w.parent.data[w.name] = w.buf.Bytes()
	return nil
}

func TestCacheRoundTripUsesPrefix(t *testing.T) {
	t.Parallel()

	objs := newFakeObjects()
	cache := newCache(objs, "/pages/")
	ctx := context.Background()

	_, ok, err := cache.Load(ctx, "digitallibraryunorgrecord1")
	require.NoError(t, err)
	assert.False(t, ok)

	require.NoError(t, cache.Store(ctx, "digitallibraryunorgrecord1", []byte("<html/>")))
	assert.Contains(t, objs.data, "pages/digitallibraryunorgrecord1")

	data, ok, err := cache.Load(ctx, "digitallibraryunorgrecord1")
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, "<html/>", string(data))
}

func TestCacheSurfacesReadErrors(t *testing.T) {
	t.Parallel()

	objs := newFakeObjects()
	objs.failRead = errors.New("permission denied")
	_, _, err := newCache(objs, "").Load(context.Background(), "key")
	require.ErrorContains(t, err, "permission denied")
}

func TestCacheRejectsBadKeys(t *testing.T) {
	t.Parallel()

	cache := newCache(newFakeObjects(), "")
	require.Error(t, cache.Store(context.Background(), "a/b", nil))
	_, _, err := cache.Load(context.Background(), " ")
	require.Error(t, err)
}

func TestNewValidatesConfig(t *testing.T) {
	t.Parallel()

	_, err := New(nil, Config{Bucket: "b"})
	require.Error(t, err)
	_, err = New(&storage.Client{}, Config{})
	require.Error(t, err)
}
