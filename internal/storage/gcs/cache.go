// Package gcs provides a page cache backed by Google Cloud Storage.
package gcs

import (
	"context"
	"errors"
	"fmt"
	"io"
	"path"
	"strings"

	"cloud.google.com/go/storage"
)

// Config captures the parameters required to connect to GCS.
type Config struct {
	Bucket string
	Prefix string
}

// objects is the slice of the bucket API the cache needs.
type objects interface {
	NewReader(ctx context.Context, name string) (io.ReadCloser, error)
	NewWriter(ctx context.Context, name string) io.WriteCloser
}

type bucketObjects struct {
	bucket *storage.BucketHandle
}

func (b bucketObjects) NewReader(ctx context.Context, name string) (io.ReadCloser, error) {
	r, err := b.bucket.Object(name).NewReader(ctx)
	if err != nil {
		return nil, fmt.Errorf("new reader: %w", err)
	}
	return r, nil
}

func (b bucketObjects) NewWriter(ctx context.Context, name string) io.WriteCloser {
	w := b.bucket.Object(name).NewWriter(ctx)
	w.ContentType = "text/html; charset=utf-8"
	return w
}

// Cache stores fetched pages as objects named prefix/key.
type Cache struct {
	objects objects
	prefix  string
}

// New creates a GCS-backed cache.
func New(client *storage.Client, cfg Config) (*Cache, error) {
	if client == nil {
		return nil, fmt.Errorf("storage client is required")
	}
	if cfg.Bucket == "" {
		return nil, fmt.Errorf("bucket name is required")
	}
	return newCache(bucketObjects{bucket: client.Bucket(cfg.Bucket)}, cfg.Prefix), nil
}

func newCache(o objects, prefix string) *Cache {
	return &Cache{objects: o, prefix: strings.Trim(prefix, "/")}
}

// Load downloads the object for key; a missing object is a miss.
func (c *Cache) Load(ctx context.Context, key string) ([]byte, bool, error) {
	name, err := c.objectName(key)
	if err != nil {
		return nil, false, err
	}
	r, err := c.objects.NewReader(ctx, name)
	if errors.Is(err, storage.ErrObjectNotExist) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("open object %s: %w", name, err)
	}
	defer func() { _ = r.Close() }()
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, false, fmt.Errorf("read object %s: %w", name, err)
	}
	return data, true, nil
}

// Store uploads data for key. GCS only publishes an object once the writer
// closes successfully, so a failed upload leaves no entry behind.
func (c *Cache) Store(ctx context.Context, key string, data []byte) error {
	name, err := c.objectName(key)
	if err != nil {
		return err
	}
	writer := c.objects.NewWriter(ctx, name)
	if _, err := writer.Write(data); err != nil {
		closeErr := writer.Close()
		if closeErr != nil {
			return fmt.Errorf("write object: %w (close writer: %v)", err, closeErr)
		}
		return fmt.Errorf("write object: %w", err)
	}
	if err := writer.Close(); err != nil {
		return fmt.Errorf("close writer: %w", err)
	}
	return nil
}

func (c *Cache) objectName(key string) (string, error) {
	if strings.TrimSpace(key) == "" || strings.Contains(key, "/") {
		return "", fmt.Errorf("invalid cache key %q", key)
	}
	if c.prefix == "" {
		return key, nil
	}
	return path.Join(c.prefix, key), nil
}
