// Package fetcher serves page content from a cache, falling back to a network
// source and remembering its successful responses.
package fetcher

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/JakeFAU/unvotes-crawler/internal/crawler"
	"github.com/JakeFAU/unvotes-crawler/internal/logging"
	"github.com/JakeFAU/unvotes-crawler/internal/metrics"
)

// maxKeyLen keeps cache file names inside common filesystem limits.
const maxKeyLen = 200

// CachingFetcher implements crawler.Fetcher over a cache and a network source.
type CachingFetcher struct {
	source crawler.Fetcher
	cache  crawler.Cache
	logger *zap.Logger
}

// New wires a CachingFetcher.
func New(source crawler.Fetcher, cache crawler.Cache, logger *zap.Logger) (*CachingFetcher, error) {
	if source == nil {
		return nil, fmt.Errorf("network source is required")
	}
	if cache == nil {
		return nil, fmt.Errorf("cache is required")
	}
	return &CachingFetcher{
		source: source,
		cache:  cache,
		logger: logging.OrNop(logger),
	}, nil
}

// Fetch returns the cached copy of url when one exists; otherwise it fetches
// from the network and caches the body. Failed fetches are never cached.
func (f *CachingFetcher) Fetch(ctx context.Context, url string) ([]byte, error) {
	key := CacheKey(url)
	data, ok, err := f.cache.Load(ctx, key)
	if err != nil {
		return nil, fmt.Errorf("load cache entry %s: %w", key, err)
	}
	if ok {
		metrics.ObserveFetch(metrics.SourceCache, "hit", len(data))
		f.logger.Debug("cache hit", zap.String("url", url))
		return data, nil
	}

	start := time.Now()
	data, err = f.source.Fetch(ctx, url)
	metrics.ObserveNetworkDuration(time.Since(start))
	if err != nil {
		metrics.ObserveFetch(metrics.SourceNetwork, "error", 0)
		return nil, asFetchFailure(ctx, url, err)
	}
	metrics.ObserveFetch(metrics.SourceNetwork, "ok", len(data))

	if err := f.cache.Store(ctx, key, data); err != nil {
		return nil, fmt.Errorf("store cache entry %s: %w", key, err)
	}
	f.logger.Debug("fetched",
		zap.String("url", url),
		zap.Int("bytes", len(data)),
		zap.Duration("duration", time.Since(start)),
	)
	return data, nil
}

func asFetchFailure(ctx context.Context, url string, err error) error {
	var failure crawler.FetchFailure
	if errors.As(err, &failure) {
		return err
	}
	if ctx.Err() != nil {
		return err
	}
	return crawler.FetchFailure{URL: url, Err: err}
}

// CacheKey normalizes url into a cache key: the scheme is dropped and every
// character that is not an ASCII letter or digit is removed. Keys longer than
// maxKeyLen are truncated and suffixed with a digest of the full key.
func CacheKey(url string) string {
	if i := strings.Index(url, "://"); i >= 0 {
		url = url[i+3:]
	}
	var b strings.Builder
	b.Grow(len(url))
	for i := 0; i < len(url); i++ {
		c := url[i]
		if ('a' <= c && c <= 'z') || ('A' <= c && c <= 'Z') || ('0' <= c && c <= '9') {
			b.WriteByte(c)
		}
	}
	key := b.String()
	if len(key) <= maxKeyLen {
		return key
	}
	sum := sha256.Sum256([]byte(key))
	digest := hex.EncodeToString(sum[:])[:16]
	return key[:maxKeyLen-len(digest)] + digest
}
