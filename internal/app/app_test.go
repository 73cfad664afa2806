package app

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/JakeFAU/unvotes-crawler/internal/config"
	"github.com/JakeFAU/unvotes-crawler/internal/crawler"
	"github.com/JakeFAU/unvotes-crawler/internal/store"
)

func testConfig(t *testing.T, baseURL string) config.Config {
	t.Helper()
	return config.Config{
		Crawler: config.CrawlerConfig{
			Concurrency:    2,
			BaseURL:        baseURL,
			UserAgent:      "unvotes-test",
			TimeoutSeconds: 5,
		},
		Cache: config.CacheConfig{
			Backend: config.CacheBackendDisk,
			Dir:     t.TempDir(),
		},
		PubSub: config.PubSubConfig{TopicName: "unvotes-batches"},
	}
}

func TestBuildWithoutReaderUsesMemoryStore(t *testing.T) {
	t.Parallel()
	ctx := context.Background()

	a, err := Build(ctx, testConfig(t, ""), zap.NewNop(), WithoutReader())
	require.NoError(t, err)
	t.Cleanup(func() { a.Close(ctx) })

	assert.Nil(t, a.Reader())
	created, err := a.Countries().AddAlias(ctx, "Türkiye", "Turkey")
	require.NoError(t, err)
	assert.True(t, created)

	alias, err := a.Repositories().Aliases.FindByAlias(ctx, "turkey")
	require.NoError(t, err)
	assert.Equal(t, "turkiye", alias.Slug)

	_, err = a.Import(ctx, nil)
	require.Error(t, err)
	assert.Empty(t, a.Report().Years)
	require.NoError(t, a.Serve(ctx))
}

func TestImportFailsWhenGatewayUnreachable(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		http.Error(w, "down", http.StatusServiceUnavailable)
	}))
	t.Cleanup(srv.Close)

	a, err := Build(ctx, testConfig(t, srv.URL), zap.NewNop(), WithRegisterer(prometheus.NewRegistry()))
	require.NoError(t, err)
	t.Cleanup(func() { a.Close(ctx) })
	require.NotNil(t, a.Reader())
	assert.Equal(t, srv.URL, a.Reader().Root())

	report, err := a.Import(ctx, []int{2023})
	require.Error(t, err)
	assert.NotEmpty(t, report.RunID)
	assert.Empty(t, report.Years)
	assert.Equal(t, report.RunID, a.Report().RunID)
}

func TestPlanYearsSkipsStoredYears(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	now := time.Date(2024, 5, 1, 0, 0, 0, 0, time.UTC)

	a, err := Build(ctx, testConfig(t, ""), nil, WithoutReader(), WithClock(func() time.Time { return now }))
	require.NoError(t, err)
	t.Cleanup(func() { a.Close(ctx) })

	for _, r := range []*store.Resolution{
		{Symbol: "A/RES/78/165", Year: 2023},
		{Symbol: "A/RES/78/L.1", Year: 2024},
	} {
		require.NoError(t, a.Repositories().Resolutions.Save(ctx, r))
	}

	years, err := a.planYears(ctx, crawler.Gateway{Years: []int{2024, 2023, 2022}})
	require.NoError(t, err)
	assert.Equal(t, []int{2022, 2024}, years)
}
