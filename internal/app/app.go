// Package app builds the long-lived services of the importer from
// configuration and runs imports over them.
package app

import (
	"context"
	"errors"
	"fmt"
	"sync/atomic"
	"time"

	pubsub "cloud.google.com/go/pubsub/v2"
	"cloud.google.com/go/storage"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/prometheus/client_golang/prometheus"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.uber.org/zap"

	"github.com/JakeFAU/unvotes-crawler/internal/api"
	"github.com/JakeFAU/unvotes-crawler/internal/config"
	"github.com/JakeFAU/unvotes-crawler/internal/crawler"
	"github.com/JakeFAU/unvotes-crawler/internal/fetcher"
	collyfetcher "github.com/JakeFAU/unvotes-crawler/internal/fetcher/colly"
	"github.com/JakeFAU/unvotes-crawler/internal/id/uuid"
	"github.com/JakeFAU/unvotes-crawler/internal/importer"
	"github.com/JakeFAU/unvotes-crawler/internal/logging"
	"github.com/JakeFAU/unvotes-crawler/internal/metrics"
	"github.com/JakeFAU/unvotes-crawler/internal/policy/ratelimit"
	"github.com/JakeFAU/unvotes-crawler/internal/progress"
	progresssinks "github.com/JakeFAU/unvotes-crawler/internal/progress/sinks"
	memorypublisher "github.com/JakeFAU/unvotes-crawler/internal/publisher/memory"
	gcppublisher "github.com/JakeFAU/unvotes-crawler/internal/publisher/pubsub"
	"github.com/JakeFAU/unvotes-crawler/internal/reader"
	"github.com/JakeFAU/unvotes-crawler/internal/resolver"
	"github.com/JakeFAU/unvotes-crawler/internal/scheduler"
	gcscache "github.com/JakeFAU/unvotes-crawler/internal/storage/gcs"
	localcache "github.com/JakeFAU/unvotes-crawler/internal/storage/local"
	memorystore "github.com/JakeFAU/unvotes-crawler/internal/storage/memory"
	pgstore "github.com/JakeFAU/unvotes-crawler/internal/storage/postgres"
	"github.com/JakeFAU/unvotes-crawler/internal/store"
	"github.com/JakeFAU/unvotes-crawler/internal/telemetry"
)

// App contains the application's dependencies.
type App struct {
	cfg    config.Config
	logger *zap.Logger

	repos     store.Repositories
	pool      *pgxpool.Pool
	reader    *reader.Reader
	publisher crawler.Publisher
	ids       uuid.Generator
	now       func() time.Time

	offline    bool
	registerer prometheus.Registerer

	hub     *progress.Hub
	tracker *progresssinks.TrackerSink
	emitter atomic.Pointer[importer.Emitter]

	tracer          *sdktrace.TracerProvider
	gcsClient       *storage.Client
	pubsubClient    *pubsub.Client
	pubsubPublisher *pubsub.Publisher
}

// Option customizes Build.
type Option func(*App)

// WithoutReader skips the cache, fetcher, publisher and progress hub, for
// commands that only touch the store.
func WithoutReader() Option {
	return func(a *App) { a.offline = true }
}

// WithRegisterer registers the run collectors against reg instead of the
// default registerer.
func WithRegisterer(reg prometheus.Registerer) Option {
	return func(a *App) { a.registerer = reg }
}

// WithClock overrides the clock used to plan years.
func WithClock(now func() time.Time) Option {
	return func(a *App) { a.now = now }
}

// WithRepositories uses repos instead of opening a store from config.
func WithRepositories(repos store.Repositories) Option {
	return func(a *App) { a.repos = repos }
}

// Build creates the application's dependencies.
func Build(ctx context.Context, cfg config.Config, logger *zap.Logger, opts ...Option) (*App, error) {
	a := &App{
		cfg:    cfg,
		logger: logging.OrNop(logger),
		ids:    uuid.New(),
		now:    time.Now,
	}
	for _, opt := range opts {
		opt(a)
	}
	metrics.Init()

	steps := []func(context.Context) error{a.setupTracing, a.setupRepositories}
	if !a.offline {
		steps = append(steps, a.setupReader, a.setupPublisher, a.setupProgress)
	}
	for _, step := range steps {
		if err := step(ctx); err != nil {
			a.Close(ctx)
			return nil, err
		}
	}
	return a, nil
}

func (a *App) setupTracing(ctx context.Context) error {
	tp, err := telemetry.InitTracerProvider(ctx, telemetry.ServiceName)
	if err != nil {
		return fmt.Errorf("tracing init failed: %w", err)
	}
	a.tracer = tp
	return nil
}

func (a *App) setupRepositories(ctx context.Context) error {
	if a.repos.Resolutions != nil {
		return nil
	}
	if a.cfg.DB.DSN == "" {
		a.logger.Warn("no database DSN configured, using in-memory store")
		a.repos = memorystore.NewRepositories()
		return nil
	}
	pool, err := pgstore.Open(ctx, pgstore.PoolConfig{
		DSN:             a.cfg.DB.DSN,
		MaxConns:        a.cfg.DB.MaxConns,
		MinConns:        a.cfg.DB.MinConns,
		MaxConnLifetime: a.cfg.ConnLifetime(),
	})
	if err != nil {
		return fmt.Errorf("database init failed: %w", err)
	}
	a.pool = pool
	if err := pgstore.Migrate(ctx, pool); err != nil {
		return fmt.Errorf("database migrate failed: %w", err)
	}
	a.repos = pgstore.New(pool)
	a.logger.Info("postgres store initialized", zap.Int32("max_conns", a.cfg.DB.MaxConns))
	return nil
}

func (a *App) setupReader(ctx context.Context) error {
	var cache crawler.Cache
	switch a.cfg.Cache.Backend {
	case config.CacheBackendGCS:
		client, err := storage.NewClient(ctx)
		if err != nil {
			return fmt.Errorf("gcs client init failed: %w", err)
		}
		a.gcsClient = client
		if cache, err = gcscache.New(client, gcscache.Config{Bucket: a.cfg.Cache.GCSBucket, Prefix: a.cfg.Cache.Prefix}); err != nil {
			return fmt.Errorf("gcs cache init failed: %w", err)
		}
		a.logger.Info("using GCS page cache", zap.String("bucket", a.cfg.Cache.GCSBucket))
	default:
		local, err := localcache.New(localcache.Config{BaseDir: a.cfg.Cache.Dir})
		if err != nil {
			return fmt.Errorf("disk cache init failed: %w", err)
		}
		cache = local
		a.logger.Info("using disk page cache", zap.String("dir", a.cfg.Cache.Dir))
	}

	source := collyfetcher.New(collyfetcher.Config{
		UserAgent: a.cfg.Crawler.UserAgent,
		Timeout:   a.cfg.RequestTimeout(),
	})
	limiter := ratelimit.New(ratelimit.Config{RPS: a.cfg.Crawler.RequestsPerSecond, Burst: a.cfg.Crawler.Burst})
	caching, err := fetcher.New(ratelimit.Wrap(source, limiter), cache, a.logger.Named("fetcher"))
	if err != nil {
		return fmt.Errorf("fetcher init failed: %w", err)
	}
	if a.reader, err = reader.New(caching, a.cfg.Crawler.BaseURL); err != nil {
		return fmt.Errorf("reader init failed: %w", err)
	}
	return nil
}

func (a *App) setupPublisher(ctx context.Context) error {
	if a.cfg.PubSub.ProjectID == "" || a.cfg.PubSub.TopicName == "" {
		a.logger.Info("no Pub/Sub project configured, keeping batch notifications in memory")
		a.publisher = memorypublisher.New()
		return nil
	}
	client, err := pubsub.NewClient(ctx, a.cfg.PubSub.ProjectID)
	if err != nil {
		return fmt.Errorf("pubsub client init failed: %w", err)
	}
	a.pubsubClient = client
	a.pubsubPublisher = client.Publisher(a.cfg.PubSub.TopicName)
	a.publisher = gcppublisher.New(a.pubsubPublisher)
	a.logger.Info("Pub/Sub publisher initialized",
		zap.String("project", a.cfg.PubSub.ProjectID),
		zap.String("topic", a.cfg.PubSub.TopicName),
	)
	return nil
}

func (a *App) setupProgress(ctx context.Context) error {
	a.tracker = progresssinks.NewTrackerSink()
	sinks := []progress.Sink{a.tracker, progresssinks.NewLogSink(a.logger.Named("progress"))}
	prom, err := progresssinks.NewPrometheusSink(a.registerer)
	if err != nil {
		return fmt.Errorf("progress metrics init failed: %w", err)
	}
	sinks = append(sinks, prom)
	a.hub = progress.NewHub(progress.Config{
		BaseContext: context.WithoutCancel(ctx),
		Logger:      a.logger.Named("progress_hub"),
	}, sinks...)
	return nil
}

// Repositories returns the configured store.
func (a *App) Repositories() store.Repositories {
	return a.repos
}

// Reader returns the page reader, or nil when built without one.
func (a *App) Reader() *reader.Reader {
	return a.reader
}

// Countries returns a country resolver over the configured store.
func (a *App) Countries() *resolver.Countries {
	return resolver.NewCountries(a.repos.Countries, a.repos.Aliases, a.logger.Named("resolver"))
}

// Import runs one crawl over years, or over the planned years when none are
// given, and returns the folded report.
func (a *App) Import(ctx context.Context, years []int) (importer.Report, error) {
	if a.reader == nil {
		return importer.Report{}, errors.New("app built without a reader")
	}
	runID, err := a.ids.NewRunID()
	if err != nil {
		return importer.Report{}, err
	}
	ctx, span := telemetry.Tracer().Start(ctx, "import")
	defer span.End()
	span.SetAttributes(attribute.String("run_id", runID.String()), attribute.IntSlice("years", years))

	logger := a.logger.With(zap.String("run_id", runID.String()))
	pipeline := importer.NewPipeline(a.repos, logger.Named("importer"))
	emitter := importer.NewEmitter(pipeline, a.publisher, a.cfg.PubSub.TopicName, runID.String(), logger.Named("emitter"))
	a.emitter.Store(emitter)

	sched := scheduler.New(a.reader, a.cfg.Crawler.Concurrency, a.hub, logger.Named("scheduler"))
	err = sched.Run(ctx, scheduler.Request{
		RunID: runID,
		Years: years,
		Plan:  a.planYears,
	}, emitter.Emit)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
	}
	return emitter.Report(), err
}

func (a *App) planYears(ctx context.Context, gw crawler.Gateway) ([]int, error) {
	counts, err := a.repos.Resolutions.CountByYear(ctx)
	if err != nil {
		return nil, fmt.Errorf("count stored resolutions: %w", err)
	}
	years := importer.PlanYears(gw, counts, a.now().Year())
	a.logger.Info("years planned", zap.Ints("years", years))
	return years, nil
}

// Report implements api.ReportSource for the latest run.
func (a *App) Report() importer.Report {
	if e := a.emitter.Load(); e != nil {
		return e.Report()
	}
	return importer.Report{}
}

// Serve runs the ops HTTP server until ctx is done. It returns immediately
// when no address is configured.
func (a *App) Serve(ctx context.Context) error {
	if a.cfg.Server.MetricsAddr == "" {
		return nil
	}
	deps := api.Deps{Report: a}
	if a.tracker != nil {
		deps.Progress = a.tracker
	}
	if a.pool != nil {
		deps.Ready = map[string]api.Pinger{"postgres": a.pool}
	}
	return api.NewServer(deps, a.logger.Named("api")).Serve(ctx, a.cfg.Server.MetricsAddr)
}

// Close flushes progress and releases every client.
func (a *App) Close(ctx context.Context) {
	if a.hub != nil {
		if err := a.hub.Close(ctx); err != nil {
			a.logger.Warn("progress hub close failed", zap.Error(err))
		}
	}
	if a.pubsubPublisher != nil {
		a.pubsubPublisher.Stop()
	}
	if a.pubsubClient != nil {
		if err := a.pubsubClient.Close(); err != nil {
			a.logger.Warn("pubsub client close failed", zap.Error(err))
		}
	}
	if a.gcsClient != nil {
		if err := a.gcsClient.Close(); err != nil {
			a.logger.Warn("gcs client close failed", zap.Error(err))
		}
	}
	if a.repos.Close != nil {
		a.repos.Close()
	}
	if a.tracer != nil {
		if err := a.tracer.Shutdown(ctx); err != nil {
			a.logger.Warn("tracer shutdown failed", zap.Error(err))
		}
	}
}

// Config returns the configuration the app was built from.
func (a *App) Config() config.Config {
	return a.cfg
}

// Logger returns the app logger.
func (a *App) Logger() *zap.Logger {
	return a.logger
}
