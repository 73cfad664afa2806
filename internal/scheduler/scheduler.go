// Package scheduler drives a crawl run year by year and page by page, with a
// bounded pool of detail tasks per list page.
package scheduler

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/JakeFAU/unvotes-crawler/internal/crawler"
	"github.com/JakeFAU/unvotes-crawler/internal/logging"
	"github.com/JakeFAU/unvotes-crawler/internal/metrics"
	"github.com/JakeFAU/unvotes-crawler/internal/progress"
	"github.com/JakeFAU/unvotes-crawler/internal/reconcile"
)

// DefaultConcurrency bounds in-flight detail tasks when none is configured.
const DefaultConcurrency = 6

// Reader reads the pages a run visits.
type Reader interface {
	Gateway(ctx context.Context) (crawler.Gateway, error)
	List(ctx context.Context, year, page int) (crawler.ListPage, error)
	VotingData(ctx context.Context, url string) (crawler.DocumentPage, error)
	Document(ctx context.Context, kind crawler.Kind, url string) (crawler.DocumentPage, error)
}

// YearPlanner chooses the years of a run from the gateway when the caller
// requested none.
type YearPlanner func(ctx context.Context, gw crawler.Gateway) ([]int, error)

// Request describes one run.
type Request struct {
	RunID uuid.UUID
	Years []int
	Plan  YearPlanner
}

// Scheduler runs crawls.
type Scheduler struct {
	reader      Reader
	concurrency int
	progress    progress.Emitter
	logger      *zap.Logger
	now         func() time.Time
}

// New returns a Scheduler. concurrency <= 0 selects DefaultConcurrency and a
// nil emitter discards progress.
func New(reader Reader, concurrency int, emitter progress.Emitter, logger *zap.Logger) *Scheduler {
	if concurrency <= 0 {
		concurrency = DefaultConcurrency
	}
	if emitter == nil {
		emitter = progress.Nop{}
	}
	return &Scheduler{
		reader:      reader,
		concurrency: concurrency,
		progress:    emitter,
		logger:      logging.OrNop(logger),
		now:         time.Now,
	}
}

// Run checks the requested years against the gateway, then crawls each year
// and hands its batch to emit before moving on. Years the gateway does not
// advertise fail the run with crawler.MissingYears before any list page is
// read. Fetch, structural and emit errors stop the run.
func (s *Scheduler) Run(ctx context.Context, req Request, emit crawler.EmitFunc) error {
	run := runState{id: progress.UUIDToBytes(req.RunID), started: s.now()}
	s.event(run, progress.Event{Stage: progress.StageRunStart})

	err := s.run(ctx, run, req, emit)
	if err != nil {
		s.event(run, progress.Event{Stage: progress.StageRunError, Dur: s.now().Sub(run.started), Note: err.Error()})
		return err
	}
	s.event(run, progress.Event{Stage: progress.StageRunDone, Dur: s.now().Sub(run.started)})
	return nil
}

type runState struct {
	id      [16]byte
	started time.Time
}

func (s *Scheduler) run(ctx context.Context, run runState, req Request, emit crawler.EmitFunc) error {
	gw, err := s.reader.Gateway(ctx)
	if err != nil {
		return fmt.Errorf("read gateway: %w", err)
	}
	years := req.Years
	if len(years) == 0 && req.Plan != nil {
		if years, err = req.Plan(ctx, gw); err != nil {
			return fmt.Errorf("plan years: %w", err)
		}
	}
	if missing := gw.Missing(years); len(missing) > 0 {
		return crawler.MissingYears{Years: missing}
	}
	s.logger.Info("run started",
		zap.String("run_id", req.RunID.String()),
		zap.Ints("years", years),
		zap.Int("concurrency", s.concurrency),
	)

	for _, year := range years {
		if err := ctx.Err(); err != nil {
			return err
		}
		batch, err := s.crawlYear(ctx, run, year)
		if err != nil {
			return fmt.Errorf("crawl year %d: %w", year, err)
		}
		if err := emit(ctx, batch); err != nil {
			return fmt.Errorf("emit year %d: %w", year, err)
		}
		s.event(run, progress.Event{Stage: progress.StageYearDone, Year: year, Records: len(batch.Records)})
	}
	return nil
}

// crawlYear reads page 1 for the year's total, then every remaining page,
// draining each page's references before reading the next.
func (s *Scheduler) crawlYear(ctx context.Context, run runState, year int) (crawler.YearBatch, error) {
	s.event(run, progress.Event{Stage: progress.StageYearStart, Year: year})
	batch := crawler.YearBatch{Year: year}
	pages := 1
	for page := 1; page <= pages; page++ {
		list, err := s.reader.List(ctx, year, page)
		if err != nil {
			return batch, fmt.Errorf("read list page %d: %w", page, err)
		}
		if page == 1 {
			pages = list.PagesNeeded()
		}
		metrics.ObserveListPage(year)
		s.event(run, progress.Event{Stage: progress.StageListPage, Year: year, Page: page, Pages: max(pages, 1)})
		s.logger.Debug("list page read",
			zap.Int("year", year),
			zap.Int("page", page),
			zap.Int("pages", pages),
			zap.Int("references", len(list.References)),
		)

		records, failures, err := s.drain(ctx, run, year, list.References)
		batch.Records = append(batch.Records, records...)
		batch.Failures = append(batch.Failures, failures...)
		if err != nil {
			return batch, fmt.Errorf("list page %d: %w", page, err)
		}
	}
	s.logger.Info("year crawled",
		zap.Int("year", year),
		zap.Int("records", len(batch.Records)),
		zap.Int("failures", len(batch.Failures)),
	)
	return batch, nil
}

type outcome struct {
	record  crawler.ResolutionRecord
	failure *crawler.ItemFailure
}

// drain runs one detail task per reference, at most s.concurrency at a time.
// A single goroutine owns the accumulator; results arrive in completion order.
func (s *Scheduler) drain(
	ctx context.Context,
	run runState,
	year int,
	refs []crawler.Reference,
) ([]crawler.ResolutionRecord, []crawler.ItemFailure, error) {
	var (
		records  []crawler.ResolutionRecord
		failures []crawler.ItemFailure
	)
	results := make(chan outcome)
	collected := make(chan struct{})
	go func() {
		defer close(collected)
		for out := range results {
			if out.failure != nil {
				failures = append(failures, *out.failure)
				continue
			}
			records = append(records, out.record)
		}
	}()

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(s.concurrency)
	for _, ref := range refs {
		if gctx.Err() != nil {
			break
		}
		g.Go(func() error {
			out, err := s.detail(gctx, run, year, ref)
			if err != nil {
				return err
			}
			results <- out
			return nil
		})
	}
	err := g.Wait()
	close(results)
	<-collected
	if err == nil {
		err = ctx.Err()
	}
	return records, failures, err
}

func (s *Scheduler) detail(ctx context.Context, run runState, year int, ref crawler.Reference) (outcome, error) {
	metrics.IncDetailTasks()
	defer metrics.DecDetailTasks()
	s.event(run, progress.Event{Stage: progress.StageItemStart, Year: year, URL: ref.URL})
	start := s.now()

	rec, err := s.reconcile(ctx, ref)
	if err == nil {
		s.event(run, progress.Event{Stage: progress.StageItemDone, Year: year, URL: ref.URL, Dur: s.now().Sub(start)})
		return outcome{record: rec}, nil
	}

	var rf crawler.ReconciliationFailure
	var te crawler.TransformationError
	switch {
	case errors.As(err, &rf):
		metrics.ObserveReconcileFailure()
	case errors.As(err, &te):
	default:
		return outcome{}, fmt.Errorf("reference %s: %w", ref.URL, err)
	}
	s.logger.Warn("reference dropped",
		zap.Int("year", year),
		zap.String("url", ref.URL),
		zap.String("code", ref.Code),
		zap.Error(err),
	)
	s.event(run, progress.Event{Stage: progress.StageItemFailed, Year: year, URL: ref.URL, Note: err.Error()})
	return outcome{failure: &crawler.ItemFailure{URL: ref.URL, Code: ref.Code, Err: err}}, nil
}

// reconcile reads the voting-data page behind ref and its first reachable
// secondary document.
func (s *Scheduler) reconcile(ctx context.Context, ref crawler.Reference) (crawler.ResolutionRecord, error) {
	voting, err := s.reader.VotingData(ctx, ref.URL)
	if err != nil {
		return crawler.ResolutionRecord{}, fmt.Errorf("read voting data: %w", err)
	}
	var secondary *crawler.DocumentPage
	if kind, code, ok := reconcile.Candidate(voting); ok {
		doc, err := s.reader.Document(ctx, kind, code.URL)
		if err != nil {
			return crawler.ResolutionRecord{}, fmt.Errorf("read %s %s: %w", kind, code.Code, err)
		}
		secondary = &doc
	}
	return reconcile.Reconcile(voting, secondary)
}

func (s *Scheduler) event(run runState, evt progress.Event) {
	evt.RunID = run.id
	evt.TS = s.now().UTC()
	s.progress.Emit(evt)
}
