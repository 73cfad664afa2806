package importer

import (
	"context"
	"strconv"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/JakeFAU/unvotes-crawler/internal/crawler"
	"github.com/JakeFAU/unvotes-crawler/internal/logging"
)

// EventBatchImported is the type attribute of batch notifications.
const EventBatchImported = "batch_imported"

// YearReport is the import outcome of one year.
type YearReport struct {
	Year     int                   `json:"year"`
	Result   Result                `json:"result"`
	Failures []crawler.ItemFailure `json:"failures,omitempty"`
}

// Report accumulates the outcome of a run across years.
type Report struct {
	RunID string       `json:"run_id"`
	Years []YearReport `json:"years"`
}

// Totals sums the per-year counts. failures counts items dropped during the
// crawl before they reached the importer.
func (r Report) Totals() (successes, skipped, errs, failures int) {
	for _, y := range r.Years {
		successes += len(y.Result.Successes)
		skipped += len(y.Result.Skipped)
		errs += len(y.Result.Errors)
		failures += len(y.Failures)
	}
	return successes, skipped, errs, failures
}

// BatchImported is published once per imported year.
type BatchImported struct {
	Type       string    `json:"type"`
	RunID      string    `json:"run_id"`
	Year       int       `json:"year"`
	Successes  int       `json:"successes"`
	Skipped    int       `json:"skipped"`
	Errors     int       `json:"errors"`
	Failures   int       `json:"failures"`
	MinDate    time.Time `json:"min_date,omitzero"`
	ImportedAt time.Time `json:"imported_at"`
}

// Attributes implements the Pub/Sub attribute hook.
func (b BatchImported) Attributes() map[string]string {
	return map[string]string{
		"type":   b.Type,
		"run_id": b.RunID,
		"year":   strconv.Itoa(b.Year),
	}
}

// Emitter feeds scheduler batches into a Pipeline, folds the results into a
// Report and announces each year on a Publisher.
type Emitter struct {
	pipeline  *Pipeline
	publisher crawler.Publisher
	topic     string
	runID     string
	logger    *zap.Logger
	now       func() time.Time

	mu     sync.Mutex
	report Report
}

// NewEmitter returns an Emitter for one run. publisher may be nil.
func NewEmitter(pipeline *Pipeline, publisher crawler.Publisher, topic, runID string, logger *zap.Logger) *Emitter {
	return &Emitter{
		pipeline:  pipeline,
		publisher: publisher,
		topic:     topic,
		runID:     runID,
		logger:    logging.OrNop(logger),
		now:       time.Now,
		report:    Report{RunID: runID},
	}
}

// Emit imports batch. It has the crawler.EmitFunc signature.
func (e *Emitter) Emit(ctx context.Context, batch crawler.YearBatch) error {
	res, err := e.pipeline.ImportBatch(ctx, batch.Records)

	e.mu.Lock()
	e.report.Years = append(e.report.Years, YearReport{Year: batch.Year, Result: res, Failures: batch.Failures})
	e.mu.Unlock()

	if err != nil {
		return err
	}
	e.notify(ctx, batch, res)
	return nil
}

// Report returns a snapshot of the accumulated report.
func (e *Emitter) Report() Report {
	e.mu.Lock()
	defer e.mu.Unlock()
	out := e.report
	out.Years = append([]YearReport(nil), e.report.Years...)
	return out
}

// notify is best effort; a failed publish is logged and does not fail the run.
func (e *Emitter) notify(ctx context.Context, batch crawler.YearBatch, res Result) {
	if e.publisher == nil {
		return
	}
	event := BatchImported{
		Type:       EventBatchImported,
		RunID:      e.runID,
		Year:       batch.Year,
		Successes:  len(res.Successes),
		Skipped:    len(res.Skipped),
		Errors:     len(res.Errors),
		Failures:   len(batch.Failures),
		MinDate:    res.MinDate,
		ImportedAt: e.now().UTC(),
	}
	id, err := e.publisher.Publish(ctx, e.topic, event)
	if err != nil {
		e.logger.Warn("publish batch event failed", zap.Int("year", batch.Year), zap.Error(err))
		return
	}
	e.logger.Debug("batch event published", zap.Int("year", batch.Year), zap.String("message_id", id))
}
