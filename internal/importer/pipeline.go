// Package importer persists reconciled records exactly once and keeps the
// resumability cursor.
package importer

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/JakeFAU/unvotes-crawler/internal/crawler"
	"github.com/JakeFAU/unvotes-crawler/internal/logging"
	"github.com/JakeFAU/unvotes-crawler/internal/metrics"
	"github.com/JakeFAU/unvotes-crawler/internal/store"
)

// Import outcomes, also used as metric labels.
const (
	OutcomeSuccess = "success"
	OutcomeSkipped = "skipped"
	OutcomeError   = "error"
)

// ItemError is a record that could not be imported. Value holds the raw
// scraped value for triage.
type ItemError struct {
	Symbol string `json:"symbol"`
	Field  string `json:"field"`
	Value  string `json:"value"`
	Err    error  `json:"-"`
}

// Result classifies every record of one batch.
type Result struct {
	Successes []string    `json:"successes"`
	Skipped   []string    `json:"skipped"`
	Errors    []ItemError `json:"errors,omitempty"`
	// MinDate is the earliest date among the newly saved records.
	MinDate time.Time `json:"min_date"`
}

// Pipeline imports batches of reconciled records.
type Pipeline struct {
	transformer *Transformer
	resolutions store.ResolutionRepository
	cursor      *CursorKeeper
	logger      *zap.Logger
}

// NewPipeline wires a pipeline over repos.
func NewPipeline(repos store.Repositories, logger *zap.Logger) *Pipeline {
	logger = logging.OrNop(logger)
	return &Pipeline{
		transformer: NewTransformer(repos, logger),
		resolutions: repos.Resolutions,
		cursor:      NewCursorKeeper(repos.Cursor),
		logger:      logger,
	}
}

// Cursor returns the pipeline's cursor keeper.
func (p *Pipeline) Cursor() *CursorKeeper {
	return p.cursor
}

// Transformer returns the pipeline's transformer.
func (p *Pipeline) Transformer() *Transformer {
	return p.transformer
}

// ImportBatch transforms and saves records in order. An existing symbol is
// skipped and never overwritten. A TransformationError is recorded in
// Result.Errors and the batch continues; any other error stops the batch and
// is returned with the partial Result. The cursor is updated for the records
// saved either way.
func (p *Pipeline) ImportBatch(ctx context.Context, records []crawler.ResolutionRecord) (Result, error) {
	var res Result
	var batchErr error
	for _, rec := range records {
		if err := ctx.Err(); err != nil {
			batchErr = err
			break
		}
		outcome, err := p.importOne(ctx, rec, &res)
		if err != nil {
			batchErr = err
			break
		}
		metrics.ObserveImport(outcome, 1)
	}

	if !res.MinDate.IsZero() {
		if _, err := p.cursor.UpdateDate(context.WithoutCancel(ctx), res.MinDate); err != nil {
			batchErr = errors.Join(batchErr, err)
		}
	}
	p.logger.Info("batch imported",
		zap.Int("successes", len(res.Successes)),
		zap.Int("skipped", len(res.Skipped)),
		zap.Int("errors", len(res.Errors)),
		zap.Error(batchErr),
	)
	return res, batchErr
}

func (p *Pipeline) importOne(ctx context.Context, rec crawler.ResolutionRecord, res *Result) (string, error) {
	entity, err := p.transformer.Transform(ctx, rec)
	if err != nil {
		var te crawler.TransformationError
		if errors.As(err, &te) {
			res.Errors = append(res.Errors, ItemError{Symbol: rec.Symbol, Field: te.Field, Value: te.Value, Err: err})
			p.logger.Warn("record not importable",
				zap.String("symbol", rec.Symbol),
				zap.String("details_url", rec.DetailsURL),
				zap.Error(err),
			)
			return OutcomeError, nil
		}
		return "", fmt.Errorf("transform %s: %w", rec.Symbol, err)
	}

	exists, err := p.resolutions.ExistsBySymbol(ctx, entity.Symbol)
	if err != nil {
		return "", fmt.Errorf("check %s: %w", entity.Symbol, err)
	}
	if exists {
		res.Skipped = append(res.Skipped, entity.Symbol)
		return OutcomeSkipped, nil
	}
	if err := p.resolutions.Save(ctx, &entity); err != nil {
		if errors.Is(err, store.ErrDuplicate) {
			res.Skipped = append(res.Skipped, entity.Symbol)
			return OutcomeSkipped, nil
		}
		return "", fmt.Errorf("save %s: %w", entity.Symbol, err)
	}
	res.Successes = append(res.Successes, entity.Symbol)
	if res.MinDate.IsZero() || entity.Date.Before(res.MinDate) {
		res.MinDate = entity.Date
	}
	return OutcomeSuccess, nil
}
