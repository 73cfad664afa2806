package scheduler

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/JakeFAU/unvotes-crawler/internal/crawler"
	"github.com/JakeFAU/unvotes-crawler/internal/progress"
)

// fakeReader serves generated list pages and tracks detail concurrency.
type fakeReader struct {
	years       []int
	totals      map[int]int
	unreachable map[string]bool
	failURL     string
	delay       time.Duration

	listCalls   atomic.Int64
	detailCalls atomic.Int64
	inFlight    atomic.Int64
	maxInFlight atomic.Int64
}

func (f *fakeReader) Gateway(context.Context) (crawler.Gateway, error) {
	return crawler.Gateway{Years: f.years}, nil
}

func (f *fakeReader) List(_ context.Context, year, page int) (crawler.ListPage, error) {
	f.listCalls.Add(1)
	total := f.totals[year]
	lp := crawler.ListPage{Year: year, Page: page, TotalRecords: total}
	for i := (page - 1) * crawler.PageSize; i < min(page*crawler.PageSize, total); i++ {
		lp.References = append(lp.References, crawler.Reference{
			Code: fmt.Sprintf("A/RES/%d/%d", year, i),
			URL:  fmt.Sprintf("https://digitallibrary.un.org/record/%d-%d", year, i),
		})
	}
	return lp, nil
}

func (f *fakeReader) VotingData(ctx context.Context, url string) (crawler.DocumentPage, error) {
	f.detailCalls.Add(1)
	n := f.inFlight.Add(1)
	defer f.inFlight.Add(-1)
	for {
		seen := f.maxInFlight.Load()
		if n <= seen || f.maxInFlight.CompareAndSwap(seen, n) {
			break
		}
	}
	select {
	case <-time.After(f.delay):
	case <-ctx.Done():
		return crawler.DocumentPage{}, ctx.Err()
	}
	if url == f.failURL {
		return crawler.DocumentPage{}, crawler.FetchFailure{URL: url, Status: 503}
	}
	code := &crawler.CodeURL{Code: "A/RES/" + url, URL: url + "/resolution"}
	if f.unreachable[url] {
		code.URL = ""
	}
	return crawler.DocumentPage{
		Kind:           crawler.KindVotingData,
		Title:          "Voting " + url,
		DetailsURL:     url,
		Date:           time.Date(2023, 12, 19, 0, 0, 0, 0, time.UTC),
		ResolutionCode: code,
		Votes:          map[string]string{"FRANCE": "Y"},
	}, nil
}

func (f *fakeReader) Document(_ context.Context, kind crawler.Kind, url string) (crawler.DocumentPage, error) {
	f.detailCalls.Add(1)
	return crawler.DocumentPage{Kind: kind, Title: "Resolution", DetailsURL: url}, nil
}

type recordingEmitter struct {
	mu     sync.Mutex
	events []progress.Event
}

func (r *recordingEmitter) Emit(evt progress.Event) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, evt)
}

func (r *recordingEmitter) stages() []progress.Stage {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]progress.Stage, 0, len(r.events))
	for _, e := range r.events {
		if e.Stage != progress.StageItemStart && e.Stage != progress.StageItemDone {
			out = append(out, e.Stage)
		}
	}
	return out
}

type batches struct {
	mu  sync.Mutex
	got []crawler.YearBatch
}

func (b *batches) emit(_ context.Context, batch crawler.YearBatch) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.got = append(b.got, batch)
	return nil
}

func TestRunBoundsConcurrency(t *testing.T) {
	t.Parallel()

	reader := &fakeReader{years: []int{2023}, totals: map[int]int{2023: 40}, delay: 5 * time.Millisecond}
	s := New(reader, 3, nil, nil)
	var out batches

	require.NoError(t, s.Run(context.Background(), Request{RunID: uuid.New(), Years: []int{2023}}, out.emit))
	assert.LessOrEqual(t, reader.maxInFlight.Load(), int64(3))
	assert.Positive(t, reader.maxInFlight.Load())
	require.Len(t, out.got, 1)
	assert.Len(t, out.got[0].Records, 40)
	assert.Equal(t, int64(80), reader.detailCalls.Load())
}

func TestRunMissingYearsFetchesNothing(t *testing.T) {
	t.Parallel()

	reader := &fakeReader{years: []int{2022, 2023}, totals: map[int]int{2023: 10}}
	s := New(reader, 2, nil, nil)
	var out batches

	err := s.Run(context.Background(), Request{RunID: uuid.New(), Years: []int{2023, 1900}}, out.emit)
	var missing crawler.MissingYears
	require.ErrorAs(t, err, &missing)
	assert.Equal(t, []int{1900}, missing.Years)
	assert.Zero(t, reader.listCalls.Load())
	assert.Zero(t, reader.detailCalls.Load())
	assert.Empty(t, out.got)
}

func TestRunPaginatesAndEmitsPerYear(t *testing.T) {
	t.Parallel()

	reader := &fakeReader{
		years:       []int{2022, 2023},
		totals:      map[int]int{2022: 3, 2023: 120},
		unreachable: map[string]bool{"https://digitallibrary.un.org/record/2023-101": true},
	}
	rec := &recordingEmitter{}
	s := New(reader, 4, rec, nil)
	var out batches

	req := Request{
		RunID: uuid.New(),
		Plan: func(_ context.Context, gw crawler.Gateway) ([]int, error) {
			return gw.Years, nil
		},
	}
	require.NoError(t, s.Run(context.Background(), req, out.emit))

	require.Len(t, out.got, 2)
	assert.Equal(t, 2022, out.got[0].Year)
	assert.Len(t, out.got[0].Records, 3)
	assert.Equal(t, 2023, out.got[1].Year)
	assert.Len(t, out.got[1].Records, 119)
	require.Len(t, out.got[1].Failures, 1)
	assert.Equal(t, "A/RES/2023/101", out.got[1].Failures[0].Code)
	var rf crawler.ReconciliationFailure
	require.ErrorAs(t, out.got[1].Failures[0].Err, &rf)
	assert.Equal(t, int64(4), reader.listCalls.Load())

	assert.Equal(t, []progress.Stage{
		progress.StageRunStart,
		progress.StageYearStart, progress.StageListPage, progress.StageYearDone,
		progress.StageYearStart, progress.StageListPage, progress.StageListPage, progress.StageListPage,
		progress.StageItemFailed, progress.StageYearDone,
		progress.StageRunDone,
	}, rec.stages())
}

func TestRunFetchFailureAbortsRun(t *testing.T) {
	t.Parallel()

	reader := &fakeReader{
		years:   []int{2022, 2023},
		totals:  map[int]int{2022: 30, 2023: 30},
		failURL: "https://digitallibrary.un.org/record/2022-7",
	}
	rec := &recordingEmitter{}
	s := New(reader, 2, rec, nil)
	var out batches

	err := s.Run(context.Background(), Request{RunID: uuid.New(), Years: []int{2022, 2023}}, out.emit)
	var ff crawler.FetchFailure
	require.ErrorAs(t, err, &ff)
	assert.Equal(t, 503, ff.Status)
	assert.Empty(t, out.got)
	stages := rec.stages()
	assert.Equal(t, progress.StageRunError, stages[len(stages)-1])
}

func TestRunEmitErrorStopsRun(t *testing.T) {
	t.Parallel()

	reader := &fakeReader{years: []int{2022, 2023}, totals: map[int]int{2022: 1, 2023: 1}}
	s := New(reader, 0, nil, nil)
	boom := errors.New("database down")
	calls := 0
	emit := func(context.Context, crawler.YearBatch) error {
		calls++
		return boom
	}

	err := s.Run(context.Background(), Request{RunID: uuid.New(), Years: []int{2022, 2023}}, emit)
	require.ErrorIs(t, err, boom)
	assert.Equal(t, 1, calls)
	assert.Equal(t, int64(1), reader.listCalls.Load())
}

func TestRunHonorsCancellation(t *testing.T) {
	t.Parallel()

	reader := &fakeReader{years: []int{2023}, totals: map[int]int{2023: 50}, delay: time.Second}
	s := New(reader, 2, nil, nil)
	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	var out batches

	start := time.Now()
	err := s.Run(ctx, Request{RunID: uuid.New(), Years: []int{2023}}, out.emit)
	require.ErrorIs(t, err, context.DeadlineExceeded)
	assert.Less(t, time.Since(start), 500*time.Millisecond)
	assert.Empty(t, out.got)
}
