package sinks

import (
	"context"
	"maps"
	"slices"
	"sync"
	"time"

	"github.com/JakeFAU/unvotes-crawler/internal/progress"
)

// Run states reported by the tracker.
const (
	StateIdle    = "idle"
	StateRunning = "running"
	StateDone    = "done"
	StateError   = "error"
)

// YearProgress is the crawl position within one year.
type YearProgress struct {
	Year     int  `json:"year"`
	Page     int  `json:"page"`
	Pages    int  `json:"pages"`
	Started  int  `json:"started"`
	Done     int  `json:"done"`
	Failed   int  `json:"failed"`
	InFlight int  `json:"in_flight"`
	Records  int  `json:"records"`
	Emitted  bool `json:"emitted"`
}

// Snapshot is the state of the most recent run.
type Snapshot struct {
	RunID      string         `json:"run_id,omitempty"`
	State      string         `json:"state"`
	StartedAt  time.Time      `json:"started_at,omitzero"`
	FinishedAt time.Time      `json:"finished_at,omitzero"`
	Note       string         `json:"note,omitempty"`
	Years      []YearProgress `json:"years"`
}

// TrackerSink folds events into the latest run's Snapshot. A RUN_START for a
// new run replaces the previous state.
type TrackerSink struct {
	mu    sync.RWMutex
	runID [16]byte
	snap  Snapshot
	years map[int]*YearProgress
}

// NewTrackerSink returns an idle tracker.
func NewTrackerSink() *TrackerSink {
	return &TrackerSink{snap: Snapshot{State: StateIdle}, years: make(map[int]*YearProgress)}
}

// Consume implements progress.Sink.
func (s *TrackerSink) Consume(_ context.Context, batch []progress.Event) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, evt := range batch {
		s.apply(evt)
	}
	return nil
}

func (s *TrackerSink) apply(evt progress.Event) {
	if evt.Stage == progress.StageRunStart {
		s.runID = evt.RunID
		s.snap = Snapshot{RunID: evt.RunUUID().String(), State: StateRunning, StartedAt: evt.TS}
		s.years = make(map[int]*YearProgress)
		return
	}
	if evt.RunID != s.runID {
		return
	}
	switch evt.Stage {
	case progress.StageRunDone:
		s.snap.State, s.snap.FinishedAt = StateDone, evt.TS
	case progress.StageRunError:
		s.snap.State, s.snap.FinishedAt, s.snap.Note = StateError, evt.TS, evt.Note
	case progress.StageYearStart:
		s.year(evt.Year)
	case progress.StageListPage:
		y := s.year(evt.Year)
		y.Page, y.Pages = evt.Page, evt.Pages
	case progress.StageItemStart:
		y := s.year(evt.Year)
		y.Started++
		y.InFlight++
	case progress.StageItemDone, progress.StageItemFailed:
		y := s.year(evt.Year)
		if evt.Stage == progress.StageItemDone {
			y.Done++
		} else {
			y.Failed++
		}
		if y.InFlight > 0 {
			y.InFlight--
		}
	case progress.StageYearDone:
		y := s.year(evt.Year)
		y.Records, y.Emitted = evt.Records, true
	}
}

func (s *TrackerSink) year(year int) *YearProgress {
	y, ok := s.years[year]
	if !ok {
		y = &YearProgress{Year: year}
		s.years[year] = y
	}
	return y
}

// Snapshot returns a copy of the current state with years in ascending order.
func (s *TrackerSink) Snapshot() Snapshot {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := s.snap
	out.Years = make([]YearProgress, 0, len(s.years))
	for _, year := range slices.Sorted(maps.Keys(s.years)) {
		out.Years = append(out.Years, *s.years[year])
	}
	return out
}

// Close implements the Sink interface; it performs no action.
func (s *TrackerSink) Close(context.Context) error {
	return nil
}
