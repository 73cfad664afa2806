package sinks

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/JakeFAU/unvotes-crawler/internal/progress"
)

func TestTrackerSinkFoldsRun(t *testing.T) {
	t.Parallel()

	sink := NewTrackerSink()
	assert.Equal(t, StateIdle, sink.Snapshot().State)

	id := uuid.New()
	runID := progress.UUIDToBytes(id)
	start := time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC)
	url := "https://digitallibrary.un.org/record/1"
	batch := []progress.Event{
		{RunID: runID, TS: start, Stage: progress.StageRunStart},
		{RunID: runID, TS: start, Stage: progress.StageYearStart, Year: 2023},
		{RunID: runID, TS: start, Stage: progress.StageListPage, Year: 2023, Page: 2, Pages: 7},
		{RunID: runID, TS: start, Stage: progress.StageItemStart, Year: 2023, URL: url},
		{RunID: runID, TS: start, Stage: progress.StageItemStart, Year: 2023, URL: url},
		{RunID: runID, TS: start, Stage: progress.StageItemDone, Year: 2023, URL: url},
		{RunID: runID, TS: start, Stage: progress.StageYearStart, Year: 2022},
		{RunID: progress.UUIDToBytes(uuid.New()), TS: start, Stage: progress.StageYearStart, Year: 1999},
	}
	require.NoError(t, sink.Consume(context.Background(), batch))

	snap := sink.Snapshot()
	assert.Equal(t, id.String(), snap.RunID)
	assert.Equal(t, StateRunning, snap.State)
	require.Len(t, snap.Years, 2)
	assert.Equal(t, 2022, snap.Years[0].Year)
	assert.Equal(t, YearProgress{Year: 2023, Page: 2, Pages: 7, Started: 2, Done: 1, InFlight: 1}, snap.Years[1])

	require.NoError(t, sink.Consume(context.Background(), []progress.Event{
		{RunID: runID, TS: start, Stage: progress.StageItemFailed, Year: 2023, URL: url},
		{RunID: runID, TS: start, Stage: progress.StageYearDone, Year: 2023, Records: 1},
		{RunID: runID, TS: start.Add(time.Hour), Stage: progress.StageRunError, Note: "fetch failed"},
	}))
	snap = sink.Snapshot()
	assert.Equal(t, StateError, snap.State)
	assert.Equal(t, "fetch failed", snap.Note)
	assert.Equal(t, start.Add(time.Hour), snap.FinishedAt)
	assert.Equal(t, YearProgress{Year: 2023, Page: 2, Pages: 7, Started: 2, Done: 1, Failed: 1, Records: 1, Emitted: true}, snap.Years[1])
}
