package sinks

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/require"

	"github.com/JakeFAU/unvotes-crawler/internal/progress"
)

func TestPrometheusSinkRecordsRunMetrics(t *testing.T) {
	t.Parallel()

	reg := prometheus.NewRegistry()
	sink, err := NewPrometheusSink(reg)
	require.NoError(t, err)

	runID := progress.UUIDToBytes(uuid.New())
	now := time.Now()
	batch := []progress.Event{
		{RunID: runID, TS: now, Stage: progress.StageRunStart},
		{RunID: runID, TS: now, Stage: progress.StageRunStart},
		{RunID: runID, TS: now, Stage: progress.StageItemDone, Year: 2023, URL: "https://digitallibrary.un.org/record/1"},
		{RunID: runID, TS: now, Stage: progress.StageItemFailed, Year: 2023, URL: "https://digitallibrary.un.org/record/2"},
		{RunID: runID, TS: now, Stage: progress.StageYearDone, Year: 2023, Records: 341},
		{RunID: runID, TS: now.Add(time.Minute), Stage: progress.StageRunDone, Dur: time.Minute},
	}
	require.NoError(t, sink.Consume(context.Background(), batch))

	require.Equal(t, 2.0, testutil.ToFloat64(sink.runsStarted))
	require.Equal(t, 1.0, testutil.ToFloat64(sink.runsCompleted.WithLabelValues("success")))
	require.Equal(t, 0.0, testutil.ToFloat64(sink.runsRunning))
	require.Equal(t, 1.0, testutil.ToFloat64(sink.yearsDone))
	require.Equal(t, 341.0, testutil.ToFloat64(sink.yearRecords.WithLabelValues("2023")))
	require.Equal(t, 1.0, testutil.ToFloat64(sink.itemsFinished.WithLabelValues("failed")))
	require.Equal(t, 1, testutil.CollectAndCount(sink.runRuntime, "unvotes_run_runtime_seconds"))
}

func TestPrometheusSinkRejectsDuplicateRegistration(t *testing.T) {
	t.Parallel()

	reg := prometheus.NewRegistry()
	_, err := NewPrometheusSink(reg)
	require.NoError(t, err)
	_, err = NewPrometheusSink(reg)
	require.Error(t, err)
}
