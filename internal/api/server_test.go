package api

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/JakeFAU/unvotes-crawler/internal/importer"
	"github.com/JakeFAU/unvotes-crawler/internal/progress/sinks"
)

type fakePinger struct {
	err error
}

func (f fakePinger) Ping(context.Context) error {
	return f.err
}

type fakeProgress struct {
	snap sinks.Snapshot
}

func (f fakeProgress) Snapshot() sinks.Snapshot {
	return f.snap
}

type fakeReport struct {
	rep importer.Report
}

func (f fakeReport) Report() importer.Report {
	return f.rep
}

func serve(t *testing.T, s *Server, path string) *httptest.ResponseRecorder {
	t.Helper()
	rec := httptest.NewRecorder()
	s.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, path, nil))
	return rec
}

func TestServer_Healthz(t *testing.T) {
	t.Parallel()

	rec := serve(t, NewServer(Deps{}, zap.NewNop()), "/healthz")
	require.Equal(t, http.StatusOK, rec.Code)
	require.JSONEq(t, `{"status":"ok"}`, rec.Body.String())
	require.NotEmpty(t, rec.Header().Get("X-Request-ID"))
}

func TestServer_ReadyzReportsFailedDependencies(t *testing.T) {
	t.Parallel()

	ready := NewServer(Deps{Ready: map[string]Pinger{"postgres": fakePinger{}}}, nil)
	require.Equal(t, http.StatusOK, serve(t, ready, "/readyz").Code)

	down := NewServer(Deps{Ready: map[string]Pinger{
		"postgres": fakePinger{err: errors.New("connection refused")},
		"cache":    fakePinger{},
	}}, nil)
	rec := serve(t, down, "/readyz")
	require.Equal(t, http.StatusServiceUnavailable, rec.Code)
	var body struct {
		Failed map[string]string `json:"failed"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, map[string]string{"postgres": "connection refused"}, body.Failed)
}

func TestServer_Progress(t *testing.T) {
	t.Parallel()

	require.Equal(t, http.StatusServiceUnavailable, serve(t, NewServer(Deps{}, nil), "/v1/progress").Code)

	snap := sinks.Snapshot{
		RunID:     "00000000-0000-0000-0000-000000000001",
		State:     sinks.StateRunning,
		StartedAt: time.Date(2026, 1, 2, 0, 0, 0, 0, time.UTC),
		Years:     []sinks.YearProgress{{Year: 2023, Page: 2, Pages: 7, InFlight: 6}},
	}
	rec := serve(t, NewServer(Deps{Progress: fakeProgress{snap: snap}}, nil), "/v1/progress")
	require.Equal(t, http.StatusOK, rec.Code)
	var got sinks.Snapshot
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &got))
	assert.Equal(t, snap, got)
}

func TestServer_ReportIncludesTotals(t *testing.T) {
	t.Parallel()

	rep := importer.Report{RunID: "run-1", Years: []importer.YearReport{
		{Year: 2023, Result: importer.Result{Successes: []string{"A/RES/78/165"}, Skipped: []string{"A/RES/78/1"}}},
	}}
	rec := serve(t, NewServer(Deps{Report: fakeReport{rep: rep}}, nil), "/v1/report")
	require.Equal(t, http.StatusOK, rec.Code)
	var body struct {
		RunID  string         `json:"run_id"`
		Totals map[string]int `json:"totals"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, "run-1", body.RunID)
	assert.Equal(t, map[string]int{"successes": 1, "skipped": 1, "errors": 0, "failures": 0}, body.Totals)
}

func TestServer_MetricsExposed(t *testing.T) {
	t.Parallel()

	rec := serve(t, NewServer(Deps{}, nil), "/metrics")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "go_goroutines")
}

func TestServer_KeepsIncomingRequestID(t *testing.T) {
	t.Parallel()

	s := NewServer(Deps{}, nil)
	req := httptest.NewRequest(http.MethodGet, "/healthz", nil)
	req.Header.Set("X-Request-ID", "abc")
	rec := httptest.NewRecorder()
	s.Handler().ServeHTTP(rec, req)
	assert.Equal(t, "abc", rec.Header().Get("X-Request-ID"))
}

func TestRecoverMiddleware(t *testing.T) {
	t.Parallel()

	s := &Server{logger: zap.NewNop()}
	h := s.recoverMiddleware(http.HandlerFunc(func(http.ResponseWriter, *http.Request) {
		panic("boom")
	}))
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))
	require.Equal(t, http.StatusInternalServerError, rec.Code)
}

func TestServe_StopsOnCancel(t *testing.T) {
	t.Parallel()

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- NewServer(Deps{}, nil).Serve(ctx, "127.0.0.1:0") }()
	time.Sleep(20 * time.Millisecond)
	cancel()
	select {
	case err := <-done:
		require.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("server did not stop")
	}
}
