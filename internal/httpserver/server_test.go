package httpserver_test

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/alanzhou93/substorm-detection/internal/httpserver"
	"github.com/alanzhou93/substorm-detection/internal/pipeline"
)

type mockTracker struct {
	readyErr error
	progress pipeline.Progress
}

func (m *mockTracker) CheckReadiness(_ context.Context) error { return m.readyErr }
func (m *mockTracker) Progress() pipeline.Progress            { return m.progress }

func newTestServer(tracker *mockTracker) *httpserver.Server {
	return httpserver.NewServer(":0", tracker, slog.Default())
}

func TestHealthzReturns200(t *testing.T) {
	srv := newTestServer(&mockTracker{})
	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/healthz", nil)

	srv.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)

	var body map[string]string
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, "healthy", body["status"])
}

func TestReadyzReturns200WhenReady(t *testing.T) {
	srv := newTestServer(&mockTracker{})
	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/readyz", nil)

	srv.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)

	var body map[string]string
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, "ready", body["status"])
}

func TestReadyzReturns503WhenNotReady(t *testing.T) {
	srv := newTestServer(&mockTracker{readyErr: fmt.Errorf("no interval assembled yet")})
	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/readyz", nil)

	srv.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)

	var body map[string]string
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, "not ready", body["status"])
	assert.Equal(t, "no interval assembled yet", body["error"])
}

func TestStatuszReportsProgress(t *testing.T) {
	tracker := &mockTracker{progress: pipeline.Progress{
		Year:            2016,
		IntervalIndex:   3,
		IntervalCount:   10,
		StationsFetched: 42,
		StationsMissing: 2,
		RowsFetched:     18000,
		YearsWritten:    1,
	}}
	srv := newTestServer(tracker)
	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/statusz", nil)

	srv.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)

	var got pipeline.Progress
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &got))
	assert.Equal(t, tracker.progress, got)
}

func TestMetricsEndpoint(t *testing.T) {
	srv := newTestServer(&mockTracker{})
	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/metrics", nil)

	srv.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "go_goroutines")
}
