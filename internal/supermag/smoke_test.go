//go:build supermag

package supermag

import (
	"context"
	"io"
	"log/slog"
	"net/http"
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/alanzhou93/substorm-detection/internal/domain"
	"github.com/alanzhou93/substorm-detection/internal/observability"
)

// These tests hit the real SuperMAG services. Keep the windows small; the
// service rate-limits aggressively.
// Run with: go test -tags=supermag ./internal/supermag/ -v -count=1

func smokeClient(t *testing.T) *Client {
	t.Helper()
	user := os.Getenv("SUPERMAG_USER")
	if user == "" {
		t.Fatal("SUPERMAG_USER must be set to run smoke tests")
	}
	return &Client{
		baseURL:     "https://supermag.jhuapl.edu/mag/lib/services",
		user:        user,
		maxAttempts: 3,
		retryDelay:  5 * time.Second,
		httpClient:  &http.Client{Timeout: 60 * time.Second},
		metrics:     observability.NewMetricsForTesting(),
		logger:      slog.New(slog.NewTextHandler(io.Discard, nil)),
	}
}

func smokeInterval() domain.Interval {
	start := time.Date(2015, 1, 1, 0, 0, 0, 0, time.UTC)
	return domain.Interval{Start: start, End: start.Add(time.Hour)}
}

func TestSmoke_ListStations(t *testing.T) {
	c := smokeClient(t)

	stations, err := c.ListStations(context.Background(), smokeInterval())
	require.NoError(t, err)

	assert.NotEmpty(t, stations, "stations should report on new year 2015")
}

func TestSmoke_FetchStation(t *testing.T) {
	c := smokeClient(t)

	rec, err := c.FetchStation(context.Background(), "OTT", smokeInterval())
	require.NoError(t, err)

	assert.Equal(t, "OTT", rec.Station)
	assert.Greater(t, rec.Len(), 0)
	assert.Contains(t, rec.Fields, "MLT")
}
