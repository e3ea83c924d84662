package supermag

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/alanzhou93/substorm-detection/internal/config"
	"github.com/alanzhou93/substorm-detection/internal/domain"
	"github.com/alanzhou93/substorm-detection/internal/observability"
)

// Fixed data-query parameters. Baseline subtraction over the full window and
// the mlt/sza/decl extras are what the downstream feature pipeline expects.
const (
	serviceInventory = "inventory"
	serviceMag       = "mag"
	paramDelta       = "none"
	paramBaseline    = "all"
	paramOptions     = "mlt sza decl"
	paramFormat      = "csv"
)

// Endpoint labels used in metrics and logs.
const (
	endpointInventory = "inventory"
	endpointData      = "data"
)

// maxErrorBody bounds how much of a failed response is kept for the error message.
const maxErrorBody = 512

// Client fetches station inventories and per-station measurements from the
// SuperMAG web services, retrying transient failures with a fixed delay.
type Client struct {
	baseURL     string
	user        string
	maxAttempts int
	retryDelay  time.Duration
	httpClient  *http.Client
	metrics     *observability.Metrics
	logger      *slog.Logger
}

// NewClient creates a SuperMAG client from config.
func NewClient(cfg *config.Config, metrics *observability.Metrics, logger *slog.Logger) *Client {
	return &Client{
		baseURL:     strings.TrimRight(cfg.BaseURL, "/"),
		user:        cfg.User,
		maxAttempts: cfg.MaxAttempts,
		retryDelay:  cfg.RetryDelay,
		httpClient:  &http.Client{Timeout: cfg.HTTPTimeout},
		metrics:     metrics,
		logger:      logger,
	}
}

// ListStations returns the station codes that reported during the interval.
func (c *Client) ListStations(ctx context.Context, iv domain.Interval) ([]string, error) {
	params := url.Values{
		"service":  {serviceInventory},
		"start":    {iv.StartParam()},
		"interval": {iv.HoursMinutes()},
	}

	body, err := c.getWithRetry(ctx, c.baseURL+"/inventory.php?"+params.Encode(), endpointInventory)
	if err != nil {
		return nil, fmt.Errorf("list stations %s: %w", iv, err)
	}

	stations, err := domain.ParseInventory(body)
	if err != nil {
		c.metrics.FetchFailures.WithLabelValues(endpointInventory, "permanent").Inc()
		return nil, fmt.Errorf("list stations %s: %w", iv, &domain.PermanentError{Err: err})
	}
	c.metrics.StationsDiscovered.Add(float64(len(stations)))
	return stations, nil
}

// FetchStation returns one station's parsed measurements for the interval.
func (c *Client) FetchStation(ctx context.Context, station string, iv domain.Interval) (*domain.StationRecord, error) {
	params := url.Values{
		"user":     {c.user},
		"start":    {iv.StartParam()},
		"interval": {iv.HoursMinutes()},
		"service":  {serviceMag},
		"stations": {station},
		"delta":    {paramDelta},
		"baseline": {paramBaseline},
		"options":  {paramOptions},
		"fmt":      {paramFormat},
	}

	body, err := c.getWithRetry(ctx, c.baseURL+"/?"+params.Encode(), endpointData)
	if err != nil {
		return nil, fmt.Errorf("fetch station %s %s: %w", station, iv, err)
	}

	rec, err := domain.ParseStationCSV(station, bytes.NewReader(body))
	if err != nil {
		c.metrics.FetchFailures.WithLabelValues(endpointData, "permanent").Inc()
		return nil, fmt.Errorf("fetch station %s %s: %w", station, iv, &domain.PermanentError{Err: err})
	}
	c.metrics.RowsParsed.Add(float64(rec.Len()))
	return rec, nil
}

// getWithRetry issues a GET, retrying transport failures, 5xx, and 429
// answers with a fixed delay between attempts. Other non-200 answers are
// permanent and returned at once. When the attempt budget runs out the last
// failure is wrapped in a TransientError.
func (c *Client) getWithRetry(ctx context.Context, fullURL, endpoint string) ([]byte, error) {
	var lastErr error
	for attempt := 1; attempt <= c.maxAttempts; attempt++ {
		if attempt > 1 {
			c.metrics.FetchRetries.WithLabelValues(endpoint).Inc()
			if !sleepWithContext(ctx, c.retryDelay) {
				return nil, ctx.Err()
			}
		}
		c.metrics.FetchAttempts.WithLabelValues(endpoint).Inc()

		body, retryable, err := c.get(ctx, fullURL, endpoint)
		if err == nil {
			return body, nil
		}
		if !retryable {
			c.metrics.FetchFailures.WithLabelValues(endpoint, "permanent").Inc()
			return nil, err
		}
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		lastErr = err
		c.logger.Warn("request failed, will retry",
			"endpoint", endpoint,
			"attempt", attempt,
			"max_attempts", c.maxAttempts,
			"error", err,
		)
	}

	c.metrics.FetchFailures.WithLabelValues(endpoint, "transient").Inc()
	return nil, &domain.TransientError{Attempts: c.maxAttempts, Err: lastErr}
}

// get performs a single attempt. The second return reports whether the
// failure is worth retrying.
func (c *Client) get(ctx context.Context, fullURL, endpoint string) ([]byte, bool, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, fullURL, nil)
	if err != nil {
		return nil, false, fmt.Errorf("create request: %w", err)
	}

	start := time.Now()
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, true, fmt.Errorf("%s request: %w", endpoint, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= http.StatusInternalServerError || resp.StatusCode == http.StatusTooManyRequests {
		snippet, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
		return nil, true, fmt.Errorf("%s request: status %d: %s", endpoint, resp.StatusCode, snippet)
	}
	if resp.StatusCode != http.StatusOK {
		snippet, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
		perm := &domain.PermanentError{Status: resp.StatusCode}
		if len(snippet) > 0 {
			perm.Err = errors.New(string(snippet))
		}
		return nil, false, perm
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, true, fmt.Errorf("%s read body: %w", endpoint, err)
	}
	c.metrics.FetchDuration.WithLabelValues(endpoint).Observe(time.Since(start).Seconds())
	return body, false, nil
}

func sleepWithContext(ctx context.Context, d time.Duration) bool {
	if d <= 0 {
		return ctx.Err() == nil
	}

	timer := time.NewTimer(d)
	defer timer.Stop()

	select {
	case <-ctx.Done():
		return false
	case <-timer.C:
		return true
	}
}
