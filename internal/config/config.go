package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"time"
)

// Config holds all downloader settings, populated from environment variables.
type Config struct {
	// SuperMAG service access.
	BaseURL string
	User    string

	// Year range to download, [StartYear, EndYear).
	StartYear int
	EndYear   int

	// IntervalsPerYear is how many equal fetch windows a year is cut into.
	IntervalsPerYear int

	// Retry policy for individual requests.
	MaxAttempts int
	RetryDelay  time.Duration
	HTTPTimeout time.Duration

	// OutputDir receives one yearly dataset file per downloaded year.
	OutputDir string

	// HTTPAddr serves health, progress, and metrics endpoints while a run is
	// in flight. Empty disables the server.
	HTTPAddr string

	LogLevel  string
	LogFormat string
}

// Load reads configuration from environment variables, applying defaults where unset.
func Load() (*Config, error) {
	startYear, err := parseIntInRange("DOWNLOAD_START_YEAR", 2015, 1970, 2100)
	if err != nil {
		return nil, err
	}
	endYear, err := parseIntInRange("DOWNLOAD_END_YEAR", 2019, 1970, 2100)
	if err != nil {
		return nil, err
	}
	intervals, err := parseIntInRange("INTERVALS_PER_YEAR", 10, 1, 366)
	if err != nil {
		return nil, err
	}
	maxAttempts, err := parseIntInRange("FETCH_MAX_ATTEMPTS", 5, 1, 20)
	if err != nil {
		return nil, err
	}
	retryDelay, err := parsePositiveDuration("FETCH_RETRY_DELAY", 5*time.Second)
	if err != nil {
		return nil, err
	}
	httpTimeout, err := parsePositiveDuration("HTTP_TIMEOUT", 60*time.Second)
	if err != nil {
		return nil, err
	}

	cfg := &Config{
		BaseURL:          envOrDefault("SUPERMAG_BASE_URL", "https://supermag.jhuapl.edu/mag/lib/services"),
		User:             envOrDefault("SUPERMAG_USER", "alanzhou93"),
		StartYear:        startYear,
		EndYear:          endYear,
		IntervalsPerYear: intervals,
		MaxAttempts:      maxAttempts,
		RetryDelay:       retryDelay,
		HTTPTimeout:      httpTimeout,
		OutputDir:        envOrDefault("OUTPUT_DIR", "data"),
		HTTPAddr:         os.Getenv("HTTP_ADDR"),
		LogLevel:         envOrDefault("LOG_LEVEL", "info"),
		LogFormat:        envOrDefault("LOG_FORMAT", "text"),
	}

	if cfg.BaseURL == "" {
		return nil, errors.New("SUPERMAG_BASE_URL is required")
	}
	if cfg.User == "" {
		return nil, errors.New("SUPERMAG_USER is required")
	}
	if cfg.OutputDir == "" {
		return nil, errors.New("OUTPUT_DIR is required")
	}
	if cfg.EndYear <= cfg.StartYear {
		return nil, errors.New("DOWNLOAD_END_YEAR must be greater than DOWNLOAD_START_YEAR")
	}

	return cfg, nil
}

// Years lists the years a run covers, start inclusive, end exclusive.
func (c *Config) Years() []int {
	years := make([]int, 0, c.EndYear-c.StartYear)
	for yr := c.StartYear; yr < c.EndYear; yr++ {
		years = append(years, yr)
	}
	return years
}

func envOrDefault(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func parseIntInRange(key string, def, low, high int) (int, error) {
	s := os.Getenv(key)
	if s == "" {
		return def, nil
	}
	n, err := strconv.Atoi(s)
	if err != nil || n < low || n > high {
		return 0, fmt.Errorf("%s must be an integer between %d and %d", key, low, high)
	}
	return n, nil
}

func parsePositiveDuration(key string, def time.Duration) (time.Duration, error) {
	s := os.Getenv(key)
	if s == "" {
		return def, nil
	}
	d, err := time.ParseDuration(s)
	if err != nil || d <= 0 {
		return 0, fmt.Errorf("invalid %s", key)
	}
	return d, nil
}
