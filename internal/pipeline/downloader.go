package pipeline

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"github.com/alanzhou93/substorm-detection/internal/domain"
	"github.com/alanzhou93/substorm-detection/internal/observability"
)

// Lister discovers which stations reported during an interval.
type Lister interface {
	ListStations(ctx context.Context, iv domain.Interval) ([]string, error)
}

// Fetcher retrieves one station's measurements for an interval.
type Fetcher interface {
	FetchStation(ctx context.Context, station string, iv domain.Interval) (*domain.StationRecord, error)
}

// Source combines station discovery and retrieval. The SuperMAG client
// satisfies it.
type Source interface {
	Lister
	Fetcher
}

// Store persists a finished yearly dataset and returns the written path.
type Store interface {
	WriteYear(ctx context.Context, ds *domain.YearlyDataset) (string, error)
}

// Hooks are optional per-step callbacks for interactive progress display.
// All fields may be nil.
type Hooks struct {
	IntervalStart  func(year, index, total int, iv domain.Interval)
	StationsListed func(count int)
	StationDone    func(station string, missing bool)
}

// Progress is a point-in-time snapshot of a running download.
type Progress struct {
	Year            int `json:"year"`
	IntervalIndex   int `json:"interval_index"` // 1-based, 0 before the first interval
	IntervalCount   int `json:"interval_count"`
	StationsFetched int `json:"stations_fetched"`
	StationsMissing int `json:"stations_missing"`
	RowsFetched     int `json:"rows_fetched"`
	YearsWritten    int `json:"years_written"`
}

// Downloader walks years and fetch intervals, assembling interval datasets
// from a Source and persisting merged yearly datasets to a Store.
type Downloader struct {
	source  Source
	store   Store
	years   []int
	perYear int
	logger  *slog.Logger
	metrics *observability.Metrics

	// Hooks may be set before Run; they are called from Run's goroutine.
	Hooks Hooks

	ready atomic.Bool

	mu       sync.Mutex
	progress Progress
}

// New creates a Downloader covering the given years, each cut into perYear
// fetch intervals.
func New(source Source, store Store, years []int, perYear int, logger *slog.Logger, metrics *observability.Metrics) *Downloader {
	return &Downloader{
		source:  source,
		store:   store,
		years:   years,
		perYear: perYear,
		logger:  logger,
		metrics: metrics,
	}
}

// CheckReadiness returns nil once at least one interval has been assembled,
// or an error describing why the run is not yet productive.
func (d *Downloader) CheckReadiness(_ context.Context) error {
	if !d.ready.Load() {
		return errors.New("no interval assembled yet")
	}
	return nil
}

// Progress returns a snapshot of the running download.
func (d *Downloader) Progress() Progress {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.progress
}

// Run downloads every configured year in order and writes each one out as it
// completes. Cancellation aborts with the context's error; the years already
// written stay on disk.
func (d *Downloader) Run(ctx context.Context) error {
	d.logger.Info("download starting", "years", d.years, "intervals_per_year", d.perYear)
	d.metrics.DownloadRunning.Set(1)
	defer d.metrics.DownloadRunning.Set(0)

	for _, year := range d.years {
		if ctx.Err() != nil {
			d.logger.Info("download stopping", "reason", ctx.Err())
			return ctx.Err()
		}

		ds, err := d.DownloadYear(ctx, year)
		if err != nil {
			return fmt.Errorf("year %d: %w", year, err)
		}

		path, err := d.store.WriteYear(ctx, ds)
		if err != nil {
			return fmt.Errorf("write year %d: %w", year, err)
		}
		d.metrics.YearsWritten.Inc()
		d.metrics.RowsWritten.Add(float64(ds.Rows()))
		d.addYearWritten()
		d.logger.Info("year written",
			"year", year,
			"path", path,
			"stations", len(ds.Records),
			"rows", ds.Rows(),
			"missing", len(ds.Missing),
		)
	}

	d.logger.Info("download finished", "years", len(d.years))
	return nil
}

// DownloadYear assembles one year's intervals and merges them into a yearly
// dataset. An interval whose station list stays unavailable through the retry
// budget is skipped with a warning; any other failure aborts the year.
func (d *Downloader) DownloadYear(ctx context.Context, year int) (*domain.YearlyDataset, error) {
	intervals := domain.YearIntervals(year, d.perYear)
	parts := make([]*domain.IntervalDataset, 0, len(intervals))

	for i, iv := range intervals {
		d.setInterval(year, i+1, len(intervals))
		if d.Hooks.IntervalStart != nil {
			d.Hooks.IntervalStart(year, i+1, len(intervals), iv)
		}

		part, err := d.assembleInterval(ctx, iv)
		if err != nil {
			if domain.IsTransient(err) {
				d.logger.Warn("interval skipped, station list unavailable",
					"year", year,
					"interval", iv.String(),
					"error", err,
				)
				continue
			}
			return nil, err
		}
		parts = append(parts, part)
	}

	return domain.MergeIntervals(year, parts)
}

// assembleInterval lists the interval's stations and fetches each one.
// A station whose fetch fails, transiently or permanently, is marked missing
// instead of aborting the interval; only context cancellation and permanent
// listing failures propagate.
func (d *Downloader) assembleInterval(ctx context.Context, iv domain.Interval) (*domain.IntervalDataset, error) {
	start := time.Now()

	stations, err := d.source.ListStations(ctx, iv)
	if err != nil {
		return nil, err
	}
	if d.Hooks.StationsListed != nil {
		d.Hooks.StationsListed(len(stations))
	}
	d.logger.Info("interval stations listed", "interval", iv.String(), "stations", len(stations))

	ds := domain.NewIntervalDataset(iv)
	for _, station := range stations {
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}

		rec, err := d.source.FetchStation(ctx, station, iv)
		if err != nil {
			if !domain.IsTransient(err) && !domain.IsPermanent(err) {
				return nil, err
			}
			ds.MarkMissing(station)
			d.metrics.StationsMissing.Inc()
			d.addStationMissing()
			if d.Hooks.StationDone != nil {
				d.Hooks.StationDone(station, true)
			}
			d.logger.Warn("station unavailable",
				"station", station,
				"interval", iv.String(),
				"error", err,
			)
			continue
		}

		ds.Add(rec)
		d.addStationFetched(rec.Len())
		if d.Hooks.StationDone != nil {
			d.Hooks.StationDone(station, false)
		}
		d.logger.Debug("station fetched", "station", station, "rows", rec.Len())
	}

	d.metrics.IntervalsAssembled.Inc()
	d.metrics.IntervalDuration.Observe(time.Since(start).Seconds())
	d.ready.Store(true)
	return ds, nil
}

func (d *Downloader) setInterval(year, index, total int) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.progress.Year = year
	d.progress.IntervalIndex = index
	d.progress.IntervalCount = total
}

func (d *Downloader) addStationFetched(rows int) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.progress.StationsFetched++
	d.progress.RowsFetched += rows
}

func (d *Downloader) addStationMissing() {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.progress.StationsMissing++
}

func (d *Downloader) addYearWritten() {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.progress.YearsWritten++
}
