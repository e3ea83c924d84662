// Command download fetches SuperMAG ground-magnetometer data year by year
// and writes one SQLite dataset file per year. Configuration comes from
// the environment; see internal/config.
package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gosuri/uiprogress"

	"github.com/alanzhou93/substorm-detection/internal/config"
	"github.com/alanzhou93/substorm-detection/internal/domain"
	"github.com/alanzhou93/substorm-detection/internal/httpserver"
	"github.com/alanzhou93/substorm-detection/internal/observability"
	"github.com/alanzhou93/substorm-detection/internal/pipeline"
	"github.com/alanzhou93/substorm-detection/internal/store"
	"github.com/alanzhou93/substorm-detection/internal/supermag"
)

const shutdownTimeout = 10 * time.Second

func main() {
	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load config", "error", err)
		os.Exit(1)
	}

	logger := observability.NewLogger(cfg)
	metrics := observability.NewMetrics()

	client := supermag.NewClient(cfg, metrics, logger)
	sqlite := store.NewSQLite(cfg.OutputDir, logger)
	dl := pipeline.New(client, sqlite, cfg.Years(), cfg.IntervalsPerYear, logger, metrics)

	bars := &progressBars{}
	bars.attach(dl)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// Expose readiness, progress, and metrics while the download runs.
	var srv *httpserver.Server
	if cfg.HTTPAddr != "" {
		srv = httpserver.NewServer(cfg.HTTPAddr, dl, logger)
		go func() {
			if err := srv.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				logger.Error("http server error", "error", err)
			}
		}()
	}

	uiprogress.Start()
	runErr := dl.Run(ctx)
	uiprogress.Stop()
	stop()

	if srv != nil {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			logger.Error("http server shutdown error", "error", err)
		}
	}

	if runErr != nil {
		if errors.Is(runErr, context.Canceled) {
			logger.Warn("download interrupted, partial years kept", "output_dir", cfg.OutputDir)
		} else {
			logger.Error("download failed", "error", runErr)
		}
		os.Exit(1)
	}
	logger.Info("download complete", "years", cfg.Years(), "output_dir", cfg.OutputDir)
}

// progressBars renders one terminal bar per fetch interval, filled as
// stations complete.
type progressBars struct {
	label string
	bar   *uiprogress.Bar
}

func (p *progressBars) attach(dl *pipeline.Downloader) {
	dl.Hooks = pipeline.Hooks{
		IntervalStart: func(year, index, total int, _ domain.Interval) {
			p.label = fmt.Sprintf("%d %2d/%d", year, index, total)
			p.bar = nil
		},
		StationsListed: func(count int) {
			if count == 0 {
				return
			}
			label := p.label
			bar := uiprogress.AddBar(count).AppendCompleted().PrependElapsed()
			bar.PrependFunc(func(*uiprogress.Bar) string { return label })
			p.bar = bar
		},
		StationDone: func(string, bool) {
			if p.bar != nil {
				p.bar.Incr()
			}
		},
	}
}
