// Reelcast - Movie Rating Feature Pipeline
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/reelcast

package main

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/tomtom215/reelcast/internal/catalog"
	"github.com/tomtom215/reelcast/internal/config"
	"github.com/tomtom215/reelcast/internal/events"
	"github.com/tomtom215/reelcast/internal/logging"
	"github.com/tomtom215/reelcast/internal/metrics"
	"github.com/tomtom215/reelcast/internal/models"
	"github.com/tomtom215/reelcast/internal/pagecache"
	"github.com/tomtom215/reelcast/internal/pipeline"
	"github.com/tomtom215/reelcast/internal/supervisor"
	"github.com/tomtom215/reelcast/internal/supervisor/services"
	"github.com/tomtom215/reelcast/internal/warehouse"
)

// app owns the components shared by every command.
type app struct {
	cfg     *config.Config
	runner  *pipeline.Runner
	cache   pagecache.Store
	closers []func() error
}

func newApp(ctx context.Context, cfg *config.Config) (_ *app, err error) {
	a := &app{cfg: cfg}
	defer func() {
		if err != nil {
			a.Close()
		}
	}()

	cache, err := pagecache.Open(cfg.Cache.Backend, cfg.Cache.Path, cfg.Cache.TTL)
	if err != nil {
		return nil, fmt.Errorf("open page cache: %w", err)
	}
	if cache != nil {
		a.cache = cache
		a.closers = append(a.closers, cache.Close)
	}

	throttle := catalog.NewThrottle(cfg.Catalog.RequestInterval, cfg.Catalog.RequestsPerSecond)
	var fetcher catalog.Fetcher = catalog.NewClient(&cfg.Catalog, throttle, cache)
	if cfg.Catalog.BreakerEnabled {
		fetcher = catalog.NewBreakerFetcher(fetcher, &cfg.Catalog)
	}

	opts := []pipeline.Option{}

	if cfg.Warehouse.Enabled {
		wh, err := warehouse.Open(ctx, cfg.Warehouse.Path)
		if err != nil {
			return nil, fmt.Errorf("open warehouse: %w", err)
		}
		a.closers = append(a.closers, wh.Close)
		opts = append(opts, pipeline.WithSink(wh))
	}

	if cfg.Events.Enabled {
		pub, err := events.NewNATSPublisher(cfg.Events.NATSURL, cfg.Events.Subject)
		if err != nil {
			return nil, fmt.Errorf("connect to NATS: %w", err)
		}
		a.closers = append(a.closers, pub.Close)
		opts = append(opts, pipeline.WithPublisher(pub))
	}

	logging.Info().
		Str("output_dir", cfg.Pipeline.OutputDir).
		Str("cache", cfg.Cache.Backend).
		Bool("breaker", cfg.Catalog.BreakerEnabled).
		Bool("warehouse", cfg.Warehouse.Enabled).
		Bool("events", cfg.Events.Enabled).
		Int("datasets", len(cfg.Datasets)).
		Msg("Configuration loaded")

	a.runner = pipeline.NewRunner(cfg, fetcher, opts...)
	return a, nil
}

// Close releases the components in reverse order of creation.
func (a *app) Close() {
	for i := len(a.closers) - 1; i >= 0; i-- {
		if err := a.closers[i](); err != nil {
			logging.Error().Err(err).Msg("Error during shutdown")
		}
	}
	a.closers = nil
}

// serve runs the scheduled pipeline and the metrics server under a
// supervisor tree until ctx is cancelled.
func (a *app) serve(ctx context.Context) error {
	tree, err := supervisor.NewSupervisorTree(logging.NewSlogLogger(), supervisor.DefaultTreeConfig())
	if err != nil {
		return err
	}

	status := services.NewRunStatus()
	run := func(ctx context.Context) (*models.RunSummary, error) {
		summary, err := a.runner.Run(ctx, pipeline.ModeRun)
		a.purgeCache()
		return summary, err
	}
	tree.AddPipelineService(services.NewScheduleService(run, services.ScheduleConfig{
		Interval:     a.cfg.Pipeline.ScheduleInterval,
		RunOnStartup: true,
		RunTimeout:   a.cfg.Pipeline.RunTimeout,
	}, status, logging.WithComponent("scheduler")))

	if a.cfg.Metrics.Enabled {
		srv := &http.Server{
			Addr:              a.cfg.Metrics.Addr,
			Handler:           metrics.NewHandler(status.Health),
			ReadHeaderTimeout: 5 * time.Second,
		}
		tree.AddAPIService(services.NewHTTPServerService(srv, 10*time.Second))
		logging.Info().Str("addr", a.cfg.Metrics.Addr).Msg("Metrics endpoint enabled")
	}

	logging.Info().Dur("interval", a.cfg.Pipeline.ScheduleInterval).Msg("Starting supervisor tree")
	return tree.Serve(ctx)
}

// purgeCache evicts pages that expired since the last scheduled run.
func (a *app) purgeCache() int {
	removed, stats, ok := pagecache.PurgeExpired(a.cache)
	if !ok {
		return 0
	}
	logging.Debug().
		Int("removed", removed).
		Int("keys", stats.Keys).
		Int64("hits", stats.Hits).
		Int64("misses", stats.Misses).
		Msg("Page cache purged")
	return removed
}
