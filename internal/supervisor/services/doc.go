// Reelcast - Movie Rating Feature Pipeline
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/reelcast

/*
Package services provides suture.Service wrappers for the serve command.

Each wrapper translates a component's lifecycle into suture's context-aware
Serve method and identifies itself through fmt.Stringer:

	type Service interface {
	    Serve(ctx context.Context) error
	}

ScheduleService runs the pipeline on startup and then once per interval.
Runs never overlap: a tick that fires while a run is in progress is
coalesced into the next one. A failed run is logged and recorded in the
shared RunStatus; it does not make Serve return, so the supervisor only
restarts the service on panics.

HTTPServerService wraps an *http.Server (the metrics and health endpoint)
with graceful shutdown.

Example:

	status := services.NewRunStatus()
	sched := services.NewScheduleService(run, services.ScheduleConfig{
	    Interval:     cfg.Pipeline.ScheduleInterval,
	    RunOnStartup: true,
	}, status, logging.WithComponent("scheduler"))
	tree.AddPipelineService(sched)

	srv := &http.Server{Addr: cfg.Metrics.Addr, Handler: metrics.NewHandler(status.Health)}
	tree.AddAPIService(services.NewHTTPServerService(srv, 10*time.Second))
*/
package services
