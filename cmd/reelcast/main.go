// Reelcast - Movie Rating Feature Pipeline
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/reelcast

// Package main is the entry point of the reelcast command.
//
// Reelcast collects movie metadata from the TMDB catalog API, cleans it,
// derives model features and writes encoded train/test tables together with
// the fitted encoding parameters and a feature manifest.
//
// # Commands
//
//	reelcast run        collect every dataset and process it
//	reelcast collect    collect and persist raw collections only
//	reelcast transform  re-process raw collections from an earlier run
//	reelcast serve      run the pipeline every pipeline.schedule_interval
//	                    and expose /metrics and /healthz
//
// # Configuration
//
// Configuration is loaded via Koanf v2 with layered sources (highest priority wins):
//   - Environment variables (TMDB_API_KEY, OUTPUT_DIR, LOG_LEVEL, ...)
//   - Config file (reelcast.yaml, or the -config flag / CONFIG_PATH)
//   - Built-in defaults
//
// # Exit Codes
//
//	0  every dataset succeeded or was degraded
//	1  a dataset failed, or the run could not start
//	2  usage error
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	"github.com/tomtom215/reelcast/internal/config"
	"github.com/tomtom215/reelcast/internal/logging"
	"github.com/tomtom215/reelcast/internal/pipeline"
)

const (
	exitOK      = 0
	exitFailure = 1
	exitUsage   = 2
)

// command is a parsed command line.
type command struct {
	name       string
	configPath string
}

var errUsage = errors.New("usage error")

const usage = `usage: reelcast <command> [-config path]

commands:
  run        collect every dataset and process it
  collect    collect and persist raw collections only
  transform  re-process raw collections from an earlier run
  serve      run the pipeline on a schedule with a metrics endpoint
`

func parseCommand(args []string, stderr io.Writer) (command, error) {
	if len(args) == 0 {
		fmt.Fprint(stderr, usage)
		return command{}, errUsage
	}

	cmd := command{name: args[0]}
	switch cmd.name {
	case string(pipeline.ModeRun), string(pipeline.ModeCollect), string(pipeline.ModeTransform), "serve":
	case "-h", "-help", "--help", "help":
		fmt.Fprint(stderr, usage)
		return command{}, flag.ErrHelp
	default:
		fmt.Fprintf(stderr, "unknown command %q\n\n%s", cmd.name, usage)
		return command{}, errUsage
	}

	fs := flag.NewFlagSet(cmd.name, flag.ContinueOnError)
	fs.SetOutput(stderr)
	fs.StringVar(&cmd.configPath, "config", "", "path to the YAML configuration file")
	if err := fs.Parse(args[1:]); err != nil {
		return command{}, err
	}
	if fs.NArg() > 0 {
		fmt.Fprintf(stderr, "unexpected arguments: %v\n", fs.Args())
		return command{}, errUsage
	}
	return cmd, nil
}

func main() {
	os.Exit(run(os.Args[1:]))
}

func run(args []string) int {
	cmd, err := parseCommand(args, os.Stderr)
	if errors.Is(err, flag.ErrHelp) {
		return exitOK
	}
	if err != nil {
		return exitUsage
	}

	if cmd.configPath != "" {
		if err := os.Setenv(config.ConfigPathEnvVar, cmd.configPath); err != nil {
			logging.Error().Err(err).Msg("Failed to set config path")
			return exitFailure
		}
	}

	cfg, err := config.Load()
	if err != nil {
		logging.Error().Err(err).Msg("Failed to load configuration")
		return exitFailure
	}

	logging.Init(logging.Config{
		Level:     cfg.Logging.Level,
		Format:    cfg.Logging.Format,
		Caller:    cfg.Logging.Caller,
		Timestamp: true,
	})

	if cmd.name != string(pipeline.ModeTransform) {
		if err := cfg.ValidateForCollection(); err != nil {
			logging.Error().Err(err).Msg("Configuration cannot collect from the catalog")
			return exitFailure
		}
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	app, err := newApp(ctx, cfg)
	if err != nil {
		logging.Error().Err(err).Msg("Failed to initialize")
		return exitFailure
	}
	defer app.Close()

	if cmd.name == "serve" {
		if err := app.serve(ctx); err != nil && !errors.Is(err, context.Canceled) {
			logging.Error().Err(err).Msg("Supervisor stopped with error")
			return exitFailure
		}
		return exitOK
	}

	summary, err := app.runner.Run(ctx, pipeline.Mode(cmd.name))
	if err != nil {
		logging.Error().Err(err).Msg("Run aborted")
		return exitFailure
	}
	if summary.Failed() {
		return exitFailure
	}
	return exitOK
}
