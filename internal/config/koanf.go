// Reelcast - Movie Rating Feature Pipeline
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/reelcast

package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/providers/structs"
	"github.com/knadh/koanf/v2"
)

// DefaultConfigPaths lists the paths where config files are searched in order of priority.
var DefaultConfigPaths = []string{
	"reelcast.yaml",
	"reelcast.yml",
	"/etc/reelcast/config.yaml",
	"/etc/reelcast/config.yml",
}

// ConfigPathEnvVar is the environment variable that can override the config file path.
const ConfigPathEnvVar = "CONFIG_PATH"

// DefaultBaseURL is the movie collection root of the public catalog API.
const DefaultBaseURL = "https://api.themoviedb.org/3/movie"

// defaultDatasets mirrors the historical collection plan: one primary
// training dataset and three evaluation-only variants.
func defaultDatasets() []DatasetConfig {
	return []DatasetConfig{
		{
			Name:      "popular",
			Endpoint:  "popular",
			StartPage: 1,
			EndPage:   50,
		},
		{
			Name:      "test_popular_extended",
			Endpoint:  "popular",
			StartPage: 21,
			EndPage:   30,
			Auxiliary: true,
		},
		{
			Name:       "test_upcoming_rated",
			Endpoint:   "upcoming",
			StartPage:  1,
			EndPage:    5,
			Filter:     FilterRatedUpcoming,
			MaxRecords: 100,
			Auxiliary:  true,
		},
		{
			Name:            "test_upcoming_unrated",
			Endpoint:        "upcoming",
			StartPage:       1,
			EndPage:         5,
			Filter:          FilterUnratedUpcoming,
			MaxRecords:      50,
			RequiredColumns: []string{"id", "title"},
			Auxiliary:       true,
		},
	}
}

// defaultConfig returns a Config struct with all default values.
func defaultConfig() *Config {
	return &Config{
		Catalog: CatalogConfig{
			BaseURL:             DefaultBaseURL,
			Language:            "ko-KR",
			Region:              "KR",
			Timeout:             30 * time.Second,
			RequestInterval:     400 * time.Millisecond,
			RequestsPerSecond:   0,
			MaxAttempts:         5,
			RetryBaseDelay:      time.Second,
			RetryMaxDelay:       16 * time.Second,
			BreakerEnabled:      true,
			BreakerFailureRatio: 0.6,
			BreakerMinRequests:  10,
			BreakerTimeout:      2 * time.Minute,
		},
		Cache: CacheConfig{
			Backend: "memory",
			Path:    "./result/cache",
			TTL:     6 * time.Hour,
		},
		Cleaning: CleaningConfig{
			RequiredColumns:   []string{"id", "title", "release_date", "vote_average", "vote_count", "popularity"},
			OutlierColumns:    []string{"popularity", "vote_count"},
			OutlierMultiplier: 1.5,
			OutlierMinRecords: 4,
		},
		Split: SplitConfig{
			TestFraction:  0.2,
			YearThreshold: 0,
		},
		Pipeline: PipelineConfig{
			OutputDir:        "./result",
			PrimaryDataset:   "popular",
			Parallelism:      2,
			ScheduleInterval: 24 * time.Hour,
		},
		Datasets: defaultDatasets(),
		Warehouse: WarehouseConfig{
			Enabled: false,
			Path:    "./result/reelcast.duckdb",
		},
		Events: EventsConfig{
			Enabled: false,
			NATSURL: "nats://127.0.0.1:4222",
			Subject: "reelcast.artifacts",
		},
		Metrics: MetricsConfig{
			Enabled: true,
			Addr:    ":9464",
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "json",
		},
	}
}

// LoadWithKoanf loads configuration using Koanf with layered sources:
//  1. Defaults
//  2. Config File (optional)
//  3. Environment Variables
//
// The result is validated before it is returned.
func LoadWithKoanf() (*Config, error) {
	k := koanf.New(".")

	if err := k.Load(structs.Provider(defaultConfig(), "koanf"), nil); err != nil {
		return nil, fmt.Errorf("failed to load defaults: %w", err)
	}

	if configPath := findConfigFile(); configPath != "" {
		if err := k.Load(file.Provider(configPath), yaml.Parser()); err != nil {
			return nil, fmt.Errorf("failed to load config file %s: %w", configPath, err)
		}
	}

	// TMDB_API_KEY -> catalog.api_key, OUTPUT_DIR -> pipeline.output_dir
	if err := k.Load(env.Provider("", ".", envTransformFunc), nil); err != nil {
		return nil, fmt.Errorf("failed to load environment variables: %w", err)
	}

	if err := processSliceFields(k); err != nil {
		return nil, fmt.Errorf("failed to process slice fields: %w", err)
	}

	cfg := &Config{}
	if err := k.Unmarshal("", cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal configuration: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}
	return cfg, nil
}

// findConfigFile returns the first config file found, or "" if none exists.
func findConfigFile() string {
	if envPath := os.Getenv(ConfigPathEnvVar); envPath != "" {
		if _, err := os.Stat(envPath); err == nil {
			return envPath
		}
	}
	for _, path := range DefaultConfigPaths {
		if _, err := os.Stat(path); err == nil {
			return path
		}
	}
	return ""
}

// sliceConfigPaths lists the keys parsed as comma-separated lists when they
// arrive as strings from the environment.
var sliceConfigPaths = []string{
	"cleaning.required_columns",
	"cleaning.outlier_columns",
}

func processSliceFields(k *koanf.Koanf) error {
	for _, path := range sliceConfigPaths {
		strVal, ok := k.Get(path).(string)
		if !ok || strVal == "" {
			continue
		}
		parts := strings.Split(strVal, ",")
		trimmed := make([]string, 0, len(parts))
		for _, p := range parts {
			if p = strings.TrimSpace(p); p != "" {
				trimmed = append(trimmed, p)
			}
		}
		if len(trimmed) == 0 {
			continue
		}
		if err := k.Set(path, trimmed); err != nil {
			return fmt.Errorf("failed to set %s: %w", path, err)
		}
	}
	return nil
}

// envMappings maps environment variable names (lowercased) to koanf paths.
var envMappings = map[string]string{
	"tmdb_api_key":             "catalog.api_key",
	"tmdb_base_url":            "catalog.base_url",
	"tmdb_language":            "catalog.language",
	"tmdb_region":              "catalog.region",
	"tmdb_timeout":             "catalog.timeout",
	"tmdb_request_interval":    "catalog.request_interval",
	"tmdb_requests_per_second": "catalog.requests_per_second",
	"tmdb_max_attempts":        "catalog.max_attempts",
	"tmdb_retry_base_delay":    "catalog.retry_base_delay",
	"tmdb_retry_max_delay":     "catalog.retry_max_delay",
	"tmdb_breaker_enabled":     "catalog.breaker_enabled",

	"cache_backend": "cache.backend",
	"cache_path":    "cache.path",
	"cache_ttl":     "cache.ttl",

	"required_columns":    "cleaning.required_columns",
	"outlier_columns":     "cleaning.outlier_columns",
	"outlier_multiplier":  "cleaning.outlier_multiplier",
	"outlier_min_records": "cleaning.outlier_min_records",

	"split_test_fraction":  "split.test_fraction",
	"split_year_threshold": "split.year_threshold",

	"output_dir":        "pipeline.output_dir",
	"primary_dataset":   "pipeline.primary_dataset",
	"parallelism":       "pipeline.parallelism",
	"reference_time":    "pipeline.reference_time",
	"schedule_interval": "pipeline.schedule_interval",
	"run_timeout":       "pipeline.run_timeout",

	"warehouse_enabled": "warehouse.enabled",
	"duckdb_path":       "warehouse.path",

	"events_enabled": "events.enabled",
	"nats_url":       "events.nats_url",
	"events_subject": "events.subject",

	"metrics_enabled": "metrics.enabled",
	"metrics_addr":    "metrics.addr",

	"log_level":  "logging.level",
	"log_format": "logging.format",
	"log_caller": "logging.caller",
}

// envTransformFunc maps an environment variable name to its koanf path.
// Unmapped variables return "" and are skipped.
func envTransformFunc(key string) string {
	return envMappings[strings.ToLower(key)]
}
