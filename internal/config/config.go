// Reelcast - Movie Rating Feature Pipeline
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/reelcast

// Package config loads and validates the pipeline configuration.
//
// Configuration is layered with Koanf v2:
//  1. Defaults: built into defaultConfig()
//  2. Config File: optional YAML file (reelcast.yaml or CONFIG_PATH)
//  3. Environment Variables: mapped explicitly in envTransformFunc
//
// The resulting Config is validated once and treated as immutable afterwards;
// it is safe for concurrent read access.
package config

import (
	"fmt"
	"time"
)

// Dataset filters applied by the collector after deduplication.
const (
	FilterNone            = ""
	FilterRatedUpcoming   = "rated_upcoming"
	FilterUnratedUpcoming = "unrated_upcoming"
)

// Config holds every pipeline option.
type Config struct {
	Catalog   CatalogConfig   `koanf:"catalog"`
	Cache     CacheConfig     `koanf:"cache"`
	Cleaning  CleaningConfig  `koanf:"cleaning"`
	Split     SplitConfig     `koanf:"split"`
	Pipeline  PipelineConfig  `koanf:"pipeline"`
	Datasets  []DatasetConfig `koanf:"datasets" validate:"min=1,dive"`
	Warehouse WarehouseConfig `koanf:"warehouse"`
	Events    EventsConfig    `koanf:"events"`
	Metrics   MetricsConfig   `koanf:"metrics"`
	Logging   LoggingConfig   `koanf:"logging"`
}

// CatalogConfig configures access to the movie catalog API.
type CatalogConfig struct {
	BaseURL  string        `koanf:"base_url" validate:"required,url"`
	APIKey   string        `koanf:"api_key"`
	Language string        `koanf:"language"`
	Region   string        `koanf:"region"`
	Timeout  time.Duration `koanf:"timeout" validate:"gt=0"`

	// RequestInterval is the minimum delay between the return of one request
	// and the start of the next.
	RequestInterval time.Duration `koanf:"request_interval" validate:"gte=0"`

	// RequestsPerSecond caps the request rate shared by every dataset of a
	// run. Zero disables the shared budget.
	RequestsPerSecond float64 `koanf:"requests_per_second" validate:"gte=0"`

	MaxAttempts    int           `koanf:"max_attempts" validate:"min=1,max=20"`
	RetryBaseDelay time.Duration `koanf:"retry_base_delay" validate:"gt=0"`
	RetryMaxDelay  time.Duration `koanf:"retry_max_delay" validate:"gtefield=RetryBaseDelay"`

	BreakerEnabled      bool          `koanf:"breaker_enabled"`
	BreakerFailureRatio float64       `koanf:"breaker_failure_ratio" validate:"gt=0,lte=1"`
	BreakerMinRequests  uint32        `koanf:"breaker_min_requests" validate:"min=1"`
	BreakerTimeout      time.Duration `koanf:"breaker_timeout" validate:"gt=0"`
}

// CacheConfig configures the fetched-page cache.
type CacheConfig struct {
	Backend string        `koanf:"backend" validate:"oneof=none memory badger"`
	Path    string        `koanf:"path"`
	TTL     time.Duration `koanf:"ttl" validate:"gte=0"`
}

// CleaningConfig configures the cleaning stage.
type CleaningConfig struct {
	RequiredColumns   []string `koanf:"required_columns" validate:"min=1"`
	OutlierColumns    []string `koanf:"outlier_columns"`
	OutlierMultiplier float64  `koanf:"outlier_multiplier" validate:"gt=0"`
	OutlierMinRecords int      `koanf:"outlier_min_records" validate:"min=4"`
}

// SplitConfig selects the temporal cutoff policy. A non-zero YearThreshold
// takes precedence over TestFraction.
type SplitConfig struct {
	TestFraction  float64 `koanf:"test_fraction" validate:"gt=0,lt=1"`
	YearThreshold int     `koanf:"year_threshold" validate:"gte=0"`
}

// PipelineConfig configures run orchestration and artifact output.
type PipelineConfig struct {
	OutputDir      string `koanf:"output_dir" validate:"required"`
	PrimaryDataset string `koanf:"primary_dataset" validate:"required"`
	Parallelism    int    `koanf:"parallelism" validate:"min=1,max=16"`

	// ReferenceTime pins "now" for future-release filters and movie_age
	// (RFC3339). Empty means the wall clock at run start.
	ReferenceTime string `koanf:"reference_time"`

	ScheduleInterval time.Duration `koanf:"schedule_interval" validate:"gte=0"`

	// RunTimeout bounds each scheduled run in serve mode. Zero means no bound.
	RunTimeout time.Duration `koanf:"run_timeout" validate:"gte=0"`
}

// DatasetConfig describes one named dataset variant.
type DatasetConfig struct {
	Name      string `koanf:"name" validate:"required"`
	Endpoint  string `koanf:"endpoint" validate:"oneof=popular upcoming top_rated now_playing"`
	StartPage int    `koanf:"start_page" validate:"min=1,max=500"`
	EndPage   int    `koanf:"end_page" validate:"gtefield=StartPage,max=500"`
	Filter    string `koanf:"filter" validate:"omitempty,oneof=rated_upcoming unrated_upcoming"`

	// MaxRecords caps the collection after filtering. Zero means no cap.
	MaxRecords int `koanf:"max_records" validate:"gte=0"`

	// RequiredColumns overrides cleaning.required_columns when non-empty.
	RequiredColumns []string `koanf:"required_columns"`

	MinVoteCount int  `koanf:"min_vote_count" validate:"gte=0"`
	Auxiliary    bool `koanf:"auxiliary"`
}

// WarehouseConfig configures the optional DuckDB sink.
type WarehouseConfig struct {
	Enabled bool   `koanf:"enabled"`
	Path    string `koanf:"path"`
}

// EventsConfig configures artifact-ready notifications over NATS.
type EventsConfig struct {
	Enabled bool   `koanf:"enabled"`
	NATSURL string `koanf:"nats_url"`
	Subject string `koanf:"subject"`
}

// MetricsConfig configures the Prometheus endpoint of serve mode.
type MetricsConfig struct {
	Enabled bool   `koanf:"enabled"`
	Addr    string `koanf:"addr"`
}

// LoggingConfig holds logging configuration.
type LoggingConfig struct {
	Level  string `koanf:"level"`
	Format string `koanf:"format"`
	Caller bool   `koanf:"caller"`
}

// Load loads the configuration from defaults, file and environment.
func Load() (*Config, error) {
	return LoadWithKoanf()
}

// Dataset returns the dataset configuration with the given name.
func (c *Config) Dataset(name string) (DatasetConfig, bool) {
	for _, ds := range c.Datasets {
		if ds.Name == name {
			return ds, true
		}
	}
	return DatasetConfig{}, false
}

// ReferenceTime returns the pinned reference time, or now when unset.
func (c *Config) ReferenceTime(now time.Time) (time.Time, error) {
	if c.Pipeline.ReferenceTime == "" {
		return now, nil
	}
	t, err := time.Parse(time.RFC3339, c.Pipeline.ReferenceTime)
	if err != nil {
		return time.Time{}, fmt.Errorf("pipeline.reference_time: %w", err)
	}
	return t, nil
}

// RequiredColumnsFor returns the required columns effective for ds.
func (c *Config) RequiredColumnsFor(ds DatasetConfig) []string {
	if len(ds.RequiredColumns) > 0 {
		return ds.RequiredColumns
	}
	return c.Cleaning.RequiredColumns
}
