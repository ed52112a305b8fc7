// Reelcast - Movie Rating Feature Pipeline
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/reelcast

package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/tomtom215/reelcast/internal/validation"
)

// knownColumns are the raw record columns a dataset may require or screen
// for outliers.
var knownColumns = map[string]bool{
	"id":                true,
	"title":             true,
	"release_date":      true,
	"genre_ids":         true,
	"original_language": true,
	"popularity":        true,
	"vote_average":      true,
	"vote_count":        true,
	"overview":          true,
	"poster_path":       true,
	"backdrop_path":     true,
	"adult":             true,
}

// outlierColumns are the columns the IQR rule may be applied to.
// vote_average is the prediction target and is never screened.
var outlierColumns = map[string]bool{
	"popularity": true,
	"vote_count": true,
}

var validLogLevels = map[string]bool{
	"trace": true, "debug": true, "info": true, "warn": true, "error": true,
}

var validLogFormats = map[string]bool{
	"json": true, "console": true,
}

// ErrMissingAPIKey is returned when a command needs the catalog but no key is configured.
var ErrMissingAPIKey = errors.New("TMDB_API_KEY is required to collect from the catalog")

// Validate checks that configuration is present and consistent.
func (c *Config) Validate() error {
	if err := validation.ValidateStruct(c); err != nil {
		return err
	}
	if err := c.validateColumns(); err != nil {
		return err
	}
	if err := c.validateDatasets(); err != nil {
		return err
	}
	if err := c.validateOptionalSinks(); err != nil {
		return err
	}
	if _, err := c.ReferenceTime(time.Now()); err != nil {
		return err
	}
	return c.validateLogging()
}

// ValidateForCollection checks the settings only needed when pages are fetched.
func (c *Config) ValidateForCollection() error {
	if strings.TrimSpace(c.Catalog.APIKey) == "" {
		return ErrMissingAPIKey
	}
	return nil
}

func (c *Config) validateColumns() error {
	for _, col := range c.Cleaning.RequiredColumns {
		if !knownColumns[col] {
			return fmt.Errorf("cleaning.required_columns: unknown column %q", col)
		}
	}
	for _, col := range c.Cleaning.OutlierColumns {
		if !outlierColumns[col] {
			return fmt.Errorf("cleaning.outlier_columns: %q cannot be screened for outliers", col)
		}
	}
	return nil
}

func (c *Config) validateDatasets() error {
	if _, ok := c.Dataset(c.Pipeline.PrimaryDataset); !ok {
		return fmt.Errorf("pipeline.primary_dataset %q is not a configured dataset", c.Pipeline.PrimaryDataset)
	}

	seen := make(map[string]bool, len(c.Datasets))
	for _, ds := range c.Datasets {
		if seen[ds.Name] {
			return fmt.Errorf("datasets: duplicate dataset name %q", ds.Name)
		}
		seen[ds.Name] = true

		for _, col := range ds.RequiredColumns {
			if !knownColumns[col] {
				return fmt.Errorf("datasets.%s.required_columns: unknown column %q", ds.Name, col)
			}
		}

		if ds.Name == c.Pipeline.PrimaryDataset {
			if ds.Auxiliary {
				return fmt.Errorf("datasets.%s: the primary dataset cannot be auxiliary", ds.Name)
			}
		} else if !ds.Auxiliary {
			return fmt.Errorf("datasets.%s: only the primary dataset %q may be split; mark it auxiliary",
				ds.Name, c.Pipeline.PrimaryDataset)
		}
	}
	return nil
}

func (c *Config) validateOptionalSinks() error {
	if c.Cache.Backend == "badger" && c.Cache.Path == "" {
		return fmt.Errorf("cache.path is required when cache.backend=badger")
	}
	if c.Warehouse.Enabled && c.Warehouse.Path == "" {
		return fmt.Errorf("warehouse.path is required when warehouse.enabled=true")
	}
	if c.Events.Enabled && (c.Events.NATSURL == "" || c.Events.Subject == "") {
		return fmt.Errorf("events.nats_url and events.subject are required when events.enabled=true")
	}
	if c.Metrics.Enabled && c.Metrics.Addr == "" {
		return fmt.Errorf("metrics.addr is required when metrics.enabled=true")
	}
	return nil
}

func (c *Config) validateLogging() error {
	if !validLogLevels[c.Logging.Level] {
		return fmt.Errorf("LOG_LEVEL must be one of: trace, debug, info, warn, error")
	}
	if c.Logging.Format != "" && !validLogFormats[c.Logging.Format] {
		return fmt.Errorf("LOG_FORMAT must be one of: json, console")
	}
	return nil
}
