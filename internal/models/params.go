// Reelcast - Movie Rating Feature Pipeline
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/reelcast

package models

import (
	"sort"
	"time"
)

// MissingCategory is the sentinel for absent categorical values. It is part
// of every fitted vocabulary so unseen values have a code to map to.
const MissingCategory = "missing"

// ScaleColumn holds the fitted statistics of one numeric feature.
type ScaleColumn struct {
	Name   string  `json:"name"`
	Mean   float64 `json:"mean"`
	Std    float64 `json:"std"`
	Median float64 `json:"median"`
}

// ScalingParameters are the per-feature standardization statistics.
type ScalingParameters struct {
	Columns []ScaleColumn `json:"columns"`
}

// Column returns the statistics for name.
func (p ScalingParameters) Column(name string) (ScaleColumn, bool) {
	for _, c := range p.Columns {
		if c.Name == name {
			return c, true
		}
	}
	return ScaleColumn{}, false
}

// CategoryColumn maps the categories of one feature to integer codes.
type CategoryColumn struct {
	Name       string         `json:"name"`
	Categories map[string]int `json:"categories"`
}

// Code returns the code of value, falling back to the MissingCategory code.
func (c CategoryColumn) Code(value string) int {
	if value == "" {
		return c.Categories[MissingCategory]
	}
	if code, ok := c.Categories[value]; ok {
		return code
	}
	return c.Categories[MissingCategory]
}

// Labels returns the categories ordered by code.
func (c CategoryColumn) Labels() []string {
	labels := make([]string, 0, len(c.Categories))
	for label := range c.Categories {
		labels = append(labels, label)
	}
	sort.Slice(labels, func(i, j int) bool { return c.Categories[labels[i]] < c.Categories[labels[j]] })
	return labels
}

// EncodingParameters are the per-feature category vocabularies.
type EncodingParameters struct {
	Columns []CategoryColumn `json:"columns"`
}

// Column returns the vocabulary for name.
func (p EncodingParameters) Column(name string) (CategoryColumn, bool) {
	for _, c := range p.Columns {
		if c.Name == name {
			return c, true
		}
	}
	return CategoryColumn{}, false
}

// PopularityTiers are the popularity quintile labels, lowest first.
var PopularityTiers = []string{"very_low", "low", "medium", "high", "very_high"}

// BinColumn holds the fitted quantile bins of one numeric feature. Edges
// are the inner upper bounds, so there is one more label than edges.
type BinColumn struct {
	Name   string    `json:"name"`
	Edges  []float64 `json:"edges"`
	Labels []string  `json:"labels"`
}

// Label returns the label of the first bin whose upper edge is at least v.
// Values above every edge fall into the last bin.
func (c BinColumn) Label(v float64) string {
	for i, edge := range c.Edges {
		if v <= edge {
			return c.Labels[i]
		}
	}
	return c.Labels[len(c.Labels)-1]
}

// BinningParameters are the per-feature quantile bins.
type BinningParameters struct {
	Columns []BinColumn `json:"columns"`
}

// Column returns the bins for name.
func (p BinningParameters) Column(name string) (BinColumn, bool) {
	for _, c := range p.Columns {
		if c.Name == name {
			return c, true
		}
	}
	return BinColumn{}, false
}

// FitParameters bundles everything fitted on the training partition of the
// primary dataset. A value is created once by the encoder and then only
// read; transforms never modify it.
type FitParameters struct {
	FittedOn string             `json:"fitted_on"`
	FittedAt time.Time          `json:"fitted_at"`
	Rows     int                `json:"rows"`
	Scaling  ScalingParameters  `json:"scaling"`
	Encoding EncodingParameters `json:"encoding"`
	Binning  BinningParameters  `json:"binning"`
}
