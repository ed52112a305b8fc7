// Reelcast - Movie Rating Feature Pipeline
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/reelcast

// Package models defines the records that flow through the pipeline and the
// documents it persists: raw collections, cleaned, engineered and encoded
// records, fit parameters, the feature manifest and run summaries.
package models
