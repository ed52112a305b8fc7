// Reelcast - Movie Rating Feature Pipeline
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/reelcast

// Package preprocess turns raw collections into model-ready tables:
// cleaning, feature engineering, temporal splitting and encoding.
//
// Every stage consumes and produces a typed record slice and reports its
// record flow in a models.StageReport. Fit parameters are produced once by
// Encoder.Fit on the train partition of the primary dataset and are passed
// explicitly to every Transform call.
package preprocess

import (
	"errors"
	"fmt"
)

// ErrMalformedCollection is returned when a raw collection document cannot
// be decoded into records.
var ErrMalformedCollection = errors.New("malformed raw collection")

// ErrEmptyPartition is returned when cleaning or splitting leaves a dataset
// or one of its partitions without records.
var ErrEmptyPartition = errors.New("empty partition")

// ErrIncompatibleParameters is returned when fit parameters lack a column
// the current feature schema needs.
var ErrIncompatibleParameters = errors.New("fit parameters do not match feature schema")

// LeakageGuardViolation is returned when parameters are about to be fitted on
// anything but the train partition of the primary dataset.
type LeakageGuardViolation struct {
	Dataset string
	Role    Role
}

func (e *LeakageGuardViolation) Error() string {
	return fmt.Sprintf("refusing to fit parameters on %s partition of dataset %q", e.Role, e.Dataset)
}
