// Reelcast - Movie Rating Feature Pipeline
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/reelcast

package collect

import (
	"fmt"
	"path/filepath"

	"github.com/goccy/go-json"

	"github.com/tomtom215/reelcast/internal/fsutil"
	"github.com/tomtom215/reelcast/internal/models"
)

// RawDir is the artifact subdirectory holding raw collections.
const RawDir = "raw"

// RawPath returns the raw collection path of dataset under outputDir.
func RawPath(outputDir, dataset string) string {
	return filepath.Join(outputDir, RawDir, dataset+".json")
}

// WriteCollection atomically persists coll as an indented JSON document.
func WriteCollection(path string, coll *models.RawCollection) error {
	data, err := json.MarshalIndent(coll, "", "  ")
	if err != nil {
		return fmt.Errorf("encode raw collection %s: %w", coll.Dataset, err)
	}

	if err := fsutil.WriteBytes(path, data); err != nil {
		return fmt.Errorf("persist raw collection %s: %w", coll.Dataset, err)
	}
	return nil
}
