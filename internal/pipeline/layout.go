// Reelcast - Movie Rating Feature Pipeline
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/reelcast

package pipeline

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/goccy/go-json"

	"github.com/tomtom215/reelcast/internal/collect"
	"github.com/tomtom215/reelcast/internal/fsutil"
	"github.com/tomtom215/reelcast/internal/models"
	"github.com/tomtom215/reelcast/internal/preprocess"
)

// Artifact file names under the output directory.
const (
	ProcessedDir = "processed"
	ParamsFile   = "params.json"
	ManifestFile = "feature_manifest.json"
	SummaryFile  = "run_summary.json"
)

// Layout resolves artifact paths under one output directory.
type Layout struct {
	root string
}

// NewLayout creates a layout rooted at dir.
func NewLayout(dir string) Layout {
	return Layout{root: dir}
}

// Root returns the output directory.
func (l Layout) Root() string { return l.root }

// Raw returns the raw collection path of dataset.
func (l Layout) Raw(dataset string) string { return collect.RawPath(l.root, dataset) }

// Cleaned returns the cleaned table path of dataset.
func (l Layout) Cleaned(dataset string) string {
	return filepath.Join(l.root, ProcessedDir, dataset+"_cleaned.csv")
}

// Engineered returns the engineered table path of dataset.
func (l Layout) Engineered(dataset string) string {
	return filepath.Join(l.root, ProcessedDir, dataset+"_engineered.csv")
}

// Table returns the encoded table path of one partition of dataset.
func (l Layout) Table(dataset string, role preprocess.Role) string {
	return filepath.Join(l.root, ProcessedDir, fmt.Sprintf("%s_%s.csv", dataset, role))
}

// Params returns the fit parameter path.
func (l Layout) Params() string { return filepath.Join(l.root, ParamsFile) }

// Manifest returns the feature manifest path.
func (l Layout) Manifest() string { return filepath.Join(l.root, ManifestFile) }

// Summary returns the run summary path.
func (l Layout) Summary() string { return filepath.Join(l.root, SummaryFile) }

// Rel returns path relative to the output directory for reporting.
func (l Layout) Rel(path string) string {
	rel, err := filepath.Rel(l.root, path)
	if err != nil {
		return path
	}
	return filepath.ToSlash(rel)
}

// LoadParams reads persisted fit parameters.
func LoadParams(path string) (*models.FitParameters, error) {
	data, err := os.ReadFile(filepath.Clean(path))
	if err != nil {
		return nil, err
	}
	var params models.FitParameters
	if err := json.Unmarshal(data, &params); err != nil {
		return nil, fmt.Errorf("decode fit parameters: %w", err)
	}
	return &params, nil
}

// LoadManifest reads a persisted feature manifest.
func LoadManifest(path string) (*models.FeatureManifest, error) {
	data, err := os.ReadFile(filepath.Clean(path))
	if err != nil {
		return nil, err
	}
	var manifest models.FeatureManifest
	if err := json.Unmarshal(data, &manifest); err != nil {
		return nil, fmt.Errorf("decode feature manifest: %w", err)
	}
	return &manifest, nil
}

func writeJSON(path string, v any) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Errorf("encode %s: %w", filepath.Base(path), err)
	}
	return fsutil.WriteBytes(path, data)
}

// tableName maps a dataset partition to a warehouse table name.
func tableName(dataset string, role preprocess.Role) string {
	var b strings.Builder
	for _, r := range strings.ToLower(dataset + "_" + string(role)) {
		if (r >= 'a' && r <= 'z') || (r >= '0' && r <= '9') || r == '_' {
			b.WriteRune(r)
		} else {
			b.WriteByte('_')
		}
	}
	name := b.String()
	if name[0] >= '0' && name[0] <= '9' {
		name = "t_" + name
	}
	return name
}
