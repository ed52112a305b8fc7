// Reelcast - Movie Rating Feature Pipeline
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/reelcast

package preprocess

import (
	"bytes"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/goccy/go-json"

	"github.com/tomtom215/reelcast/internal/models"
)

// LoadCollection reads a raw collection document from path.
func LoadCollection(path string) (*models.RawCollection, error) {
	f, err := os.Open(filepath.Clean(path))
	if err != nil {
		return nil, fmt.Errorf("open raw collection: %w", err)
	}
	defer f.Close()
	return DecodeCollection(f)
}

// DecodeCollection decodes a raw collection document. A document without a
// movies array, or with records that do not match the catalog schema, is
// malformed.
func DecodeCollection(r io.Reader) (*models.RawCollection, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("read raw collection: %w", err)
	}

	var envelope struct {
		Movies json.RawMessage `json:"movies"`
	}
	if err := json.Unmarshal(data, &envelope); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformedCollection, err)
	}
	if len(envelope.Movies) == 0 || bytes.Equal(envelope.Movies, []byte("null")) {
		return nil, fmt.Errorf("%w: missing movies array", ErrMalformedCollection)
	}

	var coll models.RawCollection
	if err := json.Unmarshal(data, &coll); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformedCollection, err)
	}
	return &coll, nil
}
