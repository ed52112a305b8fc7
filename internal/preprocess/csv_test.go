// Reelcast - Movie Rating Feature Pipeline
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/reelcast

package preprocess

import (
	"encoding/csv"
	"os"
	"path/filepath"
	"reflect"
	"strings"
	"testing"

	"github.com/tomtom215/reelcast/internal/models"
)

func readCSV(t *testing.T, path string) [][]string {
	t.Helper()
	f, err := os.Open(filepath.Clean(path))
	if err != nil {
		t.Fatal(err)
	}
	defer f.Close()
	rows, err := csv.NewReader(f).ReadAll()
	if err != nil {
		t.Fatal(err)
	}
	return rows
}

func TestWriteEncodedCSV(t *testing.T) {
	records := engineered(rawMovie(1, 2018, 10, 6, 100), rawMovie(2, 2019, 20, 0, 0))
	encoded, _, err := NewEncoder("popular").FitTransform(trainPartition(records))
	if err != nil {
		t.Fatal(err)
	}
	manifest := NewManifest("run-1", reference)
	path := filepath.Join(t.TempDir(), "processed", "popular_full.csv")

	if err := WriteEncodedCSV(path, manifest, encoded); err != nil {
		t.Fatalf("WriteEncodedCSV() error = %v", err)
	}

	rows := readCSV(t, path)
	if !reflect.DeepEqual(rows[0], manifest.Header()) {
		t.Fatalf("header %v", rows[0])
	}
	if rows[0][0] != "id" || rows[0][len(rows[0])-2] != "vote_average" || rows[0][len(rows[0])-1] != "is_rated" {
		t.Errorf("header must be id, features, target, rated flag: %v", rows[0])
	}
	if rows[2][len(rows[2])-1] != "0" {
		t.Error("unrated row should carry is_rated=0")
	}

	f, err := os.Open(filepath.Clean(path))
	if err != nil {
		t.Fatal(err)
	}
	defer f.Close()
	back, err := ReadEncodedCSV(f, manifest)
	if err != nil {
		t.Fatalf("ReadEncodedCSV() error = %v", err)
	}
	for i := range encoded {
		if back[i].ID != encoded[i].ID || back[i].Target != encoded[i].Target || back[i].IsRated != encoded[i].IsRated {
			t.Errorf("row %d identity differs", i)
		}
		if !reflect.DeepEqual(back[i].Features, encoded[i].Features) {
			t.Errorf("row %d features differ after round trip", i)
		}
	}
}

func TestWriteCleanedAndEngineeredCSV(t *testing.T) {
	raw := rawMovie(5, 2020, 3.5, 7.1, 40)
	raw.Overview = strPtr("Line one, \"quoted\"\nline two")
	raw.PosterPath = nil
	cleaned := []models.CleanedRecord{*cleanedOf(raw)}

	dir := t.TempDir()
	cleanedPath := filepath.Join(dir, "popular_cleaned.csv")
	if err := WriteCleanedCSV(cleanedPath, cleaned); err != nil {
		t.Fatal(err)
	}
	rows := readCSV(t, cleanedPath)
	if len(rows) != 2 || len(rows[1]) != len(cleanedHeader) {
		t.Fatalf("rows %v", rows)
	}
	if rows[1][3] != "18|35" || rows[1][9] != "" || !strings.Contains(rows[1][8], "\n") {
		t.Errorf("unexpected cleaned row %q", rows[1])
	}

	engineeredPath := filepath.Join(dir, "popular_engineered.csv")
	out, _ := NewEngineer(reference).EngineerAll(cleaned)
	if err := WriteEngineeredCSV(engineeredPath, out); err != nil {
		t.Fatal(err)
	}
	rows = readCSV(t, engineeredPath)
	if want := len(engineeredScalarHeader) + models.NumGenres; len(rows[0]) != want || len(rows[1]) != want {
		t.Errorf("engineered width %d, want %d", len(rows[1]), want)
	}
	if leftovers, _ := filepath.Glob(filepath.Join(dir, "*.tmp")); len(leftovers) != 0 {
		t.Errorf("temporary files left behind: %v", leftovers)
	}
}
