// Reelcast - Movie Rating Feature Pipeline
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/reelcast

package preprocess

import (
	"encoding/csv"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/tomtom215/reelcast/internal/fsutil"
	"github.com/tomtom215/reelcast/internal/models"
)

var cleanedHeader = []string{
	"id", "title", "release_date", "genre_ids", "original_language", "popularity",
	"vote_average", "vote_count", "overview", "poster_path", "backdrop_path", "adult",
}

var engineeredScalarHeader = []string{
	"id", "title", "vote_average", "is_rated", "popularity", "vote_count",
	"has_release_date", "release_year", "release_month", "release_quarter", "movie_age",
	"is_spring_release", "is_summer_release", "is_holiday_release",
	"primary_genre", "genre_count", "original_language", "is_english", "is_korean", "is_non_english",
	"log_popularity", "log_vote_count", "vote_efficiency",
	"title_length", "title_word_count", "overview_length",
	"has_overview", "has_poster", "has_backdrop", "is_adult",
}

// WriteCleanedCSV writes cleaned records with catalog column names. Absent
// optional values are empty cells; genre codes are joined with '|'.
func WriteCleanedCSV(path string, records []models.CleanedRecord) error {
	return writeCSVFile(path, func(w *csv.Writer) error {
		if err := w.Write(cleanedHeader); err != nil {
			return err
		}
		for i := range records {
			r := &records[i]
			genres := make([]string, len(r.GenreIDs))
			for j, g := range r.GenreIDs {
				genres[j] = strconv.Itoa(g)
			}
			row := []string{
				strconv.FormatInt(r.ID, 10),
				r.Title,
				optString(r.ReleaseDate),
				strings.Join(genres, "|"),
				r.OriginalLanguage,
				optFloat(r.Popularity),
				optFloat(r.VoteAverage),
				optInt(r.VoteCount),
				optString(r.Overview),
				optString(r.PosterPath),
				optString(r.BackdropPath),
				strconv.FormatBool(r.Adult),
			}
			if err := w.Write(row); err != nil {
				return err
			}
		}
		return nil
	})
}

// WriteEngineeredCSV writes engineered records before imputation and
// encoding, with one is_<genre> column per vocabulary entry.
func WriteEngineeredCSV(path string, records []models.EngineeredRecord) error {
	header := append([]string(nil), engineeredScalarHeader...)
	for _, g := range models.GenreVocabulary {
		header = append(header, "is_"+g.Name)
	}

	return writeCSVFile(path, func(w *csv.Writer) error {
		if err := w.Write(header); err != nil {
			return err
		}
		for i := range records {
			r := &records[i]
			row := []string{
				strconv.FormatInt(r.ID, 10),
				r.Title,
				formatFloat(r.VoteAverage),
				flag(r.IsRated),
				optFloat(r.Popularity),
				optFloat(r.VoteCount),
				flag(r.HasReleaseDate),
				strconv.Itoa(r.ReleaseYear),
				strconv.Itoa(r.ReleaseMonth),
				strconv.Itoa(r.ReleaseQuarter),
				strconv.Itoa(r.MovieAge),
				flag(r.IsSpringRelease),
				flag(r.IsSummerRelease),
				flag(r.IsHolidayRelease),
				r.PrimaryGenre,
				strconv.Itoa(r.GenreCount),
				r.OriginalLanguage,
				flag(r.IsEnglish),
				flag(r.IsKorean),
				flag(r.IsNonEnglish),
				formatFloat(r.LogPopularity),
				formatFloat(r.LogVoteCount),
				formatFloat(r.VoteEfficiency),
				strconv.Itoa(r.TitleLength),
				strconv.Itoa(r.TitleWordCount),
				strconv.Itoa(r.OverviewLength),
				flag(r.HasOverview),
				flag(r.HasPoster),
				flag(r.HasBackdrop),
				flag(r.IsAdult),
			}
			for _, g := range r.Genres {
				row = append(row, flag(g))
			}
			if err := w.Write(row); err != nil {
				return err
			}
		}
		return nil
	})
}

// WriteEncodedCSV writes a processed table in manifest column order.
func WriteEncodedCSV(path string, manifest *models.FeatureManifest, records []models.EncodedRecord) error {
	header := manifest.Header()
	return writeCSVFile(path, func(w *csv.Writer) error {
		if err := w.Write(header); err != nil {
			return err
		}
		for i := range records {
			r := &records[i]
			if len(r.Features) != len(manifest.Features) {
				return fmt.Errorf("record %d has %d features, manifest lists %d", r.ID, len(r.Features), len(manifest.Features))
			}
			row := make([]string, 0, len(header))
			row = append(row, strconv.FormatInt(r.ID, 10))
			for _, v := range r.Features {
				row = append(row, formatFloat(v))
			}
			row = append(row, formatFloat(r.Target))
			if manifest.RatedColumn != "" {
				row = append(row, flag(r.IsRated))
			}
			if err := w.Write(row); err != nil {
				return err
			}
		}
		return nil
	})
}

// ReadEncodedCSV reads a processed table back; it is the inverse of
// WriteEncodedCSV for the given manifest.
func ReadEncodedCSV(r io.Reader, manifest *models.FeatureManifest) ([]models.EncodedRecord, error) {
	rows, err := csv.NewReader(r).ReadAll()
	if err != nil {
		return nil, err
	}
	if len(rows) == 0 {
		return nil, fmt.Errorf("empty table")
	}
	header := manifest.Header()
	if strings.Join(rows[0], ",") != strings.Join(header, ",") {
		return nil, fmt.Errorf("table header does not match manifest")
	}

	n := len(manifest.Features)
	out := make([]models.EncodedRecord, 0, len(rows)-1)
	for line, row := range rows[1:] {
		id, err := strconv.ParseInt(row[0], 10, 64)
		if err != nil {
			return nil, fmt.Errorf("line %d: id: %w", line+2, err)
		}
		rec := models.EncodedRecord{ID: id, Features: make([]float64, n)}
		for j := 0; j < n; j++ {
			if rec.Features[j], err = strconv.ParseFloat(row[1+j], 64); err != nil {
				return nil, fmt.Errorf("line %d: %s: %w", line+2, manifest.Features[j], err)
			}
		}
		if rec.Target, err = strconv.ParseFloat(row[1+n], 64); err != nil {
			return nil, fmt.Errorf("line %d: target: %w", line+2, err)
		}
		if manifest.RatedColumn != "" {
			rec.IsRated = row[2+n] == "1"
		}
		out = append(out, rec)
	}
	return out, nil
}

func writeCSVFile(path string, write func(*csv.Writer) error) error {
	return fsutil.WriteFile(path, func(out io.Writer) error {
		w := csv.NewWriter(out)
		if err := write(w); err != nil {
			return err
		}
		w.Flush()
		return w.Error()
	})
}

func formatFloat(v float64) string { return strconv.FormatFloat(v, 'g', -1, 64) }

func flag(b bool) string {
	if b {
		return "1"
	}
	return "0"
}

func optString(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}

func optFloat(f *float64) string {
	if f == nil {
		return ""
	}
	return formatFloat(*f)
}

func optInt(i *int64) string {
	if i == nil {
		return ""
	}
	return strconv.FormatInt(*i, 10)
}
