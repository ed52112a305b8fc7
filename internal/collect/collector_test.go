// Reelcast - Movie Rating Feature Pipeline
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/reelcast

package collect

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/goccy/go-json"

	"github.com/tomtom215/reelcast/internal/catalog"
	"github.com/tomtom215/reelcast/internal/config"
	"github.com/tomtom215/reelcast/internal/models"
)

var reference = time.Date(2025, 7, 1, 0, 0, 0, 0, time.UTC)

type fakeFetcher struct {
	pages  map[int]*catalog.Page
	errs   map[int]error
	calls  []int
	onCall func(page int)
}

func (f *fakeFetcher) FetchPage(ctx context.Context, endpoint string, page int) (*catalog.Page, error) {
	f.calls = append(f.calls, page)
	if f.onCall != nil {
		f.onCall(page)
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if err, ok := f.errs[page]; ok {
		return nil, err
	}
	if p, ok := f.pages[page]; ok {
		return p, nil
	}
	return &catalog.Page{Page: page, TotalPages: 100, Attempts: 1}, nil
}

func movie(id int64, title, release string, avg float64, votes int64) models.RawMovieRecord {
	return models.RawMovieRecord{
		ID:          id,
		Title:       title,
		ReleaseDate: &release,
		VoteAverage: &avg,
		VoteCount:   &votes,
	}
}

func pageOf(n int, movies ...models.RawMovieRecord) *catalog.Page {
	return &catalog.Page{Page: n, TotalPages: 100, Results: movies, Attempts: 1}
}

func dataset(start, end int) config.DatasetConfig {
	return config.DatasetConfig{Name: "popular", Endpoint: "popular", StartPage: start, EndPage: end}
}

func TestCollect_LaterPageFailureDegrades(t *testing.T) {
	f := &fakeFetcher{
		pages: map[int]*catalog.Page{
			1: pageOf(1, movie(1, "A", "2020-01-01", 7, 10), movie(2, "B", "2021-01-01", 6, 5)),
			3: pageOf(3, movie(5, "E", "2019-05-01", 8, 50)),
		},
		errs: map[int]error{
			2: &catalog.FetchError{Endpoint: "popular", Page: 2, Attempts: 5, StatusCode: 503, Err: catalog.ErrServerError},
		},
	}

	res, err := NewCollector(f).Collect(context.Background(), dataset(1, 3), reference)
	if err != nil {
		t.Fatalf("Collect() error = %v", err)
	}
	coll := res.Collection
	if fmt.Sprint(coll.Pages) != "[1 3]" || fmt.Sprint(coll.FailedPages) != "[2]" {
		t.Errorf("Pages = %v, FailedPages = %v", coll.Pages, coll.FailedPages)
	}
	if coll.Count != 3 || len(coll.Movies) != 3 {
		t.Errorf("Count = %d, movies = %d", coll.Count, len(coll.Movies))
	}
	if res.Report.Dropped[string(models.DropPageFailed)] != 1 {
		t.Errorf("page failure not counted: %v", res.Report.Dropped)
	}
	if res.Fetch.PagesRequested != 3 || res.Fetch.PagesFetched != 2 || res.Fetch.Attempts != 7 {
		t.Errorf("unexpected fetch stats %+v", res.Fetch)
	}
	if coll.DataType != DataTypeTrain || coll.Partial {
		t.Errorf("DataType = %s, Partial = %v", coll.DataType, coll.Partial)
	}
}

func TestCollect_FirstPageFailureFailsDataset(t *testing.T) {
	fetchErr := &catalog.FetchError{Endpoint: "popular", Page: 4, Attempts: 5, Err: catalog.ErrRateLimited}
	f := &fakeFetcher{errs: map[int]error{4: fetchErr}}

	res, err := NewCollector(f).Collect(context.Background(), dataset(4, 6), reference)
	if res != nil {
		t.Fatal("expected no result")
	}
	if !errors.Is(err, ErrFirstPageFailed) {
		t.Fatalf("expected ErrFirstPageFailed, got %v", err)
	}
	var fe *catalog.FetchError
	if !errors.As(err, &fe) || fe.Page != 4 {
		t.Errorf("expected wrapped FetchError for page 4, got %v", err)
	}
	if len(f.calls) != 1 {
		t.Errorf("collector kept fetching after the first page failed: %v", f.calls)
	}
}

func TestCollect_DeduplicatesFirstWins(t *testing.T) {
	f := &fakeFetcher{
		pages: map[int]*catalog.Page{
			1: pageOf(1, movie(1, "first", "2020-01-01", 7, 10), movie(2, "B", "2020-01-01", 7, 10)),
			2: pageOf(2, movie(1, "second", "2020-01-01", 7, 10), movie(3, "C", "2020-01-01", 7, 10)),
		},
	}

	res, err := NewCollector(f).Collect(context.Background(), dataset(1, 2), reference)
	if err != nil {
		t.Fatal(err)
	}
	if res.Collection.Count != 3 {
		t.Fatalf("Count = %d, want 3", res.Collection.Count)
	}
	if res.Collection.Movies[0].Title != "first" {
		t.Errorf("later duplicate replaced the first one: %q", res.Collection.Movies[0].Title)
	}
	if res.Report.RowsIn != 4 || res.Report.Dropped[string(models.DropDuplicateID)] != 1 {
		t.Errorf("unexpected report %+v", res.Report)
	}
}

func TestCollect_StopsAtLastCatalogPage(t *testing.T) {
	f := &fakeFetcher{
		pages: map[int]*catalog.Page{
			1: {Page: 1, TotalPages: 2, Results: []models.RawMovieRecord{movie(1, "A", "2020-01-01", 7, 1)}},
			2: {Page: 2, TotalPages: 2, Results: []models.RawMovieRecord{movie(2, "B", "2020-01-01", 7, 1)}},
		},
	}
	res, err := NewCollector(f).Collect(context.Background(), dataset(1, 50), reference)
	if err != nil {
		t.Fatal(err)
	}
	if len(f.calls) != 2 || res.Collection.Count != 2 {
		t.Errorf("calls = %v, count = %d", f.calls, res.Collection.Count)
	}
}

func TestCollect_Filters(t *testing.T) {
	upcoming := pageOf(1,
		movie(1, "rated future", "2025-09-01", 7.5, 12),
		movie(2, "unrated future", "2025-09-01", 0, 0),
		movie(3, "rated past", "2025-01-01", 6.1, 40),
		movie(4, "rated future 2", "2025-08-01", 8.0, 3),
		movie(5, "votes but zero avg", "2025-10-01", 0, 2),
	)

	tests := []struct {
		name       string
		filter     string
		maxRecords int
		minVotes   int
		wantIDs    string
		wantDrops  map[string]int
	}{
		{"none", config.FilterNone, 0, 0, "[1 2 3 4 5]", nil},
		{"rated upcoming", config.FilterRatedUpcoming, 0, 0, "[1 4]", map[string]int{"filtered:rated_upcoming": 3}},
		{"rated upcoming capped", config.FilterRatedUpcoming, 1, 0, "[1]", map[string]int{"filtered:rated_upcoming": 3, "capped": 1}},
		{"unrated upcoming", config.FilterUnratedUpcoming, 0, 0, "[2 3 5]", map[string]int{"filtered:unrated_upcoming": 2}},
		{"unrated capped", config.FilterUnratedUpcoming, 2, 0, "[2 3]", map[string]int{"filtered:unrated_upcoming": 2, "capped": 1}},
		{"vote floor", config.FilterNone, 0, 10, "[1 3]", map[string]int{"below_min_votes": 3}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			page := *upcoming
			page.Results = append([]models.RawMovieRecord(nil), upcoming.Results...)
			f := &fakeFetcher{pages: map[int]*catalog.Page{1: &page}}

			ds := config.DatasetConfig{
				Name: "upcoming", Endpoint: "upcoming", StartPage: 1, EndPage: 1,
				Filter: tt.filter, MaxRecords: tt.maxRecords, MinVoteCount: tt.minVotes, Auxiliary: true,
			}
			res, err := NewCollector(f).Collect(context.Background(), ds, reference)
			if err != nil {
				t.Fatal(err)
			}

			ids := make([]int64, 0, len(res.Collection.Movies))
			for _, m := range res.Collection.Movies {
				ids = append(ids, m.ID)
			}
			if got := fmt.Sprint(ids); got != tt.wantIDs {
				t.Errorf("ids = %s, want %s", got, tt.wantIDs)
			}
			for reason, n := range tt.wantDrops {
				if res.Report.Dropped[reason] != n {
					t.Errorf("dropped[%s] = %d, want %d", reason, res.Report.Dropped[reason], n)
				}
			}
			if res.Collection.DataType != DataTypeTest {
				t.Errorf("auxiliary dataset DataType = %s", res.Collection.DataType)
			}
		})
	}
}

func TestCollect_CancellationKeepsCollectedPages(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	f := &fakeFetcher{
		pages: map[int]*catalog.Page{
			1: pageOf(1, movie(1, "A", "2020-01-01", 7, 10)),
			2: pageOf(2, movie(2, "B", "2020-01-01", 7, 10)),
		},
		onCall: func(page int) {
			if page == 2 {
				cancel()
			}
		},
	}

	res, err := NewCollector(f).Collect(ctx, dataset(1, 5), reference)
	if err != nil {
		t.Fatalf("Collect() error = %v", err)
	}
	if !res.Collection.Partial {
		t.Error("expected partial collection")
	}
	if fmt.Sprint(res.Collection.Pages) != "[1]" || res.Collection.Count != 1 {
		t.Errorf("Pages = %v, Count = %d", res.Collection.Pages, res.Collection.Count)
	}
	if len(res.Collection.FailedPages) != 0 {
		t.Errorf("cancelled page must not be reported as failed: %v", res.Collection.FailedPages)
	}
}

func TestCollect_WithCatalogClient(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Query().Get("page") {
		case "1":
			fmt.Fprint(w, `{"page":1,"total_pages":3,"results":[{"id":10,"title":"One","release_date":"2020-02-02","genre_ids":[18],"vote_average":7,"vote_count":9}]}`)
		case "2":
			w.WriteHeader(http.StatusServiceUnavailable)
		default:
			fmt.Fprint(w, `{"page":3,"total_pages":3,"results":[{"id":30,"title":"Three","release_date":"2021-03-03","genre_ids":[35],"vote_average":6,"vote_count":4}]}`)
		}
	}))
	defer server.Close()

	cfg := &config.CatalogConfig{
		BaseURL:        server.URL,
		APIKey:         "k",
		Timeout:        5 * time.Second,
		MaxAttempts:    3,
		RetryBaseDelay: time.Millisecond,
		RetryMaxDelay:  2 * time.Millisecond,
	}
	client := catalog.NewClient(cfg, catalog.NewThrottle(time.Millisecond, 0), nil)

	res, err := NewCollector(client).Collect(context.Background(), dataset(1, 3), reference)
	if err != nil {
		t.Fatalf("Collect() error = %v", err)
	}
	if fmt.Sprint(res.Collection.Pages) != "[1 3]" || fmt.Sprint(res.Collection.FailedPages) != "[2]" {
		t.Errorf("Pages = %v, FailedPages = %v", res.Collection.Pages, res.Collection.FailedPages)
	}
	if res.Collection.Movies[0].ID != 10 || res.Collection.Movies[1].ID != 30 {
		t.Errorf("unexpected movies %+v", res.Collection.Movies)
	}
	// 1 + 3 retries of page 2 + 1
	if res.Fetch.Attempts != 5 {
		t.Errorf("Attempts = %d, want 5", res.Fetch.Attempts)
	}
}

func TestWriteCollection(t *testing.T) {
	dir := t.TempDir()
	path := RawPath(dir, "popular")

	coll := &models.RawCollection{
		Dataset:     "popular",
		DataType:    DataTypeTrain,
		Endpoint:    "popular",
		Pages:       []int{1},
		Count:       1,
		CrawledDate: reference,
		Movies:      []models.RawMovieRecord{movie(7, "Seven", "1995-09-22", 8.3, 19000)},
	}
	if err := WriteCollection(path, coll); err != nil {
		t.Fatalf("WriteCollection() error = %v", err)
	}

	if leftovers, _ := filepath.Glob(filepath.Join(filepath.Dir(path), "*.tmp")); len(leftovers) != 0 {
		t.Errorf("temporary files left behind: %v", leftovers)
	}
	data, err := os.ReadFile(filepath.Clean(path))
	if err != nil {
		t.Fatal(err)
	}
	for _, key := range []string{`"dataset"`, `"data_type"`, `"crawled_date"`, `"count"`, `"movies"`, `"release_date"`} {
		if !strings.Contains(string(data), key) {
			t.Errorf("document lacks %s", key)
		}
	}

	var back models.RawCollection
	if err := json.Unmarshal(data, &back); err != nil {
		t.Fatal(err)
	}
	if back.Movies[0].ID != 7 || *back.Movies[0].ReleaseDate != "1995-09-22" {
		t.Errorf("unexpected round trip %+v", back.Movies[0])
	}
}
