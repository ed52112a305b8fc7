// Reelcast - Movie Rating Feature Pipeline
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/reelcast

package catalog

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"net/url"
	"sync/atomic"
	"testing"
	"time"

	"github.com/tomtom215/reelcast/internal/config"
	"github.com/tomtom215/reelcast/internal/pagecache"
)

func testCatalogConfig(baseURL string) *config.CatalogConfig {
	return &config.CatalogConfig{
		BaseURL:             baseURL,
		APIKey:              "test-key",
		Language:            "ko-KR",
		Region:              "KR",
		Timeout:             5 * time.Second,
		RequestInterval:     0,
		MaxAttempts:         4,
		RetryBaseDelay:      time.Millisecond,
		RetryMaxDelay:       10 * time.Millisecond,
		BreakerFailureRatio: 0.5,
		BreakerMinRequests:  2,
		BreakerTimeout:      time.Minute,
	}
}

func pageBody(page int, ids ...int) string {
	results := ""
	for i, id := range ids {
		if i > 0 {
			results += ","
		}
		results += fmt.Sprintf(`{"id":%d,"title":"Movie %d","release_date":"2020-01-0%d","genre_ids":[18],"original_language":"en","popularity":10.5,"vote_average":7.1,"vote_count":120}`, id, id, i%9+1)
	}
	return fmt.Sprintf(`{"page":%d,"total_pages":5,"total_results":100,"results":[%s]}`, page, results)
}

func TestClient_FetchPage(t *testing.T) {
	var gotQuery atomic.Value
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/3/movie/popular" {
			t.Errorf("unexpected path %s", r.URL.Path)
		}
		gotQuery.Store(r.URL.Query())
		_, _ = w.Write([]byte(pageBody(2, 11, 12)))
	}))
	defer server.Close()

	client := NewClient(testCatalogConfig(server.URL+"/3/movie"), nil, nil)
	page, err := client.FetchPage(context.Background(), "popular", 2)
	if err != nil {
		t.Fatalf("FetchPage() error = %v", err)
	}
	if len(page.Results) != 2 || page.Results[0].ID != 11 {
		t.Fatalf("unexpected results %+v", page.Results)
	}
	if page.Attempts != 1 || page.FromCache {
		t.Errorf("Attempts = %d, FromCache = %v", page.Attempts, page.FromCache)
	}

	q := gotQuery.Load().(url.Values)
	for key, want := range map[string]string{"api_key": "test-key", "language": "ko-KR", "region": "KR", "page": "2"} {
		if got := q[key]; len(got) != 1 || got[0] != want {
			t.Errorf("query %s = %v, want %s", key, got, want)
		}
	}
}

func TestClient_RetriesTransientFailures(t *testing.T) {
	var calls atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		switch calls.Add(1) {
		case 1:
			w.WriteHeader(http.StatusTooManyRequests)
		case 2:
			w.WriteHeader(http.StatusBadGateway)
		default:
			_, _ = w.Write([]byte(pageBody(1, 1)))
		}
	}))
	defer server.Close()

	client := NewClient(testCatalogConfig(server.URL), nil, nil)
	page, err := client.FetchPage(context.Background(), "popular", 1)
	if err != nil {
		t.Fatalf("FetchPage() error = %v", err)
	}
	if page.Attempts != 3 || calls.Load() != 3 {
		t.Errorf("Attempts = %d, server calls = %d, want 3", page.Attempts, calls.Load())
	}
}

func TestClient_FetchErrors(t *testing.T) {
	tests := []struct {
		name          string
		status        int
		body          string
		wantAttempts  int
		wantStatus    int
		wantRetryable bool
		wantErr       error
	}{
		{"retry ceiling on 503", http.StatusServiceUnavailable, "down", 4, 503, true, ErrServerError},
		{"retry ceiling on 429", http.StatusTooManyRequests, "", 4, 429, true, ErrRateLimited},
		{"permanent 401", http.StatusUnauthorized, `{"status_message":"Invalid API key"}`, 1, 401, false, ErrUnexpectedStatus},
		{"malformed page", http.StatusOK, `{"page":1,`, 1, 200, false, ErrMalformedPage},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var calls atomic.Int32
			server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
				calls.Add(1)
				w.WriteHeader(tt.status)
				_, _ = w.Write([]byte(tt.body))
			}))
			defer server.Close()

			client := NewClient(testCatalogConfig(server.URL), nil, nil)
			page, err := client.FetchPage(context.Background(), "upcoming", 3)
			if page != nil {
				t.Fatal("a failed fetch must not return partial data")
			}

			var fe *FetchError
			if !errors.As(err, &fe) {
				t.Fatalf("expected *FetchError, got %T: %v", err, err)
			}
			if fe.Attempts != tt.wantAttempts || int(calls.Load()) != tt.wantAttempts {
				t.Errorf("Attempts = %d (server saw %d), want %d", fe.Attempts, calls.Load(), tt.wantAttempts)
			}
			if fe.StatusCode != tt.wantStatus {
				t.Errorf("StatusCode = %d, want %d", fe.StatusCode, tt.wantStatus)
			}
			if fe.Retryable() != tt.wantRetryable {
				t.Errorf("Retryable() = %v, want %v", fe.Retryable(), tt.wantRetryable)
			}
			if !errors.Is(err, tt.wantErr) {
				t.Errorf("expected errors.Is(%v)", tt.wantErr)
			}
			if fe.Endpoint != "upcoming" || fe.Page != 3 {
				t.Errorf("error identifies %s page %d", fe.Endpoint, fe.Page)
			}
		})
	}
}

func TestClient_NetworkFailure(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(http.ResponseWriter, *http.Request) {}))
	url := server.URL
	server.Close()

	client := NewClient(testCatalogConfig(url), nil, nil)
	_, err := client.FetchPage(context.Background(), "popular", 1)

	var fe *FetchError
	if !errors.As(err, &fe) {
		t.Fatalf("expected *FetchError, got %v", err)
	}
	if fe.StatusCode != 0 || fe.Attempts != 4 || !fe.Retryable() {
		t.Errorf("unexpected error %+v", fe)
	}
}

func TestClient_CancelDuringBackoff(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Retry-After", "30")
		w.WriteHeader(http.StatusTooManyRequests)
	}))
	defer server.Close()

	cfg := testCatalogConfig(server.URL)
	cfg.RetryMaxDelay = time.Minute
	client := NewClient(cfg, nil, nil)

	ctx, cancel := context.WithTimeout(context.Background(), 100*time.Millisecond)
	defer cancel()

	start := time.Now()
	_, err := client.FetchPage(ctx, "popular", 1)
	if !errors.Is(err, context.DeadlineExceeded) {
		t.Fatalf("expected deadline exceeded, got %v", err)
	}
	if elapsed := time.Since(start); elapsed > 5*time.Second {
		t.Errorf("backoff did not observe cancellation (took %v)", elapsed)
	}
}

func TestClient_PageCache(t *testing.T) {
	var calls atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		calls.Add(1)
		_, _ = w.Write([]byte(pageBody(1, 5, 6, 7)))
	}))
	defer server.Close()

	store := pagecache.NewMemoryStore(time.Hour)
	client := NewClient(testCatalogConfig(server.URL), nil, store)

	first, err := client.FetchPage(context.Background(), "popular", 1)
	if err != nil {
		t.Fatal(err)
	}
	second, err := client.FetchPage(context.Background(), "popular", 1)
	if err != nil {
		t.Fatal(err)
	}

	if calls.Load() != 1 {
		t.Errorf("server calls = %d, want 1", calls.Load())
	}
	if first.FromCache || !second.FromCache || second.Attempts != 0 {
		t.Errorf("cache flags: first=%v second=%v attempts=%d", first.FromCache, second.FromCache, second.Attempts)
	}
	if len(second.Results) != 3 {
		t.Errorf("cached page has %d results", len(second.Results))
	}
}

func TestClient_Backoff(t *testing.T) {
	c := &Client{baseDelay: time.Second, maxDelay: 16 * time.Second}

	tests := []struct {
		attempt    int
		retryAfter time.Duration
		want       time.Duration
	}{
		{1, 0, time.Second},
		{2, 0, 2 * time.Second},
		{4, 0, 8 * time.Second},
		{6, 0, 16 * time.Second},
		{1, 3 * time.Second, 3 * time.Second},
		{1, time.Hour, 16 * time.Second},
	}
	for _, tt := range tests {
		if got := c.backoff(tt.attempt, tt.retryAfter); got != tt.want {
			t.Errorf("backoff(%d, %v) = %v, want %v", tt.attempt, tt.retryAfter, got, tt.want)
		}
	}
}

func TestParseRetryAfter(t *testing.T) {
	tests := map[string]time.Duration{
		"":                              0,
		"5":                             5 * time.Second,
		" 2 ":                           2 * time.Second,
		"-1":                            0,
		"Wed, 21 Oct 2015 07:28:00 GMT": 0,
	}
	for in, want := range tests {
		if got := parseRetryAfter(in); got != want {
			t.Errorf("parseRetryAfter(%q) = %v, want %v", in, got, want)
		}
	}
}
