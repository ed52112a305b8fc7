// Reelcast - Movie Rating Feature Pipeline
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/reelcast

package catalog

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/goccy/go-json"

	"github.com/tomtom215/reelcast/internal/config"
	"github.com/tomtom215/reelcast/internal/logging"
	"github.com/tomtom215/reelcast/internal/metrics"
	"github.com/tomtom215/reelcast/internal/pagecache"
)

// maxErrorBodySize limits how much of an error response is kept for diagnostics.
const maxErrorBodySize = 64 * 1024

// maxPageBodySize bounds a successful page body; listing pages are ~20 records.
const maxPageBodySize = 8 << 20

// readBodyForError reads at most maxErrorBodySize bytes of an error body.
func readBodyForError(r io.Reader) string {
	body, err := io.ReadAll(io.LimitReader(r, maxErrorBodySize))
	if err != nil {
		return "(failed to read response body)"
	}
	return strings.TrimSpace(string(body))
}

// Client talks to the catalog listing endpoints.
//
// Every HTTP attempt goes through the shared Throttle. Rate limiting (429),
// server errors (5xx) and network failures are retried with exponential
// backoff (base, 2*base, 4*base, ... capped at maxDelay) up to maxAttempts
// attempts; a Retry-After header overrides the computed delay.
type Client struct {
	baseURL     string
	apiKey      string
	language    string
	region      string
	client      *http.Client
	throttle    *Throttle
	cache       pagecache.Store
	maxAttempts int
	baseDelay   time.Duration
	maxDelay    time.Duration
}

// NewClient creates a catalog client. cache may be nil.
func NewClient(cfg *config.CatalogConfig, throttle *Throttle, cache pagecache.Store) *Client {
	if throttle == nil {
		throttle = NewThrottle(cfg.RequestInterval, cfg.RequestsPerSecond)
	}
	return &Client{
		baseURL:  strings.TrimRight(cfg.BaseURL, "/"),
		apiKey:   cfg.APIKey,
		language: cfg.Language,
		region:   cfg.Region,
		client: &http.Client{
			Timeout: cfg.Timeout,
		},
		throttle:    throttle,
		cache:       cache,
		maxAttempts: cfg.MaxAttempts,
		baseDelay:   cfg.RetryBaseDelay,
		maxDelay:    cfg.RetryMaxDelay,
	}
}

// FetchPage implements Fetcher.
func (c *Client) FetchPage(ctx context.Context, endpoint string, page int) (*Page, error) {
	key := pagecache.Key(endpoint, c.language, c.region, page)
	if p := c.cachedPage(ctx, key); p != nil {
		return p, nil
	}

	body, attempts, err := c.fetchWithRetry(ctx, endpoint, page)
	if err != nil {
		return nil, err
	}

	p, err := decodePage(body)
	if err != nil {
		return nil, &FetchError{Endpoint: endpoint, Page: page, Attempts: attempts, StatusCode: http.StatusOK, Err: err}
	}
	p.Attempts = attempts

	if c.cache != nil {
		if err := c.cache.Set(ctx, key, body); err != nil {
			logging.Ctx(ctx).Warn().Err(err).Str("key", key).Msg("Failed to cache catalog page")
		}
	}
	return p, nil
}

func (c *Client) cachedPage(ctx context.Context, key string) *Page {
	if c.cache == nil {
		return nil
	}
	body, ok, err := c.cache.Get(ctx, key)
	if err != nil {
		logging.Ctx(ctx).Warn().Err(err).Str("key", key).Msg("Page cache read failed")
	}
	metrics.RecordPageCache(c.cache.Backend(), ok)
	if !ok {
		return nil
	}
	p, err := decodePage(body)
	if err != nil {
		logging.Ctx(ctx).Warn().Err(err).Str("key", key).Msg("Discarding undecodable cached page")
		return nil
	}
	p.FromCache = true
	return p
}

func decodePage(body []byte) (*Page, error) {
	var p Page
	if err := json.Unmarshal(body, &p); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformedPage, err)
	}
	if p.Results == nil {
		return nil, fmt.Errorf("%w: missing results", ErrMalformedPage)
	}
	return &p, nil
}

// pageURL builds <base>/<endpoint>?api_key=..&language=..&region=..&page=N.
func (c *Client) pageURL(endpoint string, page int) string {
	params := url.Values{}
	params.Set("api_key", c.apiKey)
	if c.language != "" {
		params.Set("language", c.language)
	}
	if c.region != "" {
		params.Set("region", c.region)
	}
	params.Set("page", strconv.Itoa(page))
	return fmt.Sprintf("%s/%s?%s", c.baseURL, url.PathEscape(endpoint), params.Encode())
}

// attemptResult is the outcome of a single HTTP attempt.
type attemptResult struct {
	body       []byte
	status     int
	retryAfter time.Duration
	err        error
}

func (r attemptResult) retryable() bool {
	return r.err != nil && !errors.Is(r.err, ErrUnexpectedStatus)
}

// fetchWithRetry performs the request loop and returns the raw body of a 200
// response together with the number of attempts spent.
func (c *Client) fetchWithRetry(ctx context.Context, endpoint string, page int) ([]byte, int, error) {
	reqURL := c.pageURL(endpoint, page)
	var last attemptResult
	attempts := 0

	for attempts < c.maxAttempts {
		release, err := c.throttle.Acquire(ctx)
		if err != nil {
			return nil, attempts, err
		}
		attempts++
		start := time.Now()
		last = c.doOnce(ctx, reqURL)
		release()

		if last.err == nil {
			metrics.RecordCatalogAttempt(endpoint, "success", time.Since(start))
			return last.body, attempts, nil
		}
		if ctxErr := ctx.Err(); ctxErr != nil {
			return nil, attempts, ctxErr
		}
		if !last.retryable() || attempts == c.maxAttempts {
			metrics.RecordCatalogAttempt(endpoint, "failed", time.Since(start))
			break
		}
		metrics.RecordCatalogAttempt(endpoint, "retry", time.Since(start))

		delay := c.backoff(attempts, last.retryAfter)
		logging.Ctx(ctx).Warn().
			Err(last.err).
			Str("endpoint", endpoint).
			Int("page", page).
			Int("attempt", attempts).
			Dur("delay", delay).
			Msg("Catalog request failed, retrying")

		timer := time.NewTimer(delay)
		select {
		case <-timer.C:
		case <-ctx.Done():
			timer.Stop()
			return nil, attempts, ctx.Err()
		}
	}

	return nil, attempts, &FetchError{
		Endpoint:   endpoint,
		Page:       page,
		Attempts:   attempts,
		StatusCode: last.status,
		Err:        last.err,
	}
}

// backoff returns base * 2^(attempt-1) capped at maxDelay, or the server's
// Retry-After hint when present (also capped).
func (c *Client) backoff(attempt int, retryAfter time.Duration) time.Duration {
	delay := c.baseDelay << uint(attempt-1) //nolint:gosec // attempt is bounded by maxAttempts
	if retryAfter > 0 {
		delay = retryAfter
	}
	if c.maxDelay > 0 && (delay > c.maxDelay || delay <= 0) {
		delay = c.maxDelay
	}
	return delay
}

func (c *Client) doOnce(ctx context.Context, reqURL string) attemptResult {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, http.NoBody)
	if err != nil {
		return attemptResult{err: fmt.Errorf("%w: build request: %v", ErrUnexpectedStatus, err)}
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.client.Do(req)
	if err != nil {
		return attemptResult{err: fmt.Errorf("HTTP request failed: %w", err)}
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusOK:
		body, err := io.ReadAll(io.LimitReader(resp.Body, maxPageBodySize))
		if err != nil {
			return attemptResult{status: resp.StatusCode, err: fmt.Errorf("read body: %w", err)}
		}
		return attemptResult{body: body, status: resp.StatusCode}
	case resp.StatusCode == http.StatusTooManyRequests:
		_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, maxErrorBodySize))
		return attemptResult{
			status:     resp.StatusCode,
			retryAfter: parseRetryAfter(resp.Header.Get("Retry-After")),
			err:        ErrRateLimited,
		}
	case resp.StatusCode >= http.StatusInternalServerError:
		return attemptResult{
			status:     resp.StatusCode,
			retryAfter: parseRetryAfter(resp.Header.Get("Retry-After")),
			err:        fmt.Errorf("%w: %s", ErrServerError, readBodyForError(resp.Body)),
		}
	default:
		return attemptResult{
			status: resp.StatusCode,
			err:    fmt.Errorf("%w %d: %s", ErrUnexpectedStatus, resp.StatusCode, readBodyForError(resp.Body)),
		}
	}
}

// parseRetryAfter understands the delay-seconds form of Retry-After (RFC 9110).
func parseRetryAfter(v string) time.Duration {
	if v == "" {
		return 0
	}
	seconds, err := strconv.Atoi(strings.TrimSpace(v))
	if err != nil || seconds < 0 {
		return 0
	}
	return time.Duration(seconds) * time.Second
}
