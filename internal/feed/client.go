// Package feed fetches and normalizes the ANP vessel movement feed: an
// HTTP GET returning a JSON array of movement records in the vendor's WCF
// serialization.
package feed

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/cenkalti/backoff/v4"
)

// ErrFetch wraps any transport failure that survived the retry budget.
// Callers abort the cycle on it without mutating state.
var ErrFetch = errors.New("feed fetch failed")

// ClientConfig bounds the fetch: per-request timeout plus a bounded
// exponential-backoff retry budget.
type ClientConfig struct {
	URL             string
	Timeout         time.Duration
	MaxRetries      uint64
	InitialInterval time.Duration
}

// Client fetches the movement feed with bounded retries.
type Client struct {
	httpClient *http.Client
	url        string
	newBackoff func() backoff.BackOff
	logger     *slog.Logger
}

// NewClient creates a feed client. The backoff policy is rebuilt per fetch
// so retry state never leaks across cycles.
func NewClient(cfg ClientConfig, logger *slog.Logger) *Client {
	initial := cfg.InitialInterval
	if initial <= 0 {
		initial = time.Second
	}
	return &Client{
		httpClient: &http.Client{Timeout: cfg.Timeout},
		url:        cfg.URL,
		newBackoff: func() backoff.BackOff {
			bo := backoff.NewExponentialBackOff()
			bo.InitialInterval = initial
			return backoff.WithMaxRetries(bo, cfg.MaxRetries)
		},
		logger: logger.With("component", "feed_client"),
	}
}

// Fetch retrieves the full movement batch. Network errors, non-200
// responses and non-array bodies are all retried with backoff; once the
// budget is exhausted the error wraps ErrFetch.
func (c *Client) Fetch(ctx context.Context) ([]RawRecord, error) {
	var records []RawRecord
	attempt := 0

	op := func() error {
		attempt++
		recs, err := c.fetchOnce(ctx)
		if err != nil {
			c.logger.Warn("fetch_attempt_failed", "attempt", attempt, "error", err)
			return err
		}
		records = recs
		return nil
	}

	if err := backoff.Retry(op, backoff.WithContext(c.newBackoff(), ctx)); err != nil {
		return nil, fmt.Errorf("%w after %d attempts: %v", ErrFetch, attempt, err)
	}

	c.logger.Info("feed_fetched", "records", len(records), "attempts", attempt)
	return records, nil
}

func (c *Client) fetchOnce(ctx context.Context) ([]RawRecord, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.url, nil)
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("unexpected status %d", resp.StatusCode)
	}

	var records []RawRecord
	if err := json.NewDecoder(resp.Body).Decode(&records); err != nil {
		return nil, fmt.Errorf("decode feed body: %w", err)
	}
	return records, nil
}
