// Package steam implements the community market price client and the
// conversion of its raw quotes into domain opportunities.
package steam

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"
	"sync"
	"time"

	"golang.org/x/sync/semaphore"
)

// DefaultBaseURL is the community market priceoverview endpoint.
const DefaultBaseURL = "https://steamcommunity.com/market/priceoverview/"

// CurrencyRUB is the numeric currency code for Russian rubles.
const CurrencyRUB = 5

// userAgent mimics a desktop browser; the endpoint throttles obvious bots
// harder.
const userAgent = "Mozilla/5.0 (X11; Linux x86_64) AppleWebKit/537.36 " +
	"(KHTML, like Gecko) Chrome/120.0.0.0 Safari/537.36"

// ClientConfig holds tunables for the market client. Zero values fall back to
// the documented defaults.
type ClientConfig struct {
	// BaseURL is the priceoverview endpoint; defaults to DefaultBaseURL.
	BaseURL string
	// Currency is the numeric currency code; defaults to CurrencyRUB.
	Currency int
	// MaxInFlight bounds concurrent requests process-wide; defaults to 3.
	MaxInFlight int64
	// Timeout is the per-request timeout; defaults to 10s.
	Timeout time.Duration

	// BaseDelay is the pause before every request; defaults to 1.2s.
	BaseDelay time.Duration
	// FailureDelayStep is added per consecutive failure; defaults to 800ms.
	FailureDelayStep time.Duration
	// MaxDelay caps the pre-request pause; defaults to 5s.
	MaxDelay time.Duration
	// RateLimitSleep is the cooldown after an HTTP 429; defaults to 60s.
	RateLimitSleep time.Duration
}

func (c *ClientConfig) applyDefaults() {
	if c.BaseURL == "" {
		c.BaseURL = DefaultBaseURL
	}
	if c.Currency == 0 {
		c.Currency = CurrencyRUB
	}
	if c.MaxInFlight <= 0 {
		c.MaxInFlight = 3
	}
	if c.Timeout <= 0 {
		c.Timeout = 10 * time.Second
	}
	if c.BaseDelay <= 0 {
		c.BaseDelay = 1200 * time.Millisecond
	}
	if c.FailureDelayStep <= 0 {
		c.FailureDelayStep = 800 * time.Millisecond
	}
	if c.MaxDelay <= 0 {
		c.MaxDelay = 5 * time.Second
	}
	if c.RateLimitSleep <= 0 {
		c.RateLimitSleep = 60 * time.Second
	}
}

// Client fetches price quotes for single items under a global concurrency
// bound and adaptive pacing. Every failure mode degrades to "no data" so one
// bad item never aborts a watchlist pass; the consecutive-failure counter
// stretches the pre-request delay and resets on the first success.
type Client struct {
	cfg        ClientConfig
	sem        *semaphore.Weighted
	httpClient *http.Client
	logger     *slog.Logger

	mu       sync.Mutex
	failures int
}

// NewClient creates a market client that owns one persistent HTTP session.
// Call Close when done to release its connections.
func NewClient(cfg ClientConfig, logger *slog.Logger) *Client {
	cfg.applyDefaults()
	return &Client{
		cfg: cfg,
		sem: semaphore.NewWeighted(cfg.MaxInFlight),
		httpClient: &http.Client{
			Timeout: cfg.Timeout,
		},
		logger: logger.With(slog.String("component", "steam_client")),
	}
}

// Fetch returns the raw priceoverview quote for one item, or nil when no
// usable data could be obtained. It never returns an error: HTTP failures,
// rate limiting, malformed bodies, and vendor-reported failures are all
// logged and mapped to nil so the caller can skip the item and continue.
func (c *Client) Fetch(ctx context.Context, appID int, marketHashName string) *PriceOverview {
	if err := c.sem.Acquire(ctx, 1); err != nil {
		return nil
	}
	defer c.sem.Release(1)

	// Mandatory pacing; the endpoint is sensitive.
	if !sleepCtx(ctx, c.pacingDelay()) {
		return nil
	}

	params := url.Values{}
	params.Set("appid", strconv.Itoa(appID))
	params.Set("currency", strconv.Itoa(c.cfg.Currency))
	params.Set("market_hash_name", marketHashName)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet,
		c.cfg.BaseURL+"?"+params.Encode(), nil)
	if err != nil {
		c.recordFailure()
		c.logger.Warn("build request failed",
			slog.String("item", marketHashName),
			slog.String("error", err.Error()),
		)
		return nil
	}
	req.Header.Set("User-Agent", userAgent)
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		c.recordFailure()
		c.logger.Warn("network error",
			slog.String("item", marketHashName),
			slog.String("method", http.MethodGet),
			slog.String("url", c.cfg.BaseURL),
			slog.String("error", err.Error()),
		)
		return nil
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusTooManyRequests {
		// Throttling signal, not a data-quality failure: back off hard but
		// leave the failure counter alone.
		c.logger.Warn("rate limited, backing off",
			slog.String("item", marketHashName),
			slog.Duration("sleep", c.cfg.RateLimitSleep),
		)
		sleepCtx(ctx, c.cfg.RateLimitSleep)
		return nil
	}

	if resp.StatusCode != http.StatusOK {
		c.recordFailure()
		c.logger.Warn("unexpected status",
			slog.String("item", marketHashName),
			slog.Int("status", resp.StatusCode),
		)
		return nil
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, 1<<16))
	if err != nil {
		c.recordFailure()
		c.logger.Warn("read body failed",
			slog.String("item", marketHashName),
			slog.String("error", err.Error()),
		)
		return nil
	}

	var quote PriceOverview
	if err := json.Unmarshal(body, &quote); err != nil {
		c.recordFailure()
		c.logger.Warn("invalid JSON",
			slog.String("item", marketHashName),
			slog.String("error", err.Error()),
		)
		return nil
	}

	if !quote.Success {
		c.recordFailure()
		c.logger.Warn("vendor reported failure",
			slog.String("item", marketHashName),
		)
		return nil
	}

	c.resetFailures()
	return &quote
}

// Close releases the client's persistent connections. Safe to call on all
// shutdown paths, including cancellation.
func (c *Client) Close() {
	c.httpClient.CloseIdleConnections()
}

// Failures returns the current consecutive-failure count.
func (c *Client) Failures() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.failures
}

// pacingDelay computes min(MaxDelay, BaseDelay + failures*FailureDelayStep).
func (c *Client) pacingDelay() time.Duration {
	c.mu.Lock()
	failures := c.failures
	c.mu.Unlock()

	d := c.cfg.BaseDelay + time.Duration(failures)*c.cfg.FailureDelayStep
	if d > c.cfg.MaxDelay {
		d = c.cfg.MaxDelay
	}
	return d
}

func (c *Client) recordFailure() {
	c.mu.Lock()
	c.failures++
	c.mu.Unlock()
}

func (c *Client) resetFailures() {
	c.mu.Lock()
	c.failures = 0
	c.mu.Unlock()
}

// sleepCtx pauses for d, returning false if the context is cancelled first.
func sleepCtx(ctx context.Context, d time.Duration) bool {
	if d <= 0 {
		return ctx.Err() == nil
	}
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return false
	case <-timer.C:
		return true
	}
}
