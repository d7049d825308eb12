package provider

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"golang.org/x/time/rate"

	"ashare-data-collector/pkg/logger"
)

// Config holds the AKTools gateway settings.
type Config struct {
	BaseURL             string
	Timeout             time.Duration
	MaxRequestPerMinute int
	RetryCount          int
	RetryDelay          time.Duration
}

// Client queries an AKTools HTTP gateway, which exposes the AKShare query
// functions under /api/public/<name>. Every call is rate limited and
// retried with a fixed delay; all failures are treated as retryable.
type Client struct {
	cfg            Config
	log            *logger.Logger
	httpClient     *http.Client
	requestLimiter *rate.Limiter

	// sleep is swappable so tests do not wait out real retry delays.
	sleep func(time.Duration)
}

// NewClient creates a provider client.
func NewClient(cfg Config, log *logger.Logger) *Client {
	if cfg.Timeout <= 0 {
		cfg.Timeout = 30 * time.Second
	}
	if cfg.MaxRequestPerMinute <= 0 {
		cfg.MaxRequestPerMinute = 60
	}
	if cfg.RetryCount <= 0 {
		cfg.RetryCount = 3
	}
	if cfg.RetryDelay <= 0 {
		cfg.RetryDelay = 5 * time.Second
	}

	secondsPerRequest := time.Minute / time.Duration(cfg.MaxRequestPerMinute)
	return &Client{
		cfg: cfg,
		log: log,
		httpClient: &http.Client{
			Timeout: cfg.Timeout,
		},
		requestLimiter: rate.NewLimiter(rate.Every(secondsPerRequest), 1),
		sleep:          time.Sleep,
	}
}

// fetchWithRetry performs the query, retrying up to the configured count
// with a fixed delay between attempts. The policy is deliberately blunt:
// rate-limit, network and malformed-response errors are retried alike.
func (c *Client) fetchWithRetry(ctx context.Context, endpoint string, params url.Values) ([]Row, error) {
	var lastErr error
	for attempt := 1; attempt <= c.cfg.RetryCount; attempt++ {
		rows, err := c.fetch(ctx, endpoint, params)
		if err == nil {
			return rows, nil
		}
		lastErr = err
		c.log.Warn("provider request failed",
			logger.StringField("endpoint", endpoint),
			logger.IntField("attempt", attempt),
			logger.ErrorField(err),
		)
		if attempt < c.cfg.RetryCount {
			c.sleep(c.cfg.RetryDelay)
		}
	}
	return nil, fmt.Errorf("provider request %s failed after %d attempts: %w",
		endpoint, c.cfg.RetryCount, lastErr)
}

func (c *Client) fetch(ctx context.Context, endpoint string, params url.Values) ([]Row, error) {
	if err := c.requestLimiter.Wait(ctx); err != nil {
		return nil, fmt.Errorf("rate limiter wait: %w", err)
	}

	reqURL := fmt.Sprintf("%s/api/public/%s", c.cfg.BaseURL, endpoint)
	if len(params) > 0 {
		reqURL += "?" + params.Encode()
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to execute request: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read response body: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("provider returned status %d: %s", resp.StatusCode, truncate(body, 256))
	}

	var rows []Row
	if err := json.Unmarshal(body, &rows); err != nil {
		return nil, fmt.Errorf("failed to decode response: %w", err)
	}

	return rows, nil
}

func truncate(b []byte, n int) string {
	if len(b) <= n {
		return string(b)
	}
	return string(b[:n]) + "..."
}
