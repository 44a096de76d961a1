// Package nhtsa implements the appraisal pipeline's evidence providers and
// vehicle identity resolver against the public NHTSA APIs.
package nhtsa

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"strconv"
	"strings"
	"time"

	lru "github.com/hashicorp/golang-lru/v2"
)

const (
	DefaultBaseURL     = "https://api.nhtsa.gov"
	DefaultVPICBaseURL = "https://vpic.nhtsa.dot.gov/api"

	defaultCacheSize = 256
	maxResponseBytes = 4 << 20
)

type Config struct {
	BaseURL     string
	VPICBaseURL string
	HTTPClient  *http.Client
	CacheSize   int
}

// Client calls the NHTSA recalls/complaints/safety-issues endpoints and the
// vPIC VIN decoder. Responses are cached per endpoint+vehicle so repeated
// appraisals of the same model do not refetch.
type Client struct {
	cfg   Config
	cache *lru.Cache[string, []byte]
}

func NewClient(cfg Config) (*Client, error) {
	if cfg.BaseURL == "" {
		cfg.BaseURL = DefaultBaseURL
	}
	if cfg.VPICBaseURL == "" {
		cfg.VPICBaseURL = DefaultVPICBaseURL
	}
	if cfg.HTTPClient == nil {
		cfg.HTTPClient = &http.Client{Timeout: 15 * time.Second}
	}
	if cfg.CacheSize <= 0 {
		cfg.CacheSize = defaultCacheSize
	}
	cache, err := lru.New[string, []byte](cfg.CacheSize)
	if err != nil {
		return nil, fmt.Errorf("nhtsa cache: %w", err)
	}
	return &Client{cfg: cfg, cache: cache}, nil
}

// getJSON fetches a URL with bounded retry and decodes into dst. Cached
// bodies bypass the network entirely.
func (c *Client) getJSON(ctx context.Context, url string, dst any) error {
	if blob, ok := c.cache.Get(url); ok {
		return json.Unmarshal(blob, dst)
	}
	blob, err := c.fetchWithRetry(ctx, url)
	if err != nil {
		return err
	}
	c.cache.Add(url, blob)
	return json.Unmarshal(blob, dst)
}

func (c *Client) fetchWithRetry(ctx context.Context, url string) ([]byte, error) {
	var lastErr error
	for attempt := 1; attempt <= 3; attempt++ {
		blob, code, retryAfter, err := c.fetchOnce(ctx, url)
		if err == nil {
			return blob, nil
		}
		lastErr = err

		if code >= 400 && code < 500 && code != http.StatusTooManyRequests {
			return nil, err
		}
		if attempt == 3 {
			break
		}
		sleep := retryAfter
		if sleep <= 0 {
			sleep = backoffDelay(attempt)
		}
		if !retryable(code, err) {
			return nil, err
		}
		if err := sleepCtx(ctx, sleep); err != nil {
			return nil, err
		}
	}
	return nil, lastErr
}

func (c *Client) fetchOnce(ctx context.Context, url string) ([]byte, int, time.Duration, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, 0, 0, err
	}
	req.Header.Set("Accept", "application/json")

	res, err := c.cfg.HTTPClient.Do(req)
	if err != nil {
		return nil, 0, 0, err
	}
	defer res.Body.Close()
	blob, _ := io.ReadAll(io.LimitReader(res.Body, maxResponseBytes))

	retryAfter := parseRetryAfter(res.Header.Get("Retry-After"))
	if res.StatusCode >= 400 {
		return nil, res.StatusCode, retryAfter, fmt.Errorf("status code: %d", res.StatusCode)
	}
	return blob, res.StatusCode, retryAfter, nil
}

func retryable(code int, err error) bool {
	if code == http.StatusTooManyRequests || code >= 500 {
		return true
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return true
	}
	var ne net.Error
	return errors.As(err, &ne) && ne.Timeout()
}

func backoffDelay(attempt int) time.Duration {
	if attempt <= 1 {
		return 250 * time.Millisecond
	}
	return 500 * time.Millisecond
}

func sleepCtx(ctx context.Context, d time.Duration) error {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}

func parseRetryAfter(v string) time.Duration {
	if strings.TrimSpace(v) == "" {
		return 0
	}
	secs, err := strconv.Atoi(strings.TrimSpace(v))
	if err != nil {
		return 0
	}
	return time.Duration(secs) * time.Second
}
