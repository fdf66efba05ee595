// Package fetcher implements the resilient fetch layer: a GET-only
// client with browser headers, a shared outbound rate limit, retry with
// backoff, rate-limit detection, and a per-run page cache.
package fetcher

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/patrickmn/go-cache"
	"golang.org/x/time/rate"

	"github.com/hiyoco-of-piyo/sedori-auto/internal/entity"
	"github.com/hiyoco-of-piyo/sedori-auto/internal/updater/config"
	"github.com/hiyoco-of-piyo/sedori-auto/internal/updater/metrics"
	"github.com/hiyoco-of-piyo/sedori-auto/pkg/logger"
)

const (
	cacheTTL     = 5 * time.Minute
	cacheCleanup = 10 * time.Minute
)

// Fetcher performs network fetches for the extraction pipeline. It is
// stateless between calls except for the shared outbound rate and the
// response cache.
type Fetcher struct {
	client  *http.Client
	limiter *rate.Limiter
	pages   *cache.Cache
	retry   retryPolicy
	cfg     *config.Scraper
	logger  *logger.Logger
	metrics *metrics.Metrics
}

// New builds a fetcher from the scraper configuration. The base URL must
// parse; anything else here is a deployment mistake, not a transient
// condition.
func New(cfg *config.Scraper, log *logger.Logger, m *metrics.Metrics) (*Fetcher, error) {
	parsed, err := url.Parse(cfg.BaseURL)
	if err != nil {
		return nil, fmt.Errorf("parse base url: %w", err)
	}
	if parsed.Host == "" {
		return nil, fmt.Errorf("base url %q must include a host", cfg.BaseURL)
	}

	return &Fetcher{
		client:  &http.Client{Timeout: cfg.Timeout},
		limiter: rate.NewLimiter(rate.Every(cfg.RequestDelay), 1),
		pages:   cache.New(cacheTTL, cacheCleanup),
		retry: retryPolicy{
			maxAttempts:   cfg.MaxRetries,
			rateLimitBase: cfg.RateLimitBackoff,
			sleep:         sleepContext,
		},
		cfg:     cfg,
		logger:  log,
		metrics: m,
	}, nil
}

// SearchURL builds the target's search endpoint URL for one JAN code.
func (f *Fetcher) SearchURL(janCode string) string {
	return fmt.Sprintf("%s%s?%s=%s",
		strings.TrimRight(f.cfg.BaseURL, "/"), f.cfg.SearchPath,
		f.cfg.SearchParam, url.QueryEscape(janCode))
}

// AbsoluteURL resolves a possibly relative href against the target base.
func (f *Fetcher) AbsoluteURL(href string) string {
	if href == "" {
		return ""
	}
	if strings.HasPrefix(href, "http://") || strings.HasPrefix(href, "https://") {
		return href
	}
	return strings.TrimRight(f.cfg.BaseURL, "/") + "/" + strings.TrimLeft(href, "/")
}

// Fetch retrieves one URL and classifies the outcome. 429 responses and
// network failures are retried with backoff inside the fixed budget;
// any other non-2xx answer is returned immediately because a 404/500 on
// a search endpoint means "no data", not a transient fault.
func (f *Fetcher) Fetch(ctx context.Context, pageURL string) entity.FetchOutcome {
	if body, ok := f.pages.Get(pageURL); ok {
		return entity.FetchOutcome{Status: entity.FetchSuccess, Code: http.StatusOK, Body: body.([]byte), URL: pageURL}
	}

	var lastErr error
	for attempt := 0; attempt < f.retry.maxAttempts; attempt++ {
		if err := f.limiter.Wait(ctx); err != nil {
			return entity.FetchOutcome{Status: entity.FetchNetworkError, URL: pageURL}
		}

		code, body, err := f.do(ctx, pageURL)
		if err != nil {
			lastErr = err
			f.logger.Warn("request failed",
				logger.StringField("url", pageURL),
				logger.IntField("attempt", attempt+1),
				logger.ErrorField(err))
			if attempt < f.retry.maxAttempts-1 {
				f.metrics.IncRetry()
				f.retry.sleep(ctx, f.retry.networkBackoff(attempt))
				continue
			}
			break
		}

		switch {
		case code >= 200 && code < 300:
			f.pages.SetDefault(pageURL, body)
			f.metrics.IncRequest(string(entity.FetchSuccess))
			return entity.FetchOutcome{Status: entity.FetchSuccess, Code: code, Body: body, URL: pageURL}
		case code == http.StatusTooManyRequests:
			wait := f.retry.rateLimitBackoff(attempt)
			f.logger.Warn("rate limited, backing off",
				logger.StringField("url", pageURL),
				logger.IntField("attempt", attempt+1),
				logger.Field("wait", wait))
			f.metrics.IncRetry()
			f.retry.sleep(ctx, wait)
		default:
			f.logger.Warn("unexpected http status",
				logger.StringField("url", pageURL),
				logger.IntField("status", code))
			f.metrics.IncRequest(string(entity.FetchHTTPError))
			return entity.FetchOutcome{Status: entity.FetchHTTPError, Code: code, URL: pageURL}
		}
	}

	if lastErr != nil {
		status := entity.FetchNetworkError
		if isTimeout(lastErr) {
			status = entity.FetchTimeout
		}
		f.metrics.IncRequest(string(status))
		return entity.FetchOutcome{Status: status, URL: pageURL}
	}

	f.metrics.IncRequest(string(entity.FetchRateLimited))
	return entity.FetchOutcome{Status: entity.FetchRateLimited, Code: http.StatusTooManyRequests, URL: pageURL}
}

func (f *Fetcher) do(ctx context.Context, pageURL string) (int, []byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, pageURL, nil)
	if err != nil {
		return 0, nil, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("User-Agent", f.cfg.UserAgent)
	req.Header.Set("Accept", "text/html,application/xhtml+xml,application/xml;q=0.9,*/*;q=0.8")
	req.Header.Set("Accept-Language", "ja,en-US;q=0.9,en;q=0.8")
	req.Header.Set("Connection", "keep-alive")

	start := time.Now()
	resp, err := f.client.Do(req)
	f.metrics.ObserveDuration(time.Since(start))
	if err != nil {
		return 0, nil, err
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return 0, nil, fmt.Errorf("read body: %w", err)
	}
	return resp.StatusCode, body, nil
}

func isTimeout(err error) bool {
	if errors.Is(err, context.DeadlineExceeded) {
		return true
	}
	var netErr net.Error
	return errors.As(err, &netErr) && netErr.Timeout()
}
