package fetcher

import (
	"context"
	"fmt"
	"net/http"
	"testing"
	"time"

	"github.com/jarcoal/httpmock"

	"github.com/hiyoco-of-piyo/sedori-auto/internal/entity"
	"github.com/hiyoco-of-piyo/sedori-auto/internal/updater/config"
	"github.com/hiyoco-of-piyo/sedori-auto/internal/updater/metrics"
	"github.com/hiyoco-of-piyo/sedori-auto/pkg/logger"
)

func newTestFetcher(t *testing.T) (*Fetcher, *[]time.Duration) {
	t.Helper()

	cfg := &config.Scraper{
		BaseURL:          "https://kaitori.test",
		SearchPath:       "/search",
		SearchParam:      "sk",
		RequestDelay:     time.Millisecond,
		Timeout:          5 * time.Second,
		MaxRetries:       3,
		RateLimitBackoff: 2 * time.Second,
		UserAgent:        "test-agent",
	}

	f, err := New(cfg, logger.NewNop(), metrics.New())
	if err != nil {
		t.Fatalf("New() error: %v", err)
	}

	var slept []time.Duration
	f.retry.sleep = func(ctx context.Context, d time.Duration) {
		slept = append(slept, d)
	}

	httpmock.ActivateNonDefault(f.client)
	t.Cleanup(httpmock.DeactivateAndReset)

	return f, &slept
}

func TestSearchURL(t *testing.T) {
	f, _ := newTestFetcher(t)

	got := f.SearchURL("4902370536485")
	want := "https://kaitori.test/search?sk=4902370536485"
	if got != want {
		t.Fatalf("SearchURL() = %q, want %q", got, want)
	}
}

func TestAbsoluteURL(t *testing.T) {
	f, _ := newTestFetcher(t)

	tests := []struct {
		href string
		want string
	}{
		{"/product/123/", "https://kaitori.test/product/123/"},
		{"product/123/", "https://kaitori.test/product/123/"},
		{"https://other.test/p/1", "https://other.test/p/1"},
		{"", ""},
	}
	for _, tt := range tests {
		if got := f.AbsoluteURL(tt.href); got != tt.want {
			t.Errorf("AbsoluteURL(%q) = %q, want %q", tt.href, got, tt.want)
		}
	}
}

func TestFetchSuccessAndCache(t *testing.T) {
	f, _ := newTestFetcher(t)

	const pageURL = "https://kaitori.test/search?sk=123"
	httpmock.RegisterResponder(http.MethodGet, pageURL,
		httpmock.NewStringResponder(http.StatusOK, "<html>ok</html>"))

	outcome := f.Fetch(context.Background(), pageURL)
	if !outcome.OK() {
		t.Fatalf("first fetch failed: %+v", outcome)
	}
	if string(outcome.Body) != "<html>ok</html>" {
		t.Fatalf("unexpected body %q", outcome.Body)
	}

	// Second fetch must come from the page cache.
	outcome = f.Fetch(context.Background(), pageURL)
	if !outcome.OK() {
		t.Fatalf("cached fetch failed: %+v", outcome)
	}
	if calls := httpmock.GetTotalCallCount(); calls != 1 {
		t.Fatalf("network calls = %d, want 1", calls)
	}
}

func TestFetchHTTPErrorNoRetry(t *testing.T) {
	f, slept := newTestFetcher(t)

	const pageURL = "https://kaitori.test/search?sk=missing"
	httpmock.RegisterResponder(http.MethodGet, pageURL,
		httpmock.NewStringResponder(http.StatusNotFound, "not found"))

	outcome := f.Fetch(context.Background(), pageURL)
	if outcome.Status != entity.FetchHTTPError {
		t.Fatalf("status = %s, want %s", outcome.Status, entity.FetchHTTPError)
	}
	if outcome.Code != http.StatusNotFound {
		t.Fatalf("code = %d, want 404", outcome.Code)
	}
	if calls := httpmock.GetTotalCallCount(); calls != 1 {
		t.Fatalf("a 404 must not be retried, calls = %d", calls)
	}
	if len(*slept) != 0 {
		t.Fatalf("unexpected backoff sleeps %v", *slept)
	}
}

func TestFetchRateLimitedBackoffSchedule(t *testing.T) {
	f, slept := newTestFetcher(t)

	const pageURL = "https://kaitori.test/search?sk=hot"
	httpmock.RegisterResponder(http.MethodGet, pageURL,
		httpmock.NewStringResponder(http.StatusTooManyRequests, "slow down"))

	outcome := f.Fetch(context.Background(), pageURL)
	if outcome.Status != entity.FetchRateLimited {
		t.Fatalf("status = %s, want %s", outcome.Status, entity.FetchRateLimited)
	}
	if calls := httpmock.GetTotalCallCount(); calls != 3 {
		t.Fatalf("calls = %d, want 3", calls)
	}

	want := []time.Duration{2 * time.Second, 4 * time.Second, 8 * time.Second}
	if len(*slept) != len(want) {
		t.Fatalf("backoff sleeps = %v, want %v", *slept, want)
	}
	for i := range want {
		if (*slept)[i] != want[i] {
			t.Fatalf("backoff sleeps = %v, want %v", *slept, want)
		}
	}
}

func TestFetchNetworkErrorBackoffSchedule(t *testing.T) {
	f, slept := newTestFetcher(t)

	const pageURL = "https://kaitori.test/search?sk=down"
	httpmock.RegisterResponder(http.MethodGet, pageURL,
		httpmock.NewErrorResponder(fmt.Errorf("connection refused")))

	outcome := f.Fetch(context.Background(), pageURL)
	if outcome.Status != entity.FetchNetworkError {
		t.Fatalf("status = %s, want %s", outcome.Status, entity.FetchNetworkError)
	}

	// No sleep after the final failed attempt.
	want := []time.Duration{2 * time.Second, 4 * time.Second}
	if len(*slept) != len(want) {
		t.Fatalf("backoff sleeps = %v, want %v", *slept, want)
	}
	for i := range want {
		if (*slept)[i] != want[i] {
			t.Fatalf("backoff sleeps = %v, want %v", *slept, want)
		}
	}
}

type timeoutError struct{}

func (timeoutError) Error() string   { return "deadline exceeded" }
func (timeoutError) Timeout() bool   { return true }
func (timeoutError) Temporary() bool { return true }

func TestFetchTimeoutClassification(t *testing.T) {
	f, _ := newTestFetcher(t)

	const pageURL = "https://kaitori.test/search?sk=slow"
	httpmock.RegisterResponder(http.MethodGet, pageURL,
		httpmock.NewErrorResponder(timeoutError{}))

	outcome := f.Fetch(context.Background(), pageURL)
	if outcome.Status != entity.FetchTimeout {
		t.Fatalf("status = %s, want %s", outcome.Status, entity.FetchTimeout)
	}
}

func TestNewRejectsBadBaseURL(t *testing.T) {
	cfg := &config.Scraper{BaseURL: "not a url"}
	if _, err := New(cfg, logger.NewNop(), metrics.New()); err == nil {
		t.Fatalf("expected error for base url without host")
	}
}
