package strategy

import (
	"context"
	"net/http"
	"testing"
	"time"

	"github.com/jarcoal/httpmock"

	"github.com/hiyoco-of-piyo/sedori-auto/internal/entity"
	"github.com/hiyoco-of-piyo/sedori-auto/internal/updater/config"
	"github.com/hiyoco-of-piyo/sedori-auto/internal/updater/fetcher"
	"github.com/hiyoco-of-piyo/sedori-auto/internal/updater/metrics"
	"github.com/hiyoco-of-piyo/sedori-auto/pkg/logger"
)

func newTestExtractor(t *testing.T) *Extractor {
	t.Helper()

	cfg := &config.Scraper{
		BaseURL:          "https://kaitori.test",
		SearchPath:       "/search",
		SearchParam:      "sk",
		RequestDelay:     time.Millisecond,
		Timeout:          5 * time.Second,
		MaxRetries:       1,
		RateLimitBackoff: time.Millisecond,
		UserAgent:        "test-agent",
	}
	f, err := fetcher.New(cfg, logger.NewNop(), metrics.New())
	if err != nil {
		t.Fatalf("fetcher.New() error: %v", err)
	}

	// The fetcher's client rides on http.DefaultTransport.
	httpmock.Activate()
	t.Cleanup(httpmock.DeactivateAndReset)

	return NewExtractor(f, logger.NewNop())
}

func searchOutcome(body string) entity.FetchOutcome {
	return entity.FetchOutcome{
		Status: entity.FetchSuccess,
		Code:   http.StatusOK,
		Body:   []byte(body),
		URL:    "https://kaitori.test/search?sk=4902370536485",
	}
}

func TestExtractFromSearchPage(t *testing.T) {
	e := newTestExtractor(t)

	res := e.Extract(context.Background(), "4902370536485", searchOutcome(`
		<div class="item"><span class="price">28,500円</span></div>`))

	if res.Status != entity.ExtractionFound {
		t.Fatalf("status = %s, want found", res.Status)
	}
	if res.Price != 28500 {
		t.Fatalf("price = %d, want 28500", res.Price)
	}
	if res.Strategy != "container" {
		t.Fatalf("strategy = %q, want container", res.Strategy)
	}
	if res.SourceURL != "https://kaitori.test/search?sk=4902370536485" {
		t.Fatalf("source url = %q", res.SourceURL)
	}
	if calls := httpmock.GetTotalCallCount(); calls != 0 {
		t.Fatalf("search-page hit must not fetch, calls = %d", calls)
	}
}

func TestExtractFollowsDetailLink(t *testing.T) {
	e := newTestExtractor(t)

	httpmock.RegisterResponder(http.MethodGet, "https://kaitori.test/product/123/",
		httpmock.NewStringResponder(http.StatusOK,
			`<p>通常買取価格：9,800円</p>`))

	res := e.Extract(context.Background(), "4902370536485", searchOutcome(`
		<a href="/product/123/">商品A</a>
		<a href="/product/999/">商品B</a>`))

	if res.Status != entity.ExtractionFound {
		t.Fatalf("status = %s, want found", res.Status)
	}
	if res.Price != 9800 {
		t.Fatalf("price = %d, want 9800", res.Price)
	}
	if res.Strategy != "keyword" {
		t.Fatalf("strategy = %q, want keyword", res.Strategy)
	}
	if res.SourceURL != "https://kaitori.test/product/123/" {
		t.Fatalf("source url = %q", res.SourceURL)
	}
	// One hop only: the second link must never be fetched.
	if calls := httpmock.GetTotalCallCount(); calls != 1 {
		t.Fatalf("detail fetches = %d, want 1", calls)
	}
}

func TestExtractNoProductPage(t *testing.T) {
	e := newTestExtractor(t)

	res := e.Extract(context.Background(), "4902370536485", searchOutcome(
		`<p>該当する商品が見つかりませんでした。</p>`))

	if res.Status != entity.ExtractionNoProductPage {
		t.Fatalf("status = %s, want no_product_page", res.Status)
	}
}

func TestExtractDetailPageWithoutPrice(t *testing.T) {
	e := newTestExtractor(t)

	httpmock.RegisterResponder(http.MethodGet, "https://kaitori.test/product/123/",
		httpmock.NewStringResponder(http.StatusOK, `<p>在庫なし</p>`))

	res := e.Extract(context.Background(), "4902370536485", searchOutcome(
		`<a href="/product/123/">商品A</a>`))

	if res.Status != entity.ExtractionNotFound {
		t.Fatalf("status = %s, want not_found", res.Status)
	}
	if res.SourceURL != "https://kaitori.test/product/123/" {
		t.Fatalf("source url = %q", res.SourceURL)
	}
}

func TestExtractFailedOutcome(t *testing.T) {
	e := newTestExtractor(t)

	res := e.Extract(context.Background(), "4902370536485", entity.FetchOutcome{
		Status: entity.FetchNetworkError,
		URL:    "https://kaitori.test/search?sk=4902370536485",
	})

	if res.Status != entity.ExtractionNotFound {
		t.Fatalf("status = %s, want not_found", res.Status)
	}
}
