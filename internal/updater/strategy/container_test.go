package strategy

import (
	"strings"
	"testing"

	"github.com/PuerkitoBio/goquery"
)

func parseHTML(t *testing.T, html string) *goquery.Document {
	t.Helper()
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		t.Fatalf("parse fixture: %v", err)
	}
	return doc
}

func TestContainerStrategyMaxPlausible(t *testing.T) {
	doc := parseHTML(t, `
		<div class="item">
			<span class="price">12,000円</span>
		</div>
		<div class="item">
			<span class="kaitori-price">15,000円</span>
		</div>
		<div class="item">
			<span class="price">9,000,000円</span>
		</div>`)

	price, ok := NewContainerStrategy().Extract(doc, PolicyMaxPlausible)
	if !ok {
		t.Fatalf("expected a match")
	}
	// 9,000,000 sits above the sanity band and must lose to 15,000.
	if price != 15000 {
		t.Fatalf("price = %d, want 15000", price)
	}
}

func TestContainerStrategyFirstMatch(t *testing.T) {
	doc := parseHTML(t, `
		<td class="buyback-amount">4,980円</td>
		<td class="buyback-amount">52,000円</td>`)

	price, ok := NewContainerStrategy().Extract(doc, PolicyFirst)
	if !ok {
		t.Fatalf("expected a match")
	}
	if price != 4980 {
		t.Fatalf("price = %d, want 4980", price)
	}
}

func TestContainerStrategyRejectsShortAmounts(t *testing.T) {
	doc := parseHTML(t, `<span class="price">45円</span>`)

	if price, ok := NewContainerStrategy().Extract(doc, PolicyFirst); ok {
		t.Fatalf("two-digit amount must be rejected, got %d", price)
	}
}

func TestContainerStrategyIgnoresUnrelatedContainers(t *testing.T) {
	doc := parseHTML(t, `
		<div class="description">中古品 12,000円 相当</div>
		<div>15,800円</div>`)

	if price, ok := NewContainerStrategy().Extract(doc, PolicyMaxPlausible); ok {
		t.Fatalf("non-price containers must be ignored, got %d", price)
	}
}

func TestContainerStrategyMatchesByID(t *testing.T) {
	doc := parseHTML(t, `<p id="kakaku-買取">買取 32,000円</p>`)

	price, ok := NewContainerStrategy().Extract(doc, PolicyMaxPlausible)
	if !ok || price != 32000 {
		t.Fatalf("price = %d ok = %v, want 32000", price, ok)
	}
}
