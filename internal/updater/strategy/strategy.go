// Package strategy implements the extraction cascade that recovers a
// buyback price from pages with unknown and unstable markup. Each
// heuristic is independently testable against fixture pages; the
// extractor runs them in a fixed priority order and returns on the
// first confident match.
package strategy

import "github.com/PuerkitoBio/goquery"

// SelectionPolicy decides which price wins when a page carries several
// valid ones. Search-result pages list many products for one code, so
// they use the maximum plausible value inside a sanity band to avoid
// picking up unrelated small numbers; a dedicated product page uses the
// first match.
type SelectionPolicy int

const (
	PolicyFirst SelectionPolicy = iota
	PolicyMaxPlausible
)

const (
	// Sanity band for PolicyMaxPlausible, in yen.
	minPlausiblePrice = 10_000
	maxPlausiblePrice = 5_000_000

	// Amounts shorter than this are rejected outright; star ratings and
	// quantity badges look like tiny prices otherwise.
	minPriceDigits = 3
)

// Strategy is one extraction heuristic tried against a parsed page.
type Strategy interface {
	Name() string
	Extract(doc *goquery.Document, policy SelectionPolicy) (int, bool)
}

func plausible(value int) bool {
	return value >= minPlausiblePrice && value <= maxPlausiblePrice
}
