package strategy

import (
	"strings"

	"github.com/PuerkitoBio/goquery"

	"github.com/hiyoco-of-piyo/sedori-auto/pkg/yen"
)

// containerVocabulary are the class/id fragments that semantically
// denote a product card or a price on retail buyback sites.
var containerVocabulary = []string{
	"price", "amount", "cost", "buyback", "kaitori", "買取",
}

// ContainerStrategy looks for elements whose class or id names suggest
// a price container, then extracts the first price-grammar match inside.
type ContainerStrategy struct{}

// NewContainerStrategy creates the structured container heuristic.
func NewContainerStrategy() *ContainerStrategy {
	return &ContainerStrategy{}
}

// Name identifies the heuristic in extraction results and logs.
func (s *ContainerStrategy) Name() string {
	return "container"
}

// Extract scans candidate elements for a price. Under PolicyFirst the
// first valid amount wins; under PolicyMaxPlausible the largest amount
// inside the sanity band wins across all candidates.
func (s *ContainerStrategy) Extract(doc *goquery.Document, policy SelectionPolicy) (int, bool) {
	best := 0
	doc.Find("div, span, p, strong, b, td, li, label").EachWithBreak(func(_ int, sel *goquery.Selection) bool {
		if !matchesVocabulary(sel) {
			return true
		}
		for _, m := range yen.Find(sel.Text()) {
			if m.Digits < minPriceDigits {
				continue
			}
			if policy == PolicyFirst {
				best = m.Value
				return false
			}
			if plausible(m.Value) && m.Value > best {
				best = m.Value
			}
		}
		return true
	})
	return best, best > 0
}

func matchesVocabulary(sel *goquery.Selection) bool {
	class, _ := sel.Attr("class")
	id, _ := sel.Attr("id")
	attr := strings.ToLower(class + " " + id)
	if strings.TrimSpace(attr) == "" {
		return false
	}
	for _, word := range containerVocabulary {
		if strings.Contains(attr, word) {
			return true
		}
	}
	return false
}
