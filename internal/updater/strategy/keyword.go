package strategy

import (
	"regexp"
	"strings"

	"github.com/PuerkitoBio/goquery"

	"github.com/hiyoco-of-piyo/sedori-auto/pkg/yen"
)

// labelPatterns anchor a price to a "buyback price" phrase, most
// specific first. Each pattern captures the amount.
var labelPatterns = []*regexp.Regexp{
	regexp.MustCompile(`通常買取価格[：:]?\s*\n?\s*([0-9][0-9,]*)\s*円`),
	regexp.MustCompile(`買取価格[：:]\s*([0-9][0-9,]*)\s*円`),
	regexp.MustCompile(`買取金額[：:]\s*([0-9][0-9,]*)\s*円`),
	regexp.MustCompile(`価格[：:]\s*([0-9][0-9,]*)\s*円`),
}

// qualifierWords mark a price ceiling or a range rather than a quoted
// price; matches surrounded by them are never selected.
var qualifierWords = []string{"上限", "～", "〜", "まで"}

// contextWindow is how many bytes before a match are inspected for
// qualifier words.
const contextWindow = 18

// KeywordStrategy searches the page's flattened text for a label phrase
// meaning "buyback price" immediately followed by an amount.
type KeywordStrategy struct{}

// NewKeywordStrategy creates the keyword-anchored text heuristic.
func NewKeywordStrategy() *KeywordStrategy {
	return &KeywordStrategy{}
}

// Name identifies the heuristic in extraction results and logs.
func (s *KeywordStrategy) Name() string {
	return "keyword"
}

// Extract always uses first-match selection: a labeled price is a
// direct quote, so ordering by specificity beats comparing magnitudes.
func (s *KeywordStrategy) Extract(doc *goquery.Document, _ SelectionPolicy) (int, bool) {
	text := doc.Text()
	for _, re := range labelPatterns {
		for _, loc := range re.FindAllStringSubmatchIndex(text, -1) {
			if qualified(text, loc[0], loc[1]) {
				continue
			}
			value, err := yen.Parse(text[loc[2]:loc[3]])
			if err != nil {
				continue
			}
			return value, true
		}
	}
	return 0, false
}

func qualified(text string, start, end int) bool {
	from := start - contextWindow
	if from < 0 {
		from = 0
	}
	window := text[from:end]
	for _, w := range qualifierWords {
		if strings.Contains(window, w) {
			return true
		}
	}
	return false
}
