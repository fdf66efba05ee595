// Package yen implements the JPY price grammar shared by the extraction
// strategies and the ledger writer: an integer optionally grouped with
// thousands separators, either followed by a currency marker (円 / yen)
// or preceded by a yen glyph.
package yen

import (
	"fmt"
	"regexp"
	"sort"
	"strconv"
	"strings"
)

var (
	suffixPattern = regexp.MustCompile(`([0-9]{1,3}(?:,[0-9]{3})+|[0-9]+)\s*(?:円|yen)`)
	prefixPattern = regexp.MustCompile(`[¥￥]\s*([0-9]{1,3}(?:,[0-9]{3})+|[0-9]+)`)
	stripper      = strings.NewReplacer(",", "", "¥", "", "￥", "", "円", "", "yen", "", " ", "", "　", "")
)

// Match is one price occurrence found in a text.
type Match struct {
	Value  int    // parsed integer value
	Digits int    // number of digits in the matched amount
	Index  int    // byte offset of the match in the scanned text
	Text   string // full matched text including the currency marker
}

// Find returns every price-grammar match in text, ordered by position.
// Amounts that do not parse to a positive integer are dropped.
func Find(text string) []Match {
	var matches []Match
	for _, re := range []*regexp.Regexp{suffixPattern, prefixPattern} {
		for _, loc := range re.FindAllStringSubmatchIndex(text, -1) {
			amount := text[loc[2]:loc[3]]
			value, err := Parse(amount)
			if err != nil {
				continue
			}
			matches = append(matches, Match{
				Value:  value,
				Digits: digitCount(amount),
				Index:  loc[0],
				Text:   text[loc[0]:loc[1]],
			})
		}
	}
	sort.Slice(matches, func(i, j int) bool { return matches[i].Index < matches[j].Index })
	return matches
}

// Parse strips separators and currency markers and converts the rest to
// an integer. A non-numeric or non-positive result is an error; callers
// must never treat it as a valid price.
func Parse(s string) (int, error) {
	cleaned := stripper.Replace(strings.TrimSpace(s))
	if cleaned == "" {
		return 0, fmt.Errorf("no digits in %q", s)
	}
	value, err := strconv.Atoi(cleaned)
	if err != nil {
		return 0, fmt.Errorf("parse price %q: %w", s, err)
	}
	if value <= 0 {
		return 0, fmt.Errorf("non-positive price %d in %q", value, s)
	}
	return value, nil
}

// Format renders a price the way the ledger displays it, e.g. ¥12,345.
// Format is an exact inverse of Parse for positive integers.
func Format(value int) string {
	digits := strconv.Itoa(value)
	var b strings.Builder
	b.WriteString("¥")
	lead := len(digits) % 3
	if lead > 0 {
		b.WriteString(digits[:lead])
	}
	for i := lead; i < len(digits); i += 3 {
		if b.Len() > 1 {
			b.WriteString(",")
		}
		b.WriteString(digits[i : i+3])
	}
	return b.String()
}

func digitCount(s string) int {
	n := 0
	for _, r := range s {
		if r >= '0' && r <= '9' {
			n++
		}
	}
	return n
}
