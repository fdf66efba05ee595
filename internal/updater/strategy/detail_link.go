package strategy

import (
	"fmt"
	"regexp"

	"github.com/PuerkitoBio/goquery"
)

var productHrefPattern = regexp.MustCompile(`/product/\d+`)

// FindProductLinks scans a search-result page for links to product
// detail pages, in document order and de-duplicated. Two shapes are
// recognized: hrefs containing /product/<id>, and elements carrying a
// data-product-id attribute.
func FindProductLinks(doc *goquery.Document, resolve func(href string) string) []string {
	var links []string
	seen := make(map[string]struct{})

	add := func(u string) {
		if u == "" {
			return
		}
		if _, ok := seen[u]; ok {
			return
		}
		seen[u] = struct{}{}
		links = append(links, u)
	}

	doc.Find("a[href]").Each(func(_ int, sel *goquery.Selection) {
		href, _ := sel.Attr("href")
		if productHrefPattern.MatchString(href) {
			add(resolve(href))
		}
	})

	doc.Find("[data-product-id]").Each(func(_ int, sel *goquery.Selection) {
		id, _ := sel.Attr("data-product-id")
		if id != "" {
			add(resolve(fmt.Sprintf("/product/%s/", id)))
		}
	})

	return links
}
