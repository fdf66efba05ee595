package entity

// ExtractionStatus describes how the strategy cascade ended for one item.
type ExtractionStatus string

const (
	// ExtractionFound means a strategy matched a positive price.
	ExtractionFound ExtractionStatus = "found"
	// ExtractionNotFound means the page (and the detail page, if any)
	// carried no recognizable price.
	ExtractionNotFound ExtractionStatus = "not_found"
	// ExtractionNoProductPage means the search page contained no
	// candidate product link at all.
	ExtractionNoProductPage ExtractionStatus = "no_product_page"
)

// ExtractionResult is the outcome of running the extraction cascade
// against a fetched page. Price is only meaningful when Status is
// ExtractionFound, and is always positive in that case.
type ExtractionResult struct {
	Price     int
	SourceURL string // page the price was (or would have been) read from
	Strategy  string // name of the heuristic that matched, empty if none
	Status    ExtractionStatus
}
