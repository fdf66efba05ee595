package strategy

import (
	"bytes"
	"context"

	"github.com/PuerkitoBio/goquery"

	"github.com/hiyoco-of-piyo/sedori-auto/internal/entity"
	"github.com/hiyoco-of-piyo/sedori-auto/internal/updater/fetcher"
	"github.com/hiyoco-of-piyo/sedori-auto/pkg/logger"
)

// Extractor runs the strategy cascade against a fetched search page,
// following at most one product-detail link when the search page itself
// yields nothing.
type Extractor struct {
	fetcher    *fetcher.Fetcher
	strategies []Strategy
	logger     *logger.Logger
}

// NewExtractor creates an extractor with the default cascade order:
// structured container match first, keyword-anchored text match second.
func NewExtractor(f *fetcher.Fetcher, log *logger.Logger) *Extractor {
	return &Extractor{
		fetcher: f,
		strategies: []Strategy{
			NewContainerStrategy(),
			NewKeywordStrategy(),
		},
		logger: log,
	}
}

// Extract recovers a price for janCode from the given fetch outcome.
// It never returns ExtractionFound with a non-positive price.
func (e *Extractor) Extract(ctx context.Context, janCode string, outcome entity.FetchOutcome) entity.ExtractionResult {
	if !outcome.OK() {
		return entity.ExtractionResult{Status: entity.ExtractionNotFound, SourceURL: outcome.URL}
	}

	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(outcome.Body))
	if err != nil {
		e.logger.Warn("parse page failed",
			logger.StringField("jan_code", janCode),
			logger.ErrorField(err))
		return entity.ExtractionResult{Status: entity.ExtractionNotFound, SourceURL: outcome.URL}
	}

	// A search-result page may list many products for one code, so the
	// maximum plausible value wins there.
	if res, ok := e.runCascade(doc, PolicyMaxPlausible, outcome.URL); ok {
		return res
	}

	links := FindProductLinks(doc, e.fetcher.AbsoluteURL)
	if len(links) == 0 {
		return entity.ExtractionResult{Status: entity.ExtractionNoProductPage, SourceURL: outcome.URL}
	}

	// One hop only: the first detail page, never a crawl.
	detail := e.fetcher.Fetch(ctx, links[0])
	if !detail.OK() {
		e.logger.Warn("detail page fetch failed",
			logger.StringField("jan_code", janCode),
			logger.StringField("url", links[0]),
			logger.StringField("status", string(detail.Status)))
		return entity.ExtractionResult{Status: entity.ExtractionNotFound, SourceURL: outcome.URL}
	}

	detailDoc, err := goquery.NewDocumentFromReader(bytes.NewReader(detail.Body))
	if err != nil {
		return entity.ExtractionResult{Status: entity.ExtractionNotFound, SourceURL: outcome.URL}
	}
	if res, ok := e.runCascade(detailDoc, PolicyFirst, links[0]); ok {
		return res
	}

	return entity.ExtractionResult{Status: entity.ExtractionNotFound, SourceURL: links[0]}
}

func (e *Extractor) runCascade(doc *goquery.Document, policy SelectionPolicy, sourceURL string) (entity.ExtractionResult, bool) {
	for _, s := range e.strategies {
		price, ok := s.Extract(doc, policy)
		if !ok || price <= 0 {
			continue
		}
		return entity.ExtractionResult{
			Price:     price,
			SourceURL: sourceURL,
			Strategy:  s.Name(),
			Status:    entity.ExtractionFound,
		}, true
	}
	return entity.ExtractionResult{}, false
}
