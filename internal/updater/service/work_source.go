package service

import (
	"context"
	"fmt"

	"github.com/hiyoco-of-piyo/sedori-auto/internal/entity"
	"github.com/hiyoco-of-piyo/sedori-auto/internal/updater/repository"
	"github.com/hiyoco-of-piyo/sedori-auto/pkg/logger"
)

// minIdentifierLength is the shortest cell accepted as a JAN code when
// not running in numeric-only mode. Short JAN/EAN variants are 10+
// digits; anything shorter is a stray cell value.
const minIdentifierLength = 10

// WorkItemSource computes the ordered lookup set from a snapshot of the
// ledger's identifier column. Row 1 is the header and is always skipped.
type WorkItemSource struct {
	ledger      repository.LedgerRepository
	numericOnly bool
	logger      *logger.Logger
}

// NewWorkItemSource creates a source over the given ledger. In
// numeric-only mode every all-digit cell qualifies; otherwise cells of
// length >= 10 qualify.
func NewWorkItemSource(ledger repository.LedgerRepository, numericOnly bool, log *logger.Logger) *WorkItemSource {
	return &WorkItemSource{ledger: ledger, numericOnly: numericOnly, logger: log}
}

// Items reads the identifier column once and returns the ordered set of
// work items. A read failure here is a configuration-level fault.
func (s *WorkItemSource) Items(ctx context.Context) ([]entity.WorkItem, error) {
	cells, err := s.ledger.ReadIdentifierColumn(ctx)
	if err != nil {
		return nil, fmt.Errorf("read ledger: %w", err)
	}

	var items []entity.WorkItem
	for i, cell := range cells {
		row := i + 1
		if row == 1 {
			continue
		}
		if !s.valid(cell) {
			continue
		}
		items = append(items, entity.WorkItem{RowIndex: row, JANCode: cell})
	}

	s.logger.Info("work items collected",
		logger.IntField("rows_scanned", len(cells)),
		logger.IntField("items", len(items)))
	return items, nil
}

func (s *WorkItemSource) valid(cell string) bool {
	if cell == "" {
		return false
	}
	if s.numericOnly {
		return isDigits(cell)
	}
	return len(cell) >= minIdentifierLength
}

func isDigits(s string) bool {
	for _, r := range s {
		if r < '0' || r > '9' {
			return false
		}
	}
	return true
}
