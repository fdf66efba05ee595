package repository

import (
	"context"
	"fmt"

	"github.com/hiyoco-of-piyo/sedori-auto/internal/entity"
	"github.com/hiyoco-of-piyo/sedori-auto/internal/updater/config"
	"github.com/hiyoco-of-piyo/sedori-auto/pkg/logger"
)

// LedgerRepository is the row-oriented contract against the shared
// price ledger. Row numbering is 1-based and row 1 is the header.
//
// WriteRows must touch only the three result columns for each row; the
// identifier column the items were read from is never written.
type LedgerRepository interface {
	// ReadIdentifierColumn returns the identifier column top to bottom,
	// one entry per ledger row starting at row 1, empty cells included
	// so indexes map directly to row numbers.
	ReadIdentifierColumn(ctx context.Context) ([]string, error)
	// WriteRows applies the batch in one round trip where the backend
	// supports it.
	WriteRows(ctx context.Context, updates []entity.LedgerRowUpdate) error
}

// NewLedger builds the configured ledger backend.
func NewLedger(ctx context.Context, cfg *config.Ledger, log *logger.Logger) (LedgerRepository, error) {
	switch cfg.Backend {
	case "sheets":
		return NewSheetsLedger(ctx, cfg, log)
	case "excel":
		return NewExcelLedger(cfg, log)
	default:
		return nil, fmt.Errorf("unknown ledger backend %q", cfg.Backend)
	}
}
