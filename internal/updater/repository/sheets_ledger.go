package repository

import (
	"context"
	"fmt"
	"strings"

	"google.golang.org/api/option"
	"google.golang.org/api/sheets/v4"

	"github.com/hiyoco-of-piyo/sedori-auto/internal/entity"
	"github.com/hiyoco-of-piyo/sedori-auto/internal/updater/config"
	"github.com/hiyoco-of-piyo/sedori-auto/pkg/logger"
)

// sheetsLedger drives a Google Sheets spreadsheet through the Sheets
// API, writing each batch with a single values.BatchUpdate round trip.
type sheetsLedger struct {
	svc    *sheets.Service
	cfg    *config.Ledger
	logger *logger.Logger
}

// NewSheetsLedger authenticates with the configured service-account
// credentials and binds to the configured spreadsheet.
func NewSheetsLedger(ctx context.Context, cfg *config.Ledger, log *logger.Logger) (LedgerRepository, error) {
	svc, err := sheets.NewService(ctx,
		option.WithCredentialsFile(cfg.CredentialsFile),
		option.WithScopes(sheets.SpreadsheetsScope),
	)
	if err != nil {
		return nil, fmt.Errorf("init sheets service: %w", err)
	}
	return &sheetsLedger{svc: svc, cfg: cfg, logger: log}, nil
}

func (l *sheetsLedger) ReadIdentifierColumn(ctx context.Context) ([]string, error) {
	rangeName := fmt.Sprintf("%s!%s:%s", l.cfg.SheetName, l.cfg.JANColumn, l.cfg.JANColumn)
	resp, err := l.svc.Spreadsheets.Values.Get(l.cfg.SpreadsheetID, rangeName).Context(ctx).Do()
	if err != nil {
		return nil, fmt.Errorf("read identifier column: %w", err)
	}

	cells := make([]string, 0, len(resp.Values))
	for _, row := range resp.Values {
		if len(row) == 0 {
			cells = append(cells, "")
			continue
		}
		cells = append(cells, strings.TrimSpace(fmt.Sprint(row[0])))
	}
	return cells, nil
}

func (l *sheetsLedger) WriteRows(ctx context.Context, updates []entity.LedgerRowUpdate) error {
	if len(updates) == 0 {
		return nil
	}

	data := make([]*sheets.ValueRange, 0, len(updates))
	for _, u := range updates {
		data = append(data, &sheets.ValueRange{
			Range: fmt.Sprintf("%s!%s%d:%s%d",
				l.cfg.SheetName, l.cfg.PriceColumn, u.RowIndex, l.cfg.LinkColumn, u.RowIndex),
			Values: [][]interface{}{{
				u.PriceDisplay,
				u.UpdatedAt,
				fmt.Sprintf(`=HYPERLINK("%s", "詳細を見る")`, u.DetailURL),
			}},
		})
	}

	req := &sheets.BatchUpdateValuesRequest{
		ValueInputOption: "USER_ENTERED",
		Data:             data,
	}
	resp, err := l.svc.Spreadsheets.Values.BatchUpdate(l.cfg.SpreadsheetID, req).Context(ctx).Do()
	if err != nil {
		return fmt.Errorf("batch update: %w", err)
	}

	l.logger.Info("ledger batch written",
		logger.IntField("rows", len(updates)),
		logger.Field("updated_cells", resp.TotalUpdatedCells))
	return nil
}
