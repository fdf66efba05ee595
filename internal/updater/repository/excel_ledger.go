package repository

import (
	"context"
	"fmt"
	"strings"

	"github.com/xuri/excelize/v2"

	"github.com/hiyoco-of-piyo/sedori-auto/internal/entity"
	"github.com/hiyoco-of-piyo/sedori-auto/internal/updater/config"
	"github.com/hiyoco-of-piyo/sedori-auto/pkg/logger"
)

// excelLedger drives a local .xlsx workbook. The file is reopened per
// operation; the single active run owns it, so there is no contention.
type excelLedger struct {
	cfg    *config.Ledger
	logger *logger.Logger
}

// NewExcelLedger validates the column layout and returns the backend.
func NewExcelLedger(cfg *config.Ledger, log *logger.Logger) (LedgerRepository, error) {
	for _, col := range []string{cfg.JANColumn, cfg.PriceColumn, cfg.DateColumn, cfg.LinkColumn} {
		if _, err := excelize.ColumnNameToNumber(col); err != nil {
			return nil, fmt.Errorf("invalid ledger column %q: %w", col, err)
		}
	}
	return &excelLedger{cfg: cfg, logger: log}, nil
}

func (l *excelLedger) ReadIdentifierColumn(ctx context.Context) ([]string, error) {
	f, err := excelize.OpenFile(l.cfg.ExcelFile)
	if err != nil {
		return nil, fmt.Errorf("open workbook: %w", err)
	}
	defer f.Close()

	sheet := l.sheetName(f)
	rows, err := f.GetRows(sheet)
	if err != nil {
		return nil, fmt.Errorf("read sheet %q: %w", sheet, err)
	}

	colIdx, _ := excelize.ColumnNameToNumber(l.cfg.JANColumn)
	cells := make([]string, 0, len(rows))
	for _, row := range rows {
		cell := ""
		if len(row) >= colIdx {
			cell = strings.TrimSpace(row[colIdx-1])
		}
		cells = append(cells, cell)
	}
	return cells, nil
}

func (l *excelLedger) WriteRows(ctx context.Context, updates []entity.LedgerRowUpdate) error {
	if len(updates) == 0 {
		return nil
	}

	f, err := excelize.OpenFile(l.cfg.ExcelFile)
	if err != nil {
		return fmt.Errorf("open workbook: %w", err)
	}
	defer f.Close()

	sheet := l.sheetName(f)
	for _, u := range updates {
		priceCell := fmt.Sprintf("%s%d", l.cfg.PriceColumn, u.RowIndex)
		dateCell := fmt.Sprintf("%s%d", l.cfg.DateColumn, u.RowIndex)
		linkCell := fmt.Sprintf("%s%d", l.cfg.LinkColumn, u.RowIndex)

		if err := f.SetCellValue(sheet, priceCell, u.PriceDisplay); err != nil {
			return fmt.Errorf("set %s: %w", priceCell, err)
		}
		if err := f.SetCellValue(sheet, dateCell, u.UpdatedAt); err != nil {
			return fmt.Errorf("set %s: %w", dateCell, err)
		}
		if err := f.SetCellValue(sheet, linkCell, u.DetailURL); err != nil {
			return fmt.Errorf("set %s: %w", linkCell, err)
		}
		if err := f.SetCellHyperLink(sheet, linkCell, u.DetailURL, "External"); err != nil {
			return fmt.Errorf("set hyperlink %s: %w", linkCell, err)
		}
	}

	// One save per batch keeps the round-trip count at one.
	if err := f.Save(); err != nil {
		return fmt.Errorf("save workbook: %w", err)
	}

	l.logger.Info("ledger batch written",
		logger.IntField("rows", len(updates)),
		logger.StringField("file", l.cfg.ExcelFile))
	return nil
}

func (l *excelLedger) sheetName(f *excelize.File) string {
	if l.cfg.SheetName != "" {
		return l.cfg.SheetName
	}
	return f.GetSheetName(f.GetActiveSheetIndex())
}
