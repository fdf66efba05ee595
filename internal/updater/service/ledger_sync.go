package service

import (
	"context"
	"fmt"
	"time"

	"github.com/hiyoco-of-piyo/sedori-auto/internal/entity"
	"github.com/hiyoco-of-piyo/sedori-auto/internal/updater/metrics"
	"github.com/hiyoco-of-piyo/sedori-auto/internal/updater/repository"
	"github.com/hiyoco-of-piyo/sedori-auto/pkg/logger"
)

// LedgerSyncWriter flushes row updates to the ledger backend. A failed
// batch gets exactly one retry after a cooldown so that a transient
// quota error (Sheets API) does not abort the run.
type LedgerSyncWriter struct {
	ledger   repository.LedgerRepository
	cooldown time.Duration
	logger   *logger.Logger
	metrics  *metrics.Metrics
	sleep    func(ctx context.Context, d time.Duration)
}

func NewLedgerSyncWriter(ledger repository.LedgerRepository, cooldown time.Duration, log *logger.Logger, m *metrics.Metrics) *LedgerSyncWriter {
	return &LedgerSyncWriter{
		ledger:   ledger,
		cooldown: cooldown,
		logger:   log,
		metrics:  m,
		sleep:    sleepContext,
	}
}

// Apply writes the batch, retrying once after the cooldown. The returned
// error is non-nil only when both attempts fail; callers log it and keep
// going so that one bad flush never loses the rest of the run.
func (w *LedgerSyncWriter) Apply(ctx context.Context, rows []entity.LedgerRowUpdate) error {
	if len(rows) == 0 {
		return nil
	}

	err := w.ledger.WriteRows(ctx, rows)
	if err == nil {
		w.metrics.IncLedgerWrite("success")
		return nil
	}

	w.logger.Warn("ledger write failed, retrying after cooldown",
		logger.ErrorField(err),
		logger.IntField("rows", len(rows)),
		logger.Field("cooldown", w.cooldown))
	w.sleep(ctx, w.cooldown)

	if err2 := w.ledger.WriteRows(ctx, rows); err2 != nil {
		w.metrics.IncLedgerWrite("failure")
		return fmt.Errorf("ledger write failed after retry: %w", err2)
	}
	w.metrics.IncLedgerWrite("success")
	return nil
}

func sleepContext(ctx context.Context, d time.Duration) {
	if d <= 0 {
		return
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
	case <-t.C:
	}
}
