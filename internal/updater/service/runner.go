// Package service implements the batch price-update run: work set
// collection, the checkpointed batch loop, and ledger synchronization.
package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/hiyoco-of-piyo/sedori-auto/internal/entity"
	"github.com/hiyoco-of-piyo/sedori-auto/internal/updater/config"
	"github.com/hiyoco-of-piyo/sedori-auto/internal/updater/metrics"
	"github.com/hiyoco-of-piyo/sedori-auto/internal/updater/repository"
	"github.com/hiyoco-of-piyo/sedori-auto/pkg/logger"
	"github.com/hiyoco-of-piyo/sedori-auto/pkg/telegram"
	"github.com/hiyoco-of-piyo/sedori-auto/pkg/utils"
	"github.com/hiyoco-of-piyo/sedori-auto/pkg/yen"
)

// ledgerTimeLayout is the timestamp format written to the date column.
const ledgerTimeLayout = "2006/01/02 15:04:05"

// PriceFetcher is the fetch surface the runner needs. Satisfied by
// *fetcher.Fetcher.
type PriceFetcher interface {
	Fetch(ctx context.Context, pageURL string) entity.FetchOutcome
	SearchURL(janCode string) string
}

// PriceExtractor runs the extraction cascade over a fetched search page.
// Satisfied by *strategy.Extractor.
type PriceExtractor interface {
	Extract(ctx context.Context, janCode string, outcome entity.FetchOutcome) entity.ExtractionResult
}

// BatchRunner executes one price-update run over the ledger's item set.
// A run is single-flight (guarded by the progress store's lock file),
// checkpointed per batch, and bounded by a wall-clock time budget.
type BatchRunner struct {
	fetcher   PriceFetcher
	extractor PriceExtractor
	source    *WorkItemSource
	progress  repository.ProgressRepository
	sync      *LedgerSyncWriter
	notifier  telegram.Notifier
	cfg       *config.Runner
	logger    *logger.Logger
	metrics   *metrics.Metrics

	now   func() time.Time
	sleep func(ctx context.Context, d time.Duration)
}

func NewBatchRunner(
	f PriceFetcher,
	e PriceExtractor,
	source *WorkItemSource,
	progress repository.ProgressRepository,
	sync *LedgerSyncWriter,
	notifier telegram.Notifier,
	cfg *config.Runner,
	log *logger.Logger,
	m *metrics.Metrics,
) *BatchRunner {
	return &BatchRunner{
		fetcher:   f,
		extractor: e,
		source:    source,
		progress:  progress,
		sync:      sync,
		notifier:  notifier,
		cfg:       cfg,
		logger:    log,
		metrics:   m,
		now:       utils.TimeNowJST,
		sleep:     sleepContext,
	}
}

// itemResult classifies one processed item for counters and metrics.
type itemResult string

const (
	itemFound    itemResult = "found"
	itemNotFound itemResult = "not_found"
	itemError    itemResult = "error"
)

// Run executes one batch run. maxItems > 0 caps the item set, which is
// how smoke runs are done against a production ledger. The returned
// error covers setup faults and context cancellation; per-item failures
// are absorbed into the error counter and never abort the run.
func (r *BatchRunner) Run(ctx context.Context, maxItems int) error {
	if err := r.progress.AcquireLock(); err != nil {
		return fmt.Errorf("another run is active: %w", err)
	}
	defer func() {
		if err := r.progress.ReleaseLock(); err != nil {
			r.logger.Warn("release run lock", logger.ErrorField(err))
		}
	}()

	items, err := r.source.Items(ctx)
	if err != nil {
		// A configuration-level fault. Clear a stale running flag so
		// the status surface does not report a phantom active run.
		if prev, loadErr := r.progress.Load(ctx); loadErr == nil && prev.IsRunning {
			prev.IsRunning = false
			if saveErr := r.progress.Save(ctx, prev); saveErr != nil {
				r.logger.Warn("clear running flag", logger.ErrorField(saveErr))
			}
		}
		return err
	}
	if maxItems > 0 && len(items) > maxItems {
		items = items[:maxItems]
	}

	p := r.initProgress(ctx, len(items))
	if err := r.checkpoint(ctx, p); err != nil {
		return err
	}

	if len(items) == 0 {
		r.finish(ctx, p, entity.RunCompleted)
		return nil
	}

	started := r.now()
	deadline := started.Add(r.cfg.TimeBudget)
	state := entity.RunCompleted

	for p.CurrentIndex < len(items) {
		if !r.now().Before(deadline) {
			state = entity.RunTimeBudgetExceeded
			r.logger.Info("time budget exhausted, checkpointing for resume",
				logger.IntField("current_index", p.CurrentIndex),
				logger.IntField("total", len(items)))
			break
		}

		end := p.CurrentIndex + r.cfg.BatchSize
		if end > len(items) {
			end = len(items)
		}
		batch := items[p.CurrentIndex:end]

		updates, processed, canceled := r.processBatch(ctx, batch, p)

		if flushErr := r.sync.Apply(ctx, updates); flushErr != nil {
			// The checkpoint still advances: the rows are lost for this
			// run but the items were looked up, and a later run rewrites
			// every row anyway.
			r.logger.Error("batch flush failed, rows dropped",
				logger.ErrorField(flushErr),
				logger.IntField("rows", len(updates)))
		}

		p.CurrentIndex += processed
		p.CompletionRate = completionRate(p.CurrentIndex, p.TotalCount)
		if err := r.checkpoint(ctx, p); err != nil {
			return err
		}

		if canceled {
			r.finish(ctx, p, entity.RunFailed)
			return ctx.Err()
		}
	}

	r.finish(ctx, p, state)
	return nil
}

// initProgress loads the previous checkpoint and either resumes it or
// starts fresh. A checkpoint is resumed when it describes an unfinished
// run whose index still fits the current item set; counters carry over
// so the final summary covers the whole logical run.
func (r *BatchRunner) initProgress(ctx context.Context, total int) *entity.JobProgress {
	p := &entity.JobProgress{
		TotalCount: total,
		StartedAt:  r.now().Format(time.RFC3339),
		IsRunning:  true,
	}

	prev, err := r.progress.Load(ctx)
	if err != nil {
		if !errors.Is(err, repository.ErrNoProgress) {
			r.logger.Warn("previous progress unreadable, starting fresh", logger.ErrorField(err))
		}
		return p
	}

	if prev.Unfinished() && prev.CurrentIndex < total {
		p.CurrentIndex = prev.CurrentIndex
		p.ProcessedCount = prev.ProcessedCount
		p.SuccessCount = prev.SuccessCount
		p.ErrorCount = prev.ErrorCount
		p.CompletionRate = completionRate(p.CurrentIndex, total)
		r.logger.Info("resuming unfinished run",
			logger.IntField("current_index", prev.CurrentIndex),
			logger.IntField("total", total))
	}
	return p
}

// processBatch runs the items of one batch sequentially, honoring the
// inter-item delay, and returns the row updates, the number of items
// processed, and whether the context was canceled mid-batch.
func (r *BatchRunner) processBatch(ctx context.Context, batch []entity.WorkItem, p *entity.JobProgress) ([]entity.LedgerRowUpdate, int, bool) {
	updates := make([]entity.LedgerRowUpdate, 0, len(batch))

	for i, item := range batch {
		if ctx.Err() != nil {
			return updates, i, true
		}

		update, result := r.processItem(ctx, item)
		updates = append(updates, update)

		p.ProcessedCount++
		switch result {
		case itemFound:
			p.SuccessCount++
		case itemError:
			p.ErrorCount++
		}
		r.metrics.IncItem(string(result))

		if i < len(batch)-1 {
			r.sleep(ctx, r.cfg.PerItemDelay)
		}
	}
	return updates, len(batch), false
}

// processItem looks up one JAN code and builds its row update. A panic
// in the extraction path is contained here and counted as an error, so
// one malformed page cannot take down the run.
func (r *BatchRunner) processItem(ctx context.Context, item entity.WorkItem) (update entity.LedgerRowUpdate, result itemResult) {
	searchURL := r.fetcher.SearchURL(item.JANCode)
	update = entity.LedgerRowUpdate{
		RowIndex:     item.RowIndex,
		PriceDisplay: entity.NoPriceMarker,
		UpdatedAt:    r.now().Format(ledgerTimeLayout),
		DetailURL:    searchURL,
	}
	result = itemError

	defer func() {
		if rec := recover(); rec != nil {
			r.logger.Error("item processing panicked",
				logger.StringField("jan_code", item.JANCode),
				logger.Field("panic", rec))
			update.PriceDisplay = entity.NoPriceMarker
			result = itemError
		}
	}()

	outcome := r.fetcher.Fetch(ctx, searchURL)
	if !outcome.OK() {
		r.logger.Warn("fetch failed",
			logger.StringField("jan_code", item.JANCode),
			logger.StringField("status", string(outcome.Status)),
			logger.IntField("code", outcome.Code))
		return update, itemError
	}

	res := r.extractor.Extract(ctx, item.JANCode, outcome)
	if res.SourceURL != "" {
		update.DetailURL = res.SourceURL
	}
	if res.Status == entity.ExtractionFound {
		update.PriceDisplay = yen.Format(res.Price)
		r.logger.Info("price found",
			logger.StringField("jan_code", item.JANCode),
			logger.IntField("price", res.Price),
			logger.StringField("strategy", res.Strategy))
		return update, itemFound
	}

	r.logger.Info("no price found",
		logger.StringField("jan_code", item.JANCode),
		logger.StringField("status", string(res.Status)))
	return update, itemNotFound
}

// finish stamps the terminal state, writes the final checkpoint, and
// sends the run summary.
func (r *BatchRunner) finish(ctx context.Context, p *entity.JobProgress, state entity.RunState) {
	p.IsRunning = false
	p.CompletionRate = completionRate(p.CurrentIndex, p.TotalCount)
	if err := r.progress.Save(ctx, p); err != nil {
		r.logger.Error("final checkpoint failed", logger.ErrorField(err))
	}

	r.logger.Info("run finished",
		logger.StringField("state", string(state)),
		logger.IntField("processed", p.ProcessedCount),
		logger.IntField("success", p.SuccessCount),
		logger.IntField("errors", p.ErrorCount))

	if r.notifier != nil {
		if err := r.notifier.SendMessage(telegram.FormatRunSummary(state, p)); err != nil {
			r.logger.Warn("run summary notification failed", logger.ErrorField(err))
		}
	}
}

func (r *BatchRunner) checkpoint(ctx context.Context, p *entity.JobProgress) error {
	if err := r.progress.Save(ctx, p); err != nil {
		return fmt.Errorf("save checkpoint: %w", err)
	}
	return nil
}

func completionRate(index, total int) float64 {
	if total == 0 {
		return 100
	}
	return float64(index) / float64(total) * 100
}
