package telegram

import (
	"fmt"

	"github.com/hiyoco-of-piyo/sedori-auto/internal/entity"
)

// FormatRunSummary renders a run report suitable for a Telegram message.
func FormatRunSummary(state entity.RunState, p *entity.JobProgress) string {
	header := "✅ 価格更新 完了"
	switch state {
	case entity.RunTimeBudgetExceeded:
		header = "⏱ 価格更新 時間切れで中断（再開可能）"
	case entity.RunFailed:
		header = "❌ 価格更新 失敗"
	}

	return fmt.Sprintf(
		"*%s*\n進捗率: %.1f%%\n処理済み: %d/%d件\n成功: %d件 / エラー: %d件",
		header,
		p.CompletionRate,
		p.ProcessedCount, p.TotalCount,
		p.SuccessCount, p.ErrorCount,
	)
}
