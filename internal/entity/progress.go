package entity

// RunState is the batch runner's state machine:
// Idle -> Running -> {Completed, TimeBudgetExceeded, Failed} -> Idle.
type RunState string

const (
	RunIdle               RunState = "idle"
	RunRunning            RunState = "running"
	RunCompleted          RunState = "completed"
	RunTimeBudgetExceeded RunState = "time_budget_exceeded"
	RunFailed             RunState = "failed"
)

// JobProgress tracks one batch run. It is exclusively owned and mutated
// by the batch runner; the progress store only loads and saves it. The
// JSON keys match the progress file layout consumed by operators.
//
// CurrentIndex is only advanced after the corresponding ledger rows have
// been flushed, so a resumed run never re-processes written rows and
// never skips unwritten ones.
type JobProgress struct {
	TotalCount     int     `json:"total_count"`
	ProcessedCount int     `json:"processed_count"`
	SuccessCount   int     `json:"success_count"`
	ErrorCount     int     `json:"error_count"`
	CurrentIndex   int     `json:"current_index"`
	StartedAt      string  `json:"start_time"`
	LastUpdatedAt  string  `json:"last_update"`
	IsRunning      bool    `json:"is_running"`
	CompletionRate float64 `json:"completion_rate"`
}

// Unfinished reports whether the progress describes a run that stopped
// before reaching the end of its item set, either by crash (IsRunning
// left true) or by time-budget exhaustion. Such a run is resumable at
// CurrentIndex.
func (p *JobProgress) Unfinished() bool {
	return p != nil && p.CurrentIndex > 0 && p.CompletionRate < 100
}
