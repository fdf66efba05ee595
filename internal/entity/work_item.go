package entity

// WorkItem is one ledger row scheduled for a buyback price lookup.
// The ordered set of items is computed once per run from a snapshot
// of the ledger and is immutable afterwards.
type WorkItem struct {
	RowIndex int    // 1-based ledger row number
	JANCode  string // product identifier used as the search key
}
