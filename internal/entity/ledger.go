package entity

// NoPriceMarker is written to the price cell when no price was found,
// so operators can tell "looked up, nothing there" from "never visited".
const NoPriceMarker = "-"

// LedgerRowUpdate is the write-once-per-run payload for one ledger row.
// It targets exactly the three result columns (price, timestamp, detail
// link); the identifier column the row was read from is never touched.
type LedgerRowUpdate struct {
	RowIndex     int
	PriceDisplay string // formatted price ("¥12,345") or NoPriceMarker
	UpdatedAt    string
	DetailURL    string
}
