package service

import (
	"context"
	"testing"

	"github.com/hiyoco-of-piyo/sedori-auto/pkg/logger"
)

func TestWorkItemSourceLengthMode(t *testing.T) {
	ledger := &memLedger{cells: []string{
		"JANコード",      // row 1, header
		"4902370536485", // row 2
		"メモ",            // row 3, too short
		"",              // row 4
		"4988601009836", // row 5
	}}

	source := NewWorkItemSource(ledger, false, logger.NewNop())
	items, err := source.Items(context.Background())
	if err != nil {
		t.Fatalf("Items() error: %v", err)
	}

	if len(items) != 2 {
		t.Fatalf("items = %d, want 2", len(items))
	}
	if items[0].RowIndex != 2 || items[0].JANCode != "4902370536485" {
		t.Fatalf("first item = %+v", items[0])
	}
	if items[1].RowIndex != 5 || items[1].JANCode != "4988601009836" {
		t.Fatalf("second item = %+v", items[1])
	}
}

func TestWorkItemSourceNumericOnly(t *testing.T) {
	ledger := &memLedger{cells: []string{
		"JANコード",
		"12345",         // short but all digits
		"4902370536485", // full JAN
		"ABC1234567890", // long but not numeric
	}}

	source := NewWorkItemSource(ledger, true, logger.NewNop())
	items, err := source.Items(context.Background())
	if err != nil {
		t.Fatalf("Items() error: %v", err)
	}

	if len(items) != 2 {
		t.Fatalf("items = %d, want 2", len(items))
	}
	if items[0].JANCode != "12345" || items[1].JANCode != "4902370536485" {
		t.Fatalf("items = %+v", items)
	}
}

func TestWorkItemSourceHeaderAlwaysSkipped(t *testing.T) {
	// Even a header cell that looks like a JAN code is skipped.
	ledger := &memLedger{cells: []string{"4902370536485"}}

	source := NewWorkItemSource(ledger, false, logger.NewNop())
	items, err := source.Items(context.Background())
	if err != nil {
		t.Fatalf("Items() error: %v", err)
	}
	if len(items) != 0 {
		t.Fatalf("items = %+v, want none", items)
	}
}
