package ledger

import (
	"testing"

	"budget/internal/core"
)

func TestAggregate(t *testing.T) {
	transactions := []core.Transaction{
		{Category: "Food"},
		{Category: "Food"},
		{Category: "Transport"},
		{Category: ""}, // blank labels are skipped
	}
	bills := []core.Bill{
		{Category: "Housing"},
		{Category: "Food"},
	}

	got := Aggregate(transactions, bills)

	if len(got) != 3 {
		t.Fatalf("len = %d, want 3", len(got))
	}

	// Ordered by total count descending.
	if got[0].Name != "Food" || got[0].TransactionCount != 2 || got[0].BillCount != 1 || got[0].TotalCount != 3 {
		t.Errorf("got[0] = %+v, want Food 2/1/3", got[0])
	}

	// Ties broken by name.
	if got[1].Name != "Housing" || got[2].Name != "Transport" {
		t.Errorf("tie order = %s, %s, want Housing, Transport", got[1].Name, got[2].Name)
	}
	if got[1].TotalCount != 1 || got[2].TotalCount != 1 {
		t.Errorf("tie totals = %d, %d, want 1, 1", got[1].TotalCount, got[2].TotalCount)
	}
}

func TestAggregateEmpty(t *testing.T) {
	if got := Aggregate(nil, nil); len(got) != 0 {
		t.Errorf("Aggregate(nil, nil) = %v, want empty", got)
	}
}
