package core

import (
	"errors"
	"testing"
	"time"
)

func TestTransactionValidate(t *testing.T) {
	valid := Transaction{
		Description: "Groceries",
		Amount:      Money{Cents: 4500},
		Category:    "Food",
		Type:        Expense,
		AccountID:   1,
	}

	tests := []struct {
		name    string
		mutate  func(*Transaction)
		wantErr error
	}{
		{"valid", func(*Transaction) {}, nil},
		{"empty description", func(tx *Transaction) { tx.Description = "  " }, ErrEmptyDescription},
		{"zero amount", func(tx *Transaction) { tx.Amount.Cents = 0 }, ErrInvalidAmount},
		{"negative amount", func(tx *Transaction) { tx.Amount.Cents = -100 }, ErrInvalidAmount},
		{"empty category", func(tx *Transaction) { tx.Category = "" }, ErrEmptyCategory},
		{"bad type", func(tx *Transaction) { tx.Type = "transfer" }, ErrInvalidTransactionType},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tx := valid
			tt.mutate(&tx)
			err := tx.Validate()
			if !errors.Is(err, tt.wantErr) {
				t.Errorf("Validate() = %v, want %v", err, tt.wantErr)
			}
		})
	}
}

func TestBillValidateDayOfMonth(t *testing.T) {
	bill := Bill{Name: "Rent", Amount: Money{Cents: 120000}, Category: "Housing", AccountID: 1}

	for _, day := range []int{1, 15, 28, 31} {
		bill.DayOfMonth = day
		if err := bill.Validate(); err != nil {
			t.Errorf("day %d: unexpected error %v", day, err)
		}
	}
	for _, day := range []int{0, -1, 32} {
		bill.DayOfMonth = day
		if !errors.Is(bill.Validate(), ErrInvalidDayOfMonth) {
			t.Errorf("day %d: expected ErrInvalidDayOfMonth", day)
		}
	}
}

func TestSavingsGoalDerived(t *testing.T) {
	goal := SavingsGoal{TargetAmount: Money{Cents: 100000}, CurrentAmount: Money{Cents: 25000}}

	if got := goal.PercentComplete(); got != 25 {
		t.Errorf("PercentComplete() = %v, want 25", got)
	}
	if got := goal.Remaining(); got.Cents != 75000 {
		t.Errorf("Remaining() = %d, want 75000", got.Cents)
	}

	// Overfunded goal: raw percentage exceeds 100, capped stays at 100,
	// remaining clamps to zero.
	goal.CurrentAmount = Money{Cents: 150000}
	if got := goal.PercentComplete(); got != 150 {
		t.Errorf("PercentComplete() = %v, want 150", got)
	}
	if got := goal.PercentCompleteCapped(); got != 100 {
		t.Errorf("PercentCompleteCapped() = %v, want 100", got)
	}
	if got := goal.Remaining(); got.Cents != 0 {
		t.Errorf("Remaining() = %d, want 0", got.Cents)
	}
}

func TestPeriod(t *testing.T) {
	p := PeriodOf(time.Date(2024, time.February, 15, 10, 30, 0, 0, time.UTC))
	if p.Year != 2024 || p.Month != time.February {
		t.Fatalf("PeriodOf() = %+v", p)
	}
	if got := p.Days(); got != 29 {
		t.Errorf("Days() = %d, want 29 (leap year)", got)
	}
	if got := (Period{Year: 2023, Month: time.February}).Days(); got != 28 {
		t.Errorf("Days() = %d, want 28", got)
	}

	next := Period{Year: 2024, Month: time.December}.Next()
	if next.Year != 2025 || next.Month != time.January {
		t.Errorf("Next() = %+v, want January 2025", next)
	}

	if got := p.String(); got != "February 2024" {
		t.Errorf("String() = %q", got)
	}
}
