package ledger

import (
	"testing"
	"time"

	"budget/internal/core"
)

func date(year int, month time.Month, day int) time.Time {
	return time.Date(year, month, day, 0, 0, 0, 0, time.UTC)
}

func TestCurrentPeriodDueDate(t *testing.T) {
	tests := []struct {
		name       string
		dayOfMonth int
		today      time.Time
		want       time.Time
	}{
		{
			name:       "plain day mid-month",
			dayOfMonth: 15,
			today:      date(2024, time.March, 1),
			want:       date(2024, time.March, 15),
		},
		{
			name:       "day 31 clips to leap February",
			dayOfMonth: 31,
			today:      date(2024, time.February, 15),
			want:       date(2024, time.February, 29),
		},
		{
			name:       "day 31 clips to non-leap February",
			dayOfMonth: 31,
			today:      date(2023, time.February, 10),
			want:       date(2023, time.February, 28),
		},
		{
			name:       "day 31 clips in 30-day month",
			dayOfMonth: 31,
			today:      date(2024, time.April, 5),
			want:       date(2024, time.April, 30),
		},
		{
			name:       "day 31 fits in 31-day month",
			dayOfMonth: 31,
			today:      date(2024, time.March, 5),
			want:       date(2024, time.March, 31),
		},
		{
			name:       "first of month",
			dayOfMonth: 1,
			today:      date(2024, time.December, 31),
			want:       date(2024, time.December, 1),
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := CurrentPeriodDueDate(tt.dayOfMonth, tt.today)
			if !got.Equal(tt.want) {
				t.Errorf("CurrentPeriodDueDate(%d, %s) = %s, want %s",
					tt.dayOfMonth, tt.today.Format("2006-01-02"), got.Format("2006-01-02"), tt.want.Format("2006-01-02"))
			}
		})
	}
}

func TestIsOverdue(t *testing.T) {
	due := date(2024, time.March, 5)

	tests := []struct {
		name  string
		paid  bool
		today time.Time
		want  bool
	}{
		{"past due and unpaid", false, date(2024, time.March, 10), true},
		{"past due but paid", true, date(2024, time.March, 10), false},
		{"before due date", false, date(2024, time.March, 3), false},
		{"on due date", false, date(2024, time.March, 5), false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := IsOverdue(due, tt.paid, tt.today); got != tt.want {
				t.Errorf("IsOverdue() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestIsDueSoon(t *testing.T) {
	due := date(2024, time.March, 10)

	tests := []struct {
		name  string
		paid  bool
		today time.Time
		want  bool
	}{
		{"within window", false, date(2024, time.March, 5), true},
		{"exactly seven days ahead", false, date(2024, time.March, 3), true},
		{"outside window", false, date(2024, time.March, 1), false},
		{"paid within window", true, date(2024, time.March, 5), false},
		{"already overdue", false, date(2024, time.March, 12), false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := IsDueSoon(due, tt.paid, tt.today, DefaultDueSoonWindow); got != tt.want {
				t.Errorf("IsDueSoon() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestStatusForPeriodRollover(t *testing.T) {
	bill := core.Bill{ID: 1, Name: "Rent", DayOfMonth: 1, Active: true}

	// Paid in March: not overdue despite the due date having passed.
	march := date(2024, time.March, 20)
	status := StatusFor(bill, true, march, DefaultDueSoonWindow)
	if !status.Paid || status.Overdue {
		t.Errorf("March: paid=%v overdue=%v, want paid and not overdue", status.Paid, status.Overdue)
	}

	// April: no payment row for the new period, so the bill reports
	// unpaid and overdue once the due date passes. Nothing was mutated
	// at the rollover.
	april := date(2024, time.April, 2)
	status = StatusFor(bill, false, april, DefaultDueSoonWindow)
	if status.Paid {
		t.Error("April: bill should report unpaid for the new period")
	}
	if !status.Overdue {
		t.Error("April: bill past its due date should be overdue")
	}
	if !status.DueDate.Equal(date(2024, time.April, 1)) {
		t.Errorf("April due date = %s", status.DueDate.Format("2006-01-02"))
	}
}
