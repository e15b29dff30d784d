package ledger

import (
	"time"

	"budget/internal/core"
)

// DefaultDueSoonWindow is how far ahead of the due date a bill starts
// reporting as due soon.
const DefaultDueSoonWindow = 7 * 24 * time.Hour

// CurrentPeriodDueDate returns the bill's due date within today's month.
// A dayOfMonth beyond the month's length clips to the last valid day, so
// day 31 resolves to Feb 29 in a leap year and Apr 30 in April. This is
// documented clipping, not an error.
func CurrentPeriodDueDate(dayOfMonth int, today time.Time) time.Time {
	period := core.PeriodOf(today)
	day := dayOfMonth
	if last := period.Days(); day > last {
		day = last
	}
	return time.Date(period.Year, period.Month, day, 0, 0, 0, 0, today.Location())
}

// IsOverdue reports whether an unpaid bill's due date has passed.
// A paid bill is never overdue for its period.
func IsOverdue(dueDate time.Time, paidThisPeriod bool, today time.Time) bool {
	if paidThisPeriod {
		return false
	}
	return today.After(dueDate)
}

// IsDueSoon reports whether an unpaid bill's due date falls within the
// given window from today. Overdue bills are not "due soon"; they already
// report through IsOverdue.
func IsDueSoon(dueDate time.Time, paidThisPeriod bool, today time.Time, window time.Duration) bool {
	if paidThisPeriod {
		return false
	}
	if today.After(dueDate) {
		return false
	}
	return !dueDate.After(today.Add(window))
}

// BillStatus is the derived per-period view of one bill.
type BillStatus struct {
	Bill    core.Bill
	DueDate time.Time
	Paid    bool
	Overdue bool
	DueSoon bool
}

// StatusFor derives a bill's status for the period containing today.
// Paid-state is keyed by period, so paid reflects only whether a payment
// row exists for today's month; prior months need no reset.
func StatusFor(bill core.Bill, paidThisPeriod bool, today time.Time, dueSoonWindow time.Duration) BillStatus {
	due := CurrentPeriodDueDate(bill.DayOfMonth, today)
	return BillStatus{
		Bill:    bill,
		DueDate: due,
		Paid:    paidThisPeriod,
		Overdue: IsOverdue(due, paidThisPeriod, today),
		DueSoon: IsDueSoon(due, paidThisPeriod, today, dueSoonWindow),
	}
}
