package core

import (
	"fmt"
	"time"
)

// Period identifies one calendar month, the recurrence unit for bills.
// Bill paid-state is keyed by (bill ID, Period) so a month rollover needs
// no mutation: a bill simply has no payment row for the new period yet.
type Period struct {
	Year  int
	Month time.Month
}

// PeriodOf returns the period containing t.
func PeriodOf(t time.Time) Period {
	return Period{Year: t.Year(), Month: t.Month()}
}

// Next returns the following calendar month, rolling the year over after
// December.
func (p Period) Next() Period {
	if p.Month == time.December {
		return Period{Year: p.Year + 1, Month: time.January}
	}
	return Period{Year: p.Year, Month: p.Month + 1}
}

// Days returns the number of days in the period's month.
func (p Period) Days() int {
	// Day zero of the next month is the last day of this one.
	return time.Date(p.Year, p.Month+1, 0, 0, 0, 0, 0, time.UTC).Day()
}

// String formats the period as "January 2024", matching the wording used
// in bill status messages.
func (p Period) String() string {
	return fmt.Sprintf("%s %d", p.Month.String(), p.Year)
}
