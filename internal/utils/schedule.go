// Package utils holds the pure date arithmetic shared by the recurring
// engine, the reconciliation engine, and the notification sweeps.
package utils

import (
	"fmt"
	"time"

	"tidynest/internal/models"

	"github.com/shopspring/decimal"
)

// DateOnly truncates a time to midnight UTC so calendar comparisons are not
// affected by the time-of-day component.
func DateOnly(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}

// AdvanceOccurrence returns the next occurrence date for a recurrence rule.
// Weekly adds 7 days, biweekly 14. Monthly adds one calendar month keeping
// the day-of-month; when the target month is shorter the day clamps to the
// last valid day of that month, so Jan 31 -> Feb 28 (29 in a leap year),
// never Mar 3.
func AdvanceOccurrence(date time.Time, frequency models.Frequency) (time.Time, error) {
	date = DateOnly(date)

	switch frequency {
	case models.FrequencyWeekly:
		return date.AddDate(0, 0, 7), nil
	case models.FrequencyBiweekly:
		return date.AddDate(0, 0, 14), nil
	case models.FrequencyMonthly:
		return advanceMonth(date), nil
	default:
		return time.Time{}, fmt.Errorf("unknown frequency: %q", frequency)
	}
}

func advanceMonth(date time.Time) time.Time {
	year, month, day := date.Date()

	firstOfNext := time.Date(year, month+1, 1, 0, 0, 0, 0, time.UTC)
	if last := lastDayOfMonth(firstOfNext); day > last {
		day = last
	}

	return time.Date(firstOfNext.Year(), firstOfNext.Month(), day, 0, 0, 0, 0, time.UTC)
}

func lastDayOfMonth(t time.Time) int {
	return time.Date(t.Year(), t.Month()+1, 0, 0, 0, 0, 0, time.UTC).Day()
}

// IsOverdue reports whether an unpaid balance is past its due date. Fully
// paid invoices are never overdue regardless of date.
func IsOverdue(dueDate, today time.Time, amountDue decimal.Decimal) bool {
	return DateOnly(dueDate).Before(DateOnly(today)) && amountDue.IsPositive()
}

// TomorrowWindow returns the calendar date the reminder sweep targets
func TomorrowWindow(today time.Time) time.Time {
	return DateOnly(today).AddDate(0, 0, 1)
}
