package utils

import (
	"testing"
	"time"

	"tidynest/internal/models"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func date(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func TestAdvanceOccurrence(t *testing.T) {
	testCases := []struct {
		name      string
		start     time.Time
		frequency models.Frequency
		expected  time.Time
	}{
		{"weekly", date(2026, time.March, 2), models.FrequencyWeekly, date(2026, time.March, 9)},
		{"weekly across month boundary", date(2026, time.March, 30), models.FrequencyWeekly, date(2026, time.April, 6)},
		{"biweekly", date(2026, time.March, 2), models.FrequencyBiweekly, date(2026, time.March, 16)},
		{"monthly plain", date(2026, time.March, 15), models.FrequencyMonthly, date(2026, time.April, 15)},
		{"monthly jan 31 clamps to feb 28", date(2026, time.January, 31), models.FrequencyMonthly, date(2026, time.February, 28)},
		{"monthly jan 31 leap year clamps to feb 29", date(2028, time.January, 31), models.FrequencyMonthly, date(2028, time.February, 29)},
		{"monthly mar 31 clamps to apr 30", date(2026, time.March, 31), models.FrequencyMonthly, date(2026, time.April, 30)},
		{"monthly dec rolls to jan", date(2026, time.December, 15), models.FrequencyMonthly, date(2027, time.January, 15)},
		{"monthly from clamped date keeps short day", date(2026, time.February, 28), models.FrequencyMonthly, date(2026, time.March, 28)},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			next, err := AdvanceOccurrence(tc.start, tc.frequency)
			require.NoError(t, err)
			assert.Equal(t, tc.expected, next)
		})
	}
}

func TestAdvanceOccurrenceUnknownFrequency(t *testing.T) {
	_, err := AdvanceOccurrence(date(2026, time.March, 2), models.Frequency("quarterly"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "quarterly")
}

func TestAdvanceOccurrenceNormalizesTimeOfDay(t *testing.T) {
	start := time.Date(2026, time.March, 2, 17, 45, 12, 0, time.UTC)
	next, err := AdvanceOccurrence(start, models.FrequencyWeekly)
	require.NoError(t, err)
	assert.Equal(t, date(2026, time.March, 9), next)
}

func TestIsOverdue(t *testing.T) {
	today := date(2026, time.April, 10)
	hundred := decimal.NewFromInt(100)

	assert.True(t, IsOverdue(date(2026, time.April, 9), today, hundred))
	assert.False(t, IsOverdue(date(2026, time.April, 10), today, hundred), "due today is not overdue")
	assert.False(t, IsOverdue(date(2026, time.April, 11), today, hundred))
	assert.False(t, IsOverdue(date(2026, time.April, 9), today, decimal.Zero), "settled invoices are never overdue")
}

func TestTomorrowWindow(t *testing.T) {
	assert.Equal(t, date(2026, time.April, 11), TomorrowWindow(date(2026, time.April, 10)))
	assert.Equal(t, date(2027, time.January, 1), TomorrowWindow(date(2026, time.December, 31)))
	assert.Equal(
		t,
		date(2026, time.April, 11),
		TomorrowWindow(time.Date(2026, time.April, 10, 23, 59, 0, 0, time.UTC)),
	)
}
