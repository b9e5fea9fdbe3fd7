package models

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func strPtr(s string) *string {
	return &s
}

func TestBookingTransitions(t *testing.T) {
	now := time.Date(2026, 3, 10, 9, 0, 0, 0, time.UTC)

	testCases := []struct {
		name    string
		from    BookingStatus
		to      BookingStatus
		reason  *string
		wantErr error
	}{
		{name: "pending to confirmed", from: BookingStatusPending, to: BookingStatusConfirmed},
		{name: "confirmed to in progress", from: BookingStatusConfirmed, to: BookingStatusInProgress},
		{name: "in progress to completed", from: BookingStatusInProgress, to: BookingStatusCompleted},
		{name: "pending to cancelled with reason", from: BookingStatusPending, to: BookingStatusCancelled, reason: strPtr("customer request")},
		{name: "confirmed to no show", from: BookingStatusConfirmed, to: BookingStatusNoShow},
		{name: "pending to cancelled without reason", from: BookingStatusPending, to: BookingStatusCancelled, wantErr: ErrCancellationReason},
		{name: "completed back to pending", from: BookingStatusCompleted, to: BookingStatusPending, wantErr: ErrInvalidTransition},
		{name: "pending skips to completed", from: BookingStatusPending, to: BookingStatusCompleted, wantErr: ErrInvalidTransition},
		{name: "cancelled to confirmed", from: BookingStatusCancelled, to: BookingStatusConfirmed, wantErr: ErrInvalidTransition},
		{name: "no show to in progress", from: BookingStatusNoShow, to: BookingStatusInProgress, wantErr: ErrInvalidTransition},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			booking := &Booking{Status: tc.from}
			err := booking.Transition(tc.to, tc.reason, now)

			if tc.wantErr != nil {
				require.Error(t, err)
				assert.ErrorIs(t, err, tc.wantErr)
				if tc.wantErr == ErrInvalidTransition {
					assert.Equal(t, tc.from, booking.Status)
				}
				return
			}

			require.NoError(t, err)
			assert.Equal(t, tc.to, booking.Status)
		})
	}
}

func TestBookingTimestampsSetOnce(t *testing.T) {
	first := time.Date(2026, 3, 10, 9, 0, 0, 0, time.UTC)
	second := first.Add(2 * time.Hour)

	booking := &Booking{Status: BookingStatusPending}

	require.NoError(t, booking.Transition(BookingStatusConfirmed, nil, first))
	require.NotNil(t, booking.ConfirmedAt)
	assert.Equal(t, first, *booking.ConfirmedAt)

	// Idempotent re-entry must not overwrite the existing timestamp
	require.NoError(t, booking.Transition(BookingStatusConfirmed, nil, second))
	assert.Equal(t, first, *booking.ConfirmedAt)
}

func TestBookingCancellationStampsReason(t *testing.T) {
	now := time.Date(2026, 3, 10, 9, 0, 0, 0, time.UTC)
	booking := &Booking{Status: BookingStatusConfirmed}

	require.NoError(t, booking.Transition(BookingStatusCancelled, strPtr("weather"), now))
	require.NotNil(t, booking.CancelledAt)
	require.NotNil(t, booking.CancellationReason)
	assert.Equal(t, "weather", *booking.CancellationReason)
	assert.True(t, booking.IsTerminal())
}

func TestBookingComputeTotal(t *testing.T) {
	booking := &Booking{
		BasePrice:      decimal.RequireFromString("120.00"),
		AddonsPrice:    decimal.RequireFromString("35.50"),
		DiscountAmount: decimal.RequireFromString("10.00"),
		TaxAmount:      decimal.RequireFromString("12.01"),
	}

	assert.True(t, booking.ComputeTotal().Equal(decimal.RequireFromString("157.51")))

	booking.TotalPrice = decimal.RequireFromString("157.51")
	assert.NoError(t, booking.ValidateTotal())

	booking.TotalPrice = decimal.RequireFromString("157.52")
	assert.ErrorIs(t, booking.ValidateTotal(), ErrTotalPriceMismatch)
}
