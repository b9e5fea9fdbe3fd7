package models

import (
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/datatypes"
)

type BookingStatus string

const (
	BookingStatusPending    BookingStatus = "pending"
	BookingStatusConfirmed  BookingStatus = "confirmed"
	BookingStatusInProgress BookingStatus = "in_progress"
	BookingStatusCompleted  BookingStatus = "completed"
	BookingStatusCancelled  BookingStatus = "cancelled"
	BookingStatusNoShow     BookingStatus = "no_show"
)

var (
	ErrInvalidTransition     = errors.New("invalid booking status transition")
	ErrCancellationReason    = errors.New("cancellation requires a reason")
	ErrTotalPriceMismatch    = errors.New("total price does not match its components")
	ErrNegativeTotal         = errors.New("total price must not be negative")
)

// bookingTransitions lists the allowed next states for each status. Terminal
// states have no entries.
var bookingTransitions = map[BookingStatus][]BookingStatus{
	BookingStatusPending:    {BookingStatusConfirmed, BookingStatusCancelled, BookingStatusNoShow},
	BookingStatusConfirmed:  {BookingStatusInProgress, BookingStatusCancelled, BookingStatusNoShow},
	BookingStatusInProgress: {BookingStatusCompleted},
}

// Booking is one scheduled (or completed/cancelled) cleaning job
type Booking struct {
	BaseUUIDModel
	CustomerID uuid.UUID `gorm:"type:uuid;index"  json:"customerId"`
	Customer   *Customer `gorm:"foreignKey:CustomerID" json:"customer,omitempty"`
	ServiceID  uuid.UUID `gorm:"type:uuid"        json:"serviceId"`
	Service    *Service  `gorm:"foreignKey:ServiceID"  json:"service,omitempty"`

	// Scheduling. ScheduledDate carries the calendar date; TimeSlot is the
	// start-of-slot clock time, e.g. "13:00".
	ScheduledDate time.Time `gorm:"type:date;index" json:"scheduledDate"`
	TimeSlot      string    `gorm:"type:text"       json:"timeSlot"`

	// Property snapshot taken at booking time
	AddressLine string `gorm:"type:text" json:"addressLine"`
	City        string `gorm:"type:text" json:"city"`
	State       string `gorm:"type:text" json:"state"`
	ZipCode     string `gorm:"type:text" json:"zipCode"`
	Bedrooms    int    `gorm:"type:int"  json:"bedrooms"`
	Bathrooms   int    `gorm:"type:int"  json:"bathrooms"`
	SquareFeet  int    `gorm:"type:int"  json:"squareFeet"`

	// Pricing captured at booking time
	BasePrice      decimal.Decimal `gorm:"type:numeric(10,2)"           json:"basePrice"`
	AddonsPrice    decimal.Decimal `gorm:"type:numeric(10,2);default:0" json:"addonsPrice"`
	DiscountAmount decimal.Decimal `gorm:"type:numeric(10,2);default:0" json:"discountAmount"`
	TaxAmount      decimal.Decimal `gorm:"type:numeric(10,2);default:0" json:"taxAmount"`
	TotalPrice     decimal.Decimal `gorm:"type:numeric(10,2)"           json:"totalPrice"`
	Addons         datatypes.JSON  `gorm:"type:jsonb"                   json:"addons"`

	Status             BookingStatus `gorm:"type:text;default:'pending';index" json:"status"`
	CancellationReason *string       `gorm:"type:text"                         json:"cancellationReason,omitempty"`

	// Recurrence linkage
	IsRecurring         bool       `gorm:"type:bool;default:false" json:"isRecurring"`
	RecurringTemplateID *uuid.UUID `gorm:"type:uuid;index"         json:"recurringTemplateId,omitempty"`

	// Lifecycle timestamps, each set at most once on first entry to the
	// corresponding state
	ConfirmedAt *time.Time `gorm:"type:timestamp" json:"confirmedAt,omitempty"`
	StartedAt   *time.Time `gorm:"type:timestamp" json:"startedAt,omitempty"`
	CompletedAt *time.Time `gorm:"type:timestamp" json:"completedAt,omitempty"`
	CancelledAt *time.Time `gorm:"type:timestamp" json:"cancelledAt,omitempty"`

	Notes string `gorm:"type:text" json:"notes"`
}

// ComputeTotal returns basePrice + addonsPrice - discountAmount + taxAmount
func (b *Booking) ComputeTotal() decimal.Decimal {
	return b.BasePrice.Add(b.AddonsPrice).Sub(b.DiscountAmount).Add(b.TaxAmount)
}

// ValidateTotal checks the pricing invariant before a booking is persisted
func (b *Booking) ValidateTotal() error {
	total := b.ComputeTotal()
	if !total.Equal(b.TotalPrice) {
		return fmt.Errorf(
			"%w: computed %s, stored %s",
			ErrTotalPriceMismatch, total.String(), b.TotalPrice.String(),
		)
	}
	if total.IsNegative() {
		return fmt.Errorf("%w: %s", ErrNegativeTotal, total.String())
	}
	return nil
}

// CanTransitionTo reports whether the booking may move to the target status.
// Re-entering the current status is allowed and treated as a no-op by
// Transition, so idempotent retries do not fail.
func (b *Booking) CanTransitionTo(target BookingStatus) bool {
	if b.Status == target {
		return true
	}
	for _, allowed := range bookingTransitions[b.Status] {
		if allowed == target {
			return true
		}
	}
	return false
}

// Transition moves the booking to the target status, stamping the matching
// lifecycle timestamp on first entry only. A repeated transition to the
// current status never overwrites an existing timestamp.
func (b *Booking) Transition(target BookingStatus, reason *string, now time.Time) error {
	if !b.CanTransitionTo(target) {
		return fmt.Errorf("%w: %s -> %s", ErrInvalidTransition, b.Status, target)
	}

	if target == BookingStatusCancelled && (reason == nil || *reason == "") {
		return ErrCancellationReason
	}

	b.Status = target

	switch target {
	case BookingStatusConfirmed:
		if b.ConfirmedAt == nil {
			b.ConfirmedAt = &now
		}
	case BookingStatusInProgress:
		if b.StartedAt == nil {
			b.StartedAt = &now
		}
	case BookingStatusCompleted:
		if b.CompletedAt == nil {
			b.CompletedAt = &now
		}
	case BookingStatusCancelled:
		if b.CancelledAt == nil {
			b.CancelledAt = &now
		}
		b.CancellationReason = reason
	case BookingStatusNoShow:
		if b.CancelledAt == nil {
			b.CancelledAt = &now
		}
	}

	return nil
}

// IsTerminal reports whether no further transitions are possible
func (b *Booking) IsTerminal() bool {
	return len(bookingTransitions[b.Status]) == 0
}
