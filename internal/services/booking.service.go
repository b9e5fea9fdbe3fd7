package services

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"tidynest/config"
	"tidynest/internal/events"
	"tidynest/internal/logger"
	. "tidynest/internal/models"
	"tidynest/internal/repositories"
	"tidynest/internal/utils"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

var (
	ErrSlotTaken       = errors.New("time slot is already taken")
	ErrServiceInactive = errors.New("service is not available for booking")
)

// BookingSubmission is a booking request from the public form. The customer
// may or may not exist yet; email is the match key.
type BookingSubmission struct {
	FirstName string `json:"firstName" validate:"required"`
	LastName  string `json:"lastName"  validate:"required"`
	Email     string `json:"email"     validate:"required,email"`
	Phone     string `json:"phone"`

	ServiceID     uuid.UUID `json:"serviceId"     validate:"required"`
	ScheduledDate time.Time `json:"scheduledDate" validate:"required"`
	TimeSlot      string    `json:"timeSlot"      validate:"required"`

	AddressLine string `json:"addressLine" validate:"required"`
	City        string `json:"city"        validate:"required"`
	State       string `json:"state"       validate:"required"`
	ZipCode     string `json:"zipCode"     validate:"required"`
	Bedrooms    int    `json:"bedrooms"`
	Bathrooms   int    `json:"bathrooms"`
	SquareFeet  int    `json:"squareFeet"`

	Addons []string `json:"addons"`
	Notes  string   `json:"notes"`

	// Optional standing schedule created alongside the first booking
	Frequency Frequency `json:"frequency,omitempty"`
}

// BookingService handles public submissions, status transitions and slot
// availability. Completing a booking hands off to the reconciliation engine
// to draft the invoice.
type BookingService struct {
	tx             TxRunner
	bookings       repositories.BookingRepository
	customers      repositories.CustomerRepository
	services       repositories.ServiceRepository
	templates      repositories.RecurringTemplateRepository
	commLog        repositories.CommunicationLogRepository
	reconciliation *ReconciliationService
	mailer         Mailer
	eventBus       *events.EventBus
	config         config.Config
	logger         logger.Logger
	now            func() time.Time
}

func NewBookingService(
	tx TxRunner,
	bookings repositories.BookingRepository,
	customers repositories.CustomerRepository,
	services repositories.ServiceRepository,
	templates repositories.RecurringTemplateRepository,
	commLog repositories.CommunicationLogRepository,
	reconciliation *ReconciliationService,
	mailer Mailer,
	eventBus *events.EventBus,
	config config.Config,
) *BookingService {
	return &BookingService{
		tx:             tx,
		bookings:       bookings,
		customers:      customers,
		services:       services,
		templates:      templates,
		commLog:        commLog,
		reconciliation: reconciliation,
		mailer:         mailer,
		eventBus:       eventBus,
		config:         config,
		logger:         logger.New("bookingService"),
		now:            time.Now,
	}
}

// Submit creates a booking from a public form submission. The customer is
// matched by email or created on the fly, the price is captured from the
// service catalog, and an optional recurring template is created in the
// same transaction.
func (s *BookingService) Submit(
	ctx context.Context,
	submission BookingSubmission,
) (*Booking, error) {
	log := s.logger.Function("Submit")

	taxRate, err := decimal.NewFromString(s.config.DefaultTaxRate)
	if err != nil {
		return nil, log.Err("invalid default tax rate", err, "rate", s.config.DefaultTaxRate)
	}

	var booking *Booking
	var customer *Customer
	err = s.tx.Execute(ctx, func(ctx context.Context, tx *gorm.DB) error {
		service, err := s.services.GetByID(ctx, tx, submission.ServiceID)
		if err != nil {
			return err
		}
		if !service.IsActive {
			return ErrServiceInactive
		}

		taken, err := s.bookings.TakenSlots(ctx, tx, utils.DateOnly(submission.ScheduledDate))
		if err != nil {
			return err
		}
		for _, slot := range taken {
			if slot == submission.TimeSlot {
				return ErrSlotTaken
			}
		}

		customer, err = s.findOrCreateCustomer(ctx, tx, submission)
		if err != nil {
			return err
		}

		addons, err := encodeAddons(submission.Addons)
		if err != nil {
			return err
		}

		taxAmount := service.BasePrice.Mul(taxRate).Round(2)
		booking = &Booking{
			CustomerID:     customer.ID,
			ServiceID:      service.ID,
			ScheduledDate:  utils.DateOnly(submission.ScheduledDate),
			TimeSlot:       submission.TimeSlot,
			AddressLine:    submission.AddressLine,
			City:           submission.City,
			State:          submission.State,
			ZipCode:        submission.ZipCode,
			Bedrooms:       submission.Bedrooms,
			Bathrooms:      submission.Bathrooms,
			SquareFeet:     submission.SquareFeet,
			BasePrice:      service.BasePrice,
			AddonsPrice:    decimal.Zero,
			DiscountAmount: decimal.Zero,
			TaxAmount:      taxAmount,
			TotalPrice:     service.BasePrice.Add(taxAmount),
			Addons:         addons,
			Status:         BookingStatusPending,
			Notes:          submission.Notes,
		}

		if submission.Frequency != "" {
			template, err := s.createTemplate(ctx, tx, submission, customer, service, addons)
			if err != nil {
				return err
			}
			booking.IsRecurring = true
			booking.RecurringTemplateID = &template.ID
		}

		return s.bookings.Create(ctx, tx, booking)
	})
	if err != nil {
		return nil, err
	}

	s.sendConfirmation(ctx, booking, customer)

	s.eventBus.PublishDashboard(events.BOOKING_CREATED, map[string]any{
		"bookingId":     booking.ID.String(),
		"customerId":    customer.ID.String(),
		"scheduledDate": booking.ScheduledDate.Format("2006-01-02"),
		"timeSlot":      booking.TimeSlot,
	})

	return booking, nil
}

func (s *BookingService) findOrCreateCustomer(
	ctx context.Context,
	tx *gorm.DB,
	submission BookingSubmission,
) (*Customer, error) {
	customer, err := s.customers.GetByEmail(ctx, tx, submission.Email)
	if err != nil {
		return nil, err
	}
	if customer != nil {
		return customer, nil
	}

	email := submission.Email
	customer = &Customer{
		FirstName:   submission.FirstName,
		LastName:    submission.LastName,
		Email:       &email,
		Phone:       submission.Phone,
		AddressLine: submission.AddressLine,
		City:        submission.City,
		State:       submission.State,
		ZipCode:     submission.ZipCode,
		IsActive:    true,
	}
	if err := s.customers.Create(ctx, tx, customer); err != nil {
		return nil, err
	}

	return customer, nil
}

func (s *BookingService) createTemplate(
	ctx context.Context,
	tx *gorm.DB,
	submission BookingSubmission,
	customer *Customer,
	service *Service,
	addons datatypes.JSON,
) (*RecurringTemplate, error) {
	if !submission.Frequency.IsValid() {
		return nil, fmt.Errorf("unknown frequency %q", submission.Frequency)
	}

	firstDate := utils.DateOnly(submission.ScheduledDate)
	next, err := utils.AdvanceOccurrence(firstDate, submission.Frequency)
	if err != nil {
		return nil, err
	}

	template := &RecurringTemplate{
		CustomerID:    customer.ID,
		ServiceID:     service.ID,
		Frequency:     submission.Frequency,
		PreferredTime: submission.TimeSlot,
		AddressLine:   submission.AddressLine,
		City:          submission.City,
		State:         submission.State,
		ZipCode:       submission.ZipCode,
		Bedrooms:      submission.Bedrooms,
		Bathrooms:     submission.Bathrooms,
		SquareFeet:    submission.SquareFeet,
		BasePrice:     service.BasePrice,
		Addons:        addons,
		IsActive:      true,
		// The submitted booking covers the first date; generation picks up
		// from the next one
		NextDate: &next,
	}
	if err := s.templates.Create(ctx, tx, template); err != nil {
		return nil, err
	}

	return template, nil
}

// UpdateStatus drives a booking through its state machine. Completing a
// booking drafts its invoice in the same call.
func (s *BookingService) UpdateStatus(
	ctx context.Context,
	bookingID uuid.UUID,
	target BookingStatus,
	reason *string,
) (*Booking, error) {
	log := s.logger.Function("UpdateStatus")

	var booking *Booking
	err := s.tx.Execute(ctx, func(ctx context.Context, tx *gorm.DB) error {
		var err error
		booking, err = s.bookings.GetByID(ctx, tx, bookingID)
		if err != nil {
			return err
		}

		if err := booking.Transition(target, reason, s.now()); err != nil {
			return err
		}

		return s.bookings.Update(ctx, tx, booking)
	})
	if err != nil {
		return nil, err
	}

	if target == BookingStatusCompleted {
		if _, err := s.reconciliation.CreateFromBooking(ctx, booking); err != nil {
			// The transition stands; invoicing can be retried from the admin
			// side without touching the booking
			log.Er("failed to draft invoice for completed booking", err,
				"bookingID", booking.ID)
		}
	}

	s.eventBus.PublishDashboard(events.BOOKING_STATUS_CHANGED, map[string]any{
		"bookingId": booking.ID.String(),
		"status":    string(booking.Status),
	})

	return booking, nil
}

// AvailableSlots returns the bookable start times for a date
func (s *BookingService) AvailableSlots(ctx context.Context, date time.Time) ([]string, error) {
	var taken []string
	err := s.tx.Execute(ctx, func(ctx context.Context, tx *gorm.DB) error {
		var err error
		taken, err = s.bookings.TakenSlots(ctx, tx, utils.DateOnly(date))
		return err
	})
	if err != nil {
		return nil, err
	}

	takenSet := make(map[string]bool, len(taken))
	for _, slot := range taken {
		takenSet[slot] = true
	}

	var available []string
	for _, slot := range allSlots() {
		if !takenSet[slot] {
			available = append(available, slot)
		}
	}

	return available, nil
}

// allSlots is the working day grid: hourly starts from 08:00 to 16:00
func allSlots() []string {
	slots := make([]string, 0, 9)
	for hour := 8; hour <= 16; hour++ {
		slots = append(slots, fmt.Sprintf("%02d:00", hour))
	}
	return slots
}

func encodeAddons(addons []string) (datatypes.JSON, error) {
	if len(addons) == 0 {
		return nil, nil
	}
	raw, err := json.Marshal(addons)
	if err != nil {
		return nil, err
	}
	return datatypes.JSON(raw), nil
}

func (s *BookingService) sendConfirmation(
	ctx context.Context,
	booking *Booking,
	customer *Customer,
) {
	log := s.logger.Function("sendConfirmation")

	if customer.Email == nil {
		return
	}

	subject := "Your cleaning is booked"
	result := s.mailer.Send(ctx, Email{
		To:      *customer.Email,
		Subject: subject,
		TextBody: fmt.Sprintf(
			"Hi %s,\n\nYour cleaning is scheduled for %s at %s.\n\nSee you then!",
			customer.FirstName,
			booking.ScheduledDate.Format("Monday, January 2, 2006"),
			booking.TimeSlot,
		),
	})

	entry := CommunicationLog{
		CustomerID: &customer.ID,
		BookingID:  &booking.ID,
		Type:       CommunicationTypeConfirmation,
		Recipient:  *customer.Email,
		Subject:    subject,
	}
	if result.Sent {
		entry.Status = CommunicationStatusSent
	} else {
		entry.Status = CommunicationStatusFailed
		if result.Err != nil {
			entry.Error = result.Err.Error()
		}
	}

	err := s.tx.Execute(ctx, func(ctx context.Context, tx *gorm.DB) error {
		return s.commLog.Create(ctx, tx, &entry)
	})
	if err != nil {
		log.Er("failed to record confirmation", err, "bookingID", booking.ID)
	}
}
