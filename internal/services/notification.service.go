package services

import (
	"context"
	"fmt"
	"strings"
	"time"

	"tidynest/config"
	"tidynest/internal/events"
	"tidynest/internal/logger"
	. "tidynest/internal/models"
	"tidynest/internal/repositories"
	"tidynest/internal/utils"

	"gorm.io/gorm"
)

// ReminderResult summarizes one reminder run
type ReminderResult struct {
	Eligible int      `json:"eligible"`
	Sent     int      `json:"sent"`
	Failures []string `json:"failures,omitempty"`
}

// NotificationService sends the scheduled customer and staff emails: next-day
// booking reminders and the weekly low-inventory report.
type NotificationService struct {
	tx        TxRunner
	bookings  repositories.BookingRepository
	inventory repositories.InventoryRepository
	users     repositories.UserRepository
	commLog   repositories.CommunicationLogRepository
	mailer    Mailer
	eventBus  *events.EventBus
	config    config.Config
	logger    logger.Logger
	now       func() time.Time
}

func NewNotificationService(
	tx TxRunner,
	bookings repositories.BookingRepository,
	inventory repositories.InventoryRepository,
	users repositories.UserRepository,
	commLog repositories.CommunicationLogRepository,
	mailer Mailer,
	eventBus *events.EventBus,
	config config.Config,
) *NotificationService {
	return &NotificationService{
		tx:        tx,
		bookings:  bookings,
		inventory: inventory,
		users:     users,
		commLog:   commLog,
		mailer:    mailer,
		eventBus:  eventBus,
		config:    config,
		logger:    logger.New("notificationService"),
		now:       time.Now,
	}
}

// SendReminders emails every customer with a pending or confirmed booking
// tomorrow. A failed send is logged and skipped; the rest of the batch
// still goes out.
func (s *NotificationService) SendReminders(ctx context.Context) (*ReminderResult, error) {
	log := s.logger.Function("SendReminders")

	tomorrow := utils.TomorrowWindow(utils.DateOnly(s.now()))

	var due []*Booking
	err := s.tx.Execute(ctx, func(ctx context.Context, tx *gorm.DB) error {
		var err error
		due, err = s.bookings.GetScheduledForDate(ctx, tx, tomorrow)
		return err
	})
	if err != nil {
		return nil, log.Err("failed to load tomorrow's bookings", err)
	}

	result := &ReminderResult{Eligible: len(due)}
	for _, booking := range due {
		if booking.Customer == nil || booking.Customer.Email == nil {
			continue
		}

		if err := s.remind(ctx, booking); err != nil {
			log.Er("reminder failed", err, "bookingID", booking.ID)
			result.Failures = append(result.Failures,
				fmt.Sprintf("%s: %v", booking.ID, err))
			continue
		}
		result.Sent++
	}

	log.Info("Reminder run complete",
		"eligible", result.Eligible,
		"sent", result.Sent,
		"failures", len(result.Failures),
	)

	if result.Sent > 0 {
		s.eventBus.PublishDashboard(events.REMINDERS_SENT, map[string]any{
			"date": tomorrow.Format("2006-01-02"),
			"sent": result.Sent,
		})
	}

	return result, nil
}

func (s *NotificationService) remind(ctx context.Context, booking *Booking) error {
	subject := "Reminder: your cleaning is tomorrow"
	sendResult := s.mailer.Send(ctx, Email{
		To:      *booking.Customer.Email,
		Subject: subject,
		TextBody: fmt.Sprintf(
			"Hi %s,\n\nJust a reminder that your cleaning is tomorrow, %s at %s.\n\nSee you then!",
			booking.Customer.FirstName,
			booking.ScheduledDate.Format("Monday, January 2"),
			booking.TimeSlot,
		),
	})

	entry := CommunicationLog{
		CustomerID: &booking.CustomerID,
		BookingID:  &booking.ID,
		Type:       CommunicationTypeReminder,
		Recipient:  *booking.Customer.Email,
		Subject:    subject,
	}
	if sendResult.Sent {
		entry.Status = CommunicationStatusSent
	} else {
		entry.Status = CommunicationStatusFailed
		if sendResult.Err != nil {
			entry.Error = sendResult.Err.Error()
		}
	}

	err := s.tx.Execute(ctx, func(ctx context.Context, tx *gorm.DB) error {
		return s.commLog.Create(ctx, tx, &entry)
	})
	if err != nil {
		return err
	}

	if !sendResult.Sent {
		return sendResult.Err
	}
	return nil
}

// LowInventoryReport emails every admin a list of supplies at or below their
// reorder threshold. No low items means no email.
func (s *NotificationService) LowInventoryReport(ctx context.Context) error {
	log := s.logger.Function("LowInventoryReport")

	var low []*InventoryItem
	var admins []*User
	err := s.tx.Execute(ctx, func(ctx context.Context, tx *gorm.DB) error {
		var err error
		low, err = s.inventory.ListNeedingReorder(ctx, tx)
		if err != nil {
			return err
		}
		admins, err = s.users.ListAdmins(ctx, tx)
		return err
	})
	if err != nil {
		return log.Err("failed to build inventory report", err)
	}

	if len(low) == 0 {
		log.Info("No supplies below reorder threshold")
		return nil
	}

	var lines []string
	for _, item := range low {
		lines = append(lines, fmt.Sprintf("- %s: %d %s (reorder at %d)",
			item.Name, item.Quantity, item.Unit, item.ReorderThreshold))
	}
	body := fmt.Sprintf(
		"The following supplies need reordering:\n\n%s\n",
		strings.Join(lines, "\n"),
	)
	subject := fmt.Sprintf("Low inventory: %d item(s) need reordering", len(low))

	for _, admin := range admins {
		result := s.mailer.Send(ctx, Email{
			To:       admin.Email,
			Subject:  subject,
			TextBody: body,
		})

		entry := CommunicationLog{
			Type:      CommunicationTypeInventory,
			Recipient: admin.Email,
			Subject:   subject,
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
			log.Er("failed to record inventory notice", err, "recipient", admin.Email)
		}
	}

	s.eventBus.PublishDashboard(events.INVENTORY_LOW, map[string]any{
		"items": len(low),
	})

	return nil
}
