package services

import (
	"context"
	"fmt"
	"time"

	"tidynest/config"
	"tidynest/internal/events"
	"tidynest/internal/logger"
	. "tidynest/internal/models"
	"tidynest/internal/repositories"
	"tidynest/internal/utils"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// GenerationResult summarizes one generation run for logging and the admin
// trigger endpoint.
type GenerationResult struct {
	TemplatesProcessed int      `json:"templatesProcessed"`
	BookingsCreated    int      `json:"bookingsCreated"`
	Skipped            int      `json:"skipped"`
	Failures           []string `json:"failures,omitempty"`
}

// RecurringService materializes recurring templates into concrete bookings.
// Each template is processed in its own transaction so one broken template
// cannot block the rest of the run.
type RecurringService struct {
	tx        TxRunner
	templates repositories.RecurringTemplateRepository
	bookings  repositories.BookingRepository
	eventBus  *events.EventBus
	config    config.Config
	logger    logger.Logger
	now       func() time.Time
}

func NewRecurringService(
	tx TxRunner,
	templates repositories.RecurringTemplateRepository,
	bookings repositories.BookingRepository,
	eventBus *events.EventBus,
	config config.Config,
) *RecurringService {
	return &RecurringService{
		tx:        tx,
		templates: templates,
		bookings:  bookings,
		eventBus:  eventBus,
		config:    config,
		logger:    logger.New("recurringService"),
		now:       time.Now,
	}
}

// GenerateOccurrences walks every active template and creates the bookings
// whose dates fall inside the generation horizon. Re-running it for the same
// window creates nothing new: existence of a booking for
// (template, scheduledDate) is the dedup key, backed by a unique index.
func (s *RecurringService) GenerateOccurrences(ctx context.Context) (*GenerationResult, error) {
	log := s.logger.Function("GenerateOccurrences")

	today := utils.DateOnly(s.now())
	horizonEnd := today.AddDate(0, 0, s.config.RecurringHorizonDays)

	var due []*RecurringTemplate
	err := s.tx.Execute(ctx, func(ctx context.Context, tx *gorm.DB) error {
		var err error
		due, err = s.templates.GetDueForGeneration(ctx, tx, horizonEnd)
		return err
	})
	if err != nil {
		return nil, log.Err("failed to load templates due for generation", err)
	}

	result := &GenerationResult{}
	for _, template := range due {
		result.TemplatesProcessed++

		created, err := s.generateForTemplate(ctx, template, today, horizonEnd)
		if err != nil {
			// One bad template must not stop the sweep
			log.Er("template generation failed", err, "templateID", template.ID)
			result.Failures = append(result.Failures,
				fmt.Sprintf("%s: %v", template.ID, err))
			continue
		}
		result.BookingsCreated += created
	}

	log.Info("Generation run complete",
		"templates", result.TemplatesProcessed,
		"created", result.BookingsCreated,
		"failures", len(result.Failures),
	)

	return result, nil
}

// generateForTemplate advances the template's cursor inside one transaction.
// The cursor (NextDate) only moves forward, and is persisted together with
// the bookings it produced so a crash never skips or repeats a date.
func (s *RecurringService) generateForTemplate(
	ctx context.Context,
	template *RecurringTemplate,
	today time.Time,
	horizonEnd time.Time,
) (int, error) {
	if !template.Frequency.IsValid() {
		return 0, fmt.Errorf("unknown frequency %q", template.Frequency)
	}

	created := 0
	err := s.tx.Execute(ctx, func(ctx context.Context, tx *gorm.DB) error {
		cursor := today
		if template.NextDate != nil {
			cursor = utils.DateOnly(*template.NextDate)
		}

		for !cursor.After(horizonEnd) {
			exists, err := s.bookings.ExistsForTemplateDate(ctx, tx, template.ID, cursor)
			if err != nil {
				return err
			}

			if !exists {
				booking := s.bookingFromTemplate(template, cursor)
				if err := s.bookings.Create(ctx, tx, booking); err != nil {
					return err
				}
				created++
			}

			next, err := utils.AdvanceOccurrence(cursor, template.Frequency)
			if err != nil {
				return err
			}
			cursor = next
		}

		return s.templates.UpdateNextDate(ctx, tx, template.ID, cursor)
	})
	if err != nil {
		return 0, err
	}

	if created > 0 {
		s.eventBus.PublishDashboard(events.BOOKING_CREATED, map[string]any{
			"templateId": template.ID.String(),
			"count":      created,
			"recurring":  true,
		})
	}

	return created, nil
}

// bookingFromTemplate copies the template's property and price snapshot
// verbatim. Generated bookings start pending with no addons, discount or tax,
// so the total equals the template's base price.
func (s *RecurringService) bookingFromTemplate(
	template *RecurringTemplate,
	date time.Time,
) *Booking {
	templateID := template.ID
	return &Booking{
		CustomerID:          template.CustomerID,
		ServiceID:           template.ServiceID,
		ScheduledDate:       date,
		TimeSlot:            template.PreferredTime,
		AddressLine:         template.AddressLine,
		City:                template.City,
		State:               template.State,
		ZipCode:             template.ZipCode,
		Bedrooms:            template.Bedrooms,
		Bathrooms:           template.Bathrooms,
		SquareFeet:          template.SquareFeet,
		BasePrice:           template.BasePrice,
		AddonsPrice:         decimal.Zero,
		DiscountAmount:      decimal.Zero,
		TaxAmount:           decimal.Zero,
		TotalPrice:          template.BasePrice,
		Addons:              template.Addons,
		Status:              BookingStatusPending,
		IsRecurring:         true,
		RecurringTemplateID: &templateID,
	}
}
