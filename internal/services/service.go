package services

import (
	"tidynest/config"
	"tidynest/internal/database"
	"tidynest/internal/events"
	"tidynest/internal/repositories"
)

type Services struct {
	Transaction    *TransactionService
	Auth           *AuthService
	Booking        *BookingService
	Recurring      *RecurringService
	Reconciliation *ReconciliationService
	Notification   *NotificationService
	Scheduler      *SchedulerService
	Mailer         Mailer
	Processor      PaymentProcessor
}

func New(db database.DB, config config.Config, eventBus *events.EventBus) (Services, error) {
	transactionService := NewTransactionService(db)
	repos := repositories.New(db)

	mailer := NewLogMailer(config)
	processor := NewPaymentProcessor(config)

	authService := NewAuthService(
		transactionService,
		repos.User,
		repos.Customer,
		repos.Session,
		config,
	)
	reconciliationService := NewReconciliationService(
		transactionService,
		repos.Invoice,
		repos.Payment,
		repos.Customer,
		repos.CommunicationLog,
		mailer,
		processor,
		eventBus,
		config,
	)
	bookingService := NewBookingService(
		transactionService,
		repos.Booking,
		repos.Customer,
		repos.Service,
		repos.RecurringTemplate,
		repos.CommunicationLog,
		reconciliationService,
		mailer,
		eventBus,
		config,
	)
	recurringService := NewRecurringService(
		transactionService,
		repos.RecurringTemplate,
		repos.Booking,
		eventBus,
		config,
	)
	notificationService := NewNotificationService(
		transactionService,
		repos.Booking,
		repos.Inventory,
		repos.User,
		repos.CommunicationLog,
		mailer,
		eventBus,
		config,
	)
	schedulerService := NewSchedulerService()

	return Services{
		Transaction:    transactionService,
		Auth:           authService,
		Booking:        bookingService,
		Recurring:      recurringService,
		Reconciliation: reconciliationService,
		Notification:   notificationService,
		Scheduler:      schedulerService,
		Mailer:         mailer,
		Processor:      processor,
	}, nil
}
