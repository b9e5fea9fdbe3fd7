package controllers

import (
	"tidynest/config"
	"tidynest/internal/database"
	"tidynest/internal/events"
	"tidynest/internal/repositories"
	"tidynest/internal/services"

	authController "tidynest/internal/controllers/auth"
	bookingController "tidynest/internal/controllers/bookings"
	invoiceController "tidynest/internal/controllers/invoices"
)

type Controllers struct {
	Auth    authController.AuthControllerInterface
	Booking bookingController.BookingControllerInterface
	Invoice invoiceController.InvoiceControllerInterface
}

func New(
	services services.Services,
	repos repositories.Repository,
	eventBus *events.EventBus,
	config config.Config,
	db database.DB,
) Controllers {
	return Controllers{
		Auth:    authController.New(services, config),
		Booking: bookingController.New(repos, services, config, db),
		Invoice: invoiceController.New(repos, services, config, db),
	}
}
