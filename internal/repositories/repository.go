package repositories

import (
	"tidynest/internal/database"
)

type Repository struct {
	Customer          CustomerRepository
	User              UserRepository
	Service           ServiceRepository
	Booking           BookingRepository
	RecurringTemplate RecurringTemplateRepository
	Invoice           InvoiceRepository
	Payment           PaymentRepository
	CommunicationLog  CommunicationLogRepository
	Inventory         InventoryRepository
	Session           SessionRepository
}

func New(db database.DB) Repository {
	return Repository{
		Customer:          NewCustomerRepository(),
		User:              NewUserRepository(),
		Service:           NewServiceRepository(),
		Booking:           NewBookingRepository(db.Cache.General), // availability lookups are cached
		RecurringTemplate: NewRecurringTemplateRepository(),
		Invoice:           NewInvoiceRepository(),
		Payment:           NewPaymentRepository(),
		CommunicationLog:  NewCommunicationLogRepository(),
		Inventory:         NewInventoryRepository(),
		Session:           NewSessionRepository(),
	}
}
