package bookingController

import (
	"context"
	"time"

	"tidynest/config"
	"tidynest/internal/database"
	"tidynest/internal/logger"
	. "tidynest/internal/models"
	"tidynest/internal/repositories"
	"tidynest/internal/services"
	"tidynest/internal/utils"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
)

type StatusUpdateRequest struct {
	Status BookingStatus `json:"status" validate:"required"`
	Reason *string       `json:"reason,omitempty"`
}

type BookingController struct {
	bookingRepo    repositories.BookingRepository
	serviceRepo    repositories.ServiceRepository
	bookingService *services.BookingService
	db             database.DB
	Config         config.Config
	validate       *validator.Validate
	log            logger.Logger
}

type BookingControllerInterface interface {
	Submit(ctx context.Context, submission services.BookingSubmission) (*Booking, error)
	UpdateStatus(ctx context.Context, bookingID uuid.UUID, req StatusUpdateRequest) (*Booking, error)
	Availability(ctx context.Context, date time.Time) ([]string, error)
	Schedule(ctx context.Context, date time.Time) ([]*Booking, error)
	ListForCustomer(ctx context.Context, customerID uuid.UUID) ([]*Booking, error)
	ActiveServices(ctx context.Context) ([]*Service, error)
}

func New(
	repos repositories.Repository,
	services services.Services,
	config config.Config,
	db database.DB,
) BookingControllerInterface {
	return &BookingController{
		bookingRepo:    repos.Booking,
		serviceRepo:    repos.Service,
		bookingService: services.Booking,
		db:             db,
		Config:         config,
		validate:       validator.New(),
		log:            logger.New("bookingController"),
	}
}

func (bc *BookingController) Submit(
	ctx context.Context,
	submission services.BookingSubmission,
) (*Booking, error) {
	log := bc.log.Function("Submit")

	if err := bc.validate.Struct(submission); err != nil {
		return nil, log.Err("invalid booking submission", err)
	}

	return bc.bookingService.Submit(ctx, submission)
}

func (bc *BookingController) UpdateStatus(
	ctx context.Context,
	bookingID uuid.UUID,
	req StatusUpdateRequest,
) (*Booking, error) {
	log := bc.log.Function("UpdateStatus")

	if err := bc.validate.Struct(req); err != nil {
		return nil, log.Err("invalid status update", err)
	}

	return bc.bookingService.UpdateStatus(ctx, bookingID, req.Status, req.Reason)
}

func (bc *BookingController) Availability(
	ctx context.Context,
	date time.Time,
) ([]string, error) {
	return bc.bookingService.AvailableSlots(ctx, date)
}

// Schedule returns the day's run sheet for the staff dashboard
func (bc *BookingController) Schedule(
	ctx context.Context,
	date time.Time,
) ([]*Booking, error) {
	return bc.bookingRepo.GetScheduledForDate(ctx, bc.db.SQL, utils.DateOnly(date))
}

func (bc *BookingController) ListForCustomer(
	ctx context.Context,
	customerID uuid.UUID,
) ([]*Booking, error) {
	return bc.bookingRepo.ListByCustomer(ctx, bc.db.SQL, customerID)
}

// ActiveServices returns the bookable catalog for the public form
func (bc *BookingController) ActiveServices(ctx context.Context) ([]*Service, error) {
	return bc.serviceRepo.GetActive(ctx, bc.db.SQL)
}
