package repositories

import (
	"context"
	"time"

	"tidynest/internal/database"
	"tidynest/internal/logger"
	. "tidynest/internal/models"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

const (
	TAKEN_SLOTS_CACHE_PREFIX = "taken_slots"
	TAKEN_SLOTS_CACHE_EXPIRY = 5 * time.Minute
)

type BookingRepository interface {
	Create(ctx context.Context, tx *gorm.DB, booking *Booking) error
	GetByID(ctx context.Context, tx *gorm.DB, id uuid.UUID) (*Booking, error)
	Update(ctx context.Context, tx *gorm.DB, booking *Booking) error
	ExistsForTemplateDate(
		ctx context.Context,
		tx *gorm.DB,
		templateID uuid.UUID,
		date time.Time,
	) (bool, error)
	GetScheduledForDate(ctx context.Context, tx *gorm.DB, date time.Time) ([]*Booking, error)
	TakenSlots(ctx context.Context, tx *gorm.DB, date time.Time) ([]string, error)
	ListByCustomer(ctx context.Context, tx *gorm.DB, customerID uuid.UUID) ([]*Booking, error)
}

type bookingRepository struct {
	cache database.CacheClient
}

func NewBookingRepository(cache database.CacheClient) BookingRepository {
	return &bookingRepository{
		cache: cache,
	}
}

func (r *bookingRepository) Create(ctx context.Context, tx *gorm.DB, booking *Booking) error {
	log := logger.NewWithContext(ctx, "bookingRepository").Function("Create")

	if err := booking.ValidateTotal(); err != nil {
		return log.Err("booking failed price validation", err, "customerID", booking.CustomerID)
	}

	if err := tx.WithContext(ctx).Create(booking).Error; err != nil {
		return log.Err("failed to create booking", err, "customerID", booking.CustomerID)
	}

	r.invalidateTakenSlots(ctx, booking.ScheduledDate, log)
	return nil
}

func (r *bookingRepository) GetByID(
	ctx context.Context,
	tx *gorm.DB,
	id uuid.UUID,
) (*Booking, error) {
	log := logger.NewWithContext(ctx, "bookingRepository").Function("GetByID")

	var booking Booking
	if err := tx.WithContext(ctx).
		Preload("Customer").
		Preload("Service").
		First(&booking, "id = ?", id).Error; err != nil {
		return nil, log.Err("failed to get booking", err, "bookingID", id)
	}

	return &booking, nil
}

func (r *bookingRepository) Update(ctx context.Context, tx *gorm.DB, booking *Booking) error {
	log := logger.NewWithContext(ctx, "bookingRepository").Function("Update")

	if err := tx.WithContext(ctx).Save(booking).Error; err != nil {
		return log.Err("failed to update booking", err, "bookingID", booking.ID)
	}

	r.invalidateTakenSlots(ctx, booking.ScheduledDate, log)
	return nil
}

// ExistsForTemplateDate is the de-duplication key for occurrence generation:
// one booking per (template, calendar date), whatever its status.
func (r *bookingRepository) ExistsForTemplateDate(
	ctx context.Context,
	tx *gorm.DB,
	templateID uuid.UUID,
	date time.Time,
) (bool, error) {
	log := logger.NewWithContext(ctx, "bookingRepository").Function("ExistsForTemplateDate")

	var count int64
	err := tx.WithContext(ctx).
		Model(&Booking{}).
		Where("recurring_template_id = ? AND scheduled_date = ?", templateID, date).
		Count(&count).Error
	if err != nil {
		return false, log.Err(
			"failed to check occurrence existence",
			err,
			"templateID", templateID,
			"date", date,
		)
	}

	return count > 0, nil
}

func (r *bookingRepository) GetScheduledForDate(
	ctx context.Context,
	tx *gorm.DB,
	date time.Time,
) ([]*Booking, error) {
	log := logger.NewWithContext(ctx, "bookingRepository").Function("GetScheduledForDate")

	var bookings []*Booking
	err := tx.WithContext(ctx).
		Preload("Customer").
		Preload("Service").
		Where("scheduled_date = ? AND status IN ?", date,
			[]BookingStatus{BookingStatusPending, BookingStatusConfirmed}).
		Order("time_slot ASC").
		Find(&bookings).Error
	if err != nil {
		return nil, log.Err("failed to get bookings for date", err, "date", date)
	}

	return bookings, nil
}

func (r *bookingRepository) TakenSlots(
	ctx context.Context,
	tx *gorm.DB,
	date time.Time,
) ([]string, error) {
	log := logger.NewWithContext(ctx, "bookingRepository").Function("TakenSlots")

	cacheKey := date.Format("2006-01-02")

	var cached []string
	found, err := database.NewCacheBuilder(r.cache, cacheKey).
		WithContext(ctx).
		WithHash(TAKEN_SLOTS_CACHE_PREFIX).
		Get(&cached)
	if err != nil {
		log.Warn("failed to get taken slots from cache", "date", cacheKey, "error", err)
	}
	if found {
		return cached, nil
	}

	var slots []string
	err = tx.WithContext(ctx).
		Model(&Booking{}).
		Where("scheduled_date = ? AND status IN ?", date,
			[]BookingStatus{BookingStatusPending, BookingStatusConfirmed, BookingStatusInProgress}).
		Order("time_slot ASC").
		Pluck("time_slot", &slots).Error
	if err != nil {
		return nil, log.Err("failed to get taken slots", err, "date", cacheKey)
	}

	err = database.NewCacheBuilder(r.cache, cacheKey).
		WithContext(ctx).
		WithHash(TAKEN_SLOTS_CACHE_PREFIX).
		WithStruct(slots).
		WithTTL(TAKEN_SLOTS_CACHE_EXPIRY).
		Set()
	if err != nil {
		log.Warn("failed to cache taken slots", "date", cacheKey, "error", err)
	}

	return slots, nil
}

func (r *bookingRepository) ListByCustomer(
	ctx context.Context,
	tx *gorm.DB,
	customerID uuid.UUID,
) ([]*Booking, error) {
	log := logger.NewWithContext(ctx, "bookingRepository").Function("ListByCustomer")

	var bookings []*Booking
	err := tx.WithContext(ctx).
		Preload("Service").
		Where("customer_id = ?", customerID).
		Order("scheduled_date DESC").
		Find(&bookings).Error
	if err != nil {
		return nil, log.Err("failed to list bookings", err, "customerID", customerID)
	}

	return bookings, nil
}

func (r *bookingRepository) invalidateTakenSlots(
	ctx context.Context,
	date time.Time,
	log logger.Logger,
) {
	if r.cache == nil {
		return
	}

	cacheKey := date.Format("2006-01-02")
	err := database.NewCacheBuilder(r.cache, cacheKey).
		WithContext(ctx).
		WithHash(TAKEN_SLOTS_CACHE_PREFIX).
		Delete()
	if err != nil {
		log.Warn("failed to invalidate taken slots cache", "date", cacheKey, "error", err)
	}
}
