package repositories

import (
	"context"
	"time"

	"tidynest/internal/logger"
	. "tidynest/internal/models"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type RecurringTemplateRepository interface {
	Create(ctx context.Context, tx *gorm.DB, template *RecurringTemplate) error
	GetByID(ctx context.Context, tx *gorm.DB, id uuid.UUID) (*RecurringTemplate, error)
	Update(ctx context.Context, tx *gorm.DB, template *RecurringTemplate) error
	GetDueForGeneration(
		ctx context.Context,
		tx *gorm.DB,
		horizonEnd time.Time,
	) ([]*RecurringTemplate, error)
	UpdateNextDate(ctx context.Context, tx *gorm.DB, id uuid.UUID, nextDate time.Time) error
	Deactivate(ctx context.Context, tx *gorm.DB, id uuid.UUID) error
}

type recurringTemplateRepository struct{}

func NewRecurringTemplateRepository() RecurringTemplateRepository {
	return &recurringTemplateRepository{}
}

func (r *recurringTemplateRepository) Create(
	ctx context.Context,
	tx *gorm.DB,
	template *RecurringTemplate,
) error {
	log := logger.NewWithContext(ctx, "recurringTemplateRepository").Function("Create")

	if err := tx.WithContext(ctx).Create(template).Error; err != nil {
		return log.Err("failed to create recurring template", err,
			"customerID", template.CustomerID)
	}

	return nil
}

func (r *recurringTemplateRepository) GetByID(
	ctx context.Context,
	tx *gorm.DB,
	id uuid.UUID,
) (*RecurringTemplate, error) {
	log := logger.NewWithContext(ctx, "recurringTemplateRepository").Function("GetByID")

	var template RecurringTemplate
	if err := tx.WithContext(ctx).
		Preload("Customer").
		Preload("Service").
		First(&template, "id = ?", id).Error; err != nil {
		return nil, log.Err("failed to get recurring template", err, "templateID", id)
	}

	return &template, nil
}

func (r *recurringTemplateRepository) Update(
	ctx context.Context,
	tx *gorm.DB,
	template *RecurringTemplate,
) error {
	log := logger.NewWithContext(ctx, "recurringTemplateRepository").Function("Update")

	if err := tx.WithContext(ctx).Save(template).Error; err != nil {
		return log.Err("failed to update recurring template", err, "templateID", template.ID)
	}

	return nil
}

// GetDueForGeneration selects active templates that have never run or whose
// next date falls inside the generation horizon.
func (r *recurringTemplateRepository) GetDueForGeneration(
	ctx context.Context,
	tx *gorm.DB,
	horizonEnd time.Time,
) ([]*RecurringTemplate, error) {
	log := logger.NewWithContext(ctx, "recurringTemplateRepository").Function("GetDueForGeneration")

	var templates []*RecurringTemplate
	err := tx.WithContext(ctx).
		Where("is_active = ? AND (next_date IS NULL OR next_date <= ?)", true, horizonEnd).
		Find(&templates).Error
	if err != nil {
		return nil, log.Err("failed to get templates due for generation", err,
			"horizonEnd", horizonEnd)
	}

	return templates, nil
}

func (r *recurringTemplateRepository) UpdateNextDate(
	ctx context.Context,
	tx *gorm.DB,
	id uuid.UUID,
	nextDate time.Time,
) error {
	log := logger.NewWithContext(ctx, "recurringTemplateRepository").Function("UpdateNextDate")

	err := tx.WithContext(ctx).
		Model(&RecurringTemplate{}).
		Where("id = ?", id).
		Update("next_date", nextDate).Error
	if err != nil {
		return log.Err("failed to update next date", err, "templateID", id, "nextDate", nextDate)
	}

	return nil
}

func (r *recurringTemplateRepository) Deactivate(
	ctx context.Context,
	tx *gorm.DB,
	id uuid.UUID,
) error {
	log := logger.NewWithContext(ctx, "recurringTemplateRepository").Function("Deactivate")

	err := tx.WithContext(ctx).
		Model(&RecurringTemplate{}).
		Where("id = ?", id).
		Update("is_active", false).Error
	if err != nil {
		return log.Err("failed to deactivate recurring template", err, "templateID", id)
	}

	return nil
}
