package repositories

import (
	"context"

	"tidynest/internal/logger"
	. "tidynest/internal/models"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type ServiceRepository interface {
	Create(ctx context.Context, tx *gorm.DB, service *Service) error
	GetByID(ctx context.Context, tx *gorm.DB, id uuid.UUID) (*Service, error)
	GetActive(ctx context.Context, tx *gorm.DB) ([]*Service, error)
}

type serviceRepository struct{}

func NewServiceRepository() ServiceRepository {
	return &serviceRepository{}
}

func (r *serviceRepository) Create(ctx context.Context, tx *gorm.DB, service *Service) error {
	log := logger.NewWithContext(ctx, "serviceRepository").Function("Create")

	if err := tx.WithContext(ctx).Create(service).Error; err != nil {
		return log.Err("failed to create service", err, "name", service.Name)
	}

	return nil
}

func (r *serviceRepository) GetByID(
	ctx context.Context,
	tx *gorm.DB,
	id uuid.UUID,
) (*Service, error) {
	log := logger.NewWithContext(ctx, "serviceRepository").Function("GetByID")

	var service Service
	if err := tx.WithContext(ctx).First(&service, "id = ?", id).Error; err != nil {
		return nil, log.Err("failed to get service", err, "serviceID", id)
	}

	return &service, nil
}

func (r *serviceRepository) GetActive(ctx context.Context, tx *gorm.DB) ([]*Service, error) {
	log := logger.NewWithContext(ctx, "serviceRepository").Function("GetActive")

	var services []*Service
	err := tx.WithContext(ctx).
		Where("is_active = ?", true).
		Order("name ASC").
		Find(&services).Error
	if err != nil {
		return nil, log.Err("failed to get active services", err)
	}

	return services, nil
}
