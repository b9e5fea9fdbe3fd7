package repositories

import (
	"context"
	"errors"

	"tidynest/internal/logger"
	. "tidynest/internal/models"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

type CustomerRepository interface {
	Create(ctx context.Context, tx *gorm.DB, customer *Customer) error
	GetByID(ctx context.Context, tx *gorm.DB, id uuid.UUID) (*Customer, error)
	GetByEmail(ctx context.Context, tx *gorm.DB, email string) (*Customer, error)
	Update(ctx context.Context, tx *gorm.DB, customer *Customer) error
	AddLifetimeSpend(
		ctx context.Context,
		tx *gorm.DB,
		id uuid.UUID,
		amount decimal.Decimal,
	) error
	Deactivate(ctx context.Context, tx *gorm.DB, id uuid.UUID) error
}

type customerRepository struct{}

func NewCustomerRepository() CustomerRepository {
	return &customerRepository{}
}

func (r *customerRepository) Create(ctx context.Context, tx *gorm.DB, customer *Customer) error {
	log := logger.NewWithContext(ctx, "customerRepository").Function("Create")

	if err := tx.WithContext(ctx).Create(customer).Error; err != nil {
		return log.Err("failed to create customer", err, "email", customer.Email)
	}

	return nil
}

func (r *customerRepository) GetByID(
	ctx context.Context,
	tx *gorm.DB,
	id uuid.UUID,
) (*Customer, error) {
	log := logger.NewWithContext(ctx, "customerRepository").Function("GetByID")

	var customer Customer
	if err := tx.WithContext(ctx).First(&customer, "id = ?", id).Error; err != nil {
		return nil, log.Err("failed to get customer", err, "customerID", id)
	}

	return &customer, nil
}

// GetByEmail returns (nil, nil) when no customer has the address, so the
// public submission path can decide between create and reuse.
func (r *customerRepository) GetByEmail(
	ctx context.Context,
	tx *gorm.DB,
	email string,
) (*Customer, error) {
	log := logger.NewWithContext(ctx, "customerRepository").Function("GetByEmail")

	var customer Customer
	err := tx.WithContext(ctx).First(&customer, "email = ?", email).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, log.Err("failed to get customer by email", err, "email", email)
	}

	return &customer, nil
}

func (r *customerRepository) Update(ctx context.Context, tx *gorm.DB, customer *Customer) error {
	log := logger.NewWithContext(ctx, "customerRepository").Function("Update")

	if err := tx.WithContext(ctx).Save(customer).Error; err != nil {
		return log.Err("failed to update customer", err, "customerID", customer.ID)
	}

	return nil
}

// AddLifetimeSpend increments the aggregate in-place so it stays consistent
// under the same transaction as the payment insert.
func (r *customerRepository) AddLifetimeSpend(
	ctx context.Context,
	tx *gorm.DB,
	id uuid.UUID,
	amount decimal.Decimal,
) error {
	log := logger.NewWithContext(ctx, "customerRepository").Function("AddLifetimeSpend")

	err := tx.WithContext(ctx).
		Model(&Customer{}).
		Where("id = ?", id).
		Update("lifetime_spend", gorm.Expr("lifetime_spend + ?", amount)).Error
	if err != nil {
		return log.Err("failed to add lifetime spend", err,
			"customerID", id, "amount", amount.String())
	}

	return nil
}

func (r *customerRepository) Deactivate(ctx context.Context, tx *gorm.DB, id uuid.UUID) error {
	log := logger.NewWithContext(ctx, "customerRepository").Function("Deactivate")

	err := tx.WithContext(ctx).
		Model(&Customer{}).
		Where("id = ?", id).
		Update("is_active", false).Error
	if err != nil {
		return log.Err("failed to deactivate customer", err, "customerID", id)
	}

	return nil
}
