package repositories

import (
	"context"
	"errors"

	"tidynest/internal/logger"
	. "tidynest/internal/models"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type PaymentRepository interface {
	Create(ctx context.Context, tx *gorm.DB, payment *Payment) error
	GetByID(ctx context.Context, tx *gorm.DB, id uuid.UUID) (*Payment, error)
	GetByProcessorRef(ctx context.Context, tx *gorm.DB, processorRef string) (*Payment, error)
	ListByInvoice(ctx context.Context, tx *gorm.DB, invoiceID uuid.UUID) ([]*Payment, error)
	MarkRefunded(ctx context.Context, tx *gorm.DB, id uuid.UUID) error
}

type paymentRepository struct{}

func NewPaymentRepository() PaymentRepository {
	return &paymentRepository{}
}

func (r *paymentRepository) Create(ctx context.Context, tx *gorm.DB, payment *Payment) error {
	log := logger.NewWithContext(ctx, "paymentRepository").Function("Create")

	if err := tx.WithContext(ctx).Create(payment).Error; err != nil {
		return log.Err("failed to create payment", err, "invoiceID", payment.InvoiceID)
	}

	return nil
}

func (r *paymentRepository) GetByID(
	ctx context.Context,
	tx *gorm.DB,
	id uuid.UUID,
) (*Payment, error) {
	log := logger.NewWithContext(ctx, "paymentRepository").Function("GetByID")

	var payment Payment
	if err := tx.WithContext(ctx).First(&payment, "id = ?", id).Error; err != nil {
		return nil, log.Err("failed to get payment", err, "paymentID", id)
	}

	return &payment, nil
}

// GetByProcessorRef returns (nil, nil) when no payment carries the reference,
// which is the webhook dedup lookup's happy path on first delivery.
func (r *paymentRepository) GetByProcessorRef(
	ctx context.Context,
	tx *gorm.DB,
	processorRef string,
) (*Payment, error) {
	log := logger.NewWithContext(ctx, "paymentRepository").Function("GetByProcessorRef")

	var payment Payment
	err := tx.WithContext(ctx).
		First(&payment, "processor_ref = ?", processorRef).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, log.Err("failed to get payment by processor ref", err,
			"processorRef", processorRef)
	}

	return &payment, nil
}

func (r *paymentRepository) ListByInvoice(
	ctx context.Context,
	tx *gorm.DB,
	invoiceID uuid.UUID,
) ([]*Payment, error) {
	log := logger.NewWithContext(ctx, "paymentRepository").Function("ListByInvoice")

	var payments []*Payment
	err := tx.WithContext(ctx).
		Where("invoice_id = ?", invoiceID).
		Order("processed_at ASC").
		Find(&payments).Error
	if err != nil {
		return nil, log.Err("failed to list payments", err, "invoiceID", invoiceID)
	}

	return payments, nil
}

func (r *paymentRepository) MarkRefunded(ctx context.Context, tx *gorm.DB, id uuid.UUID) error {
	log := logger.NewWithContext(ctx, "paymentRepository").Function("MarkRefunded")

	err := tx.WithContext(ctx).
		Model(&Payment{}).
		Where("id = ?", id).
		Update("status", PaymentStatusRefunded).Error
	if err != nil {
		return log.Err("failed to mark payment refunded", err, "paymentID", id)
	}

	return nil
}
