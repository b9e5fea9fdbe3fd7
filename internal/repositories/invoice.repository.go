package repositories

import (
	"context"
	"fmt"
	"time"

	"tidynest/internal/logger"
	. "tidynest/internal/models"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type InvoiceRepository interface {
	Create(ctx context.Context, tx *gorm.DB, invoice *Invoice) error
	GetByID(ctx context.Context, tx *gorm.DB, id uuid.UUID) (*Invoice, error)
	GetByIDForUpdate(ctx context.Context, tx *gorm.DB, id uuid.UUID) (*Invoice, error)
	Update(ctx context.Context, tx *gorm.DB, invoice *Invoice) error
	GetOverdueCandidates(ctx context.Context, tx *gorm.DB, today time.Time) ([]*Invoice, error)
	ListByCustomer(ctx context.Context, tx *gorm.DB, customerID uuid.UUID) ([]*Invoice, error)
	MarkSent(ctx context.Context, tx *gorm.DB, id uuid.UUID, sentAt time.Time) error
}

type invoiceRepository struct{}

func NewInvoiceRepository() InvoiceRepository {
	return &invoiceRepository{}
}

// Create assigns the next sequence number inside the caller's transaction.
// The unique index on sequence turns a lost race into a constraint error
// instead of a duplicate invoice number.
func (r *invoiceRepository) Create(ctx context.Context, tx *gorm.DB, invoice *Invoice) error {
	log := logger.NewWithContext(ctx, "invoiceRepository").Function("Create")

	var nextSequence int
	err := tx.WithContext(ctx).
		Raw("SELECT COALESCE(MAX(sequence), 0) + 1 FROM invoices").
		Scan(&nextSequence).Error
	if err != nil {
		return log.Err("failed to allocate invoice sequence", err)
	}

	invoice.Sequence = nextSequence
	invoice.Number = fmt.Sprintf("INV-%05d", nextSequence)

	if err := tx.WithContext(ctx).Create(invoice).Error; err != nil {
		return log.Err("failed to create invoice", err, "number", invoice.Number)
	}

	log.Info("Invoice created", "number", invoice.Number, "customerID", invoice.CustomerID)
	return nil
}

func (r *invoiceRepository) GetByID(
	ctx context.Context,
	tx *gorm.DB,
	id uuid.UUID,
) (*Invoice, error) {
	log := logger.NewWithContext(ctx, "invoiceRepository").Function("GetByID")

	var invoice Invoice
	if err := tx.WithContext(ctx).
		Preload("Customer").
		Preload("LineItems").
		First(&invoice, "id = ?", id).Error; err != nil {
		return nil, log.Err("failed to get invoice", err, "invoiceID", id)
	}

	return &invoice, nil
}

// GetByIDForUpdate takes a row lock so concurrent payments against the same
// invoice serialize instead of racing the overpayment check on a stale read.
func (r *invoiceRepository) GetByIDForUpdate(
	ctx context.Context,
	tx *gorm.DB,
	id uuid.UUID,
) (*Invoice, error) {
	log := logger.NewWithContext(ctx, "invoiceRepository").Function("GetByIDForUpdate")

	var invoice Invoice
	if err := tx.WithContext(ctx).
		Clauses(clause.Locking{Strength: "UPDATE"}).
		First(&invoice, "id = ?", id).Error; err != nil {
		return nil, log.Err("failed to lock invoice", err, "invoiceID", id)
	}

	return &invoice, nil
}

func (r *invoiceRepository) Update(ctx context.Context, tx *gorm.DB, invoice *Invoice) error {
	log := logger.NewWithContext(ctx, "invoiceRepository").Function("Update")

	if err := tx.WithContext(ctx).Save(invoice).Error; err != nil {
		return log.Err("failed to update invoice", err, "invoiceID", invoice.ID)
	}

	return nil
}

func (r *invoiceRepository) GetOverdueCandidates(
	ctx context.Context,
	tx *gorm.DB,
	today time.Time,
) ([]*Invoice, error) {
	log := logger.NewWithContext(ctx, "invoiceRepository").Function("GetOverdueCandidates")

	var invoices []*Invoice
	err := tx.WithContext(ctx).
		Preload("Customer").
		Where("status = ? AND due_date < ? AND amount_due > 0", InvoiceStatusSent, today).
		Find(&invoices).Error
	if err != nil {
		return nil, log.Err("failed to get overdue candidates", err, "today", today)
	}

	return invoices, nil
}

func (r *invoiceRepository) ListByCustomer(
	ctx context.Context,
	tx *gorm.DB,
	customerID uuid.UUID,
) ([]*Invoice, error) {
	log := logger.NewWithContext(ctx, "invoiceRepository").Function("ListByCustomer")

	var invoices []*Invoice
	err := tx.WithContext(ctx).
		Preload("LineItems").
		Where("customer_id = ?", customerID).
		Order("issue_date DESC").
		Find(&invoices).Error
	if err != nil {
		return nil, log.Err("failed to list invoices", err, "customerID", customerID)
	}

	return invoices, nil
}

func (r *invoiceRepository) MarkSent(
	ctx context.Context,
	tx *gorm.DB,
	id uuid.UUID,
	sentAt time.Time,
) error {
	log := logger.NewWithContext(ctx, "invoiceRepository").Function("MarkSent")

	err := tx.WithContext(ctx).
		Model(&Invoice{}).
		Where("id = ? AND status = ?", id, InvoiceStatusDraft).
		Updates(map[string]any{
			"status":  InvoiceStatusSent,
			"sent_at": sentAt,
		}).Error
	if err != nil {
		return log.Err("failed to mark invoice sent", err, "invoiceID", id)
	}

	return nil
}
