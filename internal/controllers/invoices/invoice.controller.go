package invoiceController

import (
	"context"

	"tidynest/config"
	"tidynest/internal/database"
	"tidynest/internal/logger"
	. "tidynest/internal/models"
	"tidynest/internal/repositories"
	"tidynest/internal/services"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

type LineItemRequest struct {
	Description string          `json:"description" validate:"required"`
	Quantity    decimal.Decimal `json:"quantity"    validate:"required"`
	UnitPrice   decimal.Decimal `json:"unitPrice"   validate:"required"`
}

type CreateInvoiceRequest struct {
	CustomerID uuid.UUID         `json:"customerId" validate:"required"`
	BookingID  *uuid.UUID        `json:"bookingId,omitempty"`
	Items      []LineItemRequest `json:"items"      validate:"required,min=1,dive"`
	Discount   decimal.Decimal   `json:"discount"`
	Notes      string            `json:"notes"`
}

type RecordPaymentRequest struct {
	Amount decimal.Decimal `json:"amount" validate:"required"`
	Method PaymentMethod   `json:"method" validate:"required"`
	Notes  string          `json:"notes"`
}

type InvoiceController struct {
	invoiceRepo           repositories.InvoiceRepository
	customerRepo          repositories.CustomerRepository
	reconciliationService *services.ReconciliationService
	processor             services.PaymentProcessor
	db                    database.DB
	Config                config.Config
	validate              *validator.Validate
	log                   logger.Logger
}

type InvoiceControllerInterface interface {
	Create(ctx context.Context, req CreateInvoiceRequest) (*Invoice, error)
	Get(ctx context.Context, invoiceID uuid.UUID) (*Invoice, error)
	Send(ctx context.Context, invoiceID uuid.UUID) error
	RecordPayment(ctx context.Context, invoiceID uuid.UUID, req RecordPaymentRequest) (*Invoice, error)
	Checkout(ctx context.Context, invoiceID uuid.UUID) (*services.CheckoutSession, error)
	HandleWebhook(ctx context.Context, payload []byte, signature string) error
	Refund(ctx context.Context, paymentID uuid.UUID) error
	ListForCustomer(ctx context.Context, customerID uuid.UUID) ([]*Invoice, error)
}

func New(
	repos repositories.Repository,
	services services.Services,
	config config.Config,
	db database.DB,
) InvoiceControllerInterface {
	return &InvoiceController{
		invoiceRepo:           repos.Invoice,
		customerRepo:          repos.Customer,
		reconciliationService: services.Reconciliation,
		processor:             services.Processor,
		db:                    db,
		Config:                config,
		validate:              validator.New(),
		log:                   logger.New("invoiceController"),
	}
}

func (ic *InvoiceController) Create(
	ctx context.Context,
	req CreateInvoiceRequest,
) (*Invoice, error) {
	log := ic.log.Function("Create")

	if err := ic.validate.Struct(req); err != nil {
		return nil, log.Err("invalid invoice request", err)
	}

	items := make([]InvoiceLineItem, 0, len(req.Items))
	for _, item := range req.Items {
		items = append(items, InvoiceLineItem{
			Description: item.Description,
			Quantity:    item.Quantity,
			UnitPrice:   item.UnitPrice,
		})
	}

	return ic.reconciliationService.CreateInvoice(
		ctx,
		req.CustomerID,
		req.BookingID,
		items,
		req.Discount,
		req.Notes,
	)
}

func (ic *InvoiceController) Get(
	ctx context.Context,
	invoiceID uuid.UUID,
) (*Invoice, error) {
	return ic.invoiceRepo.GetByID(ctx, ic.db.SQL, invoiceID)
}

func (ic *InvoiceController) Send(ctx context.Context, invoiceID uuid.UUID) error {
	return ic.reconciliationService.SendInvoice(ctx, invoiceID)
}

func (ic *InvoiceController) RecordPayment(
	ctx context.Context,
	invoiceID uuid.UUID,
	req RecordPaymentRequest,
) (*Invoice, error) {
	log := ic.log.Function("RecordPayment")

	if err := ic.validate.Struct(req); err != nil {
		return nil, log.Err("invalid payment request", err)
	}

	return ic.reconciliationService.ApplyPayment(ctx, services.PaymentInput{
		InvoiceID: invoiceID,
		Amount:    req.Amount,
		Method:    req.Method,
		Notes:     req.Notes,
	})
}

// Checkout opens a hosted payment session for the invoice balance
func (ic *InvoiceController) Checkout(
	ctx context.Context,
	invoiceID uuid.UUID,
) (*services.CheckoutSession, error) {
	log := ic.log.Function("Checkout")

	invoice, err := ic.invoiceRepo.GetByID(ctx, ic.db.SQL, invoiceID)
	if err != nil {
		return nil, err
	}

	customer, err := ic.customerRepo.GetByID(ctx, ic.db.SQL, invoice.CustomerID)
	if err != nil {
		return nil, err
	}

	session, err := ic.processor.CreateCheckoutSession(ctx, invoice, customer)
	if err != nil {
		return nil, log.Err("failed to create checkout session", err,
			"invoiceID", invoiceID)
	}

	return session, nil
}

// HandleWebhook verifies the raw delivery and hands the event to the
// reconciliation engine. Signature failures surface as errors; everything
// past verification is idempotent.
func (ic *InvoiceController) HandleWebhook(
	ctx context.Context,
	payload []byte,
	signature string,
) error {
	event, err := ic.processor.VerifyWebhook(payload, signature)
	if err != nil {
		return err
	}

	return ic.reconciliationService.ConfirmProcessorPayment(ctx, event)
}

func (ic *InvoiceController) Refund(ctx context.Context, paymentID uuid.UUID) error {
	return ic.reconciliationService.RefundPayment(ctx, paymentID)
}

func (ic *InvoiceController) ListForCustomer(
	ctx context.Context,
	customerID uuid.UUID,
) ([]*Invoice, error) {
	return ic.invoiceRepo.ListByCustomer(ctx, ic.db.SQL, customerID)
}
