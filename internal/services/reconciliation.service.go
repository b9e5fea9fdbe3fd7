package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"tidynest/config"
	"tidynest/internal/events"
	"tidynest/internal/logger"
	. "tidynest/internal/models"
	"tidynest/internal/repositories"
	"tidynest/internal/utils"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

var (
	ErrInvalidPaymentMethod = errors.New("invalid payment method")
	ErrBookingNotCompleted  = errors.New("invoice requires a completed booking")
)

// PaymentInput is a manually recorded payment (cash, check, transfer)
type PaymentInput struct {
	InvoiceID uuid.UUID       `json:"invoiceId"`
	Amount    decimal.Decimal `json:"amount"`
	Method    PaymentMethod   `json:"method"`
	Notes     string          `json:"notes"`
}

// SweepResult summarizes one overdue sweep
type SweepResult struct {
	Examined    int      `json:"examined"`
	MarkedCount int      `json:"marked"`
	Failures    []string `json:"failures,omitempty"`
}

// ReconciliationService owns the invoice lifecycle: creation, sending,
// payment application, webhook confirmation, refunds and the overdue sweep.
// Every money mutation runs inside a transaction holding a row lock on the
// invoice, so concurrent payments serialize instead of racing.
type ReconciliationService struct {
	tx        TxRunner
	invoices  repositories.InvoiceRepository
	payments  repositories.PaymentRepository
	customers repositories.CustomerRepository
	commLog   repositories.CommunicationLogRepository
	mailer    Mailer
	processor PaymentProcessor
	eventBus  *events.EventBus
	config    config.Config
	logger    logger.Logger
	now       func() time.Time
}

func NewReconciliationService(
	tx TxRunner,
	invoices repositories.InvoiceRepository,
	payments repositories.PaymentRepository,
	customers repositories.CustomerRepository,
	commLog repositories.CommunicationLogRepository,
	mailer Mailer,
	processor PaymentProcessor,
	eventBus *events.EventBus,
	config config.Config,
) *ReconciliationService {
	return &ReconciliationService{
		tx:        tx,
		invoices:  invoices,
		payments:  payments,
		customers: customers,
		commLog:   commLog,
		mailer:    mailer,
		processor: processor,
		eventBus:  eventBus,
		config:    config,
		logger:    logger.New("reconciliationService"),
		now:       time.Now,
	}
}

// CreateInvoice builds a draft invoice from line items. Totals are always
// derived from the items; callers never supply them.
func (s *ReconciliationService) CreateInvoice(
	ctx context.Context,
	customerID uuid.UUID,
	bookingID *uuid.UUID,
	items []InvoiceLineItem,
	discount decimal.Decimal,
	notes string,
) (*Invoice, error) {
	log := s.logger.Function("CreateInvoice")

	if len(items) == 0 {
		return nil, log.ErrMsg("invoice requires at least one line item")
	}

	taxRate, err := decimal.NewFromString(s.config.DefaultTaxRate)
	if err != nil {
		return nil, log.Err("invalid default tax rate", err, "rate", s.config.DefaultTaxRate)
	}

	today := utils.DateOnly(s.now())
	invoice := &Invoice{
		CustomerID:     customerID,
		BookingID:      bookingID,
		LineItems:      items,
		TaxRate:        taxRate,
		DiscountAmount: discount,
		Status:         InvoiceStatusDraft,
		IssueDate:      today,
		DueDate:        today.AddDate(0, 0, s.config.InvoiceDueDays),
		Notes:          notes,
	}
	invoice.ComputeTotals()

	err = s.tx.Execute(ctx, func(ctx context.Context, tx *gorm.DB) error {
		return s.invoices.Create(ctx, tx, invoice)
	})
	if err != nil {
		return nil, err
	}

	return invoice, nil
}

// CreateFromBooking invoices a completed booking as a single line item
// carrying the booking's captured price.
func (s *ReconciliationService) CreateFromBooking(
	ctx context.Context,
	booking *Booking,
) (*Invoice, error) {
	log := s.logger.Function("CreateFromBooking")

	if booking.Status != BookingStatusCompleted {
		return nil, log.Err("cannot invoice booking", ErrBookingNotCompleted,
			"bookingID", booking.ID, "status", booking.Status)
	}

	description := fmt.Sprintf("Cleaning service on %s",
		booking.ScheduledDate.Format("2006-01-02"))
	if booking.Service != nil {
		description = fmt.Sprintf("%s on %s",
			booking.Service.Name, booking.ScheduledDate.Format("2006-01-02"))
	}

	bookingID := booking.ID
	items := []InvoiceLineItem{{
		Description: description,
		Quantity:    decimal.NewFromInt(1),
		UnitPrice:   booking.BasePrice.Add(booking.AddonsPrice),
		Amount:      booking.BasePrice.Add(booking.AddonsPrice),
	}}

	return s.CreateInvoice(ctx, booking.CustomerID, &bookingID, items,
		booking.DiscountAmount, "")
}

// SendInvoice flips a draft to sent and emails it to the customer. The send
// outcome lands in the communication log either way.
func (s *ReconciliationService) SendInvoice(ctx context.Context, invoiceID uuid.UUID) error {
	log := s.logger.Function("SendInvoice")

	var invoice *Invoice
	err := s.tx.Execute(ctx, func(ctx context.Context, tx *gorm.DB) error {
		var err error
		invoice, err = s.invoices.GetByID(ctx, tx, invoiceID)
		if err != nil {
			return err
		}
		return s.invoices.MarkSent(ctx, tx, invoiceID, s.now())
	})
	if err != nil {
		return err
	}

	if invoice.Customer == nil || invoice.Customer.Email == nil {
		log.Warn("invoice customer has no email, skipping send", "invoiceID", invoiceID)
		return nil
	}

	subject := fmt.Sprintf("Invoice %s from TidyNest Cleaning", invoice.Number)
	result := s.mailer.Send(ctx, Email{
		To:      *invoice.Customer.Email,
		Subject: subject,
		TextBody: fmt.Sprintf(
			"Hi %s,\n\nYour invoice %s for %s is due %s.\n\nThank you!",
			invoice.Customer.FirstName,
			invoice.Number,
			invoice.Total.StringFixed(2),
			invoice.DueDate.Format("January 2, 2006"),
		),
	})

	s.recordCommunication(ctx, CommunicationLog{
		CustomerID: &invoice.CustomerID,
		InvoiceID:  &invoice.ID,
		Type:       CommunicationTypeReceipt,
		Recipient:  *invoice.Customer.Email,
		Subject:    subject,
	}, result)

	return nil
}

// ApplyPayment records a manual payment against an invoice. The invoice row
// lock, the overpayment check, the payment insert and the lifetime spend
// update all commit or roll back together.
func (s *ReconciliationService) ApplyPayment(
	ctx context.Context,
	input PaymentInput,
) (*Invoice, error) {
	log := s.logger.Function("ApplyPayment")

	if !input.Method.IsValid() {
		return nil, log.Err("rejected payment", ErrInvalidPaymentMethod,
			"method", input.Method)
	}

	var invoice *Invoice
	err := s.tx.Execute(ctx, func(ctx context.Context, tx *gorm.DB) error {
		var err error
		invoice, err = s.creditInvoice(ctx, tx, input.InvoiceID, input.Amount,
			input.Method, nil, input.Notes)
		return err
	})
	if err != nil {
		return nil, err
	}

	if invoice.Status == InvoiceStatusPaid {
		s.eventBus.PublishDashboard(events.INVOICE_PAID, map[string]any{
			"invoiceId": invoice.ID.String(),
			"number":    invoice.Number,
			"total":     invoice.Total.StringFixed(2),
		})
	}

	return invoice, nil
}

// ConfirmProcessorPayment applies a verified webhook event. Redelivery is a
// no-op: the processor reference is checked first and also carries a unique
// index, so the same charge can never credit an invoice twice.
func (s *ReconciliationService) ConfirmProcessorPayment(
	ctx context.Context,
	event *ProcessorEvent,
) error {
	log := s.logger.Function("ConfirmProcessorPayment")

	if event.Type != ProcessorEventCheckoutCompleted {
		log.Info("Ignoring processor event", "type", event.Type)
		return nil
	}

	var invoice *Invoice
	err := s.tx.Execute(ctx, func(ctx context.Context, tx *gorm.DB) error {
		existing, err := s.payments.GetByProcessorRef(ctx, tx, event.ProcessorRef)
		if err != nil {
			return err
		}
		if existing != nil {
			log.Info("Processor event already applied", "processorRef", event.ProcessorRef)
			return nil
		}

		locked, err := s.invoices.GetByIDForUpdate(ctx, tx, event.InvoiceID)
		if err != nil {
			return err
		}
		if locked.AmountDue.IsZero() {
			log.Info("Invoice already settled, ignoring processor event",
				"invoiceID", event.InvoiceID, "processorRef", event.ProcessorRef)
			return nil
		}

		processorRef := event.ProcessorRef
		invoice, err = s.creditInvoice(ctx, tx, event.InvoiceID, locked.AmountDue,
			PaymentMethodCard, &processorRef, "")
		return err
	})
	if err != nil {
		return err
	}

	if invoice != nil {
		s.eventBus.PublishDashboard(events.INVOICE_PAID, map[string]any{
			"invoiceId": invoice.ID.String(),
			"number":    invoice.Number,
			"total":     invoice.Total.StringFixed(2),
		})
	}

	return nil
}

// creditInvoice is the single write path for crediting money to an invoice.
// It must run inside the caller's transaction: the row lock, the overpayment
// check, the payment insert and the lifetime spend update stand or fall
// together.
func (s *ReconciliationService) creditInvoice(
	ctx context.Context,
	tx *gorm.DB,
	invoiceID uuid.UUID,
	amount decimal.Decimal,
	method PaymentMethod,
	processorRef *string,
	notes string,
) (*Invoice, error) {
	invoice, err := s.invoices.GetByIDForUpdate(ctx, tx, invoiceID)
	if err != nil {
		return nil, err
	}

	today := utils.DateOnly(s.now())
	if err := invoice.ApplyPaymentAmount(amount, today); err != nil {
		return nil, err
	}

	payment := &Payment{
		InvoiceID:    invoice.ID,
		CustomerID:   invoice.CustomerID,
		Amount:       amount,
		Method:       method,
		ProcessorRef: processorRef,
		Status:       PaymentStatusCompleted,
		ProcessedAt:  s.now(),
		Notes:        notes,
	}
	if err := s.payments.Create(ctx, tx, payment); err != nil {
		return nil, err
	}

	if err := s.invoices.Update(ctx, tx, invoice); err != nil {
		return nil, err
	}

	if err := s.customers.AddLifetimeSpend(ctx, tx, invoice.CustomerID, amount); err != nil {
		return nil, err
	}

	return invoice, nil
}

// SweepOverdue marks sent invoices past their due date as overdue and emails
// the customer. Each invoice gets its own transaction so one failure never
// blocks the rest of the sweep.
func (s *ReconciliationService) SweepOverdue(ctx context.Context) (*SweepResult, error) {
	log := s.logger.Function("SweepOverdue")

	today := utils.DateOnly(s.now())

	var candidates []*Invoice
	err := s.tx.Execute(ctx, func(ctx context.Context, tx *gorm.DB) error {
		var err error
		candidates, err = s.invoices.GetOverdueCandidates(ctx, tx, today)
		return err
	})
	if err != nil {
		return nil, log.Err("failed to load overdue candidates", err)
	}

	result := &SweepResult{Examined: len(candidates)}
	for _, invoice := range candidates {
		if !utils.IsOverdue(invoice.DueDate, today, invoice.AmountDue) {
			continue
		}

		if err := s.markOverdue(ctx, invoice); err != nil {
			log.Er("failed to mark invoice overdue", err, "invoiceID", invoice.ID)
			result.Failures = append(result.Failures,
				fmt.Sprintf("%s: %v", invoice.Number, err))
			continue
		}
		result.MarkedCount++
	}

	log.Info("Overdue sweep complete",
		"examined", result.Examined,
		"marked", result.MarkedCount,
		"failures", len(result.Failures),
	)

	return result, nil
}

func (s *ReconciliationService) markOverdue(ctx context.Context, invoice *Invoice) error {
	err := s.tx.Execute(ctx, func(ctx context.Context, tx *gorm.DB) error {
		locked, err := s.invoices.GetByIDForUpdate(ctx, tx, invoice.ID)
		if err != nil {
			return err
		}
		// Re-check under the lock: a payment may have landed since the scan
		if locked.Status != InvoiceStatusSent || locked.AmountDue.IsZero() {
			return nil
		}
		locked.Status = InvoiceStatusOverdue
		invoice.Status = InvoiceStatusOverdue
		return s.invoices.Update(ctx, tx, locked)
	})
	if err != nil {
		return err
	}
	if invoice.Status != InvoiceStatusOverdue {
		return nil
	}

	s.eventBus.PublishDashboard(events.INVOICE_OVERDUE, map[string]any{
		"invoiceId": invoice.ID.String(),
		"number":    invoice.Number,
	})

	if invoice.Customer == nil || invoice.Customer.Email == nil {
		return nil
	}

	subject := fmt.Sprintf("Invoice %s is past due", invoice.Number)
	result := s.mailer.Send(ctx, Email{
		To:      *invoice.Customer.Email,
		Subject: subject,
		TextBody: fmt.Sprintf(
			"Hi %s,\n\nInvoice %s for %s was due on %s. Please arrange payment at your earliest convenience.",
			invoice.Customer.FirstName,
			invoice.Number,
			invoice.AmountDue.StringFixed(2),
			invoice.DueDate.Format("January 2, 2006"),
		),
	})

	s.recordCommunication(ctx, CommunicationLog{
		CustomerID: &invoice.CustomerID,
		InvoiceID:  &invoice.ID,
		Type:       CommunicationTypeOverdueNotice,
		Recipient:  *invoice.Customer.Email,
		Subject:    subject,
	}, result)

	return nil
}

// RefundPayment reverses a processor payment in full. The payment row is
// kept and flipped to refunded; the invoice moves to its refunded terminal
// status and the customer's lifetime spend is decremented.
func (s *ReconciliationService) RefundPayment(ctx context.Context, paymentID uuid.UUID) error {
	log := s.logger.Function("RefundPayment")

	return s.tx.Execute(ctx, func(ctx context.Context, tx *gorm.DB) error {
		payment, err := s.payments.GetByID(ctx, tx, paymentID)
		if err != nil {
			return err
		}
		if payment.Status == PaymentStatusRefunded {
			return log.Error("payment already refunded", "paymentID", paymentID)
		}

		if payment.ProcessorRef != nil {
			if err := s.processor.CreateRefund(ctx, *payment.ProcessorRef, &payment.Amount); err != nil {
				return log.Err("processor refund failed", err, "paymentID", paymentID)
			}
		}

		if err := s.payments.MarkRefunded(ctx, tx, paymentID); err != nil {
			return err
		}

		invoice, err := s.invoices.GetByIDForUpdate(ctx, tx, payment.InvoiceID)
		if err != nil {
			return err
		}
		invoice.Status = InvoiceStatusRefunded
		invoice.AmountPaid = invoice.AmountPaid.Sub(payment.Amount)
		invoice.AmountDue = invoice.Total.Sub(invoice.AmountPaid)
		if err := s.invoices.Update(ctx, tx, invoice); err != nil {
			return err
		}

		return s.customers.AddLifetimeSpend(ctx, tx, invoice.CustomerID, payment.Amount.Neg())
	})
}

// recordCommunication appends the send outcome to the communication log.
// Log writes are best-effort and never fail the caller.
func (s *ReconciliationService) recordCommunication(
	ctx context.Context,
	entry CommunicationLog,
	sendResult SendResult,
) {
	log := s.logger.Function("recordCommunication")

	if sendResult.Sent {
		entry.Status = CommunicationStatusSent
	} else {
		entry.Status = CommunicationStatusFailed
		if sendResult.Err != nil {
			entry.Error = sendResult.Err.Error()
		}
	}

	err := s.tx.Execute(ctx, func(ctx context.Context, tx *gorm.DB) error {
		return s.commLog.Create(ctx, tx, &entry)
	})
	if err != nil {
		log.Er("failed to record communication", err, "recipient", entry.Recipient)
	}
}
