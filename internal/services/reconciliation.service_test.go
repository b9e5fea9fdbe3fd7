package services

import (
	"context"
	"testing"
	"time"

	"tidynest/config"
	. "tidynest/internal/models"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type reconciliationFixture struct {
	service   *ReconciliationService
	invoices  *fakeInvoiceRepo
	payments  *fakePaymentRepo
	customers *fakeCustomerRepo
	commLog   *fakeCommLogRepo
	mailer    *fakeMailer
	processor *fakeProcessor
	now       time.Time
}

func newReconciliationFixture(t *testing.T) *reconciliationFixture {
	t.Helper()

	f := &reconciliationFixture{
		invoices:  newFakeInvoiceRepo(),
		payments:  &fakePaymentRepo{},
		customers: newFakeCustomerRepo(),
		commLog:   &fakeCommLogRepo{},
		mailer:    &fakeMailer{failFor: map[string]bool{}},
		processor: &fakeProcessor{},
		now:       time.Date(2026, 3, 2, 14, 0, 0, 0, time.UTC),
	}

	f.service = NewReconciliationService(
		passthroughTx{},
		f.invoices,
		f.payments,
		f.customers,
		f.commLog,
		f.mailer,
		f.processor,
		nil,
		config.Config{DefaultTaxRate: "0.0825", InvoiceDueDays: 14},
	)
	f.service.now = func() time.Time { return f.now }

	return f
}

func (f *reconciliationFixture) seedCustomer(t *testing.T, email string) *Customer {
	t.Helper()
	customer := &Customer{
		FirstName: "Dana",
		LastName:  "Whitfield",
	}
	if email != "" {
		customer.Email = &email
	}
	require.NoError(t, f.customers.Create(context.Background(), nil, customer))
	return customer
}

// seedInvoice creates a sent invoice with a single 100.00 line item and no
// tax, so the total is a round number the assertions can lean on.
func (f *reconciliationFixture) seedInvoice(t *testing.T, customer *Customer) *Invoice {
	t.Helper()
	invoice := &Invoice{
		CustomerID: customer.ID,
		Customer:   customer,
		LineItems: []InvoiceLineItem{{
			Description: "Deep clean",
			Quantity:    decimal.NewFromInt(1),
			UnitPrice:   decimal.RequireFromString("100.00"),
		}},
		TaxRate:   decimal.Zero,
		Status:    InvoiceStatusSent,
		IssueDate: time.Date(2026, 3, 2, 0, 0, 0, 0, time.UTC),
		DueDate:   time.Date(2026, 3, 16, 0, 0, 0, 0, time.UTC),
	}
	invoice.ComputeTotals()
	require.NoError(t, f.invoices.Create(context.Background(), nil, invoice))
	return invoice
}

func TestCreateInvoice(t *testing.T) {
	f := newReconciliationFixture(t)
	customer := f.seedCustomer(t, "dana@example.com")

	items := []InvoiceLineItem{
		{Description: "Standard clean", Quantity: decimal.NewFromInt(2), UnitPrice: decimal.RequireFromString("85.00")},
		{Description: "Oven add-on", Quantity: decimal.NewFromInt(1), UnitPrice: decimal.RequireFromString("29.99")},
	}

	invoice, err := f.service.CreateInvoice(
		context.Background(), customer.ID, nil, items, decimal.Zero, "")
	require.NoError(t, err)

	assert.Equal(t, "INV-00001", invoice.Number)
	assert.Equal(t, InvoiceStatusDraft, invoice.Status)
	assert.Equal(t, "199.99", invoice.Subtotal.StringFixed(2))
	assert.Equal(t, "16.50", invoice.TaxAmount.StringFixed(2))
	assert.Equal(t, "216.49", invoice.Total.StringFixed(2))
	assert.True(t, invoice.AmountDue.Equal(invoice.Total))
	assert.Equal(t, time.Date(2026, 3, 16, 0, 0, 0, 0, time.UTC), invoice.DueDate)

	_, err = f.service.CreateInvoice(
		context.Background(), customer.ID, nil, nil, decimal.Zero, "")
	assert.Error(t, err, "empty invoices are rejected")
}

func TestCreateFromBooking(t *testing.T) {
	f := newReconciliationFixture(t)
	customer := f.seedCustomer(t, "dana@example.com")

	booking := &Booking{
		BaseUUIDModel:  BaseUUIDModel{ID: uuid.New()},
		CustomerID:     customer.ID,
		ScheduledDate:  time.Date(2026, 2, 27, 0, 0, 0, 0, time.UTC),
		BasePrice:      decimal.RequireFromString("120.00"),
		AddonsPrice:    decimal.RequireFromString("35.00"),
		DiscountAmount: decimal.RequireFromString("10.00"),
		Status:         BookingStatusCompleted,
	}

	invoice, err := f.service.CreateFromBooking(context.Background(), booking)
	require.NoError(t, err)

	require.Len(t, invoice.LineItems, 1)
	assert.Equal(t, "155.00", invoice.LineItems[0].Amount.StringFixed(2))
	assert.Equal(t, "10.00", invoice.DiscountAmount.StringFixed(2))
	require.NotNil(t, invoice.BookingID)
	assert.Equal(t, booking.ID, *invoice.BookingID)

	booking.Status = BookingStatusPending
	_, err = f.service.CreateFromBooking(context.Background(), booking)
	assert.ErrorIs(t, err, ErrBookingNotCompleted)
}

func TestApplyPayment(t *testing.T) {
	t.Run("partial payment keeps the ledger balanced", func(t *testing.T) {
		f := newReconciliationFixture(t)
		customer := f.seedCustomer(t, "dana@example.com")
		invoice := f.seedInvoice(t, customer)

		updated, err := f.service.ApplyPayment(context.Background(), PaymentInput{
			InvoiceID: invoice.ID,
			Amount:    decimal.RequireFromString("40.00"),
			Method:    PaymentMethodCash,
		})
		require.NoError(t, err)

		assert.Equal(t, InvoiceStatusPartial, updated.Status)
		assert.Equal(t, "40.00", updated.AmountPaid.StringFixed(2))
		assert.Equal(t, "60.00", updated.AmountDue.StringFixed(2))
		assert.True(t, updated.AmountPaid.Add(updated.AmountDue).Equal(updated.Total))

		require.Len(t, f.payments.payments, 1)
		assert.Equal(t, PaymentMethodCash, f.payments.payments[0].Method)
		assert.Equal(t, "40.00", f.customers.spend[customer.ID].StringFixed(2))
	})

	t.Run("full payment settles the invoice", func(t *testing.T) {
		f := newReconciliationFixture(t)
		customer := f.seedCustomer(t, "dana@example.com")
		invoice := f.seedInvoice(t, customer)

		updated, err := f.service.ApplyPayment(context.Background(), PaymentInput{
			InvoiceID: invoice.ID,
			Amount:    decimal.RequireFromString("100.00"),
			Method:    PaymentMethodCheck,
		})
		require.NoError(t, err)

		assert.Equal(t, InvoiceStatusPaid, updated.Status)
		assert.True(t, updated.AmountDue.IsZero())
		require.NotNil(t, updated.PaidDate)
		assert.Equal(t, time.Date(2026, 3, 2, 0, 0, 0, 0, time.UTC), *updated.PaidDate)
	})

	t.Run("many small payments accumulate exactly", func(t *testing.T) {
		f := newReconciliationFixture(t)
		customer := f.seedCustomer(t, "dana@example.com")
		invoice := f.seedInvoice(t, customer)

		for range 9 {
			_, err := f.service.ApplyPayment(context.Background(), PaymentInput{
				InvoiceID: invoice.ID,
				Amount:    decimal.RequireFromString("11.11"),
				Method:    PaymentMethodCash,
			})
			require.NoError(t, err)
		}

		stored, err := f.invoices.GetByID(context.Background(), nil, invoice.ID)
		require.NoError(t, err)
		assert.Equal(t, "99.99", stored.AmountPaid.StringFixed(2))
		assert.Equal(t, "0.01", stored.AmountDue.StringFixed(2))
		assert.Equal(t, InvoiceStatusPartial, stored.Status)
	})

	t.Run("overpayment is rejected and leaves no trace", func(t *testing.T) {
		f := newReconciliationFixture(t)
		customer := f.seedCustomer(t, "dana@example.com")
		invoice := f.seedInvoice(t, customer)

		_, err := f.service.ApplyPayment(context.Background(), PaymentInput{
			InvoiceID: invoice.ID,
			Amount:    decimal.RequireFromString("100.01"),
			Method:    PaymentMethodCash,
		})
		require.ErrorIs(t, err, ErrOverpayment)

		stored, err := f.invoices.GetByID(context.Background(), nil, invoice.ID)
		require.NoError(t, err)
		assert.Equal(t, InvoiceStatusSent, stored.Status)
		assert.True(t, stored.AmountPaid.IsZero())
		assert.Empty(t, f.payments.payments)
		assert.True(t, f.customers.spend[customer.ID].IsZero())
	})

	t.Run("invalid method is rejected", func(t *testing.T) {
		f := newReconciliationFixture(t)
		customer := f.seedCustomer(t, "dana@example.com")
		invoice := f.seedInvoice(t, customer)

		_, err := f.service.ApplyPayment(context.Background(), PaymentInput{
			InvoiceID: invoice.ID,
			Amount:    decimal.RequireFromString("10.00"),
			Method:    "bitcoin",
		})
		assert.ErrorIs(t, err, ErrInvalidPaymentMethod)
	})

	t.Run("cancelled invoices take no payments", func(t *testing.T) {
		f := newReconciliationFixture(t)
		customer := f.seedCustomer(t, "dana@example.com")
		invoice := f.seedInvoice(t, customer)
		invoice.Status = InvoiceStatusCancelled
		require.NoError(t, f.invoices.Update(context.Background(), nil, invoice))

		_, err := f.service.ApplyPayment(context.Background(), PaymentInput{
			InvoiceID: invoice.ID,
			Amount:    decimal.RequireFromString("10.00"),
			Method:    PaymentMethodCash,
		})
		assert.ErrorIs(t, err, ErrInvoiceTerminal)
	})
}

func TestConfirmProcessorPayment(t *testing.T) {
	t.Run("first delivery settles the invoice", func(t *testing.T) {
		f := newReconciliationFixture(t)
		customer := f.seedCustomer(t, "dana@example.com")
		invoice := f.seedInvoice(t, customer)

		event := &ProcessorEvent{
			Type:         ProcessorEventCheckoutCompleted,
			InvoiceID:    invoice.ID,
			ProcessorRef: "ch_abc123",
		}
		require.NoError(t, f.service.ConfirmProcessorPayment(context.Background(), event))

		stored, err := f.invoices.GetByID(context.Background(), nil, invoice.ID)
		require.NoError(t, err)
		assert.Equal(t, InvoiceStatusPaid, stored.Status)
		assert.True(t, stored.AmountDue.IsZero())

		require.Len(t, f.payments.payments, 1)
		payment := f.payments.payments[0]
		assert.Equal(t, PaymentMethodCard, payment.Method)
		require.NotNil(t, payment.ProcessorRef)
		assert.Equal(t, "ch_abc123", *payment.ProcessorRef)
	})

	t.Run("redelivery is a no-op", func(t *testing.T) {
		f := newReconciliationFixture(t)
		customer := f.seedCustomer(t, "dana@example.com")
		invoice := f.seedInvoice(t, customer)

		event := &ProcessorEvent{
			Type:         ProcessorEventCheckoutCompleted,
			InvoiceID:    invoice.ID,
			ProcessorRef: "ch_abc123",
		}
		require.NoError(t, f.service.ConfirmProcessorPayment(context.Background(), event))
		require.NoError(t, f.service.ConfirmProcessorPayment(context.Background(), event))

		assert.Len(t, f.payments.payments, 1)
		assert.Equal(t, "100.00", f.customers.spend[customer.ID].StringFixed(2))
	})

	t.Run("settled invoice ignores a late event", func(t *testing.T) {
		f := newReconciliationFixture(t)
		customer := f.seedCustomer(t, "dana@example.com")
		invoice := f.seedInvoice(t, customer)

		_, err := f.service.ApplyPayment(context.Background(), PaymentInput{
			InvoiceID: invoice.ID,
			Amount:    decimal.RequireFromString("100.00"),
			Method:    PaymentMethodCash,
		})
		require.NoError(t, err)

		event := &ProcessorEvent{
			Type:         ProcessorEventCheckoutCompleted,
			InvoiceID:    invoice.ID,
			ProcessorRef: "ch_late",
		}
		require.NoError(t, f.service.ConfirmProcessorPayment(context.Background(), event))

		assert.Len(t, f.payments.payments, 1)
	})

	t.Run("unhandled event types are skipped", func(t *testing.T) {
		f := newReconciliationFixture(t)

		event := &ProcessorEvent{Type: ProcessorEventPaymentFailed}
		require.NoError(t, f.service.ConfirmProcessorPayment(context.Background(), event))
		assert.Empty(t, f.payments.payments)
	})
}

func TestSweepOverdue(t *testing.T) {
	pastDue := time.Date(2026, 2, 20, 0, 0, 0, 0, time.UTC)

	t.Run("marks and notifies past-due invoices", func(t *testing.T) {
		f := newReconciliationFixture(t)
		customer := f.seedCustomer(t, "dana@example.com")
		invoice := f.seedInvoice(t, customer)
		invoice.DueDate = pastDue
		require.NoError(t, f.invoices.Update(context.Background(), nil, invoice))

		result, err := f.service.SweepOverdue(context.Background())
		require.NoError(t, err)

		assert.Equal(t, 1, result.Examined)
		assert.Equal(t, 1, result.MarkedCount)

		stored, err := f.invoices.GetByID(context.Background(), nil, invoice.ID)
		require.NoError(t, err)
		assert.Equal(t, InvoiceStatusOverdue, stored.Status)

		require.Len(t, f.mailer.sent, 1)
		assert.Equal(t, "dana@example.com", f.mailer.sent[0].To)
		assert.Contains(t, f.mailer.sent[0].TextBody, "Please arrange payment")

		require.Len(t, f.commLog.entries, 1)
		assert.Equal(t, CommunicationTypeOverdueNotice, f.commLog.entries[0].Type)
		assert.Equal(t, CommunicationStatusSent, f.commLog.entries[0].Status)
	})

	t.Run("one failure does not block the sweep", func(t *testing.T) {
		f := newReconciliationFixture(t)
		customer := f.seedCustomer(t, "dana@example.com")

		bad := f.seedInvoice(t, customer)
		bad.DueDate = pastDue
		require.NoError(t, f.invoices.Update(context.Background(), nil, bad))

		good := f.seedInvoice(t, customer)
		good.DueDate = pastDue
		require.NoError(t, f.invoices.Update(context.Background(), nil, good))

		f.invoices.failUpdateFor = &bad.ID

		result, err := f.service.SweepOverdue(context.Background())
		require.NoError(t, err)

		assert.Equal(t, 2, result.Examined)
		assert.Equal(t, 1, result.MarkedCount)
		require.Len(t, result.Failures, 1)
		assert.Contains(t, result.Failures[0], bad.Number)

		stored, err := f.invoices.GetByID(context.Background(), nil, good.ID)
		require.NoError(t, err)
		assert.Equal(t, InvoiceStatusOverdue, stored.Status)
	})

	t.Run("failed email still marks the invoice and logs the failure", func(t *testing.T) {
		f := newReconciliationFixture(t)
		customer := f.seedCustomer(t, "dana@example.com")
		invoice := f.seedInvoice(t, customer)
		invoice.DueDate = pastDue
		require.NoError(t, f.invoices.Update(context.Background(), nil, invoice))

		f.mailer.failFor["dana@example.com"] = true

		result, err := f.service.SweepOverdue(context.Background())
		require.NoError(t, err)
		assert.Equal(t, 1, result.MarkedCount)

		require.Len(t, f.commLog.entries, 1)
		assert.Equal(t, CommunicationStatusFailed, f.commLog.entries[0].Status)
		assert.NotEmpty(t, f.commLog.entries[0].Error)
	})

	t.Run("invoices not yet due are untouched", func(t *testing.T) {
		f := newReconciliationFixture(t)
		customer := f.seedCustomer(t, "dana@example.com")
		f.seedInvoice(t, customer)

		result, err := f.service.SweepOverdue(context.Background())
		require.NoError(t, err)
		assert.Equal(t, 0, result.Examined)
		assert.Empty(t, f.mailer.sent)
	})
}

func TestSendInvoice(t *testing.T) {
	f := newReconciliationFixture(t)
	customer := f.seedCustomer(t, "dana@example.com")

	invoice, err := f.service.CreateInvoice(
		context.Background(), customer.ID, nil,
		[]InvoiceLineItem{{
			Description: "Move-out clean",
			Quantity:    decimal.NewFromInt(1),
			UnitPrice:   decimal.RequireFromString("250.00"),
		}},
		decimal.Zero, "")
	require.NoError(t, err)
	invoice.Customer = customer
	require.NoError(t, f.invoices.Update(context.Background(), nil, invoice))

	require.NoError(t, f.service.SendInvoice(context.Background(), invoice.ID))

	stored, err := f.invoices.GetByID(context.Background(), nil, invoice.ID)
	require.NoError(t, err)
	assert.Equal(t, InvoiceStatusSent, stored.Status)
	require.NotNil(t, stored.SentAt)

	require.Len(t, f.mailer.sent, 1)
	assert.Contains(t, f.mailer.sent[0].Subject, invoice.Number)
}

func TestRefundPayment(t *testing.T) {
	f := newReconciliationFixture(t)
	customer := f.seedCustomer(t, "dana@example.com")
	invoice := f.seedInvoice(t, customer)

	event := &ProcessorEvent{
		Type:         ProcessorEventCheckoutCompleted,
		InvoiceID:    invoice.ID,
		ProcessorRef: "ch_refundme",
	}
	require.NoError(t, f.service.ConfirmProcessorPayment(context.Background(), event))
	require.Len(t, f.payments.payments, 1)
	paymentID := f.payments.payments[0].ID

	require.NoError(t, f.service.RefundPayment(context.Background(), paymentID))

	assert.Equal(t, []string{"ch_refundme"}, f.processor.refunds)
	assert.Equal(t, PaymentStatusRefunded, f.payments.payments[0].Status)

	stored, err := f.invoices.GetByID(context.Background(), nil, invoice.ID)
	require.NoError(t, err)
	assert.Equal(t, InvoiceStatusRefunded, stored.Status)
	assert.True(t, stored.AmountPaid.IsZero())

	assert.True(t, f.customers.spend[customer.ID].IsZero())

	// Double refund is rejected
	assert.Error(t, f.service.RefundPayment(context.Background(), paymentID))
}
