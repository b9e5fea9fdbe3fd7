package models

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestInvoice(total string) *Invoice {
	totalDec := decimal.RequireFromString(total)
	return &Invoice{
		Status:     InvoiceStatusSent,
		Total:      totalDec,
		AmountPaid: decimal.Zero,
		AmountDue:  totalDec,
	}
}

func TestInvoiceComputeTotals(t *testing.T) {
	invoice := &Invoice{
		TaxRate:        decimal.RequireFromString("0.0825"),
		DiscountAmount: decimal.RequireFromString("20.00"),
		LineItems: []InvoiceLineItem{
			{Quantity: decimal.NewFromInt(2), UnitPrice: decimal.RequireFromString("75.00")},
			{Quantity: decimal.NewFromInt(1), UnitPrice: decimal.RequireFromString("49.99")},
		},
	}

	invoice.ComputeTotals()

	assert.True(t, invoice.Subtotal.Equal(decimal.RequireFromString("199.99")), "subtotal %s", invoice.Subtotal)
	// tax on 179.99 at 8.25% = 14.849175 -> 14.85
	assert.True(t, invoice.TaxAmount.Equal(decimal.RequireFromString("14.85")), "tax %s", invoice.TaxAmount)
	assert.True(t, invoice.Total.Equal(decimal.RequireFromString("194.84")), "total %s", invoice.Total)
	assert.True(t, invoice.AmountDue.Equal(invoice.Total))
}

func TestInvoiceComputeTotalsDiscountExceedsSubtotal(t *testing.T) {
	invoice := &Invoice{
		TaxRate:        decimal.RequireFromString("0.10"),
		DiscountAmount: decimal.RequireFromString("500.00"),
		LineItems: []InvoiceLineItem{
			{Quantity: decimal.NewFromInt(1), UnitPrice: decimal.RequireFromString("100.00")},
		},
	}

	invoice.ComputeTotals()

	assert.True(t, invoice.Total.IsZero())
	assert.False(t, invoice.AmountDue.IsNegative())
}

func TestApplyPaymentAmountFull(t *testing.T) {
	today := time.Date(2026, 4, 1, 0, 0, 0, 0, time.UTC)
	invoice := newTestInvoice("150.00")

	require.NoError(t, invoice.ApplyPaymentAmount(decimal.RequireFromString("150.00"), today))

	assert.Equal(t, InvoiceStatusPaid, invoice.Status)
	assert.True(t, invoice.AmountDue.IsZero())
	require.NotNil(t, invoice.PaidDate)
	assert.Equal(t, today, *invoice.PaidDate)
}

func TestApplyPaymentAmountPartialAccumulation(t *testing.T) {
	today := time.Date(2026, 4, 1, 0, 0, 0, 0, time.UTC)
	invoice := newTestInvoice("100.00")

	// Repeated partial payments must reproduce exact cent totals
	for range 10 {
		require.NoError(t, invoice.ApplyPaymentAmount(decimal.RequireFromString("9.99"), today))
		assert.True(t, invoice.AmountPaid.Add(invoice.AmountDue).Equal(invoice.Total))
	}

	assert.Equal(t, InvoiceStatusPartial, invoice.Status)
	assert.True(t, invoice.AmountDue.Equal(decimal.RequireFromString("0.10")))
	assert.Nil(t, invoice.PaidDate)
}

func TestApplyPaymentAmountRejectsOverpayment(t *testing.T) {
	today := time.Date(2026, 4, 1, 0, 0, 0, 0, time.UTC)
	invoice := newTestInvoice("100.00")

	err := invoice.ApplyPaymentAmount(decimal.RequireFromString("100.01"), today)
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrOverpayment)

	// Rejection leaves the invoice unchanged
	assert.Equal(t, InvoiceStatusSent, invoice.Status)
	assert.True(t, invoice.AmountPaid.IsZero())
	assert.True(t, invoice.AmountDue.Equal(invoice.Total))
}

func TestApplyPaymentAmountRejectsNonPositive(t *testing.T) {
	today := time.Date(2026, 4, 1, 0, 0, 0, 0, time.UTC)
	invoice := newTestInvoice("100.00")

	assert.ErrorIs(t, invoice.ApplyPaymentAmount(decimal.Zero, today), ErrNonPositivePayment)
	assert.ErrorIs(t, invoice.ApplyPaymentAmount(decimal.RequireFromString("-5.00"), today), ErrNonPositivePayment)
}

func TestApplyPaymentAmountRejectsTerminal(t *testing.T) {
	today := time.Date(2026, 4, 1, 0, 0, 0, 0, time.UTC)

	for _, status := range []InvoiceStatus{InvoiceStatusCancelled, InvoiceStatusRefunded} {
		invoice := newTestInvoice("100.00")
		invoice.Status = status
		assert.ErrorIs(t, invoice.ApplyPaymentAmount(decimal.NewFromInt(10), today), ErrInvoiceTerminal)
	}
}

func TestRoleGate(t *testing.T) {
	assert.True(t, RoleAdmin.AtLeast(RoleEmployee))
	assert.True(t, RoleAdmin.AtLeast(RoleAdmin))
	assert.True(t, RoleManager.AtLeast(RoleEmployee))
	assert.False(t, RoleEmployee.AtLeast(RoleManager))
	assert.False(t, Role("customer").AtLeast(RoleEmployee))
	assert.False(t, Role("").AtLeast(RoleEmployee))
}
