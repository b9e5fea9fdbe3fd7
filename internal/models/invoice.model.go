package models

import (
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

type InvoiceStatus string

const (
	InvoiceStatusDraft     InvoiceStatus = "draft"
	InvoiceStatusSent      InvoiceStatus = "sent"
	InvoiceStatusPartial   InvoiceStatus = "partial"
	InvoiceStatusPaid      InvoiceStatus = "paid"
	InvoiceStatusOverdue   InvoiceStatus = "overdue"
	InvoiceStatusCancelled InvoiceStatus = "cancelled"
	InvoiceStatusRefunded  InvoiceStatus = "refunded"
)

var (
	ErrNonPositivePayment = errors.New("payment amount must be positive")
	ErrOverpayment        = errors.New("payment exceeds amount due")
	ErrInvoiceTerminal    = errors.New("invoice is in a terminal status")
)

// Invoice is a bill addressed to one customer, optionally tied to one booking
type Invoice struct {
	BaseUUIDModel
	// Sequence is the monotonically increasing per-company counter backing
	// the human-readable Number, e.g. sequence 42 -> "INV-00042"
	Sequence int    `gorm:"type:int;uniqueIndex"  json:"sequence"`
	Number   string `gorm:"type:text;uniqueIndex" json:"number"`

	CustomerID uuid.UUID  `gorm:"type:uuid;index"       json:"customerId"`
	Customer   *Customer  `gorm:"foreignKey:CustomerID" json:"customer,omitempty"`
	BookingID  *uuid.UUID `gorm:"type:uuid"             json:"bookingId,omitempty"`

	Subtotal       decimal.Decimal `gorm:"type:numeric(10,2)"           json:"subtotal"`
	TaxRate        decimal.Decimal `gorm:"type:numeric(6,4);default:0"  json:"taxRate"`
	TaxAmount      decimal.Decimal `gorm:"type:numeric(10,2);default:0" json:"taxAmount"`
	DiscountAmount decimal.Decimal `gorm:"type:numeric(10,2);default:0" json:"discountAmount"`
	Total          decimal.Decimal `gorm:"type:numeric(10,2)"           json:"total"`
	AmountPaid     decimal.Decimal `gorm:"type:numeric(10,2);default:0" json:"amountPaid"`
	AmountDue      decimal.Decimal `gorm:"type:numeric(10,2);default:0" json:"amountDue"`

	Status    InvoiceStatus `gorm:"type:text;default:'draft';index" json:"status"`
	IssueDate time.Time     `gorm:"type:date"                       json:"issueDate"`
	DueDate   time.Time     `gorm:"type:date;index"                 json:"dueDate"`
	PaidDate  *time.Time    `gorm:"type:date"                       json:"paidDate,omitempty"`
	SentAt    *time.Time    `gorm:"type:timestamp"                  json:"sentAt,omitempty"`

	LineItems []InvoiceLineItem `gorm:"foreignKey:InvoiceID" json:"lineItems,omitempty"`

	Notes string `gorm:"type:text" json:"notes"`
}

type InvoiceLineItem struct {
	BaseUUIDModel
	InvoiceID   uuid.UUID       `gorm:"type:uuid;index"    json:"invoiceId"`
	Description string          `gorm:"type:text"          json:"description"`
	Quantity    decimal.Decimal `gorm:"type:numeric(10,2)" json:"quantity"`
	UnitPrice   decimal.Decimal `gorm:"type:numeric(10,2)" json:"unitPrice"`
	Amount      decimal.Decimal `gorm:"type:numeric(10,2)" json:"amount"`
}

// ComputeTotals derives subtotal, tax, total and amountDue from the line
// items. Tax applies to the discounted subtotal and is rounded to cents.
func (i *Invoice) ComputeTotals() {
	subtotal := decimal.Zero
	for idx := range i.LineItems {
		item := &i.LineItems[idx]
		item.Amount = item.Quantity.Mul(item.UnitPrice).Round(2)
		subtotal = subtotal.Add(item.Amount)
	}

	i.Subtotal = subtotal
	taxable := subtotal.Sub(i.DiscountAmount)
	if taxable.IsNegative() {
		taxable = decimal.Zero
	}
	i.TaxAmount = taxable.Mul(i.TaxRate).Round(2)
	i.Total = taxable.Add(i.TaxAmount)
	i.AmountDue = i.Total.Sub(i.AmountPaid)
	if i.AmountDue.IsNegative() {
		i.AmountDue = decimal.Zero
	}
}

// IsTerminal reports whether the status overrides derivation
func (i *Invoice) IsTerminal() bool {
	return i.Status == InvoiceStatusCancelled || i.Status == InvoiceStatusRefunded
}

// ApplyPaymentAmount records a payment against the invoice in memory,
// enforcing the overpayment rejection contract and keeping
// amountPaid + amountDue == total. Persistence is the caller's concern.
func (i *Invoice) ApplyPaymentAmount(amount decimal.Decimal, today time.Time) error {
	if i.IsTerminal() {
		return fmt.Errorf("%w: %s", ErrInvoiceTerminal, i.Status)
	}
	if !amount.IsPositive() {
		return fmt.Errorf("%w: %s", ErrNonPositivePayment, amount.String())
	}
	if amount.GreaterThan(i.AmountDue) {
		return fmt.Errorf(
			"%w: payment %s, amount due %s",
			ErrOverpayment, amount.String(), i.AmountDue.String(),
		)
	}

	i.AmountPaid = i.AmountPaid.Add(amount)
	i.AmountDue = i.Total.Sub(i.AmountPaid)
	if i.AmountDue.IsNegative() {
		i.AmountDue = decimal.Zero
	}

	if i.AmountDue.IsZero() {
		if i.Status != InvoiceStatusPaid {
			i.Status = InvoiceStatusPaid
			paid := today
			i.PaidDate = &paid
		}
	} else if i.AmountPaid.IsPositive() {
		i.Status = InvoiceStatusPartial
	}

	return nil
}
