package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

type PaymentMethod string

const (
	PaymentMethodCash     PaymentMethod = "cash"
	PaymentMethodCheck    PaymentMethod = "check"
	PaymentMethodCard     PaymentMethod = "card"
	PaymentMethodTransfer PaymentMethod = "transfer"
	PaymentMethodOther    PaymentMethod = "other"
)

func (m PaymentMethod) IsValid() bool {
	switch m {
	case PaymentMethodCash, PaymentMethodCheck, PaymentMethodCard,
		PaymentMethodTransfer, PaymentMethodOther:
		return true
	}
	return false
}

type PaymentStatus string

const (
	PaymentStatusCompleted PaymentStatus = "completed"
	PaymentStatusRefunded  PaymentStatus = "refunded"
)

// Payment is one monetary transaction applied to exactly one invoice.
// Rows are immutable once created except for the refund status flip; a
// refund never deletes the original row.
type Payment struct {
	BaseUUIDModel
	InvoiceID  uuid.UUID `gorm:"type:uuid;index" json:"invoiceId"`
	Invoice    *Invoice  `gorm:"foreignKey:InvoiceID" json:"invoice,omitempty"`
	CustomerID uuid.UUID `gorm:"type:uuid;index" json:"customerId"`

	Amount decimal.Decimal `gorm:"type:numeric(10,2)" json:"amount"`
	Method PaymentMethod   `gorm:"type:text"          json:"method"`

	// External processor transaction reference; unique so webhook
	// redelivery cannot credit the same charge twice
	ProcessorRef *string `gorm:"type:text;uniqueIndex" json:"processorRef,omitempty"`

	Status      PaymentStatus `gorm:"type:text;default:'completed'" json:"status"`
	ProcessedAt time.Time     `gorm:"type:timestamp"                json:"processedAt"`

	Notes string `gorm:"type:text" json:"notes"`
}
