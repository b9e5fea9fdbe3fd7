package models

import (
	"github.com/google/uuid"
)

type CommunicationType string

const (
	CommunicationTypeReminder      CommunicationType = "reminder"
	CommunicationTypeConfirmation  CommunicationType = "confirmation"
	CommunicationTypeOverdueNotice CommunicationType = "overdue_notice"
	CommunicationTypeReceipt       CommunicationType = "receipt"
	CommunicationTypeInventory     CommunicationType = "low_inventory"
)

type CommunicationStatus string

const (
	CommunicationStatusSent   CommunicationStatus = "sent"
	CommunicationStatusFailed CommunicationStatus = "failed"
)

// CommunicationLog records every outbound transactional email so a failed
// send is identifiable for manual follow-up rather than vanishing.
type CommunicationLog struct {
	BaseUUIDModel
	CustomerID *uuid.UUID `gorm:"type:uuid;index" json:"customerId,omitempty"`
	BookingID  *uuid.UUID `gorm:"type:uuid"       json:"bookingId,omitempty"`
	InvoiceID  *uuid.UUID `gorm:"type:uuid"       json:"invoiceId,omitempty"`

	Type      CommunicationType   `gorm:"type:text;index" json:"type"`
	Recipient string              `gorm:"type:text"       json:"recipient"`
	Subject   string              `gorm:"type:text"       json:"subject"`
	Status    CommunicationStatus `gorm:"type:text"       json:"status"`
	Error     string              `gorm:"type:text"       json:"error,omitempty"`
}
