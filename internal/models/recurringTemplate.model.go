package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/datatypes"
)

type Frequency string

const (
	FrequencyWeekly   Frequency = "weekly"
	FrequencyBiweekly Frequency = "biweekly"
	FrequencyMonthly  Frequency = "monthly"
)

func (f Frequency) IsValid() bool {
	switch f {
	case FrequencyWeekly, FrequencyBiweekly, FrequencyMonthly:
		return true
	}
	return false
}

// RecurringTemplate is a standing instruction to generate bookings on a
// cadence. NextDate is the earliest date not yet materialized into a Booking;
// it only ever moves forward.
type RecurringTemplate struct {
	BaseUUIDModel
	CustomerID uuid.UUID `gorm:"type:uuid;index"       json:"customerId"`
	Customer   *Customer `gorm:"foreignKey:CustomerID" json:"customer,omitempty"`
	ServiceID  uuid.UUID `gorm:"type:uuid"             json:"serviceId"`
	Service    *Service  `gorm:"foreignKey:ServiceID"  json:"service,omitempty"`

	Frequency     Frequency `gorm:"type:text" json:"frequency"`
	PreferredTime string    `gorm:"type:text" json:"preferredTime"`

	// Property snapshot copied verbatim onto each generated booking
	AddressLine string `gorm:"type:text" json:"addressLine"`
	City        string `gorm:"type:text" json:"city"`
	State       string `gorm:"type:text" json:"state"`
	ZipCode     string `gorm:"type:text" json:"zipCode"`
	Bedrooms    int    `gorm:"type:int"  json:"bedrooms"`
	Bathrooms   int    `gorm:"type:int"  json:"bathrooms"`
	SquareFeet  int    `gorm:"type:int"  json:"squareFeet"`

	BasePrice decimal.Decimal `gorm:"type:numeric(10,2)" json:"basePrice"`
	Addons    datatypes.JSON  `gorm:"type:jsonb"         json:"addons"`

	IsActive bool       `gorm:"type:bool;default:true" json:"isActive"`
	NextDate *time.Time `gorm:"type:date"              json:"nextDate,omitempty"`
}
