package models

import (
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

type Customer struct {
	BaseUUIDModel
	FirstName string  `gorm:"type:text"             json:"firstName"`
	LastName  string  `gorm:"type:text"             json:"lastName"`
	FullName  string  `gorm:"type:text"             json:"fullName"`
	Email     *string `gorm:"type:text;uniqueIndex" json:"email"`
	Phone     string  `gorm:"type:text"             json:"phone"`

	// Default service address, copied onto bookings at creation time
	AddressLine string `gorm:"type:text" json:"addressLine"`
	City        string `gorm:"type:text" json:"city"`
	State       string `gorm:"type:text" json:"state"`
	ZipCode     string `gorm:"type:text" json:"zipCode"`

	// Customer portal login; nil for customers created from public submissions
	PasswordHash *string `gorm:"type:text" json:"-"`

	// Soft deactivation. Bookings and invoices outlive an inactive customer.
	IsActive bool `gorm:"type:bool;default:true" json:"isActive"`

	// Maintained by the reconciliation engine in the same transaction as
	// each payment insert
	LifetimeSpend decimal.Decimal `gorm:"type:numeric(12,2);default:0" json:"lifetimeSpend"`

	Notes string `gorm:"type:text" json:"notes"`
}

func (c *Customer) BeforeCreate(tx *gorm.DB) error {
	c.FullName = c.FirstName + " " + c.LastName
	return nil
}
