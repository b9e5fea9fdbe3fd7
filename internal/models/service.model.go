package models

import (
	"github.com/shopspring/decimal"
)

// Service is a catalog entry for one cleaning offering
type Service struct {
	BaseUUIDModel
	Name            string          `gorm:"type:text;uniqueIndex"  json:"name"`
	Description     string          `gorm:"type:text"              json:"description"`
	BasePrice       decimal.Decimal `gorm:"type:numeric(10,2)"     json:"basePrice"`
	DurationMinutes int             `gorm:"type:int"               json:"durationMinutes"`
	IsActive        bool            `gorm:"type:bool;default:true" json:"isActive"`
}
