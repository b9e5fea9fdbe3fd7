package models

import (
	"time"

	"github.com/google/uuid"
)

// Session records an issued token so it can be revoked before expiry.
// Exactly one of UserID/CustomerID is set; the hourly cleanup job deletes
// rows past ExpiresAt.
type Session struct {
	BaseUUIDModel
	UserID     *uuid.UUID `gorm:"type:uuid;index" json:"userId,omitempty"`
	CustomerID *uuid.UUID `gorm:"type:uuid;index" json:"customerId,omitempty"`

	TokenID   string     `gorm:"type:text;uniqueIndex" json:"tokenId"`
	ExpiresAt time.Time  `gorm:"type:timestamp;index"  json:"expiresAt"`
	RevokedAt *time.Time `gorm:"type:timestamp"        json:"revokedAt,omitempty"`
}

func (s *Session) IsExpired(now time.Time) bool {
	return now.After(s.ExpiresAt)
}

func (s *Session) IsRevoked() bool {
	return s.RevokedAt != nil
}
