package models

import (
	"time"

	"golang.org/x/crypto/bcrypt"
)

type Role string

const (
	RoleAdmin    Role = "admin"
	RoleManager  Role = "manager"
	RoleEmployee Role = "employee"
)

var roleRank = map[Role]int{
	RoleEmployee: 1,
	RoleManager:  2,
	RoleAdmin:    3,
}

// AtLeast reports whether the role meets or exceeds the required staff role.
// Unknown roles never pass the gate.
func (r Role) AtLeast(required Role) bool {
	rank, ok := roleRank[r]
	requiredRank, requiredOK := roleRank[required]
	return ok && requiredOK && rank >= requiredRank
}

func (r Role) IsValid() bool {
	_, ok := roleRank[r]
	return ok
}

// User is a staff account. Customers authenticate on a separate axis and
// never hold a staff role.
type User struct {
	BaseUUIDModel
	FirstName    string     `gorm:"type:text"                json:"firstName"`
	LastName     string     `gorm:"type:text"                json:"lastName"`
	Email        string     `gorm:"type:text;uniqueIndex"    json:"email"`
	PasswordHash string     `gorm:"type:text"                json:"-"`
	Role         Role       `gorm:"type:text;default:'employee'" json:"role"`
	IsActive     bool       `gorm:"type:bool;default:true"   json:"isActive"`
	LastLoginAt  *time.Time `gorm:"type:timestamp"           json:"lastLoginAt,omitempty"`
}

func (u *User) SetPassword(plain string) error {
	hash, err := bcrypt.GenerateFromPassword([]byte(plain), bcrypt.DefaultCost)
	if err != nil {
		return err
	}
	u.PasswordHash = string(hash)
	return nil
}

func (u *User) CheckPassword(plain string) bool {
	return bcrypt.CompareHashAndPassword([]byte(u.PasswordHash), []byte(plain)) == nil
}

// UserProfile is the public shape returned to the dashboard
type UserProfile struct {
	ID        string     `json:"id"`
	FirstName string     `json:"firstName"`
	LastName  string     `json:"lastName"`
	Email     string     `json:"email"`
	Role      Role       `json:"role"`
	IsActive  bool       `json:"isActive"`
	LastLogin *time.Time `json:"lastLoginAt,omitempty"`
}

func (u *User) ToProfile() UserProfile {
	return UserProfile{
		ID:        u.ID.String(),
		FirstName: u.FirstName,
		LastName:  u.LastName,
		Email:     u.Email,
		Role:      u.Role,
		IsActive:  u.IsActive,
		LastLogin: u.LastLoginAt,
	}
}
