package services

import (
	"context"
	"errors"
	"time"

	"tidynest/config"
	"tidynest/internal/logger"
	. "tidynest/internal/models"
	"tidynest/internal/repositories"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

var (
	ErrInvalidCredentials = errors.New("invalid email or password")
	ErrInvalidToken       = errors.New("invalid or expired token")
	ErrSessionRevoked     = errors.New("session has been revoked")
	ErrAccountInactive    = errors.New("account is inactive")
)

// Claims is the JWT payload. IsCustomer separates the customer portal axis
// from staff roles; a customer token never carries a staff role.
type Claims struct {
	Role       Role `json:"role,omitempty"`
	IsCustomer bool `json:"isCustomer"`
	jwt.RegisteredClaims
}

// AuthResult bundles a freshly issued token with its subject
type AuthResult struct {
	Token     string    `json:"token"`
	ExpiresAt time.Time `json:"expiresAt"`
	User      *User     `json:"-"`
	Customer  *Customer `json:"-"`
}

// AuthService issues and validates JWTs backed by session rows, so a token
// can be revoked before its expiry.
type AuthService struct {
	tx        TxRunner
	users     repositories.UserRepository
	customers repositories.CustomerRepository
	sessions  repositories.SessionRepository
	config    config.Config
	logger    logger.Logger
	now       func() time.Time
}

func NewAuthService(
	tx TxRunner,
	users repositories.UserRepository,
	customers repositories.CustomerRepository,
	sessions repositories.SessionRepository,
	config config.Config,
) *AuthService {
	return &AuthService{
		tx:        tx,
		users:     users,
		customers: customers,
		sessions:  sessions,
		config:    config,
		logger:    logger.New("authService"),
		now:       time.Now,
	}
}

// LoginStaff authenticates a staff account and issues a role-bearing token
func (s *AuthService) LoginStaff(
	ctx context.Context,
	email string,
	password string,
) (*AuthResult, error) {
	log := s.logger.Function("LoginStaff")

	var user *User
	err := s.tx.Execute(ctx, func(ctx context.Context, tx *gorm.DB) error {
		var err error
		user, err = s.users.GetByEmail(ctx, tx, email)
		return err
	})
	if err != nil {
		return nil, err
	}

	if user == nil || !user.CheckPassword(password) {
		// Same error for unknown email and wrong password
		return nil, ErrInvalidCredentials
	}
	if !user.IsActive {
		return nil, ErrAccountInactive
	}

	userID := user.ID
	token, expiresAt, err := s.issue(ctx, &userID, nil, user.Role)
	if err != nil {
		return nil, err
	}

	err = s.tx.Execute(ctx, func(ctx context.Context, tx *gorm.DB) error {
		return s.users.UpdateLastLogin(ctx, tx, user.ID, s.now())
	})
	if err != nil {
		log.Er("failed to update last login", err, "userID", user.ID)
	}

	log.Info("Staff login", "userID", user.ID, "role", user.Role)
	return &AuthResult{Token: token, ExpiresAt: expiresAt, User: user}, nil
}

// LoginCustomer authenticates a customer portal account
func (s *AuthService) LoginCustomer(
	ctx context.Context,
	email string,
	password string,
) (*AuthResult, error) {
	log := s.logger.Function("LoginCustomer")

	var customer *Customer
	err := s.tx.Execute(ctx, func(ctx context.Context, tx *gorm.DB) error {
		var err error
		customer, err = s.customers.GetByEmail(ctx, tx, email)
		return err
	})
	if err != nil {
		return nil, err
	}

	if customer == nil || customer.PasswordHash == nil ||
		!checkBcrypt(*customer.PasswordHash, password) {
		return nil, ErrInvalidCredentials
	}
	if !customer.IsActive {
		return nil, ErrAccountInactive
	}

	customerID := customer.ID
	token, expiresAt, err := s.issue(ctx, nil, &customerID, "")
	if err != nil {
		return nil, err
	}

	log.Info("Customer login", "customerID", customer.ID)
	return &AuthResult{Token: token, ExpiresAt: expiresAt, Customer: customer}, nil
}

// issue signs a token and records its session row in the same breath
func (s *AuthService) issue(
	ctx context.Context,
	userID *uuid.UUID,
	customerID *uuid.UUID,
	role Role,
) (string, time.Time, error) {
	log := s.logger.Function("issue")

	now := s.now()
	ttl := time.Duration(s.config.SessionTTLHours) * time.Hour
	expiresAt := now.Add(ttl)
	tokenID := uuid.New().String()

	subject := ""
	if userID != nil {
		subject = userID.String()
	} else if customerID != nil {
		subject = customerID.String()
	}

	claims := Claims{
		Role:       role,
		IsCustomer: customerID != nil,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   subject,
			Issuer:    s.config.JWTIssuer,
			ID:        tokenID,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(expiresAt),
		},
	}

	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).
		SignedString([]byte(s.config.JWTSecret))
	if err != nil {
		return "", time.Time{}, log.Err("failed to sign token", err)
	}

	err = s.tx.Execute(ctx, func(ctx context.Context, tx *gorm.DB) error {
		return s.sessions.Create(ctx, tx, &Session{
			UserID:     userID,
			CustomerID: customerID,
			TokenID:    tokenID,
			ExpiresAt:  expiresAt,
		})
	})
	if err != nil {
		return "", time.Time{}, err
	}

	return signed, expiresAt, nil
}

// ValidateToken parses and verifies a token, then checks its session row is
// neither revoked nor missing.
func (s *AuthService) ValidateToken(ctx context.Context, tokenString string) (*Claims, error) {
	token, err := jwt.ParseWithClaims(
		tokenString,
		&Claims{},
		func(token *jwt.Token) (any, error) {
			if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
				return nil, ErrInvalidToken
			}
			return []byte(s.config.JWTSecret), nil
		},
		jwt.WithIssuer(s.config.JWTIssuer),
		jwt.WithExpirationRequired(),
	)
	if err != nil || !token.Valid {
		return nil, ErrInvalidToken
	}

	claims, ok := token.Claims.(*Claims)
	if !ok {
		return nil, ErrInvalidToken
	}

	var session *Session
	err = s.tx.Execute(ctx, func(ctx context.Context, tx *gorm.DB) error {
		var err error
		session, err = s.sessions.GetByTokenID(ctx, tx, claims.ID)
		return err
	})
	if err != nil {
		return nil, err
	}
	if session == nil || session.IsExpired(s.now()) {
		return nil, ErrInvalidToken
	}
	if session.IsRevoked() {
		return nil, ErrSessionRevoked
	}

	return claims, nil
}

// Logout revokes the session behind a token. Revocation is permanent; the
// cleanup job removes the row once it expires.
func (s *AuthService) Logout(ctx context.Context, claims *Claims) error {
	return s.tx.Execute(ctx, func(ctx context.Context, tx *gorm.DB) error {
		return s.sessions.Revoke(ctx, tx, claims.ID, s.now())
	})
}

func checkBcrypt(hash, plain string) bool {
	return bcrypt.CompareHashAndPassword([]byte(hash), []byte(plain)) == nil
}

// CleanupExpiredSessions deletes session rows past their expiry
func (s *AuthService) CleanupExpiredSessions(ctx context.Context) (int64, error) {
	log := s.logger.Function("CleanupExpiredSessions")

	var deleted int64
	err := s.tx.Execute(ctx, func(ctx context.Context, tx *gorm.DB) error {
		var err error
		deleted, err = s.sessions.DeleteExpired(ctx, tx, s.now())
		return err
	})
	if err != nil {
		return 0, err
	}

	if deleted > 0 {
		log.Info("Expired sessions removed", "count", deleted)
	}
	return deleted, nil
}
