package services

import (
	"context"
	"testing"
	"time"

	"tidynest/config"
	. "tidynest/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
)

func newAuthFixture(t *testing.T) (*AuthService, *fakeUserRepo, *fakeSessionRepo, *fakeCustomerRepo) {
	t.Helper()

	users := &fakeUserRepo{}
	sessions := &fakeSessionRepo{}
	customers := newFakeCustomerRepo()

	service := NewAuthService(
		passthroughTx{},
		users,
		customers,
		sessions,
		config.Config{
			JWTSecret:       "test-secret-not-for-production",
			JWTIssuer:       "tidynest",
			SessionTTLHours: 24,
		},
	)

	return service, users, sessions, customers
}

func seedStaff(t *testing.T, users *fakeUserRepo, role Role) *User {
	t.Helper()
	user := &User{
		FirstName: "Priya",
		LastName:  "Raman",
		Email:     "priya@tidynest.example",
		Role:      role,
		IsActive:  true,
	}
	require.NoError(t, user.SetPassword("correct horse battery"))
	require.NoError(t, users.Create(context.Background(), nil, user))
	return user
}

func TestLoginStaff(t *testing.T) {
	t.Run("valid credentials issue a working token", func(t *testing.T) {
		service, users, sessions, _ := newAuthFixture(t)
		user := seedStaff(t, users, RoleManager)

		result, err := service.LoginStaff(
			context.Background(), user.Email, "correct horse battery")
		require.NoError(t, err)
		require.NotEmpty(t, result.Token)
		require.Len(t, sessions.sessions, 1)

		claims, err := service.ValidateToken(context.Background(), result.Token)
		require.NoError(t, err)
		assert.Equal(t, user.ID.String(), claims.Subject)
		assert.Equal(t, RoleManager, claims.Role)
		assert.False(t, claims.IsCustomer)

		require.NotNil(t, user.LastLoginAt)
	})

	t.Run("wrong password and unknown email fail identically", func(t *testing.T) {
		service, users, _, _ := newAuthFixture(t)
		user := seedStaff(t, users, RoleEmployee)

		_, err := service.LoginStaff(context.Background(), user.Email, "wrong")
		assert.ErrorIs(t, err, ErrInvalidCredentials)

		_, err = service.LoginStaff(context.Background(), "nobody@example.com", "wrong")
		assert.ErrorIs(t, err, ErrInvalidCredentials)
	})

	t.Run("inactive accounts cannot log in", func(t *testing.T) {
		service, users, _, _ := newAuthFixture(t)
		user := seedStaff(t, users, RoleEmployee)
		user.IsActive = false

		_, err := service.LoginStaff(
			context.Background(), user.Email, "correct horse battery")
		assert.ErrorIs(t, err, ErrAccountInactive)
	})
}

func TestLoginCustomer(t *testing.T) {
	service, _, _, customers := newAuthFixture(t)

	hash, err := bcrypt.GenerateFromPassword([]byte("portal pass"), bcrypt.DefaultCost)
	require.NoError(t, err)
	hashStr := string(hash)
	email := "dana@example.com"
	customer := &Customer{
		FirstName:    "Dana",
		LastName:     "Whitfield",
		Email:        &email,
		PasswordHash: &hashStr,
		IsActive:     true,
	}
	require.NoError(t, customers.Create(context.Background(), nil, customer))

	result, err := service.LoginCustomer(context.Background(), email, "portal pass")
	require.NoError(t, err)

	claims, err := service.ValidateToken(context.Background(), result.Token)
	require.NoError(t, err)
	assert.True(t, claims.IsCustomer)
	assert.Empty(t, claims.Role, "customer tokens carry no staff role")

	// Customers without a portal password cannot log in
	noPass := &Customer{FirstName: "Sam", LastName: "Ortiz", IsActive: true}
	other := "sam@example.com"
	noPass.Email = &other
	require.NoError(t, customers.Create(context.Background(), nil, noPass))
	_, err = service.LoginCustomer(context.Background(), other, "anything")
	assert.ErrorIs(t, err, ErrInvalidCredentials)
}

func TestValidateToken(t *testing.T) {
	t.Run("logout revokes the session", func(t *testing.T) {
		service, users, _, _ := newAuthFixture(t)
		user := seedStaff(t, users, RoleAdmin)

		result, err := service.LoginStaff(
			context.Background(), user.Email, "correct horse battery")
		require.NoError(t, err)

		claims, err := service.ValidateToken(context.Background(), result.Token)
		require.NoError(t, err)

		require.NoError(t, service.Logout(context.Background(), claims))

		_, err = service.ValidateToken(context.Background(), result.Token)
		assert.ErrorIs(t, err, ErrSessionRevoked)
	})

	t.Run("garbage and foreign tokens are rejected", func(t *testing.T) {
		service, _, _, _ := newAuthFixture(t)

		_, err := service.ValidateToken(context.Background(), "not-a-token")
		assert.ErrorIs(t, err, ErrInvalidToken)

		_, err = service.ValidateToken(context.Background(), "")
		assert.ErrorIs(t, err, ErrInvalidToken)
	})

	t.Run("token without a session row is rejected", func(t *testing.T) {
		service, users, sessions, _ := newAuthFixture(t)
		user := seedStaff(t, users, RoleEmployee)

		result, err := service.LoginStaff(
			context.Background(), user.Email, "correct horse battery")
		require.NoError(t, err)

		sessions.sessions = nil

		_, err = service.ValidateToken(context.Background(), result.Token)
		assert.ErrorIs(t, err, ErrInvalidToken)
	})
}

func TestCleanupExpiredSessions(t *testing.T) {
	service, users, sessions, _ := newAuthFixture(t)
	user := seedStaff(t, users, RoleEmployee)

	_, err := service.LoginStaff(context.Background(), user.Email, "correct horse battery")
	require.NoError(t, err)
	require.Len(t, sessions.sessions, 1)

	// Nothing expired yet
	deleted, err := service.CleanupExpiredSessions(context.Background())
	require.NoError(t, err)
	assert.Zero(t, deleted)

	// Jump past the TTL
	service.now = func() time.Time { return time.Now().Add(25 * time.Hour) }
	deleted, err = service.CleanupExpiredSessions(context.Background())
	require.NoError(t, err)
	assert.Equal(t, int64(1), deleted)
	assert.Empty(t, sessions.sessions)
}
