package repositories

import (
	"context"
	"errors"
	"time"

	"tidynest/internal/logger"
	. "tidynest/internal/models"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type UserRepository interface {
	Create(ctx context.Context, tx *gorm.DB, user *User) error
	GetByID(ctx context.Context, tx *gorm.DB, id uuid.UUID) (*User, error)
	GetByEmail(ctx context.Context, tx *gorm.DB, email string) (*User, error)
	ListAdmins(ctx context.Context, tx *gorm.DB) ([]*User, error)
	UpdateLastLogin(ctx context.Context, tx *gorm.DB, id uuid.UUID, at time.Time) error
}

type userRepository struct{}

func NewUserRepository() UserRepository {
	return &userRepository{}
}

func (r *userRepository) Create(ctx context.Context, tx *gorm.DB, user *User) error {
	log := logger.NewWithContext(ctx, "userRepository").Function("Create")

	if err := tx.WithContext(ctx).Create(user).Error; err != nil {
		return log.Err("failed to create user", err, "email", user.Email)
	}

	return nil
}

func (r *userRepository) GetByID(ctx context.Context, tx *gorm.DB, id uuid.UUID) (*User, error) {
	log := logger.NewWithContext(ctx, "userRepository").Function("GetByID")

	var user User
	if err := tx.WithContext(ctx).First(&user, "id = ?", id).Error; err != nil {
		return nil, log.Err("failed to get user", err, "userID", id)
	}

	return &user, nil
}

func (r *userRepository) GetByEmail(
	ctx context.Context,
	tx *gorm.DB,
	email string,
) (*User, error) {
	log := logger.NewWithContext(ctx, "userRepository").Function("GetByEmail")

	var user User
	err := tx.WithContext(ctx).First(&user, "email = ?", email).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, log.Err("failed to get user by email", err, "email", email)
	}

	return &user, nil
}

func (r *userRepository) ListAdmins(ctx context.Context, tx *gorm.DB) ([]*User, error) {
	log := logger.NewWithContext(ctx, "userRepository").Function("ListAdmins")

	var users []*User
	err := tx.WithContext(ctx).
		Where("role = ? AND is_active = ?", RoleAdmin, true).
		Find(&users).Error
	if err != nil {
		return nil, log.Err("failed to list admins", err)
	}

	return users, nil
}

func (r *userRepository) UpdateLastLogin(
	ctx context.Context,
	tx *gorm.DB,
	id uuid.UUID,
	at time.Time,
) error {
	log := logger.NewWithContext(ctx, "userRepository").Function("UpdateLastLogin")

	err := tx.WithContext(ctx).
		Model(&User{}).
		Where("id = ?", id).
		Update("last_login_at", at).Error
	if err != nil {
		return log.Err("failed to update last login", err, "userID", id)
	}

	return nil
}
