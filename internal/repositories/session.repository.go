package repositories

import (
	"context"
	"errors"
	"time"

	"tidynest/internal/logger"
	. "tidynest/internal/models"

	"gorm.io/gorm"
)

type SessionRepository interface {
	Create(ctx context.Context, tx *gorm.DB, session *Session) error
	GetByTokenID(ctx context.Context, tx *gorm.DB, tokenID string) (*Session, error)
	Revoke(ctx context.Context, tx *gorm.DB, tokenID string, at time.Time) error
	DeleteExpired(ctx context.Context, tx *gorm.DB, now time.Time) (int64, error)
}

type sessionRepository struct{}

func NewSessionRepository() SessionRepository {
	return &sessionRepository{}
}

func (r *sessionRepository) Create(ctx context.Context, tx *gorm.DB, session *Session) error {
	log := logger.NewWithContext(ctx, "sessionRepository").Function("Create")

	if err := tx.WithContext(ctx).Create(session).Error; err != nil {
		return log.Err("failed to create session", err, "tokenID", session.TokenID)
	}

	return nil
}

func (r *sessionRepository) GetByTokenID(
	ctx context.Context,
	tx *gorm.DB,
	tokenID string,
) (*Session, error) {
	log := logger.NewWithContext(ctx, "sessionRepository").Function("GetByTokenID")

	var session Session
	err := tx.WithContext(ctx).First(&session, "token_id = ?", tokenID).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, log.Err("failed to get session", err, "tokenID", tokenID)
	}

	return &session, nil
}

func (r *sessionRepository) Revoke(
	ctx context.Context,
	tx *gorm.DB,
	tokenID string,
	at time.Time,
) error {
	log := logger.NewWithContext(ctx, "sessionRepository").Function("Revoke")

	err := tx.WithContext(ctx).
		Model(&Session{}).
		Where("token_id = ? AND revoked_at IS NULL", tokenID).
		Update("revoked_at", at).Error
	if err != nil {
		return log.Err("failed to revoke session", err, "tokenID", tokenID)
	}

	return nil
}

func (r *sessionRepository) DeleteExpired(
	ctx context.Context,
	tx *gorm.DB,
	now time.Time,
) (int64, error) {
	log := logger.NewWithContext(ctx, "sessionRepository").Function("DeleteExpired")

	result := tx.WithContext(ctx).
		Unscoped().
		Where("expires_at < ?", now).
		Delete(&Session{})
	if result.Error != nil {
		return 0, log.Err("failed to delete expired sessions", result.Error)
	}

	return result.RowsAffected, nil
}
