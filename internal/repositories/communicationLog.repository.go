package repositories

import (
	"context"

	"tidynest/internal/logger"
	. "tidynest/internal/models"

	"gorm.io/gorm"
)

type CommunicationLogRepository interface {
	Create(ctx context.Context, tx *gorm.DB, entry *CommunicationLog) error
	ListFailed(ctx context.Context, tx *gorm.DB, limit int) ([]*CommunicationLog, error)
}

type communicationLogRepository struct{}

func NewCommunicationLogRepository() CommunicationLogRepository {
	return &communicationLogRepository{}
}

func (r *communicationLogRepository) Create(
	ctx context.Context,
	tx *gorm.DB,
	entry *CommunicationLog,
) error {
	log := logger.NewWithContext(ctx, "communicationLogRepository").Function("Create")

	if err := tx.WithContext(ctx).Create(entry).Error; err != nil {
		return log.Err("failed to create communication log entry", err,
			"type", entry.Type, "recipient", entry.Recipient)
	}

	return nil
}

// ListFailed surfaces unsent communications for manual follow-up
func (r *communicationLogRepository) ListFailed(
	ctx context.Context,
	tx *gorm.DB,
	limit int,
) ([]*CommunicationLog, error) {
	log := logger.NewWithContext(ctx, "communicationLogRepository").Function("ListFailed")

	var entries []*CommunicationLog
	err := tx.WithContext(ctx).
		Where("status = ?", CommunicationStatusFailed).
		Order("created_at DESC").
		Limit(limit).
		Find(&entries).Error
	if err != nil {
		return nil, log.Err("failed to list failed communications", err)
	}

	return entries, nil
}
