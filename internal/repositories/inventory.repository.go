package repositories

import (
	"context"

	"tidynest/internal/logger"
	. "tidynest/internal/models"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type InventoryRepository interface {
	Create(ctx context.Context, tx *gorm.DB, item *InventoryItem) error
	ListActive(ctx context.Context, tx *gorm.DB) ([]*InventoryItem, error)
	ListNeedingReorder(ctx context.Context, tx *gorm.DB) ([]*InventoryItem, error)
	AdjustQuantity(ctx context.Context, tx *gorm.DB, id uuid.UUID, delta int) error
}

type inventoryRepository struct{}

func NewInventoryRepository() InventoryRepository {
	return &inventoryRepository{}
}

func (r *inventoryRepository) Create(ctx context.Context, tx *gorm.DB, item *InventoryItem) error {
	log := logger.NewWithContext(ctx, "inventoryRepository").Function("Create")

	if err := tx.WithContext(ctx).Create(item).Error; err != nil {
		return log.Err("failed to create inventory item", err, "name", item.Name)
	}

	return nil
}

func (r *inventoryRepository) ListActive(
	ctx context.Context,
	tx *gorm.DB,
) ([]*InventoryItem, error) {
	log := logger.NewWithContext(ctx, "inventoryRepository").Function("ListActive")

	var items []*InventoryItem
	err := tx.WithContext(ctx).
		Where("is_active = ?", true).
		Order("name ASC").
		Find(&items).Error
	if err != nil {
		return nil, log.Err("failed to list inventory items", err)
	}

	return items, nil
}

func (r *inventoryRepository) ListNeedingReorder(
	ctx context.Context,
	tx *gorm.DB,
) ([]*InventoryItem, error) {
	log := logger.NewWithContext(ctx, "inventoryRepository").Function("ListNeedingReorder")

	var items []*InventoryItem
	err := tx.WithContext(ctx).
		Where("is_active = ? AND quantity <= reorder_threshold", true).
		Order("name ASC").
		Find(&items).Error
	if err != nil {
		return nil, log.Err("failed to list items needing reorder", err)
	}

	return items, nil
}

func (r *inventoryRepository) AdjustQuantity(
	ctx context.Context,
	tx *gorm.DB,
	id uuid.UUID,
	delta int,
) error {
	log := logger.NewWithContext(ctx, "inventoryRepository").Function("AdjustQuantity")

	err := tx.WithContext(ctx).
		Model(&InventoryItem{}).
		Where("id = ?", id).
		Update("quantity", gorm.Expr("quantity + ?", delta)).Error
	if err != nil {
		return log.Err("failed to adjust inventory quantity", err, "itemID", id, "delta", delta)
	}

	return nil
}
