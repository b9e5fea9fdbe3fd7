package models

// InventoryItem tracks cleaning supplies. The weekly inventory job reports
// items at or below their reorder threshold.
type InventoryItem struct {
	BaseUUIDModel
	Name             string `gorm:"type:text;uniqueIndex"  json:"name"`
	Unit             string `gorm:"type:text"              json:"unit"`
	Quantity         int    `gorm:"type:int;default:0"     json:"quantity"`
	ReorderThreshold int    `gorm:"type:int;default:0"     json:"reorderThreshold"`
	IsActive         bool   `gorm:"type:bool;default:true" json:"isActive"`
}

func (i *InventoryItem) NeedsReorder() bool {
	return i.IsActive && i.Quantity <= i.ReorderThreshold
}
