package database

import (
	"tidynest/internal/logger"
	"tidynest/internal/models"
)

// MigrateModels runs GORM AutoMigrate for all models
func (db *DB) MigrateModels() error {
	log := logger.New("database").Function("MigrateModels")
	log.Info("Starting database migration")

	modelsToMigrate := []interface{}{
		&models.User{},
		&models.Customer{},
		&models.Service{},
		&models.Booking{},
		&models.RecurringTemplate{},
		&models.Invoice{},
		&models.InvoiceLineItem{},
		&models.Payment{},
		&models.CommunicationLog{},
		&models.InventoryItem{},
		&models.Session{},
	}

	for _, model := range modelsToMigrate {
		if err := db.SQL.AutoMigrate(model); err != nil {
			return log.Err("failed to migrate model", err, "model", model)
		}
	}

	log.Info("Database migration completed successfully")
	return nil
}

// CreateIndexes creates additional indexes that GORM doesn't create automatically
func (db *DB) CreateIndexes() error {
	log := logger.New("database").Function("CreateIndexes")
	log.Info("Creating additional database indexes")

	indexes := []string{
		// One occurrence per template per calendar date
		"CREATE UNIQUE INDEX IF NOT EXISTS idx_bookings_template_date ON bookings(recurring_template_id, scheduled_date) WHERE recurring_template_id IS NOT NULL",
		"CREATE INDEX IF NOT EXISTS idx_bookings_date_status ON bookings(scheduled_date, status)",
		"CREATE INDEX IF NOT EXISTS idx_invoices_status_due ON invoices(status, due_date)",
		"CREATE INDEX IF NOT EXISTS idx_recurring_templates_active_next ON recurring_templates(is_active, next_date)",
		"CREATE INDEX IF NOT EXISTS idx_sessions_expires_at ON sessions(expires_at)",
	}

	for _, indexSQL := range indexes {
		if err := db.SQL.Exec(indexSQL).Error; err != nil {
			log.Warn("Failed to create index", "sql", indexSQL, "error", err)
			// Continue with other indexes even if one fails
		}
	}

	log.Info("Additional database indexes created")
	return nil
}
