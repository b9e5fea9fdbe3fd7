package initialize

import (
	"os"

	"tidynest/config"
	"tidynest/internal/logger"
	. "tidynest/internal/models"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// InitializeTables inserts the data production needs before the first
// request: the service catalog, the supply list and an initial admin. All
// inserts are idempotent.
func InitializeTables(db *gorm.DB, config config.Config, log logger.Logger) error {
	log = log.Function("InitializeTables")
	log.Info("Initializing essential production data")

	if err := initializeServices(db, log); err != nil {
		return log.Err("failed to initialize service catalog", err)
	}

	if err := initializeInventory(db, log); err != nil {
		return log.Err("failed to initialize inventory", err)
	}

	if err := initializeAdmin(db, log); err != nil {
		return log.Err("failed to initialize admin account", err)
	}

	log.Info("Table initialization complete")
	return nil
}

func initializeServices(db *gorm.DB, log logger.Logger) error {
	log.Info("Initializing service catalog")

	services := []Service{
		{
			Name:            "Standard Clean",
			Description:     "Routine cleaning of all living areas, kitchen and bathrooms",
			BasePrice:       decimal.NewFromInt(120),
			DurationMinutes: 120,
			IsActive:        true,
		},
		{
			Name:            "Deep Clean",
			Description:     "Detailed cleaning including baseboards, appliances and fixtures",
			BasePrice:       decimal.NewFromInt(220),
			DurationMinutes: 240,
			IsActive:        true,
		},
		{
			Name:            "Move-Out Clean",
			Description:     "Full-property clean for end of lease, including inside cabinets",
			BasePrice:       decimal.NewFromInt(320),
			DurationMinutes: 300,
			IsActive:        true,
		},
	}

	for _, service := range services {
		var existing Service
		if err := db.First(&existing, "name = ?", service.Name).Error; err == nil {
			log.Debug("Service already exists", "name", service.Name)
			continue
		}
		log.Info("Initializing service", "name", service.Name)
		if err := db.Create(&service).Error; err != nil {
			return log.Err("failed to create service", err, "name", service.Name)
		}
	}

	return nil
}

func initializeInventory(db *gorm.DB, log logger.Logger) error {
	log.Info("Initializing supply inventory")

	items := []InventoryItem{
		{Name: "All-purpose cleaner", Unit: "bottle", Quantity: 24, ReorderThreshold: 6},
		{Name: "Glass cleaner", Unit: "bottle", Quantity: 12, ReorderThreshold: 4},
		{Name: "Microfiber cloths", Unit: "pack", Quantity: 30, ReorderThreshold: 10},
		{Name: "Vacuum bags", Unit: "box", Quantity: 8, ReorderThreshold: 3},
		{Name: "Disinfectant wipes", Unit: "canister", Quantity: 18, ReorderThreshold: 6},
	}

	for _, item := range items {
		item.IsActive = true
		var existing InventoryItem
		if err := db.First(&existing, "name = ?", item.Name).Error; err == nil {
			log.Debug("Inventory item already exists", "name", item.Name)
			continue
		}
		if err := db.Create(&item).Error; err != nil {
			return log.Err("failed to create inventory item", err, "name", item.Name)
		}
	}

	return nil
}

// initializeAdmin creates the first staff login. The password comes from the
// environment so it never lands in source control; without it the step is
// skipped.
func initializeAdmin(db *gorm.DB, log logger.Logger) error {
	var existing User
	if err := db.First(&existing, "role = ?", RoleAdmin).Error; err == nil {
		log.Debug("Admin account already exists", "email", existing.Email)
		return nil
	}

	password := os.Getenv("INITIAL_ADMIN_PASSWORD")
	if password == "" {
		log.Warn("INITIAL_ADMIN_PASSWORD not set, skipping admin creation")
		return nil
	}

	email := os.Getenv("INITIAL_ADMIN_EMAIL")
	if email == "" {
		email = "admin@tidynest.local"
	}

	admin := User{
		FirstName: "Admin",
		LastName:  "User",
		Email:     email,
		Role:      RoleAdmin,
		IsActive:  true,
	}
	if err := admin.SetPassword(password); err != nil {
		return log.Err("failed to hash admin password", err)
	}

	log.Info("Creating initial admin account", "email", email)
	return db.Create(&admin).Error
}
