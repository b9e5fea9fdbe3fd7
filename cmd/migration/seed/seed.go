package seed

import (
	"time"

	"tidynest/config"
	"tidynest/internal/logger"
	. "tidynest/internal/models"
	"tidynest/internal/utils"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

func stringPtr(s string) *string {
	return &s
}

// Seed loads development data: staff logins, a few customers, a recurring
// template and a booking history to exercise the dashboard.
func Seed(db *gorm.DB, config config.Config, log logger.Logger) error {
	log = log.Function("Seed")
	log.Info("Seeding development data")

	if err := seedStaff(db, log); err != nil {
		return err
	}

	customers, err := seedCustomers(db, log)
	if err != nil {
		return err
	}

	return seedBookings(db, customers, log)
}

func seedStaff(db *gorm.DB, log logger.Logger) error {
	users := []User{
		{
			FirstName: "Marta",
			LastName:  "Okafor",
			Email:     "marta@example.com",
			Role:      RoleAdmin,
			IsActive:  true,
		},
		{
			FirstName: "Gene",
			LastName:  "Halvorsen",
			Email:     "gene@example.com",
			Role:      RoleManager,
			IsActive:  true,
		},
		{
			FirstName: "Priya",
			LastName:  "Raman",
			Email:     "priya@example.com",
			Role:      RoleEmployee,
			IsActive:  true,
		},
	}

	for _, user := range users {
		var existing User
		if err := db.First(&existing, "email = ?", user.Email).Error; err == nil {
			log.Debug("Staff user already exists", "email", user.Email)
			continue
		}
		if err := user.SetPassword("password"); err != nil {
			return log.Err("failed to hash staff password", err)
		}
		log.Info("Seeding staff user", "email", user.Email, "role", user.Role)
		if err := db.Create(&user).Error; err != nil {
			return log.Err("failed to create staff user", err, "email", user.Email)
		}
	}

	return nil
}

func seedCustomers(db *gorm.DB, log logger.Logger) ([]Customer, error) {
	portalHash := mustHash("password")

	customers := []Customer{
		{
			FirstName:    "Nora",
			LastName:     "Beasley",
			Email:        stringPtr("nora.beasley@example.com"),
			Phone:        "555-0134",
			AddressLine:  "18 Foxglove Ln",
			City:         "Madison",
			State:        "WI",
			ZipCode:      "53703",
			PasswordHash: &portalHash,
			IsActive:     true,
		},
		{
			FirstName:   "Theo",
			LastName:    "Marsh",
			Email:       stringPtr("theo.marsh@example.com"),
			Phone:       "555-0177",
			AddressLine: "402 Calumet Ave",
			City:        "Madison",
			State:       "WI",
			ZipCode:     "53711",
			IsActive:    true,
		},
	}

	seeded := make([]Customer, 0, len(customers))
	for _, customer := range customers {
		var existing Customer
		if err := db.First(&existing, "email = ?", *customer.Email).Error; err == nil {
			log.Debug("Customer already exists", "email", *customer.Email)
			seeded = append(seeded, existing)
			continue
		}
		log.Info("Seeding customer", "email", *customer.Email)
		if err := db.Create(&customer).Error; err != nil {
			return nil, log.Err("failed to create customer", err, "email", *customer.Email)
		}
		seeded = append(seeded, customer)
	}

	return seeded, nil
}

func seedBookings(db *gorm.DB, customers []Customer, log logger.Logger) error {
	if len(customers) == 0 {
		return nil
	}

	var service Service
	if err := db.First(&service, "name = ?", "Standard Clean").Error; err != nil {
		return log.Err("service catalog is empty, run migrations first", err)
	}

	var count int64
	if err := db.Model(&Booking{}).Count(&count).Error; err != nil {
		return log.Err("failed to count bookings", err)
	}
	if count > 0 {
		log.Debug("Bookings already seeded")
		return nil
	}

	customer := customers[0]
	nextWeek := utils.DateOnly(time.Now().AddDate(0, 0, 7))

	template := RecurringTemplate{
		CustomerID:    customer.ID,
		ServiceID:     service.ID,
		Frequency:     FrequencyBiweekly,
		PreferredTime: "09:00",
		AddressLine:   customer.AddressLine,
		City:          customer.City,
		State:         customer.State,
		ZipCode:       customer.ZipCode,
		Bedrooms:      3,
		Bathrooms:     2,
		SquareFeet:    1650,
		BasePrice:     service.BasePrice,
		IsActive:      true,
		NextDate:      &nextWeek,
	}
	if err := db.Create(&template).Error; err != nil {
		return log.Err("failed to create recurring template", err)
	}

	booking := Booking{
		CustomerID:    customer.ID,
		ServiceID:     service.ID,
		ScheduledDate: utils.DateOnly(time.Now().AddDate(0, 0, 2)),
		TimeSlot:      "09:00",
		AddressLine:   customer.AddressLine,
		City:          customer.City,
		State:         customer.State,
		ZipCode:       customer.ZipCode,
		Bedrooms:      3,
		Bathrooms:     2,
		SquareFeet:    1650,
		BasePrice:     service.BasePrice,
		AddonsPrice:   decimal.Zero,
		TaxAmount:     decimal.Zero,
		TotalPrice:    service.BasePrice,
		Status:        BookingStatusConfirmed,
	}
	if err := db.Create(&booking).Error; err != nil {
		return log.Err("failed to create booking", err)
	}

	log.Info("Seeded booking data", "customer", customer.FullName)
	return nil
}

func mustHash(plain string) string {
	var user User
	if err := user.SetPassword(plain); err != nil {
		panic(err)
	}
	return user.PasswordHash
}
