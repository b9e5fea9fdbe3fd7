package middleware

import (
	"tidynest/config"
	"tidynest/internal/database"
	"tidynest/internal/events"
	"tidynest/internal/logger"
	"tidynest/internal/repositories"
	"tidynest/internal/services"
)

type Middleware struct {
	DB           database.DB
	auth         *services.AuthService
	userRepo     repositories.UserRepository
	customerRepo repositories.CustomerRepository
	Config       config.Config
	log          logger.Logger
	eventBus     *events.EventBus
}

func New(
	db database.DB,
	eventBus *events.EventBus,
	config config.Config,
	repos repositories.Repository,
	auth *services.AuthService,
) Middleware {
	log := logger.New("middleware")

	return Middleware{
		DB:           db,
		auth:         auth,
		userRepo:     repos.User,
		customerRepo: repos.Customer,
		Config:       config,
		log:          log,
		eventBus:     eventBus,
	}
}
