package app

import (
	"context"

	"tidynest/config"
	"tidynest/internal/controllers"
	"tidynest/internal/database"
	"tidynest/internal/events"
	"tidynest/internal/handlers/middleware"
	"tidynest/internal/jobs"
	"tidynest/internal/logger"
	"tidynest/internal/repositories"
	"tidynest/internal/services"
	"tidynest/internal/websockets"
)

type App struct {
	Database   database.DB
	Middleware middleware.Middleware
	Websocket  *websockets.Manager
	EventBus   *events.EventBus
	Config     config.Config

	Services    services.Services
	Repos       repositories.Repository
	Controllers controllers.Controllers
}

func New() (*App, error) {
	log := logger.New("app").Function("New")

	config, err := config.New()
	if err != nil {
		return &App{}, log.Err("failed to initialize config", err)
	}

	db, err := database.New(config)
	if err != nil {
		return &App{}, log.Err("failed to create database", err)
	}

	eventBus := events.New(db.Cache.Events, config)

	service, err := services.New(db, config, eventBus)
	if err != nil {
		return &App{}, log.Err("failed to create services", err)
	}

	repos := repositories.New(db)

	websocket, err := websockets.New(eventBus, service.Auth, config)
	if err != nil {
		return &App{}, log.Err("failed to create websocket manager", err)
	}

	middleware := middleware.New(db, eventBus, config, repos, service.Auth)
	controllers := controllers.New(service, repos, eventBus, config, db)

	if config.SchedulerEnabled {
		if err := registerJobs(service); err != nil {
			return &App{}, log.Err("failed to register scheduled jobs", err)
		}
		if err := service.Scheduler.Start(context.Background()); err != nil {
			return &App{}, log.Err("failed to start scheduler", err)
		}
		log.Info("Scheduler started")
	}

	app := &App{
		Database:    db,
		Config:      config,
		Middleware:  middleware,
		Websocket:   websocket,
		EventBus:    eventBus,
		Services:    service,
		Repos:       repos,
		Controllers: controllers,
	}

	if err := app.validate(); err != nil {
		return &App{}, log.Err("failed to validate app", err)
	}

	return app, nil
}

func registerJobs(service services.Services) error {
	jobList := []services.Job{
		jobs.NewReminderJob(service.Notification),
		jobs.NewRecurringGenerationJob(service.Recurring),
		jobs.NewOverdueSweepJob(service.Reconciliation),
		jobs.NewSessionCleanupJob(service.Auth),
		jobs.NewInventoryReportJob(service.Notification),
	}

	for _, job := range jobList {
		if err := service.Scheduler.AddJob(job); err != nil {
			return err
		}
	}

	return nil
}

func (a *App) validate() error {
	log := logger.New("app").Function("validate")
	if a.Database.SQL == nil {
		return log.ErrMsg("database is nil")
	}

	if a.Config == (config.Config{}) {
		return log.ErrMsg("config is nil")
	}

	nilChecks := []any{
		a.Websocket,
		a.EventBus,
		a.Services.Transaction,
		a.Services.Auth,
		a.Services.Booking,
		a.Services.Recurring,
		a.Services.Reconciliation,
		a.Services.Notification,
		a.Services.Scheduler,
		a.Controllers.Auth,
		a.Controllers.Booking,
		a.Controllers.Invoice,
	}

	for _, check := range nilChecks {
		if check == nil {
			return log.ErrMsg("nil check failed")
		}
	}

	return nil
}

func (a *App) Close() (err error) {
	if a.EventBus != nil {
		if closeErr := a.EventBus.Close(); closeErr != nil {
			err = closeErr
		}
	}

	if a.Services.Scheduler != nil {
		if closeErr := a.Services.Scheduler.Stop(context.Background()); closeErr != nil {
			err = closeErr
		}
	}

	if dbErr := a.Database.Close(); dbErr != nil {
		err = dbErr
	}

	return err
}
