package handlers

import (
	"tidynest/internal/app"
	"tidynest/internal/logger"
	"tidynest/internal/models"
	"tidynest/internal/services"

	"github.com/gofiber/fiber/v2"
)

type AdminHandler struct {
	Handler
	scheduler *services.SchedulerService
}

func NewAdminHandler(app app.App, router fiber.Router) *AdminHandler {
	log := logger.New("handlers").File("admin_handler")
	return &AdminHandler{
		scheduler: app.Services.Scheduler,
		Handler: Handler{
			log:        log,
			router:     router,
			middleware: app.Middleware,
		},
	}
}

func (h *AdminHandler) Register() {
	admin := h.router.Group(
		"/admin",
		h.middleware.RequireStaff(),
		h.middleware.RequireRole(models.RoleAdmin),
	)

	admin.Get("/jobs", h.listJobs)
	admin.Post("/jobs/:name/trigger", h.triggerJob)
}

func (h *AdminHandler) listJobs(c *fiber.Ctx) error {
	return c.JSON(fiber.Map{
		"running": h.scheduler.IsRunning(),
		"jobs":    h.scheduler.Jobs(),
	})
}

func (h *AdminHandler) triggerJob(c *fiber.Ctx) error {
	log := h.log.Function("triggerJob")

	jobName := c.Params("name")
	if err := h.scheduler.TriggerJobByName(c.UserContext(), jobName); err != nil {
		log.Info("job trigger rejected", "job", jobName, "error", err.Error())
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
			"error": "Unknown job",
		})
	}

	return c.Status(fiber.StatusAccepted).JSON(fiber.Map{
		"message": "Job triggered",
		"job":     jobName,
	})
}
