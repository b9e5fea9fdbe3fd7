package handlers

import (
	"errors"

	"tidynest/internal/app"
	"tidynest/internal/handlers/middleware"
	"tidynest/internal/logger"
	"tidynest/internal/models"
	"tidynest/internal/services"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/websocket/v2"
)

type Handler struct {
	middleware middleware.Middleware
	log        logger.Logger
	router     fiber.Router
}

func Router(router fiber.Router, app *app.App) (err error) {
	setupWebSocketRoute(router, app)

	api := router.Group("/api")
	api.Use(app.Middleware.TraceID())

	HealthHandler(api, app.Config)
	NewAuthHandler(*app, api).Register()
	NewBookingHandler(*app, api).Register()
	NewInvoiceHandler(*app, api).Register()
	NewAdminHandler(*app, api).Register()

	return nil
}

func setupWebSocketRoute(router fiber.Router, app *app.App) {
	router.Use("/ws", func(c *fiber.Ctx) error {
		if websocket.IsWebSocketUpgrade(c) {
			c.Locals("allowed", true)
			return c.Next()
		}
		return fiber.ErrUpgradeRequired
	})
	router.Get("/ws", websocket.New(func(c *websocket.Conn) {
		app.Websocket.HandleWebSocket(c)
	}))
}

// statusForError maps domain errors onto HTTP statuses so handlers stay
// uniform about it.
func statusForError(err error) int {
	switch {
	case errors.Is(err, services.ErrInvalidCredentials),
		errors.Is(err, services.ErrInvalidToken),
		errors.Is(err, services.ErrSessionRevoked):
		return fiber.StatusUnauthorized
	case errors.Is(err, services.ErrAccountInactive):
		return fiber.StatusForbidden
	case errors.Is(err, services.ErrSlotTaken):
		return fiber.StatusConflict
	case errors.Is(err, services.ErrServiceInactive),
		errors.Is(err, services.ErrInvalidPaymentMethod),
		errors.Is(err, services.ErrBookingNotCompleted),
		errors.Is(err, models.ErrInvalidTransition),
		errors.Is(err, models.ErrCancellationReason),
		errors.Is(err, models.ErrNonPositivePayment),
		errors.Is(err, models.ErrOverpayment),
		errors.Is(err, models.ErrInvoiceTerminal):
		return fiber.StatusUnprocessableEntity
	case errors.Is(err, services.ErrInvalidWebhookSignature):
		return fiber.StatusBadRequest
	default:
		return fiber.StatusInternalServerError
	}
}

func errorResponse(c *fiber.Ctx, err error) error {
	return c.Status(statusForError(err)).JSON(fiber.Map{
		"error": err.Error(),
	})
}
