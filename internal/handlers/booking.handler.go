package handlers

import (
	"errors"
	"time"

	"tidynest/internal/app"
	"tidynest/internal/handlers/middleware"
	"tidynest/internal/logger"
	"tidynest/internal/services"

	bookingController "tidynest/internal/controllers/bookings"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
)

const dateParamLayout = "2006-01-02"

type BookingHandler struct {
	Handler
	bookingController bookingController.BookingControllerInterface
}

func NewBookingHandler(app app.App, router fiber.Router) *BookingHandler {
	log := logger.New("handlers").File("booking_handler")
	return &BookingHandler{
		bookingController: app.Controllers.Booking,
		Handler: Handler{
			log:        log,
			router:     router,
			middleware: app.Middleware,
		},
	}
}

func (h *BookingHandler) Register() {
	// Public booking form endpoints
	h.router.Get("/services", h.listServices)

	bookings := h.router.Group("/bookings")
	bookings.Post("/", h.submit)
	bookings.Get("/availability", h.availability)

	// Staff endpoints
	staff := bookings.Group("/", h.middleware.RequireStaff())
	staff.Get("/schedule", h.schedule)
	staff.Patch("/:id/status", h.updateStatus)

	// Customer portal
	portal := h.router.Group("/portal", h.middleware.RequireCustomer())
	portal.Get("/bookings", h.listOwn)
}

func (h *BookingHandler) listServices(c *fiber.Ctx) error {
	services, err := h.bookingController.ActiveServices(c.UserContext())
	if err != nil {
		return errorResponse(c, err)
	}

	return c.JSON(fiber.Map{"services": services})
}

func (h *BookingHandler) submit(c *fiber.Ctx) error {
	log := h.log.Function("submit")

	var submission services.BookingSubmission
	if err := c.BodyParser(&submission); err != nil {
		log.Info("malformed booking body", "error", err.Error())
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Invalid request body",
		})
	}

	booking, err := h.bookingController.Submit(c.UserContext(), submission)
	if err != nil {
		return errorResponse(c, err)
	}

	return c.Status(fiber.StatusCreated).JSON(fiber.Map{"booking": booking})
}

func (h *BookingHandler) availability(c *fiber.Ctx) error {
	date, err := parseDateQuery(c)
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "date query parameter must be YYYY-MM-DD",
		})
	}

	slots, err := h.bookingController.Availability(c.UserContext(), date)
	if err != nil {
		return errorResponse(c, err)
	}

	return c.JSON(fiber.Map{
		"date":  date.Format(dateParamLayout),
		"slots": slots,
	})
}

func (h *BookingHandler) schedule(c *fiber.Ctx) error {
	date, err := parseDateQuery(c)
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "date query parameter must be YYYY-MM-DD",
		})
	}

	bookings, err := h.bookingController.Schedule(c.UserContext(), date)
	if err != nil {
		return errorResponse(c, err)
	}

	return c.JSON(fiber.Map{
		"date":     date.Format(dateParamLayout),
		"bookings": bookings,
	})
}

func (h *BookingHandler) updateStatus(c *fiber.Ctx) error {
	log := h.log.Function("updateStatus")

	bookingID, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Invalid booking id",
		})
	}

	var req bookingController.StatusUpdateRequest
	if err := c.BodyParser(&req); err != nil {
		log.Info("malformed status body", "error", err.Error())
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Invalid request body",
		})
	}

	booking, err := h.bookingController.UpdateStatus(c.UserContext(), bookingID, req)
	if err != nil {
		return errorResponse(c, err)
	}

	return c.JSON(fiber.Map{"booking": booking})
}

func (h *BookingHandler) listOwn(c *fiber.Ctx) error {
	customer := middleware.GetCustomer(c)
	if customer == nil {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
			"error": "Authentication required",
		})
	}

	bookings, err := h.bookingController.ListForCustomer(c.UserContext(), customer.ID)
	if err != nil {
		return errorResponse(c, err)
	}

	return c.JSON(fiber.Map{"bookings": bookings})
}

var errMissingDate = errors.New("date query parameter required")

func parseDateQuery(c *fiber.Ctx) (time.Time, error) {
	raw := c.Query("date")
	if raw == "" {
		return time.Time{}, errMissingDate
	}
	return time.Parse(dateParamLayout, raw)
}
