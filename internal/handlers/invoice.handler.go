package handlers

import (
	"tidynest/internal/app"
	"tidynest/internal/handlers/middleware"
	"tidynest/internal/logger"
	"tidynest/internal/models"

	invoiceController "tidynest/internal/controllers/invoices"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
)

// WebhookSignatureHeader carries the processor's HMAC over the raw body
const WebhookSignatureHeader = "X-Webhook-Signature"

type InvoiceHandler struct {
	Handler
	invoiceController invoiceController.InvoiceControllerInterface
}

func NewInvoiceHandler(app app.App, router fiber.Router) *InvoiceHandler {
	log := logger.New("handlers").File("invoice_handler")
	return &InvoiceHandler{
		invoiceController: app.Controllers.Invoice,
		Handler: Handler{
			log:        log,
			router:     router,
			middleware: app.Middleware,
		},
	}
}

func (h *InvoiceHandler) Register() {
	// Processor webhook. Authenticated by signature, not by token.
	h.router.Post("/webhooks/payments", h.handleWebhook)

	// Staff endpoints
	invoices := h.router.Group("/invoices", h.middleware.RequireStaff())
	invoices.Post("/", h.create)
	invoices.Get("/:id", h.get)
	invoices.Post("/:id/send", h.send)
	invoices.Post("/:id/payments", h.recordPayment)

	// Refunds move money back out, so they need the admin role
	payments := h.router.Group(
		"/payments",
		h.middleware.RequireStaff(),
		h.middleware.RequireRole(models.RoleAdmin),
	)
	payments.Post("/:id/refund", h.refund)

	// Customer portal
	portal := h.router.Group("/portal", h.middleware.RequireCustomer())
	portal.Get("/invoices", h.listOwn)
	portal.Post("/invoices/:id/checkout", h.checkout)
}

func (h *InvoiceHandler) create(c *fiber.Ctx) error {
	log := h.log.Function("create")

	var req invoiceController.CreateInvoiceRequest
	if err := c.BodyParser(&req); err != nil {
		log.Info("malformed invoice body", "error", err.Error())
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Invalid request body",
		})
	}

	invoice, err := h.invoiceController.Create(c.UserContext(), req)
	if err != nil {
		return errorResponse(c, err)
	}

	return c.Status(fiber.StatusCreated).JSON(fiber.Map{"invoice": invoice})
}

func (h *InvoiceHandler) get(c *fiber.Ctx) error {
	invoiceID, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Invalid invoice id",
		})
	}

	invoice, err := h.invoiceController.Get(c.UserContext(), invoiceID)
	if err != nil {
		return errorResponse(c, err)
	}
	if invoice == nil {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
			"error": "Invoice not found",
		})
	}

	return c.JSON(fiber.Map{"invoice": invoice})
}

func (h *InvoiceHandler) send(c *fiber.Ctx) error {
	invoiceID, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Invalid invoice id",
		})
	}

	if err := h.invoiceController.Send(c.UserContext(), invoiceID); err != nil {
		return errorResponse(c, err)
	}

	return c.JSON(fiber.Map{"message": "Invoice sent"})
}

func (h *InvoiceHandler) recordPayment(c *fiber.Ctx) error {
	log := h.log.Function("recordPayment")

	invoiceID, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Invalid invoice id",
		})
	}

	var req invoiceController.RecordPaymentRequest
	if err := c.BodyParser(&req); err != nil {
		log.Info("malformed payment body", "error", err.Error())
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Invalid request body",
		})
	}

	invoice, err := h.invoiceController.RecordPayment(c.UserContext(), invoiceID, req)
	if err != nil {
		return errorResponse(c, err)
	}

	return c.JSON(fiber.Map{"invoice": invoice})
}

func (h *InvoiceHandler) refund(c *fiber.Ctx) error {
	paymentID, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Invalid payment id",
		})
	}

	if err := h.invoiceController.Refund(c.UserContext(), paymentID); err != nil {
		return errorResponse(c, err)
	}

	return c.JSON(fiber.Map{"message": "Payment refunded"})
}

func (h *InvoiceHandler) listOwn(c *fiber.Ctx) error {
	customer := middleware.GetCustomer(c)
	if customer == nil {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
			"error": "Authentication required",
		})
	}

	invoices, err := h.invoiceController.ListForCustomer(c.UserContext(), customer.ID)
	if err != nil {
		return errorResponse(c, err)
	}

	return c.JSON(fiber.Map{"invoices": invoices})
}

func (h *InvoiceHandler) checkout(c *fiber.Ctx) error {
	customer := middleware.GetCustomer(c)
	if customer == nil {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
			"error": "Authentication required",
		})
	}

	invoiceID, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Invalid invoice id",
		})
	}

	invoice, err := h.invoiceController.Get(c.UserContext(), invoiceID)
	if err != nil {
		return errorResponse(c, err)
	}
	if invoice == nil || invoice.CustomerID != customer.ID {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
			"error": "Invoice not found",
		})
	}

	session, err := h.invoiceController.Checkout(c.UserContext(), invoiceID)
	if err != nil {
		return errorResponse(c, err)
	}

	return c.JSON(fiber.Map{"checkout": session})
}

// handleWebhook accepts processor deliveries. Anything past signature
// verification returns 200 so the processor stops retrying; redeliveries
// are no-ops inside the reconciliation engine.
func (h *InvoiceHandler) handleWebhook(c *fiber.Ctx) error {
	log := h.log.Function("handleWebhook")

	signature := c.Get(WebhookSignatureHeader)
	if signature == "" {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Missing signature header",
		})
	}

	if err := h.invoiceController.HandleWebhook(c.UserContext(), c.Body(), signature); err != nil {
		log.Er("webhook processing failed", err)
		return errorResponse(c, err)
	}

	return c.JSON(fiber.Map{"received": true})
}
