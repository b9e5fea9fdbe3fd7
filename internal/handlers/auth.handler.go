package handlers

import (
	"tidynest/internal/app"
	"tidynest/internal/handlers/middleware"
	"tidynest/internal/logger"

	authController "tidynest/internal/controllers/auth"

	"github.com/gofiber/fiber/v2"
)

type AuthHandler struct {
	Handler
	authController authController.AuthControllerInterface
}

func NewAuthHandler(app app.App, router fiber.Router) *AuthHandler {
	log := logger.New("handlers").File("auth_handler")
	return &AuthHandler{
		authController: app.Controllers.Auth,
		Handler: Handler{
			log:        log,
			router:     router,
			middleware: app.Middleware,
		},
	}
}

func (h *AuthHandler) Register() {
	auth := h.router.Group("/auth")

	// Public endpoints
	auth.Post("/login", h.loginStaff)
	auth.Post("/portal/login", h.loginCustomer)

	// Staff endpoints
	staff := auth.Group("/", h.middleware.RequireStaff())
	staff.Get("/me", h.getCurrentUser)
	staff.Post("/logout", h.logout)

	// Portal endpoints
	portal := auth.Group("/portal", h.middleware.RequireCustomer())
	portal.Get("/me", h.getCurrentCustomer)
	portal.Post("/logout", h.logout)
}

func (h *AuthHandler) loginStaff(c *fiber.Ctx) error {
	log := h.log.Function("loginStaff")

	var req authController.LoginRequest
	if err := c.BodyParser(&req); err != nil {
		log.Info("malformed login body", "error", err.Error())
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Invalid request body",
		})
	}

	result, err := h.authController.LoginStaff(c.UserContext(), req)
	if err != nil {
		return errorResponse(c, err)
	}

	return c.JSON(fiber.Map{
		"token":     result.Token,
		"expiresAt": result.ExpiresAt,
		"user":      result.User.ToProfile(),
	})
}

func (h *AuthHandler) loginCustomer(c *fiber.Ctx) error {
	log := h.log.Function("loginCustomer")

	var req authController.LoginRequest
	if err := c.BodyParser(&req); err != nil {
		log.Info("malformed login body", "error", err.Error())
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Invalid request body",
		})
	}

	result, err := h.authController.LoginCustomer(c.UserContext(), req)
	if err != nil {
		return errorResponse(c, err)
	}

	return c.JSON(fiber.Map{
		"token":     result.Token,
		"expiresAt": result.ExpiresAt,
		"customer":  result.Customer,
	})
}

func (h *AuthHandler) getCurrentUser(c *fiber.Ctx) error {
	user := middleware.GetUser(c)
	if user == nil {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
			"error": "Authentication required",
		})
	}

	return c.JSON(fiber.Map{"user": user.ToProfile()})
}

func (h *AuthHandler) getCurrentCustomer(c *fiber.Ctx) error {
	customer := middleware.GetCustomer(c)
	if customer == nil {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
			"error": "Authentication required",
		})
	}

	return c.JSON(fiber.Map{"customer": customer})
}

func (h *AuthHandler) logout(c *fiber.Ctx) error {
	log := h.log.Function("logout")

	claims := middleware.GetClaims(c)
	if claims == nil {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
			"error": "Authentication required",
		})
	}

	if err := h.authController.Logout(c.UserContext(), claims); err != nil {
		log.Er("failed to revoke session", err)
		return errorResponse(c, err)
	}

	return c.JSON(fiber.Map{"message": "Logout successful"})
}
