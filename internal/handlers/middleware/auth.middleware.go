package middleware

import (
	"context"
	"strings"

	"tidynest/internal/models"
	"tidynest/internal/services"

	"tidynest/internal/logger"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
)

// AuthContextKey is used to store auth info in context
type AuthContextKey string

const (
	UserKey          AuthContextKey = "user"
	UserKeyFiber     string         = "User"     // Fiber context key (string)
	CustomerKeyFiber string         = "Customer" // Fiber context key (string)
	ClaimsKeyFiber   string         = "Claims"   // Fiber context key (string)
)

// RequireStaff validates a bearer token and loads the staff account it
// belongs to. Customer portal tokens are rejected here.
func (m *Middleware) RequireStaff() fiber.Handler {
	return func(c *fiber.Ctx) error {
		log := logger.NewWithContext(c.UserContext(), "middleware").Function("RequireStaff")

		claims, err := m.validateBearer(c)
		if err != nil {
			log.Info("token validation failed", "error", err.Error())
			return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
				"error": "Invalid token",
			})
		}

		if claims.IsCustomer {
			log.Info("customer token on staff route")
			return c.Status(fiber.StatusForbidden).JSON(fiber.Map{
				"error": "Staff access required",
			})
		}

		userID, err := uuid.Parse(claims.Subject)
		if err != nil {
			return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
				"error": "Invalid token",
			})
		}

		user, err := m.userRepo.GetByID(c.UserContext(), m.DB.SQL, userID)
		if err != nil || user == nil || !user.IsActive {
			log.Info("staff account unavailable", "userID", userID)
			return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
				"error": "User not found",
			})
		}

		c.Locals(UserKeyFiber, user)
		c.Locals(ClaimsKeyFiber, claims)

		ctx := context.WithValue(c.UserContext(), UserKey, user)
		c.SetUserContext(ctx)

		return c.Next()
	}
}

// RequireRole gates a route behind a minimum staff role. Must run after
// RequireStaff.
func (m *Middleware) RequireRole(required models.Role) fiber.Handler {
	log := m.log.Function("RequireRole")

	return func(c *fiber.Ctx) error {
		user := GetUser(c)
		if user == nil {
			log.Info("user not found in context")
			return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
				"error": "Authentication required",
			})
		}

		if !user.Role.AtLeast(required) {
			log.Info("insufficient role", "userID", user.ID, "role", user.Role, "required", required)
			return c.Status(fiber.StatusForbidden).JSON(fiber.Map{
				"error": "Insufficient permissions",
			})
		}

		return c.Next()
	}
}

// RequireCustomer validates a bearer token issued through the customer
// portal and loads the customer record.
func (m *Middleware) RequireCustomer() fiber.Handler {
	return func(c *fiber.Ctx) error {
		log := logger.NewWithContext(c.UserContext(), "middleware").Function("RequireCustomer")

		claims, err := m.validateBearer(c)
		if err != nil {
			log.Info("token validation failed", "error", err.Error())
			return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
				"error": "Invalid token",
			})
		}

		if !claims.IsCustomer {
			return c.Status(fiber.StatusForbidden).JSON(fiber.Map{
				"error": "Customer access required",
			})
		}

		customerID, err := uuid.Parse(claims.Subject)
		if err != nil {
			return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
				"error": "Invalid token",
			})
		}

		customer, err := m.customerRepo.GetByID(c.UserContext(), m.DB.SQL, customerID)
		if err != nil || customer == nil {
			log.Info("customer not found", "customerID", customerID)
			return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
				"error": "Customer not found",
			})
		}

		c.Locals(CustomerKeyFiber, customer)
		c.Locals(ClaimsKeyFiber, claims)

		return c.Next()
	}
}

func (m *Middleware) validateBearer(c *fiber.Ctx) (*services.Claims, error) {
	authHeader := c.Get("Authorization")
	if authHeader == "" {
		return nil, m.log.ErrMsg("authorization header required")
	}

	tokenParts := strings.Split(authHeader, " ")
	if len(tokenParts) != 2 || strings.ToLower(tokenParts[0]) != "bearer" {
		return nil, m.log.ErrMsg("invalid authorization header format")
	}

	token := tokenParts[1]
	if token == "" {
		return nil, m.log.ErrMsg("token required")
	}

	return m.auth.ValidateToken(c.UserContext(), token)
}

// GetUser extracts the staff user from Fiber context
func GetUser(c *fiber.Ctx) *models.User {
	user, ok := c.Locals(UserKeyFiber).(*models.User)
	if !ok {
		return nil
	}
	return user
}

// GetCustomer extracts the portal customer from Fiber context
func GetCustomer(c *fiber.Ctx) *models.Customer {
	customer, ok := c.Locals(CustomerKeyFiber).(*models.Customer)
	if !ok {
		return nil
	}
	return customer
}

// GetClaims extracts the validated token claims from Fiber context
func GetClaims(c *fiber.Ctx) *services.Claims {
	claims, ok := c.Locals(ClaimsKeyFiber).(*services.Claims)
	if !ok {
		return nil
	}
	return claims
}
