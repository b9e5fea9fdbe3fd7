package authController

import (
	"context"

	"tidynest/config"
	"tidynest/internal/logger"
	"tidynest/internal/services"

	"github.com/go-playground/validator/v10"
)

type LoginRequest struct {
	Email    string `json:"email"    validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

type AuthController struct {
	authService *services.AuthService
	Config      config.Config
	validate    *validator.Validate
	log         logger.Logger
}

type AuthControllerInterface interface {
	LoginStaff(ctx context.Context, req LoginRequest) (*services.AuthResult, error)
	LoginCustomer(ctx context.Context, req LoginRequest) (*services.AuthResult, error)
	Logout(ctx context.Context, claims *services.Claims) error
}

func New(services services.Services, config config.Config) AuthControllerInterface {
	return &AuthController{
		authService: services.Auth,
		Config:      config,
		validate:    validator.New(),
		log:         logger.New("authController"),
	}
}

func (ac *AuthController) LoginStaff(
	ctx context.Context,
	req LoginRequest,
) (*services.AuthResult, error) {
	log := ac.log.Function("LoginStaff")

	if err := ac.validate.Struct(req); err != nil {
		return nil, log.Err("invalid login request", err)
	}

	return ac.authService.LoginStaff(ctx, req.Email, req.Password)
}

func (ac *AuthController) LoginCustomer(
	ctx context.Context,
	req LoginRequest,
) (*services.AuthResult, error) {
	log := ac.log.Function("LoginCustomer")

	if err := ac.validate.Struct(req); err != nil {
		return nil, log.Err("invalid login request", err)
	}

	return ac.authService.LoginCustomer(ctx, req.Email, req.Password)
}

func (ac *AuthController) Logout(ctx context.Context, claims *services.Claims) error {
	return ac.authService.Logout(ctx, claims)
}
