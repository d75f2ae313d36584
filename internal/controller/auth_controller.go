package controller

import (
	"financebot-be/internal/constant"
	"financebot-be/internal/dto"
	"financebot-be/internal/pkg/apperror"
	"financebot-be/internal/pkg/serverutils"
	"financebot-be/internal/service"

	"github.com/gofiber/fiber/v2"
)

type IAuthController interface {
	RegisterRoutes(r fiber.Router)
	Register(ctx *fiber.Ctx) error
	Login(ctx *fiber.Ctx) error
	Logout(ctx *fiber.Ctx) error
}

type authController struct {
	service  service.IAuthService
	resolver *serverutils.IdentityResolver
}

// NewAuthController takes the resolver whose cache must forget logged-out tokens; it may be nil.
func NewAuthController(service service.IAuthService, resolver *serverutils.IdentityResolver) IAuthController {
	return &authController{service: service, resolver: resolver}
}

func (c *authController) RegisterRoutes(r fiber.Router) {
	h := r.Group("/auth")
	h.Post("/register", c.Register)
	h.Post("/login", c.Login)
	h.Post("/logout", c.Logout)
}

func (c *authController) Register(ctx *fiber.Ctx) error {
	var req dto.RegisterRequest
	if err := ctx.BodyParser(&req); err != nil {
		return apperror.Validation(constant.MsgCredentialsRequired)
	}

	res, err := c.service.Register(ctx.UserContext(), &req)
	if err != nil {
		return err
	}
	return ctx.JSON(res)
}

func (c *authController) Login(ctx *fiber.Ctx) error {
	var req dto.LoginRequest
	if err := ctx.BodyParser(&req); err != nil {
		return apperror.Validation(constant.MsgCredentialsRequired)
	}

	res, err := c.service.Login(ctx.UserContext(), &req)
	if err != nil {
		return err
	}
	return ctx.JSON(res)
}

func (c *authController) Logout(ctx *fiber.Ctx) error {
	token := serverutils.BearerToken(ctx)
	if err := c.service.Logout(ctx.UserContext(), token); err != nil {
		return err
	}
	if c.resolver != nil && token != "" {
		c.resolver.Forget(token)
	}
	return ctx.JSON(dto.MessageResponse{Message: constant.MsgLogoutSuccess})
}
