package controller

import (
	"financebot-be/internal/constant"
	"financebot-be/internal/dto"
	"financebot-be/internal/pkg/apperror"
	"financebot-be/internal/pkg/serverutils"
	"financebot-be/internal/service"

	"github.com/gofiber/fiber/v2"
)

type IChatController interface {
	RegisterRoutes(r fiber.Router)
	RecordTurn(ctx *fiber.Ctx) error
	ListSessions(ctx *fiber.Ctx) error
	ListMessages(ctx *fiber.Ctx) error
}

type chatController struct {
	service service.IChatService
}

func NewChatController(service service.IChatService) IChatController {
	return &chatController{service: service}
}

func (c *chatController) RegisterRoutes(r fiber.Router) {
	r.Post("/session-turn", c.RecordTurn)
	r.Get("/session-list", c.ListSessions)
	r.Get("/session-messages", c.ListMessages)
}

func (c *chatController) RecordTurn(ctx *fiber.Ctx) error {
	var req dto.RecordTurnRequest
	if err := ctx.BodyParser(&req); err != nil {
		return apperror.Validation(constant.MsgTurnBadRequest)
	}

	res, err := c.service.RecordTurn(ctx.UserContext(), &req, serverutils.UserID(ctx))
	if err != nil {
		return err
	}
	if !res.Recorded() {
		return ctx.Status(fiber.StatusAccepted).JSON(dto.MessageResponse{Message: constant.MsgTurnNotRecorded})
	}
	return ctx.JSON(dto.MessageResponse{Message: constant.MsgTurnRecorded})
}

// ListSessions takes ?userId=, falling back to the bearer token's identity.
func (c *chatController) ListSessions(ctx *fiber.Ctx) error {
	userID := ctx.Query("userId")
	if userID == "" {
		userID = serverutils.UserID(ctx)
	}

	sessions, err := c.service.ListSessions(ctx.UserContext(), userID)
	if err != nil {
		return err
	}
	return ctx.JSON(dto.ListSessionsResponse{
		Sessions: sessions,
		Message:  constant.MsgSessionsFetched,
	})
}

func (c *chatController) ListMessages(ctx *fiber.Ctx) error {
	messages, err := c.service.ListMessages(ctx.UserContext(), ctx.Query("sessionId"))
	if err != nil {
		return err
	}
	return ctx.JSON(dto.ListMessagesResponse{
		Sessions: messages,
		Message:  constant.MsgMessagesFetched,
	})
}
