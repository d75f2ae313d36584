package controller

import (
	"bufio"
	"encoding/json"
	"fmt"

	"financebot-be/internal/constant"
	"financebot-be/internal/dto"
	"financebot-be/internal/pkg/apperror"
	"financebot-be/internal/pkg/logger"
	"financebot-be/internal/service"
	"financebot-be/pkg/llm"

	"github.com/gofiber/fiber/v2"
)

type IAdvisorController interface {
	RegisterRoutes(r fiber.Router)
	ChatCompletion(ctx *fiber.Ctx) error
	Advice(ctx *fiber.Ctx) error
}

type advisorController struct {
	service service.IAdvisorService
	logger  logger.ILogger
}

func NewAdvisorController(service service.IAdvisorService, log logger.ILogger) IAdvisorController {
	return &advisorController{service: service, logger: log}
}

func (c *advisorController) RegisterRoutes(r fiber.Router) {
	r.Post("/chat-completion", c.ChatCompletion)
	r.Post("/advice", c.Advice)
}

// ChatCompletion relays the completion as server-sent events:
// `data: {"content": ...}` per chunk and `data: [DONE]` at the end, or an
// `event: error` frame when the provider fails mid-stream.
func (c *advisorController) ChatCompletion(ctx *fiber.Ctx) error {
	var req dto.ChatCompletionRequest
	if err := ctx.BodyParser(&req); err != nil || len(req.Messages) == 0 {
		return apperror.Validation(constant.MsgMessagesRequired)
	}

	stream, err := c.service.Stream(ctx.UserContext(), req.Messages)
	if err != nil {
		return err
	}

	ctx.Set(fiber.HeaderContentType, "text/event-stream")
	ctx.Set(fiber.HeaderCacheControl, "no-cache")
	ctx.Set(fiber.HeaderConnection, "keep-alive")
	ctx.Set("X-Accel-Buffering", "no")

	ctx.Context().SetBodyStreamWriter(func(w *bufio.Writer) {
		c.writeEvents(w, stream)
	})
	return nil
}

func (c *advisorController) writeEvents(w *bufio.Writer, stream llm.Stream) {
	defer stream.Close()

	for stream.Next() {
		data, _ := json.Marshal(dto.ChatCompletionChunk{Content: stream.Chunk()})
		fmt.Fprintf(w, "data: %s\n\n", data)
		if err := w.Flush(); err != nil {
			// Client went away.
			return
		}
	}

	if err := stream.Err(); err != nil {
		c.logger.Warn("AdvisorController", "Completion stream failed", map[string]interface{}{"error": err.Error()})
		data, _ := json.Marshal(dto.ErrorResponse{Error: err.Error()})
		fmt.Fprintf(w, "event: error\ndata: %s\n\n", data)
		w.Flush()
		return
	}

	fmt.Fprint(w, "data: [DONE]\n\n")
	w.Flush()
}

func (c *advisorController) Advice(ctx *fiber.Ctx) error {
	var req dto.AdviceRequest
	if err := ctx.BodyParser(&req); err != nil {
		return apperror.Validation(constant.MsgAdviceRequired)
	}

	res, err := c.service.Advise(ctx.UserContext(), &req)
	if err != nil {
		return err
	}
	return ctx.JSON(res)
}
