package serverutils

import (
	"errors"

	"financebot-be/internal/pkg/apperror"
	"financebot-be/internal/pkg/logger"

	"github.com/gofiber/fiber/v2"
)

// ErrorHandler renders every error returned by a handler as {"error": message}.
func ErrorHandler(log logger.ILogger) fiber.ErrorHandler {
	return func(c *fiber.Ctx, err error) error {
		var fe *fiber.Error
		if errors.As(err, &fe) {
			return c.Status(fe.Code).JSON(fiber.Map{"error": fe.Message})
		}

		appErr := apperror.From(err)
		if appErr.StatusCode >= fiber.StatusInternalServerError {
			details := map[string]interface{}{
				"path":   c.Path(),
				"method": c.Method(),
				"error":  appErr.Message,
			}
			if appErr.Internal != nil {
				details["cause"] = appErr.Internal.Error()
			}
			log.Error("HTTP", "Request failed", details)
		}
		return c.Status(appErr.StatusCode).JSON(fiber.Map{"error": appErr.Message})
	}
}
