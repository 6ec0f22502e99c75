package middleware

import (
	"errors"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"

	"github.com/chaitanyak175/attack-capital/internal/domain"
)

// ErrorHandler maps the pipeline error taxonomy onto HTTP status codes:
// model not loaded → 503, undecodable audio → 400, anything else in the
// pipeline → 500.
func ErrorHandler(log *zap.Logger) fiber.ErrorHandler {
	return func(c *fiber.Ctx, err error) error {
		code := fiber.StatusInternalServerError

		var decodeErr *domain.DecodeError
		var inferErr *domain.InferenceError

		switch {
		case errors.Is(err, domain.ErrModelNotLoaded):
			code = fiber.StatusServiceUnavailable
		case errors.As(err, &decodeErr):
			code = fiber.StatusBadRequest
		case errors.As(err, &inferErr):
			code = fiber.StatusInternalServerError
		default:
			if e, ok := err.(*fiber.Error); ok {
				code = e.Code
			}
		}

		if code == fiber.StatusInternalServerError {
			log.Error("Internal Server Error", zap.Error(err), zap.String("path", c.Path()))
		}

		return c.Status(code).JSON(fiber.Map{
			"error": err.Error(),
		})
	}
}
