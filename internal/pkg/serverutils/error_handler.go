package serverutils

import (
	"errors"

	"github.com/gofiber/fiber/v2"
)

// ErrorHandlerMiddleware renders every unhandled error with the response
// envelope.
func ErrorHandlerMiddleware(ctx *fiber.Ctx, err error) error {
	code := fiber.StatusInternalServerError
	message := "Internal server error"

	var fe *fiber.Error
	switch {
	case errors.As(err, &fe):
		code = fe.Code
		message = fe.Message
	case errors.Is(err, ErrValidation):
		code = fiber.StatusBadRequest
		message = err.Error()
	}
	return ctx.Status(code).JSON(ErrorResponse(code, message))
}
