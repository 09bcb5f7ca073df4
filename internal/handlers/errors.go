package handlers

import (
	"errors"
	"log/slog"
	"strconv"
	"strings"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"github.com/linkfro/linkfro-backend/internal/dto"
	"github.com/linkfro/linkfro-backend/internal/services"
	"github.com/linkfro/linkfro-backend/internal/validation"
)

var errorStatuses = []struct {
	err    error
	status int
}{
	{services.ErrValidation, fiber.StatusBadRequest},
	{services.ErrConflict, fiber.StatusBadRequest},
	{services.ErrNotFound, fiber.StatusNotFound},
	{services.ErrForbidden, fiber.StatusForbidden},
	{services.ErrInvalidTransition, fiber.StatusConflict},
	{services.ErrConcurrentUpdate, fiber.StatusConflict},
}

// respondError maps a service error to its HTTP status. Anything unmapped is
// logged and answered with a generic 500.
func respondError(c *fiber.Ctx, err error) error {
	for _, e := range errorStatuses {
		if errors.Is(err, e.err) {
			return c.Status(e.status).JSON(dto.ErrorResponse{
				Error: true, Message: strings.TrimPrefix(err.Error(), e.err.Error()+": "),
			})
		}
	}

	slog.Error("request failed",
		"action", c.Method()+" "+c.Route().Path,
		"request_id", c.Locals("requestid"),
		"error", err.Error(),
	)
	return c.Status(fiber.StatusInternalServerError).JSON(dto.ErrorResponse{
		Error: true, Message: "Internal server error",
	})
}

func badRequest(c *fiber.Ctx, message string) error {
	return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{
		Error: true, Message: message,
	})
}

func unauthorized(c *fiber.Ctx) error {
	return c.Status(fiber.StatusUnauthorized).JSON(dto.ErrorResponse{
		Error: true, Message: "Unauthorized",
	})
}

// parseBody decodes the JSON body into req and runs its validate tags. The
// returned error is safe to show to the client.
func parseBody(c *fiber.Ctx, req any) error {
	if err := c.BodyParser(req); err != nil {
		return errors.New("Invalid request body")
	}
	return validation.Struct(req)
}

func parseID(c *fiber.Ctx, param string) (uuid.UUID, bool) {
	id, err := uuid.Parse(c.Params(param))
	return id, err == nil
}

// pagination reads limit/offset query params, capping limit at 100.
func pagination(c *fiber.Ctx) (int, int) {
	limit, err := strconv.Atoi(c.Query("limit", "20"))
	if err != nil || limit <= 0 {
		limit = 20
	}
	if limit > 100 {
		limit = 100
	}
	offset, err := strconv.Atoi(c.Query("offset", "0"))
	if err != nil || offset < 0 {
		offset = 0
	}
	return limit, offset
}
