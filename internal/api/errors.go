package api

import (
	"errors"
	"log/slog"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"

	"medication-sku-service/internal/service"
)

const (
	detailNotFound       = "Not found."
	detailUnauthorized   = "Authentication credentials were not provided."
	detailInvalidToken   = "Given token not valid for any token type."
	detailServerError    = "A server error occurred."
	detailTooManyRequest = "Too many request, please try again later."
)

var errUnauthenticated = errors.New("authentication credentials were not provided")

func unauthorized(c *fiber.Ctx) error {
	return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"detail": detailUnauthorized})
}

func notFound(c *fiber.Ctx) error {
	return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"detail": detailNotFound})
}

func validationFailed(c *fiber.Ctx, fields map[string][]string) error {
	return c.Status(fiber.StatusBadRequest).JSON(fields)
}

// respondError maps service errors onto status codes. Anything unknown is
// logged and hidden behind a 500.
func respondError(c *fiber.Ctx, err error) error {
	var vErr *service.ValidationError
	var bulkErr *service.BulkValidationError

	switch {
	case errors.As(err, &vErr):
		return validationFailed(c, vErr.Fields)
	case errors.As(err, &bulkErr):
		return c.Status(fiber.StatusBadRequest).JSON(bulkErr.Items)
	case errors.Is(err, errUnauthenticated):
		return unauthorized(c)
	case errors.Is(err, service.ErrNotFound):
		return notFound(c)
	case errors.Is(err, service.ErrForbidden):
		return c.Status(fiber.StatusForbidden).JSON(fiber.Map{"detail": "You do not have permission to perform this action."})
	default:
		slog.ErrorContext(c.UserContext(), "Request failed",
			slog.String("method", c.Method()),
			slog.String("path", c.Path()),
			slog.String("error", err.Error()),
		)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"detail": detailServerError})
	}
}

// pathID parses the :id route param. A malformed id cannot match a row.
func pathID(c *fiber.Ctx) (uuid.UUID, bool) {
	id, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return uuid.Nil, false
	}
	return id, true
}
