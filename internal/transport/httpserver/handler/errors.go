// Package handler provides HTTP handlers for the API.
package handler

import (
	"errors"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"ad-placement-service/internal/app/service"
	"ad-placement-service/internal/domain"
	"ad-placement-service/internal/transport/httpserver/dto"
)

// VisitorHeader carries the visitor ID on placement requests.
const VisitorHeader = "X-Visitor-ID"

// writeError maps service errors onto status codes and stable error codes.
func writeError(c *fiber.Ctx, logger *zap.Logger, err error) error {
	status, code := fiber.StatusInternalServerError, "INTERNAL_ERROR"

	switch {
	case errors.Is(err, domain.ErrAdNotFound):
		status, code = fiber.StatusNotFound, "NOT_FOUND"
	case errors.Is(err, domain.ErrInvalidAdvertisement):
		status, code = fiber.StatusBadRequest, "INVALID_AD"
	case errors.Is(err, domain.ErrInvalidQuery):
		status, code = fiber.StatusBadRequest, "INVALID_QUERY"
	case errors.Is(err, service.ErrVisitorRequired):
		status, code = fiber.StatusBadRequest, "MISSING_VISITOR"
	case errors.Is(err, service.ErrInvalidEvent):
		status, code = fiber.StatusBadRequest, "INVALID_EVENT"
	case errors.Is(err, service.ErrTrackingStopped):
		status, code = fiber.StatusServiceUnavailable, "UNAVAILABLE"
	}

	if status >= fiber.StatusInternalServerError {
		logger.Error("request failed",
			zap.String("path", c.Path()),
			zap.Error(err),
		)

		return c.Status(status).JSON(dto.ErrorResponse{
			Error: "internal error",
			Code:  code,
		})
	}

	return c.Status(status).JSON(dto.ErrorResponse{
		Error: err.Error(),
		Code:  code,
	})
}

func invalidParams(c *fiber.Ctx) error {
	return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{
		Error: "invalid query parameters",
		Code:  "INVALID_PARAMS",
	})
}

func invalidBody(c *fiber.Ctx) error {
	return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{
		Error: "invalid request body",
		Code:  "INVALID_BODY",
	})
}

func validationFailed(c *fiber.Ctx, err error) error {
	return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{
		Error:   "validation failed",
		Code:    "VALIDATION_ERROR",
		Details: err,
	})
}

// adID reads the :id route parameter, which must be a UUID.
func adID(c *fiber.Ctx) (string, bool) {
	id := c.Params("id")
	if _, err := uuid.Parse(id); err != nil {
		return "", false
	}
	return id, true
}

func invalidID(c *fiber.Ctx) error {
	return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{
		Error: "id must be a valid UUID",
		Code:  "INVALID_ID",
	})
}
