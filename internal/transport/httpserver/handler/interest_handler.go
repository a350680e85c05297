package handler

import (
	"context"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"

	"ad-placement-service/internal/domain"
	"ad-placement-service/internal/transport/httpserver/dto"
	"ad-placement-service/internal/validator"
)

// InterestKeeper stores visitors' recent interests.
type InterestKeeper interface {
	Record(ctx context.Context, visitorID string, values ...string) (domain.RecentInterests, error)
	Get(ctx context.Context, visitorID string) (domain.RecentInterests, error)
	Clear(ctx context.Context, visitorID string) error
}

// InterestHandler handles visitor interest HTTP requests.
type InterestHandler struct {
	interests InterestKeeper
	validator *validator.Validator
	logger    *zap.Logger
}

// NewInterestHandler creates a new InterestHandler.
func NewInterestHandler(interests InterestKeeper, v *validator.Validator, logger *zap.Logger) *InterestHandler {
	return &InterestHandler{
		interests: interests,
		validator: v,
		logger:    logger,
	}
}

// Get handles GET /api/v1/visitors/:visitor_id/interests
func (h *InterestHandler) Get(c *fiber.Ctx) error {
	visitorID := c.Params("visitor_id")

	interests, err := h.interests.Get(c.Context(), visitorID)
	if err != nil {
		return writeError(c, h.logger, err)
	}

	return c.JSON(interestsResponse(visitorID, interests))
}

// Record handles POST /api/v1/visitors/:visitor_id/interests
func (h *InterestHandler) Record(c *fiber.Ctx) error {
	visitorID := c.Params("visitor_id")

	var req dto.InterestsRequest
	if err := c.BodyParser(&req); err != nil {
		return invalidBody(c)
	}
	if err := h.validator.Validate(&req); err != nil {
		return validationFailed(c, err)
	}

	interests, err := h.interests.Record(c.Context(), visitorID, req.Interests...)
	if err != nil {
		return writeError(c, h.logger, err)
	}

	return c.JSON(interestsResponse(visitorID, interests))
}

// Clear handles DELETE /api/v1/visitors/:visitor_id/interests
func (h *InterestHandler) Clear(c *fiber.Ctx) error {
	if err := h.interests.Clear(c.Context(), c.Params("visitor_id")); err != nil {
		return writeError(c, h.logger, err)
	}

	return c.SendStatus(fiber.StatusNoContent)
}

func interestsResponse(visitorID string, interests domain.RecentInterests) dto.InterestsResponse {
	out := []string(interests)
	if out == nil {
		out = []string{}
	}
	return dto.InterestsResponse{VisitorID: visitorID, Interests: out}
}
