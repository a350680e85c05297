package handler

import (
	"context"
	"strings"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"

	"ad-placement-service/internal/app/service"
	"ad-placement-service/internal/domain"
	"ad-placement-service/internal/transport/httpserver/dto"
	"ad-placement-service/internal/validator"
)

// PlacementSelector ranks ads for a slot.
type PlacementSelector interface {
	Select(ctx context.Context, query domain.PlacementQuery) (*service.PlacementResult, error)
	Window(ctx context.Context, query domain.PlacementQuery, cursor int) (*service.PlacementResult, error)
}

// InterestResolver merges stored and request interests for a visitor.
type InterestResolver interface {
	Resolve(ctx context.Context, visitorID string, recent []string) domain.RecentInterests
}

// PlacementHandler handles placement HTTP requests.
type PlacementHandler struct {
	placements PlacementSelector
	interests  InterestResolver
	validator  *validator.Validator
	logger     *zap.Logger
}

// NewPlacementHandler creates a new PlacementHandler.
func NewPlacementHandler(placements PlacementSelector, interests InterestResolver, v *validator.Validator, logger *zap.Logger) *PlacementHandler {
	return &PlacementHandler{
		placements: placements,
		interests:  interests,
		validator:  v,
		logger:     logger,
	}
}

// Select handles GET /api/v1/placements
func (h *PlacementHandler) Select(c *fiber.Ctx) error {
	req, query, err := h.parse(c)
	if err != nil || req == nil {
		return err
	}

	result, err := h.placements.Select(c.Context(), query)
	if err != nil {
		return writeError(c, h.logger, err)
	}

	return c.JSON(dto.FromPlacementResult(result, query))
}

// Window handles GET /api/v1/placements/window
func (h *PlacementHandler) Window(c *fiber.Ctx) error {
	req, query, err := h.parse(c)
	if err != nil || req == nil {
		return err
	}

	result, err := h.placements.Window(c.Context(), query, req.Cursor)
	if err != nil {
		return writeError(c, h.logger, err)
	}

	return c.JSON(dto.FromPlacementResult(result, query))
}

// parse reads and validates the request. A nil request means the error
// response has already been written.
func (h *PlacementHandler) parse(c *fiber.Ctx) (*dto.PlacementRequest, domain.PlacementQuery, error) {
	var req dto.PlacementRequest
	if err := c.QueryParser(&req); err != nil {
		return nil, domain.PlacementQuery{}, invalidParams(c)
	}

	if err := h.validator.Validate(&req); err != nil {
		return nil, domain.PlacementQuery{}, validationFailed(c, err)
	}

	query := req.ToQuery(c.Get(fiber.HeaderUserAgent))

	visitorID := strings.TrimSpace(c.Get(VisitorHeader))
	if visitorID == "" {
		visitorID = req.VisitorID
	}
	query.Interests = h.interests.Resolve(c.Context(), visitorID, req.InterestList())

	return &req, query, nil
}
