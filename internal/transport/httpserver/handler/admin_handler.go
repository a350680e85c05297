package handler

import (
	"context"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"

	"ad-placement-service/internal/domain"
	"ad-placement-service/internal/transport/httpserver/dto"
	"ad-placement-service/internal/validator"
)

// AdManager administers advertisements.
type AdManager interface {
	Create(ctx context.Context, ad *domain.Advertisement) error
	Get(ctx context.Context, id string) (*domain.Advertisement, error)
	List(ctx context.Context, params domain.ListParams) (*domain.ListResult, error)
	Update(ctx context.Context, ad *domain.Advertisement) error
	SetActive(ctx context.Context, id string, active bool) error
	Delete(ctx context.Context, id string) error
	ExpireEnded(ctx context.Context) (int64, error)
	Stats(ctx context.Context) (*domain.AdStats, error)
	ClearCache(ctx context.Context) error
}

// AdminHandler handles admin-related HTTP requests.
type AdminHandler struct {
	ads       AdManager
	validator *validator.Validator
	logger    *zap.Logger
}

// NewAdminHandler creates a new AdminHandler.
func NewAdminHandler(ads AdManager, v *validator.Validator, logger *zap.Logger) *AdminHandler {
	return &AdminHandler{
		ads:       ads,
		validator: v,
		logger:    logger,
	}
}

// List handles GET /api/v1/admin/ads
func (h *AdminHandler) List(c *fiber.Ctx) error {
	var req dto.ListAdsRequest
	if err := c.QueryParser(&req); err != nil {
		return invalidParams(c)
	}
	if err := h.validator.Validate(&req); err != nil {
		return validationFailed(c, err)
	}

	result, err := h.ads.List(c.Context(), req.ToListParams())
	if err != nil {
		return writeError(c, h.logger, err)
	}

	return c.JSON(dto.FromListResult(result))
}

// Create handles POST /api/v1/admin/ads
func (h *AdminHandler) Create(c *fiber.Ctx) error {
	var req dto.AdRequest
	if err := c.BodyParser(&req); err != nil {
		return invalidBody(c)
	}
	if err := h.validator.Validate(&req); err != nil {
		return validationFailed(c, err)
	}

	ad := req.ToDomain()
	if err := h.ads.Create(c.Context(), ad); err != nil {
		return writeError(c, h.logger, err)
	}

	return c.Status(fiber.StatusCreated).JSON(dto.FromDomainAd(ad))
}

// Get handles GET /api/v1/admin/ads/:id
func (h *AdminHandler) Get(c *fiber.Ctx) error {
	id, ok := adID(c)
	if !ok {
		return invalidID(c)
	}

	ad, err := h.ads.Get(c.Context(), id)
	if err != nil {
		return writeError(c, h.logger, err)
	}

	return c.JSON(dto.FromDomainAd(ad))
}

// Update handles PUT /api/v1/admin/ads/:id
func (h *AdminHandler) Update(c *fiber.Ctx) error {
	id, ok := adID(c)
	if !ok {
		return invalidID(c)
	}

	var req dto.AdRequest
	if err := c.BodyParser(&req); err != nil {
		return invalidBody(c)
	}
	if err := h.validator.Validate(&req); err != nil {
		return validationFailed(c, err)
	}

	ad, err := h.ads.Get(c.Context(), id)
	if err != nil {
		return writeError(c, h.logger, err)
	}

	req.ApplyTo(ad)
	if err := h.ads.Update(c.Context(), ad); err != nil {
		return writeError(c, h.logger, err)
	}

	return c.JSON(dto.FromDomainAd(ad))
}

// Delete handles DELETE /api/v1/admin/ads/:id
func (h *AdminHandler) Delete(c *fiber.Ctx) error {
	id, ok := adID(c)
	if !ok {
		return invalidID(c)
	}

	if err := h.ads.Delete(c.Context(), id); err != nil {
		return writeError(c, h.logger, err)
	}

	return c.SendStatus(fiber.StatusNoContent)
}

// Activate handles POST /api/v1/admin/ads/:id/activate
func (h *AdminHandler) Activate(c *fiber.Ctx) error {
	return h.setActive(c, true)
}

// Deactivate handles POST /api/v1/admin/ads/:id/deactivate
func (h *AdminHandler) Deactivate(c *fiber.Ctx) error {
	return h.setActive(c, false)
}

func (h *AdminHandler) setActive(c *fiber.Ctx, active bool) error {
	id, ok := adID(c)
	if !ok {
		return invalidID(c)
	}

	if err := h.ads.SetActive(c.Context(), id, active); err != nil {
		return writeError(c, h.logger, err)
	}

	ad, err := h.ads.Get(c.Context(), id)
	if err != nil {
		return writeError(c, h.logger, err)
	}

	return c.JSON(dto.FromDomainAd(ad))
}

// ClearCache handles POST /api/v1/admin/cache/clear
func (h *AdminHandler) ClearCache(c *fiber.Ctx) error {
	h.logger.Info("placement cache clear triggered")

	if err := h.ads.ClearCache(c.Context()); err != nil {
		return writeError(c, h.logger, err)
	}

	return c.SendStatus(fiber.StatusNoContent)
}

// Expire handles POST /api/v1/admin/expire
func (h *AdminHandler) Expire(c *fiber.Ctx) error {
	h.logger.Info("manual expiry triggered")

	n, err := h.ads.ExpireEnded(c.Context())
	if err != nil {
		return writeError(c, h.logger, err)
	}

	return c.JSON(dto.ExpireResponse{Deactivated: n})
}

// Stats handles GET /api/v1/admin/stats
func (h *AdminHandler) Stats(c *fiber.Ctx) error {
	stats, err := h.ads.Stats(c.Context())
	if err != nil {
		return writeError(c, h.logger, err)
	}

	return c.JSON(dto.FromStats(stats))
}
