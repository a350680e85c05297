package handler

import (
	"context"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"

	"ad-placement-service/internal/domain"
	"ad-placement-service/internal/transport/httpserver/dto"
)

// StatsProvider returns dashboard counters.
type StatsProvider interface {
	Stats(ctx context.Context) (*domain.AdStats, error)
}

// DashboardHandler handles dashboard-related HTTP requests.
type DashboardHandler struct {
	stats  StatsProvider
	logger *zap.Logger
}

// NewDashboardHandler creates a new DashboardHandler.
func NewDashboardHandler(stats StatsProvider, logger *zap.Logger) *DashboardHandler {
	return &DashboardHandler{
		stats:  stats,
		logger: logger,
	}
}

// Render handles GET /dashboard
// Renders the dashboard HTML page using Fiber's template engine.
// A stats failure renders the page with an error banner.
func (h *DashboardHandler) Render(c *fiber.Ctx) error {
	data := fiber.Map{
		"Title": "Ad Placement Dashboard",
	}

	stats, err := h.stats.Stats(c.Context())
	if err != nil {
		h.logger.Warn("dashboard stats failed", zap.Error(err))
		data["Error"] = "statistics are unavailable"
	} else {
		data["Stats"] = dto.FromStats(stats)
	}

	return c.Render("pages/dashboard", data, "layouts/base")
}
