package handler

import (
	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"

	"ad-placement-service/internal/domain"
	"ad-placement-service/internal/transport/httpserver/dto"
	"ad-placement-service/internal/validator"
)

// EventTracker accepts tracking events without blocking.
type EventTracker interface {
	Track(event domain.TrackingEvent) error
}

// TrackingHandler handles impression, click and view-duration reports.
// Every accepted report answers 202 before it is written.
type TrackingHandler struct {
	tracker   EventTracker
	validator *validator.Validator
	logger    *zap.Logger
}

// NewTrackingHandler creates a new TrackingHandler.
func NewTrackingHandler(tracker EventTracker, v *validator.Validator, logger *zap.Logger) *TrackingHandler {
	return &TrackingHandler{
		tracker:   tracker,
		validator: v,
		logger:    logger,
	}
}

// Impression handles POST /api/v1/ads/:id/impression
func (h *TrackingHandler) Impression(c *fiber.Ctx) error {
	return h.simple(c, domain.TrackImpression)
}

// Click handles POST /api/v1/ads/:id/click
func (h *TrackingHandler) Click(c *fiber.Ctx) error {
	return h.simple(c, domain.TrackClick)
}

// ViewDuration handles POST /api/v1/ads/:id/view-duration
func (h *TrackingHandler) ViewDuration(c *fiber.Ctx) error {
	id, ok := adID(c)
	if !ok {
		return invalidID(c)
	}

	var req dto.ViewDurationRequest
	if err := c.BodyParser(&req); err != nil {
		return invalidBody(c)
	}
	if err := h.validator.Validate(&req); err != nil {
		return validationFailed(c, err)
	}

	return h.track(c, domain.TrackingEvent{
		AdID:     id,
		Kind:     domain.TrackViewDuration,
		Duration: req.Duration(),
		Context:  domain.ParsePageContext(req.Context),
		Device:   domain.DetectDevice(c.Get(fiber.HeaderUserAgent)),
	})
}

func (h *TrackingHandler) simple(c *fiber.Ctx, kind domain.TrackingKind) error {
	id, ok := adID(c)
	if !ok {
		return invalidID(c)
	}

	// The body is optional.
	var req dto.TrackRequest
	if len(c.Body()) > 0 {
		if err := c.BodyParser(&req); err != nil {
			return invalidBody(c)
		}
		if err := h.validator.Validate(&req); err != nil {
			return validationFailed(c, err)
		}
	}

	return h.track(c, domain.TrackingEvent{
		AdID:    id,
		Kind:    kind,
		Context: domain.ParsePageContext(req.Context),
		Device:  domain.DetectDevice(c.Get(fiber.HeaderUserAgent)),
	})
}

func (h *TrackingHandler) track(c *fiber.Ctx, event domain.TrackingEvent) error {
	if err := h.tracker.Track(event); err != nil {
		return writeError(c, h.logger, err)
	}

	return c.Status(fiber.StatusAccepted).JSON(dto.AcceptedResponse{Status: "accepted"})
}
