package service

import (
	"context"
	"errors"
	"strings"

	"go.uber.org/zap"

	"ad-placement-service/internal/domain"
)

// ErrVisitorRequired is returned when an interest operation has no visitor ID.
var ErrVisitorRequired = errors.New("visitor id is required")

// InterestService keeps each visitor's recent interests.
type InterestService struct {
	store  domain.InterestStore
	logger *zap.Logger
}

// NewInterestService creates a new InterestService.
func NewInterestService(store domain.InterestStore, logger *zap.Logger) *InterestService {
	return &InterestService{
		store:  store,
		logger: logger,
	}
}

// Record adds interests for the visitor and returns the updated list.
func (s *InterestService) Record(ctx context.Context, visitorID string, values ...string) (domain.RecentInterests, error) {
	visitorID = strings.TrimSpace(visitorID)
	if visitorID == "" {
		return nil, ErrVisitorRequired
	}

	interests, err := s.store.Add(ctx, visitorID, values...)
	if err != nil {
		s.logger.Error("recording interests failed",
			zap.String("visitor_id", visitorID),
			zap.Error(err),
		)
		return nil, err
	}

	return interests, nil
}

// Get returns the visitor's stored interests, most recent first.
func (s *InterestService) Get(ctx context.Context, visitorID string) (domain.RecentInterests, error) {
	visitorID = strings.TrimSpace(visitorID)
	if visitorID == "" {
		return nil, ErrVisitorRequired
	}

	return s.store.Get(ctx, visitorID)
}

// Clear forgets the visitor's interests.
func (s *InterestService) Clear(ctx context.Context, visitorID string) error {
	visitorID = strings.TrimSpace(visitorID)
	if visitorID == "" {
		return ErrVisitorRequired
	}

	return s.store.Clear(ctx, visitorID)
}

// Resolve combines the stored list with interests sent on the request, the
// request's taking precedence. A store failure degrades to the request's list.
func (s *InterestService) Resolve(ctx context.Context, visitorID string, recent []string) domain.RecentInterests {
	var stored domain.RecentInterests

	if visitorID = strings.TrimSpace(visitorID); visitorID != "" {
		var err error
		stored, err = s.store.Get(ctx, visitorID)
		if err != nil {
			s.logger.Warn("loading interests failed, using request interests only",
				zap.String("visitor_id", visitorID),
				zap.Error(err),
			)
			stored = nil
		}
	}

	return stored.Merge(recent)
}
