package service

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"ad-placement-service/internal/domain"
)

// statsTopAds is the size of the dashboard CTR leaderboard.
const statsTopAds = 5

// CacheInvalidator drops cached placement data after a write.
type CacheInvalidator interface {
	InvalidateCache(ctx context.Context) error
}

// AdService handles advertisement administration.
// Every write invalidates cached placement pools.
type AdService struct {
	repo        domain.AdRepository
	invalidator CacheInvalidator
	logger      *zap.Logger
	now         func() time.Time
}

// NewAdService creates a new AdService.
func NewAdService(repo domain.AdRepository, invalidator CacheInvalidator, logger *zap.Logger) *AdService {
	return &AdService{
		repo:        repo,
		invalidator: invalidator,
		logger:      logger,
		now:         time.Now,
	}
}

// Create validates and stores a new advertisement.
func (s *AdService) Create(ctx context.Context, ad *domain.Advertisement) error {
	applyTargetingDefaults(ad)
	if err := ad.Check(); err != nil {
		return err
	}

	if err := s.repo.Create(ctx, ad); err != nil {
		s.logger.Error("create advertisement failed", zap.Error(err))
		return err
	}

	s.logger.Info("advertisement created",
		zap.String("id", ad.ID),
		zap.String("position", ad.Position),
		zap.String("type", string(ad.Type)),
	)
	s.invalidate(ctx)

	return nil
}

// Get retrieves an advertisement by ID.
func (s *AdService) Get(ctx context.Context, id string) (*domain.Advertisement, error) {
	ad, err := s.repo.GetByID(ctx, id)
	if err != nil {
		s.logger.Error("get advertisement failed", zap.String("id", id), zap.Error(err))
		return nil, err
	}
	if ad == nil {
		return nil, domain.ErrAdNotFound
	}

	return ad, nil
}

// List returns a page of advertisements.
func (s *AdService) List(ctx context.Context, params domain.ListParams) (*domain.ListResult, error) {
	params.Validate()

	result, err := s.repo.List(ctx, params)
	if err != nil {
		s.logger.Error("list advertisements failed", zap.Error(err))
		return nil, err
	}

	return result, nil
}

// Update validates and overwrites an advertisement.
func (s *AdService) Update(ctx context.Context, ad *domain.Advertisement) error {
	applyTargetingDefaults(ad)
	if err := ad.Check(); err != nil {
		return err
	}

	if err := s.repo.Update(ctx, ad); err != nil {
		return err
	}

	s.logger.Info("advertisement updated", zap.String("id", ad.ID))
	s.invalidate(ctx)

	return nil
}

// SetActive switches an advertisement on or off.
func (s *AdService) SetActive(ctx context.Context, id string, active bool) error {
	if err := s.repo.SetActive(ctx, id, active); err != nil {
		return err
	}

	s.logger.Info("advertisement active flag changed",
		zap.String("id", id),
		zap.Bool("active", active),
	)
	s.invalidate(ctx)

	return nil
}

// Delete removes an advertisement.
func (s *AdService) Delete(ctx context.Context, id string) error {
	if err := s.repo.Delete(ctx, id); err != nil {
		return err
	}

	s.logger.Info("advertisement deleted", zap.String("id", id))
	s.invalidate(ctx)

	return nil
}

// ExpireEnded deactivates every ad whose end date has passed and returns the count.
func (s *AdService) ExpireEnded(ctx context.Context) (int64, error) {
	n, err := s.repo.DeactivateExpired(ctx, s.now().UTC())
	if err != nil {
		return 0, fmt.Errorf("expiring advertisements: %w", err)
	}

	if n > 0 {
		s.logger.Info("expired advertisements deactivated", zap.Int64("count", n))
		s.invalidate(ctx)
	}

	return n, nil
}

// Stats returns dashboard counters.
func (s *AdService) Stats(ctx context.Context) (*domain.AdStats, error) {
	return s.repo.Stats(ctx, statsTopAds)
}

// ClearCache drops cached placement pools on demand.
func (s *AdService) ClearCache(ctx context.Context) error {
	if s.invalidator == nil {
		return nil
	}
	return s.invalidator.InvalidateCache(ctx)
}

func (s *AdService) invalidate(ctx context.Context) {
	if s.invalidator == nil {
		return
	}
	if err := s.invalidator.InvalidateCache(ctx); err != nil {
		s.logger.Warn("placement cache invalidation failed", zap.Error(err))
	}
}

// applyTargetingDefaults fills targeting lists an admin left empty.
func applyTargetingDefaults(ad *domain.Advertisement) {
	if len(ad.TargetContext) == 0 {
		ad.TargetContext = []string{domain.TargetAll}
	}
	if len(ad.TargetDevice) == 0 {
		ad.TargetDevice = []string{domain.TargetAll}
	}
	if ad.RotationSettings.Strategy == "" {
		ad.RotationSettings.Strategy = domain.StrategySequential
	}
	if ad.RotationSettings.Frequency == 0 {
		ad.RotationSettings.Frequency = domain.DefaultFrequency
	}
}
