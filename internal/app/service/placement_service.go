// Package service provides application use cases.
package service

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/singleflight"

	"ad-placement-service/internal/domain"
)

// DefaultPlacementTTL is how long a candidate pool stays cached.
const DefaultPlacementTTL = 60 * time.Second

// PlacementResult is the outcome of filling a placement slot.
type PlacementResult struct {
	Ranked           []domain.RankedAd      `json:"ranked"`
	Displayed        []domain.RankedAd      `json:"displayed"`
	RotationInterval time.Duration          `json:"rotation_interval"`
	CanRotate        bool                   `json:"can_rotate"`
	Cursor           int                    `json:"cursor"`
	Positions        int                    `json:"positions"`
	Trace            *domain.SelectionTrace `json:"trace,omitempty"`
}

// PlacementService selects and ranks ads for a placement slot.
//
// Candidate pools (eligible ads before device filtering and scoring) are
// cached per query key. Device and interests are applied on every request,
// so one cached pool serves every viewer of a slot.
type PlacementService struct {
	repo   domain.AdRepository
	cache  domain.Cache // nil disables caching
	ttl    time.Duration
	logger *zap.Logger

	group singleflight.Group
	now   func() time.Time
}

// NewPlacementService creates a new PlacementService. cache may be nil.
func NewPlacementService(repo domain.AdRepository, cache domain.Cache, ttl time.Duration, logger *zap.Logger) *PlacementService {
	if ttl <= 0 {
		ttl = DefaultPlacementTTL
	}

	return &PlacementService{
		repo:   repo,
		cache:  cache,
		ttl:    ttl,
		logger: logger,
		now:    time.Now,
	}
}

// Select fills a slot: the displayed window starts at the top of the ranking.
func (s *PlacementService) Select(ctx context.Context, query domain.PlacementQuery) (*PlacementResult, error) {
	rotation, trace, err := s.rank(ctx, &query)
	if err != nil {
		return nil, err
	}

	return s.result(rotation, rotation.Window(), trace), nil
}

// Window returns the window that follows cursor, wrapping at the end.
// It backs the manual "next" control; when rotation cannot run the first
// window is returned unchanged.
func (s *PlacementService) Window(ctx context.Context, query domain.PlacementQuery, cursor int) (*PlacementResult, error) {
	rotation, trace, err := s.rank(ctx, &query)
	if err != nil {
		return nil, err
	}

	window := rotation.Window()
	if rotation.CanRotate() {
		rotation.Seek(cursor)
		window = rotation.Advance()
	}

	return s.result(rotation, window, trace), nil
}

// InvalidateCache drops every cached candidate pool.
func (s *PlacementService) InvalidateCache(ctx context.Context) error {
	if s.cache == nil {
		return nil
	}

	if err := s.cache.Clear(ctx); err != nil {
		return fmt.Errorf("clearing placement cache: %w", err)
	}

	return nil
}

func (s *PlacementService) rank(ctx context.Context, query *domain.PlacementQuery) (*domain.Rotation, *domain.SelectionTrace, error) {
	query.Normalize()
	if query.Position == "" {
		return nil, nil, fmt.Errorf("%w: position is required", domain.ErrInvalidQuery)
	}

	pool, err := s.candidates(ctx, query)
	if err != nil {
		return nil, nil, err
	}

	var trace *domain.SelectionTrace
	if query.Trace {
		trace = &domain.SelectionTrace{}
	}

	// A cached pool may outlive an ad's end date by up to one TTL.
	now := s.now()
	pool = domain.FilterServable(pool, now)

	ranked := domain.Rank(pool, query.Viewer(), now, trace)

	s.logger.Debug("placement ranked",
		zap.String("position", query.Position),
		zap.String("context", string(query.Context)),
		zap.String("device", string(query.Device)),
		zap.Int("pool", len(pool)),
		zap.Int("ranked", len(ranked)),
	)

	return domain.NewRotation(ranked, query.Limit, query.EnableRotation), trace, nil
}

func (s *PlacementService) result(rotation *domain.Rotation, window []domain.RankedAd, trace *domain.SelectionTrace) *PlacementResult {
	trace.AddStep(domain.StageDisplayed, domain.Ads(window))

	return &PlacementResult{
		Ranked:           rotation.Ranked(),
		Displayed:        window,
		RotationInterval: domain.RotationInterval(domain.Ads(window)),
		CanRotate:        rotation.CanRotate(),
		Cursor:           rotation.Cursor(),
		Positions:        rotation.Positions(),
		Trace:            trace,
	}
}

// candidates returns the eligible pool for the query, from cache when possible.
// Cache failures are logged and treated as misses.
func (s *PlacementService) candidates(ctx context.Context, query *domain.PlacementQuery) ([]*domain.Advertisement, error) {
	key := query.CacheKey()

	if ads, ok := s.cached(ctx, key); ok {
		return ads, nil
	}

	// Concurrent misses for one key share a single repository call. The fetch
	// is detached from the caller's cancellation so one aborted request does
	// not fail the others waiting on it.
	v, err, shared := s.group.Do(key, func() (any, error) {
		fetchCtx := context.WithoutCancel(ctx)

		ads, err := s.repo.FindEligible(fetchCtx, query.Filter(), s.now())
		if err != nil {
			return nil, fmt.Errorf("loading candidate ads: %w", err)
		}

		s.store(fetchCtx, key, ads)

		return ads, nil
	})
	if err != nil {
		s.logger.Error("placement lookup failed",
			zap.String("position", query.Position),
			zap.Error(err),
		)
		return nil, err
	}

	if shared {
		s.logger.Debug("placement lookup shared", zap.String("key", key))
	}

	return v.([]*domain.Advertisement), nil
}

func (s *PlacementService) cached(ctx context.Context, key string) ([]*domain.Advertisement, bool) {
	if s.cache == nil {
		return nil, false
	}

	data, err := s.cache.Get(ctx, key)
	if err != nil {
		s.logger.Warn("placement cache read failed", zap.String("key", key), zap.Error(err))
		return nil, false
	}
	if data == nil {
		return nil, false
	}

	var ads []*domain.Advertisement
	if err := json.Unmarshal(data, &ads); err != nil {
		s.logger.Warn("placement cache entry corrupt", zap.String("key", key), zap.Error(err))
		return nil, false
	}

	return ads, true
}

func (s *PlacementService) store(ctx context.Context, key string, ads []*domain.Advertisement) {
	if s.cache == nil {
		return
	}

	data, err := json.Marshal(ads)
	if err != nil {
		s.logger.Warn("placement cache encode failed", zap.String("key", key), zap.Error(err))
		return
	}

	if err := s.cache.Set(ctx, key, data, s.ttl); err != nil {
		s.logger.Warn("placement cache write failed", zap.String("key", key), zap.Error(err))
	}
}
