package service

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"go.uber.org/zap"

	"ad-placement-service/internal/domain"
)

var (
	// ErrInvalidEvent is returned when a tracking event cannot be applied.
	ErrInvalidEvent = errors.New("invalid tracking event")

	// ErrTrackingStopped is returned when events arrive after Stop.
	ErrTrackingStopped = errors.New("tracking stopped")
)

// TrackingConfig holds tracking worker settings.
type TrackingConfig struct {
	Workers      int
	QueueSize    int
	BatchSize    int           // max events coalesced per write round
	WriteTimeout time.Duration // per-ad counter update
}

func (c *TrackingConfig) withDefaults() {
	if c.Workers < 1 {
		c.Workers = 4
	}
	if c.QueueSize < 1 {
		c.QueueSize = 1024
	}
	if c.BatchSize < 1 {
		c.BatchSize = 64
	}
	if c.WriteTimeout <= 0 {
		c.WriteTimeout = 5 * time.Second
	}
}

// TrackingService records impressions, clicks and view durations.
//
// Tracking is best-effort: Track never blocks, a full queue drops the event
// with a warning, and failed writes are logged without retry. Workers coalesce
// queued events per ad so a burst costs one UPDATE per ad.
type TrackingService struct {
	repo   domain.AdRepository
	cfg    TrackingConfig
	logger *zap.Logger

	queue chan domain.TrackingEvent
	wg    sync.WaitGroup

	mu      sync.RWMutex
	started bool
	stopped bool
}

// NewTrackingService creates a new TrackingService. Call Start before tracking.
func NewTrackingService(repo domain.AdRepository, cfg TrackingConfig, logger *zap.Logger) *TrackingService {
	cfg.withDefaults()

	return &TrackingService{
		repo:   repo,
		cfg:    cfg,
		logger: logger,
		queue:  make(chan domain.TrackingEvent, cfg.QueueSize),
	}
}

// Start launches the workers. Calling it more than once is a no-op.
func (s *TrackingService) Start() {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.started || s.stopped {
		return
	}
	s.started = true

	for i := 0; i < s.cfg.Workers; i++ {
		s.wg.Add(1)
		go s.worker(i)
	}

	s.logger.Info("tracking workers started",
		zap.Int("workers", s.cfg.Workers),
		zap.Int("queue_size", s.cfg.QueueSize),
	)
}

// Stop closes the queue and waits for workers to drain it, or for ctx to end.
func (s *TrackingService) Stop(ctx context.Context) error {
	s.mu.Lock()
	if s.stopped {
		s.mu.Unlock()
		return nil
	}
	s.stopped = true
	close(s.queue)
	s.mu.Unlock()

	done := make(chan struct{})
	go func() {
		s.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		s.logger.Info("tracking workers stopped")
		return nil
	case <-ctx.Done():
		s.logger.Warn("tracking drain interrupted",
			zap.Int("pending", len(s.queue)),
		)
		return ctx.Err()
	}
}

// Track enqueues an event and returns immediately.
// Invalid events are rejected; a full queue drops the event and returns nil.
func (s *TrackingService) Track(event domain.TrackingEvent) error {
	if event.AdID == "" {
		return fmt.Errorf("%w: ad id is required", ErrInvalidEvent)
	}
	if _, err := event.Delta(); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidEvent, err)
	}
	if event.OccurredAt.IsZero() {
		event.OccurredAt = time.Now().UTC()
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	if s.stopped {
		return ErrTrackingStopped
	}

	select {
	case s.queue <- event:
	default:
		s.logger.Warn("tracking queue full, event dropped",
			zap.String("ad_id", event.AdID),
			zap.String("kind", string(event.Kind)),
		)
	}

	return nil
}

// Pending returns the number of queued events.
func (s *TrackingService) Pending() int {
	return len(s.queue)
}

func (s *TrackingService) worker(id int) {
	defer s.wg.Done()

	for event := range s.queue {
		batch := map[string]domain.AnalyticsDelta{}
		s.collect(batch, event)

		// Coalesce whatever is already waiting, without blocking.
	drain:
		for n := 1; n < s.cfg.BatchSize; n++ {
			select {
			case next, ok := <-s.queue:
				if !ok {
					break drain
				}
				s.collect(batch, next)
			default:
				break drain
			}
		}

		s.flush(id, batch)
	}
}

func (s *TrackingService) collect(batch map[string]domain.AnalyticsDelta, event domain.TrackingEvent) {
	delta, err := event.Delta()
	if err != nil {
		return
	}
	batch[event.AdID] = batch[event.AdID].Add(delta)
}

func (s *TrackingService) flush(worker int, batch map[string]domain.AnalyticsDelta) {
	for adID, delta := range batch {
		ctx, cancel := context.WithTimeout(context.Background(), s.cfg.WriteTimeout)
		err := s.repo.IncrementAnalytics(ctx, adID, delta)
		cancel()

		if err != nil {
			level := zap.ErrorLevel
			if errors.Is(err, domain.ErrAdNotFound) {
				level = zap.WarnLevel
			}
			s.logger.Log(level, "tracking write failed",
				zap.Int("worker", worker),
				zap.String("ad_id", adID),
				zap.Int64("impressions", delta.Impressions),
				zap.Int64("clicks", delta.Clicks),
				zap.Error(err),
			)
			continue
		}

		s.logger.Debug("tracking applied",
			zap.String("ad_id", adID),
			zap.Int64("impressions", delta.Impressions),
			zap.Int64("clicks", delta.Clicks),
			zap.Int64("view_duration_ms", delta.ViewDurationMs),
		)
	}
}
