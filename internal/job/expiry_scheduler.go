// Package job provides background job schedulers.
package job

import (
	"context"
	"sync"
	"time"

	"go.uber.org/zap"

	"ad-placement-service/pkg/locker"
)

const expiryLockKey = "ad-expiry"

// Expirer deactivates advertisements whose end date has passed.
type Expirer interface {
	ExpireEnded(ctx context.Context) (int64, error)
}

// ExpiryConfig holds expiry scheduler configuration.
type ExpiryConfig struct {
	Interval  time.Duration
	Timeout   time.Duration
	OnStartup bool
}

// ExpiryScheduler periodically switches off ended campaigns. A distributed
// lock keeps the job to one instance per interval.
type ExpiryScheduler struct {
	expirer  Expirer
	interval time.Duration
	timeout  time.Duration
	logger   *zap.Logger
	locker   locker.DistributedLocker

	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup
}

// NewExpiryScheduler creates a new ExpiryScheduler.
func NewExpiryScheduler(
	expirer Expirer,
	cfg ExpiryConfig,
	logger *zap.Logger,
	locker locker.DistributedLocker,
) *ExpiryScheduler {
	if cfg.Interval <= 0 {
		cfg.Interval = 5 * time.Minute
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 30 * time.Second
	}

	return &ExpiryScheduler{
		expirer:  expirer,
		interval: cfg.Interval,
		timeout:  cfg.Timeout,
		logger:   logger,
		locker:   locker,
	}
}

// Start begins the background expiry job.
func (s *ExpiryScheduler) Start(runOnStartup bool) {
	s.ctx, s.cancel = context.WithCancel(context.Background())

	s.logger.Info("starting expiry scheduler",
		zap.Duration("interval", s.interval),
		zap.Bool("run_on_startup", runOnStartup),
	)

	s.wg.Add(1)
	go s.run(runOnStartup)
}

// Stop gracefully stops the scheduler and waits for a running pass.
func (s *ExpiryScheduler) Stop() {
	if s.cancel == nil {
		return
	}

	s.logger.Info("stopping expiry scheduler")
	s.cancel()
	s.wg.Wait()
	s.logger.Info("expiry scheduler stopped")
}

func (s *ExpiryScheduler) run(runOnStartup bool) {
	defer s.wg.Done()

	if runOnStartup {
		s.execute(s.ctx)
	}

	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	for {
		select {
		case <-s.ctx.Done():
			return
		case <-ticker.C:
			s.execute(s.ctx)
		}
	}
}

// execute runs one expiry pass under the lock and reports whether it ran.
//
// The lock TTL equals the interval. On success the lock is kept as a
// cooldown so no other instance repeats the pass; on failure it is released
// so the next instance to tick can retry.
func (s *ExpiryScheduler) execute(parent context.Context) bool {
	acquired, err := s.locker.Acquire(parent, expiryLockKey, s.interval)
	if err != nil {
		s.logger.Error("failed to acquire distributed lock", zap.Error(err))
		return false
	}
	if !acquired {
		s.logger.Debug("another instance ran expiry recently, skipping")
		return false
	}

	ctx, cancel := context.WithTimeout(parent, s.timeout)
	defer cancel()

	start := time.Now()
	n, err := s.expirer.ExpireEnded(ctx)
	if err != nil {
		if releaseErr := s.locker.Release(parent, expiryLockKey); releaseErr != nil {
			s.logger.Error("failed to release lock after expiry error", zap.Error(releaseErr))
		}
		s.logger.Warn("expiry pass failed, lock released for retry", zap.Error(err))
		return true
	}

	s.logger.Info("expiry pass completed, lock held for cooldown",
		zap.Int64("deactivated", n),
		zap.Duration("took", time.Since(start)),
		zap.Duration("cooldown", s.interval),
	)

	return true
}
