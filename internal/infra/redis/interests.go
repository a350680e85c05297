package redis

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"ad-placement-service/internal/domain"
)

// maxWatchRetries bounds optimistic retries when two writers race on one visitor.
const maxWatchRetries = 3

// InterestStore implements domain.InterestStore with one Redis list per visitor,
// most recent first. The list is rewritten inside a WATCH transaction so the
// dedup and cap rules of domain.RecentInterests apply exactly.
type InterestStore struct {
	client    *redis.Client
	logger    *zap.Logger
	keyPrefix string
	ttl       time.Duration
}

// NewInterestStore creates a store whose lists expire ttl after the last write.
func NewInterestStore(client *redis.Client, logger *zap.Logger, keyPrefix string, ttl time.Duration) *InterestStore {
	return &InterestStore{
		client:    client,
		logger:    logger,
		keyPrefix: keyPrefix,
		ttl:       ttl,
	}
}

// Get returns the visitor's interests. Unknown visitors have none.
func (s *InterestStore) Get(ctx context.Context, visitorID string) (domain.RecentInterests, error) {
	values, err := s.client.LRange(ctx, s.buildKey(visitorID), 0, domain.MaxRecentInterests-1).Result()
	if err != nil {
		return nil, fmt.Errorf("reading interests: %w", err)
	}

	return domain.RecentInterests(values), nil
}

// Add records interests for the visitor and returns the updated list.
func (s *InterestStore) Add(ctx context.Context, visitorID string, values ...string) (domain.RecentInterests, error) {
	key := s.buildKey(visitorID)

	var updated domain.RecentInterests
	txf := func(tx *redis.Tx) error {
		current, err := tx.LRange(ctx, key, 0, -1).Result()
		if err != nil {
			return err
		}

		updated = domain.RecentInterests(current).Add(values...)

		_, err = tx.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
			pipe.Del(ctx, key)
			if len(updated) > 0 {
				pipe.RPush(ctx, key, toArgs(updated)...)
				pipe.Expire(ctx, key, s.ttl)
			}
			return nil
		})
		return err
	}

	for attempt := 0; attempt < maxWatchRetries; attempt++ {
		err := s.client.Watch(ctx, txf, key)
		if err == nil {
			return updated, nil
		}
		if !errors.Is(err, redis.TxFailedErr) {
			return nil, fmt.Errorf("writing interests: %w", err)
		}

		s.logger.Debug("interest write conflict, retrying",
			zap.String("visitor_id", visitorID),
			zap.Int("attempt", attempt+1),
		)
	}

	return nil, fmt.Errorf("writing interests: %w", redis.TxFailedErr)
}

// Clear forgets the visitor's interests.
func (s *InterestStore) Clear(ctx context.Context, visitorID string) error {
	if err := s.client.Del(ctx, s.buildKey(visitorID)).Err(); err != nil {
		return fmt.Errorf("clearing interests: %w", err)
	}

	return nil
}

func (s *InterestStore) buildKey(visitorID string) string {
	return s.keyPrefix + ":interests:" + visitorID
}

func toArgs(values []string) []any {
	args := make([]any, len(values))
	for i, v := range values {
		args[i] = v
	}
	return args
}
