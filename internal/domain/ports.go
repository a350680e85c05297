package domain

import (
	"context"
	"time"
)

// AdRepository defines the interface for advertisement persistence operations.
// Implementations: internal/infra/postgres/repository.go
type AdRepository interface {
	// FindEligible returns servable ads for a slot at now: active, inside the
	// date range, position equal to the filter's or "global". Fetch order is
	// deterministic (created_at, id).
	FindEligible(ctx context.Context, filter EligibilityFilter, now time.Time) ([]*Advertisement, error)

	// GetByID retrieves a single ad. Returns nil, nil when not found.
	GetByID(ctx context.Context, id string) (*Advertisement, error)

	// List returns a filtered page of ads.
	List(ctx context.Context, params ListParams) (*ListResult, error)

	// Create stores a new ad and fills its generated fields.
	Create(ctx context.Context, ad *Advertisement) error

	// Update overwrites an existing ad. Returns ErrAdNotFound when missing.
	Update(ctx context.Context, ad *Advertisement) error

	// SetActive toggles the active flag. Returns ErrAdNotFound when missing.
	SetActive(ctx context.Context, id string, active bool) error

	// Delete removes an ad by ID.
	Delete(ctx context.Context, id string) error

	// IncrementAnalytics applies counter deltas and recomputes CTR.
	IncrementAnalytics(ctx context.Context, id string, delta AnalyticsDelta) error

	// DeactivateExpired switches off active ads whose end date is before now.
	// Returns the number of ads changed.
	DeactivateExpired(ctx context.Context, now time.Time) (int64, error)

	// Stats aggregates counters for the dashboard.
	Stats(ctx context.Context, top int) (*AdStats, error)
}

// Cache defines the interface for caching operations.
// Implementations: internal/infra/redis/cache.go
type Cache interface {
	// Get retrieves a value by key. Returns nil if not found.
	Get(ctx context.Context, key string) ([]byte, error)

	// Set stores a value with the given TTL.
	Set(ctx context.Context, key string, value []byte, ttl time.Duration) error

	// Delete removes a value by key.
	Delete(ctx context.Context, key string) error

	// Clear removes all cached values.
	Clear(ctx context.Context) error
}

// InterestStore persists each visitor's recent interests.
// Implementations: internal/infra/redis/interests.go
type InterestStore interface {
	// Get returns the visitor's interests, most recent first.
	Get(ctx context.Context, visitorID string) (RecentInterests, error)

	// Add pushes interests for the visitor and returns the updated list.
	Add(ctx context.Context, visitorID string, values ...string) (RecentInterests, error)

	// Clear forgets the visitor's interests.
	Clear(ctx context.Context, visitorID string) error
}
