// Package locker provides distributed locks so that only one service instance
// runs a periodic job at a time.
package locker

import (
	"context"
	"time"
)

// DistributedLocker provides distributed lock capabilities across multiple instances.
// Implementations must be safe for concurrent use.
//
// The TTL doubles as a cooldown: a holder that does not release the lock keeps
// other instances out until it expires.
//
//	acquired, err := l.Acquire(ctx, "ad-expiry", 5*time.Minute)
//	if err != nil || !acquired {
//	    return err
//	}
//	if err := work(ctx); err != nil {
//	    _ = l.Release(ctx, "ad-expiry") // let another instance retry now
//	    return err
//	}
//	// keep the lock until it expires
type DistributedLocker interface {
	// Acquire attempts to take the lock without blocking.
	// Returns false, nil when another instance holds it.
	Acquire(ctx context.Context, key string, ttl time.Duration) (bool, error)

	// Release gives up a lock held by this instance. Releasing a lock that is
	// not held here is a no-op.
	Release(ctx context.Context, key string) error
}
