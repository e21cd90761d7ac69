// Package lock provides distributed and local locking abstractions.
// For single-node deployments, memory-based locks are used.
// For distributed deployments, Redis-based locks can be used.
package lock

import (
	"context"
	"errors"
	"fmt"
	"time"
)

// ErrNotAcquired is returned by WithLock when the lock stays busy.
var ErrNotAcquired = errors.New("lock not acquired")

// Locker defines the interface for distributed/local locking.
// Each Locker instance owns the locks it acquires: Release and Extend
// only affect locks taken through the same instance.
type Locker interface {
	// Acquire attempts to acquire a lock.
	// Returns true if the lock was acquired, false if it's held by another owner.
	// The lock will automatically expire after the specified TTL.
	Acquire(ctx context.Context, key string, ttl time.Duration) (bool, error)

	// AcquireWithRetry attempts to acquire a lock with retries.
	// Will retry up to maxRetries times with retryDelay between attempts.
	AcquireWithRetry(ctx context.Context, key string, ttl time.Duration, maxRetries int, retryDelay time.Duration) (bool, error)

	// Release releases a lock.
	// Returns true if the lock was released, false if it wasn't held by this owner.
	Release(ctx context.Context, key string) (bool, error)

	// Extend pushes the expiry of a lock held by this owner to now+ttl.
	// WithLock calls it while the guarded job runs.
	Extend(ctx context.Context, key string, ttl time.Duration) (bool, error)

	// IsHeld reports whether anyone holds the lock. cinelog-migrate status
	// uses it to show a migration in progress.
	IsHeld(ctx context.Context, key string) (bool, error)
}

// Options controls how WithLock waits for a busy lock.
type Options struct {
	TTL        time.Duration
	MaxRetries int
	RetryDelay time.Duration
}

// DefaultOptions suits short maintenance jobs such as migrations.
var DefaultOptions = Options{
	TTL:        5 * time.Minute,
	MaxRetries: 30,
	RetryDelay: 2 * time.Second,
}

// WithLock runs fn while holding key. It returns ErrNotAcquired when the
// lock could not be taken within the retry budget.
func WithLock(ctx context.Context, locker Locker, key string, opts Options, fn func(ctx context.Context) error) error {
	acquired, err := locker.AcquireWithRetry(ctx, key, opts.TTL, opts.MaxRetries, opts.RetryDelay)
	if err != nil {
		return fmt.Errorf("failed to acquire lock %s: %w", key, err)
	}
	if !acquired {
		return fmt.Errorf("%w: %s", ErrNotAcquired, key)
	}

	stop := make(chan struct{})
	done := make(chan struct{})
	go keepAlive(ctx, locker, key, opts.TTL, stop, done)

	defer func() {
		close(stop)
		<-done

		// Release on a fresh context so a cancelled ctx still frees the lock.
		releaseCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), 5*time.Second)
		defer cancel()
		_, _ = locker.Release(releaseCtx, key)
	}()

	return fn(ctx)
}

// keepAlive extends the lease every ttl/2 until stop is closed, so a job
// that outlives its TTL keeps the lock. It gives up once an extension fails.
func keepAlive(ctx context.Context, locker Locker, key string, ttl time.Duration, stop <-chan struct{}, done chan<- struct{}) {
	defer close(done)
	if ttl <= 0 {
		return
	}

	ticker := time.NewTicker(ttl / 2)
	defer ticker.Stop()

	for {
		select {
		case <-stop:
			return
		case <-ctx.Done():
			return
		case <-ticker.C:
			if ok, err := locker.Extend(ctx, key, ttl); err != nil || !ok {
				return
			}
		}
	}
}

// retry is the AcquireWithRetry loop shared by the lockers.
func retry(ctx context.Context, maxRetries int, retryDelay time.Duration, attempt func() (bool, error)) (bool, error) {
	for i := 0; i <= maxRetries; i++ {
		acquired, err := attempt()
		if err != nil {
			return false, err
		}
		if acquired {
			return true, nil
		}

		// Don't sleep on the last attempt.
		if i < maxRetries {
			select {
			case <-ctx.Done():
				return false, ctx.Err()
			case <-time.After(retryDelay):
			}
		}
	}
	return false, nil
}

// =============================================================================
// Common Lock Keys
// =============================================================================

// Keys provides lock key generation for common scenarios.
var Keys = lockKeys{}

type lockKeys struct{}

// Migrations returns the lock key held while applying schema migrations.
func (lockKeys) Migrations() string {
	return "lock:cinelog:migrations"
}
