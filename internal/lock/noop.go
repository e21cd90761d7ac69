package lock

import (
	"context"
	"time"
)

// NoOpLocker grants every lock immediately. storage.LocalLocker hands it to
// the memory database driver, whose data lives and dies with one process.
type NoOpLocker struct{}

// NewNoOpLocker returns a NoOpLocker.
func NewNoOpLocker() *NoOpLocker {
	return &NoOpLocker{}
}

func (*NoOpLocker) Acquire(ctx context.Context, _ string, _ time.Duration) (bool, error) {
	return true, ctx.Err()
}

func (*NoOpLocker) AcquireWithRetry(ctx context.Context, _ string, _ time.Duration, _ int, _ time.Duration) (bool, error) {
	return true, ctx.Err()
}

func (*NoOpLocker) Release(ctx context.Context, _ string) (bool, error) {
	return true, ctx.Err()
}

func (*NoOpLocker) Extend(ctx context.Context, _ string, _ time.Duration) (bool, error) {
	return true, ctx.Err()
}

// IsHeld is always false; nothing is ever recorded.
func (*NoOpLocker) IsHeld(ctx context.Context, _ string) (bool, error) {
	return false, ctx.Err()
}

var _ Locker = (*NoOpLocker)(nil)
