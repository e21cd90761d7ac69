package lock

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
)

// MemoryLocker implements Locker using in-memory locks.
// This is suitable for single-node deployments where distributed locking is not needed.
// The locks are NOT shared across process restarts or multiple instances.
type MemoryLocker struct {
	mu     sync.Mutex
	locks  map[string]lockEntry
	owner  string
	now    func() time.Time
	stopCh chan struct{}
	once   sync.Once
}

type lockEntry struct {
	expiresAt time.Time
	owner     string
}

// NewMemoryLocker creates a new in-memory locker.
func NewMemoryLocker() *MemoryLocker {
	ml := &MemoryLocker{
		locks:  make(map[string]lockEntry),
		owner:  uuid.NewString(),
		now:    time.Now,
		stopCh: make(chan struct{}),
	}

	go ml.cleanupLoop()

	return ml
}

// Stop ends the background cleanup.
func (m *MemoryLocker) Stop() {
	m.once.Do(func() { close(m.stopCh) })
}

func (m *MemoryLocker) cleanupLoop() {
	ticker := time.NewTicker(30 * time.Second)
	defer ticker.Stop()

	for {
		select {
		case <-m.stopCh:
			return
		case <-ticker.C:
			m.cleanup()
		}
	}
}

func (m *MemoryLocker) cleanup() {
	m.mu.Lock()
	defer m.mu.Unlock()

	now := m.now()
	for key, entry := range m.locks {
		if now.After(entry.expiresAt) {
			delete(m.locks, key)
		}
	}
}

// live returns the unexpired entry for key. Callers hold m.mu.
func (m *MemoryLocker) live(key string) (lockEntry, bool) {
	entry, ok := m.locks[key]
	if !ok {
		return lockEntry{}, false
	}
	if m.now().After(entry.expiresAt) {
		delete(m.locks, key)
		return lockEntry{}, false
	}
	return entry, true
}

// Acquire attempts to acquire a lock.
func (m *MemoryLocker) Acquire(ctx context.Context, key string, ttl time.Duration) (bool, error) {
	if ctx.Err() != nil {
		return false, ctx.Err()
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	if _, held := m.live(key); held {
		return false, nil
	}

	m.locks[key] = lockEntry{
		expiresAt: m.now().Add(ttl),
		owner:     m.owner,
	}
	return true, nil
}

// AcquireWithRetry attempts to acquire a lock with retries.
func (m *MemoryLocker) AcquireWithRetry(ctx context.Context, key string, ttl time.Duration, maxRetries int, retryDelay time.Duration) (bool, error) {
	return retry(ctx, maxRetries, retryDelay, func() (bool, error) {
		return m.Acquire(ctx, key, ttl)
	})
}

// Release releases a lock.
func (m *MemoryLocker) Release(ctx context.Context, key string) (bool, error) {
	if ctx.Err() != nil {
		return false, ctx.Err()
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	entry, held := m.live(key)
	if !held || entry.owner != m.owner {
		return false, nil
	}
	delete(m.locks, key)
	return true, nil
}

// Extend extends the TTL of a held lock.
func (m *MemoryLocker) Extend(ctx context.Context, key string, ttl time.Duration) (bool, error) {
	if ctx.Err() != nil {
		return false, ctx.Err()
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	entry, held := m.live(key)
	if !held || entry.owner != m.owner {
		return false, nil
	}
	entry.expiresAt = m.now().Add(ttl)
	m.locks[key] = entry
	return true, nil
}

// IsHeld checks if a lock is currently held.
func (m *MemoryLocker) IsHeld(ctx context.Context, key string) (bool, error) {
	if ctx.Err() != nil {
		return false, ctx.Err()
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	_, held := m.live(key)
	return held, nil
}

var _ Locker = (*MemoryLocker)(nil)
