// Package distlock provides named locks for serializing work across
// processes. Redis backs the lock when a client is available; otherwise a
// process-local lock keeps single-instance deployments safe.
package distlock

import (
	"context"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"
)

// DistLock is the interface for distributed locking.
// Implementations must be safe for use from a single goroutine;
// concurrent use across goroutines requires separate lock instances.
type DistLock interface {
	// Acquire tries to acquire the lock. Returns true if successful.
	Acquire(ctx context.Context) (bool, error)
	// Release releases the lock if we still own it.
	Release(ctx context.Context) error
}

// Manager hands out locks over the best available backend.
type Manager struct {
	client *redis.Client // nil falls back to process-local locks

	mu    sync.Mutex
	local map[string]*localEntry
}

// NewManager creates a lock manager. A nil client selects the
// process-local backend.
func NewManager(client *redis.Client) *Manager {
	return &Manager{
		client: client,
		local:  make(map[string]*localEntry),
	}
}

// Lock creates a lock for the given key. The TTL only applies to the
// Redis backend, where it bounds the hold time of a crashed owner.
func (m *Manager) Lock(key string, ttl time.Duration) DistLock {
	if m.client != nil {
		return NewRedisLock(m.client, key, ttl)
	}
	return &localLock{mgr: m, key: key}
}

type localEntry struct {
	held bool
}

// localLock implements DistLock with an in-process registry. It is a
// non-blocking try-lock: Acquire returns false when the key is held.
type localLock struct {
	mgr      *Manager
	key      string
	acquired bool
}

func (l *localLock) Acquire(ctx context.Context) (bool, error) {
	l.mgr.mu.Lock()
	defer l.mgr.mu.Unlock()
	entry, ok := l.mgr.local[l.key]
	if !ok {
		entry = &localEntry{}
		l.mgr.local[l.key] = entry
	}
	if entry.held {
		return false, nil
	}
	entry.held = true
	l.acquired = true
	return true, nil
}

func (l *localLock) Release(ctx context.Context) error {
	if !l.acquired {
		return nil
	}
	l.mgr.mu.Lock()
	defer l.mgr.mu.Unlock()
	delete(l.mgr.local, l.key)
	l.acquired = false
	return nil
}
