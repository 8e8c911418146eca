// Package cache provides a small in-process cache for derived ledger
// state. Balances are recomputable from the group document at any time,
// so every entry is safe to drop; the cache only saves repeated
// recomputation on hot read paths.
package cache

import "time"

// Cache is the read-through interface the services consume.
type Cache[T any] interface {
	Get(key string) (T, bool)
	Set(key string, data T)

	// Delete removes a key. Mutating a group must delete its cached
	// derived state before the write is considered committed.
	Delete(key string)

	Size() int
}

// Cleaner is implemented by caches that support expiry sweeps.
type Cleaner interface {
	CleanExpired() int
}

// Manager runs periodic expiry sweeps over registered caches.
type Manager struct {
	caches      []Cleaner
	stopCleanup chan struct{}
	cleanupDone chan struct{}
}

func NewManager() *Manager {
	return &Manager{
		stopCleanup: make(chan struct{}),
		cleanupDone: make(chan struct{}),
	}
}

func (m *Manager) Register(c Cleaner) {
	m.caches = append(m.caches, c)
}

// StartCleanup begins sweeping all registered caches on the given
// interval until Stop is called.
func (m *Manager) StartCleanup(interval time.Duration) {
	go m.cleanup(interval)
}

func (m *Manager) cleanup(interval time.Duration) {
	defer close(m.cleanupDone)

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			for _, c := range m.caches {
				c.CleanExpired()
			}
		case <-m.stopCleanup:
			return
		}
	}
}

// Stop ends the cleanup routine and waits for it to exit.
func (m *Manager) Stop() {
	close(m.stopCleanup)
	<-m.cleanupDone
}
