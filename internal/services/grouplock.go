package services

import "sync"

// groupLocks serializes read-modify-write cycles per group id. All
// mutations load the group, compute the new state and persist it while
// holding the group's lock, so two writers on the same group cannot
// interleave. Locks are never removed; the map is bounded by the number
// of groups the process has touched.
type groupLocks struct {
	mu    sync.Mutex
	locks map[string]*sync.Mutex
	gens  map[string]uint64
}

func newGroupLocks() *groupLocks {
	return &groupLocks{
		locks: make(map[string]*sync.Mutex),
		gens:  make(map[string]uint64),
	}
}

// generation counts the committed mutations of one group. Readers that
// fill the snapshot cache without holding the group lock sample it
// before loading and after caching to detect a concurrent commit.
func (g *groupLocks) generation(groupID string) uint64 {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.gens[groupID]
}

// bump records a committed mutation. Writers call it before dropping
// the cached snapshot.
func (g *groupLocks) bump(groupID string) {
	g.mu.Lock()
	g.gens[groupID]++
	g.mu.Unlock()
}

// lock acquires the lock for one group and returns the release func.
func (g *groupLocks) lock(groupID string) func() {
	g.mu.Lock()
	m, ok := g.locks[groupID]
	if !ok {
		m = &sync.Mutex{}
		g.locks[groupID] = m
	}
	g.mu.Unlock()

	m.Lock()
	return m.Unlock
}
