// Package memory is an in-process document store used in tests and as
// the default backend when no database is configured.
package memory

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"splitledger/internal/core"
	"splitledger/internal/store"
)

type Store struct {
	mu      sync.Mutex
	groups  map[string]*core.Group
	pending map[string]struct{}
	names   map[string]string
}

func New() *Store {
	return &Store{
		groups:  make(map[string]*core.Group),
		pending: make(map[string]struct{}),
		names:   make(map[string]string),
	}
}

var (
	_ store.GroupStore      = (*Store)(nil)
	_ store.MemberDirectory = (*Store)(nil)
)

// GetGroup returns a deep copy so callers can never mutate stored state
// without going through PutGroup.
func (s *Store) GetGroup(_ context.Context, id string) (*core.Group, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	g, ok := s.groups[id]
	if !ok {
		return nil, fmt.Errorf("group %s: %w", id, store.ErrNotFound)
	}
	return g.Clone(), nil
}

func (s *Store) PutGroup(_ context.Context, g *core.Group) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if cur, ok := s.groups[g.ID]; ok {
		if g.Version != cur.Version+1 {
			return fmt.Errorf("group %s: stored version %d, write carries %d: %w",
				g.ID, cur.Version, g.Version, core.ErrConcurrentModification)
		}
	} else if g.Version != 1 {
		return fmt.Errorf("group %s: first write must carry version 1: %w",
			g.ID, core.ErrConcurrentModification)
	}
	s.groups[g.ID] = g.Clone()
	s.pending[g.ID] = struct{}{}
	return nil
}

func (s *Store) DeleteGroup(_ context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.groups[id]; !ok {
		return fmt.Errorf("group %s: %w", id, store.ErrNotFound)
	}
	delete(s.groups, id)
	delete(s.pending, id)
	return nil
}

func (s *Store) ListGroupIDs(_ context.Context) ([]string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	ids := make([]string, 0, len(s.groups))
	for id := range s.groups {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids, nil
}

func (s *Store) ListPendingExport(_ context.Context, limit int) ([]string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	ids := make([]string, 0, len(s.pending))
	for id := range s.pending {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	if limit > 0 && len(ids) > limit {
		ids = ids[:limit]
	}
	return ids, nil
}

func (s *Store) MarkExported(_ context.Context, groupID string, version int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	// A newer mutation keeps the group pending.
	if g, ok := s.groups[groupID]; ok && g.Version > version {
		return nil
	}
	delete(s.pending, groupID)
	return nil
}

// SetDisplayName seeds the member directory.
func (s *Store) SetDisplayName(memberID, name string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.names[memberID] = name
}

func (s *Store) Resolve(_ context.Context, memberID string) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	name, ok := s.names[memberID]
	if !ok {
		return "", fmt.Errorf("member %s: %w", memberID, store.ErrNotFound)
	}
	return name, nil
}
