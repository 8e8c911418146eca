// Package memory is an in-process SnapshotWriter used in tests and
// when no spreadsheet is configured.
package memory

import (
	"context"
	"sync"

	"splitledger/internal/core"
	"splitledger/internal/export"
)

type Writer struct {
	mu    sync.Mutex
	snaps map[string]core.BalanceSnapshot // latest per group id
	count int
}

var _ export.SnapshotWriter = (*Writer)(nil)

func New() *Writer {
	return &Writer{snaps: make(map[string]core.BalanceSnapshot)}
}

// WriteSnapshot keeps the latest snapshot per group.
func (w *Writer) WriteSnapshot(_ context.Context, snap core.BalanceSnapshot, _ map[string]string) error {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.snaps[snap.GroupID] = snap
	w.count++
	return nil
}

// Latest returns the last snapshot written for a group.
func (w *Writer) Latest(groupID string) (core.BalanceSnapshot, bool) {
	w.mu.Lock()
	defer w.mu.Unlock()
	snap, ok := w.snaps[groupID]
	return snap, ok
}

// Writes reports how many snapshots have been written in total.
func (w *Writer) Writes() int {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.count
}
