// Package worker drains the balance export queue. It consumes group
// sync messages from AMQP and, as a backstop for lost messages, polls
// the store for groups still marked pending.
package worker

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"splitledger/internal/amqp"
	"splitledger/internal/core"
	"splitledger/internal/export"
	"splitledger/internal/store"
)

// ExportWorker recomputes a group's balances and writes the snapshot to
// the configured export surface. Exports are idempotent: the snapshot
// is derived entirely from the stored group, so reprocessing a message
// rewrites the same rows at the same version.
type ExportWorker struct {
	store     store.GroupStore
	names     store.MemberDirectory
	writer    export.SnapshotWriter
	batchSize int
}

// NewExportWorker builds the worker. names may be nil; member ids are
// then exported as-is.
func NewExportWorker(st store.GroupStore, names store.MemberDirectory, writer export.SnapshotWriter, batchSize int) *ExportWorker {
	if batchSize <= 0 {
		batchSize = 10
	}
	return &ExportWorker{
		store:     st,
		names:     names,
		writer:    writer,
		batchSize: batchSize,
	}
}

// HandleSyncMessage processes a single group sync message from AMQP.
func (w *ExportWorker) HandleSyncMessage(ctx context.Context, msg *amqp.GroupSyncMessage) error {
	slog.InfoContext(ctx, "Processing group sync message",
		"group_id", msg.GroupID,
		"version", msg.Version)
	return w.ExportGroup(ctx, msg.GroupID)
}

// ExportGroup recomputes and exports one group's balances, then clears
// its pending-export mark. A group deleted since the message was
// published is not an error.
func (w *ExportWorker) ExportGroup(ctx context.Context, groupID string) error {
	g, err := w.store.GetGroup(ctx, groupID)
	if errors.Is(err, store.ErrNotFound) {
		slog.InfoContext(ctx, "Group gone before export, dropping", "group_id", groupID)
		return nil
	}
	if err != nil {
		return fmt.Errorf("get group %s: %w", groupID, err)
	}

	ledger, err := core.RecomputeLedger(g)
	if err != nil {
		return fmt.Errorf("recompute group %s: %w", groupID, err)
	}
	snap := ledger.Snapshot(g, time.Now().UTC())

	if err := w.writer.WriteSnapshot(ctx, snap, w.resolveNames(ctx, g)); err != nil {
		return fmt.Errorf("write snapshot for group %s: %w", groupID, err)
	}

	if err := w.store.MarkExported(ctx, g.ID, g.Version); err != nil {
		// The export itself succeeded; the group will just be
		// re-exported on the next catch-up pass.
		slog.WarnContext(ctx, "Failed to mark group exported",
			"group_id", g.ID, "version", g.Version, "error", err)
	}

	slog.InfoContext(ctx, "Exported group balances",
		"group_id", g.ID,
		"version", g.Version,
		"pairs", len(snap.Entries))
	return nil
}

// ProcessPending exports every group still marked pending, up to the
// batch size. Failures are logged per group and do not stop the batch.
func (w *ExportWorker) ProcessPending(ctx context.Context) error {
	ids, err := w.store.ListPendingExport(ctx, w.batchSize)
	if err != nil {
		return fmt.Errorf("list pending exports: %w", err)
	}
	if len(ids) == 0 {
		return nil
	}

	slog.DebugContext(ctx, "Processing pending exports", "count", len(ids))
	for _, id := range ids {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		if err := w.ExportGroup(ctx, id); err != nil {
			slog.ErrorContext(ctx, "Failed to export pending group",
				"group_id", id, "error", err)
		}
	}
	return nil
}

// RunCatchUp polls for pending exports on the given interval until the
// context is cancelled. It runs one pass immediately on startup.
func (w *ExportWorker) RunCatchUp(ctx context.Context, interval time.Duration) error {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	if err := w.ProcessPending(ctx); err != nil && !errors.Is(err, context.Canceled) {
		slog.ErrorContext(ctx, "Catch-up pass failed", "error", err)
	}

	for {
		select {
		case <-ctx.Done():
			slog.InfoContext(ctx, "Stopping export catch-up", "reason", ctx.Err())
			return ctx.Err()
		case <-ticker.C:
			if err := w.ProcessPending(ctx); err != nil && !errors.Is(err, context.Canceled) {
				slog.ErrorContext(ctx, "Catch-up pass failed", "error", err)
			}
		}
	}
}

func (w *ExportWorker) resolveNames(ctx context.Context, g *core.Group) map[string]string {
	if w.names == nil {
		return nil
	}
	names := make(map[string]string, len(g.Members))
	for _, m := range g.Members {
		name, err := w.names.Resolve(ctx, m)
		if err != nil {
			continue
		}
		names[m] = name
	}
	return names
}
