// Package export defines the outbound port for balance snapshot
// exports. Snapshots are derived state; an export can always be redone
// from the group document, so writers only need at-least-once
// semantics.
package export

import (
	"context"

	"splitledger/internal/core"
)

// SnapshotWriter publishes a group's pairwise balances to an external
// reporting surface. names maps member ids to display names; members
// missing from the map are written by id.
type SnapshotWriter interface {
	WriteSnapshot(ctx context.Context, snap core.BalanceSnapshot, names map[string]string) error
}
