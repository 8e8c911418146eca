// Package store defines the ports to the external document store and
// member directory the ledger core depends on.
package store

import (
	"context"
	"errors"

	"splitledger/internal/core"
)

// ErrNotFound is returned when a group or member id has no record.
var ErrNotFound = errors.New("not found")

// Ports for outbound adapters. Groups are read and written as whole
// typed records; the store offers no partial-field transactions, so
// writers revalidate invariants after every load and the adapters
// detect stale writes through the group Version.
type (
	GroupReader interface {
		// GetGroup loads one group document. The returned group is
		// owned by the caller.
		GetGroup(ctx context.Context, id string) (*core.Group, error)
	}

	GroupWriter interface {
		// PutGroup persists a whole group document. The caller
		// increments Version before writing; a write whose Version does
		// not directly follow the stored one fails with
		// core.ErrConcurrentModification.
		PutGroup(ctx context.Context, g *core.Group) error

		DeleteGroup(ctx context.Context, id string) error
	}

	GroupLister interface {
		ListGroupIDs(ctx context.Context) ([]string, error)
	}

	// ExportQueue tracks which groups still need a balance snapshot
	// export. Mutations mark a group pending; the worker drains it.
	ExportQueue interface {
		ListPendingExport(ctx context.Context, limit int) ([]string, error)
		MarkExported(ctx context.Context, groupID string, version int64) error
	}

	// MemberDirectory resolves member ids to display names for
	// reporting. It is not required for ledger correctness.
	MemberDirectory interface {
		Resolve(ctx context.Context, memberID string) (string, error)
	}
)

// GroupStore bundles the group document operations every backend
// provides.
type GroupStore interface {
	GroupReader
	GroupWriter
	GroupLister
	ExportQueue
}
