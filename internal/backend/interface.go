// Package backend selects and wires the storage backend from
// configuration.
package backend

import (
	"splitledger/internal/amqp"
	"splitledger/internal/config"
	"splitledger/internal/store"
)

// Type represents the storage backend kind.
type Type string

const (
	SQLiteBackend Type = "sqlite"
	MemoryBackend Type = "memory"
)

// String implements fmt.Stringer
func (t Type) String() string {
	return string(t)
}

// IsValid returns true if the backend type is valid
func (t Type) IsValid() bool {
	switch t {
	case SQLiteBackend, MemoryBackend:
		return true
	default:
		return false
	}
}

// CleanupFunc releases backend resources on shutdown.
type CleanupFunc func() error

// Result bundles everything a wired backend provides: the group store,
// the member directory, and the optional AMQP client for sync messages.
type Result struct {
	Store     store.GroupStore
	Directory store.MemberDirectory
	Events    *amqp.Client
	Cleanup   CleanupFunc
}

// FromAppConfig derives the backend type from the application config.
func FromAppConfig(cfg *config.Config) (Type, error) {
	t := Type(cfg.DataBackend)
	if !t.IsValid() {
		return "", &InvalidTypeError{Value: cfg.DataBackend}
	}
	return t, nil
}

// InvalidTypeError reports an unrecognized backend selection.
type InvalidTypeError struct {
	Value string
}

func (e *InvalidTypeError) Error() string {
	return "invalid backend type: " + e.Value
}
