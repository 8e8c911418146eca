// Package sqlite persists group documents in SQLite. Each group is one
// JSON document row; the version column backs optimistic stale-write
// detection, and export_pending feeds the snapshot export worker.
package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"splitledger/internal/core"
	"splitledger/internal/store"

	_ "modernc.org/sqlite"
)

type Repository struct {
	db *sql.DB
}

var (
	_ store.GroupStore      = (*Repository)(nil)
	_ store.MemberDirectory = (*Repository)(nil)
)

func NewRepository(dbPath string) (*Repository, error) {
	if err := os.MkdirAll(filepath.Dir(dbPath), 0755); err != nil {
		return nil, fmt.Errorf("create db directory: %w", err)
	}

	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open sqlite database: %w", err)
	}

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}

	if err := runMigrations(dbPath); err != nil {
		db.Close()
		return nil, fmt.Errorf("run migrations: %w", err)
	}

	return &Repository{db: db}, nil
}

func (r *Repository) Close() error {
	if r.db != nil {
		return r.db.Close()
	}
	return nil
}

func (r *Repository) GetGroup(ctx context.Context, id string) (*core.Group, error) {
	var doc string
	err := r.db.QueryRowContext(ctx, `SELECT doc FROM groups WHERE id = ?`, id).Scan(&doc)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("group %s: %w", id, store.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("load group %s: %w", id, err)
	}
	g, err := decodeGroup([]byte(doc))
	if err != nil {
		return nil, fmt.Errorf("decode group %s: %w", id, err)
	}
	return g, nil
}

func (r *Repository) PutGroup(ctx context.Context, g *core.Group) error {
	doc, err := encodeGroup(g)
	if err != nil {
		return fmt.Errorf("encode group %s: %w", g.ID, err)
	}
	now := time.Now().UTC()

	if g.Version == 1 {
		_, err := r.db.ExecContext(ctx,
			`INSERT INTO groups (id, doc, version, export_pending, created_at, updated_at)
			 VALUES (?, ?, ?, 1, ?, ?)`,
			g.ID, string(doc), g.Version, now, now)
		if err != nil {
			if exists, checkErr := r.groupExists(ctx, g.ID); checkErr == nil && exists {
				return fmt.Errorf("group %s already exists: %w", g.ID, core.ErrConcurrentModification)
			}
			return fmt.Errorf("insert group %s: %w", g.ID, err)
		}
		return nil
	}

	res, err := r.db.ExecContext(ctx,
		`UPDATE groups SET doc = ?, version = ?, export_pending = 1, updated_at = ?
		 WHERE id = ? AND version = ?`,
		string(doc), g.Version, now, g.ID, g.Version-1)
	if err != nil {
		return fmt.Errorf("update group %s: %w", g.ID, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("update group %s: %w", g.ID, err)
	}
	if n == 0 {
		exists, err := r.groupExists(ctx, g.ID)
		if err != nil {
			return fmt.Errorf("update group %s: %w", g.ID, err)
		}
		if !exists {
			return fmt.Errorf("group %s: %w", g.ID, store.ErrNotFound)
		}
		return fmt.Errorf("group %s: stale write at version %d: %w",
			g.ID, g.Version, core.ErrConcurrentModification)
	}
	return nil
}

func (r *Repository) DeleteGroup(ctx context.Context, id string) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM groups WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("delete group %s: %w", id, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("delete group %s: %w", id, err)
	}
	if n == 0 {
		return fmt.Errorf("group %s: %w", id, store.ErrNotFound)
	}
	slog.InfoContext(ctx, "Group deleted", "group_id", id)
	return nil
}

func (r *Repository) ListGroupIDs(ctx context.Context) ([]string, error) {
	rows, err := r.db.QueryContext(ctx, `SELECT id FROM groups ORDER BY id`)
	if err != nil {
		return nil, fmt.Errorf("list groups: %w", err)
	}
	defer rows.Close()

	var ids []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("scan group id: %w", err)
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}

func (r *Repository) ListPendingExport(ctx context.Context, limit int) ([]string, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT id FROM groups WHERE export_pending = 1 ORDER BY updated_at LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("list pending export: %w", err)
	}
	defer rows.Close()

	var ids []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("scan group id: %w", err)
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}

// MarkExported clears the pending flag unless the group moved on to a
// newer version since the snapshot was taken.
func (r *Repository) MarkExported(ctx context.Context, groupID string, version int64) error {
	_, err := r.db.ExecContext(ctx,
		`UPDATE groups SET export_pending = 0, exported_version = ?
		 WHERE id = ? AND version <= ?`,
		version, groupID, version)
	if err != nil {
		return fmt.Errorf("mark exported %s: %w", groupID, err)
	}
	return nil
}

func (r *Repository) Resolve(ctx context.Context, memberID string) (string, error) {
	var name string
	err := r.db.QueryRowContext(ctx,
		`SELECT display_name FROM members WHERE id = ?`, memberID).Scan(&name)
	if errors.Is(err, sql.ErrNoRows) {
		return "", fmt.Errorf("member %s: %w", memberID, store.ErrNotFound)
	}
	if err != nil {
		return "", fmt.Errorf("resolve member %s: %w", memberID, err)
	}
	return name, nil
}

// UpsertMember seeds or updates the member directory.
func (r *Repository) UpsertMember(ctx context.Context, memberID, displayName string) error {
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO members (id, display_name) VALUES (?, ?)
		 ON CONFLICT(id) DO UPDATE SET display_name = excluded.display_name`,
		memberID, displayName)
	if err != nil {
		return fmt.Errorf("upsert member %s: %w", memberID, err)
	}
	return nil
}

func (r *Repository) groupExists(ctx context.Context, id string) (bool, error) {
	var exists bool
	err := r.db.QueryRowContext(ctx,
		`SELECT EXISTS(SELECT 1 FROM groups WHERE id = ?)`, id).Scan(&exists)
	return exists, err
}
