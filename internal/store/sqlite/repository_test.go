package sqlite

import (
	"context"
	"errors"
	"path/filepath"
	"testing"
	"time"

	"splitledger/internal/core"
	"splitledger/internal/store"
)

func newTestRepo(t *testing.T) *Repository {
	t.Helper()
	repo, err := NewRepository(filepath.Join(t.TempDir(), "ledger.db"))
	if err != nil {
		t.Fatalf("open repository: %v", err)
	}
	t.Cleanup(func() { repo.Close() })
	return repo
}

func sampleGroup() *core.Group {
	return &core.Group{
		ID:      "g1",
		Name:    "ski trip",
		Members: []string{"alice", "bob", "carol"},
		Expenses: map[string]core.GroupExpense{
			"e1": {
				ID:      "e1",
				Title:   "cabin",
				Amount:  core.NewMoney(30000),
				AddedAt: time.Now().UTC(),
				Method:  core.SplitEqually,
				PaidBy:  map[string]core.Money{"alice": core.NewMoney(30000)},
				Debtors: map[string]core.Money{
					"alice": core.NewMoney(10000),
					"bob":   core.NewMoney(10000),
					"carol": core.NewMoney(10000),
				},
			},
		},
		Payments: map[string]core.Payment{
			"p1": {
				ID:        "p1",
				Amount:    core.NewMoney(5000),
				CreatedAt: time.Now().UTC(),
				PayerID:   "bob",
				PayeeID:   "alice",
			},
		},
		Version:   1,
		CreatedAt: time.Now().UTC(),
	}
}

func TestGroupRoundTrip(t *testing.T) {
	ctx := context.Background()
	repo := newTestRepo(t)

	if err := repo.PutGroup(ctx, sampleGroup()); err != nil {
		t.Fatalf("put: %v", err)
	}

	got, err := repo.GetGroup(ctx, "g1")
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if got.Name != "ski trip" || len(got.Members) != 3 {
		t.Fatalf("unexpected group: %+v", got)
	}
	e := got.Expenses["e1"]
	if e.Amount.Cents != 30000 || e.Debtors["bob"].Cents != 10000 {
		t.Fatalf("expense did not survive the round trip: %+v", e)
	}
	p := got.Payments["p1"]
	if p.Amount.Cents != 5000 || p.PayerID != "bob" || p.PayeeID != "alice" {
		t.Fatalf("payment did not survive the round trip: %+v", p)
	}
}

func TestGetMissingGroup(t *testing.T) {
	repo := newTestRepo(t)
	_, err := repo.GetGroup(context.Background(), "nope")
	if !errors.Is(err, store.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestStaleWriteDetection(t *testing.T) {
	ctx := context.Background()
	repo := newTestRepo(t)

	if err := repo.PutGroup(ctx, sampleGroup()); err != nil {
		t.Fatalf("put: %v", err)
	}

	// Writing version 1 again means a second writer raced the insert.
	err := repo.PutGroup(ctx, sampleGroup())
	if !errors.Is(err, core.ErrConcurrentModification) {
		t.Fatalf("expected ErrConcurrentModification, got %v", err)
	}

	g := sampleGroup()
	g.Version = 3 // skips version 2
	err = repo.PutGroup(ctx, g)
	if !errors.Is(err, core.ErrConcurrentModification) {
		t.Fatalf("expected ErrConcurrentModification, got %v", err)
	}

	g.Version = 2
	if err := repo.PutGroup(ctx, g); err != nil {
		t.Fatalf("sequential write should succeed: %v", err)
	}
}

func TestDeleteGroup(t *testing.T) {
	ctx := context.Background()
	repo := newTestRepo(t)
	_ = repo.PutGroup(ctx, sampleGroup())

	if err := repo.DeleteGroup(ctx, "g1"); err != nil {
		t.Fatalf("delete: %v", err)
	}
	if err := repo.DeleteGroup(ctx, "g1"); !errors.Is(err, store.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestPendingExportLifecycle(t *testing.T) {
	ctx := context.Background()
	repo := newTestRepo(t)
	_ = repo.PutGroup(ctx, sampleGroup())

	ids, err := repo.ListPendingExport(ctx, 10)
	if err != nil || len(ids) != 1 || ids[0] != "g1" {
		t.Fatalf("expected g1 pending, got %v (err=%v)", ids, err)
	}

	if err := repo.MarkExported(ctx, "g1", 1); err != nil {
		t.Fatalf("mark: %v", err)
	}
	ids, _ = repo.ListPendingExport(ctx, 10)
	if len(ids) != 0 {
		t.Fatalf("expected nothing pending, got %v", ids)
	}

	// A new write re-arms the pending flag.
	g := sampleGroup()
	g.Version = 2
	_ = repo.PutGroup(ctx, g)
	ids, _ = repo.ListPendingExport(ctx, 10)
	if len(ids) != 1 {
		t.Fatalf("expected g1 pending again, got %v", ids)
	}
}

func TestMemberDirectory(t *testing.T) {
	ctx := context.Background()
	repo := newTestRepo(t)

	if err := repo.UpsertMember(ctx, "alice", "Alice A."); err != nil {
		t.Fatalf("upsert: %v", err)
	}
	name, err := repo.Resolve(ctx, "alice")
	if err != nil || name != "Alice A." {
		t.Fatalf("expected Alice A., got %q (err=%v)", name, err)
	}

	if err := repo.UpsertMember(ctx, "alice", "Alice B."); err != nil {
		t.Fatalf("upsert: %v", err)
	}
	name, _ = repo.Resolve(ctx, "alice")
	if name != "Alice B." {
		t.Fatalf("expected updated name, got %q", name)
	}

	if _, err := repo.Resolve(ctx, "ghost"); !errors.Is(err, store.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestDecodeRejectsMalformedDocument(t *testing.T) {
	// A stored document whose expense shares do not sum to the amount
	// must be rejected on load, not trusted.
	g := sampleGroup()
	e := g.Expenses["e1"]
	e.Debtors = map[string]core.Money{"alice": core.NewMoney(1)}
	g.Expenses["e1"] = e

	data, err := encodeGroup(g)
	if err != nil {
		t.Fatalf("encode: %v", err)
	}
	if _, err := decodeGroup(data); !errors.Is(err, core.ErrInconsistentExpense) {
		t.Fatalf("expected ErrInconsistentExpense, got %v", err)
	}
}
