package worker

import (
	"context"
	"testing"
	"time"

	"splitledger/internal/amqp"
	"splitledger/internal/core"
	expmem "splitledger/internal/export/memory"
	"splitledger/internal/store/memory"
)

func storedGroup(t *testing.T, st *memory.Store) *core.Group {
	t.Helper()

	g := &core.Group{
		ID:      "g1",
		Name:    "trip",
		Members: []string{"alice", "bob"},
		Expenses: map[string]core.GroupExpense{
			"e1": {
				ID:     "e1",
				Title:  "hotel",
				Amount: core.NewMoney(8000),
				Method: core.SplitEqually,
				PaidBy: map[string]core.Money{"alice": core.NewMoney(8000)},
				Debtors: map[string]core.Money{
					"alice": core.NewMoney(4000),
					"bob":   core.NewMoney(4000),
				},
			},
		},
		Payments:  map[string]core.Payment{},
		Version:   1,
		CreatedAt: time.Now().UTC(),
	}
	if err := st.PutGroup(context.Background(), g); err != nil {
		t.Fatalf("PutGroup: %v", err)
	}
	return g
}

func TestExportWorker_HandleSyncMessage(t *testing.T) {
	st := memory.New()
	writer := expmem.New()
	g := storedGroup(t, st)
	st.SetDisplayName("alice", "Alice A")

	w := NewExportWorker(st, st, writer, 10)
	msg := amqp.NewGroupSyncMessage(g.ID, g.Version)
	if err := w.HandleSyncMessage(context.Background(), msg); err != nil {
		t.Fatalf("HandleSyncMessage: %v", err)
	}

	snap, ok := writer.Latest(g.ID)
	if !ok {
		t.Fatal("no snapshot written")
	}
	if snap.Version != 1 || snap.GroupName != "trip" {
		t.Errorf("snapshot = %+v, want version 1 for trip", snap)
	}
	if len(snap.Entries) != 1 {
		t.Fatalf("entries = %d, want 1", len(snap.Entries))
	}
	if e := snap.Entries[0]; e.Debtor != "bob" || e.Creditor != "alice" || e.Amount.Cents != 4000 {
		t.Errorf("entry = %+v, want bob owes alice 40.00", e)
	}

	// The export must clear the pending mark.
	pending, err := st.ListPendingExport(context.Background(), 10)
	if err != nil {
		t.Fatalf("ListPendingExport: %v", err)
	}
	if len(pending) != 0 {
		t.Errorf("pending after export = %v, want none", pending)
	}
}

func TestExportWorker_ExportGroup_GoneGroup(t *testing.T) {
	w := NewExportWorker(memory.New(), nil, expmem.New(), 10)

	// A message for a deleted group is dropped, not requeued forever.
	if err := w.ExportGroup(context.Background(), "missing"); err != nil {
		t.Fatalf("ExportGroup for missing group: %v", err)
	}
}

func TestExportWorker_ProcessPending(t *testing.T) {
	st := memory.New()
	writer := expmem.New()
	storedGroup(t, st)

	w := NewExportWorker(st, nil, writer, 10)
	if err := w.ProcessPending(context.Background()); err != nil {
		t.Fatalf("ProcessPending: %v", err)
	}
	if writer.Writes() != 1 {
		t.Errorf("writes = %d, want 1", writer.Writes())
	}

	// Nothing pending on the second pass.
	if err := w.ProcessPending(context.Background()); err != nil {
		t.Fatalf("second ProcessPending: %v", err)
	}
	if writer.Writes() != 1 {
		t.Errorf("writes after drained queue = %d, want 1", writer.Writes())
	}
}
