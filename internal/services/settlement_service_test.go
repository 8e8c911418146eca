package services

import (
	"context"
	"errors"
	"testing"

	"splitledger/internal/core"
	"splitledger/internal/store"
)

func cents(t *testing.T, s string) core.Money {
	t.Helper()
	m, err := core.ParseMoney(s)
	if err != nil {
		t.Fatalf("ParseMoney(%q): %v", s, err)
	}
	return m
}

// newSettledGroup builds a group where bob owes alice 33.33 and carol
// owes alice 33.33 (100.00 dinner paid by alice, split equally).
func newSettledGroup(t *testing.T) (*GroupExpenseService, *SettlementProcessor, string) {
	t.Helper()

	svc, g := newTestService(t)
	if _, err := svc.AddExpense(context.Background(), g.ID, equalInput("100.00", "alice", "alice", "bob", "carol")); err != nil {
		t.Fatalf("AddExpense: %v", err)
	}
	return svc, NewSettlementProcessor(svc), g.ID
}

func TestSettlementProcessor_RecordPayment(t *testing.T) {
	svc, proc, groupID := newSettledGroup(t)
	ctx := context.Background()

	payment, err := proc.RecordPayment(ctx, groupID, "bob", "alice", cents(t, "33.33"))
	if err != nil {
		t.Fatalf("RecordPayment: %v", err)
	}
	if payment.ID == "" {
		t.Error("RecordPayment should assign an id")
	}

	summary, err := svc.BalancesFor(ctx, groupID, "bob")
	if err != nil {
		t.Fatalf("BalancesFor: %v", err)
	}
	if got := summary.Balances["alice"].Cents; got != 0 {
		t.Errorf("bob's balance to alice after full settlement = %d, want 0", got)
	}
}

func TestSettlementProcessor_RecordPayment_PartialThenRest(t *testing.T) {
	svc, proc, groupID := newSettledGroup(t)
	ctx := context.Background()

	if _, err := proc.RecordPayment(ctx, groupID, "bob", "alice", cents(t, "20.00")); err != nil {
		t.Fatalf("partial payment: %v", err)
	}

	summary, err := svc.BalancesFor(ctx, groupID, "bob")
	if err != nil {
		t.Fatalf("BalancesFor: %v", err)
	}
	if got := summary.Balances["alice"].Cents; got != -1333 {
		t.Errorf("bob still owes %d, want -1333", got)
	}

	if _, err := proc.RecordPayment(ctx, groupID, "bob", "alice", cents(t, "13.33")); err != nil {
		t.Fatalf("remainder payment: %v", err)
	}
}

func TestSettlementProcessor_RecordPayment_Overpayment(t *testing.T) {
	_, proc, groupID := newSettledGroup(t)
	ctx := context.Background()

	// bob owes 33.33; one cent more is rejected.
	_, err := proc.RecordPayment(ctx, groupID, "bob", "alice", cents(t, "33.34"))
	if !errors.Is(err, core.ErrExceedsOwedAmount) {
		t.Fatalf("error = %v, want ErrExceedsOwedAmount", err)
	}

	// alice owes bob nothing, so any payment from alice overpays.
	_, err = proc.RecordPayment(ctx, groupID, "alice", "bob", cents(t, "0.01"))
	if !errors.Is(err, core.ErrExceedsOwedAmount) {
		t.Fatalf("reverse-direction error = %v, want ErrExceedsOwedAmount", err)
	}
}

func TestSettlementProcessor_RecordPayment_Validation(t *testing.T) {
	_, proc, groupID := newSettledGroup(t)
	ctx := context.Background()

	if _, err := proc.RecordPayment(ctx, groupID, "bob", "alice", core.Money{}); !errors.Is(err, core.ErrInvalidAmount) {
		t.Errorf("zero amount error = %v, want ErrInvalidAmount", err)
	}
	if _, err := proc.RecordPayment(ctx, groupID, "bob", "bob", cents(t, "1.00")); !errors.Is(err, core.ErrInvalidPayment) {
		t.Errorf("payer == payee error = %v, want ErrInvalidPayment", err)
	}
	if _, err := proc.RecordPayment(ctx, groupID, "dave", "alice", cents(t, "1.00")); !errors.Is(err, core.ErrUnknownMember) {
		t.Errorf("unknown payer error = %v, want ErrUnknownMember", err)
	}
	if _, err := proc.RecordPayment(ctx, groupID, "bob", "dave", cents(t, "1.00")); !errors.Is(err, core.ErrUnknownMember) {
		t.Errorf("unknown payee error = %v, want ErrUnknownMember", err)
	}
}

func TestSettlementProcessor_DeletePayment_RestoresDebt(t *testing.T) {
	svc, proc, groupID := newSettledGroup(t)
	ctx := context.Background()

	payment, err := proc.RecordPayment(ctx, groupID, "bob", "alice", cents(t, "33.33"))
	if err != nil {
		t.Fatalf("RecordPayment: %v", err)
	}
	if err := proc.DeletePayment(ctx, groupID, payment.ID); err != nil {
		t.Fatalf("DeletePayment: %v", err)
	}

	summary, err := svc.BalancesFor(ctx, groupID, "bob")
	if err != nil {
		t.Fatalf("BalancesFor: %v", err)
	}
	if got := summary.Balances["alice"].Cents; got != -3333 {
		t.Errorf("bob's debt after delete = %d, want -3333", got)
	}
}

func TestSettlementProcessor_DeletePayment_Missing(t *testing.T) {
	_, proc, groupID := newSettledGroup(t)

	err := proc.DeletePayment(context.Background(), groupID, "nope")
	if !errors.Is(err, store.ErrNotFound) {
		t.Errorf("error = %v, want ErrNotFound", err)
	}
}

func TestSettlementProcessor_RecomputeGroup(t *testing.T) {
	svc, proc, groupID := newSettledGroup(t)
	ctx := context.Background()

	if _, err := proc.RecordPayment(ctx, groupID, "carol", "alice", cents(t, "33.33")); err != nil {
		t.Fatalf("RecordPayment: %v", err)
	}

	snap, err := proc.RecomputeGroup(ctx, groupID)
	if err != nil {
		t.Fatalf("RecomputeGroup: %v", err)
	}
	if len(snap.Entries) != 1 {
		t.Fatalf("entries = %d, want 1", len(snap.Entries))
	}
	if e := snap.Entries[0]; e.Debtor != "bob" || e.Creditor != "alice" || e.Amount.Cents != 3333 {
		t.Errorf("entry = %+v, want bob owes alice 33.33", e)
	}

	// The recomputed snapshot is what subsequent reads serve.
	cached, err := svc.GroupBalances(ctx, groupID)
	if err != nil {
		t.Fatalf("GroupBalances: %v", err)
	}
	if cached.Version != snap.Version {
		t.Errorf("cached version = %d, want %d", cached.Version, snap.Version)
	}
}
