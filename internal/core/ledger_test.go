package core

import (
	"errors"
	"fmt"
	"testing"
	"time"
)

func equalExpense(id string, amount int64, payer string, debtors []string) GroupExpense {
	shares, err := NewMoney(amount).Divide(len(debtors))
	if err != nil {
		panic(err)
	}
	owed := make(map[string]Money, len(debtors))
	for i, d := range debtors {
		owed[d] = shares[i]
	}
	return GroupExpense{
		ID:      id,
		Title:   "test expense " + id,
		Amount:  NewMoney(amount),
		AddedAt: time.Now(),
		Method:  SplitEqually,
		PaidBy:  map[string]Money{payer: NewMoney(amount)},
		Debtors: owed,
	}
}

func testGroup(members ...string) *Group {
	return &Group{
		ID:       "g1",
		Name:     "trip",
		Members:  members,
		Expenses: map[string]GroupExpense{},
		Payments: map[string]Payment{},
		Version:  1,
	}
}

// Group of three, A pays 100.00 split equally; the extra cent goes to
// the lexicographically first debtor.
func TestLedgerSingleExpense(t *testing.T) {
	l := NewLedger()
	e := equalExpense("e1", 10000, "alice", []string{"alice", "bob", "carol"})
	if err := l.ApplyExpense(e); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if got := l.Owed("bob", "alice"); got.Cents != 3333 {
		t.Fatalf("bob owes alice: expected 3333, got %d", got.Cents)
	}
	if got := l.Owed("carol", "alice"); got.Cents != 3333 {
		t.Fatalf("carol owes alice: expected 3333, got %d", got.Cents)
	}
	if got := l.Owed("alice", "bob"); got.Cents != -3333 {
		t.Fatalf("owed must be antisymmetric, got %d", got.Cents)
	}
	if got := l.NonZeroPairs(); got > 2 {
		t.Fatalf("single expense with 3 participants must introduce at most 2 pairs, got %d", got)
	}
}

func TestLedgerGreedyMinimality(t *testing.T) {
	for k := 2; k <= 10; k++ {
		l := NewLedger()
		members := make([]string, k)
		for i := range members {
			members[i] = fmt.Sprintf("m%02d", i)
		}
		e := equalExpense("e1", 12345, members[0], members)
		if err := l.ApplyExpense(e); err != nil {
			t.Fatalf("k=%d: unexpected error: %v", k, err)
		}
		if got := l.NonZeroPairs(); got > k-1 {
			t.Fatalf("k=%d: expected at most %d non-zero pairs, got %d", k, k-1, got)
		}
	}
}

func TestLedgerMultiplePayers(t *testing.T) {
	// Dinner for 90.00: alice fronts 60.00, bob fronts 30.00, split
	// equally three ways. Carol's 30.00 share settles against the
	// largest creditor first.
	l := NewLedger()
	e := GroupExpense{
		ID:     "e1",
		Title:  "dinner",
		Amount: NewMoney(9000),
		Method: SplitEqually,
		PaidBy: map[string]Money{
			"alice": NewMoney(6000),
			"bob":   NewMoney(3000),
		},
		Debtors: map[string]Money{
			"alice": NewMoney(3000),
			"bob":   NewMoney(3000),
			"carol": NewMoney(3000),
		},
	}
	if err := l.ApplyExpense(e); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	// Nets: alice +30.00, bob 0, carol -30.00.
	if got := l.Owed("carol", "alice"); got.Cents != 3000 {
		t.Fatalf("carol owes alice: expected 3000, got %d", got.Cents)
	}
	if got := l.Owed("carol", "bob"); got.Cents != 0 {
		t.Fatalf("carol owes bob: expected 0, got %d", got.Cents)
	}
}

func TestLedgerRejectsInconsistentExpense(t *testing.T) {
	l := NewLedger()
	e := GroupExpense{
		ID:     "bad",
		Title:  "broken",
		Amount: NewMoney(10000),
		Method: SplitEqually,
		PaidBy: map[string]Money{"alice": NewMoney(10000)},
		Debtors: map[string]Money{
			"alice": NewMoney(5000),
			"bob":   NewMoney(4500), // sums to 95.00
		},
	}
	err := l.ApplyExpense(e)
	if !errors.Is(err, ErrInconsistentExpense) {
		t.Fatalf("expected ErrInconsistentExpense, got %v", err)
	}
	if l.NonZeroPairs() != 0 {
		t.Fatalf("rejected expense must not touch the ledger")
	}
}

func TestLedgerPaymentRoundTrip(t *testing.T) {
	l := NewLedger()
	e := equalExpense("e1", 10000, "alice", []string{"alice", "bob", "carol"})
	if err := l.ApplyExpense(e); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	p := Payment{ID: "p1", Amount: NewMoney(3333), PayerID: "bob", PayeeID: "alice"}
	l.ApplyPayment(p)
	if got := l.Owed("bob", "alice"); got.Cents != 0 {
		t.Fatalf("after payment: expected 0, got %d", got.Cents)
	}

	l.RemovePayment(p)
	if got := l.Owed("bob", "alice"); got.Cents != 3333 {
		t.Fatalf("after deleting payment: expected 3333, got %d", got.Cents)
	}
}

func TestLedgerRemoveExpenseReverses(t *testing.T) {
	l := NewLedger()
	e1 := equalExpense("e1", 10000, "alice", []string{"alice", "bob", "carol"})
	e2 := equalExpense("e2", 4200, "bob", []string{"bob", "carol"})
	for _, e := range []GroupExpense{e1, e2} {
		if err := l.ApplyExpense(e); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
	}
	if err := l.RemoveExpense(e2); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if err := l.RemoveExpense(e1); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got := l.NonZeroPairs(); got != 0 {
		t.Fatalf("removing all expenses must empty the ledger, got %d pairs", got)
	}
}

// Incremental application must agree with a full recomputation for any
// causal ordering of events.
func TestLedgerIncrementalMatchesRecompute(t *testing.T) {
	g := testGroup("alice", "bob", "carol", "dave")
	expenses := []GroupExpense{
		equalExpense("e1", 10000, "alice", []string{"alice", "bob", "carol"}),
		equalExpense("e2", 7577, "bob", []string{"bob", "carol", "dave"}),
		equalExpense("e3", 333, "carol", []string{"alice", "carol"}),
	}
	payments := []Payment{
		{ID: "p1", Amount: NewMoney(2000), PayerID: "bob", PayeeID: "alice"},
		{ID: "p2", Amount: NewMoney(100), PayerID: "carol", PayeeID: "bob"},
	}

	inc := NewLedger()
	for _, e := range expenses {
		g.Expenses[e.ID] = e
		if err := inc.ApplyExpense(e); err != nil {
			t.Fatalf("apply %s: %v", e.ID, err)
		}
	}
	for _, p := range payments {
		g.Payments[p.ID] = p
		inc.ApplyPayment(p)
	}
	// Delete one expense along the way; the group history ends without it.
	if err := inc.RemoveExpense(expenses[2]); err != nil {
		t.Fatalf("remove e3: %v", err)
	}
	delete(g.Expenses, "e3")

	full, err := RecomputeLedger(g)
	if err != nil {
		t.Fatalf("recompute: %v", err)
	}

	for _, a := range g.Members {
		for _, b := range g.Members {
			if a == b {
				continue
			}
			if inc.Owed(a, b) != full.Owed(a, b) {
				t.Fatalf("owed(%s,%s): incremental %s != recomputed %s",
					a, b, inc.Owed(a, b), full.Owed(a, b))
			}
		}
	}
}

func TestLedgerBalancesForAndSummary(t *testing.T) {
	l := NewLedger()
	e := equalExpense("e1", 10000, "alice", []string{"alice", "bob", "carol"})
	if err := l.ApplyExpense(e); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	bal := l.BalancesFor("alice")
	if bal["bob"].Cents != 3333 || bal["carol"].Cents != 3333 {
		t.Fatalf("alice balances wrong: %v", bal)
	}
	if got := l.BalancesFor("bob")["alice"]; got.Cents != -3333 {
		t.Fatalf("bob owes alice: expected -3333, got %d", got.Cents)
	}

	sum := l.SummaryFor("alice")
	if sum.TotalOwed.Cents != 6666 || sum.TotalOwing.Cents != 0 {
		t.Fatalf("alice summary wrong: owed %d owing %d", sum.TotalOwed.Cents, sum.TotalOwing.Cents)
	}
	sum = l.SummaryFor("bob")
	if sum.TotalOwed.Cents != 0 || sum.TotalOwing.Cents != 3333 {
		t.Fatalf("bob summary wrong: owed %d owing %d", sum.TotalOwed.Cents, sum.TotalOwing.Cents)
	}
}

func TestLedgerEntriesDeterministic(t *testing.T) {
	l := NewLedger()
	e := equalExpense("e1", 10000, "alice", []string{"alice", "bob", "carol"})
	if err := l.ApplyExpense(e); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	entries := l.Entries()
	if len(entries) != 2 {
		t.Fatalf("expected 2 entries, got %d", len(entries))
	}
	if entries[0].Debtor != "bob" || entries[1].Debtor != "carol" {
		t.Fatalf("entries must be ordered by debtor: %+v", entries)
	}
	for _, en := range entries {
		if en.Creditor != "alice" || en.Amount.Cents != 3333 {
			t.Fatalf("unexpected entry: %+v", en)
		}
	}
}
