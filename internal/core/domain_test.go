package core

import (
	"errors"
	"testing"
	"time"
)

func TestSplitMethodIsValid(t *testing.T) {
	for _, m := range []SplitMethod{SplitEqually, SplitPercentages, SplitCustom} {
		if !m.IsValid() {
			t.Fatalf("%q should be valid", m)
		}
	}
	if SplitMethod("evenly").IsValid() {
		t.Fatalf("unknown method should be invalid")
	}
}

func TestGroupExpenseValidate(t *testing.T) {
	good := GroupExpense{
		ID:      "e1",
		Title:   "groceries",
		Amount:  NewMoney(3000),
		AddedAt: time.Now(),
		Method:  SplitEqually,
		PaidBy:  map[string]Money{"alice": NewMoney(3000)},
		Debtors: map[string]Money{"alice": NewMoney(1500), "bob": NewMoney(1500)},
	}
	if err := good.Validate(); err != nil {
		t.Fatalf("expected ok, got %v", err)
	}

	cases := []struct {
		name   string
		mutate func(*GroupExpense)
	}{
		{"empty title", func(e *GroupExpense) { e.Title = " " }},
		{"zero amount", func(e *GroupExpense) { e.Amount = Money{} }},
		{"unknown method", func(e *GroupExpense) { e.Method = "thirds" }},
		{"paid sum mismatch", func(e *GroupExpense) { e.PaidBy = map[string]Money{"alice": NewMoney(2999)} }},
		{"debtor sum mismatch", func(e *GroupExpense) { e.Debtors["bob"] = NewMoney(1000) }},
	}
	for _, tc := range cases {
		e := good.clone()
		tc.mutate(&e)
		if err := e.Validate(); err == nil {
			t.Fatalf("%s: expected error", tc.name)
		}
	}
}

func TestPaymentValidate(t *testing.T) {
	good := Payment{ID: "p1", Amount: NewMoney(100), PayerID: "bob", PayeeID: "alice"}
	if err := good.Validate(); err != nil {
		t.Fatalf("expected ok, got %v", err)
	}

	bads := []Payment{
		{ID: "p2", Amount: NewMoney(0), PayerID: "bob", PayeeID: "alice"},
		{ID: "p3", Amount: NewMoney(100), PayerID: "bob", PayeeID: "bob"},
		{ID: "p4", Amount: NewMoney(100), PayerID: "", PayeeID: "alice"},
	}
	for i, p := range bads {
		if err := p.Validate(); err == nil {
			t.Fatalf("case %d expected error", i)
		}
	}
}

func TestGroupValidate(t *testing.T) {
	g := testGroup("alice", "bob")
	g.Expenses["e1"] = GroupExpense{
		ID:      "e1",
		Title:   "rent",
		Amount:  NewMoney(2000),
		Method:  SplitEqually,
		PaidBy:  map[string]Money{"alice": NewMoney(2000)},
		Debtors: map[string]Money{"alice": NewMoney(1000), "bob": NewMoney(1000)},
	}
	if err := g.Validate(); err != nil {
		t.Fatalf("expected ok, got %v", err)
	}

	t.Run("duplicate member", func(t *testing.T) {
		bad := testGroup("alice", "alice")
		if err := bad.Validate(); err == nil {
			t.Fatalf("expected error")
		}
	})

	t.Run("expense references non-member", func(t *testing.T) {
		bad := g.Clone()
		e := bad.Expenses["e1"]
		e.Debtors = map[string]Money{"alice": NewMoney(1000), "mallory": NewMoney(1000)}
		bad.Expenses["e1"] = e
		err := bad.Validate()
		if !errors.Is(err, ErrUnknownMember) {
			t.Fatalf("expected ErrUnknownMember, got %v", err)
		}
	})

	t.Run("payment references non-member", func(t *testing.T) {
		bad := g.Clone()
		bad.Payments["p1"] = Payment{ID: "p1", Amount: NewMoney(100), PayerID: "mallory", PayeeID: "alice"}
		err := bad.Validate()
		if !errors.Is(err, ErrUnknownMember) {
			t.Fatalf("expected ErrUnknownMember, got %v", err)
		}
	})
}

func TestGroupCloneIsDeep(t *testing.T) {
	g := testGroup("alice", "bob")
	g.Expenses["e1"] = GroupExpense{
		ID:      "e1",
		Title:   "rent",
		Amount:  NewMoney(2000),
		Method:  SplitEqually,
		PaidBy:  map[string]Money{"alice": NewMoney(2000)},
		Debtors: map[string]Money{"alice": NewMoney(1000), "bob": NewMoney(1000)},
	}

	cp := g.Clone()
	e := cp.Expenses["e1"]
	e.Debtors["bob"] = NewMoney(9999)
	cp.Expenses["e1"] = e
	cp.Members[0] = "mallory"

	if g.Expenses["e1"].Debtors["bob"].Cents != 1000 {
		t.Fatalf("clone must not share debtor maps")
	}
	if g.Members[0] != "alice" {
		t.Fatalf("clone must not share the member slice")
	}
}
