package core

import (
	"errors"
	"fmt"
	"sort"
	"strings"
	"time"
)

// Split methods supported for group expenses.
const (
	SplitEqually     SplitMethod = "equally"
	SplitPercentages SplitMethod = "percentages"
	SplitCustom      SplitMethod = "custom"
)

type (
	// SplitMethod selects how an expense amount is divided into
	// per-member shares.
	SplitMethod string

	// Group is the unit of ledger isolation. It exclusively owns its
	// expense and payment collections; balances from one group never
	// affect another. Version increases on every committed mutation and
	// backs stale-write detection in the store.
	Group struct {
		ID        string
		Name      string
		ImageRef  string
		Members   []string
		Expenses  map[string]GroupExpense
		Payments  map[string]Payment
		Version   int64
		CreatedAt time.Time
	}

	// GroupExpense is a shared cost. PaidBy records what each member
	// actually fronted; Debtors records each member's allocated share.
	// Both maps sum exactly to Amount.
	GroupExpense struct {
		ID       string
		Title    string
		Category string
		Amount   Money
		Notes    string
		AddedAt  time.Time
		Method   SplitMethod
		PaidBy   map[string]Money
		Debtors  map[string]Money
	}

	// Payment is a settlement transfer that reduces PayerID's debt to
	// PayeeID. A recorded payment is immutable; correcting a mistake is
	// delete-then-recreate.
	Payment struct {
		ID        string
		Amount    Money
		CreatedAt time.Time
		PayerID   string
		PayeeID   string
	}
)

var (
	ErrInvalidAmount          = errors.New("invalid amount")
	ErrInvalidPayment         = errors.New("invalid payment")
	ErrInvalidSplit           = errors.New("invalid split")
	ErrUnknownMember          = errors.New("unknown member")
	ErrExceedsOwedAmount      = errors.New("payment exceeds owed amount")
	ErrInconsistentExpense    = errors.New("inconsistent expense")
	ErrDivisionByZero         = errors.New("division by zero")
	ErrConcurrentModification = errors.New("concurrent modification")
)

// IsValid reports whether the method is one of the supported splits.
func (m SplitMethod) IsValid() bool {
	switch m {
	case SplitEqually, SplitPercentages, SplitCustom:
		return true
	default:
		return false
	}
}

// HasMember reports whether the given member id belongs to the group.
func (g *Group) HasMember(id string) bool {
	for _, m := range g.Members {
		if m == id {
			return true
		}
	}
	return false
}

// SortedMembers returns the member ids in ascending order. Remainder
// distribution and tie-breaking rules all key off this ordering.
func (g *Group) SortedMembers() []string {
	out := append([]string(nil), g.Members...)
	sort.Strings(out)
	return out
}

// Clone returns a deep copy. Services mutate the copy, persist it, and
// only then treat the mutation as committed.
func (g *Group) Clone() *Group {
	cp := &Group{
		ID:        g.ID,
		Name:      g.Name,
		ImageRef:  g.ImageRef,
		Members:   append([]string(nil), g.Members...),
		Expenses:  make(map[string]GroupExpense, len(g.Expenses)),
		Payments:  make(map[string]Payment, len(g.Payments)),
		Version:   g.Version,
		CreatedAt: g.CreatedAt,
	}
	for id, e := range g.Expenses {
		cp.Expenses[id] = e.clone()
	}
	for id, p := range g.Payments {
		cp.Payments[id] = p
	}
	return cp
}

// Validate checks the group document as loaded from the store. The
// store is shared with other writers, so a load is always revalidated
// before the group enters a read-modify-write cycle.
func (g *Group) Validate() error {
	if strings.TrimSpace(g.ID) == "" {
		return errors.New("group id cannot be empty")
	}
	if strings.TrimSpace(g.Name) == "" {
		return errors.New("group name cannot be empty")
	}
	if len(g.Members) == 0 {
		return errors.New("group must have at least one member")
	}
	seen := make(map[string]struct{}, len(g.Members))
	for _, m := range g.Members {
		if strings.TrimSpace(m) == "" {
			return errors.New("member id cannot be empty")
		}
		if _, dup := seen[m]; dup {
			return fmt.Errorf("duplicate member %q", m)
		}
		seen[m] = struct{}{}
	}
	for id, e := range g.Expenses {
		if err := e.Validate(); err != nil {
			return fmt.Errorf("expense %s: %w", id, err)
		}
		for member := range e.PaidBy {
			if !g.HasMember(member) {
				return fmt.Errorf("expense %s: %w: payer %q", id, ErrUnknownMember, member)
			}
		}
		for member := range e.Debtors {
			if !g.HasMember(member) {
				return fmt.Errorf("expense %s: %w: debtor %q", id, ErrUnknownMember, member)
			}
		}
	}
	for id, p := range g.Payments {
		if err := p.Validate(); err != nil {
			return fmt.Errorf("payment %s: %w", id, err)
		}
		if !g.HasMember(p.PayerID) || !g.HasMember(p.PayeeID) {
			return fmt.Errorf("payment %s: %w", id, ErrUnknownMember)
		}
	}
	return nil
}

func (e GroupExpense) clone() GroupExpense {
	cp := e
	cp.PaidBy = make(map[string]Money, len(e.PaidBy))
	for k, v := range e.PaidBy {
		cp.PaidBy[k] = v
	}
	cp.Debtors = make(map[string]Money, len(e.Debtors))
	for k, v := range e.Debtors {
		cp.Debtors[k] = v
	}
	return cp
}

// Validate enforces the expense invariants: a positive amount, a valid
// split method, and paid/owed maps that each sum exactly to the amount.
func (e GroupExpense) Validate() error {
	if strings.TrimSpace(e.Title) == "" {
		return errors.New("expense title cannot be empty")
	}
	if err := e.Amount.Validate(); err != nil {
		return err
	}
	if !e.Method.IsValid() {
		return fmt.Errorf("%w: unknown split method %q", ErrInconsistentExpense, e.Method)
	}
	var paid, owed Money
	for _, v := range e.PaidBy {
		paid = paid.Add(v)
	}
	for _, v := range e.Debtors {
		owed = owed.Add(v)
	}
	if paid != e.Amount {
		return fmt.Errorf("%w: paid amounts sum to %s, expected %s", ErrInconsistentExpense, paid, e.Amount)
	}
	if owed != e.Amount {
		return fmt.Errorf("%w: shares sum to %s, expected %s", ErrInconsistentExpense, owed, e.Amount)
	}
	return nil
}

// Validate enforces the payment invariants.
func (p Payment) Validate() error {
	if err := p.Amount.Validate(); err != nil {
		return err
	}
	if p.PayerID == "" || p.PayeeID == "" {
		return fmt.Errorf("%w: payer and payee are required", ErrInvalidPayment)
	}
	if p.PayerID == p.PayeeID {
		return fmt.Errorf("%w: payer and payee must be distinct", ErrInvalidPayment)
	}
	return nil
}
