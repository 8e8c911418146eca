// Package split turns an expense amount and a split method into exact
// per-member allocations. All strategies work in integer minor units
// and guarantee that the produced shares sum exactly to the amount.
package split

import (
	"fmt"

	"splitledger/internal/core"
)

// Params carries the method-specific inputs for a split. Debtors is
// always required; Percentages and Shares are read by the matching
// strategy only.
type Params struct {
	Debtors     []string
	Percentages map[string]int64      // percentages method: percent per debtor, summing to 100
	Shares      map[string]core.Money // custom method: explicit share per debtor
}

// Strategy computes the debtor shares for one split method.
type Strategy interface {
	Method() core.SplitMethod

	// Validate checks the method-specific inputs without computing
	// anything. It runs before any mutation.
	Validate(amount core.Money, p Params) error

	// Shares returns the per-debtor allocation, summing exactly to
	// amount.
	Shares(amount core.Money, p Params) (map[string]core.Money, error)
}

// ForMethod returns the strategy implementing the given split method.
func ForMethod(m core.SplitMethod) (Strategy, error) {
	switch m {
	case core.SplitEqually:
		return equallyStrategy{}, nil
	case core.SplitPercentages:
		return percentagesStrategy{}, nil
	case core.SplitCustom:
		return customStrategy{}, nil
	default:
		return nil, fmt.Errorf("%w: unknown split method %q", core.ErrInvalidSplit, m)
	}
}

// Result is a computed allocation: what each payer fronted and what
// each debtor owes. Both maps sum to the expense amount.
type Result struct {
	PaidBy  map[string]core.Money
	Debtors map[string]core.Money
}

// Compute validates every input and produces the allocation for an
// expense. members is the group's member set; debtors, payers and any
// method parameter referencing someone outside it fail with
// ErrUnknownMember. The paid amounts must sum to the expense amount
// regardless of method.
func Compute(amount core.Money, method core.SplitMethod, p Params, paidBy map[string]core.Money, members []string) (Result, error) {
	if !amount.IsPositive() {
		return Result{}, fmt.Errorf("%w: amount must be greater than zero", core.ErrInvalidSplit)
	}
	if len(p.Debtors) == 0 {
		return Result{}, fmt.Errorf("%w: at least one debtor is required", core.ErrInvalidSplit)
	}
	if len(paidBy) == 0 {
		return Result{}, fmt.Errorf("%w: at least one payer is required", core.ErrInvalidSplit)
	}

	memberSet := make(map[string]struct{}, len(members))
	for _, m := range members {
		memberSet[m] = struct{}{}
	}
	seen := make(map[string]struct{}, len(p.Debtors))
	for _, d := range p.Debtors {
		if _, ok := memberSet[d]; !ok {
			return Result{}, fmt.Errorf("%w: debtor %q is not in the group", core.ErrUnknownMember, d)
		}
		if _, dup := seen[d]; dup {
			return Result{}, fmt.Errorf("%w: debtor %q listed twice", core.ErrInvalidSplit, d)
		}
		seen[d] = struct{}{}
	}

	var paid core.Money
	for payer, amt := range paidBy {
		if _, ok := memberSet[payer]; !ok {
			return Result{}, fmt.Errorf("%w: payer %q is not in the group", core.ErrUnknownMember, payer)
		}
		if amt.IsNegative() {
			return Result{}, fmt.Errorf("%w: payer %q has a negative paid amount", core.ErrInvalidSplit, payer)
		}
		paid = paid.Add(amt)
	}
	if paid != amount {
		return Result{}, fmt.Errorf("%w: paid amounts sum to %s, expected %s", core.ErrInvalidSplit, paid, amount)
	}

	for member := range p.Percentages {
		if _, ok := memberSet[member]; !ok {
			return Result{}, fmt.Errorf("%w: percentage given for %q who is not in the group", core.ErrUnknownMember, member)
		}
	}
	for member := range p.Shares {
		if _, ok := memberSet[member]; !ok {
			return Result{}, fmt.Errorf("%w: share given for %q who is not in the group", core.ErrUnknownMember, member)
		}
	}

	strategy, err := ForMethod(method)
	if err != nil {
		return Result{}, err
	}
	if err := strategy.Validate(amount, p); err != nil {
		return Result{}, err
	}
	shares, err := strategy.Shares(amount, p)
	if err != nil {
		return Result{}, err
	}

	out := Result{
		PaidBy:  make(map[string]core.Money, len(paidBy)),
		Debtors: shares,
	}
	for payer, amt := range paidBy {
		out.PaidBy[payer] = amt
	}
	return out, nil
}
