package core

import (
	"fmt"
	"sort"
	"time"
)

// Pair identifies an unordered member pair. Low sorts before High, so
// each pair has exactly one key regardless of direction.
type Pair struct {
	Low  string
	High string
}

// PairOf builds the canonical key for two member ids.
func PairOf(a, b string) Pair {
	if a < b {
		return Pair{Low: a, High: b}
	}
	return Pair{Low: b, High: a}
}

// Ledger holds the net pairwise balances of one group. A single signed
// scalar is kept per unordered pair: a positive value means High owes
// Low, a negative value means Low owes High. The ledger is derived
// state, recomputable at any time from the group's expenses and
// payments, and is never persisted as a source of truth.
type Ledger struct {
	balances map[Pair]int64
}

// NewLedger returns an empty ledger.
func NewLedger() *Ledger {
	return &Ledger{balances: make(map[Pair]int64)}
}

// RecomputeLedger derives the full pairwise state from scratch. It
// refuses to ingest an expense that violates its sum invariants rather
// than silently skipping it.
func RecomputeLedger(g *Group) (*Ledger, error) {
	l := NewLedger()
	ids := make([]string, 0, len(g.Expenses))
	for id := range g.Expenses {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	for _, id := range ids {
		if err := l.ApplyExpense(g.Expenses[id]); err != nil {
			return nil, fmt.Errorf("expense %s: %w", id, err)
		}
	}
	for _, p := range g.Payments {
		l.ApplyPayment(p)
	}
	return l, nil
}

// ApplyExpense adds one expense's contribution to the pairwise state.
func (l *Ledger) ApplyExpense(e GroupExpense) error {
	deltas, err := expenseDeltas(e)
	if err != nil {
		return err
	}
	l.apply(deltas, 1)
	return nil
}

// RemoveExpense subtracts one expense's contribution. The deltas are a
// pure function of the expense, so removal inverts exactly what
// ApplyExpense added.
func (l *Ledger) RemoveExpense(e GroupExpense) error {
	deltas, err := expenseDeltas(e)
	if err != nil {
		return err
	}
	l.apply(deltas, -1)
	return nil
}

// ApplyPayment reduces what the payer owes the payee by the payment
// amount.
func (l *Ledger) ApplyPayment(p Payment) {
	l.addOwed(p.PayerID, p.PayeeID, -p.Amount.Cents)
}

// RemovePayment restores the debt a payment had settled.
func (l *Ledger) RemovePayment(p Payment) {
	l.addOwed(p.PayerID, p.PayeeID, p.Amount.Cents)
}

// Owed returns the net amount payer currently owes payee. A negative
// result means the payee owes the payer instead.
func (l *Ledger) Owed(payer, payee string) Money {
	k := PairOf(payer, payee)
	v := l.balances[k]
	if payer == k.High {
		return Money{Cents: v}
	}
	return Money{Cents: -v}
}

// BalancesFor returns every non-zero balance involving the member,
// keyed by counterparty. Positive means the counterparty owes the
// member; negative means the member owes the counterparty.
func (l *Ledger) BalancesFor(member string) map[string]Money {
	out := make(map[string]Money)
	for k, v := range l.balances {
		if v == 0 {
			continue
		}
		switch member {
		case k.Low:
			out[k.High] = Money{Cents: v}
		case k.High:
			out[k.Low] = Money{Cents: -v}
		}
	}
	return out
}

// NonZeroPairs counts pairs with an outstanding balance.
func (l *Ledger) NonZeroPairs() int {
	n := 0
	for _, v := range l.balances {
		if v != 0 {
			n++
		}
	}
	return n
}

// Entries lists all outstanding debts as (debtor, creditor, amount),
// ordered deterministically for stable snapshots.
func (l *Ledger) Entries() []BalanceEntry {
	var out []BalanceEntry
	for k, v := range l.balances {
		switch {
		case v > 0:
			out = append(out, BalanceEntry{Debtor: k.High, Creditor: k.Low, Amount: Money{Cents: v}})
		case v < 0:
			out = append(out, BalanceEntry{Debtor: k.Low, Creditor: k.High, Amount: Money{Cents: -v}})
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Debtor != out[j].Debtor {
			return out[i].Debtor < out[j].Debtor
		}
		return out[i].Creditor < out[j].Creditor
	})
	return out
}

func (l *Ledger) apply(deltas map[Pair]int64, sign int64) {
	for k, v := range deltas {
		l.balances[k] += sign * v
		if l.balances[k] == 0 {
			delete(l.balances, k)
		}
	}
}

// addOwed shifts the amount debtor owes creditor by cents, respecting
// the pair sign convention.
func (l *Ledger) addOwed(debtor, creditor string, cents int64) {
	k := PairOf(debtor, creditor)
	if debtor == k.High {
		l.balances[k] += cents
	} else {
		l.balances[k] -= cents
	}
	if l.balances[k] == 0 {
		delete(l.balances, k)
	}
}

// expenseDeltas turns one expense into pairwise debt deltas.
//
// Each member's net contribution is paid minus owed: positive nets are
// creditors, negative nets are debtors. Nets are settled greedily,
// matching the largest creditor against the largest debtor (ties broken
// by ascending member id) and transferring the smaller magnitude, which
// introduces at most k-1 pairwise entries for k participants. The
// result depends only on the expense itself, so incremental application
// and full recomputation agree.
func expenseDeltas(e GroupExpense) (map[Pair]int64, error) {
	if err := e.Validate(); err != nil {
		return nil, err
	}

	net := make(map[string]int64)
	for member, amt := range e.PaidBy {
		net[member] += amt.Cents
	}
	for member, amt := range e.Debtors {
		net[member] -= amt.Cents
	}

	type stake struct {
		member string
		cents  int64 // always positive
	}
	var creditors, debtors []stake
	for member, c := range net {
		switch {
		case c > 0:
			creditors = append(creditors, stake{member, c})
		case c < 0:
			debtors = append(debtors, stake{member, -c})
		}
	}
	byMagnitude := func(s []stake) {
		sort.Slice(s, func(i, j int) bool {
			if s[i].cents != s[j].cents {
				return s[i].cents > s[j].cents
			}
			return s[i].member < s[j].member
		})
	}
	byMagnitude(creditors)
	byMagnitude(debtors)

	deltas := make(map[Pair]int64)
	i, j := 0, 0
	for i < len(debtors) && j < len(creditors) {
		d, c := &debtors[i], &creditors[j]
		t := d.cents
		if c.cents < t {
			t = c.cents
		}
		k := PairOf(d.member, c.member)
		if d.member == k.High {
			deltas[k] += t
		} else {
			deltas[k] -= t
		}
		d.cents -= t
		c.cents -= t
		if d.cents == 0 {
			i++
		}
		if c.cents == 0 {
			j++
		}
	}
	return deltas, nil
}

// BalanceEntry is one outstanding debt inside a snapshot.
type BalanceEntry struct {
	Debtor   string
	Creditor string
	Amount   Money
}

// BalanceSnapshot is a point-in-time view of a group's ledger, used by
// the export worker and the reporting sheet.
type BalanceSnapshot struct {
	GroupID   string
	GroupName string
	Version   int64
	AsOf      time.Time
	Entries   []BalanceEntry
}

// Snapshot captures the ledger for export.
func (l *Ledger) Snapshot(g *Group, asOf time.Time) BalanceSnapshot {
	return BalanceSnapshot{
		GroupID:   g.ID,
		GroupName: g.Name,
		Version:   g.Version,
		AsOf:      asOf,
		Entries:   l.Entries(),
	}
}

// MemberSummary is the denormalized per-member view of a group: how
// much the member is owed and owes in total, broken down by
// counterparty. It is recomputed from the ledger on demand and never
// hand-edited.
type MemberSummary struct {
	MemberID   string
	TotalOwed  Money // owed to this member by others
	TotalOwing Money // owed by this member to others
	Balances   map[string]Money
}

// SummaryFor builds the member's summary view from the ledger.
func (l *Ledger) SummaryFor(member string) MemberSummary {
	s := MemberSummary{MemberID: member, Balances: l.BalancesFor(member)}
	for _, amt := range s.Balances {
		if amt.IsPositive() {
			s.TotalOwed = s.TotalOwed.Add(amt)
		} else {
			s.TotalOwing = s.TotalOwing.Add(amt.Neg())
		}
	}
	return s
}
