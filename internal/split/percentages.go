package split

import (
	"fmt"
	"sort"

	"splitledger/internal/core"
)

// percentagesStrategy assigns each debtor a whole percentage of the
// amount. Raw shares are truncated integer cents; the residual is
// distributed by the largest-remainder method, tie-broken by ascending
// member id, so shares stay within one cent of their ideal value and
// sum exactly to the amount.
type percentagesStrategy struct{}

func (percentagesStrategy) Method() core.SplitMethod { return core.SplitPercentages }

func (percentagesStrategy) Validate(amount core.Money, p Params) error {
	var total int64
	for _, d := range p.Debtors {
		pct, ok := p.Percentages[d]
		if !ok {
			return fmt.Errorf("%w: no percentage for debtor %q", core.ErrInvalidSplit, d)
		}
		if pct < 0 || pct > 100 {
			return fmt.Errorf("%w: percentage %d for %q out of range", core.ErrInvalidSplit, pct, d)
		}
		total += pct
	}
	if total != 100 {
		return fmt.Errorf("%w: percentages sum to %d, expected 100", core.ErrInvalidSplit, total)
	}
	for member := range p.Percentages {
		if !contains(p.Debtors, member) {
			return fmt.Errorf("%w: percentage given for %q who is not a debtor", core.ErrInvalidSplit, member)
		}
	}
	return nil
}

func (percentagesStrategy) Shares(amount core.Money, p Params) (map[string]core.Money, error) {
	type slot struct {
		member    string
		cents     int64
		remainder int64 // hundredths of a cent dropped by truncation
	}

	slots := make([]slot, 0, len(p.Debtors))
	var assigned int64
	for _, d := range p.Debtors {
		raw := amount.Cents * p.Percentages[d]
		slots = append(slots, slot{
			member:    d,
			cents:     raw / 100,
			remainder: raw % 100,
		})
		assigned += raw / 100
	}

	// Hand the residual cents to the largest remainders first.
	residual := amount.Cents - assigned
	sort.Slice(slots, func(i, j int) bool {
		if slots[i].remainder != slots[j].remainder {
			return slots[i].remainder > slots[j].remainder
		}
		return slots[i].member < slots[j].member
	})
	for i := int64(0); i < residual; i++ {
		slots[i].cents++
	}

	out := make(map[string]core.Money, len(slots))
	for _, s := range slots {
		out[s.member] = core.NewMoney(s.cents)
	}
	return out, nil
}

func contains(s []string, v string) bool {
	for _, x := range s {
		if x == v {
			return true
		}
	}
	return false
}
