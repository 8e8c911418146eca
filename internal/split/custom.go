package split

import (
	"fmt"

	"splitledger/internal/core"
)

// customStrategy passes explicit per-debtor shares through unchanged.
// The shares must be non-negative and sum exactly to the amount or the
// expense is rejected.
type customStrategy struct{}

func (customStrategy) Method() core.SplitMethod { return core.SplitCustom }

func (customStrategy) Validate(amount core.Money, p Params) error {
	var total core.Money
	for _, d := range p.Debtors {
		share, ok := p.Shares[d]
		if !ok {
			return fmt.Errorf("%w: no share for debtor %q", core.ErrInvalidSplit, d)
		}
		if share.IsNegative() {
			return fmt.Errorf("%w: negative share for %q", core.ErrInvalidSplit, d)
		}
		total = total.Add(share)
	}
	if total != amount {
		return fmt.Errorf("%w: shares sum to %s, expected %s", core.ErrInvalidSplit, total, amount)
	}
	for member := range p.Shares {
		if !contains(p.Debtors, member) {
			return fmt.Errorf("%w: share given for %q who is not a debtor", core.ErrInvalidSplit, member)
		}
	}
	return nil
}

func (customStrategy) Shares(amount core.Money, p Params) (map[string]core.Money, error) {
	out := make(map[string]core.Money, len(p.Debtors))
	for _, d := range p.Debtors {
		out[d] = p.Shares[d]
	}
	return out, nil
}
