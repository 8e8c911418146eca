package split

import (
	"sort"

	"splitledger/internal/core"
)

// equallyStrategy divides the amount into equal shares. The integer
// remainder is handed out one cent at a time to the first debtors in
// ascending member-id order, so the allocation is reproducible and the
// shares always sum exactly to the amount.
type equallyStrategy struct{}

func (equallyStrategy) Method() core.SplitMethod { return core.SplitEqually }

func (equallyStrategy) Validate(amount core.Money, p Params) error {
	// Compute's shared checks (amount > 0, debtors non-empty, members)
	// are all the equal split needs.
	return nil
}

func (equallyStrategy) Shares(amount core.Money, p Params) (map[string]core.Money, error) {
	ordered := append([]string(nil), p.Debtors...)
	sort.Strings(ordered)

	shares, err := amount.Divide(len(ordered))
	if err != nil {
		return nil, err
	}
	out := make(map[string]core.Money, len(ordered))
	for i, d := range ordered {
		out[d] = shares[i]
	}
	return out, nil
}
