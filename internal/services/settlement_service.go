package services

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"splitledger/internal/core"
	"splitledger/internal/store"
)

// SettlementProcessor records and deletes settlement payments. It
// shares the per-group locks and snapshot cache with the expense
// service so payments serialize against expense mutations on the same
// group.
type SettlementProcessor struct {
	groups *GroupExpenseService
}

func NewSettlementProcessor(groups *GroupExpenseService) *SettlementProcessor {
	return &SettlementProcessor{groups: groups}
}

// RecordPayment settles part or all of payer's debt to payee. The
// amount must be positive and must not exceed what the payer currently
// owes the payee; paying past the known debt fails with
// ErrExceedsOwedAmount rather than carrying a credit forward.
func (p *SettlementProcessor) RecordPayment(ctx context.Context, groupID, payerID, payeeID string, amount core.Money) (core.Payment, error) {
	payment := core.Payment{
		ID:        uuid.NewString(),
		Amount:    amount,
		CreatedAt: time.Now().UTC(),
		PayerID:   payerID,
		PayeeID:   payeeID,
	}
	if err := payment.Validate(); err != nil {
		return core.Payment{}, err
	}

	unlock := p.groups.locks.lock(groupID)
	defer unlock()

	g, err := p.groups.store.GetGroup(ctx, groupID)
	if err != nil {
		return core.Payment{}, err
	}
	if !g.HasMember(payerID) {
		return core.Payment{}, fmt.Errorf("%w: payer %q is not in group %s", core.ErrUnknownMember, payerID, groupID)
	}
	if !g.HasMember(payeeID) {
		return core.Payment{}, fmt.Errorf("%w: payee %q is not in group %s", core.ErrUnknownMember, payeeID, groupID)
	}

	ledger, err := core.RecomputeLedger(g)
	if err != nil {
		return core.Payment{}, err
	}
	owed := ledger.Owed(payerID, payeeID)
	if amount.Cmp(owed) > 0 {
		return core.Payment{}, fmt.Errorf("%w: %q owes %q %s, got %s",
			core.ErrExceedsOwedAmount, payerID, payeeID, owed, amount)
	}

	updated := g.Clone()
	updated.Payments[payment.ID] = payment
	updated.Version++
	if err := p.groups.commit(ctx, updated); err != nil {
		return core.Payment{}, err
	}

	slog.InfoContext(ctx, "Recorded payment",
		"group_id", groupID,
		"payment_id", payment.ID,
		"payer", payerID,
		"payee", payeeID,
		"amount", amount.String())
	return payment, nil
}

// DeletePayment reverses a recorded payment, restoring the payer's debt
// by the payment amount. A recorded payment is otherwise immutable;
// corrections are delete-then-recreate.
func (p *SettlementProcessor) DeletePayment(ctx context.Context, groupID, paymentID string) error {
	unlock := p.groups.locks.lock(groupID)
	defer unlock()

	g, err := p.groups.store.GetGroup(ctx, groupID)
	if err != nil {
		return err
	}
	if _, ok := g.Payments[paymentID]; !ok {
		return fmt.Errorf("payment %s: %w", paymentID, store.ErrNotFound)
	}

	updated := g.Clone()
	delete(updated.Payments, paymentID)
	updated.Version++
	if err := p.groups.commit(ctx, updated); err != nil {
		return err
	}

	slog.InfoContext(ctx, "Deleted payment", "group_id", groupID, "payment_id", paymentID)
	return nil
}

// RecomputeGroup rebuilds the group's pairwise balances from its full
// expense and payment history and refreshes the snapshot cache. Used
// after bulk edits or to repair derived state.
func (p *SettlementProcessor) RecomputeGroup(ctx context.Context, groupID string) (core.BalanceSnapshot, error) {
	unlock := p.groups.locks.lock(groupID)
	defer unlock()

	g, err := p.groups.store.GetGroup(ctx, groupID)
	if err != nil {
		return core.BalanceSnapshot{}, err
	}
	ledger, err := core.RecomputeLedger(g)
	if err != nil {
		return core.BalanceSnapshot{}, err
	}

	snap := ledger.Snapshot(g, time.Now().UTC())
	p.groups.snapshots.Set(groupID, snap)
	return snap, nil
}
