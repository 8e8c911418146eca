// Package services orchestrates the ledger core against the document
// store, the derived-balance cache and the AMQP sync queue. Every
// mutation follows the same shape: lock the group, load it, compute the
// new state on a copy, persist, then publish. Nothing observable changes
// until the persist succeeds.
package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"splitledger/internal/amqp"
	"splitledger/internal/cache"
	"splitledger/internal/core"
	"splitledger/internal/split"
	"splitledger/internal/store"
)

// ErrInvalidGroup is returned when a group cannot be created from the
// given inputs.
var ErrInvalidGroup = errors.New("invalid group")

// ExpenseInput carries the caller-supplied fields of a new or edited
// expense. PaidBy is what each payer actually fronted; the debtor
// shares are computed from Method and Split.
type ExpenseInput struct {
	Title    string
	Category string
	Notes    string
	Amount   core.Money
	Method   core.SplitMethod
	PaidBy   map[string]core.Money
	Split    split.Params
}

// GroupExpenseService owns group and expense mutations. All writes to a
// group are serialized on a per-group lock; derived balances are cached
// and invalidated before a write is considered committed.
type GroupExpenseService struct {
	store     store.GroupStore
	events    *amqp.Client
	locks     *groupLocks
	snapshots cache.Cache[core.BalanceSnapshot]
}

// NewGroupExpenseService builds the service. events may be nil when no
// broker is configured; sync messages are then skipped. snapshots may
// be nil, in which case a default LRU cache is used.
func NewGroupExpenseService(st store.GroupStore, events *amqp.Client, snapshots cache.Cache[core.BalanceSnapshot]) *GroupExpenseService {
	if snapshots == nil {
		snapshots = cache.NewLRUCache[core.BalanceSnapshot](256, 5*time.Minute)
	}
	return &GroupExpenseService{
		store:     st,
		events:    events,
		locks:     newGroupLocks(),
		snapshots: snapshots,
	}
}

// CreateGroup registers a new group with the given members. Member ids
// must be unique; the group starts with no expenses or payments.
func (s *GroupExpenseService) CreateGroup(ctx context.Context, name, imageRef string, members []string) (*core.Group, error) {
	if name == "" {
		return nil, fmt.Errorf("%w: group name is required", ErrInvalidGroup)
	}
	if len(members) == 0 {
		return nil, fmt.Errorf("%w: a group needs at least one member", ErrInvalidGroup)
	}

	g := &core.Group{
		ID:        uuid.NewString(),
		Name:      name,
		ImageRef:  imageRef,
		Members:   append([]string(nil), members...),
		Expenses:  make(map[string]core.GroupExpense),
		Payments:  make(map[string]core.Payment),
		Version:   1,
		CreatedAt: time.Now().UTC(),
	}
	if err := g.Validate(); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidGroup, err)
	}

	if err := s.store.PutGroup(ctx, g); err != nil {
		return nil, fmt.Errorf("persist group: %w", err)
	}

	slog.InfoContext(ctx, "Created group", "group_id", g.ID, "members", len(g.Members))
	s.publishSync(ctx, g.ID, g.Version)
	return g, nil
}

// GetGroup loads one group.
func (s *GroupExpenseService) GetGroup(ctx context.Context, groupID string) (*core.Group, error) {
	return s.store.GetGroup(ctx, groupID)
}

// ListGroupIDs lists the known group ids.
func (s *GroupExpenseService) ListGroupIDs(ctx context.Context) ([]string, error) {
	return s.store.ListGroupIDs(ctx)
}

// DeleteGroup removes a group and all of its expenses and payments.
func (s *GroupExpenseService) DeleteGroup(ctx context.Context, groupID string) error {
	unlock := s.locks.lock(groupID)
	defer unlock()

	if err := s.store.DeleteGroup(ctx, groupID); err != nil {
		return err
	}
	s.locks.bump(groupID)
	s.snapshots.Delete(groupID)

	slog.InfoContext(ctx, "Deleted group", "group_id", groupID)
	return nil
}

// AddExpense validates the split, allocates shares and appends the
// expense to the group. The returned expense carries the computed
// debtor shares.
func (s *GroupExpenseService) AddExpense(ctx context.Context, groupID string, in ExpenseInput) (core.GroupExpense, error) {
	unlock := s.locks.lock(groupID)
	defer unlock()

	g, err := s.store.GetGroup(ctx, groupID)
	if err != nil {
		return core.GroupExpense{}, err
	}

	res, err := split.Compute(in.Amount, in.Method, in.Split, in.PaidBy, g.Members)
	if err != nil {
		return core.GroupExpense{}, err
	}

	expense := core.GroupExpense{
		ID:       uuid.NewString(),
		Title:    in.Title,
		Category: in.Category,
		Amount:   in.Amount,
		Notes:    in.Notes,
		AddedAt:  time.Now().UTC(),
		Method:   in.Method,
		PaidBy:   res.PaidBy,
		Debtors:  res.Debtors,
	}

	updated := g.Clone()
	updated.Expenses[expense.ID] = expense
	updated.Version++
	if err := s.commit(ctx, updated); err != nil {
		return core.GroupExpense{}, err
	}

	slog.InfoContext(ctx, "Added expense",
		"group_id", groupID,
		"expense_id", expense.ID,
		"amount", expense.Amount.String(),
		"method", string(expense.Method))
	return expense, nil
}

// UpdateExpense replaces an existing expense's fields and reallocates
// its shares. The expense id and added timestamp are preserved.
func (s *GroupExpenseService) UpdateExpense(ctx context.Context, groupID, expenseID string, in ExpenseInput) (core.GroupExpense, error) {
	unlock := s.locks.lock(groupID)
	defer unlock()

	g, err := s.store.GetGroup(ctx, groupID)
	if err != nil {
		return core.GroupExpense{}, err
	}

	prev, ok := g.Expenses[expenseID]
	if !ok {
		return core.GroupExpense{}, fmt.Errorf("expense %s: %w", expenseID, store.ErrNotFound)
	}

	res, err := split.Compute(in.Amount, in.Method, in.Split, in.PaidBy, g.Members)
	if err != nil {
		return core.GroupExpense{}, err
	}

	expense := core.GroupExpense{
		ID:       prev.ID,
		Title:    in.Title,
		Category: in.Category,
		Amount:   in.Amount,
		Notes:    in.Notes,
		AddedAt:  prev.AddedAt,
		Method:   in.Method,
		PaidBy:   res.PaidBy,
		Debtors:  res.Debtors,
	}

	updated := g.Clone()
	updated.Expenses[expenseID] = expense
	updated.Version++
	if err := s.commit(ctx, updated); err != nil {
		return core.GroupExpense{}, err
	}

	slog.InfoContext(ctx, "Updated expense", "group_id", groupID, "expense_id", expenseID)
	return expense, nil
}

// DeleteExpense removes an expense, reversing its effect on balances.
func (s *GroupExpenseService) DeleteExpense(ctx context.Context, groupID, expenseID string) error {
	unlock := s.locks.lock(groupID)
	defer unlock()

	g, err := s.store.GetGroup(ctx, groupID)
	if err != nil {
		return err
	}
	if _, ok := g.Expenses[expenseID]; !ok {
		return fmt.Errorf("expense %s: %w", expenseID, store.ErrNotFound)
	}

	updated := g.Clone()
	delete(updated.Expenses, expenseID)
	updated.Version++
	if err := s.commit(ctx, updated); err != nil {
		return err
	}

	slog.InfoContext(ctx, "Deleted expense", "group_id", groupID, "expense_id", expenseID)
	return nil
}

// GroupBalances returns the current pairwise balances for a group. The
// result is served from the snapshot cache when the group has not been
// mutated since it was computed.
func (s *GroupExpenseService) GroupBalances(ctx context.Context, groupID string) (core.BalanceSnapshot, error) {
	if snap, ok := s.snapshots.Get(groupID); ok {
		return snap, nil
	}

	gen := s.locks.generation(groupID)
	g, err := s.store.GetGroup(ctx, groupID)
	if err != nil {
		return core.BalanceSnapshot{}, err
	}
	ledger, err := core.RecomputeLedger(g)
	if err != nil {
		return core.BalanceSnapshot{}, err
	}

	snap := ledger.Snapshot(g, time.Now().UTC())
	s.snapshots.Set(groupID, snap)
	if s.locks.generation(groupID) != gen {
		// A writer committed while this snapshot was being computed;
		// its invalidation may have run before the Set above, so the
		// cached entry cannot be trusted.
		s.snapshots.Delete(groupID)
	}
	return snap, nil
}

// BalancesFor returns one member's view of the group: what they are
// owed, what they owe, and the per-counterparty breakdown.
func (s *GroupExpenseService) BalancesFor(ctx context.Context, groupID, memberID string) (core.MemberSummary, error) {
	g, err := s.store.GetGroup(ctx, groupID)
	if err != nil {
		return core.MemberSummary{}, err
	}
	if !g.HasMember(memberID) {
		return core.MemberSummary{}, fmt.Errorf("%w: %q is not in group %s", core.ErrUnknownMember, memberID, groupID)
	}

	ledger, err := core.RecomputeLedger(g)
	if err != nil {
		return core.MemberSummary{}, err
	}
	return ledger.SummaryFor(memberID), nil
}

// commit persists the already-mutated copy and invalidates derived
// state. The cache entry is dropped before the sync message goes out so
// no reader can observe stale balances after the write.
func (s *GroupExpenseService) commit(ctx context.Context, g *core.Group) error {
	if err := g.Validate(); err != nil {
		return err
	}
	if err := s.store.PutGroup(ctx, g); err != nil {
		return fmt.Errorf("persist group: %w", err)
	}

	s.locks.bump(g.ID)
	s.snapshots.Delete(g.ID)
	s.publishSync(ctx, g.ID, g.Version)
	return nil
}

func (s *GroupExpenseService) publishSync(ctx context.Context, groupID string, version int64) {
	if s.events == nil {
		slog.WarnContext(ctx, "AMQP client not available, skipping sync message")
		return
	}
	if err := s.events.PublishGroupSync(ctx, groupID, version); err != nil {
		// Don't fail the request: the write is durable and the
		// catch-up worker will pick the group up from the export queue.
		slog.ErrorContext(ctx, "Failed to publish sync message",
			"group_id", groupID, "version", version, "error", err)
	}
}
