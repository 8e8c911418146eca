package http

import (
	"sort"
	"time"

	"splitledger/internal/core"
)

// Wire views. Money is rendered as a decimal string, mirroring the
// request format.
type (
	splitView struct {
		PaidBy  map[string]string `json:"paid_by"`
		Debtors map[string]string `json:"debtors"`
	}

	expenseView struct {
		ID       string            `json:"id"`
		Title    string            `json:"title"`
		Category string            `json:"category,omitempty"`
		Amount   string            `json:"amount"`
		Notes    string            `json:"notes,omitempty"`
		AddedAt  time.Time         `json:"added_at"`
		Method   string            `json:"method"`
		PaidBy   map[string]string `json:"paid_by"`
		Debtors  map[string]string `json:"debtors"`
	}

	paymentView struct {
		ID        string    `json:"id"`
		Amount    string    `json:"amount"`
		CreatedAt time.Time `json:"created_at"`
		PayerID   string    `json:"payer_id"`
		PayeeID   string    `json:"payee_id"`
	}

	groupView struct {
		ID        string        `json:"id"`
		Name      string        `json:"name"`
		ImageRef  string        `json:"image_ref,omitempty"`
		Members   []string      `json:"members"`
		Version   int64         `json:"version"`
		CreatedAt time.Time     `json:"created_at"`
		Expenses  []expenseView `json:"expenses"`
		Payments  []paymentView `json:"payments"`
	}

	balanceEntryView struct {
		Debtor   string `json:"debtor"`
		Creditor string `json:"creditor"`
		Amount   string `json:"amount"`
	}

	snapshotView struct {
		GroupID   string             `json:"group_id"`
		GroupName string             `json:"group_name"`
		Version   int64              `json:"version"`
		AsOf      time.Time          `json:"as_of"`
		Entries   []balanceEntryView `json:"entries"`
	}

	summaryView struct {
		MemberID   string            `json:"member_id"`
		TotalOwed  string            `json:"total_owed"`
		TotalOwing string            `json:"total_owing"`
		Balances   map[string]string `json:"balances"`
	}
)

func moneyMapView(m map[string]core.Money) map[string]string {
	out := make(map[string]string, len(m))
	for member, amount := range m {
		out[member] = amount.String()
	}
	return out
}

func newExpenseView(e core.GroupExpense) expenseView {
	return expenseView{
		ID:       e.ID,
		Title:    e.Title,
		Category: e.Category,
		Amount:   e.Amount.String(),
		Notes:    e.Notes,
		AddedAt:  e.AddedAt,
		Method:   string(e.Method),
		PaidBy:   moneyMapView(e.PaidBy),
		Debtors:  moneyMapView(e.Debtors),
	}
}

func newGroupView(g *core.Group) groupView {
	v := groupView{
		ID:        g.ID,
		Name:      g.Name,
		ImageRef:  g.ImageRef,
		Members:   g.SortedMembers(),
		Version:   g.Version,
		CreatedAt: g.CreatedAt,
		Expenses:  make([]expenseView, 0, len(g.Expenses)),
		Payments:  make([]paymentView, 0, len(g.Payments)),
	}
	for _, e := range g.Expenses {
		v.Expenses = append(v.Expenses, newExpenseView(e))
	}
	sort.Slice(v.Expenses, func(i, j int) bool { return v.Expenses[i].ID < v.Expenses[j].ID })
	for _, p := range g.Payments {
		v.Payments = append(v.Payments, paymentView{
			ID:        p.ID,
			Amount:    p.Amount.String(),
			CreatedAt: p.CreatedAt,
			PayerID:   p.PayerID,
			PayeeID:   p.PayeeID,
		})
	}
	sort.Slice(v.Payments, func(i, j int) bool { return v.Payments[i].ID < v.Payments[j].ID })
	return v
}

func newSnapshotView(snap core.BalanceSnapshot) snapshotView {
	v := snapshotView{
		GroupID:   snap.GroupID,
		GroupName: snap.GroupName,
		Version:   snap.Version,
		AsOf:      snap.AsOf,
		Entries:   make([]balanceEntryView, 0, len(snap.Entries)),
	}
	for _, e := range snap.Entries {
		v.Entries = append(v.Entries, balanceEntryView{
			Debtor:   e.Debtor,
			Creditor: e.Creditor,
			Amount:   e.Amount.String(),
		})
	}
	return v
}

func newSummaryView(s core.MemberSummary) summaryView {
	return summaryView{
		MemberID:   s.MemberID,
		TotalOwed:  s.TotalOwed.String(),
		TotalOwing: s.TotalOwing.String(),
		Balances:   moneyMapView(s.Balances),
	}
}
