package sqlite

import (
	"encoding/json"
	"fmt"
	"time"

	"splitledger/internal/core"
)

// Wire shape of a stored group document. Amounts travel as integer
// cents; the document is validated on decode so a malformed record is
// rejected at the boundary instead of trusted downstream.
type (
	groupDoc struct {
		ID        string                `json:"id"`
		Name      string                `json:"name"`
		ImageRef  string                `json:"image_ref,omitempty"`
		Members   []string              `json:"members"`
		Expenses  map[string]expenseDoc `json:"expenses"`
		Payments  map[string]paymentDoc `json:"payments"`
		Version   int64                 `json:"version"`
		CreatedAt time.Time             `json:"created_at"`
	}

	expenseDoc struct {
		ID       string           `json:"id"`
		Title    string           `json:"title"`
		Category string           `json:"category,omitempty"`
		Cents    int64            `json:"amount_cents"`
		Notes    string           `json:"notes,omitempty"`
		AddedAt  time.Time        `json:"added_at"`
		Method   string           `json:"method"`
		PaidBy   map[string]int64 `json:"paid_by"`
		Debtors  map[string]int64 `json:"debtors"`
	}

	paymentDoc struct {
		ID        string    `json:"id"`
		Cents     int64     `json:"amount_cents"`
		CreatedAt time.Time `json:"created_at"`
		PayerID   string    `json:"payer_id"`
		PayeeID   string    `json:"payee_id"`
	}
)

func encodeGroup(g *core.Group) ([]byte, error) {
	doc := groupDoc{
		ID:        g.ID,
		Name:      g.Name,
		ImageRef:  g.ImageRef,
		Members:   g.Members,
		Expenses:  make(map[string]expenseDoc, len(g.Expenses)),
		Payments:  make(map[string]paymentDoc, len(g.Payments)),
		Version:   g.Version,
		CreatedAt: g.CreatedAt,
	}
	for id, e := range g.Expenses {
		doc.Expenses[id] = expenseDoc{
			ID:       e.ID,
			Title:    e.Title,
			Category: e.Category,
			Cents:    e.Amount.Cents,
			Notes:    e.Notes,
			AddedAt:  e.AddedAt,
			Method:   string(e.Method),
			PaidBy:   centsMap(e.PaidBy),
			Debtors:  centsMap(e.Debtors),
		}
	}
	for id, p := range g.Payments {
		doc.Payments[id] = paymentDoc{
			ID:        p.ID,
			Cents:     p.Amount.Cents,
			CreatedAt: p.CreatedAt,
			PayerID:   p.PayerID,
			PayeeID:   p.PayeeID,
		}
	}
	return json.Marshal(doc)
}

func decodeGroup(data []byte) (*core.Group, error) {
	var doc groupDoc
	if err := json.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("unmarshal group document: %w", err)
	}
	g := &core.Group{
		ID:        doc.ID,
		Name:      doc.Name,
		ImageRef:  doc.ImageRef,
		Members:   doc.Members,
		Expenses:  make(map[string]core.GroupExpense, len(doc.Expenses)),
		Payments:  make(map[string]core.Payment, len(doc.Payments)),
		Version:   doc.Version,
		CreatedAt: doc.CreatedAt,
	}
	for id, e := range doc.Expenses {
		g.Expenses[id] = core.GroupExpense{
			ID:       e.ID,
			Title:    e.Title,
			Category: e.Category,
			Amount:   core.NewMoney(e.Cents),
			Notes:    e.Notes,
			AddedAt:  e.AddedAt,
			Method:   core.SplitMethod(e.Method),
			PaidBy:   moneyMap(e.PaidBy),
			Debtors:  moneyMap(e.Debtors),
		}
	}
	for id, p := range doc.Payments {
		g.Payments[id] = core.Payment{
			ID:        p.ID,
			Amount:    core.NewMoney(p.Cents),
			CreatedAt: p.CreatedAt,
			PayerID:   p.PayerID,
			PayeeID:   p.PayeeID,
		}
	}
	if err := g.Validate(); err != nil {
		return nil, fmt.Errorf("stored document violates invariants: %w", err)
	}
	return g, nil
}

func centsMap(m map[string]core.Money) map[string]int64 {
	out := make(map[string]int64, len(m))
	for k, v := range m {
		out[k] = v.Cents
	}
	return out
}

func moneyMap(m map[string]int64) map[string]core.Money {
	out := make(map[string]core.Money, len(m))
	for k, v := range m {
		out[k] = core.NewMoney(v)
	}
	return out
}
