package http

import (
	"encoding/json"
	"fmt"
	"net/http"

	"splitledger/internal/core"
	"splitledger/internal/services"
	"splitledger/internal/split"
)

// splitRequest is the shared wire shape of everything that carries a
// split: expense bodies and the preview endpoint. Amounts travel as
// decimal strings and are parsed through the validating Money
// constructor.
type splitRequest struct {
	Amount      string            `json:"amount"`
	Method      string            `json:"method"`
	Debtors     []string          `json:"debtors"`
	Percentages map[string]int64  `json:"percentages,omitempty"`
	Shares      map[string]string `json:"shares,omitempty"`
	PaidBy      map[string]string `json:"paid_by"`
}

type previewRequest struct {
	splitRequest
	Members []string `json:"members"`
}

type createGroupRequest struct {
	Name     string   `json:"name"`
	ImageRef string   `json:"image_ref"`
	Members  []string `json:"members"`
}

type expenseRequest struct {
	Title    string `json:"title"`
	Category string `json:"category"`
	Notes    string `json:"notes"`
	splitRequest
}

type paymentRequest struct {
	PayerID string `json:"payer_id"`
	PayeeID string `json:"payee_id"`
	Amount  string `json:"amount"`
}

func decodeJSON(r *http.Request, v any) error {
	defer r.Body.Close()
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		return fmt.Errorf("invalid JSON body: %w", err)
	}
	return nil
}

func parseMoneyMap(m map[string]string) (map[string]core.Money, error) {
	if m == nil {
		return nil, nil
	}
	out := make(map[string]core.Money, len(m))
	for member, amount := range m {
		parsed, err := core.ParseMoney(amount)
		if err != nil {
			return nil, fmt.Errorf("%q: %w", member, err)
		}
		out[member] = parsed
	}
	return out, nil
}

// toSplit converts the wire shape to the typed split inputs.
func (req *splitRequest) toSplit() (core.Money, core.SplitMethod, split.Params, map[string]core.Money, error) {
	amount, err := core.ParseMoney(req.Amount)
	if err != nil {
		return core.Money{}, "", split.Params{}, nil, fmt.Errorf("amount: %w", err)
	}

	shares, err := parseMoneyMap(req.Shares)
	if err != nil {
		return core.Money{}, "", split.Params{}, nil, fmt.Errorf("shares: %w", err)
	}
	paidBy, err := parseMoneyMap(req.PaidBy)
	if err != nil {
		return core.Money{}, "", split.Params{}, nil, fmt.Errorf("paid_by: %w", err)
	}

	params := split.Params{
		Debtors:     req.Debtors,
		Percentages: req.Percentages,
		Shares:      shares,
	}
	return amount, core.SplitMethod(req.Method), params, paidBy, nil
}

func (req *expenseRequest) toInput() (services.ExpenseInput, error) {
	amount, method, params, paidBy, err := req.toSplit()
	if err != nil {
		return services.ExpenseInput{}, err
	}
	return services.ExpenseInput{
		Title:    req.Title,
		Category: req.Category,
		Notes:    req.Notes,
		Amount:   amount,
		Method:   method,
		PaidBy:   paidBy,
		Split:    params,
	}, nil
}
