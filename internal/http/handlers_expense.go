package http

import (
	"net/http"

	"splitledger/internal/split"
)

// handleSplitPreview computes an allocation without touching any group.
// The caller supplies the member set explicitly.
func (s *Server) handleSplitPreview(w http.ResponseWriter, r *http.Request) {
	var req previewRequest
	if err := decodeJSON(r, &req); err != nil {
		writeBadRequest(w, err.Error())
		return
	}

	amount, method, params, paidBy, err := req.toSplit()
	if err != nil {
		writeBadRequest(w, err.Error())
		return
	}

	res, err := split.Compute(amount, method, params, paidBy, req.Members)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, splitView{
		PaidBy:  moneyMapView(res.PaidBy),
		Debtors: moneyMapView(res.Debtors),
	})
}

func (s *Server) handleAddExpense(w http.ResponseWriter, r *http.Request) {
	var req expenseRequest
	if err := decodeJSON(r, &req); err != nil {
		writeBadRequest(w, err.Error())
		return
	}

	in, err := req.toInput()
	if err != nil {
		writeBadRequest(w, err.Error())
		return
	}

	expense, err := s.groups.AddExpense(r.Context(), r.PathValue("id"), in)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, newExpenseView(expense))
}

func (s *Server) handleUpdateExpense(w http.ResponseWriter, r *http.Request) {
	var req expenseRequest
	if err := decodeJSON(r, &req); err != nil {
		writeBadRequest(w, err.Error())
		return
	}

	in, err := req.toInput()
	if err != nil {
		writeBadRequest(w, err.Error())
		return
	}

	expense, err := s.groups.UpdateExpense(r.Context(), r.PathValue("id"), r.PathValue("expenseID"), in)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, newExpenseView(expense))
}

func (s *Server) handleDeleteExpense(w http.ResponseWriter, r *http.Request) {
	err := s.groups.DeleteExpense(r.Context(), r.PathValue("id"), r.PathValue("expenseID"))
	if err != nil {
		writeError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
