package http

import (
	"net/http"

	"splitledger/internal/core"
)

func (s *Server) handleRecordPayment(w http.ResponseWriter, r *http.Request) {
	var req paymentRequest
	if err := decodeJSON(r, &req); err != nil {
		writeBadRequest(w, err.Error())
		return
	}

	amount, err := core.ParseMoney(req.Amount)
	if err != nil {
		writeError(w, r, err)
		return
	}

	payment, err := s.settlements.RecordPayment(r.Context(), r.PathValue("id"), req.PayerID, req.PayeeID, amount)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, paymentView{
		ID:        payment.ID,
		Amount:    payment.Amount.String(),
		CreatedAt: payment.CreatedAt,
		PayerID:   payment.PayerID,
		PayeeID:   payment.PayeeID,
	})
}

func (s *Server) handleDeletePayment(w http.ResponseWriter, r *http.Request) {
	err := s.settlements.DeletePayment(r.Context(), r.PathValue("id"), r.PathValue("paymentID"))
	if err != nil {
		writeError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
