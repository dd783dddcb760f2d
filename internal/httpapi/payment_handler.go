package httpapi

import (
	"context"
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/saraelshenawy632/project-grad/internal/payment"
)

type PaymentService interface {
	Process(ctx context.Context, orderID string, details payment.CardDetails) (*payment.Payment, error)
	Refund(ctx context.Context, transactionID string, amount float64) (*payment.Payment, error)
	Verify(ctx context.Context, transactionID string) (*payment.Payment, error)
}

type PaymentHandler struct {
	payments PaymentService
}

func NewPaymentHandler(payments PaymentService) *PaymentHandler {
	return &PaymentHandler{payments: payments}
}

type processPaymentRequest struct {
	OrderID string `json:"orderId"`
	payment.CardDetails
}

func (h *PaymentHandler) ProcessPayment(w http.ResponseWriter, r *http.Request) {
	var req processPaymentRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid json")
		return
	}
	if req.OrderID == "" {
		writeError(w, http.StatusBadRequest, "missing orderId")
		return
	}

	rec, err := h.payments.Process(r.Context(), req.OrderID, req.CardDetails)
	if err != nil {
		writeAppError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, rec)
}

type refundRequest struct {
	TransactionID string  `json:"transactionId"`
	Amount        float64 `json:"amount"`
}

func (h *PaymentHandler) ProcessRefund(w http.ResponseWriter, r *http.Request) {
	var req refundRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid json")
		return
	}

	rec, err := h.payments.Refund(r.Context(), req.TransactionID, req.Amount)
	if err != nil {
		writeAppError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, rec)
}

func (h *PaymentHandler) VerifyPayment(w http.ResponseWriter, r *http.Request) {
	transactionID := chi.URLParam(r, "transactionId")

	rec, err := h.payments.Verify(r.Context(), transactionID)
	if err != nil {
		writeAppError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, rec)
}
