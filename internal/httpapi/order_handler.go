package httpapi

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/saraelshenawy632/project-grad/internal/order"
)

type OrderHandler struct {
	repo order.Repository
}

func NewOrderHandler(repo order.Repository) *OrderHandler {
	return &OrderHandler{repo: repo}
}

func (h *OrderHandler) GetOrder(w http.ResponseWriter, r *http.Request) {
	orderID := chi.URLParam(r, "orderId")
	userID := strings.TrimSpace(r.Header.Get(HeaderUserID))
	if userID == "" {
		writeError(w, http.StatusBadRequest, "missing required header: "+HeaderUserID)
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), 3*time.Second)
	defer cancel()

	o, err := h.repo.GetForUser(ctx, orderID, userID)
	if err != nil {
		if errors.Is(err, order.ErrNotFound) {
			writeError(w, http.StatusNotFound, "order not found")
			return
		}
		writeError(w, http.StatusInternalServerError, "failed to load order")
		return
	}

	writeJSON(w, http.StatusOK, o)
}

func (h *OrderHandler) ListOrdersByUser(w http.ResponseWriter, r *http.Request) {
	userID := chi.URLParam(r, "userId")
	if userID == "" {
		writeError(w, http.StatusBadRequest, "missing userId")
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	orders, err := h.repo.ListByUser(ctx, userID)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to load orders")
		return
	}

	writeJSON(w, http.StatusOK, orders)
}

type updateStatusRequest struct {
	Status order.Status `json:"status"`
}

// UpdateStatus moves the order along the fulfillment lifecycle. Illegal
// transitions are rejected before any write; racing transitions lose on the
// conditional update and surface as a conflict.
func (h *OrderHandler) UpdateStatus(w http.ResponseWriter, r *http.Request) {
	orderID := chi.URLParam(r, "orderId")

	var req updateStatusRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid json")
		return
	}
	if !req.Status.Valid() {
		writeError(w, http.StatusBadRequest, "unknown order status")
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), 3*time.Second)
	defer cancel()

	o, err := h.repo.GetByID(ctx, orderID)
	if err != nil {
		if errors.Is(err, order.ErrNotFound) {
			writeError(w, http.StatusNotFound, "order not found")
			return
		}
		writeError(w, http.StatusInternalServerError, "failed to load order")
		return
	}

	if !o.Status.CanTransitionTo(req.Status) {
		writeJSON(w, http.StatusConflict, errorResponse{
			Error: "cannot transition from " + string(o.Status) + " to " + string(req.Status),
			Code:  "conflict",
		})
		return
	}

	if err := h.repo.UpdateStatus(ctx, orderID, o.Status, req.Status); err != nil {
		if errors.Is(err, order.ErrStateConflict) {
			writeJSON(w, http.StatusConflict, errorResponse{Error: "order status changed concurrently", Code: "conflict"})
			return
		}
		writeError(w, http.StatusInternalServerError, "failed to update order")
		return
	}

	o.Status = req.Status
	writeJSON(w, http.StatusOK, o)
}
