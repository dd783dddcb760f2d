package httpapi

import (
	"context"
	"encoding/json"
	"net/http"
	"strings"

	"github.com/saraelshenawy632/project-grad/internal/order"
)

const HeaderUserID = "X-User-Id"

type CheckoutService interface {
	Checkout(ctx context.Context, userID, cartID string, addr order.ShippingAddress, paymentMethod string) (*order.Order, error)
}

type CheckoutHandler struct {
	checkout CheckoutService
}

func NewCheckoutHandler(checkout CheckoutService) *CheckoutHandler {
	return &CheckoutHandler{checkout: checkout}
}

type checkoutRequest struct {
	CartID          string                `json:"cartId"`
	ShippingAddress order.ShippingAddress `json:"shippingAddress"`
	PaymentInfo     struct {
		Method string `json:"method"`
	} `json:"paymentInfo"`
}

func (h *CheckoutHandler) CreateOrder(w http.ResponseWriter, r *http.Request) {
	userID := strings.TrimSpace(r.Header.Get(HeaderUserID))
	if userID == "" {
		writeError(w, http.StatusBadRequest, "missing required header: "+HeaderUserID)
		return
	}

	var req checkoutRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid json")
		return
	}

	o, err := h.checkout.Checkout(r.Context(), userID, req.CartID, req.ShippingAddress, req.PaymentInfo.Method)
	if err != nil {
		writeAppError(w, err)
		return
	}

	writeJSON(w, http.StatusCreated, o)
}
