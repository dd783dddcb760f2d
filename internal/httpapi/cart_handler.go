package httpapi

import (
	"context"
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/saraelshenawy632/project-grad/internal/cart"
)

type CartService interface {
	Get(ctx context.Context, userID string) (*cart.Cart, error)
	AddItem(ctx context.Context, userID, productID string, quantity int) (*cart.Cart, error)
	UpdateItem(ctx context.Context, userID, productID string, quantity int) (*cart.Cart, error)
	RemoveItem(ctx context.Context, userID, productID string) (*cart.Cart, error)
	Clear(ctx context.Context, userID string) (*cart.Cart, error)
}

type CartHandler struct {
	carts CartService
}

func NewCartHandler(carts CartService) *CartHandler {
	return &CartHandler{carts: carts}
}

func (h *CartHandler) GetCart(w http.ResponseWriter, r *http.Request) {
	userID := chi.URLParam(r, "userId")

	c, err := h.carts.Get(r.Context(), userID)
	if err != nil {
		writeAppError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, c)
}

type addItemRequest struct {
	ProductID string `json:"productId"`
	Quantity  int    `json:"quantity"`
}

func (h *CartHandler) AddItem(w http.ResponseWriter, r *http.Request) {
	userID := chi.URLParam(r, "userId")

	var req addItemRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid json")
		return
	}
	if req.ProductID == "" || req.Quantity < 1 {
		writeError(w, http.StatusBadRequest, "productId and a quantity of at least 1 are required")
		return
	}

	c, err := h.carts.AddItem(r.Context(), userID, req.ProductID, req.Quantity)
	if err != nil {
		writeAppError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, c)
}

type updateItemRequest struct {
	Quantity int `json:"quantity"`
}

func (h *CartHandler) UpdateItem(w http.ResponseWriter, r *http.Request) {
	userID := chi.URLParam(r, "userId")
	productID := chi.URLParam(r, "productId")

	var req updateItemRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid json")
		return
	}

	c, err := h.carts.UpdateItem(r.Context(), userID, productID, req.Quantity)
	if err != nil {
		writeAppError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, c)
}

func (h *CartHandler) RemoveItem(w http.ResponseWriter, r *http.Request) {
	userID := chi.URLParam(r, "userId")
	productID := chi.URLParam(r, "productId")

	c, err := h.carts.RemoveItem(r.Context(), userID, productID)
	if err != nil {
		writeAppError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, c)
}

func (h *CartHandler) ClearCart(w http.ResponseWriter, r *http.Request) {
	userID := chi.URLParam(r, "userId")

	c, err := h.carts.Clear(r.Context(), userID)
	if err != nil {
		writeAppError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, c)
}
