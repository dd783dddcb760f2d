package httpapi

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/saraelshenawy632/project-grad/internal/catalog"
)

type CatalogHandler struct {
	repo catalog.Repository
}

func NewCatalogHandler(repo catalog.Repository) *CatalogHandler {
	return &CatalogHandler{repo: repo}
}

func (h *CatalogHandler) GetProduct(w http.ResponseWriter, r *http.Request) {
	productID := chi.URLParam(r, "productId")

	p, err := h.repo.Get(r.Context(), productID)
	if err != nil {
		if errors.Is(err, catalog.ErrNotFound) {
			writeError(w, http.StatusNotFound, "product not found")
			return
		}
		writeError(w, http.StatusInternalServerError, "internal error")
		return
	}

	writeJSON(w, http.StatusOK, p)
}

type adjustProductRequest struct {
	ProductID string  `json:"productId"`
	Name      string  `json:"name"`
	Price     float64 `json:"price"`
	Stock     int     `json:"stock"`
}

func (h *CatalogHandler) AdjustProduct(w http.ResponseWriter, r *http.Request) {
	var req adjustProductRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid json")
		return
	}
	if req.ProductID == "" || req.Price < 0 || req.Stock < 0 {
		writeError(w, http.StatusBadRequest, "bad request")
		return
	}

	if err := h.repo.Upsert(r.Context(), catalog.Product{
		ID:    req.ProductID,
		Name:  req.Name,
		Price: req.Price,
		Stock: req.Stock,
	}); err != nil {
		writeError(w, http.StatusInternalServerError, "internal error")
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{"ok": true})
}
