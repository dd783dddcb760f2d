package httpapi

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/saraelshenawy632/project-grad/internal/apperr"
	"github.com/saraelshenawy632/project-grad/internal/order"
)

type errorResponse struct {
	Error     string `json:"error"`
	Code      string `json:"code,omitempty"`
	ProductID string `json:"productId,omitempty"`
	Available *int   `json:"available,omitempty"`
	Retryable bool   `json:"retryable,omitempty"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, errorResponse{Error: msg})
}

// writeAppError translates the closed error set into a caller-facing result.
// Client mistakes and "try again later" never share a status class.
func writeAppError(w http.ResponseWriter, err error) {
	if errors.Is(err, order.ErrStateConflict) {
		writeJSON(w, http.StatusConflict, errorResponse{Error: err.Error(), Code: "conflict"})
		return
	}

	var e *apperr.Error
	if !errors.As(err, &e) {
		writeError(w, http.StatusInternalServerError, "internal error")
		return
	}

	resp := errorResponse{
		Error:     e.Message,
		Code:      string(e.Kind),
		Retryable: apperr.Retryable(err),
	}

	var status int
	switch e.Kind {
	case apperr.KindNotFound:
		status = http.StatusNotFound
	case apperr.KindInsufficientStock:
		status = http.StatusConflict
		resp.ProductID = e.ProductID
		available := e.Available
		resp.Available = &available
	case apperr.KindTransactionConflict:
		status = http.StatusConflict
	case apperr.KindInternal:
		status = http.StatusInternalServerError
		resp.Error = "internal error"
	default:
		// The remaining kinds are all caller mistakes.
		status = http.StatusBadRequest
	}

	writeJSON(w, status, resp)
}
