package main

import (
	"encoding/json"
	"errors"
	"net/http"

	"go.uber.org/zap"

	"github.com/Simplici0/jewelbook/internal/billing"
	"github.com/Simplici0/jewelbook/internal/store"
	"github.com/Simplici0/jewelbook/internal/wastage"
	"github.com/Simplici0/jewelbook/internal/workshop"
)

type errorResponse struct {
	Error string `json:"error"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeBadRequest(w http.ResponseWriter, err error) {
	writeJSON(w, http.StatusBadRequest, errorResponse{Error: err.Error()})
}

// writeError maps domain errors to status codes. Anything unrecognized is
// logged and reported as a 500 without its message.
func (s *server) writeError(w http.ResponseWriter, r *http.Request, err error) {
	status := statusFor(err)
	if status == http.StatusInternalServerError {
		s.logger.Error("request failed",
			zap.String("method", r.Method), zap.String("path", r.URL.Path), zap.Error(err))
		writeJSON(w, status, errorResponse{Error: "internal error"})
		return
	}
	writeJSON(w, status, errorResponse{Error: err.Error()})
}

func statusFor(err error) int {
	switch {
	case errors.Is(err, store.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, store.ErrConflict),
		errors.Is(err, store.ErrInsufficientStock),
		errors.Is(err, workshop.ErrNotCustomOrder):
		return http.StatusConflict
	case errors.Is(err, wastage.ErrInvalidKaratage),
		errors.Is(err, wastage.ErrInvalidPurity),
		errors.Is(err, wastage.ErrInvalidWeight),
		errors.Is(err, billing.ErrInvalidAmount):
		return http.StatusUnprocessableEntity
	case errors.Is(err, billing.ErrInvalidPaymentType),
		errors.Is(err, billing.ErrInvalidBillType),
		errors.Is(err, store.ErrInvalidReceiptType):
		return http.StatusBadRequest
	default:
		return http.StatusInternalServerError
	}
}

// writeFormError reports a form parsing failure. Plain validation messages are
// 400s; domain errors keep their mapped status.
func (s *server) writeFormError(w http.ResponseWriter, r *http.Request, err error) {
	if statusFor(err) == http.StatusInternalServerError {
		writeBadRequest(w, err)
		return
	}
	s.writeError(w, r, err)
}
