package http

import (
	"encoding/json"
	"net/http"

	"github.com/cockroachdb/errors"
	"github.com/usetix/tix/internal/domain"
)

func writeJSON(w http.ResponseWriter, status int, payload interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if payload != nil {
		json.NewEncoder(w).Encode(payload)
	}
}

type errorBody struct {
	Message string `json:"message"`
}

// writeError maps domain sentinels onto HTTP statuses. Unknown errors
// are reported as 500 without leaking their text.
func writeError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, domain.ErrInvalidInput):
		writeJSON(w, http.StatusBadRequest, errorBody{Message: "invalid input"})
	case errors.Is(err, domain.ErrUnauthorized), errors.Is(err, domain.ErrInvalidCredentials):
		writeJSON(w, http.StatusUnauthorized, errorBody{Message: "unauthorized"})
	case errors.Is(err, domain.ErrForbidden):
		writeJSON(w, http.StatusForbidden, errorBody{Message: "forbidden"})
	case errors.Is(err, domain.ErrNotFound):
		writeJSON(w, http.StatusNotFound, errorBody{Message: "not found"})
	case errors.Is(err, domain.ErrDuplicateEmail):
		writeJSON(w, http.StatusConflict, errorBody{Message: "email already registered"})
	case errors.Is(err, domain.ErrInsufficientInventory):
		writeJSON(w, http.StatusConflict, errorBody{Message: "not enough tickets available"})
	case errors.Is(err, domain.ErrBookingNotPending):
		writeJSON(w, http.StatusConflict, errorBody{Message: "booking is not awaiting payment"})
	case errors.Is(err, domain.ErrBookingNotRefundable):
		writeJSON(w, http.StatusConflict, errorBody{Message: "booking is not refundable"})
	case errors.Is(err, domain.ErrNotConfirmed):
		writeJSON(w, http.StatusConflict, errorBody{Message: "booking is not confirmed"})
	case errors.Is(err, domain.ErrConflict), errors.Is(err, domain.ErrSerializationFailure):
		writeJSON(w, http.StatusConflict, errorBody{Message: "conflict, try again"})
	case errors.Is(err, domain.ErrPaymentProcessing):
		// The processor's message is the actionable part; surface it.
		writeJSON(w, http.StatusBadGateway, errorBody{Message: err.Error()})
	default:
		writeJSON(w, http.StatusInternalServerError, errorBody{Message: "internal error"})
	}
}

func decode(r *http.Request, dst interface{}) error {
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		return domain.ErrInvalidInput
	}
	return nil
}
