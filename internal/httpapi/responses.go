package httpapi

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"marketserver/internal/domain"
)

type errorEnvelope struct {
	Error apiError `json:"error"`
}

type apiError struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

func WriteError(w http.ResponseWriter, status int, code, message string) {
	WriteJSON(w, status, errorEnvelope{Error: apiError{Code: code, Message: message}})
}

func WriteJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func WriteDomainError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, domain.ErrValidation):
		WriteError(w, http.StatusBadRequest, "validation_error", "invalid request")
	case errors.Is(err, domain.ErrEmailTaken):
		WriteError(w, http.StatusConflict, "email_taken", "email already taken")
	case errors.Is(err, domain.ErrInvalidCredentials):
		WriteError(w, http.StatusUnauthorized, "invalid_credentials", "invalid email or password")
	case errors.Is(err, domain.ErrUnauthorized):
		WriteError(w, http.StatusUnauthorized, "unauthorized", "unauthorized")
	case errors.Is(err, domain.ErrTokenMismatch):
		WriteError(w, http.StatusForbidden, "token_mismatch", "token does not match the resource owner")
	case errors.Is(err, domain.ErrForbidden):
		WriteError(w, http.StatusForbidden, "forbidden", "forbidden")
	case errors.Is(err, domain.ErrTooManyAttempts):
		writeLockout(w, err)
	case errors.Is(err, domain.ErrInsufficientFunds):
		WriteError(w, http.StatusPaymentRequired, "insufficient_funds", "wallet balance too low")
	case errors.Is(err, domain.ErrInsufficientStock):
		WriteError(w, http.StatusConflict, "insufficient_stock", "not enough stock")
	case errors.Is(err, domain.ErrCartEmpty):
		WriteError(w, http.StatusBadRequest, "cart_empty", "cart is empty")
	case errors.Is(err, domain.ErrNotFound):
		WriteError(w, http.StatusNotFound, "not_found", "not found")
	default:
		WriteError(w, http.StatusInternalServerError, "internal_error", "internal server error")
	}
}

// writeLockout adds a Retry-After header when the lockout window is known.
func writeLockout(w http.ResponseWriter, err error) {
	var lockErr *domain.LockoutError
	if errors.As(err, &lockErr) {
		secs := int(lockErr.RetryAfter.Seconds())
		if secs < 1 {
			secs = 1
		}
		w.Header().Set("Retry-After", strconv.Itoa(secs))
	}
	WriteError(w, http.StatusForbidden, "too_many_attempts", "Too many failed login attempts")
}
