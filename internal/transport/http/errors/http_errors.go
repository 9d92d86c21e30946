package errors

import (
	"encoding/json"
	stderrors "errors"
	"net/http"

	"github.com/LURY-TMP/matzon-platform/internal/pkg/apperr"
)

type APIError struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

type RateLimitError struct {
	Code          string `json:"code"`
	Message       string `json:"message"`
	RetryAfterSec int64  `json:"retry_after_sec"`
}

func Write(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}

// FromError maps an engine error to its HTTP status and body. Anything that
// is not an apperr kind becomes a 500 with a generic message.
func FromError(err error) (int, APIError) {
	msg, ok := apperr.Message(err)
	switch {
	case ok && stderrors.Is(err, apperr.ErrBadRequest):
		return http.StatusBadRequest, APIError{Code: "BAD_REQUEST", Message: msg}
	case ok && stderrors.Is(err, apperr.ErrForbidden):
		return http.StatusForbidden, APIError{Code: "FORBIDDEN", Message: msg}
	case ok && stderrors.Is(err, apperr.ErrConflict):
		return http.StatusConflict, APIError{Code: "CONFLICT", Message: msg}
	case ok && stderrors.Is(err, apperr.ErrNotFound):
		return http.StatusNotFound, APIError{Code: "NOT_FOUND", Message: msg}
	default:
		return http.StatusInternalServerError, APIError{Code: "INTERNAL_ERROR", Message: "internal server error"}
	}
}
