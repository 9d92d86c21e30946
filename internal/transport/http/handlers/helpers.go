package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strconv"
	"strings"

	"go.uber.org/zap"

	authsvc "github.com/LURY-TMP/matzon-platform/internal/services/auth"
	httperrors "github.com/LURY-TMP/matzon-platform/internal/transport/http/errors"
)

type RateLimiter interface {
	Allow(ctx context.Context, action, userID string) (int64, bool, error)
}

func decodeJSON(r *http.Request, target any) error {
	decoder := json.NewDecoder(r.Body)
	decoder.DisallowUnknownFields()
	if err := decoder.Decode(target); err != nil && !errors.Is(err, io.EOF) {
		return err
	}
	return nil
}

func writeBadRequest(w http.ResponseWriter, code, message string) {
	httperrors.Write(w, http.StatusBadRequest, httperrors.APIError{Code: code, Message: message})
}

func writeUnauthorized(w http.ResponseWriter, code, message string) {
	httperrors.Write(w, http.StatusUnauthorized, httperrors.APIError{Code: code, Message: message})
}

func writeInternal(w http.ResponseWriter, code, message string) {
	httperrors.Write(w, http.StatusInternalServerError, httperrors.APIError{Code: code, Message: message})
}

func writeNotFound(w http.ResponseWriter, message string) {
	httperrors.Write(w, http.StatusNotFound, httperrors.APIError{Code: "NOT_FOUND", Message: message})
}

// writeServiceError logs only unexpected failures; apperr kinds are the
// caller's fault and go back verbatim.
func writeServiceError(w http.ResponseWriter, logger *zap.Logger, r *http.Request, err error) {
	status, body := httperrors.FromError(err)
	if status == http.StatusInternalServerError && logger != nil {
		logger.Error("request failed",
			zap.String("method", r.Method),
			zap.String("path", r.URL.Path),
			zap.Error(err),
		)
	}
	httperrors.Write(w, status, body)
}

func requireIdentity(w http.ResponseWriter, r *http.Request) (authsvc.Identity, bool) {
	identity, ok := authsvc.IdentityFromContext(r.Context())
	if !ok || identity.UserID == "" {
		writeUnauthorized(w, "UNAUTHORIZED", "authentication required")
		return authsvc.Identity{}, false
	}
	return identity, true
}

// allowRate writes a 429 and returns false when the caller is over the
// limit. Limiter failures are logged and let the request through.
func allowRate(w http.ResponseWriter, r *http.Request, limiter RateLimiter, logger *zap.Logger, action, userID string) bool {
	if limiter == nil {
		return true
	}
	retryAfter, allowed, err := limiter.Allow(r.Context(), action, userID)
	if err != nil {
		if logger != nil {
			logger.Warn("rate limiter unavailable", zap.String("action", action), zap.Error(err))
		}
		return true
	}
	if allowed {
		return true
	}
	w.Header().Set("Retry-After", strconv.FormatInt(retryAfter, 10))
	httperrors.Write(w, http.StatusTooManyRequests, httperrors.RateLimitError{
		Code:          "TOO_MANY_REQUESTS",
		Message:       "too many requests, slow down",
		RetryAfterSec: retryAfter,
	})
	return false
}

func pageParams(r *http.Request) (string, int) {
	q := r.URL.Query()
	return strings.TrimSpace(q.Get("cursor")), parseIntOrDefault(q.Get("limit"), 0)
}

func parseIntOrDefault(raw string, fallback int) int {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return fallback
	}
	v, err := strconv.Atoi(raw)
	if err != nil {
		return fallback
	}
	return v
}
