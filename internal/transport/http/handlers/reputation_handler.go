package handlers

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	reputationsvc "github.com/LURY-TMP/matzon-platform/internal/services/reputation"
	"github.com/LURY-TMP/matzon-platform/internal/transport/http/dto"
	httperrors "github.com/LURY-TMP/matzon-platform/internal/transport/http/errors"
)

type ReputationHandler struct {
	service *reputationsvc.Service
	logger  *zap.Logger
}

func NewReputationHandler(service *reputationsvc.Service, logger *zap.Logger) *ReputationHandler {
	return &ReputationHandler{service: service, logger: logger}
}

func (h *ReputationHandler) Me(w http.ResponseWriter, r *http.Request) {
	identity, ok := requireIdentity(w, r)
	if !ok {
		return
	}
	h.writeReputation(w, r, identity.UserID)
}

func (h *ReputationHandler) User(w http.ResponseWriter, r *http.Request) {
	h.writeReputation(w, r, chi.URLParam(r, "id"))
}

func (h *ReputationHandler) FollowLimit(w http.ResponseWriter, r *http.Request) {
	identity, ok := requireIdentity(w, r)
	if !ok {
		return
	}
	if h.service == nil {
		writeInternal(w, "REPUTATION_SERVICE_UNAVAILABLE", "reputation service is unavailable")
		return
	}

	capacity, err := h.service.CanFollow(r.Context(), identity.UserID)
	if err != nil {
		writeServiceError(w, h.logger, r, err)
		return
	}
	httperrors.Write(w, http.StatusOK, dto.FollowLimitResponse{
		Limit:   capacity.Limit,
		Current: capacity.Current,
		Allowed: capacity.Allowed,
	})
}

func (h *ReputationHandler) Recalculate(w http.ResponseWriter, r *http.Request) {
	identity, ok := requireIdentity(w, r)
	if !ok {
		return
	}
	if h.service == nil {
		writeInternal(w, "REPUTATION_SERVICE_UNAVAILABLE", "reputation service is unavailable")
		return
	}

	result, err := h.service.RecalculateReputation(r.Context(), identity.UserID, identity.UserID)
	if err != nil {
		writeServiceError(w, h.logger, r, err)
		return
	}
	httperrors.Write(w, http.StatusOK, result)
}

func (h *ReputationHandler) writeReputation(w http.ResponseWriter, r *http.Request, userID string) {
	if h.service == nil {
		writeInternal(w, "REPUTATION_SERVICE_UNAVAILABLE", "reputation service is unavailable")
		return
	}

	rep, err := h.service.GetUserReputation(r.Context(), userID)
	if err != nil {
		writeServiceError(w, h.logger, r, err)
		return
	}
	if rep == nil {
		writeNotFound(w, "User not found")
		return
	}
	httperrors.Write(w, http.StatusOK, rep)
}
