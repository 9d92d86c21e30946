package handlers

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"github.com/LURY-TMP/matzon-platform/internal/domain/model"
	moderationsvc "github.com/LURY-TMP/matzon-platform/internal/services/moderation"
	"github.com/LURY-TMP/matzon-platform/internal/transport/http/dto"
	httperrors "github.com/LURY-TMP/matzon-platform/internal/transport/http/errors"
)

type ModerationAdminHandler struct {
	service *moderationsvc.Service
	logger  *zap.Logger
}

func NewModerationAdminHandler(service *moderationsvc.Service, logger *zap.Logger) *ModerationAdminHandler {
	return &ModerationAdminHandler{service: service, logger: logger}
}

func (h *ModerationAdminHandler) PendingReports(w http.ResponseWriter, r *http.Request) {
	if !h.ready(w) {
		return
	}
	cursor, limit := pageParams(r)
	page, err := h.service.GetPendingReports(r.Context(), cursor, limit)
	if err != nil {
		writeServiceError(w, h.logger, r, err)
		return
	}
	httperrors.Write(w, http.StatusOK, page)
}

func (h *ModerationAdminHandler) ReportStats(w http.ResponseWriter, r *http.Request) {
	if !h.ready(w) {
		return
	}
	stats, err := h.service.GetReportStats(r.Context())
	if err != nil {
		writeServiceError(w, h.logger, r, err)
		return
	}
	httperrors.Write(w, http.StatusOK, stats)
}

func (h *ModerationAdminHandler) ResolveReport(w http.ResponseWriter, r *http.Request) {
	identity, ok := requireIdentity(w, r)
	if !ok || !h.ready(w) {
		return
	}

	var req dto.ResolveReportRequest
	if err := decodeJSON(r, &req); err != nil {
		writeBadRequest(w, "INVALID_REQUEST", "invalid resolve payload")
		return
	}

	report, err := h.service.ResolveReport(r.Context(), moderationsvc.ResolveReportInput{
		ReportID:   chi.URLParam(r, "id"),
		ResolvedBy: identity.UserID,
		Status:     req.Status,
		Note:       req.Note,
	})
	if err != nil {
		writeServiceError(w, h.logger, r, err)
		return
	}
	httperrors.Write(w, http.StatusOK, report)
}

func (h *ModerationAdminHandler) BanUser(w http.ResponseWriter, r *http.Request) {
	identity, ok := requireIdentity(w, r)
	if !ok || !h.ready(w) {
		return
	}

	var req dto.BanUserRequest
	if err := decodeJSON(r, &req); err != nil {
		writeBadRequest(w, "INVALID_REQUEST", "invalid ban payload")
		return
	}

	user, err := h.service.BanUser(r.Context(), chi.URLParam(r, "id"), identity.UserID, req.Reason)
	if err != nil {
		writeServiceError(w, h.logger, r, err)
		return
	}
	httperrors.Write(w, http.StatusOK, userStatus(user))
}

func (h *ModerationAdminHandler) SuspendUser(w http.ResponseWriter, r *http.Request) {
	identity, ok := requireIdentity(w, r)
	if !ok || !h.ready(w) {
		return
	}

	var req dto.SuspendUserRequest
	if err := decodeJSON(r, &req); err != nil {
		writeBadRequest(w, "INVALID_REQUEST", "invalid suspend payload")
		return
	}

	user, err := h.service.SuspendUser(r.Context(), chi.URLParam(r, "id"), identity.UserID, req.Reason, req.Days)
	if err != nil {
		writeServiceError(w, h.logger, r, err)
		return
	}
	httperrors.Write(w, http.StatusOK, userStatus(user))
}

func (h *ModerationAdminHandler) ReinstateUser(w http.ResponseWriter, r *http.Request) {
	identity, ok := requireIdentity(w, r)
	if !ok || !h.ready(w) {
		return
	}

	user, err := h.service.ReinstateUser(r.Context(), chi.URLParam(r, "id"), identity.UserID)
	if err != nil {
		writeServiceError(w, h.logger, r, err)
		return
	}
	httperrors.Write(w, http.StatusOK, userStatus(user))
}

func (h *ModerationAdminHandler) ready(w http.ResponseWriter) bool {
	if h.service == nil {
		writeInternal(w, "MODERATION_SERVICE_UNAVAILABLE", "moderation service is unavailable")
		return false
	}
	return true
}

func userStatus(u model.User) dto.UserStatusResponse {
	return dto.UserStatusResponse{
		ID:              u.ID,
		Status:          u.Status,
		RestrictedUntil: u.RestrictedUntil,
	}
}
