package handlers

import (
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"github.com/LURY-TMP/matzon-platform/internal/domain/enums"
	"github.com/LURY-TMP/matzon-platform/internal/domain/model"
	auditsvc "github.com/LURY-TMP/matzon-platform/internal/services/audit"
	"github.com/LURY-TMP/matzon-platform/internal/services/auditexport"
	"github.com/LURY-TMP/matzon-platform/internal/transport/http/dto"
	httperrors "github.com/LURY-TMP/matzon-platform/internal/transport/http/errors"
)

type AuditHandler struct {
	service  *auditsvc.Service
	exporter *auditexport.Service
	logger   *zap.Logger
}

func NewAuditHandler(service *auditsvc.Service, exporter *auditexport.Service, logger *zap.Logger) *AuditHandler {
	return &AuditHandler{service: service, exporter: exporter, logger: logger}
}

// Query filters by any combination of actor_id, target_id and action.
func (h *AuditHandler) Query(w http.ResponseWriter, r *http.Request) {
	if !h.ready(w) {
		return
	}
	q := r.URL.Query()
	filter := model.AuditFilter{
		ActorID:  strings.TrimSpace(q.Get("actor_id")),
		TargetID: strings.TrimSpace(q.Get("target_id")),
		Action:   enums.AuditAction(strings.ToUpper(strings.TrimSpace(q.Get("action")))),
	}
	cursor, limit := pageParams(r)
	page, err := h.service.Query(r.Context(), filter, cursor, limit)
	if err != nil {
		writeServiceError(w, h.logger, r, err)
		return
	}
	httperrors.Write(w, http.StatusOK, page)
}

func (h *AuditHandler) ByActor(w http.ResponseWriter, r *http.Request) {
	if !h.ready(w) {
		return
	}
	cursor, limit := pageParams(r)
	page, err := h.service.FindByActor(r.Context(), chi.URLParam(r, "id"), cursor, limit)
	if err != nil {
		writeServiceError(w, h.logger, r, err)
		return
	}
	httperrors.Write(w, http.StatusOK, page)
}

func (h *AuditHandler) ByTarget(w http.ResponseWriter, r *http.Request) {
	if !h.ready(w) {
		return
	}
	cursor, limit := pageParams(r)
	page, err := h.service.FindByTarget(r.Context(), chi.URLParam(r, "id"), cursor, limit)
	if err != nil {
		writeServiceError(w, h.logger, r, err)
		return
	}
	httperrors.Write(w, http.StatusOK, page)
}

func (h *AuditHandler) ByAction(w http.ResponseWriter, r *http.Request) {
	if !h.ready(w) {
		return
	}
	action := enums.AuditAction(strings.ToUpper(chi.URLParam(r, "action")))
	cursor, limit := pageParams(r)
	page, err := h.service.FindByAction(r.Context(), action, cursor, limit)
	if err != nil {
		writeServiceError(w, h.logger, r, err)
		return
	}
	httperrors.Write(w, http.StatusOK, page)
}

func (h *AuditHandler) Export(w http.ResponseWriter, r *http.Request) {
	if h.exporter == nil {
		writeInternal(w, "AUDIT_EXPORT_UNAVAILABLE", "audit export is not configured")
		return
	}

	var req dto.AuditExportRequest
	if err := decodeJSON(r, &req); err != nil {
		writeBadRequest(w, "INVALID_REQUEST", "invalid export payload")
		return
	}

	result, err := h.exporter.Export(r.Context(), model.AuditFilter{
		ActorID:  strings.TrimSpace(req.ActorID),
		TargetID: strings.TrimSpace(req.TargetID),
		Action:   enums.AuditAction(strings.ToUpper(string(req.Action))),
	})
	if err != nil {
		writeServiceError(w, h.logger, r, err)
		return
	}
	httperrors.Write(w, http.StatusCreated, result)
}

func (h *AuditHandler) ready(w http.ResponseWriter) bool {
	if h.service == nil {
		writeInternal(w, "AUDIT_SERVICE_UNAVAILABLE", "audit service is unavailable")
		return false
	}
	return true
}
