package handlers

import (
	"net/http"

	"go.uber.org/zap"

	moderationsvc "github.com/LURY-TMP/matzon-platform/internal/services/moderation"
	ratesvc "github.com/LURY-TMP/matzon-platform/internal/services/rate"
	"github.com/LURY-TMP/matzon-platform/internal/transport/http/dto"
	httperrors "github.com/LURY-TMP/matzon-platform/internal/transport/http/errors"
)

type ReportHandler struct {
	service *moderationsvc.Service
	limiter RateLimiter
	logger  *zap.Logger
}

func NewReportHandler(service *moderationsvc.Service, limiter RateLimiter, logger *zap.Logger) *ReportHandler {
	return &ReportHandler{service: service, limiter: limiter, logger: logger}
}

func (h *ReportHandler) Create(w http.ResponseWriter, r *http.Request) {
	identity, ok := requireIdentity(w, r)
	if !ok {
		return
	}
	if h.service == nil {
		writeInternal(w, "MODERATION_SERVICE_UNAVAILABLE", "moderation service is unavailable")
		return
	}

	var req dto.CreateReportRequest
	if err := decodeJSON(r, &req); err != nil {
		writeBadRequest(w, "INVALID_REQUEST", "invalid report payload")
		return
	}
	if !allowRate(w, r, h.limiter, h.logger, ratesvc.ActionReport, identity.UserID) {
		return
	}

	report, err := h.service.CreateReport(r.Context(), moderationsvc.CreateReportInput{
		ReporterID:   identity.UserID,
		TargetUserID: req.TargetUserID,
		TargetType:   req.TargetType,
		TargetID:     req.TargetID,
		Reason:       req.Reason,
		Description:  req.Description,
	})
	if err != nil {
		writeServiceError(w, h.logger, r, err)
		return
	}
	httperrors.Write(w, http.StatusCreated, report)
}
