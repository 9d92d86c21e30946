package handlers

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	notificationsvc "github.com/LURY-TMP/matzon-platform/internal/services/notifications"
	"github.com/LURY-TMP/matzon-platform/internal/transport/http/dto"
	httperrors "github.com/LURY-TMP/matzon-platform/internal/transport/http/errors"
)

type NotificationHandler struct {
	service *notificationsvc.Service
	logger  *zap.Logger
}

func NewNotificationHandler(service *notificationsvc.Service, logger *zap.Logger) *NotificationHandler {
	return &NotificationHandler{service: service, logger: logger}
}

func (h *NotificationHandler) List(w http.ResponseWriter, r *http.Request) {
	identity, ok := requireIdentity(w, r)
	if !ok || !h.ready(w) {
		return
	}
	cursor, limit := pageParams(r)
	page, err := h.service.ListByUser(r.Context(), identity.UserID, cursor, limit)
	if err != nil {
		writeServiceError(w, h.logger, r, err)
		return
	}
	httperrors.Write(w, http.StatusOK, page)
}

func (h *NotificationHandler) UnreadCount(w http.ResponseWriter, r *http.Request) {
	identity, ok := requireIdentity(w, r)
	if !ok || !h.ready(w) {
		return
	}
	count, err := h.service.UnreadCount(r.Context(), identity.UserID)
	if err != nil {
		writeServiceError(w, h.logger, r, err)
		return
	}
	httperrors.Write(w, http.StatusOK, dto.UnreadCountResponse{Count: count})
}

func (h *NotificationHandler) MarkRead(w http.ResponseWriter, r *http.Request) {
	identity, ok := requireIdentity(w, r)
	if !ok || !h.ready(w) {
		return
	}
	n, err := h.service.MarkAsRead(r.Context(), identity.UserID, chi.URLParam(r, "id"))
	if err != nil {
		writeServiceError(w, h.logger, r, err)
		return
	}
	httperrors.Write(w, http.StatusOK, n)
}

func (h *NotificationHandler) MarkAllRead(w http.ResponseWriter, r *http.Request) {
	identity, ok := requireIdentity(w, r)
	if !ok || !h.ready(w) {
		return
	}
	updated, err := h.service.MarkAllAsRead(r.Context(), identity.UserID)
	if err != nil {
		writeServiceError(w, h.logger, r, err)
		return
	}
	httperrors.Write(w, http.StatusOK, dto.MarkAllReadResponse{Updated: updated})
}

func (h *NotificationHandler) ready(w http.ResponseWriter) bool {
	if h.service == nil {
		writeInternal(w, "NOTIFICATION_SERVICE_UNAVAILABLE", "notification service is unavailable")
		return false
	}
	return true
}
