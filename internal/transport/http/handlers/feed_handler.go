package handlers

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	feedsvc "github.com/LURY-TMP/matzon-platform/internal/services/feed"
	httperrors "github.com/LURY-TMP/matzon-platform/internal/transport/http/errors"
)

type FeedHandler struct {
	service *feedsvc.Service
	logger  *zap.Logger
}

func NewFeedHandler(service *feedsvc.Service, logger *zap.Logger) *FeedHandler {
	return &FeedHandler{service: service, logger: logger}
}

func (h *FeedHandler) Personal(w http.ResponseWriter, r *http.Request) {
	identity, ok := requireIdentity(w, r)
	if !ok || !h.ready(w) {
		return
	}
	cursor, limit := pageParams(r)
	page, err := h.service.PersonalFeed(r.Context(), identity.UserID, cursor, limit)
	if err != nil {
		writeServiceError(w, h.logger, r, err)
		return
	}
	httperrors.Write(w, http.StatusOK, page)
}

func (h *FeedHandler) Global(w http.ResponseWriter, r *http.Request) {
	if !h.ready(w) {
		return
	}
	cursor, limit := pageParams(r)
	page, err := h.service.GlobalFeed(r.Context(), cursor, limit)
	if err != nil {
		writeServiceError(w, h.logger, r, err)
		return
	}
	httperrors.Write(w, http.StatusOK, page)
}

func (h *FeedHandler) User(w http.ResponseWriter, r *http.Request) {
	if !h.ready(w) {
		return
	}
	cursor, limit := pageParams(r)
	page, err := h.service.UserEvents(r.Context(), chi.URLParam(r, "id"), cursor, limit)
	if err != nil {
		writeServiceError(w, h.logger, r, err)
		return
	}
	httperrors.Write(w, http.StatusOK, page)
}

func (h *FeedHandler) ready(w http.ResponseWriter) bool {
	if h.service == nil {
		writeInternal(w, "FEED_SERVICE_UNAVAILABLE", "feed service is unavailable")
		return false
	}
	return true
}
