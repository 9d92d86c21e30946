package handlers

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	ratesvc "github.com/LURY-TMP/matzon-platform/internal/services/rate"
	socialsvc "github.com/LURY-TMP/matzon-platform/internal/services/social"
	"github.com/LURY-TMP/matzon-platform/internal/transport/http/dto"
	httperrors "github.com/LURY-TMP/matzon-platform/internal/transport/http/errors"
)

type SocialHandler struct {
	service *socialsvc.Service
	limiter RateLimiter
	logger  *zap.Logger
}

func NewSocialHandler(service *socialsvc.Service, limiter RateLimiter, logger *zap.Logger) *SocialHandler {
	return &SocialHandler{service: service, limiter: limiter, logger: logger}
}

func (h *SocialHandler) Follow(w http.ResponseWriter, r *http.Request) {
	identity, ok := requireIdentity(w, r)
	if !ok || !h.ready(w) {
		return
	}
	if !allowRate(w, r, h.limiter, h.logger, ratesvc.ActionFollow, identity.UserID) {
		return
	}

	follow, err := h.service.Follow(r.Context(), identity.UserID, chi.URLParam(r, "id"))
	if err != nil {
		writeServiceError(w, h.logger, r, err)
		return
	}
	httperrors.Write(w, http.StatusCreated, follow)
}

func (h *SocialHandler) Unfollow(w http.ResponseWriter, r *http.Request) {
	identity, ok := requireIdentity(w, r)
	if !ok || !h.ready(w) {
		return
	}
	if !allowRate(w, r, h.limiter, h.logger, ratesvc.ActionFollow, identity.UserID) {
		return
	}

	if err := h.service.Unfollow(r.Context(), identity.UserID, chi.URLParam(r, "id")); err != nil {
		writeServiceError(w, h.logger, r, err)
		return
	}
	httperrors.Write(w, http.StatusOK, dto.FollowStatusResponse{Following: false})
}

func (h *SocialHandler) Followers(w http.ResponseWriter, r *http.Request) {
	if _, ok := requireIdentity(w, r); !ok || !h.ready(w) {
		return
	}
	cursor, limit := pageParams(r)
	page, err := h.service.Followers(r.Context(), chi.URLParam(r, "id"), cursor, limit)
	if err != nil {
		writeServiceError(w, h.logger, r, err)
		return
	}
	httperrors.Write(w, http.StatusOK, page)
}

func (h *SocialHandler) Following(w http.ResponseWriter, r *http.Request) {
	if _, ok := requireIdentity(w, r); !ok || !h.ready(w) {
		return
	}
	cursor, limit := pageParams(r)
	page, err := h.service.Following(r.Context(), chi.URLParam(r, "id"), cursor, limit)
	if err != nil {
		writeServiceError(w, h.logger, r, err)
		return
	}
	httperrors.Write(w, http.StatusOK, page)
}

func (h *SocialHandler) Relationship(w http.ResponseWriter, r *http.Request) {
	identity, ok := requireIdentity(w, r)
	if !ok || !h.ready(w) {
		return
	}
	rel, err := h.service.Relationship(r.Context(), identity.UserID, chi.URLParam(r, "id"))
	if err != nil {
		writeServiceError(w, h.logger, r, err)
		return
	}
	httperrors.Write(w, http.StatusOK, rel)
}

func (h *SocialHandler) ready(w http.ResponseWriter) bool {
	if h.service == nil {
		writeInternal(w, "SOCIAL_SERVICE_UNAVAILABLE", "social service is unavailable")
		return false
	}
	return true
}
