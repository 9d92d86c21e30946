package apiapp

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"github.com/LURY-TMP/matzon-platform/internal/domain/enums"
	auditsvc "github.com/LURY-TMP/matzon-platform/internal/services/audit"
	"github.com/LURY-TMP/matzon-platform/internal/services/auditexport"
	feedsvc "github.com/LURY-TMP/matzon-platform/internal/services/feed"
	moderationsvc "github.com/LURY-TMP/matzon-platform/internal/services/moderation"
	notificationsvc "github.com/LURY-TMP/matzon-platform/internal/services/notifications"
	reputationsvc "github.com/LURY-TMP/matzon-platform/internal/services/reputation"
	socialsvc "github.com/LURY-TMP/matzon-platform/internal/services/social"
	"github.com/LURY-TMP/matzon-platform/internal/transport/http/handlers"
)

const requestTimeout = 60 * time.Second

type Dependencies struct {
	AuthService         TokenValidator
	ReputationService   *reputationsvc.Service
	ModerationService   *moderationsvc.Service
	SocialService       *socialsvc.Service
	NotificationService *notificationsvc.Service
	FeedService         *feedsvc.Service
	AuditService        *auditsvc.Service
	AuditExporter       *auditexport.Service
	RateLimiter         handlers.RateLimiter
	Realtime            http.Handler
	Logger              *zap.Logger
}

func RegisterRoutes(r chi.Router, deps Dependencies) {
	healthHandler := handlers.NewHealthHandler()
	reputationHandler := handlers.NewReputationHandler(deps.ReputationService, deps.Logger)
	reportHandler := handlers.NewReportHandler(deps.ModerationService, deps.RateLimiter, deps.Logger)
	socialHandler := handlers.NewSocialHandler(deps.SocialService, deps.RateLimiter, deps.Logger)
	notificationHandler := handlers.NewNotificationHandler(deps.NotificationService, deps.Logger)
	feedHandler := handlers.NewFeedHandler(deps.FeedService, deps.Logger)
	moderationAdminHandler := handlers.NewModerationAdminHandler(deps.ModerationService, deps.Logger)
	auditHandler := handlers.NewAuditHandler(deps.AuditService, deps.AuditExporter, deps.Logger)

	authMW := AuthMiddleware(deps.AuthService, deps.Logger)
	staffMW := RequireRole(enums.RoleAdmin, enums.RoleModerator)
	adminMW := RequireRole(enums.RoleAdmin)

	r.Get("/healthz", healthHandler.Get)
	r.Handle("/metrics", promhttp.Handler())
	if deps.Realtime != nil {
		r.Handle("/ws", deps.Realtime)
	}

	r.Route("/v1", func(r chi.Router) {
		r.Use(chimiddleware.Timeout(requestTimeout))

		r.Get("/reputation/users/{id}", reputationHandler.User)
		r.Get("/feed/global", feedHandler.Global)
		r.Get("/feed/users/{id}", feedHandler.User)

		r.Group(func(r chi.Router) {
			r.Use(authMW)

			r.Get("/reputation/me", reputationHandler.Me)
			r.Get("/reputation/me/follow-limit", reputationHandler.FollowLimit)
			r.Post("/reputation/me/recalculate", reputationHandler.Recalculate)

			r.Post("/reports", reportHandler.Create)

			r.Post("/users/{id}/follow", socialHandler.Follow)
			r.Delete("/users/{id}/follow", socialHandler.Unfollow)
			r.Get("/users/{id}/followers", socialHandler.Followers)
			r.Get("/users/{id}/following", socialHandler.Following)
			r.Get("/users/{id}/relationship", socialHandler.Relationship)

			r.Get("/notifications", notificationHandler.List)
			r.Get("/notifications/unread-count", notificationHandler.UnreadCount)
			r.Patch("/notifications/read-all", notificationHandler.MarkAllRead)
			r.Patch("/notifications/{id}/read", notificationHandler.MarkRead)

			r.Get("/feed", feedHandler.Personal)

			r.Route("/admin", func(r chi.Router) {
				r.Group(func(r chi.Router) {
					r.Use(staffMW)
					r.Get("/reports", moderationAdminHandler.PendingReports)
					r.Get("/reports/stats", moderationAdminHandler.ReportStats)
					r.Patch("/reports/{id}/resolve", moderationAdminHandler.ResolveReport)
					r.Post("/users/{id}/suspend", moderationAdminHandler.SuspendUser)
				})

				r.Group(func(r chi.Router) {
					r.Use(adminMW)
					r.Post("/users/{id}/ban", moderationAdminHandler.BanUser)
					r.Post("/users/{id}/reinstate", moderationAdminHandler.ReinstateUser)
					r.Get("/audit", auditHandler.Query)
					r.Get("/audit/actor/{id}", auditHandler.ByActor)
					r.Get("/audit/target/{id}", auditHandler.ByTarget)
					r.Get("/audit/action/{action}", auditHandler.ByAction)
					r.Post("/audit/export", auditHandler.Export)
				})
			})
		})
	})
}
