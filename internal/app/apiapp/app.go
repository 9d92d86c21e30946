package apiapp

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	goredis "github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/LURY-TMP/matzon-platform/internal/config"
	"github.com/LURY-TMP/matzon-platform/internal/domain/rules"
	s3infra "github.com/LURY-TMP/matzon-platform/internal/infra/s3"
	"github.com/LURY-TMP/matzon-platform/internal/infra/telegram"
	"github.com/LURY-TMP/matzon-platform/internal/jobs/expiry"
	redrepo "github.com/LURY-TMP/matzon-platform/internal/repo/redis"
	auditsvc "github.com/LURY-TMP/matzon-platform/internal/services/audit"
	"github.com/LURY-TMP/matzon-platform/internal/services/auditexport"
	authsvc "github.com/LURY-TMP/matzon-platform/internal/services/auth"
	"github.com/LURY-TMP/matzon-platform/internal/services/effects"
	feedsvc "github.com/LURY-TMP/matzon-platform/internal/services/feed"
	moderationsvc "github.com/LURY-TMP/matzon-platform/internal/services/moderation"
	notificationsvc "github.com/LURY-TMP/matzon-platform/internal/services/notifications"
	ratesvc "github.com/LURY-TMP/matzon-platform/internal/services/rate"
	"github.com/LURY-TMP/matzon-platform/internal/services/realtime"
	reputationsvc "github.com/LURY-TMP/matzon-platform/internal/services/reputation"
	socialsvc "github.com/LURY-TMP/matzon-platform/internal/services/social"
)

type App struct {
	cfg        config.Config
	logger     *zap.Logger
	server     *http.Server
	storage    storage
	redis      *goredis.Client
	hub        *realtime.Hub
	scheduler  *expiry.Scheduler
	workers    context.Context
	stop       context.CancelFunc
	httpRouter http.Handler
}

func New(ctx context.Context, cfg config.Config, log *zap.Logger) (*App, error) {
	if log == nil {
		return nil, fmt.Errorf("logger is nil")
	}

	r := chi.NewRouter()
	ApplyMiddlewares(r, log)

	store, err := openStorage(ctx, cfg, log)
	if err != nil {
		return nil, err
	}

	redisClient := redrepo.NewClient(cfg.Redis.Addr, cfg.Redis.Password, cfg.Redis.DB)
	pingCtx, cancelPing := context.WithTimeout(ctx, 2*time.Second)
	defer cancelPing()
	if err := redrepo.Ping(pingCtx, redisClient); err != nil {
		log.Warn("redis unavailable, presence and rate limits degraded", zap.Error(err))
	}
	presenceRepo := redrepo.NewPresenceRepo(redisClient)
	rateLimiter := ratesvc.NewLimiter(
		redrepo.NewRateRepo(redisClient),
		cfg.Rate.WritePerMinute,
		cfg.Rate.WritePer10Sec,
	)

	hub := realtime.NewHub(realtime.Config{
		SendBuffer:     cfg.Realtime.SendBuffer,
		ThrottleLimit:  cfg.Realtime.ThrottleLimit,
		ThrottleWindow: cfg.Realtime.ThrottleWindow,
		SweepInterval:  cfg.Realtime.SweepInterval,
		PingInterval:   cfg.Realtime.PingInterval,
		AllowedOrigins: cfg.Realtime.AllowedOrigins,
	}, log)

	notificationService := notificationsvc.NewService(store.notifications, hub, log)
	feedService := feedsvc.NewService(store.feed, hub, log)
	sinks := effects.Sinks{
		Pusher:   hub,
		Notifier: notificationService,
		Feed:     feedService,
	}
	if cfg.Telegram.BotToken != "" && cfg.Telegram.AlertChatID != 0 {
		if alerter, err := telegram.NewAlerter(cfg.Telegram.BotToken, cfg.Telegram.AlertChatID); err != nil {
			log.Warn("telegram alerter init failed, moderation alerts disabled", zap.Error(err))
		} else {
			sinks.Alerter = alerter
		}
	}
	dispatcher := effects.NewDispatcher(sinks, log)

	reputationRules := rules.DefaultReputation()
	auditService := auditsvc.NewService(store.audit)
	reputationService := reputationsvc.NewService(reputationsvc.Dependencies{
		Tx:         store.tx,
		Users:      store.users,
		Events:     store.events,
		Audit:      auditService,
		Dispatcher: dispatcher,
		Rules:      reputationRules,
		Logger:     log,
	})
	moderationService := moderationsvc.NewService(moderationsvc.Dependencies{
		Tx:         store.tx,
		Users:      store.users,
		Reports:    store.reports,
		Audit:      auditService,
		Reputation: reputationService,
		Dispatcher: dispatcher,
		Rules:      reputationRules,
		Location:   cfg.Moderation.Location(),
		Logger:     log,
	})
	socialService := socialsvc.NewService(socialsvc.Dependencies{
		Tx:         store.tx,
		Users:      store.users,
		Follows:    store.follows,
		Reputation: reputationService,
		Dispatcher: dispatcher,
		Logger:     log,
	})

	var exporter *auditexport.Service
	if client, err := s3infra.NewClient(s3infra.Config{
		Endpoint:  cfg.S3.Endpoint,
		AccessKey: cfg.S3.AccessKey,
		SecretKey: cfg.S3.SecretKey,
		Region:    cfg.S3.Region,
		UseSSL:    cfg.S3.UseSSL,
	}); err != nil {
		log.Warn("s3 init failed, audit export disabled", zap.Error(err))
	} else {
		exporter = auditexport.NewService(auditService, s3infra.NewStorage(client, cfg.S3.Bucket), log)
	}

	jwtManager := authsvc.NewJWTManager(cfg.Auth.JWTSecret, cfg.Auth.JWTAccessTTL)
	authService := authsvc.NewService(jwtManager, store.users)

	scheduler, err := expiry.NewScheduler(
		expiry.New(moderationService, cfg.Jobs.ExpiryBatchSize, log),
		cfg.Jobs.ExpirySchedule,
		cfg.Moderation.Location(),
		log,
	)
	if err != nil {
		store.close()
		return nil, fmt.Errorf("create expiry scheduler: %w", err)
	}

	RegisterRoutes(r, Dependencies{
		AuthService:         authService,
		ReputationService:   reputationService,
		ModerationService:   moderationService,
		SocialService:       socialService,
		NotificationService: notificationService,
		FeedService:         feedService,
		AuditService:        auditService,
		AuditExporter:       exporter,
		RateLimiter:         rateLimiter,
		Realtime:            realtime.NewHandler(hub, authService, presenceRepo, store.users, log),
		Logger:              log,
	})

	server := &http.Server{
		Addr:         cfg.HTTP.Addr,
		Handler:      r,
		ReadTimeout:  cfg.HTTP.ReadTimeout,
		WriteTimeout: cfg.HTTP.WriteTimeout,
		IdleTimeout:  cfg.HTTP.IdleTimeout,
	}

	workers, stop := context.WithCancel(context.Background())
	return &App{
		cfg:        cfg,
		logger:     log,
		server:     server,
		storage:    store,
		redis:      redisClient,
		hub:        hub,
		scheduler:  scheduler,
		workers:    workers,
		stop:       stop,
		httpRouter: r,
	}, nil
}

// Run starts the background workers and blocks serving HTTP.
func (a *App) Run() error {
	go a.hub.Run(a.workers)
	a.scheduler.Start()

	a.logger.Info("api server started",
		zap.String("addr", a.cfg.HTTP.Addr),
		zap.String("storage", a.cfg.Storage.Driver),
	)
	err := a.server.ListenAndServe()
	if errors.Is(err, http.ErrServerClosed) {
		return nil
	}
	return err
}

func (a *App) Shutdown(ctx context.Context) error {
	var shutdownErr error

	if err := a.server.Shutdown(ctx); err != nil {
		shutdownErr = err
	}
	if a.scheduler != nil {
		a.scheduler.Stop()
	}
	a.stop()
	a.storage.close()
	if a.redis != nil {
		if err := a.redis.Close(); err != nil && shutdownErr == nil {
			shutdownErr = err
		}
	}

	return shutdownErr
}

func (a *App) Handler() http.Handler {
	return a.httpRouter
}
