package apiapp

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"
	"go.uber.org/zap"

	"github.com/LURY-TMP/matzon-platform/internal/config"
	"github.com/LURY-TMP/matzon-platform/internal/repo"
	"github.com/LURY-TMP/matzon-platform/internal/repo/memory"
	pgrepo "github.com/LURY-TMP/matzon-platform/internal/repo/postgres"
	auditsvc "github.com/LURY-TMP/matzon-platform/internal/services/audit"
	feedsvc "github.com/LURY-TMP/matzon-platform/internal/services/feed"
	moderationsvc "github.com/LURY-TMP/matzon-platform/internal/services/moderation"
	notificationsvc "github.com/LURY-TMP/matzon-platform/internal/services/notifications"
	reputationsvc "github.com/LURY-TMP/matzon-platform/internal/services/reputation"
	socialsvc "github.com/LURY-TMP/matzon-platform/internal/services/social"
)

type userStore interface {
	reputationsvc.UserStore
	moderationsvc.UserStore
	socialsvc.UserStore
}

// storage is one driver's view of every table the services touch.
type storage struct {
	tx            repo.Transactor
	users         userStore
	events        reputationsvc.EventStore
	reports       moderationsvc.ReportStore
	audit         auditsvc.Store
	follows       socialsvc.FollowStore
	notifications notificationsvc.Store
	feed          feedsvc.Repository
	pool          *pgxpool.Pool
}

func openStorage(ctx context.Context, cfg config.Config, log *zap.Logger) (storage, error) {
	switch cfg.Storage.Driver {
	case config.StoragePostgres:
		return openPostgres(ctx, cfg.Postgres, log)
	default:
		log.Warn("using in-memory storage, data is lost on restart")
		store := memory.NewStore()
		return storage{
			tx:            store,
			users:         store,
			events:        store,
			reports:       store,
			audit:         store,
			follows:       store,
			notifications: store,
			feed:          store,
		}, nil
	}
}

func openPostgres(ctx context.Context, cfg config.PostgresConfig, log *zap.Logger) (storage, error) {
	pool, err := pgrepo.NewPool(ctx, cfg.DSN)
	if err != nil {
		return storage{}, fmt.Errorf("open postgres: %w", err)
	}

	if cfg.Migrate {
		applied, err := pgrepo.Migrate(ctx, pool)
		if err != nil {
			pool.Close()
			return storage{}, fmt.Errorf("migrate postgres: %w", err)
		}
		log.Info("postgres migrations applied", zap.Int("count", applied))
	}

	social := pgrepo.NewSocialRepo(pool)
	return storage{
		tx:            pgrepo.NewTransactor(pool),
		users:         pgrepo.NewUserRepo(pool),
		events:        pgrepo.NewReputationRepo(pool),
		reports:       pgrepo.NewReportRepo(pool),
		audit:         pgrepo.NewAuditRepo(pool),
		follows:       social,
		notifications: pgrepo.NewNotificationRepo(pool),
		feed:          social,
		pool:          pool,
	}, nil
}

func (s storage) close() {
	if s.pool != nil {
		s.pool.Close()
	}
}
