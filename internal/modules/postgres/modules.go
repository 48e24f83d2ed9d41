package postgres

import (
	"context"

	"signal_bot/internal/modules/config"
	"signal_bot/pkg/db"
	"signal_bot/pkg/logger"

	"go.uber.org/fx"
)

// newTxManager: журнал необязателен. Без DSN или при недоступной базе отдаём nil,
// бот стартует без журнала.
func newTxManager(ctx context.Context, lc fx.Lifecycle, cfg *config.Config) *db.PgTxManager {
	if cfg.DB == "" {
		logger.Info("[DB] db_dsn not set, alert journal disabled")
		return nil
	}
	m, err := db.Connect(ctx, cfg.DB, cfg.Alerts.Timeout)
	if err != nil {
		logger.Warn("[DB] postgres unavailable, alert journal disabled: %v", err)
		return nil
	}

	lc.Append(fx.Hook{
		OnStop: func(context.Context) error {
			m.Close()
			return nil
		},
	})
	return m
}

func Module() fx.Option {
	return fx.Module("postgres",
		fx.Provide(
			newTxManager,
		),
	)
}
