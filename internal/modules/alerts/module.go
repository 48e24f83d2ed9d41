package alerts

import (
	"context"

	"signal_bot/internal/modules/alerts/service"
	"signal_bot/internal/modules/config"
	"signal_bot/pkg/db"
	"signal_bot/pkg/logger"

	"go.uber.org/fx"
)

// NewSink собирает набор синков из конфига. Необязательные каналы, которые
// не поднялись, пропускаются с предупреждением; без единого канала алерты уходят в лог.
func NewSink(ctx context.Context, cfg *config.Config, pg *db.PgTxManager) *service.Multi {
	var journal db.TxManager
	if pg != nil {
		journal = pg
	}
	return buildSinks(ctx, cfg, journal)
}

func buildSinks(ctx context.Context, cfg *config.Config, journal db.TxManager) *service.Multi {
	var sinks []service.Sink

	if cfg.Alerts.WebhookURL != "" {
		sinks = append(sinks, service.NewDiscord(cfg.Alerts.WebhookURL, cfg.Alerts.Timeout))
	} else {
		logger.Warn("[ALERT] WEBHOOK_URL not set - discord alerts disabled")
	}

	if tg := cfg.Alerts.Telegram; tg.Token != "" && tg.ChatID != 0 {
		t, err := service.NewTelegram(tg.Token, tg.ChatID, tg.Endpoint, cfg.Alerts.Timeout)
		if err != nil {
			logger.Warn("[ALERT] telegram disabled: %v", err)
		} else {
			sinks = append(sinks, t)
		}
	}

	if journal != nil {
		j := service.NewJournal(journal)
		if err := j.Migrate(ctx); err != nil {
			logger.Warn("[ALERT] alert journal disabled: %v", err)
		} else {
			sinks = append(sinks, j)
		}
	}

	if cfg.Alerts.Stdout || len(sinks) == 0 {
		sinks = append(sinks, service.NewStdout())
	}

	m := service.NewMulti(sinks...).WithTimeout(cfg.Alerts.Timeout)
	logger.Info("[ALERT] %d sink(s) configured", m.Len())
	return m
}

func Module() fx.Option {
	return fx.Module("alerts",
		fx.Provide(
			NewSink, // *service.Multi
		),
		fx.Invoke(func(lc fx.Lifecycle, m *service.Multi) {
			lc.Append(fx.Hook{
				OnStop: func(context.Context) error {
					return m.Close()
				},
			})
		}),
	)
}
