package bootstrap

import (
	"context"

	"signal_bot/internal/modules/config"
	"signal_bot/pkg/logger"
	"signal_bot/pkg/tracing"

	"go.uber.org/fx"
)

const serviceName = "signal_bot"

// Init поднимает логгер и трейсер до старта остальных модулей.
func Init(lc fx.Lifecycle, cfg *config.Config) error {
	logger.SetServiceName(serviceName)
	if err := logger.Init(cfg.System.LogLevel, cfg.System.Development); err != nil {
		return err
	}

	tracing.SetServiceName(serviceName)
	_, closeTracer, err := tracing.InitTracer(tracing.Config{
		Host: cfg.Tracing.Host,
		Port: cfg.Tracing.Port,
	})
	if err != nil {
		logger.Warn("[BOOT] tracer disabled: %v", err)
		closeTracer = func() {}
	}

	logger.Info("[BOOT] config loaded: %d bots, interval %s", len(cfg.Bots), cfg.UpdateInterval())
	lc.Append(fx.Hook{
		OnStop: func(context.Context) error {
			closeTracer()
			logger.Sync()
			return nil
		},
	})
	return nil
}

func Module() fx.Option {
	return fx.Module("bootstrap",
		fx.Invoke(Init),
	)
}
