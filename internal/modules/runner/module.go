package runner

import (
	"context"

	alerts "signal_bot/internal/modules/alerts/service"
	"signal_bot/internal/modules/config"
	health "signal_bot/internal/modules/health/service"
	market "signal_bot/internal/modules/market/service"
	"signal_bot/internal/modules/runner/service"
	strategy "signal_bot/internal/modules/strategy/service"
	"signal_bot/pkg/metrics"

	"go.uber.org/fx"
)

func newScheduler(
	cfg *config.Config,
	src *market.Source,
	evals strategy.Evaluators,
	sink *alerts.Multi,
	rec *metrics.Recorder,
	state *health.State,
) *service.Scheduler {
	cache := service.NewCache(src, cfg.Data.MaxParallelFetches)
	return service.NewScheduler(
		service.Config{
			Interval:      cfg.UpdateInterval(),
			RecoveryDelay: service.DefaultRecoveryDelay,
			Sources:       []string{"binance ws (pairs)", "yahoo chart (tickers)"},
		},
		cfg.Bots, evals, cache, sink, rec, state,
	)
}

// Module запускает движок в фоне. OnStop отменяет его и ждёт выхода из цикла;
// источник и синки закрываются своими модулями уже после.
func Module() fx.Option {
	return fx.Module("runner",
		fx.Provide(
			newScheduler, // *service.Scheduler
		),
		fx.Invoke(func(lc fx.Lifecycle, s *service.Scheduler) {
			runCtx, cancel := context.WithCancel(context.Background())
			done := make(chan struct{})

			lc.Append(fx.Hook{
				OnStart: func(context.Context) error {
					go func() {
						defer close(done)
						s.Run(runCtx)
					}()
					return nil
				},
				OnStop: func(ctx context.Context) error {
					cancel()
					select {
					case <-done:
						return nil
					case <-ctx.Done():
						return ctx.Err()
					}
				},
			})
		}),
	)
}
