package strategy

import (
	"signal_bot/internal/modules/config"
	"signal_bot/internal/modules/strategy/service"

	"go.uber.org/fx"
)

func Module() fx.Option {
	return fx.Module("strategy",
		fx.Provide(
			service.NewRegistry, // *service.Registry
			func(r *service.Registry, cfg *config.Config) (service.Evaluators, error) {
				return r.Build(cfg.Bots)
			},
		),
	)
}
