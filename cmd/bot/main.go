package main

import (
	"context"

	"signal_bot/internal/modules/alerts"
	"signal_bot/internal/modules/bootstrap"
	"signal_bot/internal/modules/config"
	"signal_bot/internal/modules/health"
	"signal_bot/internal/modules/market"
	"signal_bot/internal/modules/postgres"
	"signal_bot/internal/modules/runner"
	"signal_bot/internal/modules/strategy"

	"go.uber.org/fx"
)

func main() {
	fx.New(
		fx.Provide(
			func() context.Context {
				return context.Background()
			},
		),
		config.Module(),
		bootstrap.Module(),
		health.Module(),
		postgres.Module(),
		market.Module(),
		strategy.Module(),
		alerts.Module(),
		runner.Module(),
	).Run()
}
