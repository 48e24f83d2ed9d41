package market

import (
	"context"

	"signal_bot/internal/modules/config"
	"signal_bot/internal/modules/market/service"
	"signal_bot/pkg/logger"
	"signal_bot/pkg/metrics"

	"go.uber.org/fx"
)

func newSource(cfg *config.Config, rec *metrics.Recorder) (*service.Source, *service.BinanceWS) {
	crypto := service.NewBinanceWS(cfg.Data.BinanceWSURL, cfg.Data.RequestTimeout)
	equity := service.NewYahoo(cfg.Data.YahooURL, cfg.Data.RequestTimeout, cfg.Data.EquityWorkers)
	src := service.NewSource(crypto, equity, service.DefaultRetryPolicy(), cfg.Data.CandleLimit, rec)
	return src, crypto
}

// Module поднимает источник свечей: Binance WS для пар, Yahoo для тикеров.
func Module() fx.Option {
	return fx.Module("market",
		fx.Provide(
			newSource, // *service.Source, *service.BinanceWS
		),
		fx.Invoke(func(lc fx.Lifecycle, src *service.Source, ws *service.BinanceWS) {
			lc.Append(fx.Hook{
				OnStart: func(ctx context.Context) error {
					// соединение не обязательно: первый запрос передозвонится
					if err := ws.Open(ctx); err != nil {
						logger.Warn("[MARKET] binance ws not ready: %v", err)
					}
					return nil
				},
				OnStop: func(ctx context.Context) error {
					return src.Close()
				},
			})
		}),
	)
}
