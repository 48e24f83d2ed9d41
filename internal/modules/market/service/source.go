package service

import (
	"context"
	"fmt"
	"runtime/debug"
	"strings"
	"time"

	"signal_bot/internal/models"
	"signal_bot/pkg/logger"
	"signal_bot/pkg/metrics"
)

// Upstream: один поставщик свечей (крипто или акции).
type Upstream interface {
	Name() string
	FetchCandles(ctx context.Context, symbol, timeframe string, limit int) (models.Series, error)
}

// RetryPolicy: Attempts попыток, между ними BaseDelay, 2*BaseDelay, 4*BaseDelay...
type RetryPolicy struct {
	Attempts  int
	BaseDelay time.Duration
}

func DefaultRetryPolicy() RetryPolicy {
	return RetryPolicy{Attempts: 3, BaseDelay: time.Second}
}

// Delay: пауза после неудачной попытки attempt (с нуля).
func (p RetryPolicy) Delay(attempt int) time.Duration {
	if attempt < 0 {
		attempt = 0
	}
	return p.BaseDelay << uint(attempt)
}

// Source: единая точка получения свечей. Символ с "/" уходит в крипто-апстрим,
// остальные в апстрим акций. Ошибки наружу не отдаются: после исчерпания попыток
// возвращается пустая серия.
type Source struct {
	crypto Upstream
	equity Upstream
	policy RetryPolicy
	limit  int
	rec    *metrics.Recorder
}

func NewSource(crypto, equity Upstream, policy RetryPolicy, limit int, rec *metrics.Recorder) *Source {
	if policy.Attempts <= 0 {
		policy.Attempts = 1
	}
	if limit <= 0 {
		limit = 100
	}
	return &Source{
		crypto: crypto,
		equity: equity,
		policy: policy,
		limit:  limit,
		rec:    rec,
	}
}

// IsCrypto: пара вида BASE/QUOTE.
func IsCrypto(symbol string) bool {
	return strings.Contains(symbol, "/")
}

func (s *Source) upstream(symbol string) Upstream {
	if IsCrypto(symbol) {
		return s.crypto
	}
	return s.equity
}

// Fetch: FetchLimit с лимитом из конфига.
func (s *Source) Fetch(ctx context.Context, symbol, timeframe string) models.Series {
	return s.FetchLimit(ctx, symbol, timeframe, s.limit)
}

// FetchLimit: последние limit свечей symbol@timeframe с ретраями. Никогда не возвращает nil.
func (s *Source) FetchLimit(ctx context.Context, symbol, timeframe string, limit int) models.Series {
	if limit <= 0 {
		limit = s.limit
	}
	up := s.upstream(symbol)
	if up == nil {
		logger.Error("[FETCH] %s %s: no upstream configured", symbol, timeframe)
		return models.EmptySeries()
	}

	start := time.Now()
	defer func() { s.rec.RecordLatency("fetch_"+up.Name(), time.Since(start).Seconds()) }()

	for attempt := 0; attempt < s.policy.Attempts; attempt++ {
		series, err := s.try(ctx, up, symbol, timeframe, limit)
		if err == nil {
			s.rec.RecordFetch(up.Name(), true)
			if series == nil {
				return models.EmptySeries()
			}
			return series
		}

		s.rec.RecordFetchRetry(up.Name())
		logger.Warn("[FETCH] %s %s via %s attempt %d/%d: %v",
			symbol, timeframe, up.Name(), attempt+1, s.policy.Attempts, err)

		if attempt+1 >= s.policy.Attempts {
			break
		}
		if !sleepCtx(ctx, s.policy.Delay(attempt)) {
			logger.Warn("[FETCH] %s %s: cancelled", symbol, timeframe)
			break
		}
	}

	s.rec.RecordFetch(up.Name(), false)
	logger.Error("[FETCH] %s %s via %s: giving up, empty series", symbol, timeframe, up.Name())
	return models.EmptySeries()
}

func (s *Source) try(ctx context.Context, up Upstream, symbol, timeframe string, limit int) (series models.Series, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("panic in %s: %v\n%s", up.Name(), r, debug.Stack())
		}
	}()
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return up.FetchCandles(ctx, symbol, timeframe, limit)
}

func sleepCtx(ctx context.Context, d time.Duration) bool {
	if d <= 0 {
		return ctx.Err() == nil
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return false
	case <-t.C:
		return true
	}
}

type closer interface{ Close() error }

// Close освобождает соединения и пулы апстримов.
func (s *Source) Close() error {
	var first error
	for _, up := range []Upstream{s.crypto, s.equity} {
		if c, ok := up.(closer); ok {
			if err := c.Close(); err != nil && first == nil {
				first = err
			}
		}
	}
	return first
}
