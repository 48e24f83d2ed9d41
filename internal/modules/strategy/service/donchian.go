package service

import (
	"fmt"
	"sync"

	"signal_bot/internal/models"
)

const StrategyDonchian = "donchian"

// Donchian: пробой канала Дончиана с EMA-фильтром тренда.
// Канал строится по period свечам перед последней.
type Donchian struct {
	mu     sync.Mutex
	params models.Params
	gate   cooldownGate

	high, low, ema float64
	period, trend  int
	ready          bool
}

func NewDonchian(params models.Params, opts ...Option) (Evaluator, error) {
	o := buildOptions(opts)
	gate, err := newCooldownGate(params, o.now)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", StrategyDonchian, err)
	}
	return &Donchian{params: params, gate: gate}, nil
}

func (s *Donchian) Name() string { return StrategyDonchian }

func (s *Donchian) Evaluate(series models.Series) (models.Signal, error) {
	if series.Empty() {
		return none(), nil
	}
	period, err := s.params.Int("period", 20)
	if err != nil {
		return none(), err
	}
	trend, err := s.params.Int("trend_ema", 50)
	if err != nil {
		return none(), err
	}
	if period < 1 {
		return none(), fmt.Errorf("param %q must be >= 1, got %d", "period", period)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	s.period, s.trend = period, trend
	// ещё не достаточно данных
	if len(series) < period+1 || len(series) < trend {
		s.ready = false
		return none(), nil
	}

	window := series[len(series)-1-period : len(series)-1]
	dh, dl := window[0].High, window[0].Low
	for _, c := range window[1:] {
		if c.High > dh {
			dh = c.High
		}
		if c.Low < dl {
			dl = c.Low
		}
	}
	ema, _ := EMA(series.Closes(), trend)
	last, _ := series.Last()
	s.high, s.low, s.ema, s.ready = dh, dl, ema, true

	// фильтр тренда: торгуем только в сторону EMA
	var (
		side   models.Side
		reason string
	)
	if last.Close > dh && last.Close > ema {
		side = models.SideBuy
		reason = fmt.Sprintf("Donchian breakout UP: close=%.5f > dh=%.5f & ema=%.5f", last.Close, dh, ema)
	} else if last.Close < dl && last.Close < ema {
		side = models.SideSell
		reason = fmt.Sprintf("Donchian breakout DOWN: close=%.5f < dl=%.5f & ema=%.5f", last.Close, dl, ema)
	}
	if !s.gate.Allow(side) {
		return none(), nil
	}
	return models.Signal{
		Side:    side,
		Price:   last.Close,
		Value:   last.Close,
		Message: reason,
	}, nil
}

func (s *Donchian) Dump() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.ready {
		return "Donchian: warmup"
	}
	side, _ := s.gate.Last()
	return fmt.Sprintf("Donchian[period=%d] H=%.5f L=%.5f EMA=%d=%.5f last=%s",
		s.period, s.high, s.low, s.trend, s.ema, side)
}
