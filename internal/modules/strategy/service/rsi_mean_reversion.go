package service

import (
	"fmt"
	"sync"

	"signal_bot/internal/models"
)

const (
	StrategyRSIMeanReversion = "rsi_mean_reversion"

	defaultRSIPeriod = 14
)

// RSIMeanReversion: перекупленность → SELL, перепроданность → BUY.
type RSIMeanReversion struct {
	mu     sync.Mutex
	params models.Params
	gate   cooldownGate

	lastValue float64
	lastClose float64
	ready     bool
}

func NewRSIMeanReversion(params models.Params, opts ...Option) (Evaluator, error) {
	o := buildOptions(opts)
	gate, err := newCooldownGate(params, o.now)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", StrategyRSIMeanReversion, err)
	}
	return &RSIMeanReversion{params: params, gate: gate}, nil
}

func (s *RSIMeanReversion) Name() string { return StrategyRSIMeanReversion }

type rsiParams struct {
	period     int
	overbought float64
	oversold   float64
}

// параметры читаем на каждом вызове: кривой конфиг валит только этого бота
func (s *RSIMeanReversion) parse() (rsiParams, error) {
	var (
		p   rsiParams
		err error
	)
	if p.period, err = s.params.Int("period", defaultRSIPeriod); err != nil {
		return p, err
	}
	if p.period < 1 {
		return p, fmt.Errorf("param %q must be >= 1, got %d", "period", p.period)
	}
	if p.overbought, err = s.params.RequireFloat("overbought"); err != nil {
		return p, err
	}
	if p.oversold, err = s.params.RequireFloat("oversold"); err != nil {
		return p, err
	}
	return p, nil
}

func (s *RSIMeanReversion) Evaluate(series models.Series) (models.Signal, error) {
	if series.Empty() {
		return none(), nil
	}
	p, err := s.parse()
	if err != nil {
		return none(), err
	}

	value, ok := RSI(series.Closes(), p.period)
	last, _ := series.Last()

	s.mu.Lock()
	defer s.mu.Unlock()

	s.lastValue, s.lastClose, s.ready = value, last.Close, ok
	if !ok {
		return none(), nil
	}

	side := models.SideNone
	if value > p.overbought {
		side = models.SideSell
	} else if value < p.oversold {
		side = models.SideBuy
	}
	if !s.gate.Allow(side) {
		return none(), nil
	}

	return models.Signal{
		Side:    side,
		Price:   last.Close,
		Value:   value,
		Message: fmt.Sprintf("RSI is %.2f", value),
	}, nil
}

func (s *RSIMeanReversion) Dump() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.ready {
		return "RSI: warmup"
	}
	side, _ := s.gate.Last()
	return fmt.Sprintf("close=%.5f RSI=%.2f last=%s", s.lastClose, s.lastValue, side)
}
