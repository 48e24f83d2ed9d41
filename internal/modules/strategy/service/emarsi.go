package service

import (
	"fmt"
	"sync"

	"signal_bot/internal/models"
)

const StrategyEMARSI = "ema_rsi"

// EMARSI ловит RSI-разворот только по тренду EMA. BUY при ema_s > ema_l и RSI < oversold,
// SELL при ema_s < ema_l и RSI > overbought.
type EMARSI struct {
	mu     sync.Mutex
	params models.Params
	gate   cooldownGate

	emaShort float64
	emaLong  float64
	rsi      float64
	ready    bool
}

func NewEMARSI(params models.Params, opts ...Option) (Evaluator, error) {
	o := buildOptions(opts)
	gate, err := newCooldownGate(params, o.now)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", StrategyEMARSI, err)
	}
	return &EMARSI{params: params, gate: gate}, nil
}

func (e *EMARSI) Name() string { return StrategyEMARSI }

func (e *EMARSI) Evaluate(series models.Series) (models.Signal, error) {
	if series.Empty() {
		return none(), nil
	}
	emaShortN, err := e.params.Int("ema_short", 9)
	if err != nil {
		return none(), err
	}
	emaLongN, err := e.params.Int("ema_long", 21)
	if err != nil {
		return none(), err
	}
	if emaShortN >= emaLongN {
		return none(), fmt.Errorf("ema_short must be < ema_long (%d >= %d)", emaShortN, emaLongN)
	}
	rsiN, err := e.params.Int("period", defaultRSIPeriod)
	if err != nil {
		return none(), err
	}
	ob, err := e.params.RequireFloat("overbought")
	if err != nil {
		return none(), err
	}
	os, err := e.params.RequireFloat("oversold")
	if err != nil {
		return none(), err
	}

	closes := series.Closes()
	short, okS := EMA(closes, emaShortN)
	long, okL := EMA(closes, emaLongN)
	rsi, okR := RSI(closes, rsiN)
	last, _ := series.Last()

	e.mu.Lock()
	defer e.mu.Unlock()

	e.emaShort, e.emaLong, e.rsi = short, long, rsi
	// прогрев: ждём достаточно точек
	e.ready = okS && okL && okR
	if !e.ready {
		return none(), nil
	}

	side := models.SideNone
	if short > long && rsi < os {
		side = models.SideBuy
	} else if short < long && rsi > ob {
		side = models.SideSell
	}
	if !e.gate.Allow(side) {
		return none(), nil
	}
	return models.Signal{
		Side:    side,
		Price:   last.Close,
		Value:   rsi,
		Message: fmt.Sprintf("RSI is %.2f (EMA_S=%.4f EMA_L=%.4f)", rsi, short, long),
	}, nil
}

func (e *EMARSI) Dump() string {
	e.mu.Lock()
	defer e.mu.Unlock()
	return fmt.Sprintf("EMA_S=%.4f EMA_L=%.4f RSI=%.2f", e.emaShort, e.emaLong, e.rsi)
}
