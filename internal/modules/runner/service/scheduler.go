package service

import (
	"context"
	"fmt"
	"runtime/debug"
	"strings"
	"sync/atomic"
	"time"

	"signal_bot/internal/models"
	health "signal_bot/internal/modules/health/service"
	strategy "signal_bot/internal/modules/strategy/service"
	"signal_bot/pkg/logger"
	"signal_bot/pkg/metrics"
	"signal_bot/pkg/tracing"
)

const DefaultRecoveryDelay = 30 * time.Second

// Phase: где сейчас находится движок.
type Phase int32

const (
	Idle Phase = iota
	Fetching
	Evaluating
	Sleeping
	FatalRestart
)

func (p Phase) String() string {
	switch p {
	case Idle:
		return "idle"
	case Fetching:
		return "fetching"
	case Evaluating:
		return "evaluating"
	case Sleeping:
		return "sleeping"
	case FatalRestart:
		return "fatal_restart"
	}
	return fmt.Sprintf("phase(%d)", int32(p))
}

// Notifier: куда уходят сработавшие сигналы.
type Notifier interface {
	Notify(ctx context.Context, symbol, message string, side models.Side)
}

type Config struct {
	Interval      time.Duration
	RecoveryDelay time.Duration
	Sources       []string // только для баннера
}

// Scheduler гоняет цикл fetch → evaluate → sleep, пока жив ctx.
// Циклы не пересекаются; падение цикла ведёт к паузе и перезапуску, не к выходу.
type Scheduler struct {
	cfg   Config
	bots  []models.BotConfig
	evals strategy.Evaluators
	cache *Cache
	sink  Notifier

	rec   *metrics.Recorder
	state *health.State

	phase    atomic.Int32
	cycles   atomic.Int64
	restarts atomic.Int64
}

func NewScheduler(
	cfg Config,
	bots []models.BotConfig,
	evals strategy.Evaluators,
	cache *Cache,
	sink Notifier,
	rec *metrics.Recorder,
	state *health.State,
) *Scheduler {
	if cfg.RecoveryDelay <= 0 {
		cfg.RecoveryDelay = DefaultRecoveryDelay
	}
	if state == nil {
		state = health.NewState()
	}
	return &Scheduler{
		cfg:   cfg,
		bots:  bots,
		evals: evals,
		cache: cache,
		sink:  sink,
		rec:   rec,
		state: state,
	}
}

func (s *Scheduler) State() Phase    { return Phase(s.phase.Load()) }
func (s *Scheduler) Cycles() int64   { return s.cycles.Load() }
func (s *Scheduler) Restarts() int64 { return s.restarts.Load() }

func (s *Scheduler) setPhase(p Phase) {
	s.phase.Store(int32(p))
	s.state.SetPhase(p.String())
}

func (s *Scheduler) banner() {
	keys := UniqueKeys(s.bots)
	logger.Info("=== SIGNAL BOT: POLLING ENGINE STARTED ===")
	logger.Info("bots=%d unique streams=%d interval=%s sources=[%s]",
		len(s.bots), len(keys), s.cfg.Interval, strings.Join(s.cfg.Sources, ", "))
	for _, b := range s.bots {
		logger.Info("  %s: %s %s %s", b.ID, b.Pair, b.Timeframe, b.Strategy)
	}
}

// Run крутит циклы до отмены ctx. Возвращается только по отмене.
func (s *Scheduler) Run(ctx context.Context) {
	s.banner()
	defer s.setPhase(Idle)

	for ctx.Err() == nil {
		err := s.safeCycle(ctx)
		if ctx.Err() != nil {
			break
		}

		if err != nil {
			n := s.restarts.Add(1)
			s.rec.RecordRestart()
			s.state.Restarted()
			s.setPhase(FatalRestart)
			logger.Error("[ENGINE] cycle failed: %v; restart #%d in %s", err, n, s.cfg.RecoveryDelay)
			if !sleepCtx(ctx, s.cfg.RecoveryDelay) {
				break
			}
			continue
		}

		s.setPhase(Sleeping)
		logger.Info("[ENGINE] cycle %d complete, sleeping %s", s.cycles.Load(), s.cfg.Interval)
		if !sleepCtx(ctx, s.cfg.Interval) {
			break
		}
	}
	logger.Info("[ENGINE] stopped after %d cycles", s.cycles.Load())
}

// safeCycle превращает панику в ошибку цикла.
func (s *Scheduler) safeCycle(ctx context.Context) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("panic: %v\n%s", r, debug.Stack())
		}
	}()
	return s.RunCycle(ctx)
}

// RunCycle делает один проход: данные для всех уникальных ключей, затем все боты по порядку.
func (s *Scheduler) RunCycle(ctx context.Context) (err error) {
	n := s.cycles.Load() + 1
	span, ctx := tracing.StartSpan(ctx, "cycle", map[string]any{"cycle": n, "bots": len(s.bots)})
	defer func() { tracing.Finish(span, err) }()
	start := time.Now()

	s.setPhase(Fetching)
	keys := UniqueKeys(s.bots)
	logger.Info("[ENGINE] cycle %d: fetching %d unique streams for %d bots", n, len(keys), len(s.bots))

	fspan, fctx := tracing.StartSpan(ctx, "fetch_unique", map[string]any{"keys": len(keys)})
	data, err := s.cache.FetchUnique(fctx, keys)
	tracing.Finish(fspan, err)
	if err != nil {
		return fmt.Errorf("fetch: %w", err)
	}

	s.setPhase(Evaluating)
	espan, ectx := tracing.StartSpan(ctx, "evaluate", nil)
	fired := 0
	for _, b := range s.bots {
		if ectx.Err() != nil {
			break
		}
		if s.runBot(ectx, b, data) {
			fired++
		}
	}
	tracing.Finish(espan, nil)

	s.cycles.Add(1)
	s.state.CycleDone(time.Now())
	s.rec.RecordLatency("cycle", time.Since(start).Seconds())
	logger.Info("[ENGINE] cycle %d: %d signal(s) in %s", n, fired, time.Since(start).Round(time.Millisecond))
	return ctx.Err()
}

// runBot оценивает одного бота. Ошибка или паника бота не трогает остальных.
func (s *Scheduler) runBot(ctx context.Context, b models.BotConfig, data map[models.CacheKey]models.Series) (fired bool) {
	defer func() {
		if r := recover(); r != nil {
			s.rec.RecordBotError(b.ID)
			logger.Error("[BOT %s] panic: %v\n%s", b.ID, r, debug.Stack())
			fired = false
		}
	}()

	series, ok := data[b.Key()]
	if !ok || series.Empty() {
		logger.Warn("[BOT %s] no data for %s, skipped", b.ID, b.Key())
		return false
	}
	ev, ok := s.evals[b.ID]
	if !ok {
		s.rec.RecordBotError(b.ID)
		logger.Error("[BOT %s] no evaluator", b.ID)
		return false
	}

	sig, err := ev.Evaluate(series)
	if err != nil {
		s.rec.RecordBotError(b.ID)
		logger.Error("[BOT %s] %s: %v", b.ID, ev.Name(), err)
		return false
	}
	logger.Info("[%s] %s %s", b.Pair, b.Timeframe, ev.Dump())
	if !sig.Ok() {
		return false
	}

	sig.BotID, sig.Symbol = b.ID, b.Pair
	s.rec.RecordSignal(b.ID, string(sig.Side))
	s.rec.RecordValue(b.ID, sig.Value)
	logger.Info("[%s] SIGNAL: %s %s", sig.Symbol, sig.Side, sig.Message)
	s.sink.Notify(ctx, sig.Symbol, sig.Message, sig.Side)
	return true
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
