package service

import (
	"errors"
	"fmt"
	"sort"

	"signal_bot/internal/models"
)

var ErrUnknownStrategy = errors.New("unknown strategy")

// Registry: таблица «имя стратегии из конфига → фабрика».
// Новая стратегия = новая запись, без наследования.
type Registry struct {
	factories map[string]Factory
}

func NewRegistry() *Registry {
	return &Registry{factories: map[string]Factory{
		StrategyRSIMeanReversion: NewRSIMeanReversion,
		StrategyEMARSI:           NewEMARSI,
		StrategyDonchian:         NewDonchian,
	}}
}

func (r *Registry) Register(name string, f Factory) { r.factories[name] = f }

func (r *Registry) Names() []string {
	out := make([]string, 0, len(r.factories))
	for n := range r.factories {
		out = append(out, n)
	}
	sort.Strings(out)
	return out
}

func (r *Registry) New(name string, params models.Params, opts ...Option) (Evaluator, error) {
	f, ok := r.factories[name]
	if !ok {
		return nil, fmt.Errorf("%w: %q (known: %v)", ErrUnknownStrategy, name, r.Names())
	}
	if params == nil {
		params = models.Params{}
	}
	return f(params, opts...)
}

// Evaluators хранит состояние ботов: id бота → его стратегия.
type Evaluators map[string]Evaluator

// Build создаёт по одной стратегии на бота при старте движка.
func (r *Registry) Build(bots []models.BotConfig, opts ...Option) (Evaluators, error) {
	out := make(Evaluators, len(bots))
	for _, b := range bots {
		ev, err := r.New(b.Strategy, b.Params, opts...)
		if err != nil {
			return nil, fmt.Errorf("bot %s: %w", b.ID, err)
		}
		out[b.ID] = ev
	}
	return out, nil
}
