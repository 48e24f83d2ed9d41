package service

import (
	"time"

	"signal_bot/internal/models"
)

// Evaluator: стратегия одного бота. Держит своё состояние (последний сигнал,
// кулдаун) на всё время жизни процесса.
type Evaluator interface {
	Name() string
	// Evaluate считает индикатор по серии и решает, слать ли сигнал.
	// Пустая серия: нет сигнала и нет изменения состояния.
	Evaluate(series models.Series) (models.Signal, error)
	// Dump: строка для логов с последними значениями индикатора.
	Dump() string
}

// Factory собирает стратегию из params бота.
type Factory func(params models.Params, opts ...Option) (Evaluator, error)

type options struct {
	now func() time.Time
}

type Option func(*options)

// WithClock подменяет часы кулдауна (для тестов).
func WithClock(now func() time.Time) Option {
	return func(o *options) { o.now = now }
}

func buildOptions(opts []Option) options {
	o := options{now: time.Now}
	for _, opt := range opts {
		opt(&o)
	}
	return o
}

func none() models.Signal { return models.Signal{Side: models.SideNone} }
