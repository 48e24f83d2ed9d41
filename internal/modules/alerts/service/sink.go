package service

import (
	"context"
	"fmt"
	"sync"
	"time"

	"signal_bot/internal/models"
	"signal_bot/pkg/logger"
)

// Sink доставляет алерт. Ошибки доставки остаются внутри: Notify ничего не возвращает.
type Sink interface {
	Notify(ctx context.Context, symbol, message string, side models.Side)
	Close() error
}

const footer = "Soul Surgery Alert System"

// Alert: то, что видит получатель.
type Alert struct {
	Symbol  string
	Message string
	Side    models.Side
	At      time.Time
}

func (a Alert) Emoji() string {
	if a.Side == models.SideSell {
		return "📉"
	}
	return "📈"
}

func (a Alert) Title() string {
	return fmt.Sprintf("%s %s Alert: %s", a.Emoji(), a.Side, a.Symbol)
}

func (a Alert) Description() string {
	return fmt.Sprintf("**RSI:** %s\n**Action:** Monitor for %s opportunity", a.Message, a.Side.Lower())
}

// Color: красный для SELL, зелёный для остального.
func (a Alert) Color() int {
	if a.Side == models.SideSell {
		return 16711680
	}
	return 65280
}

// Multi рассылает алерт во все синки параллельно; падение одного не мешает остальным.
type Multi struct {
	sinks   []Sink
	timeout time.Duration
}

func NewMulti(sinks ...Sink) *Multi {
	out := make([]Sink, 0, len(sinks))
	for _, s := range sinks {
		if s != nil {
			out = append(out, s)
		}
	}
	return &Multi{sinks: out}
}

func (m *Multi) Len() int { return len(m.sinks) }

// WithTimeout ограничивает ожидание одного алерта. 0: ждать до отмены ctx.
func (m *Multi) WithTimeout(d time.Duration) *Multi {
	m.timeout = d
	return m
}

// Notify рассылает алерт всем синкам параллельно и ждёт их не дольше дедлайна;
// не успевшие синки получают отменённый ctx, их не ждём.
func (m *Multi) Notify(ctx context.Context, symbol, message string, side models.Side) {
	if m.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, m.timeout)
		defer cancel()
	}

	var wg sync.WaitGroup
	wg.Add(len(m.sinks))
	for _, s := range m.sinks {
		go func(s Sink) {
			defer wg.Done()
			defer func() {
				if r := recover(); r != nil {
					logger.Error("[ALERT] sink %T panic: %v", s, r)
				}
			}()
			s.Notify(ctx, symbol, message, side)
		}(s)
	}

	done := make(chan struct{})
	go func() {
		wg.Wait()
		close(done)
	}()

	select {
	case <-done:
	case <-ctx.Done():
		logger.Warn("[ALERT] %s %s: sinks not finished (%v), not waiting", side, symbol, ctx.Err())
	}
}

// Close закрывает синки в обратном порядке.
func (m *Multi) Close() error {
	var first error
	for i := len(m.sinks) - 1; i >= 0; i-- {
		if err := m.sinks[i].Close(); err != nil && first == nil {
			first = err
		}
	}
	return first
}
