package service

import (
	"context"
	"sync"
	"time"

	"signal_bot/internal/models"
)

var t0 = time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)

// overbought: 20 часовых свечей, RSI(14) на последней = 75.
func overbought() models.Series {
	var changes []float64
	for i := 0; i < 9; i++ {
		changes = append(changes, 1)
	}
	for i := 0; i < 3; i++ {
		changes = append(changes, -1)
	}
	for i := 0; i < 7; i++ {
		changes = append(changes, 0)
	}
	out := models.Series{{Timestamp: t0.UnixMilli(), Open: 100, High: 100, Low: 100, Close: 100}}
	price := 100.0
	for i, ch := range changes {
		price += ch
		out = append(out, models.Candle{
			Timestamp: t0.Add(time.Duration(i+1) * time.Hour).UnixMilli(),
			Open:      price, High: price, Low: price, Close: price,
		})
	}
	return out
}

type fakeFetcher struct {
	mu     sync.Mutex
	calls  map[models.CacheKey]int
	data   map[models.CacheKey]models.Series
	panics int // столько первых вызовов паникуют
	total  int
}

func newFakeFetcher(data map[models.CacheKey]models.Series) *fakeFetcher {
	return &fakeFetcher{calls: map[models.CacheKey]int{}, data: data}
}

func (f *fakeFetcher) Fetch(_ context.Context, symbol, timeframe string) models.Series {
	f.mu.Lock()
	k := models.CacheKey{Symbol: symbol, Timeframe: timeframe}
	f.calls[k]++
	f.total++
	boom := f.total <= f.panics
	s, ok := f.data[k]
	f.mu.Unlock()

	if boom {
		panic("fetcher exploded")
	}
	if !ok {
		return models.EmptySeries()
	}
	return s
}

func (f *fakeFetcher) count(k models.CacheKey) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls[k]
}

type sent struct {
	symbol, message string
	side            models.Side
}

type recordSink struct {
	mu  sync.Mutex
	got []sent
}

func (r *recordSink) Notify(_ context.Context, symbol, message string, side models.Side) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.got = append(r.got, sent{symbol: symbol, message: message, side: side})
}

func (r *recordSink) alerts() []sent {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]sent(nil), r.got...)
}

type fakeClock struct {
	mu  sync.Mutex
	now time.Time
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	c.now = c.now.Add(d)
	c.mu.Unlock()
}

func rsiBot(id, pair, tf string) models.BotConfig {
	return models.BotConfig{
		ID:        id,
		Pair:      pair,
		Timeframe: tf,
		Strategy:  "rsi_mean_reversion",
		Params:    models.Params{"period": 14, "overbought": 70, "oversold": 30},
	}
}
