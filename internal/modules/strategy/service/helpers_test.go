package service

import (
	"time"

	"signal_bot/internal/models"
)

var t0 = time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)

func seriesFromCloses(closes []float64) models.Series {
	out := make(models.Series, 0, len(closes))
	for i, c := range closes {
		out = append(out, models.Candle{
			Timestamp: t0.Add(time.Duration(i) * time.Hour).UnixMilli(),
			Open:      c,
			High:      c + 0.5,
			Low:       c - 0.5,
			Close:     c,
			Volume:    1,
		})
	}
	return out
}

// closesFromChanges строит цены от start по списку изменений.
func closesFromChanges(start float64, changes []float64) []float64 {
	out := []float64{start}
	for _, ch := range changes {
		out = append(out, out[len(out)-1]+ch)
	}
	return out
}

func repeat(v float64, n int) []float64 {
	out := make([]float64, n)
	for i := range out {
		out[i] = v
	}
	return out
}

func concat(parts ...[]float64) []float64 {
	var out []float64
	for _, p := range parts {
		out = append(out, p...)
	}
	return out
}

// rsi75 даёт 20 свечей с RSI(14) = 75 на последней. В первых 14 изменениях
// прирост втрое больше падений, дальше цена стоит.
func rsi75() models.Series {
	changes := concat(repeat(1, 9), repeat(-1, 3), repeat(0, 2), repeat(0, 5))
	return seriesFromCloses(closesFromChanges(100, changes))
}

// rsi25: зеркальная серия, RSI(14) = 25.
func rsi25() models.Series {
	changes := concat(repeat(-1, 9), repeat(1, 3), repeat(0, 2), repeat(0, 5))
	return seriesFromCloses(closesFromChanges(100, changes))
}

type fakeClock struct{ now time.Time }

func (c *fakeClock) Now() time.Time          { return c.now }
func (c *fakeClock) Advance(d time.Duration) { c.now = c.now.Add(d) }

func testRSIParams() models.Params {
	return models.Params{"period": 14, "overbought": 70, "oversold": 30, "alert_cooldown": 3600}
}
