package models

// Candle: одна OHLCV-свеча. Timestamp хранит время открытия в миллисекундах (unix ms).
type Candle struct {
	Timestamp int64
	Open      float64
	High      float64
	Low       float64
	Close     float64
	Volume    float64
}

// Series: свечи от старой к новой, timestamps строго возрастают.
// Пустая серия: нормальный ответ «данных нет», nil наружу не отдаём.
type Series []Candle

func EmptySeries() Series { return Series{} }

func (s Series) Empty() bool { return len(s) == 0 }

func (s Series) Last() (Candle, bool) {
	if len(s) == 0 {
		return Candle{}, false
	}
	return s[len(s)-1], true
}

func (s Series) Closes() []float64 {
	out := make([]float64, len(s))
	for i, c := range s {
		out[i] = c.Close
	}
	return out
}

// Tail: последние n свечей (или вся серия, если она короче).
func (s Series) Tail(n int) Series {
	if n <= 0 || len(s) <= n {
		return s
	}
	return s[len(s)-n:]
}

// Normalize выкидывает свечи, нарушающие строгий рост timestamp, и режет до limit.
func Normalize(in []Candle, limit int) Series {
	out := make(Series, 0, len(in))
	for _, c := range in {
		if n := len(out); n > 0 && c.Timestamp <= out[n-1].Timestamp {
			continue
		}
		out = append(out, c)
	}
	return out.Tail(limit)
}
