package service

// rsiState считает RSI по Уайлдеру. Первые period изменений усредняются просто,
// дальше avg = (prev*(n-1) + x) / n.
type rsiState struct {
	period      int
	prev        float64
	avgGain     float64
	avgLoss     float64
	changes     int
	initialized bool
}

func newRSI(period int) rsiState {
	return rsiState{period: period}
}

func (r *rsiState) Update(price float64) {
	if !r.initialized {
		r.prev = price
		r.initialized = true
		return
	}
	change := price - r.prev
	r.prev = price

	gain, loss := 0.0, 0.0
	if change > 0 {
		gain = change
	} else {
		loss = -change
	}

	n := float64(r.period)
	r.changes++
	if r.changes <= r.period {
		// прогрев: простое среднее
		r.avgGain += gain / n
		r.avgLoss += loss / n
		return
	}
	r.avgGain = (r.avgGain*(n-1) + gain) / n
	r.avgLoss = (r.avgLoss*(n-1) + loss) / n
}

func (r *rsiState) Ready() bool { return r.period > 0 && r.changes >= r.period }

func (r *rsiState) Value() float64 {
	if r.avgLoss == 0 {
		return 100
	}
	rs := r.avgGain / r.avgLoss
	return 100 - (100 / (1 + rs))
}

// RSI считает значение на последней цене. ok=false, если цен меньше period+1.
func RSI(closes []float64, period int) (value float64, ok bool) {
	if period < 1 || len(closes) < period+1 {
		return 0, false
	}
	st := newRSI(period)
	for _, c := range closes {
		st.Update(c)
	}
	return st.Value(), st.Ready()
}
