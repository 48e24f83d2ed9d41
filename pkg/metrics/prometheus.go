package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Recorder собирает метрики движка в собственный реестр,
// поэтому несколько экземпляров (в тестах) не конфликтуют.
// nil-Recorder допустим: все Record* становятся no-op.
type Recorder struct {
	reg *prometheus.Registry

	fetchesTotal  *prometheus.CounterVec
	fetchAttempts *prometheus.CounterVec
	signalsTotal  *prometheus.CounterVec
	botErrors     *prometheus.CounterVec
	restarts      prometheus.Counter
	lastValue     *prometheus.GaugeVec
	latency       *prometheus.HistogramVec
}

// New creates a new Prometheus metrics recorder.
func New() *Recorder {
	reg := prometheus.NewRegistry()
	f := promauto.With(reg)
	return &Recorder{
		reg: reg,
		fetchesTotal: f.NewCounterVec(
			prometheus.CounterOpts{
				Name: "signal_bot_fetches_total",
				Help: "Candle fetches by source and result",
			},
			[]string{"source", "result"},
		),
		fetchAttempts: f.NewCounterVec(
			prometheus.CounterOpts{
				Name: "signal_bot_fetch_attempts_failed_total",
				Help: "Failed fetch attempts before retry",
			},
			[]string{"source"},
		),
		signalsTotal: f.NewCounterVec(
			prometheus.CounterOpts{
				Name: "signal_bot_signals_total",
				Help: "Emitted signals",
			},
			[]string{"bot", "side"},
		),
		botErrors: f.NewCounterVec(
			prometheus.CounterOpts{
				Name: "signal_bot_bot_errors_total",
				Help: "Per-bot evaluation failures",
			},
			[]string{"bot"},
		),
		restarts: f.NewCounter(prometheus.CounterOpts{
			Name: "signal_bot_engine_restarts_total",
			Help: "Engine restarts after a fatal cycle error",
		}),
		lastValue: f.NewGaugeVec(
			prometheus.GaugeOpts{
				Name: "signal_bot_indicator_value",
				Help: "Last computed indicator value per bot",
			},
			[]string{"bot"},
		),
		latency: f.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "signal_bot_operation_duration_seconds",
				Help:    "Duration of operations in seconds",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"operation"},
		),
	}
}

func (r *Recorder) RecordFetch(source string, ok bool) {
	if r == nil {
		return
	}
	result := "ok"
	if !ok {
		result = "empty"
	}
	r.fetchesTotal.WithLabelValues(source, result).Inc()
}

func (r *Recorder) RecordFetchRetry(source string) {
	if r == nil {
		return
	}
	r.fetchAttempts.WithLabelValues(source).Inc()
}

func (r *Recorder) RecordSignal(bot, side string) {
	if r == nil {
		return
	}
	r.signalsTotal.WithLabelValues(bot, side).Inc()
}

func (r *Recorder) RecordBotError(bot string) {
	if r == nil {
		return
	}
	r.botErrors.WithLabelValues(bot).Inc()
}

func (r *Recorder) RecordRestart() {
	if r == nil {
		return
	}
	r.restarts.Inc()
}

func (r *Recorder) RecordValue(bot string, v float64) {
	if r == nil {
		return
	}
	r.lastValue.WithLabelValues(bot).Set(v)
}

// RecordLatency records operation latency in seconds.
func (r *Recorder) RecordLatency(op string, seconds float64) {
	if r == nil {
		return
	}
	r.latency.WithLabelValues(op).Observe(seconds)
}

func (r *Recorder) Registry() *prometheus.Registry { return r.reg }

func (r *Recorder) Handler() http.Handler {
	return promhttp.HandlerFor(r.reg, promhttp.HandlerOpts{})
}
