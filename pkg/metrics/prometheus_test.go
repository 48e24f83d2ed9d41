package metrics

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRecorder_NilIsNoop(t *testing.T) {
	var r *Recorder
	assert.NotPanics(t, func() {
		r.RecordFetch("binance", true)
		r.RecordFetchRetry("binance")
		r.RecordSignal("btc", "SELL")
		r.RecordBotError("btc")
		r.RecordRestart()
		r.RecordValue("btc", 75)
		r.RecordLatency("cycle", 0.1)
	})
}

func TestRecorder_SeparateRegistries(t *testing.T) {
	a, b := New(), New()
	a.RecordRestart()
	a.RecordFetch("yahoo", false)

	mfs, err := a.Registry().Gather()
	require.NoError(t, err)
	names := map[string]bool{}
	for _, mf := range mfs {
		names[mf.GetName()] = true
	}
	assert.True(t, names["signal_bot_engine_restarts_total"])
	assert.True(t, names["signal_bot_fetches_total"])

	mfs, err = b.Registry().Gather()
	require.NoError(t, err)
	for _, mf := range mfs {
		if mf.GetName() == "signal_bot_engine_restarts_total" {
			assert.Zero(t, mf.GetMetric()[0].GetCounter().GetValue())
		}
	}
}
