package health

import (
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"signal_bot/internal/modules/health/service"
	"signal_bot/pkg/metrics"

	"github.com/bytedance/sonic"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func get(t *testing.T, h http.Handler, path string) *httptest.ResponseRecorder {
	t.Helper()
	w := httptest.NewRecorder()
	h.ServeHTTP(w, httptest.NewRequest(http.MethodGet, path, nil))
	return w
}

func TestMux_ReadyAfterFirstCycle(t *testing.T) {
	state := service.NewState()
	rec := metrics.New()
	mux := NewMux(state, rec)

	assert.Equal(t, http.StatusOK, get(t, mux, "/livez").Code)
	assert.Equal(t, http.StatusServiceUnavailable, get(t, mux, "/readyz").Code)

	state.SetPhase("sleeping")
	state.CycleDone(time.Unix(1700000000, 0))
	state.Restarted()

	assert.Equal(t, http.StatusOK, get(t, mux, "/readyz").Code)

	w := get(t, mux, "/healthz")
	require.Equal(t, http.StatusOK, w.Code)
	var body map[string]any
	require.NoError(t, sonic.Unmarshal(w.Body.Bytes(), &body))
	assert.Equal(t, true, body["ready"])
	assert.Equal(t, "sleeping", body["state"])
	assert.EqualValues(t, 1, body["cycles"])
	assert.EqualValues(t, 1, body["restarts"])
	assert.EqualValues(t, 1700000000, body["lastCycleUnix"])
}

func TestMux_Metrics(t *testing.T) {
	rec := metrics.New()
	rec.RecordSignal("btc", "SELL")
	mux := NewMux(service.NewState(), rec)

	w := get(t, mux, "/metrics")
	require.Equal(t, http.StatusOK, w.Code)
	b, _ := io.ReadAll(w.Body)
	assert.Contains(t, string(b), `signal_bot_signals_total{bot="btc",side="SELL"} 1`)
}
