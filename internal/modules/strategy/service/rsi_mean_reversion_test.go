package service

import (
	"testing"
	"time"

	"signal_bot/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newRSIBot(t *testing.T, params models.Params, clk *fakeClock) Evaluator {
	t.Helper()
	ev, err := NewRSIMeanReversion(params, WithClock(clk.Now))
	require.NoError(t, err)
	return ev
}

func TestRSIMeanReversion_SellThenCooldown(t *testing.T) {
	clk := &fakeClock{now: t0}
	ev := newRSIBot(t, testRSIParams(), clk)

	sig, err := ev.Evaluate(rsi75())
	require.NoError(t, err)
	assert.Equal(t, models.SideSell, sig.Side)
	assert.Contains(t, sig.Message, "75")
	assert.Equal(t, "RSI is 75.00", sig.Message)

	clk.Advance(time.Second)
	sig, err = ev.Evaluate(rsi75())
	require.NoError(t, err)
	assert.False(t, sig.Ok())
	assert.Empty(t, sig.Message)
}

func TestRSIMeanReversion_SuppressionKeepsOriginalTimestamp(t *testing.T) {
	clk := &fakeClock{now: t0}
	ev := newRSIBot(t, testRSIParams(), clk)

	sig, _ := ev.Evaluate(rsi75())
	require.True(t, sig.Ok())

	for i := 0; i < 5; i++ {
		clk.Advance(10 * time.Minute)
		sig, err := ev.Evaluate(rsi75())
		require.NoError(t, err)
		assert.False(t, sig.Ok(), "call %d must be suppressed", i)
	}

	// 3600s с первого сигнала ещё не «больше» кулдауна
	clk.now = t0.Add(3600 * time.Second)
	sig, _ = ev.Evaluate(rsi75())
	assert.False(t, sig.Ok())

	clk.now = t0.Add(3601 * time.Second)
	sig, _ = ev.Evaluate(rsi75())
	assert.Equal(t, models.SideSell, sig.Side)
}

func TestRSIMeanReversion_DirectionFlipBypassesCooldown(t *testing.T) {
	clk := &fakeClock{now: t0}
	ev := newRSIBot(t, testRSIParams(), clk)

	sig, _ := ev.Evaluate(rsi25())
	require.Equal(t, models.SideBuy, sig.Side)
	assert.Equal(t, "RSI is 25.00", sig.Message)

	clk.Advance(time.Second)
	sig, _ = ev.Evaluate(rsi75())
	assert.Equal(t, models.SideSell, sig.Side)

	clk.Advance(time.Second)
	sig, _ = ev.Evaluate(rsi25())
	assert.Equal(t, models.SideBuy, sig.Side)
}

func TestRSIMeanReversion_NeutralDoesNotTouchState(t *testing.T) {
	clk := &fakeClock{now: t0}
	ev := newRSIBot(t, testRSIParams(), clk)

	sig, _ := ev.Evaluate(rsi75())
	require.True(t, sig.Ok())

	// RSI = 50: кандидата нет
	flat := seriesFromCloses(closesFromChanges(100, concat(repeat(1, 7), repeat(-1, 7), repeat(0, 5))))
	clk.Advance(time.Minute)
	sig, err := ev.Evaluate(flat)
	require.NoError(t, err)
	assert.False(t, sig.Ok())

	clk.Advance(time.Minute)
	sig, _ = ev.Evaluate(rsi75())
	assert.False(t, sig.Ok(), "same side inside cooldown stays suppressed")
}

func TestRSIMeanReversion_EmptySeries(t *testing.T) {
	clk := &fakeClock{now: t0}
	ev := newRSIBot(t, testRSIParams(), clk)

	sig, err := ev.Evaluate(models.EmptySeries())

	require.NoError(t, err)
	assert.False(t, sig.Ok())
	assert.Equal(t, "RSI: warmup", ev.Dump())
}

func TestRSIMeanReversion_ShortSeriesNoSignal(t *testing.T) {
	clk := &fakeClock{now: t0}
	ev := newRSIBot(t, testRSIParams(), clk)

	sig, err := ev.Evaluate(seriesFromCloses(closesFromChanges(100, repeat(1, 5))))

	require.NoError(t, err)
	assert.False(t, sig.Ok())
}

func TestRSIMeanReversion_Defaults(t *testing.T) {
	clk := &fakeClock{now: t0}
	ev := newRSIBot(t, models.Params{"overbought": 70, "oversold": 30}, clk)

	sig, _ := ev.Evaluate(rsi75())
	require.True(t, sig.Ok())

	// кулдаун по умолчанию: час
	clk.Advance(59 * time.Minute)
	sig, _ = ev.Evaluate(rsi75())
	assert.False(t, sig.Ok())

	clk.Advance(2 * time.Minute)
	sig, _ = ev.Evaluate(rsi75())
	assert.True(t, sig.Ok())
}

func TestRSIMeanReversion_BadParams(t *testing.T) {
	tests := []struct {
		name   string
		params models.Params
		target error
	}{
		{name: "missing overbought", params: models.Params{"oversold": 30}, target: models.ErrMissingParam},
		{name: "missing oversold", params: models.Params{"overbought": 70}, target: models.ErrMissingParam},
		{name: "text threshold", params: models.Params{"overbought": "high", "oversold": 30}, target: models.ErrBadParam},
		{name: "zero period", params: models.Params{"period": 0, "overbought": 70, "oversold": 30}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ev := newRSIBot(t, tt.params, &fakeClock{now: t0})

			_, err := ev.Evaluate(rsi75())

			require.Error(t, err)
			if tt.target != nil {
				assert.ErrorIs(t, err, tt.target)
			}
		})
	}
}

func TestRSIMeanReversion_BadCooldownFailsAtConstruction(t *testing.T) {
	_, err := NewRSIMeanReversion(models.Params{"alert_cooldown": "soon"})
	assert.ErrorIs(t, err, models.ErrBadParam)
}

func TestRSIMeanReversion_CooldownSecondsAlias(t *testing.T) {
	clk := &fakeClock{now: t0}
	params := models.Params{"overbought": 70, "oversold": 30, "cooldown_seconds": 10}
	ev := newRSIBot(t, params, clk)

	sig, _ := ev.Evaluate(rsi75())
	require.True(t, sig.Ok())

	clk.Advance(11 * time.Second)
	sig, _ = ev.Evaluate(rsi75())
	assert.True(t, sig.Ok())
}
