package service

import (
	"time"

	"signal_bot/internal/models"
)

const defaultCooldown = 3600 * time.Second

// cooldownGate: одна и та же сторона не чаще раза в cooldown.
// Смена стороны пробивает кулдаун. Подавленный кандидат время не сдвигает:
// отсчёт идёт от последнего отправленного сигнала.
type cooldownGate struct {
	cooldown   time.Duration
	now        func() time.Time
	lastSignal models.Side
	lastAt     time.Time
}

func newCooldownGate(params models.Params, now func() time.Time) (cooldownGate, error) {
	def := defaultCooldown.Seconds()
	// cooldown_seconds: старое имя ключа
	if _, ok := params["cooldown_seconds"]; ok {
		v, err := params.Float("cooldown_seconds", def)
		if err != nil {
			return cooldownGate{}, err
		}
		def = v
	}
	sec, err := params.Float("alert_cooldown", def)
	if err != nil {
		return cooldownGate{}, err
	}
	return cooldownGate{
		cooldown: time.Duration(sec * float64(time.Second)),
		now:      now,
	}, nil
}

// Allow решает, отправлять ли кандидата, и при отправке запоминает его.
func (g *cooldownGate) Allow(side models.Side) bool {
	if side == models.SideNone {
		return false
	}
	now := g.now()
	if g.lastSignal != side || now.Sub(g.lastAt) > g.cooldown {
		g.lastSignal = side
		g.lastAt = now
		return true
	}
	return false
}

func (g *cooldownGate) Last() (models.Side, time.Time) { return g.lastSignal, g.lastAt }
