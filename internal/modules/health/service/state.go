package service

import (
	"sync/atomic"
	"time"
)

// State: то, что движок сообщает наружу через /healthz.
type State struct {
	ready     atomic.Bool
	startedAt time.Time

	cycles        atomic.Int64
	restarts      atomic.Int64
	lastCycleUnix atomic.Int64 // unix seconds
	phase         atomic.Value // string
}

func NewState() *State {
	s := &State{startedAt: time.Now()}
	s.ready.Store(false)
	s.phase.Store("idle")
	return s
}

func (s *State) SetReady(v bool) { s.ready.Store(v) }
func (s *State) Ready() bool     { return s.ready.Load() }

func (s *State) SetPhase(p string) { s.phase.Store(p) }
func (s *State) Phase() string     { return s.phase.Load().(string) }

// CycleDone отмечает завершённый цикл; после первого сервис готов.
func (s *State) CycleDone(t time.Time) {
	s.cycles.Add(1)
	s.lastCycleUnix.Store(t.Unix())
	s.ready.Store(true)
}

func (s *State) Cycles() int64 { return s.cycles.Load() }

func (s *State) Restarted()      { s.restarts.Add(1) }
func (s *State) Restarts() int64 { return s.restarts.Load() }

func (s *State) LastCycle() time.Time {
	u := s.lastCycleUnix.Load()
	if u == 0 {
		return time.Time{}
	}
	return time.Unix(u, 0)
}

func (s *State) Uptime() time.Duration { return time.Since(s.startedAt) }
