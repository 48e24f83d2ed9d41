package service

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"signal_bot/internal/models"
)

var ErrPoolClosed = errors.New("worker pool closed")

type poolResult struct {
	series models.Series
	err    error
}

type poolJob struct {
	fn  func() (models.Series, error)
	out chan poolResult
}

// Pool: фиксированный набор воркеров для блокирующих вызовов.
// Вызывающий ждёт ровно один результат через канал или свой ctx.
type Pool struct {
	jobs   chan poolJob
	closed chan struct{}
	once   sync.Once
	wg     sync.WaitGroup
}

func NewPool(workers int) *Pool {
	if workers <= 0 {
		workers = 1
	}
	p := &Pool{
		jobs:   make(chan poolJob),
		closed: make(chan struct{}),
	}
	p.wg.Add(workers)
	for i := 0; i < workers; i++ {
		go p.worker()
	}
	return p
}

func (p *Pool) worker() {
	defer p.wg.Done()
	for {
		select {
		case <-p.closed:
			return
		case j := <-p.jobs:
			j.out <- run(j.fn)
		}
	}
}

func run(fn func() (models.Series, error)) (res poolResult) {
	defer func() {
		if r := recover(); r != nil {
			res = poolResult{err: fmt.Errorf("worker panic: %v", r)}
		}
	}()
	s, err := fn()
	return poolResult{series: s, err: err}
}

// Do отдаёт fn воркеру и ждёт результат. Отмена ctx не прерывает сам вызов,
// только перестаёт его ждать.
func (p *Pool) Do(ctx context.Context, fn func() (models.Series, error)) (models.Series, error) {
	out := make(chan poolResult, 1)
	select {
	case p.jobs <- poolJob{fn: fn, out: out}:
	case <-p.closed:
		return nil, ErrPoolClosed
	case <-ctx.Done():
		return nil, ctx.Err()
	}

	select {
	case r := <-out:
		return r.series, r.err
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

func (p *Pool) Close() {
	p.once.Do(func() {
		close(p.closed)
	})
	p.wg.Wait()
}
