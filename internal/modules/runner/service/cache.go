package service

import (
	"context"
	"fmt"
	"runtime/debug"
	"sync"

	"signal_bot/internal/models"
	"signal_bot/pkg/logger"

	"golang.org/x/sync/errgroup"
)

// Fetcher отдаёт свечи по ключу. Ошибки апстрима уже поглощены: на сбое пустая серия.
type Fetcher interface {
	Fetch(ctx context.Context, symbol, timeframe string) models.Series
}

// Cache строит снимок данных на один цикл: по одному запросу на уникальную пару symbol@timeframe.
type Cache struct {
	src      Fetcher
	parallel int // <= 0: без ограничения
}

func NewCache(src Fetcher, parallel int) *Cache {
	return &Cache{src: src, parallel: parallel}
}

// UniqueKeys: различные ключи ботов в порядке конфига.
func UniqueKeys(bots []models.BotConfig) []models.CacheKey {
	seen := make(map[models.CacheKey]struct{}, len(bots))
	out := make([]models.CacheKey, 0, len(bots))
	for _, b := range bots {
		k := b.Key()
		if _, ok := seen[k]; ok {
			continue
		}
		seen[k] = struct{}{}
		out = append(out, k)
	}
	return out
}

// FetchUnique параллельно запрашивает каждый ключ ровно один раз и ждёт все.
// Ошибка только при отмене ctx или панике в Fetcher; тогда снимок неполный и не возвращается.
func (c *Cache) FetchUnique(ctx context.Context, keys []models.CacheKey) (map[models.CacheKey]models.Series, error) {
	out := make(map[models.CacheKey]models.Series, len(keys))
	var mu sync.Mutex

	g, gctx := errgroup.WithContext(ctx)
	if c.parallel > 0 {
		g.SetLimit(c.parallel)
	}

	seen := make(map[models.CacheKey]struct{}, len(keys))
	for _, k := range keys {
		if _, dup := seen[k]; dup {
			continue
		}
		seen[k] = struct{}{}

		k := k
		g.Go(func() (err error) {
			defer func() {
				if r := recover(); r != nil {
					err = fmt.Errorf("fetch %s panic: %v\n%s", k, r, debug.Stack())
				}
			}()
			series := c.src.Fetch(gctx, k.Symbol, k.Timeframe)
			if series == nil {
				series = models.EmptySeries()
			}
			mu.Lock()
			out[k] = series
			mu.Unlock()
			logger.Debug("[CACHE] %s: %d candles", k, len(series))
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, err
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return out, nil
}
