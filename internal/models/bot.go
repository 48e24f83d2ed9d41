package models

import (
	"fmt"
	"strconv"
	"strings"
)

// BotConfig: один бот из конфига. После загрузки не меняется.
type BotConfig struct {
	ID        string `yaml:"id"`
	Pair      string `yaml:"pair"`
	Timeframe string `yaml:"timeframe"`
	Strategy  string `yaml:"strategy"`
	Params    Params `yaml:"params"`
}

func (b BotConfig) Key() CacheKey {
	return CacheKey{Symbol: b.Pair, Timeframe: b.Timeframe}
}

// CacheKey: (symbol, timeframe), по нему делим данные между ботами.
type CacheKey struct {
	Symbol    string
	Timeframe string
}

func (k CacheKey) String() string { return k.Symbol + "@" + k.Timeframe }

// Params: параметры стратегии как есть из YAML.
type Params map[string]any

// Int возвращает целое значение или def, если ключа нет.
func (p Params) Int(key string, def int) (int, error) {
	v, ok := p[key]
	if !ok || v == nil {
		return def, nil
	}
	f, err := toFloat(v)
	if err != nil {
		return 0, fmt.Errorf("param %q: %w", key, err)
	}
	return int(f), nil
}

// Float возвращает число или def, если ключа нет.
func (p Params) Float(key string, def float64) (float64, error) {
	v, ok := p[key]
	if !ok || v == nil {
		return def, nil
	}
	f, err := toFloat(v)
	if err != nil {
		return 0, fmt.Errorf("param %q: %w", key, err)
	}
	return f, nil
}

// RequireFloat: как Float, но без дефолта.
func (p Params) RequireFloat(key string) (float64, error) {
	v, ok := p[key]
	if !ok || v == nil {
		return 0, fmt.Errorf("param %q: %w", key, ErrMissingParam)
	}
	f, err := toFloat(v)
	if err != nil {
		return 0, fmt.Errorf("param %q: %w", key, err)
	}
	return f, nil
}

func toFloat(v any) (float64, error) {
	switch x := v.(type) {
	case int:
		return float64(x), nil
	case int32:
		return float64(x), nil
	case int64:
		return float64(x), nil
	case uint64:
		return float64(x), nil
	case float32:
		return float64(x), nil
	case float64:
		return x, nil
	case string:
		f, err := strconv.ParseFloat(strings.TrimSpace(x), 64)
		if err != nil {
			return 0, fmt.Errorf("%w: %q", ErrBadParam, x)
		}
		return f, nil
	default:
		return 0, fmt.Errorf("%w: %T", ErrBadParam, v)
	}
}
