package service

import (
	"errors"
	"fmt"
	"strings"
	"time"
)

var ErrUnsupportedTimeframe = errors.New("unsupported timeframe")

// normTF: "1M" означает месяц, всё остальное без учёта регистра.
func normTF(tf string) string {
	tf = strings.TrimSpace(tf)
	if tf == "1M" {
		return tf
	}
	return strings.ToLower(tf)
}

func timeframeToDuration(tf string) time.Duration {
	switch normTF(tf) {
	case "1m":
		return time.Minute
	case "2m":
		return 2 * time.Minute
	case "3m":
		return 3 * time.Minute
	case "5m":
		return 5 * time.Minute
	case "15m":
		return 15 * time.Minute
	case "30m":
		return 30 * time.Minute
	case "1h", "60m":
		return time.Hour
	case "90m":
		return 90 * time.Minute
	case "2h":
		return 2 * time.Hour
	case "4h":
		return 4 * time.Hour
	case "6h":
		return 6 * time.Hour
	case "8h":
		return 8 * time.Hour
	case "12h":
		return 12 * time.Hour
	case "1d":
		return 24 * time.Hour
	case "3d":
		return 3 * 24 * time.Hour
	case "5d":
		return 5 * 24 * time.Hour
	case "1w", "1wk":
		return 7 * 24 * time.Hour
	case "1M", "1mo":
		return 30 * 24 * time.Hour
	default:
		return 0
	}
}

// binanceInterval: таймфрейм в словарь Binance.
func binanceInterval(tf string) (string, error) {
	switch s := normTF(tf); s {
	case "1m", "3m", "5m", "15m", "30m", "1h", "2h", "4h", "6h", "8h", "12h", "1d", "3d", "1w", "1M":
		return s, nil
	case "60m":
		return "1h", nil
	case "1wk":
		return "1w", nil
	case "1mo":
		return "1M", nil
	}
	return "", fmt.Errorf("%w for binance: %q", ErrUnsupportedTimeframe, tf)
}

// binanceSymbol: "BTC/USDT" -> "BTCUSDT"
func binanceSymbol(symbol string) string {
	return strings.ToUpper(strings.ReplaceAll(strings.TrimSpace(symbol), "/", ""))
}

// yahooInterval: таймфрейм в словарь Yahoo chart API.
func yahooInterval(tf string) (string, error) {
	switch s := normTF(tf); s {
	case "1m", "2m", "5m", "15m", "30m", "60m", "90m", "1d", "5d", "1wk", "1mo":
		return s, nil
	case "1h":
		return "60m", nil
	case "1w":
		return "1wk", nil
	case "1M":
		return "1mo", nil
	}
	return "", fmt.Errorf("%w for yahoo: %q", ErrUnsupportedTimeframe, tf)
}

const (
	tradingDay       = 6*time.Hour + 30*time.Minute
	calendarPerTrade = 7.0 / 5.0
	day              = 24 * time.Hour
)

// yahooLookback: окно истории, в которое гарантированно влезает limit баров
// с учётом торговых часов и выходных. Ограничено максимумом Yahoo для интервала.
func yahooLookback(interval string, limit int) time.Duration {
	bar := timeframeToDuration(interval)
	if bar <= 0 || limit <= 0 {
		return 0
	}

	var days float64
	if bar >= day {
		days = float64(limit)*bar.Hours()/24*calendarPerTrade + 7
	} else {
		perDay := int(tradingDay / bar)
		if perDay < 1 {
			perDay = 1
		}
		tradeDays := (limit + perDay - 1) / perDay
		days = float64(tradeDays)*calendarPerTrade + 3
	}
	window := time.Duration(days * float64(day))

	var maxWindow time.Duration
	switch {
	case bar <= time.Minute:
		maxWindow = 7 * day
	case bar < time.Hour || interval == "90m":
		maxWindow = 60 * day
	case bar < day:
		maxWindow = 730 * day
	}
	if maxWindow > 0 && window > maxWindow {
		window = maxWindow
	}
	return window
}
