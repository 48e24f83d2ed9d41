package models

import "strings"

// Side как в раннере: "BUY"/"SELL" или пустая строка.
type Side string

const (
	SideNone Side = ""
	SideBuy  Side = "BUY"
	SideSell Side = "SELL"
)

func (s Side) Lower() string { return strings.ToLower(string(s)) }

// Signal: ответ стратегии. Side == SideNone значит «сигнала нет».
type Signal struct {
	BotID   string
	Symbol  string
	Side    Side
	Price   float64
	Value   float64 // значение индикатора на последней свече
	Message string
}

func (s Signal) Ok() bool { return s.Side != SideNone }
