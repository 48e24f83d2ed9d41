package service

import (
	"context"
	"fmt"
	"net/http"
	"strings"
	"time"

	"signal_bot/internal/models"
	"signal_bot/pkg/logger"

	tgbot "github.com/go-telegram-bot-api/telegram-bot-api/v5"
)

// Telegram: пассивный нотифайер в один чат.
type Telegram struct {
	bot    *tgbot.BotAPI
	chatID int64
}

// NewTelegram: timeout ограничивает каждый запрос к Bot API, включая getMe.
func NewTelegram(token string, chatID int64, endpoint string, timeout time.Duration) (*Telegram, error) {
	if endpoint == "" {
		endpoint = tgbot.APIEndpoint
	}
	if timeout <= 0 {
		timeout = 5 * time.Second
	}
	return NewTelegramWithEndpoint(token, chatID, endpoint, &http.Client{Timeout: timeout})
}

// NewTelegramWithEndpoint: для self-hosted Bot API и тестов.
func NewTelegramWithEndpoint(token string, chatID int64, endpoint string, client tgbot.HTTPClient) (*Telegram, error) {
	b, err := tgbot.NewBotAPIWithClient(token, endpoint, client)
	if err != nil {
		return nil, fmt.Errorf("telegram: %w", err)
	}
	return &Telegram{bot: b, chatID: chatID}, nil
}

func (t *Telegram) Notify(_ context.Context, symbol, message string, side models.Side) {
	if t == nil || t.bot == nil || t.chatID == 0 {
		return
	}
	a := Alert{Symbol: symbol, Message: message, Side: side}
	if _, err := t.bot.Send(tgbot.NewMessage(t.chatID, formatPlain(a))); err != nil {
		logger.Error("[ALERT] telegram %s %s: %v", side, symbol, err)
	}
}

// formatPlain: та же карточка, что в Discord, без markdown.
func formatPlain(a Alert) string {
	return a.Title() + "\n" + strings.ReplaceAll(a.Description(), "**", "")
}

// Close: long-polling не запускается, освобождать нечего.
func (t *Telegram) Close() error { return nil }

// Stdout пишет алерты в лог.
type Stdout struct{}

func NewStdout() *Stdout { return &Stdout{} }

func (s *Stdout) Notify(_ context.Context, symbol, message string, side models.Side) {
	logger.Info("[ALERT] %s", strings.ReplaceAll(formatPlain(Alert{Symbol: symbol, Message: message, Side: side}), "\n", " | "))
}

func (s *Stdout) Close() error { return nil }
