package service

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
	"time"

	"signal_bot/internal/models"
	"signal_bot/pkg/logger"

	"github.com/bytedance/sonic"
	"github.com/pkg/errors"
)

type embedFooter struct {
	Text string `json:"text"`
}

type embed struct {
	Title       string      `json:"title"`
	Description string      `json:"description"`
	Color       int         `json:"color"`
	Timestamp   string      `json:"timestamp"`
	Footer      embedFooter `json:"footer"`
}

type webhookPayload struct {
	Embeds []embed `json:"embeds"`
}

// Discord: алерты через webhook с embed-карточкой.
type Discord struct {
	url  string
	http *http.Client
	now  func() time.Time
}

// NewDiscord: при пустом url синк выключен, каждый Notify только предупреждает.
func NewDiscord(url string, timeout time.Duration) *Discord {
	if timeout <= 0 {
		timeout = 5 * time.Second
	}
	return &Discord{
		url:  url,
		http: &http.Client{Timeout: timeout},
		now:  time.Now,
	}
}

func (d *Discord) Notify(ctx context.Context, symbol, message string, side models.Side) {
	if d.url == "" {
		logger.Warn("[ALERT] webhook not configured, %s %s dropped", side, symbol)
		return
	}
	a := Alert{Symbol: symbol, Message: message, Side: side, At: d.now().UTC()}
	if err := d.send(ctx, a); err != nil {
		logger.Error("[ALERT] discord %s %s: %v", side, symbol, err)
		return
	}
	logger.Info("[ALERT] sent: %s for %s", side, symbol)
}

func (d *Discord) send(ctx context.Context, a Alert) error {
	body, err := sonic.Marshal(webhookPayload{Embeds: []embed{{
		Title:       a.Title(),
		Description: a.Description(),
		Color:       a.Color(),
		Timestamp:   a.At.Format(time.RFC3339),
		Footer:      embedFooter{Text: footer},
	}}})
	if err != nil {
		return err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, d.url, bytes.NewReader(body))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := d.http.Do(req)
	if err != nil {
		return errors.Wrap(err, "post webhook")
	}
	defer resp.Body.Close()
	_, _ = io.Copy(io.Discard, resp.Body)

	if resp.StatusCode != http.StatusNoContent && resp.StatusCode != http.StatusOK {
		return fmt.Errorf("webhook status %d", resp.StatusCode)
	}
	return nil
}

func (d *Discord) Close() error {
	d.http.CloseIdleConnections()
	return nil
}
