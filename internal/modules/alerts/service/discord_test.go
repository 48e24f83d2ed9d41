package service

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"signal_bot/internal/models"

	"github.com/bytedance/sonic"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDiscord_PostsEmbed(t *testing.T) {
	bodies := make(chan []byte, 1)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		b, _ := io.ReadAll(r.Body)
		bodies <- b
		w.WriteHeader(http.StatusNoContent)
	}))
	defer srv.Close()

	d := NewDiscord(srv.URL, time.Second)
	d.now = func() time.Time { return time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC) }

	d.Notify(context.Background(), "BTC/USDT", "RSI is 75.00", models.SideSell)

	var p webhookPayload
	require.NoError(t, sonic.Unmarshal(<-bodies, &p))
	require.Len(t, p.Embeds, 1)
	e := p.Embeds[0]
	assert.Equal(t, "📉 SELL Alert: BTC/USDT", e.Title)
	assert.Contains(t, e.Description, "75")
	assert.Equal(t, 16711680, e.Color)
	assert.Equal(t, "2025-03-01T12:00:00Z", e.Timestamp)
	assert.Equal(t, "Soul Surgery Alert System", e.Footer.Text)
}

func TestDiscord_SendReportsBadStatus(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
	}))
	defer srv.Close()

	d := NewDiscord(srv.URL, time.Second)
	err := d.send(context.Background(), Alert{Symbol: "AAPL", Side: models.SideBuy})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "400")

	// Notify проглатывает ошибку
	assert.NotPanics(t, func() {
		d.Notify(context.Background(), "AAPL", "RSI is 25.00", models.SideBuy)
	})
}

func TestDiscord_Timeout(t *testing.T) {
	release := make(chan struct{})
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		<-release
	}))
	defer srv.Close()
	defer close(release)

	d := NewDiscord(srv.URL, 50*time.Millisecond)
	start := time.Now()
	err := d.send(context.Background(), Alert{Symbol: "AAPL", Side: models.SideBuy})
	assert.Error(t, err)
	assert.Less(t, time.Since(start), 2*time.Second)
}

func TestDiscord_DisabledWithoutURL(t *testing.T) {
	d := NewDiscord("", 0)
	assert.NotPanics(t, func() {
		d.Notify(context.Background(), "AAPL", "RSI is 25.00", models.SideBuy)
	})
	assert.NoError(t, d.Close())
}
