package service

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const chartOK = `{"chart":{"result":[{"timestamp":[1700000000,1700086400,1700172800,1700259200],
"indicators":{"quote":[{
"open":[10,11,null,13],
"high":[10.5,11.5,null,13.5],
"low":[9.5,10.5,null,12.5],
"close":[10.2,11.2,null,13.2],
"volume":[100,200,null,400]}]}}],"error":null}}`

func TestYahoo_FetchCandles(t *testing.T) {
	reqs := make(chan *http.Request, 1)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		reqs <- r.Clone(context.Background())
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(chartOK))
	}))
	defer srv.Close()

	y := NewYahoo(srv.URL, time.Second, 2)
	defer y.Close()
	y.now = func() time.Time { return time.Unix(1700300000, 0) }

	got, err := y.FetchCandles(context.Background(), "aapl", "1d", 10)
	require.NoError(t, err)

	r := <-reqs
	assert.Equal(t, "/v8/finance/chart/AAPL", r.URL.Path)
	assert.Equal(t, "1d", r.URL.Query().Get("interval"))
	assert.Equal(t, "1700300000", r.URL.Query().Get("period2"))
	assert.NotEmpty(t, r.URL.Query().Get("period1"))
	assert.NotEmpty(t, r.Header.Get("User-Agent"))

	require.Len(t, got, 3, "null row is dropped")
	assert.Equal(t, int64(1700000000000), got[0].Timestamp)
	assert.Equal(t, 10.2, got[0].Close)
	assert.Equal(t, 13.2, got[2].Close)
	assert.Equal(t, 400.0, got[2].Volume)
}

func TestYahoo_TruncatesToLimit(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(chartOK))
	}))
	defer srv.Close()

	y := NewYahoo(srv.URL, time.Second, 1)
	defer y.Close()

	got, err := y.FetchCandles(context.Background(), "AAPL", "1d", 2)
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, 13.2, got[1].Close)
}

func TestYahoo_HourlyIntervalMapped(t *testing.T) {
	intervals := make(chan string, 1)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		intervals <- r.URL.Query().Get("interval")
		_, _ = w.Write([]byte(`{"chart":{"result":[],"error":null}}`))
	}))
	defer srv.Close()

	y := NewYahoo(srv.URL, time.Second, 1)
	defer y.Close()

	got, err := y.FetchCandles(context.Background(), "MSFT", "1h", 50)
	require.NoError(t, err)
	assert.Equal(t, "60m", <-intervals)
	assert.True(t, got.Empty())
}

func TestYahoo_HTTPError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "rate limited", http.StatusTooManyRequests)
	}))
	defer srv.Close()

	y := NewYahoo(srv.URL, time.Second, 1)
	defer y.Close()

	_, err := y.FetchCandles(context.Background(), "AAPL", "1d", 10)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "429")
}

func TestYahoo_ChartError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"chart":{"result":null,"error":{"code":"Not Found","description":"No data found, symbol may be delisted"}}}`))
	}))
	defer srv.Close()

	y := NewYahoo(srv.URL, time.Second, 1)
	defer y.Close()

	_, err := y.FetchCandles(context.Background(), "ZZZZ", "1d", 10)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "delisted")
}

func TestYahoo_UnsupportedTimeframe(t *testing.T) {
	y := NewYahoo("http://127.0.0.1:1", time.Second, 1)
	defer y.Close()

	_, err := y.FetchCandles(context.Background(), "AAPL", "4h", 10)
	assert.ErrorIs(t, err, ErrUnsupportedTimeframe)
}
