package service

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"signal_bot/internal/models"

	"github.com/bytedance/sonic"
	"github.com/pkg/errors"
)

const yahooUserAgent = "Mozilla/5.0 (X11; Linux x86_64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/120.0 Safari/537.36"

// Yahoo: дневные/часовые бары акций через chart API.
// Сетевые вызовы идут через пул, чтобы ограничить параллелизм.
type Yahoo struct {
	baseURL string
	http    *http.Client
	pool    *Pool
	now     func() time.Time
}

func NewYahoo(baseURL string, timeout time.Duration, workers int) *Yahoo {
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	return &Yahoo{
		baseURL: strings.TrimRight(baseURL, "/"),
		http:    &http.Client{Timeout: timeout},
		pool:    NewPool(workers),
		now:     time.Now,
	}
}

func (y *Yahoo) Name() string { return "yahoo" }

func (y *Yahoo) FetchCandles(ctx context.Context, symbol, timeframe string, limit int) (models.Series, error) {
	interval, err := yahooInterval(timeframe)
	if err != nil {
		return nil, err
	}
	if limit <= 0 {
		limit = 100
	}
	return y.pool.Do(ctx, func() (models.Series, error) {
		return y.fetch(ctx, symbol, interval, limit)
	})
}

type chartResponse struct {
	Chart struct {
		Result []struct {
			Timestamp  []int64 `json:"timestamp"`
			Indicators struct {
				Quote []struct {
					Open   []*float64 `json:"open"`
					High   []*float64 `json:"high"`
					Low    []*float64 `json:"low"`
					Close  []*float64 `json:"close"`
					Volume []*float64 `json:"volume"`
				} `json:"quote"`
			} `json:"indicators"`
		} `json:"result"`
		Error *struct {
			Code        string `json:"code"`
			Description string `json:"description"`
		} `json:"error"`
	} `json:"chart"`
}

func (y *Yahoo) fetch(ctx context.Context, symbol, interval string, limit int) (models.Series, error) {
	end := y.now()
	start := end.Add(-yahooLookback(interval, limit))

	q := url.Values{}
	q.Set("interval", interval)
	q.Set("period1", strconv.FormatInt(start.Unix(), 10))
	q.Set("period2", strconv.FormatInt(end.Unix(), 10))
	u := fmt.Sprintf("%s/v8/finance/chart/%s?%s", y.baseURL, url.PathEscape(strings.ToUpper(symbol)), q.Encode())

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("User-Agent", yahooUserAgent)
	req.Header.Set("Accept", "application/json")

	resp, err := y.http.Do(req)
	if err != nil {
		return nil, errors.Wrapf(err, "yahoo chart %s", symbol)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, errors.Wrapf(err, "yahoo chart %s: read body", symbol)
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("yahoo chart %s: http %d: %s", symbol, resp.StatusCode, truncate(string(body), 200))
	}

	var cr chartResponse
	if err := sonic.Unmarshal(body, &cr); err != nil {
		return nil, errors.Wrapf(err, "yahoo chart %s: decode", symbol)
	}
	if cr.Chart.Error != nil {
		return nil, fmt.Errorf("yahoo chart %s: %s: %s", symbol, cr.Chart.Error.Code, cr.Chart.Error.Description)
	}
	if len(cr.Chart.Result) == 0 {
		return models.EmptySeries(), nil
	}
	res := cr.Chart.Result[0]
	if len(res.Indicators.Quote) == 0 {
		return models.EmptySeries(), nil
	}
	qt := res.Indicators.Quote[0]

	out := make([]models.Candle, 0, len(res.Timestamp))
	for i, ts := range res.Timestamp {
		c, ok := at(qt.Close, i)
		if !ok {
			continue // незакрытый или пропущенный бар
		}
		o, _ := at(qt.Open, i)
		h, _ := at(qt.High, i)
		l, _ := at(qt.Low, i)
		v, _ := at(qt.Volume, i)
		if o == 0 {
			o = c
		}
		if h == 0 {
			h = c
		}
		if l == 0 {
			l = c
		}
		out = append(out, models.Candle{
			Timestamp: ts * 1000,
			Open:      o,
			High:      h,
			Low:       l,
			Close:     c,
			Volume:    v,
		})
	}
	return models.Normalize(out, limit), nil
}

func at(xs []*float64, i int) (float64, bool) {
	if i >= len(xs) || xs[i] == nil {
		return 0, false
	}
	return *xs[i], true
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n] + "..."
}

func (y *Yahoo) Close() error {
	y.pool.Close()
	return nil
}
