package service

import (
	"context"
	"fmt"
	"strconv"
	"sync"
	"sync/atomic"
	"time"

	"signal_bot/internal/models"
	"signal_bot/pkg/logger"

	"github.com/bytedance/sonic"
	"github.com/gorilla/websocket"
	"github.com/pkg/errors"
)

var (
	ErrSessionClosed = errors.New("binance ws: session closed")
	ErrEmptyResponse = errors.New("empty response")
)

// defaultIdleWait: сколько соединение может молчать (ни данных, ни ping/pong),
// прежде чем считаться мёртвым. Binance шлёт ping раз в 20s.
const defaultIdleWait = time.Minute

// BinanceWS: klines через Binance WebSocket API. Одно соединение на процесс,
// запросы мультиплексируются по id, чтение: одна горутина на соединение.
type BinanceWS struct {
	url      string
	timeout  time.Duration
	idle     time.Duration
	wsDialer *websocket.Dialer

	mu     sync.Mutex
	sess   *wsSession
	closed bool

	seq atomic.Uint64
}

func NewBinanceWS(url string, timeout time.Duration) *BinanceWS {
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	return &BinanceWS{
		url:      url,
		timeout:  timeout,
		idle:     defaultIdleWait,
		wsDialer: &websocket.Dialer{HandshakeTimeout: timeout},
	}
}

func (b *BinanceWS) Name() string { return "binance" }

// Open поднимает соединение заранее. Ошибка не фатальна: следующий запрос передозвонится.
func (b *BinanceWS) Open(ctx context.Context) error {
	_, err := b.session(ctx)
	return err
}

func (b *BinanceWS) session(ctx context.Context) (*wsSession, error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.closed {
		return nil, ErrSessionClosed
	}
	if b.sess != nil && !b.sess.isDone() {
		return b.sess, nil
	}

	logger.Info("[WS] connect %s", b.url)
	conn, _, err := b.wsDialer.DialContext(ctx, b.url, nil)
	if err != nil {
		return nil, errors.Wrap(err, "binance ws dial")
	}
	b.sess = newWSSession(conn, b.idle)
	go b.sess.readLoop()
	go b.sess.pingLoop()
	return b.sess, nil
}

func (b *BinanceWS) FetchCandles(ctx context.Context, symbol, timeframe string, limit int) (models.Series, error) {
	interval, err := binanceInterval(timeframe)
	if err != nil {
		return nil, err
	}
	if limit <= 0 {
		limit = 100
	}

	sess, err := b.session(ctx)
	if err != nil {
		return nil, err
	}

	req := wsRequest{
		ID:     "k" + strconv.FormatUint(b.seq.Add(1), 10),
		Method: "klines",
		Params: map[string]any{
			"symbol":   binanceSymbol(symbol),
			"interval": interval,
			"limit":    limit,
		},
	}
	resp, err := sess.call(ctx, req, b.timeout)
	if err != nil {
		return nil, errors.Wrapf(err, "binance klines %s %s", symbol, timeframe)
	}
	if resp.Status != 200 {
		code, msg := 0, ""
		if resp.Error != nil {
			code, msg = resp.Error.Code, resp.Error.Msg
		}
		return nil, fmt.Errorf("binance klines %s %s: status=%d code=%d msg=%s", symbol, timeframe, resp.Status, code, msg)
	}
	return parseKlines(resp.Result, limit)
}

// parseKlines: [openTime, "o", "h", "l", "c", "v", closeTime, ...], старые первыми.
func parseKlines(rows [][]any, limit int) (models.Series, error) {
	out := make([]models.Candle, 0, len(rows))
	for _, row := range rows {
		if len(row) < 6 {
			continue
		}
		ts, ok := row[0].(float64)
		if !ok {
			continue
		}
		var vals [5]float64
		bad := false
		for i := 0; i < 5; i++ {
			v, err := anyFloat(row[i+1])
			if err != nil {
				bad = true
				break
			}
			vals[i] = v
		}
		if bad || vals[3] <= 0 {
			continue
		}
		out = append(out, models.Candle{
			Timestamp: int64(ts),
			Open:      vals[0],
			High:      vals[1],
			Low:       vals[2],
			Close:     vals[3],
			Volume:    vals[4],
		})
	}
	if len(rows) > 0 && len(out) == 0 {
		return nil, errors.Wrap(ErrEmptyResponse, "binance klines: no parsable rows")
	}
	return models.Normalize(out, limit), nil
}

func anyFloat(v any) (float64, error) {
	switch x := v.(type) {
	case string:
		return strconv.ParseFloat(x, 64)
	case float64:
		return x, nil
	}
	return 0, fmt.Errorf("unexpected kline field %T", v)
}

// Close закрывает соединение; после него запросы получают ErrSessionClosed.
func (b *BinanceWS) Close() error {
	b.mu.Lock()
	b.closed = true
	sess := b.sess
	b.sess = nil
	b.mu.Unlock()

	if sess == nil {
		return nil
	}
	logger.Info("[WS] close %s", b.url)
	return sess.close()
}

type wsRequest struct {
	ID     string         `json:"id"`
	Method string         `json:"method"`
	Params map[string]any `json:"params"`
}

type wsResponse struct {
	ID     string  `json:"id"`
	Status int     `json:"status"`
	Result [][]any `json:"result"`
	Error  *struct {
		Code int    `json:"code"`
		Msg  string `json:"msg"`
	} `json:"error"`
}

type wsSession struct {
	conn *websocket.Conn
	wmu  sync.Mutex // gorilla: один писатель за раз
	idle time.Duration

	mu      sync.Mutex
	pending map[string]chan wsResponse

	once sync.Once
	done chan struct{}
	err  error
}

func newWSSession(conn *websocket.Conn, idle time.Duration) *wsSession {
	if idle <= 0 {
		idle = defaultIdleWait
	}
	return &wsSession{
		conn:    conn,
		idle:    idle,
		pending: make(map[string]chan wsResponse),
		done:    make(chan struct{}),
	}
}

func (s *wsSession) isDone() bool {
	select {
	case <-s.done:
		return true
	default:
		return false
	}
}

// shutdown помечает сессию мёртвой сразу, не дожидаясь readLoop:
// следующий session() передозвонится.
func (s *wsSession) shutdown(err error) {
	s.once.Do(func() {
		s.err = err
		close(s.done)
	})
	_ = s.conn.Close()
}

func (s *wsSession) call(ctx context.Context, req wsRequest, timeout time.Duration) (wsResponse, error) {
	ch := make(chan wsResponse, 1)
	s.mu.Lock()
	s.pending[req.ID] = ch
	s.mu.Unlock()
	defer func() {
		s.mu.Lock()
		delete(s.pending, req.ID)
		s.mu.Unlock()
	}()

	payload, err := sonic.Marshal(req)
	if err != nil {
		return wsResponse{}, err
	}
	s.wmu.Lock()
	_ = s.conn.SetWriteDeadline(time.Now().Add(timeout))
	err = s.conn.WriteMessage(websocket.TextMessage, payload)
	s.wmu.Unlock()
	if err != nil {
		s.shutdown(err)
		return wsResponse{}, errors.Wrap(err, "write")
	}

	tmr := time.NewTimer(timeout)
	defer tmr.Stop()

	select {
	case resp := <-ch:
		return resp, nil
	case <-s.done:
		return wsResponse{}, errors.Wrap(s.err, "connection lost")
	case <-tmr.C:
		// молчащее соединение не переиспользуем: оно могло зависнуть полуоткрытым
		err := fmt.Errorf("request %s timeout after %s", req.ID, timeout)
		logger.Warn("[WS] %v, dropping connection", err)
		s.shutdown(err)
		return wsResponse{}, err
	case <-ctx.Done():
		return wsResponse{}, ctx.Err()
	}
}

func (s *wsSession) extend() {
	_ = s.conn.SetReadDeadline(time.Now().Add(s.idle))
}

func (s *wsSession) readLoop() {
	s.extend()
	s.conn.SetPongHandler(func(string) error {
		s.extend()
		return nil
	})
	s.conn.SetPingHandler(func(data string) error {
		s.extend()
		err := s.conn.WriteControl(websocket.PongMessage, []byte(data), time.Now().Add(time.Second))
		if err == websocket.ErrCloseSent {
			return nil
		}
		return err
	})

	for {
		_, msg, err := s.conn.ReadMessage()
		if err != nil {
			if !s.isDone() {
				logger.Warn("[WS] read error: %v", err)
			}
			s.shutdown(err)
			return
		}
		s.extend()

		var resp wsResponse
		if err := sonic.Unmarshal(msg, &resp); err != nil || resp.ID == "" {
			continue
		}
		s.mu.Lock()
		ch, ok := s.pending[resp.ID]
		s.mu.Unlock()
		if ok {
			select {
			case ch <- resp:
			default:
			}
		}
	}
}

// pingLoop держит соединение живым и будит readLoop, если сервер пропал.
func (s *wsSession) pingLoop() {
	t := time.NewTicker(s.idle / 2)
	defer t.Stop()
	for {
		select {
		case <-s.done:
			return
		case <-t.C:
			if err := s.conn.WriteControl(websocket.PingMessage, nil, time.Now().Add(s.idle/2)); err != nil {
				s.shutdown(err)
				return
			}
		}
	}
}

func (s *wsSession) close() error {
	s.wmu.Lock()
	_ = s.conn.WriteControl(websocket.CloseMessage,
		websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""),
		time.Now().Add(time.Second))
	s.wmu.Unlock()
	err := s.conn.Close()
	<-s.done
	return err
}
