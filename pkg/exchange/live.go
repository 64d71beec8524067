package exchange

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"sync"
	"sync/atomic"
	"time"

	"github.com/shopspring/decimal"
	"golang.org/x/time/rate"

	"github.com/xquant-go/engine/pkg/authsign"
	"github.com/xquant-go/engine/pkg/bar"
	"github.com/xquant-go/engine/pkg/execerr"
	"github.com/xquant-go/engine/pkg/order"
)

// Live routes orders to a remote venue over HMAC-signed HTTP, throttled by
// a token-bucket limiter composing an authsign.HMACSigner with
// golang.org/x/time/rate.Limiter.
type Live struct {
	baseURL    string
	httpClient *http.Client
	limiter    *rate.Limiter
	signer     *authsign.HMACSigner
	funder     string

	timeSynced      atomic.Bool
	timeOffsetMs    atomic.Int64
	minIntervalMs   int64

	mu sync.RWMutex // guards nothing directly yet; reserved for future writer exclusion
}

// LiveOption configures a Live exchange client.
type LiveOption func(*Live)

// WithBaseURL overrides the venue's base URL.
func WithBaseURL(url string) LiveOption {
	return func(l *Live) { l.baseURL = url }
}

// WithHTTPClient overrides the HTTP client (timeouts, transport pooling).
func WithHTTPClient(c *http.Client) LiveOption {
	return func(l *Live) { l.httpClient = c }
}

// WithMinIntervalMs sets the minimum spacing between outbound requests by
// replacing the default limiter with a token bucket that refills one token
// every ms milliseconds (burst 1). A non-positive ms keeps the default.
func WithMinIntervalMs(ms int64) LiveOption {
	return func(l *Live) {
		l.minIntervalMs = ms
		if ms > 0 {
			l.limiter = rate.NewLimiter(rate.Every(time.Duration(ms)*time.Millisecond), 1)
		}
	}
}

// NewLive creates a Live exchange client authenticated via HMAC credentials.
func NewLive(creds *authsign.APICredentials, funder string, opts ...LiveOption) *Live {
	l := &Live{
		baseURL: "https://api.exchange.example",
		httpClient: &http.Client{
			Timeout: 5 * time.Second,
			Transport: &http.Transport{
				MaxIdleConns:        20,
				MaxIdleConnsPerHost: 10,
				IdleConnTimeout:     90 * time.Second,
			},
		},
		limiter: rate.NewLimiter(rate.Limit(10), 5),
		signer:  authsign.NewHMACSigner(creds),
		funder:  funder,
	}
	for _, opt := range opts {
		opt(l)
	}
	return l
}

// SyncTime fetches the venue's clock and stores the offset for subsequent
// signed requests; required before any signed submission per spec.
func (l *Live) SyncTime(ctx context.Context) error {
	var resp struct {
		ServerTimeMs int64 `json:"server_time_ms"`
	}
	if err := l.get(ctx, "/time", &resp); err != nil {
		return execerr.Wrap(execerr.ExchangeError, "sync time", err)
	}
	l.timeOffsetMs.Store(resp.ServerTimeMs - time.Now().UnixMilli())
	l.timeSynced.Store(true)
	return nil
}

func (l *Live) requireSynced() error {
	if !l.timeSynced.Load() {
		return execerr.New(execerr.NotConnected, "server time not synchronized; call SyncTime first")
	}
	return nil
}

func (l *Live) signedTimestamp() string {
	nowMs := time.Now().UnixMilli() + l.timeOffsetMs.Load()
	return strconv.FormatInt(nowMs/1000, 10)
}

func (l *Live) do(ctx context.Context, method, path string, body interface{}, out interface{}) error {
	if err := l.limiter.Wait(ctx); err != nil {
		return execerr.Wrap(execerr.ExchangeError, "rate limit wait", err)
	}

	var payload []byte
	if body != nil {
		var err error
		payload, err = json.Marshal(body)
		if err != nil {
			return execerr.Wrap(execerr.InvalidParameter, "encode request", err)
		}
	}

	timestamp := l.signedTimestamp()
	headers, err := l.signer.SignRequest(timestamp, method, path, payload, l.funder)
	if err != nil {
		return execerr.Wrap(execerr.Unauthorized, "sign request", err)
	}

	req, err := http.NewRequestWithContext(ctx, method, l.baseURL+path, bytes.NewReader(payload))
	if err != nil {
		return execerr.Wrap(execerr.ExchangeError, "build request", err)
	}
	req.Header.Set("Content-Type", "application/json")
	for k, v := range headers {
		req.Header.Set(k, v)
	}

	resp, err := l.httpClient.Do(req)
	if err != nil {
		return execerr.Wrap(execerr.ExchangeError, "do request", err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return execerr.Wrap(execerr.ExchangeError, "read response", err)
	}
	if resp.StatusCode >= 400 {
		return execerr.Newf(execerr.ExchangeError, "status %d: %s", resp.StatusCode, string(respBody))
	}
	if out != nil {
		if err := json.Unmarshal(respBody, out); err != nil {
			return execerr.Wrap(execerr.ParseError, "decode response", err)
		}
	}
	return nil
}

func (l *Live) get(ctx context.Context, path string, out interface{}) error {
	return l.do(ctx, http.MethodGet, path, nil, out)
}

func (l *Live) post(ctx context.Context, path string, body, out interface{}) error {
	return l.do(ctx, http.MethodPost, path, body, out)
}

func (l *Live) SubmitOrder(ctx context.Context, o *order.Order) (string, error) {
	if err := l.requireSynced(); err != nil {
		return "", err
	}
	var resp struct {
		OrderID string `json:"order_id"`
	}
	if err := l.post(ctx, "/orders", o, &resp); err != nil {
		return "", err
	}
	return resp.OrderID, nil
}

func (l *Live) CancelOrder(ctx context.Context, id string) error {
	if err := l.requireSynced(); err != nil {
		return err
	}
	return l.do(ctx, http.MethodDelete, "/orders/"+id, nil, nil)
}

func (l *Live) ModifyOrder(ctx context.Context, id string, o *order.Order) (string, error) {
	return "", execerr.New(execerr.InvalidParameter, "live venue does not support in-place modify")
}

func (l *Live) GetOrderStatus(ctx context.Context, id string) (order.Status, error) {
	var resp struct {
		Status string `json:"status"`
	}
	if err := l.get(ctx, "/orders/"+id, &resp); err != nil {
		return 0, err
	}
	return statusFromString(resp.Status), nil
}

func (l *Live) GetOpenOrders(ctx context.Context) ([]*order.Order, error) {
	var orders []*order.Order
	if err := l.get(ctx, "/orders", &orders); err != nil {
		return nil, err
	}
	return orders, nil
}

func (l *Live) GetRecentTrades(ctx context.Context, symbol string, limit int) ([]order.Trade, error) {
	var trades []order.Trade
	if err := l.get(ctx, fmt.Sprintf("/trades?symbol=%s&limit=%d", symbol, limit), &trades); err != nil {
		return nil, err
	}
	return trades, nil
}

func (l *Live) GetMarketData(ctx context.Context, symbol string) (bar.MarketBar, error) {
	var b bar.MarketBar
	if err := l.get(ctx, "/marketdata/"+symbol, &b); err != nil {
		return bar.MarketBar{}, err
	}
	return b, nil
}

func (l *Live) GetHistoricalData(ctx context.Context, symbol, interval string, startMs, endMs int64, limit int) ([]bar.MarketBar, error) {
	var bars []bar.MarketBar
	path := fmt.Sprintf("/historical/%s?interval=%s&start=%d&end=%d&limit=%d", symbol, interval, startMs, endMs, limit)
	if err := l.get(ctx, path, &bars); err != nil {
		return nil, err
	}
	return bars, nil
}

func (l *Live) GetBalance(ctx context.Context, asset string) (decimal.Decimal, error) {
	var resp struct {
		Balance decimal.Decimal `json:"balance"`
	}
	if err := l.get(ctx, "/balance/"+asset, &resp); err != nil {
		return decimal.Zero, err
	}
	return resp.Balance, nil
}

func statusFromString(s string) order.Status {
	switch s {
	case "NEW":
		return order.New
	case "PARTIALLY_FILLED":
		return order.PartiallyFilled
	case "FILLED":
		return order.Filled
	case "CANCELLED":
		return order.Cancelled
	case "REJECTED":
		return order.Rejected
	case "EXPIRED":
		return order.Expired
	default:
		return order.New
	}
}
