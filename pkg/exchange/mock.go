package exchange

import (
	"context"
	"fmt"
	"math/rand"
	"sync"
	"time"

	"github.com/shopspring/decimal"

	"github.com/xquant-go/engine/pkg/bar"
	"github.com/xquant-go/engine/pkg/execerr"
	"github.com/xquant-go/engine/pkg/order"
)

// Mock is a deterministic-seeded random-walk exchange with in-memory fills,
// adapted from paper.Engine's ModeSimple fill logic: market orders fill
// immediately at the current mock price, limit orders fill only when the
// mock price crosses the limit.
type Mock struct {
	mu sync.RWMutex

	rng    *rand.Rand
	prices map[string]decimal.Decimal // last known price per symbol
	volMs  int64                      // volatility per bar, in price-percent bps

	orderSeq int64
	tradeSeq int64

	orders map[string]*order.Order
	trades map[string][]order.Trade // by symbol

	balances map[string]decimal.Decimal

	takerFeeBps decimal.Decimal
	clientIdx   map[string]string // client_id -> order id, for idempotent resubmission
}

// NewMock creates a Mock exchange seeded for reproducible price paths.
func NewMock(seed int64, initialBalances map[string]decimal.Decimal) *Mock {
	balances := make(map[string]decimal.Decimal, len(initialBalances))
	for k, v := range initialBalances {
		balances[k] = v
	}
	return &Mock{
		rng:         rand.New(rand.NewSource(seed)),
		prices:      make(map[string]decimal.Decimal),
		orders:      make(map[string]*order.Order),
		trades:      make(map[string][]order.Trade),
		balances:    balances,
		takerFeeBps: decimal.NewFromFloat(5), // 5 bps, matches teacher's TakerFeeBps default scale
		clientIdx:   make(map[string]string),
	}
}

// SeedPrice sets the starting price for a symbol's random walk.
func (m *Mock) SeedPrice(symbol string, price decimal.Decimal) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.prices[symbol] = price
}

func (m *Mock) nextPrice(symbol string) decimal.Decimal {
	p, ok := m.prices[symbol]
	if !ok {
		p = decimal.NewFromInt(100)
	}
	// +/- 0.5% step, deterministic given the seed.
	step := (m.rng.Float64() - 0.5) * 0.01
	p = p.Mul(decimal.NewFromFloat(1 + step))
	if p.IsNegative() {
		p = decimal.NewFromInt(1)
	}
	m.prices[symbol] = p
	return p
}

func (m *Mock) SubmitOrder(ctx context.Context, o *order.Order) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if o.ClientID != "" {
		if existingID, ok := m.clientIdx[o.ClientID]; ok {
			return existingID, nil // idempotent retry
		}
	}

	m.orderSeq++
	id := fmt.Sprintf("mock-%d", m.orderSeq)
	placed := *o
	placed.ID = id
	placed.Status = order.New
	m.orders[id] = &placed
	if o.ClientID != "" {
		m.clientIdx[o.ClientID] = id
	}

	m.tryFill(&placed)
	return id, nil
}

func (m *Mock) tryFill(o *order.Order) {
	price := m.nextPrice(o.Symbol)

	switch o.Type {
	case order.Limit:
		if o.Side == order.Buy && price.GreaterThan(o.Price) {
			return
		}
		if o.Side == order.Sell && price.LessThan(o.Price) {
			return
		}
		m.executeFill(o, o.Price, o.Quantity)
	default:
		// Market and algorithm-submitted child orders fill at the walk price.
		m.executeFill(o, price, o.Quantity)
	}
}

func (m *Mock) executeFill(o *order.Order, price, qty decimal.Decimal) {
	fee := price.Mul(qty).Mul(m.takerFeeBps).Div(decimal.NewFromInt(10000))

	o.FilledQty = o.FilledQty.Add(qty)
	o.AvgFillPrice = price
	if o.FilledQty.GreaterThanOrEqual(o.Quantity) {
		o.Status = order.Filled
	} else {
		o.Status = order.PartiallyFilled
	}

	if o.Side == order.Buy {
		m.balances["quote"] = m.balances["quote"].Sub(price.Mul(qty).Add(fee))
		m.balances["base"] = m.balances["base"].Add(qty)
	} else {
		m.balances["quote"] = m.balances["quote"].Add(price.Mul(qty).Sub(fee))
		m.balances["base"] = m.balances["base"].Sub(qty)
	}

	m.tradeSeq++
	m.trades[o.Symbol] = append(m.trades[o.Symbol], order.Trade{
		ID:          fmt.Sprintf("mock-trade-%d", m.tradeSeq),
		OrderID:     o.ID,
		Symbol:      o.Symbol,
		Side:        o.Side,
		Price:       price,
		Quantity:    qty,
		TimestampMs: time.Now().UnixMilli(),
		Fee:         fee,
	})
}

func (m *Mock) CancelOrder(ctx context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	o, ok := m.orders[id]
	if !ok {
		return execerr.New(execerr.OrderNotFound, id)
	}
	if o.Status.Terminal() {
		return nil // idempotent
	}
	o.Status = order.Cancelled
	return nil
}

func (m *Mock) ModifyOrder(ctx context.Context, id string, o *order.Order) (string, error) {
	return "", execerr.New(execerr.InvalidParameter, "mock exchange does not support modify")
}

func (m *Mock) GetOrderStatus(ctx context.Context, id string) (order.Status, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	o, ok := m.orders[id]
	if !ok {
		return 0, execerr.New(execerr.OrderNotFound, id)
	}
	return o.Status, nil
}

func (m *Mock) GetOpenOrders(ctx context.Context) ([]*order.Order, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make([]*order.Order, 0)
	for _, o := range m.orders {
		if !o.Status.Terminal() {
			cp := *o
			out = append(out, &cp)
		}
	}
	return out, nil
}

func (m *Mock) GetRecentTrades(ctx context.Context, symbol string, limit int) ([]order.Trade, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	trades := m.trades[symbol]
	if limit > 0 && len(trades) > limit {
		trades = trades[len(trades)-limit:]
	}
	out := make([]order.Trade, len(trades))
	copy(out, trades)
	return out, nil
}

func (m *Mock) GetMarketData(ctx context.Context, symbol string) (bar.MarketBar, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	price, ok := m.prices[symbol]
	if !ok {
		return bar.MarketBar{}, execerr.New(execerr.DataNotFound, symbol)
	}
	next := m.nextPrice(symbol)
	lo, hi := price, next
	if lo.GreaterThan(hi) {
		lo, hi = hi, lo
	}
	return bar.MarketBar{
		Symbol:      symbol,
		TimestampMs: time.Now().UnixMilli(),
		Open:        price,
		High:        hi,
		Low:         lo,
		Close:       next,
		Volume:      decimal.NewFromInt(100),
	}, nil
}

func (m *Mock) GetHistoricalData(ctx context.Context, symbol, interval string, startMs, endMs int64, limit int) ([]bar.MarketBar, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if limit <= 0 {
		limit = 100
	}
	bars := make([]bar.MarketBar, 0, limit)
	t := startMs
	if endMs > 0 && endMs < t {
		t = endMs
	}
	stepMs := int64(60_000)
	for i := 0; i < limit; i++ {
		price := m.nextPrice(symbol)
		bars = append(bars, bar.MarketBar{
			Symbol:      symbol,
			TimestampMs: t + int64(i)*stepMs,
			Open:        price,
			High:        price,
			Low:         price,
			Close:       price,
			Volume:      decimal.NewFromFloat(10 + m.rng.Float64()*90),
		})
	}
	return bars, nil
}

func (m *Mock) GetBalance(ctx context.Context, asset string) (decimal.Decimal, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.balances[asset], nil
}
