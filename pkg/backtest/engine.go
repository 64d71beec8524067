// Package backtest implements a deterministic backtest engine: given a
// timeline of bars and a set of strategies, replays fills against
// historical OHLC without ever reading the wall clock. Grounded on
// backtest.Backtest.Run's load→timeline→tick loop, generalized from
// Polymarket price points to OHLCV bars with explicit fee-rate fill
// formulas.
package backtest

import (
	"fmt"
	"log"
	"sort"

	"github.com/shopspring/decimal"

	"github.com/xquant-go/engine/pkg/bar"
	"github.com/xquant-go/engine/pkg/execerr"
	"github.com/xquant-go/engine/pkg/order"
	"github.com/xquant-go/engine/pkg/strategymanager"
)

// DataProvider supplies the full bar series for one symbol.
type DataProvider interface {
	LoadBars(symbol string) ([]bar.MarketBar, error)
}

// DefaultBaseAssetLen is the number of leading characters of a symbol taken
// as the base asset (e.g. "BTC" of "BTCUSDT") rather than parsing a real
// symbology table.
const DefaultBaseAssetLen = 3

// Config parameterizes one backtest run.
type Config struct {
	StartMs        int64
	EndMs          int64
	InitialBalance decimal.Decimal
	FeeRate        decimal.Decimal
	Slippage       decimal.Decimal
	BaseAssetLen   int
	Provider       DataProvider
}

type timelineEntry struct {
	TimestampMs int64
	Symbol      string
}

// Engine replays a deterministic backtest. It never reads the wall clock;
// every timestamp and id derives from the timeline or a monotonic counter.
type Engine struct {
	config     Config
	strategies *strategymanager.Manager

	bars    map[string][]bar.MarketBar // ascending by TimestampMs
	cursor  map[string]int             // index of the latest bar at-or-before current tick, per symbol
	lastBar map[string]bar.MarketBar

	quoteBalances map[string]decimal.Decimal
	baseBalances  map[string]decimal.Decimal
	positions     map[string]*order.Position
	resting       []*order.Order

	trades []order.Trade
	idSeq  int64
}

// New builds an engine over the given symbols; bars are loaded eagerly via
// config.Provider and filtered to [StartMs, EndMs].
func New(config Config, symbols []string, strategies *strategymanager.Manager) (*Engine, error) {
	if config.Provider == nil {
		return nil, execerr.New(execerr.ConfigError, "backtest: data provider is required")
	}
	if config.BaseAssetLen <= 0 {
		config.BaseAssetLen = DefaultBaseAssetLen
	}

	e := &Engine{
		config:        config,
		strategies:    strategies,
		bars:          make(map[string][]bar.MarketBar),
		cursor:        make(map[string]int),
		lastBar:       make(map[string]bar.MarketBar),
		quoteBalances: make(map[string]decimal.Decimal),
		baseBalances:  make(map[string]decimal.Decimal),
		positions:     make(map[string]*order.Position),
	}

	for _, symbol := range symbols {
		raw, err := config.Provider.LoadBars(symbol)
		if err != nil {
			return nil, execerr.Wrap(execerr.DataNotFound, "backtest: load bars for "+symbol, err)
		}
		filtered := make([]bar.MarketBar, 0, len(raw))
		for _, b := range raw {
			if b.TimestampMs < config.StartMs || b.TimestampMs > config.EndMs {
				continue
			}
			filtered = append(filtered, b)
		}
		sort.Slice(filtered, func(i, j int) bool { return filtered[i].TimestampMs < filtered[j].TimestampMs })
		e.bars[symbol] = filtered
	}

	return e, nil
}

func (e *Engine) splitSymbol(symbol string) (base, quote string) {
	n := e.config.BaseAssetLen
	if n >= len(symbol) {
		return symbol, "QUOTE"
	}
	return symbol[:n], symbol[n:]
}

func (e *Engine) quoteBalance(quote string) decimal.Decimal {
	bal, ok := e.quoteBalances[quote]
	if !ok {
		bal = e.config.InitialBalance
		e.quoteBalances[quote] = bal
	}
	return bal
}

// buildTimeline flattens every symbol's bar timestamps into one ascending
// (timestamp, symbol) sequence.
func (e *Engine) buildTimeline() []timelineEntry {
	var timeline []timelineEntry
	for symbol, bars := range e.bars {
		for _, b := range bars {
			timeline = append(timeline, timelineEntry{TimestampMs: b.TimestampMs, Symbol: symbol})
		}
	}
	sort.Slice(timeline, func(i, j int) bool {
		if timeline[i].TimestampMs != timeline[j].TimestampMs {
			return timeline[i].TimestampMs < timeline[j].TimestampMs
		}
		return timeline[i].Symbol < timeline[j].Symbol
	})
	return timeline
}

// barAtOrBefore advances symbol's cursor to the latest bar at-or-before ts
// and returns it.
func (e *Engine) barAtOrBefore(symbol string, ts int64) (bar.MarketBar, bool) {
	bars := e.bars[symbol]
	idx := e.cursor[symbol]
	for idx < len(bars) && bars[idx].TimestampMs <= ts {
		idx++
	}
	e.cursor[symbol] = idx
	if idx == 0 {
		return bar.MarketBar{}, false
	}
	b := bars[idx-1]
	e.lastBar[symbol] = b
	return b, true
}

// Run performs the deterministic replay and returns every trade produced.
func (e *Engine) Run() ([]order.Trade, error) {
	timeline := e.buildTimeline()
	if len(timeline) == 0 {
		return nil, execerr.New(execerr.InsufficientData, "backtest: no bars in [start,end] for any configured symbol")
	}

	for _, entry := range timeline {
		b, ok := e.barAtOrBefore(entry.Symbol, entry.TimestampMs)
		if !ok {
			continue
		}

		if err := e.strategies.UpdateAll(b); err != nil {
			return nil, execerr.Wrap(execerr.CalculationError, "backtest: strategy update failed", err)
		}

		orders, err := e.strategies.GetAllOrders()
		if err != nil {
			return nil, execerr.Wrap(execerr.CalculationError, "backtest: order drain failed", err)
		}
		for _, o := range orders {
			e.processOrder(o, b)
		}

		e.processResting(b, entry.Symbol)
	}
	return e.trades, nil
}

func (e *Engine) nextID() string {
	e.idSeq++
	return fmt.Sprintf("backtest-%d", e.idSeq)
}

func (e *Engine) processOrder(o *order.Order, b bar.MarketBar) {
	switch o.Type {
	case order.Market:
		price := b.Close
		if o.Side == order.Buy {
			price = price.Mul(decimal.NewFromInt(1).Add(e.config.Slippage))
		} else {
			price = price.Mul(decimal.NewFromInt(1).Sub(e.config.Slippage))
		}
		e.fill(o, price, o.Quantity, b.TimestampMs)
	case order.Limit:
		if (o.Side == order.Buy && b.Low.LessThanOrEqual(o.Price)) ||
			(o.Side == order.Sell && b.High.GreaterThanOrEqual(o.Price)) {
			e.fill(o, o.Price, o.Quantity, b.TimestampMs)
		} else {
			o.Status = order.New
			e.resting = append(e.resting, o)
		}
	default:
		o.Status = order.New
		e.resting = append(e.resting, o)
	}
}

// processResting attempts to fill every resting order against symbol's
// current bar, removing filled entries.
func (e *Engine) processResting(b bar.MarketBar, symbol string) {
	kept := e.resting[:0]
	for _, o := range e.resting {
		if o.Symbol != symbol || o.Status.Terminal() {
			kept = append(kept, o)
			continue
		}
		if (o.Side == order.Buy && b.Low.LessThanOrEqual(o.Price)) ||
			(o.Side == order.Sell && b.High.GreaterThanOrEqual(o.Price)) {
			e.fill(o, o.Price, o.Quantity, b.TimestampMs)
			continue
		}
		kept = append(kept, o)
	}
	e.resting = kept
}

// fill settles an order against price/qty, verifying balance before
// mutating it; InsufficientBalance aborts only this order.
func (e *Engine) fill(o *order.Order, price, qty decimal.Decimal, tsMs int64) {
	base, quote := e.splitSymbol(o.Symbol)
	notional := price.Mul(qty)
	one := decimal.NewFromInt(1)

	if o.Side == order.Buy {
		cost := notional.Mul(one.Add(e.config.FeeRate))
		if e.quoteBalance(quote).LessThan(cost) {
			log.Printf("backtest: insufficient %s balance for order %s, skipping", quote, o.ClientID)
			o.Status = order.Rejected
			return
		}
		e.quoteBalances[quote] = e.quoteBalances[quote].Sub(cost)
		e.baseBalances[base] = e.baseBalances[base].Add(qty)
	} else {
		if e.baseBalances[base].LessThan(qty) {
			log.Printf("backtest: insufficient %s balance for order %s, skipping", base, o.ClientID)
			o.Status = order.Rejected
			return
		}
		proceeds := notional.Mul(one.Sub(e.config.FeeRate))
		e.baseBalances[base] = e.baseBalances[base].Sub(qty)
		e.quoteBalances[quote] = e.quoteBalances[quote].Add(proceeds)
	}

	o.Status = order.Filled
	o.FilledQty = qty
	o.AvgFillPrice = price

	realized := e.applyPosition(o.Symbol, o.Side, qty, price)

	fee := notional.Mul(e.config.FeeRate)
	e.trades = append(e.trades, order.Trade{
		ID:          e.nextID(),
		OrderID:     o.ID,
		Symbol:      o.Symbol,
		Side:        o.Side,
		Price:       price,
		Quantity:    qty,
		TimestampMs: tsMs,
		Fee:         fee,
		RealizedPnL: realized,
	})
}

// applyPosition updates the average-cost position for symbol and returns
// the realized P&L of any closed portion of this fill.
func (e *Engine) applyPosition(symbol string, side order.Side, qty, price decimal.Decimal) decimal.Decimal {
	pos, ok := e.positions[symbol]
	if !ok {
		pos = &order.Position{Symbol: symbol}
		e.positions[symbol] = pos
	}

	signedQty := qty
	if side == order.Sell {
		signedQty = qty.Neg()
	}

	realized := decimal.Zero
	switch {
	case pos.Quantity.IsZero():
		pos.EntryPrice = price
		pos.Quantity = signedQty
	case pos.Quantity.Sign() == signedQty.Sign():
		totalQty := pos.Quantity.Add(signedQty)
		pos.EntryPrice = pos.EntryPrice.Mul(pos.Quantity.Abs()).Add(price.Mul(qty)).Div(totalQty.Abs())
		pos.Quantity = totalQty
	default:
		closingQty := decimal.Min(qty, pos.Quantity.Abs())
		if pos.Quantity.IsPositive() {
			realized = price.Sub(pos.EntryPrice).Mul(closingQty)
		} else {
			realized = pos.EntryPrice.Sub(price).Mul(closingQty)
		}
		pos.Quantity = pos.Quantity.Add(signedQty)
		if pos.Quantity.IsZero() {
			pos.EntryPrice = decimal.Zero
		} else if closingQty.LessThan(qty) {
			pos.EntryPrice = price
		}
	}
	pos.CurrentPrice = price
	pos.Recalc()
	return realized
}

// Positions returns a snapshot of every symbol's current position.
func (e *Engine) Positions() map[string]order.Position {
	out := make(map[string]order.Position, len(e.positions))
	for symbol, p := range e.positions {
		out[symbol] = *p
	}
	return out
}

// QuoteBalance returns the current balance of a quote asset; a quote asset
// no fill has touched yet still holds InitialBalance.
func (e *Engine) QuoteBalance(quote string) decimal.Decimal {
	if bal, ok := e.quoteBalances[quote]; ok {
		return bal
	}
	return e.config.InitialBalance
}

// BaseBalance returns the current balance of a base asset.
func (e *Engine) BaseBalance(base string) decimal.Decimal { return e.baseBalances[base] }

// LastClose returns the last known close for a symbol, used to quote
// non-quote-asset holdings in the final result.
func (e *Engine) LastClose(symbol string) (decimal.Decimal, bool) {
	b, ok := e.lastBar[symbol]
	return b.Close, ok
}
