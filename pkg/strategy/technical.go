package strategy

import (
	"sync"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/xquant-go/engine/pkg/bar"
	"github.com/xquant-go/engine/pkg/execerr"
	"github.com/xquant-go/engine/pkg/indicators"
	"github.com/xquant-go/engine/pkg/order"
	"github.com/xquant-go/engine/pkg/signals"
)

var half = decimal.NewFromFloat(0.5)

// Technical wraps a trading bot: it feeds bars into an indicator set,
// extracts a dominant signal via the analyzer, sizes a position, and emits
// a market order only if the signal would move the position in a new
// direction.
type Technical struct {
	symbol      string
	strategyName string
	description string

	indicatorSet *indicators.IndicatorSet
	analyzer     *signals.Analyzer
	sizer        Sizer

	mu       sync.Mutex
	active   bool
	position decimal.Decimal
	pending  []*order.Order
}

// NewTechnical builds a technical strategy over one symbol.
func NewTechnical(name, description, symbol string, indicatorSet *indicators.IndicatorSet, analyzer *signals.Analyzer, sizer Sizer) *Technical {
	return &Technical{
		symbol:       symbol,
		strategyName: name,
		description:  description,
		indicatorSet: indicatorSet,
		analyzer:     analyzer,
		sizer:        sizer,
		active:       true,
	}
}

func (t *Technical) Name() string        { return t.strategyName }
func (t *Technical) Description() string { return t.description }

func (t *Technical) IsActive() bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.active
}

// SetActive toggles the strategy. Deactivating a strategy holding a
// position emits a full offsetting market order (Close-Long/Close-Short).
func (t *Technical) SetActive(active bool) {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.active && !active && !t.position.IsZero() {
		t.pending = append(t.pending, t.closingOrder())
		t.position = decimal.Zero
	}
	t.active = active
}

func (t *Technical) closingOrder() *order.Order {
	side := order.Sell
	qty := t.position
	if t.position.IsNegative() {
		side = order.Buy
		qty = t.position.Neg()
	}
	return t.newMarketOrder(side, qty)
}

func (t *Technical) newMarketOrder(side order.Side, qty decimal.Decimal) *order.Order {
	return &order.Order{
		ClientID: uuid.NewString(),
		Symbol:   t.symbol,
		Side:     side,
		Type:     order.Market,
		Quantity: qty,
		Status:   order.New,
	}
}

func (t *Technical) Update(b bar.MarketBar) error {
	if b.Symbol != t.symbol {
		return nil
	}
	t.indicatorSet.UpdateAll(b.Close, b.Volume)

	t.mu.Lock()
	defer t.mu.Unlock()
	if !t.active {
		return nil
	}

	raw := t.indicatorSet.Signals()
	if len(raw) == 0 {
		return nil
	}
	analyzed := t.analyzer.Analyze(raw)
	if len(analyzed) == 0 {
		return nil
	}

	label := dominantLabel(analyzed)
	sizedQty := t.sizer.Size(t.symbol)
	if sizedQty.IsZero() || sizedQty.IsNegative() {
		return execerr.New(execerr.InvalidParameter, "sizer returned non-positive quantity")
	}

	switch label {
	case signals.StrongBuy, signals.Buy:
		if t.position.LessThanOrEqual(decimal.Zero) {
			t.pending = append(t.pending, t.newMarketOrder(order.Buy, sizedQty))
			t.position = t.position.Add(sizedQty)
		}
	case signals.StrongSell, signals.Sell:
		if t.position.GreaterThanOrEqual(decimal.Zero) {
			t.pending = append(t.pending, t.newMarketOrder(order.Sell, sizedQty))
			t.position = t.position.Sub(sizedQty)
		}
	case signals.ReduceShort:
		if t.position.IsNegative() {
			qty := decimal.Min(t.position.Neg().Mul(half), sizedQty)
			t.pending = append(t.pending, t.newMarketOrder(order.Buy, qty))
			t.position = t.position.Add(qty)
		}
	case signals.ReduceLong:
		if t.position.IsPositive() {
			qty := decimal.Min(t.position.Mul(half), sizedQty)
			t.pending = append(t.pending, t.newMarketOrder(order.Sell, qty))
			t.position = t.position.Sub(qty)
		}
	}
	return nil
}

// dominantLabel picks the strongest label across the analyzed set: Strong
// beats normal beats reduce, and any non-neutral label wins over Neutral.
func dominantLabel(analyzed []signals.Analyzed) signals.Label {
	rank := map[signals.Label]int{
		signals.StrongBuy:   5,
		signals.StrongSell:  5,
		signals.Buy:         4,
		signals.Sell:        4,
		signals.ReduceShort: 2,
		signals.ReduceLong:  2,
		signals.Neutral:     0,
	}
	best := signals.Neutral
	bestRank := -1
	for _, a := range analyzed {
		if r := rank[a.Label]; r > bestRank {
			bestRank = r
			best = a.Label
		}
	}
	return best
}

func (t *Technical) GetOrders() ([]*order.Order, error) {
	t.mu.Lock()
	defer t.mu.Unlock()
	drained := t.pending
	t.pending = nil
	return drained, nil
}
