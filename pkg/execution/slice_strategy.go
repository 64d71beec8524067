package execution

import (
	"sync"

	"github.com/shopspring/decimal"

	"github.com/xquant-go/engine/pkg/bar"
	"github.com/xquant-go/engine/pkg/order"
)

// SliceStrategy is the bar-driven counterpart to TWAP/VWAPSplitter used when
// an execution algorithm is composed inside a Combined strategy rather than
// run as its own background task: it never talks to an Exchange directly.
// Each Update call consumes one pseudo-bar (synthesized
// by the combined strategy at the signal order's price) as one scheduling
// tick and emits the next slice as a drainable Order, matching TWAP's
// last-slice-absorbs-rounding rule.
type SliceStrategy struct {
	symbol        string
	side          order.Side
	totalQuantity decimal.Decimal
	numSlices     int
	sliceQty      decimal.Decimal

	mu       sync.Mutex
	active   bool
	ticks    int
	executed decimal.Decimal
	pending  []*order.Order
}

// NewSliceStrategy builds a slice-strategy that emits one market order per
// Update call, stopping once total_quantity is exhausted or num_slices
// ticks have elapsed (whichever comes first).
func NewSliceStrategy(symbol string, side order.Side, totalQuantity decimal.Decimal, numSlices int) *SliceStrategy {
	if numSlices < 1 {
		numSlices = 1
	}
	return &SliceStrategy{
		symbol:        symbol,
		side:          side,
		totalQuantity: totalQuantity,
		numSlices:     numSlices,
		sliceQty:      totalQuantity.Div(decimal.NewFromInt(int64(numSlices))),
		active:        true,
	}
}

func (s *SliceStrategy) Name() string { return "slice-execution" }
func (s *SliceStrategy) Description() string {
	return "emits total_quantity across num_slices market orders, one per drive tick"
}

func (s *SliceStrategy) IsActive() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.active
}

func (s *SliceStrategy) SetActive(active bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.active = active
}

func (s *SliceStrategy) Update(b bar.MarketBar) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if b.Symbol != s.symbol || !s.active {
		return nil
	}
	remaining := s.totalQuantity.Sub(s.executed)
	if remaining.LessThanOrEqual(decimal.Zero) {
		s.active = false
		return nil
	}

	qty := s.sliceQty
	if s.ticks == s.numSlices-1 || qty.GreaterThan(remaining) {
		qty = remaining
	}
	s.ticks++

	if qty.IsPositive() {
		s.pending = append(s.pending, newChildOrder(s.symbol, s.side, qty, order.Market, b.Close))
		s.executed = s.executed.Add(qty)
	}
	if s.totalQuantity.Sub(s.executed).LessThanOrEqual(decimal.Zero) || s.ticks >= s.numSlices {
		s.active = false
	}
	return nil
}

func (s *SliceStrategy) GetOrders() ([]*order.Order, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	drained := s.pending
	s.pending = nil
	return drained, nil
}
