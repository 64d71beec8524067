package execution

import (
	"context"
	"log"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/xquant-go/engine/pkg/exchange"
	"github.com/xquant-go/engine/pkg/execerr"
	"github.com/xquant-go/engine/pkg/order"
)

var trailingPollInterval = 500 * time.Millisecond // ~2 Hz

var hundred = decimal.NewFromInt(100)

// TrailingStop tracks the running high (Buy side) or low (Sell side) and
// fires a market order once price retraces by trailing_delta_pct.
type TrailingStop struct {
	id               string
	symbol           string
	side             order.Side
	quantity         decimal.Decimal
	trailingDeltaPct decimal.Decimal
	activationPrice  *decimal.Decimal

	ex exchange.Exchange

	mu           sync.Mutex
	isActive     bool
	activated    bool
	executed     bool
	highestPrice decimal.Decimal
	lowestPrice  decimal.Decimal
	stopPrice    decimal.Decimal
	childOrderID string
	stopCh       chan struct{}
	startedAt    time.Time
}

// NewTrailingStop builds a trailing-stop instance. trailingDeltaPct must be > 0.
func NewTrailingStop(ex exchange.Exchange, symbol string, side order.Side, quantity, trailingDeltaPct decimal.Decimal, activationPrice *decimal.Decimal) (*TrailingStop, error) {
	if !trailingDeltaPct.IsPositive() {
		return nil, execerr.New(execerr.InvalidParameter, "trailing-stop: trailing_delta_pct must be > 0")
	}
	return &TrailingStop{
		id:               uuid.NewString(),
		symbol:           symbol,
		side:             side,
		quantity:         quantity,
		trailingDeltaPct: trailingDeltaPct,
		activationPrice:  activationPrice,
		ex:               ex,
	}, nil
}

func (ts *TrailingStop) Start(ctx context.Context) error {
	ts.mu.Lock()
	if ts.isActive {
		ts.mu.Unlock()
		return execerr.New(execerr.AlreadyRunning, "trailing-stop: already running")
	}
	ts.isActive = true
	ts.activated = ts.activationPrice == nil
	ts.stopCh = make(chan struct{})
	ts.startedAt = recordStart(order.KindTrailing, ts.side)
	ts.mu.Unlock()

	current, err := ts.ex.GetMarketData(ctx, ts.symbol)
	if err != nil {
		return err
	}
	ts.mu.Lock()
	ts.highestPrice = current.Close
	ts.lowestPrice = current.Close
	ts.mu.Unlock()

	go ts.pollLoop(ctx)
	return nil
}

func (ts *TrailingStop) pollLoop(ctx context.Context) {
	ticker := time.NewTicker(trailingPollInterval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			ts.finish()
			return
		case <-ts.stopCh:
			return
		case <-ticker.C:
		}

		bar, err := ts.ex.GetMarketData(ctx, ts.symbol)
		if err != nil {
			log.Printf("trailing-stop %s: market data poll failed, skipping tick: %v", ts.id, err)
			continue
		}
		if ts.step(ctx, bar.Close) {
			return
		}
	}
}

// step applies one poll tick's price and reports whether the algorithm
// finished (triggered or stopped).
func (ts *TrailingStop) step(ctx context.Context, p decimal.Decimal) bool {
	ts.mu.Lock()
	if !ts.isActive {
		ts.mu.Unlock()
		return true
	}
	if !ts.activated {
		if ts.side == order.Buy {
			ts.activated = ts.activationPrice != nil && p.LessThanOrEqual(*ts.activationPrice)
		} else {
			ts.activated = ts.activationPrice != nil && p.GreaterThanOrEqual(*ts.activationPrice)
		}
		if !ts.activated {
			ts.mu.Unlock()
			return false
		}
	}

	if p.GreaterThan(ts.highestPrice) {
		ts.highestPrice = p
	}
	if ts.lowestPrice.IsZero() || p.LessThan(ts.lowestPrice) {
		ts.lowestPrice = p
	}

	deltaFrac := ts.trailingDeltaPct.Div(hundred)
	var triggered bool
	if ts.side == order.Buy {
		ts.stopPrice = ts.highestPrice.Mul(decimal.NewFromInt(1).Sub(deltaFrac))
		triggered = p.LessThanOrEqual(ts.stopPrice)
	} else {
		ts.stopPrice = ts.lowestPrice.Mul(decimal.NewFromInt(1).Add(deltaFrac))
		triggered = p.GreaterThanOrEqual(ts.stopPrice)
	}

	if !triggered || ts.executed {
		ts.mu.Unlock()
		return false
	}
	ts.mu.Unlock()

	child := newChildOrder(ts.symbol, ts.side, ts.quantity, order.Market, decimal.Zero)
	id, err := ts.ex.SubmitOrder(ctx, child)
	if err != nil {
		log.Printf("trailing-stop %s: trigger submit failed: %v", ts.id, err)
		return false
	}

	ts.mu.Lock()
	ts.childOrderID = id
	ts.executed = true
	ts.isActive = false
	startedAt := ts.startedAt
	ts.mu.Unlock()
	recordFillRatio(order.KindTrailing, ts.symbol, ts.quantity, ts.quantity)
	recordDone(order.KindTrailing, startedAt)
	return true
}

func (ts *TrailingStop) finish() {
	ts.mu.Lock()
	ts.isActive = false
	startedAt := ts.startedAt
	ts.mu.Unlock()
	recordDone(order.KindTrailing, startedAt)
}

// UpdateDelta validates and atomically swaps trailing_delta_pct; the next
// tick picks it up.
func (ts *TrailingStop) UpdateDelta(newDelta decimal.Decimal) error {
	if !newDelta.IsPositive() {
		return execerr.New(execerr.InvalidParameter, "trailing-stop: trailing_delta_pct must be > 0")
	}
	ts.mu.Lock()
	ts.trailingDeltaPct = newDelta
	ts.mu.Unlock()
	return nil
}

func (ts *TrailingStop) Stop() {
	ts.mu.Lock()
	if !ts.isActive {
		ts.mu.Unlock()
		return
	}
	ts.isActive = false
	close(ts.stopCh)
	childID := ts.childOrderID
	executed := ts.executed
	startedAt := ts.startedAt
	ts.mu.Unlock()
	recordDone(order.KindTrailing, startedAt)

	if !executed {
		cancelIfLive(context.Background(), ts.ex, childID)
	}
}

func (ts *TrailingStop) Status() order.ExecutionState {
	ts.mu.Lock()
	defer ts.mu.Unlock()
	executedQty := decimal.Zero
	if ts.executed {
		executedQty = ts.quantity
	}
	var ids []string
	if ts.childOrderID != "" {
		ids = []string{ts.childOrderID}
	}
	return order.ExecutionState{
		ID:               ts.id,
		Kind:             order.KindTrailing,
		Symbol:           ts.symbol,
		Side:             ts.side,
		IsActive:         ts.isActive,
		ExecutedQuantity: executedQty,
		TotalQuantity:    ts.quantity,
		ChildOrderIDs:    ids,
		TriggerPrice:     ts.stopPrice,
		Executed:         ts.executed,
	}
}
