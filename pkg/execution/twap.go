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

// TWAP slices total_quantity into num_slices equal market orders spaced
// execution_interval_ms/num_slices apart; the last slice absorbs rounding.
type TWAP struct {
	id                  string
	symbol              string
	side                order.Side
	totalQuantity       decimal.Decimal
	executionIntervalMs int64
	numSlices           int
	sliceQty            decimal.Decimal

	ex exchange.Exchange

	mu               sync.Mutex
	isActive         bool
	executedQuantity decimal.Decimal
	childOrderIDs    []string
	stopCh           chan struct{}
	startedAt        time.Time
}

// NewTWAP builds a TWAP instance. numSlices must be >= 1.
func NewTWAP(ex exchange.Exchange, symbol string, side order.Side, totalQuantity decimal.Decimal, executionIntervalMs int64, numSlices int) (*TWAP, error) {
	if numSlices < 1 {
		return nil, execerr.New(execerr.InvalidParameter, "twap: num_slices must be >= 1")
	}
	return &TWAP{
		id:                  uuid.NewString(),
		symbol:              symbol,
		side:                side,
		totalQuantity:       totalQuantity,
		executionIntervalMs: executionIntervalMs,
		numSlices:           numSlices,
		sliceQty:            totalQuantity.Div(decimal.NewFromInt(int64(numSlices))),
		ex:                  ex,
	}, nil
}

func (t *TWAP) Start(ctx context.Context) error {
	t.mu.Lock()
	if t.isActive {
		t.mu.Unlock()
		return execerr.New(execerr.AlreadyRunning, "twap: already running")
	}
	t.isActive = true
	t.stopCh = make(chan struct{})
	t.startedAt = recordStart(order.KindTWAP, t.side)
	t.mu.Unlock()

	go t.run(ctx)
	return nil
}

func (t *TWAP) run(ctx context.Context) {
	interval := time.Duration(t.executionIntervalMs) * time.Millisecond / time.Duration(t.numSlices)
	if interval <= 0 {
		interval = time.Millisecond
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for slice := 0; slice < t.numSlices; slice++ {
		select {
		case <-ctx.Done():
			t.finish()
			return
		case <-t.stopCh:
			return
		case <-ticker.C:
		}

		t.mu.Lock()
		if !t.isActive {
			t.mu.Unlock()
			return
		}
		remaining := t.totalQuantity.Sub(t.executedQuantity)
		if remaining.LessThanOrEqual(decimal.Zero) {
			t.mu.Unlock()
			break
		}
		qty := t.sliceQty
		if slice == t.numSlices-1 || qty.GreaterThan(remaining) {
			qty = remaining
		}
		t.mu.Unlock()

		if qty.IsPositive() {
			child := newChildOrder(t.symbol, t.side, qty, order.Market, decimal.Zero)
			id, err := t.ex.SubmitOrder(ctx, child)
			if err != nil {
				log.Printf("twap %s: slice submit failed, skipping missed quantity: %v", t.id, err)
			} else {
				t.mu.Lock()
				t.childOrderIDs = append(t.childOrderIDs, id)
				t.executedQuantity = t.executedQuantity.Add(qty)
				executed, total := t.executedQuantity, t.totalQuantity
				t.mu.Unlock()
				recordFillRatio(order.KindTWAP, t.symbol, executed, total)
			}
		}

		t.mu.Lock()
		done := t.totalQuantity.Sub(t.executedQuantity).LessThanOrEqual(decimal.Zero)
		t.mu.Unlock()
		if done {
			break
		}
	}
	t.finish()
}

func (t *TWAP) finish() {
	t.mu.Lock()
	t.isActive = false
	startedAt := t.startedAt
	t.mu.Unlock()
	recordDone(order.KindTWAP, startedAt)
}

func (t *TWAP) Stop() {
	t.mu.Lock()
	if !t.isActive {
		t.mu.Unlock()
		return
	}
	t.isActive = false
	close(t.stopCh)
	ids := append([]string(nil), t.childOrderIDs...)
	startedAt := t.startedAt
	t.mu.Unlock()
	recordDone(order.KindTWAP, startedAt)

	ctx := context.Background()
	for _, id := range ids {
		cancelIfLive(ctx, t.ex, id)
	}
}

func (t *TWAP) Status() order.ExecutionState {
	t.mu.Lock()
	defer t.mu.Unlock()
	return order.ExecutionState{
		ID:               t.id,
		Kind:             order.KindTWAP,
		Symbol:           t.symbol,
		Side:             t.side,
		IsActive:         t.isActive,
		ExecutedQuantity: t.executedQuantity,
		TotalQuantity:    t.totalQuantity,
		ChildOrderIDs:    append([]string(nil), t.childOrderIDs...),
	}
}
