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

// icebergPhase is the internal state machine for the currently exposed
// child order.
type icebergPhase int

const (
	icebergIdle icebergPhase = iota
	icebergResting
	icebergReplacing
)

var icebergPollInterval = 1 * time.Second

// Iceberg exposes only display_quantity of total_quantity at a time,
// resting one child limit order and replacing it on fill/cancel.
type Iceberg struct {
	id              string
	symbol          string
	side            order.Side
	totalQuantity   decimal.Decimal
	limitPrice      decimal.Decimal
	displayQuantity decimal.Decimal

	ex exchange.Exchange

	mu               sync.Mutex
	isActive         bool
	phase            icebergPhase
	executedQuantity decimal.Decimal
	currentChildID   string
	currentChildQty  decimal.Decimal
	childOrderIDs    []string
	stopCh           chan struct{}
	startedAt        time.Time
}

// NewIceberg builds an Iceberg instance. displayQuantity is clamped to
// totalQuantity if it would otherwise exceed it.
func NewIceberg(ex exchange.Exchange, symbol string, side order.Side, totalQuantity, limitPrice, displayQuantity decimal.Decimal) (*Iceberg, error) {
	if displayQuantity.GreaterThan(totalQuantity) {
		displayQuantity = totalQuantity
	}
	return &Iceberg{
		id:              uuid.NewString(),
		symbol:          symbol,
		side:            side,
		totalQuantity:   totalQuantity,
		limitPrice:      limitPrice,
		displayQuantity: displayQuantity,
		ex:              ex,
	}, nil
}

func (ic *Iceberg) Start(ctx context.Context) error {
	ic.mu.Lock()
	if ic.isActive {
		ic.mu.Unlock()
		return execerr.New(execerr.AlreadyRunning, "iceberg: already running")
	}
	ic.isActive = true
	ic.stopCh = make(chan struct{})
	ic.startedAt = recordStart(order.KindIceberg, ic.side)
	ic.mu.Unlock()

	if err := ic.submitNext(ctx); err != nil {
		ic.mu.Lock()
		ic.isActive = false
		ic.mu.Unlock()
		return err
	}

	go ic.pollLoop(ctx)
	return nil
}

// submitNext exposes min(display_quantity, remaining) as a fresh Resting
// child at the current limit price.
func (ic *Iceberg) submitNext(ctx context.Context) error {
	ic.mu.Lock()
	remaining := ic.totalQuantity.Sub(ic.executedQuantity)
	if remaining.LessThanOrEqual(decimal.Zero) {
		ic.isActive = false
		ic.mu.Unlock()
		return nil
	}
	qty := ic.displayQuantity
	if qty.GreaterThan(remaining) {
		qty = remaining
	}
	price := ic.limitPrice
	ic.mu.Unlock()

	child := newChildOrder(ic.symbol, ic.side, qty, order.Limit, price)
	id, err := ic.ex.SubmitOrder(ctx, child)
	if err != nil {
		log.Printf("iceberg %s: child submit failed: %v", ic.id, err)
		return err
	}

	ic.mu.Lock()
	ic.currentChildID = id
	ic.currentChildQty = qty
	ic.childOrderIDs = append(ic.childOrderIDs, id)
	ic.phase = icebergResting
	ic.mu.Unlock()
	return nil
}

func (ic *Iceberg) pollLoop(ctx context.Context) {
	ticker := time.NewTicker(icebergPollInterval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ic.stopCh:
			return
		case <-ticker.C:
		}

		ic.mu.Lock()
		active := ic.isActive
		childID := ic.currentChildID
		childQty := ic.currentChildQty
		ic.mu.Unlock()
		if !active || childID == "" {
			continue
		}

		status, err := ic.ex.GetOrderStatus(ctx, childID)
		if err != nil {
			log.Printf("iceberg %s: status poll failed, skipping tick: %v", ic.id, err)
			continue
		}

		switch status {
		case order.Filled:
			ic.mu.Lock()
			ic.executedQuantity = ic.executedQuantity.Add(childQty)
			done := ic.totalQuantity.Sub(ic.executedQuantity).LessThanOrEqual(decimal.Zero)
			ic.currentChildID = ""
			if done {
				ic.isActive = false
			}
			executed, total, startedAt := ic.executedQuantity, ic.totalQuantity, ic.startedAt
			ic.mu.Unlock()
			recordFillRatio(order.KindIceberg, ic.symbol, executed, total)
			if done {
				recordDone(order.KindIceberg, startedAt)
				return
			}
			if err := ic.submitNext(ctx); err != nil {
				continue
			}
		case order.Cancelled, order.Rejected, order.Expired:
			ic.mu.Lock()
			ic.currentChildID = ""
			stillActive := ic.isActive
			ic.mu.Unlock()
			if !stillActive {
				return
			}
			if err := ic.submitNext(ctx); err != nil {
				continue
			}
		}
	}
}

// UpdatePrice replaces the currently resting child at a new limit price.
func (ic *Iceberg) UpdatePrice(p decimal.Decimal) error {
	ic.mu.Lock()
	ic.limitPrice = p
	active := ic.isActive
	childID := ic.currentChildID
	if active && childID != "" {
		ic.phase = icebergReplacing
	}
	ic.mu.Unlock()

	if !active || childID == "" {
		return nil
	}

	ctx := context.Background()
	if err := ic.ex.CancelOrder(ctx, childID); err != nil {
		log.Printf("iceberg %s: cancel for replace failed: %v", ic.id, err)
	}
	ic.mu.Lock()
	ic.currentChildID = ""
	ic.mu.Unlock()
	return ic.submitNext(ctx)
}

func (ic *Iceberg) Stop() {
	ic.mu.Lock()
	if !ic.isActive {
		ic.mu.Unlock()
		return
	}
	ic.isActive = false
	close(ic.stopCh)
	childID := ic.currentChildID
	startedAt := ic.startedAt
	ic.mu.Unlock()
	recordDone(order.KindIceberg, startedAt)

	cancelIfLive(context.Background(), ic.ex, childID)
}

func (ic *Iceberg) Status() order.ExecutionState {
	ic.mu.Lock()
	defer ic.mu.Unlock()
	return order.ExecutionState{
		ID:               ic.id,
		Kind:             order.KindIceberg,
		Symbol:           ic.symbol,
		Side:             ic.side,
		IsActive:         ic.isActive,
		ExecutedQuantity: ic.executedQuantity,
		TotalQuantity:    ic.totalQuantity,
		ChildOrderIDs:    append([]string(nil), ic.childOrderIDs...),
	}
}
