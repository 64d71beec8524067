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

const vwapBuckets = 10

var uniformWeight = decimal.NewFromFloat(1.0 / float64(vwapBuckets))

// VWAPSplitter builds a volume profile from the prior equivalent interval
// and slices total_quantity proportionally across 10 time buckets.
type VWAPSplitter struct {
	id                  string
	symbol              string
	side                order.Side
	totalQuantity       decimal.Decimal
	executionIntervalMs int64
	targetPercentage    *decimal.Decimal

	ex exchange.Exchange

	mu               sync.Mutex
	isActive         bool
	executedQuantity decimal.Decimal
	childOrderIDs    []string
	lastPrice        decimal.Decimal
	stopCh           chan struct{}
	startedAt        time.Time
}

// NewVWAPSplitter builds a VWAP-splitter instance.
func NewVWAPSplitter(ex exchange.Exchange, symbol string, side order.Side, totalQuantity decimal.Decimal, executionIntervalMs int64, targetPercentage *decimal.Decimal) *VWAPSplitter {
	return &VWAPSplitter{
		id:                  uuid.NewString(),
		symbol:              symbol,
		side:                side,
		totalQuantity:       totalQuantity,
		executionIntervalMs: executionIntervalMs,
		targetPercentage:    targetPercentage,
		ex:                  ex,
	}
}

func (v *VWAPSplitter) Start(ctx context.Context) error {
	v.mu.Lock()
	if v.isActive {
		v.mu.Unlock()
		return execerr.New(execerr.AlreadyRunning, "vwap: already running")
	}
	v.isActive = true
	v.stopCh = make(chan struct{})
	v.startedAt = recordStart(order.KindVWAP, v.side)
	v.mu.Unlock()

	weights, err := v.buildProfile(ctx)
	if err != nil {
		log.Printf("vwap %s: profile build failed, using uniform weights: %v", v.id, err)
		weights = uniformWeights()
	}

	go v.run(ctx, weights)
	return nil
}

func uniformWeights() [vwapBuckets]decimal.Decimal {
	var w [vwapBuckets]decimal.Decimal
	for i := range w {
		w[i] = uniformWeight
	}
	return w
}

// buildProfile fetches the prior equivalent 1m interval and partitions it
// into 10 equal-count buckets, weighting each by its share of total volume.
func (v *VWAPSplitter) buildProfile(ctx context.Context) ([vwapBuckets]decimal.Decimal, error) {
	var weights [vwapBuckets]decimal.Decimal
	nowMs := time.Now().UnixMilli()
	startMs := nowMs - v.executionIntervalMs
	bars, err := v.ex.GetHistoricalData(ctx, v.symbol, "1m", startMs, nowMs, 200)
	if err != nil {
		return weights, err
	}
	if len(bars) == 0 {
		return uniformWeights(), nil
	}

	bucketSize := (len(bars) + vwapBuckets - 1) / vwapBuckets
	if bucketSize == 0 {
		bucketSize = 1
	}
	var bucketVolumes [vwapBuckets]decimal.Decimal
	total := decimal.Zero
	for i, b := range bars {
		idx := i / bucketSize
		if idx >= vwapBuckets {
			idx = vwapBuckets - 1
		}
		bucketVolumes[idx] = bucketVolumes[idx].Add(b.Volume)
		total = total.Add(b.Volume)
	}
	if total.IsZero() {
		return uniformWeights(), nil
	}
	for i := range weights {
		weights[i] = bucketVolumes[i].Div(total)
	}
	return weights, nil
}

func (v *VWAPSplitter) run(ctx context.Context, weights [vwapBuckets]decimal.Decimal) {
	interval := time.Duration(v.executionIntervalMs) * time.Millisecond / vwapBuckets
	if interval <= 0 {
		interval = time.Millisecond
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for i := 0; i < vwapBuckets; i++ {
		select {
		case <-ctx.Done():
			v.finish()
			return
		case <-v.stopCh:
			return
		case <-ticker.C:
		}

		v.mu.Lock()
		if !v.isActive {
			v.mu.Unlock()
			return
		}
		remaining := v.totalQuantity.Sub(v.executedQuantity)
		v.mu.Unlock()
		if remaining.LessThanOrEqual(decimal.Zero) {
			break
		}

		qty := v.totalQuantity.Mul(weights[i])
		if i == vwapBuckets-1 || qty.GreaterThan(remaining) {
			qty = remaining
		}

		bar, err := v.ex.GetMarketData(ctx, v.symbol)
		if err != nil {
			log.Printf("vwap %s: market data poll failed, skipping slice: %v", v.id, err)
			continue
		}
		v.mu.Lock()
		v.lastPrice = bar.Close
		v.mu.Unlock()

		if qty.IsPositive() {
			child := newChildOrder(v.symbol, v.side, qty, order.Market, decimal.Zero)
			id, err := v.ex.SubmitOrder(ctx, child)
			if err != nil {
				log.Printf("vwap %s: slice submit failed, skipping missed quantity: %v", v.id, err)
			} else {
				v.mu.Lock()
				v.childOrderIDs = append(v.childOrderIDs, id)
				v.executedQuantity = v.executedQuantity.Add(qty)
				executed, total := v.executedQuantity, v.totalQuantity
				v.mu.Unlock()
				recordFillRatio(order.KindVWAP, v.symbol, executed, total)
			}
		}
	}
	v.finish()
}

func (v *VWAPSplitter) finish() {
	v.mu.Lock()
	v.isActive = false
	startedAt := v.startedAt
	v.mu.Unlock()
	recordDone(order.KindVWAP, startedAt)
}

// UpdatePrice records p as the splitter's reference price; the next
// successful market-data poll overwrites it with that bar's close. A failed
// poll skips its slice, and child slices are market orders that do not
// carry this price.
func (v *VWAPSplitter) UpdatePrice(p decimal.Decimal) error {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.lastPrice = p
	return nil
}

func (v *VWAPSplitter) Stop() {
	v.mu.Lock()
	if !v.isActive {
		v.mu.Unlock()
		return
	}
	v.isActive = false
	close(v.stopCh)
	ids := append([]string(nil), v.childOrderIDs...)
	startedAt := v.startedAt
	v.mu.Unlock()
	recordDone(order.KindVWAP, startedAt)

	ctx := context.Background()
	for _, id := range ids {
		cancelIfLive(ctx, v.ex, id)
	}
}

func (v *VWAPSplitter) Status() order.ExecutionState {
	v.mu.Lock()
	defer v.mu.Unlock()
	return order.ExecutionState{
		ID:               v.id,
		Kind:             order.KindVWAP,
		Symbol:           v.symbol,
		Side:             v.side,
		IsActive:         v.isActive,
		ExecutedQuantity: v.executedQuantity,
		TotalQuantity:    v.totalQuantity,
		ChildOrderIDs:    append([]string(nil), v.childOrderIDs...),
	}
}
