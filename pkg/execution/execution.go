// Package execution implements four execution algorithms: TWAP,
// VWAP-splitter, Iceberg-manager, and Trailing-stop-manager. Each instance
// owns its executed quantity, active flag, and child-order id list
// exclusively; a single mutex per instance serializes its own mutations.
// Grounded on orchestrator.Orchestrator's context+stopCh+ticker
// background-task idiom.
package execution

import (
	"context"
	"log"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/xquant-go/engine/pkg/exchange"
	"github.com/xquant-go/engine/pkg/metrics"
	"github.com/xquant-go/engine/pkg/order"
)

// Algorithm is the common control surface every execution instance exposes.
type Algorithm interface {
	Start(ctx context.Context) error
	Stop()
	Status() order.ExecutionState
}

// PriceUpdater is implemented by algorithms that accept a live limit-price
// correction (VWAP, Iceberg).
type PriceUpdater interface {
	UpdatePrice(p decimal.Decimal) error
}

func newChildOrder(symbol string, side order.Side, qty decimal.Decimal, typ order.Type, price decimal.Decimal) *order.Order {
	return &order.Order{
		ClientID: uuid.NewString(),
		Symbol:   symbol,
		Side:     side,
		Type:     typ,
		Quantity: qty,
		Price:    price,
		Status:   order.New,
	}
}

// isLivePending reports whether a status requires an explicit cancel to
// stop the resting order (New or PartiallyFilled).
func isLivePending(s order.Status) bool {
	return s == order.New || s == order.PartiallyFilled
}

// recordStart emits the executions-started counter for a newly launched
// instance and returns the wall-clock start time, for recordDone.
func recordStart(kind order.Kind, side order.Side) time.Time {
	metrics.Default().RecordExecutionStart(string(kind), side.String())
	return time.Now()
}

// recordDone emits the completed-duration observation for a finished instance.
func recordDone(kind order.Kind, startedAt time.Time) {
	metrics.Default().RecordExecutionDone(string(kind), time.Since(startedAt).Seconds())
}

// recordFillRatio sets the current fill-ratio gauge for a running instance.
func recordFillRatio(kind order.Kind, symbol string, executed, total decimal.Decimal) {
	if total.IsZero() {
		return
	}
	ratio, _ := executed.Div(total).Float64()
	metrics.Default().SetExecutionFillRatio(string(kind), symbol, ratio)
}

// cancelIfLive cancels id if its current status is still New or
// PartiallyFilled; errors are logged and swallowed, matching the
// best-effort stop() semantics shared by all four algorithms.
func cancelIfLive(ctx context.Context, ex exchange.Exchange, id string) {
	if id == "" {
		return
	}
	status, err := ex.GetOrderStatus(ctx, id)
	if err != nil {
		log.Printf("execution: status check for %s failed during stop: %v", id, err)
		return
	}
	if !isLivePending(status) {
		return
	}
	if err := ex.CancelOrder(ctx, id); err != nil {
		log.Printf("execution: cancel %s failed during stop: %v", id, err)
	}
}
