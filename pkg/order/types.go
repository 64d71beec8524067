// Package order defines the order/trade/position data model shared by the
// order manager, execution algorithms, strategies, and the backtester.
package order

import (
	"github.com/shopspring/decimal"
)

// Side is the direction of an order or position.
type Side int

const (
	Buy Side = iota
	Sell
)

func (s Side) String() string {
	if s == Sell {
		return "SELL"
	}
	return "BUY"
}

// Opposite returns the other side.
func (s Side) Opposite() Side {
	if s == Buy {
		return Sell
	}
	return Buy
}

// Type enumerates the order types the engine understands.
type Type int

const (
	Market Type = iota
	Limit
	StopLoss
	StopLimit
	TrailingStop
	Iceberg
	VWAP
	TWAP
)

func (t Type) String() string {
	switch t {
	case Market:
		return "MARKET"
	case Limit:
		return "LIMIT"
	case StopLoss:
		return "STOP_LOSS"
	case StopLimit:
		return "STOP_LIMIT"
	case TrailingStop:
		return "TRAILING_STOP"
	case Iceberg:
		return "ICEBERG"
	case VWAP:
		return "VWAP"
	case TWAP:
		return "TWAP"
	default:
		return "UNKNOWN"
	}
}

// Status is the lifecycle state of an order.
type Status int

const (
	New Status = iota
	PartiallyFilled
	Filled
	Cancelled
	Rejected
	Expired
)

func (s Status) String() string {
	switch s {
	case New:
		return "NEW"
	case PartiallyFilled:
		return "PARTIALLY_FILLED"
	case Filled:
		return "FILLED"
	case Cancelled:
		return "CANCELLED"
	case Rejected:
		return "REJECTED"
	case Expired:
		return "EXPIRED"
	default:
		return "UNKNOWN"
	}
}

// Terminal reports whether the status cannot change further.
func (s Status) Terminal() bool {
	switch s {
	case Filled, Cancelled, Rejected, Expired:
		return true
	default:
		return false
	}
}

// Order is the engine's order representation. Identity is ID once assigned
// by the exchange; ClientID is chosen by the manager before submission so
// resubmission after a transport error is idempotent.
type Order struct {
	ID          string          `json:"id"`
	ClientID    string          `json:"client_id,omitempty"`
	Symbol      string          `json:"symbol"`
	Side        Side            `json:"side"`
	Type        Type            `json:"type"`
	Quantity    decimal.Decimal `json:"quantity"`
	Price       decimal.Decimal `json:"price"`
	StopPrice   decimal.Decimal `json:"stop_price,omitempty"`
	TimeInForce string          `json:"time_in_force"`
	CreatedAtMs int64           `json:"created_at_ms"`

	// Algorithm-order fields, populated only for their respective Type.
	IcebergQty          decimal.Decimal `json:"iceberg_qty,omitempty"`
	TrailingDelta       decimal.Decimal `json:"trailing_delta,omitempty"`
	ExecutionIntervalMs int64           `json:"execution_interval_ms,omitempty"`
	TargetPercentage    decimal.Decimal `json:"target_percentage,omitempty"`

	ReduceOnly   bool   `json:"reduce_only,omitempty"`
	PositionSide string `json:"position_side,omitempty"`

	Status       Status          `json:"status"`
	FilledQty    decimal.Decimal `json:"filled_qty"`
	AvgFillPrice decimal.Decimal `json:"avg_fill_price"`
}

// DefaultTimeInForce is used when an order does not specify one.
const DefaultTimeInForce = "GTC"

// Trade is an immutable record of a single fill.
type Trade struct {
	ID          string          `json:"id"`
	OrderID     string          `json:"order_id"`
	Symbol      string          `json:"symbol"`
	Side        Side            `json:"side"`
	Price       decimal.Decimal `json:"price"`
	Quantity    decimal.Decimal `json:"quantity"`
	TimestampMs int64           `json:"timestamp_ms"`
	Fee         decimal.Decimal `json:"fee"`
	RealizedPnL decimal.Decimal `json:"realized_pnl"`
}

// Position tracks signed quantity and entry for a symbol.
type Position struct {
	Symbol        string          `json:"symbol"`
	Quantity      decimal.Decimal `json:"quantity"` // signed: >0 long, <0 short
	EntryPrice    decimal.Decimal `json:"entry_price"`
	CurrentPrice  decimal.Decimal `json:"current_price"`
	UnrealizedPnL decimal.Decimal `json:"unrealized_pnl"`
}

// Recalc recomputes UnrealizedPnL from Quantity, EntryPrice, CurrentPrice,
// enforcing the invariant unrealized_pnl = sign(qty)*(current-entry)*|qty|.
func (p *Position) Recalc() {
	if p.Quantity.IsZero() {
		p.UnrealizedPnL = decimal.Zero
		return
	}
	diff := p.CurrentPrice.Sub(p.EntryPrice)
	p.UnrealizedPnL = diff.Mul(p.Quantity)
}

// Kind identifies which execution algorithm owns an ExecutionState.
type Kind string

const (
	KindVWAP     Kind = "vwap"
	KindTWAP     Kind = "twap"
	KindIceberg  Kind = "iceberg"
	KindTrailing Kind = "trailing"
)

// ExecutionState is a snapshot of a running execution-algorithm instance.
// Status() copies it out under the instance's lock, so the caller reads it
// without holding any lock; it may reflect a state between two poll ticks.
type ExecutionState struct {
	ID               string          `json:"id"`
	Kind             Kind            `json:"kind"`
	Symbol           string          `json:"symbol"`
	Side             Side            `json:"side"`
	IsActive         bool            `json:"is_active"`
	ExecutedQuantity decimal.Decimal `json:"executed_quantity"`
	TotalQuantity    decimal.Decimal `json:"total_quantity"`
	ChildOrderIDs    []string        `json:"child_order_ids"`

	// Trailing-stop specific.
	TriggerPrice decimal.Decimal `json:"trigger_price,omitempty"`
	Executed     bool            `json:"executed,omitempty"`
}

// ProgressPercentage returns executed/total*100, or 0 if total is zero.
func (s ExecutionState) ProgressPercentage() decimal.Decimal {
	if s.TotalQuantity.IsZero() {
		return decimal.Zero
	}
	return s.ExecutedQuantity.Div(s.TotalQuantity).Mul(decimal.NewFromInt(100))
}
