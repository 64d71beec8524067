// Package exchange defines the uniform capability contract execution
// algorithms, strategies, and the order manager submit orders through, plus
// Mock, DryRun, and Live implementations.
package exchange

import (
	"context"

	"github.com/shopspring/decimal"

	"github.com/xquant-go/engine/pkg/bar"
	"github.com/xquant-go/engine/pkg/order"
)

// Exchange is the capability every live order-submitting component depends
// on. Reads (status/data queries) may overlap; writes (submit/cancel/modify,
// futures settings) require exclusion — implementations guard their mutable
// state with sync.RWMutex the way paper.Engine does.
type Exchange interface {
	SubmitOrder(ctx context.Context, o *order.Order) (string, error)
	CancelOrder(ctx context.Context, id string) error
	// ModifyOrder may fail with execerr.InvalidParameter for venues that cannot
	// amend in place; Mock, DryRun and Live all fail this way.
	ModifyOrder(ctx context.Context, id string, o *order.Order) (string, error)
	GetOrderStatus(ctx context.Context, id string) (order.Status, error)
	GetOpenOrders(ctx context.Context) ([]*order.Order, error)
	GetRecentTrades(ctx context.Context, symbol string, limit int) ([]order.Trade, error)
	GetMarketData(ctx context.Context, symbol string) (bar.MarketBar, error)
	GetHistoricalData(ctx context.Context, symbol, interval string, startMs, endMs int64, limit int) ([]bar.MarketBar, error)
	GetBalance(ctx context.Context, asset string) (decimal.Decimal, error)
}

// FuturesCapability is an optional extension some Exchange implementations
// provide; callers type-assert for it rather than requiring it of Exchange.
type FuturesCapability interface {
	SyncTime(ctx context.Context) error
	SetLeverage(ctx context.Context, symbol string, leverage int) error
	SetPositionMode(ctx context.Context, hedge bool) error
	SetMarginMode(ctx context.Context, symbol string, isolated bool) error
}
