// Package strategy implements the strategy abstraction (C7): a polymorphic
// update(bar)/get_orders() contract, technical strategies that wrap
// indicators and the signal analyzer, and combined strategies that pair a
// signal generator with an execution optimizer. Grounded on
// backtest.MomentumStrategy/EdgeStrategy's OnTick-driven shape.
package strategy

import (
	"github.com/xquant-go/engine/pkg/bar"
	"github.com/xquant-go/engine/pkg/order"
)

// Strategy is the polymorphic contract every strategy (technical, combined,
// or execution-algorithm-as-strategy) implements.
type Strategy interface {
	// Update feeds a market bar. Strategies watching other symbols ignore
	// it silently.
	Update(b bar.MarketBar) error

	// GetOrders drains pending orders produced since the last drain. An
	// order is never returned twice.
	GetOrders() ([]*order.Order, error)

	Name() string
	Description() string
	IsActive() bool
	SetActive(bool)
}
