package strategy

import (
	"github.com/xquant-go/engine/pkg/bar"
	"github.com/xquant-go/engine/pkg/order"
)

// Combined pairs a signal-generating strategy with an execution-optimizing
// one: signal from TA, execution via VWAP/TWAP/Iceberg.
// update feeds both; get_orders drains the signal strategy's orders and, for
// each, synthesizes a pseudo-bar at the order's price to drive the
// execution strategy, returning the execution strategy's orders instead of
// the raw signal order.
type Combined struct {
	strategyName string
	description  string
	signal       Strategy
	execution    Strategy
}

// NewCombined composes a signal strategy with an execution strategy.
func NewCombined(name, description string, signal, execution Strategy) *Combined {
	return &Combined{strategyName: name, description: description, signal: signal, execution: execution}
}

func (c *Combined) Name() string        { return c.strategyName }
func (c *Combined) Description() string { return c.description }

func (c *Combined) IsActive() bool { return c.signal.IsActive() }

func (c *Combined) SetActive(active bool) {
	c.signal.SetActive(active)
	c.execution.SetActive(active)
}

func (c *Combined) Update(b bar.MarketBar) error {
	if err := c.signal.Update(b); err != nil {
		return err
	}
	return c.execution.Update(b)
}

func (c *Combined) GetOrders() ([]*order.Order, error) {
	signalOrders, err := c.signal.GetOrders()
	if err != nil {
		return nil, err
	}

	var out []*order.Order
	for _, o := range signalOrders {
		pseudo := bar.MarketBar{
			Symbol: o.Symbol,
			Open:   o.Price,
			High:   o.Price,
			Low:    o.Price,
			Close:  o.Price,
		}
		if err := c.execution.Update(pseudo); err != nil {
			return nil, err
		}
		execOrders, err := c.execution.GetOrders()
		if err != nil {
			return nil, err
		}
		out = append(out, execOrders...)
	}
	return out, nil
}
