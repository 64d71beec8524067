// Package indicators implements an incremental indicator library: each
// indicator is a streaming estimator with update/calculate/is_ready/reset,
// emitting a value plus zero or more Signals. The EMA recursion is
// grounded on backtest/strategies.go's EdgeStrategy
// (alpha = 2/(N+1); ema = alpha*price + (1-alpha)*ema, seeded from SMA).
package indicators

import (
	"github.com/shopspring/decimal"
)

// Signal is a typed directional indication derived from an indicator.
// Confidence is assigned later by the signal analyzer's weight table, not
// by the indicator itself.
type Signal struct {
	Name     string
	Strength decimal.Decimal // [-1, +1]
}

// Result is what calculate() returns once an indicator is ready.
type Result struct {
	Value   decimal.Decimal
	Signals []Signal
}

// Indicator is the shared contract every concrete indicator satisfies.
type Indicator interface {
	Update(price decimal.Decimal, volume ...decimal.Decimal) error
	Calculate() (Result, error)
	IsReady() bool
	Reset()
}

func clamp(d decimal.Decimal, lo, hi float64) decimal.Decimal {
	loD, hiD := decimal.NewFromFloat(lo), decimal.NewFromFloat(hi)
	if d.LessThan(loD) {
		return loD
	}
	if d.GreaterThan(hiD) {
		return hiD
	}
	return d
}
