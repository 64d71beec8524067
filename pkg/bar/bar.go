// Package bar defines the MarketBar type shared by live strategies, the
// runtime loop, and the backtest engine, plus loaders for historical data.
package bar

import (
	"time"

	"github.com/shopspring/decimal"
)

// MarketBar is one OHLCV record for a symbol at a timestamp. Immutable
// once constructed; loaders and connectors hand these out by value.
type MarketBar struct {
	Symbol      string          `json:"symbol"`
	TimestampMs int64           `json:"timestamp_ms"`
	Open        decimal.Decimal `json:"open"`
	High        decimal.Decimal `json:"high"`
	Low         decimal.Decimal `json:"low"`
	Close       decimal.Decimal `json:"close"`
	Volume      decimal.Decimal `json:"volume"`
}

// Time returns the bar's timestamp as a time.Time (UTC, millisecond precision).
func (b MarketBar) Time() time.Time {
	return time.UnixMilli(b.TimestampMs).UTC()
}

// Valid reports whether the bar satisfies the OHLC invariants: low is the
// minimum and high the maximum of the four prices, and volume is non-negative.
func (b MarketBar) Valid() bool {
	if b.Volume.IsNegative() {
		return false
	}
	if b.Low.GreaterThan(b.Open) || b.Low.GreaterThan(b.Close) || b.Low.GreaterThan(b.High) {
		return false
	}
	if b.High.LessThan(b.Open) || b.High.LessThan(b.Close) {
		return false
	}
	return true
}
