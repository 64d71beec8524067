package strategy

import "github.com/shopspring/decimal"

// Sizer computes the base-asset quantity a technical strategy should trade
// for a symbol, independent of direction.
type Sizer interface {
	Size(symbol string) decimal.Decimal
}

// FixedSizer returns the same quantity for every symbol.
type FixedSizer struct {
	Quantity decimal.Decimal
}

// NewFixedSizer builds a Sizer that always returns quantity.
func NewFixedSizer(quantity decimal.Decimal) FixedSizer {
	return FixedSizer{Quantity: quantity}
}

func (f FixedSizer) Size(symbol string) decimal.Decimal { return f.Quantity }
