package indicators

import (
	"github.com/shopspring/decimal"

	"github.com/xquant-go/engine/pkg/execerr"
)

// Crossover composes two moving averages (fast, slow) and emits a Golden
// Cross (+0.8) when fast crosses above slow, or a Death Cross (-0.8) when
// fast crosses below slow. Requires both underlyings ready.
type Crossover struct {
	Fast *EMA
	Slow *EMA

	haveDiff bool
	prevDiff decimal.Decimal
	ready    bool
	diff     decimal.Decimal
}

// NewCrossover builds a Crossover over two EMA periods.
func NewCrossover(fastN, slowN int) *Crossover {
	return &Crossover{Fast: NewEMA(fastN), Slow: NewEMA(slowN)}
}

func (c *Crossover) Update(price decimal.Decimal, volume ...decimal.Decimal) error {
	c.Fast.Update(price)
	c.Slow.Update(price)
	if !c.Fast.IsReady() || !c.Slow.IsReady() {
		return nil
	}
	newDiff := c.Fast.CurrentValue().Sub(c.Slow.CurrentValue())
	if c.ready {
		c.prevDiff = c.diff
		c.haveDiff = true
	}
	c.diff = newDiff
	c.ready = true
	return nil
}

func (c *Crossover) IsReady() bool { return c.ready }

func (c *Crossover) Calculate() (Result, error) {
	if !c.ready {
		return Result{}, execerr.New(execerr.InsufficientData, "crossover not ready")
	}
	var signals []Signal
	if c.haveDiff {
		prevSign := c.prevDiff.Sign()
		curSign := c.diff.Sign()
		if prevSign <= 0 && curSign > 0 {
			signals = append(signals, Signal{Name: "Golden Cross", Strength: decimal.NewFromFloat(0.8)})
		} else if prevSign >= 0 && curSign < 0 {
			signals = append(signals, Signal{Name: "Death Cross", Strength: decimal.NewFromFloat(-0.8)})
		}
	}
	return Result{Value: c.diff, Signals: signals}, nil
}

func (c *Crossover) Reset() {
	c.Fast.Reset()
	c.Slow.Reset()
	c.haveDiff = false
	c.ready = false
	c.diff = decimal.Zero
}
