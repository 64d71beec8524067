package indicators

import (
	"github.com/shopspring/decimal"

	"github.com/xquant-go/engine/pkg/execerr"
)

// EMA is seeded with the SMA over the first N samples; thereafter
// EMA_t = alpha*p + (1-alpha)*EMA_{t-1}, alpha = 2/(N+1). Grounded on
// backtest/strategies.go's EdgeStrategy EMA recursion.
type EMA struct {
	N     int
	alpha decimal.Decimal

	seed  *SMA
	value decimal.Decimal
	count int
	ready bool
}

// NewEMA builds an EMA with period n.
func NewEMA(n int) *EMA {
	return &EMA{
		N:     n,
		alpha: decimal.NewFromFloat(2.0 / float64(n+1)),
		seed:  NewSMA(n),
	}
}

func (e *EMA) Update(price decimal.Decimal, volume ...decimal.Decimal) error {
	e.count++
	if e.count <= e.N {
		e.seed.Update(price)
		if e.count == e.N {
			e.value = e.seed.Value()
			e.ready = true
		}
		return nil
	}
	e.value = e.alpha.Mul(price).Add(decimal.NewFromInt(1).Sub(e.alpha).Mul(e.value))
	return nil
}

func (e *EMA) IsReady() bool { return e.ready }

func (e *EMA) Calculate() (Result, error) {
	if !e.ready {
		return Result{}, execerr.New(execerr.InsufficientData, "ema not ready")
	}
	return Result{Value: e.value}, nil
}

func (e *EMA) Reset() {
	e.seed.Reset()
	e.value = decimal.Zero
	e.count = 0
	e.ready = false
}

// CurrentValue returns the EMA's last computed value regardless of
// readiness (zero before readiness), for composition by MACD/crossover.
func (e *EMA) CurrentValue() decimal.Decimal { return e.value }
