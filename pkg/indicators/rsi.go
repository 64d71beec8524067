package indicators

import (
	"github.com/shopspring/decimal"

	"github.com/xquant-go/engine/pkg/execerr"
)

// RSI uses Wilder smoothing: the initial average gain/loss are the
// arithmetic mean over the first N deltas; thereafter
// avg_x_t = (avg_x_{t-1}*(N-1) + x_t)/N. RSI = 100 - 100/(1+RS),
// RS = avg_gain/avg_loss (avg_loss=0 => RS is taken as 100, so RSI is
// 100 - 100/101, about 99.01).
type RSI struct {
	N          int
	Overbought decimal.Decimal
	Oversold   decimal.Decimal

	havePrev  bool
	prevPrice decimal.Decimal

	deltaCount int
	gainSum    decimal.Decimal
	lossSum    decimal.Decimal

	avgGain decimal.Decimal
	avgLoss decimal.Decimal
	ready   bool
	value   decimal.Decimal
}

// NewRSI builds an RSI(N) with the standard 70/30 thresholds.
func NewRSI(n int) *RSI {
	return &RSI{
		N:          n,
		Overbought: decimal.NewFromInt(70),
		Oversold:   decimal.NewFromInt(30),
	}
}

func (r *RSI) Update(price decimal.Decimal, volume ...decimal.Decimal) error {
	if !r.havePrev {
		r.havePrev = true
		r.prevPrice = price
		return nil
	}
	delta := price.Sub(r.prevPrice)
	r.prevPrice = price

	gain := decimal.Zero
	loss := decimal.Zero
	if delta.IsPositive() {
		gain = delta
	} else if delta.IsNegative() {
		loss = delta.Abs()
	}

	if !r.ready {
		r.deltaCount++
		r.gainSum = r.gainSum.Add(gain)
		r.lossSum = r.lossSum.Add(loss)
		if r.deltaCount == r.N {
			nD := decimal.NewFromInt(int64(r.N))
			r.avgGain = r.gainSum.Div(nD)
			r.avgLoss = r.lossSum.Div(nD)
			r.ready = true
			r.value = r.compute()
		}
		return nil
	}

	nD := decimal.NewFromInt(int64(r.N))
	nMinus1 := decimal.NewFromInt(int64(r.N - 1))
	r.avgGain = r.avgGain.Mul(nMinus1).Add(gain).Div(nD)
	r.avgLoss = r.avgLoss.Mul(nMinus1).Add(loss).Div(nD)
	r.value = r.compute()
	return nil
}

func (r *RSI) compute() decimal.Decimal {
	var rs decimal.Decimal
	if r.avgLoss.IsZero() {
		rs = decimal.NewFromInt(100)
	} else {
		rs = r.avgGain.Div(r.avgLoss)
	}
	hundred := decimal.NewFromInt(100)
	return hundred.Sub(hundred.Div(decimal.NewFromInt(1).Add(rs)))
}

func (r *RSI) IsReady() bool { return r.ready }

func (r *RSI) Calculate() (Result, error) {
	if !r.ready {
		return Result{}, execerr.New(execerr.InsufficientData, "rsi not ready")
	}
	var signals []Signal
	if r.value.LessThan(r.Oversold) {
		strength := decimal.NewFromFloat(0.5).Add(r.Oversold.Sub(r.value).Div(decimal.NewFromInt(60)))
		strength = clamp(strength, 0, 1)
		signals = append(signals, Signal{Name: "RSI Oversold", Strength: strength})
	} else if r.value.GreaterThan(r.Overbought) {
		strength := decimal.NewFromFloat(0.5).Add(r.value.Sub(r.Overbought).Div(decimal.NewFromInt(60)))
		strength = clamp(strength, 0, 1).Neg()
		signals = append(signals, Signal{Name: "RSI Overbought", Strength: strength})
	}
	return Result{Value: r.value, Signals: signals}, nil
}

func (r *RSI) Reset() {
	*r = *NewRSI(r.N)
}
