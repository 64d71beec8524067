package indicators

import (
	"github.com/shopspring/decimal"

	"github.com/xquant-go/engine/pkg/execerr"
)

// MACD computes macd_t = EMA_fast - EMA_slow, smooths it with a signal EMA,
// and derives histogram = macd - signal. Emits a bullish/bearish crossover
// (+-0.7) when the histogram changes sign, and a weaker zero-line signal
// (+-0.3) when macd and histogram share a sign.
type MACD struct {
	fast   *EMA
	slow   *EMA
	signal *EMA

	haveHistogram bool
	prevHistogram decimal.Decimal

	ready     bool
	macd      decimal.Decimal
	histogram decimal.Decimal
}

// NewMACD builds a MACD(fast, slow, signal).
func NewMACD(fast, slow, signalPeriod int) *MACD {
	return &MACD{
		fast:   NewEMA(fast),
		slow:   NewEMA(slow),
		signal: NewEMA(signalPeriod),
	}
}

func (m *MACD) Update(price decimal.Decimal, volume ...decimal.Decimal) error {
	m.fast.Update(price)
	m.slow.Update(price)
	if !m.fast.IsReady() || !m.slow.IsReady() {
		return nil
	}
	macd := m.fast.CurrentValue().Sub(m.slow.CurrentValue())
	m.signal.Update(macd)
	if !m.signal.IsReady() {
		m.macd = macd
		return nil
	}
	m.macd = macd
	newHist := macd.Sub(m.signal.CurrentValue())
	if m.ready {
		m.prevHistogram = m.histogram
		m.haveHistogram = true
	}
	m.histogram = newHist
	m.ready = true
	return nil
}

func (m *MACD) IsReady() bool { return m.ready }

func (m *MACD) Calculate() (Result, error) {
	if !m.ready {
		return Result{}, execerr.New(execerr.InsufficientData, "macd not ready")
	}
	var signals []Signal
	if m.haveHistogram {
		prevSign := m.prevHistogram.Sign()
		curSign := m.histogram.Sign()
		if prevSign != curSign && curSign != 0 {
			if curSign > 0 {
				signals = append(signals, Signal{Name: "MACD Bullish Crossover", Strength: decimal.NewFromFloat(0.7)})
			} else {
				signals = append(signals, Signal{Name: "MACD Bearish Crossover", Strength: decimal.NewFromFloat(-0.7)})
			}
		} else if m.macd.Sign() == m.histogram.Sign() && m.macd.Sign() != 0 {
			if m.macd.Sign() > 0 {
				signals = append(signals, Signal{Name: "MACD Zero-Line Bullish", Strength: decimal.NewFromFloat(0.3)})
			} else {
				signals = append(signals, Signal{Name: "MACD Zero-Line Bearish", Strength: decimal.NewFromFloat(-0.3)})
			}
		}
	}
	return Result{Value: m.histogram, Signals: signals}, nil
}

func (m *MACD) Reset() {
	m.fast.Reset()
	m.slow.Reset()
	m.signal.Reset()
	m.haveHistogram = false
	m.ready = false
	m.macd = decimal.Zero
	m.histogram = decimal.Zero
}
