package indicators

import (
	"github.com/shopspring/decimal"

	"github.com/xquant-go/engine/pkg/execerr"
)

// SMA is a fixed-window simple moving average: value = sum/len, ready once
// N samples have been seen.
type SMA struct {
	N       int
	window  []decimal.Decimal
	sum     decimal.Decimal
}

// NewSMA builds an SMA over a window of n samples.
func NewSMA(n int) *SMA {
	return &SMA{N: n, window: make([]decimal.Decimal, 0, n)}
}

func (s *SMA) Update(price decimal.Decimal, volume ...decimal.Decimal) error {
	s.window = append(s.window, price)
	s.sum = s.sum.Add(price)
	if len(s.window) > s.N {
		s.sum = s.sum.Sub(s.window[0])
		s.window = s.window[1:]
	}
	return nil
}

func (s *SMA) IsReady() bool { return len(s.window) >= s.N }

func (s *SMA) Calculate() (Result, error) {
	if !s.IsReady() {
		return Result{}, execerr.New(execerr.InsufficientData, "sma not ready")
	}
	value := s.sum.Div(decimal.NewFromInt(int64(s.N)))
	return Result{Value: value}, nil
}

func (s *SMA) Reset() {
	s.window = s.window[:0]
	s.sum = decimal.Zero
}

// Value is a convenience accessor used by composed indicators (MACD, EMA
// seeding) that need the current mean without the is_ready error path.
func (s *SMA) Value() decimal.Decimal {
	if len(s.window) == 0 {
		return decimal.Zero
	}
	return s.sum.Div(decimal.NewFromInt(int64(len(s.window))))
}
