package indicators

import (
	"github.com/shopspring/decimal"

	"github.com/xquant-go/engine/pkg/execerr"
)

type vwapSample struct {
	price, volume decimal.Decimal
}

// VWAPWindow computes sum(p*v)/sum(v) over the last N samples. Every update
// must carry a volume; omitting one fails MissingData.
type VWAPWindow struct {
	N      int
	window []vwapSample

	lastPrice decimal.Decimal
}

// NewVWAPWindow builds a VWAP-window over n samples.
func NewVWAPWindow(n int) *VWAPWindow {
	return &VWAPWindow{N: n, window: make([]vwapSample, 0, n)}
}

func (v *VWAPWindow) Update(price decimal.Decimal, volume ...decimal.Decimal) error {
	if len(volume) == 0 {
		return execerr.New(execerr.MissingData, "vwap-window requires volume on every update")
	}
	v.lastPrice = price
	v.window = append(v.window, vwapSample{price: price, volume: volume[0]})
	if len(v.window) > v.N {
		v.window = v.window[1:]
	}
	return nil
}

func (v *VWAPWindow) IsReady() bool { return len(v.window) >= v.N }

func (v *VWAPWindow) Calculate() (Result, error) {
	if !v.IsReady() {
		return Result{}, execerr.New(execerr.InsufficientData, "vwap-window not ready")
	}
	var num, totalVol decimal.Decimal
	for _, s := range v.window {
		num = num.Add(s.price.Mul(s.volume))
		totalVol = totalVol.Add(s.volume)
	}
	if totalVol.IsZero() {
		return Result{}, execerr.New(execerr.CalculationError, "zero total volume in vwap window")
	}
	vwap := num.Div(totalVol)

	var signals []Signal
	if !vwap.IsZero() {
		distance := v.lastPrice.Sub(vwap).Div(vwap)
		strength := clamp(distance.Mul(decimal.NewFromInt(10)), -1, 1)
		if distance.IsPositive() {
			signals = append(signals, Signal{Name: "Price Above VWAP", Strength: strength})
		} else if distance.IsNegative() {
			signals = append(signals, Signal{Name: "Price Below VWAP", Strength: strength})
		}
	}
	return Result{Value: vwap, Signals: signals}, nil
}

func (v *VWAPWindow) Reset() {
	v.window = v.window[:0]
	v.lastPrice = decimal.Zero
}
