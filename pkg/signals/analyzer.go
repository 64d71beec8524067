// Package signals implements a signal analyzer: it weighs, filters, and
// deconflicts indicator signals into a typed signal stream, bucketing by
// direction and resolving conflicts by net weighted strength. Grounded on
// agents.GenerateSignal/RankSignals' weighting-then-ranking shape.
package signals

import (
	"github.com/shopspring/decimal"

	"github.com/xquant-go/engine/pkg/indicators"
	"github.com/xquant-go/engine/pkg/metrics"
)

// Label is the typed directional classification of a signal, determined
// by strength magnitude.
type Label string

const (
	StrongBuy    Label = "strong_buy"
	Buy          Label = "buy"
	ReduceShort  Label = "reduce_short"
	StrongSell   Label = "strong_sell"
	Sell         Label = "sell"
	ReduceLong   Label = "reduce_long"
	Neutral      Label = "neutral"
)

// Analyzed is an indicator signal after confidence-weighting and labeling.
type Analyzed struct {
	Name       string
	Strength   decimal.Decimal
	Confidence decimal.Decimal
	Label      Label
}

// DefaultMinConfidence is the default retention threshold.
var DefaultMinConfidence = decimal.NewFromFloat(0.5)

// DefaultConflictingThreshold is the default ambiguity band.
var DefaultConflictingThreshold = decimal.NewFromFloat(0.3)

// DefaultWeights is the default name->confidence table; overridable via
// Analyzer.SetWeight.
func DefaultWeights() map[string]decimal.Decimal {
	half := decimal.NewFromFloat(0.5)
	return map[string]decimal.Decimal{
		"Golden Cross":              decimal.NewFromFloat(0.7),
		"Death Cross":               decimal.NewFromFloat(0.7),
		"RSI Oversold":              half,
		"RSI Overbought":            half,
		"MACD Bullish Crossover":    decimal.NewFromFloat(0.6),
		"MACD Bearish Crossover":    decimal.NewFromFloat(0.6),
		"MACD Zero-Line Bullish":    decimal.NewFromFloat(0.4),
		"MACD Zero-Line Bearish":    decimal.NewFromFloat(0.4),
		"Price Above VWAP":         half,
		"Price Below VWAP":         half,
	}
}

// Analyzer weights, filters, and deconflicts raw indicator signals.
type Analyzer struct {
	weights             map[string]decimal.Decimal
	minConfidence       decimal.Decimal
	conflictingThreshold decimal.Decimal
}

// New builds an Analyzer with the default weight table and thresholds.
func New() *Analyzer {
	return &Analyzer{
		weights:              DefaultWeights(),
		minConfidence:        DefaultMinConfidence,
		conflictingThreshold: DefaultConflictingThreshold,
	}
}

// SetWeight overrides the confidence weight for a named signal.
func (a *Analyzer) SetWeight(name string, weight decimal.Decimal) {
	a.weights[name] = weight
}

// SetMinConfidence overrides the retention threshold.
func (a *Analyzer) SetMinConfidence(v decimal.Decimal) { a.minConfidence = v }

// SetConflictingThreshold overrides the ambiguity band.
func (a *Analyzer) SetConflictingThreshold(v decimal.Decimal) { a.conflictingThreshold = v }

func labelFor(strength decimal.Decimal) Label {
	abs := strength.Abs()
	switch {
	case abs.IsZero():
		return Neutral
	case abs.GreaterThanOrEqual(decimal.NewFromFloat(0.7)):
		if strength.IsPositive() {
			return StrongBuy
		}
		return StrongSell
	case abs.GreaterThanOrEqual(decimal.NewFromFloat(0.3)):
		if strength.IsPositive() {
			return Buy
		}
		return Sell
	default: // 0 < abs < 0.3
		if strength.IsPositive() {
			return ReduceShort
		}
		return ReduceLong
	}
}

// Analyze weights each raw signal, drops anything under minConfidence, and
// returns either the full filtered set (if the dominant side is ambiguous)
// or only the signals on the dominant side.
func (a *Analyzer) Analyze(raw []indicators.Signal) []Analyzed {
	filtered := make([]Analyzed, 0, len(raw))
	for _, s := range raw {
		weight, ok := a.weights[s.Name]
		if !ok {
			weight = a.minConfidence // unknown signals default to exactly the cutoff
		}
		if weight.LessThan(a.minConfidence) {
			continue
		}
		filtered = append(filtered, Analyzed{
			Name:       s.Name,
			Strength:   s.Strength,
			Confidence: weight,
			Label:      labelFor(s.Strength),
		})
	}

	buyStrength := decimal.Zero
	sellStrength := decimal.Zero
	for _, a := range filtered {
		weighted := a.Strength.Mul(a.Confidence)
		if a.Strength.IsPositive() {
			buyStrength = buyStrength.Add(weighted)
		} else if a.Strength.IsNegative() {
			sellStrength = sellStrength.Add(weighted.Abs())
		}
	}

	if !buyStrength.IsZero() && !sellStrength.IsZero() {
		if buyStrength.Sub(sellStrength).Abs().LessThanOrEqual(a.conflictingThreshold) {
			recordAnalyzed(filtered)
			return filtered // ambiguous: return the full filtered set
		}
	}

	var out []Analyzed
	if buyStrength.GreaterThanOrEqual(sellStrength) {
		out = onlySide(filtered, true)
	} else {
		out = onlySide(filtered, false)
	}
	recordAnalyzed(out)
	return out
}

func recordAnalyzed(analyzed []Analyzed) {
	em := metrics.Default()
	for _, a := range analyzed {
		strength, _ := a.Strength.Float64()
		confidence, _ := a.Confidence.Float64()
		em.RecordSignal(string(a.Label), strength, confidence)
	}
}

func onlySide(analyzed []Analyzed, buySide bool) []Analyzed {
	out := make([]Analyzed, 0, len(analyzed))
	for _, a := range analyzed {
		if buySide && !a.Strength.IsNegative() {
			out = append(out, a)
		} else if !buySide && a.Strength.IsNegative() {
			out = append(out, a)
		}
	}
	return out
}
