package indicators

import "github.com/shopspring/decimal"

// IndicatorSet composes several named indicators so a strategy can declare
// its indicator stack declaratively, the way original_source's
// execution_analyzer.rs composes multiple indicators per symbol.
type IndicatorSet struct {
	named map[string]Indicator
	order []string
}

// NewIndicatorSet builds an empty set; use Add to register indicators.
func NewIndicatorSet() *IndicatorSet {
	return &IndicatorSet{named: make(map[string]Indicator)}
}

// Add registers an indicator under a name, preserving insertion order.
func (s *IndicatorSet) Add(name string, ind Indicator) {
	if _, exists := s.named[name]; !exists {
		s.order = append(s.order, name)
	}
	s.named[name] = ind
}

// Get returns the named indicator, or nil if absent.
func (s *IndicatorSet) Get(name string) Indicator {
	return s.named[name]
}

// UpdateAll feeds price/volume to every indicator in the set.
func (s *IndicatorSet) UpdateAll(price decimal.Decimal, volume ...decimal.Decimal) {
	for _, name := range s.order {
		_ = s.named[name].Update(price, volume...)
	}
}

// Signals collects every ready indicator's emitted signals, in registration order.
func (s *IndicatorSet) Signals() []Signal {
	var out []Signal
	for _, name := range s.order {
		ind := s.named[name]
		if !ind.IsReady() {
			continue
		}
		res, err := ind.Calculate()
		if err != nil {
			continue
		}
		out = append(out, res.Signals...)
	}
	return out
}

// Reset resets every indicator in the set.
func (s *IndicatorSet) Reset() {
	for _, name := range s.order {
		s.named[name].Reset()
	}
}
