package strategy

import (
	"testing"

	"github.com/shopspring/decimal"

	"github.com/xquant-go/engine/pkg/bar"
	"github.com/xquant-go/engine/pkg/indicators"
	"github.com/xquant-go/engine/pkg/order"
	"github.com/xquant-go/engine/pkg/signals"
)

func feedUptrend(t *Technical, symbol string, bars int) {
	price := 100.0
	// Flat for the first four bars so the crossover's EMAs become ready level
	// with each other; the rise after that produces a Golden Cross.
	for i := 0; i < bars; i++ {
		if i >= 4 {
			price += 1
		}
		b := bar.MarketBar{Symbol: symbol, Close: decimal.NewFromFloat(price), Volume: decimal.NewFromInt(10)}
		if err := t.Update(b); err != nil {
			panic(err)
		}
	}
}

func TestTechnicalIgnoresOtherSymbols(t *testing.T) {
	set := indicators.NewIndicatorSet()
	set.Add("Golden Cross", indicators.NewCrossover(2, 4))
	tech := NewTechnical("test", "desc", "BTCUSDT", set, signals.New(), NewFixedSizer(decimal.NewFromInt(1)))

	err := tech.Update(bar.MarketBar{Symbol: "ETHUSDT", Close: decimal.NewFromInt(100)})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	orders, _ := tech.GetOrders()
	if len(orders) != 0 {
		t.Fatalf("expected no orders for an unrelated symbol, got %d", len(orders))
	}
}

func TestTechnicalEmitsBuyOnGoldenCross(t *testing.T) {
	set := indicators.NewIndicatorSet()
	set.Add("Golden Cross", indicators.NewCrossover(2, 4))
	tech := NewTechnical("test", "desc", "BTCUSDT", set, signals.New(), NewFixedSizer(decimal.NewFromInt(1)))

	feedUptrend(tech, "BTCUSDT", 12)

	orders, err := tech.GetOrders()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	found := false
	for _, o := range orders {
		if o.Side == order.Buy && o.Type == order.Market {
			found = true
		}
	}
	if !found {
		t.Fatalf("expected at least one buy order from a sustained uptrend, got %d orders", len(orders))
	}
}

func TestTechnicalSetActiveClosesPosition(t *testing.T) {
	set := indicators.NewIndicatorSet()
	set.Add("Golden Cross", indicators.NewCrossover(2, 4))
	tech := NewTechnical("test", "desc", "BTCUSDT", set, signals.New(), NewFixedSizer(decimal.NewFromInt(1)))

	feedUptrend(tech, "BTCUSDT", 12)
	tech.GetOrders() // drain whatever the uptrend produced

	if tech.position.IsZero() {
		t.Skip("uptrend did not open a position in this run; nothing to close")
	}
	wasLong := tech.position.IsPositive()

	tech.SetActive(false)
	orders, _ := tech.GetOrders()
	if len(orders) != 1 {
		t.Fatalf("expected exactly one closing order, got %d", len(orders))
	}
	wantSide := order.Sell
	if !wasLong {
		wantSide = order.Buy
	}
	if orders[0].Side != wantSide {
		t.Errorf("closing order side = %v, want %v", orders[0].Side, wantSide)
	}
	if !tech.position.IsZero() {
		t.Errorf("position should be flat after SetActive(false), got %s", tech.position)
	}
}

func TestFixedSizer(t *testing.T) {
	s := NewFixedSizer(decimal.NewFromFloat(2.5))
	if !s.Size("ANYTHING").Equal(decimal.NewFromFloat(2.5)) {
		t.Errorf("FixedSizer.Size should ignore the symbol and return the fixed quantity")
	}
}
