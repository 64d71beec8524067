package backtest

import (
	"testing"

	"github.com/shopspring/decimal"

	"github.com/xquant-go/engine/pkg/bar"
	"github.com/xquant-go/engine/pkg/execerr"
	"github.com/xquant-go/engine/pkg/order"
	"github.com/xquant-go/engine/pkg/strategymanager"
)

// buyOnFirstBarStrategy submits one market buy on the first bar it sees,
// then goes quiet.
type buyOnFirstBarStrategy struct {
	symbol string
	active bool
	fired  bool
	sent   bool
	qty    decimal.Decimal
}

func (s *buyOnFirstBarStrategy) Name() string        { return "buy-once" }
func (s *buyOnFirstBarStrategy) Description() string { return "test fixture" }
func (s *buyOnFirstBarStrategy) IsActive() bool      { return s.active }
func (s *buyOnFirstBarStrategy) SetActive(a bool)    { s.active = a }
func (s *buyOnFirstBarStrategy) Update(b bar.MarketBar) error {
	if b.Symbol != s.symbol || s.fired {
		return nil
	}
	s.fired = true
	return nil
}
func (s *buyOnFirstBarStrategy) GetOrders() ([]*order.Order, error) {
	if !s.fired || s.sent {
		return nil, nil
	}
	s.sent = true
	return []*order.Order{{
		Symbol:   s.symbol,
		Side:     order.Buy,
		Type:     order.Market,
		Quantity: s.qty,
	}}, nil
}

func bars(symbol string, closes ...int64) []bar.MarketBar {
	out := make([]bar.MarketBar, len(closes))
	for i, c := range closes {
		price := decimal.NewFromInt(c)
		out[i] = bar.MarketBar{
			Symbol:      symbol,
			TimestampMs: int64(i+1) * 60000,
			Open:        price,
			High:        price,
			Low:         price,
			Close:       price,
			Volume:      decimal.NewFromInt(10),
		}
	}
	return out
}

func TestNewRejectsMissingProvider(t *testing.T) {
	_, err := New(Config{}, []string{"BTCUSDT"}, strategymanager.New())
	if !execerr.Is(err, execerr.ConfigError) {
		t.Fatalf("expected ConfigError, got %v", err)
	}
}

func TestNewFiltersBarsOutsideWindow(t *testing.T) {
	provider := InMemoryProvider{Bars: map[string][]bar.MarketBar{
		"BTCUSDT": bars("BTCUSDT", 100, 101, 102, 103),
	}}
	cfg := Config{StartMs: 120000, EndMs: 180000, Provider: provider}
	e, err := New(cfg, []string{"BTCUSDT"}, strategymanager.New())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(e.bars["BTCUSDT"]) != 2 {
		t.Fatalf("expected 2 bars within [120000,180000], got %d", len(e.bars["BTCUSDT"]))
	}
}

func TestRunExecutesMarketBuyAndTracksPosition(t *testing.T) {
	provider := InMemoryProvider{Bars: map[string][]bar.MarketBar{
		"BTCUSDT": bars("BTCUSDT", 100, 110, 120),
	}}
	sm := strategymanager.New()
	strat := &buyOnFirstBarStrategy{symbol: "BTCUSDT", qty: decimal.NewFromInt(1)}
	sm.Add(strat)

	cfg := Config{
		StartMs:        0,
		EndMs:          1 << 40,
		InitialBalance: decimal.NewFromInt(10000),
		FeeRate:        decimal.Zero,
		Provider:       provider,
	}
	e, err := New(cfg, []string{"BTCUSDT"}, sm)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	trades, err := e.Run()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(trades) != 1 {
		t.Fatalf("expected exactly one trade, got %d", len(trades))
	}
	if !trades[0].Price.Equal(decimal.NewFromInt(100)) {
		t.Errorf("expected fill at the first bar's close of 100, got %s", trades[0].Price)
	}

	positions := e.Positions()
	pos, ok := positions["BTCUSDT"]
	if !ok {
		t.Fatal("expected a tracked position for BTCUSDT")
	}
	if !pos.Quantity.Equal(decimal.NewFromInt(1)) {
		t.Errorf("expected a long position of 1, got %s", pos.Quantity)
	}

	base := e.BaseBalance("USDT")
	_ = base // symbol splitting uses DefaultBaseAssetLen; just confirm no panic above
}

func TestRunRejectsOrderOnInsufficientBalance(t *testing.T) {
	provider := InMemoryProvider{Bars: map[string][]bar.MarketBar{
		"BTCUSDT": bars("BTCUSDT", 100),
	}}
	sm := strategymanager.New()
	strat := &buyOnFirstBarStrategy{symbol: "BTCUSDT", qty: decimal.NewFromInt(1000)}
	sm.Add(strat)

	cfg := Config{
		StartMs:        0,
		EndMs:          1 << 40,
		InitialBalance: decimal.NewFromInt(1), // far too little for 1000 units at price 100
		Provider:       provider,
	}
	e, _ := New(cfg, []string{"BTCUSDT"}, sm)
	trades, err := e.Run()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(trades) != 0 {
		t.Fatalf("expected the order to be rejected for insufficient balance, got %d trades", len(trades))
	}
}

func TestRunFillsRestingLimitOrderOnLaterBar(t *testing.T) {
	provider := InMemoryProvider{Bars: map[string][]bar.MarketBar{
		"BTCUSDT": bars("BTCUSDT", 100, 100, 90),
	}}
	sm := strategymanager.New()
	sm.Add(&buyOnFirstBarStrategy{symbol: "BTCUSDT", qty: decimal.NewFromInt(1)})

	cfg := Config{
		StartMs:        0,
		EndMs:          1 << 40,
		InitialBalance: decimal.NewFromInt(10000),
		Provider:       provider,
	}
	e, _ := New(cfg, []string{"BTCUSDT"}, sm)
	e.resting = append(e.resting, &order.Order{
		ID: "resting-1", Symbol: "BTCUSDT", Side: order.Buy, Type: order.Limit,
		Quantity: decimal.NewFromInt(1), Price: decimal.NewFromInt(95), Status: order.New,
	})
	trades, err := e.Run()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	found := false
	for _, tr := range trades {
		if tr.OrderID == "resting-1" {
			found = true
			if !tr.Price.Equal(decimal.NewFromInt(95)) {
				t.Errorf("expected the resting limit to fill at its own price of 95, got %s", tr.Price)
			}
		}
	}
	if !found {
		t.Error("expected the resting limit order to fill once the low touched its price")
	}
}

func TestRunRejectsEmptyTimeline(t *testing.T) {
	provider := InMemoryProvider{Bars: map[string][]bar.MarketBar{
		"BTCUSDT": bars("BTCUSDT", 100, 101, 102),
	}}
	cfg := Config{StartMs: 1, EndMs: 2, InitialBalance: decimal.NewFromInt(10000), Provider: provider}
	e, err := New(cfg, []string{"BTCUSDT"}, strategymanager.New())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	_, err = e.Run()
	if !execerr.Is(err, execerr.InsufficientData) {
		t.Fatalf("expected InsufficientData for an empty timeline, got %v", err)
	}
}

func TestInMemoryProviderUnknownSymbol(t *testing.T) {
	p := InMemoryProvider{Bars: map[string][]bar.MarketBar{}}
	_, err := p.LoadBars("BTCUSDT")
	if !execerr.Is(err, execerr.DataNotFound) {
		t.Fatalf("expected DataNotFound, got %v", err)
	}
}
