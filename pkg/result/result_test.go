package result

import (
	"math"
	"strings"
	"testing"

	"github.com/shopspring/decimal"

	"github.com/xquant-go/engine/pkg/order"
)

func tradeAt(day int64, pnl int64) order.Trade {
	const msPerDay = 86400000
	return order.Trade{
		TimestampMs: day * msPerDay,
		RealizedPnL: decimal.NewFromInt(pnl),
	}
}

func TestComputeEmptyTradeList(t *testing.T) {
	m := Compute(nil, decimal.NewFromInt(1000), decimal.NewFromInt(1000), 1)
	if m.TradeCount != 0 {
		t.Errorf("expected zero trades, got %d", m.TradeCount)
	}
	if !m.ProfitFactor.IsZero() {
		t.Errorf("expected zero profit factor for no trades, got %s", m.ProfitFactor)
	}
}

func TestComputeWinRateAndAverages(t *testing.T) {
	trades := []order.Trade{
		tradeAt(1, 100),
		tradeAt(2, -50),
		tradeAt(3, 200),
		tradeAt(4, -25),
	}
	m := Compute(trades, decimal.NewFromInt(1000), decimal.NewFromInt(1225), 1)

	if m.TradeCount != 4 {
		t.Errorf("expected 4 trades, got %d", m.TradeCount)
	}
	if m.WinningTrades != 2 || m.LosingTrades != 2 {
		t.Errorf("expected 2 winning and 2 losing, got %d/%d", m.WinningTrades, m.LosingTrades)
	}
	if !m.WinRate.Equal(decimal.NewFromFloat(0.5)) {
		t.Errorf("expected win rate 0.5, got %s", m.WinRate)
	}
	if !m.MaxProfit.Equal(decimal.NewFromInt(200)) {
		t.Errorf("expected max profit 200, got %s", m.MaxProfit)
	}
	if !m.MaxLoss.Equal(decimal.NewFromInt(-50)) {
		t.Errorf("expected max loss -50, got %s", m.MaxLoss)
	}
	wantProfitFactor := decimal.NewFromInt(300).Div(decimal.NewFromInt(75))
	if !m.ProfitFactor.Equal(wantProfitFactor) {
		t.Errorf("expected profit factor %s, got %s", wantProfitFactor, m.ProfitFactor)
	}
}

func TestComputeProfitFactorInfiniteWithNoLosses(t *testing.T) {
	trades := []order.Trade{tradeAt(1, 100), tradeAt(2, 50)}
	m := Compute(trades, decimal.NewFromInt(1000), decimal.NewFromInt(1150), 1)
	f, _ := m.ProfitFactor.Float64()
	if !math.IsInf(f, 1) {
		t.Errorf("expected an infinite profit factor with zero losses, got %s", m.ProfitFactor)
	}
}

func TestMaxDrawdownTracksPeakToTrough(t *testing.T) {
	trades := []order.Trade{
		tradeAt(1, 100), // equity 1100, new peak
		tradeAt(2, -300), // equity 800, drawdown from 1100
		tradeAt(3, 50),   // equity 850, still below peak
	}
	dd := maxDrawdown(trades, decimal.NewFromInt(1000))
	want := decimal.NewFromInt(300).Div(decimal.NewFromInt(1100))
	if !dd.Equal(want) {
		t.Errorf("expected max drawdown %s, got %s", want, dd)
	}
}

func TestSharpeZeroWithFewerThanTwoReturns(t *testing.T) {
	trades := []order.Trade{tradeAt(1, 100)}
	s := sharpe(trades, decimal.NewFromInt(1000))
	if !s.IsZero() {
		t.Errorf("expected zero Sharpe with a single return bucket, got %s", s)
	}
}

func TestSummaryContainsKeyFigures(t *testing.T) {
	trades := []order.Trade{tradeAt(1, 100), tradeAt(2, -50)}
	m := Compute(trades, decimal.NewFromInt(1000), decimal.NewFromInt(1050), 1)
	s := Summary(m, decimal.NewFromInt(1000), decimal.NewFromInt(1050))

	for _, want := range []string{"Trades:", "Win rate:", "Sharpe ratio", "Max drawdown:", "Profit factor:", "Initial balance:", "Final balance:"} {
		if !strings.Contains(s, want) {
			t.Errorf("expected summary to contain %q, got:\n%s", want, s)
		}
	}
}
