// Package result computes trade-list-derived metrics: count, win rate,
// Sharpe, max drawdown, profit factor, CAR. Grounded on
// backtest.calculateResult/paper.Engine.GetStats, rewritten as pure
// functions over an order.Trade slice.
package result

import (
	"math"

	"github.com/shopspring/decimal"

	"github.com/xquant-go/engine/pkg/order"
)

// Metrics is the full set of derived backtest statistics.
type Metrics struct {
	TradeCount    int
	WinningTrades int
	LosingTrades  int
	WinRate       decimal.Decimal
	AveragePnL    decimal.Decimal
	MaxProfit     decimal.Decimal
	MaxLoss       decimal.Decimal
	SharpeRatio   decimal.Decimal
	MaxDrawdown   decimal.Decimal
	ProfitFactor  decimal.Decimal
	CAR           decimal.Decimal
}

// Compute derives every metric from the trade list and the backtest's
// initial/final capital and elapsed calendar years.
func Compute(trades []order.Trade, initialBalance, finalBalance decimal.Decimal, years float64) Metrics {
	m := Metrics{TradeCount: len(trades)}
	if len(trades) == 0 {
		m.ProfitFactor = decimal.Zero
		return m
	}

	sumPnL := decimal.Zero
	sumWins := decimal.Zero
	sumLosses := decimal.Zero
	m.MaxProfit = trades[0].RealizedPnL
	m.MaxLoss = trades[0].RealizedPnL

	for _, t := range trades {
		sumPnL = sumPnL.Add(t.RealizedPnL)
		if t.RealizedPnL.IsPositive() {
			m.WinningTrades++
			sumWins = sumWins.Add(t.RealizedPnL)
		} else if t.RealizedPnL.IsNegative() {
			m.LosingTrades++
			sumLosses = sumLosses.Add(t.RealizedPnL)
		}
		if t.RealizedPnL.GreaterThan(m.MaxProfit) {
			m.MaxProfit = t.RealizedPnL
		}
		if t.RealizedPnL.LessThan(m.MaxLoss) {
			m.MaxLoss = t.RealizedPnL
		}
	}

	m.WinRate = decimal.NewFromInt(int64(m.WinningTrades)).Div(decimal.NewFromInt(int64(len(trades))))
	m.AveragePnL = sumPnL.Div(decimal.NewFromInt(int64(len(trades))))

	if sumLosses.IsZero() {
		if sumWins.IsPositive() {
			m.ProfitFactor = decimal.NewFromFloat(math.Inf(1))
		} else {
			m.ProfitFactor = decimal.Zero
		}
	} else {
		m.ProfitFactor = sumWins.Div(sumLosses.Abs())
	}

	m.SharpeRatio = sharpe(trades, initialBalance)
	m.MaxDrawdown = maxDrawdown(trades, initialBalance)

	if years > 0 && initialBalance.IsPositive() {
		ratio, _ := finalBalance.Div(initialBalance).Float64()
		if ratio > 0 {
			m.CAR = decimal.NewFromFloat(math.Pow(ratio, 1/years) - 1)
		}
	}

	return m
}

// dailyReturns groups realized P&L by calendar day (UTC, derived from the
// trade's millisecond timestamp, never the wall clock) and returns each
// day's fractional return against the running equity.
func dailyReturns(trades []order.Trade, startEquity decimal.Decimal) []float64 {
	const msPerDay = 86400000
	dayPnL := make(map[int64]decimal.Decimal)
	var days []int64
	seen := make(map[int64]bool)
	for _, t := range trades {
		day := t.TimestampMs / msPerDay
		dayPnL[day] = dayPnL[day].Add(t.RealizedPnL)
		if !seen[day] {
			seen[day] = true
			days = append(days, day)
		}
	}
	for i := 0; i < len(days); i++ {
		for j := i + 1; j < len(days); j++ {
			if days[j] < days[i] {
				days[i], days[j] = days[j], days[i]
			}
		}
	}

	equity := startEquity
	returns := make([]float64, 0, len(days))
	for _, day := range days {
		pnl := dayPnL[day]
		if equity.IsZero() {
			returns = append(returns, 0)
			continue
		}
		r, _ := pnl.Div(equity).Float64()
		returns = append(returns, r)
		equity = equity.Add(pnl)
	}
	return returns
}

// sharpe annualizes the mean/stddev of grouped daily returns by sqrt(252).
func sharpe(trades []order.Trade, initialBalance decimal.Decimal) decimal.Decimal {
	if initialBalance.IsZero() {
		return decimal.Zero
	}
	returns := dailyReturns(trades, initialBalance)
	if len(returns) < 2 {
		return decimal.Zero
	}

	mean := 0.0
	for _, r := range returns {
		mean += r
	}
	mean /= float64(len(returns))

	variance := 0.0
	for _, r := range returns {
		variance += (r - mean) * (r - mean)
	}
	variance /= float64(len(returns) - 1)
	stddev := math.Sqrt(variance)
	if stddev == 0 {
		return decimal.Zero
	}

	annualized := (mean / stddev) * math.Sqrt(252)
	return decimal.NewFromFloat(annualized)
}

// maxDrawdown walks the equity curve initial + cumulative realized P&L and
// returns the largest peak-to-trough fractional decline.
func maxDrawdown(trades []order.Trade, initialBalance decimal.Decimal) decimal.Decimal {
	equity := initialBalance
	peak := initialBalance
	worst := decimal.Zero
	for _, t := range trades {
		equity = equity.Add(t.RealizedPnL)
		if equity.GreaterThan(peak) {
			peak = equity
		}
		if peak.IsZero() {
			continue
		}
		drawdown := peak.Sub(equity).Div(peak)
		if drawdown.GreaterThan(worst) {
			worst = drawdown
		}
	}
	return worst
}
