package result

import (
	"strings"

	"github.com/shopspring/decimal"
	"golang.org/x/text/language"
	"golang.org/x/text/message"
)

// Summary renders a human-readable report of m. Counts go through an English
// message printer (digit grouping); decimal figures are printed with
// StringFixed, without grouping.
func Summary(m Metrics, initialBalance, finalBalance decimal.Decimal) string {
	p := message.NewPrinter(language.English)

	var b strings.Builder
	p.Fprintf(&b, "Trades: %d (%d winning, %d losing)\n", m.TradeCount, m.WinningTrades, m.LosingTrades)
	p.Fprintf(&b, "Win rate: %s%%\n", percent(m.WinRate))
	p.Fprintf(&b, "Average P&L per trade: %s\n", m.AveragePnL.StringFixed(4))
	p.Fprintf(&b, "Max profit trade: %s\n", m.MaxProfit.StringFixed(4))
	p.Fprintf(&b, "Max loss trade: %s\n", m.MaxLoss.StringFixed(4))
	p.Fprintf(&b, "Sharpe ratio (annualized): %s\n", m.SharpeRatio.StringFixed(4))
	p.Fprintf(&b, "Max drawdown: %s%%\n", percent(m.MaxDrawdown))
	p.Fprintf(&b, "Profit factor: %s\n", m.ProfitFactor.StringFixed(4))
	p.Fprintf(&b, "CAR: %s%%\n", percent(m.CAR))
	p.Fprintf(&b, "Initial balance: %s\n", initialBalance.StringFixed(2))
	p.Fprintf(&b, "Final balance: %s\n", finalBalance.StringFixed(2))
	return b.String()
}

func percent(d decimal.Decimal) string {
	return d.Mul(decimal.NewFromInt(100)).StringFixed(2)
}
