// backtest-runner replays a deterministic backtest over one or more
// symbols' historical bars and prints the derived result metrics, in a
// flag+load+run+print+export shape generalized from a single-market
// PricePoint series to a multi-symbol OHLCV backtest.
package main

import (
	"encoding/json"
	"flag"
	"fmt"
	"log"
	"os"
	"strings"

	"github.com/shopspring/decimal"

	"github.com/xquant-go/engine/pkg/backtest"
	"github.com/xquant-go/engine/pkg/indicators"
	"github.com/xquant-go/engine/pkg/order"
	"github.com/xquant-go/engine/pkg/result"
	"github.com/xquant-go/engine/pkg/signals"
	"github.com/xquant-go/engine/pkg/strategy"
	"github.com/xquant-go/engine/pkg/strategymanager"
)

var (
	dataDir    = flag.String("data", "", "Directory of <symbol>.csv/.json bar files")
	symbolsArg = flag.String("symbols", "BTCUSDT", "Comma-separated list of symbols to backtest")
	startMs    = flag.Int64("start", 0, "Backtest window start, epoch ms (0 = beginning of data)")
	endMs      = flag.Int64("end", 1<<62, "Backtest window end, epoch ms (default: far future)")
	balance    = flag.Float64("balance", 10000, "Initial balance")
	feeBps     = flag.Float64("fee-bps", 5, "Fee in basis points")
	slippage   = flag.Float64("slippage", 0.0005, "Market-order slippage fraction")
	years      = flag.Float64("years", 1.0, "Elapsed calendar years, for CAR")
	verbose    = flag.Bool("verbose", false, "Print every trade")
	outputFile = flag.String("output", "", "Write the result JSON to this file")
)

func main() {
	flag.Parse()

	if *dataDir == "" {
		log.Fatal("missing -data: directory of <symbol>.csv/.json bar files")
	}

	symbols := splitSymbols(*symbolsArg)
	provider := backtest.NewFileProvider(*dataDir)

	strategies := strategymanager.New()
	for _, s := range symbols {
		if err := strategies.Add(buildStrategy(s)); err != nil {
			log.Fatalf("failed to register strategy for %s: %v", s, err)
		}
	}

	cfg := backtest.Config{
		StartMs:        *startMs,
		EndMs:          *endMs,
		InitialBalance: decimal.NewFromFloat(*balance),
		FeeRate:        decimal.NewFromFloat(*feeBps / 10000),
		Slippage:       decimal.NewFromFloat(*slippage),
		Provider:       provider,
	}

	log.Printf("Running backtest over %v", symbols)
	log.Printf("Initial balance: %.2f", *balance)

	engine, err := backtest.New(cfg, symbols, strategies)
	if err != nil {
		log.Fatalf("failed to build backtest engine: %v", err)
	}

	trades, err := engine.Run()
	if err != nil {
		log.Fatalf("backtest run failed: %v", err)
	}

	finalBalance := finalAccountValue(engine, symbols, decimal.NewFromFloat(*balance))
	metrics := result.Compute(trades, decimal.NewFromFloat(*balance), finalBalance, *years)

	printResults(metrics, trades, decimal.NewFromFloat(*balance), finalBalance)

	if *outputFile != "" {
		if err := exportJSON(trades, metrics, *outputFile); err != nil {
			log.Printf("failed to export results: %v", err)
		} else {
			log.Printf("results exported to %s", *outputFile)
		}
	}
}

// buildStrategy wires the same default technical strategy the live engine
// uses, so a backtest run exercises the identical signal stack.
func buildStrategy(symbol string) strategy.Strategy {
	set := indicators.NewIndicatorSet()
	set.Add("Golden Cross", indicators.NewCrossover(10, 30))
	set.Add("RSI", indicators.NewRSI(14))
	set.Add("MACD", indicators.NewMACD(12, 26, 9))

	analyzer := signals.New()
	sizer := strategy.NewFixedSizer(decimal.NewFromFloat(0.01))

	return strategy.NewTechnical("technical-"+symbol, "default cross/RSI/MACD strategy", symbol, set, analyzer, sizer)
}

func splitSymbols(arg string) []string {
	parts := strings.Split(arg, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}

// finalAccountValue marks every symbol's residual base-asset holding to the
// last known close and sums it with every distinct quote balance; a quote
// asset no fill touched still holds initialBalance, so an idle run (no
// fills) reports it unchanged.
func finalAccountValue(engine *backtest.Engine, symbols []string, initialBalance decimal.Decimal) decimal.Decimal {
	seenQuote := make(map[string]bool)
	total := decimal.Zero
	for _, s := range symbols {
		n := backtest.DefaultBaseAssetLen
		base, quote := s, "QUOTE"
		if n < len(s) {
			base, quote = s[:n], s[n:]
		}
		if !seenQuote[quote] {
			seenQuote[quote] = true
			total = total.Add(engine.QuoteBalance(quote))
		}
		if close, ok := engine.LastClose(s); ok {
			total = total.Add(engine.BaseBalance(base).Mul(close))
		}
	}
	if len(seenQuote) == 0 {
		return initialBalance
	}
	return total
}

func printResults(m result.Metrics, trades []order.Trade, initialBalance, finalBalance decimal.Decimal) {
	fmt.Println()
	fmt.Println("==================== BACKTEST RESULTS ====================")
	fmt.Println()
	fmt.Print(result.Summary(m, initialBalance, finalBalance))
	fmt.Println("===========================================================")

	if *verbose && len(trades) > 0 {
		fmt.Println()
		fmt.Println("Trade History:")
		fmt.Println("--------------")
		for i, t := range trades {
			fmt.Printf("  %d. [%d] %s %s %s @ %s (PnL: %s)\n",
				i+1, t.TimestampMs, t.Symbol, t.Side, t.Quantity.String(), t.Price.String(), t.RealizedPnL.String())
		}
	}
}

func exportJSON(trades []order.Trade, metrics result.Metrics, filename string) error {
	out := struct {
		Metrics result.Metrics `json:"metrics"`
		Trades  []order.Trade  `json:"trades"`
	}{Metrics: metrics, Trades: trades}

	data, err := json.MarshalIndent(out, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal result: %w", err)
	}
	return os.WriteFile(filename, data, 0644)
}
