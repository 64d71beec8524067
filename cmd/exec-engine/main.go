// exec-engine runs the live/paper trading runtime: an exchange connector,
// an order manager, a strategy manager driving one technical strategy per
// configured symbol, and a read-only HTTP + WebSocket status/metrics
// surface.
package main

import (
	"context"
	"encoding/json"
	"flag"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/shopspring/decimal"

	"github.com/xquant-go/engine/pkg/authsign"
	"github.com/xquant-go/engine/pkg/config"
	"github.com/xquant-go/engine/pkg/exchange"
	"github.com/xquant-go/engine/pkg/indicators"
	"github.com/xquant-go/engine/pkg/metrics"
	"github.com/xquant-go/engine/pkg/ordermanager"
	"github.com/xquant-go/engine/pkg/runtime"
	"github.com/xquant-go/engine/pkg/signals"
	"github.com/xquant-go/engine/pkg/statusstream"
	"github.com/xquant-go/engine/pkg/strategy"
	"github.com/xquant-go/engine/pkg/strategymanager"
	"github.com/xquant-go/engine/pkg/validate"
)

var (
	configPath = flag.String("config", "", "Path to JSON config file")
	httpAddr   = flag.String("http", "", "HTTP server address (overrides config)")
	useMock    = flag.Bool("mock", true, "Run against the in-memory mock exchange")
	symbol     = flag.String("symbol", "", "Single symbol override (overrides config's symbol list)")
	verbose    = flag.Bool("verbose", false, "Verbose logging")
)

func main() {
	flag.Parse()

	log.SetFlags(log.Ldate | log.Ltime | log.Lmicroseconds)
	log.Println("Starting execution engine")

	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}
	if *httpAddr != "" {
		cfg.HTTPAddr = *httpAddr
	}
	if *symbol != "" {
		cfg.Symbols = []string{*symbol}
	}
	cfg.UseMock = cfg.UseMock && *useMock

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	eng, err := newEngine(cfg)
	if err != nil {
		log.Fatalf("Failed to initialize engine: %v", err)
	}

	go eng.startHTTP(cfg.HTTPAddr)

	for _, s := range cfg.Symbols {
		loop := runtime.NewLoop(s, eng.exchange, eng.strategies, eng.orders)
		eng.loops = append(eng.loops, loop)
		go loop.Run(ctx)
	}
	eng.orders.StartMonitoring(ctx)

	log.Printf("Engine running (mock=%v, http=%s, symbols=%v)", cfg.UseMock, cfg.HTTPAddr, cfg.Symbols)
	if *verbose {
		for _, status := range eng.strategies.List() {
			log.Printf("[strategy] %s: active=%v", status.Name, status.IsActive)
		}
	}
	log.Println("Press Ctrl+C to stop")

	<-sigCh
	log.Println("Shutting down...")

	for _, loop := range eng.loops {
		loop.Stop()
	}
	eng.orders.StopMonitoring()
	cancel()

	log.Println("Goodbye!")
}

type engine struct {
	exchange   exchange.Exchange
	orders     *ordermanager.Manager
	strategies *strategymanager.Manager
	metrics    *metrics.EngineMetrics
	loops      []*runtime.Loop
}

func newEngine(cfg config.Config) (*engine, error) {
	e := &engine{
		metrics: metrics.Default(),
	}

	if cfg.UseMock {
		balances := map[string]decimal.Decimal{"QUOTE": cfg.InitialBalance}
		mock := exchange.NewMock(cfg.MockSeed, balances)
		for _, s := range cfg.Symbols {
			mock.SeedPrice(s, decimal.NewFromInt(100))
		}
		e.exchange = mock
		log.Println("Exchange: in-memory mock")
	} else {
		creds := &authsign.APICredentials{APIKey: cfg.ExchangeAPIKey, Secret: cfg.ExchangeAPISecret}
		e.exchange = exchange.NewLive(creds, "", exchange.WithBaseURL(cfg.ExchangeBaseURL))
		log.Printf("Exchange: live (%s)", cfg.ExchangeBaseURL)
	}

	chain := validate.NewChain(validate.Basic{MinQuantity: cfg.MinOrderQty, MaxQuantity: cfg.MaxOrderQty})
	e.orders = ordermanager.New(e.exchange, chain)

	e.strategies = strategymanager.New()
	for _, s := range cfg.Symbols {
		strat := buildDefaultStrategy(s)
		if err := e.strategies.Add(strat); err != nil {
			return nil, err
		}
	}

	return e, nil
}

// buildDefaultStrategy wires a Golden/Death Cross + RSI technical strategy
// over one symbol, the engine's out-of-the-box signal stack.
func buildDefaultStrategy(symbol string) strategy.Strategy {
	set := indicators.NewIndicatorSet()
	set.Add("Golden Cross", indicators.NewCrossover(10, 30))
	set.Add("RSI", indicators.NewRSI(14))
	set.Add("MACD", indicators.NewMACD(12, 26, 9))

	analyzer := signals.New()
	sizer := strategy.NewFixedSizer(decimal.NewFromFloat(0.01))

	return strategy.NewTechnical(
		"technical-"+symbol,
		"Golden/Death cross + RSI + MACD technical strategy",
		symbol,
		set,
		analyzer,
		sizer,
	)
}

func (e *engine) startHTTP(addr string) {
	mux := http.NewServeMux()

	mux.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(map[string]string{"status": "ok"})
	})

	mux.HandleFunc("/orders", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(e.orders.GetOpenOrders())
	})

	mux.HandleFunc("/strategies", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(e.strategies.List())
	})

	mux.Handle("/metrics", promhttp.HandlerFor(e.metrics.Registry(), promhttp.HandlerOpts{}))

	mux.HandleFunc("/ws/orders", func(w http.ResponseWriter, r *http.Request) {
		statusstream.ServeWS(e.orders.StatusHub(), w, r)
	})

	server := &http.Server{
		Addr:         addr,
		Handler:      mux,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 10 * time.Second,
	}

	log.Printf("HTTP server listening on %s", addr)
	if err := server.ListenAndServe(); err != http.ErrServerClosed {
		log.Printf("HTTP server error: %v", err)
	}
}
