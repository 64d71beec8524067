// Package metrics exports Prometheus instrumentation for the order
// manager, execution algorithms, strategies, and backtest/live accounts.
// Grounded on trader/metrics.TradingMetrics: one struct of CounterVec/
// GaugeVec/HistogramVec fields built in a constructor, registered once,
// exposed through narrow Record*/Update* methods so callers never touch
// a prometheus type directly.
package metrics

import (
	"sync"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/shopspring/decimal"
)

// EngineMetrics is the full set of exported series for one running engine
// instance (live, paper, or backtest).
type EngineMetrics struct {
	registry *prometheus.Registry

	// Order metrics
	OrdersTotal   *prometheus.CounterVec
	OrderDuration *prometheus.HistogramVec
	OrderSize     *prometheus.HistogramVec
	OpenOrders    *prometheus.GaugeVec

	// Trade metrics
	TradesTotal   *prometheus.CounterVec
	TradeVolume   *prometheus.CounterVec
	TradeFees     *prometheus.CounterVec
	TradeSlippage *prometheus.HistogramVec

	// Position metrics
	PositionSize  *prometheus.GaugeVec
	PositionValue *prometheus.GaugeVec
	UnrealizedPnL *prometheus.GaugeVec
	RealizedPnL   *prometheus.GaugeVec

	// Account metrics
	AccountBalance *prometheus.GaugeVec
	TotalExposure  prometheus.Gauge
	DailyPnL       prometheus.Gauge
	DrawdownPct    prometheus.Gauge

	// Execution algorithm metrics
	ExecutionsStarted *prometheus.CounterVec
	ExecutionDuration *prometheus.HistogramVec
	ExecutionFillPct  *prometheus.GaugeVec
	ActiveExecutions  *prometheus.GaugeVec

	// Strategy/signal metrics
	SignalsTotal     *prometheus.CounterVec
	SignalStrength   *prometheus.HistogramVec
	SignalConfidence *prometheus.HistogramVec
	ActiveStrategies prometheus.Gauge
}

// New builds and registers every series against a fresh registry.
func New() *EngineMetrics {
	em := &EngineMetrics{
		registry: prometheus.NewRegistry(),

		OrdersTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "execengine_orders_total",
				Help: "Total number of orders submitted to the exchange",
			},
			[]string{"side", "type", "status"},
		),
		OrderDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "execengine_order_duration_seconds",
				Help:    "Time from order submission to terminal status",
				Buckets: prometheus.ExponentialBuckets(0.001, 2, 15),
			},
			[]string{"side", "type"},
		),
		OrderSize: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "execengine_order_size_quote",
				Help:    "Order notional size in quote currency",
				Buckets: prometheus.ExponentialBuckets(10, 2, 14),
			},
			[]string{"side"},
		),
		OpenOrders: prometheus.NewGaugeVec(
			prometheus.GaugeOpts{
				Name: "execengine_open_orders",
				Help: "Current number of open orders",
			},
			[]string{"symbol"},
		),

		TradesTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "execengine_trades_total",
				Help: "Total number of trades executed",
			},
			[]string{"side", "symbol"},
		),
		TradeVolume: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "execengine_trade_volume_quote",
				Help: "Total traded notional in quote currency",
			},
			[]string{"side"},
		),
		TradeFees: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "execengine_trade_fees_quote",
				Help: "Total fees paid in quote currency",
			},
			[]string{},
		),
		TradeSlippage: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "execengine_trade_slippage_bps",
				Help:    "Realized slippage vs. reference price, in basis points",
				Buckets: []float64{0, 1, 2, 5, 10, 25, 50, 100, 200, 500},
			},
			[]string{"side"},
		),

		PositionSize: prometheus.NewGaugeVec(
			prometheus.GaugeOpts{
				Name: "execengine_position_size",
				Help: "Current signed position size",
			},
			[]string{"symbol"},
		),
		PositionValue: prometheus.NewGaugeVec(
			prometheus.GaugeOpts{
				Name: "execengine_position_value_quote",
				Help: "Current position value in quote currency",
			},
			[]string{"symbol"},
		),
		UnrealizedPnL: prometheus.NewGaugeVec(
			prometheus.GaugeOpts{
				Name: "execengine_unrealized_pnl_quote",
				Help: "Unrealized P&L in quote currency",
			},
			[]string{"symbol"},
		),
		RealizedPnL: prometheus.NewGaugeVec(
			prometheus.GaugeOpts{
				Name: "execengine_realized_pnl_quote",
				Help: "Realized P&L in quote currency (can be negative)",
			},
			[]string{"symbol"},
		),

		AccountBalance: prometheus.NewGaugeVec(
			prometheus.GaugeOpts{
				Name: "execengine_account_balance",
				Help: "Current account balance by asset",
			},
			[]string{"asset"},
		),
		TotalExposure: prometheus.NewGauge(
			prometheus.GaugeOpts{
				Name: "execengine_total_exposure_quote",
				Help: "Total open-position exposure in quote currency",
			},
		),
		DailyPnL: prometheus.NewGauge(
			prometheus.GaugeOpts{
				Name: "execengine_daily_pnl_quote",
				Help: "Today's realized + unrealized P&L in quote currency",
			},
		),
		DrawdownPct: prometheus.NewGauge(
			prometheus.GaugeOpts{
				Name: "execengine_drawdown_pct",
				Help: "Current drawdown from equity peak, as a fraction",
			},
		),

		ExecutionsStarted: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "execengine_executions_started_total",
				Help: "Total execution algorithm instances started",
			},
			[]string{"kind", "side"},
		),
		ExecutionDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "execengine_execution_duration_seconds",
				Help:    "Wall-clock duration of a completed execution instance",
				Buckets: prometheus.ExponentialBuckets(1, 2, 14),
			},
			[]string{"kind"},
		),
		ExecutionFillPct: prometheus.NewGaugeVec(
			prometheus.GaugeOpts{
				Name: "execengine_execution_fill_ratio",
				Help: "Fraction of total quantity filled for the current execution instance",
			},
			[]string{"kind", "symbol"},
		),
		ActiveExecutions: prometheus.NewGaugeVec(
			prometheus.GaugeOpts{
				Name: "execengine_active_executions",
				Help: "Number of currently running execution algorithm instances",
			},
			[]string{"kind"},
		),

		SignalsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "execengine_signals_total",
				Help: "Total analyzed signals produced by the signal analyzer",
			},
			[]string{"label"},
		),
		SignalStrength: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "execengine_signal_strength",
				Help:    "Analyzed signal strength (-1 to 1)",
				Buckets: prometheus.LinearBuckets(-1, 0.2, 11),
			},
			[]string{"label"},
		),
		SignalConfidence: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "execengine_signal_confidence",
				Help:    "Analyzed signal confidence (0 to 1)",
				Buckets: prometheus.LinearBuckets(0, 0.1, 11),
			},
			[]string{"label"},
		),
		ActiveStrategies: prometheus.NewGauge(
			prometheus.GaugeOpts{
				Name: "execengine_active_strategies",
				Help: "Number of currently active strategies",
			},
		),
	}

	em.registerAll()
	return em
}

func (em *EngineMetrics) registerAll() {
	em.registry.MustRegister(
		em.OrdersTotal,
		em.OrderDuration,
		em.OrderSize,
		em.OpenOrders,
		em.TradesTotal,
		em.TradeVolume,
		em.TradeFees,
		em.TradeSlippage,
		em.PositionSize,
		em.PositionValue,
		em.UnrealizedPnL,
		em.RealizedPnL,
		em.AccountBalance,
		em.TotalExposure,
		em.DailyPnL,
		em.DrawdownPct,
		em.ExecutionsStarted,
		em.ExecutionDuration,
		em.ExecutionFillPct,
		em.ActiveExecutions,
		em.SignalsTotal,
		em.SignalStrength,
		em.SignalConfidence,
		em.ActiveStrategies,
	)
}

// Registry returns the underlying Prometheus registry, for wiring into an
// HTTP handler via promhttp.HandlerFor.
func (em *EngineMetrics) Registry() *prometheus.Registry {
	return em.registry
}

// --- Recording helpers ---

// RecordOrder records an order submission.
func (em *EngineMetrics) RecordOrder(side, orderType, status string, sizeQuote float64) {
	em.OrdersTotal.WithLabelValues(side, orderType, status).Inc()
	if sizeQuote > 0 {
		em.OrderSize.WithLabelValues(side).Observe(sizeQuote)
	}
}

// RecordOrderTerminal records the time an order took to reach a terminal
// status.
func (em *EngineMetrics) RecordOrderTerminal(side, orderType string, durationSec float64) {
	em.OrderDuration.WithLabelValues(side, orderType).Observe(durationSec)
}

// SetOpenOrders sets the current open-order count for a symbol.
func (em *EngineMetrics) SetOpenOrders(symbol string, count int) {
	em.OpenOrders.WithLabelValues(symbol).Set(float64(count))
}

// RecordTrade records a completed trade.
func (em *EngineMetrics) RecordTrade(side, symbol string, volumeQuote, feeQuote, slippageBps float64) {
	em.TradesTotal.WithLabelValues(side, symbol).Inc()
	em.TradeVolume.WithLabelValues(side).Add(volumeQuote)
	em.TradeFees.WithLabelValues().Add(feeQuote)
	if slippageBps >= 0 {
		em.TradeSlippage.WithLabelValues(side).Observe(slippageBps)
	}
}

// UpdatePosition sets the current size/value/unrealized-P&L of a position.
func (em *EngineMetrics) UpdatePosition(symbol string, size, valueQuote, unrealizedPnL float64) {
	em.PositionSize.WithLabelValues(symbol).Set(size)
	em.PositionValue.WithLabelValues(symbol).Set(valueQuote)
	em.UnrealizedPnL.WithLabelValues(symbol).Set(unrealizedPnL)
}

// RecordRealizedPnL adds pnlQuote, which may be negative, to a symbol's
// realized P&L gauge.
func (em *EngineMetrics) RecordRealizedPnL(symbol string, pnlQuote float64) {
	em.RealizedPnL.WithLabelValues(symbol).Add(pnlQuote)
}

// UpdateAccount sets balance-by-asset and the account-wide gauges.
func (em *EngineMetrics) UpdateAccount(asset string, balance, totalExposure, dailyPnL, drawdownPct float64) {
	em.AccountBalance.WithLabelValues(asset).Set(balance)
	em.TotalExposure.Set(totalExposure)
	em.DailyPnL.Set(dailyPnL)
	em.DrawdownPct.Set(drawdownPct)
}

// RecordExecutionStart records the start of an execution algorithm instance.
func (em *EngineMetrics) RecordExecutionStart(kind, side string) {
	em.ExecutionsStarted.WithLabelValues(kind, side).Inc()
}

// RecordExecutionDone records the terminal duration of an execution instance.
func (em *EngineMetrics) RecordExecutionDone(kind string, durationSec float64) {
	em.ExecutionDuration.WithLabelValues(kind).Observe(durationSec)
}

// SetExecutionFillRatio sets the current fraction filled for a running
// execution instance.
func (em *EngineMetrics) SetExecutionFillRatio(kind, symbol string, ratio float64) {
	em.ExecutionFillPct.WithLabelValues(kind, symbol).Set(ratio)
}

// SetActiveExecutions sets the count of currently running instances of kind.
func (em *EngineMetrics) SetActiveExecutions(kind string, count int) {
	em.ActiveExecutions.WithLabelValues(kind).Set(float64(count))
}

// RecordSignal records one analyzed signal.
func (em *EngineMetrics) RecordSignal(label string, strength, confidence float64) {
	em.SignalsTotal.WithLabelValues(label).Inc()
	em.SignalStrength.WithLabelValues(label).Observe(strength)
	em.SignalConfidence.WithLabelValues(label).Observe(confidence)
}

// SetActiveStrategies sets the count of currently active strategies.
func (em *EngineMetrics) SetActiveStrategies(count int) {
	em.ActiveStrategies.Set(float64(count))
}

// DecimalToFloat64 converts a decimal.Decimal to float64 for metrics
// recording, where Prometheus's API leaves no room for decimal.Decimal.
func DecimalToFloat64(d decimal.Decimal) float64 {
	f, _ := d.Float64()
	return f
}

var (
	defaultMetrics *EngineMetrics
	once           sync.Once
)

// Default returns a process-wide singleton, built lazily on first use.
func Default() *EngineMetrics {
	once.Do(func() { defaultMetrics = New() })
	return defaultMetrics
}
