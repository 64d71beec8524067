// Package runtime implements the per-symbol runtime loop (C10): fetch a
// bar, update strategies, drain orders, submit each via the order manager.
// Grounded on orchestrator.Orchestrator's ticker+context+stopCh loop idiom.
package runtime

import (
	"context"
	"log"
	"time"

	"github.com/xquant-go/engine/pkg/exchange"
	"github.com/xquant-go/engine/pkg/ordermanager"
	"github.com/xquant-go/engine/pkg/strategymanager"
)

// DefaultTickInterval is the runtime loop's default cadence (1 Hz).
const DefaultTickInterval = 1 * time.Second

// Loop ticks one configured symbol at a fixed cadence.
type Loop struct {
	Symbol       string
	Exchange     exchange.Exchange
	Strategies   *strategymanager.Manager
	Orders       *ordermanager.Manager
	TickInterval time.Duration

	stopCh chan struct{}
}

// NewLoop builds a runtime loop for one symbol.
func NewLoop(symbol string, ex exchange.Exchange, strategies *strategymanager.Manager, orders *ordermanager.Manager) *Loop {
	return &Loop{
		Symbol:       symbol,
		Exchange:     ex,
		Strategies:   strategies,
		Orders:       orders,
		TickInterval: DefaultTickInterval,
		stopCh:       make(chan struct{}),
	}
}

// Run blocks, ticking until ctx is cancelled or Stop is called.
func (l *Loop) Run(ctx context.Context) {
	interval := l.TickInterval
	if interval <= 0 {
		interval = DefaultTickInterval
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-l.stopCh:
			return
		case <-ticker.C:
			l.tick(ctx)
		}
	}
}

// Stop requests cooperative shutdown; safe to call once.
func (l *Loop) Stop() {
	close(l.stopCh)
}

func (l *Loop) tick(ctx context.Context) {
	b, err := l.Exchange.GetMarketData(ctx, l.Symbol)
	if err != nil {
		log.Printf("runtime(%s): market data fetch failed, skipping tick: %v", l.Symbol, err)
		return
	}

	if err := l.Strategies.UpdateAll(b); err != nil {
		log.Printf("runtime(%s): strategy update failed: %v", l.Symbol, err)
		return
	}

	orders, err := l.Strategies.GetAllOrders()
	if err != nil {
		log.Printf("runtime(%s): order drain failed: %v", l.Symbol, err)
		return
	}

	for _, o := range orders {
		if _, err := l.Orders.CreateOrder(ctx, o); err != nil {
			log.Printf("runtime(%s): order submission failed: %v", l.Symbol, err)
		}
	}
}
