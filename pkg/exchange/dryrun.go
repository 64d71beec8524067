package exchange

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/shopspring/decimal"

	"github.com/xquant-go/engine/pkg/bar"
	"github.com/xquant-go/engine/pkg/execerr"
	"github.com/xquant-go/engine/pkg/order"
)

// DryRun records every submission it receives but never routes an order
// anywhere; useful for rehearsing a strategy's order flow against a live
// market-data feed without risking capital.
type DryRun struct {
	mu   sync.RWMutex
	seq  int64
	logs []*order.Order
	data Exchange // delegate for market-data/historical reads only
}

// NewDryRun wraps a real market-data source; order mutation methods are
// intercepted and recorded instead of forwarded.
func NewDryRun(marketData Exchange) *DryRun {
	return &DryRun{logs: make([]*order.Order, 0), data: marketData}
}

// Recorded returns every order ever submitted through this instance.
func (d *DryRun) Recorded() []*order.Order {
	d.mu.RLock()
	defer d.mu.RUnlock()
	out := make([]*order.Order, len(d.logs))
	copy(out, d.logs)
	return out
}

func (d *DryRun) SubmitOrder(ctx context.Context, o *order.Order) (string, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.seq++
	id := fmt.Sprintf("dryrun-%d", d.seq)
	cp := *o
	cp.ID = id
	cp.Status = order.New
	cp.CreatedAtMs = time.Now().UnixMilli()
	d.logs = append(d.logs, &cp)
	return id, nil
}

func (d *DryRun) CancelOrder(ctx context.Context, id string) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	for _, o := range d.logs {
		if o.ID == id {
			o.Status = order.Cancelled
			return nil
		}
	}
	return execerr.New(execerr.OrderNotFound, id)
}

func (d *DryRun) ModifyOrder(ctx context.Context, id string, o *order.Order) (string, error) {
	return "", execerr.New(execerr.InvalidParameter, "dry-run exchange does not support modify")
}

func (d *DryRun) GetOrderStatus(ctx context.Context, id string) (order.Status, error) {
	d.mu.RLock()
	defer d.mu.RUnlock()
	for _, o := range d.logs {
		if o.ID == id {
			return o.Status, nil
		}
	}
	return 0, execerr.New(execerr.OrderNotFound, id)
}

func (d *DryRun) GetOpenOrders(ctx context.Context) ([]*order.Order, error) {
	d.mu.RLock()
	defer d.mu.RUnlock()
	out := make([]*order.Order, 0)
	for _, o := range d.logs {
		if !o.Status.Terminal() {
			out = append(out, o)
		}
	}
	return out, nil
}

func (d *DryRun) GetRecentTrades(ctx context.Context, symbol string, limit int) ([]order.Trade, error) {
	return nil, nil // dry-run never fills, so it never produces trades
}

func (d *DryRun) GetMarketData(ctx context.Context, symbol string) (bar.MarketBar, error) {
	if d.data == nil {
		return bar.MarketBar{}, execerr.New(execerr.DataNotFound, symbol)
	}
	return d.data.GetMarketData(ctx, symbol)
}

func (d *DryRun) GetHistoricalData(ctx context.Context, symbol, interval string, startMs, endMs int64, limit int) ([]bar.MarketBar, error) {
	if d.data == nil {
		return nil, execerr.New(execerr.DataNotFound, symbol)
	}
	return d.data.GetHistoricalData(ctx, symbol, interval, startMs, endMs, limit)
}

func (d *DryRun) GetBalance(ctx context.Context, asset string) (decimal.Decimal, error) {
	return decimal.Zero, nil
}
