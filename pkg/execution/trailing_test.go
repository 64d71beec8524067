package execution

import (
	"context"
	"testing"

	"github.com/shopspring/decimal"

	"github.com/xquant-go/engine/pkg/exchange"
	"github.com/xquant-go/engine/pkg/execerr"
	"github.com/xquant-go/engine/pkg/order"
)

func TestNewTrailingStopRejectsNonPositiveDelta(t *testing.T) {
	_, err := NewTrailingStop(nil, "BTCUSDT", order.Buy, decimal.NewFromInt(1), decimal.Zero, nil)
	if !execerr.Is(err, execerr.InvalidParameter) {
		t.Fatalf("expected InvalidParameter, got %v", err)
	}
}

func TestTrailingStopBuySideTriggersOnRetrace(t *testing.T) {
	ex := exchange.NewMock(1, map[string]decimal.Decimal{"quote": decimal.NewFromInt(100000)})
	ts := &TrailingStop{
		id: "t1", symbol: "BTCUSDT", side: order.Buy,
		quantity: decimal.NewFromInt(1), trailingDeltaPct: decimal.NewFromInt(5),
		ex: ex, isActive: true, activated: true,
		highestPrice: decimal.NewFromInt(100), lowestPrice: decimal.NewFromInt(100),
	}

	if finished := ts.step(context.Background(), decimal.NewFromInt(110)); finished {
		t.Fatal("expected no trigger while price is rising")
	}
	if !ts.highestPrice.Equal(decimal.NewFromInt(110)) {
		t.Errorf("expected highestPrice to ratchet up to 110, got %s", ts.highestPrice)
	}

	// stop price = 110 * 0.95 = 104.5; a retrace to 104 should trigger.
	if finished := ts.step(context.Background(), decimal.NewFromInt(104)); !finished {
		t.Fatal("expected the trailing stop to trigger on a 5% retrace from the high")
	}

	status := ts.Status()
	if !status.Executed || status.IsActive {
		t.Errorf("expected Executed=true, IsActive=false after trigger, got %+v", status)
	}
	if len(status.ChildOrderIDs) != 1 {
		t.Errorf("expected one child order id recorded, got %d", len(status.ChildOrderIDs))
	}
}

func TestTrailingStopSellSideTriggersOnBounce(t *testing.T) {
	ex := exchange.NewMock(1, map[string]decimal.Decimal{"quote": decimal.NewFromInt(100000)})
	ts := &TrailingStop{
		id: "t2", symbol: "BTCUSDT", side: order.Sell,
		quantity: decimal.NewFromInt(1), trailingDeltaPct: decimal.NewFromInt(5),
		ex: ex, isActive: true, activated: true,
		highestPrice: decimal.NewFromInt(100), lowestPrice: decimal.NewFromInt(100),
	}

	ts.step(context.Background(), decimal.NewFromInt(90))
	if !ts.lowestPrice.Equal(decimal.NewFromInt(90)) {
		t.Errorf("expected lowestPrice to ratchet down to 90, got %s", ts.lowestPrice)
	}

	// stop price = 90 * 1.05 = 94.5; a bounce to 95 should trigger.
	if finished := ts.step(context.Background(), decimal.NewFromInt(95)); !finished {
		t.Fatal("expected the trailing stop to trigger on a 5% bounce from the low")
	}
}

func TestTrailingStopWaitsForActivationPrice(t *testing.T) {
	ex := exchange.NewMock(1, nil)
	activation := decimal.NewFromInt(90)
	ts := &TrailingStop{
		id: "t3", symbol: "BTCUSDT", side: order.Buy,
		quantity: decimal.NewFromInt(1), trailingDeltaPct: decimal.NewFromInt(5),
		activationPrice: &activation,
		ex:              ex, isActive: true, activated: false,
		highestPrice: decimal.NewFromInt(100), lowestPrice: decimal.NewFromInt(100),
	}

	// price above activation: should not activate or ratchet the high.
	ts.step(context.Background(), decimal.NewFromInt(95))
	if ts.activated {
		t.Error("expected the trailing stop to remain dormant above its activation price")
	}

	// price at/below activation: now it activates.
	ts.step(context.Background(), decimal.NewFromInt(90))
	if !ts.activated {
		t.Error("expected activation once price reaches the activation threshold")
	}
}

func TestTrailingStopDoesNotRetriggerOnceExecuted(t *testing.T) {
	ex := exchange.NewMock(1, map[string]decimal.Decimal{"quote": decimal.NewFromInt(100000)})
	ts := &TrailingStop{
		id: "t4", symbol: "BTCUSDT", side: order.Buy,
		quantity: decimal.NewFromInt(1), trailingDeltaPct: decimal.NewFromInt(5),
		ex: ex, isActive: true, activated: true, executed: true,
		highestPrice: decimal.NewFromInt(100), lowestPrice: decimal.NewFromInt(100),
	}
	if finished := ts.step(context.Background(), decimal.NewFromInt(50)); finished {
		t.Error("expected an already-executed trailing stop to never fire again")
	}
}
