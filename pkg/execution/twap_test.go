package execution

import (
	"context"
	"testing"
	"time"

	"github.com/shopspring/decimal"

	"github.com/xquant-go/engine/pkg/exchange"
	"github.com/xquant-go/engine/pkg/execerr"
	"github.com/xquant-go/engine/pkg/order"
)

func TestNewTWAPRejectsZeroSlices(t *testing.T) {
	_, err := NewTWAP(nil, "BTCUSDT", order.Buy, decimal.NewFromInt(10), 1000, 0)
	if !execerr.Is(err, execerr.InvalidParameter) {
		t.Fatalf("expected InvalidParameter, got %v", err)
	}
}

func TestTWAPRunsAllSlicesAndFinishes(t *testing.T) {
	ex := exchange.NewMock(1, map[string]decimal.Decimal{"quote": decimal.NewFromInt(100000)})
	ex.SeedPrice("BTCUSDT", decimal.NewFromInt(100))

	twap, err := NewTWAP(ex, "BTCUSDT", order.Buy, decimal.NewFromInt(10), 30, 5) // 6ms/slice
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	if err := twap.Start(ctx); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	deadline := time.Now().Add(1 * time.Second)
	for time.Now().Before(deadline) {
		if !twap.Status().IsActive {
			break
		}
		time.Sleep(5 * time.Millisecond)
	}

	status := twap.Status()
	if status.IsActive {
		t.Fatal("expected TWAP to finish within the test deadline")
	}
	if !status.ExecutedQuantity.Equal(decimal.NewFromInt(10)) {
		t.Errorf("expected full quantity executed, got %s", status.ExecutedQuantity)
	}
	if len(status.ChildOrderIDs) != 5 {
		t.Errorf("expected 5 child orders, got %d", len(status.ChildOrderIDs))
	}
}

func TestTWAPStartTwiceReturnsAlreadyRunning(t *testing.T) {
	ex := exchange.NewMock(1, nil)
	ex.SeedPrice("BTCUSDT", decimal.NewFromInt(100))
	twap, _ := NewTWAP(ex, "BTCUSDT", order.Buy, decimal.NewFromInt(10), 10000, 2)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	if err := twap.Start(ctx); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	err := twap.Start(ctx)
	if !execerr.Is(err, execerr.AlreadyRunning) {
		t.Fatalf("expected AlreadyRunning, got %v", err)
	}
	twap.Stop()
}

func TestTWAPStopHaltsFurtherSlices(t *testing.T) {
	ex := exchange.NewMock(1, map[string]decimal.Decimal{"quote": decimal.NewFromInt(100000)})
	ex.SeedPrice("BTCUSDT", decimal.NewFromInt(100))
	twap, _ := NewTWAP(ex, "BTCUSDT", order.Buy, decimal.NewFromInt(10), 10000, 5) // 2s/slice

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	twap.Start(ctx)
	time.Sleep(10 * time.Millisecond)
	twap.Stop()

	status := twap.Status()
	if status.IsActive {
		t.Error("expected TWAP to be inactive after Stop")
	}
	executedAtStop := status.ExecutedQuantity
	time.Sleep(50 * time.Millisecond)
	if !twap.Status().ExecutedQuantity.Equal(executedAtStop) {
		t.Error("expected no further slices to execute after Stop")
	}
}
