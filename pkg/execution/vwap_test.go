package execution

import (
	"context"
	"testing"
	"time"

	"github.com/shopspring/decimal"

	"github.com/xquant-go/engine/pkg/exchange"
	"github.com/xquant-go/engine/pkg/order"
)

func TestUniformWeightsSumToOne(t *testing.T) {
	weights := uniformWeights()
	sum := decimal.Zero
	for _, w := range weights {
		sum = sum.Add(w)
	}
	if diff := sum.Sub(decimal.NewFromInt(1)).Abs(); diff.GreaterThan(decimal.NewFromFloat(0.0001)) {
		t.Errorf("expected uniform weights to sum to 1, got %s", sum)
	}
}

func TestVWAPSplitterRunsToCompletion(t *testing.T) {
	ex := exchange.NewMock(1, map[string]decimal.Decimal{"quote": decimal.NewFromInt(100000)})
	ex.SeedPrice("BTCUSDT", decimal.NewFromInt(100))

	v := NewVWAPSplitter(ex, "BTCUSDT", order.Buy, decimal.NewFromInt(10), 50, nil) // 5ms/bucket

	ctx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
	defer cancel()
	if err := v.Start(ctx); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if !v.Status().IsActive {
			break
		}
		time.Sleep(10 * time.Millisecond)
	}

	status := v.Status()
	if status.IsActive {
		t.Fatal("expected the VWAP splitter to finish within the test deadline")
	}
	if !status.ExecutedQuantity.Equal(decimal.NewFromInt(10)) {
		t.Errorf("expected full quantity executed, got %s", status.ExecutedQuantity)
	}
}

func TestVWAPSplitterUpdatePrice(t *testing.T) {
	ex := exchange.NewMock(1, nil)
	v := NewVWAPSplitter(ex, "BTCUSDT", order.Buy, decimal.NewFromInt(10), 1000, nil)

	if err := v.UpdatePrice(decimal.NewFromInt(123)); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !v.lastPrice.Equal(decimal.NewFromInt(123)) {
		t.Errorf("expected lastPrice to be updated, got %s", v.lastPrice)
	}
}
