package validate

import (
	"testing"

	"github.com/shopspring/decimal"

	"github.com/xquant-go/engine/pkg/execerr"
	"github.com/xquant-go/engine/pkg/order"
)

func TestBasicRejectsNonPositiveQuantity(t *testing.T) {
	b := Basic{}
	err := b.Validate(&order.Order{Quantity: decimal.Zero})
	if !execerr.Is(err, execerr.InvalidParameter) {
		t.Fatalf("expected InvalidParameter, got %v", err)
	}
}

func TestBasicEnforcesMinAndMax(t *testing.T) {
	b := Basic{MinQuantity: decimal.NewFromFloat(0.01), MaxQuantity: decimal.NewFromInt(100)}

	if err := b.Validate(&order.Order{Quantity: decimal.NewFromFloat(0.001)}); !execerr.Is(err, execerr.InvalidParameter) {
		t.Errorf("expected below-minimum quantity to fail, got %v", err)
	}
	if err := b.Validate(&order.Order{Quantity: decimal.NewFromInt(1000)}); !execerr.Is(err, execerr.InvalidParameter) {
		t.Errorf("expected above-maximum quantity to fail, got %v", err)
	}
	if err := b.Validate(&order.Order{Quantity: decimal.NewFromInt(10)}); err != nil {
		t.Errorf("expected an in-range quantity to pass, got %v", err)
	}
}

func TestBasicRejectsNegativePrice(t *testing.T) {
	b := Basic{}
	err := b.Validate(&order.Order{Quantity: decimal.NewFromInt(1), Price: decimal.NewFromInt(-1)})
	if !execerr.Is(err, execerr.InvalidParameter) {
		t.Fatalf("expected InvalidParameter for negative price, got %v", err)
	}
}

func TestRiskEnforcesPositionAndNotionalCaps(t *testing.T) {
	r := Risk{MaxPositionSize: decimal.NewFromInt(10), MaxNotionalValue: decimal.NewFromInt(1000)}

	if err := r.Validate(&order.Order{Quantity: decimal.NewFromInt(20), Price: decimal.NewFromInt(1)}); !execerr.Is(err, execerr.RiskLimitExceeded) {
		t.Errorf("expected position size cap to trigger, got %v", err)
	}
	if err := r.Validate(&order.Order{Quantity: decimal.NewFromInt(5), Price: decimal.NewFromInt(500)}); !execerr.Is(err, execerr.RiskLimitExceeded) {
		t.Errorf("expected notional cap to trigger, got %v", err)
	}
	if err := r.Validate(&order.Order{Quantity: decimal.NewFromInt(5), Price: decimal.NewFromInt(10)}); err != nil {
		t.Errorf("expected a within-limits order to pass, got %v", err)
	}
}

func TestChainShortCircuitsOnFirstFailure(t *testing.T) {
	var secondCalled bool
	first := ValidatorFunc(func(o *order.Order) error {
		return execerr.New(execerr.InvalidParameter, "first fails")
	})
	second := ValidatorFunc(func(o *order.Order) error {
		secondCalled = true
		return nil
	})

	chain := NewChain(first, second)
	if err := chain.Check(&order.Order{}); !execerr.Is(err, execerr.InvalidParameter) {
		t.Fatalf("expected the first validator's error, got %v", err)
	}
	if secondCalled {
		t.Error("expected the chain to short-circuit before the second validator")
	}
}

func TestChainPassesWhenAllValidatorsPass(t *testing.T) {
	chain := NewChain(Basic{}, Risk{})
	err := chain.Check(&order.Order{Quantity: decimal.NewFromInt(1), Price: decimal.NewFromInt(10)})
	if err != nil {
		t.Errorf("expected a clean order to pass the full chain, got %v", err)
	}
}
