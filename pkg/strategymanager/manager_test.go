package strategymanager

import (
	"testing"

	"github.com/xquant-go/engine/pkg/bar"
	"github.com/xquant-go/engine/pkg/execerr"
	"github.com/xquant-go/engine/pkg/order"
)

// fakeStrategy is a minimal strategy.Strategy stub for registry tests.
type fakeStrategy struct {
	name     string
	active   bool
	updates  int
	toEmit   []*order.Order
	failWith error
}

func (f *fakeStrategy) Name() string        { return f.name }
func (f *fakeStrategy) Description() string { return "fake" }
func (f *fakeStrategy) IsActive() bool      { return f.active }
func (f *fakeStrategy) SetActive(a bool)    { f.active = a }
func (f *fakeStrategy) Update(b bar.MarketBar) error {
	f.updates++
	return f.failWith
}
func (f *fakeStrategy) GetOrders() ([]*order.Order, error) {
	out := f.toEmit
	f.toEmit = nil
	return out, nil
}

func TestAddActivatesAndRejectsDuplicate(t *testing.T) {
	m := New()
	s := &fakeStrategy{name: "a"}
	if err := m.Add(s); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !s.active {
		t.Error("Add should force the strategy active regardless of its prior state")
	}

	err := m.Add(&fakeStrategy{name: "a"})
	if !execerr.Is(err, execerr.DuplicateStrategy) {
		t.Fatalf("expected DuplicateStrategy, got %v", err)
	}
}

func TestRemoveUnknownReturnsNotFound(t *testing.T) {
	m := New()
	err := m.Remove("ghost")
	if !execerr.Is(err, execerr.StrategyNotFound) {
		t.Fatalf("expected StrategyNotFound, got %v", err)
	}
}

func TestUpdateAllSkipsInactiveStrategies(t *testing.T) {
	m := New()
	active := &fakeStrategy{name: "active"}
	inactive := &fakeStrategy{name: "inactive"}
	m.Add(active)
	m.Add(inactive)
	m.SetActive("inactive", false)

	if err := m.UpdateAll(bar.MarketBar{Symbol: "BTCUSDT"}); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if active.updates != 1 {
		t.Errorf("expected active strategy to receive the update, got %d", active.updates)
	}
	if inactive.updates != 0 {
		t.Errorf("expected inactive strategy to be skipped, got %d updates", inactive.updates)
	}
}

func TestUpdateAllShortCircuitsOnFirstError(t *testing.T) {
	m := New()
	failer := &fakeStrategy{name: "failer", failWith: execerr.New(execerr.CalculationError, "boom")}
	after := &fakeStrategy{name: "after"}
	m.Add(failer)
	m.Add(after)

	err := m.UpdateAll(bar.MarketBar{Symbol: "BTCUSDT"})
	if !execerr.Is(err, execerr.CalculationError) {
		t.Fatalf("expected CalculationError, got %v", err)
	}
	if after.updates != 0 {
		t.Error("expected the fan-out to short-circuit before reaching later strategies")
	}
}

func TestGetAllOrdersConcatenatesInRegistrationOrder(t *testing.T) {
	m := New()
	first := &fakeStrategy{name: "first", toEmit: []*order.Order{{Symbol: "A"}}}
	second := &fakeStrategy{name: "second", toEmit: []*order.Order{{Symbol: "B"}, {Symbol: "C"}}}
	m.Add(first)
	m.Add(second)

	orders, err := m.GetAllOrders()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(orders) != 3 {
		t.Fatalf("expected 3 orders, got %d", len(orders))
	}
	if orders[0].Symbol != "A" || orders[1].Symbol != "B" || orders[2].Symbol != "C" {
		t.Errorf("expected orders concatenated in registration order, got %v", orders)
	}
}

func TestListReflectsCurrentStatus(t *testing.T) {
	m := New()
	m.Add(&fakeStrategy{name: "a"})
	m.SetActive("a", false)

	statuses := m.List()
	if len(statuses) != 1 || statuses[0].IsActive {
		t.Fatalf("expected list to reflect the deactivated status, got %+v", statuses)
	}
}
