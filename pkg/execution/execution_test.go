package execution

import (
	"testing"

	"github.com/shopspring/decimal"

	"github.com/xquant-go/engine/pkg/order"
)

func TestNewChildOrderAssignsClientIDAndFields(t *testing.T) {
	o := newChildOrder("BTCUSDT", order.Buy, decimal.NewFromInt(1), order.Market, decimal.Zero)
	if o.ClientID == "" {
		t.Error("expected a client id to be assigned")
	}
	if o.Symbol != "BTCUSDT" || o.Side != order.Buy || o.Type != order.Market {
		t.Errorf("unexpected child order fields: %+v", o)
	}
	if o.Status != order.New {
		t.Errorf("expected new child orders to start in New status, got %v", o.Status)
	}
}

func TestIsLivePending(t *testing.T) {
	live := []order.Status{order.New, order.PartiallyFilled}
	for _, s := range live {
		if !isLivePending(s) {
			t.Errorf("expected %v to be live-pending", s)
		}
	}
	terminal := []order.Status{order.Filled, order.Cancelled, order.Rejected, order.Expired}
	for _, s := range terminal {
		if isLivePending(s) {
			t.Errorf("expected %v to not be live-pending", s)
		}
	}
}
