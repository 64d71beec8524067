// Package ordermanager implements the order manager (C4): creates, cancels,
// and modifies orders against an Exchange, assigns ids, tracks status, and
// fans out status changes to subscribers. Grounded on paper.Engine's
// PlaceOrder/CancelOrder pipeline for the synchronous path and
// orchestrator.Orchestrator's ticker+stopCh background-loop idiom for
// start_monitoring.
package ordermanager

import (
	"context"
	"log"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/xquant-go/engine/pkg/exchange"
	"github.com/xquant-go/engine/pkg/execerr"
	"github.com/xquant-go/engine/pkg/metrics"
	"github.com/xquant-go/engine/pkg/order"
	"github.com/xquant-go/engine/pkg/orderrepo"
	"github.com/xquant-go/engine/pkg/statusstream"
	"github.com/xquant-go/engine/pkg/validate"
)

// DefaultMonitorInterval is the default polling cadence for start_monitoring.
const DefaultMonitorInterval = 1 * time.Second

// Manager mediates between strategies/execution algorithms and an Exchange.
type Manager struct {
	exchange exchange.Exchange
	repo     *orderrepo.Repository
	chain    *validate.Chain
	hub      *statusstream.Hub

	monitorInterval time.Duration

	mu      sync.Mutex
	running bool
	stopCh  chan struct{}
}

// New creates a Manager. chain may be nil (no validation).
func New(ex exchange.Exchange, chain *validate.Chain) *Manager {
	return &Manager{
		exchange:        ex,
		repo:            orderrepo.New(),
		chain:           chain,
		hub:             statusstream.New(),
		monitorInterval: DefaultMonitorInterval,
	}
}

// SetMonitorInterval overrides the default polling cadence; call before StartMonitoring.
func (m *Manager) SetMonitorInterval(d time.Duration) {
	m.monitorInterval = d
}

// CreateOrder runs the validator chain, assigns a client id if absent,
// persists a provisional record, submits to the exchange, then updates the
// record with the assigned id. If submission fails after persistence, the
// provisional record is deleted before the error is surfaced — the caller
// never observes a half-state.
func (m *Manager) CreateOrder(ctx context.Context, o *order.Order) (string, error) {
	if m.chain != nil {
		if err := m.chain.Check(o); err != nil {
			return "", err
		}
	}

	if o.ClientID == "" {
		o.ClientID = uuid.New().String()
	}
	if o.TimeInForce == "" {
		o.TimeInForce = order.DefaultTimeInForce
	}
	if o.CreatedAtMs == 0 {
		o.CreatedAtMs = time.Now().UnixMilli()
	}

	provisional := *o
	provisional.ID = "pending-" + o.ClientID
	provisional.Status = order.New
	m.repo.Put(&provisional)

	id, err := m.exchange.SubmitOrder(ctx, o)
	if err != nil {
		m.repo.Delete(provisional.ID)
		return "", execerr.Wrap(execerr.ExchangeError, "submit order", err)
	}

	final := *o
	final.ID = id
	final.Status = order.New
	m.repo.Delete(provisional.ID)
	m.repo.Put(&final)

	metrics.Default().RecordOrder(o.Side.String(), o.Type.String(), final.Status.String(), metrics.DecimalToFloat64(o.Price.Mul(o.Quantity)))

	return id, nil
}

// CancelOrder cancels an order by id. Idempotent: cancelling an order that
// is already terminal succeeds silently, matching §8's idempotence rule.
func (m *Manager) CancelOrder(ctx context.Context, id string) error {
	existing, err := m.repo.Get(id)
	if err != nil {
		return err
	}
	if existing.Status.Terminal() {
		return nil
	}
	if err := m.exchange.CancelOrder(ctx, id); err != nil {
		return execerr.Wrap(execerr.ExchangeError, "cancel order", err)
	}
	existing.Status = order.Cancelled
	m.repo.Put(existing)
	m.hub.Broadcast(statusstream.StatusUpdate{OrderID: id, Status: order.Cancelled})
	return nil
}

// ModifyOrder forwards the amendment to the exchange's ModifyOrder, records o
// in the repository under the id the exchange returns, and returns that id;
// the old order's record is left unchanged. Any exchange failure, including
// a venue that cannot amend in place, is returned wrapped as ExchangeError.
func (m *Manager) ModifyOrder(ctx context.Context, id string, o *order.Order) (string, error) {
	newID, err := m.exchange.ModifyOrder(ctx, id, o)
	if err != nil {
		return "", execerr.Wrap(execerr.ExchangeError, "modify order", err)
	}
	final := *o
	final.ID = newID
	m.repo.Put(&final)
	return newID, nil
}

// GetOrderStatus returns the last known status of an order.
func (m *Manager) GetOrderStatus(id string) (order.Status, error) {
	o, err := m.repo.Get(id)
	if err != nil {
		return 0, err
	}
	return o.Status, nil
}

// GetOpenOrders returns every order not yet in a terminal state.
func (m *Manager) GetOpenOrders() []*order.Order {
	return m.repo.Open()
}

// SubscribeStatus registers a client for best-effort status push.
func (m *Manager) SubscribeStatus(clientID string) <-chan statusstream.StatusUpdate {
	return m.hub.Subscribe(clientID)
}

// StatusHub exposes the underlying fan-out hub, for transports (e.g. a
// WebSocket handler) that need to subscribe/unsubscribe clients directly.
func (m *Manager) StatusHub() *statusstream.Hub {
	return m.hub
}

// UnsubscribeStatus removes a client's subscription.
func (m *Manager) UnsubscribeStatus(clientID string) {
	m.hub.Unsubscribe(clientID)
}

// StartMonitoring spawns a background task that, at a fixed cadence, polls
// the exchange for every non-terminal order and publishes state changes.
func (m *Manager) StartMonitoring(ctx context.Context) {
	m.mu.Lock()
	if m.running {
		m.mu.Unlock()
		return
	}
	m.running = true
	m.stopCh = make(chan struct{})
	m.mu.Unlock()

	go m.monitorLoop(ctx)
}

// StopMonitoring stops the background poller; idempotent.
func (m *Manager) StopMonitoring() {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.running {
		close(m.stopCh)
		m.running = false
	}
}

func (m *Manager) monitorLoop(ctx context.Context) {
	ticker := time.NewTicker(m.monitorInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-m.stopCh:
			return
		case <-ticker.C:
			m.pollOnce(ctx)
		}
	}
}

func (m *Manager) pollOnce(ctx context.Context) {
	for _, o := range m.repo.Open() {
		status, err := m.exchange.GetOrderStatus(ctx, o.ID)
		if err != nil {
			log.Printf("[ordermanager] poll %s: %v", o.ID, err)
			continue
		}
		if status == o.Status {
			continue
		}
		o.Status = status
		m.repo.Put(o)
		m.hub.Broadcast(statusstream.StatusUpdate{OrderID: o.ID, Status: status})

		if status.Terminal() {
			durationSec := float64(time.Now().UnixMilli()-o.CreatedAtMs) / 1000
			metrics.Default().RecordOrderTerminal(o.Side.String(), o.Type.String(), durationSec)
		}
		if status == order.Filled {
			volumeQuote := metrics.DecimalToFloat64(o.AvgFillPrice.Mul(o.FilledQty))
			metrics.Default().RecordTrade(o.Side.String(), o.Symbol, volumeQuote, 0, -1)
		}
	}
}
