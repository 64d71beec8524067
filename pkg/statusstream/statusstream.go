// Package statusstream broadcasts order-status updates to subscribers,
// adapted from streaming.Hub: a best-effort, drop-on-full-buffer publisher
// keyed by client_id rather than a single global WebSocket fan-out, since
// the order manager's subscribe_status contract is per-client.
package statusstream

import (
	"log"
	"sync"

	"github.com/xquant-go/engine/pkg/order"
)

// StatusUpdate is published whenever an order's status changes.
type StatusUpdate struct {
	OrderID string
	Status  order.Status
}

const clientBufferSize = 256

// Hub fans status updates out to per-client channels. An update published
// while a subscriber's buffer is full is dropped for that subscriber rather
// than blocking the publisher, mirroring streaming.Hub.broadcastEvent's
// non-blocking send.
type Hub struct {
	mu      sync.RWMutex
	clients map[string]chan StatusUpdate // client_id -> channel
}

// New creates an empty Hub.
func New() *Hub {
	return &Hub{clients: make(map[string]chan StatusUpdate)}
}

// Subscribe registers a client and returns its update channel. Calling
// Subscribe again for the same client_id replaces the previous channel.
func (h *Hub) Subscribe(clientID string) <-chan StatusUpdate {
	h.mu.Lock()
	defer h.mu.Unlock()
	ch := make(chan StatusUpdate, clientBufferSize)
	h.clients[clientID] = ch
	return ch
}

// Unsubscribe removes a client and closes its channel.
func (h *Hub) Unsubscribe(clientID string) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if ch, ok := h.clients[clientID]; ok {
		close(ch)
		delete(h.clients, clientID)
	}
}

// Publish sends an update to a specific client, dropping it if the
// client's buffer is full.
func (h *Hub) Publish(clientID string, update StatusUpdate) {
	h.mu.RLock()
	ch, ok := h.clients[clientID]
	h.mu.RUnlock()
	if !ok {
		return
	}
	select {
	case ch <- update:
	default:
		log.Printf("[statusstream] client %s buffer full, dropping update for order %s", clientID, update.OrderID)
	}
}

// Broadcast sends an update to every subscribed client, best-effort.
func (h *Hub) Broadcast(update StatusUpdate) {
	h.mu.RLock()
	defer h.mu.RUnlock()
	for clientID, ch := range h.clients {
		select {
		case ch <- update:
		default:
			log.Printf("[statusstream] client %s buffer full, dropping update for order %s", clientID, update.OrderID)
		}
	}
}

// ClientCount returns the number of subscribed clients.
func (h *Hub) ClientCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients)
}
