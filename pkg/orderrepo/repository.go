// Package orderrepo is the in-memory order repository (C2): a store of
// orders keyed by id and client-id, queryable by status/symbol. Grounded on
// paper.Engine's OpenOrders map + sync.RWMutex discipline, generalized to
// also retain terminal orders rather than deleting filled/cancelled entries,
// so get_order_status remains answerable after an order terminates.
package orderrepo

import (
	"sync"

	"github.com/xquant-go/engine/pkg/execerr"
	"github.com/xquant-go/engine/pkg/order"
)

// Repository stores orders under a single RWMutex, matching the manager's
// "serialized by the manager; external readers acquire a read lease" rule.
type Repository struct {
	mu         sync.RWMutex
	byID       map[string]*order.Order
	byClientID map[string]string // client_id -> id
}

// New creates an empty repository.
func New() *Repository {
	return &Repository{
		byID:       make(map[string]*order.Order),
		byClientID: make(map[string]string),
	}
}

// Put inserts or replaces an order record.
func (r *Repository) Put(o *order.Order) {
	r.mu.Lock()
	defer r.mu.Unlock()
	cp := *o
	r.byID[o.ID] = &cp
	if o.ClientID != "" {
		r.byClientID[o.ClientID] = o.ID
	}
}

// Get returns a copy of the order with the given id.
func (r *Repository) Get(id string) (*order.Order, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	o, ok := r.byID[id]
	if !ok {
		return nil, execerr.New(execerr.OrderNotFound, id)
	}
	cp := *o
	return &cp, nil
}

// GetByClientID resolves a previously assigned client_id to its order id,
// supporting idempotent resubmission.
func (r *Repository) GetByClientID(clientID string) (*order.Order, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	id, ok := r.byClientID[clientID]
	if !ok {
		return nil, false
	}
	o := r.byID[id]
	cp := *o
	return &cp, true
}

// Delete removes an order entirely (used to roll back a provisional record
// when submission to the exchange fails after persistence).
func (r *Repository) Delete(id string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if o, ok := r.byID[id]; ok {
		delete(r.byClientID, o.ClientID)
		delete(r.byID, id)
	}
}

// Open returns all orders whose status is non-terminal.
func (r *Repository) Open() []*order.Order {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]*order.Order, 0)
	for _, o := range r.byID {
		if !o.Status.Terminal() {
			cp := *o
			out = append(out, &cp)
		}
	}
	return out
}

// BySymbol returns all orders (any status) for a symbol.
func (r *Repository) BySymbol(symbol string) []*order.Order {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]*order.Order, 0)
	for _, o := range r.byID {
		if o.Symbol == symbol {
			cp := *o
			out = append(out, &cp)
		}
	}
	return out
}
