// Package strategymanager implements a strategy registry: it multiplexes
// bars out to every active strategy and collects their orders back in
// registration order, synchronously. Grounded on orchestrator.Orchestrator's
// registry+RWMutex structure.
package strategymanager

import (
	"sync"

	"github.com/xquant-go/engine/pkg/bar"
	"github.com/xquant-go/engine/pkg/execerr"
	"github.com/xquant-go/engine/pkg/order"
	"github.com/xquant-go/engine/pkg/strategy"
)

// Status is a point-in-time snapshot of a registered strategy.
type Status struct {
	Name        string
	Description string
	IsActive    bool
}

// Manager is the registry keyed by strategy name (unique).
type Manager struct {
	mu       sync.RWMutex
	byName   map[string]strategy.Strategy
	order    []string // registration order, for list() and get_all_orders()
	actives  map[string]bool
}

// New builds an empty strategy manager.
func New() *Manager {
	return &Manager{
		byName:  make(map[string]strategy.Strategy),
		actives: make(map[string]bool),
	}
}

// Add registers a strategy; it joins the active set immediately with
// is_active=true, regardless of the strategy's current internal IsActive
// state.
func (m *Manager) Add(s strategy.Strategy) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	name := s.Name()
	if _, exists := m.byName[name]; exists {
		return execerr.New(execerr.DuplicateStrategy, name)
	}
	s.SetActive(true)
	m.byName[name] = s
	m.order = append(m.order, name)
	m.actives[name] = true
	return nil
}

// Remove deletes a strategy from the registry.
func (m *Manager) Remove(name string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, exists := m.byName[name]; !exists {
		return execerr.New(execerr.StrategyNotFound, name)
	}
	delete(m.byName, name)
	delete(m.actives, name)
	for i, n := range m.order {
		if n == name {
			m.order = append(m.order[:i], m.order[i+1:]...)
			break
		}
	}
	return nil
}

// SetActive flips whether a registered strategy receives bars.
func (m *Manager) SetActive(name string, active bool) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	s, exists := m.byName[name]
	if !exists {
		return execerr.New(execerr.StrategyNotFound, name)
	}
	s.SetActive(active)
	m.actives[name] = active
	return nil
}

// UpdateAll fans a bar out to every active strategy, in registration order.
// The first failure short-circuits the fan-out and is returned.
func (m *Manager) UpdateAll(b bar.MarketBar) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, name := range m.order {
		if !m.actives[name] {
			continue
		}
		if err := m.byName[name].Update(b); err != nil {
			return err
		}
	}
	return nil
}

// GetAllOrders concatenates each active strategy's drained orders, in
// registration order.
func (m *Manager) GetAllOrders() ([]*order.Order, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []*order.Order
	for _, name := range m.order {
		if !m.actives[name] {
			continue
		}
		orders, err := m.byName[name].GetOrders()
		if err != nil {
			return nil, err
		}
		out = append(out, orders...)
	}
	return out, nil
}

// List returns every registered strategy's status, in registration order.
func (m *Manager) List() []Status {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make([]Status, 0, len(m.order))
	for _, name := range m.order {
		s := m.byName[name]
		out = append(out, Status{Name: s.Name(), Description: s.Description(), IsActive: s.IsActive()})
	}
	return out
}

// GetStatus returns the status of one registered strategy.
func (m *Manager) GetStatus(name string) (Status, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	s, exists := m.byName[name]
	if !exists {
		return Status{}, execerr.New(execerr.StrategyNotFound, name)
	}
	return Status{Name: s.Name(), Description: s.Description(), IsActive: s.IsActive()}, nil
}
