// Package lifecycle holds the driver's order collections and the status
// transition operations. Collections only change after the backend confirms;
// nothing here is optimistic.
package lifecycle

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/opencourier/driverd/internal/models"
	"github.com/opencourier/driverd/internal/normalize"
)

// MaxActiveOrders is how many orders a driver may fulfil at once. Enforced
// here, inside Accept, so no caller can bypass it.
const MaxActiveOrders = 2

var (
	ErrActiveLimit = errors.New("active order limit reached")
	ErrBadStatus   = errors.New("unsupported status transition")
)

// Transport is the slice of the backend client the manager needs.
type Transport interface {
	PendingOrders(ctx context.Context) ([]any, error)
	AcceptedOrders(ctx context.Context) ([]any, error)
	AcceptOrder(ctx context.Context, orderID string) (map[string]any, error)
	UpdateStatus(ctx context.Context, orderID string, status models.Status) error
}

// Snapshot is a copy of the three collections, safe to persist or inspect.
type Snapshot struct {
	Pending  []models.Order `json:"pending"`
	Accepted []models.Order `json:"accepted"`
	Active   *models.Order  `json:"active,omitempty"`
}

type Manager struct {
	transport Transport

	mu       sync.Mutex
	pending  []models.Order
	accepted []models.Order
	active   *models.Order

	// onChange, when set, receives a snapshot after every confirmed mutation.
	onChange func(Snapshot)
}

func NewManager(transport Transport) *Manager {
	return &Manager{transport: transport}
}

// OnChange registers the snapshot listener. Call before the manager is shared
// between goroutines.
func (m *Manager) OnChange(fn func(Snapshot)) {
	m.onChange = fn
}

// Restore loads a previously persisted snapshot, wholesale.
func (m *Manager) Restore(s Snapshot) {
	m.mu.Lock()
	m.pending = append([]models.Order(nil), s.Pending...)
	m.accepted = append([]models.Order(nil), s.Accepted...)
	if s.Active != nil {
		a := *s.Active
		m.active = &a
	} else {
		m.active = nil
	}
	m.mu.Unlock()
}

func (m *Manager) Snapshot() Snapshot {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.snapshotLocked()
}

func (m *Manager) snapshotLocked() Snapshot {
	s := Snapshot{
		Pending:  append([]models.Order(nil), m.pending...),
		Accepted: append([]models.Order(nil), m.accepted...),
	}
	if m.active != nil {
		a := *m.active
		s.Active = &a
	}
	return s
}

func (m *Manager) Pending() []models.Order  { return m.Snapshot().Pending }
func (m *Manager) Accepted() []models.Order { return m.Snapshot().Accepted }
func (m *Manager) Active() *models.Order    { return m.Snapshot().Active }

func (m *Manager) notify() {
	if m.onChange != nil {
		m.onChange(m.Snapshot())
	}
}

// FetchPending replaces the pending collection wholesale with normalized
// results. Orders the driver already fulfils are filtered out, so an id is
// never in pending and accepted at the same time. The collection is untouched
// when the fetch fails.
func (m *Manager) FetchPending(ctx context.Context) error {
	raws, err := m.transport.PendingOrders(ctx)
	if err != nil {
		return fmt.Errorf("fetch pending orders: %w", err)
	}
	orders := normalize.Orders(raws)

	m.mu.Lock()
	inFlight := make(map[string]struct{}, len(m.accepted)+1)
	for _, o := range m.accepted {
		inFlight[o.ID] = struct{}{}
	}
	if m.active != nil {
		inFlight[m.active.ID] = struct{}{}
	}
	pending := orders[:0]
	for _, o := range orders {
		if _, ok := inFlight[o.ID]; !ok {
			pending = append(pending, o)
		}
	}
	m.pending = pending
	m.mu.Unlock()
	m.notify()
	return nil
}

func (m *Manager) FetchAccepted(ctx context.Context) error {
	raws, err := m.transport.AcceptedOrders(ctx)
	if err != nil {
		return fmt.Errorf("fetch accepted orders: %w", err)
	}
	m.mu.Lock()
	m.accepted = normalize.Orders(raws)
	m.mu.Unlock()
	m.notify()
	return nil
}

// activeCountLocked counts distinct in-flight orders across the accepted list
// and the single active slot.
func (m *Manager) activeCountLocked() int {
	seen := make(map[string]struct{}, len(m.accepted)+1)
	for _, o := range m.accepted {
		seen[o.ID] = struct{}{}
	}
	if m.active != nil {
		seen[m.active.ID] = struct{}{}
	}
	return len(seen)
}

// Accept claims a pending order. On success the normalized order becomes the
// active order and leaves the pending list; on failure every collection stays
// as it was. ErrActiveLimit is returned before any network call when the
// driver already fulfils MaxActiveOrders orders.
func (m *Manager) Accept(ctx context.Context, orderID string) (models.Order, error) {
	m.mu.Lock()
	if m.activeCountLocked() >= MaxActiveOrders {
		m.mu.Unlock()
		return models.Order{}, fmt.Errorf("accept order %s: %w", orderID, ErrActiveLimit)
	}
	m.mu.Unlock()

	raw, err := m.transport.AcceptOrder(ctx, orderID)
	if err != nil {
		return models.Order{}, fmt.Errorf("accept order %s: %w", orderID, err)
	}

	m.mu.Lock()
	var order models.Order
	if raw != nil {
		order = normalize.Order(raw)
	} else {
		// backend acknowledged without echoing the order; fall back to the
		// pending entry we already hold
		order = models.Order{ID: orderID, Status: models.StatusAccepted}
		for _, p := range m.pending {
			if p.ID == orderID {
				order = p
				order.Status = models.StatusAccepted
				break
			}
		}
	}
	m.active = &order
	m.pending = removeByID(m.pending, order.ID)
	m.mu.Unlock()
	m.notify()
	return order, nil
}

// UpdateStatus reports a status transition and, once confirmed, reconciles
// both the active slot and the accepted list. Both are checked
// unconditionally so the two views never diverge.
func (m *Manager) UpdateStatus(ctx context.Context, orderID string, status models.Status) error {
	switch status {
	case models.StatusPickedUp, models.StatusOnTheWay, models.StatusDelivered:
	default:
		return fmt.Errorf("update order %s to %q: %w", orderID, status, ErrBadStatus)
	}

	if err := m.transport.UpdateStatus(ctx, orderID, status); err != nil {
		return fmt.Errorf("update order %s: %w", orderID, err)
	}

	m.mu.Lock()
	if m.active != nil && m.active.ID == orderID {
		if status.Terminal() {
			m.active = nil
		} else {
			m.active.Status = status
		}
	}
	if status.Terminal() {
		m.accepted = removeByID(m.accepted, orderID)
	} else {
		for i := range m.accepted {
			if m.accepted[i].ID == orderID {
				m.accepted[i].Status = status
			}
		}
	}
	m.mu.Unlock()
	m.notify()
	return nil
}

func removeByID(orders []models.Order, id string) []models.Order {
	out := orders[:0]
	for _, o := range orders {
		if o.ID != id {
			out = append(out, o)
		}
	}
	return out
}
