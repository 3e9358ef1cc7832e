package cartstore

import (
	"context"
	"sync"
	"time"

	"github.com/zorvex/zorvex-backend/pkg/logger"
	"github.com/zorvex/zorvex-backend/pkg/metrics"
)

const keyPrefix = "cart:"

// Key is the storage key for a client's cart.
func Key(cartID string) string {
	return keyPrefix + cartID
}

type entry struct {
	store    *Store
	lastSeen time.Time
}

// Manager holds one hydrated Store per client cart id.
type Manager struct {
	storage Storage
	opts    []Option
	now     func() time.Time

	mu    sync.Mutex
	carts map[string]*entry
}

func NewManager(storage Storage, opts ...Option) *Manager {
	return &Manager{
		storage: storage,
		opts:    opts,
		now:     time.Now,
		carts:   make(map[string]*entry),
	}
}

// Get returns the hydrated cart for cartID, creating it on first use.
func (m *Manager) Get(ctx context.Context, cartID string) *Store {
	m.mu.Lock()
	e, ok := m.carts[cartID]
	if !ok {
		e = &entry{store: New(m.storage, Key(cartID), m.opts...)}
		m.carts[cartID] = e
		metrics.SetActiveCarts(len(m.carts))
	}
	e.lastSeen = m.now()
	m.mu.Unlock()

	e.store.Hydrate(ctx)
	return e.store
}

// Len returns the number of carts held in memory.
func (m *Manager) Len() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.carts)
}

// EvictIdle flushes and drops carts not used within idle. It returns how
// many carts were evicted.
//
// Carts stay in the map while they flush, so a Get racing the eviction
// reuses the same store. A cart is only dropped if it is still idle and
// has nothing left to write once the flush is done.
func (m *Manager) EvictIdle(idle time.Duration) int {
	cutoff := m.now().Add(-idle)

	m.mu.Lock()
	stale := make(map[string]*entry)
	for id, e := range m.carts {
		if e.lastSeen.Before(cutoff) {
			stale[id] = e
		}
	}
	m.mu.Unlock()

	for _, e := range stale {
		e.store.Close()
	}

	evicted := 0
	m.mu.Lock()
	for id, e := range stale {
		if m.carts[id] != e || !e.lastSeen.Before(cutoff) || e.store.dirty() {
			continue
		}
		delete(m.carts, id)
		evicted++
	}
	metrics.SetActiveCarts(len(m.carts))
	m.mu.Unlock()

	if evicted > 0 {
		logger.Info("Evicted idle carts", map[string]interface{}{
			"evicted": evicted,
			"kept":    len(stale) - evicted,
			"idle":    idle.String(),
		})
	}
	return evicted
}

// CloseAll flushes every cart. Used on shutdown.
func (m *Manager) CloseAll() {
	m.mu.Lock()
	stores := make([]*Store, 0, len(m.carts))
	for _, e := range m.carts {
		stores = append(stores, e.store)
	}
	m.mu.Unlock()

	for _, s := range stores {
		s.Close()
	}
	logger.Info("Flushed carts on shutdown", map[string]interface{}{
		"carts": len(stores),
	})
}
