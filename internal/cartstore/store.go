package cartstore

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"time"

	"github.com/zorvex/zorvex-backend/pkg/logger"
	"github.com/zorvex/zorvex-backend/pkg/metrics"
)

const (
	// DefaultDebounce is the quiet period between the last change and the write.
	DefaultDebounce = 500 * time.Millisecond

	writeTimeout = 5 * time.Second
)

type Option func(*Store)

// WithDebounce overrides DefaultDebounce.
func WithDebounce(d time.Duration) Option {
	return func(s *Store) {
		if d > 0 {
			s.debounce = d
		}
	}
}

// Store is an ordered list of line items mirrored to Storage under one key.
//
// Every change made after Hydrate schedules a trailing-edge write: each
// change cancels the pending timer and starts a new one, so a burst of
// changes is persisted once. Changes are counted by a generation number;
// a timer only writes if its generation is still current, and writes are
// serialised so an older snapshot never lands after a newer one.
type Store struct {
	key      string
	storage  Storage
	debounce time.Duration

	mu       sync.Mutex
	items    []LineItem
	hydrated bool
	timer    *time.Timer
	gen      uint64

	writeMu sync.Mutex
	written uint64 // generation of the last successful write; set holding writeMu and mu
}

func New(storage Storage, key string, opts ...Option) *Store {
	s := &Store{
		key:      key,
		storage:  storage,
		debounce: DefaultDebounce,
		items:    []LineItem{},
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func (s *Store) Key() string {
	return s.key
}

// Hydrate loads the saved snapshot, replacing the in-memory list. It runs
// once; later calls return immediately. Missing, unreadable or malformed
// data yields an empty cart.
func (s *Store) Hydrate(ctx context.Context) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.hydrated {
		return
	}

	// Changes made before hydration are replaced, so they never count as unsaved.
	s.items = s.load(ctx)
	s.gen = 0
	s.hydrated = true
}

func (s *Store) load(ctx context.Context) []LineItem {
	raw, err := s.storage.Get(ctx, s.key)
	if errors.Is(err, ErrNotFound) || (err == nil && raw == "") {
		metrics.RecordCartHydration("empty")
		return []LineItem{}
	}
	if err != nil {
		metrics.RecordCartHydration("error")
		logger.Error("Failed to read cart snapshot", err, map[string]interface{}{
			"key": s.key,
		})
		return []LineItem{}
	}

	var elems []json.RawMessage
	if err := json.Unmarshal([]byte(raw), &elems); err != nil {
		metrics.RecordCartHydration("malformed")
		logger.Warn("Discarding malformed cart snapshot", map[string]interface{}{
			"key":   s.key,
			"error": err.Error(),
		})
		return []LineItem{}
	}

	items := make([]LineItem, 0, len(elems))
	seen := make(map[string]bool, len(elems))
	dropped := 0
	for _, elem := range elems {
		var item LineItem
		if err := json.Unmarshal(elem, &item); err != nil || !item.valid() || seen[item.ID] {
			dropped++
			continue
		}
		seen[item.ID] = true
		items = append(items, item)
	}
	if dropped > 0 {
		logger.Warn("Dropped invalid cart entries", map[string]interface{}{
			"key":     s.key,
			"dropped": dropped,
		})
	}

	metrics.RecordCartHydration("loaded")
	return items
}

// dirty reports whether changes are waiting to be written.
func (s *Store) dirty() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.hydrated && s.written < s.gen
}

// Hydrated reports whether Hydrate has completed.
func (s *Store) Hydrated() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.hydrated
}

func (s *Store) indexOf(id string) int {
	for i := range s.items {
		if s.items[i].ID == id {
			return i
		}
	}
	return -1
}

// AddItem appends product with qty, or adds qty to the existing entry with
// the same id. A non-positive qty is ignored.
func (s *Store) AddItem(p Product, qty int) {
	if qty <= 0 {
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	if i := s.indexOf(p.ID); i >= 0 {
		s.items[i].Quantity += qty
	} else {
		s.items = append(s.items, p.lineItem(qty))
	}
	s.changed()
}

// RemoveItem deletes the entry with id. Unknown ids are ignored.
func (s *Store) RemoveItem(id string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	i := s.indexOf(id)
	if i < 0 {
		return
	}
	s.items = append(s.items[:i:i], s.items[i+1:]...)
	s.changed()
}

// UpdateQuantity sets the quantity of an existing entry; qty <= 0 removes it.
// Unknown ids and unchanged quantities leave the cart untouched.
func (s *Store) UpdateQuantity(id string, qty int) {
	s.mu.Lock()
	defer s.mu.Unlock()

	i := s.indexOf(id)
	if i < 0 {
		return
	}
	switch {
	case qty <= 0:
		s.items = append(s.items[:i:i], s.items[i+1:]...)
	case qty == s.items[i].Quantity:
		return
	default:
		s.items[i].Quantity = qty
	}
	s.changed()
}

func (s *Store) ClearCart() {
	s.mu.Lock()
	defer s.mu.Unlock()

	if len(s.items) == 0 {
		return
	}
	s.items = []LineItem{}
	s.changed()
}

// Items returns a copy of the entries in insertion order.
func (s *Store) Items() []LineItem {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]LineItem, len(s.items))
	copy(out, s.items)
	return out
}

func (s *Store) ItemCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	n := 0
	for _, item := range s.items {
		n += item.Quantity
	}
	return n
}

func (s *Store) Subtotal() float64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	total := 0.0
	for _, item := range s.items {
		total += item.Total()
	}
	return total
}

// changed records a new generation and reschedules the write. Callers hold mu.
func (s *Store) changed() {
	s.gen++
	if !s.hydrated {
		return
	}
	if s.timer != nil {
		s.timer.Stop()
	}
	gen := s.gen
	s.timer = time.AfterFunc(s.debounce, func() {
		s.persist(gen)
	})
}

// persist writes the current snapshot if gen is still the latest change.
func (s *Store) persist(gen uint64) {
	s.writeMu.Lock()
	defer s.writeMu.Unlock()

	s.mu.Lock()
	if s.gen != gen || s.written >= gen {
		s.mu.Unlock()
		return
	}
	payload, err := json.Marshal(s.items)
	s.mu.Unlock()
	if err != nil {
		logger.Error("Failed to encode cart snapshot", err, map[string]interface{}{
			"key": s.key,
		})
		return
	}

	s.write(gen, string(payload))
}

// write runs with writeMu held.
func (s *Store) write(gen uint64, payload string) {
	ctx, cancel := context.WithTimeout(context.Background(), writeTimeout)
	defer cancel()

	if err := s.storage.Set(ctx, s.key, payload); err != nil {
		metrics.RecordCartWrite(false)
		logger.Error("Failed to persist cart snapshot", err, map[string]interface{}{
			"key": s.key,
		})
		return
	}
	s.mu.Lock()
	s.written = gen
	s.mu.Unlock()
	metrics.RecordCartWrite(true)
	logger.Debug("Cart snapshot persisted", map[string]interface{}{
		"key":        s.key,
		"generation": gen,
	})
}

// Flush cancels any pending timer and writes unsaved changes now.
func (s *Store) Flush() {
	s.writeMu.Lock()
	defer s.writeMu.Unlock()

	s.mu.Lock()
	if s.timer != nil {
		s.timer.Stop()
		s.timer = nil
	}
	gen := s.gen
	if !s.hydrated || s.written >= gen {
		s.mu.Unlock()
		return
	}
	payload, err := json.Marshal(s.items)
	s.mu.Unlock()
	if err != nil {
		logger.Error("Failed to encode cart snapshot", err, map[string]interface{}{
			"key": s.key,
		})
		return
	}

	s.write(gen, string(payload))
}

// Close flushes pending changes. The store stays usable afterwards.
func (s *Store) Close() {
	s.Flush()
}
