package cartstore

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testDebounce = 20 * time.Millisecond

var (
	gloves = Product{ID: "p1", Name: "Nitrile Gloves", Price: 12.5, Image: "/img/gloves.png", Category: "Safety"}
	mask   = Product{ID: "p2", Name: "Face Mask", Price: 3, Image: "/img/mask.png", Category: "Safety"}
)

func newHydratedStore(t *testing.T, storage Storage) *Store {
	t.Helper()
	s := New(storage, Key("test"), WithDebounce(testDebounce))
	s.Hydrate(context.Background())
	t.Cleanup(s.Close)
	return s
}

func waitForWrites(t *testing.T, m *MemoryStorage, n int) {
	t.Helper()
	require.Eventually(t, func() bool { return m.Writes() >= n }, time.Second, 5*time.Millisecond)
}

func savedItems(t *testing.T, m *MemoryStorage, key string) []LineItem {
	t.Helper()
	raw, err := m.Get(context.Background(), key)
	require.NoError(t, err)
	var items []LineItem
	require.NoError(t, json.Unmarshal([]byte(raw), &items))
	return items
}

func TestStore_AddItem(t *testing.T) {
	s := newHydratedStore(t, NewMemoryStorage())

	s.AddItem(gloves, 2)
	s.AddItem(mask, 1)

	items := s.Items()
	require.Len(t, items, 2)
	assert.Equal(t, "p1", items[0].ID)
	assert.Equal(t, "Nitrile Gloves", items[0].Name)
	assert.Equal(t, "Safety", items[0].Category)
	assert.Equal(t, 2, items[0].Quantity)
	assert.Equal(t, "p2", items[1].ID)
}

func TestStore_AddItem_MergesSameProduct(t *testing.T) {
	s := newHydratedStore(t, NewMemoryStorage())

	s.AddItem(gloves, 2)
	s.AddItem(mask, 1)
	s.AddItem(gloves, 3)

	items := s.Items()
	require.Len(t, items, 2)
	assert.Equal(t, "p1", items[0].ID, "merged entry keeps its position")
	assert.Equal(t, 5, items[0].Quantity)
}

func TestStore_AddItem_KeepsAddTimePrice(t *testing.T) {
	s := newHydratedStore(t, NewMemoryStorage())

	s.AddItem(gloves, 1)
	repriced := gloves
	repriced.Price = 99
	repriced.Name = "Renamed"
	s.AddItem(repriced, 1)

	items := s.Items()
	require.Len(t, items, 1)
	assert.Equal(t, 12.5, items[0].Price)
	assert.Equal(t, "Nitrile Gloves", items[0].Name)
	assert.Equal(t, 2, items[0].Quantity)
}

func TestStore_AddItem_IgnoresNonPositiveQuantity(t *testing.T) {
	m := NewMemoryStorage()
	s := newHydratedStore(t, m)

	s.AddItem(gloves, 0)
	s.AddItem(gloves, -1)

	assert.Empty(t, s.Items())
	s.Flush()
	assert.Equal(t, 0, m.Writes())
}

func TestStore_RemoveItem(t *testing.T) {
	s := newHydratedStore(t, NewMemoryStorage())
	s.AddItem(gloves, 1)
	s.AddItem(mask, 1)

	s.RemoveItem("p1")
	items := s.Items()
	require.Len(t, items, 1)
	assert.Equal(t, "p2", items[0].ID)

	s.RemoveItem("unknown")
	assert.Len(t, s.Items(), 1)
}

func TestStore_UpdateQuantity(t *testing.T) {
	s := newHydratedStore(t, NewMemoryStorage())
	s.AddItem(gloves, 1)
	s.AddItem(mask, 1)

	s.UpdateQuantity("p2", 4)
	assert.Equal(t, 4, s.Items()[1].Quantity)

	s.UpdateQuantity("p1", 0)
	items := s.Items()
	require.Len(t, items, 1)
	assert.Equal(t, "p2", items[0].ID)

	s.UpdateQuantity("p2", -3)
	assert.Empty(t, s.Items())
}

func TestStore_UpdateQuantity_NoOps(t *testing.T) {
	m := NewMemoryStorage()
	s := newHydratedStore(t, m)
	s.AddItem(gloves, 2)
	s.Flush()
	require.Equal(t, 1, m.Writes())

	s.UpdateQuantity("unknown", 5)
	s.UpdateQuantity("p1", 2)
	s.Flush()

	assert.Equal(t, 1, m.Writes(), "no change means no write")
	assert.Equal(t, 2, s.Items()[0].Quantity)
}

func TestStore_ClearCart(t *testing.T) {
	m := NewMemoryStorage()
	s := newHydratedStore(t, m)
	s.AddItem(gloves, 1)
	s.AddItem(mask, 2)

	s.ClearCart()
	assert.Empty(t, s.Items())
	assert.Equal(t, 0, s.ItemCount())

	s.Flush()
	assert.Empty(t, savedItems(t, m, s.Key()))
}

func TestStore_DerivedTotals(t *testing.T) {
	s := newHydratedStore(t, NewMemoryStorage())
	assert.Equal(t, 0, s.ItemCount())
	assert.Equal(t, 0.0, s.Subtotal())

	s.AddItem(gloves, 2)
	s.AddItem(mask, 3)

	assert.Equal(t, 5, s.ItemCount())
	assert.InDelta(t, 34.0, s.Subtotal(), 0.0001)
	assert.InDelta(t, 25.0, s.Items()[0].Total(), 0.0001)
}

func TestStore_ItemsReturnsCopy(t *testing.T) {
	s := newHydratedStore(t, NewMemoryStorage())
	s.AddItem(gloves, 1)

	items := s.Items()
	items[0].Quantity = 100

	assert.Equal(t, 1, s.Items()[0].Quantity)
}

func TestStore_PersistsAndRestores(t *testing.T) {
	m := NewMemoryStorage()
	s := newHydratedStore(t, m)
	s.AddItem(gloves, 2)
	s.AddItem(mask, 1)
	waitForWrites(t, m, 1)

	restored := New(m, s.Key())
	restored.Hydrate(context.Background())

	assert.True(t, restored.Hydrated())
	assert.Equal(t, s.Items(), restored.Items())
}

func TestStore_DebounceCoalescesBurst(t *testing.T) {
	m := NewMemoryStorage()
	s := New(m, Key("burst"), WithDebounce(50*time.Millisecond))
	s.Hydrate(context.Background())

	for i := 0; i < 10; i++ {
		s.AddItem(gloves, 1)
	}
	waitForWrites(t, m, 1)
	time.Sleep(100 * time.Millisecond)

	assert.Equal(t, 1, m.Writes())
	items := savedItems(t, m, s.Key())
	require.Len(t, items, 1)
	assert.Equal(t, 10, items[0].Quantity)
}

func TestStore_NoWriteWithinDebounceWindow(t *testing.T) {
	m := NewMemoryStorage()
	s := New(m, Key("window"), WithDebounce(time.Hour))
	s.Hydrate(context.Background())

	s.AddItem(gloves, 1)
	time.Sleep(30 * time.Millisecond)
	assert.Equal(t, 0, m.Writes())

	s.Close()
	assert.Equal(t, 1, m.Writes())
	assert.Len(t, savedItems(t, m, s.Key()), 1)
}

func TestStore_NoWriteBeforeHydration(t *testing.T) {
	m := NewMemoryStorage()
	require.NoError(t, m.Set(context.Background(), Key("saved"), `[{"id":"p2","name":"Face Mask","price":3,"quantity":4}]`))
	before := m.Writes()

	s := New(m, Key("saved"), WithDebounce(testDebounce))
	s.AddItem(gloves, 1)
	time.Sleep(3 * testDebounce)
	assert.Equal(t, before, m.Writes(), "saved cart must not be overwritten")

	s.Hydrate(context.Background())
	items := s.Items()
	require.Len(t, items, 1)
	assert.Equal(t, "p2", items[0].ID)
	assert.Equal(t, 4, items[0].Quantity)

	s.Close()
	assert.Equal(t, before, m.Writes())
}

func TestStore_HydrateRunsOnce(t *testing.T) {
	m := NewMemoryStorage()
	s := newHydratedStore(t, m)
	s.AddItem(gloves, 1)

	require.NoError(t, m.Set(context.Background(), s.Key(), `[]`))
	s.Hydrate(context.Background())

	assert.Len(t, s.Items(), 1)
}

func TestStore_HydrateMalformed(t *testing.T) {
	tests := []struct {
		name    string
		payload string
		want    []string
	}{
		{name: "object instead of list", payload: `{"id":"p1","quantity":1}`},
		{name: "not json", payload: `not-json`},
		{name: "empty string", payload: ``},
		{name: "null", payload: `null`},
		{
			name:    "bad entries dropped",
			payload: `[{"id":"p1","price":1,"quantity":1},{"id":"","quantity":1},{"id":"p3","quantity":0},"x",{"id":"p1","price":1,"quantity":9}]`,
			want:    []string{"p1"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			m := NewMemoryStorage()
			require.NoError(t, m.Set(context.Background(), Key("bad"), tt.payload))

			s := New(m, Key("bad"))
			s.Hydrate(context.Background())

			assert.True(t, s.Hydrated())
			var ids []string
			for _, item := range s.Items() {
				ids = append(ids, item.ID)
			}
			assert.Equal(t, tt.want, ids)
		})
	}
}

type failingStorage struct {
	getErr error
	setErr error
}

func (f failingStorage) Get(context.Context, string) (string, error) {
	return "", f.getErr
}

func (f failingStorage) Set(context.Context, string, string) error {
	return f.setErr
}

func TestStore_StorageErrorsAreSwallowed(t *testing.T) {
	boom := errors.New("storage unavailable")
	s := New(failingStorage{getErr: boom, setErr: boom}, Key("x"), WithDebounce(testDebounce))

	s.Hydrate(context.Background())
	assert.True(t, s.Hydrated())
	assert.Empty(t, s.Items())

	s.AddItem(gloves, 1)
	assert.NotPanics(t, s.Flush)
	assert.Len(t, s.Items(), 1)
}

func TestStore_FlushWritesLatestState(t *testing.T) {
	m := NewMemoryStorage()
	s := newHydratedStore(t, m)

	s.AddItem(gloves, 1)
	s.Flush()
	s.AddItem(mask, 2)
	s.Flush()
	time.Sleep(3 * testDebounce)

	assert.Equal(t, 2, m.Writes())
	items := savedItems(t, m, s.Key())
	require.Len(t, items, 2)
	assert.Equal(t, "p2", items[1].ID)
}

func TestStore_ConcurrentMutations(t *testing.T) {
	m := NewMemoryStorage()
	s := newHydratedStore(t, m)

	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			s.AddItem(gloves, 1)
		}()
	}
	wg.Wait()
	s.Flush()

	assert.Equal(t, 50, s.ItemCount())
	items := savedItems(t, m, s.Key())
	require.Len(t, items, 1)
	assert.Equal(t, 50, items[0].Quantity)
}
