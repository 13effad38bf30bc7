// Package live implements the read path of the sync layer: long-lived
// subscriptions per tracked collection, a short-TTL snapshot cache and
// fan-out through the typed event hub.
package live

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/rs/zerolog/log"

	"motorepuestos/internal/events"
	"motorepuestos/internal/model"
	"motorepuestos/internal/store"
)

const (
	// PageSize bounds every subscription to the most recent page.
	PageSize = 50
	// DefaultCacheTTL keeps snapshots warm between notifications.
	DefaultCacheTTL = 2 * time.Minute
)

// Cache keys, one per tracked collection.
const (
	CacheSales     = "sales"
	CacheInventory = "inventory"
	CacheShifts    = "shifts"
	CacheExpenses  = "expenses"
)

type cacheEntry struct {
	value     any
	expiresAt time.Time
}

// Hub owns one subscription per tracked collection. Snapshots are
// cached with a short TTL and re-published through the event hub —
// sales and inventory debounced there, shifts immediate.
type Hub struct {
	st  store.DocumentStore
	hub *events.Hub
	ttl time.Duration

	mu      sync.Mutex
	cache   map[string]cacheEntry
	cancels []func()
	started bool
	closed  bool
}

func NewHub(st store.DocumentStore, hub *events.Hub, ttl time.Duration) *Hub {
	if ttl <= 0 {
		ttl = DefaultCacheTTL
	}
	return &Hub{st: st, hub: hub, ttl: ttl, cache: make(map[string]cacheEntry)}
}

// Start opens the subscriptions. Each collection's snapshots arrive in
// the order the store emits them; cross-collection ordering is not
// guaranteed and consumers must not rely on it.
func (h *Hub) Start(ctx context.Context) error {
	h.mu.Lock()
	if h.started || h.closed {
		h.mu.Unlock()
		return nil
	}
	h.started = true
	h.mu.Unlock()

	subs := []struct {
		collection string
		query      store.Query
		onChange   func([]store.Document)
	}{
		{store.ColSales, store.Query{OrderBy: "timestamp", Descending: true, Limit: PageSize}, h.onSales},
		{store.ColProducts, store.Query{OrderBy: "name", Limit: PageSize}, h.onInventory},
		{store.ColShifts, store.Query{OrderBy: "start_time", Descending: true, Limit: PageSize}, h.onShifts},
		{store.ColExpenses, store.Query{OrderBy: "created_at", Descending: true, Limit: PageSize}, h.onExpenses},
	}

	for _, s := range subs {
		cancel, err := h.st.Subscribe(ctx, s.collection, s.query, s.onChange)
		if err != nil {
			h.Cleanup()
			return err
		}
		h.mu.Lock()
		h.cancels = append(h.cancels, cancel)
		h.mu.Unlock()
	}
	log.Info().Int("collections", len(subs)).Msg("live: subscriptions opened")
	return nil
}

// GetCached returns the last snapshot for key if still within TTL,
// else nil.
func (h *Hub) GetCached(key string) any {
	h.mu.Lock()
	defer h.mu.Unlock()
	e, ok := h.cache[key]
	if !ok || time.Now().After(e.expiresAt) {
		return nil
	}
	return e.value
}

func (h *Hub) putCache(key string, value any) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.closed {
		return
	}
	h.cache[key] = cacheEntry{value: value, expiresAt: time.Now().Add(h.ttl)}
}

// Cleanup tears down subscriptions and clears the cache. Idempotent —
// safe to call from both shutdown paths.
func (h *Hub) Cleanup() {
	h.mu.Lock()
	if h.closed {
		h.mu.Unlock()
		return
	}
	h.closed = true
	cancels := h.cancels
	h.cancels = nil
	h.cache = make(map[string]cacheEntry)
	h.mu.Unlock()

	for _, c := range cancels {
		c()
	}
	log.Debug().Msg("live: hub cleaned up")
}

// ── Snapshot handlers ────────────────────────────────────────────────────────

func (h *Hub) onSales(docs []store.Document) {
	sales := decodePage[model.Sale](docs)
	h.putCache(CacheSales, sales)
	h.hub.Publish(events.SalesUpdated{Sales: sales, Timestamp: time.Now().UTC()})
}

func (h *Hub) onInventory(docs []store.Document) {
	products := decodePage[model.Product](docs)
	h.putCache(CacheInventory, products)
	h.hub.Publish(events.InventoryUpdated{Inventory: products, Timestamp: time.Now().UTC()})

	// Low-stock items alert immediately, outside the debounce window.
	var low []model.Product
	for _, p := range products {
		if p.Stock <= p.MinStock {
			low = append(low, p)
		}
	}
	if len(low) > 0 {
		now := time.Now().UTC()
		h.hub.Publish(events.StockAlert{Items: low, Timestamp: now})
		h.hub.Publish(events.NotificationReceived{
			Type:      "stock_alert",
			Title:     "Stock bajo",
			Message:   fmt.Sprintf("%d producto(s) en o por debajo del stock mínimo", len(low)),
			Priority:  "high",
			Timestamp: now,
			Data:      map[string]any{"count": len(low)},
		})
	}
}

func (h *Hub) onShifts(docs []store.Document) {
	shifts := decodePage[model.Shift](docs)
	h.putCache(CacheShifts, shifts)
	h.hub.Publish(events.ShiftsUpdated{Shifts: shifts, Timestamp: time.Now().UTC()})
}

func (h *Hub) onExpenses(docs []store.Document) {
	expenses := decodePage[model.Expense](docs)
	h.putCache(CacheExpenses, expenses)
}

func decodePage[T any](docs []store.Document) []T {
	out := make([]T, 0, len(docs))
	for _, d := range docs {
		var v T
		if err := d.Decode(&v); err != nil {
			log.Warn().Str("doc_id", d.ID).Err(err).Msg("live: snapshot decode failed")
			continue
		}
		out = append(out, v)
	}
	return out
}
