package events

import (
	"sync"
	"time"

	"github.com/rs/zerolog/log"
)

// DefaultDebounceWindow collapses bursts on high-churn topics.
const DefaultDebounceWindow = 500 * time.Millisecond

// debouncedKinds are the high-churn topics. Everything else notifies
// synchronously with no delay.
var debouncedKinds = map[Kind]bool{
	KindSalesUpdated:     true,
	KindInventoryUpdated: true,
}

// Handler receives events for one subscribed kind.
type Handler func(Event)

// Hub dispatches typed events to registered listeners. High-churn kinds
// are debounced: multiple publishes inside the window collapse into a
// single notification carrying the latest payload.
type Hub struct {
	window time.Duration

	mu       sync.Mutex
	handlers map[Kind]map[int]Handler
	nextID   int
	pending  map[Kind]Event
	deb      *Debouncer
	closed   bool
}

func NewHub(window time.Duration) *Hub {
	if window <= 0 {
		window = DefaultDebounceWindow
	}
	return &Hub{
		window:   window,
		handlers: make(map[Kind]map[int]Handler),
		pending:  make(map[Kind]Event),
		deb:      NewDebouncer(),
	}
}

// Subscribe registers h for kind and returns the id used to remove it.
func (h *Hub) Subscribe(kind Kind, fn Handler) int {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.closed {
		return -1
	}
	id := h.nextID
	h.nextID++
	m := h.handlers[kind]
	if m == nil {
		m = make(map[int]Handler)
		h.handlers[kind] = m
	}
	m[id] = fn
	return id
}

// Unsubscribe removes a listener. Unknown ids are ignored.
func (h *Hub) Unsubscribe(kind Kind, id int) {
	h.mu.Lock()
	defer h.mu.Unlock()
	delete(h.handlers[kind], id)
}

// Publish delivers ev. Debounced kinds keep only the latest payload
// inside the window; the rest dispatch synchronously in publish order.
func (h *Hub) Publish(ev Event) {
	kind := ev.Kind()

	h.mu.Lock()
	if h.closed {
		h.mu.Unlock()
		return
	}
	if debouncedKinds[kind] {
		h.pending[kind] = ev
		h.mu.Unlock()
		h.deb.Schedule(string(kind), h.window, func() { h.flush(kind) })
		return
	}
	fns := h.snapshotLocked(kind)
	h.mu.Unlock()

	for _, fn := range fns {
		fn(ev)
	}
}

func (h *Hub) flush(kind Kind) {
	h.mu.Lock()
	ev, ok := h.pending[kind]
	delete(h.pending, kind)
	fns := h.snapshotLocked(kind)
	closed := h.closed
	h.mu.Unlock()

	if !ok || closed {
		return
	}
	for _, fn := range fns {
		fn(ev)
	}
}

// snapshotLocked copies the handler set so dispatch runs without the
// lock held; a handler may itself subscribe or publish.
func (h *Hub) snapshotLocked(kind Kind) []Handler {
	m := h.handlers[kind]
	if len(m) == 0 {
		return nil
	}
	fns := make([]Handler, 0, len(m))
	for _, fn := range m {
		fns = append(fns, fn)
	}
	return fns
}

// Cleanup cancels pending debounce timers and clears every listener
// registry. Idempotent.
func (h *Hub) Cleanup() {
	h.mu.Lock()
	if h.closed {
		h.mu.Unlock()
		return
	}
	h.closed = true
	h.handlers = make(map[Kind]map[int]Handler)
	h.pending = make(map[Kind]Event)
	h.mu.Unlock()

	h.deb.CancelAll()
	log.Debug().Msg("events: hub cleaned up")
}
