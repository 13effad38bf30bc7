package store

import (
	"context"
	"encoding/json"
	"errors"
	"sort"
	"sync"

	"github.com/google/uuid"
)

// MemoryStore is an in-process DocumentStore. It backs unit tests and
// doubles as a fault-injectable remote: FailWrites makes every write
// return a transient error, which is how tests and simulations drive
// the offline path.
type MemoryStore struct {
	mu         sync.Mutex
	docs       map[string]map[string]map[string]any // collection → id → fields
	subs       map[int]*memSub
	nextSub    int
	failWrites bool
	offline    bool
}

type memSub struct {
	collection string
	query      Query
	onChange   func([]Document)
}

// ErrStoreUnavailable simulates a network/remote failure.
var ErrStoreUnavailable = errors.New("document store unavailable")

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		docs: make(map[string]map[string]map[string]any),
		subs: make(map[int]*memSub),
	}
}

// SetFailWrites toggles transient write failures.
func (m *MemoryStore) SetFailWrites(fail bool) {
	m.mu.Lock()
	m.failWrites = fail
	m.mu.Unlock()
}

// SetOffline makes Ping (and all operations) fail, simulating a lost
// connection end to end.
func (m *MemoryStore) SetOffline(offline bool) {
	m.mu.Lock()
	m.offline = offline
	m.mu.Unlock()
}

func (m *MemoryStore) Ping(_ context.Context) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.offline {
		return ErrStoreUnavailable
	}
	return nil
}

func (m *MemoryStore) Add(_ context.Context, collection string, doc json.RawMessage) (string, error) {
	m.mu.Lock()
	if m.offline || m.failWrites {
		m.mu.Unlock()
		return "", ErrStoreUnavailable
	}

	var fields map[string]any
	if err := json.Unmarshal(doc, &fields); err != nil {
		m.mu.Unlock()
		return "", err
	}
	id, _ := fields["id"].(string)
	if id == "" {
		id = uuid.NewString()
		fields["id"] = id
	}
	col := m.docs[collection]
	if col == nil {
		col = make(map[string]map[string]any)
		m.docs[collection] = col
	}
	col[id] = fields
	notify := m.pendingNotifications(collection)
	m.mu.Unlock()

	for _, fn := range notify {
		fn()
	}
	return id, nil
}

func (m *MemoryStore) Update(_ context.Context, collection, id string, patch map[string]any) error {
	m.mu.Lock()
	if m.offline || m.failWrites {
		m.mu.Unlock()
		return ErrStoreUnavailable
	}
	col := m.docs[collection]
	fields, ok := col[id]
	if !ok {
		m.mu.Unlock()
		return ErrNotFound
	}
	for k, v := range patch {
		fields[k] = normalize(v)
	}
	notify := m.pendingNotifications(collection)
	m.mu.Unlock()

	for _, fn := range notify {
		fn()
	}
	return nil
}

func (m *MemoryStore) Get(_ context.Context, collection, id string) (Document, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.offline {
		return Document{}, ErrStoreUnavailable
	}
	fields, ok := m.docs[collection][id]
	if !ok {
		return Document{}, ErrNotFound
	}
	return encodeDoc(id, fields), nil
}

func (m *MemoryStore) Query(_ context.Context, collection string, q Query) ([]Document, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.offline {
		return nil, ErrStoreUnavailable
	}
	return m.queryLocked(collection, q), nil
}

func (m *MemoryStore) Subscribe(_ context.Context, collection string, q Query, onChange func([]Document)) (func(), error) {
	m.mu.Lock()
	if m.offline {
		m.mu.Unlock()
		return nil, ErrStoreUnavailable
	}
	id := m.nextSub
	m.nextSub++
	m.subs[id] = &memSub{collection: collection, query: q, onChange: onChange}
	initial := m.queryLocked(collection, q)
	m.mu.Unlock()

	// Initial snapshot, like a remote store delivering the current page.
	onChange(initial)

	return func() {
		m.mu.Lock()
		delete(m.subs, id)
		m.mu.Unlock()
	}, nil
}

// pendingNotifications builds the callbacks for every subscription on
// collection. They run after the lock is released so a listener can
// query the store without deadlocking.
func (m *MemoryStore) pendingNotifications(collection string) []func() {
	var out []func()
	for _, s := range m.subs {
		if s.collection != collection {
			continue
		}
		snapshot := m.queryLocked(collection, s.query)
		cb := s.onChange
		out = append(out, func() { cb(snapshot) })
	}
	return out
}

func (m *MemoryStore) queryLocked(collection string, q Query) []Document {
	var matched []map[string]any
	for _, fields := range m.docs[collection] {
		if matchesFilters(fields, q.Filters) {
			matched = append(matched, fields)
		}
	}
	if q.OrderBy != "" {
		sort.SliceStable(matched, func(i, j int) bool {
			a := stringField(matched[i], q.OrderBy)
			b := stringField(matched[j], q.OrderBy)
			if q.Descending {
				return a > b
			}
			return a < b
		})
	}
	if q.Limit > 0 && len(matched) > q.Limit {
		matched = matched[:q.Limit]
	}
	docs := make([]Document, 0, len(matched))
	for _, fields := range matched {
		id, _ := fields["id"].(string)
		docs = append(docs, encodeDoc(id, fields))
	}
	return docs
}

func matchesFilters(fields map[string]any, filters []Filter) bool {
	for _, f := range filters {
		v := stringField(fields, f.Field)
		switch f.Op {
		case "==":
			if v != f.Value {
				return false
			}
		case ">=":
			if v < f.Value {
				return false
			}
		case "<=":
			if v > f.Value {
				return false
			}
		default:
			return false
		}
	}
	return true
}

func stringField(fields map[string]any, key string) string {
	switch v := fields[key].(type) {
	case string:
		return v
	case bool:
		if v {
			return "true"
		}
		return "false"
	case json.Number:
		return v.String()
	default:
		b, _ := json.Marshal(v)
		return string(b)
	}
}

// normalize round-trips a patch value through JSON so stored fields
// always hold the same shapes a real remote store would return.
func normalize(v any) any {
	b, err := json.Marshal(v)
	if err != nil {
		return v
	}
	var out any
	if err := json.Unmarshal(b, &out); err != nil {
		return v
	}
	return out
}

func encodeDoc(id string, fields map[string]any) Document {
	b, _ := json.Marshal(fields)
	return Document{ID: id, Data: b}
}
