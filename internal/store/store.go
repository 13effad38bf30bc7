// Package store defines the persistence seams the sync layer is built
// on: a remote document store with last-write-wins semantics and a
// local key-value store used for offline-queue durability. Concrete
// implementations live alongside (Postgres-backed, Redis-backed,
// in-memory for tests).
package store

import (
	"context"
	"encoding/json"
	"errors"
)

// Collection names used by the sync layer.
const (
	ColSales       = "sales"
	ColShifts      = "shifts"
	ColProducts    = "products"
	ColExpenses    = "expenses"
	ColCashCounts  = "cash_counts"
	ColDayClosures = "day_closures"
)

// ErrNotFound is returned when a document id does not exist.
var ErrNotFound = errors.New("document not found")

// Document is one record in a collection. Data is the full JSON body;
// the "id" field inside Data is authoritative and mirrored in ID.
type Document struct {
	ID   string
	Data json.RawMessage
}

// Decode unmarshals the document body into out.
func (d Document) Decode(out any) error {
	return json.Unmarshal(d.Data, out)
}

// Filter is a single field predicate. Op is one of "==", ">=", "<=".
// Values compare as strings, which is sufficient for the status and
// YYYY-MM-DD date fields the sync layer queries on.
type Filter struct {
	Field string
	Op    string
	Value string
}

// Eq is shorthand for an equality filter.
func Eq(field, value string) Filter { return Filter{Field: field, Op: "==", Value: value} }

// Query bundles the filter/order/limit of a read or subscription.
type Query struct {
	Filters    []Filter
	OrderBy    string
	Descending bool
	Limit      int
}

// DocumentStore is the remote store: an opaque eventually-consistent
// document database with per-document last-write-wins updates. Writes
// may fail transiently; the sync coordinator turns those failures into
// queued descriptors.
type DocumentStore interface {
	// Add inserts doc into collection and returns the assigned id. If
	// the body already carries a non-empty "id" field, that id is kept.
	Add(ctx context.Context, collection string, doc json.RawMessage) (string, error)
	// Update merges patch into the document's top-level fields.
	Update(ctx context.Context, collection, id string, patch map[string]any) error
	Get(ctx context.Context, collection, id string) (Document, error)
	Query(ctx context.Context, collection string, q Query) ([]Document, error)
	// Subscribe delivers the current page for q on every change, in the
	// order the store emits them. The returned func tears it down.
	Subscribe(ctx context.Context, collection string, q Query, onChange func([]Document)) (func(), error)
	// Ping reports reachability; used by the connectivity monitor.
	Ping(ctx context.Context) error
}

// KVStore is the durable local key-value store backing the offline
// queue. Get returns (nil, nil) for a missing key.
type KVStore interface {
	Get(ctx context.Context, key string) ([]byte, error)
	Set(ctx context.Context, key string, value []byte) error
}
