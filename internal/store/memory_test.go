package store

import (
	"context"
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func addDoc(t *testing.T, m *MemoryStore, collection string, fields map[string]any) string {
	t.Helper()
	body, err := json.Marshal(fields)
	require.NoError(t, err)
	id, err := m.Add(context.Background(), collection, body)
	require.NoError(t, err)
	return id
}

func TestMemoryStoreAddKeepsProvidedID(t *testing.T) {
	m := NewMemoryStore()
	ctx := context.Background()

	id := addDoc(t, m, ColSales, map[string]any{"id": "sale-1", "total": "100"})
	assert.Equal(t, "sale-1", id)

	doc, err := m.Get(ctx, ColSales, "sale-1")
	require.NoError(t, err)
	var got map[string]any
	require.NoError(t, doc.Decode(&got))
	assert.Equal(t, "100", got["total"])

	// Without an id one is assigned.
	generated := addDoc(t, m, ColSales, map[string]any{"total": "50"})
	assert.NotEmpty(t, generated)
	_, err = m.Get(ctx, ColSales, generated)
	assert.NoError(t, err)
}

func TestMemoryStoreUpdateMergesPatch(t *testing.T) {
	m := NewMemoryStore()
	ctx := context.Background()
	addDoc(t, m, ColShifts, map[string]any{"id": "s1", "status": "active", "date": "2025-03-10"})

	require.NoError(t, m.Update(ctx, ColShifts, "s1", map[string]any{"status": "closed"}))

	doc, err := m.Get(ctx, ColShifts, "s1")
	require.NoError(t, err)
	var got map[string]any
	require.NoError(t, doc.Decode(&got))
	assert.Equal(t, "closed", got["status"])
	assert.Equal(t, "2025-03-10", got["date"], "untouched fields survive the patch")

	assert.ErrorIs(t, m.Update(ctx, ColShifts, "missing", map[string]any{"x": 1}), ErrNotFound)
}

func TestMemoryStoreQuery(t *testing.T) {
	m := NewMemoryStore()
	ctx := context.Background()
	addDoc(t, m, ColSales, map[string]any{"id": "a", "date": "2025-03-10", "timestamp": "2025-03-10T09:00:00Z"})
	addDoc(t, m, ColSales, map[string]any{"id": "b", "date": "2025-03-10", "timestamp": "2025-03-10T12:00:00Z"})
	addDoc(t, m, ColSales, map[string]any{"id": "c", "date": "2025-03-11", "timestamp": "2025-03-11T09:00:00Z"})

	docs, err := m.Query(ctx, ColSales, Query{Filters: []Filter{Eq("date", "2025-03-10")}})
	require.NoError(t, err)
	assert.Len(t, docs, 2)

	// Descending order and limit.
	docs, err = m.Query(ctx, ColSales, Query{OrderBy: "timestamp", Descending: true, Limit: 2})
	require.NoError(t, err)
	require.Len(t, docs, 2)
	assert.Equal(t, "c", docs[0].ID)
	assert.Equal(t, "b", docs[1].ID)

	// Range filter on the string-encoded date.
	docs, err = m.Query(ctx, ColSales, Query{Filters: []Filter{{Field: "date", Op: ">=", Value: "2025-03-11"}}})
	require.NoError(t, err)
	require.Len(t, docs, 1)
	assert.Equal(t, "c", docs[0].ID)
}

func TestMemoryStoreSubscribe(t *testing.T) {
	m := NewMemoryStore()
	ctx := context.Background()
	addDoc(t, m, ColProducts, map[string]any{"id": "p1", "name": "Filtro"})

	var pages [][]Document
	cancel, err := m.Subscribe(ctx, ColProducts, Query{OrderBy: "name"}, func(docs []Document) {
		pages = append(pages, docs)
	})
	require.NoError(t, err)

	// Initial snapshot arrives synchronously.
	require.Len(t, pages, 1)
	assert.Len(t, pages[0], 1)

	addDoc(t, m, ColProducts, map[string]any{"id": "p2", "name": "Bujia"})
	require.Len(t, pages, 2)
	assert.Len(t, pages[1], 2)

	// Writes to other collections do not notify.
	addDoc(t, m, ColSales, map[string]any{"id": "s1"})
	assert.Len(t, pages, 2)

	cancel()
	addDoc(t, m, ColProducts, map[string]any{"id": "p3", "name": "Correa"})
	assert.Len(t, pages, 2)
}

func TestMemoryStoreFaultInjection(t *testing.T) {
	m := NewMemoryStore()
	ctx := context.Background()
	addDoc(t, m, ColSales, map[string]any{"id": "s1"})

	m.SetFailWrites(true)
	_, err := m.Add(ctx, ColSales, json.RawMessage(`{}`))
	assert.ErrorIs(t, err, ErrStoreUnavailable)
	assert.ErrorIs(t, m.Update(ctx, ColSales, "s1", map[string]any{"x": 1}), ErrStoreUnavailable)
	// Reads still work: only writes fail.
	_, err = m.Get(ctx, ColSales, "s1")
	assert.NoError(t, err)
	m.SetFailWrites(false)

	m.SetOffline(true)
	assert.ErrorIs(t, m.Ping(ctx), ErrStoreUnavailable)
	_, err = m.Get(ctx, ColSales, "s1")
	assert.ErrorIs(t, err, ErrStoreUnavailable)
	m.SetOffline(false)
	assert.NoError(t, m.Ping(ctx))
}
