package offline

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"motorepuestos/internal/events"
	"motorepuestos/internal/model"
	"motorepuestos/internal/store"
)

func descriptor(opID string) model.OperationDescriptor {
	return model.OperationDescriptor{
		Type:              model.OpSale,
		Payload:           json.RawMessage(`{}`),
		ClientOperationID: opID,
	}
}

func TestQueueFIFO(t *testing.T) {
	ctx := context.Background()
	q := NewQueue(store.NewMemoryKV(), 10, nil, nil)

	for i := 1; i <= 3; i++ {
		require.NoError(t, q.Enqueue(ctx, descriptor(fmt.Sprintf("op-%d", i))))
	}
	assert.Equal(t, 3, q.Size())

	var order []string
	replayed, failed := q.Drain(ctx, func(_ context.Context, d model.OperationDescriptor) error {
		order = append(order, d.ClientOperationID)
		return nil
	})
	assert.Equal(t, 3, replayed)
	assert.Equal(t, 0, failed)
	assert.Equal(t, []string{"op-1", "op-2", "op-3"}, order)
	assert.Equal(t, 0, q.Size())
}

func TestQueueSurvivesRestart(t *testing.T) {
	ctx := context.Background()
	kv := store.NewMemoryKV()

	q1 := NewQueue(kv, 10, nil, nil)
	require.NoError(t, q1.Enqueue(ctx, descriptor("op-a")))
	require.NoError(t, q1.Enqueue(ctx, descriptor("op-b")))

	// A fresh queue over the same KV store sees the persisted entries.
	q2 := NewQueue(kv, 10, nil, nil)
	require.NoError(t, q2.Load(ctx))
	assert.Equal(t, 2, q2.Size())

	snap := q2.Snapshot()
	assert.Equal(t, "op-a", snap[0].ClientOperationID)
	assert.Equal(t, "op-b", snap[1].ClientOperationID)
}

func TestQueueOverflowEvictsOldest(t *testing.T) {
	ctx := context.Background()
	hub := events.NewHub(time.Millisecond)
	t.Cleanup(hub.Cleanup)

	degraded := make(chan events.SyncDegraded, 1)
	hub.Subscribe(events.KindSyncDegraded, func(ev events.Event) {
		degraded <- ev.(events.SyncDegraded)
	})

	q := NewQueue(store.NewMemoryKV(), 3, hub, nil)
	for i := 1; i <= 4; i++ {
		require.NoError(t, q.Enqueue(ctx, descriptor(fmt.Sprintf("op-%d", i))))
	}

	// Capacity 3: op-1 was evicted, op-2..4 remain in order.
	assert.Equal(t, 3, q.Size())
	snap := q.Snapshot()
	assert.Equal(t, "op-2", snap[0].ClientOperationID)
	assert.Equal(t, "op-4", snap[2].ClientOperationID)

	select {
	case ev := <-degraded:
		assert.Equal(t, "queue_overflow", ev.Reason)
	case <-time.After(time.Second):
		t.Fatal("no sync_degraded event after eviction")
	}
}

func TestQueueDrainRequeuesFailures(t *testing.T) {
	ctx := context.Background()
	q := NewQueue(store.NewMemoryKV(), 10, nil, nil)
	require.NoError(t, q.Enqueue(ctx, descriptor("op-ok")))
	require.NoError(t, q.Enqueue(ctx, descriptor("op-bad")))

	replayed, failed := q.Drain(ctx, func(_ context.Context, d model.OperationDescriptor) error {
		if d.ClientOperationID == "op-bad" {
			return errors.New("remote rejected")
		}
		return nil
	})
	assert.Equal(t, 1, replayed)
	assert.Equal(t, 1, failed)

	// The failure went back to the tail with its attempt counted.
	snap := q.Snapshot()
	require.Len(t, snap, 1)
	assert.Equal(t, "op-bad", snap[0].ClientOperationID)
	assert.Equal(t, 1, snap[0].Attempts)

	// Each pass attempts a descriptor exactly once — no tight retry loop.
	calls := 0
	replayed, failed = q.Drain(ctx, func(context.Context, model.OperationDescriptor) error {
		calls++
		return errors.New("still failing")
	})
	assert.Equal(t, 0, replayed)
	assert.Equal(t, 1, failed)
	assert.Equal(t, 1, calls)
	assert.Equal(t, 2, q.Snapshot()[0].Attempts)
}

func TestQueueClear(t *testing.T) {
	ctx := context.Background()
	kv := store.NewMemoryKV()
	q := NewQueue(kv, 10, nil, nil)
	require.NoError(t, q.Enqueue(ctx, descriptor("op-1")))
	require.NoError(t, q.Clear(ctx))
	assert.Equal(t, 0, q.Size())

	// Clearing persists too.
	q2 := NewQueue(kv, 10, nil, nil)
	require.NoError(t, q2.Load(ctx))
	assert.Equal(t, 0, q2.Size())
}
