package offline

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"github.com/rs/zerolog/log"

	"motorepuestos/internal/events"
	"motorepuestos/internal/model"
	"motorepuestos/internal/store"
)

// QueueKey is the single versioned KV key holding the serialized
// descriptor list. Bump the suffix when the wire format changes so old
// payloads can be migrated instead of misparsed.
const QueueKey = "offline_queue:v1"

// DefaultQueueCapacity bounds the queue. On overflow the oldest entry
// is evicted — preserved in the dead letter list, never silently lost.
const DefaultQueueCapacity = 100

// ReplayFunc re-attempts one descriptor against the remote store.
type ReplayFunc func(ctx context.Context, d model.OperationDescriptor) error

// Queue is the bounded durable FIFO of pending writes. Every mutation
// persists the full list so the queue survives process restarts.
type Queue struct {
	kv       store.KVStore
	capacity int
	hub      *events.Hub
	dlq      *DeadLetter

	mu      sync.Mutex
	entries []model.OperationDescriptor

	drainMu sync.Mutex
}

func NewQueue(kv store.KVStore, capacity int, hub *events.Hub, dlq *DeadLetter) *Queue {
	if capacity <= 0 {
		capacity = DefaultQueueCapacity
	}
	return &Queue{kv: kv, capacity: capacity, hub: hub, dlq: dlq}
}

// Load restores the persisted queue. Call once at startup.
func (q *Queue) Load(ctx context.Context) error {
	raw, err := q.kv.Get(ctx, QueueKey)
	if err != nil {
		return fmt.Errorf("load offline queue: %w", err)
	}
	if len(raw) == 0 {
		return nil
	}
	var entries []model.OperationDescriptor
	if err := json.Unmarshal(raw, &entries); err != nil {
		return fmt.Errorf("decode offline queue: %w", err)
	}
	q.mu.Lock()
	q.entries = entries
	q.mu.Unlock()
	if len(entries) > 0 {
		log.Info().Int("pending", len(entries)).Msg("queue: restored persisted descriptors")
	}
	return nil
}

// Enqueue appends d and persists. When the queue is full the oldest
// entry is evicted to the dead letter list and surfaced as a degraded
// event — an unsynced sale falling off the queue must be visible.
func (q *Queue) Enqueue(ctx context.Context, d model.OperationDescriptor) error {
	if d.EnqueuedAt.IsZero() {
		d.EnqueuedAt = time.Now().UTC()
	}

	q.mu.Lock()
	var evicted *model.OperationDescriptor
	if len(q.entries) >= q.capacity {
		ev := q.entries[0]
		evicted = &ev
		q.entries = q.entries[1:]
	}
	q.entries = append(q.entries, d)
	err := q.persistLocked(ctx)
	q.mu.Unlock()

	if evicted != nil {
		log.Warn().
			Str("type", string(evicted.Type)).
			Str("client_operation_id", evicted.ClientOperationID).
			Msg("queue: capacity exceeded, oldest descriptor evicted")
		q.dlq.Preserve(ctx, *evicted, "queue capacity exceeded")
		if q.hub != nil {
			q.hub.Publish(events.SyncDegraded{
				Operation: string(evicted.Type),
				Reason:    "queue_overflow",
				Detail:    fmt.Sprintf("descriptor %s evicted", evicted.ClientOperationID),
				Timestamp: time.Now().UTC(),
			})
		}
	}
	return err
}

// Size returns the number of pending descriptors.
func (q *Queue) Size() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return len(q.entries)
}

// Snapshot copies the pending descriptors in order.
func (q *Queue) Snapshot() []model.OperationDescriptor {
	q.mu.Lock()
	defer q.mu.Unlock()
	out := make([]model.OperationDescriptor, len(q.entries))
	copy(out, q.entries)
	return out
}

// Clear drops every pending descriptor. Manual escape hatch only.
func (q *Queue) Clear(ctx context.Context) error {
	q.mu.Lock()
	defer q.mu.Unlock()
	q.entries = nil
	return q.persistLocked(ctx)
}

// Drain replays pending descriptors strictly in FIFO order, one at a
// time — sequential so write ordering holds and a shift open is never
// replayed twice concurrently. Each entry is attempted exactly once
// per pass; failures go back to the tail in their relative order. A
// later reconnect or a manual force-sync starts the next pass.
func (q *Queue) Drain(ctx context.Context, replay ReplayFunc) (replayed int, failed int) {
	q.drainMu.Lock()
	defer q.drainMu.Unlock()

	attempts := q.Size()
	if attempts == 0 {
		return 0, 0
	}
	log.Info().Int("pending", attempts).Msg("queue: drain pass starting")

	for i := 0; i < attempts; i++ {
		q.mu.Lock()
		if len(q.entries) == 0 {
			q.mu.Unlock()
			break
		}
		d := q.entries[0]
		q.entries = q.entries[1:]
		_ = q.persistLocked(ctx)
		q.mu.Unlock()

		if err := replay(ctx, d); err != nil {
			d.Attempts++
			log.Warn().
				Str("type", string(d.Type)).
				Str("client_operation_id", d.ClientOperationID).
				Int("attempts", d.Attempts).
				Err(err).
				Msg("queue: replay failed, descriptor re-queued")
			failed++
			q.mu.Lock()
			q.entries = append(q.entries, d)
			_ = q.persistLocked(ctx)
			q.mu.Unlock()
			continue
		}
		replayed++
	}

	log.Info().Int("replayed", replayed).Int("failed", failed).Msg("queue: drain pass finished")
	return replayed, failed
}

// persistLocked writes the full list under the versioned key. Caller
// holds q.mu.
func (q *Queue) persistLocked(ctx context.Context) error {
	data, err := json.Marshal(q.entries)
	if err != nil {
		return err
	}
	if err := q.kv.Set(ctx, QueueKey, data); err != nil {
		log.Error().Err(err).Msg("queue: persist failed")
		return err
	}
	return nil
}
