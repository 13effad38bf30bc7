package offline

// Dead letter list for the offline queue. Descriptors evicted on
// overflow (or dropped by an operator) land here for manual
// inspection and replay instead of vanishing.

import (
	"context"
	"encoding/json"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog/log"

	"motorepuestos/internal/model"
)

// DLQKey is the Redis list the evicted descriptors are pushed onto.
const DLQKey = "dlq:offline_queue"

// DLQEntry wraps an evicted descriptor with the reason it ended up here.
type DLQEntry struct {
	Type              model.OperationType `json:"type"`
	Payload           json.RawMessage     `json:"payload"`
	ClientOperationID string              `json:"client_operation_id"`
	Reason            string              `json:"reason"`
	EvictedAt         string              `json:"evicted_at"` // ISO 8601
	Attempts          int                 `json:"attempts"`
}

// DeadLetter preserves evicted descriptors in Redis. A nil receiver or
// nil client is a no-op so tests can run without Redis.
type DeadLetter struct {
	rdb *redis.Client
}

func NewDeadLetter(rdb *redis.Client) *DeadLetter { return &DeadLetter{rdb: rdb} }

// Preserve pushes d to the dead letter list. Failures are logged, not
// propagated — this is last-resort bookkeeping.
func (dl *DeadLetter) Preserve(ctx context.Context, d model.OperationDescriptor, reason string) {
	if dl == nil || dl.rdb == nil {
		return
	}
	entry := DLQEntry{
		Type:              d.Type,
		Payload:           d.Payload,
		ClientOperationID: d.ClientOperationID,
		Reason:            reason,
		EvictedAt:         time.Now().UTC().Format(time.RFC3339),
		Attempts:          d.Attempts,
	}
	data, err := json.Marshal(entry)
	if err != nil {
		log.Error().Err(err).Msg("dlq: failed to marshal entry")
		return
	}
	if err := dl.rdb.LPush(ctx, DLQKey, data).Err(); err != nil {
		log.Error().Err(err).Msg("dlq: failed to push entry")
		return
	}
	log.Warn().
		Str("type", string(d.Type)).
		Str("client_operation_id", d.ClientOperationID).
		Str("reason", reason).
		Msg("dlq: descriptor preserved")
}

// Length returns the number of preserved entries, for monitoring.
func (dl *DeadLetter) Length(ctx context.Context) (int64, error) {
	if dl == nil || dl.rdb == nil {
		return 0, nil
	}
	return dl.rdb.LLen(ctx, DLQKey).Result()
}
