package model

import (
	"encoding/json"
	"time"
)

// OperationType classifies a queued offline write.
type OperationType string

const (
	OpSale      OperationType = "sale"
	OpShift     OperationType = "shift"
	OpInventory OperationType = "inventory"
)

// OperationDescriptor is one pending write that could not be committed
// while offline. Created when an online commit fails; removed once
// successfully replayed. ClientOperationID is the idempotency key.
type OperationDescriptor struct {
	Type              OperationType   `json:"type"`
	Payload           json.RawMessage `json:"payload"`
	ClientOperationID string          `json:"client_operation_id"`
	EnqueuedAt        time.Time       `json:"enqueued_at"`
	Attempts          int             `json:"attempts"`
}

// ShiftOpAction distinguishes queued shift writes.
const (
	ShiftOpOpen  = "open"
	ShiftOpClose = "close"
)

// ShiftOperation is the payload of an OpShift descriptor. A close
// carries the cash count produced at close time so the pair replays
// together.
type ShiftOperation struct {
	Action    string         `json:"action"` // open | close
	Shift     Shift          `json:"shift"`
	Patch     map[string]any `json:"patch,omitempty"`
	CashCount *CashCount     `json:"cash_count,omitempty"`
}

// InventoryAdjustment is the payload of an OpInventory descriptor.
type InventoryAdjustment struct {
	ProductID string `json:"product_id"`
	Delta     int    `json:"delta"`
	Reason    string `json:"reason,omitempty"`
}
