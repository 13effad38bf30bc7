// Package events is the typed publish/subscribe fabric between the
// sync layer and its consumers. Event kinds are a closed set; every
// kind carries its own payload record so listeners never cast through
// untyped maps.
package events

import (
	"time"

	"motorepuestos/internal/model"
)

// Kind names one event topic.
type Kind string

const (
	KindSalesUpdated         Kind = "sales_updated"
	KindSaleSynced           Kind = "sale_synced"
	KindInventoryUpdated     Kind = "inventory_updated"
	KindStockAlert           Kind = "stock_alert"
	KindShiftsUpdated        Kind = "shifts_updated"
	KindShiftSynced          Kind = "shift_synced"
	KindSyncCompleted        Kind = "sync_completed"
	KindNotificationReceived Kind = "notification_received"
	KindSyncDegraded         Kind = "sync_degraded"
)

// Event is implemented by every payload record.
type Event interface {
	Kind() Kind
}

// SalesUpdated carries the latest sales page. Debounced.
type SalesUpdated struct {
	Sales     []model.Sale
	Timestamp time.Time
}

func (SalesUpdated) Kind() Kind { return KindSalesUpdated }

// SaleSynced fires once per committed sale, immediately.
type SaleSynced struct {
	SaleID    string
	Sale      model.Sale
	Timestamp time.Time
}

func (SaleSynced) Kind() Kind { return KindSaleSynced }

// InventoryUpdated carries the latest inventory page. Debounced.
type InventoryUpdated struct {
	Inventory []model.Product
	Timestamp time.Time
}

func (InventoryUpdated) Kind() Kind { return KindInventoryUpdated }

// StockAlert lists items at or below their minimum stock. Immediate.
type StockAlert struct {
	Items     []model.Product
	Timestamp time.Time
}

func (StockAlert) Kind() Kind { return KindStockAlert }

// ShiftsUpdated carries the latest shifts page. Immediate.
type ShiftsUpdated struct {
	Shifts    []model.Shift
	Timestamp time.Time
}

func (ShiftsUpdated) Kind() Kind { return KindShiftsUpdated }

// ShiftSynced fires when a shift open/close commit lands. Immediate.
type ShiftSynced struct {
	ShiftID   string
	Shift     model.Shift
	Timestamp time.Time
}

func (ShiftSynced) Kind() Kind { return KindShiftSynced }

// SyncCompleted fires after a queue drain pass finishes. Immediate.
type SyncCompleted struct {
	Replayed  int
	Remaining int
	Timestamp time.Time
}

func (SyncCompleted) Kind() Kind { return KindSyncCompleted }

// NotificationReceived is a generic operator-facing notification.
type NotificationReceived struct {
	Type      string
	Title     string
	Message   string
	Priority  string
	Timestamp time.Time
	Data      map[string]any
}

func (NotificationReceived) Kind() Kind { return KindNotificationReceived }

// SyncDegraded surfaces best-effort failures that would otherwise only
// reach the logs: a secondary effect that did not land after a primary
// commit, or a descriptor evicted from a full queue. Operators
// reconcile from these instead of grepping consoles.
type SyncDegraded struct {
	Operation string
	Reason    string
	Detail    string
	Timestamp time.Time
}

func (SyncDegraded) Kind() Kind { return KindSyncDegraded }
