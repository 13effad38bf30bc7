package offline

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"motorepuestos/internal/events"
	"motorepuestos/internal/infra"
	"motorepuestos/internal/model"
	"motorepuestos/internal/repository"
	"motorepuestos/internal/store"
)

// CommitResult is what every write returns. Pending means the write
// was queued for later replay — success with deferred confirmation,
// not a commit guarantee. ID is empty while pending.
type CommitResult struct {
	ID      string `json:"id,omitempty"`
	Pending bool   `json:"pending"`
}

// ErrShiftConflict: the (date, daypart) slot is already taken in the
// live store by a shift this operation did not create.
var ErrShiftConflict = errors.New("ya existe un turno para esa fecha y franja en el servidor")

// Coordinator is the write path of the sync layer. Online commits go
// through the circuit breaker; failures and offline periods turn into
// queued descriptors replayed on reconnect, deduplicated by client
// operation id.
type Coordinator struct {
	store      store.DocumentStore
	queue      *Queue
	monitor    *Monitor
	hub        *events.Hub
	cb         *infra.CircuitBreaker
	sales      repository.SaleRepository
	shifts     repository.ShiftRepository
	products   repository.ProductRepository
	cashCounts repository.CashCountRepository
	stats      repository.StatsRepository

	mu       sync.Mutex
	lastSync time.Time
}

// CoordinatorDeps keeps the constructor signature readable.
type CoordinatorDeps struct {
	Store      store.DocumentStore
	Queue      *Queue
	Monitor    *Monitor
	Hub        *events.Hub
	CB         *infra.CircuitBreaker
	Sales      repository.SaleRepository
	Shifts     repository.ShiftRepository
	Products   repository.ProductRepository
	CashCounts repository.CashCountRepository
	Stats      repository.StatsRepository // optional
}

// NewCoordinator wires the coordinator and registers it as the
// monitor's reconnect hook, so the queue drains exactly once per
// offline→online transition.
func NewCoordinator(deps CoordinatorDeps) *Coordinator {
	c := &Coordinator{
		store:      deps.Store,
		queue:      deps.Queue,
		monitor:    deps.Monitor,
		hub:        deps.Hub,
		cb:         deps.CB,
		sales:      deps.Sales,
		shifts:     deps.Shifts,
		products:   deps.Products,
		cashCounts: deps.CashCounts,
		stats:      deps.Stats,
	}
	if c.cb == nil {
		c.cb = infra.NewCircuitBreaker(infra.DefaultCBConfig())
	}
	if deps.Monitor != nil {
		deps.Monitor.OnReconnect(func() {
			go c.Sync(context.Background())
		})
	}
	return c
}

// LastSync reports when the last drain pass completed.
func (c *Coordinator) LastSync() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.lastSync
}

// QueueSize exposes the pending descriptor count.
func (c *Coordinator) QueueSize() int { return c.queue.Size() }

// ── Sale ─────────────────────────────────────────────────────────────────────

// CommitSale commits a sale or queues it. On a successful commit the
// secondary effects run: stock decrement, shift totals increment and
// the stats record — each best-effort, none can fail the sale.
func (c *Coordinator) CommitSale(ctx context.Context, sale *model.Sale) (CommitResult, error) {
	if sale.ClientOperationID == "" {
		sale.ClientOperationID = uuid.NewString()
	}
	if sale.Timestamp.IsZero() {
		sale.Timestamp = time.Now().UTC()
	}
	if sale.Date == "" {
		sale.Date = sale.Timestamp.Format("2006-01-02")
	}

	if !c.monitor.IsOnline() {
		return c.enqueueSale(ctx, sale)
	}
	id, err := c.commitSaleOnline(ctx, sale)
	if err != nil {
		log.Warn().Err(err).Str("client_operation_id", sale.ClientOperationID).
			Msg("coordinator: sale commit failed, queuing")
		return c.enqueueSale(ctx, sale)
	}
	return CommitResult{ID: id}, nil
}

func (c *Coordinator) enqueueSale(ctx context.Context, sale *model.Sale) (CommitResult, error) {
	payload, err := json.Marshal(sale)
	if err != nil {
		return CommitResult{}, err
	}
	err = c.queue.Enqueue(ctx, model.OperationDescriptor{
		Type:              model.OpSale,
		Payload:           payload,
		ClientOperationID: sale.ClientOperationID,
	})
	return CommitResult{Pending: true}, err
}

func (c *Coordinator) commitSaleOnline(ctx context.Context, sale *model.Sale) (string, error) {
	var id string
	err := c.cb.Execute(func() error {
		existing, err := c.sales.FindByClientOperationID(ctx, sale.ClientOperationID)
		if err != nil {
			return err
		}
		if existing != nil {
			// Replay of an already-committed operation.
			id = existing.ID
			return nil
		}
		id, err = c.sales.Create(ctx, sale)
		if err != nil {
			return err
		}
		c.saleSecondaryEffects(ctx, sale)
		return nil
	})
	if err != nil {
		return "", err
	}

	c.hub.Publish(events.SaleSynced{SaleID: id, Sale: *sale, Timestamp: time.Now().UTC()})
	return id, nil
}

// saleSecondaryEffects runs the side effects of a committed sale. Each
// is independently best-effort: a failure is logged and surfaced as a
// degraded event, never rolled into the primary result.
func (c *Coordinator) saleSecondaryEffects(ctx context.Context, sale *model.Sale) {
	for _, item := range sale.Items {
		if _, err := c.products.AdjustStock(ctx, item.ProductID, -item.Quantity); err != nil {
			c.degrade("sale", "stock_decrement_failed",
				fmt.Sprintf("product %s: %v", item.ProductID, err))
		}
	}

	if sale.ShiftID != "" {
		if err := c.shifts.IncrementTotals(ctx, sale.ShiftID, sale.PaymentMethod, sale.Total, 1); err != nil {
			c.degrade("sale", "shift_totals_failed",
				fmt.Sprintf("shift %s: %v", sale.ShiftID, err))
		}
	}

	if c.stats != nil {
		if err := c.stats.RecordSale(ctx, sale.Date, sale.PaymentMethod, sale.Total); err != nil {
			c.degrade("sale", "stats_update_failed", err.Error())
		}
	}
}

// ── Shift ────────────────────────────────────────────────────────────────────

// CommitShiftOpen commits a newly opened shift or queues it. A
// conflict is never queued: retrying cannot make the slot free.
func (c *Coordinator) CommitShiftOpen(ctx context.Context, shift *model.Shift) (CommitResult, error) {
	if shift.ClientOperationID == "" {
		shift.ClientOperationID = uuid.NewString()
	}
	if !c.monitor.IsOnline() {
		return c.enqueueShift(ctx, model.ShiftOperation{Action: model.ShiftOpOpen, Shift: *shift}, shift.ClientOperationID)
	}
	id, err := c.commitShiftOpenOnline(ctx, shift)
	if err != nil {
		if errors.Is(err, ErrShiftConflict) {
			return CommitResult{}, err
		}
		log.Warn().Err(err).Msg("coordinator: shift open commit failed, queuing")
		return c.enqueueShift(ctx, model.ShiftOperation{Action: model.ShiftOpOpen, Shift: *shift}, shift.ClientOperationID)
	}
	return CommitResult{ID: id}, nil
}

// HasPendingShiftOpen reports whether a queued shift-open descriptor
// already targets (date, daypart). Precondition checks consult it so
// an open waiting in the queue blocks a second one for the same slot.
func (c *Coordinator) HasPendingShiftOpen(date string, daypart model.Daypart) bool {
	for _, d := range c.queue.Snapshot() {
		if d.Type != model.OpShift {
			continue
		}
		var op model.ShiftOperation
		if err := json.Unmarshal(d.Payload, &op); err != nil {
			continue
		}
		if op.Action == model.ShiftOpOpen && op.Shift.Date == date && op.Shift.Daypart == daypart {
			return true
		}
	}
	return false
}

// CommitShiftClose commits the closing patch of shiftID — together
// with the cash count produced at close time — or queues the pair as
// one descriptor. The cash count carries a client-assigned id, so a
// replay upserts instead of duplicating.
func (c *Coordinator) CommitShiftClose(ctx context.Context, shiftID string, patch map[string]any, cc *model.CashCount) (CommitResult, error) {
	opID := uuid.NewString()
	op := model.ShiftOperation{
		Action:    model.ShiftOpClose,
		Shift:     model.Shift{ID: shiftID},
		Patch:     patch,
		CashCount: cc,
	}
	if !c.monitor.IsOnline() {
		return c.enqueueShift(ctx, op, opID)
	}
	if err := c.commitShiftCloseOnline(ctx, shiftID, patch, cc); err != nil {
		log.Warn().Err(err).Str("shift_id", shiftID).
			Msg("coordinator: shift close commit failed, queuing")
		return c.enqueueShift(ctx, op, opID)
	}
	return CommitResult{ID: shiftID}, nil
}

func (c *Coordinator) enqueueShift(ctx context.Context, op model.ShiftOperation, opID string) (CommitResult, error) {
	payload, err := json.Marshal(op)
	if err != nil {
		return CommitResult{}, err
	}
	err = c.queue.Enqueue(ctx, model.OperationDescriptor{
		Type:              model.OpShift,
		Payload:           payload,
		ClientOperationID: opID,
	})
	return CommitResult{Pending: true}, err
}

func (c *Coordinator) commitShiftOpenOnline(ctx context.Context, shift *model.Shift) (string, error) {
	var id string
	var conflict bool
	err := c.cb.Execute(func() error {
		existing, err := c.shifts.FindByClientOperationID(ctx, shift.ClientOperationID)
		if err != nil {
			return err
		}
		if existing != nil {
			id = existing.ID
			return nil
		}
		// The precondition ran against a possibly stale local view; the
		// slot may have been taken while this open waited. Re-check the
		// live store so a stale open never mints a second active shift.
		occupied, err := c.shifts.FindByDateDaypart(ctx, shift.Date, shift.Daypart)
		if err != nil {
			return err
		}
		if occupied != nil {
			conflict = true
			return nil
		}
		id, err = c.shifts.Create(ctx, shift)
		return err
	})
	if err != nil {
		return "", err
	}
	if conflict {
		return "", ErrShiftConflict
	}
	c.hub.Publish(events.ShiftSynced{ShiftID: id, Shift: *shift, Timestamp: time.Now().UTC()})
	return id, nil
}

func (c *Coordinator) commitShiftCloseOnline(ctx context.Context, shiftID string, patch map[string]any, cc *model.CashCount) error {
	err := c.cb.Execute(func() error {
		if cc != nil {
			if _, err := c.cashCounts.Create(ctx, cc); err != nil {
				return err
			}
		}
		return c.shifts.Update(ctx, shiftID, patch)
	})
	if err != nil {
		return err
	}
	closed, findErr := c.shifts.FindByID(ctx, shiftID)
	ev := events.ShiftSynced{ShiftID: shiftID, Timestamp: time.Now().UTC()}
	if findErr == nil {
		ev.Shift = *closed
	}
	c.hub.Publish(ev)
	return nil
}

// ── Inventory adjustment ─────────────────────────────────────────────────────

// CommitInventoryAdjustment applies a manual stock delta or queues it.
func (c *Coordinator) CommitInventoryAdjustment(ctx context.Context, adj model.InventoryAdjustment) (CommitResult, error) {
	if !c.monitor.IsOnline() {
		return c.enqueueInventory(ctx, adj)
	}
	err := c.cb.Execute(func() error {
		_, err := c.products.AdjustStock(ctx, adj.ProductID, adj.Delta)
		return err
	})
	if err != nil {
		log.Warn().Err(err).Str("product_id", adj.ProductID).
			Msg("coordinator: inventory adjustment failed, queuing")
		return c.enqueueInventory(ctx, adj)
	}
	return CommitResult{ID: adj.ProductID}, nil
}

func (c *Coordinator) enqueueInventory(ctx context.Context, adj model.InventoryAdjustment) (CommitResult, error) {
	payload, err := json.Marshal(adj)
	if err != nil {
		return CommitResult{}, err
	}
	err = c.queue.Enqueue(ctx, model.OperationDescriptor{
		Type:              model.OpInventory,
		Payload:           payload,
		ClientOperationID: uuid.NewString(),
	})
	return CommitResult{Pending: true}, err
}

// ── Replay ───────────────────────────────────────────────────────────────────

// Sync runs one drain pass and publishes sync_completed. Also the
// entry point for manual force-sync.
func (c *Coordinator) Sync(ctx context.Context) (replayed, failed int) {
	replayed, failed = c.queue.Drain(ctx, c.replay)

	c.mu.Lock()
	c.lastSync = time.Now().UTC()
	c.mu.Unlock()

	c.hub.Publish(events.SyncCompleted{
		Replayed:  replayed,
		Remaining: c.queue.Size(),
		Timestamp: time.Now().UTC(),
	})
	return replayed, failed
}

// replay re-runs one descriptor through the online commit path. The
// dedup lookup makes a lost-ack retry a no-op instead of a duplicate.
func (c *Coordinator) replay(ctx context.Context, d model.OperationDescriptor) error {
	switch d.Type {
	case model.OpSale:
		var sale model.Sale
		if err := json.Unmarshal(d.Payload, &sale); err != nil {
			return fmt.Errorf("decode sale descriptor: %w", err)
		}
		sale.ClientOperationID = d.ClientOperationID
		_, err := c.commitSaleOnline(ctx, &sale)
		return err

	case model.OpShift:
		var op model.ShiftOperation
		if err := json.Unmarshal(d.Payload, &op); err != nil {
			return fmt.Errorf("decode shift descriptor: %w", err)
		}
		if op.Action == model.ShiftOpClose {
			return c.commitShiftCloseOnline(ctx, op.Shift.ID, op.Patch, op.CashCount)
		}
		shift := op.Shift
		if shift.ClientOperationID == "" {
			shift.ClientOperationID = d.ClientOperationID
		}
		_, err := c.commitShiftOpenOnline(ctx, &shift)
		if errors.Is(err, ErrShiftConflict) {
			// The slot was taken while this open sat in the queue.
			// Retrying cannot succeed; reject the descriptor and keep
			// the shift that already exists.
			c.degrade("shift", "open_conflict",
				fmt.Sprintf("%s %s: descriptor %s rejected", shift.Date, shift.Daypart, d.ClientOperationID))
			return nil
		}
		return err

	case model.OpInventory:
		var adj model.InventoryAdjustment
		if err := json.Unmarshal(d.Payload, &adj); err != nil {
			return fmt.Errorf("decode inventory descriptor: %w", err)
		}
		return c.cb.Execute(func() error {
			_, err := c.products.AdjustStock(ctx, adj.ProductID, adj.Delta)
			return err
		})

	default:
		return fmt.Errorf("unknown descriptor type %q", d.Type)
	}
}

func (c *Coordinator) degrade(operation, reason, detail string) {
	log.Error().Str("operation", operation).Str("reason", reason).Str("detail", detail).
		Msg("coordinator: secondary effect failed")
	c.hub.Publish(events.SyncDegraded{
		Operation: operation,
		Reason:    reason,
		Detail:    detail,
		Timestamp: time.Now().UTC(),
	})
}
