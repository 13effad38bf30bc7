package repository

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/shopspring/decimal"

	"motorepuestos/internal/model"
	"motorepuestos/internal/store"
)

type ShiftRepository interface {
	Create(ctx context.Context, s *model.Shift) (string, error)
	Update(ctx context.Context, id string, patch map[string]any) error
	FindByID(ctx context.Context, id string) (*model.Shift, error)
	FindByDateDaypart(ctx context.Context, date string, daypart model.Daypart) (*model.Shift, error)
	FindByClientOperationID(ctx context.Context, opID string) (*model.Shift, error)
	ListByDate(ctx context.Context, date string) ([]model.Shift, error)
	// IncrementTotals folds one sale or expense into the running
	// aggregate: totals.by_method[method] += amount, totals.overall +=
	// amount, sales_count += salesDelta. Incremental on purpose — the
	// active-shift view must not re-scan all sales on every update.
	IncrementTotals(ctx context.Context, shiftID, method string, amount decimal.Decimal, salesDelta int) error
}

type shiftRepo struct{ st store.DocumentStore }

func NewShiftRepository(st store.DocumentStore) ShiftRepository { return &shiftRepo{st: st} }

func (r *shiftRepo) Create(ctx context.Context, s *model.Shift) (string, error) {
	body, err := json.Marshal(s)
	if err != nil {
		return "", err
	}
	id, err := r.st.Add(ctx, store.ColShifts, body)
	if err != nil {
		return "", err
	}
	s.ID = id
	return id, nil
}

func (r *shiftRepo) Update(ctx context.Context, id string, patch map[string]any) error {
	return r.st.Update(ctx, store.ColShifts, id, patch)
}

func (r *shiftRepo) FindByID(ctx context.Context, id string) (*model.Shift, error) {
	doc, err := r.st.Get(ctx, store.ColShifts, id)
	if err != nil {
		return nil, err
	}
	return decodeShift(doc)
}

func (r *shiftRepo) FindByDateDaypart(ctx context.Context, date string, daypart model.Daypart) (*model.Shift, error) {
	docs, err := r.st.Query(ctx, store.ColShifts, store.Query{
		Filters: []store.Filter{store.Eq("date", date), store.Eq("daypart", string(daypart))},
		Limit:   1,
	})
	if err != nil {
		return nil, err
	}
	if len(docs) == 0 {
		return nil, nil
	}
	return decodeShift(docs[0])
}

func (r *shiftRepo) FindByClientOperationID(ctx context.Context, opID string) (*model.Shift, error) {
	if opID == "" {
		return nil, nil
	}
	docs, err := r.st.Query(ctx, store.ColShifts, store.Query{
		Filters: []store.Filter{store.Eq("client_operation_id", opID)},
		Limit:   1,
	})
	if err != nil {
		return nil, err
	}
	if len(docs) == 0 {
		return nil, nil
	}
	return decodeShift(docs[0])
}

func (r *shiftRepo) ListByDate(ctx context.Context, date string) ([]model.Shift, error) {
	docs, err := r.st.Query(ctx, store.ColShifts, store.Query{
		Filters: []store.Filter{store.Eq("date", date)},
		OrderBy: "start_time",
	})
	if err != nil {
		return nil, err
	}
	shifts := make([]model.Shift, 0, len(docs))
	for _, d := range docs {
		s, err := decodeShift(d)
		if err != nil {
			return nil, err
		}
		shifts = append(shifts, *s)
	}
	return shifts, nil
}

func (r *shiftRepo) IncrementTotals(ctx context.Context, shiftID, method string, amount decimal.Decimal, salesDelta int) error {
	s, err := r.FindByID(ctx, shiftID)
	if err != nil {
		return fmt.Errorf("load shift for totals: %w", err)
	}
	if s.Status != model.ShiftActive {
		return errors.New("shift is not active")
	}
	if s.Totals.ByMethod == nil {
		s.Totals = model.NewShiftTotals()
	}
	s.Totals.ByMethod[method] = s.Totals.ByMethod[method].Add(amount)
	s.Totals.Overall = s.Totals.Overall.Add(amount)
	return r.Update(ctx, shiftID, map[string]any{
		"totals":      s.Totals,
		"sales_count": s.SalesCount + salesDelta,
	})
}

func decodeShift(doc store.Document) (*model.Shift, error) {
	var s model.Shift
	if err := doc.Decode(&s); err != nil {
		return nil, err
	}
	if s.ID == "" {
		s.ID = doc.ID
	}
	return &s, nil
}
