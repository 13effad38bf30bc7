package repository

import (
	"context"
	"encoding/json"

	"motorepuestos/internal/model"
	"motorepuestos/internal/store"
)

type CashCountRepository interface {
	Create(ctx context.Context, c *model.CashCount) (string, error)
	FindByID(ctx context.Context, id string) (*model.CashCount, error)
	FindByShift(ctx context.Context, shiftID string) (*model.CashCount, error)
}

type cashCountRepo struct{ st store.DocumentStore }

func NewCashCountRepository(st store.DocumentStore) CashCountRepository {
	return &cashCountRepo{st: st}
}

func (r *cashCountRepo) Create(ctx context.Context, c *model.CashCount) (string, error) {
	body, err := json.Marshal(c)
	if err != nil {
		return "", err
	}
	id, err := r.st.Add(ctx, store.ColCashCounts, body)
	if err != nil {
		return "", err
	}
	c.ID = id
	return id, nil
}

func (r *cashCountRepo) FindByID(ctx context.Context, id string) (*model.CashCount, error) {
	doc, err := r.st.Get(ctx, store.ColCashCounts, id)
	if err != nil {
		return nil, err
	}
	return decodeCashCount(doc)
}

func (r *cashCountRepo) FindByShift(ctx context.Context, shiftID string) (*model.CashCount, error) {
	docs, err := r.st.Query(ctx, store.ColCashCounts, store.Query{
		Filters: []store.Filter{store.Eq("shift_id", shiftID)},
		Limit:   1,
	})
	if err != nil {
		return nil, err
	}
	if len(docs) == 0 {
		return nil, nil
	}
	return decodeCashCount(docs[0])
}

func decodeCashCount(doc store.Document) (*model.CashCount, error) {
	var c model.CashCount
	if err := doc.Decode(&c); err != nil {
		return nil, err
	}
	if c.ID == "" {
		c.ID = doc.ID
	}
	return &c, nil
}
