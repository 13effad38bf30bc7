package repository

import (
	"context"
	"encoding/json"

	"motorepuestos/internal/model"
	"motorepuestos/internal/store"
)

type SaleRepository interface {
	Create(ctx context.Context, s *model.Sale) (string, error)
	FindByClientOperationID(ctx context.Context, opID string) (*model.Sale, error)
	ListByDate(ctx context.Context, date string) ([]model.Sale, error)
	ListByShift(ctx context.Context, shiftID string) ([]model.Sale, error)
}

type saleRepo struct{ st store.DocumentStore }

func NewSaleRepository(st store.DocumentStore) SaleRepository { return &saleRepo{st: st} }

func (r *saleRepo) Create(ctx context.Context, s *model.Sale) (string, error) {
	body, err := json.Marshal(s)
	if err != nil {
		return "", err
	}
	id, err := r.st.Add(ctx, store.ColSales, body)
	if err != nil {
		return "", err
	}
	s.ID = id
	return id, nil
}

func (r *saleRepo) FindByClientOperationID(ctx context.Context, opID string) (*model.Sale, error) {
	if opID == "" {
		return nil, nil
	}
	docs, err := r.st.Query(ctx, store.ColSales, store.Query{
		Filters: []store.Filter{store.Eq("client_operation_id", opID)},
		Limit:   1,
	})
	if err != nil {
		return nil, err
	}
	if len(docs) == 0 {
		return nil, nil
	}
	return decodeSale(docs[0])
}

func (r *saleRepo) ListByDate(ctx context.Context, date string) ([]model.Sale, error) {
	docs, err := r.st.Query(ctx, store.ColSales, store.Query{
		Filters: []store.Filter{store.Eq("date", date)},
		OrderBy: "timestamp",
	})
	if err != nil {
		return nil, err
	}
	return decodeSales(docs)
}

func (r *saleRepo) ListByShift(ctx context.Context, shiftID string) ([]model.Sale, error) {
	docs, err := r.st.Query(ctx, store.ColSales, store.Query{
		Filters: []store.Filter{store.Eq("shift_id", shiftID)},
		OrderBy: "timestamp",
	})
	if err != nil {
		return nil, err
	}
	return decodeSales(docs)
}

func decodeSale(doc store.Document) (*model.Sale, error) {
	var s model.Sale
	if err := doc.Decode(&s); err != nil {
		return nil, err
	}
	if s.ID == "" {
		s.ID = doc.ID
	}
	return &s, nil
}

func decodeSales(docs []store.Document) ([]model.Sale, error) {
	sales := make([]model.Sale, 0, len(docs))
	for _, d := range docs {
		s, err := decodeSale(d)
		if err != nil {
			return nil, err
		}
		sales = append(sales, *s)
	}
	return sales, nil
}
