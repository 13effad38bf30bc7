package repository

import (
	"context"
	"encoding/json"

	"motorepuestos/internal/model"
	"motorepuestos/internal/store"
)

// ProductRepository is the slice of the catalog the sync layer needs:
// stock decrement on sale and the inventory page for the live hub.
// Catalog CRUD is a different surface entirely.
type ProductRepository interface {
	Create(ctx context.Context, p *model.Product) (string, error)
	FindByID(ctx context.Context, id string) (*model.Product, error)
	// AdjustStock applies delta (negative on sale) and returns the new
	// stock level. Availability is validated at registration time; a
	// queued sale replaying against stock that moved while it waited
	// may still drive the level negative, which is recorded as-is for
	// reconciliation rather than dropped.
	AdjustStock(ctx context.Context, id string, delta int) (int, error)
	List(ctx context.Context, limit int) ([]model.Product, error)
}

type productRepo struct{ st store.DocumentStore }

func NewProductRepository(st store.DocumentStore) ProductRepository { return &productRepo{st: st} }

func (r *productRepo) Create(ctx context.Context, p *model.Product) (string, error) {
	body, err := json.Marshal(p)
	if err != nil {
		return "", err
	}
	id, err := r.st.Add(ctx, store.ColProducts, body)
	if err != nil {
		return "", err
	}
	p.ID = id
	return id, nil
}

func (r *productRepo) FindByID(ctx context.Context, id string) (*model.Product, error) {
	doc, err := r.st.Get(ctx, store.ColProducts, id)
	if err != nil {
		return nil, err
	}
	var p model.Product
	if err := doc.Decode(&p); err != nil {
		return nil, err
	}
	if p.ID == "" {
		p.ID = doc.ID
	}
	return &p, nil
}

func (r *productRepo) AdjustStock(ctx context.Context, id string, delta int) (int, error) {
	p, err := r.FindByID(ctx, id)
	if err != nil {
		return 0, err
	}
	newStock := p.Stock + delta
	if err := r.st.Update(ctx, store.ColProducts, id, map[string]any{"stock": newStock}); err != nil {
		return 0, err
	}
	return newStock, nil
}

func (r *productRepo) List(ctx context.Context, limit int) ([]model.Product, error) {
	docs, err := r.st.Query(ctx, store.ColProducts, store.Query{OrderBy: "name", Limit: limit})
	if err != nil {
		return nil, err
	}
	products := make([]model.Product, 0, len(docs))
	for _, d := range docs {
		var p model.Product
		if err := d.Decode(&p); err != nil {
			return nil, err
		}
		if p.ID == "" {
			p.ID = d.ID
		}
		products = append(products, p)
	}
	return products, nil
}
