package repository

import (
	"context"
	"encoding/json"

	"motorepuestos/internal/model"
	"motorepuestos/internal/store"
)

type ExpenseRepository interface {
	Create(ctx context.Context, e *model.Expense) (string, error)
	ListByDate(ctx context.Context, date string) ([]model.Expense, error)
}

type expenseRepo struct{ st store.DocumentStore }

func NewExpenseRepository(st store.DocumentStore) ExpenseRepository { return &expenseRepo{st: st} }

func (r *expenseRepo) Create(ctx context.Context, e *model.Expense) (string, error) {
	body, err := json.Marshal(e)
	if err != nil {
		return "", err
	}
	id, err := r.st.Add(ctx, store.ColExpenses, body)
	if err != nil {
		return "", err
	}
	e.ID = id
	return id, nil
}

func (r *expenseRepo) ListByDate(ctx context.Context, date string) ([]model.Expense, error) {
	docs, err := r.st.Query(ctx, store.ColExpenses, store.Query{
		Filters: []store.Filter{store.Eq("date", date)},
		OrderBy: "created_at",
	})
	if err != nil {
		return nil, err
	}
	expenses := make([]model.Expense, 0, len(docs))
	for _, d := range docs {
		var e model.Expense
		if err := d.Decode(&e); err != nil {
			return nil, err
		}
		if e.ID == "" {
			e.ID = d.ID
		}
		expenses = append(expenses, e)
	}
	return expenses, nil
}
