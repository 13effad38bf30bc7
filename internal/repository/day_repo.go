package repository

import (
	"context"
	"encoding/json"

	"motorepuestos/internal/model"
	"motorepuestos/internal/store"
)

type DayClosureRepository interface {
	Create(ctx context.Context, s *model.DaySummary) (string, error)
	FindByDate(ctx context.Context, date string) (*model.DaySummary, error)
}

type dayClosureRepo struct{ st store.DocumentStore }

func NewDayClosureRepository(st store.DocumentStore) DayClosureRepository {
	return &dayClosureRepo{st: st}
}

func (r *dayClosureRepo) Create(ctx context.Context, s *model.DaySummary) (string, error) {
	body, err := json.Marshal(s)
	if err != nil {
		return "", err
	}
	return r.st.Add(ctx, store.ColDayClosures, body)
}

func (r *dayClosureRepo) FindByDate(ctx context.Context, date string) (*model.DaySummary, error) {
	docs, err := r.st.Query(ctx, store.ColDayClosures, store.Query{
		Filters: []store.Filter{store.Eq("date", date)},
		Limit:   1,
	})
	if err != nil {
		return nil, err
	}
	if len(docs) == 0 {
		return nil, nil
	}
	var s model.DaySummary
	if err := docs[0].Decode(&s); err != nil {
		return nil, err
	}
	return &s, nil
}
