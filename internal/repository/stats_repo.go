package repository

import (
	"context"
	"fmt"

	"github.com/redis/go-redis/v9"
	"github.com/shopspring/decimal"
)

// StatsRepository maintains the lightweight per-day aggregate record
// updated as a secondary effect of each sale. It is a convenience view
// for dashboards, never an input to reconciliation.
type StatsRepository interface {
	RecordSale(ctx context.Context, date, method string, total decimal.Decimal) error
	RecordExpense(ctx context.Context, date string, amount decimal.Decimal) error
	DayStats(ctx context.Context, date string) (map[string]string, error)
}

type redisStats struct{ rdb *redis.Client }

func NewStatsRepository(rdb *redis.Client) StatsRepository { return &redisStats{rdb: rdb} }

func statsKey(date string) string { return "stats:daily:" + date }

func (s *redisStats) RecordSale(ctx context.Context, date, method string, total decimal.Decimal) error {
	key := statsKey(date)
	amount := total.InexactFloat64()
	pipe := s.rdb.Pipeline()
	pipe.HIncrByFloat(ctx, key, "revenue", amount)
	pipe.HIncrByFloat(ctx, key, "method:"+method, amount)
	pipe.HIncrBy(ctx, key, "sales_count", 1)
	_, err := pipe.Exec(ctx)
	if err != nil {
		return fmt.Errorf("record sale stats: %w", err)
	}
	return nil
}

func (s *redisStats) RecordExpense(ctx context.Context, date string, amount decimal.Decimal) error {
	key := statsKey(date)
	pipe := s.rdb.Pipeline()
	pipe.HIncrByFloat(ctx, key, "expenses", amount.InexactFloat64())
	pipe.HIncrBy(ctx, key, "expense_count", 1)
	_, err := pipe.Exec(ctx)
	if err != nil {
		return fmt.Errorf("record expense stats: %w", err)
	}
	return nil
}

func (s *redisStats) DayStats(ctx context.Context, date string) (map[string]string, error) {
	return s.rdb.HGetAll(ctx, statsKey(date)).Result()
}
