package service

import (
	"context"
	"errors"
	"time"

	"github.com/rs/zerolog/log"
	"github.com/shopspring/decimal"

	"motorepuestos/internal/auth"
	"motorepuestos/internal/model"
	"motorepuestos/internal/repository"
)

type RegisterExpenseRequest struct {
	ShiftID string // optional — expenses attach to the day, not a shift
	Amount  decimal.Decimal
	Reason  string
}

type ExpenseService interface {
	RegisterExpense(ctx context.Context, actor auth.Capability, req RegisterExpenseRequest) (*model.Expense, error)
	ExpensesOfDay(ctx context.Context, date string) ([]model.Expense, error)
}

type expenseService struct {
	expenses repository.ExpenseRepository
	shifts   repository.ShiftRepository
	stats    repository.StatsRepository
}

func NewExpenseService(
	expenses repository.ExpenseRepository,
	shifts repository.ShiftRepository,
	stats repository.StatsRepository,
) ExpenseService {
	return &expenseService{expenses: expenses, shifts: shifts, stats: stats}
}

func (s *expenseService) RegisterExpense(ctx context.Context, actor auth.Capability, req RegisterExpenseRequest) (*model.Expense, error) {
	if !actor.Can(auth.PermExpense) {
		return nil, ErrPermission
	}
	if req.Amount.LessThanOrEqual(decimal.Zero) {
		return nil, errors.New("el monto del gasto debe ser mayor a cero")
	}
	if req.Reason == "" {
		return nil, errors.New("el gasto requiere un motivo")
	}

	now := time.Now().UTC()
	expense := &model.Expense{
		ShiftID:   req.ShiftID,
		Date:      now.Format("2006-01-02"),
		Amount:    req.Amount,
		Reason:    req.Reason,
		CreatedBy: actor.EmployeeID,
		CreatedAt: now,
	}
	if _, err := s.expenses.Create(ctx, expense); err != nil {
		return nil, err
	}

	// A drawer expense lowers the shift's expected cash. Best-effort,
	// same as the sale-side secondary effects.
	if req.ShiftID != "" {
		if err := s.shifts.IncrementTotals(ctx, req.ShiftID, model.MethodCash, req.Amount.Neg(), 0); err != nil {
			log.Warn().Str("shift_id", req.ShiftID).Err(err).
				Msg("expense: shift totals not updated")
		}
	}
	if s.stats != nil {
		if err := s.stats.RecordExpense(ctx, expense.Date, req.Amount); err != nil {
			log.Warn().Err(err).Msg("expense: stats not updated")
		}
	}

	return expense, nil
}

func (s *expenseService) ExpensesOfDay(ctx context.Context, date string) ([]model.Expense, error) {
	return s.expenses.ListByDate(ctx, date)
}
