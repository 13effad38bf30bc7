package service

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/zerolog/log"
	"github.com/shopspring/decimal"

	"motorepuestos/internal/auth"
	"motorepuestos/internal/model"
	"motorepuestos/internal/repository"
)

type DayService interface {
	// CanFinalize is true iff both dayparts exist for date, both are
	// closed, and neither is already day-closed.
	CanFinalize(ctx context.Context, date string) (bool, error)
	// BuildSummary re-derives the day's numbers from the authoritative
	// sale and expense records. Shift totals are an incrementally
	// maintained cache; recomputing here catches drift.
	BuildSummary(ctx context.Context, date string) (*model.DaySummary, error)
	// Finalize writes the closing record and marks both shifts
	// day-closed. Irreversible — there is no unfinalize.
	Finalize(ctx context.Context, actor auth.Capability, date string) (*model.DaySummary, error)
	IsFinalized(ctx context.Context, date string) (bool, error)
}

type dayService struct {
	shifts   repository.ShiftRepository
	sales    repository.SaleRepository
	expenses repository.ExpenseRepository
	closures repository.DayClosureRepository
}

func NewDayService(
	shifts repository.ShiftRepository,
	sales repository.SaleRepository,
	expenses repository.ExpenseRepository,
	closures repository.DayClosureRepository,
) DayService {
	return &dayService{shifts: shifts, sales: sales, expenses: expenses, closures: closures}
}

func (s *dayService) CanFinalize(ctx context.Context, date string) (bool, error) {
	// The closure record is the authority on finalization. The day_closed
	// flags are a convenience that can be lost to a failed patch; an
	// existing closure closes the day regardless of what the flags say.
	closed, err := s.closures.FindByDate(ctx, date)
	if err != nil {
		return false, err
	}
	if closed != nil {
		return false, nil
	}

	morning, err := s.shifts.FindByDateDaypart(ctx, date, model.DaypartMorning)
	if err != nil {
		return false, err
	}
	afternoon, err := s.shifts.FindByDateDaypart(ctx, date, model.DaypartAfternoon)
	if err != nil {
		return false, err
	}
	if morning == nil || afternoon == nil {
		return false, nil
	}
	if morning.Status != model.ShiftClosed || afternoon.Status != model.ShiftClosed {
		return false, nil
	}
	if morning.DayClosed || afternoon.DayClosed {
		return false, nil
	}
	return true, nil
}

func (s *dayService) IsFinalized(ctx context.Context, date string) (bool, error) {
	existing, err := s.closures.FindByDate(ctx, date)
	if err != nil {
		return false, err
	}
	return existing != nil, nil
}

func (s *dayService) BuildSummary(ctx context.Context, date string) (*model.DaySummary, error) {
	shifts, err := s.shifts.ListByDate(ctx, date)
	if err != nil {
		return nil, fmt.Errorf("listando turnos: %w", err)
	}
	sales, err := s.sales.ListByDate(ctx, date)
	if err != nil {
		return nil, fmt.Errorf("listando ventas: %w", err)
	}
	expenses, err := s.expenses.ListByDate(ctx, date)
	if err != nil {
		return nil, fmt.Errorf("listando gastos: %w", err)
	}

	byMethod := make(map[string]decimal.Decimal, len(model.PaymentMethods))
	for _, m := range model.PaymentMethods {
		byMethod[m] = decimal.Zero
	}
	revenue := decimal.Zero
	for _, sale := range sales {
		revenue = revenue.Add(sale.Total)
		byMethod[sale.PaymentMethod] = byMethod[sale.PaymentMethod].Add(sale.Total)
	}

	totalExpenses := decimal.Zero
	for _, e := range expenses {
		totalExpenses = totalExpenses.Add(e.Amount)
	}

	return &model.DaySummary{
		Date:                 date,
		TotalShifts:          len(shifts),
		TotalSales:           len(sales),
		TotalRevenue:         revenue,
		TotalExpenses:        totalExpenses,
		SalesByPaymentMethod: byMethod,
		Shifts:               shifts,
		Expenses:             expenses,
	}, nil
}

func (s *dayService) Finalize(ctx context.Context, actor auth.Capability, date string) (*model.DaySummary, error) {
	if !actor.Can(auth.PermDayFinalize) {
		return nil, ErrPermission
	}

	// Checked directly, not just via CanFinalize: a closure written by a
	// previous Finalize whose shift patches were lost must still make
	// the second call fail as already-finalized, never as a retry.
	existing, err := s.closures.FindByDate(ctx, date)
	if err != nil {
		return nil, err
	}
	if existing != nil {
		return nil, ErrDayAlreadyFinalized
	}

	ok, err := s.CanFinalize(ctx, date)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, ErrDayNotFinalizable
	}

	summary, err := s.BuildSummary(ctx, date)
	if err != nil {
		return nil, err
	}
	now := time.Now().UTC()
	summary.FinalizedAt = &now
	summary.FinalizedBy = actor.EmployeeID

	// The store has no multi-document transaction: the closing record
	// and the two shift patches land as three writes. A crash between
	// them leaves a finalized record with an unflagged shift, which is
	// safe: every finalization gate consults the closure record first,
	// so a lost flag patch can never reopen the day.
	if _, err := s.closures.Create(ctx, summary); err != nil {
		return nil, fmt.Errorf("escribiendo cierre de día: %w", err)
	}
	for _, shift := range summary.Shifts {
		if err := s.shifts.Update(ctx, shift.ID, map[string]any{"day_closed": true}); err != nil {
			log.Error().Str("shift_id", shift.ID).Err(err).
				Msg("day: failed to flag shift after finalization")
		}
	}

	log.Info().
		Str("date", date).
		Str("revenue", summary.TotalRevenue.String()).
		Str("expenses", summary.TotalExpenses.String()).
		Msg("day: finalized")
	return summary, nil
}
