package service

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"motorepuestos/internal/model"
)

// closeDay opens and closes both dayparts with balanced drawers.
func closeDay(t *testing.T, e *env) (morning, afternoon *model.Shift) {
	t.Helper()
	morning = openMorning(t, e)
	closeShift(t, e, morning.ID, map[string]int{"1000": 5})

	afternoon, commit, err := e.shiftSvc.OpenShift(context.Background(), cashier, OpenShiftRequest{
		Date:          testDate,
		Daypart:       model.DaypartAfternoon,
		OpeningAmount: dec("3000"),
	})
	require.NoError(t, err)
	require.False(t, commit.Pending)
	closeShift(t, e, afternoon.ID, map[string]int{"1000": 3})
	return morning, afternoon
}

func TestCanFinalize(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()

	// No shifts at all.
	ok, err := e.daySvc.CanFinalize(ctx, testDate)
	require.NoError(t, err)
	assert.False(t, ok)

	// Only the morning shift, still open.
	morning := openMorning(t, e)
	ok, err = e.daySvc.CanFinalize(ctx, testDate)
	require.NoError(t, err)
	assert.False(t, ok)

	// Morning closed, afternoon missing.
	closeShift(t, e, morning.ID, map[string]int{"1000": 5})
	ok, err = e.daySvc.CanFinalize(ctx, testDate)
	require.NoError(t, err)
	assert.False(t, ok)

	// Afternoon open.
	afternoon, _, err := e.shiftSvc.OpenShift(ctx, cashier, OpenShiftRequest{
		Date:          testDate,
		Daypart:       model.DaypartAfternoon,
		OpeningAmount: dec("3000"),
	})
	require.NoError(t, err)
	ok, err = e.daySvc.CanFinalize(ctx, testDate)
	require.NoError(t, err)
	assert.False(t, ok)

	// Both closed.
	closeShift(t, e, afternoon.ID, map[string]int{"1000": 3})
	ok, err = e.daySvc.CanFinalize(ctx, testDate)
	require.NoError(t, err)
	assert.True(t, ok)
}

func TestBuildSummaryRecomputesFromRecords(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()
	morning, afternoon := closeDay(t, e)

	// Sales recorded directly: the summary derives from sale records,
	// not from the incrementally maintained shift totals.
	_, err := e.sales.Create(ctx, &model.Sale{
		ShiftID: morning.ID, Date: testDate,
		Total: dec("10000"), PaymentMethod: model.MethodCash,
	})
	require.NoError(t, err)
	_, err = e.sales.Create(ctx, &model.Sale{
		ShiftID: afternoon.ID, Date: testDate,
		Total: dec("8000"), PaymentMethod: model.MethodDebit,
	})
	require.NoError(t, err)
	_, err = e.expenses.Create(ctx, &model.Expense{
		Date: testDate, Amount: dec("3000"), Reason: "flete",
	})
	require.NoError(t, err)

	summary, err := e.daySvc.BuildSummary(ctx, testDate)
	require.NoError(t, err)

	assert.Equal(t, 2, summary.TotalShifts)
	assert.Equal(t, 2, summary.TotalSales)
	assert.True(t, summary.TotalRevenue.Equal(dec("18000")))
	assert.True(t, summary.TotalExpenses.Equal(dec("3000")))
	assert.True(t, summary.SalesByPaymentMethod[model.MethodCash].Equal(dec("10000")))
	assert.True(t, summary.SalesByPaymentMethod[model.MethodDebit].Equal(dec("8000")))
	assert.True(t, summary.SalesByPaymentMethod[model.MethodCredit].IsZero())
}

func TestFinalizeDay(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()
	morning, afternoon := closeDay(t, e)

	summary, err := e.daySvc.Finalize(ctx, admin, testDate)
	require.NoError(t, err)
	require.NotNil(t, summary.FinalizedAt)
	assert.Equal(t, admin.EmployeeID, summary.FinalizedBy)

	// Closure persisted, both shifts flagged.
	finalized, err := e.daySvc.IsFinalized(ctx, testDate)
	require.NoError(t, err)
	assert.True(t, finalized)

	for _, id := range []string{morning.ID, afternoon.ID} {
		s, err := e.shifts.FindByID(ctx, id)
		require.NoError(t, err)
		assert.True(t, s.DayClosed)
	}

	// Irreversible: a second finalization is rejected.
	_, err = e.daySvc.Finalize(ctx, admin, testDate)
	assert.ErrorIs(t, err, ErrDayAlreadyFinalized)

	ok, err := e.daySvc.CanFinalize(ctx, testDate)
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestFinalizeDayClosureRecordIsAuthoritative(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()
	closeDay(t, e)

	// A closure exists but the shift flag patches were lost, so the
	// shifts still read day_closed=false. The closure alone must keep
	// the day final.
	summary, err := e.daySvc.BuildSummary(ctx, testDate)
	require.NoError(t, err)
	_, err = e.closures.Create(ctx, summary)
	require.NoError(t, err)

	ok, err := e.daySvc.CanFinalize(ctx, testDate)
	require.NoError(t, err)
	assert.False(t, ok)

	_, err = e.daySvc.Finalize(ctx, admin, testDate)
	assert.ErrorIs(t, err, ErrDayAlreadyFinalized)

	// Still exactly one closure record.
	stored, err := e.closures.FindByDate(ctx, testDate)
	require.NoError(t, err)
	require.NotNil(t, stored)
}

func TestFinalizeDayPreconditions(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()

	_, err := e.daySvc.Finalize(ctx, admin, testDate)
	assert.ErrorIs(t, err, ErrDayNotFinalizable)

	_, err = e.daySvc.Finalize(ctx, viewer, testDate)
	assert.ErrorIs(t, err, ErrPermission)
}
