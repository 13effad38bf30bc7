package service

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"motorepuestos/internal/model"
)

const testDate = "2025-03-10"

func openMorning(t *testing.T, e *env) *model.Shift {
	t.Helper()
	shift, commit, err := e.shiftSvc.OpenShift(context.Background(), cashier, OpenShiftRequest{
		Date:          testDate,
		Daypart:       model.DaypartMorning,
		OpeningAmount: dec("5000"),
	})
	require.NoError(t, err)
	require.False(t, commit.Pending)
	return shift
}

func closeShift(t *testing.T, e *env, shiftID string, counts map[string]int) *CloseShiftResult {
	t.Helper()
	result, err := e.shiftSvc.CloseShift(context.Background(), cashier, CloseShiftRequest{
		ShiftID: shiftID,
		Arqueo:  ArqueoInput{DenominationCounts: counts},
	})
	require.NoError(t, err)
	return result
}

func TestOpenShift(t *testing.T) {
	e := newEnv(t)
	shift := openMorning(t, e)

	assert.NotEmpty(t, shift.ID)
	assert.Equal(t, model.ShiftActive, shift.Status)
	assert.Equal(t, cashier.EmployeeID, shift.Employee.ID)
	assert.True(t, shift.Totals.Overall.IsZero())

	stored, err := e.shifts.FindByDateDaypart(context.Background(), testDate, model.DaypartMorning)
	require.NoError(t, err)
	require.NotNil(t, stored)
	assert.Equal(t, shift.ID, stored.ID)
}

func TestOpenShiftRejectsDuplicate(t *testing.T) {
	e := newEnv(t)
	openMorning(t, e)

	_, _, err := e.shiftSvc.OpenShift(context.Background(), cashier, OpenShiftRequest{
		Date:          testDate,
		Daypart:       model.DaypartMorning,
		OpeningAmount: dec("1000"),
	})
	assert.ErrorIs(t, err, ErrDuplicateShift)
}

func TestAfternoonRequiresClosedMorning(t *testing.T) {
	e := newEnv(t)
	open := func() error {
		_, _, err := e.shiftSvc.OpenShift(context.Background(), cashier, OpenShiftRequest{
			Date:          testDate,
			Daypart:       model.DaypartAfternoon,
			OpeningAmount: dec("2000"),
		})
		return err
	}

	// No morning shift at all.
	assert.ErrorIs(t, open(), ErrOutOfSequence)

	// Morning open but not closed.
	morning := openMorning(t, e)
	assert.ErrorIs(t, open(), ErrOutOfSequence)

	// Morning closed — afternoon may start.
	closeShift(t, e, morning.ID, map[string]int{"1000": 5})
	assert.NoError(t, open())
}

func TestOpenShiftPermission(t *testing.T) {
	e := newEnv(t)
	_, _, err := e.shiftSvc.OpenShift(context.Background(), viewer, OpenShiftRequest{
		Date:          testDate,
		Daypart:       model.DaypartMorning,
		OpeningAmount: dec("5000"),
	})
	assert.ErrorIs(t, err, ErrPermission)
}

func TestOpenShiftValidation(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()

	_, _, err := e.shiftSvc.OpenShift(ctx, cashier, OpenShiftRequest{
		Date: testDate, Daypart: "noche", OpeningAmount: dec("100"),
	})
	assert.ErrorIs(t, err, ErrInvalidDaypart)

	_, _, err = e.shiftSvc.OpenShift(ctx, cashier, OpenShiftRequest{
		Date: testDate, Daypart: model.DaypartMorning, OpeningAmount: dec("-1"),
	})
	assert.Error(t, err)
}

func TestCloseShiftFullCycle(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()
	shift := openMorning(t, e)

	// Two cash sales recorded against the shift: 1200 + 800.
	require.NoError(t, e.shifts.IncrementTotals(ctx, shift.ID, model.MethodCash, dec("1200"), 1))
	require.NoError(t, e.shifts.IncrementTotals(ctx, shift.ID, model.MethodCash, dec("800"), 1))

	// Drawer counted to exactly opening + sales = 7000.
	result := closeShift(t, e, shift.ID, map[string]int{"1000": 7})

	assert.Equal(t, model.ShiftClosed, result.Shift.Status)
	assert.False(t, result.Commit.Pending)
	require.NotNil(t, result.CashCount)
	assert.True(t, result.CashCount.TotalExpected.Equal(dec("7000")))
	assert.True(t, result.CashCount.TotalCounted.Equal(dec("7000")))
	assert.False(t, result.CashCount.HasDifference)

	// The closed shift references its cash count, and the count is
	// persisted on its own.
	stored, err := e.shifts.FindByID(ctx, shift.ID)
	require.NoError(t, err)
	assert.Equal(t, model.ShiftClosed, stored.Status)
	assert.Equal(t, result.CashCount.ID, stored.CashCountID)
	assert.NotNil(t, stored.EndTime)

	cc, err := e.cashCounts.FindByShift(ctx, shift.ID)
	require.NoError(t, err)
	require.NotNil(t, cc)
	assert.Equal(t, result.CashCount.ID, cc.ID)
}

func TestCloseShiftAlreadyClosed(t *testing.T) {
	e := newEnv(t)
	shift := openMorning(t, e)
	closeShift(t, e, shift.ID, map[string]int{"1000": 5})

	_, err := e.shiftSvc.CloseShift(context.Background(), cashier, CloseShiftRequest{
		ShiftID: shift.ID,
		Arqueo:  ArqueoInput{DenominationCounts: map[string]int{"1000": 5}},
	})
	assert.ErrorIs(t, err, ErrShiftNotActive)
}

func TestCloseShiftNotFound(t *testing.T) {
	e := newEnv(t)
	_, err := e.shiftSvc.CloseShift(context.Background(), cashier, CloseShiftRequest{
		ShiftID: "missing",
		Arqueo:  ArqueoInput{DenominationCounts: map[string]int{}},
	})
	assert.ErrorIs(t, err, ErrShiftNotFound)
}

func TestOpenShiftOfflineQueues(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()
	e.goOffline()

	shift, commit, err := e.shiftSvc.OpenShift(ctx, cashier, OpenShiftRequest{
		Date:          testDate,
		Daypart:       model.DaypartMorning,
		OpeningAmount: dec("5000"),
	})
	require.NoError(t, err)
	assert.True(t, commit.Pending)
	assert.Empty(t, shift.ID)
	assert.Equal(t, 1, e.queue.Size())

	// Nothing reached the store while offline.
	stored, err := e.shifts.FindByDateDaypart(ctx, testDate, model.DaypartMorning)
	require.NoError(t, err)
	assert.Nil(t, stored)

	// Drain replays the queued open.
	replayed, failed := e.coord.Sync(ctx)
	assert.Equal(t, 1, replayed)
	assert.Equal(t, 0, failed)
	assert.Equal(t, 0, e.queue.Size())

	stored, err = e.shifts.FindByDateDaypart(ctx, testDate, model.DaypartMorning)
	require.NoError(t, err)
	require.NotNil(t, stored)
	assert.Equal(t, model.ShiftActive, stored.Status)
}

func TestOpenShiftOfflineRejectsDuplicateWhileQueued(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()
	e.goOffline()

	_, commit, err := e.shiftSvc.OpenShift(ctx, cashier, OpenShiftRequest{
		Date:          testDate,
		Daypart:       model.DaypartMorning,
		OpeningAmount: dec("5000"),
	})
	require.NoError(t, err)
	require.True(t, commit.Pending)

	// The first open only exists in the queue, but the slot is taken.
	_, _, err = e.shiftSvc.OpenShift(ctx, admin, OpenShiftRequest{
		Date:          testDate,
		Daypart:       model.DaypartMorning,
		OpeningAmount: dec("3000"),
	})
	assert.ErrorIs(t, err, ErrDuplicateShift)
	assert.Equal(t, 1, e.queue.Size())

	// Replay lands exactly one active shift.
	replayed, failed := e.coord.Sync(ctx)
	assert.Equal(t, 1, replayed)
	assert.Equal(t, 0, failed)

	shifts, err := e.shifts.ListByDate(ctx, testDate)
	require.NoError(t, err)
	require.Len(t, shifts, 1)
	assert.Equal(t, model.ShiftActive, shifts[0].Status)
}

func TestCloseShiftOfflineReplaysWithCashCount(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()
	shift := openMorning(t, e)

	e.goOffline()
	result, err := e.shiftSvc.CloseShift(ctx, cashier, CloseShiftRequest{
		ShiftID: shift.ID,
		Arqueo:  ArqueoInput{DenominationCounts: map[string]int{"1000": 5}},
	})
	require.NoError(t, err)
	assert.True(t, result.Commit.Pending)

	replayed, failed := e.coord.Sync(ctx)
	assert.Equal(t, 1, replayed)
	assert.Equal(t, 0, failed)

	// The close and its cash count landed together.
	stored, err := e.shifts.FindByID(ctx, shift.ID)
	require.NoError(t, err)
	assert.Equal(t, model.ShiftClosed, stored.Status)
	cc, err := e.cashCounts.FindByShift(ctx, shift.ID)
	require.NoError(t, err)
	require.NotNil(t, cc)
	assert.Equal(t, result.CashCount.ID, cc.ID)
}
