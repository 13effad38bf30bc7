package service

import (
	"context"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"motorepuestos/internal/model"
)

func TestRegisterExpense(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()

	expense, err := e.expenseSvc.RegisterExpense(ctx, cashier, RegisterExpenseRequest{
		Amount: dec("2500"),
		Reason: "envio de repuestos",
	})
	require.NoError(t, err)
	assert.NotEmpty(t, expense.ID)
	assert.Equal(t, time.Now().UTC().Format("2006-01-02"), expense.Date)
	assert.Equal(t, cashier.EmployeeID, expense.CreatedBy)

	listed, err := e.expenseSvc.ExpensesOfDay(ctx, expense.Date)
	require.NoError(t, err)
	require.Len(t, listed, 1)
	assert.True(t, listed[0].Amount.Equal(dec("2500")))
}

func TestRegisterExpenseFoldsIntoShiftCash(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()
	shift := openMorning(t, e)
	require.NoError(t, e.shifts.IncrementTotals(ctx, shift.ID, model.MethodCash, dec("4000"), 1))

	_, err := e.expenseSvc.RegisterExpense(ctx, cashier, RegisterExpenseRequest{
		ShiftID: shift.ID,
		Amount:  dec("1000"),
		Reason:  "compra insumos",
	})
	require.NoError(t, err)

	// The drawer expense lowers expected cash without counting as a sale.
	updated, err := e.shifts.FindByID(ctx, shift.ID)
	require.NoError(t, err)
	assert.True(t, updated.Totals.ByMethod[model.MethodCash].Equal(dec("3000")))
	assert.True(t, updated.Totals.Overall.Equal(dec("3000")))
	assert.Equal(t, 1, updated.SalesCount)
	assert.True(t, updated.ExpectedCash().Equal(dec("8000")), "opening 5000 + 3000")
}

func TestRegisterExpenseValidation(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()

	_, err := e.expenseSvc.RegisterExpense(ctx, viewer, RegisterExpenseRequest{
		Amount: dec("100"), Reason: "x",
	})
	assert.ErrorIs(t, err, ErrPermission)

	_, err = e.expenseSvc.RegisterExpense(ctx, cashier, RegisterExpenseRequest{
		Amount: decimal.Zero, Reason: "sin monto",
	})
	assert.Error(t, err)

	_, err = e.expenseSvc.RegisterExpense(ctx, cashier, RegisterExpenseRequest{
		Amount: dec("100"),
	})
	assert.Error(t, err, "missing reason")
}
