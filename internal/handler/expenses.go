package handler

import (
	"net/http"

	"motorepuestos/internal/apierror"
	"motorepuestos/internal/dto"
	"motorepuestos/internal/middleware"
	"motorepuestos/internal/service"

	"github.com/gin-gonic/gin"
)

type ExpenseHandler struct{ svc service.ExpenseService }

func NewExpenseHandler(svc service.ExpenseService) *ExpenseHandler {
	return &ExpenseHandler{svc: svc}
}

func (h *ExpenseHandler) Register(c *gin.Context) {
	var req dto.RegisterExpenseRequest
	if !bindAndValidate(c, &req) {
		return
	}
	actor := middleware.GetCapability(c)

	expense, err := h.svc.RegisterExpense(c.Request.Context(), actor, service.RegisterExpenseRequest{
		ShiftID: req.ShiftID,
		Amount:  req.Amount,
		Reason:  req.Reason,
	})
	if err != nil {
		abortWith(c, err)
		return
	}
	c.JSON(http.StatusCreated, expense)
}

func (h *ExpenseHandler) ListByDay(c *gin.Context) {
	date := c.Query("date")
	if date == "" {
		c.JSON(http.StatusBadRequest, apierror.New("date es requerido"))
		return
	}
	expenses, err := h.svc.ExpensesOfDay(c.Request.Context(), date)
	if err != nil {
		abortWith(c, err)
		return
	}
	c.JSON(http.StatusOK, expenses)
}
