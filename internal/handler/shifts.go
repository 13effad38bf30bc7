package handler

import (
	"net/http"

	"motorepuestos/internal/apierror"
	"motorepuestos/internal/dto"
	"motorepuestos/internal/middleware"
	"motorepuestos/internal/model"
	"motorepuestos/internal/service"

	"github.com/gin-gonic/gin"
)

type ShiftHandler struct{ svc service.ShiftService }

func NewShiftHandler(svc service.ShiftService) *ShiftHandler { return &ShiftHandler{svc: svc} }

// Open creates the shift for the requested date and daypart. A 201 with
// pending=true means the shift was accepted locally and will confirm on
// the next sync.
func (h *ShiftHandler) Open(c *gin.Context) {
	var req dto.OpenShiftRequest
	if !bindAndValidate(c, &req) {
		return
	}
	actor := middleware.GetCapability(c)

	shift, commit, err := h.svc.OpenShift(c.Request.Context(), actor, service.OpenShiftRequest{
		Date:          req.Date,
		Daypart:       model.Daypart(req.Daypart),
		OpeningAmount: req.OpeningAmount,
		Notes:         req.Notes,
	})
	if err != nil {
		abortWith(c, err)
		return
	}
	c.JSON(http.StatusCreated, dto.ShiftResponse{Shift: shift, Pending: commit.Pending})
}

// Close runs the cash count against the shift and closes it.
func (h *ShiftHandler) Close(c *gin.Context) {
	var req dto.CloseShiftRequest
	if !bindAndValidate(c, &req) {
		return
	}
	actor := middleware.GetCapability(c)

	result, err := h.svc.CloseShift(c.Request.Context(), actor, service.CloseShiftRequest{
		ShiftID: c.Param("id"),
		Arqueo: service.ArqueoInput{
			DenominationCounts: req.Arqueo.DenominationCounts,
			AdditionalIncomes:  req.Arqueo.AdditionalIncomes,
			AdditionalExpenses: req.Arqueo.AdditionalExpenses,
			CountedBy:          actor.EmployeeID,
		},
		ClosingNotes: req.ClosingNotes,
	})
	if err != nil {
		abortWith(c, err)
		return
	}
	c.JSON(http.StatusOK, dto.CloseShiftResponse{
		Shift:     result.Shift,
		CashCount: result.CashCount,
		Pending:   result.Commit.Pending,
	})
}

// Get looks up a single shift by date and daypart query params.
func (h *ShiftHandler) Get(c *gin.Context) {
	date := c.Query("date")
	daypart := model.Daypart(c.Query("daypart"))
	if date == "" || !daypart.Valid() {
		c.JSON(http.StatusBadRequest, apierror.New("date y daypart son requeridos"))
		return
	}
	shift, err := h.svc.FindShift(c.Request.Context(), date, daypart)
	if err != nil {
		abortWith(c, err)
		return
	}
	if shift == nil {
		c.JSON(http.StatusNotFound, apierror.New(service.ErrShiftNotFound.Error()))
		return
	}
	c.JSON(http.StatusOK, shift)
}

// ListByDay returns every shift for a calendar day.
func (h *ShiftHandler) ListByDay(c *gin.Context) {
	date := c.Query("date")
	if date == "" {
		c.JSON(http.StatusBadRequest, apierror.New("date es requerido"))
		return
	}
	shifts, err := h.svc.ShiftsOfDay(c.Request.Context(), date)
	if err != nil {
		abortWith(c, err)
		return
	}
	c.JSON(http.StatusOK, shifts)
}
