package handler

import (
	"net/http"

	"motorepuestos/internal/apierror"
	"motorepuestos/internal/dto"
	"motorepuestos/internal/middleware"
	"motorepuestos/internal/service"

	"github.com/gin-gonic/gin"
)

type DayHandler struct{ svc service.DayService }

func NewDayHandler(svc service.DayService) *DayHandler { return &DayHandler{svc: svc} }

// Status reports whether the day is ready to finalize.
func (h *DayHandler) Status(c *gin.Context) {
	date := c.Query("date")
	if date == "" {
		c.JSON(http.StatusBadRequest, apierror.New("date es requerido"))
		return
	}
	ok, err := h.svc.CanFinalize(c.Request.Context(), date)
	if err != nil {
		abortWith(c, err)
		return
	}
	finalized, err := h.svc.IsFinalized(c.Request.Context(), date)
	if err != nil {
		abortWith(c, err)
		return
	}
	c.JSON(http.StatusOK, dto.DayStatusResponse{
		Date:         date,
		CanFinalize:  ok,
		AlreadyFinal: finalized,
	})
}

// Summary recomputes the day's numbers from the sale and expense
// records without closing anything.
func (h *DayHandler) Summary(c *gin.Context) {
	date := c.Query("date")
	if date == "" {
		c.JSON(http.StatusBadRequest, apierror.New("date es requerido"))
		return
	}
	summary, err := h.svc.BuildSummary(c.Request.Context(), date)
	if err != nil {
		abortWith(c, err)
		return
	}
	c.JSON(http.StatusOK, dto.DaySummaryResponse{Summary: summary})
}

// Finalize closes the day. There is no inverse operation.
func (h *DayHandler) Finalize(c *gin.Context) {
	var req dto.FinalizeDayRequest
	if !bindAndValidate(c, &req) {
		return
	}
	actor := middleware.GetCapability(c)

	summary, err := h.svc.Finalize(c.Request.Context(), actor, req.Date)
	if err != nil {
		abortWith(c, err)
		return
	}
	c.JSON(http.StatusOK, dto.DaySummaryResponse{Summary: summary})
}
