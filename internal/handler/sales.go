package handler

import (
	"net/http"

	"motorepuestos/internal/apierror"
	"motorepuestos/internal/dto"
	"motorepuestos/internal/middleware"
	"motorepuestos/internal/service"

	"github.com/gin-gonic/gin"
)

type SaleHandler struct{ svc service.SaleService }

func NewSaleHandler(svc service.SaleService) *SaleHandler { return &SaleHandler{svc: svc} }

// Register prices and records a sale. Offline acceptance is still a
// 201: the sale is queued and pending=true tells the client so.
func (h *SaleHandler) Register(c *gin.Context) {
	var req dto.RegisterSaleRequest
	if !bindAndValidate(c, &req) {
		return
	}
	actor := middleware.GetCapability(c)

	items := make([]service.SaleItemRequest, 0, len(req.Items))
	for _, it := range req.Items {
		items = append(items, service.SaleItemRequest{ProductID: it.ProductID, Quantity: it.Quantity})
	}
	result, err := h.svc.RegisterSale(c.Request.Context(), actor, service.RegisterSaleRequest{
		ShiftID:           req.ShiftID,
		Items:             items,
		Discount:          req.Discount,
		PaymentMethod:     req.PaymentMethod,
		AmountTendered:    req.AmountTendered,
		ClientOperationID: req.ClientOperationID,
	})
	if err != nil {
		abortWith(c, err)
		return
	}
	c.JSON(http.StatusCreated, dto.SaleResponse{
		Sale:    result.Sale,
		Change:  result.Change,
		Pending: result.Commit.Pending,
	})
}

// ListByDay returns the sales of one calendar day.
func (h *SaleHandler) ListByDay(c *gin.Context) {
	date := c.Query("date")
	if date == "" {
		c.JSON(http.StatusBadRequest, apierror.New("date es requerido"))
		return
	}
	sales, err := h.svc.SalesOfDay(c.Request.Context(), date)
	if err != nil {
		abortWith(c, err)
		return
	}
	c.JSON(http.StatusOK, sales)
}
