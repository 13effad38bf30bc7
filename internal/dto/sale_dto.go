package dto

import (
	"github.com/shopspring/decimal"

	"motorepuestos/internal/model"
)

type SaleItemRequest struct {
	ProductID string `json:"product_id" validate:"required"`
	Quantity  int    `json:"quantity"   validate:"required,gt=0"`
}

type RegisterSaleRequest struct {
	ShiftID           string            `json:"shift_id"            validate:"required"`
	Items             []SaleItemRequest `json:"items"               validate:"required,min=1,dive"`
	Discount          decimal.Decimal   `json:"discount"            validate:"min=0"`
	PaymentMethod     string            `json:"payment_method"      validate:"required,oneof=efectivo debito credito transferencia"`
	AmountTendered    decimal.Decimal   `json:"amount_tendered"     validate:"min=0"`
	ClientOperationID string            `json:"client_operation_id" validate:"omitempty,uuid"`
}

type SaleResponse struct {
	Sale    *model.Sale     `json:"sale"`
	Change  decimal.Decimal `json:"change"`
	Pending bool            `json:"pending"`
}
