package dto

import "github.com/shopspring/decimal"

type RegisterExpenseRequest struct {
	ShiftID string          `json:"shift_id" validate:"omitempty,uuid"`
	Amount  decimal.Decimal `json:"amount"   validate:"required,gt=0"`
	Reason  string          `json:"reason"   validate:"required,min=3"`
}
