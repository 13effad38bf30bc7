package dto

import (
	"github.com/shopspring/decimal"

	"motorepuestos/internal/model"
)

// ─── Request DTOs ────────────────────────────────────────────────────────────

type OpenShiftRequest struct {
	Date          string          `json:"date"           validate:"required,datetime=2006-01-02"`
	Daypart       string          `json:"daypart"        validate:"required,oneof=morning afternoon"`
	OpeningAmount decimal.Decimal `json:"opening_amount" validate:"min=0"`
	Notes         string          `json:"notes"`
}

type ArqueoRequest struct {
	// Denomination value (e.g. "1000", "500", "0.50") → bill/coin count.
	DenominationCounts map[string]int  `json:"denomination_counts" validate:"required"`
	AdditionalIncomes  decimal.Decimal `json:"additional_incomes"  validate:"min=0"`
	AdditionalExpenses decimal.Decimal `json:"additional_expenses" validate:"min=0"`
}

type CloseShiftRequest struct {
	Arqueo       ArqueoRequest `json:"arqueo" validate:"required"`
	ClosingNotes string        `json:"closing_notes"`
}

// ─── Response DTOs ───────────────────────────────────────────────────────────

type ShiftResponse struct {
	Shift   *model.Shift `json:"shift"`
	Pending bool         `json:"pending"`
}

type CloseShiftResponse struct {
	Shift     *model.Shift     `json:"shift"`
	CashCount *model.CashCount `json:"cash_count"`
	Pending   bool             `json:"pending"`
}
