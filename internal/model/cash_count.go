package model

import (
	"time"

	"github.com/shopspring/decimal"
)

// CashCount (arqueo) is the physical denomination count taken at shift
// close, compared against the expected cash position. Created exactly
// once per shift close; immutable. A non-zero difference is recorded,
// never rejected — it is audit data, not a gate.
type CashCount struct {
	ID                 string                     `json:"id"`
	ShiftID            string                     `json:"shift_id"`
	DenominationCounts map[string]int             `json:"denomination_counts"`
	TotalCounted       decimal.Decimal            `json:"total_counted"`
	TotalExpected      decimal.Decimal            `json:"total_expected"`
	AdditionalIncomes  decimal.Decimal            `json:"additional_incomes"`
	AdditionalExpenses decimal.Decimal            `json:"additional_expenses"`
	FinalTotal         decimal.Decimal            `json:"final_total"`
	HasDifference      bool                       `json:"has_difference"`
	FinalDifference    decimal.Decimal            `json:"final_difference"`
	CountedBy          string                     `json:"counted_by,omitempty"`
	CreatedAt          time.Time                  `json:"created_at"`
}
