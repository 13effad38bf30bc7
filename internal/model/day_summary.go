package model

import (
	"time"

	"github.com/shopspring/decimal"
)

// DaySummary is derived on demand until finalization, then written as a
// closing record. Revenue and expenses are recomputed from the
// authoritative sale/expense records, not from shift totals.
type DaySummary struct {
	Date                 string                     `json:"date"`
	TotalShifts          int                        `json:"total_shifts"`
	TotalSales           int                        `json:"total_sales"`
	TotalRevenue         decimal.Decimal            `json:"total_revenue"`
	TotalExpenses        decimal.Decimal            `json:"total_expenses"`
	SalesByPaymentMethod map[string]decimal.Decimal `json:"sales_by_payment_method"`
	Shifts               []Shift                    `json:"shifts"`
	Expenses             []Expense                  `json:"expenses"`
	FinalizedAt          *time.Time                 `json:"finalized_at,omitempty"`
	FinalizedBy          string                     `json:"finalized_by,omitempty"`
}
