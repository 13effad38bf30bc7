package model

import (
	"time"

	"github.com/shopspring/decimal"
)

// Expense is immutable once created. It is attributed to a calendar day
// by Date (derived from CreatedAt), not necessarily to a shift.
type Expense struct {
	ID        string          `json:"id"`
	ShiftID   string          `json:"shift_id,omitempty"`
	Date      string          `json:"date"` // YYYY-MM-DD
	Amount    decimal.Decimal `json:"amount"`
	Reason    string          `json:"reason"`
	CreatedBy string          `json:"created_by,omitempty"`
	CreatedAt time.Time       `json:"created_at"`
}
