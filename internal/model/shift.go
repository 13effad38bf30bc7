package model

import (
	"time"

	"github.com/shopspring/decimal"
)

// Daypart identifies the half-day a shift belongs to.
// Afternoon shifts may only open once the morning shift is closed.
type Daypart string

const (
	DaypartMorning   Daypart = "morning"
	DaypartAfternoon Daypart = "afternoon"
)

// Valid reports whether d is one of the two known dayparts.
func (d Daypart) Valid() bool {
	return d == DaypartMorning || d == DaypartAfternoon
}

// Shift status: "active" | "closed". Closed is terminal — a daypart is
// never reopened; at most one shift instance exists per (date, daypart).
const (
	ShiftActive = "active"
	ShiftClosed = "closed"
)

// Employee is the read-only identity a shift is tied to. Auth internals
// live elsewhere; services only ever see this projection.
type Employee struct {
	ID   string `json:"id"`
	Name string `json:"name"`
	Role string `json:"role"`
}

// ShiftTotals is the incrementally maintained running aggregate of the
// active shift. It is a cache: the day summary recomputes from the
// authoritative sale/expense records to catch drift.
type ShiftTotals struct {
	ByMethod map[string]decimal.Decimal `json:"by_method"`
	Overall  decimal.Decimal            `json:"overall"`
}

// NewShiftTotals returns zeroed totals for every known payment method.
func NewShiftTotals() ShiftTotals {
	by := make(map[string]decimal.Decimal, len(PaymentMethods))
	for _, m := range PaymentMethods {
		by[m] = decimal.Zero
	}
	return ShiftTotals{ByMethod: by, Overall: decimal.Zero}
}

// Shift is a bounded work session for one employee, calendar date and
// daypart. Mutated on each sale/expense and on close; immutable once
// DayClosed is set by day finalization.
type Shift struct {
	ID            string          `json:"id"`
	Daypart       Daypart         `json:"daypart"`
	Date          string          `json:"date"` // YYYY-MM-DD
	Employee      Employee        `json:"employee"`
	OpeningAmount decimal.Decimal `json:"opening_amount"`
	StartTime     time.Time       `json:"start_time"`
	EndTime       *time.Time      `json:"end_time,omitempty"`
	Status        string          `json:"status"`
	Notes         string          `json:"notes,omitempty"`
	SalesCount    int             `json:"sales_count"`
	Totals        ShiftTotals     `json:"totals"`
	ClosingAmount *decimal.Decimal `json:"closing_amount,omitempty"`
	ClosingNotes  string          `json:"closing_notes,omitempty"`
	ClosedBy      string          `json:"closed_by,omitempty"`
	CashCountID   string          `json:"cash_count_id,omitempty"`
	DayClosed     bool            `json:"day_closed"`
	// ClientOperationID deduplicates offline replays of the same open.
	ClientOperationID string `json:"client_operation_id,omitempty"`
}

// ExpectedCash is the cash position the arqueo compares the physical
// count against: opening amount plus everything the shift took in.
func (s *Shift) ExpectedCash() decimal.Decimal {
	return s.OpeningAmount.Add(s.Totals.Overall)
}
