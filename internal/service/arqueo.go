package service

// Arqueo — the cash reconciliation engine. Pure computation: given the
// shift's recorded totals and the physical denomination count, derive
// the variance. A non-zero difference never blocks closure; it is
// recorded on the CashCount as audit data.

import (
	"time"

	"github.com/shopspring/decimal"

	"motorepuestos/internal/model"
)

// ArqueoInput is everything entered at close time.
type ArqueoInput struct {
	// DenominationCounts maps denomination value ("1000", "500", …,
	// "0.50") to the number of units counted.
	DenominationCounts map[string]int
	AdditionalIncomes  decimal.Decimal
	AdditionalExpenses decimal.Decimal
	CountedBy          string
}

// ComputeArqueo builds the CashCount for a shift:
//
//	totalCounted    = Σ(denomination × count)
//	totalExpected   = openingAmount + totals.overall
//	finalTotal      = totalCounted + additionalIncomes − additionalExpenses
//	finalDifference = finalTotal − totalExpected
//
// The identities hold for every input, including all-zero counts.
func ComputeArqueo(shift *model.Shift, in ArqueoInput) *model.CashCount {
	counted := decimal.Zero
	for denom, count := range in.DenominationCounts {
		value, err := decimal.NewFromString(denom)
		if err != nil || count <= 0 {
			continue
		}
		counted = counted.Add(value.Mul(decimal.NewFromInt(int64(count))))
	}

	expected := shift.ExpectedCash()
	finalTotal := counted.Add(in.AdditionalIncomes).Sub(in.AdditionalExpenses)
	difference := finalTotal.Sub(expected)

	return &model.CashCount{
		ShiftID:            shift.ID,
		DenominationCounts: in.DenominationCounts,
		TotalCounted:       counted,
		TotalExpected:      expected,
		AdditionalIncomes:  in.AdditionalIncomes,
		AdditionalExpenses: in.AdditionalExpenses,
		FinalTotal:         finalTotal,
		HasDifference:      !difference.IsZero(),
		FinalDifference:    difference,
		CountedBy:          in.CountedBy,
		CreatedAt:          time.Now().UTC(),
	}
}
