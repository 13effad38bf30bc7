package model

import (
	"time"

	"github.com/shopspring/decimal"
)

// Payment methods accepted at the register.
const (
	MethodCash     = "efectivo"
	MethodDebit    = "debito"
	MethodCredit   = "credito"
	MethodTransfer = "transferencia"
)

// PaymentMethods lists every accepted method, in display order.
var PaymentMethods = []string{MethodCash, MethodDebit, MethodCredit, MethodTransfer}

// ValidMethod reports whether m is an accepted payment method.
func ValidMethod(m string) bool {
	for _, pm := range PaymentMethods {
		if pm == m {
			return true
		}
	}
	return false
}

// SaleItem is one line of a sale.
type SaleItem struct {
	ProductID string          `json:"product_id"`
	Name      string          `json:"name"`
	Quantity  int             `json:"quantity"`
	UnitPrice decimal.Decimal `json:"unit_price"`
	Subtotal  decimal.Decimal `json:"subtotal"`
}

// Sale is immutable once created. Shift aggregation references it via
// ShiftID; the day summary re-derives from sales directly.
type Sale struct {
	ID            string          `json:"id"`
	ShiftID       string          `json:"shift_id"`
	Date          string          `json:"date"` // YYYY-MM-DD
	Items         []SaleItem      `json:"items"`
	Subtotal      decimal.Decimal `json:"subtotal"`
	Discount      decimal.Decimal `json:"discount"`
	Total         decimal.Decimal `json:"total"`
	PaymentMethod string          `json:"payment_method"`
	Timestamp     time.Time       `json:"timestamp"`
	ProcessedBy   string          `json:"processed_by"`
	// ClientOperationID deduplicates offline replays of the same sale.
	ClientOperationID string `json:"client_operation_id,omitempty"`
}

// Product is the slice of the catalog the sync layer touches: stock
// decrement on sale and low-stock alerts. Catalog CRUD lives elsewhere.
type Product struct {
	ID       string          `json:"id"`
	Name     string          `json:"name"`
	Price    decimal.Decimal `json:"price"`
	Stock    int             `json:"stock"`
	MinStock int             `json:"min_stock"`
}
