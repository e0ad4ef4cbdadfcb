package service

import (
	"github.com/shopspring/decimal"

	"github.com/minhdq/online-store/internal/core/domain"
)

// maxOrderTotal matches the DECIMAL(12,2) bound of the orders table.
var maxOrderTotal = decimal.RequireFromString("9999999999.99")

// assembleTotal folds priced lines into the order total. Pure
// computation; must reject before any persistent write occurs.
func assembleTotal(lines []domain.PricedLine) (decimal.Decimal, error) {
	if len(lines) == 0 {
		return decimal.Zero, domain.NewEmptyOrder()
	}

	total := decimal.Zero
	for _, l := range lines {
		total = total.Add(l.Subtotal)
	}
	if total.GreaterThan(maxOrderTotal) {
		return decimal.Zero, domain.NewTotalAmountExceeded(total)
	}
	return total, nil
}
