package service

import (
	"fmt"

	"github.com/shopspring/decimal"

	"github.com/minhdq/online-store/internal/core/domain"
)

// priceLine resolves a requested line against the locked product held
// by the ledger. Read-only: the decrement reusing the same lock happens
// later, after the order row exists.
func priceLine(ledger *stockLedger, line domain.OrderLine) (domain.PricedLine, error) {
	p, ok := ledger.product(line.ProductID)
	if !ok {
		return domain.PricedLine{}, fmt.Errorf("pricing of unlocked product %d", line.ProductID)
	}

	if p.StockQuantity == 0 {
		return domain.PricedLine{}, domain.NewOutOfStock(p)
	}
	if p.StockQuantity < line.Quantity {
		return domain.PricedLine{}, domain.NewInsufficientStock(p, line.Quantity)
	}

	unit := p.Price
	return domain.PricedLine{
		ProductID: p.ID,
		Quantity:  line.Quantity,
		UnitPrice: unit,
		Subtotal:  unit.Mul(decimal.NewFromInt(int64(line.Quantity))),
	}, nil
}
