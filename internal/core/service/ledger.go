package service

import (
	"context"
	"errors"
	"fmt"
	"sort"

	"github.com/minhdq/online-store/internal/core/domain"
	"github.com/minhdq/online-store/internal/port"
)

// stockLedger is the authoritative view of stock counters within one
// placement transaction. Each product row is locked exactly once, at
// first read, and the held snapshot is reused for both the
// availability check and the decrement. While the row lock is held the
// snapshot cannot go stale; decrements update it in place so a product
// appearing on several lines sees the running balance.
type stockLedger struct {
	tx   port.Tx
	held map[int64]*domain.Product
}

func newStockLedger(tx port.Tx) *stockLedger {
	return &stockLedger{
		tx:   tx,
		held: make(map[int64]*domain.Product),
	}
}

// lockAll acquires row locks for every product id, in ascending id
// order so that two placements referencing the same products in
// opposite order cannot deadlock.
func (l *stockLedger) lockAll(ctx context.Context, productIDs []int64) error {
	ids := append([]int64(nil), productIDs...)
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })

	for _, id := range ids {
		if _, ok := l.held[id]; ok {
			continue
		}
		p, err := l.tx.LockProduct(ctx, id)
		if errors.Is(err, port.ErrProductNotFound) {
			return domain.NewProductNotFound(id)
		}
		if err != nil {
			return fmt.Errorf("lock product %d: %w", id, err)
		}
		l.held[id] = p
	}
	return nil
}

// product returns the held snapshot for a previously locked id.
func (l *stockLedger) product(productID int64) (*domain.Product, bool) {
	p, ok := l.held[productID]
	return p, ok
}

// applyDecrement subtracts quantity from the held counter and persists
// the new value through the lock acquired in lockAll. Fails with
// negative_stock when cumulative demand within this placement exceeds
// the locked row's stock.
func (l *stockLedger) applyDecrement(ctx context.Context, productID int64, quantity int) error {
	p, ok := l.held[productID]
	if !ok {
		return fmt.Errorf("decrement of unlocked product %d", productID)
	}

	newStock := p.StockQuantity - quantity
	if newStock < 0 {
		return domain.NewNegativeStock(p)
	}

	if err := l.tx.UpdateProductStock(ctx, productID, newStock); err != nil {
		return fmt.Errorf("update stock for product %d: %w", productID, err)
	}
	p.StockQuantity = newStock
	return nil
}
