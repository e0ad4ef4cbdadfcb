package service

import (
	"context"
	"errors"
	"fmt"
	"log"

	"github.com/minhdq/online-store/internal/core/domain"
	"github.com/minhdq/online-store/internal/port"
)

// InventoryQuery shapes one inventory listing request; it also keys
// the listing cache.
type InventoryQuery struct {
	LowStockBelow *int
	Page          int
}

// InventoryService serves the derived inventory read side and admin
// stock adjustments. Adjustments take the same row lock the placement
// path uses, so the two can never race on a counter.
type InventoryService struct {
	store    port.Store
	cache    port.InventoryCache
	notifier port.StockNotifier
	perPage  int
}

func NewInventoryService(store port.Store, cache port.InventoryCache, notifier port.StockNotifier, perPage int) *InventoryService {
	if perPage <= 0 {
		perPage = 10
	}
	return &InventoryService{
		store:    store,
		cache:    cache,
		notifier: notifier,
		perPage:  perPage,
	}
}

// AdjustStock applies a signed adjustment to a product's stock counter
// under its row lock. The counter never goes negative.
func (s *InventoryService) AdjustStock(ctx context.Context, productID int64, adjustment int) (*domain.Product, error) {
	var updated *domain.Product
	err := s.store.WithinTx(ctx, func(tx port.Tx) error {
		p, err := tx.LockProduct(ctx, productID)
		if errors.Is(err, port.ErrProductNotFound) {
			return domain.NewProductNotFound(productID)
		}
		if err != nil {
			return fmt.Errorf("lock product %d: %w", productID, err)
		}

		newStock := p.StockQuantity + adjustment
		if newStock < 0 {
			return domain.NewNegativeStock(p)
		}
		if err := tx.UpdateProductStock(ctx, productID, newStock); err != nil {
			return fmt.Errorf("update stock for product %d: %w", productID, err)
		}
		p.StockQuantity = newStock
		updated = p
		return nil
	})
	if err != nil {
		return nil, asPlacementError(err)
	}

	if err := s.notifier.NotifyStockChanged(ctx); err != nil {
		log.Printf("stock change notification failed after adjusting product %d: %v", productID, err)
	}
	return updated, nil
}

// ListInventory returns one page of the inventory listing, served from
// cache when possible.
func (s *InventoryService) ListInventory(ctx context.Context, q InventoryQuery) (*domain.InventoryPage, error) {
	if q.Page < 1 {
		q.Page = 1
	}
	key := s.cacheKey(q)

	page, err := s.cache.GetInventoryPage(ctx, key)
	if err == nil {
		return page, nil
	}
	if !errors.Is(err, port.ErrCacheMiss) {
		log.Printf("inventory cache read failed, falling back to store: %v", err)
	}

	items, total, err := s.store.ListInventory(ctx, q.LowStockBelow, q.Page, s.perPage)
	if err != nil {
		return nil, domain.NewPlacementFailed("failed to list inventory", err)
	}
	page = &domain.InventoryPage{
		Items:   items,
		Page:    q.Page,
		PerPage: s.perPage,
		Total:   total,
	}

	if err := s.cache.SetInventoryPage(ctx, key, page); err != nil {
		log.Printf("inventory cache write failed: %v", err)
	}
	return page, nil
}

func (s *InventoryService) cacheKey(q InventoryQuery) string {
	threshold := "none"
	if q.LowStockBelow != nil {
		threshold = fmt.Sprintf("%d", *q.LowStockBelow)
	}
	return fmt.Sprintf("per_page_%d:low_stock_%s:page_%d", s.perPage, threshold, q.Page)
}
