package service

import (
	"context"
	"errors"
	"log"
	"time"

	"github.com/google/uuid"

	"github.com/minhdq/online-store/internal/core/domain"
	"github.com/minhdq/online-store/internal/port"
)

// DefaultMaxLineQuantity caps the quantity of a single order line.
const DefaultMaxLineQuantity = 100

// OrderService coordinates order placement: it validates the request,
// then prices, persists and decrements inside one transaction, and
// fires cache invalidation after commit.
type OrderService struct {
	store           port.Store
	notifier        port.StockNotifier
	maxLineQuantity int
	ordersPerPage   int
}

func NewOrderService(store port.Store, notifier port.StockNotifier, maxLineQuantity, ordersPerPage int) *OrderService {
	if maxLineQuantity <= 0 {
		maxLineQuantity = DefaultMaxLineQuantity
	}
	if ordersPerPage <= 0 {
		ordersPerPage = 10
	}
	return &OrderService{
		store:           store,
		notifier:        notifier,
		maxLineQuantity: maxLineQuantity,
		ordersPerPage:   ordersPerPage,
	}
}

// PlaceOrder atomically prices every line, persists the order with its
// items and decrements stock. Either the whole placement commits or the
// store is left exactly as it was.
func (s *OrderService) PlaceOrder(ctx context.Context, userID int64, lines []domain.OrderLine) (*domain.Order, error) {
	// Validation-class failures take no locks.
	if len(lines) == 0 {
		return nil, domain.NewEmptyOrder()
	}
	for _, line := range lines {
		if line.Quantity < 1 || line.Quantity > s.maxLineQuantity {
			return nil, domain.NewInvalidQuantity(line.ProductID, line.Quantity, s.maxLineQuantity)
		}
	}

	var order *domain.Order
	err := s.store.WithinTx(ctx, func(tx port.Tx) error {
		ledger := newStockLedger(tx)
		if err := ledger.lockAll(ctx, distinctProductIDs(lines)); err != nil {
			return err
		}

		// Availability and pricing, fail-fast in input order.
		priced := make([]domain.PricedLine, 0, len(lines))
		for _, line := range lines {
			pl, err := priceLine(ledger, line)
			if err != nil {
				return err
			}
			priced = append(priced, pl)
		}

		total, err := assembleTotal(priced)
		if err != nil {
			return err
		}

		o := &domain.Order{
			ID:          uuid.NewString(),
			UserID:      userID,
			TotalAmount: total,
			Status:      domain.OrderStatusPending,
			CreatedAt:   time.Now().UTC(),
		}
		if err := tx.InsertOrder(ctx, o); err != nil {
			return err
		}

		// The decrement reuses the lock held since lockAll, so stock
		// cannot have been consumed by another placement in between.
		// Cumulative demand from duplicate product ids is caught here.
		for _, pl := range priced {
			item := domain.OrderItem{
				OrderID:   o.ID,
				ProductID: pl.ProductID,
				Quantity:  pl.Quantity,
				UnitPrice: pl.UnitPrice,
			}
			if err := tx.InsertOrderItem(ctx, &item); err != nil {
				return err
			}
			if err := ledger.applyDecrement(ctx, pl.ProductID, pl.Quantity); err != nil {
				return err
			}
			o.Items = append(o.Items, item)
		}

		order = o
		return nil
	})
	if err != nil {
		return nil, asPlacementError(err)
	}

	// Post-commit, best-effort: a notification failure never rolls
	// back a committed order.
	if err := s.notifier.NotifyStockChanged(ctx); err != nil {
		log.Printf("stock change notification failed after order %s: %v", order.ID, err)
	}

	return order, nil
}

// GetOrder returns an order scoped to its owner.
func (s *OrderService) GetOrder(ctx context.Context, orderID string, userID int64) (*domain.Order, error) {
	order, err := s.store.GetOrder(ctx, orderID, userID)
	if errors.Is(err, port.ErrOrderNotFound) {
		return nil, domain.NewOrderNotFound(orderID)
	}
	if err != nil {
		return nil, domain.NewPlacementFailed("failed to load order", err)
	}
	return order, nil
}

// ListOrders returns one page of the user's order history, newest first.
func (s *OrderService) ListOrders(ctx context.Context, userID int64, page int) (*domain.OrderPage, error) {
	if page < 1 {
		page = 1
	}
	orders, err := s.store.ListOrders(ctx, userID, page, s.ordersPerPage)
	if err != nil {
		return nil, domain.NewPlacementFailed("failed to list orders", err)
	}
	return orders, nil
}

func distinctProductIDs(lines []domain.OrderLine) []int64 {
	seen := make(map[int64]struct{}, len(lines))
	ids := make([]int64, 0, len(lines))
	for _, line := range lines {
		if _, ok := seen[line.ProductID]; ok {
			continue
		}
		seen[line.ProductID] = struct{}{}
		ids = append(ids, line.ProductID)
	}
	return ids
}

// asPlacementError passes typed failures through and wraps anything
// unexpected (lock timeouts, storage failures) as order_creation_failed.
func asPlacementError(err error) error {
	var pe *domain.PlacementError
	if errors.As(err, &pe) {
		return pe
	}
	if errors.Is(err, port.ErrLockTimeout) {
		return domain.NewPlacementFailed("timed out waiting for a product lock", err)
	}
	return domain.NewPlacementFailed("failed to create order", err)
}
