package port

import (
	"context"
	"errors"

	"github.com/minhdq/online-store/internal/core/domain"
)

var (
	ErrProductNotFound = errors.New("product not found")
	ErrOrderNotFound   = errors.New("order not found")

	// ErrLockTimeout is returned when a row lock could not be acquired
	// within the configured wait bound.
	ErrLockTimeout = errors.New("lock wait timeout")
)

// Tx exposes the catalog and order primitives that must run inside the
// transaction the placement coordinator controls.
type Tx interface {
	// LockProduct reads the product row under an exclusive lock held
	// until the enclosing transaction ends.
	LockProduct(ctx context.Context, productID int64) (*domain.Product, error)

	// UpdateProductStock persists a new stock value for a row this
	// transaction has locked.
	UpdateProductStock(ctx context.Context, productID int64, newStock int) error

	InsertOrder(ctx context.Context, order *domain.Order) error
	InsertOrderItem(ctx context.Context, item *domain.OrderItem) error
}

// Store is the relational store behind the placement engine.
type Store interface {
	// WithinTx runs fn inside one transaction. Any error from fn rolls
	// everything back; the transaction commits only when fn returns nil.
	WithinTx(ctx context.Context, fn func(tx Tx) error) error

	// GetOrder returns the order with its items, scoped to the owning user.
	GetOrder(ctx context.Context, orderID string, userID int64) (*domain.Order, error)

	ListOrders(ctx context.Context, userID int64, page, perPage int) (*domain.OrderPage, error)

	// ListInventory returns one page of products plus the total count,
	// optionally restricted to stock at or below lowStockBelow.
	ListInventory(ctx context.Context, lowStockBelow *int, page, perPage int) ([]domain.InventoryItem, int, error)
}
