package port

import (
	"context"
	"errors"

	"github.com/minhdq/online-store/internal/core/domain"
)

var ErrCacheMiss = errors.New("cache miss")

// InventoryCache holds derived inventory listings. Keys are logical;
// the adapter owns namespacing and expiry.
type InventoryCache interface {
	GetInventoryPage(ctx context.Context, key string) (*domain.InventoryPage, error)
	SetInventoryPage(ctx context.Context, key string, page *domain.InventoryPage) error
}

// StockNotifier signals downstream read caches that stock changed.
// Fired after commit, best-effort: a failure is logged by the caller,
// never surfaced as a placement error.
type StockNotifier interface {
	NotifyStockChanged(ctx context.Context) error
}
