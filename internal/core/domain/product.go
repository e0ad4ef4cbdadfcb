package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// Product is the catalog record the placement engine reads and writes.
// Only Price and StockQuantity matter to order placement; the catalog
// subsystem owns the rest.
type Product struct {
	ID            int64
	Name          string
	Price         decimal.Decimal
	StockQuantity int
	CreatedAt     time.Time
	UpdatedAt     time.Time
}

// InventoryItem is the read-side projection served by the inventory listing.
type InventoryItem struct {
	ProductID     int64           `json:"product_id"`
	Name          string          `json:"name"`
	Price         decimal.Decimal `json:"price"`
	StockQuantity int             `json:"stock_quantity"`
}

// InventoryPage is one cached page of the inventory listing.
type InventoryPage struct {
	Items   []InventoryItem `json:"items"`
	Page    int             `json:"page"`
	PerPage int             `json:"per_page"`
	Total   int             `json:"total"`
}
