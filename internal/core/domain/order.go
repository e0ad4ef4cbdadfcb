package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

type OrderStatus string

// Orders are created in the pending state; further transitions belong
// to the (out of scope) fulfillment workflow.
const OrderStatusPending OrderStatus = "pending"

// OrderLine is one (product, quantity) request within a placement.
type OrderLine struct {
	ProductID int64 `json:"product_id"`
	Quantity  int   `json:"quantity"`
}

// PricedLine is an OrderLine resolved against a locked product row.
// UnitPrice is a snapshot taken at placement time and never re-read.
type PricedLine struct {
	ProductID int64
	Quantity  int
	UnitPrice decimal.Decimal
	Subtotal  decimal.Decimal
}

type Order struct {
	ID          string
	UserID      int64
	TotalAmount decimal.Decimal
	Status      OrderStatus
	Items       []OrderItem
	CreatedAt   time.Time
}

// OrderItem is immutable once written. One row per requested line;
// duplicate product ids across lines are never merged.
type OrderItem struct {
	OrderID   string
	ProductID int64
	Quantity  int
	UnitPrice decimal.Decimal
}

// OrderPage is one page of a user's order history.
type OrderPage struct {
	Orders  []Order
	Page    int
	PerPage int
	Total   int
}
