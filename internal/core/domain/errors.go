package domain

import (
	"errors"
	"fmt"

	"github.com/shopspring/decimal"
)

// ErrorKind is the stable machine-readable identifier callers branch on.
type ErrorKind string

const (
	ErrKindEmptyOrder          ErrorKind = "empty_order"
	ErrKindInvalidQuantity     ErrorKind = "invalid_quantity"
	ErrKindOutOfStock          ErrorKind = "out_of_stock"
	ErrKindInsufficientStock   ErrorKind = "insufficient_stock"
	ErrKindNegativeStock       ErrorKind = "negative_stock"
	ErrKindTotalAmountExceeded ErrorKind = "total_amount_exceeded"
	ErrKindProductNotFound     ErrorKind = "product_not_found"
	ErrKindOrderNotFound       ErrorKind = "order_not_found"
	ErrKindPlacementFailed     ErrorKind = "order_creation_failed"
)

// PlacementError is the typed failure surfaced by order placement and
// stock adjustment. Details are structured so callers can render a
// precise message without parsing text.
type PlacementError struct {
	Kind      ErrorKind
	Message   string
	ProductID int64
	Available int
	Requested int
	Total     decimal.Decimal
	Err       error
}

func (e *PlacementError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Kind, e.Message, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Kind, e.Message)
}

func (e *PlacementError) Unwrap() error { return e.Err }

// KindOf returns the error kind, or "" for errors that are not
// placement errors.
func KindOf(err error) ErrorKind {
	var pe *PlacementError
	if errors.As(err, &pe) {
		return pe.Kind
	}
	return ""
}

// IsKind reports whether err is a placement error of the given kind.
func IsKind(err error, kind ErrorKind) bool {
	return KindOf(err) == kind
}

func NewEmptyOrder() *PlacementError {
	return &PlacementError{
		Kind:    ErrKindEmptyOrder,
		Message: "at least one item is required",
	}
}

func NewInvalidQuantity(productID int64, quantity, max int) *PlacementError {
	return &PlacementError{
		Kind:      ErrKindInvalidQuantity,
		Message:   fmt.Sprintf("quantity must be between 1 and %d", max),
		ProductID: productID,
		Requested: quantity,
	}
}

func NewOutOfStock(p *Product) *PlacementError {
	return &PlacementError{
		Kind:      ErrKindOutOfStock,
		Message:   fmt.Sprintf("product %s is out of stock", p.Name),
		ProductID: p.ID,
	}
}

func NewInsufficientStock(p *Product, requested int) *PlacementError {
	return &PlacementError{
		Kind:      ErrKindInsufficientStock,
		Message:   fmt.Sprintf("insufficient stock for product %s, available: %d", p.Name, p.StockQuantity),
		ProductID: p.ID,
		Available: p.StockQuantity,
		Requested: requested,
	}
}

func NewNegativeStock(p *Product) *PlacementError {
	return &PlacementError{
		Kind:      ErrKindNegativeStock,
		Message:   fmt.Sprintf("stock cannot be negative for product %s", p.Name),
		ProductID: p.ID,
		Available: p.StockQuantity,
	}
}

func NewTotalAmountExceeded(total decimal.Decimal) *PlacementError {
	return &PlacementError{
		Kind:    ErrKindTotalAmountExceeded,
		Message: "order total exceeds maximum allowed amount",
		Total:   total,
	}
}

func NewProductNotFound(productID int64) *PlacementError {
	return &PlacementError{
		Kind:      ErrKindProductNotFound,
		Message:   "product not found",
		ProductID: productID,
	}
}

func NewOrderNotFound(orderID string) *PlacementError {
	return &PlacementError{
		Kind:    ErrKindOrderNotFound,
		Message: "order not found",
	}
}

func NewPlacementFailed(msg string, err error) *PlacementError {
	return &PlacementError{
		Kind:    ErrKindPlacementFailed,
		Message: msg,
		Err:     err,
	}
}
