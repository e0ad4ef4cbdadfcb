package handler

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/minhdq/online-store/internal/core/domain"
	"github.com/minhdq/online-store/internal/core/service"
)

type fakeOrderPlacer struct {
	placeFn func(ctx context.Context, userID int64, lines []domain.OrderLine) (*domain.Order, error)
	getFn   func(ctx context.Context, orderID string, userID int64) (*domain.Order, error)
	listFn  func(ctx context.Context, userID int64, page int) (*domain.OrderPage, error)
}

func (f *fakeOrderPlacer) PlaceOrder(ctx context.Context, userID int64, lines []domain.OrderLine) (*domain.Order, error) {
	return f.placeFn(ctx, userID, lines)
}

func (f *fakeOrderPlacer) GetOrder(ctx context.Context, orderID string, userID int64) (*domain.Order, error) {
	return f.getFn(ctx, orderID, userID)
}

func (f *fakeOrderPlacer) ListOrders(ctx context.Context, userID int64, page int) (*domain.OrderPage, error) {
	return f.listFn(ctx, userID, page)
}

type fakeInventoryManager struct {
	adjustFn func(ctx context.Context, productID int64, adjustment int) (*domain.Product, error)
	listFn   func(ctx context.Context, q service.InventoryQuery) (*domain.InventoryPage, error)
}

func (f *fakeInventoryManager) AdjustStock(ctx context.Context, productID int64, adjustment int) (*domain.Product, error) {
	return f.adjustFn(ctx, productID, adjustment)
}

func (f *fakeInventoryManager) ListInventory(ctx context.Context, q service.InventoryQuery) (*domain.InventoryPage, error) {
	return f.listFn(ctx, q)
}

func testOrder() *domain.Order {
	return &domain.Order{
		ID:          "order-1",
		UserID:      42,
		TotalAmount: decimal.RequireFromString("59.97"),
		Status:      domain.OrderStatusPending,
		Items: []domain.OrderItem{
			{OrderID: "order-1", ProductID: 1, Quantity: 3, UnitPrice: decimal.RequireFromString("19.99")},
		},
		CreatedAt: time.Date(2026, 8, 1, 10, 0, 0, 0, time.UTC),
	}
}

func doRequest(t *testing.T, h *HTTPHandler, method, target, body, userID string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(method, target, strings.NewReader(body))
	if userID != "" {
		req.Header.Set("X-User-ID", userID)
	}
	rec := httptest.NewRecorder()
	h.Routes().ServeHTTP(rec, req)
	return rec
}

func decodeBody(t *testing.T, rec *httptest.ResponseRecorder) map[string]any {
	t.Helper()
	var body map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	return body
}

func TestPlaceOrder_Created(t *testing.T) {
	var gotUserID int64
	var gotLines []domain.OrderLine
	h := NewHTTPHandler(&fakeOrderPlacer{
		placeFn: func(ctx context.Context, userID int64, lines []domain.OrderLine) (*domain.Order, error) {
			gotUserID = userID
			gotLines = lines
			return testOrder(), nil
		},
	}, &fakeInventoryManager{})

	rec := doRequest(t, h, http.MethodPost, "/api/v1/orders",
		`{"items":[{"product_id":1,"quantity":3}]}`, "42")

	require.Equal(t, http.StatusCreated, rec.Code)
	assert.Equal(t, int64(42), gotUserID)
	require.Len(t, gotLines, 1)
	assert.Equal(t, int64(1), gotLines[0].ProductID)

	body := decodeBody(t, rec)
	assert.Equal(t, "success", body["status"])
	data := body["data"].(map[string]any)
	assert.Equal(t, "order-1", data["id"])
	assert.Equal(t, "pending", data["status"])
}

func TestPlaceOrder_RequiresUserID(t *testing.T) {
	h := NewHTTPHandler(&fakeOrderPlacer{}, &fakeInventoryManager{})

	rec := doRequest(t, h, http.MethodPost, "/api/v1/orders",
		`{"items":[{"product_id":1,"quantity":3}]}`, "")

	require.Equal(t, http.StatusUnauthorized, rec.Code)
	body := decodeBody(t, rec)
	assert.Equal(t, "unauthenticated", body["error"])
}

func TestPlaceOrder_InvalidBody(t *testing.T) {
	h := NewHTTPHandler(&fakeOrderPlacer{}, &fakeInventoryManager{})

	rec := doRequest(t, h, http.MethodPost, "/api/v1/orders", `{not json`, "42")

	require.Equal(t, http.StatusBadRequest, rec.Code)
	body := decodeBody(t, rec)
	assert.Equal(t, "invalid_request", body["error"])
}

func TestPlaceOrder_KindToStatusMapping(t *testing.T) {
	cases := []struct {
		name       string
		err        *domain.PlacementError
		wantStatus int
	}{
		{"insufficient stock", domain.NewInsufficientStock(&domain.Product{ID: 1, Name: "keyboard", StockQuantity: 2}, 5), http.StatusBadRequest},
		{"out of stock", domain.NewOutOfStock(&domain.Product{ID: 1, Name: "keyboard"}), http.StatusBadRequest},
		{"empty order", domain.NewEmptyOrder(), http.StatusBadRequest},
		{"product not found", domain.NewProductNotFound(1), http.StatusNotFound},
		{"placement failed", domain.NewPlacementFailed("failed to create order", nil), http.StatusInternalServerError},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			h := NewHTTPHandler(&fakeOrderPlacer{
				placeFn: func(ctx context.Context, userID int64, lines []domain.OrderLine) (*domain.Order, error) {
					return nil, tc.err
				},
			}, &fakeInventoryManager{})

			rec := doRequest(t, h, http.MethodPost, "/api/v1/orders",
				`{"items":[{"product_id":1,"quantity":5}]}`, "42")

			require.Equal(t, tc.wantStatus, rec.Code)
			body := decodeBody(t, rec)
			assert.Equal(t, string(tc.err.Kind), body["error"])
			assert.Equal(t, "error", body["status"])
		})
	}
}

func TestPlaceOrder_InsufficientStockDetails(t *testing.T) {
	h := NewHTTPHandler(&fakeOrderPlacer{
		placeFn: func(ctx context.Context, userID int64, lines []domain.OrderLine) (*domain.Order, error) {
			return nil, domain.NewInsufficientStock(&domain.Product{ID: 1, Name: "keyboard", StockQuantity: 2}, 5)
		},
	}, &fakeInventoryManager{})

	rec := doRequest(t, h, http.MethodPost, "/api/v1/orders",
		`{"items":[{"product_id":1,"quantity":5}]}`, "42")

	body := decodeBody(t, rec)
	details := body["details"].(map[string]any)
	assert.Equal(t, float64(1), details["product_id"])
	assert.Equal(t, float64(2), details["available"])
	assert.Equal(t, float64(5), details["requested"])
}

func TestGetOrder_NotFound(t *testing.T) {
	h := NewHTTPHandler(&fakeOrderPlacer{
		getFn: func(ctx context.Context, orderID string, userID int64) (*domain.Order, error) {
			return nil, domain.NewOrderNotFound(orderID)
		},
	}, &fakeInventoryManager{})

	rec := doRequest(t, h, http.MethodGet, "/api/v1/orders/nope", "", "42")

	require.Equal(t, http.StatusNotFound, rec.Code)
	body := decodeBody(t, rec)
	assert.Equal(t, "order_not_found", body["error"])
}

func TestListOrders_PassesPage(t *testing.T) {
	var gotPage int
	h := NewHTTPHandler(&fakeOrderPlacer{
		listFn: func(ctx context.Context, userID int64, page int) (*domain.OrderPage, error) {
			gotPage = page
			return &domain.OrderPage{Orders: []domain.Order{*testOrder()}, Page: page, PerPage: 10, Total: 1}, nil
		},
	}, &fakeInventoryManager{})

	rec := doRequest(t, h, http.MethodGet, "/api/v1/orders?page=3", "", "42")

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, 3, gotPage)
}

func TestAdjustStock_Success(t *testing.T) {
	var gotProductID int64
	var gotAdjustment int
	h := NewHTTPHandler(&fakeOrderPlacer{}, &fakeInventoryManager{
		adjustFn: func(ctx context.Context, productID int64, adjustment int) (*domain.Product, error) {
			gotProductID = productID
			gotAdjustment = adjustment
			return &domain.Product{ID: productID, Name: "keyboard", Price: decimal.RequireFromString("19.99"), StockQuantity: 15}, nil
		},
	})

	rec := doRequest(t, h, http.MethodPatch, "/api/v1/admin/inventory/1",
		`{"adjustment":10}`, "42")

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, int64(1), gotProductID)
	assert.Equal(t, 10, gotAdjustment)

	body := decodeBody(t, rec)
	data := body["data"].(map[string]any)
	assert.Equal(t, float64(15), data["stock_quantity"])
}

func TestAdjustStock_ZeroRejected(t *testing.T) {
	h := NewHTTPHandler(&fakeOrderPlacer{}, &fakeInventoryManager{})

	rec := doRequest(t, h, http.MethodPatch, "/api/v1/admin/inventory/1",
		`{"adjustment":0}`, "42")

	require.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestListInventory_BadThreshold(t *testing.T) {
	h := NewHTTPHandler(&fakeOrderPlacer{}, &fakeInventoryManager{})

	rec := doRequest(t, h, http.MethodGet, "/api/v1/admin/inventory?low_stock=abc", "", "42")

	require.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestListInventory_PassesQuery(t *testing.T) {
	var gotQuery service.InventoryQuery
	h := NewHTTPHandler(&fakeOrderPlacer{}, &fakeInventoryManager{
		listFn: func(ctx context.Context, q service.InventoryQuery) (*domain.InventoryPage, error) {
			gotQuery = q
			return &domain.InventoryPage{Page: q.Page, PerPage: 10}, nil
		},
	})

	rec := doRequest(t, h, http.MethodGet, "/api/v1/admin/inventory?low_stock=5&page=2", "", "42")

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, 2, gotQuery.Page)
	require.NotNil(t, gotQuery.LowStockBelow)
	assert.Equal(t, 5, *gotQuery.LowStockBelow)
}

func TestHealthCheck(t *testing.T) {
	h := NewHTTPHandler(&fakeOrderPlacer{}, &fakeInventoryManager{})

	rec := doRequest(t, h, http.MethodGet, "/health", "", "")

	require.Equal(t, http.StatusOK, rec.Code)
}
