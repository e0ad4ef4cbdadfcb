package handler

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/shopspring/decimal"

	"github.com/minhdq/online-store/internal/core/domain"
	"github.com/minhdq/online-store/internal/core/service"
)

// OrderPlacer is the synchronous placement surface exposed to the HTTP
// layer.
type OrderPlacer interface {
	PlaceOrder(ctx context.Context, userID int64, lines []domain.OrderLine) (*domain.Order, error)
	GetOrder(ctx context.Context, orderID string, userID int64) (*domain.Order, error)
	ListOrders(ctx context.Context, userID int64, page int) (*domain.OrderPage, error)
}

// InventoryManager is the admin inventory surface.
type InventoryManager interface {
	AdjustStock(ctx context.Context, productID int64, adjustment int) (*domain.Product, error)
	ListInventory(ctx context.Context, q service.InventoryQuery) (*domain.InventoryPage, error)
}

type HTTPHandler struct {
	orders    OrderPlacer
	inventory InventoryManager
}

func NewHTTPHandler(orders OrderPlacer, inventory InventoryManager) *HTTPHandler {
	return &HTTPHandler{orders: orders, inventory: inventory}
}

func (h *HTTPHandler) Routes() chi.Router {
	r := chi.NewRouter()
	r.Use(chimw.Recoverer)

	r.Get("/health", h.HealthCheck)
	r.Route("/api/v1", func(r chi.Router) {
		r.Group(func(r chi.Router) {
			r.Use(UserIDMiddleware)
			r.Post("/orders", h.PlaceOrder)
			r.Get("/orders", h.ListOrders)
			r.Get("/orders/{orderID}", h.GetOrder)
		})
		// Admin role enforcement belongs to the auth layer in front.
		r.Route("/admin", func(r chi.Router) {
			r.Use(UserIDMiddleware)
			r.Get("/inventory", h.ListInventory)
			r.Patch("/inventory/{productID}", h.AdjustStock)
		})
	})
	return r
}

type placeOrderRequest struct {
	Items []domain.OrderLine `json:"items"`
}

type adjustStockRequest struct {
	Adjustment int `json:"adjustment"`
}

type orderItemResponse struct {
	ProductID int64           `json:"product_id"`
	Quantity  int             `json:"quantity"`
	UnitPrice decimal.Decimal `json:"unit_price"`
}

type orderResponse struct {
	ID          string              `json:"id"`
	UserID      int64               `json:"user_id"`
	TotalAmount decimal.Decimal     `json:"total_amount"`
	Status      string              `json:"status"`
	Items       []orderItemResponse `json:"items"`
	CreatedAt   time.Time           `json:"created_at"`
}

type orderPageResponse struct {
	Orders  []orderResponse `json:"orders"`
	Page    int             `json:"page"`
	PerPage int             `json:"per_page"`
	Total   int             `json:"total"`
}

type productResponse struct {
	ID            int64           `json:"id"`
	Name          string          `json:"name"`
	Price         decimal.Decimal `json:"price"`
	StockQuantity int             `json:"stock_quantity"`
}

func (h *HTTPHandler) PlaceOrder(w http.ResponseWriter, r *http.Request) {
	userID, ok := userIDFrom(r.Context())
	if !ok {
		writeError(w, http.StatusUnauthorized, "unauthenticated", "a resolved user id is required", nil)
		return
	}

	var req placeOrderRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid_request", "invalid request body", nil)
		return
	}

	order, err := h.orders.PlaceOrder(r.Context(), userID, req.Items)
	if err != nil {
		writePlacementError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, apiResponse{
		Data:    toOrderResponse(order),
		Status:  "success",
		Message: "order created successfully",
	})
}

func (h *HTTPHandler) GetOrder(w http.ResponseWriter, r *http.Request) {
	userID, ok := userIDFrom(r.Context())
	if !ok {
		writeError(w, http.StatusUnauthorized, "unauthenticated", "a resolved user id is required", nil)
		return
	}

	order, err := h.orders.GetOrder(r.Context(), chi.URLParam(r, "orderID"), userID)
	if err != nil {
		writePlacementError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, apiResponse{
		Data:    toOrderResponse(order),
		Status:  "success",
		Message: "order details retrieved successfully",
	})
}

func (h *HTTPHandler) ListOrders(w http.ResponseWriter, r *http.Request) {
	userID, ok := userIDFrom(r.Context())
	if !ok {
		writeError(w, http.StatusUnauthorized, "unauthenticated", "a resolved user id is required", nil)
		return
	}

	page := queryInt(r, "page", 1)
	result, err := h.orders.ListOrders(r.Context(), userID, page)
	if err != nil {
		writePlacementError(w, err)
		return
	}

	resp := orderPageResponse{
		Orders:  make([]orderResponse, 0, len(result.Orders)),
		Page:    result.Page,
		PerPage: result.PerPage,
		Total:   result.Total,
	}
	for i := range result.Orders {
		resp.Orders = append(resp.Orders, toOrderResponse(&result.Orders[i]))
	}
	writeJSON(w, http.StatusOK, apiResponse{
		Data:    resp,
		Status:  "success",
		Message: "order history retrieved successfully",
	})
}

func (h *HTTPHandler) ListInventory(w http.ResponseWriter, r *http.Request) {
	q := service.InventoryQuery{Page: queryInt(r, "page", 1)}
	if raw := r.URL.Query().Get("low_stock"); raw != "" {
		threshold, err := strconv.Atoi(raw)
		if err != nil {
			writeError(w, http.StatusBadRequest, "invalid_request", "low_stock must be an integer", nil)
			return
		}
		q.LowStockBelow = &threshold
	}

	page, err := h.inventory.ListInventory(r.Context(), q)
	if err != nil {
		writePlacementError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, apiResponse{
		Data:    page,
		Status:  "success",
		Message: "inventory retrieved successfully",
	})
}

func (h *HTTPHandler) AdjustStock(w http.ResponseWriter, r *http.Request) {
	productID, err := strconv.ParseInt(chi.URLParam(r, "productID"), 10, 64)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid_request", "invalid product id", nil)
		return
	}

	var req adjustStockRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid_request", "invalid request body", nil)
		return
	}
	if req.Adjustment == 0 {
		writeError(w, http.StatusBadRequest, "invalid_request", "adjustment must be non-zero", nil)
		return
	}

	product, err := h.inventory.AdjustStock(r.Context(), productID, req.Adjustment)
	if err != nil {
		writePlacementError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, apiResponse{
		Data: productResponse{
			ID:            product.ID,
			Name:          product.Name,
			Price:         product.Price,
			StockQuantity: product.StockQuantity,
		},
		Status:  "success",
		Message: "stock adjusted successfully",
	})
}

func (h *HTTPHandler) HealthCheck(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

type apiResponse struct {
	Data    any    `json:"data,omitempty"`
	Status  string `json:"status"`
	Message string `json:"message"`
}

type apiErrorResponse struct {
	Status  string         `json:"status"`
	Message string         `json:"message"`
	Error   string         `json:"error"`
	Details map[string]any `json:"details,omitempty"`
}

func toOrderResponse(order *domain.Order) orderResponse {
	resp := orderResponse{
		ID:          order.ID,
		UserID:      order.UserID,
		TotalAmount: order.TotalAmount,
		Status:      string(order.Status),
		Items:       make([]orderItemResponse, 0, len(order.Items)),
		CreatedAt:   order.CreatedAt,
	}
	for _, it := range order.Items {
		resp.Items = append(resp.Items, orderItemResponse{
			ProductID: it.ProductID,
			Quantity:  it.Quantity,
			UnitPrice: it.UnitPrice,
		})
	}
	return resp
}

// writePlacementError maps the error taxonomy onto HTTP statuses:
// not-found kinds to 404, infrastructure failures to 500, everything
// else (validation, availability, consistency) to 400.
func writePlacementError(w http.ResponseWriter, err error) {
	var pe *domain.PlacementError
	if !errors.As(err, &pe) {
		writeError(w, http.StatusInternalServerError, "internal_error", "internal error", nil)
		return
	}

	status := http.StatusBadRequest
	switch pe.Kind {
	case domain.ErrKindProductNotFound, domain.ErrKindOrderNotFound:
		status = http.StatusNotFound
	case domain.ErrKindPlacementFailed:
		status = http.StatusInternalServerError
	}

	details := map[string]any{}
	if pe.ProductID != 0 {
		details["product_id"] = pe.ProductID
	}
	switch pe.Kind {
	case domain.ErrKindInsufficientStock:
		details["available"] = pe.Available
		details["requested"] = pe.Requested
	case domain.ErrKindInvalidQuantity:
		details["requested"] = pe.Requested
	case domain.ErrKindTotalAmountExceeded:
		details["total_amount"] = pe.Total
	}
	if len(details) == 0 {
		details = nil
	}

	writeError(w, status, string(pe.Kind), pe.Message, details)
}

func writeError(w http.ResponseWriter, status int, kind, message string, details map[string]any) {
	writeJSON(w, status, apiErrorResponse{
		Status:  "error",
		Message: message,
		Error:   kind,
		Details: details,
	})
}

func writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}

func queryInt(r *http.Request, name string, def int) int {
	raw := r.URL.Query().Get(name)
	if raw == "" {
		return def
	}
	v, err := strconv.Atoi(raw)
	if err != nil || v < 1 {
		return def
	}
	return v
}
