package handler

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/pizzastore/api/internal/apperr"
	"github.com/pizzastore/api/internal/database"
	"github.com/pizzastore/api/internal/enum"
	"github.com/pizzastore/api/internal/middleware"
	"github.com/pizzastore/api/internal/service"
)

// OrderServicer defines the service methods needed by order handlers.
// Satisfied by *service.OrderService; narrow interface for testability.
type OrderServicer interface {
	CreateOrder(ctx context.Context, req service.CreateOrderRequest) (*service.CreateOrderResult, error)
}

// OrderStore defines the database methods needed by order read/update handlers.
// Satisfied by *database.Queries; narrow interface for testability.
type OrderStore interface {
	GetOrder(ctx context.Context, id uuid.UUID) (database.Order, error)
	GetOrderForUser(ctx context.Context, arg database.GetOrderForUserParams) (database.Order, error)
	ListOrdersByUser(ctx context.Context, userID uuid.UUID) ([]database.Order, error)
	ListOrdersByStatus(ctx context.Context, status string) ([]database.Order, error)
	ListOrderItemDetails(ctx context.Context, orderIDs []uuid.UUID) ([]database.ListOrderItemDetailsRow, error)
	UpdateOrderStatus(ctx context.Context, arg database.UpdateOrderStatusParams) (database.Order, error)
}

// Publisher receives order events for the admin fulfillment feed.
// Satisfied by *ws.Hub.
type Publisher interface {
	Publish(eventType string, payload any)
}

// OrderHandler handles order endpoints.
type OrderHandler struct {
	svc    OrderServicer
	store  OrderStore
	policy *service.StatusPolicy
	feed   Publisher
}

// NewOrderHandler creates a new OrderHandler. feed may be nil.
func NewOrderHandler(svc OrderServicer, store OrderStore, policy *service.StatusPolicy, feed Publisher) *OrderHandler {
	return &OrderHandler{svc: svc, store: store, policy: policy, feed: feed}
}

// RegisterRoutes registers endpoints for authenticated customers.
func (h *OrderHandler) RegisterRoutes(r chi.Router) {
	r.Post("/orders", h.Create)
	r.Get("/orders", h.List)
	r.Get("/orders/my-orders", h.MyOrders)
	r.Get("/orders/{id}", h.Get)
}

// RegisterAdminRoutes registers fulfillment endpoints.
func (h *OrderHandler) RegisterAdminRoutes(r chi.Router) {
	r.Get("/orders/pending", h.Pending)
	r.Patch("/orders/{id}/status", h.UpdateStatus)
}

// --- Request / Response types ---

// createOrderRequest mirrors the checkout payload. A client-side
// total_amount may be present but is never read.
type createOrderRequest struct {
	AddressText string                   `json:"address_text"`
	Items       []createOrderItemRequest `json:"items"`
}

type createOrderItemRequest struct {
	PizzaID  string   `json:"pizza_id"`
	Size     string   `json:"size"`
	Crust    string   `json:"crust"`
	Quantity int32    `json:"quantity"`
	Toppings []string `json:"toppings"`
}

type createOrderResponse struct {
	ID      uuid.UUID `json:"id"`
	Total   string    `json:"total"`
	Message string    `json:"message"`
}

type orderSummaryResponse struct {
	ID          uuid.UUID `json:"id"`
	UserID      uuid.UUID `json:"user_id"`
	Status      string    `json:"status"`
	TotalAmount string    `json:"total_amount"`
	AddressText string    `json:"address_text"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

type orderResponse struct {
	orderSummaryResponse
	Items []orderItemResponse `json:"items"`
}

type orderItemResponse struct {
	ID        uuid.UUID `json:"id"`
	PizzaID   uuid.UUID `json:"pizza_id"`
	PizzaName string    `json:"pizza_name"`
	Size      string    `json:"size"`
	Crust     *string   `json:"crust"`
	Quantity  int32     `json:"quantity"`
	UnitPrice string    `json:"unit_price"`
	Toppings  []string  `json:"toppings"`
}

type updateStatusRequest struct {
	Status string `json:"status"`
}

type statusChangedEvent struct {
	OrderID uuid.UUID     `json:"order_id"`
	From    string        `json:"from"`
	To      string        `json:"to"`
	Order   orderResponse `json:"order"`
}

// --- Handlers ---

// Create handles POST /orders.
func (h *OrderHandler) Create(w http.ResponseWriter, r *http.Request) {
	claims := middleware.ClaimsFromContext(r.Context())
	if claims == nil {
		apperr.Write(w, r, apperr.Unauthorized("not authenticated"))
		return
	}

	var req createOrderRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	svcReq := service.CreateOrderRequest{
		UserID:      claims.UserID,
		AddressText: req.AddressText,
		Items:       make([]service.CreateOrderItemRequest, len(req.Items)),
	}
	for i, item := range req.Items {
		svcReq.Items[i] = service.CreateOrderItemRequest{
			PizzaID:    item.PizzaID,
			Size:       item.Size,
			Crust:      item.Crust,
			Quantity:   item.Quantity,
			ToppingIDs: item.Toppings,
		}
	}

	result, err := h.svc.CreateOrder(r.Context(), svcReq)
	if err != nil {
		if isValidationError(err) {
			apperr.Write(w, r, apperr.BadRequest(err.Error()))
			return
		}
		if isForeignKeyViolation(err) {
			// A pizza or topping was deleted between pricing and insert.
			apperr.Write(w, r, apperr.BadRequest("order references an unavailable pizza or topping"))
			return
		}
		if isDataException(err) {
			apperr.Write(w, r, apperr.BadRequest(service.ErrAmountTooLarge.Error()))
			return
		}
		apperr.Write(w, r, apperr.Internal(err))
		return
	}

	h.publish(enum.EventOrderCreated, toOrderResponse(result))

	writeJSON(w, http.StatusCreated, createOrderResponse{
		ID:      result.Order.ID,
		Total:   numericToString(result.Order.TotalAmount),
		Message: "Order placed successfully",
	})
}

// List handles GET /orders: the caller's orders, newest first, headers only.
func (h *OrderHandler) List(w http.ResponseWriter, r *http.Request) {
	claims := middleware.ClaimsFromContext(r.Context())
	if claims == nil {
		apperr.Write(w, r, apperr.Unauthorized("not authenticated"))
		return
	}

	orders, err := h.store.ListOrdersByUser(r.Context(), claims.UserID)
	if err != nil {
		apperr.Write(w, r, apperr.Internal(err))
		return
	}

	resp := make([]orderSummaryResponse, len(orders))
	for i, o := range orders {
		resp[i] = toOrderSummary(o)
	}
	writeJSON(w, http.StatusOK, resp)
}

// MyOrders handles GET /orders/my-orders: the caller's orders with items.
func (h *OrderHandler) MyOrders(w http.ResponseWriter, r *http.Request) {
	claims := middleware.ClaimsFromContext(r.Context())
	if claims == nil {
		apperr.Write(w, r, apperr.Unauthorized("not authenticated"))
		return
	}

	orders, err := h.store.ListOrdersByUser(r.Context(), claims.UserID)
	if err != nil {
		apperr.Write(w, r, apperr.Internal(err))
		return
	}

	resp, err := h.expand(r.Context(), orders)
	if err != nil {
		apperr.Write(w, r, apperr.Internal(err))
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

// Pending handles GET /orders/pending: the fulfillment queue, oldest first.
func (h *OrderHandler) Pending(w http.ResponseWriter, r *http.Request) {
	orders, err := h.store.ListOrdersByStatus(r.Context(), enum.OrderStatusPending)
	if err != nil {
		apperr.Write(w, r, apperr.Internal(err))
		return
	}

	resp, err := h.expand(r.Context(), orders)
	if err != nil {
		apperr.Write(w, r, apperr.Internal(err))
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

// Get handles GET /orders/{id}. Admins see any order; customers only their
// own, and someone else's order is reported as not found.
func (h *OrderHandler) Get(w http.ResponseWriter, r *http.Request) {
	claims := middleware.ClaimsFromContext(r.Context())
	if claims == nil {
		apperr.Write(w, r, apperr.Unauthorized("not authenticated"))
		return
	}

	orderID, ok := urlUUID(w, r, "id", "order")
	if !ok {
		return
	}

	var order database.Order
	var err error
	if claims.Role == enum.RoleAdmin {
		order, err = h.store.GetOrder(r.Context(), orderID)
	} else {
		order, err = h.store.GetOrderForUser(r.Context(), database.GetOrderForUserParams{
			ID:     orderID,
			UserID: claims.UserID,
		})
	}
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			apperr.Write(w, r, apperr.NotFound("order not found"))
			return
		}
		apperr.Write(w, r, apperr.Internal(err))
		return
	}

	resp, err := h.expand(r.Context(), []database.Order{order})
	if err != nil {
		apperr.Write(w, r, apperr.Internal(err))
		return
	}
	writeJSON(w, http.StatusOK, resp[0])
}

// UpdateStatus handles PATCH /orders/{id}/status.
func (h *OrderHandler) UpdateStatus(w http.ResponseWriter, r *http.Request) {
	orderID, ok := urlUUID(w, r, "id", "order")
	if !ok {
		return
	}

	var req updateStatusRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	if req.Status == "" {
		apperr.Write(w, r, apperr.BadRequest("status is required"))
		return
	}
	if !service.IsValidStatus(req.Status) {
		apperr.Write(w, r, apperr.BadRequest("invalid status"))
		return
	}

	// Fetch current order to validate transition
	current, err := h.store.GetOrder(r.Context(), orderID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			apperr.Write(w, r, apperr.NotFound("order not found"))
			return
		}
		apperr.Write(w, r, apperr.Internal(err))
		return
	}

	if err := h.policy.Validate(current.Status, req.Status); err != nil {
		if errors.Is(err, service.ErrInvalidStatus) {
			apperr.Write(w, r, apperr.BadRequest("invalid status"))
			return
		}
		apperr.Write(w, r, apperr.Conflict(err.Error()))
		return
	}

	updated, err := h.store.UpdateOrderStatus(r.Context(), database.UpdateOrderStatusParams{
		ID:            orderID,
		Status:        req.Status,
		CurrentStatus: current.Status,
	})
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			// The status moved between our read and write.
			apperr.Write(w, r, apperr.Conflict("order status changed, please retry"))
			return
		}
		apperr.Write(w, r, apperr.Internal(err))
		return
	}

	resp, err := h.expand(r.Context(), []database.Order{updated})
	if err != nil {
		apperr.Write(w, r, apperr.Internal(err))
		return
	}

	h.publish(enum.EventOrderStatusChanged, statusChangedEvent{
		OrderID: updated.ID,
		From:    current.Status,
		To:      updated.Status,
		Order:   resp[0],
	})

	writeJSON(w, http.StatusOK, resp[0])
}

// --- Helpers ---

// isValidationError checks if the error is a known validation error
// from the service layer that should result in 400 Bad Request.
func isValidationError(err error) bool {
	return errors.Is(err, service.ErrEmptyItems) ||
		errors.Is(err, service.ErrAddressRequired) ||
		errors.Is(err, service.ErrInvalidQuantity) ||
		errors.Is(err, service.ErrInvalidPizzaID) ||
		errors.Is(err, service.ErrPizzaNotFound) ||
		errors.Is(err, service.ErrInvalidToppingID) ||
		errors.Is(err, service.ErrToppingNotFound) ||
		errors.Is(err, service.ErrAmountTooLarge)
}

func (h *OrderHandler) publish(eventType string, payload any) {
	if h.feed != nil {
		h.feed.Publish(eventType, payload)
	}
}

// expand attaches items to orders using a single query for all of them.
// Order is preserved.
func (h *OrderHandler) expand(ctx context.Context, orders []database.Order) ([]orderResponse, error) {
	resp := make([]orderResponse, len(orders))
	if len(orders) == 0 {
		return resp, nil
	}

	ids := make([]uuid.UUID, len(orders))
	for i, o := range orders {
		ids[i] = o.ID
	}

	rows, err := h.store.ListOrderItemDetails(ctx, ids)
	if err != nil {
		return nil, err
	}

	byOrder := make(map[uuid.UUID][]orderItemResponse, len(orders))
	for _, row := range rows {
		byOrder[row.OrderID] = append(byOrder[row.OrderID], dbItemDetailToResponse(row))
	}

	for i, o := range orders {
		items := byOrder[o.ID]
		if items == nil {
			items = []orderItemResponse{}
		}
		resp[i] = orderResponse{orderSummaryResponse: toOrderSummary(o), Items: items}
	}
	return resp, nil
}

func toOrderSummary(o database.Order) orderSummaryResponse {
	return orderSummaryResponse{
		ID:          o.ID,
		UserID:      o.UserID,
		Status:      o.Status,
		TotalAmount: numericToString(o.TotalAmount),
		AddressText: o.AddressText,
		CreatedAt:   o.CreatedAt,
		UpdatedAt:   o.UpdatedAt,
	}
}

func dbItemDetailToResponse(row database.ListOrderItemDetailsRow) orderItemResponse {
	toppings := row.ToppingNames
	if toppings == nil {
		toppings = []string{}
	}
	return orderItemResponse{
		ID:        row.ID,
		PizzaID:   row.PizzaID,
		PizzaName: row.PizzaName,
		Size:      row.Size,
		Crust:     textPtr(row.Crust),
		Quantity:  row.Quantity,
		UnitPrice: numericToString(row.UnitPrice),
		Toppings:  toppings,
	}
}

// toOrderResponse renders a freshly created order from the service result.
func toOrderResponse(result *service.CreateOrderResult) orderResponse {
	items := make([]orderItemResponse, len(result.Items))
	for i, ir := range result.Items {
		items[i] = orderItemResponse{
			ID:        ir.Item.ID,
			PizzaID:   ir.Item.PizzaID,
			PizzaName: ir.PizzaName,
			Size:      ir.Item.Size,
			Crust:     textPtr(ir.Item.Crust),
			Quantity:  ir.Item.Quantity,
			UnitPrice: numericToString(ir.Item.UnitPrice),
			Toppings:  ir.ToppingNames,
		}
	}
	return orderResponse{
		orderSummaryResponse: toOrderSummary(result.Order),
		Items:                items,
	}
}
