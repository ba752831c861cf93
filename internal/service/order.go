package service

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgtype"
	"github.com/pizzastore/api/internal/database"
	"github.com/pizzastore/api/internal/enum"
	"github.com/shopspring/decimal"
)

// Errors returned by the order service.
var (
	ErrEmptyItems       = errors.New("items are required")
	ErrAddressRequired  = errors.New("address_text is required")
	ErrInvalidQuantity  = errors.New("quantity must not be negative")
	ErrInvalidPizzaID   = errors.New("invalid pizza_id")
	ErrPizzaNotFound    = errors.New("pizza not found")
	ErrInvalidToppingID = errors.New("invalid topping id")
	ErrToppingNotFound  = errors.New("topping not found")
	ErrAmountTooLarge   = errors.New("order amount exceeds the supported maximum")
)

// TxBeginner starts a new database transaction.
type TxBeginner interface {
	Begin(ctx context.Context) (pgx.Tx, error)
}

// OrderStore defines the DB methods needed to create orders.
// Satisfied by *database.Queries.
type OrderStore interface {
	GetPizzaForOrder(ctx context.Context, id uuid.UUID) (database.GetPizzaForOrderRow, error)
	ListToppingsForOrder(ctx context.Context, ids []uuid.UUID) ([]database.ListToppingsForOrderRow, error)
	CreateOrder(ctx context.Context, arg database.CreateOrderParams) (database.Order, error)
	CreateOrderItem(ctx context.Context, arg database.CreateOrderItemParams) (database.OrderItem, error)
	CreateOrderItemTopping(ctx context.Context, arg database.CreateOrderItemToppingParams) (database.OrderItemTopping, error)
}

// NewOrderStore creates an OrderStore from a DBTX (pool or tx).
type NewOrderStore func(db database.DBTX) OrderStore

// CreateOrderRequest is the decoded input for placing an order.
type CreateOrderRequest struct {
	UserID      uuid.UUID
	AddressText string
	Items       []CreateOrderItemRequest
}

// CreateOrderItemRequest is a single pizza line in the cart.
type CreateOrderItemRequest struct {
	PizzaID    string
	Size       string
	Crust      string
	Quantity   int32
	ToppingIDs []string
}

// CreateOrderResult is the created order with its items.
type CreateOrderResult struct {
	Order database.Order
	Items []OrderItemResult
}

// OrderItemResult is a persisted item plus the names needed to render it.
type OrderItemResult struct {
	Item         database.OrderItem
	PizzaName    string
	ToppingNames []string
}

// OrderService handles order placement.
type OrderService struct {
	pool     TxBeginner
	newStore NewOrderStore
}

// NewOrderService creates a new OrderService.
func NewOrderService(pool TxBeginner, newStore NewOrderStore) *OrderService {
	return &OrderService{pool: pool, newStore: newStore}
}

// processedItem is a priced line waiting to be inserted.
type processedItem struct {
	params     database.CreateOrderItemParams
	pizzaName  string
	toppingIDs []uuid.UUID
	toppings   []string
}

// CreateOrder validates the cart, prices every item from the current catalog
// and persists header, items and topping links in one transaction.
func (s *OrderService) CreateOrder(ctx context.Context, req CreateOrderRequest) (*CreateOrderResult, error) {
	address := strings.TrimSpace(req.AddressText)
	if address == "" {
		return nil, ErrAddressRequired
	}
	if len(req.Items) == 0 {
		return nil, ErrEmptyItems
	}

	// --- Parse ids before touching the database ---
	pizzaIDs := make([]uuid.UUID, len(req.Items))
	toppingIDs := make([][]uuid.UUID, len(req.Items))
	for i, item := range req.Items {
		if item.Quantity < 0 {
			return nil, fmt.Errorf("item[%d]: %w", i, ErrInvalidQuantity)
		}
		pid, err := uuid.Parse(item.PizzaID)
		if err != nil {
			return nil, fmt.Errorf("item[%d]: %w", i, ErrInvalidPizzaID)
		}
		pizzaIDs[i] = pid
		for j, raw := range item.ToppingIDs {
			tid, err := uuid.Parse(raw)
			if err != nil {
				return nil, fmt.Errorf("item[%d].toppings[%d]: %w", i, j, ErrInvalidToppingID)
			}
			toppingIDs[i] = append(toppingIDs[i], tid)
		}
	}

	// --- Begin transaction ---
	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return nil, fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback(ctx) //nolint:errcheck

	store := s.newStore(tx)

	// --- Price every item ---
	orderTotal := decimal.Zero
	items := make([]processedItem, 0, len(req.Items))

	for i, item := range req.Items {
		pizza, err := store.GetPizzaForOrder(ctx, pizzaIDs[i])
		if err != nil {
			if errors.Is(err, pgx.ErrNoRows) {
				return nil, fmt.Errorf("item[%d]: %w", i, ErrPizzaNotFound)
			}
			return nil, fmt.Errorf("item[%d]: get pizza: %w", i, err)
		}

		size := NormalizeSize(item.Size)
		base := BasePrice(pizza, size)

		var toppingPrices []decimal.Decimal
		var toppingNames []string
		if len(toppingIDs[i]) > 0 {
			rows, err := store.ListToppingsForOrder(ctx, toppingIDs[i])
			if err != nil {
				return nil, fmt.Errorf("item[%d]: list toppings: %w", i, err)
			}
			byID := make(map[uuid.UUID]database.ListToppingsForOrderRow, len(rows))
			for _, r := range rows {
				byID[r.ID] = r
			}
			// Each reference counts, so a repeated topping is charged twice.
			for j, tid := range toppingIDs[i] {
				t, ok := byID[tid]
				if !ok {
					return nil, fmt.Errorf("item[%d].toppings[%d]: %w", i, j, ErrToppingNotFound)
				}
				toppingPrices = append(toppingPrices, NumericToDecimal(t.Price))
				toppingNames = append(toppingNames, t.Name)
			}
		}

		quantity := item.Quantity
		if quantity == 0 {
			quantity = 1
		}

		unitPrice := UnitPrice(base, toppingPrices)
		if unitPrice.GreaterThan(MaxPrice) {
			return nil, fmt.Errorf("item[%d]: %w", i, ErrAmountTooLarge)
		}
		orderTotal = orderTotal.Add(LineTotal(unitPrice, quantity))
		if orderTotal.Round(2).GreaterThan(MaxOrderTotal) {
			return nil, fmt.Errorf("item[%d]: %w", i, ErrAmountTooLarge)
		}
		unitNumeric, err := DecimalToNumeric(unitPrice)
		if err != nil {
			return nil, fmt.Errorf("item[%d]: %w", i, err)
		}

		crust := pgtype.Text{}
		if c := strings.TrimSpace(item.Crust); c != "" {
			crust = pgtype.Text{String: c, Valid: true}
		}

		items = append(items, processedItem{
			params: database.CreateOrderItemParams{
				PizzaID:   pizza.ID,
				Size:      size,
				Crust:     crust,
				Quantity:  quantity,
				UnitPrice: unitNumeric,
			},
			pizzaName:  pizza.Name,
			toppingIDs: toppingIDs[i],
			toppings:   toppingNames,
		})
	}

	totalNumeric, err := DecimalToNumeric(orderTotal.Round(2))
	if err != nil {
		return nil, err
	}

	// --- Insert order ---
	order, err := store.CreateOrder(ctx, database.CreateOrderParams{
		UserID:      req.UserID,
		Status:      enum.OrderStatusPending,
		TotalAmount: totalNumeric,
		AddressText: address,
	})
	if err != nil {
		return nil, fmt.Errorf("create order: %w", err)
	}

	// --- Insert items and topping links ---
	itemResults := make([]OrderItemResult, 0, len(items))
	for _, pi := range items {
		pi.params.OrderID = order.ID
		item, err := store.CreateOrderItem(ctx, pi.params)
		if err != nil {
			return nil, fmt.Errorf("create order item: %w", err)
		}

		for _, tid := range pi.toppingIDs {
			if _, err := store.CreateOrderItemTopping(ctx, database.CreateOrderItemToppingParams{
				OrderItemID: item.ID,
				ToppingID:   tid,
			}); err != nil {
				return nil, fmt.Errorf("create order item topping: %w", err)
			}
		}

		names := pi.toppings
		if names == nil {
			names = []string{}
		}
		itemResults = append(itemResults, OrderItemResult{
			Item:         item,
			PizzaName:    pi.pizzaName,
			ToppingNames: names,
		})
	}

	// --- Commit ---
	if err := tx.Commit(ctx); err != nil {
		return nil, fmt.Errorf("commit tx: %w", err)
	}

	return &CreateOrderResult{
		Order: order,
		Items: itemResults,
	}, nil
}
