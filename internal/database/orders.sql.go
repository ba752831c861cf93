package database

import (
	"context"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgtype"
)

const orderColumns = `id, user_id, status, total_amount, address_text, created_at, updated_at`

func scanOrder(row interface{ Scan(...any) error }) (Order, error) {
	var i Order
	err := row.Scan(
		&i.ID,
		&i.UserID,
		&i.Status,
		&i.TotalAmount,
		&i.AddressText,
		&i.CreatedAt,
		&i.UpdatedAt,
	)
	return i, err
}

func (q *Queries) queryOrders(ctx context.Context, sql string, args ...interface{}) ([]Order, error) {
	rows, err := q.db.Query(ctx, sql, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	items := []Order{}
	for rows.Next() {
		i, err := scanOrder(rows)
		if err != nil {
			return nil, err
		}
		items = append(items, i)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return items, nil
}

// --- Order placement ---

const getPizzaForOrder = `-- name: GetPizzaForOrder :one
SELECT id, name, price_regular, price_medium, price_large FROM pizzas
WHERE id = $1 AND is_active = true
`

type GetPizzaForOrderRow struct {
	ID           uuid.UUID      `json:"id"`
	Name         string         `json:"name"`
	PriceRegular pgtype.Numeric `json:"price_regular"`
	PriceMedium  pgtype.Numeric `json:"price_medium"`
	PriceLarge   pgtype.Numeric `json:"price_large"`
}

func (q *Queries) GetPizzaForOrder(ctx context.Context, id uuid.UUID) (GetPizzaForOrderRow, error) {
	row := q.db.QueryRow(ctx, getPizzaForOrder, id)
	var i GetPizzaForOrderRow
	err := row.Scan(
		&i.ID,
		&i.Name,
		&i.PriceRegular,
		&i.PriceMedium,
		&i.PriceLarge,
	)
	return i, err
}

const listToppingsForOrder = `-- name: ListToppingsForOrder :many
SELECT id, name, price FROM toppings
WHERE id = ANY($1::uuid[]) AND is_active = true
`

type ListToppingsForOrderRow struct {
	ID    uuid.UUID      `json:"id"`
	Name  string         `json:"name"`
	Price pgtype.Numeric `json:"price"`
}

func (q *Queries) ListToppingsForOrder(ctx context.Context, ids []uuid.UUID) ([]ListToppingsForOrderRow, error) {
	rows, err := q.db.Query(ctx, listToppingsForOrder, ids)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	items := []ListToppingsForOrderRow{}
	for rows.Next() {
		var i ListToppingsForOrderRow
		if err := rows.Scan(&i.ID, &i.Name, &i.Price); err != nil {
			return nil, err
		}
		items = append(items, i)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return items, nil
}

const createOrder = `-- name: CreateOrder :one
INSERT INTO orders (user_id, status, total_amount, address_text)
VALUES ($1, $2, $3, $4)
RETURNING ` + orderColumns + `
`

type CreateOrderParams struct {
	UserID      uuid.UUID      `json:"user_id"`
	Status      string         `json:"status"`
	TotalAmount pgtype.Numeric `json:"total_amount"`
	AddressText string         `json:"address_text"`
}

func (q *Queries) CreateOrder(ctx context.Context, arg CreateOrderParams) (Order, error) {
	row := q.db.QueryRow(ctx, createOrder,
		arg.UserID,
		arg.Status,
		arg.TotalAmount,
		arg.AddressText,
	)
	return scanOrder(row)
}

const createOrderItem = `-- name: CreateOrderItem :one
INSERT INTO order_items (order_id, pizza_id, size, crust, quantity, unit_price)
VALUES ($1, $2, $3, $4, $5, $6)
RETURNING id, order_id, pizza_id, size, crust, quantity, unit_price
`

type CreateOrderItemParams struct {
	OrderID   uuid.UUID      `json:"order_id"`
	PizzaID   uuid.UUID      `json:"pizza_id"`
	Size      string         `json:"size"`
	Crust     pgtype.Text    `json:"crust"`
	Quantity  int32          `json:"quantity"`
	UnitPrice pgtype.Numeric `json:"unit_price"`
}

func (q *Queries) CreateOrderItem(ctx context.Context, arg CreateOrderItemParams) (OrderItem, error) {
	row := q.db.QueryRow(ctx, createOrderItem,
		arg.OrderID,
		arg.PizzaID,
		arg.Size,
		arg.Crust,
		arg.Quantity,
		arg.UnitPrice,
	)
	var i OrderItem
	err := row.Scan(
		&i.ID,
		&i.OrderID,
		&i.PizzaID,
		&i.Size,
		&i.Crust,
		&i.Quantity,
		&i.UnitPrice,
	)
	return i, err
}

const createOrderItemTopping = `-- name: CreateOrderItemTopping :one
INSERT INTO order_item_toppings (order_item_id, topping_id)
VALUES ($1, $2)
RETURNING id, order_item_id, topping_id
`

type CreateOrderItemToppingParams struct {
	OrderItemID uuid.UUID `json:"order_item_id"`
	ToppingID   uuid.UUID `json:"topping_id"`
}

func (q *Queries) CreateOrderItemTopping(ctx context.Context, arg CreateOrderItemToppingParams) (OrderItemTopping, error) {
	row := q.db.QueryRow(ctx, createOrderItemTopping, arg.OrderItemID, arg.ToppingID)
	var i OrderItemTopping
	err := row.Scan(&i.ID, &i.OrderItemID, &i.ToppingID)
	return i, err
}

// --- Order reads ---

const getOrder = `-- name: GetOrder :one
SELECT ` + orderColumns + ` FROM orders
WHERE id = $1
`

func (q *Queries) GetOrder(ctx context.Context, id uuid.UUID) (Order, error) {
	return scanOrder(q.db.QueryRow(ctx, getOrder, id))
}

const getOrderForUser = `-- name: GetOrderForUser :one
SELECT ` + orderColumns + ` FROM orders
WHERE id = $1 AND user_id = $2
`

type GetOrderForUserParams struct {
	ID     uuid.UUID `json:"id"`
	UserID uuid.UUID `json:"user_id"`
}

func (q *Queries) GetOrderForUser(ctx context.Context, arg GetOrderForUserParams) (Order, error) {
	return scanOrder(q.db.QueryRow(ctx, getOrderForUser, arg.ID, arg.UserID))
}

const listOrdersByUser = `-- name: ListOrdersByUser :many
SELECT ` + orderColumns + ` FROM orders
WHERE user_id = $1
ORDER BY created_at DESC, id DESC
`

func (q *Queries) ListOrdersByUser(ctx context.Context, userID uuid.UUID) ([]Order, error) {
	return q.queryOrders(ctx, listOrdersByUser, userID)
}

const listOrdersByStatus = `-- name: ListOrdersByStatus :many
SELECT ` + orderColumns + ` FROM orders
WHERE status = $1
ORDER BY created_at ASC, id ASC
`

func (q *Queries) ListOrdersByStatus(ctx context.Context, status string) ([]Order, error) {
	return q.queryOrders(ctx, listOrdersByStatus, status)
}

const listOrderItemDetails = `-- name: ListOrderItemDetails :many
SELECT
    oi.id, oi.order_id, oi.pizza_id, p.name AS pizza_name,
    oi.size, oi.crust, oi.quantity, oi.unit_price,
    COALESCE(
        array_agg(t.name ORDER BY oit.seq) FILTER (WHERE t.id IS NOT NULL),
        '{}'
    )::text[] AS topping_names
FROM order_items oi
JOIN pizzas p ON p.id = oi.pizza_id
LEFT JOIN order_item_toppings oit ON oit.order_item_id = oi.id
LEFT JOIN toppings t ON t.id = oit.topping_id
WHERE oi.order_id = ANY($1::uuid[])
GROUP BY oi.id, p.name
ORDER BY array_position($1::uuid[], oi.order_id), oi.seq
`

type ListOrderItemDetailsRow struct {
	ID           uuid.UUID      `json:"id"`
	OrderID      uuid.UUID      `json:"order_id"`
	PizzaID      uuid.UUID      `json:"pizza_id"`
	PizzaName    string         `json:"pizza_name"`
	Size         string         `json:"size"`
	Crust        pgtype.Text    `json:"crust"`
	Quantity     int32          `json:"quantity"`
	UnitPrice    pgtype.Numeric `json:"unit_price"`
	ToppingNames []string       `json:"topping_names"`
}

// ListOrderItemDetails expands the items of many orders in one round trip,
// joining pizza names and aggregating topping names per item. Rows follow
// the order of orderIDs, then cart order within each order.
func (q *Queries) ListOrderItemDetails(ctx context.Context, orderIDs []uuid.UUID) ([]ListOrderItemDetailsRow, error) {
	rows, err := q.db.Query(ctx, listOrderItemDetails, orderIDs)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	items := []ListOrderItemDetailsRow{}
	for rows.Next() {
		var i ListOrderItemDetailsRow
		if err := rows.Scan(
			&i.ID,
			&i.OrderID,
			&i.PizzaID,
			&i.PizzaName,
			&i.Size,
			&i.Crust,
			&i.Quantity,
			&i.UnitPrice,
			&i.ToppingNames,
		); err != nil {
			return nil, err
		}
		items = append(items, i)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return items, nil
}

// --- Status transitions ---

const updateOrderStatus = `-- name: UpdateOrderStatus :one
UPDATE orders SET status = $2, updated_at = now()
WHERE id = $1 AND status = $3
RETURNING ` + orderColumns + `
`

type UpdateOrderStatusParams struct {
	ID            uuid.UUID `json:"id"`
	Status        string    `json:"status"`
	CurrentStatus string    `json:"current_status"`
}

// UpdateOrderStatus only succeeds while the order still has CurrentStatus;
// otherwise it returns pgx.ErrNoRows.
func (q *Queries) UpdateOrderStatus(ctx context.Context, arg UpdateOrderStatusParams) (Order, error) {
	return scanOrder(q.db.QueryRow(ctx, updateOrderStatus, arg.ID, arg.Status, arg.CurrentStatus))
}
