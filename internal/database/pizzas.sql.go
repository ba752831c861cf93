package database

import (
	"context"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgtype"
)

const pizzaColumns = `id, name, description, category, price_regular, price_medium, price_large, image_url, is_active, created_at, updated_at`

func scanPizza(row interface{ Scan(...any) error }) (Pizza, error) {
	var i Pizza
	err := row.Scan(
		&i.ID,
		&i.Name,
		&i.Description,
		&i.Category,
		&i.PriceRegular,
		&i.PriceMedium,
		&i.PriceLarge,
		&i.ImageUrl,
		&i.IsActive,
		&i.CreatedAt,
		&i.UpdatedAt,
	)
	return i, err
}

const listPizzas = `-- name: ListPizzas :many
SELECT ` + pizzaColumns + ` FROM pizzas
WHERE is_active = true
ORDER BY category, name
`

func (q *Queries) ListPizzas(ctx context.Context) ([]Pizza, error) {
	rows, err := q.db.Query(ctx, listPizzas)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	items := []Pizza{}
	for rows.Next() {
		i, err := scanPizza(rows)
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

const getPizza = `-- name: GetPizza :one
SELECT ` + pizzaColumns + ` FROM pizzas
WHERE id = $1 AND is_active = true
`

func (q *Queries) GetPizza(ctx context.Context, id uuid.UUID) (Pizza, error) {
	return scanPizza(q.db.QueryRow(ctx, getPizza, id))
}

const createPizza = `-- name: CreatePizza :one
INSERT INTO pizzas (name, description, category, price_regular, price_medium, price_large, image_url)
VALUES ($1, $2, $3, $4, $5, $6, $7)
RETURNING ` + pizzaColumns + `
`

type CreatePizzaParams struct {
	Name         string         `json:"name"`
	Description  pgtype.Text    `json:"description"`
	Category     string         `json:"category"`
	PriceRegular pgtype.Numeric `json:"price_regular"`
	PriceMedium  pgtype.Numeric `json:"price_medium"`
	PriceLarge   pgtype.Numeric `json:"price_large"`
	ImageUrl     pgtype.Text    `json:"image_url"`
}

func (q *Queries) CreatePizza(ctx context.Context, arg CreatePizzaParams) (Pizza, error) {
	row := q.db.QueryRow(ctx, createPizza,
		arg.Name,
		arg.Description,
		arg.Category,
		arg.PriceRegular,
		arg.PriceMedium,
		arg.PriceLarge,
		arg.ImageUrl,
	)
	return scanPizza(row)
}

const updatePizza = `-- name: UpdatePizza :one
UPDATE pizzas
SET name = $1, description = $2, category = $3, price_regular = $4,
    price_medium = $5, price_large = $6, image_url = $7, updated_at = now()
WHERE id = $8 AND is_active = true
RETURNING ` + pizzaColumns + `
`

type UpdatePizzaParams struct {
	Name         string         `json:"name"`
	Description  pgtype.Text    `json:"description"`
	Category     string         `json:"category"`
	PriceRegular pgtype.Numeric `json:"price_regular"`
	PriceMedium  pgtype.Numeric `json:"price_medium"`
	PriceLarge   pgtype.Numeric `json:"price_large"`
	ImageUrl     pgtype.Text    `json:"image_url"`
	ID           uuid.UUID      `json:"id"`
}

func (q *Queries) UpdatePizza(ctx context.Context, arg UpdatePizzaParams) (Pizza, error) {
	row := q.db.QueryRow(ctx, updatePizza,
		arg.Name,
		arg.Description,
		arg.Category,
		arg.PriceRegular,
		arg.PriceMedium,
		arg.PriceLarge,
		arg.ImageUrl,
		arg.ID,
	)
	return scanPizza(row)
}

const softDeletePizza = `-- name: SoftDeletePizza :one
UPDATE pizzas SET is_active = false, updated_at = now()
WHERE id = $1 AND is_active = true
RETURNING id
`

func (q *Queries) SoftDeletePizza(ctx context.Context, id uuid.UUID) (uuid.UUID, error) {
	row := q.db.QueryRow(ctx, softDeletePizza, id)
	var deleted uuid.UUID
	err := row.Scan(&deleted)
	return deleted, err
}
