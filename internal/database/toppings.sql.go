package database

import (
	"context"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgtype"
)

const listToppings = `-- name: ListToppings :many
SELECT id, name, price, is_active, created_at FROM toppings
WHERE is_active = true
ORDER BY name
`

func (q *Queries) ListToppings(ctx context.Context) ([]Topping, error) {
	rows, err := q.db.Query(ctx, listToppings)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	items := []Topping{}
	for rows.Next() {
		var i Topping
		if err := rows.Scan(
			&i.ID,
			&i.Name,
			&i.Price,
			&i.IsActive,
			&i.CreatedAt,
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

const getTopping = `-- name: GetTopping :one
SELECT id, name, price, is_active, created_at FROM toppings
WHERE id = $1 AND is_active = true
`

func (q *Queries) GetTopping(ctx context.Context, id uuid.UUID) (Topping, error) {
	row := q.db.QueryRow(ctx, getTopping, id)
	var i Topping
	err := row.Scan(
		&i.ID,
		&i.Name,
		&i.Price,
		&i.IsActive,
		&i.CreatedAt,
	)
	return i, err
}

const createTopping = `-- name: CreateTopping :one
INSERT INTO toppings (name, price)
VALUES ($1, $2)
RETURNING id, name, price, is_active, created_at
`

type CreateToppingParams struct {
	Name  string         `json:"name"`
	Price pgtype.Numeric `json:"price"`
}

func (q *Queries) CreateTopping(ctx context.Context, arg CreateToppingParams) (Topping, error) {
	row := q.db.QueryRow(ctx, createTopping, arg.Name, arg.Price)
	var i Topping
	err := row.Scan(
		&i.ID,
		&i.Name,
		&i.Price,
		&i.IsActive,
		&i.CreatedAt,
	)
	return i, err
}

const softDeleteTopping = `-- name: SoftDeleteTopping :one
UPDATE toppings SET is_active = false
WHERE id = $1 AND is_active = true
RETURNING id
`

func (q *Queries) SoftDeleteTopping(ctx context.Context, id uuid.UUID) (uuid.UUID, error) {
	row := q.db.QueryRow(ctx, softDeleteTopping, id)
	var deleted uuid.UUID
	err := row.Scan(&deleted)
	return deleted, err
}
