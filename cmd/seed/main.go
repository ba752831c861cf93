package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"strings"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgtype"
	"github.com/pizzastore/api/internal/auth"
	"github.com/pizzastore/api/internal/config"
	"github.com/pizzastore/api/internal/database"
	"github.com/pizzastore/api/internal/enum"
	"github.com/pizzastore/api/internal/logger"
)

type seedPizza struct {
	name, description, category string
	regular, medium, large      string
}

var samplePizzas = []seedPizza{
	{"Margherita", "Tomato, mozzarella and basil", "veg", "300", "400", "500"},
	{"Farmhouse", "Onion, capsicum, tomato and mushroom", "veg", "350", "450", "550"},
	{"Pepperoni", "Double pepperoni with mozzarella", "non-veg", "400", "520", "640"},
	{"Chicken Tikka", "Tandoori chicken, onion and mint mayo", "non-veg", "420", "540", "660"},
}

var sampleToppings = []struct{ name, price string }{
	{"Olives", "20"},
	{"Jalapeños", "25"},
	{"Extra Cheese", "40"},
	{"Mushrooms", "30"},
	{"Paneer", "45"},
}

func main() {
	email := flag.String("email", "", "Admin email address")
	password := flag.String("password", "", "Admin password")
	withCatalog := flag.Bool("catalog", true, "Also seed sample pizzas and toppings")
	flag.Parse()

	log := logger.New("pizzastore-seed", "info")

	// Fall back to environment variables, then defaults
	if *email == "" {
		*email = os.Getenv("SEED_EMAIL")
	}
	if *password == "" {
		*password = os.Getenv("SEED_PASSWORD")
	}
	if *email == "" {
		*email = "admin@pizzastore.local"
	}
	if *password == "" {
		*password = "password123"
		log.Warn("using default password 'password123', change it immediately in production")
	}

	cfg, err := config.Load()
	if err != nil {
		fatal(log, "load config", err)
	}

	ctx := context.Background()
	pool, err := database.NewPool(ctx, cfg.DatabaseURL, cfg.StatementTimeout)
	if err != nil {
		fatal(log, "connect to database", err)
	}
	defer pool.Close()
	log.Info("connected to database")

	// Seed in a transaction: all rows or none
	tx, err := pool.Begin(ctx)
	if err != nil {
		fatal(log, "begin transaction", err)
	}
	defer tx.Rollback(ctx) //nolint:errcheck

	q := database.New(tx)

	adminID, err := seedAdmin(ctx, log, q, strings.ToLower(strings.TrimSpace(*email)), *password)
	if err != nil {
		fatal(log, "seed admin", err)
	}

	if *withCatalog {
		if err := seedCatalog(ctx, log, tx, q); err != nil {
			fatal(log, "seed catalog", err)
		}
	}

	if err := tx.Commit(ctx); err != nil {
		fatal(log, "commit", err)
	}

	log.Info("seed completed", slog.String("admin_id", adminID.String()))
}

func fatal(log *slog.Logger, msg string, err error) {
	log.Error(msg, slog.String("error", err.Error()))
	os.Exit(1)
}

// seedAdmin creates the admin user if it doesn't exist.
func seedAdmin(ctx context.Context, log *slog.Logger, q *database.Queries, email, password string) (uuid.UUID, error) {
	existing, err := q.GetUserByEmail(ctx, email)
	if err == nil {
		log.Info("admin already exists, skipping", slog.String("email", email), slog.String("id", existing.ID.String()))
		return existing.ID, nil
	}
	if !errors.Is(err, pgx.ErrNoRows) {
		return uuid.Nil, fmt.Errorf("check user: %w", err)
	}

	hashed, err := auth.HashPassword(password)
	if err != nil {
		return uuid.Nil, fmt.Errorf("hash password: %w", err)
	}

	user, err := q.CreateUser(ctx, database.CreateUserParams{
		Email:          email,
		HashedPassword: hashed,
		Role:           enum.RoleAdmin,
	})
	if err != nil {
		return uuid.Nil, fmt.Errorf("insert user: %w", err)
	}

	log.Info("created admin user", slog.String("email", email), slog.String("id", user.ID.String()))
	return user.ID, nil
}

// seedCatalog inserts sample pizzas and toppings, skipping names that are
// already active.
func seedCatalog(ctx context.Context, log *slog.Logger, tx pgx.Tx, q *database.Queries) error {
	for _, p := range samplePizzas {
		exists, err := activeNameExists(ctx, tx, "pizzas", p.name)
		if err != nil {
			return err
		}
		if exists {
			log.Info("pizza already exists, skipping", slog.String("name", p.name))
			continue
		}

		created, err := q.CreatePizza(ctx, database.CreatePizzaParams{
			Name:         p.name,
			Description:  pgtype.Text{String: p.description, Valid: true},
			Category:     p.category,
			PriceRegular: numeric(p.regular),
			PriceMedium:  numeric(p.medium),
			PriceLarge:   numeric(p.large),
		})
		if err != nil {
			return fmt.Errorf("insert pizza %q: %w", p.name, err)
		}
		log.Info("created pizza", slog.String("name", p.name), slog.String("id", created.ID.String()))
	}

	for _, tp := range sampleToppings {
		exists, err := activeNameExists(ctx, tx, "toppings", tp.name)
		if err != nil {
			return err
		}
		if exists {
			log.Info("topping already exists, skipping", slog.String("name", tp.name))
			continue
		}

		created, err := q.CreateTopping(ctx, database.CreateToppingParams{
			Name:  tp.name,
			Price: numeric(tp.price),
		})
		if err != nil {
			return fmt.Errorf("insert topping %q: %w", tp.name, err)
		}
		log.Info("created topping", slog.String("name", tp.name), slog.String("id", created.ID.String()))
	}
	return nil
}

// activeNameExists checks the catalog table for an active row named name.
// table is one of the fixed catalog table names above, never user input.
func activeNameExists(ctx context.Context, tx pgx.Tx, table, name string) (bool, error) {
	var exists bool
	err := tx.QueryRow(ctx,
		`SELECT EXISTS (SELECT 1 FROM `+table+` WHERE name = $1 AND is_active)`, name,
	).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("check %s: %w", table, err)
	}
	return exists, nil
}

func numeric(s string) pgtype.Numeric {
	var n pgtype.Numeric
	if err := n.Scan(s); err != nil {
		panic(fmt.Sprintf("seed price %q: %v", s, err))
	}
	return n
}
