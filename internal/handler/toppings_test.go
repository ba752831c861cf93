package handler_test

import (
	"context"
	"net/http"
	"strings"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/pizzastore/api/internal/database"
	"github.com/pizzastore/api/internal/handler"
)

type mockToppingStore struct {
	toppings  map[uuid.UUID]database.Topping
	createErr error
}

func newMockToppingStore() *mockToppingStore {
	return &mockToppingStore{toppings: make(map[uuid.UUID]database.Topping)}
}

func (m *mockToppingStore) ListToppings(_ context.Context) ([]database.Topping, error) {
	result := []database.Topping{}
	for _, t := range m.toppings {
		if t.IsActive {
			result = append(result, t)
		}
	}
	return result, nil
}

func (m *mockToppingStore) GetTopping(_ context.Context, id uuid.UUID) (database.Topping, error) {
	t, ok := m.toppings[id]
	if !ok || !t.IsActive {
		return database.Topping{}, pgx.ErrNoRows
	}
	return t, nil
}

func (m *mockToppingStore) CreateTopping(_ context.Context, arg database.CreateToppingParams) (database.Topping, error) {
	if m.createErr != nil {
		return database.Topping{}, m.createErr
	}
	for _, t := range m.toppings {
		if t.IsActive && t.Name == arg.Name {
			return database.Topping{}, &pgconn.PgError{Code: "23505"}
		}
	}
	t := database.Topping{ID: uuid.New(), Name: arg.Name, Price: arg.Price, IsActive: true, CreatedAt: time.Now()}
	m.toppings[t.ID] = t
	return t, nil
}

func (m *mockToppingStore) SoftDeleteTopping(_ context.Context, id uuid.UUID) (uuid.UUID, error) {
	t, ok := m.toppings[id]
	if !ok || !t.IsActive {
		return uuid.Nil, pgx.ErrNoRows
	}
	t.IsActive = false
	m.toppings[id] = t
	return id, nil
}

func setupToppingRouter(store *mockToppingStore) *chi.Mux {
	h := handler.NewToppingHandler(store)
	return mountWithGroups(h.RegisterRoutes, nil, h.RegisterAdminRoutes)
}

func TestCreateAndListToppings(t *testing.T) {
	store := newMockToppingStore()
	router := setupToppingRouter(store)

	rr := doRequest(t, router, "POST", "/toppings", map[string]interface{}{"name": "Olives", "price": 20}, adminClaims())
	if rr.Code != http.StatusCreated {
		t.Fatalf("status: got %d, want %d (body: %s)", rr.Code, http.StatusCreated, rr.Body.String())
	}
	created := decodeResponse(t, rr)
	if created["price"] != "20.00" {
		t.Errorf("price: got %v, want 20.00", created["price"])
	}

	rr = doRequest(t, router, "GET", "/toppings", nil, nil)
	list := decodeListResponse(t, rr)
	if len(list) != 1 || list[0]["name"] != "Olives" {
		t.Fatalf("list: got %v", list)
	}

	rr = doRequest(t, router, "GET", "/toppings/"+created["id"].(string), nil, nil)
	if rr.Code != http.StatusOK {
		t.Fatalf("get status: got %d", rr.Code)
	}
}

func TestCreateTopping_Validation(t *testing.T) {
	tests := []struct {
		name string
		body interface{}
	}{
		{"missing name", map[string]interface{}{"price": 1}},
		{"missing price", map[string]interface{}{"name": "Basil"}},
		{"negative price", map[string]interface{}{"name": "Basil", "price": "-0.01"}},
		{"bad price", map[string]interface{}{"name": "Basil", "price": "free"}},
		{"price too large", map[string]interface{}{"name": "Basil", "price": 1e9}},
		{"name too long", map[string]interface{}{"name": strings.Repeat("b", 101), "price": 1}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rr := doRequest(t, setupToppingRouter(newMockToppingStore()), "POST", "/toppings", tt.body, adminClaims())
			assertError(t, rr, http.StatusBadRequest, "BAD_REQUEST")
		})
	}
}

func TestCreateTopping_ColumnOverflow(t *testing.T) {
	store := newMockToppingStore()
	store.createErr = &pgconn.PgError{Code: "22001"}
	rr := doRequest(t, setupToppingRouter(store), "POST", "/toppings",
		map[string]interface{}{"name": "Basil", "price": 1}, adminClaims())
	assertError(t, rr, http.StatusBadRequest, "BAD_REQUEST")
}

func TestCreateTopping_Duplicate(t *testing.T) {
	store := newMockToppingStore()
	router := setupToppingRouter(store)
	body := map[string]interface{}{"name": "Olives", "price": 20}

	doRequest(t, router, "POST", "/toppings", body, adminClaims())
	rr := doRequest(t, router, "POST", "/toppings", body, adminClaims())
	assertError(t, rr, http.StatusConflict, "CONFLICT")
}

func TestCreateTopping_ForbiddenForUser(t *testing.T) {
	rr := doRequest(t, setupToppingRouter(newMockToppingStore()), "POST", "/toppings",
		map[string]interface{}{"name": "Olives", "price": 20}, userClaims())
	assertError(t, rr, http.StatusForbidden, "FORBIDDEN")
}

func TestDeleteTopping(t *testing.T) {
	store := newMockToppingStore()
	olives, _ := store.CreateTopping(context.Background(), database.CreateToppingParams{Name: "Olives", Price: makeNumeric("20")})
	router := setupToppingRouter(store)

	rr := doRequest(t, router, "DELETE", "/toppings/"+olives.ID.String(), nil, adminClaims())
	if rr.Code != http.StatusNoContent {
		t.Fatalf("status: got %d, want %d", rr.Code, http.StatusNoContent)
	}

	rr = doRequest(t, router, "GET", "/toppings/"+olives.ID.String(), nil, nil)
	assertError(t, rr, http.StatusNotFound, "NOT_FOUND")

	rr = doRequest(t, router, "DELETE", "/toppings/"+uuid.New().String(), nil, adminClaims())
	assertError(t, rr, http.StatusNotFound, "NOT_FOUND")
}
