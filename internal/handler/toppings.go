package handler

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/pizzastore/api/internal/apperr"
	"github.com/pizzastore/api/internal/database"
)

// ToppingStore defines the database methods needed by topping handlers.
// Satisfied by *database.Queries; narrow interface for testability.
type ToppingStore interface {
	ListToppings(ctx context.Context) ([]database.Topping, error)
	GetTopping(ctx context.Context, id uuid.UUID) (database.Topping, error)
	CreateTopping(ctx context.Context, arg database.CreateToppingParams) (database.Topping, error)
	SoftDeleteTopping(ctx context.Context, id uuid.UUID) (uuid.UUID, error)
}

// ToppingHandler handles topping catalog endpoints.
type ToppingHandler struct {
	store ToppingStore
}

// NewToppingHandler creates a new ToppingHandler.
func NewToppingHandler(store ToppingStore) *ToppingHandler {
	return &ToppingHandler{store: store}
}

// RegisterRoutes registers the public read endpoints.
func (h *ToppingHandler) RegisterRoutes(r chi.Router) {
	r.Get("/toppings", h.List)
	r.Get("/toppings/{id}", h.Get)
}

// RegisterAdminRoutes registers catalog mutations.
func (h *ToppingHandler) RegisterAdminRoutes(r chi.Router) {
	r.Post("/toppings", h.Create)
	r.Delete("/toppings/{id}", h.Delete)
}

type createToppingRequest struct {
	Name  string      `json:"name"`
	Price json.Number `json:"price"`
}

type toppingResponse struct {
	ID        uuid.UUID `json:"id"`
	Name      string    `json:"name"`
	Price     string    `json:"price"`
	CreatedAt time.Time `json:"created_at"`
}

func toToppingResponse(t database.Topping) toppingResponse {
	return toppingResponse{
		ID:        t.ID,
		Name:      t.Name,
		Price:     numericToString(t.Price),
		CreatedAt: t.CreatedAt,
	}
}

// List returns all active toppings.
func (h *ToppingHandler) List(w http.ResponseWriter, r *http.Request) {
	toppings, err := h.store.ListToppings(r.Context())
	if err != nil {
		apperr.Write(w, r, apperr.Internal(err))
		return
	}

	resp := make([]toppingResponse, len(toppings))
	for i, t := range toppings {
		resp[i] = toToppingResponse(t)
	}
	writeJSON(w, http.StatusOK, resp)
}

func (h *ToppingHandler) Get(w http.ResponseWriter, r *http.Request) {
	id, ok := urlUUID(w, r, "id", "topping")
	if !ok {
		return
	}

	topping, err := h.store.GetTopping(r.Context(), id)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			apperr.Write(w, r, apperr.NotFound("topping not found"))
			return
		}
		apperr.Write(w, r, apperr.Internal(err))
		return
	}

	writeJSON(w, http.StatusOK, toToppingResponse(topping))
}

func (h *ToppingHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req createToppingRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	name := strings.TrimSpace(req.Name)
	if name == "" {
		apperr.Write(w, r, apperr.BadRequest("name is required"))
		return
	}
	if appErr := checkLength("name", name, maxNameLen); appErr != nil {
		apperr.Write(w, r, appErr)
		return
	}
	if req.Price == "" {
		apperr.Write(w, r, apperr.BadRequest("price is required"))
		return
	}
	price, err := parsePrice(req.Price)
	if err != nil {
		apperr.Write(w, r, priceError("price", err))
		return
	}

	topping, err := h.store.CreateTopping(r.Context(), database.CreateToppingParams{
		Name:  name,
		Price: price,
	})
	if err != nil {
		if isUniqueViolation(err) {
			apperr.Write(w, r, apperr.Conflict("topping name already exists"))
			return
		}
		if isDataException(err) {
			apperr.Write(w, r, apperr.BadRequest("topping field out of range"))
			return
		}
		apperr.Write(w, r, apperr.Internal(err))
		return
	}

	writeJSON(w, http.StatusCreated, toToppingResponse(topping))
}

// Delete soft-deletes a topping.
func (h *ToppingHandler) Delete(w http.ResponseWriter, r *http.Request) {
	id, ok := urlUUID(w, r, "id", "topping")
	if !ok {
		return
	}

	if _, err := h.store.SoftDeleteTopping(r.Context(), id); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			apperr.Write(w, r, apperr.NotFound("topping not found"))
			return
		}
		apperr.Write(w, r, apperr.Internal(err))
		return
	}

	w.WriteHeader(http.StatusNoContent)
}
