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
	"github.com/jackc/pgx/v5/pgtype"
	"github.com/pizzastore/api/internal/apperr"
	"github.com/pizzastore/api/internal/database"
)

// PizzaStore defines the database methods needed by pizza handlers.
// Satisfied by *database.Queries; narrow interface for testability.
type PizzaStore interface {
	ListPizzas(ctx context.Context) ([]database.Pizza, error)
	GetPizza(ctx context.Context, id uuid.UUID) (database.Pizza, error)
	CreatePizza(ctx context.Context, arg database.CreatePizzaParams) (database.Pizza, error)
	UpdatePizza(ctx context.Context, arg database.UpdatePizzaParams) (database.Pizza, error)
	SoftDeletePizza(ctx context.Context, id uuid.UUID) (uuid.UUID, error)
}

// PizzaHandler handles pizza catalog endpoints.
type PizzaHandler struct {
	store PizzaStore
}

// NewPizzaHandler creates a new PizzaHandler.
func NewPizzaHandler(store PizzaStore) *PizzaHandler {
	return &PizzaHandler{store: store}
}

// RegisterRoutes registers the public read endpoints.
func (h *PizzaHandler) RegisterRoutes(r chi.Router) {
	r.Get("/pizzas", h.List)
	r.Get("/pizzas/{id}", h.Get)
}

// RegisterAdminRoutes registers catalog mutations.
func (h *PizzaHandler) RegisterAdminRoutes(r chi.Router) {
	r.Post("/pizzas", h.Create)
	r.Patch("/pizzas/{id}", h.Update)
	r.Delete("/pizzas/{id}", h.Delete)
}

// --- Request / Response types ---

type createPizzaRequest struct {
	Name         string      `json:"name"`
	Description  *string     `json:"description"`
	Category     string      `json:"category"`
	PriceRegular json.Number `json:"price_regular"`
	PriceMedium  json.Number `json:"price_medium"`
	PriceLarge   json.Number `json:"price_large"`
	ImageURL     *string     `json:"image_url"`
}

// updatePizzaRequest is a partial update: nil / unset fields keep their
// current value. description and image_url may be cleared with null.
type updatePizzaRequest struct {
	Name         *string        `json:"name"`
	Description  optionalString `json:"description"`
	Category     *string        `json:"category"`
	PriceRegular *json.Number   `json:"price_regular"`
	PriceMedium  *json.Number   `json:"price_medium"`
	PriceLarge   *json.Number   `json:"price_large"`
	ImageURL     optionalString `json:"image_url"`
}

type pizzaResponse struct {
	ID           uuid.UUID `json:"id"`
	Name         string    `json:"name"`
	Description  *string   `json:"description"`
	Category     string    `json:"category"`
	PriceRegular string    `json:"price_regular"`
	PriceMedium  string    `json:"price_medium"`
	PriceLarge   string    `json:"price_large"`
	ImageURL     *string   `json:"image_url"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}

func toPizzaResponse(p database.Pizza) pizzaResponse {
	return pizzaResponse{
		ID:           p.ID,
		Name:         p.Name,
		Description:  textPtr(p.Description),
		Category:     p.Category,
		PriceRegular: numericToString(p.PriceRegular),
		PriceMedium:  numericToString(p.PriceMedium),
		PriceLarge:   numericToString(p.PriceLarge),
		ImageURL:     textPtr(p.ImageUrl),
		CreatedAt:    p.CreatedAt,
		UpdatedAt:    p.UpdatedAt,
	}
}

// --- Handlers ---

// List returns all active pizzas.
func (h *PizzaHandler) List(w http.ResponseWriter, r *http.Request) {
	pizzas, err := h.store.ListPizzas(r.Context())
	if err != nil {
		apperr.Write(w, r, apperr.Internal(err))
		return
	}

	resp := make([]pizzaResponse, len(pizzas))
	for i, p := range pizzas {
		resp[i] = toPizzaResponse(p)
	}
	writeJSON(w, http.StatusOK, resp)
}

// Get returns a single active pizza.
func (h *PizzaHandler) Get(w http.ResponseWriter, r *http.Request) {
	id, ok := urlUUID(w, r, "id", "pizza")
	if !ok {
		return
	}

	pizza, err := h.store.GetPizza(r.Context(), id)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			apperr.Write(w, r, apperr.NotFound("pizza not found"))
			return
		}
		apperr.Write(w, r, apperr.Internal(err))
		return
	}

	writeJSON(w, http.StatusOK, toPizzaResponse(pizza))
}

// Create adds a pizza to the catalog.
func (h *PizzaHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req createPizzaRequest
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
	category := strings.TrimSpace(req.Category)
	if category == "" {
		apperr.Write(w, r, apperr.BadRequest("category is required"))
		return
	}
	if appErr := checkLength("category", category, maxCategoryLen); appErr != nil {
		apperr.Write(w, r, appErr)
		return
	}

	prices := [3]pgtype.Numeric{}
	for i, f := range []struct {
		field string
		value json.Number
	}{
		{"price_regular", req.PriceRegular},
		{"price_medium", req.PriceMedium},
		{"price_large", req.PriceLarge},
	} {
		if f.value == "" {
			apperr.Write(w, r, apperr.BadRequest(f.field+" is required"))
			return
		}
		p, err := parsePrice(f.value)
		if err != nil {
			apperr.Write(w, r, priceError(f.field, err))
			return
		}
		prices[i] = p
	}

	pizza, err := h.store.CreatePizza(r.Context(), database.CreatePizzaParams{
		Name:         name,
		Description:  toText(req.Description),
		Category:     category,
		PriceRegular: prices[0],
		PriceMedium:  prices[1],
		PriceLarge:   prices[2],
		ImageUrl:     toText(req.ImageURL),
	})
	if err != nil {
		if isUniqueViolation(err) {
			apperr.Write(w, r, apperr.Conflict("pizza name already exists"))
			return
		}
		if isDataException(err) {
			apperr.Write(w, r, apperr.BadRequest("pizza field out of range"))
			return
		}
		apperr.Write(w, r, apperr.Internal(err))
		return
	}

	writeJSON(w, http.StatusCreated, toPizzaResponse(pizza))
}

// Update merges the supplied fields into an existing pizza.
func (h *PizzaHandler) Update(w http.ResponseWriter, r *http.Request) {
	id, ok := urlUUID(w, r, "id", "pizza")
	if !ok {
		return
	}

	var req updatePizzaRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	current, err := h.store.GetPizza(r.Context(), id)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			apperr.Write(w, r, apperr.NotFound("pizza not found"))
			return
		}
		apperr.Write(w, r, apperr.Internal(err))
		return
	}

	params := database.UpdatePizzaParams{
		Name:         current.Name,
		Description:  req.Description.merge(current.Description),
		Category:     current.Category,
		PriceRegular: current.PriceRegular,
		PriceMedium:  current.PriceMedium,
		PriceLarge:   current.PriceLarge,
		ImageUrl:     req.ImageURL.merge(current.ImageUrl),
		ID:           id,
	}

	if req.Name != nil {
		params.Name = strings.TrimSpace(*req.Name)
		if params.Name == "" {
			apperr.Write(w, r, apperr.BadRequest("name cannot be empty"))
			return
		}
		if appErr := checkLength("name", params.Name, maxNameLen); appErr != nil {
			apperr.Write(w, r, appErr)
			return
		}
	}
	if req.Category != nil {
		params.Category = strings.TrimSpace(*req.Category)
		if params.Category == "" {
			apperr.Write(w, r, apperr.BadRequest("category cannot be empty"))
			return
		}
		if appErr := checkLength("category", params.Category, maxCategoryLen); appErr != nil {
			apperr.Write(w, r, appErr)
			return
		}
	}
	for _, f := range []struct {
		field string
		value *json.Number
		dst   *pgtype.Numeric
	}{
		{"price_regular", req.PriceRegular, &params.PriceRegular},
		{"price_medium", req.PriceMedium, &params.PriceMedium},
		{"price_large", req.PriceLarge, &params.PriceLarge},
	} {
		if f.value == nil {
			continue
		}
		p, err := parsePrice(*f.value)
		if err != nil {
			apperr.Write(w, r, priceError(f.field, err))
			return
		}
		*f.dst = p
	}

	pizza, err := h.store.UpdatePizza(r.Context(), params)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			apperr.Write(w, r, apperr.NotFound("pizza not found"))
			return
		}
		if isUniqueViolation(err) {
			apperr.Write(w, r, apperr.Conflict("pizza name already exists"))
			return
		}
		if isDataException(err) {
			apperr.Write(w, r, apperr.BadRequest("pizza field out of range"))
			return
		}
		apperr.Write(w, r, apperr.Internal(err))
		return
	}

	writeJSON(w, http.StatusOK, toPizzaResponse(pizza))
}

// Delete soft-deletes a pizza so past order items keep their reference.
func (h *PizzaHandler) Delete(w http.ResponseWriter, r *http.Request) {
	id, ok := urlUUID(w, r, "id", "pizza")
	if !ok {
		return
	}

	if _, err := h.store.SoftDeletePizza(r.Context(), id); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			apperr.Write(w, r, apperr.NotFound("pizza not found"))
			return
		}
		apperr.Write(w, r, apperr.Internal(err))
		return
	}

	w.WriteHeader(http.StatusNoContent)
}
