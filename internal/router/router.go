package router

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/pizzastore/api/internal/config"
	"github.com/pizzastore/api/internal/database"
	"github.com/pizzastore/api/internal/enum"
	"github.com/pizzastore/api/internal/handler"
	"github.com/pizzastore/api/internal/logger"
	mw "github.com/pizzastore/api/internal/middleware"
	"github.com/pizzastore/api/internal/service"
	"github.com/pizzastore/api/internal/ws"
)

// Pinger reports database reachability for the health check.
// Satisfied by *pgxpool.Pool.
type Pinger interface {
	Ping(ctx context.Context) error
}

// New creates a Chi router with all application routes wired up.
// Applies authentication and role-based middleware as needed.
func New(cfg *config.Config, queries *database.Queries, pool *pgxpool.Pool, hub *ws.Hub) chi.Router {
	r := chi.NewRouter()

	// Standard middleware
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.RequestLogger(logger.NewRequestFormatter(slog.Default())))
	r.Use(middleware.Recoverer)

	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   cfg.AllowedOrigins,
		AllowedMethods:   []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type"},
		ExposedHeaders:   []string{"Link"},
		AllowCredentials: true,
		MaxAge:           300, // 5 minutes
	}))

	r.Get("/health", healthHandler(pool))

	// WebSocket route (handles auth internally via query param)
	r.Get("/ws/orders", func(w http.ResponseWriter, r *http.Request) {
		ws.ServeWS(hub, cfg.JWTSecret, w, r)
	})

	authHandler := handler.NewAuthHandler(queries, cfg.JWTSecret, cfg.TokenTTL)
	pizzaHandler := handler.NewPizzaHandler(queries)
	toppingHandler := handler.NewToppingHandler(queries)

	orderService := service.NewOrderService(pool, func(db database.DBTX) service.OrderStore {
		return database.New(db)
	})
	orderHandler := handler.NewOrderHandler(
		orderService,
		queries,
		service.NewStatusPolicy(cfg.CancelPolicy),
		hub,
	)

	// Public routes
	authHandler.RegisterRoutes(r)
	pizzaHandler.RegisterRoutes(r)
	toppingHandler.RegisterRoutes(r)

	// Protected routes (require authentication)
	r.Group(func(r chi.Router) {
		r.Use(mw.Authenticate(cfg.JWTSecret))

		authHandler.RegisterUserRoutes(r)
		orderHandler.RegisterRoutes(r)

		// Admin-only routes
		r.Group(func(r chi.Router) {
			r.Use(mw.RequireRole(enum.RoleAdmin))

			authHandler.RegisterAdminRoutes(r)
			pizzaHandler.RegisterAdminRoutes(r)
			toppingHandler.RegisterAdminRoutes(r)
			orderHandler.RegisterAdminRoutes(r)
		})
	})

	slog.Info("router initialized", slog.String("cancel_policy", cfg.CancelPolicy))
	return r
}

type healthResponse struct {
	Status   string `json:"status"`
	Database string `json:"database"`
}

// healthHandler reports 503 when the database does not answer a ping
// within two seconds.
func healthHandler(db Pinger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
		defer cancel()

		resp := healthResponse{Status: "ok", Database: "up"}
		status := http.StatusOK
		if err := db.Ping(ctx); err != nil {
			slog.Warn("health check: database ping failed", slog.String("error", err.Error()))
			resp = healthResponse{Status: "degraded", Database: "down"}
			status = http.StatusServiceUnavailable
		}

		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(status)
		if err := json.NewEncoder(w).Encode(resp); err != nil {
			slog.Error("failed to encode health response", slog.String("error", err.Error()))
		}
	}
}
