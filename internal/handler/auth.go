package handler

import (
	"context"
	"errors"
	"net/http"
	"net/mail"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/pizzastore/api/internal/apperr"
	"github.com/pizzastore/api/internal/auth"
	"github.com/pizzastore/api/internal/database"
	"github.com/pizzastore/api/internal/enum"
	"github.com/pizzastore/api/internal/middleware"
	"golang.org/x/crypto/bcrypt"
)

// AuthStore defines the database methods needed by auth handlers.
// Satisfied by *database.Queries; narrow interface for testability.
type AuthStore interface {
	CreateUser(ctx context.Context, arg database.CreateUserParams) (database.User, error)
	GetUserByEmail(ctx context.Context, email string) (database.User, error)
	GetUserByID(ctx context.Context, id uuid.UUID) (database.User, error)
}

// AuthHandler handles authentication endpoints.
type AuthHandler struct {
	store     AuthStore
	jwtSecret string
	tokenTTL  time.Duration
}

// NewAuthHandler creates a new AuthHandler. A non-positive tokenTTL falls
// back to auth.DefaultTokenTTL.
func NewAuthHandler(store AuthStore, jwtSecret string, tokenTTL time.Duration) *AuthHandler {
	return &AuthHandler{store: store, jwtSecret: jwtSecret, tokenTTL: tokenTTL}
}

// RegisterRoutes registers the public auth endpoints.
func (h *AuthHandler) RegisterRoutes(r chi.Router) {
	r.Post("/auth/register", h.Register)
	r.Post("/auth/login", h.Login)
}

// RegisterUserRoutes registers endpoints for any authenticated caller.
func (h *AuthHandler) RegisterUserRoutes(r chi.Router) {
	r.Get("/auth/me", h.Me)
}

// RegisterAdminRoutes registers admin-only endpoints.
func (h *AuthHandler) RegisterAdminRoutes(r chi.Router) {
	r.Post("/auth/admin/create", h.CreateAdmin)
}

// --- Request / Response types ---

type credentialsRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type loginResponse struct {
	Token string       `json:"token"`
	User  userResponse `json:"user"`
}

type userResponse struct {
	ID    uuid.UUID `json:"id"`
	Email string    `json:"email"`
	Role  string    `json:"role"`
}

func toUserResponse(u database.User) userResponse {
	return userResponse{ID: u.ID, Email: u.Email, Role: u.Role}
}

// --- Handlers ---

// Register creates a customer account. The role is always "user".
func (h *AuthHandler) Register(w http.ResponseWriter, r *http.Request) {
	if _, ok := h.createUser(w, r, enum.RoleUser); !ok {
		return
	}
	writeJSON(w, http.StatusCreated, map[string]string{"message": "User registered successfully"})
}

// CreateAdmin creates an admin account. Admin-only.
func (h *AuthHandler) CreateAdmin(w http.ResponseWriter, r *http.Request) {
	user, ok := h.createUser(w, r, enum.RoleAdmin)
	if !ok {
		return
	}
	writeJSON(w, http.StatusCreated, map[string]interface{}{
		"message": "Admin created successfully",
		"id":      user.ID,
	})
}

// Login exchanges email + password for a signed token.
func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	var req credentialsRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	email := normalizeEmail(req.Email)
	if email == "" || req.Password == "" {
		apperr.Write(w, r, apperr.BadRequest("email and password are required"))
		return
	}

	user, err := h.store.GetUserByEmail(r.Context(), email)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			apperr.Write(w, r, apperr.Unauthorized("invalid credentials"))
			return
		}
		apperr.Write(w, r, apperr.Internal(err))
		return
	}

	if !auth.CheckPassword(user.HashedPassword, req.Password) {
		apperr.Write(w, r, apperr.Unauthorized("invalid credentials"))
		return
	}

	token, err := auth.GenerateToken(h.jwtSecret, user.ID, user.Role, h.tokenTTL)
	if err != nil {
		apperr.Write(w, r, apperr.Internal(err))
		return
	}

	writeJSON(w, http.StatusOK, loginResponse{
		Token: token,
		User:  toUserResponse(user),
	})
}

// Me returns the authenticated caller's account.
func (h *AuthHandler) Me(w http.ResponseWriter, r *http.Request) {
	claims := middleware.ClaimsFromContext(r.Context())
	if claims == nil {
		apperr.Write(w, r, apperr.Unauthorized("not authenticated"))
		return
	}

	user, err := h.store.GetUserByID(r.Context(), claims.UserID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			apperr.Write(w, r, apperr.Unauthorized("user no longer exists"))
			return
		}
		apperr.Write(w, r, apperr.Internal(err))
		return
	}

	writeJSON(w, http.StatusOK, toUserResponse(user))
}

// --- Helpers ---

func (h *AuthHandler) createUser(w http.ResponseWriter, r *http.Request, role string) (database.User, bool) {
	var req credentialsRequest
	if !decodeJSON(w, r, &req) {
		return database.User{}, false
	}

	email := normalizeEmail(req.Email)
	if email == "" || strings.TrimSpace(req.Password) == "" {
		apperr.Write(w, r, apperr.BadRequest("email and password are required"))
		return database.User{}, false
	}
	if !isValidEmail(email) {
		apperr.Write(w, r, apperr.BadRequest("invalid email"))
		return database.User{}, false
	}

	hash, err := auth.HashPassword(req.Password)
	if err != nil {
		if errors.Is(err, bcrypt.ErrPasswordTooLong) {
			apperr.Write(w, r, apperr.BadRequest("password is too long"))
			return database.User{}, false
		}
		apperr.Write(w, r, apperr.Internal(err))
		return database.User{}, false
	}

	user, err := h.store.CreateUser(r.Context(), database.CreateUserParams{
		Email:          email,
		HashedPassword: hash,
		Role:           role,
	})
	if err != nil {
		if isUniqueViolation(err) {
			apperr.Write(w, r, apperr.Conflict("user already exists"))
			return database.User{}, false
		}
		apperr.Write(w, r, apperr.Internal(err))
		return database.User{}, false
	}

	return user, true
}

func normalizeEmail(s string) string {
	return strings.ToLower(strings.TrimSpace(s))
}

// isValidEmail accepts a bare address only ("a@b.c"), no display names.
func isValidEmail(s string) bool {
	addr, err := mail.ParseAddress(s)
	return err == nil && addr.Address == s && strings.Contains(s[strings.LastIndex(s, "@"):], ".")
}
