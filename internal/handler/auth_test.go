package handler_test

import (
	"context"
	"net/http"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/pizzastore/api/internal/auth"
	"github.com/pizzastore/api/internal/database"
	"github.com/pizzastore/api/internal/handler"
)

// --- Mock store ---

type mockAuthStore struct {
	users map[uuid.UUID]database.User
}

func newMockAuthStore() *mockAuthStore {
	return &mockAuthStore{users: make(map[uuid.UUID]database.User)}
}

func (m *mockAuthStore) CreateUser(_ context.Context, arg database.CreateUserParams) (database.User, error) {
	// Simulates the unique constraint on users.email
	for _, existing := range m.users {
		if existing.Email == arg.Email {
			return database.User{}, &pgconn.PgError{Code: "23505", Message: "duplicate key value violates unique constraint"}
		}
	}
	u := database.User{
		ID:             uuid.New(),
		Email:          arg.Email,
		HashedPassword: arg.HashedPassword,
		Role:           arg.Role,
		CreatedAt:      time.Now(),
	}
	m.users[u.ID] = u
	return u, nil
}

func (m *mockAuthStore) GetUserByEmail(_ context.Context, email string) (database.User, error) {
	for _, u := range m.users {
		if u.Email == email {
			return u, nil
		}
	}
	return database.User{}, pgx.ErrNoRows
}

func (m *mockAuthStore) GetUserByID(_ context.Context, id uuid.UUID) (database.User, error) {
	u, ok := m.users[id]
	if !ok {
		return database.User{}, pgx.ErrNoRows
	}
	return u, nil
}

func (m *mockAuthStore) seed(t *testing.T, email, password, role string) database.User {
	t.Helper()
	hash, err := auth.HashPassword(password)
	if err != nil {
		t.Fatalf("hash: %v", err)
	}
	u := database.User{ID: uuid.New(), Email: email, HashedPassword: hash, Role: role}
	m.users[u.ID] = u
	return u
}

func setupAuthRouter(store *mockAuthStore) *chi.Mux {
	h := handler.NewAuthHandler(store, testJWTSecret, 45*time.Minute)
	return mountWithGroups(h.RegisterRoutes, h.RegisterUserRoutes, h.RegisterAdminRoutes)
}

// --- Register ---

func TestRegister_Success(t *testing.T) {
	store := newMockAuthStore()
	router := setupAuthRouter(store)

	rr := doRequest(t, router, "POST", "/auth/register", map[string]string{
		"email":    "  Alice@Example.com ",
		"password": "s3cret",
	}, nil)

	if rr.Code != http.StatusCreated {
		t.Fatalf("status: got %d, want %d (body: %s)", rr.Code, http.StatusCreated, rr.Body.String())
	}
	resp := decodeResponse(t, rr)
	if resp["message"] == nil {
		t.Error("expected message in response")
	}

	u, err := store.GetUserByEmail(context.Background(), "alice@example.com")
	if err != nil {
		t.Fatalf("user not stored under normalized email: %v", err)
	}
	if u.Role != "user" {
		t.Errorf("role: got %q, want user", u.Role)
	}
	if u.HashedPassword == "s3cret" || !auth.CheckPassword(u.HashedPassword, "s3cret") {
		t.Error("password must be stored as a bcrypt hash")
	}
}

func TestRegister_IgnoresRequestedRole(t *testing.T) {
	store := newMockAuthStore()
	router := setupAuthRouter(store)

	rr := doRequest(t, router, "POST", "/auth/register", map[string]string{
		"email":    "mallory@example.com",
		"password": "pw",
		"role":     "admin",
	}, nil)
	if rr.Code != http.StatusCreated {
		t.Fatalf("status: got %d, want %d", rr.Code, http.StatusCreated)
	}
	u, _ := store.GetUserByEmail(context.Background(), "mallory@example.com")
	if u.Role != "user" {
		t.Errorf("role: got %q, want user", u.Role)
	}
}

func TestRegister_Duplicate(t *testing.T) {
	store := newMockAuthStore()
	router := setupAuthRouter(store)
	body := map[string]string{"email": "bob@example.com", "password": "pw"}

	first := doRequest(t, router, "POST", "/auth/register", body, nil)
	if first.Code != http.StatusCreated {
		t.Fatalf("first register: got %d", first.Code)
	}

	rr := doRequest(t, router, "POST", "/auth/register", body, nil)
	assertError(t, rr, http.StatusConflict, "CONFLICT")
	if len(store.users) != 1 {
		t.Errorf("users: got %d, want 1", len(store.users))
	}
}

func TestRegister_Validation(t *testing.T) {
	tests := []struct {
		name string
		body interface{}
	}{
		{"missing email", map[string]string{"password": "pw"}},
		{"missing password", map[string]string{"email": "a@example.com"}},
		{"blank password", map[string]string{"email": "a@example.com", "password": "   "}},
		{"malformed email", map[string]string{"email": "not-an-email", "password": "pw"}},
		{"display name", map[string]string{"email": "Bob <bob@example.com>", "password": "pw"}},
		{"malformed json", `{"email":`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			store := newMockAuthStore()
			rr := doRequest(t, setupAuthRouter(store), "POST", "/auth/register", tt.body, nil)
			assertError(t, rr, http.StatusBadRequest, "BAD_REQUEST")
			if len(store.users) != 0 {
				t.Error("no user should be created")
			}
		})
	}
}

// --- Login ---

func TestLogin_Success(t *testing.T) {
	store := newMockAuthStore()
	seeded := store.seed(t, "carol@example.com", "pizza123", "user")
	router := setupAuthRouter(store)

	rr := doRequest(t, router, "POST", "/auth/login", map[string]string{
		"email":    "carol@example.com",
		"password": "pizza123",
	}, nil)
	if rr.Code != http.StatusOK {
		t.Fatalf("status: got %d, want %d (body: %s)", rr.Code, http.StatusOK, rr.Body.String())
	}

	resp := decodeResponse(t, rr)
	token, _ := resp["token"].(string)
	claims, err := auth.ValidateToken(testJWTSecret, token)
	if err != nil {
		t.Fatalf("token does not validate: %v", err)
	}
	if claims.UserID != seeded.ID || claims.Role != "user" {
		t.Errorf("claims: got %+v", claims)
	}
	ttl := claims.ExpiresAt.Sub(claims.IssuedAt.Time)
	if ttl != 45*time.Minute {
		t.Errorf("ttl: got %v, want 45m", ttl)
	}

	user, _ := resp["user"].(map[string]interface{})
	if user["email"] != "carol@example.com" || user["role"] != "user" {
		t.Errorf("user: got %v", user)
	}
	if _, leaked := user["hashed_password"]; leaked {
		t.Error("password hash must not be returned")
	}
}

func TestLogin_InvalidCredentials(t *testing.T) {
	store := newMockAuthStore()
	store.seed(t, "dave@example.com", "right", "user")
	router := setupAuthRouter(store)

	for _, body := range []map[string]string{
		{"email": "dave@example.com", "password": "wrong"},
		{"email": "nobody@example.com", "password": "right"},
	} {
		rr := doRequest(t, router, "POST", "/auth/login", body, nil)
		assertError(t, rr, http.StatusUnauthorized, "UNAUTHORIZED")
	}
}

func TestLogin_MissingFields(t *testing.T) {
	router := setupAuthRouter(newMockAuthStore())
	rr := doRequest(t, router, "POST", "/auth/login", map[string]string{"email": "x@example.com"}, nil)
	assertError(t, rr, http.StatusBadRequest, "BAD_REQUEST")
}

// --- Me ---

func TestMe(t *testing.T) {
	store := newMockAuthStore()
	u := store.seed(t, "erin@example.com", "pw", "admin")
	router := setupAuthRouter(store)

	rr := doRequest(t, router, "GET", "/auth/me", nil, &auth.Claims{UserID: u.ID, Role: "admin"})
	if rr.Code != http.StatusOK {
		t.Fatalf("status: got %d, want %d", rr.Code, http.StatusOK)
	}
	resp := decodeResponse(t, rr)
	if resp["id"] != u.ID.String() || resp["email"] != "erin@example.com" || resp["role"] != "admin" {
		t.Errorf("response: got %v", resp)
	}
}

func TestMe_Unauthenticated(t *testing.T) {
	rr := doRequest(t, setupAuthRouter(newMockAuthStore()), "GET", "/auth/me", nil, nil)
	assertError(t, rr, http.StatusUnauthorized, "UNAUTHORIZED")
}

func TestMe_DeletedUser(t *testing.T) {
	rr := doRequest(t, setupAuthRouter(newMockAuthStore()), "GET", "/auth/me", nil, userClaims())
	assertError(t, rr, http.StatusUnauthorized, "UNAUTHORIZED")
}

// --- CreateAdmin ---

func TestCreateAdmin_Success(t *testing.T) {
	store := newMockAuthStore()
	router := setupAuthRouter(store)

	rr := doRequest(t, router, "POST", "/auth/admin/create", map[string]string{
		"email":    "boss@example.com",
		"password": "pw",
	}, adminClaims())
	if rr.Code != http.StatusCreated {
		t.Fatalf("status: got %d, want %d (body: %s)", rr.Code, http.StatusCreated, rr.Body.String())
	}

	resp := decodeResponse(t, rr)
	id, err := uuid.Parse(resp["id"].(string))
	if err != nil {
		t.Fatalf("id: %v", err)
	}
	if store.users[id].Role != "admin" {
		t.Errorf("role: got %q, want admin", store.users[id].Role)
	}
}

func TestCreateAdmin_ForbiddenForUser(t *testing.T) {
	store := newMockAuthStore()
	rr := doRequest(t, setupAuthRouter(store), "POST", "/auth/admin/create", map[string]string{
		"email":    "sneaky@example.com",
		"password": "pw",
	}, userClaims())
	assertError(t, rr, http.StatusForbidden, "FORBIDDEN")
	if len(store.users) != 0 {
		t.Error("no user should be created")
	}
}
