package handler_test

import (
	"bytes"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgtype"
	"github.com/pizzastore/api/internal/auth"
	"github.com/pizzastore/api/internal/middleware"
)

const testJWTSecret = "test-jwt-secret"

func userClaims() *auth.Claims {
	return &auth.Claims{UserID: uuid.New(), Role: "user"}
}

func adminClaims() *auth.Claims {
	return &auth.Claims{UserID: uuid.New(), Role: "admin"}
}

// mountWithGroups wires public, authenticated and admin registrations the
// same way the application router does.
func mountWithGroups(public, user, admin func(r chi.Router)) *chi.Mux {
	r := chi.NewRouter()
	if public != nil {
		public(r)
	}
	r.Group(func(r chi.Router) {
		r.Use(middleware.Authenticate(testJWTSecret))
		if user != nil {
			user(r)
		}
		r.Group(func(r chi.Router) {
			r.Use(middleware.RequireRole("admin"))
			if admin != nil {
				admin(r)
			}
		})
	})
	return r
}

// doRequest sends body (a string is sent verbatim, anything else is JSON
// encoded) with a real bearer token for claims when claims is non-nil.
func doRequest(t *testing.T, router http.Handler, method, path string, body interface{}, claims *auth.Claims) *httptest.ResponseRecorder {
	t.Helper()

	var reader io.Reader
	switch b := body.(type) {
	case nil:
	case string:
		reader = strings.NewReader(b)
	default:
		raw, err := json.Marshal(b)
		if err != nil {
			t.Fatalf("marshal request: %v", err)
		}
		reader = bytes.NewReader(raw)
	}

	req := httptest.NewRequest(method, path, reader)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if claims != nil {
		token, err := auth.GenerateToken(testJWTSecret, claims.UserID, claims.Role, time.Hour)
		if err != nil {
			t.Fatalf("generate token: %v", err)
		}
		req.Header.Set("Authorization", "Bearer "+token)
	}

	rr := httptest.NewRecorder()
	router.ServeHTTP(rr, req)
	return rr
}

func decodeResponse(t *testing.T, rr *httptest.ResponseRecorder) map[string]interface{} {
	t.Helper()
	var resp map[string]interface{}
	if err := json.NewDecoder(rr.Body).Decode(&resp); err != nil {
		t.Fatalf("decode response: %v (body: %s)", err, rr.Body.String())
	}
	return resp
}

func decodeListResponse(t *testing.T, rr *httptest.ResponseRecorder) []map[string]interface{} {
	t.Helper()
	var resp []map[string]interface{}
	if err := json.NewDecoder(rr.Body).Decode(&resp); err != nil {
		t.Fatalf("decode list response: %v (body: %s)", err, rr.Body.String())
	}
	return resp
}

// errorCode asserts the error envelope shape and returns its code.
func errorCode(t *testing.T, rr *httptest.ResponseRecorder) string {
	t.Helper()
	resp := decodeResponse(t, rr)
	if resp["success"] != false {
		t.Errorf("success: got %v, want false", resp["success"])
	}
	e, ok := resp["error"].(map[string]interface{})
	if !ok {
		t.Fatalf("missing error object in %v", resp)
	}
	code, _ := e["code"].(string)
	return code
}

func assertError(t *testing.T, rr *httptest.ResponseRecorder, status int, code string) {
	t.Helper()
	if rr.Code != status {
		t.Fatalf("status: got %d, want %d (body: %s)", rr.Code, status, rr.Body.String())
	}
	if got := errorCode(t, rr); got != code {
		t.Errorf("code: got %q, want %q", got, code)
	}
}

func makeNumeric(val string) pgtype.Numeric {
	var n pgtype.Numeric
	_ = n.Scan(val)
	return n
}
