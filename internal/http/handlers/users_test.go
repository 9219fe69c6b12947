package handlers_test

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/geocoder89/staffhub/internal/domain/user"
	"github.com/geocoder89/staffhub/internal/http/handlers"
	"github.com/geocoder89/staffhub/internal/repo/postgres"
	"github.com/geocoder89/staffhub/internal/security"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

// Make sure Gin does not spam the console during the test

func init() {
	gin.SetMode(gin.TestMode)
}

// Fake store implementation of the handlers.UserStore interface

type fakeUserStore struct {
	createFn func(ctx context.Context, email string, passwordHash *string, name, role string) (user.User, error)
	listFn   func(ctx context.Context) ([]user.User, error)
}

func (f *fakeUserStore) Create(ctx context.Context, email string, passwordHash *string, name, role string) (user.User, error) {
	if f.createFn != nil {
		return f.createFn(ctx, email, passwordHash, name, role)
	}

	return user.User{}, nil
}

func (f *fakeUserStore) List(ctx context.Context) ([]user.User, error) {
	if f.listFn != nil {
		return f.listFn(ctx)
	}

	return nil, nil
}

// small helper which returns a gin engine with one handler mounted

func setupRouter(method, path string, h gin.HandlerFunc) *gin.Engine {
	r := gin.New()

	r.Handle(method, path, h)

	return r
}

func echoCreate(ctx context.Context, email string, passwordHash *string, name, role string) (user.User, error) {
	return user.User{
		ID:           uuid.NewString(),
		Name:         name,
		Email:        email,
		PasswordHash: passwordHash,
		Role:         role,
		CreatedAt:    time.Now().UTC(),
	}, nil
}

func TestCreateTestUserDefaults(t *testing.T) {
	var gotEmail, gotName, gotRole string
	var gotHash *string

	store := &fakeUserStore{
		createFn: func(ctx context.Context, email string, passwordHash *string, name, role string) (user.User, error) {
			gotEmail, gotHash, gotName, gotRole = email, passwordHash, name, role
			return echoCreate(ctx, email, passwordHash, name, role)
		},
	}

	h := handlers.NewUsersHandler(store, false)
	r := setupRouter(http.MethodPost, "/test-user", h.CreateTestUser)

	// no body at all: every default applies
	req := httptest.NewRequest(http.MethodPost, "/test-user", nil)
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("got status %d, want %d, body=%s", w.Code, http.StatusOK, w.Body.String())
	}

	if gotName != "Test User" || gotEmail != "testuser@gmail.com" || gotRole != "EMPLOYEE" {
		t.Fatalf("defaults not applied: name=%q email=%q role=%q", gotName, gotEmail, gotRole)
	}

	if gotHash == nil {
		t.Fatal("expected a password hash to be stored")
	}

	if *gotHash == "Test@12345" {
		t.Fatal("plaintext password stored instead of a hash")
	}

	if !security.VerifyPassword(*gotHash, "Test@12345") {
		t.Fatal("stored hash does not verify against the default password")
	}

	var resp struct {
		Message string         `json:"message"`
		User    map[string]any `json:"user"`
	}

	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatalf("invalid response JSON: %v", err)
	}

	if resp.Message != "User created successfully" {
		t.Fatalf("got message %q", resp.Message)
	}

	for _, key := range []string{"id", "name", "email", "role", "createdAt"} {
		if _, ok := resp.User[key]; !ok {
			t.Fatalf("response user missing %q: %v", key, resp.User)
		}
	}

	if _, ok := resp.User["password"]; ok {
		t.Fatal("response must never expose a password field")
	}

	if strings.Contains(w.Body.String(), *gotHash) {
		t.Fatal("response must never expose the password hash")
	}
}

func TestCreateTestUser(t *testing.T) {
	tests := []struct {
		name           string
		body           string
		storeSetUp     func(*fakeUserStore)
		wantStatusCode int
		wantBodyPart   string
	}{
		{
			name: "custom_fields",
			body: `{"name":"Ada","email":"ada@example.com","password":"hunter2boat","role":"ADMIN"}`,
			storeSetUp: func(f *fakeUserStore) {
				f.createFn = func(ctx context.Context, email string, passwordHash *string, name, role string) (user.User, error) {
					if email != "ada@example.com" || name != "Ada" || role != "ADMIN" {
						t.Fatalf("fields not passed through: %q %q %q", email, name, role)
					}
					return echoCreate(ctx, email, passwordHash, name, role)
				}
			},
			wantStatusCode: http.StatusOK,
			wantBodyPart:   `"email":"ada@example.com"`,
		},
		{
			name: "duplicate_email",
			body: `{"email":"dup@example.com"}`,
			storeSetUp: func(f *fakeUserStore) {
				f.createFn = func(ctx context.Context, email string, passwordHash *string, name, role string) (user.User, error) {
					return user.User{}, postgres.ErrEmailAlreadyUsed
				}
			},
			wantStatusCode: http.StatusConflict,
			wantBodyPart:   `{"error":"Email already exists"}`,
		},
		{
			name: "store_failure",
			body: `{}`,
			storeSetUp: func(f *fakeUserStore) {
				f.createFn = func(ctx context.Context, email string, passwordHash *string, name, role string) (user.User, error) {
					return user.User{}, errors.New("connection refused")
				}
			},
			wantStatusCode: http.StatusInternalServerError,
			wantBodyPart:   `"error":"connection refused"`,
		},
		{
			name:           "malformed_json",
			body:           `{"name":`,
			storeSetUp:     func(f *fakeUserStore) {},
			wantStatusCode: http.StatusBadRequest,
		},
	}

	for _, tt := range tests {
		tt := tt

		t.Run(tt.name, func(t *testing.T) {
			store := &fakeUserStore{}

			if tt.storeSetUp != nil {
				tt.storeSetUp(store)
			}

			h := handlers.NewUsersHandler(store, false)
			r := setupRouter(http.MethodPost, "/test-user", h.CreateTestUser)

			req := httptest.NewRequest(http.MethodPost, "/test-user", bytes.NewBufferString(tt.body))
			req.Header.Set("Content-Type", "application/json")
			w := httptest.NewRecorder()
			r.ServeHTTP(w, req)

			if w.Code != tt.wantStatusCode {
				t.Fatalf("got status %d, want %d, body=%s", w.Code, tt.wantStatusCode, w.Body.String())
			}

			if tt.wantBodyPart != "" && !strings.Contains(w.Body.String(), tt.wantBodyPart) {
				t.Fatalf("body %s missing %s", w.Body.String(), tt.wantBodyPart)
			}
		})
	}
}

func TestCreateTestUserStrictValidation(t *testing.T) {
	tests := []struct {
		name           string
		body           string
		wantStatusCode int
	}{
		{name: "bad_email", body: `{"email":"not-an-email"}`, wantStatusCode: http.StatusBadRequest},
		{name: "unknown_role", body: `{"role":"SUPERUSER"}`, wantStatusCode: http.StatusBadRequest},
		{name: "valid", body: `{"email":"ok@example.com","role":"ADMIN"}`, wantStatusCode: http.StatusOK},
	}

	for _, tt := range tests {
		tt := tt

		t.Run(tt.name, func(t *testing.T) {
			store := &fakeUserStore{createFn: echoCreate}

			h := handlers.NewUsersHandler(store, true)
			r := setupRouter(http.MethodPost, "/test-user", h.CreateTestUser)

			req := httptest.NewRequest(http.MethodPost, "/test-user", bytes.NewBufferString(tt.body))
			req.Header.Set("Content-Type", "application/json")
			w := httptest.NewRecorder()
			r.ServeHTTP(w, req)

			if w.Code != tt.wantStatusCode {
				t.Fatalf("got status %d, want %d, body=%s", w.Code, tt.wantStatusCode, w.Body.String())
			}
		})
	}
}

func TestListUsers(t *testing.T) {
	now := time.Now().UTC()

	tests := []struct {
		name           string
		storeSetUp     func(*fakeUserStore)
		wantStatusCode int
		check          func(t *testing.T, body []byte)
	}{
		{
			name: "newest_first_passthrough",
			storeSetUp: func(f *fakeUserStore) {
				f.listFn = func(ctx context.Context) ([]user.User, error) {
					hash := "$2a$10$fakefakefakefakefakefake"
					return []user.User{
						{ID: "u2", Name: "Second", Email: "b@example.com", Role: "EMPLOYEE", CreatedAt: now},
						{ID: "u1", Name: "First", Email: "a@example.com", PasswordHash: &hash, Role: "ADMIN", CreatedAt: now.Add(-time.Hour)},
					}, nil
				}
			},
			wantStatusCode: http.StatusOK,
			check: func(t *testing.T, body []byte) {
				var out []map[string]any
				if err := json.Unmarshal(body, &out); err != nil {
					t.Fatalf("invalid JSON: %v", err)
				}
				if len(out) != 2 {
					t.Fatalf("got %d users, want 2", len(out))
				}
				if out[0]["id"] != "u2" || out[1]["id"] != "u1" {
					t.Fatalf("store order not preserved: %v", out)
				}
				for _, u := range out {
					if _, ok := u["password"]; ok {
						t.Fatal("listing must never expose password fields")
					}
				}
				if strings.Contains(string(body), "$2a$10$") {
					t.Fatal("listing must never expose hashes")
				}
			},
		},
		{
			name: "empty_list_is_json_array",
			storeSetUp: func(f *fakeUserStore) {
				f.listFn = func(ctx context.Context) ([]user.User, error) {
					return []user.User{}, nil
				}
			},
			wantStatusCode: http.StatusOK,
			check: func(t *testing.T, body []byte) {
				if strings.TrimSpace(string(body)) != "[]" {
					t.Fatalf("got %s, want []", body)
				}
			},
		},
		{
			name: "store_failure",
			storeSetUp: func(f *fakeUserStore) {
				f.listFn = func(ctx context.Context) ([]user.User, error) {
					return nil, errors.New("query timeout")
				}
			},
			wantStatusCode: http.StatusInternalServerError,
			check: func(t *testing.T, body []byte) {
				if !strings.Contains(string(body), `"error":"query timeout"`) {
					t.Fatalf("got %s", body)
				}
			},
		},
	}

	for _, tt := range tests {
		tt := tt

		t.Run(tt.name, func(t *testing.T) {
			store := &fakeUserStore{}

			if tt.storeSetUp != nil {
				tt.storeSetUp(store)
			}

			h := handlers.NewUsersHandler(store, false)
			r := setupRouter(http.MethodGet, "/users", h.ListUsers)

			req := httptest.NewRequest(http.MethodGet, "/users", nil)
			w := httptest.NewRecorder()
			r.ServeHTTP(w, req)

			if w.Code != tt.wantStatusCode {
				t.Fatalf("got status %d, want %d, body=%s", w.Code, tt.wantStatusCode, w.Body.String())
			}

			if tt.check != nil {
				tt.check(t, w.Body.Bytes())
			}
		})
	}
}
