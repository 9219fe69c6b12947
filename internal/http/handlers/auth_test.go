package handlers_test

import (
	"bytes"
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/geocoder89/staffhub/internal/auth"
	"github.com/geocoder89/staffhub/internal/config"
	"github.com/geocoder89/staffhub/internal/domain/user"
	"github.com/geocoder89/staffhub/internal/http/handlers"
	"github.com/geocoder89/staffhub/internal/repo/postgres"
	"github.com/geocoder89/staffhub/internal/security"
	"github.com/gin-gonic/gin"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
)

// Fakes for the auth handler collaborators

type fakeUserReader struct {
	getByEmailFn func(ctx context.Context, email string) (user.User, error)
	getByIDFn    func(ctx context.Context, id string) (user.User, error)
}

func (f *fakeUserReader) GetByEmail(ctx context.Context, email string) (user.User, error) {
	if f.getByEmailFn != nil {
		return f.getByEmailFn(ctx, email)
	}

	return user.User{}, postgres.ErrUserNotFound
}

func (f *fakeUserReader) GetByID(ctx context.Context, id string) (user.User, error) {
	if f.getByIDFn != nil {
		return f.getByIDFn(ctx, id)
	}

	return user.User{}, postgres.ErrUserNotFound
}

type fakeUserWriter struct {
	createFn func(ctx context.Context, email string, passwordHash *string, name, role string) (user.User, error)
}

func (f *fakeUserWriter) Create(ctx context.Context, email string, passwordHash *string, name, role string) (user.User, error) {
	if f.createFn != nil {
		return f.createFn(ctx, email, passwordHash, name, role)
	}

	return echoCreate(ctx, email, passwordHash, name, role)
}

type fakeTx struct{}

func (fakeTx) Commit(ctx context.Context) error   { return nil }
func (fakeTx) Rollback(ctx context.Context) error { return nil }
func (fakeTx) Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error) {
	return pgconn.CommandTag{}, nil
}
func (fakeTx) QueryRow(ctx context.Context, sql string, args ...any) pgx.Row { return nil }

type fakeRefreshStore struct {
	rows    map[string]postgres.RefreshTokenRow
	revoked []string
}

func newFakeRefreshStore() *fakeRefreshStore {
	return &fakeRefreshStore{rows: make(map[string]postgres.RefreshTokenRow)}
}

func (f *fakeRefreshStore) BeginTx(ctx context.Context) (postgres.Tx, error) {
	return fakeTx{}, nil
}

func (f *fakeRefreshStore) Create(ctx context.Context, tx postgres.Tx, row postgres.RefreshTokenRow) error {
	f.rows[row.ID] = row
	return nil
}

func (f *fakeRefreshStore) GetForUpdate(ctx context.Context, tx postgres.Tx, id string) (postgres.RefreshTokenRow, error) {
	row, ok := f.rows[id]

	if !ok {
		return postgres.RefreshTokenRow{}, postgres.ErrRefreshTokenNotFound
	}

	return row, nil
}

func (f *fakeRefreshStore) Revoke(ctx context.Context, tx postgres.Tx, id string, replacedBy *string) error {
	f.revoked = append(f.revoked, id)

	if row, ok := f.rows[id]; ok {
		now := time.Now().UTC()
		row.RevokedAt = &now
		row.ReplacedBy = replacedBy
		f.rows[id] = row
	}

	return nil
}

func testAuthConfig() config.Config {
	return config.Config{
		Env:                 "test",
		JWTSecret:           "test-secret-key",
		JWTAccessTTLMinutes: 15,
		JWTRefreshTTLDays:   7,
	}
}

func newAuthTestHandler(reader *fakeUserReader, writer *fakeUserWriter, store *fakeRefreshStore) (*handlers.AuthHandler, *auth.Manager) {
	cfg := testAuthConfig()
	jwtManager := auth.NewManager(cfg.JWTSecret, cfg.AccessTTL(), cfg.RefreshTTL())

	return handlers.NewAuthHandler(reader, writer, jwtManager, store, cfg), jwtManager
}

func postJSON(r *gin.Engine, path, body string, cookies ...*http.Cookie) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodPost, path, bytes.NewBufferString(body))
	req.Header.Set("Content-Type", "application/json")

	for _, c := range cookies {
		req.AddCookie(c)
	}

	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	return w
}

func TestSignUp(t *testing.T) {
	tests := []struct {
		name           string
		body           string
		writerSetUp    func(*fakeUserWriter)
		wantStatusCode int
	}{
		{
			name:           "success",
			body:           `{"email":"new@example.com","password":"longenough","name":"New"}`,
			wantStatusCode: http.StatusCreated,
		},
		{
			name:           "validation_error",
			body:           `{"email":"new@example.com","password":"short","name":"New"}`,
			wantStatusCode: http.StatusBadRequest,
		},
		{
			name: "email_taken",
			body: `{"email":"dup@example.com","password":"longenough","name":"Dup"}`,
			writerSetUp: func(f *fakeUserWriter) {
				f.createFn = func(ctx context.Context, email string, passwordHash *string, name, role string) (user.User, error) {
					return user.User{}, postgres.ErrEmailAlreadyUsed
				}
			},
			wantStatusCode: http.StatusBadRequest,
		},
	}

	for _, tt := range tests {
		tt := tt

		t.Run(tt.name, func(t *testing.T) {
			writer := &fakeUserWriter{}

			if tt.writerSetUp != nil {
				tt.writerSetUp(writer)
			}

			store := newFakeRefreshStore()
			h, _ := newAuthTestHandler(&fakeUserReader{}, writer, store)

			r := setupRouter(http.MethodPost, "/api/auth/signup", h.SignUp)
			w := postJSON(r, "/api/auth/signup", tt.body)

			if w.Code != tt.wantStatusCode {
				t.Fatalf("got status %d, want %d, body=%s", w.Code, tt.wantStatusCode, w.Body.String())
			}

			if tt.wantStatusCode == http.StatusCreated {
				if !strings.Contains(w.Body.String(), "accessToken") {
					t.Fatalf("missing access token: %s", w.Body.String())
				}

				if len(store.rows) != 1 {
					t.Fatalf("expected one stored refresh token, got %d", len(store.rows))
				}

				if !strings.Contains(w.Header().Get("Set-Cookie"), "refresh_token=") {
					t.Fatal("refresh cookie not set")
				}
			}
		})
	}
}

func TestLogin(t *testing.T) {
	hash, err := security.HashPassword("correct-horse")
	if err != nil {
		t.Fatalf("hash: %v", err)
	}

	known := user.User{
		ID:           "u1",
		Name:         "Known",
		Email:        "known@example.com",
		PasswordHash: &hash,
		Role:         user.RoleEmployee,
		CreatedAt:    time.Now().UTC(),
	}

	oauthOnly := user.User{
		ID:        "u2",
		Name:      "OAuth Only",
		Email:     "oauth@example.com",
		Role:      user.RoleEmployee,
		CreatedAt: time.Now().UTC(),
	}

	reader := &fakeUserReader{
		getByEmailFn: func(ctx context.Context, email string) (user.User, error) {
			switch email {
			case known.Email:
				return known, nil
			case oauthOnly.Email:
				return oauthOnly, nil
			}
			return user.User{}, postgres.ErrUserNotFound
		},
	}

	tests := []struct {
		name           string
		body           string
		wantStatusCode int
	}{
		{
			name:           "success",
			body:           `{"email":"known@example.com","password":"correct-horse"}`,
			wantStatusCode: http.StatusOK,
		},
		{
			name:           "wrong_password",
			body:           `{"email":"known@example.com","password":"wrong"}`,
			wantStatusCode: http.StatusUnauthorized,
		},
		{
			name:           "unknown_user",
			body:           `{"email":"nobody@example.com","password":"whatever"}`,
			wantStatusCode: http.StatusUnauthorized,
		},
		{
			name:           "oauth_only_account",
			body:           `{"email":"oauth@example.com","password":"whatever"}`,
			wantStatusCode: http.StatusUnauthorized,
		},
	}

	for _, tt := range tests {
		tt := tt

		t.Run(tt.name, func(t *testing.T) {
			h, _ := newAuthTestHandler(reader, &fakeUserWriter{}, newFakeRefreshStore())

			r := setupRouter(http.MethodPost, "/api/auth/login", h.Login)
			w := postJSON(r, "/api/auth/login", tt.body)

			if w.Code != tt.wantStatusCode {
				t.Fatalf("got status %d, want %d, body=%s", w.Code, tt.wantStatusCode, w.Body.String())
			}
		})
	}
}

func TestRefreshRotation(t *testing.T) {
	store := newFakeRefreshStore()
	h, jwtManager := newAuthTestHandler(&fakeUserReader{}, &fakeUserWriter{}, store)

	raw, jti, expiresAt, err := jwtManager.GenerateRefreshToken("u1", "known@example.com", user.RoleEmployee)
	if err != nil {
		t.Fatalf("generate refresh: %v", err)
	}

	store.rows[jti] = postgres.RefreshTokenRow{
		ID:        jti,
		UserID:    "u1",
		TokenHash: jwtManager.HashRefreshToken(raw),
		ExpiresAt: expiresAt,
		CreatedAt: time.Now().UTC(),
	}

	r := setupRouter(http.MethodPost, "/api/auth/refresh", h.Refresh)

	w := postJSON(r, "/api/auth/refresh", "", &http.Cookie{Name: "refresh_token", Value: raw})

	if w.Code != http.StatusOK {
		t.Fatalf("got status %d, body=%s", w.Code, w.Body.String())
	}

	if !strings.Contains(w.Body.String(), "accessToken") {
		t.Fatalf("missing access token: %s", w.Body.String())
	}

	if len(store.revoked) != 1 || store.revoked[0] != jti {
		t.Fatalf("old token not revoked: %v", store.revoked)
	}

	// old + replacement
	if len(store.rows) != 2 {
		t.Fatalf("expected rotation to store a replacement, rows=%d", len(store.rows))
	}

	// replaying the rotated token must fail
	w = postJSON(r, "/api/auth/refresh", "", &http.Cookie{Name: "refresh_token", Value: raw})

	if w.Code != http.StatusUnauthorized {
		t.Fatalf("replay got %d, want 401", w.Code)
	}
}

func TestRefreshMissingCookie(t *testing.T) {
	h, _ := newAuthTestHandler(&fakeUserReader{}, &fakeUserWriter{}, newFakeRefreshStore())

	r := setupRouter(http.MethodPost, "/api/auth/refresh", h.Refresh)
	w := postJSON(r, "/api/auth/refresh", "")

	if w.Code != http.StatusUnauthorized {
		t.Fatalf("got status %d, want 401", w.Code)
	}
}

func TestLogoutAlwaysClears(t *testing.T) {
	h, _ := newAuthTestHandler(&fakeUserReader{}, &fakeUserWriter{}, newFakeRefreshStore())

	r := setupRouter(http.MethodPost, "/api/auth/logout", h.Logout)
	w := postJSON(r, "/api/auth/logout", "")

	if w.Code != http.StatusNoContent {
		t.Fatalf("got status %d, want 204", w.Code)
	}

	if !strings.Contains(w.Header().Get("Set-Cookie"), "refresh_token=") {
		t.Fatal("cookie not cleared")
	}
}
