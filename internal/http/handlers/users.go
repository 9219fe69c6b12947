package handlers

import (
	"context"
	"errors"
	"io"
	"net/http"
	"net/mail"
	"time"

	"github.com/geocoder89/staffhub/internal/config"
	"github.com/geocoder89/staffhub/internal/domain/user"
	"github.com/geocoder89/staffhub/internal/repo/postgres"
	"github.com/geocoder89/staffhub/internal/security"
	"github.com/gin-gonic/gin"
)

type UserStore interface {
	Create(ctx context.Context, email string, passwordHash *string, name, role string) (user.User, error)
	List(ctx context.Context) ([]user.User, error)
}

// Defaults applied when /test-user is posted with fields omitted.
const (
	defaultTestName     = "Test User"
	defaultTestEmail    = "testuser@gmail.com"
	defaultTestPassword = "Test@12345"
)

type UsersHandler struct {
	store UserStore
	// strict mode rejects malformed emails and unknown roles; the
	// permissive default mirrors the legacy behavior
	strict bool
}

func NewUsersHandler(store UserStore, strict bool) *UsersHandler {
	return &UsersHandler{
		store:  store,
		strict: strict,
	}
}

type TestUserRequest struct {
	Name     string `json:"name"`
	Email    string `json:"email"`
	Password string `json:"password"`
	Role     string `json:"role"`
}

func (h *UsersHandler) CreateTestUser(ctx *gin.Context) {
	// every field is optional and an entirely empty body is fine
	var req TestUserRequest

	if err := ctx.ShouldBindJSON(&req); err != nil && !errors.Is(err, io.EOF) {
		ctx.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	if req.Name == "" {
		req.Name = defaultTestName
	}
	if req.Email == "" {
		req.Email = defaultTestEmail
	}
	if req.Password == "" {
		req.Password = defaultTestPassword
	}
	if req.Role == "" {
		req.Role = user.RoleEmployee
	}

	if h.strict {
		if _, err := mail.ParseAddress(req.Email); err != nil {
			ctx.JSON(http.StatusBadRequest, gin.H{"error": "invalid email address"})
			return
		}

		if !user.ValidRole(req.Role) {
			ctx.JSON(http.StatusBadRequest, gin.H{"error": "unknown role"})
			return
		}
	}

	hash, err := security.HashPassword(req.Password)

	if err != nil {
		ctx.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	cctx, cancel := config.WithTimeout(3 * time.Second)

	defer cancel()

	u, err := h.store.Create(cctx, req.Email, &hash, req.Name, req.Role)

	if err != nil {
		if errors.Is(err, postgres.ErrEmailAlreadyUsed) {
			ctx.JSON(http.StatusConflict, gin.H{"error": "Email already exists"})
			return
		}

		ctx.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	ctx.JSON(http.StatusOK, gin.H{
		"message": "User created successfully",
		"user":    u.Public(),
	})
}

func (h *UsersHandler) ListUsers(ctx *gin.Context) {
	cctx, cancel := config.WithTimeout(3 * time.Second)

	defer cancel()

	users, err := h.store.List(cctx)

	if err != nil {
		ctx.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	out := make([]user.Public, 0, len(users))

	for _, u := range users {
		out = append(out, u.Public())
	}

	ctx.JSON(http.StatusOK, out)
}
