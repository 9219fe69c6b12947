package handlers

import (
	"context"
	"net/http"
	"time"

	"github.com/geocoder89/staffhub/internal/config"
	"github.com/geocoder89/staffhub/internal/domain/user"
	"github.com/geocoder89/staffhub/internal/oauth"
	"github.com/geocoder89/staffhub/internal/observability"
	"github.com/gin-gonic/gin"
)

type OAuthClient interface {
	AuthCodeURL(state string) string
	FetchProfile(ctx context.Context, code string) (oauth.Profile, error)
}

type IdentityResolver interface {
	Resolve(ctx context.Context, p oauth.Profile) (user.User, error)
}

type AccessTokenIssuer interface {
	GenerateAccessToken(userID, email, role string) (string, error)
}

type GoogleHandler struct {
	client   OAuthClient
	states   oauth.StateStore
	resolver IdentityResolver
	jwt      AccessTokenIssuer
	prom     *observability.Prom
}

func NewGoogleHandler(client OAuthClient, states oauth.StateStore, resolver IdentityResolver, jwt AccessTokenIssuer, prom *observability.Prom) *GoogleHandler {
	return &GoogleHandler{
		client:   client,
		states:   states,
		resolver: resolver,
		jwt:      jwt,
		prom:     prom,
	}
}

// Login issues a one-shot state and sends the browser to the provider's
// consent page.
func (h *GoogleHandler) Login(ctx *gin.Context) {
	state, err := h.states.Issue(ctx.Request.Context())

	if err != nil {
		RespondInternal(ctx, "Could not start login")
		return
	}

	ctx.Redirect(http.StatusFound, h.client.AuthCodeURL(state))
}

// Callback gates the handshake result before any identity work happens: a
// provider error, missing code or unknown state never reaches the
// resolver, so no store row is ever created for a failed handshake.
func (h *GoogleHandler) Callback(ctx *gin.Context) {
	if reason := ctx.Query("error"); reason != "" {
		h.observe("failed")
		RespondUnAuthorized(ctx, "oauth_failed", "Authentication was rejected by the provider.")
		return
	}

	code := ctx.Query("code")

	if code == "" {
		h.observe("failed")
		RespondUnAuthorized(ctx, "oauth_failed", "Missing authorization code.")
		return
	}

	if !h.states.Consume(ctx.Request.Context(), ctx.Query("state")) {
		h.observe("failed")
		RespondUnAuthorized(ctx, "oauth_failed", "Unknown or expired login state.")
		return
	}

	// the exchange and userinfo fetch are two provider round trips
	cctx, cancel := config.WithTimeout(10 * time.Second)

	defer cancel()

	profile, err := h.client.FetchProfile(cctx, code)

	if err != nil {
		h.observe("failed")
		RespondUnAuthorized(ctx, "oauth_failed", "Could not complete the provider handshake.")
		return
	}

	u, err := h.resolver.Resolve(cctx, profile)

	if err != nil {
		h.observe("failed")
		RespondInternal(ctx, "Could not resolve identity")
		return
	}

	accessToken, err := h.jwt.GenerateAccessToken(u.ID, u.Email, u.Role)

	if err != nil {
		RespondInternal(ctx, "Could not generate access token")
		return
	}

	h.observe("ok")

	ctx.JSON(http.StatusOK, gin.H{
		"message":     "Login successful",
		"accessToken": accessToken,
		"user":        u.Public(),
	})
}

func (h *GoogleHandler) observe(result string) {
	if h.prom != nil {
		h.prom.LoginsTotal.WithLabelValues("google", result).Inc()
	}
}
