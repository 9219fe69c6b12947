package http

import (
	"context"
	"log/slog"
	"time"

	"github.com/geocoder89/staffhub/internal/auth"
	"github.com/geocoder89/staffhub/internal/config"
	"github.com/geocoder89/staffhub/internal/http/handlers"
	"github.com/geocoder89/staffhub/internal/http/middlewares"
	"github.com/geocoder89/staffhub/internal/identity"
	"github.com/geocoder89/staffhub/internal/oauth"
	"github.com/geocoder89/staffhub/internal/observability"
	"github.com/geocoder89/staffhub/internal/redisclient"
	"github.com/geocoder89/staffhub/internal/repo/postgres"
	"github.com/gin-gonic/gin"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gin-gonic/gin/otelgin"
)

func NewRouter(log *slog.Logger, pool *pgxpool.Pool, rdb *redisclient.Client, prom *observability.Prom, cfg config.Config) *gin.Engine {
	if cfg.Env != "dev" && cfg.Env != "test" {
		gin.SetMode(gin.ReleaseMode)
	}
	r := gin.New()

	// middleware

	r.Use(gin.Recovery())
	r.Use(middlewares.RequestID())
	r.Use(middlewares.RequestLogger(log))
	r.Use(middlewares.SecurityHeaders())
	r.Use(middlewares.MaxBodyBytes(1 << 20))
	r.Use(middlewares.CORS(cfg.ClientURL))
	r.Use(otelgin.Middleware("staffhub"))

	if prom != nil {
		r.Use(prom.GinHandleMiddleware())
		r.GET("/metrics", gin.WrapH(promhttp.Handler()))
	}

	// health

	ping := func() error {
		if pool == nil {
			return nil
		}

		ctx, cancel := context.WithTimeout(context.Background(), 1*time.Second)
		defer cancel()

		return pool.Ping(ctx)
	}

	h := handlers.NewHealthHandler(ping)
	r.GET("/healthz", h.Healthz)
	r.GET("/readyz", h.Readyz)

	r.GET("/", func(ctx *gin.Context) {
		ctx.String(200, "hello from server")
	})

	// wire up repositories and collaborators

	usersRepo := postgres.NewUsersRepo(pool, prom)
	refreshRepo := postgres.NewRefreshTokensRepo(pool)
	jwtManager := auth.NewManager(cfg.JWTSecret, cfg.AccessTTL(), cfg.RefreshTTL())

	// the state store is shared across instances when redis is configured

	var states oauth.StateStore = oauth.NewMemoryStateStore()

	if rdb != nil {
		states = oauth.NewRedisStateStore(rdb.Raw())
	}

	googleClient := oauth.NewGoogleClient(cfg.GoogleClientID, cfg.GoogleClientSecret, cfg.GoogleCallbackURL)
	resolver := identity.NewResolver(usersRepo, log)

	googleHandler := handlers.NewGoogleHandler(googleClient, states, resolver, jwtManager, prom)

	r.GET("/auth/google", googleHandler.Login)
	r.GET("/auth/google/callback", googleHandler.Callback)

	// auth sub-router

	authHandler := handlers.NewAuthHandler(usersRepo, usersRepo, jwtManager, refreshRepo, cfg)
	authMW := middlewares.NewAuthMiddleware(jwtManager)
	loginLimiter := middlewares.NewRateLimiter(20, time.Minute)

	api := r.Group("/api/auth", middlewares.RequireJSON())

	api.POST("/signup", loginLimiter.RateLimiterMiddleware(middlewares.KeyByIP), authHandler.SignUp)
	api.POST("/login", loginLimiter.RateLimiterMiddleware(middlewares.KeyByIP), authHandler.Login)
	api.POST("/refresh", authHandler.Refresh)
	api.POST("/logout", authHandler.Logout)
	api.GET("/me", authMW.RequireAuth(), authHandler.Me)

	// user records

	usersHandler := handlers.NewUsersHandler(usersRepo, cfg.StrictValidation)

	r.POST("/test-user", usersHandler.CreateTestUser)
	r.GET("/users", usersHandler.ListUsers)

	return r
}
