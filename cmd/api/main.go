package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/geocoder89/staffhub/internal/config"
	"github.com/geocoder89/staffhub/internal/db"
	httpx "github.com/geocoder89/staffhub/internal/http"
	"github.com/geocoder89/staffhub/internal/observability"
	"github.com/geocoder89/staffhub/internal/redisclient"
	"github.com/prometheus/client_golang/prometheus"
)

func main() {
	cfg := config.Load()

	log := observability.NewLogger(cfg.Env)

	// tracing is optional, only wired when a collector endpoint is set
	var shutdownTracer func(context.Context) error

	if cfg.OTELEndpoint != "" {
		var err error
		shutdownTracer, err = observability.InitTracer(context.Background(), "staffhub", cfg.OTELEndpoint)

		if err != nil {
			log.Error("tracer init failed", "err", err)
		}
	}

	prom := observability.NewProm(prometheus.DefaultRegisterer)

	// The pool is built lazily so the listener comes up even while the
	// database is down. A malformed connection string is a startup fault.
	pool, err := db.NewPool(cfg.DBURL)

	if err != nil {
		log.Error("invalid database config", "err", err)
		os.Exit(1)
	}

	// confirm connectivity in the background; failure is logged, not fatal

	go func() {
		ctx := context.Background()

		if err := db.Ping(ctx, pool); err != nil {
			log.Error("database connection failed", "err", err)
			return
		}

		log.Info("database connected")

		if err := db.EnsureAdminUser(ctx, pool, cfg); err != nil {
			log.Error("admin seed failed", "err", err)
		}
	}()

	var rdb *redisclient.Client

	if cfg.RedisAddr != "" {
		rdb = redisclient.New(redisclient.Config{
			Addr:     cfg.RedisAddr,
			Password: cfg.RedisPassword,
			DB:       cfg.RedisDB,
		})
	}

	router := httpx.NewRouter(log, pool, rdb, prom, cfg)

	srv := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.Port),
		Handler:           router,
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       15 * time.Second,
		WriteTimeout:      15 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	go func() {
		log.Info("server starting", "port", cfg.Port, "env", cfg.Env)
		err := srv.ListenAndServe()

		if err != nil && err != http.ErrServerClosed {
			log.Error("server failed", "err", err)
			os.Exit(1)
		}
	}()

	// graceful shutdown

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)
	<-stop
	log.Info("server shutting down")

	shutdownCh := make(chan struct{})

	go func() {
		defer close(shutdownCh)

		ctx, cancel := config.WithTimeout(10 * time.Second)

		defer cancel()

		if err := srv.Shutdown(ctx); err != nil {
			log.Error("graceful shutdown failed", "err", err)
		}

		// Close waits for in-flight store operations to release their
		// connections before tearing the pool down.
		pool.Close()

		if rdb != nil {
			if err := rdb.Close(); err != nil {
				log.Error("redis close failed", "err", err)
			}
		}

		if shutdownTracer != nil {
			if err := shutdownTracer(ctx); err != nil {
				log.Error("tracer shutdown failed", "err", err)
			}
		}
	}()

	select {
	case <-shutdownCh:
		log.Info("shutdown complete")

	case <-time.After(12 * time.Second):
		log.Error("shutdown timed out")
	}
}
