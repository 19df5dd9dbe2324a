package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/meridian-cms/meridian-cms/internal/app"
	"github.com/meridian-cms/meridian-cms/internal/auth"
	"github.com/meridian-cms/meridian-cms/internal/authz"
	"github.com/meridian-cms/meridian-cms/internal/gate"
	"github.com/meridian-cms/meridian-cms/internal/observability"
	"github.com/meridian-cms/meridian-cms/internal/platform/cache"
	"github.com/meridian-cms/meridian-cms/internal/platform/db"
	"github.com/meridian-cms/meridian-cms/internal/rbac"
	"github.com/meridian-cms/meridian-cms/internal/users"
)

func main() {
	if app.InTestMode() {
		slog.Default().Info("test mode detected, skipping runtime startup")
		return
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	cfg, err := app.LoadConfig()
	if err != nil {
		// A missing token secret lands here. Refusing to boot beats
		// serving tokens anyone can forge.
		slog.Default().Error("load config", slog.Any("error", err))
		os.Exit(1)
	}

	logger := app.NewLogger(cfg)

	pool, err := db.New(ctx, cfg.PGDSN)
	if err != nil {
		logger.Error("connect postgres", slog.Any("error", err))
		os.Exit(1)
	}
	defer pool.Close()

	// Redis backs the login throttle; without it every failed login
	// would go unmetered, so startup treats it as required.
	redisClient, err := cache.New(ctx, cfg.RedisAddr)
	if err != nil {
		logger.Error("connect redis", slog.Any("error", err))
		os.Exit(1)
	}
	defer func() {
		if err := redisClient.Close(); err != nil {
			logger.Warn("redis close", slog.Any("error", err))
		}
	}()

	issuer, err := auth.NewIssuer(cfg.TokenSecret, cfg.TokenTTL)
	if err != nil {
		logger.Error("init token issuer", slog.Any("error", err))
		os.Exit(1)
	}

	throttle := auth.NewLoginThrottle(redisClient, cfg.LoginThrottleLimit, cfg.LoginThrottleWindow)
	metrics := observability.NewMetrics()

	authRepo := auth.NewRepository(pool)
	resolver := auth.NewResolver(pool)
	authService := auth.NewService(authRepo, resolver, issuer, throttle, logger)
	authMiddleware := auth.Middleware{Service: authService, Logger: logger}

	rbacRepo := rbac.NewRepository(pool)
	rbacService := rbac.NewService(rbacRepo)
	rbacMiddleware := rbac.Middleware{Logger: logger}
	rbacHandler := rbac.NewHandler(logger, rbacService, rbacMiddleware)

	if err := rbacService.Seed(ctx); err != nil {
		logger.Error("seed permission catalog", slog.Any("error", err))
		os.Exit(1)
	}

	usersRepo := users.NewRepository(pool)
	usersService := users.NewService(usersRepo)
	usersHandler := users.NewHandler(logger, usersService, rbacService, rbacMiddleware)

	resetGate := rbacMiddleware.RequireAny(authz.PermManageUser)
	authHandler := auth.NewHandler(logger, authService, metrics, cfg.SessionCookieName, cfg.IsProduction(), resetGate)

	edgeGate := gate.New(cfg.SessionCookieName, cfg.LoginPath, cfg.ProtectedPrefixes)

	router := app.NewRouter(app.RouterParams{
		Logger:         logger,
		Config:         cfg,
		AuthHandler:    authHandler,
		AuthMiddleware: authMiddleware,
		RBACHandler:    rbacHandler,
		UsersHandler:   usersHandler,
		Gate:           edgeGate,
		Pool:           pool,
		Metrics:        metrics,
	})

	server := &http.Server{
		Addr:         cfg.AppAddr,
		Handler:      router,
		ReadTimeout:  cfg.AppReadTimeout,
		WriteTimeout: cfg.AppWriteTimeout,
	}

	group, groupCtx := errgroup.WithContext(ctx)
	group.Go(func() error {
		logger.Info("starting http server", slog.String("addr", cfg.AppAddr))
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	group.Go(func() error {
		<-groupCtx.Done()
		logger.Info("shutting down")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		return server.Shutdown(shutdownCtx)
	})

	if err := group.Wait(); err != nil {
		logger.Error("server exited", slog.Any("error", err))
		os.Exit(1)
	}
}
