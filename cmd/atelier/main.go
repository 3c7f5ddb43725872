package main

import (
	"context"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/hibiken/asynq"

	"github.com/atelier-works/atelier/internal/app"
	"github.com/atelier-works/atelier/internal/audit"
	"github.com/atelier-works/atelier/internal/auth"
	"github.com/atelier-works/atelier/internal/authz"
	"github.com/atelier-works/atelier/internal/clients"
	"github.com/atelier-works/atelier/internal/gate"
	"github.com/atelier-works/atelier/internal/observability"
	"github.com/atelier-works/atelier/internal/platform/cache"
	"github.com/atelier-works/atelier/internal/platform/db"
	"github.com/atelier-works/atelier/internal/principal"
	"github.com/atelier-works/atelier/internal/repairs"
	"github.com/atelier-works/atelier/internal/token"
	"github.com/atelier-works/atelier/internal/users"
	"github.com/atelier-works/atelier/jobs"
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

	registry := authz.DefaultRegistry()
	engine := authz.NewEngine(registry)
	affordances := authz.DefaultAffordances()

	verifier := token.NewVerifier(cfg.TokenSecret, cfg.TokenIssuer, cfg.TokenTTL)

	var resolver principal.Resolver = principal.NewPGResolver(pool, cfg.ResolverTimeout)
	var cached *principal.CachedResolver
	if cfg.PrincipalCacheTTL > 0 {
		cached = principal.NewCachedResolver(resolver, redisClient, cfg.PrincipalCacheTTL)
		resolver = cached
	}

	metrics := observability.NewMetrics()

	auditClient := jobs.NewClient(asynq.RedisClientOpt{Addr: cfg.RedisAddr}, logger)
	defer func() {
		if err := auditClient.Close(); err != nil {
			logger.Warn("audit client close", slog.Any("error", err))
		}
	}()

	g := gate.Gate{
		Verifier: verifier,
		Resolver: resolver,
		Engine:   engine,
		Logger:   logger,
		Metrics:  metrics,
		Audit:    auditClient,
	}

	authRepo := auth.NewRepository(pool)
	authService := auth.NewService(authRepo)
	authHandler := auth.NewHandler(logger, authService, verifier, registry, affordances, auditClient)

	clientsRepo := clients.NewRepository(pool)
	clientsService := clients.NewService(clientsRepo)
	clientsHandler := clients.NewHandler(logger, clientsService, g)

	repairsRepo := repairs.NewRepository(pool)
	repairsService := repairs.NewService(repairsRepo)
	repairsHandler := repairs.NewHandler(logger, repairsService, g)

	usersRepo := users.NewRepository(pool)
	var invalidator users.Invalidator
	if cached != nil {
		invalidator = cached
	}
	usersService := users.NewService(usersRepo, registry, invalidator)
	usersHandler := users.NewHandler(logger, usersService, g)

	auditHandler := audit.NewHandler(logger, audit.NewRecorder(pool))

	inspector := asynq.NewInspector(asynq.RedisClientOpt{Addr: cfg.RedisAddr})
	defer func() {
		if err := inspector.Close(); err != nil {
			logger.Warn("inspector close", slog.Any("error", err))
		}
	}()
	jobHandler := jobs.NewHandler(inspector, logger)

	router, err := app.NewRouter(app.RouterParams{
		Logger:         logger,
		Config:         cfg,
		Registry:       registry,
		Affordances:    affordances,
		Gate:           g,
		AuthHandler:    authHandler,
		ClientsHandler: clientsHandler,
		RepairsHandler: repairsHandler,
		UsersHandler:   usersHandler,
		AuditHandler:   auditHandler,
		JobHandler:     jobHandler,
		Metrics:        metrics,
	})
	if err != nil {
		logger.Error("build router", slog.Any("error", err))
		os.Exit(1)
	}

	server := &http.Server{
		Addr:         cfg.AppAddr,
		Handler:      router,
		ReadTimeout:  cfg.AppReadTimeout,
		WriteTimeout: cfg.AppWriteTimeout,
	}

	go func() {
		logger.Info("starting http server", slog.String("addr", cfg.AppAddr))
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Error("http server", slog.Any("error", err))
			stop()
		}
	}()

	<-ctx.Done()
	logger.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Error("graceful shutdown", slog.Any("error", err))
	}
}
