package main

import (
	"context"
	"errors"
	"flag"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/residence-hub/residence/cmd/residence/cli"
	"github.com/residence-hub/residence/internal/app"
	"github.com/residence-hub/residence/internal/auth"
	"github.com/residence-hub/residence/internal/buildings"
	"github.com/residence-hub/residence/internal/observability"
	"github.com/residence-hub/residence/internal/platform/cache"
	"github.com/residence-hub/residence/internal/platform/db"
	"github.com/residence-hub/residence/internal/rbac"
	"github.com/residence-hub/residence/internal/shared"
	"github.com/residence-hub/residence/internal/users"
)

func main() {
	if app.InTestMode() {
		slog.Default().Info("test mode detected, skipping runtime startup")
		return
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if len(os.Args) > 1 && os.Args[1] == "permissions" {
		os.Exit(runPermissions(ctx, os.Args[2:]))
	}

	cfg, err := app.LoadConfig()
	if err != nil {
		slog.Default().Error("load config", slog.Any("error", err))
		os.Exit(1)
	}

	logger := app.NewLogger(cfg)

	dbpool, err := db.New(ctx, cfg.PGDSN, cfg.PGMaxConns)
	if err != nil {
		logger.Error("connect postgres", slog.Any("error", err))
		os.Exit(1)
	}
	defer dbpool.Close()

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

	sessionManager := shared.NewSessionManager(redisClient, "residence_session", cfg.SessionSecret, cfg.SessionTTL, cfg.IsProduction())
	csrfManager := shared.NewCSRFManager(cfg.CSRFSecret)
	metrics := observability.NewMetrics()

	gate := rbac.NewGate(rbac.DefaultPolicy(), logger, metrics)
	rbacMiddleware := rbac.Middleware{Gate: gate, Logger: logger}

	usersRepo := users.NewRepository(dbpool)
	usersService := users.NewService(usersRepo)
	usersHandler := users.NewHandler(logger, usersService, gate, rbacMiddleware)
	resolver := users.NewResolver(usersRepo)

	authService := auth.NewService(usersRepo)
	authHandler := auth.NewHandler(logger, authService, sessionManager, csrfManager, metrics)

	auditLogger := shared.NewAuditLogger(dbpool)
	buildingsService := buildings.NewService(buildings.NewRepository(dbpool), auditLogger, logger)
	buildingsHandler := buildings.NewHandler(logger, buildingsService, gate, rbacMiddleware)

	router := app.NewRouter(app.RouterParams{
		Logger:             logger,
		Config:             cfg,
		SessionManager:     sessionManager,
		CSRFManager:        csrfManager,
		Resolver:           resolver,
		AuthHandler:        authHandler,
		UsersHandler:       usersHandler,
		BuildingsHandler:   buildingsHandler,
		PermissionsHandler: rbac.NewPermissionsHandler(logger, gate, rbacMiddleware),
		Metrics:            metrics,
		HealthChecks: map[string]app.Pinger{
			"postgres": dbpool,
			"redis":    app.PingFunc(func(ctx context.Context) error { return redisClient.Ping(ctx).Err() }),
		},
	})

	server := &http.Server{
		Addr:         cfg.AppAddr,
		Handler:      router,
		ReadTimeout:  cfg.AppReadTimeout,
		WriteTimeout: cfg.AppWriteTimeout,
	}

	go func() {
		logger.Info("starting http server", slog.String("addr", cfg.AppAddr))
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
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

// runPermissions handles `residence permissions --user NAME | --role ROLE [--module M --action A] [--json]`.
func runPermissions(ctx context.Context, args []string) int {
	fs := flag.NewFlagSet("permissions", flag.ContinueOnError)
	opts := cli.PermissionsOptions{}
	fs.StringVar(&opts.Username, "user", "", "username to inspect")
	fs.StringVar(&opts.Role, "role", "", "role to inspect without a database")
	fs.StringVar(&opts.Module, "module", "", "module to check, e.g. INVOICES")
	fs.StringVar(&opts.Action, "action", "", "action to check: VIEW, ADD, EDIT or DELETE")
	fs.BoolVar(&opts.JSONOutput, "json", false, "print JSON")
	if err := fs.Parse(args); err != nil {
		return 2
	}

	var lookup cli.AccountLookup
	if opts.Username != "" {
		dsn := os.Getenv("PG_DSN")
		if dsn == "" {
			slog.Default().Error("PG_DSN is required with --user")
			return 1
		}
		pool, err := db.New(ctx, dsn, 2)
		if err != nil {
			slog.Default().Error("connect postgres", slog.Any("error", err))
			return 1
		}
		defer pool.Close()
		lookup = users.NewRepository(pool)
	}
	return cli.NewPermissionsCLI(lookup, rbac.DefaultPolicy()).Command(ctx, opts)
}
