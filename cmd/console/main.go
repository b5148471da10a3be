package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"log/slog"

	"golang.org/x/sync/errgroup"

	"github.com/meridian-apparel/meridian-console/internal/app"
	"github.com/meridian-apparel/meridian-console/internal/audit"
	"github.com/meridian-apparel/meridian-console/internal/auth"
	"github.com/meridian-apparel/meridian-console/internal/authz"
	"github.com/meridian-apparel/meridian-console/internal/categories"
	"github.com/meridian-apparel/meridian-console/internal/customers"
	"github.com/meridian-apparel/meridian-console/internal/dashboard"
	"github.com/meridian-apparel/meridian-console/internal/grants"
	"github.com/meridian-apparel/meridian-console/internal/orders"
	"github.com/meridian-apparel/meridian-console/internal/observability"
	"github.com/meridian-apparel/meridian-console/internal/platform/cache"
	"github.com/meridian-apparel/meridian-console/internal/platform/db"
	"github.com/meridian-apparel/meridian-console/internal/products"
	"github.com/meridian-apparel/meridian-console/internal/shared"
	"github.com/meridian-apparel/meridian-console/internal/users"
	"github.com/meridian-apparel/meridian-console/jobs"
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

	sessionManager := shared.NewSessionManager(redisClient, "meridian_session", cfg.SessionTTL, cfg.IsProduction())
	csrfManager := shared.NewCSRFManager(cfg.CSRFSecret)

	catalog := authz.DefaultCatalog()
	if err := catalog.Validate(); err != nil {
		logger.Error("validate module catalog", slog.Any("error", err))
		os.Exit(1)
	}
	resolver := authz.NewResolver(catalog, logger)
	guard := authz.NewGuard(resolver)

	asynqClient := jobs.NewClient(cfg.RedisAddr)
	defer func() {
		if err := asynqClient.Close(); err != nil {
			logger.Warn("asynq close", slog.Any("error", err))
		}
	}()
	recorder := audit.NewRecorder(asynqClient, logger)
	metrics := observability.NewMetrics()

	guardMW := authz.Middleware{
		Guard:  guard,
		Logger: logger,
		OnDeny: func(ctx context.Context, subject *authz.Subject, path string) {
			metrics.ObserveDenied(path)
			if subject != nil {
				recorder.NavigationDenied(ctx, subject.UserID, path)
			}
		},
	}

	authService := auth.NewService(auth.NewRepository(pool))
	authHandler := auth.NewHandler(logger, authService, resolver, sessionManager, csrfManager, recorder, app.LoginRateLimiter(cfg))

	categoriesRepo := categories.NewRepository(pool)
	grantsService := grants.NewService(grants.NewRepository(pool), resolver, categoriesRepo, recorder, logger)
	grantsHandler := grants.NewHandler(logger, grantsService, guardMW)

	categoriesService := categories.NewService(categoriesRepo, grantsService)
	categoriesHandler := categories.NewHandler(logger, categoriesService, guardMW)

	productsRepo := products.NewRepository(pool)
	productsService := products.NewService(productsRepo, grantsService)
	productsHandler := products.NewHandler(logger, productsService, guardMW)

	ordersService := orders.NewService(orders.NewRepository(pool), productsRepo)
	ordersHandler := orders.NewHandler(logger, ordersService, guardMW)

	customersService := customers.NewService(customers.NewRepository(pool))
	customersHandler := customers.NewHandler(logger, customersService, guardMW)

	dashboardHandler := dashboard.NewHandler(logger, dashboard.NewRepository(pool))

	usersService := users.NewService(users.NewRepository(pool))
	usersHandler := users.NewHandler(logger, usersService, guardMW)

	auditService := audit.NewService(audit.NewRepository(pool))
	auditHandler := audit.NewHandler(logger, auditService, guardMW)

	router := app.NewRouter(app.RouterParams{
		Logger:            logger,
		Config:            cfg,
		SessionManager:    sessionManager,
		CSRFManager:       csrfManager,
		Guard:             guardMW,
		AuthHandler:       authHandler,
		GrantsHandler:     grantsHandler,
		CategoriesHandler: categoriesHandler,
		ProductsHandler:   productsHandler,
		OrdersHandler:     ordersHandler,
		CustomersHandler:  customersHandler,
		UsersHandler:      usersHandler,
		AuditHandler:      auditHandler,
		DashboardHandler:  dashboardHandler,
		Metrics:           metrics,
	})

	server := &http.Server{
		Addr:         cfg.AppAddr,
		Handler:      router,
		ReadTimeout:  cfg.AppReadTimeout,
		WriteTimeout: cfg.AppWriteTimeout,
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		logger.Info("starting http server", slog.String("addr", cfg.AppAddr))
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		logger.Info("shutting down")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		return server.Shutdown(shutdownCtx)
	})

	if err := g.Wait(); err != nil {
		logger.Error("http server", slog.Any("error", err))
		os.Exit(1)
	}
}
