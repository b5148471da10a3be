package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"log/slog"

	"golang.org/x/sync/errgroup"

	"github.com/meridian-apparel/meridian-console/internal/app"
	"github.com/meridian-apparel/meridian-console/internal/audit"
	"github.com/meridian-apparel/meridian-console/internal/platform/db"
	"github.com/meridian-apparel/meridian-console/jobs"
)

func main() {
	if app.InTestMode() {
		slog.Default().Info("test mode detected, skipping worker startup")
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

	auditService := audit.NewService(audit.NewRepository(pool))

	server := jobs.NewServer(cfg.RedisAddr, logger)
	mux := jobs.NewMux(auditService)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		logger.Info("starting worker")
		return server.Run(mux)
	})
	g.Go(func() error {
		<-gctx.Done()
		logger.Info("shutting down worker")
		server.Shutdown()
		return nil
	})

	if err := g.Wait(); err != nil {
		logger.Error("worker run", slog.Any("error", err))
		os.Exit(1)
	}
}
