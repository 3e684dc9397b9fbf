package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"leadops_backend/internal/bootstrap"
	apphttp "leadops_backend/internal/http"
	"leadops_backend/internal/http/router"
	"leadops_backend/platform/config"
	"leadops_backend/platform/logger"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		panic("failed to load config: " + err.Error())
	}

	// Initialize structured logger
	log := logger.New(cfg.Env)
	log.Info("starting server", "env", cfg.Env, "addr", cfg.HTTPAddr)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// ========================================================================
	// Infrastructure + Domain Modules (Composition Root)
	// ========================================================================

	app, err := bootstrap.Build(ctx, cfg, log)
	if err != nil {
		log.Error("failed to initialize application", "error", err)
		panic("failed to initialize application: " + err.Error())
	}
	defer func() { _ = app.Close() }()

	// ========================================================================
	// HTTP Layer
	// ========================================================================

	engine := router.New(&apphttp.App{
		Config:   cfg,
		Logger:   log,
		Health:   app.Store,
		EventBus: app.Bus,
		Metrics:  app.Metrics,
		Modules:  app.Modules(),
	})

	srv := &http.Server{
		Addr:              cfg.HTTPAddr,
		Handler:           engine,
		ReadHeaderTimeout: 10 * time.Second,
	}

	srvErr := make(chan error, 1)
	go func() {
		log.Info("server listening", "addr", cfg.HTTPAddr)
		srvErr <- srv.ListenAndServe()
	}()

	select {
	case <-ctx.Done():
		log.Info("shutdown signal received, gracefully shutting down")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			log.Error("graceful shutdown failed", "error", err)
		}
	case err := <-srvErr:
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Error("server error", "error", err)
			panic("server error: " + err.Error())
		}
	}
}
