package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"leadops_backend/internal/bookings"
	"leadops_backend/internal/bootstrap"
	"leadops_backend/internal/scheduler"
	"leadops_backend/platform/config"
	"leadops_backend/platform/logger"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		panic("failed to load config: " + err.Error())
	}

	log := logger.New(cfg.Env)
	log.Info("starting scheduler", "env", cfg.Env)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	app, err := bootstrap.Build(ctx, cfg, log)
	if err != nil {
		log.Error("failed to initialize application", "error", err)
		panic("failed to initialize application: " + err.Error())
	}
	defer func() { _ = app.Close() }()

	periodic, err := scheduler.NewPeriodic(cfg, bookings.BookingLocation(cfg.GetBookingTimezone()), log)
	if err != nil {
		log.Error("failed to initialize periodic scheduler", "error", err)
		panic("failed to initialize periodic scheduler: " + err.Error())
	}
	go periodic.Run(ctx)

	worker, err := scheduler.NewWorker(cfg, app.Reminders.Service, app.Routing.Service, log)
	if err != nil {
		log.Error("failed to initialize scheduler worker", "error", err)
		panic("failed to initialize scheduler worker: " + err.Error())
	}

	worker.Run(ctx)
}
