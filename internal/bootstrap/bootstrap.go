// Package bootstrap wires the store, integrations and domain modules shared
// by the API server, the scheduler and the operator CLI.
package bootstrap

import (
	"context"
	"errors"
	"fmt"
	"time"

	"leadops_backend/internal/bookings"
	"leadops_backend/internal/crm"
	"leadops_backend/internal/email"
	"leadops_backend/internal/events"
	apphttp "leadops_backend/internal/http"
	"leadops_backend/internal/leads"
	"leadops_backend/internal/notification"
	"leadops_backend/internal/owners"
	"leadops_backend/internal/payouts"
	"leadops_backend/internal/refdata"
	"leadops_backend/internal/reminders"
	remindersvc "leadops_backend/internal/reminders/service"
	"leadops_backend/internal/routing"
	routingdomain "leadops_backend/internal/routing/domain"
	routingrepo "leadops_backend/internal/routing/repository"
	"leadops_backend/internal/sponsorship"
	"leadops_backend/internal/store"
	"leadops_backend/internal/telegram"
	"leadops_backend/platform/config"
	"leadops_backend/platform/logger"
	"leadops_backend/platform/metrics"
	"leadops_backend/platform/validator"
)

// App is the composed application.
type App struct {
	Config  *config.Config
	Store   store.Store
	Tables  *refdata.Tables
	Bus     *events.InMemoryBus
	Metrics *metrics.Collector

	Leads       *leads.Module
	Routing     *routing.Module
	Bookings    *bookings.Module
	Sponsorship *sponsorship.Module
	Payouts     *payouts.Module
	Reminders   *reminders.Module
}

// Build opens the store (with retries), loads the reference tables and
// wires every module.
func Build(ctx context.Context, cfg *config.Config, log *logger.Logger) (*App, error) {
	tables, err := refdata.Load(cfg.ReferenceDataPath)
	if err != nil {
		return nil, err
	}

	var st store.Store
	if err := WithRetry(ctx, log, "document store connection", 5, 2*time.Second, func() error {
		s, err := store.Open(ctx, cfg)
		if err != nil {
			return err
		}
		st = s
		return nil
	}); err != nil {
		return nil, fmt.Errorf("open store: %w", err)
	}
	log.Info("document store ready", "backend", cfg.GetStoreBackend())

	collector, err := metrics.New()
	if err != nil {
		_ = st.Close()
		return nil, fmt.Errorf("init metrics: %w", err)
	}

	sender, err := email.NewSender(cfg)
	if err != nil {
		_ = st.Close()
		return nil, fmt.Errorf("init email sender: %w", err)
	}

	// Event bus for decoupled communication between modules
	bus := events.NewInMemoryBus(log)
	val := validator.New()
	chat := telegram.NewClient(cfg, log)
	loc := bookings.BookingLocation(cfg.GetBookingTimezone())
	defaults := routingdomain.DefaultSettings(tables.Roster, tables.OverflowAgent)

	history := routingrepo.New(st, defaults)
	resolver := owners.NewResolver(tables, history)
	leadsModule := leads.NewModule(st, resolver, history, tables.OverflowAgent, val, cfg, log)

	bookingsModule := bookings.NewModule(st, tables, bus, chat, val, cfg, log)
	sponsorshipModule := sponsorship.NewModule(st, bookingsModule.Repository, tables, val, cfg, log)

	routingModule := routing.NewModule(st, defaults, routing.Deps{
		Leads:        leadsModule.Repository,
		Applications: sponsorshipModule.Repository,
		CRM:          crm.NewClient(cfg),
		Bus:          bus,
		Metrics:      collector,
	}, cfg, log)

	payoutsModule := payouts.NewModule(st, sponsorshipModule.Repository, tables, bus, loc, val, log)

	remindersModule := reminders.NewModule(remindersvc.Deps{
		Bookings:  bookingsModule.Repository,
		Followups: sponsorshipModule.Service,
		State:     sponsorshipModule.Repository,
		Email:     sender,
		Chat:      chatSender(chat),
		Directory: tables,
		Admins:    tables.Admins,
		Metrics:   collector,
	}, loc, log)

	// Notification module subscribes to domain events (not HTTP-facing)
	notification.New(sender, tables, routingModule.Repository, log).RegisterHandlers(bus)

	return &App{
		Config:      cfg,
		Store:       st,
		Tables:      tables,
		Bus:         bus,
		Metrics:     collector,
		Leads:       leadsModule,
		Routing:     routingModule,
		Bookings:    bookingsModule,
		Sponsorship: sponsorshipModule,
		Payouts:     payoutsModule,
		Reminders:   remindersModule,
	}, nil
}

// chatSender keeps an unconfigured client out of the interface so the
// digest reports it as not configured instead of attempting a send.
func chatSender(c *telegram.Client) telegram.Sender {
	if c == nil {
		return nil
	}
	return c
}

// Modules lists the HTTP-facing modules in registration order.
func (a *App) Modules() []apphttp.Module {
	return []apphttp.Module{
		a.Leads,
		a.Routing,
		a.Bookings,
		a.Sponsorship,
		a.Payouts,
		a.Reminders,
	}
}

// Close releases the document store.
func (a *App) Close() error {
	if a == nil || a.Store == nil {
		return nil
	}
	return a.Store.Close()
}

// WithRetry runs fn up to attempts times with quadratic backoff.
func WithRetry(ctx context.Context, log *logger.Logger, name string, attempts int, baseDelay time.Duration, fn func() error) error {
	if attempts < 1 {
		return fmt.Errorf("%s: invalid retry attempts", name)
	}

	var lastErr error
	for attempt := 1; attempt <= attempts; attempt++ {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		if err := fn(); err == nil {
			return nil
		} else {
			lastErr = err
			log.Warn("retryable operation failed", "operation", name, "attempt", attempt, "error", err)
		}

		if attempt < attempts {
			delay := time.Duration(attempt*attempt) * baseDelay
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-time.After(delay):
			}
		}
	}

	return errors.New(name + ": " + lastErr.Error())
}
