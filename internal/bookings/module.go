// Package bookings provides the sponsorship booking module.
package bookings

import (
	"time"

	"leadops_backend/internal/bookings/domain"
	"leadops_backend/internal/bookings/handler"
	"leadops_backend/internal/bookings/repository"
	"leadops_backend/internal/bookings/service"
	"leadops_backend/internal/events"
	apphttp "leadops_backend/internal/http"
	"leadops_backend/internal/store"
	"leadops_backend/internal/telegram"
	"leadops_backend/platform/config"
	"leadops_backend/platform/logger"
	"leadops_backend/platform/validator"
)

// Module represents the bookings domain module
type Module struct {
	handler    *handler.Handler
	Service    *service.Service
	Repository *repository.Repository
}

// NewModule creates a new bookings module with all dependencies wired
func NewModule(s store.Store, licensing domain.Licensing, bus events.Bus, chat telegram.Sender, val *validator.Validator, cfg config.BookingConfig, log *logger.Logger) *Module {
	repo := repository.New(s)
	svc := service.New(repo, licensing, bus, chat, BookingLocation(cfg.GetBookingTimezone()), cfg.GetPriorityHoldWindow(), log)

	return &Module{
		handler:    handler.New(svc, val),
		Service:    svc,
		Repository: repo,
	}
}

// BookingLocation loads the booking timezone, falling back to a fixed
// Eastern Standard offset.
func BookingLocation(name string) *time.Location {
	if loc, err := time.LoadLocation(name); err == nil && name != "" {
		return loc
	}
	if loc, err := time.LoadLocation("America/New_York"); err == nil {
		return loc
	}
	return time.FixedZone("EST", -5*60*60)
}

// Name returns the module name for logging
func (m *Module) Name() string {
	return "bookings"
}

// RegisterRoutes registers the module's routes under /api/v1/bookings
func (m *Module) RegisterRoutes(ctx *apphttp.RouterContext) {
	public := ctx.V1.Group("/bookings")
	if ctx.WebhookRateLimiter != nil {
		public.Use(ctx.WebhookRateLimiter.RateLimit())
	}
	m.handler.RegisterPublicRoutes(public)
	m.handler.RegisterAdminRoutes(ctx.Admin.Group("/bookings"))
}

// Compile-time check that Module implements http.Module
var _ apphttp.Module = (*Module)(nil)
