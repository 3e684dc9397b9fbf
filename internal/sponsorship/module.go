// Package sponsorship provides the sponsorship applications module.
package sponsorship

import (
	apphttp "leadops_backend/internal/http"
	"leadops_backend/internal/sponsorship/domain"
	"leadops_backend/internal/sponsorship/handler"
	"leadops_backend/internal/sponsorship/repository"
	"leadops_backend/internal/sponsorship/service"
	"leadops_backend/internal/store"
	"leadops_backend/platform/config"
	"leadops_backend/platform/logger"
	"leadops_backend/platform/validator"
)

// Module represents the sponsorship domain module
type Module struct {
	handler    *handler.Handler
	Service    *service.Service
	Repository *repository.Repository
}

// NewModule creates a new sponsorship module with all dependencies wired
func NewModule(s store.Store, bookings service.BookingLister, directory domain.Directory, val *validator.Validator, cfg config.BookingConfig, log *logger.Logger) *Module {
	repo := repository.New(s)
	svc := service.New(repo, bookings, directory, cfg.GetBookingLinkBaseURL(), log)

	return &Module{
		handler:    handler.New(svc, val),
		Service:    svc,
		Repository: repo,
	}
}

// Name returns the module name for logging
func (m *Module) Name() string {
	return "sponsorship"
}

// RegisterRoutes registers the module's routes under
// /api/v1/sponsorship/applications
func (m *Module) RegisterRoutes(ctx *apphttp.RouterContext) {
	public := ctx.V1.Group("/sponsorship/applications")
	if ctx.WebhookRateLimiter != nil {
		public.Use(ctx.WebhookRateLimiter.RateLimit())
	}
	m.handler.RegisterPublicRoutes(public)
	m.handler.RegisterAdminRoutes(ctx.Admin.Group("/sponsorship/applications"))
}

// Compile-time check that Module implements http.Module
var _ apphttp.Module = (*Module)(nil)
