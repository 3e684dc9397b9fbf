// Package routing provides the lead router domain module.
package routing

import (
	"leadops_backend/internal/events"
	apphttp "leadops_backend/internal/http"
	"leadops_backend/internal/routing/domain"
	"leadops_backend/internal/routing/handler"
	"leadops_backend/internal/routing/repository"
	"leadops_backend/internal/routing/service"
	"leadops_backend/internal/store"
	"leadops_backend/platform/config"
	"leadops_backend/platform/logger"
)

// Module represents the lead router domain module
type Module struct {
	handler    *handler.Handler
	Service    *service.Service
	Repository *repository.Repository
}

// Deps are the collaborators owned by other modules.
type Deps struct {
	Leads        service.LeadStore
	Applications service.Applications
	CRM          service.OwnerUpdater
	Bus          events.Bus
	Metrics      service.Observer
}

// NewModule creates a new routing module with all dependencies wired.
// defaults seeds the settings document and the roster merge.
func NewModule(s store.Store, defaults domain.Settings, deps Deps, cfg config.IntakeConfig, log *logger.Logger) *Module {
	repo := repository.New(s, defaults)
	svc := service.New(repo, deps.Leads, deps.Applications, deps.CRM, deps.Bus, deps.Metrics, log)

	return &Module{
		handler:    handler.New(svc, cfg),
		Service:    svc,
		Repository: repo,
	}
}

// Name returns the module name for logging
func (m *Module) Name() string {
	return "routing"
}

// RegisterRoutes registers the module's routes under /api/v1/router plus
// the lead-form webhook at /api/v1/leads/assign-fb.
func (m *Module) RegisterRoutes(ctx *apphttp.RouterContext) {
	public := ctx.V1.Group("/router")
	fb := ctx.V1.Group("/leads/assign-fb")
	if ctx.WebhookRateLimiter != nil {
		public.Use(ctx.WebhookRateLimiter.RateLimit())
		fb.Use(ctx.WebhookRateLimiter.RateLimit())
	}
	m.handler.RegisterPublicRoutes(public)
	m.handler.RegisterFBRoutes(fb)
	m.handler.RegisterAdminRoutes(ctx.Admin.Group("/router"))
	if ctx.Cron != nil {
		m.handler.RegisterCronRoutes(ctx.V1.Group("/cron/router", ctx.Cron))
	}
}

// Compile-time check that Module implements http.Module
var _ apphttp.Module = (*Module)(nil)
