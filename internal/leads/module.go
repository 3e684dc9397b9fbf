// Package leads provides the caller-leads domain module.
package leads

import (
	apphttp "leadops_backend/internal/http"
	"leadops_backend/internal/leads/handler"
	"leadops_backend/internal/leads/repository"
	"leadops_backend/internal/leads/service"
	"leadops_backend/internal/owners"
	"leadops_backend/internal/store"
	"leadops_backend/platform/config"
	"leadops_backend/platform/logger"
	"leadops_backend/platform/validator"
)

// Module represents the leads domain module
type Module struct {
	handler    *handler.Handler
	Service    *service.Service
	Repository *repository.Repository
}

// NewModule creates a new leads module with all dependencies wired
func NewModule(s store.Store, resolver *owners.Resolver, history owners.History, overflowAgent string, val *validator.Validator, cfg config.IntakeConfig, log *logger.Logger) *Module {
	repo := repository.New(s)
	repairer := owners.NewRepairer(resolver, repo, history)
	svc := service.New(repo, resolver, repairer, overflowAgent, log)
	h := handler.New(svc, val, cfg, log)

	return &Module{
		handler:    h,
		Service:    svc,
		Repository: repo,
	}
}

// Name returns the module name for logging
func (m *Module) Name() string {
	return "leads"
}

// RegisterRoutes registers the module's routes under /api/v1/leads
func (m *Module) RegisterRoutes(ctx *apphttp.RouterContext) {
	public := ctx.V1.Group("/leads")
	if ctx.WebhookRateLimiter != nil {
		public.Use(ctx.WebhookRateLimiter.RateLimit())
	}
	m.handler.RegisterPublicRoutes(public)
	m.handler.RegisterAdminRoutes(ctx.Admin.Group("/leads"))
}

// Compile-time check that Module implements http.Module
var _ apphttp.Module = (*Module)(nil)
