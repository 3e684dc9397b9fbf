// Package payouts provides the policy submission and payout tracking module.
package payouts

import (
	"time"

	"leadops_backend/internal/events"
	apphttp "leadops_backend/internal/http"
	"leadops_backend/internal/payouts/handler"
	"leadops_backend/internal/payouts/repository"
	"leadops_backend/internal/payouts/service"
	"leadops_backend/internal/store"
	"leadops_backend/platform/logger"
	"leadops_backend/platform/validator"
)

// Module represents the payouts domain module
type Module struct {
	handler    *handler.Handler
	Service    *service.Service
	Repository *repository.Repository
}

// NewModule creates a new payouts module with all dependencies wired.
// Payout due dates are computed in loc.
func NewModule(s store.Store, apps service.Applications, directory service.Directory, bus events.Bus, loc *time.Location, val *validator.Validator, log *logger.Logger) *Module {
	repo := repository.New(s)
	svc := service.New(repo, apps, directory, bus, loc, log)

	return &Module{
		handler:    handler.New(svc, val),
		Service:    svc,
		Repository: repo,
	}
}

// Name returns the module name for logging
func (m *Module) Name() string {
	return "payouts"
}

// RegisterRoutes registers the module's routes under /api/v1/payouts/policies
func (m *Module) RegisterRoutes(ctx *apphttp.RouterContext) {
	m.handler.RegisterAdminRoutes(ctx.Admin.Group("/payouts/policies"))
}

// Compile-time check that Module implements http.Module
var _ apphttp.Module = (*Module)(nil)
