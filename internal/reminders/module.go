// Package reminders provides the scheduled reminder jobs module.
package reminders

import (
	"time"

	apphttp "leadops_backend/internal/http"
	"leadops_backend/internal/reminders/handler"
	"leadops_backend/internal/reminders/service"
	"leadops_backend/platform/logger"
)

// Module represents the reminders module
type Module struct {
	handler *handler.Handler
	Service *service.Service
}

// NewModule creates a new reminders module with all dependencies wired.
// Booking times are read in loc.
func NewModule(deps service.Deps, loc *time.Location, log *logger.Logger) *Module {
	svc := service.New(deps, loc, log)

	return &Module{
		handler: handler.New(svc),
		Service: svc,
	}
}

// Name returns the module name for logging
func (m *Module) Name() string {
	return "reminders"
}

// RegisterRoutes registers the job triggers under /api/v1/reminders behind
// the cron secret, and the same routes under the admin group.
func (m *Module) RegisterRoutes(ctx *apphttp.RouterContext) {
	if ctx.Cron != nil {
		m.handler.RegisterRoutes(ctx.V1.Group("/reminders", ctx.Cron))
	}
	m.handler.RegisterRoutes(ctx.Admin.Group("/admin/reminders"))
}

// Compile-time check that Module implements http.Module
var _ apphttp.Module = (*Module)(nil)
