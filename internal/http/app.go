// Package http provides HTTP server infrastructure including module registration.
package http

import (
	"context"

	"leadops_backend/platform/config"
	"leadops_backend/platform/events"
	"leadops_backend/platform/logger"
	"leadops_backend/platform/metrics"
)

// RouterConfig combines the config interfaces needed by the HTTP router.
type RouterConfig interface {
	config.HTTPConfig
	config.AdminAuthConfig
	config.MetricsConfig
	GetCronSecret() string
}

// HealthChecker exposes minimal functionality for readiness checks.
type HealthChecker interface {
	Ping(ctx context.Context) error
}

// App holds the fully initialized application dependencies.
// This is populated by main.go (the composition root) and passed to the router.
type App struct {
	// Config holds the router configuration.
	Config RouterConfig
	// Logger is the structured logger.
	Logger *logger.Logger
	// Health is used for readiness/health checks (document store ping).
	Health HealthChecker
	// EventBus is the domain event bus for cross-module communication.
	EventBus events.Bus
	// Metrics instruments requests and exposes /metrics. May be nil.
	Metrics *metrics.Collector
	// Modules contains all HTTP-facing domain modules.
	Modules []Module
}
