// Package router builds the gin engine from the composed application.
package router

import (
	"context"
	"net/http"
	"time"

	apphttp "leadops_backend/internal/http"
	"leadops_backend/platform/httpkit"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
)

// New mounts shared middleware, health and metrics endpoints, and every
// module's routes.
func New(app *apphttp.App) *gin.Engine {
	engine := gin.New()
	engine.Use(gin.Recovery())
	engine.Use(httpkit.RequestID())
	engine.Use(httpkit.RequestLogger(app.Logger))
	engine.Use(httpkit.SecurityHeaders())
	engine.Use(cors.New(corsConfig(app.Config)))
	if app.Metrics != nil {
		engine.Use(app.Metrics.Middleware())
	}

	engine.GET("/api/health", func(c *gin.Context) {
		if app.Health == nil {
			httpkit.OK(c, gin.H{"status": "ok"})
			return
		}
		ctx, cancel := context.WithTimeout(c.Request.Context(), 2*time.Second)
		defer cancel()
		if err := app.Health.Ping(ctx); err != nil {
			httpkit.Error(c, http.StatusServiceUnavailable, "store_unavailable", err.Error())
			return
		}
		httpkit.OK(c, gin.H{"status": "ok"})
	})

	if app.Metrics != nil && app.Config.GetMetricsEnabled() {
		engine.GET("/metrics", gin.WrapH(app.Metrics.Handler()))
	}

	v1 := engine.Group("/api/v1")
	admin := v1.Group("")
	admin.Use(httpkit.AdminAuth(app.Config))

	routerCtx := &apphttp.RouterContext{
		Engine:             engine,
		V1:                 v1,
		Admin:              admin,
		Cron:               httpkit.SharedSecret(app.Config.GetCronSecret, "x-cron-secret"),
		WebhookRateLimiter: httpkit.NewWebhookRateLimiter(app.Logger),
	}

	for _, module := range app.Modules {
		module.RegisterRoutes(routerCtx)
		app.Logger.Debug("registered module routes", "module", module.Name())
	}

	return engine
}

func corsConfig(cfg apphttp.RouterConfig) cors.Config {
	c := cors.Config{
		AllowMethods:     []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowHeaders:     []string{"Origin", "Content-Type", "Authorization", "X-Request-Id", "X-Actor", "x-intake-token", "x-ghl-token", "x-cron-secret"},
		ExposeHeaders:    []string{"X-Request-Id"},
		AllowCredentials: cfg.GetCORSAllowCreds(),
		MaxAge:           12 * time.Hour,
	}
	if cfg.GetCORSAllowAll() || len(cfg.GetCORSOrigins()) == 0 {
		c.AllowAllOrigins = true
		c.AllowCredentials = false
	} else {
		c.AllowOrigins = cfg.GetCORSOrigins()
	}
	return c
}
