// Package handler exposes the reminder job triggers.
package handler

import (
	"leadops_backend/internal/reminders/service"
	"leadops_backend/platform/httpkit"

	"github.com/gin-gonic/gin"
)

// Handler handles HTTP requests for reminder jobs.
type Handler struct {
	svc *service.Service
}

// New creates a new reminders handler.
func New(svc *service.Service) *Handler {
	return &Handler{svc: svc}
}

// RegisterRoutes registers the job trigger and status routes.
func (h *Handler) RegisterRoutes(rg *gin.RouterGroup) {
	rg.GET("", h.Status)
	rg.POST("/:job/run", h.Run)
}

// Run handles POST /api/v1/reminders/:job/run
func (h *Handler) Run(c *gin.Context) {
	res, err := h.svc.Run(c.Request.Context(), c.Param("job"))
	if httpkit.HandleError(c, err) {
		return
	}
	httpkit.OK(c, gin.H{
		"job":         res.Job,
		"scanned":     res.Scanned,
		"sent":        res.Sent,
		"skipped":     res.Skipped,
		"errorsCount": res.Failed(),
		"errors":      res.Errors,
	})
}

// Status handles GET /api/v1/reminders
func (h *Handler) Status(c *gin.Context) {
	tracked, updatedAt, err := h.svc.FollowupStatus(c.Request.Context())
	if httpkit.HandleError(c, err) {
		return
	}
	httpkit.OK(c, gin.H{
		"jobs":            service.Jobs,
		"followupTracked": tracked,
		"followupUpdated": updatedAt,
	})
}
