// Package handler exposes the lead router HTTP API.
package handler

import (
	"net/http"
	"strings"

	"leadops_backend/internal/leads/intake"
	"leadops_backend/internal/routing/service"
	"leadops_backend/platform/apperr"
	"leadops_backend/platform/config"
	"leadops_backend/platform/httpkit"

	"github.com/gin-gonic/gin"
	json "github.com/goccy/go-json"
)

// Handler handles HTTP requests for the lead router.
type Handler struct {
	svc *service.Service
	cfg config.IntakeConfig
}

// New creates a new router handler.
func New(svc *service.Service, cfg config.IntakeConfig) *Handler {
	return &Handler{svc: svc, cfg: cfg}
}

// RegisterPublicRoutes registers the intake-token guarded assignment route.
func (h *Handler) RegisterPublicRoutes(rg *gin.RouterGroup) {
	rg.POST("/assign", h.Assign)
}

// RegisterAdminRoutes registers the operator routes.
func (h *Handler) RegisterAdminRoutes(rg *gin.RouterGroup) {
	rg.GET("/settings", h.GetSettings)
	rg.PUT("/settings", h.UpdateSettings)
	rg.GET("/dashboard", h.Dashboard)
	rg.POST("/sla-sweep", h.SweepSLA)
}

// RegisterCronRoutes registers batch triggers behind the cron secret.
func (h *Handler) RegisterCronRoutes(rg *gin.RouterGroup) {
	rg.POST("/sla-sweep", h.SweepSLA)
}

// RegisterFBRoutes registers the lead-form webhook.
func (h *Handler) RegisterFBRoutes(rg *gin.RouterGroup) {
	rg.POST("", h.AssignFB)
}

// Assign handles POST /api/v1/router/assign
func (h *Handler) Assign(c *gin.Context) {
	body, ok := readBody(c)
	if !ok {
		return
	}

	supplied := firstNonEmpty(c.GetHeader("x-intake-token"), c.GetHeader("x-ghl-token"))
	if !httpkit.SecretMatches(h.cfg.GetIntakeToken(), supplied) &&
		!httpkit.SecretMatches(h.cfg.GetIntakeToken(), intake.Str(body, "token")) {
		httpkit.HandleError(c, apperr.Unauthorized("invalid intake token"))
		return
	}

	result, err := h.svc.Route(c.Request.Context(), body)
	if httpkit.HandleError(c, err) {
		return
	}
	httpkit.OK(c, gin.H{
		"assignedTo":    result.AssignedTo,
		"reason":        result.Reason,
		"row":           result.Row,
		"slaReassigned": result.SLAReassigned,
	})
}

// AssignFB handles POST /api/v1/leads/assign-fb
func (h *Handler) AssignFB(c *gin.Context) {
	if !httpkit.SecretMatches(h.cfg.GetFBWebhookSecret(), c.GetHeader("x-ll-signature")) {
		httpkit.HandleError(c, apperr.Unauthorized("invalid signature"))
		return
	}

	body, ok := readBody(c)
	if !ok {
		return
	}

	result, err := h.svc.AssignFB(c.Request.Context(), body)
	if err != nil {
		httpkit.Error(c, http.StatusBadGateway, "lead_router_failed", err.Error())
		return
	}
	httpkit.JSON(c, http.StatusOK, result)
}

// GetSettings handles GET /api/v1/router/settings
func (h *Handler) GetSettings(c *gin.Context) {
	settings, err := h.svc.Settings(c.Request.Context())
	if httpkit.HandleError(c, err) {
		return
	}
	httpkit.OK(c, gin.H{"settings": settings})
}

// UpdateSettings handles PUT /api/v1/router/settings. The body is either
// the patch itself or {"patch": {...}}.
func (h *Handler) UpdateSettings(c *gin.Context) {
	body, ok := readBody(c)
	if !ok {
		return
	}
	patch := body
	if nested := intake.Object(body, "patch"); nested != nil {
		patch = nested
	}

	settings, err := h.svc.UpdateSettings(c.Request.Context(), patch)
	if httpkit.HandleError(c, err) {
		return
	}
	httpkit.OK(c, gin.H{"settings": settings})
}

// Dashboard handles GET /api/v1/router/dashboard
func (h *Handler) Dashboard(c *gin.Context) {
	dash, err := h.svc.Dashboard(c.Request.Context())
	if httpkit.HandleError(c, err) {
		return
	}
	httpkit.OK(c, gin.H{
		"settings":           dash.Settings,
		"counts":             dash.Counts,
		"yesterday":          dash.Yesterday,
		"recent":             dash.Recent,
		"keys":               dash.Keys,
		"tomorrowStartOrder": dash.TomorrowStartOrder,
		"callMetrics":        dash.CallMetrics,
		"calledLeadRows":     dash.CalledLeadRows,
	})
}

// SweepSLA handles POST /api/v1/router/sla-sweep
func (h *Handler) SweepSLA(c *gin.Context) {
	result, err := h.svc.SweepSLA(c.Request.Context())
	if httpkit.HandleError(c, err) {
		return
	}
	httpkit.OK(c, gin.H{"reassigned": result.Reassigned, "leadIds": result.LeadIDs})
}

func readBody(c *gin.Context) (map[string]any, bool) {
	raw, err := c.GetRawData()
	if err != nil {
		httpkit.Error(c, http.StatusBadRequest, apperr.CodeInvalidRequest, nil)
		return nil, false
	}
	body := map[string]any{}
	if len(strings.TrimSpace(string(raw))) > 0 {
		_ = json.Unmarshal(raw, &body)
	}
	return body, true
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if s := strings.TrimSpace(v); s != "" {
			return s
		}
	}
	return ""
}
