// Package handler exposes the caller-leads HTTP API.
package handler

import (
	"net/http"
	"strings"

	"leadops_backend/internal/leads/intake"
	"leadops_backend/internal/leads/service"
	"leadops_backend/internal/leads/transport"
	"leadops_backend/platform/apperr"
	"leadops_backend/platform/config"
	"leadops_backend/platform/httpkit"
	"leadops_backend/platform/logger"
	"leadops_backend/platform/validator"

	"github.com/gin-gonic/gin"
	json "github.com/goccy/go-json"
)

const msgInvalidRequest = "invalid request"

// Handler handles HTTP requests for caller leads.
type Handler struct {
	svc *service.Service
	val *validator.Validator
	cfg config.IntakeConfig
	log *logger.Logger
}

// New creates a new leads handler.
func New(svc *service.Service, val *validator.Validator, cfg config.IntakeConfig, log *logger.Logger) *Handler {
	return &Handler{svc: svc, val: val, cfg: cfg, log: log}
}

// RegisterPublicRoutes registers the webhook-facing routes.
func (h *Handler) RegisterPublicRoutes(rg *gin.RouterGroup) {
	rg.POST("", h.Write)
}

// RegisterAdminRoutes registers the operator routes.
func (h *Handler) RegisterAdminRoutes(rg *gin.RouterGroup) {
	rg.GET("", h.List)
	rg.PATCH("", h.Patch)
	rg.DELETE("", h.Delete)
	rg.POST("/repair-owners", h.RepairOwners)
}

// Write handles POST /api/v1/leads for the upsert, create-manual and
// activity modes.
func (h *Handler) Write(c *gin.Context) {
	raw, err := c.GetRawData()
	if err != nil {
		httpkit.Error(c, http.StatusBadRequest, apperr.CodeInvalidRequest, nil)
		return
	}
	body := map[string]any{}
	if len(strings.TrimSpace(string(raw))) > 0 {
		// Unreadable bodies are processed as empty, like an intake with no fields.
		if err := json.Unmarshal(raw, &body); err != nil {
			body = map[string]any{}
			h.log.WithContext(c.Request.Context()).Warn("malformed lead body", "error", err, "bytes", len(raw))
		}
	}

	mode := strings.ToLower(intake.Str(body, "mode"))
	if mode == "" {
		mode = transport.ModeUpsert
	}

	ctx := c.Request.Context()
	switch mode {
	case transport.ModeCreateManual:
		var req transport.CreateManualRequest
		if err := json.Unmarshal(raw, &req); err != nil {
			httpkit.Error(c, http.StatusBadRequest, apperr.CodeInvalidRequest, msgInvalidRequest)
			return
		}
		if err := h.val.Struct(req); err != nil {
			httpkit.Error(c, http.StatusBadRequest, apperr.CodeInvalidRequest, validator.Fields(err))
			return
		}
		result, err := h.svc.CreateManual(ctx, req)
		if httpkit.HandleError(c, err) {
			return
		}
		httpkit.OK(c, gin.H{"row": result.Row})

	case transport.ModeActivity:
		result, err := h.svc.Activity(ctx, body)
		if httpkit.HandleError(c, err) {
			return
		}
		httpkit.OK(c, gin.H{"row": result.Row, "upsert": result.Upsert})

	case transport.ModeUpsert:
		supplied := firstNonEmpty(c.GetHeader("x-intake-token"), c.GetHeader("x-ghl-token"))
		if !httpkit.SecretMatches(h.cfg.GetIntakeToken(), supplied) &&
			!httpkit.SecretMatches(h.cfg.GetIntakeToken(), intake.Str(body, "token")) {
			httpkit.HandleError(c, apperr.Unauthorized("invalid intake token"))
			return
		}
		result, err := h.svc.Upsert(ctx, body)
		if httpkit.HandleError(c, err) {
			return
		}
		httpkit.OK(c, gin.H{"row": result.Row, "upsert": result.Upsert})

	default:
		httpkit.HandleError(c, apperr.BadRequest(apperr.CodeUnsupportedMode, "unsupported mode "+mode))
	}
}

// List handles GET /api/v1/leads?owner=
func (h *Handler) List(c *gin.Context) {
	rows, err := h.svc.List(c.Request.Context(), c.Query("owner"))
	if httpkit.HandleError(c, err) {
		return
	}
	httpkit.OK(c, gin.H{"rows": rows})
}

// Patch handles PATCH /api/v1/leads
func (h *Handler) Patch(c *gin.Context) {
	var req transport.PatchLeadRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		httpkit.Error(c, http.StatusBadRequest, apperr.CodeInvalidRequest, msgInvalidRequest)
		return
	}
	if err := h.val.Struct(req); err != nil {
		httpkit.Error(c, http.StatusBadRequest, apperr.CodeInvalidRequest, validator.Fields(err))
		return
	}
	if strings.TrimSpace(req.Actor) == "" {
		req.Actor = httpkit.Actor(c, "")
	}

	result, err := h.svc.Patch(c.Request.Context(), req)
	if httpkit.HandleError(c, err) {
		return
	}
	httpkit.OK(c, gin.H{"row": result.Row, "stageSuppressed": result.StageSuppressed})
}

// Delete handles DELETE /api/v1/leads?id=
func (h *Handler) Delete(c *gin.Context) {
	removed, err := h.svc.Delete(c.Request.Context(), c.Query("id"))
	if httpkit.HandleError(c, err) {
		return
	}
	httpkit.OK(c, gin.H{"removed": removed})
}

// RepairOwners handles POST /api/v1/leads/repair-owners
func (h *Handler) RepairOwners(c *gin.Context) {
	result, err := h.svc.RepairOwners(c.Request.Context())
	if httpkit.HandleError(c, err) {
		return
	}
	httpkit.OK(c, gin.H{"updated": result.Updated, "total": result.Total})
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if s := strings.TrimSpace(v); s != "" {
			return s
		}
	}
	return ""
}
