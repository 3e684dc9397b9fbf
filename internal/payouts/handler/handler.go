// Package handler exposes the policy payouts HTTP API.
package handler

import (
	"net/http"
	"strings"

	"leadops_backend/internal/payouts/service"
	"leadops_backend/internal/payouts/transport"
	"leadops_backend/platform/apperr"
	"leadops_backend/platform/httpkit"
	"leadops_backend/platform/validator"

	"github.com/gin-gonic/gin"
)

// Handler handles HTTP requests for policy submissions.
type Handler struct {
	svc *service.Service
	val *validator.Validator
}

// New creates a new payouts handler.
func New(svc *service.Service, val *validator.Validator) *Handler {
	return &Handler{svc: svc, val: val}
}

// RegisterAdminRoutes registers the operator routes.
func (h *Handler) RegisterAdminRoutes(rg *gin.RouterGroup) {
	rg.GET("", h.List)
	rg.POST("", h.Create)
	rg.PATCH("", h.Patch)
}

// List handles GET /api/v1/payouts/policies
func (h *Handler) List(c *gin.Context) {
	rows, err := h.svc.List(c.Request.Context())
	if httpkit.HandleError(c, err) {
		return
	}
	httpkit.OK(c, gin.H{"rows": rows})
}

// Create handles POST /api/v1/payouts/policies
func (h *Handler) Create(c *gin.Context) {
	var req transport.CreateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		httpkit.Error(c, http.StatusBadRequest, apperr.CodeInvalidRequest, nil)
		return
	}

	switch mode := strings.ToLower(strings.TrimSpace(req.Mode)); mode {
	case transport.ModeImportApplications:
		result, err := h.svc.ImportApplications(c.Request.Context())
		if httpkit.HandleError(c, err) {
			return
		}
		httpkit.OK(c, gin.H{"imported": result.Imported, "total": result.Total})
	case "", transport.ModeUpsert:
		if err := h.val.Struct(req); err != nil {
			httpkit.Error(c, http.StatusBadRequest, apperr.CodeInvalidRequest, validator.Fields(err))
			return
		}
		if req.Record == nil && strings.TrimSpace(req.SubmittedBy) == "" {
			req.SubmittedBy = httpkit.Actor(c, "")
		}
		row, err := h.svc.Create(c.Request.Context(), req)
		if httpkit.HandleError(c, err) {
			return
		}
		httpkit.OK(c, gin.H{"row": row})
	default:
		httpkit.HandleError(c, apperr.BadRequest(apperr.CodeUnsupportedMode, "unsupported mode "+mode))
	}
}

// Patch handles PATCH /api/v1/payouts/policies
func (h *Handler) Patch(c *gin.Context) {
	var req transport.PatchRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		httpkit.Error(c, http.StatusBadRequest, apperr.CodeInvalidRequest, nil)
		return
	}
	if err := h.val.Struct(req); err != nil {
		httpkit.Error(c, http.StatusBadRequest, apperr.CodeMissingID, validator.Fields(err))
		return
	}

	result, err := h.svc.Patch(c.Request.Context(), req)
	if httpkit.HandleError(c, err) {
		return
	}
	httpkit.OK(c, gin.H{"row": result.Row, "email": result.Email})
}
