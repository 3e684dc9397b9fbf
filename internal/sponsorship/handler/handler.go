// Package handler exposes the sponsorship applications HTTP API.
package handler

import (
	"net/http"
	"strings"

	"leadops_backend/internal/sponsorship/service"
	"leadops_backend/internal/sponsorship/transport"
	"leadops_backend/platform/apperr"
	"leadops_backend/platform/httpkit"
	"leadops_backend/platform/validator"

	"github.com/gin-gonic/gin"
)

// Handler handles HTTP requests for sponsorship applications.
type Handler struct {
	svc *service.Service
	val *validator.Validator
}

// New creates a new sponsorship handler.
func New(svc *service.Service, val *validator.Validator) *Handler {
	return &Handler{svc: svc, val: val}
}

// RegisterPublicRoutes registers the application form route.
func (h *Handler) RegisterPublicRoutes(rg *gin.RouterGroup) {
	rg.POST("", h.Submit)
}

// RegisterAdminRoutes registers the operator routes.
func (h *Handler) RegisterAdminRoutes(rg *gin.RouterGroup) {
	rg.GET("", h.List)
	rg.DELETE("", h.Delete)
	rg.POST("/review", h.Review)
	rg.GET("/approved-not-booked", h.ApprovedNotBooked)
}

// Submit handles POST /api/v1/sponsorship/applications
func (h *Handler) Submit(c *gin.Context) {
	var req transport.WriteRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		httpkit.Error(c, http.StatusBadRequest, apperr.CodeInvalidRequest, nil)
		return
	}
	mode := strings.ToLower(strings.TrimSpace(req.Mode))
	if mode != "" && mode != transport.ModeSubmit {
		httpkit.HandleError(c, apperr.BadRequest(apperr.CodeUnsupportedMode, "unsupported mode "+mode))
		return
	}
	if err := h.val.Struct(req.SubmitRequest); err != nil {
		httpkit.Error(c, http.StatusBadRequest, apperr.CodeInvalidRequest, validator.Fields(err))
		return
	}

	row, err := h.svc.Submit(c.Request.Context(), req.SubmitRequest)
	if httpkit.HandleError(c, err) {
		return
	}
	httpkit.OK(c, gin.H{"row": row})
}

// Review handles POST /api/v1/sponsorship/applications/review
func (h *Handler) Review(c *gin.Context) {
	var req transport.ReviewRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		httpkit.Error(c, http.StatusBadRequest, apperr.CodeInvalidRequest, nil)
		return
	}
	if err := h.val.Struct(req); err != nil {
		httpkit.Error(c, http.StatusBadRequest, apperr.CodeMissingFields, validator.Fields(err))
		return
	}
	if strings.TrimSpace(req.ReviewedBy) == "" {
		req.ReviewedBy = httpkit.Actor(c, "")
	}

	row, err := h.svc.Review(c.Request.Context(), req)
	if httpkit.HandleError(c, err) {
		return
	}
	httpkit.OK(c, gin.H{"row": row})
}

// List handles GET /api/v1/sponsorship/applications?status=
func (h *Handler) List(c *gin.Context) {
	rows, err := h.svc.List(c.Request.Context(), c.Query("status"))
	if httpkit.HandleError(c, err) {
		return
	}
	httpkit.OK(c, gin.H{"rows": rows})
}

// Delete handles DELETE /api/v1/sponsorship/applications?id=
func (h *Handler) Delete(c *gin.Context) {
	removed, err := h.svc.Delete(c.Request.Context(), c.Query("id"))
	if httpkit.HandleError(c, err) {
		return
	}
	httpkit.OK(c, gin.H{"removed": removed})
}

// ApprovedNotBooked handles GET /api/v1/sponsorship/applications/approved-not-booked
func (h *Handler) ApprovedNotBooked(c *gin.Context) {
	rows, err := h.svc.ApprovedNotBooked(c.Request.Context())
	if httpkit.HandleError(c, err) {
		return
	}
	httpkit.OK(c, gin.H{"rows": rows, "count": len(rows)})
}
