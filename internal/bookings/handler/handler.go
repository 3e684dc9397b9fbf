// Package handler exposes the sponsorship bookings HTTP API.
package handler

import (
	"net/http"
	"strings"

	"leadops_backend/internal/bookings/service"
	"leadops_backend/internal/bookings/transport"
	"leadops_backend/internal/telegram"
	"leadops_backend/platform/apperr"
	"leadops_backend/platform/httpkit"
	"leadops_backend/platform/validator"

	"github.com/gin-gonic/gin"
)

// Handler handles HTTP requests for bookings.
type Handler struct {
	svc *service.Service
	val *validator.Validator
}

// New creates a new bookings handler.
func New(svc *service.Service, val *validator.Validator) *Handler {
	return &Handler{svc: svc, val: val}
}

// RegisterPublicRoutes registers the booking page and bot webhook routes.
func (h *Handler) RegisterPublicRoutes(rg *gin.RouterGroup) {
	rg.POST("", h.Write)
	rg.POST("/telegram-webhook", h.TelegramWebhook)
}

// RegisterAdminRoutes registers the operator routes.
func (h *Handler) RegisterAdminRoutes(rg *gin.RouterGroup) {
	rg.GET("", h.List)
}

// Write handles POST /api/v1/bookings for the upsert and claim modes.
func (h *Handler) Write(c *gin.Context) {
	var req transport.WriteRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		httpkit.Error(c, http.StatusBadRequest, apperr.CodeInvalidRequest, nil)
		return
	}

	mode := strings.ToLower(strings.TrimSpace(req.Mode))
	if mode == "" {
		mode = transport.ModeUpsert
	}

	switch mode {
	case transport.ModeUpsert:
		row, err := h.svc.Upsert(c.Request.Context(), req.Booking)
		if httpkit.HandleError(c, err) {
			return
		}
		httpkit.OK(c, gin.H{"row": row})

	case transport.ModeClaim:
		claim := transport.ClaimRequest{
			BookingID: strings.TrimSpace(req.BookingID),
			ClaimedBy: strings.TrimSpace(req.ClaimedBy),
		}
		if err := h.val.Struct(claim); err != nil {
			httpkit.Error(c, http.StatusBadRequest, apperr.CodeMissingFields, validator.Fields(err))
			return
		}
		row, err := h.svc.Claim(c.Request.Context(), claim)
		if httpkit.HandleError(c, err) {
			return
		}
		httpkit.OK(c, gin.H{"row": row})

	default:
		httpkit.HandleError(c, apperr.BadRequest(apperr.CodeUnsupportedMode, "unsupported mode "+mode))
	}
}

// List handles GET /api/v1/bookings
func (h *Handler) List(c *gin.Context) {
	rows, err := h.svc.List(c.Request.Context())
	if httpkit.HandleError(c, err) {
		return
	}
	httpkit.OK(c, gin.H{"rows": rows})
}

// TelegramWebhook handles POST /api/v1/bookings/telegram-webhook
func (h *Handler) TelegramWebhook(c *gin.Context) {
	var update telegram.Update
	if err := c.ShouldBindJSON(&update); err != nil {
		httpkit.OK(c, gin.H{"skipped": transport.SkippedNoText})
		return
	}

	result, err := h.svc.TelegramClaim(c.Request.Context(), update)
	if httpkit.HandleError(c, err) {
		return
	}
	httpkit.OK(c, gin.H{
		"skipped":   result.Skipped,
		"bookingId": result.BookingID,
		"claimedBy": result.ClaimedBy,
		"duplicate": result.Duplicate,
		"email":     result.Email,
	})
}
