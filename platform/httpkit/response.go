// Package httpkit provides HTTP response utilities.
// This is part of the platform layer and contains no business logic.
package httpkit

import (
	"errors"
	"net/http"

	"leadops_backend/platform/apperr"

	"github.com/gin-gonic/gin"
)

// ErrorResponse is the standard failure envelope.
type ErrorResponse struct {
	OK      bool        `json:"ok"`
	Error   string      `json:"error"`
	Message string      `json:"message,omitempty"`
	Details interface{} `json:"details,omitempty"`
}

// JSON sends a JSON response with the given status code.
func JSON(c *gin.Context, status int, payload interface{}) {
	c.JSON(status, payload)
}

// Error sends a failure envelope with the given status code and reason code.
func Error(c *gin.Context, status int, code string, details interface{}) {
	c.JSON(status, ErrorResponse{OK: false, Error: code, Details: details})
}

// OK sends a 200 success envelope. Fields are merged next to "ok":true.
func OK(c *gin.Context, fields gin.H) {
	Success(c, http.StatusOK, fields)
}

// Success sends a success envelope with the given status code.
func Success(c *gin.Context, status int, fields gin.H) {
	body := gin.H{"ok": true}
	for k, v := range fields {
		body[k] = v
	}
	c.JSON(status, body)
}

// HandleError maps domain errors to HTTP responses.
// Typed *apperr.Error values carry their own status and reason code; anything
// else is reported as an internal error so callers always receive a body.
// Returns true if an error was handled, false otherwise.
func HandleError(c *gin.Context, err error) bool {
	if err == nil {
		return false
	}

	var domainErr *apperr.Error
	if errors.As(err, &domainErr) {
		c.JSON(domainErr.HTTPStatus(), ErrorResponse{
			OK:      false,
			Error:   domainErr.Code,
			Message: domainErr.Message,
			Details: domainErr.Details,
		})
		return true
	}

	c.JSON(http.StatusInternalServerError, ErrorResponse{
		OK:      false,
		Error:   apperr.CodeInternal,
		Message: err.Error(),
	})
	return true
}
