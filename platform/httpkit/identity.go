package httpkit

import (
	"strings"

	"github.com/gin-gonic/gin"
)

// Actor returns the operator name attached by AdminAuth, falling back to the
// given default when the request is anonymous.
func Actor(c *gin.Context, fallback string) string {
	if v, ok := c.Get(ContextActorKey); ok {
		if name, ok := v.(string); ok && strings.TrimSpace(name) != "" {
			return strings.TrimSpace(name)
		}
	}
	return fallback
}
