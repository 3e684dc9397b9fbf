// Package httpkit provides HTTP middleware infrastructure.
// This is part of the platform layer and contains no business logic.
package httpkit

import (
	"context"
	"crypto/subtle"
	"errors"
	"net/http"
	"strings"
	"sync"
	"time"

	"leadops_backend/platform/apperr"
	"leadops_backend/platform/config"
	"leadops_backend/platform/logger"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"golang.org/x/time/rate"
)

const (
	// ContextActorKey is the gin context key for the acting operator name.
	ContextActorKey = "actor"
	// ContextRequestIDKey is the gin context key for the request id.
	ContextRequestIDKey = "requestID"

	headerRequestID = "X-Request-Id"
)

// RequestID assigns a request id (honouring an inbound X-Request-Id) and
// stores it on both the gin context and the request context for logging.
func RequestID() gin.HandlerFunc {
	return func(c *gin.Context) {
		id := strings.TrimSpace(c.GetHeader(headerRequestID))
		if id == "" {
			id = uuid.NewString()
		}
		c.Set(ContextRequestIDKey, id)
		c.Header(headerRequestID, id)
		ctx := context.WithValue(c.Request.Context(), logger.RequestIDKey, id)
		c.Request = c.Request.WithContext(ctx)
		c.Next()
	}
}

// RequestLogger logs HTTP requests with timing.
func RequestLogger(log *logger.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		path := c.Request.URL.Path

		c.Next()

		latency := time.Since(start)
		status := c.Writer.Status()
		clientIP := c.ClientIP()

		reqLog := log.WithContext(c.Request.Context())
		if len(c.Errors) > 0 {
			reqLog.HTTPError(c.Request.Method, path, status, c.Errors.Last(), clientIP)
			return
		}
		reqLog.HTTPRequest(c.Request.Method, path, status, float64(latency.Milliseconds()), clientIP)
	}
}

// SecurityHeaders adds security headers to responses.
func SecurityHeaders() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Header("X-Content-Type-Options", "nosniff")
		c.Header("X-Frame-Options", "DENY")
		c.Header("Referrer-Policy", "strict-origin-when-cross-origin")

		if c.Request.TLS != nil {
			c.Header("Strict-Transport-Security", "max-age=31536000; includeSubDomains")
		}

		c.Next()
	}
}

// IPRateLimiter manages per-IP rate limiters.
type IPRateLimiter struct {
	limiters sync.Map
	rate     rate.Limit
	burst    int
	log      *logger.Logger
}

// NewIPRateLimiter creates a new IP-based rate limiter.
func NewIPRateLimiter(r rate.Limit, burst int, log *logger.Logger) *IPRateLimiter {
	return &IPRateLimiter{
		rate:  r,
		burst: burst,
		log:   log,
	}
}

func (i *IPRateLimiter) getLimiter(ip string) *rate.Limiter {
	limiter, _ := i.limiters.LoadOrStore(ip, rate.NewLimiter(i.rate, i.burst))
	return limiter.(*rate.Limiter)
}

// RateLimit returns a middleware that rate limits by IP.
func (i *IPRateLimiter) RateLimit() gin.HandlerFunc {
	return func(c *gin.Context) {
		ip := c.ClientIP()
		if !i.getLimiter(ip).Allow() {
			if i.log != nil {
				i.log.RateLimitExceeded(ip, c.Request.URL.Path)
			}
			c.AbortWithStatusJSON(http.StatusTooManyRequests, ErrorResponse{Error: "rate_limited"})
			return
		}

		c.Next()
	}
}

// NewWebhookRateLimiter creates the limiter shared by inbound webhook routes
// (intake, Telegram, Facebook lead forms): 120 requests per minute, burst 30.
func NewWebhookRateLimiter(log *logger.Logger) *IPRateLimiter {
	return NewIPRateLimiter(rate.Limit(2), 30, log)
}

// SecretMatches compares a request-supplied token against the configured
// secret. An empty configured secret disables the check.
func SecretMatches(configured, supplied string) bool {
	configured = strings.TrimSpace(configured)
	if configured == "" {
		return true
	}
	supplied = strings.TrimSpace(supplied)
	return subtle.ConstantTimeCompare([]byte(configured), []byte(supplied)) == 1
}

// SharedSecret returns middleware that checks the first non-empty header of
// headerNames (or a Bearer token) against secret(). Routes whose token may
// also arrive in the JSON body check it themselves with SecretMatches.
func SharedSecret(secret func() string, headerNames ...string) gin.HandlerFunc {
	return func(c *gin.Context) {
		if SecretMatches(secret(), suppliedToken(c, headerNames)) {
			c.Next()
			return
		}
		abortUnauthorized(c)
	}
}

func suppliedToken(c *gin.Context, headerNames []string) string {
	for _, name := range headerNames {
		if v := strings.TrimSpace(c.GetHeader(name)); v != "" {
			return v
		}
	}
	if token, ok := extractBearerToken(c.GetHeader("Authorization")); ok {
		return token
	}
	return ""
}

// AdminAuth validates optional HS256 admin bearer tokens. When no secret is
// configured the admin group stays open and the actor falls back to the
// X-Actor header.
func AdminAuth(cfg config.AdminAuthConfig) gin.HandlerFunc {
	return func(c *gin.Context) {
		secret := cfg.GetAdminJWTSecret()
		if secret == "" {
			if actor := strings.TrimSpace(c.GetHeader("X-Actor")); actor != "" {
				c.Set(ContextActorKey, actor)
			}
			c.Next()
			return
		}

		rawToken, ok := extractBearerToken(c.GetHeader("Authorization"))
		if !ok {
			abortUnauthorized(c)
			return
		}

		claims, err := ParseAdminToken(rawToken, secret)
		if err != nil {
			abortUnauthorized(c)
			return
		}

		c.Set(ContextActorKey, claims.Subject)
		c.Next()
	}
}

// AdminClaims are the claims carried by an operator token.
type AdminClaims struct {
	jwt.RegisteredClaims
}

// IssueAdminToken signs an operator token for subject valid for ttl.
func IssueAdminToken(secret, subject string, ttl time.Duration, now time.Time) (string, error) {
	if secret == "" {
		return "", errors.New("admin jwt secret not configured")
	}
	claims := AdminClaims{RegisteredClaims: jwt.RegisteredClaims{
		Subject:   subject,
		IssuedAt:  jwt.NewNumericDate(now),
		ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
	}}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(secret))
}

// ParseAdminToken validates an operator token and returns its claims.
func ParseAdminToken(rawToken, secret string) (*AdminClaims, error) {
	claims := &AdminClaims{}
	parsed, err := jwt.ParseWithClaims(rawToken, claims, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, errors.New("invalid signing method")
		}
		return []byte(secret), nil
	})
	if err != nil || !parsed.Valid {
		return nil, errors.New("invalid token")
	}
	if strings.TrimSpace(claims.Subject) == "" {
		return nil, errors.New("invalid token")
	}
	return claims, nil
}

func extractBearerToken(authHeader string) (string, bool) {
	if !strings.HasPrefix(authHeader, "Bearer ") {
		return "", false
	}

	rawToken := strings.TrimSpace(strings.TrimPrefix(authHeader, "Bearer "))
	if rawToken == "" {
		return "", false
	}

	return rawToken, true
}

func abortUnauthorized(c *gin.Context) {
	c.AbortWithStatusJSON(http.StatusUnauthorized, ErrorResponse{Error: apperr.CodeUnauthorized})
}
