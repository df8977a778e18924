package middleware

import (
	"log/slog"
	"net/http"
	"strings"
	"time"

	"storefront/pkg/ctxmanage"
	"storefront/pkg/logkey"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

// Logger assigns a trace id to every request and logs method, path, status
// and duration once the handler chain finishes.
func Logger() gin.HandlerFunc {
	return func(c *gin.Context) {
		traceId := uuid.NewString()
		ctx := ctxmanage.WithTraceId(c.Request.Context(), traceId)
		c.Request = c.Request.WithContext(ctx)

		start := time.Now()
		c.Next()

		slog.Info("request completed",
			slog.String(logkey.TraceID, traceId),
			slog.String("Method", c.Request.Method),
			slog.String("Path", c.Request.URL.Path),
			slog.Int("Status", c.Writer.Status()),
			slog.String("Duration", time.Since(start).String()),
		)
	}
}

// BearerAuth guards internal endpoints with a static shared secret.
// Requests must carry `Authorization: Bearer <secret>`.
func BearerAuth(secret string) gin.HandlerFunc {
	return func(c *gin.Context) {
		if secret == "" {
			// Misconfiguration, not a client error. Refuse everything.
			traceId := ctxmanage.GetTraceIdOfRequest(c)
			slog.Error("bearer secret is not configured", slog.String(logkey.TraceID, traceId))
			c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"error": "server is not configured"})
			return
		}

		auth := c.GetHeader("Authorization")
		token := ""
		if strings.HasPrefix(strings.ToLower(auth), "bearer ") {
			token = strings.TrimSpace(auth[len("bearer "):])
		}
		if token != secret {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "Unauthorized"})
			return
		}
		c.Next()
	}
}
