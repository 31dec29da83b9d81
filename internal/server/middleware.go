package server

import (
	"codetransform/internal/domain"
	"log/slog"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

const requestIDHeader = "X-Request-ID"

// requestID takes the caller's X-Request-ID or mints one, echoes it back and
// stores it in the request context.
func requestID() gin.HandlerFunc {
	return func(c *gin.Context) {
		id := c.GetHeader(requestIDHeader)
		if id == "" || len(id) > 128 {
			id = uuid.NewString()
		}

		c.Header(requestIDHeader, id)
		c.Request = c.Request.WithContext(domain.ContextWithRequestID(c.Request.Context(), id))

		c.Next()
	}
}

func requestLogger(log *slog.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()

		c.Next()

		ctx := c.Request.Context()
		status := c.Writer.Status()
		attrs := []any{
			"method", c.Request.Method,
			"path", c.Request.URL.Path,
			"status", status,
			"elapsed", time.Since(start).String(),
			"requestID", domain.RequestIDFromContext(ctx),
		}

		if status >= http.StatusInternalServerError {
			log.WarnContext(ctx, "Request is failed", attrs...)
			return
		}
		log.InfoContext(ctx, "Request is handled", attrs...)
	}
}

func recovery(log *slog.Logger) gin.HandlerFunc {
	return gin.CustomRecoveryWithWriter(nil, func(c *gin.Context, recovered any) {
		log.ErrorContext(c.Request.Context(), "Recovered from panic",
			"panic", recovered,
			"path", c.Request.URL.Path)

		writeProblem(c, http.StatusInternalServerError, problemTypeInternal, "Internal server error", "")
		c.Abort()
	})
}
