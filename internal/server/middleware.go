package server

import (
	"strings"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/vanigatech/vaniga/internal/bizcontext"
	"go.uber.org/zap"
)

const (
	HeaderBusiness  = "X-Business-ID"
	HeaderRequestID = "X-Request-ID"
)

func RequestID() gin.HandlerFunc {
	return func(c *gin.Context) {
		id := strings.TrimSpace(c.GetHeader(HeaderRequestID))
		if id == "" {
			id = uuid.NewString()
		}
		c.Set("request_id", id)
		c.Header(HeaderRequestID, id)
		c.Next()
	}
}

func RequestLogger(log *zap.Logger) gin.HandlerFunc {
	log = log.Named("http.access")
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		fields := []zap.Field{
			zap.String("method", c.Request.Method),
			zap.String("path", c.FullPath()),
			zap.Int("status", c.Writer.Status()),
			zap.Duration("duration", time.Since(start)),
			zap.String("request_id", c.GetString("request_id")),
		}
		if last := c.Errors.Last(); last != nil {
			fields = append(fields, zap.Error(last.Err))
		}
		log.Info("request", fields...)
	}
}

// BusinessRequired resolves the acting business from the X-Business-ID header
// and injects it into the request context. Identity is opaque here; any
// authentication layer in front terminates before this service.
func (s *Server) BusinessRequired() gin.HandlerFunc {
	return func(c *gin.Context) {
		raw := strings.TrimSpace(c.GetHeader(HeaderBusiness))
		if raw == "" {
			AbortWithError(c, ErrUnauthorized)
			return
		}

		id, err := snowflake.ParseString(raw)
		if err != nil || id == 0 {
			AbortWithError(c, ErrUnauthorized)
			return
		}

		ctx := bizcontext.WithBusinessID(c.Request.Context(), id)
		c.Request = c.Request.WithContext(ctx)
		c.Next()
	}
}

// MutationRateLimit throttles transaction writes per business.
func (s *Server) MutationRateLimit() gin.HandlerFunc {
	return func(c *gin.Context) {
		key := strings.TrimSpace(c.GetHeader(HeaderBusiness))
		if key == "" {
			key = c.ClientIP()
		}
		if !s.mutationLimiter.Allow(key) {
			AbortWithError(c, ErrTooManyRequests)
			return
		}
		c.Next()
	}
}
