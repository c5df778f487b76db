package middleware

import (
	"net/http"
	"strings"
	"time"

	"wallet-ledger/internal/core/ports"
	"wallet-ledger/pkg/apperror"
	"wallet-ledger/pkg/response"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

const (
	HeaderRequestID      = "X-Request-ID"
	HeaderIdempotencyKey = "Idempotency-Key"

	// Context keys set by handlers for the audit trail.
	CtxClientID   = "client_id"
	CtxResourceID = "resource_id"
	CtxOutcome    = "outcome"

	// Context key holding the authenticated service subject.
	CtxServiceSubject = "service_subject"

	// Extra time a token id is remembered after the token expires.
	nonceGrace = 30 * time.Second
)

// RequestID propagates the caller's X-Request-ID or assigns a new one.
func RequestID() gin.HandlerFunc {
	return func(c *gin.Context) {
		id := strings.TrimSpace(c.GetHeader(HeaderRequestID))
		if id == "" || len(id) > 64 {
			id = uuid.NewString()
		}
		c.Set(response.RequestIDKey, id)
		c.Header(HeaderRequestID, id)
		c.Next()
	}
}

// ServiceAuth validates the bearer JWT presented by the gateway. When nonces
// is set every token id is accepted once.
func ServiceAuth(tokenSvc ports.TokenService, nonces ports.NonceStore, log zerolog.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		authHeader := c.GetHeader("Authorization")
		if !strings.HasPrefix(authHeader, "Bearer ") {
			response.Error(c, apperror.ErrUnauthorized("Missing bearer token"))
			c.Abort()
			return
		}

		claims, err := tokenSvc.Validate(strings.TrimPrefix(authHeader, "Bearer "))
		if err != nil {
			log.Warn().Err(err).Str("client_ip", c.ClientIP()).Msg("service token rejected")
			response.Error(c, apperror.ErrUnauthorized("Invalid service token"))
			c.Abort()
			return
		}

		if nonces != nil {
			ttl := time.Until(claims.ExpiresAt) + nonceGrace
			fresh, err := nonces.Claim(c.Request.Context(), "jti:"+claims.TokenID, ttl)
			if err != nil {
				log.Error().Err(err).Msg("service token replay check failed")
				response.Error(c, apperror.InternalError(err))
				c.Abort()
				return
			}
			if !fresh {
				log.Warn().Str("jti", claims.TokenID).Msg("service token replayed")
				response.Error(c, apperror.ErrUnauthorized("Service token already used"))
				c.Abort()
				return
			}
		}

		c.Set(CtxServiceSubject, claims.Subject)
		c.Next()
	}
}

// MaxBodySize limits the request body. Reads past the limit fail, which
// surfaces as a binding error in the handler.
func MaxBodySize(maxBytes int64) gin.HandlerFunc {
	return func(c *gin.Context) {
		if c.Request.Body != nil {
			c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, maxBytes)
		}
		c.Next()
	}
}

// RequestLogger creates a middleware that logs every HTTP request.
func RequestLogger(log zerolog.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()
		latency := time.Since(start)
		status := c.Writer.Status()

		event := log.Info()
		if status >= http.StatusInternalServerError {
			event = log.Error()
		} else if status >= http.StatusBadRequest {
			event = log.Warn()
		}

		event.
			Str("method", c.Request.Method).
			Str("path", c.Request.URL.Path).
			Int("status", status).
			Dur("latency", latency).
			Str("client_ip", c.ClientIP()).
			Str("request_id", c.GetString(response.RequestIDKey)).
			Msg("http request")
	}
}

// Recovery turns a panic into a 500 envelope.
func Recovery(log zerolog.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		defer func() {
			if r := recover(); r != nil {
				log.Error().Interface("panic", r).Str("path", c.Request.URL.Path).Msg("panic recovered")
				response.Error(c, apperror.New(apperror.KindPersistence, apperror.CodeServerError, "Internal server error", http.StatusInternalServerError))
				c.Abort()
			}
		}()
		c.Next()
	}
}
