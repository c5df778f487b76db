package handler

import (
	"time"

	"wallet-ledger/internal/adapter/http/middleware"
	"wallet-ledger/internal/core/ports"
	"wallet-ledger/pkg/apperror"
	"wallet-ledger/pkg/metrics"
	"wallet-ledger/pkg/response"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"
)

// RouterDeps holds all dependencies needed to set up routes.
type RouterDeps struct {
	Ledger           ports.LedgerService
	Statements       ports.StatementReader
	RateLimiter      ports.RateLimiter      // nil = rate limiting disabled
	IdempotencyCache ports.IdempotencyCache // nil = Idempotency-Key ignored
	IdempotencyTTL   time.Duration
	Confirm          ConfirmGuard
	AuditSvc         ports.AuditService // nil = audit logging disabled
	HealthCheckers   []ports.HealthChecker
	Logger           zerolog.Logger
}

// SetupRouter initialises the Gin engine with all routes and middleware.
func SetupRouter(deps RouterDeps) *gin.Engine {
	r := gin.New()

	// Global middleware
	r.Use(middleware.RequestID())
	r.Use(middleware.Recovery(deps.Logger))
	r.Use(middleware.RequestLogger(deps.Logger))
	r.Use(middleware.MaxBodySize(64 * 1024))

	// Audit logging (after response)
	if deps.AuditSvc != nil {
		r.Use(middleware.AuditLog(deps.AuditSvc))
	}

	r.GET("/health", HealthCheck(deps.HealthCheckers...))
	r.GET("/metrics", gin.WrapH(metrics.Handler()))

	swagger := r.Group("/swagger")
	{
		swagger.GET("", SwaggerUI)
		swagger.GET("/spec", SwaggerSpec)
	}

	rules := middleware.DefaultRateLimitRules()
	rl := func(group string) gin.HandlerFunc {
		if deps.RateLimiter == nil {
			return func(c *gin.Context) { c.Next() }
		}
		return middleware.RateLimiter(deps.RateLimiter, group, rules[group], deps.Logger)
	}

	idem := func(c *gin.Context) { c.Next() }
	if deps.IdempotencyCache != nil {
		idem = middleware.Idempotency(deps.IdempotencyCache, deps.IdempotencyTTL, deps.Logger)
	}

	clientHandler := NewClientHandler(deps.Ledger)
	walletHandler := NewWalletHandler(deps.Ledger, deps.Statements)
	paymentHandler := NewPaymentHandler(deps.Ledger, deps.Confirm, deps.Logger)

	v1 := r.Group("/api/v1")

	v1.POST("/clients", rl("clients"), idem, clientHandler.Register)

	wallets := v1.Group("/wallets")
	{
		wallets.POST("", rl("clients"), walletHandler.Create)
		wallets.POST("/recharge", rl("recharge"), idem, walletHandler.Recharge)
		wallets.GET("/balance", rl("queries"), walletHandler.GetBalance)
		wallets.GET("/transactions", rl("queries"), walletHandler.ListTransactions)
	}

	payments := v1.Group("/payments")
	{
		payments.POST("", rl("payments"), idem, paymentHandler.Reserve)
		payments.POST("/confirm", rl("payments"), idem, paymentHandler.Confirm)
	}

	r.NoRoute(func(c *gin.Context) {
		response.Error(c, apperror.ErrNotFound("Route"))
	})

	return r
}
