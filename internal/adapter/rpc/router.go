package rpc

import (
	"wallet-ledger/internal/adapter/http/handler"
	"wallet-ledger/internal/adapter/http/middleware"
	"wallet-ledger/internal/core/ports"
	"wallet-ledger/pkg/apperror"
	"wallet-ledger/pkg/metrics"
	"wallet-ledger/pkg/response"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"
)

// RouterDeps holds the dependencies of the ledger service router.
type RouterDeps struct {
	Ledger         ports.LedgerService
	Statements     ports.StatementReader
	TokenSvc       ports.TokenService
	NonceStore     ports.NonceStore // nil disables replay protection
	HealthCheckers []ports.HealthChecker
	Logger         zerolog.Logger
}

// SetupRouter builds the gin engine of the ledger service.
func SetupRouter(deps RouterDeps) *gin.Engine {
	r := gin.New()

	r.Use(middleware.RequestID())
	r.Use(middleware.Recovery(deps.Logger))
	r.Use(middleware.RequestLogger(deps.Logger))
	r.Use(middleware.MaxBodySize(64 * 1024))

	r.GET("/health", handler.HealthCheck(deps.HealthCheckers...))
	r.GET("/metrics", gin.WrapH(metrics.Handler()))

	srv := NewServer(deps.Ledger, deps.Statements, deps.Logger)
	r.POST(Path, middleware.ServiceAuth(deps.TokenSvc, deps.NonceStore, deps.Logger), srv.Handle)

	r.NoRoute(func(c *gin.Context) {
		response.Error(c, apperror.ErrNotFound("Route"))
	})

	return r
}
