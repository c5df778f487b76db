package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"wallet-ledger/config"
	httpHandler "wallet-ledger/internal/adapter/http/handler"
	"wallet-ledger/internal/adapter/rpc"
	redisStorage "wallet-ledger/internal/adapter/storage/redis"
	"wallet-ledger/internal/core/ports"
	"wallet-ledger/internal/service"
	"wallet-ledger/internal/wiring"
	"wallet-ledger/pkg/logger"
	"wallet-ledger/pkg/metrics"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"
)

func main() {
	cfg, err := config.Load("")
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load config: %v\n", err)
		os.Exit(1)
	}

	log := logger.New("wallet-api", cfg.Log.Level, cfg.Log.Pretty)

	log.Info().
		Str("mode", cfg.Server.Mode).
		Int("port", cfg.Server.Port).
		Bool("remote_ledger", cfg.Ledger.URL != "").
		Msg("Starting wallet gateway")

	decimal.MarshalJSONWithoutQuotes = true
	metrics.Register()
	gin.SetMode(cfg.Server.Mode)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	rdb, err := wiring.OpenRedis(ctx, cfg.Redis, log)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to connect to Redis")
	}

	deps := httpHandler.RouterDeps{
		IdempotencyTTL: cfg.Idempotency.TTL,
		Confirm: httpHandler.ConfirmGuard{
			MaxAttempts: cfg.Reservation.MaxConfirmAttempts,
			Window:      cfg.Reservation.ConfirmAttemptWindow,
		},
		Logger: log,
	}
	if rdb != nil {
		defer rdb.Close()
		limiter := redisStorage.NewRateLimitStore(rdb)
		deps.RateLimiter = limiter
		deps.Confirm.Limiter = limiter
		deps.IdempotencyCache = redisStorage.NewIdempotencyCache(rdb)
		deps.HealthCheckers = append(deps.HealthCheckers, redisStorage.NewHealthCheck(rdb))
	}

	var auditRepo ports.AuditRepository
	waitNotifier := func() {}
	if cfg.Ledger.URL != "" {
		if cfg.RPC.Secret == "" {
			log.Fatal().Msg("rpc.secret is required to reach a remote ledger")
		}
		tokens := service.NewJWTTokenService(cfg.RPC.Secret, cfg.RPC.TokenTTL, cfg.RPC.Issuer)
		client := rpc.NewClient(cfg.Ledger.URL, cfg.Ledger.Timeout, tokens, log)
		deps.Ledger = client
		deps.Statements = client
		deps.HealthCheckers = append(deps.HealthCheckers, client)
	} else {
		repos, closeRepos, err := wiring.OpenRepositories(ctx, cfg.Database, log)
		if err != nil {
			log.Fatal().Err(err).Msg("Failed to open ledger store")
		}
		defer closeRepos()

		var notifier ports.TokenNotifier
		notifier, waitNotifier = wiring.NewNotifier(ctx, cfg.Notifier, repos.Notifications, log)
		ledger := wiring.NewLedger(repos, cfg.Reservation, notifier, log)
		deps.Ledger = ledger.Facade
		deps.Statements = ledger.Facade
		deps.HealthCheckers = append(deps.HealthCheckers, repos.Health)
		auditRepo = repos.Audits

		go service.NewReservationSweeper(ledger.Reservations, cfg.Reservation.SweepInterval, log).Run(ctx)
	}
	deps.AuditSvc = service.NewAuditService(auditRepo, log)

	// Load OpenAPI spec for Swagger UI
	if specBytes, err := os.ReadFile("docs/api/openapi.yaml"); err == nil {
		httpHandler.SetSwaggerSpec(specBytes)
		log.Info().Msg("OpenAPI spec loaded for Swagger UI at /swagger")
	} else {
		log.Warn().Err(err).Msg("OpenAPI spec not found, Swagger UI will be unavailable")
	}

	router := httpHandler.SetupRouter(deps)

	addr := fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port)
	srv := &http.Server{
		Addr:              addr,
		Handler:           router,
		ReadHeaderTimeout: 5 * time.Second,
	}

	go func() {
		log.Info().Str("addr", addr).Msg("HTTP server listening")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal().Err(err).Msg("HTTP server failed")
		}
	}()

	<-ctx.Done()
	log.Info().Msg("Shutting down server...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("Server forced to shutdown")
	}
	waitNotifier()

	log.Info().Msg("Server exited")
}
