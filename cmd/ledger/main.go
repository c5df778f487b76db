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

	log := logger.New("wallet-ledger", cfg.Log.Level, cfg.Log.Pretty)
	if cfg.RPC.Secret == "" {
		log.Fatal().Msg("rpc.secret is required")
	}

	decimal.MarshalJSONWithoutQuotes = true
	metrics.Register()
	gin.SetMode(cfg.Server.Mode)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	repos, closeRepos, err := wiring.OpenRepositories(ctx, cfg.Database, log)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to open ledger store")
	}
	defer closeRepos()

	rdb, err := wiring.OpenRedis(ctx, cfg.Redis, log)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to connect to Redis")
	}

	checkers := []ports.HealthChecker{repos.Health}
	var nonces ports.NonceStore
	if rdb != nil {
		defer rdb.Close()
		nonces = redisStorage.NewNonceStore(rdb)
		checkers = append(checkers, redisStorage.NewHealthCheck(rdb))
	}

	notifier, waitNotifier := wiring.NewNotifier(ctx, cfg.Notifier, repos.Notifications, log)
	ledger := wiring.NewLedger(repos, cfg.Reservation, notifier, log)

	sweeper := service.NewReservationSweeper(ledger.Reservations, cfg.Reservation.SweepInterval, log)
	go sweeper.Run(ctx)

	router := rpc.SetupRouter(rpc.RouterDeps{
		Ledger:         ledger.Facade,
		Statements:     ledger.Facade,
		TokenSvc:       service.NewJWTTokenService(cfg.RPC.Secret, cfg.RPC.TokenTTL, cfg.RPC.Issuer),
		NonceStore:     nonces,
		HealthCheckers: checkers,
		Logger:         log,
	})

	addr := fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port)
	srv := &http.Server{
		Addr:              addr,
		Handler:           router,
		ReadHeaderTimeout: 5 * time.Second,
	}

	go func() {
		log.Info().Str("addr", addr).Msg("Ledger service listening")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal().Err(err).Msg("HTTP server failed")
		}
	}()

	<-ctx.Done()
	log.Info().Msg("Shutting down ledger service...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("Server forced to shutdown")
	}
	waitNotifier()

	log.Info().Msg("Ledger service exited")
}
