// Package wiring assembles the ledger services from configuration. It is
// shared by the binaries and by end-to-end tests.
package wiring

import (
	"context"
	"net/http"

	"wallet-ledger/config"
	"wallet-ledger/internal/adapter/storage/memory"
	"wallet-ledger/internal/adapter/storage/postgres"
	"wallet-ledger/internal/core/ports"
	"wallet-ledger/internal/service"

	"github.com/rs/zerolog"
)

// Repositories groups the storage ports the ledger services run on.
type Repositories struct {
	Clients       ports.ClientRepository
	Wallets       ports.WalletRepository
	Ledger        ports.LedgerRepository
	Reservations  ports.ReservationRepository
	Audits        ports.AuditRepository
	Notifications ports.NotificationRepository
	Transactor    ports.DBTransactor
	Health        ports.HealthChecker
}

// PostgresRepositories backs every port with the pgx repositories.
func PostgresRepositories(pool postgres.Pool) Repositories {
	return Repositories{
		Clients:       postgres.NewClientRepo(pool),
		Wallets:       postgres.NewWalletRepo(pool),
		Ledger:        postgres.NewLedgerRepo(pool),
		Reservations:  postgres.NewReservationRepo(pool),
		Audits:        postgres.NewAuditRepo(pool),
		Notifications: postgres.NewNotificationRepo(pool),
		Transactor:    postgres.NewTransactor(pool),
		Health:        postgres.NewHealthCheck(pool),
	}
}

// MemoryRepositories backs every port with one in-memory store.
func MemoryRepositories(store *memory.Store) Repositories {
	return Repositories{
		Clients:       store.Clients(),
		Wallets:       store.Wallets(),
		Ledger:        store.Ledger(),
		Reservations:  store.Reservations(),
		Audits:        store.Audits(),
		Notifications: store.Notifications(),
		Transactor:    store,
		Health:        store,
	}
}

// Ledger is the assembled core.
type Ledger struct {
	Facade       *service.LedgerFacade
	Reservations ports.ReservationManager
}

// NewLedger builds the core services over repos.
func NewLedger(repos Repositories, cfg config.ReservationConfig, notifier ports.TokenNotifier, log zerolog.Logger) *Ledger {
	clients := service.NewClientService(repos.Clients, repos.Wallets, repos.Transactor, log)
	wallets := service.NewWalletService(repos.Clients, repos.Wallets, repos.Ledger, repos.Transactor, log)
	reservations := service.NewReservationService(
		repos.Clients,
		repos.Wallets,
		repos.Ledger,
		repos.Reservations,
		repos.Transactor,
		service.NewNumericCodeGenerator(),
		notifier,
		service.ReservationPolicy{
			TTL:                   cfg.TTL,
			EnforceFundsOnConfirm: cfg.EnforceFundsOnConfirm,
		},
		log,
	)
	statements := service.NewStatementService(repos.Clients, repos.Wallets, repos.Ledger)

	return &Ledger{
		Facade:       service.NewLedgerFacade(clients, wallets, reservations, statements, log),
		Reservations: reservations,
	}
}

// NewNotifier returns the webhook notifier when a URL is configured and the
// log-only notifier otherwise. Background deliveries end with ctx; the
// returned wait func blocks until they have, so it must run before the
// repositories are closed.
func NewNotifier(ctx context.Context, cfg config.NotifierConfig, repo ports.NotificationRepository, log zerolog.Logger) (ports.TokenNotifier, func()) {
	if cfg.WebhookURL == "" {
		log.Warn().Msg("notifier.webhook_url not set, reservation tokens are only logged")
		return service.NewLogNotifier(log), func() {}
	}
	n := service.NewWebhookNotifier(
		ctx,
		service.WebhookNotifierConfig{
			URL:            cfg.WebhookURL,
			Secret:         cfg.Secret,
			RetryIntervals: cfg.RetryIntervals,
		},
		repo,
		service.NewHMACSignatureService(),
		&http.Client{Timeout: cfg.Timeout},
		log,
	)
	return n, n.Wait
}
