package ports

//go:generate mockgen -source=repositories.go -destination=mocks/mock_repositories.go -package=mocks

import (
	"context"
	"errors"
	"time"

	"wallet-ledger/internal/core/domain"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/shopspring/decimal"
)

var (
	// ErrDuplicateClient is returned when (document, phone) is already registered.
	ErrDuplicateClient = errors.New("client already registered")
	// ErrInsufficientBalance is returned by a guarded debit that would overdraw.
	ErrInsufficientBalance = errors.New("insufficient balance")
)

// ClientRepository defines persistence operations for clients.
type ClientRepository interface {
	Create(ctx context.Context, tx pgx.Tx, client *domain.Client) error
	GetByDocumentAndPhone(ctx context.Context, document, phone string) (*domain.Client, error)
}

// WalletRepository defines persistence operations for wallets.
// Credit and Debit apply the delta server-side and return the updated wallet,
// or nil when the client owns no wallet.
type WalletRepository interface {
	Create(ctx context.Context, tx pgx.Tx, wallet *domain.Wallet) error
	GetByClientID(ctx context.Context, clientID uuid.UUID) (*domain.Wallet, error)
	Credit(ctx context.Context, tx pgx.Tx, clientID uuid.UUID, amount decimal.Decimal) (*domain.Wallet, error)
	// Debit subtracts amount. With requireFunds the debit only applies while
	// balance >= amount and ErrInsufficientBalance is returned otherwise.
	Debit(ctx context.Context, tx pgx.Tx, clientID uuid.UUID, amount decimal.Decimal, requireFunds bool) (*domain.Wallet, error)
}

// LedgerRepository is the append-only journal of balance changes.
type LedgerRepository interface {
	Append(ctx context.Context, tx pgx.Tx, entry *domain.LedgerEntry) error
	ListByWallet(ctx context.Context, params LedgerListParams) ([]domain.LedgerEntry, int64, error)
}

// LedgerListParams holds filter + pagination for listing ledger entries.
type LedgerListParams struct {
	WalletID  uuid.UUID
	Direction *domain.EntryDirection
	Page      int
	PageSize  int
}

// ReservationRepository defines persistence operations for payment reservations.
type ReservationRepository interface {
	Create(ctx context.Context, tx pgx.Tx, reservation *domain.PaymentReservation) error
	GetByID(ctx context.Context, id uuid.UUID) (*domain.PaymentReservation, error)
	// GetRedeemableForUpdate returns the reservation matching (id, token) that
	// is still pending and unexpired at now, locked for the rest of tx.
	GetRedeemableForUpdate(ctx context.Context, tx pgx.Tx, id uuid.UUID, token string, now time.Time) (*domain.PaymentReservation, error)
	MarkConfirmed(ctx context.Context, tx pgx.Tx, id uuid.UUID, confirmedAt time.Time) error
	ExpireOverdue(ctx context.Context, now time.Time) (int64, error)
}

// AuditRepository defines persistence for audit logs.
type AuditRepository interface {
	Create(ctx context.Context, log *domain.AuditLog) error
}

// NotificationRepository defines persistence for token delivery attempts.
type NotificationRepository interface {
	Create(ctx context.Context, delivery *domain.NotificationDelivery) error
	Update(ctx context.Context, delivery *domain.NotificationDelivery) error
	ListByReservation(ctx context.Context, reservationID uuid.UUID) ([]domain.NotificationDelivery, error)
}

// DBTransactor provides transaction management.
type DBTransactor interface {
	Begin(ctx context.Context) (pgx.Tx, error)
}
