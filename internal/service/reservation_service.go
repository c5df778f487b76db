package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"wallet-ledger/internal/core/domain"
	"wallet-ledger/internal/core/ports"
	"wallet-ledger/pkg/apperror"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

// ReservationPolicy configures the lifecycle of payment reservations.
type ReservationPolicy struct {
	// TTL of a pending reservation. Zero means it never expires.
	TTL time.Duration
	// EnforceFundsOnConfirm refuses a confirm that would overdraw the wallet.
	// When false the debit is applied against the current balance as is.
	EnforceFundsOnConfirm bool
}

// ReservationServiceImpl implements ports.ReservationManager.
type ReservationServiceImpl struct {
	clientRepo      ports.ClientRepository
	walletRepo      ports.WalletRepository
	ledgerRepo      ports.LedgerRepository
	reservationRepo ports.ReservationRepository
	transactor      ports.DBTransactor
	codes           ports.CodeGenerator
	notifier        ports.TokenNotifier
	policy          ReservationPolicy
	now             func() time.Time
	log             zerolog.Logger
}

// NewReservationService creates a new ReservationServiceImpl.
func NewReservationService(
	clientRepo ports.ClientRepository,
	walletRepo ports.WalletRepository,
	ledgerRepo ports.LedgerRepository,
	reservationRepo ports.ReservationRepository,
	transactor ports.DBTransactor,
	codes ports.CodeGenerator,
	notifier ports.TokenNotifier,
	policy ReservationPolicy,
	log zerolog.Logger,
) *ReservationServiceImpl {
	return &ReservationServiceImpl{
		clientRepo:      clientRepo,
		walletRepo:      walletRepo,
		ledgerRepo:      ledgerRepo,
		reservationRepo: reservationRepo,
		transactor:      transactor,
		codes:           codes,
		notifier:        notifier,
		policy:          policy,
		now:             func() time.Time { return time.Now().UTC() },
		log:             log,
	}
}

// Reserve checks the balance covers amount and records a pending reservation.
// The wallet is not debited until Confirm.
func (s *ReservationServiceImpl) Reserve(ctx context.Context, req ports.ReserveRequest) (*ports.ReserveResponse, error) {
	if !domain.IsValidAmount(req.Amount) {
		return nil, apperror.ErrInvalidAmount()
	}

	client, err := findClient(ctx, s.clientRepo, req.ClientKey)
	if err != nil {
		return nil, err
	}

	wallet, err := s.walletRepo.GetByClientID(ctx, client.ID)
	if err != nil {
		return nil, apperror.Persistence(fmt.Errorf("get wallet: %w", err))
	}
	if wallet == nil {
		return nil, apperror.ErrNotFound("Wallet")
	}

	if wallet.Balance.LessThan(req.Amount) {
		return nil, apperror.ErrInsufficientFunds()
	}

	token, err := s.codes.Generate()
	if err != nil {
		return nil, apperror.InternalError(fmt.Errorf("generate token: %w", err))
	}

	now := s.now()
	reservation := &domain.PaymentReservation{
		ID:        uuid.New(),
		ClientID:  client.ID,
		Token:     token,
		Amount:    req.Amount,
		Status:    domain.ReservationPending,
		CreatedAt: now,
	}
	if s.policy.TTL > 0 {
		expiresAt := now.Add(s.policy.TTL)
		reservation.ExpiresAt = &expiresAt
	}

	dbTx, err := s.transactor.Begin(ctx)
	if err != nil {
		return nil, apperror.Persistence(fmt.Errorf("begin tx: %w", err))
	}
	defer dbTx.Rollback(ctx) //nolint:errcheck

	if err := s.reservationRepo.Create(ctx, dbTx, reservation); err != nil {
		return nil, apperror.Persistence(fmt.Errorf("create reservation: %w", err))
	}

	if err := dbTx.Commit(ctx); err != nil {
		return nil, apperror.Persistence(fmt.Errorf("commit tx: %w", err))
	}

	// Delivery is best-effort and never changes the outcome.
	if err := s.notifier.NotifyReservation(ctx, domain.TokenNotification{
		ReservationID: reservation.ID,
		ClientID:      client.ID,
		Email:         client.Email,
		Phone:         client.Phone,
		Token:         token,
		Amount:        reservation.Amount,
		ExpiresAt:     reservation.ExpiresAt,
	}); err != nil {
		s.log.Warn().Err(err).Str("session_id", reservation.ID.String()).Msg("token notification failed")
	}

	s.log.Info().
		Str("session_id", reservation.ID.String()).
		Str("client_id", client.ID.String()).
		Str("amount", reservation.Amount.String()).
		Msg("payment reserved")

	return &ports.ReserveResponse{
		SessionID: reservation.ID,
		Token:     token,
		Email:     client.Email,
		Amount:    reservation.Amount,
		ExpiresAt: reservation.ExpiresAt,
	}, nil
}

// Confirm redeems a pending reservation: debit, ledger entry and status change
// commit together or not at all.
func (s *ReservationServiceImpl) Confirm(ctx context.Context, req ports.ConfirmRequest) (*ports.ConfirmResponse, error) {
	if req.SessionID == uuid.Nil {
		return nil, apperror.Validation("session_id is required")
	}
	if err := requireFields("token", req.Token); err != nil {
		return nil, err
	}

	now := s.now()

	dbTx, err := s.transactor.Begin(ctx)
	if err != nil {
		return nil, apperror.Persistence(fmt.Errorf("begin tx: %w", err))
	}
	defer dbTx.Rollback(ctx) //nolint:errcheck

	reservation, err := s.reservationRepo.GetRedeemableForUpdate(ctx, dbTx, req.SessionID, req.Token, now)
	if err != nil {
		return nil, apperror.Persistence(fmt.Errorf("lock reservation: %w", err))
	}
	if reservation == nil {
		return nil, apperror.ErrInvalidToken()
	}

	wallet, err := s.walletRepo.Debit(ctx, dbTx, reservation.ClientID, reservation.Amount, s.policy.EnforceFundsOnConfirm)
	if err != nil {
		if errors.Is(err, ports.ErrInsufficientBalance) {
			return nil, apperror.ErrInsufficientFunds()
		}
		return nil, apperror.Persistence(fmt.Errorf("debit wallet: %w", err))
	}
	if wallet == nil {
		return nil, apperror.ErrNotFound("Wallet")
	}

	entry := &domain.LedgerEntry{
		ID:            uuid.New(),
		WalletID:      wallet.ID,
		Direction:     domain.EntryDebit,
		Amount:        reservation.Amount,
		BalanceBefore: wallet.Balance.Add(reservation.Amount),
		BalanceAfter:  wallet.Balance,
		Reference:     domain.ReferencePaymentConfirmed,
		Concept:       domain.ConceptPurchase,
		CreatedAt:     now,
	}
	if err := s.ledgerRepo.Append(ctx, dbTx, entry); err != nil {
		return nil, apperror.Persistence(fmt.Errorf("append ledger entry: %w", err))
	}

	if err := s.reservationRepo.MarkConfirmed(ctx, dbTx, reservation.ID, now); err != nil {
		return nil, apperror.Persistence(fmt.Errorf("mark reservation confirmed: %w", err))
	}

	if err := dbTx.Commit(ctx); err != nil {
		return nil, apperror.Persistence(fmt.Errorf("commit tx: %w", err))
	}

	if wallet.Balance.IsNegative() {
		s.log.Warn().
			Str("wallet_id", wallet.ID.String()).
			Str("balance", wallet.Balance.String()).
			Msg("confirmed payment left wallet overdrawn")
	}

	s.log.Info().
		Str("session_id", reservation.ID.String()).
		Str("wallet_id", wallet.ID.String()).
		Str("amount", reservation.Amount.String()).
		Msg("payment confirmed")

	return &ports.ConfirmResponse{
		ClientID:   reservation.ClientID,
		WalletID:   wallet.ID,
		Amount:     reservation.Amount,
		NewBalance: wallet.Balance,
	}, nil
}

// ExpireOverdue moves pending reservations past their deadline to expired.
func (s *ReservationServiceImpl) ExpireOverdue(ctx context.Context) (int64, error) {
	n, err := s.reservationRepo.ExpireOverdue(ctx, s.now())
	if err != nil {
		return 0, apperror.Persistence(fmt.Errorf("expire reservations: %w", err))
	}
	return n, nil
}
