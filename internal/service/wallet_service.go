package service

import (
	"context"
	"fmt"
	"time"

	"wallet-ledger/internal/core/domain"
	"wallet-ledger/internal/core/ports"
	"wallet-ledger/pkg/apperror"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

// WalletServiceImpl implements ports.WalletStore.
type WalletServiceImpl struct {
	clientRepo ports.ClientRepository
	walletRepo ports.WalletRepository
	ledgerRepo ports.LedgerRepository
	transactor ports.DBTransactor
	log        zerolog.Logger
}

// NewWalletService creates a new WalletServiceImpl.
func NewWalletService(
	clientRepo ports.ClientRepository,
	walletRepo ports.WalletRepository,
	ledgerRepo ports.LedgerRepository,
	transactor ports.DBTransactor,
	log zerolog.Logger,
) *WalletServiceImpl {
	return &WalletServiceImpl{
		clientRepo: clientRepo,
		walletRepo: walletRepo,
		ledgerRepo: ledgerRepo,
		transactor: transactor,
		log:        log,
	}
}

// Recharge credits the wallet and journals the credit in the same transaction.
// The balance is incremented by the database, so concurrent recharges never
// lose an update.
func (s *WalletServiceImpl) Recharge(ctx context.Context, req ports.RechargeRequest) (*ports.RechargeResponse, error) {
	if !domain.IsValidAmount(req.Amount) {
		return nil, apperror.ErrInvalidAmount()
	}

	client, err := findClient(ctx, s.clientRepo, req.ClientKey)
	if err != nil {
		return nil, err
	}

	dbTx, err := s.transactor.Begin(ctx)
	if err != nil {
		return nil, apperror.Persistence(fmt.Errorf("begin tx: %w", err))
	}
	defer dbTx.Rollback(ctx) //nolint:errcheck

	wallet, err := s.walletRepo.Credit(ctx, dbTx, client.ID, req.Amount)
	if err != nil {
		return nil, apperror.Persistence(fmt.Errorf("credit wallet: %w", err))
	}
	if wallet == nil {
		return nil, apperror.ErrNotFound("Wallet")
	}

	entry := &domain.LedgerEntry{
		ID:            uuid.New(),
		WalletID:      wallet.ID,
		Direction:     domain.EntryCredit,
		Amount:        req.Amount,
		BalanceBefore: wallet.Balance.Sub(req.Amount),
		BalanceAfter:  wallet.Balance,
		Reference:     domain.ReferenceRecharge,
		Concept:       domain.ConceptRecharge,
		CreatedAt:     time.Now().UTC(),
	}
	if err := s.ledgerRepo.Append(ctx, dbTx, entry); err != nil {
		return nil, apperror.Persistence(fmt.Errorf("append ledger entry: %w", err))
	}

	if err := dbTx.Commit(ctx); err != nil {
		return nil, apperror.Persistence(fmt.Errorf("commit tx: %w", err))
	}

	s.log.Info().
		Str("wallet_id", wallet.ID.String()).
		Str("amount", req.Amount.String()).
		Str("balance", wallet.Balance.String()).
		Msg("wallet recharged")

	return &ports.RechargeResponse{
		ClientID:   client.ID,
		WalletID:   wallet.ID,
		Amount:     req.Amount,
		NewBalance: wallet.Balance,
	}, nil
}

// GetBalance is read-only.
func (s *WalletServiceImpl) GetBalance(ctx context.Context, key ports.ClientKey) (*ports.BalanceResponse, error) {
	client, err := findClient(ctx, s.clientRepo, key)
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

	return &ports.BalanceResponse{
		ClientID: client.ID,
		WalletID: wallet.ID,
		Balance:  wallet.Balance,
	}, nil
}
