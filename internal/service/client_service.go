package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"wallet-ledger/internal/core/domain"
	"wallet-ledger/internal/core/ports"
	"wallet-ledger/pkg/apperror"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
)

// ClientServiceImpl implements ports.ClientRegistry.
type ClientServiceImpl struct {
	clientRepo ports.ClientRepository
	walletRepo ports.WalletRepository
	transactor ports.DBTransactor
	log        zerolog.Logger
}

// NewClientService creates a new ClientServiceImpl.
func NewClientService(
	clientRepo ports.ClientRepository,
	walletRepo ports.WalletRepository,
	transactor ports.DBTransactor,
	log zerolog.Logger,
) *ClientServiceImpl {
	return &ClientServiceImpl{
		clientRepo: clientRepo,
		walletRepo: walletRepo,
		transactor: transactor,
		log:        log,
	}
}

// Register creates the client and its zero-balance wallet in one transaction.
func (s *ClientServiceImpl) Register(ctx context.Context, req ports.RegisterRequest) (*ports.RegisterResponse, error) {
	if err := requireFields(
		"nombres", req.Names,
		"documento", req.Document,
		"email", req.Email,
		"telefono", req.Phone,
	); err != nil {
		return nil, err
	}

	now := time.Now().UTC()
	client := &domain.Client{
		ID:        uuid.New(),
		Names:     req.Names,
		Document:  req.Document,
		Email:     req.Email,
		Phone:     req.Phone,
		CreatedAt: now,
	}
	wallet := &domain.Wallet{
		ID:        uuid.New(),
		ClientID:  client.ID,
		Balance:   decimal.Zero,
		CreatedAt: now,
		UpdatedAt: now,
	}

	dbTx, err := s.transactor.Begin(ctx)
	if err != nil {
		return nil, apperror.Persistence(fmt.Errorf("begin tx: %w", err))
	}
	defer dbTx.Rollback(ctx) //nolint:errcheck

	if err := s.clientRepo.Create(ctx, dbTx, client); err != nil {
		if errors.Is(err, ports.ErrDuplicateClient) {
			return nil, apperror.ErrClientExists(err)
		}
		return nil, apperror.Persistence(fmt.Errorf("create client: %w", err))
	}

	if err := s.walletRepo.Create(ctx, dbTx, wallet); err != nil {
		return nil, apperror.Persistence(fmt.Errorf("create wallet: %w", err))
	}

	if err := dbTx.Commit(ctx); err != nil {
		return nil, apperror.Persistence(fmt.Errorf("commit tx: %w", err))
	}

	s.log.Info().
		Str("client_id", client.ID.String()).
		Str("wallet_id", wallet.ID.String()).
		Msg("client registered")

	return &ports.RegisterResponse{
		ClientID:       client.ID,
		WalletID:       wallet.ID,
		InitialBalance: wallet.Balance,
	}, nil
}

// requireFields takes name/value pairs and fails on the first blank value.
func requireFields(pairs ...string) error {
	for i := 0; i+1 < len(pairs); i += 2 {
		if strings.TrimSpace(pairs[i+1]) == "" {
			return apperror.Validation(fmt.Sprintf("%s is required", pairs[i]))
		}
	}
	return nil
}

// findClient resolves the (document, phone) lookup key.
func findClient(ctx context.Context, repo ports.ClientRepository, key ports.ClientKey) (*domain.Client, error) {
	if err := requireFields("documento", key.Document, "telefono", key.Phone); err != nil {
		return nil, err
	}
	client, err := repo.GetByDocumentAndPhone(ctx, key.Document, key.Phone)
	if err != nil {
		return nil, apperror.Persistence(fmt.Errorf("find client: %w", err))
	}
	if client == nil {
		return nil, apperror.ErrNotFound("Client")
	}
	return client, nil
}
