package service

import (
	"context"
	"fmt"

	"wallet-ledger/internal/core/ports"
	"wallet-ledger/pkg/apperror"
)

const (
	defaultStatementPage     = 1
	defaultStatementPageSize = 20
)

// statementService implements ports.StatementService over the ledger journal.
type statementService struct {
	clientRepo ports.ClientRepository
	walletRepo ports.WalletRepository
	ledgerRepo ports.LedgerRepository
}

// NewStatementService creates a new statement service.
func NewStatementService(
	clientRepo ports.ClientRepository,
	walletRepo ports.WalletRepository,
	ledgerRepo ports.LedgerRepository,
) ports.StatementService {
	return &statementService{
		clientRepo: clientRepo,
		walletRepo: walletRepo,
		ledgerRepo: ledgerRepo,
	}
}

// ListTransactions returns one page of the client's ledger entries, newest first.
func (s *statementService) ListTransactions(ctx context.Context, req ports.StatementRequest) (*ports.StatementResponse, error) {
	if req.Page < 0 || req.PageSize < 0 || req.PageSize > 100 {
		return nil, apperror.Validation("page must be >= 1 and page_size between 1 and 100")
	}
	page, pageSize := req.Page, req.PageSize
	if page == 0 {
		page = defaultStatementPage
	}
	if pageSize == 0 {
		pageSize = defaultStatementPageSize
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

	items, total, err := s.ledgerRepo.ListByWallet(ctx, ports.LedgerListParams{
		WalletID: wallet.ID,
		Page:     page,
		PageSize: pageSize,
	})
	if err != nil {
		return nil, apperror.Persistence(fmt.Errorf("list ledger entries: %w", err))
	}

	totalPages := int(total) / pageSize
	if int(total)%pageSize != 0 {
		totalPages++
	}

	return &ports.StatementResponse{
		ClientID:   client.ID,
		WalletID:   wallet.ID,
		Items:      items,
		Total:      total,
		Page:       page,
		PageSize:   pageSize,
		TotalPages: totalPages,
	}, nil
}
