package postgres

import (
	"context"
	"errors"
	"fmt"

	"wallet-ledger/internal/core/domain"
	"wallet-ledger/internal/core/ports"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/shopspring/decimal"
)

// WalletRepo implements ports.WalletRepository over the billetera table.
// Balance changes are expressed as total = total ± amount so that concurrent
// updates of one wallet serialize on its row lock.
type WalletRepo struct {
	pool Pool
}

// NewWalletRepo creates a new WalletRepo.
func NewWalletRepo(pool Pool) *WalletRepo {
	return &WalletRepo{pool: pool}
}

const walletColumns = `id, cliente_id, total::text, created_at, updated_at`

// Create inserts a new wallet within a database transaction.
func (r *WalletRepo) Create(ctx context.Context, tx pgx.Tx, w *domain.Wallet) error {
	query := `INSERT INTO billetera (id, cliente_id, total, created_at, updated_at)
		VALUES ($1, $2, $3::numeric, $4, $5)`

	_, err := tx.Exec(ctx, query, w.ID, w.ClientID, w.Balance.String(), w.CreatedAt, w.UpdatedAt)
	if err != nil {
		return fmt.Errorf("insert wallet: %w", err)
	}
	return nil
}

// GetByClientID fetches a client's wallet (non-locking read).
func (r *WalletRepo) GetByClientID(ctx context.Context, clientID uuid.UUID) (*domain.Wallet, error) {
	query := `SELECT ` + walletColumns + ` FROM billetera WHERE cliente_id = $1`

	w, err := scanWallet(r.pool.QueryRow(ctx, query, clientID))
	if err != nil {
		return nil, fmt.Errorf("get wallet by client id: %w", err)
	}
	return w, nil
}

// Credit adds amount to the client's wallet and returns the updated row.
// This MUST be called within a transaction.
func (r *WalletRepo) Credit(ctx context.Context, tx pgx.Tx, clientID uuid.UUID, amount decimal.Decimal) (*domain.Wallet, error) {
	query := `UPDATE billetera SET total = total + $1::numeric, updated_at = NOW()
		WHERE cliente_id = $2
		RETURNING ` + walletColumns

	w, err := scanWallet(tx.QueryRow(ctx, query, amount.String(), clientID))
	if err != nil {
		return nil, fmt.Errorf("credit wallet: %w", err)
	}
	return w, nil
}

// Debit subtracts amount from the client's wallet and returns the updated row.
// Without requireFunds the balance may go negative.
// This MUST be called within a transaction.
func (r *WalletRepo) Debit(ctx context.Context, tx pgx.Tx, clientID uuid.UUID, amount decimal.Decimal, requireFunds bool) (*domain.Wallet, error) {
	query := `UPDATE billetera SET total = total - $1::numeric, updated_at = NOW()
		WHERE cliente_id = $2`
	if requireFunds {
		query += ` AND total >= $1::numeric`
	}
	query += ` RETURNING ` + walletColumns

	w, err := scanWallet(tx.QueryRow(ctx, query, amount.String(), clientID))
	if err != nil {
		return nil, fmt.Errorf("debit wallet: %w", err)
	}
	if w != nil || !requireFunds {
		return w, nil
	}

	// The guarded update matched nothing: tell a missing wallet from a short one.
	var exists bool
	err = tx.QueryRow(ctx, `SELECT EXISTS(SELECT 1 FROM billetera WHERE cliente_id = $1)`, clientID).Scan(&exists)
	if err != nil {
		return nil, fmt.Errorf("check wallet exists: %w", err)
	}
	if exists {
		return nil, ports.ErrInsufficientBalance
	}
	return nil, nil
}

func scanWallet(row pgx.Row) (*domain.Wallet, error) {
	w := &domain.Wallet{}
	var total string
	err := row.Scan(&w.ID, &w.ClientID, &total, &w.CreatedAt, &w.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	if w.Balance, err = parseMoney("total", total); err != nil {
		return nil, err
	}
	return w, nil
}
