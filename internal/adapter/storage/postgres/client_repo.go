package postgres

import (
	"context"
	"errors"
	"fmt"

	"wallet-ledger/internal/core/domain"
	"wallet-ledger/internal/core/ports"

	"github.com/jackc/pgx/v5"
)

// ClientRepo implements ports.ClientRepository over the clientes table.
type ClientRepo struct {
	pool Pool
}

// NewClientRepo creates a new ClientRepo.
func NewClientRepo(pool Pool) *ClientRepo {
	return &ClientRepo{pool: pool}
}

// Create inserts a client within a database transaction. A second client
// with the same (documento, telefono) yields ports.ErrDuplicateClient.
func (r *ClientRepo) Create(ctx context.Context, tx pgx.Tx, c *domain.Client) error {
	query := `INSERT INTO clientes (id, nombres, documento, email, telefono, created_at)
		VALUES ($1, $2, $3, $4, $5, $6)`

	_, err := tx.Exec(ctx, query, c.ID, c.Names, c.Document, c.Email, c.Phone, c.CreatedAt)
	if err != nil {
		if isUniqueViolation(err) {
			return fmt.Errorf("insert client: %w", ports.ErrDuplicateClient)
		}
		return fmt.Errorf("insert client: %w", err)
	}
	return nil
}

// GetByDocumentAndPhone fetches the client identified by (documento, telefono).
func (r *ClientRepo) GetByDocumentAndPhone(ctx context.Context, document, phone string) (*domain.Client, error) {
	query := `SELECT id, nombres, documento, email, telefono, created_at
		FROM clientes WHERE documento = $1 AND telefono = $2`

	c := &domain.Client{}
	err := r.pool.QueryRow(ctx, query, document, phone).Scan(
		&c.ID, &c.Names, &c.Document, &c.Email, &c.Phone, &c.CreatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("get client by document and phone: %w", err)
	}
	return c, nil
}
