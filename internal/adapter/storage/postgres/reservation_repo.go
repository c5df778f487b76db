package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	"wallet-ledger/internal/core/domain"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
)

// ReservationRepo implements ports.ReservationRepository over the session table.
type ReservationRepo struct {
	pool Pool
}

// NewReservationRepo creates a new ReservationRepo.
func NewReservationRepo(pool Pool) *ReservationRepo {
	return &ReservationRepo{pool: pool}
}

const reservationColumns = `id, cliente_id, token, monto::text, status, created_at, expires_at, confirmed_at`

// Create inserts a pending reservation within a database transaction.
func (r *ReservationRepo) Create(ctx context.Context, tx pgx.Tx, s *domain.PaymentReservation) error {
	query := `INSERT INTO session (id, cliente_id, token, monto, status, created_at, expires_at)
		VALUES ($1, $2, $3, $4::numeric, $5, $6, $7)`

	_, err := tx.Exec(ctx, query,
		s.ID, s.ClientID, s.Token, s.Amount.String(), string(s.Status), s.CreatedAt, s.ExpiresAt,
	)
	if err != nil {
		return fmt.Errorf("insert reservation: %w", err)
	}
	return nil
}

// GetByID fetches a reservation regardless of its state.
func (r *ReservationRepo) GetByID(ctx context.Context, id uuid.UUID) (*domain.PaymentReservation, error) {
	query := `SELECT ` + reservationColumns + ` FROM session WHERE id = $1`

	s, err := scanReservation(r.pool.QueryRow(ctx, query, id))
	if err != nil {
		return nil, fmt.Errorf("get reservation by id: %w", err)
	}
	return s, nil
}

// GetRedeemableForUpdate locks the pending, unexpired reservation matching
// (id, token). A concurrent confirm waits on the row lock and then no longer
// matches because the status changed.
// This MUST be called within a transaction.
func (r *ReservationRepo) GetRedeemableForUpdate(ctx context.Context, tx pgx.Tx, id uuid.UUID, token string, now time.Time) (*domain.PaymentReservation, error) {
	query := `SELECT ` + reservationColumns + ` FROM session
		WHERE id = $1 AND token = $2 AND status = 'pending'
		AND (expires_at IS NULL OR expires_at > $3)
		FOR UPDATE`

	s, err := scanReservation(tx.QueryRow(ctx, query, id, token, now))
	if err != nil {
		return nil, fmt.Errorf("get redeemable reservation: %w", err)
	}
	return s, nil
}

// MarkConfirmed resolves a reservation.
func (r *ReservationRepo) MarkConfirmed(ctx context.Context, tx pgx.Tx, id uuid.UUID, confirmedAt time.Time) error {
	query := `UPDATE session SET status = 'confirmed', confirmed_at = $1 WHERE id = $2 AND status = 'pending'`

	tag, err := tx.Exec(ctx, query, confirmedAt, id)
	if err != nil {
		return fmt.Errorf("mark reservation confirmed: %w", err)
	}
	if tag.RowsAffected() != 1 {
		return fmt.Errorf("mark reservation confirmed: %d rows affected", tag.RowsAffected())
	}
	return nil
}

// ExpireOverdue moves every pending reservation past its deadline to expired.
func (r *ReservationRepo) ExpireOverdue(ctx context.Context, now time.Time) (int64, error) {
	query := `UPDATE session SET status = 'expired'
		WHERE status = 'pending' AND expires_at IS NOT NULL AND expires_at <= $1`

	tag, err := r.pool.Exec(ctx, query, now)
	if err != nil {
		return 0, fmt.Errorf("expire reservations: %w", err)
	}
	return tag.RowsAffected(), nil
}

func scanReservation(row pgx.Row) (*domain.PaymentReservation, error) {
	s := &domain.PaymentReservation{}
	var amount, status string
	err := row.Scan(&s.ID, &s.ClientID, &s.Token, &amount, &status, &s.CreatedAt, &s.ExpiresAt, &s.ConfirmedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	if s.Amount, err = parseMoney("monto", amount); err != nil {
		return nil, err
	}
	s.Status = domain.ReservationStatus(status)
	return s, nil
}
