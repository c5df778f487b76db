package postgres

import (
	"context"
	"errors"
	"testing"
	"time"

	"wallet-ledger/internal/core/domain"

	"github.com/google/uuid"
	"github.com/pashagolub/pgxmock/v3"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func reservationColumnNames() []string {
	return []string{"id", "cliente_id", "token", "monto", "status", "created_at", "expires_at", "confirmed_at"}
}

func newTestReservation() *domain.PaymentReservation {
	now := time.Now().UTC().Truncate(time.Microsecond)
	expires := now.Add(15 * time.Minute)
	return &domain.PaymentReservation{
		ID:        uuid.New(),
		ClientID:  uuid.New(),
		Token:     "482913",
		Amount:    decimal.NewFromInt(250),
		Status:    domain.ReservationPending,
		CreatedAt: now,
		ExpiresAt: &expires,
	}
}

func reservationRow(s *domain.PaymentReservation) *pgxmock.Rows {
	return pgxmock.NewRows(reservationColumnNames()).AddRow(
		s.ID, s.ClientID, s.Token, s.Amount.String(), string(s.Status),
		s.CreatedAt, s.ExpiresAt, s.ConfirmedAt,
	)
}

func TestReservationRepo_Create(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	repo := NewReservationRepo(mock)
	s := newTestReservation()

	mock.ExpectBegin()
	mock.ExpectExec("INSERT INTO session").
		WithArgs(s.ID, s.ClientID, s.Token, "250", "pending", s.CreatedAt, s.ExpiresAt).
		WillReturnResult(pgxmock.NewResult("INSERT", 1))

	tx, err := mock.Begin(context.Background())
	require.NoError(t, err)

	assert.NoError(t, repo.Create(context.Background(), tx, s))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestReservationRepo_GetByID(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	repo := NewReservationRepo(mock)
	s := newTestReservation()

	mock.ExpectQuery("SELECT .+ FROM session WHERE id").
		WithArgs(s.ID).
		WillReturnRows(reservationRow(s))

	result, err := repo.GetByID(context.Background(), s.ID)
	require.NoError(t, err)
	require.NotNil(t, result)
	assert.Equal(t, s.Token, result.Token)
	assert.Equal(t, domain.ReservationPending, result.Status)
	assert.True(t, result.Amount.Equal(s.Amount))
}

func TestReservationRepo_GetRedeemableForUpdate(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	repo := NewReservationRepo(mock)
	s := newTestReservation()
	now := time.Now().UTC()

	mock.ExpectBegin()
	mock.ExpectQuery("SELECT .+ FROM session\\s+WHERE id = \\$1 AND token = \\$2 AND status = 'pending'.+FOR UPDATE").
		WithArgs(s.ID, s.Token, now).
		WillReturnRows(reservationRow(s))

	tx, err := mock.Begin(context.Background())
	require.NoError(t, err)

	result, err := repo.GetRedeemableForUpdate(context.Background(), tx, s.ID, s.Token, now)
	require.NoError(t, err)
	require.NotNil(t, result)
	assert.Equal(t, s.ID, result.ID)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestReservationRepo_GetRedeemableForUpdate_NoMatch(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	repo := NewReservationRepo(mock)
	id := uuid.New()
	now := time.Now().UTC()

	mock.ExpectBegin()
	mock.ExpectQuery("SELECT .+ FROM session").
		WithArgs(id, "000000", now).
		WillReturnRows(pgxmock.NewRows(reservationColumnNames()))

	tx, err := mock.Begin(context.Background())
	require.NoError(t, err)

	result, err := repo.GetRedeemableForUpdate(context.Background(), tx, id, "000000", now)
	assert.NoError(t, err)
	assert.Nil(t, result)
}

func TestReservationRepo_MarkConfirmed(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	repo := NewReservationRepo(mock)
	id := uuid.New()
	at := time.Now().UTC()

	mock.ExpectBegin()
	mock.ExpectExec("UPDATE session SET status = 'confirmed'").
		WithArgs(at, id).
		WillReturnResult(pgxmock.NewResult("UPDATE", 1))

	tx, err := mock.Begin(context.Background())
	require.NoError(t, err)

	assert.NoError(t, repo.MarkConfirmed(context.Background(), tx, id, at))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestReservationRepo_MarkConfirmed_NotPending(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	repo := NewReservationRepo(mock)
	id := uuid.New()
	at := time.Now().UTC()

	mock.ExpectBegin()
	mock.ExpectExec("UPDATE session SET status = 'confirmed'").
		WithArgs(at, id).
		WillReturnResult(pgxmock.NewResult("UPDATE", 0))

	tx, err := mock.Begin(context.Background())
	require.NoError(t, err)

	assert.ErrorContains(t, repo.MarkConfirmed(context.Background(), tx, id, at), "0 rows affected")
}

func TestReservationRepo_ExpireOverdue(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	repo := NewReservationRepo(mock)
	now := time.Now().UTC()

	mock.ExpectExec("UPDATE session SET status = 'expired'").
		WithArgs(now).
		WillReturnResult(pgxmock.NewResult("UPDATE", 3))

	n, err := repo.ExpireOverdue(context.Background(), now)
	require.NoError(t, err)
	assert.Equal(t, int64(3), n)

	mock.ExpectExec("UPDATE session SET status = 'expired'").
		WithArgs(now).
		WillReturnError(errors.New("timeout"))

	_, err = repo.ExpireOverdue(context.Background(), now)
	assert.ErrorContains(t, err, "expire reservations")
}
