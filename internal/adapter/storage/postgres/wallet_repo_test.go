package postgres

import (
	"context"
	"errors"
	"testing"
	"time"

	"wallet-ledger/internal/core/domain"
	"wallet-ledger/internal/core/ports"

	"github.com/google/uuid"
	"github.com/pashagolub/pgxmock/v3"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestWallet(clientID uuid.UUID, balance string) *domain.Wallet {
	now := time.Now().UTC().Truncate(time.Microsecond)
	return &domain.Wallet{
		ID:        uuid.New(),
		ClientID:  clientID,
		Balance:   decimal.RequireFromString(balance),
		CreatedAt: now,
		UpdatedAt: now,
	}
}

func walletColumnNames() []string {
	return []string{"id", "cliente_id", "total", "created_at", "updated_at"}
}

func walletRow(w *domain.Wallet) *pgxmock.Rows {
	return pgxmock.NewRows(walletColumnNames()).AddRow(
		w.ID, w.ClientID, w.Balance.String(), w.CreatedAt, w.UpdatedAt,
	)
}

func TestWalletRepo_Create(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	repo := NewWalletRepo(mock)
	w := newTestWallet(uuid.New(), "0")

	mock.ExpectBegin()
	mock.ExpectExec("INSERT INTO billetera").
		WithArgs(w.ID, w.ClientID, "0", w.CreatedAt, w.UpdatedAt).
		WillReturnResult(pgxmock.NewResult("INSERT", 1))

	tx, err := mock.Begin(context.Background())
	require.NoError(t, err)

	assert.NoError(t, repo.Create(context.Background(), tx, w))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestWalletRepo_GetByClientID(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	repo := NewWalletRepo(mock)
	w := newTestWallet(uuid.New(), "300.50")

	mock.ExpectQuery("SELECT .+ FROM billetera WHERE cliente_id").
		WithArgs(w.ClientID).
		WillReturnRows(walletRow(w))

	result, err := repo.GetByClientID(context.Background(), w.ClientID)
	require.NoError(t, err)
	require.NotNil(t, result)
	assert.Equal(t, w.ID, result.ID)
	assert.True(t, result.Balance.Equal(decimal.RequireFromString("300.5")))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestWalletRepo_GetByClientID_NotFound(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	repo := NewWalletRepo(mock)
	clientID := uuid.New()

	mock.ExpectQuery("SELECT .+ FROM billetera WHERE cliente_id").
		WithArgs(clientID).
		WillReturnRows(pgxmock.NewRows(walletColumnNames()))

	result, err := repo.GetByClientID(context.Background(), clientID)
	assert.NoError(t, err)
	assert.Nil(t, result)
}

func TestWalletRepo_Credit(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	repo := NewWalletRepo(mock)
	updated := newTestWallet(uuid.New(), "300")

	mock.ExpectBegin()
	mock.ExpectQuery(`UPDATE billetera SET total = total \+ \$1::numeric`).
		WithArgs("300", updated.ClientID).
		WillReturnRows(walletRow(updated))

	tx, err := mock.Begin(context.Background())
	require.NoError(t, err)

	result, err := repo.Credit(context.Background(), tx, updated.ClientID, decimal.NewFromInt(300))
	require.NoError(t, err)
	require.NotNil(t, result)
	assert.True(t, result.Balance.Equal(decimal.NewFromInt(300)))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestWalletRepo_Credit_NoWallet(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	repo := NewWalletRepo(mock)
	clientID := uuid.New()

	mock.ExpectBegin()
	mock.ExpectQuery(`UPDATE billetera SET total = total \+`).
		WithArgs("10", clientID).
		WillReturnRows(pgxmock.NewRows(walletColumnNames()))

	tx, err := mock.Begin(context.Background())
	require.NoError(t, err)

	result, err := repo.Credit(context.Background(), tx, clientID, decimal.NewFromInt(10))
	assert.NoError(t, err)
	assert.Nil(t, result)
}

func TestWalletRepo_Debit_Unguarded(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	repo := NewWalletRepo(mock)
	updated := newTestWallet(uuid.New(), "-20")

	mock.ExpectBegin()
	mock.ExpectQuery(`UPDATE billetera SET total = total - \$1::numeric, updated_at = NOW\(\)\s+WHERE cliente_id = \$2 RETURNING`).
		WithArgs("120", updated.ClientID).
		WillReturnRows(walletRow(updated))

	tx, err := mock.Begin(context.Background())
	require.NoError(t, err)

	result, err := repo.Debit(context.Background(), tx, updated.ClientID, decimal.NewFromInt(120), false)
	require.NoError(t, err)
	require.NotNil(t, result)
	assert.True(t, result.Balance.IsNegative(), "unguarded debit may overdraw")
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestWalletRepo_Debit_GuardedInsufficient(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	repo := NewWalletRepo(mock)
	clientID := uuid.New()

	mock.ExpectBegin()
	mock.ExpectQuery(`UPDATE billetera SET total = total - .+ AND total >= \$1::numeric`).
		WithArgs("120", clientID).
		WillReturnRows(pgxmock.NewRows(walletColumnNames()))
	mock.ExpectQuery("SELECT EXISTS").
		WithArgs(clientID).
		WillReturnRows(pgxmock.NewRows([]string{"exists"}).AddRow(true))

	tx, err := mock.Begin(context.Background())
	require.NoError(t, err)

	result, err := repo.Debit(context.Background(), tx, clientID, decimal.NewFromInt(120), true)
	assert.Nil(t, result)
	assert.True(t, errors.Is(err, ports.ErrInsufficientBalance))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestWalletRepo_Debit_GuardedNoWallet(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	repo := NewWalletRepo(mock)
	clientID := uuid.New()

	mock.ExpectBegin()
	mock.ExpectQuery(`UPDATE billetera SET total = total -`).
		WithArgs("5", clientID).
		WillReturnRows(pgxmock.NewRows(walletColumnNames()))
	mock.ExpectQuery("SELECT EXISTS").
		WithArgs(clientID).
		WillReturnRows(pgxmock.NewRows([]string{"exists"}).AddRow(false))

	tx, err := mock.Begin(context.Background())
	require.NoError(t, err)

	result, err := repo.Debit(context.Background(), tx, clientID, decimal.NewFromInt(5), true)
	assert.NoError(t, err)
	assert.Nil(t, result)
}

func TestWalletRepo_Credit_DBError(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	repo := NewWalletRepo(mock)
	clientID := uuid.New()

	mock.ExpectBegin()
	mock.ExpectQuery(`UPDATE billetera`).
		WithArgs("10", clientID).
		WillReturnError(errors.New("deadlock detected"))

	tx, err := mock.Begin(context.Background())
	require.NoError(t, err)

	_, err = repo.Credit(context.Background(), tx, clientID, decimal.NewFromInt(10))
	assert.ErrorContains(t, err, "credit wallet")
}
