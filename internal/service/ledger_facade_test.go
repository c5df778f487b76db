package service

import (
	"context"
	"errors"
	"testing"

	"wallet-ledger/internal/core/ports"
	"wallet-ledger/internal/core/ports/mocks"
	"wallet-ledger/pkg/apperror"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"
)

type facadeTestDeps struct {
	facade       *LedgerFacade
	clients      *mocks.MockClientRegistry
	wallets      *mocks.MockWalletStore
	reservations *mocks.MockReservationManager
	statements   *mocks.MockStatementService
}

func setupFacade(t *testing.T) *facadeTestDeps {
	ctrl := gomock.NewController(t)
	d := &facadeTestDeps{
		clients:      mocks.NewMockClientRegistry(ctrl),
		wallets:      mocks.NewMockWalletStore(ctrl),
		reservations: mocks.NewMockReservationManager(ctrl),
		statements:   mocks.NewMockStatementService(ctrl),
	}
	d.facade = NewLedgerFacade(d.clients, d.wallets, d.reservations, d.statements, newTestLogger())
	return d
}

func TestLedgerFacade_Register(t *testing.T) {
	t.Run("success envelope", func(t *testing.T) {
		d := setupFacade(t)
		ctx := context.Background()
		resp := &ports.RegisterResponse{ClientID: uuid.New(), WalletID: uuid.New()}
		d.clients.EXPECT().Register(ctx, validRegister).Return(resp, nil)

		result := d.facade.Register(ctx, validRegister)
		assert.True(t, result.Success)
		assert.Equal(t, apperror.CodeSuccess, result.Code)
		assert.Equal(t, MsgRegistered, result.Message)
		assert.Equal(t, resp, result.Data)
	})

	t.Run("validation never reaches the registry", func(t *testing.T) {
		d := setupFacade(t)
		req := validRegister
		req.Email = "not-an-email"

		result := d.facade.Register(context.Background(), req)
		assert.False(t, result.Success)
		assert.Equal(t, apperror.CodeBadRequest, result.Code)
		assert.Equal(t, "email must be a valid email", result.Message)
		assert.Nil(t, result.Data)
	})

	t.Run("missing field named by wire name", func(t *testing.T) {
		d := setupFacade(t)
		req := validRegister
		req.Names = ""

		result := d.facade.Register(context.Background(), req)
		assert.Equal(t, "nombres is required", result.Message)
	})
}

func TestLedgerFacade_ErrorCodes(t *testing.T) {
	tests := []struct {
		name string
		err  error
		code string
	}{
		{"not found", apperror.ErrNotFound("Client"), "400"},
		{"invalid amount", apperror.ErrInvalidAmount(), "400"},
		{"insufficient funds", apperror.ErrInsufficientFunds(), "401"},
		{"invalid token", apperror.ErrInvalidToken(), "401"},
		{"persistence", apperror.Persistence(errors.New("x")), "500"},
		{"unclassified", errors.New("boom"), "500"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			d := setupFacade(t)
			ctx := context.Background()
			d.wallets.EXPECT().GetBalance(ctx, testKey).Return(nil, tt.err)

			result := d.facade.GetBalance(ctx, testKey)
			assert.False(t, result.Success)
			assert.Equal(t, tt.code, result.Code)
			assert.NotEmpty(t, result.Message)
			assert.Nil(t, result.Data)
		})
	}
}

func TestLedgerFacade_Recharge(t *testing.T) {
	d := setupFacade(t)
	ctx := context.Background()
	req := ports.RechargeRequest{ClientKey: testKey, Amount: dec("300")}
	d.wallets.EXPECT().Recharge(ctx, req).Return(&ports.RechargeResponse{NewBalance: dec("300")}, nil)

	result := d.facade.Recharge(ctx, req)
	require.True(t, result.Success)
	assert.Equal(t, MsgRecharged, result.Message)
	assert.True(t, result.Data.NewBalance.Equal(dec("300")))

	bad := d.facade.Recharge(ctx, ports.RechargeRequest{ClientKey: ports.ClientKey{Document: "1"}, Amount: dec("1")})
	assert.Equal(t, "400", bad.Code)
	assert.Equal(t, "telefono is required", bad.Message)
}

func TestLedgerFacade_ReserveAndConfirm(t *testing.T) {
	d := setupFacade(t)
	ctx := context.Background()
	sessionID := uuid.New()

	reserveReq := ports.ReserveRequest{ClientKey: testKey, Amount: dec("250")}
	d.reservations.EXPECT().Reserve(ctx, reserveReq).Return(&ports.ReserveResponse{SessionID: sessionID, Token: "482913"}, nil)
	reserved := d.facade.Reserve(ctx, reserveReq)
	require.True(t, reserved.Success)
	assert.Equal(t, MsgReserved, reserved.Message)

	confirmReq := ports.ConfirmRequest{SessionID: sessionID, Token: "482913"}
	d.reservations.EXPECT().Confirm(ctx, confirmReq).Return(nil, apperror.ErrInvalidToken())
	confirmed := d.facade.Confirm(ctx, confirmReq)
	assert.False(t, confirmed.Success)
	assert.Equal(t, "401", confirmed.Code)

	missing := d.facade.Confirm(ctx, ports.ConfirmRequest{Token: "482913"})
	assert.Equal(t, "400", missing.Code)
	assert.Equal(t, "session_id is required", missing.Message)
}

func TestLedgerFacade_ListTransactions(t *testing.T) {
	d := setupFacade(t)
	ctx := context.Background()
	req := ports.StatementRequest{ClientKey: testKey, Page: 1, PageSize: 10}
	d.statements.EXPECT().ListTransactions(ctx, req).Return(&ports.StatementResponse{Total: 3}, nil)

	result := d.facade.ListTransactions(ctx, req)
	require.True(t, result.Success)
	assert.Equal(t, int64(3), result.Data.Total)

	bad := d.facade.ListTransactions(ctx, ports.StatementRequest{ClientKey: testKey, PageSize: 101})
	assert.Equal(t, "400", bad.Code)
}

var (
	_ ports.LedgerService   = (*LedgerFacade)(nil)
	_ ports.StatementReader = (*LedgerFacade)(nil)
)
