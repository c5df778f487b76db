package wiring

import (
	"context"
	"fmt"
	"testing"

	"wallet-ledger/config"
	"wallet-ledger/internal/adapter/storage/memory"
	"wallet-ledger/internal/core/ports"

	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewLedger_OverMemory(t *testing.T) {
	ctx := context.Background()
	repos := MemoryRepositories(memory.NewStore())
	notifier, _ := NewNotifier(ctx, config.NotifierConfig{}, nil, zerolog.Nop())
	ledger := NewLedger(repos, config.ReservationConfig{}, notifier, zerolog.Nop())

	key := ports.ClientKey{Document: "2340294", Phone: "5550100"}
	registered := ledger.Facade.Register(ctx, ports.RegisterRequest{
		Names: "Ana", Document: key.Document, Email: "ana@example.com", Phone: key.Phone,
	})
	require.True(t, registered.Success, registered.Message)

	recharged := ledger.Facade.Recharge(ctx, ports.RechargeRequest{ClientKey: key, Amount: decimal.NewFromInt(10)})
	require.True(t, recharged.Success, recharged.Message)

	expired, err := ledger.Reservations.ExpireOverdue(ctx)
	require.NoError(t, err)
	assert.Zero(t, expired)

	assert.NoError(t, repos.Health.Ping(ctx))
}

func TestNewNotifier(t *testing.T) {
	ctx := context.Background()
	logOnly, waitLog := NewNotifier(ctx, config.NotifierConfig{}, nil, zerolog.Nop())
	webhook, waitWebhook := NewNotifier(ctx, config.NotifierConfig{WebhookURL: "https://hooks.example.com"}, nil, zerolog.Nop())

	assert.NotEqual(t, fmt.Sprintf("%T", logOnly), fmt.Sprintf("%T", webhook))
	waitLog()
	waitWebhook()
}

func TestOpenRepositories(t *testing.T) {
	ctx := context.Background()

	repos, closeFn, err := OpenRepositories(ctx, config.DatabaseConfig{Driver: "memory"}, zerolog.Nop())
	require.NoError(t, err)
	defer closeFn()
	assert.Equal(t, "memory", repos.Health.Name())

	_, _, err = OpenRepositories(ctx, config.DatabaseConfig{Driver: "sqlite"}, zerolog.Nop())
	assert.Error(t, err)
}

func TestOpenRedis_Disabled(t *testing.T) {
	client, err := OpenRedis(context.Background(), config.RedisConfig{Enabled: false}, zerolog.Nop())
	require.NoError(t, err)
	assert.Nil(t, client)
}
