package rpc_test

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"wallet-ledger/config"
	"wallet-ledger/internal/adapter/rpc"
	"wallet-ledger/internal/adapter/storage/memory"
	redisStore "wallet-ledger/internal/adapter/storage/redis"
	"wallet-ledger/internal/core/ports"
	"wallet-ledger/internal/service"
	"wallet-ledger/internal/wiring"

	"github.com/alicebob/miniredis/v2"
	"github.com/gin-gonic/gin"
	goredis "github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const secret = "rpc-test-secret"

func startLedger(t *testing.T) *httptest.Server {
	t.Helper()
	gin.SetMode(gin.TestMode)

	mr := miniredis.RunT(t)
	rdb := goredis.NewClient(&goredis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { rdb.Close() })

	log := zerolog.Nop()
	repos := wiring.MemoryRepositories(memory.NewStore())
	ledger := wiring.NewLedger(repos, config.ReservationConfig{}, service.NewLogNotifier(log), log)

	router := rpc.SetupRouter(rpc.RouterDeps{
		Ledger:         ledger.Facade,
		Statements:     ledger.Facade,
		TokenSvc:       service.NewJWTTokenService(secret, time.Minute, "wallet-gateway"),
		NonceStore:     redisStore.NewNonceStore(rdb),
		HealthCheckers: []ports.HealthChecker{repos.Health},
		Logger:         log,
	})
	srv := httptest.NewServer(router)
	t.Cleanup(srv.Close)
	return srv
}

func newClient(url, signingSecret string) *rpc.Client {
	tokens := service.NewJWTTokenService(signingSecret, time.Minute, "wallet-gateway")
	return rpc.NewClient(url, 2*time.Second, tokens, zerolog.Nop())
}

func TestClient_RoundTripScenario(t *testing.T) {
	srv := startLedger(t)
	client := newClient(srv.URL, secret)
	ctx := context.Background()
	key := ports.ClientKey{Document: "2340294", Phone: "+52 123 456 7890"}

	registered := client.Register(ctx, ports.RegisterRequest{Names: "Ana Torres", Document: key.Document, Email: "ana@example.com", Phone: key.Phone})
	require.True(t, registered.Success, registered.Message)

	recharged := client.Recharge(ctx, ports.RechargeRequest{ClientKey: key, Amount: decimal.NewFromInt(300)})
	require.True(t, recharged.Success, recharged.Message)
	assert.True(t, recharged.Data.NewBalance.Equal(decimal.NewFromInt(300)))

	reserved := client.Reserve(ctx, ports.ReserveRequest{ClientKey: key, Amount: decimal.NewFromInt(250)})
	require.True(t, reserved.Success, reserved.Message)
	assert.Equal(t, "ana@example.com", reserved.Data.Email)

	confirm := ports.ConfirmRequest{SessionID: reserved.Data.SessionID, Token: reserved.Data.Token}
	confirmed := client.Confirm(ctx, confirm)
	require.True(t, confirmed.Success, confirmed.Message)
	assert.True(t, confirmed.Data.NewBalance.Equal(decimal.NewFromInt(50)))

	again := client.Confirm(ctx, confirm)
	assert.False(t, again.Success)
	assert.Equal(t, "401", again.Code)

	balance := client.GetBalance(ctx, key)
	require.True(t, balance.Success, balance.Message)
	assert.True(t, balance.Data.Balance.Equal(decimal.NewFromInt(50)))

	listed := client.ListTransactions(ctx, ports.StatementRequest{ClientKey: key})
	require.True(t, listed.Success, listed.Message)
	assert.Equal(t, int64(2), listed.Data.Total)

	assert.NoError(t, client.Ping(ctx))
}

func TestClient_DomainFailuresPassThrough(t *testing.T) {
	srv := startLedger(t)
	client := newClient(srv.URL, secret)

	result := client.GetBalance(context.Background(), ports.ClientKey{Document: "999999", Phone: "5550100"})
	assert.False(t, result.Success)
	assert.Equal(t, "400", result.Code)
	assert.Equal(t, "Client not found", result.Message)
}

func TestClient_WrongSecretIsUnavailable(t *testing.T) {
	srv := startLedger(t)
	client := newClient(srv.URL, "other-secret")

	result := client.GetBalance(context.Background(), ports.ClientKey{Document: "2340294", Phone: "5550100"})
	assert.False(t, result.Success)
	assert.Equal(t, "500", result.Code)
	assert.Equal(t, "Ledger service unavailable", result.Message)
}

func TestClient_UnreachableLedger(t *testing.T) {
	client := newClient("http://127.0.0.1:1", secret)

	result := client.GetBalance(context.Background(), ports.ClientKey{Document: "2340294", Phone: "5550100"})
	assert.Equal(t, "500", result.Code)
	assert.Error(t, client.Ping(context.Background()))
}

func TestClient_UnexpectedShapeIsPersistenceError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_ = json.NewEncoder(w).Encode(map[string]any{"ok": true})
	}))
	t.Cleanup(srv.Close)

	result := newClient(srv.URL, secret).GetBalance(context.Background(), ports.ClientKey{Document: "2340294", Phone: "5550100"})
	assert.False(t, result.Success)
	assert.Equal(t, "500", result.Code)
	assert.Equal(t, "Unexpected response shape from ledger service", result.Message)
}

func TestServer_ReplayedTokenRejected(t *testing.T) {
	srv := startLedger(t)
	tokens := service.NewJWTTokenService(secret, time.Minute, "wallet-gateway")
	token, _, err := tokens.Generate(rpc.ClientSubject)
	require.NoError(t, err)

	send := func() int {
		req, _ := http.NewRequest(http.MethodPost, srv.URL+rpc.Path,
			strings.NewReader(`{"operation":"getBalance","fields":{"documento":"2340294","telefono":"5550100"}}`))
		req.Header.Set("Authorization", "Bearer "+token)
		resp, err := http.DefaultClient.Do(req)
		require.NoError(t, err)
		resp.Body.Close()
		return resp.StatusCode
	}

	assert.Equal(t, http.StatusOK, send())
	assert.Equal(t, http.StatusUnauthorized, send())
}
