package rpc

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"
	"time"

	"wallet-ledger/internal/core/domain"
	"wallet-ledger/internal/core/ports"
	"wallet-ledger/pkg/apperror"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

const (
	msgUnavailable   = "Ledger service unavailable"
	msgUnexpected    = "Unexpected response shape from ledger service"
	maxResponseBytes = 4 << 20
)

// ClientSubject is the JWT subject the gateway identifies itself with.
const ClientSubject = "api-gateway"

// Client implements ports.LedgerService and ports.StatementReader against a
// remote ledger service. Transport and decoding failures are reported as
// persistence errors.
type Client struct {
	endpoint   string
	httpClient *http.Client
	tokens     ports.TokenService
	log        zerolog.Logger
}

// NewClient creates a client for the ledger service at baseURL.
func NewClient(baseURL string, timeout time.Duration, tokens ports.TokenService, log zerolog.Logger) *Client {
	return &Client{
		endpoint:   strings.TrimRight(baseURL, "/") + Path,
		httpClient: &http.Client{Timeout: timeout},
		tokens:     tokens,
		log:        log,
	}
}

func (c *Client) Register(ctx context.Context, req ports.RegisterRequest) domain.Result[ports.RegisterResponse] {
	return call[ports.RegisterResponse](ctx, c, OpRegister, encodeFields(
		FieldNames, req.Names,
		FieldDocument, req.Document,
		FieldEmail, req.Email,
		FieldPhone, req.Phone,
	))
}

func (c *Client) Recharge(ctx context.Context, req ports.RechargeRequest) domain.Result[ports.RechargeResponse] {
	return call[ports.RechargeResponse](ctx, c, OpRecharge, encodeFields(
		FieldDocument, req.Document,
		FieldPhone, req.Phone,
		FieldAmount, req.Amount.String(),
	))
}

func (c *Client) GetBalance(ctx context.Context, req ports.ClientKey) domain.Result[ports.BalanceResponse] {
	return call[ports.BalanceResponse](ctx, c, OpGetBalance, encodeFields(
		FieldDocument, req.Document,
		FieldPhone, req.Phone,
	))
}

func (c *Client) Reserve(ctx context.Context, req ports.ReserveRequest) domain.Result[ports.ReserveResponse] {
	return call[ports.ReserveResponse](ctx, c, OpReserve, encodeFields(
		FieldDocument, req.Document,
		FieldPhone, req.Phone,
		FieldAmount, req.Amount.String(),
	))
}

func (c *Client) Confirm(ctx context.Context, req ports.ConfirmRequest) domain.Result[ports.ConfirmResponse] {
	sessionID := ""
	if req.SessionID != uuid.Nil {
		sessionID = req.SessionID.String()
	}
	return call[ports.ConfirmResponse](ctx, c, OpConfirm, encodeFields(
		FieldSessionID, sessionID,
		FieldToken, req.Token,
	))
}

func (c *Client) ListTransactions(ctx context.Context, req ports.StatementRequest) domain.Result[ports.StatementResponse] {
	return call[ports.StatementResponse](ctx, c, OpListTransactions, encodeFields(
		FieldDocument, req.Document,
		FieldPhone, req.Phone,
		FieldPage, strconv.Itoa(req.Page),
		FieldPageSize, strconv.Itoa(req.PageSize),
	))
}

// Ping implements ports.HealthChecker by probing the ledger's /health.
func (c *Client) Ping(ctx context.Context) error {
	url := strings.TrimSuffix(c.endpoint, Path) + "/health"
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return err
	}
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return err
	}
	resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("ledger health: status %d", resp.StatusCode)
	}
	return nil
}

func (c *Client) Name() string { return "ledger" }

func call[T any](ctx context.Context, c *Client, op string, f map[string]any) domain.Result[T] {
	unavailable := domain.Fail[T](apperror.CodeServerError, msgUnavailable)

	body, err := marshalRequest(op, f)
	if err != nil {
		c.log.Error().Err(err).Str("operation", op).Msg("rpc: encode request")
		return unavailable
	}

	token, _, err := c.tokens.Generate(ClientSubject)
	if err != nil {
		c.log.Error().Err(err).Str("operation", op).Msg("rpc: sign token")
		return unavailable
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint, bytes.NewReader(body))
	if err != nil {
		c.log.Error().Err(err).Str("operation", op).Msg("rpc: build request")
		return unavailable
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+token)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		c.log.Error().Err(err).Str("operation", op).Msg("rpc: ledger unreachable")
		return unavailable
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusUnauthorized {
		c.log.Error().Str("operation", op).Msg("rpc: ledger rejected service token")
		return unavailable
	}

	payload, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBytes))
	if err != nil {
		c.log.Error().Err(err).Str("operation", op).Msg("rpc: read response")
		return unavailable
	}

	result, err := DecodeResult[T](payload)
	if err != nil {
		c.log.Error().Err(err).Str("operation", op).Int("status", resp.StatusCode).Msg("rpc: unexpected response shape")
		return domain.Fail[T](apperror.CodeServerError, msgUnexpected)
	}
	return result
}
