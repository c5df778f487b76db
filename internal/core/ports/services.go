package ports

//go:generate mockgen -source=services.go -destination=mocks/mock_services.go -package=mocks

import (
	"context"
	"time"

	"wallet-ledger/internal/core/domain"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// --- Core operations ---

// ClientRegistry registers clients together with their wallet.
type ClientRegistry interface {
	Register(ctx context.Context, req RegisterRequest) (*RegisterResponse, error)
}

// WalletStore mutates and reads wallet balances.
type WalletStore interface {
	Recharge(ctx context.Context, req RechargeRequest) (*RechargeResponse, error)
	GetBalance(ctx context.Context, req ClientKey) (*BalanceResponse, error)
}

// ReservationManager issues and resolves payment reservations.
type ReservationManager interface {
	Reserve(ctx context.Context, req ReserveRequest) (*ReserveResponse, error)
	Confirm(ctx context.Context, req ConfirmRequest) (*ConfirmResponse, error)
	ExpireOverdue(ctx context.Context) (int64, error)
}

// StatementService answers read-only ledger queries.
type StatementService interface {
	ListTransactions(ctx context.Context, req StatementRequest) (*StatementResponse, error)
}

// LedgerService is the facade transports are built against. Every call
// answers with a Result envelope instead of an error.
type LedgerService interface {
	Register(ctx context.Context, req RegisterRequest) domain.Result[RegisterResponse]
	Recharge(ctx context.Context, req RechargeRequest) domain.Result[RechargeResponse]
	GetBalance(ctx context.Context, req ClientKey) domain.Result[BalanceResponse]
	Reserve(ctx context.Context, req ReserveRequest) domain.Result[ReserveResponse]
	Confirm(ctx context.Context, req ConfirmRequest) domain.Result[ConfirmResponse]
}

// StatementReader is the enveloped form of StatementService.
type StatementReader interface {
	ListTransactions(ctx context.Context, req StatementRequest) domain.Result[StatementResponse]
}

// ClientKey identifies a client by document and phone.
type ClientKey struct {
	Document string `json:"documento" validate:"required,max=50"`
	Phone    string `json:"telefono" validate:"required,max=30"`
}

// RegisterRequest holds input for client registration.
type RegisterRequest struct {
	Names    string `json:"nombres" validate:"required,max=150"`
	Document string `json:"documento" validate:"required,max=50"`
	Email    string `json:"email" validate:"required,email,max=150"`
	Phone    string `json:"telefono" validate:"required,max=30"`
}

// RegisterResponse holds the registration result.
type RegisterResponse struct {
	ClientID       uuid.UUID       `json:"client_id"`
	WalletID       uuid.UUID       `json:"wallet_id"`
	InitialBalance decimal.Decimal `json:"initial_balance"`
}

// RechargeRequest credits Amount to the client's wallet.
type RechargeRequest struct {
	ClientKey
	Amount decimal.Decimal
}

type RechargeResponse struct {
	ClientID   uuid.UUID       `json:"client_id"`
	WalletID   uuid.UUID       `json:"wallet_id"`
	Amount     decimal.Decimal `json:"amount"`
	NewBalance decimal.Decimal `json:"new_balance"`
}

type BalanceResponse struct {
	ClientID uuid.UUID       `json:"client_id"`
	WalletID uuid.UUID       `json:"wallet_id"`
	Balance  decimal.Decimal `json:"balance"`
}

// ReserveRequest opens a payment reservation for Amount.
type ReserveRequest struct {
	ClientKey
	Amount decimal.Decimal
}

type ReserveResponse struct {
	SessionID uuid.UUID       `json:"session_id"`
	Token     string          `json:"token"`
	Email     string          `json:"email"`
	Amount    decimal.Decimal `json:"amount"`
	ExpiresAt *time.Time      `json:"expires_at,omitempty"`
}

// ConfirmRequest redeems a reservation with its one-time token.
type ConfirmRequest struct {
	SessionID uuid.UUID `json:"session_id" validate:"required"`
	Token     string    `json:"token" validate:"required,max=12"`
}

type ConfirmResponse struct {
	ClientID   uuid.UUID       `json:"client_id"`
	WalletID   uuid.UUID       `json:"wallet_id"`
	Amount     decimal.Decimal `json:"amount"`
	NewBalance decimal.Decimal `json:"new_balance"`
}

// StatementRequest pages through a client's ledger, newest first.
type StatementRequest struct {
	ClientKey
	Page     int `json:"page" validate:"gte=0"`
	PageSize int `json:"page_size" validate:"gte=0,lte=100"`
}

type StatementResponse struct {
	ClientID   uuid.UUID            `json:"client_id"`
	WalletID   uuid.UUID            `json:"wallet_id"`
	Items      []domain.LedgerEntry `json:"items"`
	Total      int64                `json:"total"`
	Page       int                  `json:"page"`
	PageSize   int                  `json:"page_size"`
	TotalPages int                  `json:"total_pages"`
}

// --- Supporting services ---

// CodeGenerator produces reservation tokens.
type CodeGenerator interface {
	Generate() (string, error)
}

// TokenNotifier delivers a reservation token to the payer out of band.
type TokenNotifier interface {
	NotifyReservation(ctx context.Context, n domain.TokenNotification) error
}

// SignatureService handles HMAC-SHA256 signing and verification.
type SignatureService interface {
	Sign(secret, payload string) string
	Verify(secret, payload, signature string) bool
}

// TokenService issues and validates service-to-service bearer tokens.
type TokenService interface {
	Generate(subject string) (string, time.Time, error)
	Validate(token string) (*TokenClaims, error)
}

// TokenClaims holds the parsed JWT claims.
type TokenClaims struct {
	Subject   string
	TokenID   string
	ExpiresAt time.Time
}

// AuditService records audit logs without blocking the caller.
type AuditService interface {
	Log(ctx context.Context, entry *domain.AuditLog)
}

// --- Infrastructure ---

// IdempotencyCache stores replayable responses keyed by Idempotency-Key.
type IdempotencyCache interface {
	Get(ctx context.Context, key string) ([]byte, error) // Returns cached response or nil
	Set(ctx context.Context, key string, response []byte, ttl time.Duration) error
}

// NonceStore remembers single-use identifiers.
type NonceStore interface {
	// Claim atomically records id. Returns true if id was not seen before.
	Claim(ctx context.Context, id string, ttl time.Duration) (bool, error)
}

// RateLimiter counts hits per key in a fixed window.
type RateLimiter interface {
	Allow(ctx context.Context, key string, limit int, window time.Duration) (*RateLimitResult, error)
}

// RateLimitResult holds the outcome of a rate limit check.
type RateLimitResult struct {
	Allowed   bool
	Limit     int
	Remaining int
	ResetAt   time.Time
}
