package handler

import (
	"net/http"
	"time"

	"wallet-ledger/internal/adapter/http/dto"
	"wallet-ledger/internal/adapter/http/middleware"
	"wallet-ledger/internal/core/ports"
	"wallet-ledger/pkg/apperror"
	"wallet-ledger/pkg/response"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

// ConfirmGuard bounds the confirm attempts made against one session.
type ConfirmGuard struct {
	Limiter     ports.RateLimiter // nil disables the guard
	MaxAttempts int
	Window      time.Duration
}

// PaymentHandler handles the reserve and confirm endpoints.
type PaymentHandler struct {
	ledger ports.LedgerService
	guard  ConfirmGuard
	log    zerolog.Logger
}

// NewPaymentHandler creates a new PaymentHandler.
func NewPaymentHandler(ledger ports.LedgerService, guard ConfirmGuard, log zerolog.Logger) *PaymentHandler {
	return &PaymentHandler{ledger: ledger, guard: guard, log: log}
}

// Reserve handles POST /api/v1/payments.
func (h *PaymentHandler) Reserve(c *gin.Context) {
	var req dto.AmountRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, apperror.Validation(dto.BindingMessage(err)))
		return
	}
	dto.SanitizeStruct(&req)

	result := h.ledger.Reserve(c.Request.Context(), ports.ReserveRequest{
		ClientKey: ports.ClientKey{Document: req.Documento, Phone: req.Telefono},
		Amount:    *req.Monto,
	})
	if result.Success {
		c.Set(middleware.CtxResourceID, result.Data.SessionID.String())
	}

	response.Write(c, http.StatusCreated, result)
}

// Confirm handles POST /api/v1/payments/confirm.
func (h *PaymentHandler) Confirm(c *gin.Context) {
	var req dto.ConfirmRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, apperror.Validation(dto.BindingMessage(err)))
		return
	}
	sessionID, err := uuid.Parse(req.SessionID)
	if err != nil {
		response.Error(c, apperror.Validation("session_id must be a valid session id"))
		return
	}

	if !h.allowAttempt(c, sessionID) {
		response.Error(c, apperror.ErrRateLimitExceeded())
		return
	}

	result := h.ledger.Confirm(c.Request.Context(), ports.ConfirmRequest{
		SessionID: sessionID,
		Token:     req.Token,
	})
	if result.Success {
		c.Set(middleware.CtxClientID, result.Data.ClientID)
		c.Set(middleware.CtxResourceID, sessionID.String())
	}

	response.Write(c, http.StatusOK, result)
}

// allowAttempt counts one confirm attempt for the session. A failing
// limiter does not block confirmation.
func (h *PaymentHandler) allowAttempt(c *gin.Context, sessionID uuid.UUID) bool {
	if h.guard.Limiter == nil || h.guard.MaxAttempts <= 0 {
		return true
	}
	result, err := h.guard.Limiter.Allow(c.Request.Context(), "confirm:"+sessionID.String(), h.guard.MaxAttempts, h.guard.Window)
	if err != nil {
		h.log.Warn().Err(err).Str("session_id", sessionID.String()).Msg("confirm attempt check failed, allowing request (degraded mode)")
		return true
	}
	if !middleware.WriteRateLimitHeaders(c, result) {
		h.log.Warn().Str("session_id", sessionID.String()).Str("client_ip", c.ClientIP()).Msg("confirm attempts exhausted")
		return false
	}
	return true
}
