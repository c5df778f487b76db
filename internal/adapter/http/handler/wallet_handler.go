package handler

import (
	"net/http"

	"wallet-ledger/internal/adapter/http/dto"
	"wallet-ledger/internal/adapter/http/middleware"
	"wallet-ledger/internal/core/ports"
	"wallet-ledger/pkg/apperror"
	"wallet-ledger/pkg/response"

	"github.com/gin-gonic/gin"
)

// WalletHandler handles wallet-related endpoints.
type WalletHandler struct {
	ledger     ports.LedgerService
	statements ports.StatementReader
}

// NewWalletHandler creates a new WalletHandler.
func NewWalletHandler(ledger ports.LedgerService, statements ports.StatementReader) *WalletHandler {
	return &WalletHandler{ledger: ledger, statements: statements}
}

// Create handles POST /api/v1/wallets. Wallets only come into existence
// through client registration.
func (h *WalletHandler) Create(c *gin.Context) {
	response.Error(c, apperror.Validation("Wallet is created automatically on client registration"))
}

// Recharge handles POST /api/v1/wallets/recharge.
func (h *WalletHandler) Recharge(c *gin.Context) {
	var req dto.AmountRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, apperror.Validation(dto.BindingMessage(err)))
		return
	}
	dto.SanitizeStruct(&req)

	result := h.ledger.Recharge(c.Request.Context(), ports.RechargeRequest{
		ClientKey: ports.ClientKey{Document: req.Documento, Phone: req.Telefono},
		Amount:    *req.Monto,
	})
	if result.Success {
		c.Set(middleware.CtxClientID, result.Data.ClientID)
		c.Set(middleware.CtxResourceID, result.Data.WalletID.String())
	}

	response.Write(c, http.StatusOK, result)
}

// GetBalance handles GET /api/v1/wallets/balance.
func (h *WalletHandler) GetBalance(c *gin.Context) {
	var q dto.ClientQuery
	if err := c.ShouldBindQuery(&q); err != nil {
		response.Error(c, apperror.Validation(dto.BindingMessage(err)))
		return
	}
	dto.SanitizeStruct(&q)

	result := h.ledger.GetBalance(c.Request.Context(), ports.ClientKey{Document: q.Documento, Phone: q.Telefono})
	response.Write(c, http.StatusOK, result)
}

// ListTransactions handles GET /api/v1/wallets/transactions.
func (h *WalletHandler) ListTransactions(c *gin.Context) {
	var q dto.StatementQuery
	if err := c.ShouldBindQuery(&q); err != nil {
		response.Error(c, apperror.Validation(dto.BindingMessage(err)))
		return
	}
	dto.SanitizeStruct(&q)

	result := h.statements.ListTransactions(c.Request.Context(), ports.StatementRequest{
		ClientKey: ports.ClientKey{Document: q.Documento, Phone: q.Telefono},
		Page:      q.Page,
		PageSize:  q.PageSize,
	})
	response.Write(c, http.StatusOK, result)
}
