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

// ClientHandler handles client onboarding.
type ClientHandler struct {
	ledger ports.LedgerService
}

// NewClientHandler creates a new ClientHandler.
func NewClientHandler(ledger ports.LedgerService) *ClientHandler {
	return &ClientHandler{ledger: ledger}
}

// Register handles POST /api/v1/clients.
func (h *ClientHandler) Register(c *gin.Context) {
	var req dto.RegisterRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, apperror.Validation(dto.BindingMessage(err)))
		return
	}
	dto.SanitizeStruct(&req)

	result := h.ledger.Register(c.Request.Context(), ports.RegisterRequest{
		Names:    req.Nombres,
		Document: req.Documento,
		Email:    req.Email,
		Phone:    req.Telefono,
	})
	if result.Success {
		c.Set(middleware.CtxClientID, result.Data.ClientID)
		c.Set(middleware.CtxResourceID, result.Data.ClientID.String())
	}

	response.Write(c, http.StatusCreated, result)
}
