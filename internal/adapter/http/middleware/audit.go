package middleware

import (
	"encoding/json"
	"net/http"
	"time"

	"wallet-ledger/internal/core/domain"
	"wallet-ledger/internal/core/ports"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

// AuditLog records successful state-changing gateway calls.
func AuditLog(auditSvc ports.AuditService) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Next()

		if c.Writer.Status() < 200 || c.Writer.Status() >= 300 {
			return
		}
		if c.Request.Method != http.MethodPost {
			return
		}

		action, resourceType := mapPathToAction(c.FullPath())
		if action == "" {
			return
		}

		var clientID *uuid.UUID
		if v, exists := c.Get(CtxClientID); exists {
			if id, ok := v.(uuid.UUID); ok {
				clientID = &id
			}
		}

		outcome := c.GetString(CtxOutcome)
		if outcome == "" {
			outcome = "00"
		}

		details, _ := json.Marshal(map[string]interface{}{
			"method":     c.Request.Method,
			"path":       c.Request.URL.Path,
			"status":     c.Writer.Status(),
			"request_id": c.GetString("request_id"),
		})

		auditSvc.Log(c.Request.Context(), &domain.AuditLog{
			ID:           uuid.New(),
			ClientID:     clientID,
			Action:       action,
			ResourceType: resourceType,
			ResourceID:   c.GetString(CtxResourceID),
			Outcome:      outcome,
			Details:      string(details),
			IPAddress:    c.ClientIP(),
			CreatedAt:    time.Now().UTC(),
		})
	}
}

func mapPathToAction(path string) (domain.AuditAction, string) {
	switch path {
	case "/api/v1/clients":
		return domain.AuditActionRegister, "client"
	case "/api/v1/wallets/recharge":
		return domain.AuditActionRecharge, "wallet"
	case "/api/v1/payments":
		return domain.AuditActionReserve, "reservation"
	case "/api/v1/payments/confirm":
		return domain.AuditActionConfirm, "reservation"
	}
	return "", ""
}
