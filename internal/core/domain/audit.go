package domain

import (
	"time"

	"github.com/google/uuid"
)

// AuditAction represents the type of audited action.
type AuditAction string

const (
	AuditActionRegister AuditAction = "REGISTER"
	AuditActionRecharge AuditAction = "RECHARGE"
	AuditActionReserve  AuditAction = "RESERVE"
	AuditActionConfirm  AuditAction = "CONFIRM"
)

// AuditLog records a single state-changing call made through the gateway.
type AuditLog struct {
	ID           uuid.UUID   `json:"id"`
	ClientID     *uuid.UUID  `json:"client_id,omitempty"`
	Action       AuditAction `json:"action"`
	ResourceType string      `json:"resource_type"`
	ResourceID   string      `json:"resource_id,omitempty"`
	Outcome      string      `json:"outcome"` // result code of the call
	Details      string      `json:"details,omitempty"`
	IPAddress    string      `json:"ip_address"`
	CreatedAt    time.Time   `json:"created_at"`
}
