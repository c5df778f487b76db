package domain

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// DeliveryStatus represents the delivery state of a token notification.
type DeliveryStatus string

const (
	DeliveryPending   DeliveryStatus = "PENDING"
	DeliveryDelivered DeliveryStatus = "DELIVERED"
	DeliveryFailed    DeliveryStatus = "FAILED"
)

// TokenNotification carries a freshly issued reservation token to the payer.
type TokenNotification struct {
	ReservationID uuid.UUID
	ClientID      uuid.UUID
	Email         string
	Phone         string
	Token         string
	Amount        decimal.Decimal
	ExpiresAt     *time.Time
}

// NotificationDelivery records each attempt to deliver a token notification.
type NotificationDelivery struct {
	ID            uuid.UUID      `json:"id"`
	ReservationID uuid.UUID      `json:"reservation_id"`
	ClientID      uuid.UUID      `json:"client_id"`
	Destination   string         `json:"destination"`
	Payload       string         `json:"payload"` // JSON string, token included
	HTTPStatus    *int           `json:"http_status"`
	Attempt       int            `json:"attempt"`
	Status        DeliveryStatus `json:"status"`
	LastError     *string        `json:"last_error"`
	CreatedAt     time.Time      `json:"created_at"`
	UpdatedAt     time.Time      `json:"updated_at"`
}
