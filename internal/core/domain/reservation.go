package domain

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// ReservationStatus is the lifecycle state of a payment reservation.
type ReservationStatus string

const (
	ReservationPending   ReservationStatus = "pending"
	ReservationConfirmed ReservationStatus = "confirmed"
	ReservationExpired   ReservationStatus = "expired"
)

// PaymentReservation is a pending purchase of Amount by a client, redeemable
// once with its one-time Token. ExpiresAt is nil when reservations never expire.
type PaymentReservation struct {
	ID          uuid.UUID         `json:"session_id"`
	ClientID    uuid.UUID         `json:"client_id"`
	Token       string            `json:"-"`
	Amount      decimal.Decimal   `json:"amount"`
	Status      ReservationStatus `json:"status"`
	CreatedAt   time.Time         `json:"created_at"`
	ExpiresAt   *time.Time        `json:"expires_at,omitempty"`
	ConfirmedAt *time.Time        `json:"confirmed_at,omitempty"`
}

// IsRedeemable returns true if the reservation can still be confirmed at now.
func (r *PaymentReservation) IsRedeemable(now time.Time) bool {
	if r.Status != ReservationPending {
		return false
	}
	return r.ExpiresAt == nil || now.Before(*r.ExpiresAt)
}

// IsTerminal returns true if the reservation is in a final state.
func (r *PaymentReservation) IsTerminal() bool {
	return r.Status == ReservationConfirmed || r.Status == ReservationExpired
}
