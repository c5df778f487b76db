package domain

import (
	"time"

	"github.com/google/uuid"
)

// Client is a registered wallet holder. The pair (Document, Phone)
// identifies a client in every wallet operation.
type Client struct {
	ID        uuid.UUID `json:"id"`
	Names     string    `json:"names"`
	Document  string    `json:"document"`
	Email     string    `json:"email"`
	Phone     string    `json:"phone"`
	CreatedAt time.Time `json:"created_at"`
}
