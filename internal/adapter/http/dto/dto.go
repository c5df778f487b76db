package dto

import "github.com/shopspring/decimal"

// RegisterRequest is the request body for client registration.
type RegisterRequest struct {
	Nombres   string `json:"nombres" binding:"required,max=150"`
	Documento string `json:"documento" binding:"required,document"`
	Email     string `json:"email" binding:"required,email,max=150"`
	Telefono  string `json:"telefono" binding:"required,phone"`
}

// AmountRequest is the request body shared by recharge and payment creation.
// Monto is a pointer so that a missing amount fails binding instead of
// reading as zero.
type AmountRequest struct {
	Documento string           `json:"documento" binding:"required,document"`
	Telefono  string           `json:"telefono" binding:"required,phone"`
	Monto     *decimal.Decimal `json:"monto" binding:"required"`
}

// ConfirmRequest is the request body for payment confirmation.
type ConfirmRequest struct {
	SessionID string `json:"session_id" binding:"required,uuid"`
	Token     string `json:"token" binding:"required,numeric,max=12"`
}

// ClientQuery identifies a client in query strings.
type ClientQuery struct {
	Documento string `form:"documento" binding:"required,document"`
	Telefono  string `form:"telefono" binding:"required,phone"`
}

// StatementQuery is the query string of the transactions endpoint.
type StatementQuery struct {
	ClientQuery
	Page     int `form:"page" binding:"gte=0"`
	PageSize int `form:"page_size" binding:"gte=0,lte=100"`
}
