package domain

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// EntryDirection tells whether a ledger entry added or removed money.
type EntryDirection string

const (
	EntryCredit EntryDirection = "credit"
	EntryDebit  EntryDirection = "debit"
)

const (
	ReferenceRecharge         = "recharge"
	ReferencePaymentConfirmed = "payment confirmed"

	ConceptRecharge = "wallet recharge"
	ConceptPurchase = "charge applied for purchase"
)

// LedgerEntry is an immutable record of one balance change.
// BalanceAfter - BalanceBefore always equals the signed amount.
type LedgerEntry struct {
	ID            uuid.UUID       `json:"id"`
	WalletID      uuid.UUID       `json:"wallet_id"`
	Direction     EntryDirection  `json:"direction"`
	Amount        decimal.Decimal `json:"amount"`
	BalanceBefore decimal.Decimal `json:"balance_before"`
	BalanceAfter  decimal.Decimal `json:"balance_after"`
	Reference     string          `json:"reference"`
	Concept       string          `json:"concept"`
	CreatedAt     time.Time       `json:"created_at"`
}

// SignedAmount is the amount as applied to the balance.
func (e *LedgerEntry) SignedAmount() decimal.Decimal {
	if e.Direction == EntryDebit {
		return e.Amount.Neg()
	}
	return e.Amount
}

// IsConsistent reports whether the recorded balances agree with the amount.
func (e *LedgerEntry) IsConsistent() bool {
	return e.BalanceAfter.Sub(e.BalanceBefore).Equal(e.SignedAmount())
}
