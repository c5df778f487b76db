package domain

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestIsValidAmount(t *testing.T) {
	tests := []struct {
		name   string
		amount string
		want   bool
	}{
		{"whole", "300", true},
		{"two decimals", "12.50", true},
		{"trailing zeros", "12.500", true},
		{"smallest unit", "0.01", true},
		{"zero", "0", false},
		{"negative", "-5", false},
		{"three decimals", "1.005", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, IsValidAmount(decimal.RequireFromString(tt.amount)))
		})
	}
}

func TestParseAmount(t *testing.T) {
	d, err := ParseAmount("450.25")
	require.NoError(t, err)
	assert.True(t, d.Equal(decimal.RequireFromString("450.25")))

	_, err = ParseAmount("abc")
	assert.Error(t, err)
}

func TestLedgerEntry_SignedAmount(t *testing.T) {
	credit := &LedgerEntry{
		Direction:     EntryCredit,
		Amount:        decimal.NewFromInt(300),
		BalanceBefore: decimal.Zero,
		BalanceAfter:  decimal.NewFromInt(300),
	}
	debit := &LedgerEntry{
		Direction:     EntryDebit,
		Amount:        decimal.NewFromInt(120),
		BalanceBefore: decimal.NewFromInt(300),
		BalanceAfter:  decimal.NewFromInt(180),
	}

	assert.True(t, credit.SignedAmount().Equal(decimal.NewFromInt(300)))
	assert.True(t, debit.SignedAmount().Equal(decimal.NewFromInt(-120)))
	assert.True(t, credit.IsConsistent())
	assert.True(t, debit.IsConsistent())

	debit.BalanceAfter = decimal.NewFromInt(200)
	assert.False(t, debit.IsConsistent())
}

func TestPaymentReservation_IsRedeemable(t *testing.T) {
	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	past := now.Add(-time.Minute)
	future := now.Add(time.Minute)

	tests := []struct {
		name      string
		status    ReservationStatus
		expiresAt *time.Time
		want      bool
	}{
		{"pending without expiry", ReservationPending, nil, true},
		{"pending not yet expired", ReservationPending, &future, true},
		{"pending past expiry", ReservationPending, &past, false},
		{"pending expiring now", ReservationPending, &now, false},
		{"confirmed", ReservationConfirmed, nil, false},
		{"expired", ReservationExpired, nil, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := &PaymentReservation{Status: tt.status, ExpiresAt: tt.expiresAt}
			assert.Equal(t, tt.want, r.IsRedeemable(now))
		})
	}
}

func TestPaymentReservation_IsTerminal(t *testing.T) {
	assert.False(t, (&PaymentReservation{Status: ReservationPending}).IsTerminal())
	assert.True(t, (&PaymentReservation{Status: ReservationConfirmed}).IsTerminal())
	assert.True(t, (&PaymentReservation{Status: ReservationExpired}).IsTerminal())
}

func TestPaymentReservation_TokenNotSerialized(t *testing.T) {
	r := PaymentReservation{Token: "123456", Amount: decimal.NewFromInt(10), Status: ReservationPending}
	b, err := json.Marshal(r)
	require.NoError(t, err)
	assert.NotContains(t, string(b), "123456")
}

func TestResult_JSONShape(t *testing.T) {
	type payload struct {
		Balance decimal.Decimal `json:"balance"`
	}

	ok := OK("ok", &payload{Balance: decimal.NewFromInt(5)})
	b, err := json.Marshal(ok)
	require.NoError(t, err)
	assert.JSONEq(t, `{"success":true,"message":"ok","errorCode":"00","data":{"balance":"5"}}`, string(b))

	failed := Fail[payload]("400", "Client not found")
	b, err = json.Marshal(failed)
	require.NoError(t, err)
	assert.JSONEq(t, `{"success":false,"message":"Client not found","errorCode":"400","data":null}`, string(b))
}
