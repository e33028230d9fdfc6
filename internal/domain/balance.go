package domain

import (
	"time" // As-of dates

	"github.com/shopspring/decimal" // Exact decimal money
)

// Balance is the derived balance of a user at the end of the ledger or at a date
type Balance struct {
	UserID            uint            `json:"user_id"`                       // Owner
	InitialBalance    decimal.Decimal `json:"initial_balance"`               // Opening balance
	CumulativeDelta   decimal.Decimal `json:"cumulative_delta"`              // Delta of the last counted transaction
	Balance           decimal.Decimal `json:"balance"`                       // InitialBalance + CumulativeDelta
	AsOf              *time.Time      `json:"as_of,omitempty"`               // Target date, nil for the current balance
	LastTransactionID *uint           `json:"last_transaction_id,omitempty"` // Last transaction counted, nil if none
}

// NewBalance derives a balance from a user and the last transaction counted (may be nil)
func NewBalance(u *User, last *Transaction, asOf *time.Time) *Balance {
	b := &Balance{
		UserID:          u.ID,
		InitialBalance:  u.InitialBalance,
		CumulativeDelta: decimal.Zero,
		AsOf:            asOf,
	}
	if last != nil {
		id := last.ID
		b.CumulativeDelta = last.CumulativeDelta
		b.LastTransactionID = &id
	}
	b.Balance = b.InitialBalance.Add(b.CumulativeDelta)
	return b
}

// Drift is one transaction whose stored cumulative delta differs from its prefix sum
type Drift struct {
	TransactionID uint            `json:"transaction_id"` // Drifted row
	Stored        decimal.Decimal `json:"stored"`         // Value in the store
	Expected      decimal.Decimal `json:"expected"`       // Recomputed prefix sum
}
