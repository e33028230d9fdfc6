package domain

import (
	"time" // Dates and timestamps

	"github.com/shopspring/decimal" // Exact decimal money
)

// TransactionType tells whether money came in or went out
type TransactionType string

// Supported transaction types
const (
	TypeExpense TransactionType = "expense" // Money out, negative signed amount
	TypeIncome  TransactionType = "income"  // Money in, positive signed amount
)

// Valid reports whether t is a known transaction type
func (t TransactionType) Valid() bool {
	return t == TypeExpense || t == TypeIncome
}

// PaymentMethod records how the transaction was settled
type PaymentMethod string

// Supported payment methods
const (
	PaymentCash         PaymentMethod = "cash"
	PaymentCard         PaymentMethod = "card"
	PaymentBankTransfer PaymentMethod = "bank_transfer"
	PaymentOther        PaymentMethod = "other"
)

// Transaction Model
type Transaction struct {
	ID              uint            `gorm:"primaryKey" json:"id"`                                                                              // Primary key, never reused for ordering
	UserID          uint            `gorm:"not null;uniqueIndex:idx_tx_user_order,priority:1;index:idx_tx_user_date,priority:1" json:"user_id"` // Owner
	Date            time.Time       `gorm:"type:date;not null;uniqueIndex:idx_tx_user_order,priority:2;index:idx_tx_user_date,priority:2" json:"date"` // Calendar date, UTC midnight
	Sequence        int64           `gorm:"not null;uniqueIndex:idx_tx_user_order,priority:3" json:"sequence"`                                 // Same-date tie-break
	Type            TransactionType `gorm:"size:16;not null" json:"type"`                                                                      // expense or income
	Amount          decimal.Decimal `gorm:"type:decimal(20,4);not null" json:"amount"`                                                         // Positive magnitude
	SignedAmount    decimal.Decimal `gorm:"type:decimal(20,4);not null" json:"signed_amount"`                                                  // Amount with sign applied by type
	CumulativeDelta decimal.Decimal `gorm:"type:decimal(20,4);not null;default:0" json:"cumulative_delta"`                                     // Prefix sum up to and including this row
	Subject         string          `gorm:"size:255;not null" json:"subject"`                                                                  // Short description
	PaymentMethod   PaymentMethod   `gorm:"size:32;not null" json:"payment_method"`                                                            // How it was paid
	Notes           *string         `gorm:"type:text" json:"notes,omitempty"`                                                                  // Optional free text
	CategoryID      *uint           `gorm:"index" json:"category_id,omitempty"`                                                                // Optional category reference
	GroupID         *uint           `gorm:"index" json:"group_id,omitempty"`                                                                   // Optional group reference
	CreatedAt       time.Time       `json:"created_at"`                                                                                        // Creation time
	UpdatedAt       time.Time       `json:"updated_at"`                                                                                        // Last update time
}

// SignedAmount applies the sign implied by the transaction type to a positive amount
func SignedAmount(t TransactionType, amount decimal.Decimal) decimal.Decimal {
	if t == TypeExpense {
		return amount.Abs().Neg() // Expenses always reduce the balance
	}
	return amount.Abs() // Income always increases it
}

// NormalizeDate strips the time of day and pins the date to UTC
func NormalizeDate(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

// ParseDate parses a YYYY-MM-DD calendar date
func ParseDate(s string) (time.Time, error) {
	t, err := time.Parse(time.DateOnly, s)
	if err != nil {
		return time.Time{}, err
	}
	return NormalizeDate(t), nil
}
