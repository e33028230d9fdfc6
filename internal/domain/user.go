package domain

import (
	"time" // Timestamps

	"github.com/shopspring/decimal" // Exact decimal money
)

// Roles a user may hold
const (
	RoleUser  = "user"  // Regular account
	RoleAdmin = "admin" // May repair other users' ledgers
)

// User Model
type User struct {
	ID             uint            `gorm:"primaryKey" json:"id"`                                       // Primary key
	Username       string          `gorm:"unique;not null;size:64" json:"username"`                    // Unique username
	Password       string          `gorm:"not null" json:"-"`                                          // Hashed password
	Role           string          `gorm:"default:user;size:16" json:"role"`                           // Role: user or admin
	InitialBalance decimal.Decimal `gorm:"type:decimal(20,4);not null;default:0" json:"initial_balance"` // Opening balance, never the running balance
	NextSequence   int64           `gorm:"not null;default:0" json:"-"`                                // Last issued ledger sequence
	CreatedAt      time.Time       `json:"created_at"`                                                 // Creation time
	UpdatedAt      time.Time       `json:"updated_at"`                                                 // Last update time
}
