// Package ledger maintains per-user running balances over income and expense
// transactions.
//
// Every transaction carries a cumulative delta: the sum of the signed amounts of
// all transactions of the same user ordered at or before it by (date, sequence).
// Mutations rewrite the affected suffix of that prefix sum inside one store
// transaction that holds the user's row lock, so a committed ledger is always
// consistent.
package ledger

import (
	"context" // Request scoping
	"time"    // Dates

	"expense_ledger/internal/domain" // Models and ordering policy

	"github.com/shopspring/decimal" // Exact decimal money
)

// TransactionFilter narrows a history page
type TransactionFilter struct {
	From     *time.Time             // Inclusive lower date bound
	To       *time.Time             // Inclusive upper date bound
	Type     domain.TransactionType // Empty for both types
	Page     int                    // 1-based page number
	PageSize int                    // Rows per page
}

// Reader is the read side of the ledger store
type Reader interface {
	FindUser(ctx context.Context, userID uint) (*domain.User, error)
	FindUserByUsername(ctx context.Context, username string) (*domain.User, error)
	FindTransaction(ctx context.Context, id uint) (*domain.Transaction, error)
	// LastTransaction returns the highest-ordered transaction of the user, limited to
	// dates <= *asOf when asOf is set. It returns nil, nil when there is none.
	LastTransaction(ctx context.Context, userID uint, asOf *time.Time) (*domain.Transaction, error)
	ListTransactions(ctx context.Context, userID uint) ([]domain.Transaction, error)
	PageTransactions(ctx context.Context, userID uint, f TransactionFilter) ([]domain.Transaction, int64, error)
	ListUsers(ctx context.Context, page, pageSize int) ([]domain.User, int64, error)
}

// Tx is the store as seen from inside one atomic unit of work
type Tx interface {
	Reader
	CreateUser(ctx context.Context, u *domain.User) error
	// LockUser loads the user and holds its row lock until the unit commits or rolls back.
	LockUser(ctx context.Context, userID uint) (*domain.User, error)
	NextSequence(ctx context.Context, userID uint) (int64, error)
	SetInitialBalance(ctx context.Context, userID uint, amount decimal.Decimal) error
	// Predecessor returns the last transaction strictly before pos, or nil, nil.
	Predecessor(ctx context.Context, userID uint, pos domain.Position) (*domain.Transaction, error)
	// Suffix returns every transaction at or after pos in ledger order.
	Suffix(ctx context.Context, userID uint, pos domain.Position) ([]domain.Transaction, error)
	InsertTransaction(ctx context.Context, t *domain.Transaction) error
	SaveTransaction(ctx context.Context, t *domain.Transaction) error
	DeleteTransaction(ctx context.Context, id uint) error
	SetCumulativeDelta(ctx context.Context, id uint, delta decimal.Decimal) error
}

// Store is the ledger persistence boundary
type Store interface {
	Reader
	// InTx runs fn in one database transaction. Any error from fn rolls back every
	// write made through tx.
	InTx(ctx context.Context, fn func(tx Tx) error) error
}
