package ledger

import (
	"context" // Request scoping
	"fmt"     // Error wrapping
	"time"    // As-of dates

	"expense_ledger/internal/domain" // Models

	"github.com/shopspring/decimal" // Exact decimal money
)

// Balances answers balance questions from committed ledger state. It never writes.
type Balances struct {
	store Reader // Committed state
}

// NewBalances creates a balance query over r
func NewBalances(r Reader) *Balances {
	return &Balances{store: r}
}

// CurrentBalance is initial_balance plus the cumulative delta of the last transaction
func (b *Balances) CurrentBalance(ctx context.Context, userID uint) (*domain.Balance, error) {
	u, err := b.store.FindUser(ctx, userID)
	if err != nil {
		return nil, err
	}
	last, err := b.store.LastTransaction(ctx, userID, nil)
	if err != nil {
		return nil, fmt.Errorf("load last transaction: %w", err)
	}
	return domain.NewBalance(u, last, nil), nil
}

// BalanceAsOf is initial_balance plus the cumulative delta of the highest-ordered
// transaction dated on or before date, or initial_balance alone if there is none
func (b *Balances) BalanceAsOf(ctx context.Context, userID uint, date time.Time) (*domain.Balance, error) {
	u, err := b.store.FindUser(ctx, userID)
	if err != nil {
		return nil, err
	}
	asOf := domain.NormalizeDate(date)
	last, err := b.store.LastTransaction(ctx, userID, &asOf)
	if err != nil {
		return nil, fmt.Errorf("load last transaction as of %s: %w", asOf.Format(time.DateOnly), err)
	}
	return domain.NewBalance(u, last, &asOf), nil
}

// HistoryEntry is a transaction with the balance right after it
type HistoryEntry struct {
	domain.Transaction
	Balance decimal.Decimal `json:"balance"` // InitialBalance + CumulativeDelta
}

// History returns one page of a user's ledger with running balances
func (b *Balances) History(ctx context.Context, userID uint, f TransactionFilter) ([]HistoryEntry, int64, error) {
	u, err := b.store.FindUser(ctx, userID)
	if err != nil {
		return nil, 0, err
	}
	rows, total, err := b.store.PageTransactions(ctx, userID, f)
	if err != nil {
		return nil, 0, fmt.Errorf("load history: %w", err)
	}
	entries := make([]HistoryEntry, len(rows)) // Page with balances
	for i, t := range rows {
		entries[i] = HistoryEntry{Transaction: t, Balance: u.InitialBalance.Add(t.CumulativeDelta)}
	}
	return entries, total, nil
}
