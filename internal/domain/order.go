package domain

import (
	"cmp"    // Ordered comparisons
	"slices" // Sorting
	"time"   // Dates
)

// Position is a transaction's place in its user's ledger order.
// The ledger is ordered by Date ascending, then Sequence ascending.
// Sequences are unique per user, so two positions of the same user never tie.
type Position struct {
	Date     time.Time // Calendar date
	Sequence int64     // Per-user insertion counter
}

// Position returns where t sits in the ledger order
func (t Transaction) Position() Position {
	return Position{Date: NormalizeDate(t.Date), Sequence: t.Sequence}
}

// Compare returns -1, 0 or +1 as a sorts before, equal to, or after b
func Compare(a, b Position) int {
	if c := a.Date.Compare(b.Date); c != 0 {
		return c // Dates decide first
	}
	return cmp.Compare(a.Sequence, b.Sequence) // Same date, older insertion first
}

// Before reports whether p sorts strictly before other
func (p Position) Before(other Position) bool {
	return Compare(p, other) < 0
}

// MinPosition returns the earlier of two positions
func MinPosition(a, b Position) Position {
	if b.Before(a) {
		return b
	}
	return a
}

// SortTransactions sorts txs in place by ledger order
func SortTransactions(txs []Transaction) {
	slices.SortStableFunc(txs, func(a, b Transaction) int {
		return Compare(a.Position(), b.Position())
	})
}
