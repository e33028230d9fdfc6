package ledger

import (
	"context" // Request scoping
	"fmt"     // Error wrapping

	"expense_ledger/internal/domain" // Models and ordering policy

	"github.com/shopspring/decimal" // Exact decimal money
	"github.com/sirupsen/logrus"    // Structured logging
)

// Engine restores prefix-sum correctness after a single mutation
type Engine struct {
	log *logrus.Entry // Debug output for recompute walks
}

// NewEngine creates a recalculation engine
func NewEngine(log *logrus.Entry) *Engine {
	if log == nil {
		log = logrus.NewEntry(logrus.StandardLogger())
	}
	return &Engine{log: log.WithField("component", "ledger_engine")}
}

// Replay recomputes cumulative deltas for every transaction of userID ordered at or
// after from, starting from the cumulative delta of the transaction just before it.
// Only rows whose stored delta changes are written. It returns how many were.
func (e *Engine) Replay(ctx context.Context, tx Tx, userID uint, from domain.Position) (int, error) {
	base := decimal.Zero // Delta before the first transaction
	prev, err := tx.Predecessor(ctx, userID, from)
	if err != nil {
		return 0, fmt.Errorf("load predecessor: %w", err)
	}
	if prev != nil {
		base = prev.CumulativeDelta
	}
	suffix, err := tx.Suffix(ctx, userID, from)
	if err != nil {
		return 0, fmt.Errorf("load suffix: %w", err)
	}
	touched, err := e.rewrite(ctx, tx, base, suffix)
	if err != nil {
		return touched, err
	}
	e.log.WithFields(logrus.Fields{
		"user_id": userID,        // Ledger owner
		"from":    from.Date,     // Change point date
		"seq":     from.Sequence, // Change point sequence
		"scanned": len(suffix),   // Rows walked
		"touched": touched,       // Rows rewritten
	}).Debug("Suffix replayed")
	return touched, nil
}

// rewrite walks rows in ledger order carrying a running sum from base
func (e *Engine) rewrite(ctx context.Context, tx Tx, base decimal.Decimal, rows []domain.Transaction) (int, error) {
	running := base // Running prefix sum
	touched := 0    // Rows written
	for i := range rows {
		running = running.Add(rows[i].SignedAmount)
		if rows[i].CumulativeDelta.Equal(running) {
			continue // Already correct
		}
		if err := tx.SetCumulativeDelta(ctx, rows[i].ID, running); err != nil {
			return touched, fmt.Errorf("write cumulative delta of transaction %d: %w", rows[i].ID, err)
		}
		rows[i].CumulativeDelta = running
		touched++
	}
	return touched, nil
}

// OnCreate places a freshly inserted transaction into the prefix sum
func (e *Engine) OnCreate(ctx context.Context, tx Tx, t *domain.Transaction) (int, error) {
	return e.Replay(ctx, tx, t.UserID, t.Position())
}

// NeedsReplay reports whether an update moved the transaction or changed its amount.
// Edits to subject, notes, payment method, category or group never do.
func NeedsReplay(before, after *domain.Transaction) bool {
	return domain.Compare(before.Position(), after.Position()) != 0 ||
		!before.SignedAmount.Equal(after.SignedAmount)
}

// OnUpdate repairs the ledger after before was saved as after. It is a delete of the
// old position followed by an insert at the new one, so replaying from the earlier of
// the two positions covers both.
func (e *Engine) OnUpdate(ctx context.Context, tx Tx, before, after *domain.Transaction) (int, error) {
	if !NeedsReplay(before, after) {
		return 0, nil
	}
	return e.Replay(ctx, tx, after.UserID, domain.MinPosition(before.Position(), after.Position()))
}

// OnDelete removes a deleted transaction's amount from everything that followed it
func (e *Engine) OnDelete(ctx context.Context, tx Tx, deleted *domain.Transaction) (int, error) {
	return e.Replay(ctx, tx, deleted.UserID, deleted.Position())
}

// Rebuild recomputes every cumulative delta of a user from zero
func (e *Engine) Rebuild(ctx context.Context, tx Tx, userID uint) (int, error) {
	rows, err := tx.ListTransactions(ctx, userID)
	if err != nil {
		return 0, fmt.Errorf("load ledger: %w", err)
	}
	domain.SortTransactions(rows)
	return e.rewrite(ctx, tx, decimal.Zero, rows)
}

// Audit compares stored deltas against recomputed prefix sums without writing
func (e *Engine) Audit(ctx context.Context, r Reader, userID uint) ([]domain.Drift, error) {
	rows, err := r.ListTransactions(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("load ledger: %w", err)
	}
	domain.SortTransactions(rows)
	var drifts []domain.Drift
	running := decimal.Zero
	for _, t := range rows {
		running = running.Add(t.SignedAmount)
		if !t.CumulativeDelta.Equal(running) {
			drifts = append(drifts, domain.Drift{TransactionID: t.ID, Stored: t.CumulativeDelta, Expected: running})
		}
	}
	return drifts, nil
}
