package ledger

import (
	"context" // Request scoping
	"errors"  // Error inspection
	"fmt"     // Error wrapping
	"strings" // Trimming

	"expense_ledger/internal/domain" // Models and error taxonomy

	"github.com/shopspring/decimal" // Exact decimal money
)

// Service is the only way transactions are created, changed or removed. Each
// operation validates first, then runs row write and suffix recompute as one unit
// under the owner's row lock.
type Service struct {
	store     Store      // Persistence boundary
	engine    *Engine    // Prefix-sum maintenance
	validator *Validator // Input checks
}

// NewService wires a mutation service
func NewService(store Store, engine *Engine, validator *Validator) *Service {
	return &Service{store: store, engine: engine, validator: validator}
}

// Result reports what a mutation did to the ledger
type Result struct {
	Transaction *domain.Transaction // Row after the mutation, nil on delete
	Touched     int                 // Cumulative deltas rewritten
}

// Register creates a user with an opening balance
func (s *Service) Register(ctx context.Context, username, passwordHash string, initial decimal.Decimal) (*domain.User, error) {
	if err := ValidateBalance(initial); err != nil {
		return nil, err
	}
	u := &domain.User{
		Username:       strings.ToLower(username), // Lowercase to keep usernames unique
		Password:       passwordHash,
		Role:           domain.RoleUser,
		InitialBalance: initial,
	}
	err := s.store.InTx(ctx, func(tx Tx) error {
		_, err := tx.FindUserByUsername(ctx, u.Username)
		if err == nil {
			return fmt.Errorf("%w: username %q", domain.ErrAlreadyExists, u.Username)
		}
		if !errors.Is(err, domain.ErrUserNotFound) {
			return err
		}
		return tx.CreateUser(ctx, u)
	})
	if err != nil {
		return nil, err
	}
	return u, nil
}

// Create adds a transaction for userID and folds it into the ledger
func (s *Service) Create(ctx context.Context, userID uint, in TransactionInput) (*Result, error) {
	if err := s.validator.Validate(&in); err != nil {
		return nil, err
	}
	res := &Result{}
	err := s.store.InTx(ctx, func(tx Tx) error {
		if _, err := tx.LockUser(ctx, userID); err != nil {
			return err
		}
		seq, err := tx.NextSequence(ctx, userID)
		if err != nil {
			return fmt.Errorf("issue sequence: %w", err)
		}
		t := &domain.Transaction{UserID: userID, Sequence: seq, CumulativeDelta: decimal.Zero}
		apply(t, in)
		if err := tx.InsertTransaction(ctx, t); err != nil {
			return fmt.Errorf("insert transaction: %w", err)
		}
		if res.Touched, err = s.engine.OnCreate(ctx, tx, t); err != nil {
			return fmt.Errorf("recalculate after create: %w", err)
		}
		res.Transaction, err = tx.FindTransaction(ctx, t.ID)
		return err
	})
	if err != nil {
		return nil, err
	}
	return res, nil
}

// Update rewrites a transaction owned by userID. Moving it in the ledger order or
// changing its amount recomputes the affected suffix; other edits touch no deltas.
func (s *Service) Update(ctx context.Context, id, userID uint, in TransactionInput) (*Result, error) {
	if err := s.validator.Validate(&in); err != nil {
		return nil, err
	}
	res := &Result{}
	err := s.store.InTx(ctx, func(tx Tx) error {
		if _, err := tx.LockUser(ctx, userID); err != nil {
			return err
		}
		t, err := s.owned(ctx, tx, id, userID)
		if err != nil {
			return err
		}
		before := *t // Snapshot of the old position and amount
		apply(t, in)
		if !t.Date.Equal(before.Date) {
			// A moved transaction is appended to its new date's sub-order
			if t.Sequence, err = tx.NextSequence(ctx, userID); err != nil {
				return fmt.Errorf("issue sequence: %w", err)
			}
		}
		if err := tx.SaveTransaction(ctx, t); err != nil {
			return fmt.Errorf("save transaction: %w", err)
		}
		if res.Touched, err = s.engine.OnUpdate(ctx, tx, &before, t); err != nil {
			return fmt.Errorf("recalculate after update: %w", err)
		}
		res.Transaction, err = tx.FindTransaction(ctx, t.ID)
		return err
	})
	if err != nil {
		return nil, err
	}
	return res, nil
}

// Delete removes a transaction owned by userID and repairs everything after it
func (s *Service) Delete(ctx context.Context, id, userID uint) (*Result, error) {
	res := &Result{}
	err := s.store.InTx(ctx, func(tx Tx) error {
		if _, err := tx.LockUser(ctx, userID); err != nil {
			return err
		}
		t, err := s.owned(ctx, tx, id, userID)
		if err != nil {
			return err
		}
		if err := tx.DeleteTransaction(ctx, t.ID); err != nil {
			return fmt.Errorf("delete transaction: %w", err)
		}
		if res.Touched, err = s.engine.OnDelete(ctx, tx, t); err != nil {
			return fmt.Errorf("recalculate after delete: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return res, nil
}

// Get returns a transaction if userID owns it
func (s *Service) Get(ctx context.Context, id, userID uint) (*domain.Transaction, error) {
	return s.owned(ctx, s.store, id, userID)
}

// Recalculate rebuilds every cumulative delta of userID from scratch. Running it
// on a consistent ledger writes nothing.
func (s *Service) Recalculate(ctx context.Context, userID uint) (int, error) {
	touched := 0
	err := s.store.InTx(ctx, func(tx Tx) error {
		if _, err := tx.LockUser(ctx, userID); err != nil {
			return err
		}
		var err error
		touched, err = s.engine.Rebuild(ctx, tx, userID)
		return err
	})
	if err != nil {
		return 0, err
	}
	return touched, nil
}

// Audit returns a *domain.DriftError when any stored delta is wrong
func (s *Service) Audit(ctx context.Context, userID uint) error {
	if _, err := s.store.FindUser(ctx, userID); err != nil {
		return err
	}
	drifts, err := s.engine.Audit(ctx, s.store, userID)
	if err != nil {
		return err
	}
	if len(drifts) > 0 {
		return &domain.DriftError{UserID: userID, Drifts: drifts}
	}
	return nil
}

// SetInitialBalance changes the opening balance. Cumulative deltas are relative to
// it, so no transaction is rewritten.
func (s *Service) SetInitialBalance(ctx context.Context, userID uint, amount decimal.Decimal) error {
	if err := ValidateBalance(amount); err != nil {
		return err
	}
	return s.store.InTx(ctx, func(tx Tx) error {
		if _, err := tx.LockUser(ctx, userID); err != nil {
			return err
		}
		return tx.SetInitialBalance(ctx, userID, amount)
	})
}

// owned loads a transaction and hides it from everyone but its owner
func (s *Service) owned(ctx context.Context, r Reader, id, userID uint) (*domain.Transaction, error) {
	t, err := r.FindTransaction(ctx, id)
	if err != nil {
		return nil, err
	}
	if t.UserID != userID {
		return nil, domain.ErrTransactionNotFound // Same answer as a missing id
	}
	return t, nil
}

// apply copies input fields onto t and derives the signed amount
func apply(t *domain.Transaction, in TransactionInput) {
	t.Type = in.Type
	t.Amount = in.Amount
	t.SignedAmount = domain.SignedAmount(in.Type, in.Amount)
	t.Date = domain.NormalizeDate(in.Date)
	t.Subject = strings.TrimSpace(in.Subject)
	t.PaymentMethod = in.PaymentMethod
	t.Notes = in.Notes
	t.CategoryID = in.CategoryID
	t.GroupID = in.GroupID
}
