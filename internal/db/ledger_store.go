package db

import (
	"context" // Request scoping
	"errors"  // Error inspection
	"fmt"     // Error wrapping
	"strings" // Username normalisation
	"time"    // Dates

	"expense_ledger/internal/domain" // Models and error taxonomy
	"expense_ledger/internal/ledger" // Store contract

	gomysql "github.com/go-sql-driver/mysql" // MySQL error numbers
	"github.com/shopspring/decimal"          // Exact decimal money
	"gorm.io/gorm"                           // GORM ORM library
	"gorm.io/gorm/clause"                    // Row locking
)

// MySQL server error numbers mapped to the conflict class
const (
	mysqlLockWaitTimeout = 1205 // ER_LOCK_WAIT_TIMEOUT
	mysqlDeadlock        = 1213 // ER_LOCK_DEADLOCK
	mysqlDuplicateEntry  = 1062 // ER_DUP_ENTRY
)

// Ledger order as SQL
const (
	orderAsc  = "date ASC, sequence ASC"
	orderDesc = "date DESC, sequence DESC"
)

// LedgerStore is the GORM implementation of ledger.Store and ledger.Tx
type LedgerStore struct {
	db *gorm.DB // Root handle, or the open transaction inside InTx
}

// NewLedgerStore wraps a GORM handle
func NewLedgerStore(db *gorm.DB) *LedgerStore {
	return &LedgerStore{db: db}
}

// InTx runs fn inside one database transaction; an error from fn rolls it back
func (s *LedgerStore) InTx(ctx context.Context, fn func(tx ledger.Tx) error) error {
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return fn(&LedgerStore{db: tx})
	})
	return translate(err)
}

// CreateUser inserts a new user
func (s *LedgerStore) CreateUser(ctx context.Context, u *domain.User) error {
	return translate(s.db.WithContext(ctx).Create(u).Error)
}

// FindUser loads a user by id
func (s *LedgerStore) FindUser(ctx context.Context, userID uint) (*domain.User, error) {
	var u domain.User
	if err := s.db.WithContext(ctx).First(&u, userID).Error; err != nil {
		return nil, notFound(err, domain.ErrUserNotFound)
	}
	return &u, nil
}

// FindUserByUsername loads a user by lower-cased username
func (s *LedgerStore) FindUserByUsername(ctx context.Context, username string) (*domain.User, error) {
	var u domain.User
	if err := s.db.WithContext(ctx).Where("username = ?", strings.ToLower(username)).First(&u).Error; err != nil {
		return nil, notFound(err, domain.ErrUserNotFound)
	}
	return &u, nil
}

// LockUser loads a user with SELECT ... FOR UPDATE. Every mutation of the user's
// ledger takes this lock first, which serialises them.
func (s *LedgerStore) LockUser(ctx context.Context, userID uint) (*domain.User, error) {
	var u domain.User
	err := s.db.WithContext(ctx).
		Clauses(clause.Locking{Strength: clause.LockingStrengthUpdate}).
		First(&u, userID).Error
	if err != nil {
		return nil, notFound(err, domain.ErrUserNotFound)
	}
	return &u, nil
}

// NextSequence issues the next ledger sequence of the user
func (s *LedgerStore) NextSequence(ctx context.Context, userID uint) (int64, error) {
	db := s.db.WithContext(ctx)
	res := db.Model(&domain.User{}).
		Where("id = ?", userID).
		UpdateColumn("next_sequence", gorm.Expr("next_sequence + ?", 1))
	if res.Error != nil {
		return 0, translate(res.Error)
	}
	if res.RowsAffected == 0 {
		return 0, domain.ErrUserNotFound
	}
	var seq int64
	if err := db.Model(&domain.User{}).Where("id = ?", userID).Select("next_sequence").Scan(&seq).Error; err != nil {
		return 0, translate(err)
	}
	return seq, nil
}

// SetInitialBalance updates the opening balance of a user
func (s *LedgerStore) SetInitialBalance(ctx context.Context, userID uint, amount decimal.Decimal) error {
	res := s.db.WithContext(ctx).Model(&domain.User{}).Where("id = ?", userID).Update("initial_balance", amount)
	if res.Error != nil {
		return translate(res.Error)
	}
	if res.RowsAffected == 0 {
		return domain.ErrUserNotFound
	}
	return nil
}

// ListUsers returns one page of users ordered by id
func (s *LedgerStore) ListUsers(ctx context.Context, page, pageSize int) ([]domain.User, int64, error) {
	db := s.db.WithContext(ctx)
	var total int64 // Total user count
	if err := db.Model(&domain.User{}).Count(&total).Error; err != nil {
		return nil, 0, translate(err)
	}
	var users []domain.User
	if err := db.Order("id ASC").Offset((page - 1) * pageSize).Limit(pageSize).Find(&users).Error; err != nil {
		return nil, 0, translate(err)
	}
	return users, total, nil
}

// FindTransaction loads a transaction by id
func (s *LedgerStore) FindTransaction(ctx context.Context, id uint) (*domain.Transaction, error) {
	var t domain.Transaction
	if err := s.db.WithContext(ctx).First(&t, id).Error; err != nil {
		return nil, notFound(err, domain.ErrTransactionNotFound)
	}
	return &t, nil
}

// LastTransaction returns the user's highest-ordered transaction, optionally
// limited to dates on or before asOf
func (s *LedgerStore) LastTransaction(ctx context.Context, userID uint, asOf *time.Time) (*domain.Transaction, error) {
	q := s.db.WithContext(ctx).Where("user_id = ?", userID)
	if asOf != nil {
		q = q.Where("date <= ?", domain.NormalizeDate(*asOf))
	}
	return first(q.Order(orderDesc))
}

// ListTransactions returns the user's whole ledger in order
func (s *LedgerStore) ListTransactions(ctx context.Context, userID uint) ([]domain.Transaction, error) {
	var txs []domain.Transaction
	if err := s.db.WithContext(ctx).Where("user_id = ?", userID).Order(orderAsc).Find(&txs).Error; err != nil {
		return nil, translate(err)
	}
	return txs, nil
}

// PageTransactions returns one filtered page of the ledger, newest first, and the
// number of rows matching the filter
func (s *LedgerStore) PageTransactions(ctx context.Context, userID uint, f ledger.TransactionFilter) ([]domain.Transaction, int64, error) {
	filtered := func() *gorm.DB {
		q := s.db.WithContext(ctx).Model(&domain.Transaction{}).Where("user_id = ?", userID)
		if f.From != nil {
			q = q.Where("date >= ?", domain.NormalizeDate(*f.From)) // Filter by start date
		}
		if f.To != nil {
			q = q.Where("date <= ?", domain.NormalizeDate(*f.To)) // Filter by end date
		}
		if f.Type != "" {
			q = q.Where("type = ?", f.Type) // Filter by transaction type
		}
		return q
	}
	var total int64 // Rows matching the filter
	if err := filtered().Count(&total).Error; err != nil {
		return nil, 0, translate(err)
	}
	var txs []domain.Transaction
	if err := filtered().Order(orderDesc).Offset((f.Page - 1) * f.PageSize).Limit(f.PageSize).Find(&txs).Error; err != nil {
		return nil, 0, translate(err)
	}
	return txs, total, nil
}

// Predecessor returns the last transaction strictly before pos
func (s *LedgerStore) Predecessor(ctx context.Context, userID uint, pos domain.Position) (*domain.Transaction, error) {
	q := s.db.WithContext(ctx).
		Where("user_id = ?", userID).
		Where("(date < ? OR (date = ? AND sequence < ?))", pos.Date, pos.Date, pos.Sequence)
	return first(q.Order(orderDesc))
}

// Suffix returns every transaction at or after pos in ledger order
func (s *LedgerStore) Suffix(ctx context.Context, userID uint, pos domain.Position) ([]domain.Transaction, error) {
	var txs []domain.Transaction
	err := s.db.WithContext(ctx).
		Where("user_id = ?", userID).
		Where("(date > ? OR (date = ? AND sequence >= ?))", pos.Date, pos.Date, pos.Sequence).
		Order(orderAsc).
		Find(&txs).Error
	if err != nil {
		return nil, translate(err)
	}
	return txs, nil
}

// InsertTransaction creates a transaction row
func (s *LedgerStore) InsertTransaction(ctx context.Context, t *domain.Transaction) error {
	return translate(s.db.WithContext(ctx).Create(t).Error)
}

// SaveTransaction writes every column of an existing transaction
func (s *LedgerStore) SaveTransaction(ctx context.Context, t *domain.Transaction) error {
	return translate(s.db.WithContext(ctx).Save(t).Error)
}

// DeleteTransaction removes a transaction row
func (s *LedgerStore) DeleteTransaction(ctx context.Context, id uint) error {
	res := s.db.WithContext(ctx).Delete(&domain.Transaction{}, id)
	if res.Error != nil {
		return translate(res.Error)
	}
	if res.RowsAffected == 0 {
		return domain.ErrTransactionNotFound
	}
	return nil
}

// SetCumulativeDelta overwrites one transaction's cumulative delta
func (s *LedgerStore) SetCumulativeDelta(ctx context.Context, id uint, delta decimal.Decimal) error {
	res := s.db.WithContext(ctx).Model(&domain.Transaction{}).Where("id = ?", id).UpdateColumn("cumulative_delta", delta)
	if res.Error != nil {
		return translate(res.Error)
	}
	if res.RowsAffected == 0 {
		return domain.ErrTransactionNotFound
	}
	return nil
}

// first runs q for a single transaction and returns nil, nil when none matches
func first(q *gorm.DB) (*domain.Transaction, error) {
	var txs []domain.Transaction
	if err := q.Limit(1).Find(&txs).Error; err != nil {
		return nil, translate(err)
	}
	if len(txs) == 0 {
		return nil, nil
	}
	return &txs[0], nil
}

// notFound maps gorm.ErrRecordNotFound to the given sentinel
func notFound(err, sentinel error) error {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return sentinel
	}
	return translate(err)
}

// translate maps driver errors onto the domain error taxonomy. Domain errors pass
// through untouched so errors returned from inside InTx keep their class.
func translate(err error) error {
	if err == nil {
		return nil
	}
	switch {
	case domain.IsNotFound(err), domain.IsValidation(err), domain.IsConflict(err),
		errors.Is(err, domain.ErrAlreadyExists), errors.Is(err, domain.ErrStorage),
		errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		return err
	case errors.Is(err, gorm.ErrDuplicatedKey):
		return fmt.Errorf("%w: %w", domain.ErrAlreadyExists, err)
	}
	var myErr *gomysql.MySQLError
	if errors.As(err, &myErr) {
		switch myErr.Number {
		case mysqlLockWaitTimeout, mysqlDeadlock:
			return fmt.Errorf("%w: %w", domain.ErrConflict, err)
		case mysqlDuplicateEntry:
			return fmt.Errorf("%w: %w", domain.ErrAlreadyExists, err)
		}
	}
	return fmt.Errorf("%w: %w", domain.ErrStorage, err)
}
