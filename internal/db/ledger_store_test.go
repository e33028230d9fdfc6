package db_test

import (
	"context"
	"errors"
	"testing"

	"expense_ledger/internal/db"
	"expense_ledger/internal/db/dbtest"
	"expense_ledger/internal/domain"
	"expense_ledger/internal/ledger"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func date(t *testing.T, s string) domain.Position {
	t.Helper()
	d, err := domain.ParseDate(s)
	require.NoError(t, err)
	return domain.Position{Date: d}
}

func seedUser(t *testing.T, s *db.LedgerStore, name string) *domain.User {
	t.Helper()
	u := &domain.User{Username: name, Password: "hash", Role: domain.RoleUser, InitialBalance: decimal.NewFromInt(100)}
	require.NoError(t, s.InTx(context.Background(), func(tx ledger.Tx) error {
		return tx.CreateUser(context.Background(), u)
	}))
	return u
}

// insert adds a row at the given date with the next sequence and the given delta
func insert(t *testing.T, s *db.LedgerStore, userID uint, day string, amount, delta int64) *domain.Transaction {
	t.Helper()
	ctx := context.Background()
	var out *domain.Transaction
	require.NoError(t, s.InTx(ctx, func(tx ledger.Tx) error {
		seq, err := tx.NextSequence(ctx, userID)
		if err != nil {
			return err
		}
		out = &domain.Transaction{
			UserID:          userID,
			Date:            date(t, day).Date,
			Sequence:        seq,
			Type:            domain.TypeIncome,
			Amount:          decimal.NewFromInt(amount),
			SignedAmount:    decimal.NewFromInt(amount),
			CumulativeDelta: decimal.NewFromInt(delta),
			Subject:         "row",
			PaymentMethod:   domain.PaymentCash,
		}
		return tx.InsertTransaction(ctx, out)
	}))
	return out
}

func TestLedgerStore_NextSequenceIsMonotonicPerUser(t *testing.T) {
	s := db.NewLedgerStore(dbtest.Open(t))
	ctx := context.Background()
	alice := seedUser(t, s, "alice")
	bob := seedUser(t, s, "bob")

	var got []int64
	require.NoError(t, s.InTx(ctx, func(tx ledger.Tx) error {
		for _, id := range []uint{alice.ID, alice.ID, bob.ID, alice.ID} {
			seq, err := tx.NextSequence(ctx, id)
			if err != nil {
				return err
			}
			got = append(got, seq)
		}
		return nil
	}))
	assert.Equal(t, []int64{1, 2, 1, 3}, got)

	err := s.InTx(ctx, func(tx ledger.Tx) error {
		_, err := tx.NextSequence(ctx, 999)
		return err
	})
	assert.ErrorIs(t, err, domain.ErrUserNotFound)
}

func TestLedgerStore_PredecessorAndSuffix(t *testing.T) {
	s := db.NewLedgerStore(dbtest.Open(t))
	ctx := context.Background()
	u := seedUser(t, s, "alice")
	jan1 := insert(t, s, u.ID, "2024-01-01", 10, 10)
	jan3 := insert(t, s, u.ID, "2024-01-03", 20, 30)
	jan2a := insert(t, s, u.ID, "2024-01-02", 5, 15) // Inserted later, ordered between
	jan2b := insert(t, s, u.ID, "2024-01-02", 1, 16)
	other := seedUser(t, s, "bob")
	insert(t, s, other.ID, "2024-01-02", 99, 99)

	require.NoError(t, s.InTx(ctx, func(tx ledger.Tx) error {
		prev, err := tx.Predecessor(ctx, u.ID, jan2b.Position())
		require.NoError(t, err)
		require.NotNil(t, prev)
		assert.Equal(t, jan2a.ID, prev.ID, "same date, lower sequence")

		prev, err = tx.Predecessor(ctx, u.ID, jan2a.Position())
		require.NoError(t, err)
		require.NotNil(t, prev)
		assert.Equal(t, jan1.ID, prev.ID)

		prev, err = tx.Predecessor(ctx, u.ID, jan1.Position())
		require.NoError(t, err)
		assert.Nil(t, prev, "nothing before the first row")

		suffix, err := tx.Suffix(ctx, u.ID, jan2a.Position())
		require.NoError(t, err)
		ids := make([]uint, len(suffix))
		for i, row := range suffix {
			ids[i] = row.ID
		}
		assert.Equal(t, []uint{jan2a.ID, jan2b.ID, jan3.ID}, ids)
		return nil
	}))
}

func TestLedgerStore_LastTransaction(t *testing.T) {
	s := db.NewLedgerStore(dbtest.Open(t))
	ctx := context.Background()
	u := seedUser(t, s, "alice")

	none, err := s.LastTransaction(ctx, u.ID, nil)
	require.NoError(t, err)
	assert.Nil(t, none)

	insert(t, s, u.ID, "2024-01-05", 10, 10)
	sameDay := insert(t, s, u.ID, "2024-01-05", 5, 15)
	latest := insert(t, s, u.ID, "2024-02-01", 1, 16)

	last, err := s.LastTransaction(ctx, u.ID, nil)
	require.NoError(t, err)
	assert.Equal(t, latest.ID, last.ID)

	asOf := date(t, "2024-01-20").Date
	last, err = s.LastTransaction(ctx, u.ID, &asOf)
	require.NoError(t, err)
	assert.Equal(t, sameDay.ID, last.ID, "highest sequence of the last counted day")

	before := date(t, "2023-12-31").Date
	last, err = s.LastTransaction(ctx, u.ID, &before)
	require.NoError(t, err)
	assert.Nil(t, last)
}

func TestLedgerStore_PageTransactions(t *testing.T) {
	s := db.NewLedgerStore(dbtest.Open(t))
	ctx := context.Background()
	u := seedUser(t, s, "alice")
	for _, d := range []string{"2024-01-01", "2024-01-02", "2024-01-03", "2024-01-04", "2024-01-05"} {
		insert(t, s, u.ID, d, 1, 0)
	}

	from := date(t, "2024-01-02").Date
	to := date(t, "2024-01-04").Date
	rows, total, err := s.PageTransactions(ctx, u.ID, ledger.TransactionFilter{From: &from, To: &to, Page: 1, PageSize: 2})
	require.NoError(t, err)
	assert.Equal(t, int64(3), total)
	require.Len(t, rows, 2)
	assert.True(t, rows[0].Date.Equal(to), "newest first")

	rows, _, err = s.PageTransactions(ctx, u.ID, ledger.TransactionFilter{From: &from, To: &to, Page: 2, PageSize: 2})
	require.NoError(t, err)
	require.Len(t, rows, 1)
	assert.True(t, rows[0].Date.Equal(from))

	_, total, err = s.PageTransactions(ctx, u.ID, ledger.TransactionFilter{Type: domain.TypeExpense, Page: 1, PageSize: 10})
	require.NoError(t, err)
	assert.Zero(t, total)
}

func TestLedgerStore_NotFoundMapping(t *testing.T) {
	s := db.NewLedgerStore(dbtest.Open(t))
	ctx := context.Background()

	_, err := s.FindUser(ctx, 42)
	assert.ErrorIs(t, err, domain.ErrUserNotFound)
	_, err = s.FindUserByUsername(ctx, "nobody")
	assert.ErrorIs(t, err, domain.ErrUserNotFound)
	_, err = s.FindTransaction(ctx, 42)
	assert.ErrorIs(t, err, domain.ErrTransactionNotFound)

	err = s.InTx(ctx, func(tx ledger.Tx) error {
		return tx.SetCumulativeDelta(ctx, 42, decimal.Zero)
	})
	assert.ErrorIs(t, err, domain.ErrTransactionNotFound)
}

func TestLedgerStore_FindUserByUsernameIgnoresCase(t *testing.T) {
	s := db.NewLedgerStore(dbtest.Open(t))
	u := seedUser(t, s, "alice")

	got, err := s.FindUserByUsername(context.Background(), "ALICE")
	require.NoError(t, err)
	assert.Equal(t, u.ID, got.ID)
}

func TestLedgerStore_InTxRollsBack(t *testing.T) {
	s := db.NewLedgerStore(dbtest.Open(t))
	ctx := context.Background()
	u := seedUser(t, s, "alice")
	boom := errors.New("boom")

	err := s.InTx(ctx, func(tx ledger.Tx) error {
		if err := tx.SetInitialBalance(ctx, u.ID, decimal.NewFromInt(5)); err != nil {
			return err
		}
		return boom
	})
	assert.ErrorIs(t, err, boom)

	got, err := s.FindUser(ctx, u.ID)
	require.NoError(t, err)
	assert.True(t, got.InitialBalance.Equal(decimal.NewFromInt(100)), "write rolled back")
}

func TestLedgerStore_ListUsers(t *testing.T) {
	s := db.NewLedgerStore(dbtest.Open(t))
	for _, name := range []string{"alice", "bob", "carol"} {
		seedUser(t, s, name)
	}

	users, total, err := s.ListUsers(context.Background(), 2, 2)
	require.NoError(t, err)
	assert.Equal(t, int64(3), total)
	require.Len(t, users, 1)
	assert.Equal(t, "carol", users[0].Username)
}
