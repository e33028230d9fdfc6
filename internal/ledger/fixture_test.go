package ledger_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"expense_ledger/internal/db"
	"expense_ledger/internal/db/dbtest"
	"expense_ledger/internal/domain"
	"expense_ledger/internal/ledger"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

var today = time.Date(2024, 6, 30, 0, 0, 0, 0, time.UTC) // Fixed clock for date rules

type fixture struct {
	t        *testing.T
	ctx      context.Context
	gdb      *gorm.DB
	store    *db.LedgerStore
	svc      *ledger.Service
	balances *ledger.Balances
	user     *domain.User
}

func testRules() ledger.Rules {
	rules := ledger.DefaultRules()
	rules.Now = func() time.Time { return today }
	return rules
}

func newFixture(t *testing.T, initial string) *fixture {
	t.Helper()
	gdb := dbtest.Open(t)
	store := db.NewLedgerStore(gdb)
	f := &fixture{
		t:        t,
		ctx:      context.Background(),
		gdb:      gdb,
		store:    store,
		svc:      ledger.NewService(store, ledger.NewEngine(nil), ledger.NewValidator(testRules())),
		balances: ledger.NewBalances(store),
	}
	f.user = f.register("alice", initial)
	return f
}

func (f *fixture) register(name, initial string) *domain.User {
	f.t.Helper()
	u, err := f.svc.Register(f.ctx, name, "hash", decimal.RequireFromString(initial))
	require.NoError(f.t, err)
	return u
}

func dec(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

func day(n int) time.Time {
	return time.Date(2024, 1, n, 0, 0, 0, 0, time.UTC)
}

func input(typ domain.TransactionType, amount string, date time.Time) ledger.TransactionInput {
	return ledger.TransactionInput{
		Type:          typ,
		Amount:        dec(amount),
		Date:          date,
		Subject:       string(typ) + " " + amount,
		PaymentMethod: domain.PaymentCard,
	}
}

func (f *fixture) create(typ domain.TransactionType, amount string, date time.Time) *domain.Transaction {
	f.t.Helper()
	res, err := f.svc.Create(f.ctx, f.user.ID, input(typ, amount, date))
	require.NoError(f.t, err)
	return res.Transaction
}

// requireDeltas checks the user's cumulative deltas in ledger order
func (f *fixture) requireDeltas(want ...string) {
	f.t.Helper()
	rows, err := f.store.ListTransactions(f.ctx, f.user.ID)
	require.NoError(f.t, err)
	require.Len(f.t, rows, len(want))
	for i, row := range rows {
		require.Truef(f.t, row.CumulativeDelta.Equal(dec(want[i])),
			"row %d (id %d): cumulative delta %s, want %s", i, row.ID, row.CumulativeDelta, want[i])
	}
}

func (f *fixture) requireBalance(want string) {
	f.t.Helper()
	b, err := f.balances.CurrentBalance(f.ctx, f.user.ID)
	require.NoError(f.t, err)
	require.Truef(f.t, b.Balance.Equal(dec(want)), "balance %s, want %s", b.Balance, want)
}

// corrupt overwrites a stored delta behind the service's back
func (f *fixture) corrupt(id uint, delta string) {
	f.t.Helper()
	err := f.gdb.Model(&domain.Transaction{}).Where("id = ?", id).UpdateColumn("cumulative_delta", dec(delta)).Error
	require.NoError(f.t, err)
}

var errInjected = errors.New("injected write failure")

// failingStore hands out units of work whose delta writes fail after a number of
// successful ones
type failingStore struct {
	ledger.Store
	okWrites int
}

func (s *failingStore) InTx(ctx context.Context, fn func(tx ledger.Tx) error) error {
	return s.Store.InTx(ctx, func(tx ledger.Tx) error {
		return fn(&failingTx{Tx: tx, left: s.okWrites})
	})
}

type failingTx struct {
	ledger.Tx
	left int
}

func (tx *failingTx) SetCumulativeDelta(ctx context.Context, id uint, delta decimal.Decimal) error {
	if tx.left == 0 {
		return errInjected
	}
	tx.left--
	return tx.Tx.SetCumulativeDelta(ctx, id, delta)
}
