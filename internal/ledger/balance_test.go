package ledger_test

import (
	"testing"

	"expense_ledger/internal/domain"
	"expense_ledger/internal/ledger"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBalances_EmptyLedgerIsInitialBalance(t *testing.T) {
	f := newFixture(t, "1000")

	b, err := f.balances.CurrentBalance(f.ctx, f.user.ID)
	require.NoError(t, err)
	assert.True(t, b.Balance.Equal(dec("1000")))
	assert.True(t, b.CumulativeDelta.IsZero())
	assert.Nil(t, b.LastTransactionID)
	assert.Nil(t, b.AsOf)
}

func TestBalances_AsOf(t *testing.T) {
	f := newFixture(t, "1000")
	f.create(domain.TypeIncome, "200", day(5))
	sameDay := f.create(domain.TypeExpense, "50", day(5))
	f.create(domain.TypeExpense, "300", day(9))

	tests := []struct {
		name   string
		asOf   int
		want   string
		lastID *uint
	}{
		{"before any transaction", 4, "1000", nil},
		{"includes every row of the day", 5, "1150", &sameDay.ID},
		{"between dates", 7, "1150", &sameDay.ID},
		{"after the last", 20, "850", nil},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			b, err := f.balances.BalanceAsOf(f.ctx, f.user.ID, day(tt.asOf))
			require.NoError(t, err)
			assert.Truef(t, b.Balance.Equal(dec(tt.want)), "balance %s, want %s", b.Balance, tt.want)
			require.NotNil(t, b.AsOf)
			assert.True(t, b.AsOf.Equal(day(tt.asOf)))
			if tt.want == "1000" {
				assert.Nil(t, b.LastTransactionID)
			}
			if tt.lastID != nil {
				require.NotNil(t, b.LastTransactionID)
				assert.Equal(t, *tt.lastID, *b.LastTransactionID)
			}
		})
	}
}

func TestBalances_UnknownUser(t *testing.T) {
	f := newFixture(t, "0")

	_, err := f.balances.CurrentBalance(f.ctx, 404)
	assert.ErrorIs(t, err, domain.ErrUserNotFound)
	_, err = f.balances.BalanceAsOf(f.ctx, 404, day(1))
	assert.ErrorIs(t, err, domain.ErrUserNotFound)
}

func TestBalances_HistoryCarriesRunningBalance(t *testing.T) {
	f := newFixture(t, "100")
	f.create(domain.TypeIncome, "50", day(1))
	f.create(domain.TypeExpense, "20", day(2))
	f.create(domain.TypeExpense, "5", day(3))

	entries, total, err := f.balances.History(f.ctx, f.user.ID, ledger.TransactionFilter{Page: 1, PageSize: 2})
	require.NoError(t, err)
	assert.Equal(t, int64(3), total)
	require.Len(t, entries, 2)
	assert.True(t, entries[0].Balance.Equal(dec("125")), "newest first")
	assert.True(t, entries[1].Balance.Equal(dec("130")))

	entries, total, err = f.balances.History(f.ctx, f.user.ID, ledger.TransactionFilter{Type: domain.TypeIncome, Page: 1, PageSize: 10})
	require.NoError(t, err)
	assert.Equal(t, int64(1), total)
	require.Len(t, entries, 1)
	assert.True(t, entries[0].Balance.Equal(dec("150")))
}

// The last row's cumulative delta plus the opening balance is the balance, for any
// opening balance
func TestBalances_IdentityHoldsAfterInitialBalanceChange(t *testing.T) {
	f := newFixture(t, "0")
	f.create(domain.TypeIncome, "10.25", day(1))
	f.create(domain.TypeExpense, "0.0001", day(2))

	for _, initial := range []string{"0", "-500", "1234.5678"} {
		require.NoError(t, f.svc.SetInitialBalance(f.ctx, f.user.ID, dec(initial)))
		f.requireBalance(dec(initial).Add(dec("10.2499")).String())
	}
}
