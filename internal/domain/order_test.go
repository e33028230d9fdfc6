package domain

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func day(s string) time.Time {
	d, err := ParseDate(s)
	if err != nil {
		panic(err)
	}
	return d
}

func TestCompare(t *testing.T) {
	tests := []struct {
		name string
		a, b Position
		want int
	}{
		{"earlier date wins", Position{day("2024-01-01"), 9}, Position{day("2024-01-02"), 1}, -1},
		{"later date loses", Position{day("2024-01-03"), 1}, Position{day("2024-01-02"), 9}, 1},
		{"same date lower sequence first", Position{day("2024-01-02"), 3}, Position{day("2024-01-02"), 4}, -1},
		{"same date higher sequence after", Position{day("2024-01-02"), 5}, Position{day("2024-01-02"), 4}, 1},
		{"identical", Position{day("2024-01-02"), 4}, Position{day("2024-01-02"), 4}, 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Compare(tt.a, tt.b))
		})
	}
}

func TestPosition_IgnoresTimeOfDay(t *testing.T) {
	morning := Transaction{Date: time.Date(2024, 3, 5, 8, 0, 0, 0, time.UTC), Sequence: 2}
	evening := Transaction{Date: time.Date(2024, 3, 5, 23, 0, 0, 0, time.UTC), Sequence: 1}

	assert.True(t, evening.Position().Before(morning.Position()), "sequence decides within a day")
}

func TestMinPosition(t *testing.T) {
	a := Position{day("2024-02-01"), 7}
	b := Position{day("2024-01-15"), 9}

	assert.Equal(t, b, MinPosition(a, b))
	assert.Equal(t, b, MinPosition(b, a))
	assert.Equal(t, a, MinPosition(a, a))
}

func TestSortTransactions(t *testing.T) {
	txs := []Transaction{
		{ID: 1, Date: day("2024-01-10"), Sequence: 1},
		{ID: 2, Date: day("2024-01-05"), Sequence: 2},
		{ID: 3, Date: day("2024-01-10"), Sequence: 3},
		{ID: 4, Date: day("2024-01-05"), Sequence: 4},
	}
	SortTransactions(txs)

	ids := make([]uint, len(txs))
	for i, tx := range txs {
		ids[i] = tx.ID
	}
	assert.Equal(t, []uint{2, 4, 1, 3}, ids)
}

func TestSignedAmount(t *testing.T) {
	amount := decimal.RequireFromString("12.5")

	assert.True(t, SignedAmount(TypeExpense, amount).Equal(decimal.RequireFromString("-12.5")))
	assert.True(t, SignedAmount(TypeIncome, amount).Equal(amount))
	assert.True(t, SignedAmount(TypeExpense, amount.Neg()).Equal(decimal.RequireFromString("-12.5")), "sign comes from type only")
}

func TestParseDate(t *testing.T) {
	d, err := ParseDate("2024-02-29")
	require.NoError(t, err)
	assert.Equal(t, time.Date(2024, 2, 29, 0, 0, 0, 0, time.UTC), d)

	for _, bad := range []string{"", "2024-13-01", "01/02/2024", "2023-02-29"} {
		_, err := ParseDate(bad)
		assert.Error(t, err, bad)
	}
}

func TestNormalizeDate(t *testing.T) {
	loc := time.FixedZone("UTC+5", 5*3600)
	got := NormalizeDate(time.Date(2024, 6, 1, 3, 30, 0, 0, loc))

	assert.Equal(t, time.Date(2024, 6, 1, 0, 0, 0, 0, time.UTC), got, "calendar date is kept as written")
}

func TestNewBalance(t *testing.T) {
	u := &User{ID: 3, InitialBalance: decimal.NewFromInt(1000)}

	empty := NewBalance(u, nil, nil)
	assert.True(t, empty.Balance.Equal(decimal.NewFromInt(1000)))
	assert.Nil(t, empty.LastTransactionID)

	last := &Transaction{ID: 8, CumulativeDelta: decimal.NewFromInt(-250)}
	asOf := day("2024-01-31")
	b := NewBalance(u, last, &asOf)
	assert.True(t, b.Balance.Equal(decimal.NewFromInt(750)))
	require.NotNil(t, b.LastTransactionID)
	assert.Equal(t, uint(8), *b.LastTransactionID)
	assert.Equal(t, &asOf, b.AsOf)
}
