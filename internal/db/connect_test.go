package db_test

import (
	"testing"
	"time"

	"expense_ledger/internal/config"
	"expense_ledger/internal/db"

	gomysql "github.com/go-sql-driver/mysql"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDSN(t *testing.T) {
	cfg := &config.Config{
		DBUser:          "ledger",
		DBPassword:      "p@ss:word",
		DBHost:          "db.internal",
		DBPort:          "3307",
		DBName:          "expenses",
		LockWaitTimeout: 7 * time.Second,
	}

	parsed, err := gomysql.ParseDSN(db.DSN(cfg))
	require.NoError(t, err)
	assert.Equal(t, "ledger", parsed.User)
	assert.Equal(t, "p@ss:word", parsed.Passwd)
	assert.Equal(t, "db.internal:3307", parsed.Addr)
	assert.Equal(t, "expenses", parsed.DBName)
	assert.True(t, parsed.ParseTime)
	assert.Equal(t, time.UTC, parsed.Loc)
	assert.Equal(t, "7", parsed.Params["innodb_lock_wait_timeout"])
}
