// Package dbtest opens throwaway in-memory SQLite databases with the ledger schema.
package dbtest

import (
	"fmt"     // DSN formatting
	"strings" // Name sanitising
	"testing" // Test lifecycle

	"expense_ledger/internal/db" // Schema

	"github.com/glebarez/sqlite" // Pure-Go SQLite dialector
	"gorm.io/gorm"               // GORM ORM library
	"gorm.io/gorm/logger"        // Silence query logs
)

// Open returns a migrated GORM handle private to t. SQLite has no row locks, so the
// pool is pinned to a single connection, which serialises transactions the way the
// user row lock does in MySQL.
func Open(t testing.TB) *gorm.DB {
	t.Helper()
	name := strings.NewReplacer("/", "_", " ", "_").Replace(t.Name())
	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared&_pragma=foreign_keys(1)", name)
	conn, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger:         logger.Default.LogMode(logger.Silent),
		TranslateError: true,
	})
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	sqlDB, err := conn.DB()
	if err != nil {
		t.Fatalf("sqlite handle: %v", err)
	}
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { _ = sqlDB.Close() })
	if err := db.Migrate(conn); err != nil {
		t.Fatalf("migrate: %v", err)
	}
	return conn
}
