package db

import (
	"expense_ledger/internal/domain" // Importing domain models

	"gorm.io/gorm" // GORM ORM library
)

// Models lists every table owned by the service, in dependency order
func Models() []any {
	return []any{&domain.User{}, &domain.Transaction{}}
}

// Migrate creates or updates the users and transactions tables with their ledger
// order indexes
func Migrate(db *gorm.DB) error {
	// AutoMigrate will create tables, missing foreign keys, constraints, columns and indexes
	return db.AutoMigrate(Models()...)
}
