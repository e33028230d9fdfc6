package db

import (
	"net"     // Host/port joining
	"strconv" // Lock timeout formatting
	"time"    // Connection lifetimes

	"expense_ledger/internal/config" // Application configuration

	gomysql "github.com/go-sql-driver/mysql" // DSN builder
	"gorm.io/driver/mysql"                   // MySQL driver for GORM
	"gorm.io/gorm"                           // GORM ORM library
	"gorm.io/gorm/logger"                    // GORM query logging
)

// DSN builds the MySQL Data Source Name from the configuration
func DSN(cfg *config.Config) string {
	mc := gomysql.NewConfig()
	mc.User = cfg.DBUser                               // Database user
	mc.Passwd = cfg.DBPassword                         // Database password
	mc.Net = "tcp"                                     // Network type
	mc.Addr = net.JoinHostPort(cfg.DBHost, cfg.DBPort) // Database address
	mc.DBName = cfg.DBName                             // Database name
	mc.ParseTime = true                                // Scan DATE columns into time.Time
	mc.Loc = time.UTC                                  // Ledger dates are UTC
	mc.Params = map[string]string{
		// Bound how long a mutation waits for another one on the same user
		"innodb_lock_wait_timeout": strconv.Itoa(int(cfg.LockWaitTimeout / time.Second)),
	}
	return mc.FormatDSN()
}

// Open connects to MySQL through GORM
func Open(cfg *config.Config) (*gorm.DB, error) {
	level := logger.Warn // Only slow queries and errors
	if !cfg.IsProd {
		level = logger.Info // Every query in development
	}
	db, err := gorm.Open(mysql.Open(DSN(cfg)), &gorm.Config{
		Logger:         logger.Default.LogMode(level),
		TranslateError: true, // Map duplicate keys to gorm.ErrDuplicatedKey
	})
	if err != nil {
		return nil, err
	}
	sqlDB, err := db.DB()
	if err != nil {
		return nil, err
	}
	sqlDB.SetMaxOpenConns(cfg.DBMaxOpenConns)  // Upper bound on concurrent mutations
	sqlDB.SetConnMaxLifetime(30 * time.Minute) // Recycle stale connections
	return db, nil
}
