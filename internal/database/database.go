package database

import (
	"fmt"
	"log"
	"time"

	"gorm.io/driver/postgres"
	gormsqlite "gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
	_ "modernc.org/sqlite"

	"trainingdesk/internal/config"
)

type Options struct {
	MaxOpenConns int
	LogLevel     logger.LogLevel
}

// Connect opens Postgres for postgres DSNs and SQLite (pure Go driver) otherwise.
// SQLite is single-writer, so its pool is capped at one connection; that also
// keeps ":memory:" databases shared across the process.
func Connect(dsn string, opts Options) (*gorm.DB, error) {
	if opts.LogLevel == 0 {
		opts.LogLevel = logger.Warn
	}
	gcfg := &gorm.Config{Logger: logger.Default.LogMode(opts.LogLevel)}

	var (
		db  *gorm.DB
		err error
	)
	switch config.DatabaseKind(dsn) {
	case "postgres":
		log.Println("Connecting to PostgreSQL...")
		db, err = gorm.Open(postgres.Open(dsn), gcfg)
	default:
		log.Println("Using SQLite for local development:", dsn)
		db, err = gorm.Open(gormsqlite.New(gormsqlite.Config{
			DriverName: "sqlite",
			DSN:        dsn,
		}), gcfg)
	}
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, err
	}

	if db.Dialector.Name() == "sqlite" {
		sqlDB.SetMaxOpenConns(1)
		if err := db.Exec("PRAGMA foreign_keys = ON").Error; err != nil {
			return nil, err
		}
		if err := db.Exec("PRAGMA busy_timeout = 5000").Error; err != nil {
			return nil, err
		}
		return db, nil
	}

	if opts.MaxOpenConns > 0 {
		sqlDB.SetMaxOpenConns(opts.MaxOpenConns)
		sqlDB.SetMaxIdleConns(opts.MaxOpenConns / 2)
	}
	sqlDB.SetConnMaxLifetime(30 * time.Minute)
	return db, nil
}
