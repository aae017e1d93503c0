// Package store persists policy documents and audit records in
// PostgreSQL via GORM. The evaluation core holds no state and fetches
// nothing; nothing in model, expr, principle, combine or pdp imports
// this package.
package store

import (
	"fmt"
	"time"

	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// Config holds the PostgreSQL connection settings.
type Config struct {
	Host         string
	Port         int
	User         string
	Password     string
	DatabaseName string
	SSLMode      string
	TimeZone     string

	MaxIdleConns    int
	MaxOpenConns    int
	ConnMaxLifetime time.Duration

	// Quiet silences GORM's own query logging, independent of this
	// service's own structured logging.
	Quiet bool
}

// DSN renders config as a libpq connection string.
func (c Config) DSN() string {
	return fmt.Sprintf("host=%s user=%s password=%s dbname=%s port=%d sslmode=%s TimeZone=%s",
		c.Host, c.User, c.Password, c.DatabaseName, c.Port, c.SSLMode, c.TimeZone)
}

// Open connects to PostgreSQL and configures the connection pool.
func Open(config Config) (*gorm.DB, error) {
	gormLogger := logger.Default.LogMode(logger.Info)
	if config.Quiet {
		gormLogger = logger.Default.LogMode(logger.Silent)
	}

	db, err := gorm.Open(postgres.Open(config.DSN()), &gorm.Config{
		Logger:  gormLogger,
		NowFunc: func() time.Time { return time.Now().UTC() },
	})
	if err != nil {
		return nil, fmt.Errorf("store: connecting to database: %w", err)
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, fmt.Errorf("store: getting underlying sql.DB: %w", err)
	}

	maxIdle := config.MaxIdleConns
	if maxIdle == 0 {
		maxIdle = 10
	}
	maxOpen := config.MaxOpenConns
	if maxOpen == 0 {
		maxOpen = 100
	}
	maxLifetime := config.ConnMaxLifetime
	if maxLifetime == 0 {
		maxLifetime = time.Hour
	}

	sqlDB.SetMaxIdleConns(maxIdle)
	sqlDB.SetMaxOpenConns(maxOpen)
	sqlDB.SetConnMaxLifetime(maxLifetime)

	return db, nil
}
