package database

import (
	"fmt"
	"log"
	"time"

	migrate "github.com/rubenv/sql-migrate"

	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	apperrors "github.com/huddleplan/huddle-pipeline/errors"
	"github.com/huddleplan/huddle-pipeline/pkg/config"
)

// NewPostgresDB opens the document store. Timestamps are normalized to UTC
// at the gorm layer so chunk ordering never depends on the server timezone.
func NewPostgresDB(cfg *config.Config) (*gorm.DB, error) {
	// Query logging is only useful outside production; errors always log.
	logLevel := logger.Info
	if cfg.Server.Environment == "production" {
		logLevel = logger.Error
	}

	db, err := gorm.Open(postgres.Open(cfg.GetDatabaseDSN()), &gorm.Config{
		Logger:  logger.Default.LogMode(logLevel),
		NowFunc: func() time.Time { return time.Now().UTC() },
	})
	if err != nil {
		return nil, apperrors.ErrDBConnectionFailed(err)
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, apperrors.ErrDBConnectionFailed(err)
	}

	// Every in-flight turn batch holds a connection for the length of its
	// transaction, so the pool is sized from config instead of driver defaults.
	sqlDB.SetMaxOpenConns(cfg.Database.MaxConns)
	sqlDB.SetMaxIdleConns(cfg.Database.MinConns)
	sqlDB.SetConnMaxLifetime(time.Hour)

	if err := sqlDB.Ping(); err != nil {
		return nil, apperrors.ErrDBConnectionFailed(err)
	}

	log.Println("✅ Database connected successfully")
	return db, nil
}

// Migrate applies pending SQL migrations from the migrations/ directory
func Migrate(db *gorm.DB) error {
	sqlDB, err := db.DB()
	if err != nil {
		return apperrors.ErrDBConnectionFailed(err)
	}

	source := &migrate.FileMigrationSource{Dir: "migrations"}
	applied, err := migrate.Exec(sqlDB, "postgres", source, migrate.Up)
	if err != nil {
		return fmt.Errorf("applying migrations: %w", err)
	}

	log.Printf("✅ Applied %d migrations!\n", applied)
	return nil
}

// CloseDB closes the underlying connection pool
func CloseDB(db *gorm.DB) error {
	sqlDB, err := db.DB()
	if err != nil {
		return apperrors.ErrDBConnectionFailed(err)
	}
	if err := sqlDB.Close(); err != nil {
		return fmt.Errorf("closing database: %w", err)
	}

	log.Println("✅ Database connection closed")
	return nil
}
