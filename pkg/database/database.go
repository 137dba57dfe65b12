package database

import (
	"fmt"

	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"commerce-service/internal/model"
	"commerce-service/pkg/config"
)

// Store is the persistent store accessor. Every engine operation asks it
// for a fresh short-lived scope; no scope is held across calls.
type Store struct {
	db *gorm.DB
}

// New opens the PostgreSQL connection, applies pool settings and runs
// migrations.
func New(cfg *config.Config) (*Store, error) {
	// Configure Postgres options
	pgConfig := postgres.Config{
		DSN:                  cfg.DB.GetDSN(),
		PreferSimpleProtocol: true, // Disables implicit prepared statement usage
	}

	db, err := gorm.Open(postgres.New(pgConfig), &gorm.Config{
		Logger: logger.Default.LogMode(cfg.DB.LogLevel),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, fmt.Errorf("failed to get database object: %w", err)
	}

	// Set connection pool settings from config
	sqlDB.SetMaxIdleConns(cfg.DB.MaxIdleConns)
	sqlDB.SetMaxOpenConns(cfg.DB.MaxOpenConns)
	sqlDB.SetConnMaxLifetime(cfg.DB.ConnMaxLifetime)

	return NewStore(db)
}

// NewStore wraps an already-open gorm connection and runs migrations.
// Tests use this with an in-memory SQLite database.
func NewStore(db *gorm.DB) (*Store, error) {
	if err := Migrate(db); err != nil {
		return nil, err
	}
	return &Store{db: db}, nil
}

// Migrate runs the schema migrations for every engine model.
func Migrate(db *gorm.DB) error {
	if err := db.AutoMigrate(&model.Product{}, &model.ProductCategory{}, &model.Order{}); err != nil {
		return fmt.Errorf("failed to run database migrations: %w", err)
	}
	return nil
}

// Scope returns a fresh isolated session for a single operation.
func (s *Store) Scope() *gorm.DB {
	return s.db.Session(&gorm.Session{NewDB: true})
}

// Close closes the underlying connection pool.
func (s *Store) Close() error {
	sqlDB, err := s.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}
