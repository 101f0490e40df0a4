package manager

import (
	"context"
	"database/sql"
	"fmt"

	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
)

// Manager owns the database connection. Schema persistence goes through
// gorm; the dynamic query engine uses the underlying *sql.DB directly.
type Manager interface {
	Initialize(ctx context.Context) error
	GetDB() *gorm.DB
	SQLDB() *sql.DB
	Close() error
	GetStats() map[string]interface{}
}

// Config holds database configuration.
type Config struct {
	Type     string
	DSN      string
	MaxConns int
}

type SQLManager struct {
	db    *gorm.DB
	sqlDB *sql.DB
}

func NewSQLManager(cfg Config) (*SQLManager, error) {
	if cfg.Type != "" && cfg.Type != "sqlite" && cfg.Type != "sqlite3" {
		return nil, fmt.Errorf("unsupported database type: %s", cfg.Type)
	}

	db, err := gorm.Open(sqlite.Open(cfg.DSN), &gorm.Config{})
	if err != nil {
		return nil, err
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, err
	}
	if cfg.MaxConns > 0 {
		sqlDB.SetMaxOpenConns(cfg.MaxConns)
	}

	return &SQLManager{db: db, sqlDB: sqlDB}, nil
}

func (m *SQLManager) Initialize(ctx context.Context) error {
	return m.sqlDB.PingContext(ctx)
}

func (m *SQLManager) GetDB() *gorm.DB {
	return m.db
}

func (m *SQLManager) SQLDB() *sql.DB {
	return m.sqlDB
}

func (m *SQLManager) Close() error {
	return m.sqlDB.Close()
}

func (m *SQLManager) GetStats() map[string]interface{} {
	stats := m.sqlDB.Stats()
	return map[string]interface{}{
		"openConnections": stats.OpenConnections,
		"inUse":           stats.InUse,
		"idle":            stats.Idle,
		"waitCount":       stats.WaitCount,
	}
}
