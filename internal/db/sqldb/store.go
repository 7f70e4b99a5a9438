// Package sqldb opens the relational record store through gorm.
// Supported drivers are "postgres" (pgx) and "sqlite" (pure-Go modernc).
package sqldb

import (
	"context"
	"fmt"
	"net/url"
	"strconv"
	"time"

	"go.uber.org/zap"
	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"

	// registers the "sqlite" database/sql driver
	_ "modernc.org/sqlite"
)

// Driver names.
const (
	DriverPostgres = "postgres"
	DriverSQLite   = "sqlite"
)

// Config holds connection parameters for the record store.
type Config struct {
	Driver          string
	Host            string
	Port            int
	User            string
	Password        string
	Name            string
	SSLMode         string
	Path            string // sqlite file path or ":memory:"
	MaxOpenConns    int
	MaxIdleConns    int
	ConnMaxLifetime time.Duration
	SlowQuery       time.Duration
}

// Store owns the gorm handle and its connection pool.
type Store struct {
	db *gorm.DB
}

// Open connects to the configured database.
func Open(cfg Config, logger *zap.Logger) (*Store, error) {
	dialector, err := dialectorFor(cfg)
	if err != nil {
		return nil, err
	}

	if logger == nil {
		logger = zap.NewNop()
	}
	slow := cfg.SlowQuery
	if slow <= 0 {
		slow = 200 * time.Millisecond
	}

	gdb, err := gorm.Open(dialector, &gorm.Config{
		TranslateError: true,
		Logger: gormlogger.New(zapWriter{logger.Sugar()}, gormlogger.Config{
			SlowThreshold:             slow,
			LogLevel:                  gormlogger.Warn,
			IgnoreRecordNotFoundError: true,
		}),
	})
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", cfg.Driver, err)
	}

	sqlDB, err := gdb.DB()
	if err != nil {
		return nil, fmt.Errorf("get sql.DB: %w", err)
	}
	if cfg.Driver == DriverSQLite {
		// one writer at a time; keeps :memory: databases on a single connection
		sqlDB.SetMaxOpenConns(1)
	} else if cfg.MaxOpenConns > 0 {
		sqlDB.SetMaxOpenConns(cfg.MaxOpenConns)
	}
	if cfg.MaxIdleConns > 0 {
		sqlDB.SetMaxIdleConns(cfg.MaxIdleConns)
	}
	if cfg.ConnMaxLifetime > 0 {
		sqlDB.SetConnMaxLifetime(cfg.ConnMaxLifetime)
	}

	return &Store{db: gdb}, nil
}

// NewForTest wraps an already opened gorm handle.
func NewForTest(gdb *gorm.DB) *Store {
	return &Store{db: gdb}
}

// DB returns the gorm handle. Callers bind it to a request with WithContext.
func (s *Store) DB() *gorm.DB { return s.db }

// Ping checks connectivity.
func (s *Store) Ping(ctx context.Context) error {
	sqlDB, err := s.db.DB()
	if err != nil {
		return fmt.Errorf("ping: %w", err)
	}
	if err := sqlDB.PingContext(ctx); err != nil {
		return fmt.Errorf("ping: %w", err)
	}
	return nil
}

// Close releases the connection pool.
func (s *Store) Close() {
	if sqlDB, err := s.db.DB(); err == nil {
		_ = sqlDB.Close()
	}
}

// WaitForReady polls Ping until the database responds or timeout expires.
func (s *Store) WaitForReady(ctx context.Context, timeout time.Duration) error {
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	ticker := time.NewTicker(200 * time.Millisecond)
	defer ticker.Stop()

	for {
		if err := s.Ping(ctx); err == nil {
			return nil
		}
		select {
		case <-ctx.Done():
			return fmt.Errorf("timeout waiting for database: %w", ctx.Err())
		case <-ticker.C:
		}
	}
}

// Migrate creates or extends tables for the given models.
func (s *Store) Migrate(ctx context.Context, models ...any) error {
	if err := s.db.WithContext(ctx).AutoMigrate(models...); err != nil {
		return fmt.Errorf("auto migrate: %w", err)
	}
	return nil
}

func dialectorFor(cfg Config) (gorm.Dialector, error) {
	switch cfg.Driver {
	case DriverPostgres:
		if cfg.Host == "" || cfg.Name == "" {
			return nil, fmt.Errorf("postgres requires host and database name")
		}
		return postgres.Open(PostgresDSN(cfg)), nil
	case DriverSQLite:
		if cfg.Path == "" {
			return nil, fmt.Errorf("sqlite requires a path")
		}
		return sqlite.New(sqlite.Config{DriverName: "sqlite", DSN: SQLiteDSN(cfg.Path)}), nil
	default:
		return nil, fmt.Errorf("unsupported driver %q", cfg.Driver)
	}
}

// PostgresDSN renders a keyword/value connection string.
func PostgresDSN(cfg Config) string {
	port := cfg.Port
	if port == 0 {
		port = 5432
	}
	sslmode := cfg.SSLMode
	if sslmode == "" {
		sslmode = "disable"
	}
	return fmt.Sprintf("host=%s port=%s user=%s password=%s dbname=%s sslmode=%s",
		cfg.Host, strconv.Itoa(port), cfg.User, cfg.Password, cfg.Name, sslmode)
}

// SQLiteDSN adds the pragmas used for every sqlite connection.
func SQLiteDSN(path string) string {
	q := url.Values{}
	q.Add("_pragma", "busy_timeout(5000)")
	q.Add("_pragma", "foreign_keys(1)")
	if path != ":memory:" {
		q.Add("_pragma", "journal_mode(WAL)")
	}
	q.Set("_time_format", "sqlite")
	return path + "?" + q.Encode()
}

// zapWriter adapts a sugared logger to gorm's Printf writer.
type zapWriter struct {
	l *zap.SugaredLogger
}

func (w zapWriter) Printf(format string, args ...any) {
	w.l.Warnf(format, args...)
}
