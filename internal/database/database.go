package database

import (
	"context"
	"database/sql"
	"fmt"
	"net"
	"net/url"
	"sync"
	"time"

	_ "github.com/lib/pq"
	_ "modernc.org/sqlite"

	"script-analysis-backend/internal/config"
	"script-analysis-backend/internal/logging"
)

// Store owns the SQL connection pool and exposes the query helpers the rest
// of the server uses. Every statement is written with $N placeholders (no
// placeholder reused) and portable column types, so the same SQL runs on
// Postgres and on the embedded SQLite fallback.
type Store struct {
	db     *sql.DB
	logger *logging.Logger

	ddl sync.Mutex
}

// New connects to Postgres when connection settings are configured and falls
// back to a local SQLite file otherwise, so the server runs without a
// database server in development.
func New(cfg *config.Config, logger *logging.Logger) (*Store, error) {
	driver, dsn := "sqlite", SQLiteDSN(cfg.SQLitePath)
	if cfg.PostgresConfigured() && !cfg.UseSQLite {
		driver, dsn = "postgres", PostgresDSN(cfg)
	}

	store, err := Open(driver, dsn, logger)
	if err != nil {
		return nil, err
	}

	// Pool sizing mirrors the base-plus-overflow model: PoolSize connections
	// kept warm, MaxOverflow extra allowed under burst.
	store.db.SetMaxOpenConns(cfg.PoolSize + cfg.MaxOverflow)
	store.db.SetMaxIdleConns(cfg.PoolSize)
	store.db.SetConnMaxIdleTime(time.Duration(cfg.PoolTimeout) * time.Second)
	store.db.SetConnMaxLifetime(time.Duration(cfg.PoolRecycle) * time.Second)

	logger.Infow("database connected", "driver", driver)
	return store, nil
}

// Open connects with an explicit driver and DSN. Used directly by tests,
// which point it at an in-memory SQLite database.
func Open(driver, dsn string, logger *logging.Logger) (*Store, error) {
	db, err := sql.Open(driver, dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	return &Store{db: db, logger: logger}, nil
}

// PostgresDSN builds a connection string from the discrete DB_* settings,
// unless a full DATABASE_URL was provided.
func PostgresDSN(cfg *config.Config) string {
	if cfg.DatabaseURL != "" {
		return cfg.DatabaseURL
	}
	u := url.URL{
		Scheme:   "postgres",
		User:     url.UserPassword(cfg.DBUser, cfg.DBPassword),
		Host:     net.JoinHostPort(cfg.DBHost, cfg.DBPort),
		Path:     "/" + cfg.DBName,
		RawQuery: "sslmode=disable",
	}
	return u.String()
}

// SQLiteDSN enables WAL and foreign-key enforcement on the local file.
func SQLiteDSN(path string) string {
	return path + "?_pragma=journal_mode(wal)&_pragma=foreign_keys(on)"
}

// Ping reports connectivity, used by the health endpoint.
func (s *Store) Ping() error {
	return s.db.Ping()
}

func (s *Store) Close() error {
	return s.db.Close()
}
