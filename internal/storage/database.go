// Package storage persists spending records, users and savings goals in
// PostgreSQL (via pgx) or SQLite.
package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/stdlib"
	"go.uber.org/zap"

	_ "modernc.org/sqlite" // SQLite driver
)

// Supported drivers.
const (
	DriverPostgres = "postgres"
	DriverSQLite   = "sqlite"
)

var (
	ErrNotFound  = errors.New("not found")
	ErrDuplicate = errors.New("duplicate entry")
)

// Options configures how the database is opened.
type Options struct {
	Driver     string
	URL        string
	MaxRetries int
	RetryDelay time.Duration
}

// Store is the persistence collaborator for every service.
type Store struct {
	db     *sql.DB
	driver string
}

// Open connects to the configured database, waiting for it to become ready.
func Open(ctx context.Context, opts Options, logger *zap.Logger) (*Store, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	switch opts.Driver {
	case DriverPostgres:
		return openPostgres(ctx, opts, logger)
	case DriverSQLite:
		return OpenSQLite(opts.URL)
	default:
		return nil, fmt.Errorf("unsupported database driver %q", opts.Driver)
	}
}

// NormalizeDatabaseURL rewrites postgresql:// to postgres:// and adds
// sslmode=disable when no sslmode is set.
func NormalizeDatabaseURL(databaseURL string) string {
	if databaseURL == "" {
		return databaseURL
	}
	if strings.HasPrefix(databaseURL, "postgresql:") {
		databaseURL = "postgres" + databaseURL[len("postgresql"):]
	}
	if !strings.Contains(databaseURL, "sslmode=") {
		separator := "?"
		if strings.Contains(databaseURL, "?") {
			separator = "&"
		}
		databaseURL = databaseURL + separator + "sslmode=disable"
	}
	return databaseURL
}

func openPostgres(ctx context.Context, opts Options, logger *zap.Logger) (*Store, error) {
	config, err := pgx.ParseConfig(NormalizeDatabaseURL(opts.URL))
	if err != nil {
		return nil, fmt.Errorf("failed to parse database URL: %w", err)
	}

	maxRetries := opts.MaxRetries
	if maxRetries <= 0 {
		maxRetries = 1
	}

	var lastErr error
	for i := 0; i < maxRetries; i++ {
		db := stdlib.OpenDB(*config)
		if lastErr = db.PingContext(ctx); lastErr == nil {
			logger.Info("database connection established", zap.String("driver", DriverPostgres))
			return &Store{db: db, driver: DriverPostgres}, nil
		}
		_ = db.Close()

		if i == maxRetries-1 {
			break
		}
		// Log the actual error for the first few attempts and every 10th after.
		if i%10 == 0 || i < 5 {
			logger.Warn("database not ready, retrying",
				zap.Duration("delay", opts.RetryDelay),
				zap.Int("attempt", i+1),
				zap.Int("max_attempts", maxRetries),
				zap.Error(lastErr))
		} else {
			logger.Warn("database not ready, retrying",
				zap.Duration("delay", opts.RetryDelay),
				zap.Int("attempt", i+1),
				zap.Int("max_attempts", maxRetries))
		}

		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-time.After(opts.RetryDelay):
		}
	}
	return nil, fmt.Errorf("failed to connect to database after %d attempts: %w", maxRetries, lastErr)
}

// OpenSQLite opens (creating if needed) a SQLite database file.
func OpenSQLite(path string) (*Store, error) {
	if path == "" {
		return nil, fmt.Errorf("sqlite database path is required")
	}
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0750); err != nil {
			return nil, fmt.Errorf("failed to create database directory: %w", err)
		}
	}

	db, err := sql.Open("sqlite", path+"?_pragma=busy_timeout(5000)&_pragma=journal_mode(WAL)")
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	// SQLite doesn't benefit from multiple connections
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)
	db.SetConnMaxLifetime(0)

	if err := db.Ping(); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}
	return &Store{db: db, driver: DriverSQLite}, nil
}

// Close closes the database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

// Ping verifies the database is reachable.
func (s *Store) Ping(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

// Driver reports which database driver backs the store.
func (s *Store) Driver() string {
	return s.driver
}

// rebind rewrites ? placeholders into $n for PostgreSQL.
func (s *Store) rebind(query string) string {
	if s.driver != DriverPostgres {
		return query
	}
	var b strings.Builder
	b.Grow(len(query) + 8)
	n := 0
	for _, r := range query {
		if r == '?' {
			n++
			b.WriteByte('$')
			b.WriteString(strconv.Itoa(n))
			continue
		}
		b.WriteRune(r)
	}
	return b.String()
}
