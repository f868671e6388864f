package db

import (
	"database/sql"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	_ "github.com/mattn/go-sqlite3"
)

// DefaultDBPath returns the default path for the summary cache database.
func DefaultDBPath() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("failed to get home directory: %w", err)
	}

	return filepath.Join(home, ".propsum", "propsum.db"), nil
}

// SqliteConfig holds the configuration for opening the sqlite backed
// summary cache.
type SqliteConfig struct {
	// DatabaseFileName is the full path of the database file.
	DatabaseFileName string

	// SkipMigrations disables applying the embedded migrations on open.
	SkipMigrations bool

	// BusyTimeoutMs is how long sqlite waits on a locked database before
	// returning SQLITE_BUSY. Zero uses the default of 5000.
	BusyTimeoutMs int
}

// SqliteStore is a Store backed by a sqlite file that has had all
// migrations applied.
type SqliteStore struct {
	*Store

	cfg *SqliteConfig
}

// NewSqliteStore opens the sqlite database described by cfg and brings its
// schema up to SchemaVersion.
func NewSqliteStore(cfg *SqliteConfig, log *slog.Logger) (*SqliteStore,
	error) {

	if cfg == nil || cfg.DatabaseFileName == "" {
		return nil, fmt.Errorf("sqlite database file name is required")
	}
	if log == nil {
		log = slog.Default()
	}

	sqlDB, err := OpenSQLite(cfg.DatabaseFileName, cfg.BusyTimeoutMs)
	if err != nil {
		return nil, err
	}

	s := &SqliteStore{
		Store: NewStore(sqlDB),
		cfg:   cfg,
	}

	if !cfg.SkipMigrations {
		if _, err := s.Migrate(log); err != nil {
			sqlDB.Close()
			return nil, fmt.Errorf("error executing migrations: %w",
				err)
		}
	}

	return s, nil
}

// Migrate brings the schema of the open database up to date, see Migrate.
func (s *SqliteStore) Migrate(log *slog.Logger,
	opts ...MigrateOption) (uint, error) {

	return Migrate(s.db, log, opts...)
}

// OpenSQLite opens a SQLite database connection with WAL mode enabled and
// appropriate pragmas for performance and reliability.
func OpenSQLite(dbPath string, busyTimeoutMs int) (*sql.DB, error) {
	if busyTimeoutMs <= 0 {
		busyTimeoutMs = 5000
	}

	// Ensure the directory exists.
	dir := filepath.Dir(dbPath)
	if err := os.MkdirAll(dir, 0700); err != nil {
		return nil, fmt.Errorf("failed to create database directory: %w", err)
	}

	dsn := fmt.Sprintf(
		"file:%s?_foreign_keys=on&_journal_mode=WAL&_busy_timeout=%d",
		dbPath, busyTimeoutMs,
	)

	db, err := sql.Open("sqlite3", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	// Single writer, multiple readers.
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)

	// Verify connection and apply additional pragmas.
	if err := configurePragmas(db); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to configure database: %w", err)
	}

	return db, nil
}

// configurePragmas sets additional SQLite pragmas for optimal performance.
func configurePragmas(db *sql.DB) error {
	pragmas := []string{
		// NORMAL is durable enough under WAL for a cache.
		"PRAGMA synchronous = NORMAL",

		// Negative value is in KiB, 16MB cache.
		"PRAGMA cache_size = -16384",

		"PRAGMA temp_store = MEMORY",
	}

	for _, pragma := range pragmas {
		if _, err := db.Exec(pragma); err != nil {
			return fmt.Errorf("failed to execute %q: %w", pragma, err)
		}
	}

	return nil
}
