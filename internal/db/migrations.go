package db

import (
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/golang-migrate/migrate/v4"
	sqlite_migrate "github.com/golang-migrate/migrate/v4/database/sqlite3"
	"github.com/golang-migrate/migrate/v4/source/iofs"
)

// SchemaVersion is the newest migration embedded in this binary. It MUST be
// bumped together with every new file under migrations/.
const SchemaVersion uint = 1

// ErrMigrationDowngrade is returned when the database was written by a newer
// binary. Running down migrations against it would lose data.
var ErrMigrationDowngrade = errors.New("database downgrade detected")

type migrateConfig struct {
	// target is the version to migrate to, 0 for the newest.
	target uint

	// known is the newest version this binary understands.
	known uint
}

// MigrateOption tweaks a Migrate call.
type MigrateOption func(*migrateConfig)

// ToVersion migrates up or down to version instead of the newest one.
func ToVersion(version uint) MigrateOption {
	return func(c *migrateConfig) {
		c.target = version
	}
}

// WithKnownVersion overrides SchemaVersion for downgrade protection.
func WithKnownVersion(version uint) MigrateOption {
	return func(c *migrateConfig) {
		c.known = version
	}
}

// slogMigrateLogger routes golang-migrate's progress lines to slog.
type slogMigrateLogger struct {
	log *slog.Logger
}

func (l slogMigrateLogger) Printf(format string, v ...any) {
	l.log.Info(strings.TrimSpace(fmt.Sprintf(format, v...)))
}

func (l slogMigrateLogger) Verbose() bool {
	return false
}

// Migrate applies the embedded migrations to sqlDB and returns the schema
// version it ends at.
func Migrate(sqlDB *sql.DB, log *slog.Logger,
	opts ...MigrateOption) (uint, error) {

	cfg := migrateConfig{known: SchemaVersion}
	for _, opt := range opts {
		opt(&cfg)
	}

	src, err := iofs.New(sqlSchemas, "migrations")
	if err != nil {
		return 0, fmt.Errorf("load migrations: %w", err)
	}

	driver, err := sqlite_migrate.WithInstance(
		sqlDB, &sqlite_migrate.Config{},
	)
	if err != nil {
		return 0, fmt.Errorf("sqlite migration driver: %w", err)
	}

	m, err := migrate.NewWithInstance("iofs", src, "sqlite3", driver)
	if err != nil {
		return 0, err
	}
	m.Log = slogMigrateLogger{log: log}

	before, dirty, err := m.Version()
	switch {
	case errors.Is(err, migrate.ErrNilVersion):
		before = 0

	case err != nil:
		return 0, fmt.Errorf("read schema version: %w", err)

	case dirty:
		return before, fmt.Errorf("schema version %d is dirty, a "+
			"previous migration failed part way", before)

	case before > cfg.known:
		return before, fmt.Errorf("%w: schema version %d, binary "+
			"knows up to %d", ErrMigrationDowngrade, before,
			cfg.known)
	}

	if cfg.target == 0 {
		err = m.Up()
	} else {
		err = m.Migrate(cfg.target)
	}
	if err != nil && !errors.Is(err, migrate.ErrNoChange) {
		return before, err
	}

	after, _, err := m.Version()
	if err != nil {
		return before, fmt.Errorf("read schema version: %w", err)
	}
	if after != before {
		log.Info("Summary cache schema migrated",
			"from_version", before, "to_version", after)
	}

	return after, nil
}
