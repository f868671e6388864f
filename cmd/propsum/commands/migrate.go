package commands

import (
	"fmt"
	"log/slog"

	"github.com/spf13/cobra"

	"github.com/roasbeef/propsum/internal/db"
)

var migrateTo uint

var migrateCmd = &cobra.Command{
	Use:   "migrate",
	Short: "Apply database migrations to the summary cache",
	Long: `Create the summary cache database if needed and bring its schema
up to date. The daemon does this on startup as well.`,
	Args: cobra.NoArgs,
	RunE: runMigrate,
}

func init() {
	migrateCmd.Flags().UintVar(
		&migrateTo, "to", 0,
		"Migrate to this schema version instead of the newest",
	)
}

func runMigrate(cmd *cobra.Command, args []string) error {
	path, err := getDBPath()
	if err != nil {
		return err
	}

	log := slog.New(slog.NewTextHandler(cmd.ErrOrStderr(), nil))

	store, err := db.NewSqliteStore(&db.SqliteConfig{
		DatabaseFileName: path,
		SkipMigrations:   true,
	}, log)
	if err != nil {
		return err
	}
	defer store.Close()

	var opts []db.MigrateOption
	if migrateTo != 0 {
		opts = append(opts, db.ToVersion(migrateTo))
	}

	version, err := store.Migrate(log, opts...)
	if err != nil {
		return fmt.Errorf("migrate %s: %w", path, err)
	}

	fmt.Fprintf(cmd.OutOrStdout(), "%s is at schema version %d\n", path,
		version)

	return nil
}
