package commands

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"

	"github.com/roasbeef/propsum/internal/db"
)

var cacheLimit int

var cacheCmd = &cobra.Command{
	Use:   "cache",
	Short: "Inspect the local summary cache",
}

var cacheListCmd = &cobra.Command{
	Use:   "list",
	Short: "List the most recently cached summaries",
	Args:  cobra.NoArgs,
	RunE:  runCacheList,
}

var cacheCountCmd = &cobra.Command{
	Use:   "count",
	Short: "Print the number of cached summaries",
	Args:  cobra.NoArgs,
	RunE:  runCacheCount,
}

func init() {
	cacheListCmd.Flags().IntVar(
		&cacheLimit, "limit", 20, "Maximum number of entries",
	)

	cacheCmd.AddCommand(cacheListCmd)
	cacheCmd.AddCommand(cacheCountCmd)
}

// openStore opens the cache database, applying migrations.
func openStore() (*db.SqliteStore, error) {
	path, err := getDBPath()
	if err != nil {
		return nil, err
	}

	return db.NewSqliteStore(&db.SqliteConfig{
		DatabaseFileName: path,
	}, slog.New(slog.DiscardHandler))
}

func runCacheList(cmd *cobra.Command, args []string) error {
	store, err := openStore()
	if err != nil {
		return err
	}
	defer store.Close()

	rows, err := store.ListRecentProposalSummaries(
		cmd.Context(), int64(cacheLimit),
	)
	if err != nil {
		return fmt.Errorf("list summaries: %w", db.MapSQLError(err))
	}

	out := cmd.OutOrStdout()
	if outputFormat == "json" {
		enc := json.NewEncoder(out)
		enc.SetIndent("", "  ")
		return enc.Encode(rows)
	}

	tw := tabwriter.NewWriter(out, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "ID\tCACHED AT\tDESCRIPTION")
	for _, row := range rows {
		fmt.Fprintf(tw, "%d\t%s\t%s\n", row.ID,
			time.Unix(row.CreatedAt, 0).UTC().Format(time.RFC3339),
			firstLine(row.Description, 60))
	}

	return tw.Flush()
}

func runCacheCount(cmd *cobra.Command, args []string) error {
	store, err := openStore()
	if err != nil {
		return err
	}
	defer store.Close()

	n, err := store.CountProposalSummaries(cmd.Context())
	if err != nil {
		return fmt.Errorf("count summaries: %w", db.MapSQLError(err))
	}

	fmt.Fprintln(cmd.OutOrStdout(), n)

	return nil
}

// firstLine returns the first line of s, cut to max runes.
func firstLine(s string, max int) string {
	for i, r := range s {
		if r == '\n' {
			s = s[:i]
			break
		}
	}

	runes := []rune(s)
	if len(runes) > max {
		return string(runes[:max-1]) + "…"
	}

	return s
}
