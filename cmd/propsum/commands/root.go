package commands

import (
	"github.com/spf13/cobra"
)

var (
	// serverURL is the base URL of a running propsumd.
	serverURL string

	// dbPath is the path to the SQLite summary cache.
	dbPath string

	// outputFormat controls output format (markdown, html, json).
	outputFormat string
)

// rootCmd is the base command for the CLI.
var rootCmd = &cobra.Command{
	Use:   "propsum",
	Short: "Nouns proposal summary CLI",
	Long: `propsum fetches structured summaries of Nouns governance proposals.

Summaries are requested from a running propsumd, or generated in-process
with --local using the same environment configuration as the daemon.`,
	SilenceUsage: true,
}

// Execute runs the CLI.
func Execute() error {
	return rootCmd.Execute()
}

func init() {
	rootCmd.PersistentFlags().StringVar(
		&serverURL, "server", "http://localhost:3000",
		"Base URL of the propsumd HTTP API",
	)
	rootCmd.PersistentFlags().StringVar(
		&dbPath, "db", "",
		"Path to SQLite database (default: ~/.propsum/propsum.db)",
	)
	rootCmd.PersistentFlags().StringVar(
		&outputFormat, "format", "markdown",
		"Output format: markdown, html, json",
	)

	rootCmd.AddCommand(summaryCmd)
	rootCmd.AddCommand(healthCmd)
	rootCmd.AddCommand(cacheCmd)
	rootCmd.AddCommand(migrateCmd)
	rootCmd.AddCommand(versionCmd)
}
