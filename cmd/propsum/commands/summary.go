package commands

import (
	"context"
	"fmt"
	"log/slog"
	"net/url"
	"os"

	"github.com/spf13/cobra"

	"github.com/roasbeef/propsum/internal/cache"
	"github.com/roasbeef/propsum/internal/config"
	"github.com/roasbeef/propsum/internal/db"
	"github.com/roasbeef/propsum/internal/proposal"
	"github.com/roasbeef/propsum/internal/summarizer"
	"github.com/roasbeef/propsum/internal/summary"
)

var summaryLocal bool

var summaryCmd = &cobra.Command{
	Use:   "summary <proposal-id>",
	Short: "Print the summary of a proposal",
	Long: `Print the structured summary of a Nouns proposal.

By default the summary is requested from propsumd. With --local the
subgraph, summarizer and cache are used directly.`,
	Args: cobra.ExactArgs(1),
	RunE: runSummary,
}

func init() {
	summaryCmd.Flags().BoolVar(
		&summaryLocal, "local", false,
		"Generate in-process instead of asking propsumd",
	)
}

func runSummary(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()

	var (
		env *summary.Envelope
		err error
	)
	if summaryLocal {
		env, err = localSummary(ctx, args[0])
	} else {
		env = &summary.Envelope{}
		err = getJSON(
			ctx, "/api/summary/"+url.PathEscape(args[0]), env,
		)
	}
	if err != nil {
		return err
	}

	return writeEnvelope(cmd.OutOrStdout(), env)
}

// localSummary runs the request pipeline in-process.
func localSummary(ctx context.Context,
	rawID string) (*summary.Envelope, error) {

	cfg := config.DefaultConfig()
	if err := cfg.ApplyEnv(os.LookupEnv); err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	path := config.ExpandPath(cfg.DBPath)
	if dbPath != "" {
		path = config.ExpandPath(dbPath)
	}

	// Keep stdout for the summary itself.
	log := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
		Level: slog.LevelWarn,
	}))

	summaryCache := cache.New(cfg.Cache, cache.SqliteDialer(
		&db.SqliteConfig{DatabaseFileName: path}, log,
	), log)
	defer summaryCache.Close()

	sum, err := summarizer.New(ctx, cfg.SummarizerConfig(), log)
	if err != nil {
		return nil, fmt.Errorf("create summarizer: %w", err)
	}

	svc := summary.NewService(
		cfg.SummaryConfig(), summaryCache,
		proposal.New(cfg.Subgraph, log), sum, log,
	)

	return svc.GetSummary(ctx, rawID)
}
