package commands

import (
	"encoding/json"

	"github.com/spf13/cobra"

	"github.com/roasbeef/propsum/internal/web"
)

var healthCmd = &cobra.Command{
	Use:   "health",
	Short: "Show daemon health and request counters",
	Args:  cobra.NoArgs,
	RunE:  runHealth,
}

func runHealth(cmd *cobra.Command, args []string) error {
	var resp web.HealthResponse
	if err := getJSON(cmd.Context(), "/api/health", &resp); err != nil {
		return err
	}

	enc := json.NewEncoder(cmd.OutOrStdout())
	enc.SetIndent("", "  ")

	return enc.Encode(resp)
}
