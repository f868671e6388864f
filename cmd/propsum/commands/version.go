package commands

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/roasbeef/propsum/internal/build"
)

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Display version information",
	Long:  `Display the version, commit hash, and Go version for propsum.`,
	Run:   runVersion,
}

// runVersion prints the version and build information.
func runVersion(cmd *cobra.Command, args []string) {
	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "propsum version %s", build.Version())

	if build.Commit != "" {
		fmt.Fprintf(out, " commit=%s", build.Commit)
	}

	fmt.Fprintf(out, " go=%s\n", build.GoVersion())
}
