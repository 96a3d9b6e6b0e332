package cmd

import (
	"runtime"

	"github.com/spf13/cobra"
)

// versionCmd shows the verbose version for diagnostic purposes.
var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print the version number of leaderboard.",
	Long: `Display version information including build details.

Include this output when reporting a scoring or ranking difference,
since rule tables and tier cutoffs change between releases.`,
	Run: func(cmd *cobra.Command, _ []string) {
		cmd.Printf("leaderboard CLI\n")
		cmd.Printf("  Version: %s\n", version)
		cmd.Printf("  Commit:  %s\n", commit)
		cmd.Printf("  Built:   %s\n", date)
		cmd.Printf("  Runtime: %s\n", runtime.Version())
	},
}
