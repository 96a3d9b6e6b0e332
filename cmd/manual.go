package cmd

import (
	"github.com/cdc542559455/lmcache-leaderboard/core"
	"github.com/cdc542559455/lmcache-leaderboard/internal/contract"
	"github.com/spf13/cobra"
)

// manualCmd focused on the manual contributions file.
var manualCmd = &cobra.Command{
	Use:   "manual",
	Short: "Manage manual contributions (talks, reviews, mentoring)",
	Long: `Manage the manual contributions file that awards points outside of commits.

Each contributor holds a list of contributions with a score, notes and an optional
start and end date. Run 'leaderboard reconcile' afterwards to apply the changes to
the stored snapshot.

Subcommands:
  list   - Print every manual contribution
  add    - Add a contributor or one of their contributions
  remove - Remove a contributor or one of their contributions
  export - Write a dated backup of the file

Examples:
  leaderboard manual add "Ada Lovelace" --score 15 --notes "conference talk" --start 2025-03-10
  leaderboard manual remove "Ada Lovelace" --index 0`,
}

// manualListCmd prints the manual contributions.
var manualListCmd = &cobra.Command{
	Use:     "list",
	Short:   "Print every manual contribution",
	Args:    cobra.NoArgs,
	PreRunE: readSetupWrapper,
	Run: func(_ *cobra.Command, _ []string) {
		if err := core.ExecuteManualList(rootCtx, cfg); err != nil {
			contract.LogFatal("Cannot list manual contributions", err)
		}
	},
}

// manualAddCmd adds a contributor or a contribution.
var manualAddCmd = &cobra.Command{
	Use:   "add <name>",
	Short: "Add a contributor or one of their contributions",
	Long: `Add a contributor when only --email is given, otherwise append a contribution.
Unknown contributors are created on the fly. Names match case-insensitively.`,
	Args:    cobra.ExactArgs(1),
	PreRunE: readSetupWrapper,
	Run: func(cmd *cobra.Command, args []string) {
		flags := cmd.Flags()
		edit := core.ManualEdit{Name: args[0]}
		edit.Email, _ = flags.GetString("email")
		edit.Score, _ = flags.GetInt("score")
		edit.Notes, _ = flags.GetString("notes")
		edit.StartDate, _ = flags.GetString("start")
		edit.EndDate, _ = flags.GetString("end")
		if err := core.ExecuteManualAdd(rootCtx, cfg, edit); err != nil {
			contract.LogFatal("Cannot add manual contribution", err)
		}
	},
}

// manualRemoveCmd removes a contributor or a contribution.
var manualRemoveCmd = &cobra.Command{
	Use:     "remove <name>",
	Short:   "Remove a contributor or one of their contributions",
	Args:    cobra.ExactArgs(1),
	PreRunE: readSetupWrapper,
	Run: func(cmd *cobra.Command, args []string) {
		index, _ := cmd.Flags().GetInt("index")
		if err := core.ExecuteManualRemove(rootCtx, cfg, core.ManualEdit{Name: args[0], Index: index}); err != nil {
			contract.LogFatal("Cannot remove manual contribution", err)
		}
	},
}

// manualExportCmd writes a dated backup.
var manualExportCmd = &cobra.Command{
	Use:     "export",
	Short:   "Write a dated backup of the manual contributions file",
	Args:    cobra.NoArgs,
	PreRunE: readSetupWrapper,
	Run: func(cmd *cobra.Command, _ []string) {
		dir, _ := cmd.Flags().GetString("dir")
		if err := core.ExecuteManualBackup(rootCtx, cfg, dir); err != nil {
			contract.LogFatal("Cannot export manual contributions", err)
		}
	},
}
