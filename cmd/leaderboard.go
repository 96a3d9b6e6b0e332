package cmd

import (
	"github.com/cdc542559455/lmcache-leaderboard/core"
	"github.com/cdc542559455/lmcache-leaderboard/internal/contract"
	"github.com/spf13/cobra"
)

// analyzeCmd runs the scoring pipeline and saves the snapshot.
var analyzeCmd = &cobra.Command{
	Use:   "analyze [repo-path]",
	Short: "Score recent commits and update the leaderboard snapshot.",
	Long: `List commits from the configured source, score each one and rebuild the
weekly, monthly and quarterly leaderboards.

Every commit gets four sub-scores:
- Lines changed (up to 30)
- Files changed (up to 20)
- Conventional-commit keyword (up to 25)
- Significance rating from the rater, or a size-based fallback (up to 25)

Commits totalling 50 or more are significant. When a snapshot already exists the
fresh results are merged into it by commit hash, so history outside the window is kept.
Manual contributions are then reapplied and the snapshot is validated and saved.

Examples:
  # Analyze the last 180 days of the current repository
  leaderboard analyze

  # Re-rate only the last week once a snapshot exists
  leaderboard analyze --incremental-days 7

  # Use the GitHub API and an OpenAI-compatible rater
  LEADERBOARD_GITHUB_TOKEN=... LEADERBOARD_RATER_API_KEY=... \
    leaderboard analyze --source github --github-owner LMCache --github-repo LMCache --rater openai`,
	Args:    cobra.MaximumNArgs(1),
	PreRunE: analyzeSetupWrapper,
	Run: func(_ *cobra.Command, _ []string) {
		if err := core.ExecuteAnalyze(rootCtx, cfg, cacheManager); err != nil {
			contract.LogFatal("Cannot run analysis", err)
		}
	},
}

// mergeCmd merges two snapshot files.
var mergeCmd = &cobra.Command{
	Use:   "merge <existing.json> <new.json>",
	Short: "Merge a fresh snapshot into an existing one by commit hash.",
	Long: `Union the commits of two snapshot files and rebuild every leaderboard.

Commits present in both files take the new version. Manual contribution fields
recorded on existing records are carried over. Merging the same file twice gives
the same result.

The merged snapshot is saved to --output-file when set, otherwise to the configured
snapshot backend.

Examples:
  leaderboard merge leaderboard-data.json fresh.json
  leaderboard merge old.json fresh.json --output-file merged.json`,
	Args: cobra.ExactArgs(2),
	PreRunE: func(cmd *cobra.Command, args []string) error {
		if err := readSetupWrapper(cmd, args); err != nil {
			return err
		}
		cfg.MergeInputs = args
		return nil
	},
	Run: func(_ *cobra.Command, _ []string) {
		if err := core.ExecuteMerge(rootCtx, cfg, cacheManager); err != nil {
			contract.LogFatal("Cannot merge snapshots", err)
		}
	},
}

// reconcileCmd reapplies the manual contributions file.
var reconcileCmd = &cobra.Command{
	Use:   "reconcile",
	Short: "Reapply manual contributions to the stored snapshot.",
	Long: `Clear every manual contribution from the stored snapshot and apply the manual
contributions file again.

Dated contributions land in the ISO week containing their start date. Undated ones
land in the latest week with commits. Monthly and quarterly totals are rebuilt as
the sum of their weeks.

Examples:
  leaderboard reconcile --manual-file manual-contributions.json`,
	Args:    cobra.NoArgs,
	PreRunE: readSetupWrapper,
	Run: func(_ *cobra.Command, _ []string) {
		if err := core.ExecuteReconcile(rootCtx, cfg, cacheManager); err != nil {
			contract.LogFatal("Cannot reconcile manual contributions", err)
		}
	},
}

// showCmd prints one period of a leaderboard.
var showCmd = &cobra.Command{
	Use:   "show",
	Short: "Show the ranked contributors of one period.",
	Long: `Print one period of the stored leaderboard after removing hidden contributors.

Examples:
  # Latest week
  leaderboard show

  # A specific month as CSV
  leaderboard show --period-type monthly --period 2025-03 --output csv`,
	Args:    cobra.NoArgs,
	PreRunE: readSetupWrapper,
	Run: func(_ *cobra.Command, _ []string) {
		if err := core.ExecuteShow(rootCtx, cfg, cacheManager); err != nil {
			contract.LogFatal("Cannot show leaderboard", err)
		}
	},
}

// periodsCmd lists the periods of a leaderboard.
var periodsCmd = &cobra.Command{
	Use:   "periods",
	Short: "List the periods of a leaderboard with their leaders.",
	Long: `List every period of the selected granularity, newest first, with its
contributor count, commit count, total score and leader.

Examples:
  leaderboard periods --period-type quarterly`,
	Args:    cobra.NoArgs,
	PreRunE: readSetupWrapper,
	Run: func(_ *cobra.Command, _ []string) {
		if err := core.ExecutePeriods(rootCtx, cfg, cacheManager); err != nil {
			contract.LogFatal("Cannot list periods", err)
		}
	},
}

// contributorCmd prints one contributor across periods.
var contributorCmd = &cobra.Command{
	Use:   "contributor <name>",
	Short: "Show one contributor's records across periods.",
	Long: `Print a contributor's rank, tier and scores in every period of the selected
granularity, followed by their manual contributions and commits of one period
(--period, or the newest period when unset). Names match case-insensitively.

Examples:
  leaderboard contributor "Ada Lovelace" --period-type monthly`,
	Args: cobra.ExactArgs(1),
	PreRunE: func(cmd *cobra.Command, args []string) error {
		if err := readSetupWrapper(cmd, args); err != nil {
			return err
		}
		cfg.Contributor = args[0]
		return nil
	},
	Run: func(_ *cobra.Command, _ []string) {
		if err := core.ExecuteContributor(rootCtx, cfg, cacheManager); err != nil {
			contract.LogFatal("Cannot show contributor", err)
		}
	},
}

// exportCmd writes every leaderboard to Parquet.
var exportCmd = &cobra.Command{
	Use:   "export",
	Short: "Export every leaderboard period to Parquet for analytics.",
	Long: `Write one Parquet file per period type holding every period of the stored
snapshot, after removing hidden contributors.

Requires: --output-file parameter, used as the file name prefix

Examples:
  leaderboard export --output-file leaderboard
  duckdb -c "SELECT * FROM read_parquet('leaderboard.weekly.parquet') LIMIT 10"`,
	Args:    cobra.NoArgs,
	PreRunE: readSetupWrapper,
	Run: func(_ *cobra.Command, _ []string) {
		if err := core.ExecuteExport(rootCtx, cfg, cacheManager); err != nil {
			contract.LogFatal("Cannot export leaderboard", err)
		}
	},
}

// rulesCmd displays the commit scoring table.
var rulesCmd = &cobra.Command{
	Use:   "rules",
	Short: "Display the commit scoring table.",
	Long: `Show how a commit is scored: the lines and files brackets, the keyword rules
in evaluation order, the significance rating range and the significance threshold.

No commits are read. This is purely informational.

Examples:
  leaderboard rules
  leaderboard rules --output json`,
	Args:    cobra.NoArgs,
	PreRunE: readSetupWrapper,
	Run: func(_ *cobra.Command, _ []string) {
		if err := core.ExecuteRules(rootCtx, cfg, cacheManager); err != nil {
			contract.LogFatal("Cannot display scoring rules", err)
		}
	},
}
