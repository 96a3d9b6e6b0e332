// Package cmd defines the command-line interface for leaderboard.
package cmd

import (
	"github.com/cdc542559455/lmcache-leaderboard/internal/contract"
	"github.com/cdc542559455/lmcache-leaderboard/schema"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

func init() {
	// Call initConfig on Cobra's initialization
	cobra.OnInitialize(initConfig)

	// Add primary subcommands to the root command
	rootCmd.AddCommand(analyzeCmd)
	rootCmd.AddCommand(mergeCmd)
	rootCmd.AddCommand(reconcileCmd)
	rootCmd.AddCommand(showCmd)
	rootCmd.AddCommand(periodsCmd)
	rootCmd.AddCommand(contributorCmd)
	rootCmd.AddCommand(exportCmd)
	rootCmd.AddCommand(rulesCmd)
	rootCmd.AddCommand(manualCmd)
	rootCmd.AddCommand(cacheCmd)
	rootCmd.AddCommand(runsCmd)
	rootCmd.AddCommand(versionCmd)

	// Add the manual subcommands to the parent manual command
	manualCmd.AddCommand(manualListCmd)
	manualCmd.AddCommand(manualAddCmd)
	manualCmd.AddCommand(manualRemoveCmd)
	manualCmd.AddCommand(manualExportCmd)

	// Add the cache subcommands to the parent cache command
	cacheCmd.AddCommand(cacheClearCmd)
	cacheCmd.AddCommand(cacheStatusCmd)

	// Add the runs subcommands to the parent runs command
	runsCmd.AddCommand(runsClearCmd)
	runsCmd.AddCommand(runsStatusCmd)
	runsCmd.AddCommand(runsExportCmd)
	runsCmd.AddCommand(runsMigrateCmd)

	// Bind all persistent flags of rootCmd to Viper
	pf := rootCmd.PersistentFlags()
	pf.String("config", "", "Path to config file")
	pf.String("source", string(schema.LocalSource), "Commit source: local or github")
	pf.String("repo-path", ".", "Path to the local Git repository")
	pf.String("github-owner", "", "GitHub repository owner")
	pf.String("github-repo", "", "GitHub repository name")
	pf.String("github-token", "", "GitHub token (prefer LEADERBOARD_GITHUB_TOKEN)")
	pf.String("github-base-url", "", "GitHub Enterprise API URL")
	pf.Int("days", contract.DefaultAnalysisDays, "Days of history analyzed on a full run")
	pf.Int("incremental-days", 0, "Days of history analyzed once a snapshot exists (0 = always full)")
	pf.Int("workers", contract.DefaultWorkers, "Number of concurrent workers")
	pf.String("run-timeout", "30m", "Abort an analysis run after this duration (empty = no limit)")
	pf.Bool("force-full", false, "Ignore the prior snapshot and analyze the full window")
	pf.String("rater", string(schema.NoRater), "Significance rater: none or openai")
	pf.String("rater-api-key", "", "Rater API key (prefer LEADERBOARD_RATER_API_KEY)")
	pf.String("rater-model", contract.DefaultRaterModel, "Rater model name")
	pf.String("rater-base-url", contract.DefaultRaterBaseURL, "OpenAI-compatible API base URL")
	pf.String("rater-timeout", "15s", "Timeout of a single rating request")
	pf.String("snapshot-backend", string(schema.FileSnapshot), "Snapshot backend: file or s3")
	pf.String("snapshot-path", contract.DefaultSnapshotPath, "Snapshot file for the file backend")
	pf.String("s3-bucket", "", "Snapshot bucket for the s3 backend")
	pf.String("s3-key", contract.DefaultSnapshotPath, "Snapshot object key for the s3 backend")
	pf.String("s3-region", "us-east-1", "S3 region")
	pf.String("s3-endpoint", "", "Custom S3 endpoint (MinIO and friends)")
	pf.String("s3-access-key", "", "S3 access key (prefer LEADERBOARD_S3_ACCESS_KEY)")
	pf.String("s3-secret-key", "", "S3 secret key (prefer LEADERBOARD_S3_SECRET_KEY)")
	pf.String("manual-file", contract.DefaultManualFile, "Manual contributions file")
	pf.StringSlice("hidden", nil, "Contributor names left out of every view")
	pf.String("cache-backend", string(schema.SQLiteBackend), "Rating cache backend: sqlite or mysql or postgresql or redis or none")
	pf.String("cache-db-connect", "", "Connection string for the rating cache (e.g., user:pass@tcp(host:port)/dbname?parseTime=true)")
	pf.String("runs-backend", string(schema.SQLiteBackend), "Run history backend: sqlite or mysql or postgresql or none")
	pf.String("runs-db-connect", "", "Connection string for run history (must differ from cache-db-connect)")
	pf.String("output", string(schema.TextOut), "Output format: text or csv or json or parquet")
	pf.String("output-file", "", "Optional path to write output to")
	pf.String("period-type", string(schema.Weekly), "Leaderboard granularity: weekly or monthly or quarterly")
	pf.String("period", "", "Period key such as 2025-W11, 2025-03 or 2025-Q1 (default latest)")
	pf.IntP("limit", "l", contract.DefaultResultLimit, "Number of results to display")
	pf.Int("width", 0, "Terminal width override (0 = auto-detect)")
	pf.Int("precision", contract.DefaultPrecision, "Decimal precision for numeric columns")
	pf.String("color", "yes", "Enable colored labels in output (yes/no/true/false/1/0)")
	pf.String("profile", "", "Enable profiling and write profiles to files with this prefix")
	if err := viper.BindPFlags(pf); err != nil {
		contract.LogFatal("Error binding root flags", err)
	}

	// Flags of the manual subcommands are read directly, not through Viper
	manualAddCmd.Flags().String("email", "", "Contributor email")
	manualAddCmd.Flags().Int("score", 0, "Points awarded by the contribution")
	manualAddCmd.Flags().String("notes", "", "What the contribution was")
	manualAddCmd.Flags().String("start", "", "First day of the contribution (YYYY-MM-DD)")
	manualAddCmd.Flags().String("end", "", "Last day of the contribution (YYYY-MM-DD)")
	manualRemoveCmd.Flags().Int("index", -1, "Contribution to remove (-1 removes the contributor)")
	manualExportCmd.Flags().String("dir", ".", "Directory receiving the backup file")

	// Bind all flags of runsMigrateCmd to Viper
	runsMigrateCmd.Flags().Int("target-version", -1, "Target migration version (-1 means latest, 0 means rollback to initial state)")
	if err := viper.BindPFlags(runsMigrateCmd.Flags()); err != nil {
		contract.LogFatal("Error binding runs migrate flags", err)
	}
}
