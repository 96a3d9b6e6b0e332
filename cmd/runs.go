package cmd

import (
	"errors"
	"fmt"
	"os"

	"github.com/cdc542559455/lmcache-leaderboard/internal/contract"
	"github.com/cdc542559455/lmcache-leaderboard/internal/iocache"
	"github.com/cdc542559455/lmcache-leaderboard/schema"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

// runsConfig reads and validates the run history backend settings.
func runsConfig() (schema.DatabaseBackend, string, error) {
	if err := loadConfigFile(); err != nil {
		return "", "", err
	}

	backend := schema.DatabaseBackend(viper.GetString("runs-backend"))
	if backend == "" {
		backend = schema.NoneBackend
	}
	if _, ok := schema.ValidRunBackends[backend]; !ok {
		return "", "", fmt.Errorf("invalid runs backend '%s'. must be sqlite, mysql, postgresql, none", backend)
	}
	connStr := viper.GetString("runs-db-connect")
	if err := contract.ValidateDatabaseConnectionString(backend, connStr); err != nil {
		return "", "", err
	}
	return backend, connStr, nil
}

// runsSetup loads minimal configuration needed for run history operations.
// openStore is false for commands that must not create or migrate tables.
func runsSetup(openStore bool) error {
	backend, connStr, err := runsConfig()
	if err != nil {
		return err
	}
	if openStore {
		// Initialize stores with the loaded config (no rating cache for runs commands)
		if err := iocache.InitCaching("", "", backend, connStr); err != nil {
			return fmt.Errorf("failed to initialize run history: %w", err)
		}
	}

	cfg.RunsBackend = backend
	cfg.RunsDBConnect = connStr
	cfg.OutputFile = viper.GetString("output-file")
	return nil
}

// runsCmd focused on run history management.
//
// Note: Runs subcommands use minimal initialization (runsSetup) instead of
// the full sharedSetup used by analysis commands.
var runsCmd = &cobra.Command{
	Use:   "runs",
	Short: "Manage analysis run history and exports",
	Long: `Manage the history of analysis runs used for auditing and trend reporting.

Every analyze run records:
- Start and end time, success and error message
- Source, commits analyzed and latest commit hash
- The ranked standings of the latest period of each type

Supported backends: SQLite (default), MySQL, PostgreSQL, or None (disabled)

Subcommands:
  status  - Show run history statistics
  export  - Export runs and standings to Parquet
  clear   - Remove all run history
  migrate - Run database schema migrations

Examples:
  leaderboard runs status
  leaderboard runs export --output-file runs`,
}

// runsClearCmd clears the run history.
var runsClearCmd = &cobra.Command{
	Use:   "clear",
	Short: "Remove all recorded runs and standings",
	Long: `Delete all stored runs and standings.

WARNING: This action cannot be undone. Consider exporting data first.

Examples:
  leaderboard runs export --output-file backup
  leaderboard runs clear`,
	PreRunE: func(_ *cobra.Command, _ []string) error {
		return runsSetup(false)
	},
	Run: func(_ *cobra.Command, _ []string) {
		if err := iocache.ClearRuns(cfg.RunsBackend, runsFilePath(), cfg.RunsDBConnect); err != nil {
			contract.LogFatal("Failed to clear run history", err)
		}
		fmt.Println("Run history cleared successfully.")
	},
}

// runsStatusCmd shows run history status.
var runsStatusCmd = &cobra.Command{
	Use:   "status",
	Short: "Display run history statistics and connection details",
	Long: `Show detailed information about the run history store.

Displays:
- Backend type and connection status
- Total number of runs and the latest runs
- Table sizes

Examples:
  leaderboard runs status`,
	PreRunE: func(_ *cobra.Command, _ []string) error {
		return runsSetup(true)
	},
	Run: func(_ *cobra.Command, _ []string) {
		store := iocache.Manager.GetRunStore()
		if store == nil {
			contract.LogFatal("Failed to get run status", errors.New("run history is not initialized"))
		}
		status, err := store.GetStatus()
		if err != nil {
			contract.LogFatal("Failed to get run status", err)
		}
		iocache.PrintRunStatus(os.Stdout, status)
	},
}

// runsExportCmd exports the run history to Parquet files.
var runsExportCmd = &cobra.Command{
	Use:   "export",
	Short: "Export run history to Parquet for BI tools and analytics",
	Long: `Export all runs and standings to Parquet format.

Writes <output-file>.runs.parquet and <output-file>.standings.parquet.

Requires: --output-file parameter

Examples:
  leaderboard runs export --output-file history
  duckdb -c "SELECT * FROM read_parquet('history.standings.parquet') LIMIT 10"`,
	PreRunE: func(_ *cobra.Command, _ []string) error {
		return runsSetup(true)
	},
	Run: func(_ *cobra.Command, _ []string) {
		if err := iocache.ExecuteRunsExport(os.Stdout, iocache.Manager.GetRunStore(), cfg.OutputFile); err != nil {
			contract.LogFatal("Failed to export run history", err)
		}
	},
}

// runsMigrateCmd runs database migrations for the run store.
var runsMigrateCmd = &cobra.Command{
	Use:   "migrate",
	Short: "Run database schema migrations (upgrades/downgrades)",
	Long: `Manage database schema versions for the run history store.

By default, migrates to the latest version. Use --target-version for specific versions.

Examples:
  # Migrate to latest version (default)
  leaderboard runs migrate

  # Migrate to specific version
  leaderboard runs migrate --target-version 1

  # Rollback to initial state
  leaderboard runs migrate --target-version 0`,
	PreRunE: func(_ *cobra.Command, _ []string) error {
		return runsSetup(false)
	},
	Run: func(_ *cobra.Command, _ []string) {
		targetVersion := viper.GetInt("target-version")
		if err := iocache.MigrateRuns(os.Stdout, cfg.RunsBackend, cfg.RunsDBConnect, targetVersion); err != nil {
			contract.LogFatal("Failed to run migrations", err)
		}
	},
}

// runsFilePath is the SQLite file of the run history.
func runsFilePath() string {
	if cfg.RunsBackend == schema.SQLiteBackend && cfg.RunsDBConnect != "" {
		return cfg.RunsDBConnect
	}
	return contract.GetRunsDBFilePath()
}
