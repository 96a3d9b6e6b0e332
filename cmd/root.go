package cmd

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"os/signal"
	"runtime/pprof"
	"strings"
	"syscall"

	"github.com/cdc542559455/lmcache-leaderboard/internal/contract"
	"github.com/cdc542559455/lmcache-leaderboard/internal/iocache"
	"github.com/cdc542559455/lmcache-leaderboard/schema"
	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

// All linker flags will be set by goreleaser infra at build time.
var (
	version = "dev"
	commit  = "none"
	date    = "unknown"
)

// rootCtx is the root context for all operations. Execute cancels it on SIGINT or SIGTERM.
var rootCtx = context.Background()

// cfg will hold the validated, final configuration.
var cfg = &contract.Config{}

// input holds the raw, unvalidated configuration from all sources (file, env, flags).
// Viper will unmarshal into this struct.
var input = &contract.ConfigRawInput{}

// profilePrefix is set when CPU and memory profiles are written.
var profilePrefix string

// cacheManager is the global persistence manager instance.
var cacheManager contract.CacheManager

// startProfiling starts CPU profiling if enabled.
func startProfiling() error {
	if profilePrefix == "" {
		return nil
	}
	cpuFile, err := os.Create(profilePrefix + ".cpu.prof")
	if err != nil {
		return fmt.Errorf("could not create CPU profile: %w", err)
	}
	if err := pprof.StartCPUProfile(cpuFile); err != nil {
		return fmt.Errorf("could not start CPU profiling: %w", err)
	}
	_, err = fmt.Fprintf(os.Stderr, "Profiling enabled. CPU profile: %s.cpu.prof, Memory profile: %s.mem.prof\n", profilePrefix, profilePrefix)
	return err
}

// stopProfiling stops profiling and writes the memory profile.
func stopProfiling() error {
	if profilePrefix == "" {
		return nil
	}

	pprof.StopCPUProfile()

	memFile, err := os.Create(profilePrefix + ".mem.prof")
	if err != nil {
		return fmt.Errorf("could not create memory profile: %w", err)
	}
	defer func() { _ = memFile.Close() }()

	if err := pprof.WriteHeapProfile(memFile); err != nil {
		return fmt.Errorf("could not write memory profile: %w", err)
	}

	_, err = fmt.Fprintf(os.Stderr, "Profiling complete. Use 'go tool pprof %s.cpu.prof' to analyze.\n", profilePrefix)
	return err
}

// rootCmd is the command-line entrypoint for all other commands.
var rootCmd = &cobra.Command{
	Use:                "leaderboard",
	Short:              "Rank repository contributors by scored commit activity.",
	Long:               `Leaderboard scores every commit of a repository and ranks contributors per ISO week, month and quarter.`,
	Version:            version,
	SilenceErrors:      true,
	SilenceUsage:       true,
	DisableSuggestions: true,
	Run: func(cmd *cobra.Command, _ []string) {
		_ = cmd.Help()
	},
}

// initConfig reads in .env, the config file location and ENV variables if set.
func initConfig() {
	// A missing .env is fine; anything else is worth a warning
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		contract.LogWarn("Cannot load .env", err)
	}

	// Check if a specific config file is provided
	if configFile := viper.GetString("config"); configFile != "" {
		viper.SetConfigFile(configFile)
	} else {
		viper.SetConfigName(".leaderboard") // Name of config file (without extension)
		viper.SetConfigType("yaml")
		viper.AddConfigPath(".")
		viper.AddConfigPath("$HOME")
	}

	// Set environment variable prefix
	viper.SetEnvPrefix("LEADERBOARD")
	viper.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	viper.AutomaticEnv() // Read in environment variables that match

	// Set defaults in Viper
	viper.SetDefault("source", schema.LocalSource)
	viper.SetDefault("repo-path", ".")
	viper.SetDefault("days", contract.DefaultAnalysisDays)
	viper.SetDefault("workers", contract.DefaultWorkers)
	viper.SetDefault("rater", schema.NoRater)
	viper.SetDefault("rater-model", contract.DefaultRaterModel)
	viper.SetDefault("rater-base-url", contract.DefaultRaterBaseURL)
	viper.SetDefault("rater-timeout", "15s")
	viper.SetDefault("run-timeout", "30m")
	viper.SetDefault("snapshot-backend", schema.FileSnapshot)
	viper.SetDefault("snapshot-path", contract.DefaultSnapshotPath)
	viper.SetDefault("s3-key", contract.DefaultSnapshotPath)
	viper.SetDefault("s3-region", "us-east-1")
	viper.SetDefault("manual-file", contract.DefaultManualFile)
	viper.SetDefault("cache-backend", schema.SQLiteBackend)
	viper.SetDefault("runs-backend", schema.SQLiteBackend)
	viper.SetDefault("output", schema.TextOut)
	viper.SetDefault("period-type", schema.Weekly)
	viper.SetDefault("limit", contract.DefaultResultLimit)
	viper.SetDefault("precision", contract.DefaultPrecision)
	viper.SetDefault("color", "yes")
}

// setupOptions selects what a command needs beyond the validated config.
type setupOptions struct {
	needsSource bool // resolve and check the commit source
	needsStores bool // open the rating cache and run store
}

// sharedSetup unmarshals config and runs validation.
func sharedSetup(ctx context.Context, args []string, opts setupOptions) error {
	profilePrefix = strings.TrimSpace(viper.GetString("profile"))
	if err := startProfiling(); err != nil {
		return fmt.Errorf("failed to start profiling: %w", err)
	}

	// 1. Read config file. This merges defaults, file, env, and flags.
	if err := loadConfigFile(); err != nil {
		return err
	}

	// 2. Unmarshal all resolved values from Viper into our raw input struct.
	if err := viper.Unmarshal(input); err != nil {
		return fmt.Errorf("unable to unmarshal config: %w", err)
	}
	input.NeedsSource = opts.needsSource

	// 3. Handle the positional repository argument (which Viper doesn't do).
	if opts.needsSource && len(args) == 1 {
		input.RepoPath = args[0]
	}

	// 4. Run all validation and complex parsing.
	client := contract.NewLocalGitClient()
	if err := contract.ProcessAndValidate(ctx, cfg, client, input); err != nil {
		return err
	}

	// 5. Initialize persistence layer with validated config
	if opts.needsStores {
		if err := iocache.InitCaching(cfg.CacheBackend, cfg.CacheDBConnect, cfg.RunsBackend, cfg.RunsDBConnect); err != nil {
			return fmt.Errorf("failed to initialize persistence: %w", err)
		}
	}
	return nil
}

// analyzeSetupWrapper prepares commands that read commits and write stores.
func analyzeSetupWrapper(_ *cobra.Command, args []string) error {
	return sharedSetup(rootCtx, args, setupOptions{needsSource: true, needsStores: true})
}

// readSetupWrapper prepares commands that only read or rewrite the snapshot.
func readSetupWrapper(_ *cobra.Command, args []string) error {
	return sharedSetup(rootCtx, args, setupOptions{})
}

// loadConfigFile reads the config file if one is present.
func loadConfigFile() error {
	if err := viper.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			// Config file was found but another error was produced
			return fmt.Errorf("error reading config file: %w", err)
		}
		// Config file not found, which is fine; we'll use defaults/env/flags.
	}
	return nil
}

// Execute runs the root command. SIGINT and SIGTERM cancel in-flight runs.
func Execute() error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	rootCtx = ctx
	return rootCmd.ExecuteContext(ctx)
}

// SetCacheManager sets the global cache manager.
func SetCacheManager(mgr contract.CacheManager) {
	cacheManager = mgr
}

// StopProfiling stops profiling if enabled.
func StopProfiling() error {
	return stopProfiling()
}
