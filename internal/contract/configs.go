package contract

import (
	"context"
	"fmt"
	"path/filepath"
	"runtime"
	"slices"
	"strings"
	"time"

	"github.com/cdc542559455/lmcache-leaderboard/schema"
)

// Default values for configuration.
const (
	DefaultAnalysisDays = 180
	DefaultResultLimit  = 25
	MaxResultLimit      = 1000
	DefaultPrecision    = 2
	DefaultRaterModel   = "gpt-4o-mini"
	DefaultRaterBaseURL = "https://api.openai.com/v1"
	DefaultSnapshotPath = "leaderboard-data.json"
	DefaultManualFile   = "manual-contributions.json"
)

// DefaultWorkers is the default number of concurrent workers to use.
var DefaultWorkers = min(runtime.GOMAXPROCS(0), 8)

// DateTimeFormat is the default date time representation.
var DateTimeFormat = time.RFC3339

// S3Config locates the snapshot object in an S3-compatible store.
type S3Config struct {
	Bucket    string
	Key       string
	Region    string
	Endpoint  string // Custom endpoint for MinIO and friends
	AccessKey string // Please use env var as this is plaintext
	SecretKey string // Please use env var as this is plaintext
}

// Config holds the runtime configuration.
// This struct is the "final, validated" config.
type Config struct {
	Source        schema.SourceKind
	RepoPath      string
	GitHubOwner   string
	GitHubRepo    string
	GitHubToken   string // Please use env var as this is plaintext
	GitHubBaseURL string // Enterprise API endpoint (empty = github.com)

	AnalysisDays    int
	IncrementalDays int
	Workers         int
	RunTimeout      time.Duration
	ForceFull       bool

	Rater        schema.RaterKind
	RaterAPIKey  string // Please use env var as this is plaintext
	RaterModel   string
	RaterBaseURL string
	RaterTimeout time.Duration

	SnapshotBackend schema.SnapshotBackend
	SnapshotPath    string
	S3              S3Config

	ManualFile string
	Hidden     []string

	CacheBackend   schema.DatabaseBackend
	CacheDBConnect string // Please use env var as this is plaintext

	RunsBackend   schema.DatabaseBackend
	RunsDBConnect string // Please use env var as this is plaintext

	Output      schema.OutputMode
	OutputFile  string
	PeriodType  schema.PeriodType
	Period      string // Empty selects the latest period
	ResultLimit int
	Width       int // Terminal width override (0 = auto-detect)
	Precision   int
	UseColors   bool

	// Command arguments, set by the CLI after validation
	MergeInputs []string // existing and new snapshot files
	Contributor string
}

// ConfigRawInput holds the raw inputs from all sources (flags, env, config file).
// Viper unmarshals into this struct.
type ConfigRawInput struct {
	// Set by commands that read commits, so no tag
	NeedsSource bool

	Source        string `mapstructure:"source"`
	RepoPath      string `mapstructure:"repo-path"`
	GitHubOwner   string `mapstructure:"github-owner"`
	GitHubRepo    string `mapstructure:"github-repo"`
	GitHubToken   string `mapstructure:"github-token"`
	GitHubBaseURL string `mapstructure:"github-base-url"`

	Days            int    `mapstructure:"days"`
	IncrementalDays int    `mapstructure:"incremental-days"`
	Workers         int    `mapstructure:"workers"`
	RunTimeout      string `mapstructure:"run-timeout"`
	ForceFull       bool   `mapstructure:"force-full"`

	Rater        string `mapstructure:"rater"`
	RaterAPIKey  string `mapstructure:"rater-api-key"`
	RaterModel   string `mapstructure:"rater-model"`
	RaterBaseURL string `mapstructure:"rater-base-url"`
	RaterTimeout string `mapstructure:"rater-timeout"`

	SnapshotBackend string `mapstructure:"snapshot-backend"`
	SnapshotPath    string `mapstructure:"snapshot-path"`
	S3Bucket        string `mapstructure:"s3-bucket"`
	S3Key           string `mapstructure:"s3-key"`
	S3Region        string `mapstructure:"s3-region"`
	S3Endpoint      string `mapstructure:"s3-endpoint"`
	S3AccessKey     string `mapstructure:"s3-access-key"`
	S3SecretKey     string `mapstructure:"s3-secret-key"`

	ManualFile string   `mapstructure:"manual-file"`
	Hidden     []string `mapstructure:"hidden"`

	CacheBackend   string `mapstructure:"cache-backend"`
	CacheDBConnect string `mapstructure:"cache-db-connect"`
	RunsBackend    string `mapstructure:"runs-backend"`
	RunsDBConnect  string `mapstructure:"runs-db-connect"`

	Output     string `mapstructure:"output"`
	OutputFile string `mapstructure:"output-file"`
	PeriodType string `mapstructure:"period-type"`
	Period     string `mapstructure:"period"`
	Limit      int    `mapstructure:"limit"`
	Width      int    `mapstructure:"width"`
	Precision  int    `mapstructure:"precision"`
	Color      string `mapstructure:"color"`
}

// Clone returns a deep copy of the Config struct.
func (c *Config) Clone() *Config {
	clone := *c
	clone.Hidden = slices.Clone(c.Hidden)
	clone.MergeInputs = slices.Clone(c.MergeInputs)
	return &clone
}

// AnalysisWindow returns the lookback window of a run.
// Incremental runs use the shorter window once a prior snapshot exists.
func (c *Config) AnalysisWindow(hasPrior bool) time.Duration {
	days := c.AnalysisDays
	if hasPrior && c.IncrementalDays > 0 && !c.ForceFull {
		days = c.IncrementalDays
	}
	return time.Duration(days) * 24 * time.Hour
}

// ProcessAndValidate performs all parsing and validation on the raw inputs
// and updates the final Config struct.
func ProcessAndValidate(ctx context.Context, cfg *Config, client GitClient, input *ConfigRawInput) error {
	if err := validateSimpleInputs(cfg, input); err != nil {
		return err
	}
	if err := processAnalysisInputs(cfg, input); err != nil {
		return err
	}
	if err := processRaterInputs(cfg, input); err != nil {
		return err
	}
	if err := processSnapshotInputs(cfg, input); err != nil {
		return err
	}
	if err := validateBackendConfigs(cfg, input); err != nil {
		return err
	}
	if err := processSourceInputs(ctx, cfg, client, input); err != nil {
		return err
	}
	return nil
}

// ValidateDatabaseConnectionString validates the format of database connection strings
// for MySQL, PostgreSQL and Redis backends.
func ValidateDatabaseConnectionString(backend schema.DatabaseBackend, connStr string) error {
	switch backend {
	case schema.SQLiteBackend, schema.NoneBackend:
		return nil
	case schema.MySQLBackend:
		if connStr == "" {
			return fmt.Errorf("a connection string is required when using %s backend", backend)
		}
		if !strings.Contains(connStr, "@tcp(") {
			return fmt.Errorf("MySQL connection string must contain '@tcp(' for host:port specification")
		}
		if !strings.Contains(connStr, "/") {
			return fmt.Errorf("MySQL connection string must contain '/' followed by database name")
		}
	case schema.PostgreSQLBackend:
		if connStr == "" {
			return fmt.Errorf("a connection string is required when using %s backend", backend)
		}
		if !strings.Contains(connStr, "host=") {
			return fmt.Errorf("PostgreSQL connection string must contain 'host=' parameter")
		}
		if !strings.Contains(connStr, "dbname=") {
			return fmt.Errorf("PostgreSQL connection string must contain 'dbname=' parameter")
		}
	case schema.RedisBackend:
		if connStr == "" {
			return fmt.Errorf("a connection string is required when using %s backend", backend)
		}
		if !strings.HasPrefix(connStr, "redis://") && !strings.HasPrefix(connStr, "rediss://") {
			return fmt.Errorf("Redis connection string must start with redis:// or rediss://")
		}
	}
	return nil
}

// validateBackendConfigs validates rating cache and run history backend configurations.
func validateBackendConfigs(cfg *Config, input *ConfigRawInput) error {
	// --- Cache Backend Validation ---
	cfg.CacheBackend = schema.DatabaseBackend(strings.ToLower(input.CacheBackend))
	if _, ok := schema.ValidCacheBackends[cfg.CacheBackend]; !ok {
		return fmt.Errorf("invalid cache backend '%s'. must be sqlite, mysql, postgresql, redis, none", input.CacheBackend)
	}
	cfg.CacheDBConnect = input.CacheDBConnect
	if err := ValidateDatabaseConnectionString(cfg.CacheBackend, cfg.CacheDBConnect); err != nil {
		return fmt.Errorf("cache-db-connect: %w", err)
	}

	// --- Runs Backend Validation ---
	cfg.RunsBackend = schema.DatabaseBackend(strings.ToLower(input.RunsBackend))
	if _, ok := schema.ValidRunBackends[cfg.RunsBackend]; !ok {
		return fmt.Errorf("invalid runs backend '%s'. must be sqlite, mysql, postgresql, none", input.RunsBackend)
	}
	cfg.RunsDBConnect = input.RunsDBConnect
	if err := ValidateDatabaseConnectionString(cfg.RunsBackend, cfg.RunsDBConnect); err != nil {
		return fmt.Errorf("runs-db-connect: %w", err)
	}

	// Both stores create their own tables, so two SQLite stores must not share a file
	if cfg.CacheBackend == schema.SQLiteBackend && cfg.RunsBackend == schema.SQLiteBackend {
		cachePath := cfg.CacheDBConnect
		if cachePath == "" {
			cachePath = GetCacheDBFilePath()
		}
		runsPath := cfg.RunsDBConnect
		if runsPath == "" {
			runsPath = GetRunsDBFilePath()
		}
		if filepath.Clean(cachePath) == filepath.Clean(runsPath) {
			return fmt.Errorf("cache and runs storage must use different SQLite database files. Both resolve to %q", cachePath)
		}
	}

	return nil
}

// validateSimpleInputs processes and validates the presentation fields.
func validateSimpleInputs(cfg *Config, input *ConfigRawInput) error {
	cfg.OutputFile = input.OutputFile
	cfg.Width = input.Width
	cfg.Period = strings.TrimSpace(input.Period)

	colors, err := ParseBoolString(input.Color)
	if err != nil {
		return fmt.Errorf("invalid --color value: %w", err)
	}
	cfg.UseColors = colors

	if input.Limit <= 0 || input.Limit > MaxResultLimit {
		return fmt.Errorf("limit must be greater than 0 and cannot exceed %d (received %d)", MaxResultLimit, input.Limit)
	}
	cfg.ResultLimit = input.Limit

	if input.Precision < 1 || input.Precision > 2 {
		return fmt.Errorf("precision must be 1 or 2 (received %d)", input.Precision)
	}
	cfg.Precision = input.Precision

	cfg.Output = schema.OutputMode(strings.ToLower(input.Output))
	if _, ok := schema.ValidOutputModes[cfg.Output]; !ok {
		return fmt.Errorf("invalid output format '%s'. must be text, csv, json, parquet", input.Output)
	}

	cfg.PeriodType = schema.PeriodType(strings.ToLower(input.PeriodType))
	if _, ok := schema.ValidPeriodTypes[cfg.PeriodType]; !ok {
		return fmt.Errorf("invalid period type '%s'. must be weekly, monthly, quarterly", input.PeriodType)
	}

	cfg.Hidden = cfg.Hidden[:0]
	for _, name := range input.Hidden {
		if trimmed := strings.TrimSpace(name); trimmed != "" {
			cfg.Hidden = append(cfg.Hidden, trimmed)
		}
	}
	cfg.ManualFile = input.ManualFile
	return nil
}

// processAnalysisInputs validates the analysis window and execution parameters.
func processAnalysisInputs(cfg *Config, input *ConfigRawInput) error {
	if input.Days <= 0 {
		return fmt.Errorf("days must be greater than 0 (received %d)", input.Days)
	}
	cfg.AnalysisDays = input.Days

	if input.IncrementalDays < 0 || input.IncrementalDays > input.Days {
		return fmt.Errorf("incremental-days must be between 0 and days (received %d)", input.IncrementalDays)
	}
	cfg.IncrementalDays = input.IncrementalDays

	if input.Workers <= 0 {
		return fmt.Errorf("workers must be greater than 0 (received %d)", input.Workers)
	}
	cfg.Workers = input.Workers
	cfg.ForceFull = input.ForceFull

	timeout, err := parseOptionalDuration(input.RunTimeout)
	if err != nil {
		return fmt.Errorf("invalid run-timeout: %w", err)
	}
	cfg.RunTimeout = timeout
	return nil
}

// processRaterInputs validates the significance rater settings.
func processRaterInputs(cfg *Config, input *ConfigRawInput) error {
	cfg.Rater = schema.RaterKind(strings.ToLower(input.Rater))
	if _, ok := schema.ValidRaters[cfg.Rater]; !ok {
		return fmt.Errorf("invalid rater '%s'. must be none, openai", input.Rater)
	}
	cfg.RaterAPIKey = input.RaterAPIKey
	cfg.RaterModel = input.RaterModel
	cfg.RaterBaseURL = strings.TrimRight(input.RaterBaseURL, "/")

	timeout, err := parseOptionalDuration(input.RaterTimeout)
	if err != nil {
		return fmt.Errorf("invalid rater-timeout: %w", err)
	}
	cfg.RaterTimeout = timeout

	if cfg.Rater == schema.OpenAIRater {
		if cfg.RaterAPIKey == "" {
			return fmt.Errorf("rater-api-key is required when using the %s rater", cfg.Rater)
		}
		if cfg.RaterModel == "" {
			cfg.RaterModel = DefaultRaterModel
		}
		if cfg.RaterBaseURL == "" {
			cfg.RaterBaseURL = DefaultRaterBaseURL
		}
	}
	return nil
}

// processSnapshotInputs validates where the snapshot is persisted.
func processSnapshotInputs(cfg *Config, input *ConfigRawInput) error {
	cfg.SnapshotBackend = schema.SnapshotBackend(strings.ToLower(input.SnapshotBackend))
	if _, ok := schema.ValidSnapshotBackends[cfg.SnapshotBackend]; !ok {
		return fmt.Errorf("invalid snapshot backend '%s'. must be file, s3", input.SnapshotBackend)
	}
	cfg.SnapshotPath = input.SnapshotPath
	cfg.S3 = S3Config{
		Bucket:    input.S3Bucket,
		Key:       input.S3Key,
		Region:    input.S3Region,
		Endpoint:  input.S3Endpoint,
		AccessKey: input.S3AccessKey,
		SecretKey: input.S3SecretKey,
	}

	switch cfg.SnapshotBackend {
	case schema.FileSnapshot:
		if cfg.SnapshotPath == "" {
			return fmt.Errorf("snapshot-path is required when using the file snapshot backend")
		}
	case schema.S3Snapshot:
		if cfg.S3.Bucket == "" {
			return fmt.Errorf("s3-bucket is required when using the s3 snapshot backend")
		}
		if cfg.S3.Key == "" {
			cfg.S3.Key = DefaultSnapshotPath
		}
		if (cfg.S3.AccessKey == "") != (cfg.S3.SecretKey == "") {
			return fmt.Errorf("s3-access-key and s3-secret-key must be set together")
		}
	}
	return nil
}

// processSourceInputs validates the commit source and resolves the local repository root.
func processSourceInputs(ctx context.Context, cfg *Config, client GitClient, input *ConfigRawInput) error {
	cfg.Source = schema.SourceKind(strings.ToLower(input.Source))
	if _, ok := schema.ValidSources[cfg.Source]; !ok {
		return fmt.Errorf("invalid source '%s'. must be local, github", input.Source)
	}
	cfg.GitHubOwner = strings.TrimSpace(input.GitHubOwner)
	cfg.GitHubRepo = strings.TrimSpace(input.GitHubRepo)
	cfg.GitHubToken = input.GitHubToken
	cfg.GitHubBaseURL = input.GitHubBaseURL
	cfg.RepoPath = input.RepoPath

	if !input.NeedsSource {
		return nil
	}

	switch cfg.Source {
	case schema.GitHubSource:
		if cfg.GitHubOwner == "" || cfg.GitHubRepo == "" {
			return fmt.Errorf("github-owner and github-repo are required when using the github source")
		}
	case schema.LocalSource:
		absPath, err := filepath.Abs(input.RepoPath)
		if err != nil {
			return err
		}
		root, err := client.GetRepoRoot(ctx, absPath)
		if err != nil {
			return err
		}
		cfg.RepoPath = root
	}
	return nil
}

// parseOptionalDuration parses a Go duration string; empty means no limit.
func parseOptionalDuration(s string) (time.Duration, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0, nil
	}
	d, err := time.ParseDuration(s)
	if err != nil {
		return 0, err
	}
	if d < 0 {
		return 0, fmt.Errorf("duration cannot be negative: %s", s)
	}
	return d, nil
}
