package contract

import (
	"context"
	"errors"
	"path/filepath"
	"testing"
	"time"

	"github.com/cdc542559455/lmcache-leaderboard/schema"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// validInput returns a raw input that passes validation without reading commits.
func validInput() *ConfigRawInput {
	return &ConfigRawInput{
		Source:          string(schema.LocalSource),
		RepoPath:        ".",
		Days:            180,
		Workers:         4,
		Rater:           string(schema.NoRater),
		SnapshotBackend: string(schema.FileSnapshot),
		SnapshotPath:    DefaultSnapshotPath,
		ManualFile:      DefaultManualFile,
		CacheBackend:    string(schema.SQLiteBackend),
		RunsBackend:     string(schema.SQLiteBackend),
		Output:          "text",
		PeriodType:      "weekly",
		Limit:           25,
		Precision:       2,
		Color:           "yes",
	}
}

func TestProcessAndValidate(t *testing.T) {
	tests := []struct {
		name        string
		mutate      func(*ConfigRawInput)
		expectError bool
		setupMock   func(*MockGitClient, string)
		check       func(*testing.T, *Config)
	}{
		{
			name:   "valid minimal config",
			mutate: func(*ConfigRawInput) {},
			check: func(t *testing.T, cfg *Config) {
				assert.Equal(t, 25, cfg.ResultLimit)
				assert.Equal(t, schema.Weekly, cfg.PeriodType)
				assert.True(t, cfg.UseColors)
			},
		},
		{
			name:        "invalid limit (zero)",
			mutate:      func(in *ConfigRawInput) { in.Limit = 0 },
			expectError: true,
		},
		{
			name:        "invalid limit (too large)",
			mutate:      func(in *ConfigRawInput) { in.Limit = MaxResultLimit + 1 },
			expectError: true,
		},
		{
			name:        "invalid precision",
			mutate:      func(in *ConfigRawInput) { in.Precision = 3 },
			expectError: true,
		},
		{
			name:        "invalid output format",
			mutate:      func(in *ConfigRawInput) { in.Output = "xml" },
			expectError: true,
		},
		{
			name:        "invalid period type",
			mutate:      func(in *ConfigRawInput) { in.PeriodType = "daily" },
			expectError: true,
		},
		{
			name:        "invalid color",
			mutate:      func(in *ConfigRawInput) { in.Color = "sometimes" },
			expectError: true,
		},
		{
			name:        "invalid days",
			mutate:      func(in *ConfigRawInput) { in.Days = 0 },
			expectError: true,
		},
		{
			name:        "incremental window larger than full window",
			mutate:      func(in *ConfigRawInput) { in.IncrementalDays = 365 },
			expectError: true,
		},
		{
			name:        "invalid workers",
			mutate:      func(in *ConfigRawInput) { in.Workers = -1 },
			expectError: true,
		},
		{
			name:        "invalid run timeout",
			mutate:      func(in *ConfigRawInput) { in.RunTimeout = "soon" },
			expectError: true,
		},
		{
			name:   "run timeout parsed",
			mutate: func(in *ConfigRawInput) { in.RunTimeout = "30m" },
			check: func(t *testing.T, cfg *Config) {
				assert.Equal(t, 30*time.Minute, cfg.RunTimeout)
			},
		},
		{
			name:        "openai rater without key",
			mutate:      func(in *ConfigRawInput) { in.Rater = "openai" },
			expectError: true,
		},
		{
			name: "openai rater defaults",
			mutate: func(in *ConfigRawInput) {
				in.Rater = "OpenAI"
				in.RaterAPIKey = "sk-test"
				in.RaterBaseURL = "http://localhost:8080/v1/"
			},
			check: func(t *testing.T, cfg *Config) {
				assert.Equal(t, schema.OpenAIRater, cfg.Rater)
				assert.Equal(t, DefaultRaterModel, cfg.RaterModel)
				assert.Equal(t, "http://localhost:8080/v1", cfg.RaterBaseURL)
			},
		},
		{
			name:        "unknown rater",
			mutate:      func(in *ConfigRawInput) { in.Rater = "oracle" },
			expectError: true,
		},
		{
			name:        "s3 snapshot without bucket",
			mutate:      func(in *ConfigRawInput) { in.SnapshotBackend = "s3" },
			expectError: true,
		},
		{
			name: "s3 snapshot with half credentials",
			mutate: func(in *ConfigRawInput) {
				in.SnapshotBackend = "s3"
				in.S3Bucket = "boards"
				in.S3AccessKey = "minio"
			},
			expectError: true,
		},
		{
			name: "s3 snapshot default key",
			mutate: func(in *ConfigRawInput) {
				in.SnapshotBackend = "s3"
				in.S3Bucket = "boards"
			},
			check: func(t *testing.T, cfg *Config) {
				assert.Equal(t, DefaultSnapshotPath, cfg.S3.Key)
			},
		},
		{
			name:        "file snapshot without path",
			mutate:      func(in *ConfigRawInput) { in.SnapshotPath = "" },
			expectError: true,
		},
		{
			name:        "invalid cache backend",
			mutate:      func(in *ConfigRawInput) { in.CacheBackend = "memcached" },
			expectError: true,
		},
		{
			name:        "mysql cache without connection string",
			mutate:      func(in *ConfigRawInput) { in.CacheBackend = "mysql" },
			expectError: true,
		},
		{
			name: "mysql cache with connection string",
			mutate: func(in *ConfigRawInput) {
				in.CacheBackend = "mysql"
				in.CacheDBConnect = "user:pass@tcp(localhost:3306)/leaderboard"
			},
		},
		{
			name: "redis cache with url",
			mutate: func(in *ConfigRawInput) {
				in.CacheBackend = "redis"
				in.CacheDBConnect = "redis://localhost:6379/0"
			},
		},
		{
			name: "redis cache with bad url",
			mutate: func(in *ConfigRawInput) {
				in.CacheBackend = "redis"
				in.CacheDBConnect = "localhost:6379"
			},
			expectError: true,
		},
		{
			name:        "redis is not a runs backend",
			mutate:      func(in *ConfigRawInput) { in.RunsBackend = "redis" },
			expectError: true,
		},
		{
			name: "sqlite stores sharing a file",
			mutate: func(in *ConfigRawInput) {
				in.CacheDBConnect = "/tmp/shared.db"
				in.RunsDBConnect = "/tmp/shared.db"
			},
			expectError: true,
		},
		{
			name:        "hidden names trimmed",
			mutate:      func(in *ConfigRawInput) { in.Hidden = []string{" bot ", "", "ci-user"} },
			check:       func(t *testing.T, cfg *Config) { assert.Equal(t, []string{"bot", "ci-user"}, cfg.Hidden) },
			expectError: false,
		},
		{
			name: "github source requires repo",
			mutate: func(in *ConfigRawInput) {
				in.NeedsSource = true
				in.Source = "github"
				in.GitHubOwner = "LMCache"
			},
			expectError: true,
		},
		{
			name: "github source without source access skips checks",
			mutate: func(in *ConfigRawInput) {
				in.Source = "github"
			},
		},
		{
			name:   "local source resolves repo root",
			mutate: func(in *ConfigRawInput) { in.NeedsSource = true },
			setupMock: func(m *MockGitClient, workDir string) {
				m.On("GetRepoRoot", context.Background(), workDir).Return("/mock/repo/root", nil)
			},
			check: func(t *testing.T, cfg *Config) {
				assert.Equal(t, "/mock/repo/root", cfg.RepoPath)
			},
		},
		{
			name:   "local source outside a repository",
			mutate: func(in *ConfigRawInput) { in.NeedsSource = true },
			setupMock: func(m *MockGitClient, workDir string) {
				m.On("GetRepoRoot", context.Background(), workDir).Return("", errors.New("not a git repository"))
			},
			expectError: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			mockClient := new(MockGitClient)
			workDir, err := filepath.Abs(".")
			require.NoError(t, err)
			if tt.setupMock != nil {
				tt.setupMock(mockClient, workDir)
			}

			input := validInput()
			tt.mutate(input)

			cfg := &Config{}
			err = ProcessAndValidate(context.Background(), cfg, mockClient, input)
			if tt.expectError {
				assert.Error(t, err)
			} else {
				require.NoError(t, err)
				if tt.check != nil {
					tt.check(t, cfg)
				}
			}
			mockClient.AssertExpectations(t)
		})
	}
}

func TestAnalysisWindow(t *testing.T) {
	cfg := &Config{AnalysisDays: 180, IncrementalDays: 2}
	assert.Equal(t, 180*24*time.Hour, cfg.AnalysisWindow(false))
	assert.Equal(t, 48*time.Hour, cfg.AnalysisWindow(true))

	cfg.ForceFull = true
	assert.Equal(t, 180*24*time.Hour, cfg.AnalysisWindow(true))

	cfg = &Config{AnalysisDays: 30}
	assert.Equal(t, 30*24*time.Hour, cfg.AnalysisWindow(true))
}

func TestConfigClone(t *testing.T) {
	cfg := &Config{Hidden: []string{"bot"}}
	clone := cfg.Clone()
	clone.Hidden[0] = "changed"
	assert.Equal(t, "bot", cfg.Hidden[0])
}
