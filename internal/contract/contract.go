// Package contract provides interfaces and shared utilities for the leaderboard's internal architecture.
package contract

import (
	"context"
	"time"

	"github.com/cdc542559455/lmcache-leaderboard/schema"
)

// GitClient defines the git operations the local commit source needs.
// This allows commit parsing to be tested without a real git executable.
type GitClient interface {
	// Run executes a git command and returns its stdout.
	Run(ctx context.Context, repoPath string, args ...string) ([]byte, error)

	// GetRepoRoot returns the absolute path to the root of the repository containing contextPath.
	GetRepoRoot(ctx context.Context, contextPath string) (string, error)

	// GetCommitLog returns non-merge commits since the given time in the commit log format.
	GetCommitLog(ctx context.Context, repoPath string, since time.Time) ([]byte, error)

	// GetCommitNumstat returns the numstat and patch of a single commit.
	GetCommitNumstat(ctx context.Context, repoPath string, hash string) ([]byte, error)
}

// CommitSource supplies commits and their stats.
type CommitSource interface {
	// Name identifies the source in snapshot metadata.
	Name() string

	// Repository identifies the analyzed repository.
	Repository() string

	// ListCommits returns the non-merge commits authored at or after since.
	ListCommits(ctx context.Context, since time.Time) ([]schema.Commit, error)

	// GetStats returns the change statistics of one commit.
	// Callers degrade to zeroed stats when it fails.
	GetStats(ctx context.Context, hash string) (schema.CommitStats, error)
}

// SignificanceRater is an optional oracle that rates commit significance.
// Rate returns the raw reply to the prompt; callers parse and clamp it.
type SignificanceRater interface {
	Model() string
	Rate(ctx context.Context, prompt string) (string, error)
}

// SnapshotStore loads and saves the leaderboard snapshot.
type SnapshotStore interface {
	// Load returns the stored snapshot, an error wrapping ErrSnapshotNotFound when
	// nothing was saved yet, or one wrapping ErrSnapshotCorrupt when it does not parse.
	Load(ctx context.Context) (*schema.Snapshot, error)

	// Save replaces the stored snapshot atomically.
	Save(ctx context.Context, snap *schema.Snapshot) error

	// Location describes where the snapshot lives.
	Location() string
}

// ManualStore loads and saves the canonical manual contributions document.
type ManualStore interface {
	// Load returns the document or an error wrapping ErrManualNotFound.
	Load(ctx context.Context) (*schema.ManualContributions, error)

	// Save replaces the document atomically.
	Save(ctx context.Context, doc *schema.ManualContributions) error

	// Location describes where the document lives.
	Location() string
}

// CacheManager defines the interface for managing cache stores.
// This allows the cache layer to be mocked for testing.
type CacheManager interface {
	GetRatingStore() CacheStore
	GetRunStore() RunStore
}

// CacheStore defines the interface for cache data storage.
// This allows mocking the store for testing.
type CacheStore interface {
	Get(key string) ([]byte, int, int64, error)
	Set(key string, value []byte, version int, timestamp int64) error
	GetStatus() (schema.CacheStatus, error)
	Close() error
}

// RunStore tracks analysis runs and the standings they produced.
type RunStore interface {
	// BeginRun creates a new run and returns its unique ID
	BeginRun(startTime time.Time, source string, configParams map[string]any) (int64, error)

	// EndRun updates the run with its outcome
	EndRun(runID int64, outcome schema.RunOutcome) error

	// RecordStandings stores the contributor standings of a run
	RecordStandings(runID int64, standings []schema.StandingRecord) error

	// GetStatus returns status information about the run store
	GetStatus() (schema.RunStatus, error)

	// GetAllRuns returns every recorded run, oldest first
	GetAllRuns() ([]schema.RunRecord, error)

	// GetAllStandings returns every recorded standing ordered by run and rank
	GetAllStandings() ([]schema.StandingRecord, error)

	// Close closes the underlying connection
	Close() error
}
