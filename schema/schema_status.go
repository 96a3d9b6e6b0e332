package schema

import "time"

// CacheStatus represents the status of the rating cache.
type CacheStatus struct {
	Backend         string    `json:"backend"`
	Connected       bool      `json:"connected"`
	TotalEntries    int       `json:"total_entries"`
	LastEntryTime   time.Time `json:"last_entry_time"`
	OldestEntryTime time.Time `json:"oldest_entry_time"`
	TableSizeBytes  int64     `json:"table_size_bytes"`
}

// RunStatus represents the status of the run history store.
type RunStatus struct {
	Backend           string           `json:"backend"`
	Connected         bool             `json:"connected"`
	TotalRuns         int              `json:"total_runs"`
	LastRunID         int64            `json:"last_run_id"`
	LastRunTime       time.Time        `json:"last_run_time"`
	OldestRunTime     time.Time        `json:"oldest_run_time"`
	LastRunSuccessful bool             `json:"last_run_successful"`
	TableSizes        map[string]int64 `json:"table_sizes"`
}

// RunOutcome is written when a run ends.
type RunOutcome struct {
	EndTime         time.Time
	Success         bool
	CommitsAnalyzed int
	LatestCommit    string
	ErrorMessage    string
}

// RunRecord represents a row from the leaderboard_runs table.
type RunRecord struct {
	RunID           int64
	StartTime       time.Time
	EndTime         *time.Time
	RunDurationMs   *int32
	Source          string
	Success         bool
	CommitsAnalyzed int32
	LatestCommit    *string
	ErrorMessage    *string
	ConfigParams    *string
}

// StandingRecord represents a row from the leaderboard_standings table:
// one contributor's position in one period at the end of a run.
type StandingRecord struct {
	RunID       int64
	PeriodType  string
	PeriodKey   string
	Contributor string
	Rank        int32
	Tier        string
	CommitScore int32
	TotalScore  int32
	RecordedAt  time.Time
}
