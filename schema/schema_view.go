package schema

import "time"

// LeaderboardView is one period of one board, filtered and ready to print.
type LeaderboardView struct {
	PeriodType        PeriodType                `json:"period_type"`
	PeriodKey         string                    `json:"period_key"`
	LastUpdated       time.Time                 `json:"last_updated"`
	Repository        string                    `json:"repository,omitempty"`
	TotalContributors int                       `json:"total_contributors"`
	Records           []ContributorPeriodRecord `json:"records"`
}

// ContributorPeriod is a contributor's record within one period.
type ContributorPeriod struct {
	PeriodKey string                  `json:"period_key"`
	Record    ContributorPeriodRecord `json:"record"`
}

// ContributorView is one contributor across every period of a type, newest period first.
type ContributorView struct {
	Name       string              `json:"name"`
	PeriodType PeriodType          `json:"period_type"`
	Periods    []ContributorPeriod `json:"periods"`
}

// PeriodSummary describes one period bucket of a board.
type PeriodSummary struct {
	PeriodType   PeriodType `json:"period_type"`
	PeriodKey    string     `json:"period_key"`
	Contributors int        `json:"contributors"`
	Commits      int        `json:"commits"`
	TotalScore   int        `json:"total_score"`
	Leader       string     `json:"leader"`
}

// RunSummary describes a finished analysis run.
type RunSummary struct {
	FirstRun         bool          `json:"first_run"`
	Since            time.Time     `json:"since"`
	CommitsAnalyzed  int           `json:"commits_analyzed"`
	TotalCommits     int           `json:"total_commits"`
	LatestCommit     string        `json:"latest_commit,omitempty"`
	SnapshotLocation string        `json:"snapshot_location"`
	Duration         time.Duration `json:"duration"`
}

// ScoringRule is one row of the commit scoring table.
type ScoringRule struct {
	Component string `json:"component"`
	Condition string `json:"condition"`
	Points    int    `json:"points"`
}
