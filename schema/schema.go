// Package schema has the models and constants shared by every part of the leaderboard.
package schema

import "time"

// Commit is a single non-merge commit as supplied by a commit source.
type Commit struct {
	Hash        string    // Full commit hash
	AuthorName  string    // Author display name, used as the contributor key
	AuthorEmail string    // Author email
	Timestamp   time.Time // Author time
	Message     string    // Full commit message, possibly multi-line
}

// CommitStats holds the per-commit change statistics.
type CommitStats struct {
	FilesChanged int      `json:"files"`
	FilesList    []string `json:"-"`
	Insertions   int      `json:"insertions"`
	Deletions    int      `json:"deletions"`
	DiffExcerpt  string   `json:"-"`
}

// TotalLines returns insertions plus deletions.
func (s CommitStats) TotalLines() int {
	return s.Insertions + s.Deletions
}

// Scores are the four sub-scores of a commit and their sum.
type Scores struct {
	LOC     int `json:"loc"`
	Files   int `json:"files"`
	Keyword int `json:"keyword"`
	AI      int `json:"ai"`
	Total   int `json:"total"`
}

// ScoredCommit is a commit with its stats and scores, as produced by the scorer.
type ScoredCommit struct {
	Commit
	Stats       CommitStats
	Scores      Scores
	Significant bool
}

// CommitEntry is the persisted form of a scored commit embedded in contributor records.
// It carries enough to rebuild every bucket without asking the commit source again.
type CommitEntry struct {
	Hash           string           `json:"hash"`
	Author         string           `json:"author"`
	Email          string           `json:"email"`
	Date           time.Time        `json:"date"`
	Message        string           `json:"message"`
	Stats          CommitEntryStats `json:"stats"`
	Scores         Scores           `json:"scores"`
	Classification Classification   `json:"classification"`
	Significant    bool             `json:"significant"`
}

// CommitEntryStats is the persisted subset of CommitStats.
type CommitEntryStats struct {
	Files      int `json:"files"`
	Lines      int `json:"lines"`
	Insertions int `json:"insertions"`
	Deletions  int `json:"deletions"`
}

// Entry converts a scored commit into its persisted form. Dates are stored in UTC.
func (c ScoredCommit) Entry() CommitEntry {
	classification := SimpleClass
	if c.Significant {
		classification = SignificantClass
	}
	return CommitEntry{
		Hash:    c.Hash,
		Author:  c.AuthorName,
		Email:   c.AuthorEmail,
		Date:    c.Timestamp.UTC(),
		Message: c.Message,
		Stats: CommitEntryStats{
			Files:      c.Stats.FilesChanged,
			Lines:      c.Stats.TotalLines(),
			Insertions: c.Stats.Insertions,
			Deletions:  c.Stats.Deletions,
		},
		Scores:         c.Scores,
		Classification: classification,
		Significant:    c.Significant,
	}
}

// ContributorPeriodRecord is one contributor's rollup inside one period bucket.
// The record is identified by (Name, period type, period key).
type ContributorPeriodRecord struct {
	Name                        string               `json:"name"`
	Email                       string               `json:"email"`
	Rank                        int                  `json:"rank"`
	TotalCommits                int                  `json:"total_commits"`
	SignificantCommits          int                  `json:"significant_commits"`
	SimpleCommits               int                  `json:"simple_commits"`
	SignificanceRatio           float64              `json:"significance_ratio"`
	CommitScore                 int                  `json:"commit_score"`
	AvgScore                    float64              `json:"avg_score"`
	AdditionalContributionScore int                  `json:"additional_contribution_score"`
	AdditionalContributions     []ManualContribution `json:"additional_contributions"`
	AdditionalContributionNotes string               `json:"additional_contribution_notes"`
	TotalScore                  int                  `json:"total_score"`
	Tier                        Tier                 `json:"tier"`
	TierName                    string               `json:"tier_name"`
	Commits                     []CommitEntry        `json:"commits"`
}

// HasManualFields reports whether the record carries any manual contribution data.
// Zero or negative adjustments with notes still count.
func (r ContributorPeriodRecord) HasManualFields() bool {
	return r.AdditionalContributionScore != 0 ||
		r.AdditionalContributionNotes != "" ||
		len(r.AdditionalContributions) > 0
}

// PeriodBoard maps a period key to its ranked contributor records.
type PeriodBoard map[string][]ContributorPeriodRecord

// Leaderboards groups the boards of every period type.
type Leaderboards struct {
	Weekly    PeriodBoard `json:"weekly"`
	Monthly   PeriodBoard `json:"monthly"`
	Quarterly PeriodBoard `json:"quarterly"`
}

// NewLeaderboards returns leaderboards with all boards allocated.
func NewLeaderboards() Leaderboards {
	return Leaderboards{
		Weekly:    PeriodBoard{},
		Monthly:   PeriodBoard{},
		Quarterly: PeriodBoard{},
	}
}

// Board returns the board for the given period type, or nil for an unknown type.
func (l Leaderboards) Board(pt PeriodType) PeriodBoard {
	switch pt {
	case Weekly:
		return l.Weekly
	case Monthly:
		return l.Monthly
	case Quarterly:
		return l.Quarterly
	default:
		return nil
	}
}

// SetBoard replaces the board for the given period type.
func (l *Leaderboards) SetBoard(pt PeriodType, board PeriodBoard) {
	switch pt {
	case Weekly:
		l.Weekly = board
	case Monthly:
		l.Monthly = board
	case Quarterly:
		l.Quarterly = board
	}
}

// Snapshot is the persisted root document.
type Snapshot struct {
	LastUpdated          time.Time    `json:"last_updated"`
	TotalCommitsAnalyzed int          `json:"total_commits_analyzed"`
	AnalysisPeriodDays   int          `json:"analysis_period_days"`
	Leaderboards         Leaderboards `json:"leaderboards"`
	Metadata             Metadata     `json:"metadata"`
}

// Metadata describes how a snapshot was produced.
type Metadata struct {
	ScoringSystem ScoringSystem `json:"scoring_system"`
	Source        string        `json:"source,omitempty"`
	Repository    string        `json:"repository,omitempty"`
	MergedFrom    *MergedFrom   `json:"mergedFrom,omitempty"`
}

// MergedFrom records the commit counts of the two snapshots combined by a merge.
type MergedFrom struct {
	ExistingCommits int `json:"existing_commits"`
	NewCommits      int `json:"new_commits"`
}

// ScoringSystem documents the scoring rules inside the snapshot.
type ScoringSystem struct {
	LOC                  string `json:"loc"`
	Files                string `json:"files"`
	Keyword              string `json:"keyword"`
	AI                   string `json:"ai"`
	SignificantThreshold int    `json:"significant_threshold"`
}
