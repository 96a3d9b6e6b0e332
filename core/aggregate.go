package core

import (
	"math"
	"sort"
	"strings"
	"time"

	"github.com/cdc542559455/lmcache-leaderboard/schema"
)

// SnapshotInfo describes the run that produced a snapshot.
type SnapshotInfo struct {
	AnalysisDays int
	Source       string
	Repository   string
	Now          time.Time
}

// BuildSnapshot aggregates freshly scored commits into a new snapshot.
func BuildSnapshot(scored []schema.ScoredCommit, info SnapshotInfo) *schema.Snapshot {
	entries := make([]schema.CommitEntry, len(scored))
	for i, c := range scored {
		entries[i] = c.Entry()
	}
	return &schema.Snapshot{
		LastUpdated:          info.Now.UTC(),
		TotalCommitsAnalyzed: countUniqueHashes(entries),
		AnalysisPeriodDays:   info.AnalysisDays,
		Leaderboards:         Aggregate(entries),
		Metadata: schema.Metadata{
			ScoringSystem: schema.DefaultScoringSystem,
			Source:        info.Source,
			Repository:    info.Repository,
		},
	}
}

// Aggregate buckets commits by period and contributor for every period type
// and ranks each period. Entries with a repeated hash are counted once.
func Aggregate(entries []schema.CommitEntry) schema.Leaderboards {
	ordered := dedupeEntries(entries)
	boards := schema.NewLeaderboards()
	for _, pt := range schema.AllPeriodTypes {
		boards.SetBoard(pt, aggregatePeriod(pt, ordered))
	}
	return boards
}

// aggregatePeriod builds the board of one period type from date-ordered entries.
func aggregatePeriod(pt schema.PeriodType, entries []schema.CommitEntry) schema.PeriodBoard {
	type bucket struct {
		index   map[string]int
		records []schema.ContributorPeriodRecord
	}
	buckets := make(map[string]*bucket)

	for _, e := range entries {
		key := PeriodKey(pt, e.Date)
		b, ok := buckets[key]
		if !ok {
			b = &bucket{index: make(map[string]int)}
			buckets[key] = b
		}
		i, ok := b.index[e.Author]
		if !ok {
			i = len(b.records)
			b.index[e.Author] = i
			b.records = append(b.records, schema.ContributorPeriodRecord{
				Name:                    e.Author,
				Email:                   e.Email,
				AdditionalContributions: []schema.ManualContribution{},
			})
		}
		addCommit(&b.records[i], e)
	}

	board := make(schema.PeriodBoard, len(buckets))
	for key, b := range buckets {
		for i := range b.records {
			sortCommitsNewestFirst(b.records[i].Commits)
			finalizeRecord(&b.records[i])
		}
		RankRecords(b.records)
		board[key] = b.records
	}
	return board
}

// addCommit accumulates one commit into a record's counters.
func addCommit(r *schema.ContributorPeriodRecord, e schema.CommitEntry) {
	r.Commits = append(r.Commits, e)
	r.TotalCommits++
	r.CommitScore += e.Scores.Total
	if e.Significant {
		r.SignificantCommits++
	} else {
		r.SimpleCommits++
	}
}

// finalizeRecord recomputes every derived field of a record from its counters.
func finalizeRecord(r *schema.ContributorPeriodRecord) {
	r.AvgScore = 0
	r.SignificanceRatio = 0
	if r.TotalCommits > 0 {
		r.AvgScore = round2(float64(r.CommitScore) / float64(r.TotalCommits))
		r.SignificanceRatio = float64(r.SignificantCommits) / float64(r.TotalCommits)
	}
	r.TotalScore = r.CommitScore + r.AdditionalContributionScore
	if r.Commits == nil {
		r.Commits = []schema.CommitEntry{}
	}
	if r.AdditionalContributions == nil {
		r.AdditionalContributions = []schema.ManualContribution{}
	}
}

// dedupeEntries keeps the last entry per hash and orders the result by date, then hash.
func dedupeEntries(entries []schema.CommitEntry) []schema.CommitEntry {
	byHash := make(map[string]schema.CommitEntry, len(entries))
	for _, e := range entries {
		byHash[e.Hash] = e
	}
	out := make([]schema.CommitEntry, 0, len(byHash))
	for _, e := range byHash {
		out = append(out, e)
	}
	sort.Slice(out, func(i, j int) bool {
		if !out[i].Date.Equal(out[j].Date) {
			return out[i].Date.Before(out[j].Date)
		}
		return out[i].Hash < out[j].Hash
	})
	return out
}

func sortCommitsNewestFirst(commits []schema.CommitEntry) {
	sort.SliceStable(commits, func(i, j int) bool {
		if !commits[i].Date.Equal(commits[j].Date) {
			return commits[i].Date.After(commits[j].Date)
		}
		return commits[i].Hash < commits[j].Hash
	})
}

func countUniqueHashes(entries []schema.CommitEntry) int {
	seen := make(map[string]struct{}, len(entries))
	for _, e := range entries {
		seen[e.Hash] = struct{}{}
	}
	return len(seen)
}

// collectEntries gathers every commit embedded in a snapshot, across all boards.
func collectEntries(snap *schema.Snapshot) []schema.CommitEntry {
	if snap == nil {
		return nil
	}
	var out []schema.CommitEntry
	for _, pt := range schema.AllPeriodTypes {
		for _, records := range snap.Leaderboards.Board(pt) {
			for _, r := range records {
				out = append(out, r.Commits...)
			}
		}
	}
	return out
}

// joinNotes joins non-empty notes with "; ".
func joinNotes(notes []string) string {
	kept := notes[:0:0]
	for _, n := range notes {
		if n = strings.TrimSpace(n); n != "" {
			kept = append(kept, n)
		}
	}
	return strings.Join(kept, "; ")
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}
