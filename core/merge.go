package core

import (
	"slices"
	"time"

	"github.com/cdc542559455/lmcache-leaderboard/schema"
)

// manualKey identifies a contributor record across snapshots.
type manualKey struct {
	name       string
	periodType schema.PeriodType
	periodKey  string
}

// manualFields are the parts of a record that come from manual contributions.
type manualFields struct {
	score         int
	contributions []schema.ManualContribution
	notes         string
}

// Merge combines a persisted snapshot with a fresh one. Commits are unioned by hash
// with the fresh snapshot winning, every bucket is rebuilt from the union and manual
// fields are carried over to the records that still exist. Neither input is modified.
func Merge(existing, fresh *schema.Snapshot) *schema.Snapshot {
	if existing == nil {
		return cloneSnapshot(fresh)
	}
	if fresh == nil {
		return cloneSnapshot(existing)
	}

	union := append(collectEntries(existing), collectEntries(fresh)...)

	preserved := extractManualFields(existing)
	for k, v := range extractManualFields(fresh) {
		preserved[k] = v
	}

	boards := Aggregate(union)
	for _, pt := range schema.AllPeriodTypes {
		board := boards.Board(pt)
		for key, records := range board {
			for i := range records {
				if m, ok := preserved[manualKey{records[i].Name, pt, key}]; ok {
					records[i].AdditionalContributionScore = m.score
					records[i].AdditionalContributions = slices.Clone(m.contributions)
					records[i].AdditionalContributionNotes = m.notes
					finalizeRecord(&records[i])
				}
			}
			RankRecords(records)
		}
	}

	merged := &schema.Snapshot{
		LastUpdated:          laterTime(existing, fresh),
		TotalCommitsAnalyzed: countUniqueHashes(union),
		AnalysisPeriodDays:   max(existing.AnalysisPeriodDays, fresh.AnalysisPeriodDays),
		Leaderboards:         boards,
		Metadata:             fresh.Metadata,
	}
	if merged.Metadata.Source == "" {
		merged.Metadata.Source = existing.Metadata.Source
	}
	if merged.Metadata.Repository == "" {
		merged.Metadata.Repository = existing.Metadata.Repository
	}
	merged.Metadata.MergedFrom = &schema.MergedFrom{
		ExistingCommits: existing.TotalCommitsAnalyzed,
		NewCommits:      fresh.TotalCommitsAnalyzed,
	}
	return merged
}

// extractManualFields collects the manual data of every record that carries any.
func extractManualFields(snap *schema.Snapshot) map[manualKey]manualFields {
	out := make(map[manualKey]manualFields)
	for _, pt := range schema.AllPeriodTypes {
		for key, records := range snap.Leaderboards.Board(pt) {
			for _, r := range records {
				if !r.HasManualFields() {
					continue
				}
				out[manualKey{r.Name, pt, key}] = manualFields{
					score:         r.AdditionalContributionScore,
					contributions: r.AdditionalContributions,
					notes:         r.AdditionalContributionNotes,
				}
			}
		}
	}
	return out
}

func laterTime(a, b *schema.Snapshot) time.Time {
	if a.LastUpdated.After(b.LastUpdated) {
		return a.LastUpdated
	}
	return b.LastUpdated
}

// cloneSnapshot deep-copies a snapshot so callers never share record slices.
func cloneSnapshot(snap *schema.Snapshot) *schema.Snapshot {
	if snap == nil {
		return nil
	}
	out := *snap
	out.Leaderboards = schema.NewLeaderboards()
	for _, pt := range schema.AllPeriodTypes {
		board := out.Leaderboards.Board(pt)
		for key, records := range snap.Leaderboards.Board(pt) {
			board[key] = cloneRecords(records)
		}
	}
	if snap.Metadata.MergedFrom != nil {
		mf := *snap.Metadata.MergedFrom
		out.Metadata.MergedFrom = &mf
	}
	return &out
}

func cloneRecords(records []schema.ContributorPeriodRecord) []schema.ContributorPeriodRecord {
	out := make([]schema.ContributorPeriodRecord, len(records))
	for i, r := range records {
		r.Commits = slices.Clone(r.Commits)
		r.AdditionalContributions = slices.Clone(r.AdditionalContributions)
		out[i] = r
	}
	return out
}
