package core

import (
	"errors"
	"fmt"
	"slices"
	"strings"

	"github.com/cdc542559455/lmcache-leaderboard/schema"
)

// ErrPeriodNotFound means the requested period has no records.
var ErrPeriodNotFound = errors.New("period not found")

// BuildLeaderboardView selects one period of a board after removing hidden
// contributors. An empty period selects the latest one. At most limit records
// are kept when limit is positive.
func BuildLeaderboardView(snap *schema.Snapshot, pt schema.PeriodType, period string, hidden []string, limit int) (schema.LeaderboardView, error) {
	if _, ok := schema.ValidPeriodTypes[pt]; !ok {
		return schema.LeaderboardView{}, fmt.Errorf("invalid period type: %s", pt)
	}
	visible := FilterHidden(snap, hidden)
	if visible == nil {
		return schema.LeaderboardView{}, fmt.Errorf("%w: no snapshot data", ErrPeriodNotFound)
	}

	board := visible.Leaderboards.Board(pt)
	if period == "" {
		period = LatestPeriodKey(board)
	}
	records, ok := board[period]
	if !ok {
		if period == "" {
			return schema.LeaderboardView{}, fmt.Errorf("%w: no %s periods recorded", ErrPeriodNotFound, pt)
		}
		return schema.LeaderboardView{}, fmt.Errorf("%w: %s %s", ErrPeriodNotFound, pt, period)
	}

	view := schema.LeaderboardView{
		PeriodType:        pt,
		PeriodKey:         period,
		LastUpdated:       visible.LastUpdated,
		Repository:        visible.Metadata.Repository,
		TotalContributors: len(records),
		Records:           records,
	}
	if limit > 0 && len(records) > limit {
		view.Records = records[:limit]
	}
	return view, nil
}

// BuildContributorView collects a contributor's records across every period of
// one type, newest period first. Ranks reflect the visible contributors only.
func BuildContributorView(snap *schema.Snapshot, pt schema.PeriodType, name string, hidden []string) schema.ContributorView {
	found := FindContributor(FilterHidden(snap, hidden), pt, name)
	view := schema.ContributorView{Name: name, PeriodType: pt, Periods: []schema.ContributorPeriod{}}
	for key, record := range found {
		view.Name = record.Name
		view.Periods = append(view.Periods, schema.ContributorPeriod{PeriodKey: key, Record: record})
	}
	slices.SortFunc(view.Periods, func(a, b schema.ContributorPeriod) int {
		return strings.Compare(b.PeriodKey, a.PeriodKey)
	})
	return view
}

// SummarizePeriods describes every period of one board, newest first.
func SummarizePeriods(snap *schema.Snapshot, pt schema.PeriodType, hidden []string) []schema.PeriodSummary {
	visible := FilterHidden(snap, hidden)
	if visible == nil {
		return nil
	}
	board := visible.Leaderboards.Board(pt)
	keys := SortedPeriodKeys(board)
	slices.Reverse(keys)

	out := make([]schema.PeriodSummary, 0, len(keys))
	for _, key := range keys {
		records := board[key]
		summary := schema.PeriodSummary{
			PeriodType:   pt,
			PeriodKey:    key,
			Contributors: len(records),
		}
		for _, r := range records {
			summary.Commits += r.TotalCommits
			summary.TotalScore += r.TotalScore
		}
		if len(records) > 0 {
			summary.Leader = records[0].Name
		}
		out = append(out, summary)
	}
	return out
}
