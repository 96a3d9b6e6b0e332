package core

import (
	"fmt"

	"github.com/cdc542559455/lmcache-leaderboard/schema"
)

// weekContributor identifies one contributor inside one week.
type weekContributor struct {
	week string
	name string
}

// Reconcile applies the canonical manual contributions to the weekly board, then
// rebuilds the monthly and quarterly boards by summing weekly records, so that
// every coarser period equals the sum of the weeks whose Monday falls in it.
//
// Dated entries attach to the week containing their start date; a contributor
// without commits that week gets a manual-only record. Undated entries attach
// once, to the contributor's most recent week. Records with no matching entry
// have their manual fields reset. The input snapshot is not modified.
func Reconcile(snap *schema.Snapshot, manual *schema.ManualContributions) (*schema.Snapshot, error) {
	out := cloneSnapshot(snap)
	if out == nil {
		return nil, fmt.Errorf("reconcile: nil snapshot")
	}
	if manual == nil {
		manual = &schema.ManualContributions{}
	}

	weekly := out.Leaderboards.Weekly
	if weekly == nil {
		weekly = schema.PeriodBoard{}
	}

	latestWeek := make(map[string]string)
	for _, key := range SortedPeriodKeys(weekly) {
		if _, err := WeekStart(key); err != nil {
			return nil, fmt.Errorf("reconcile: %w", err)
		}
		for _, r := range weekly[key] {
			if r.TotalCommits > 0 {
				latestWeek[r.Name] = key
			}
		}
	}

	matched := make(map[weekContributor][]schema.ManualContribution)
	emails := make(map[string]string)
	for name, contributor := range manual.Contributors {
		emails[name] = contributor.Email
		for _, c := range contributor.Contributions {
			week := latestWeek[name]
			if c.Dated() {
				week = WeekKey(c.StartDate.Time)
			}
			if week == "" {
				continue // undated and no week to anchor to
			}
			k := weekContributor{week, name}
			matched[k] = append(matched[k], c)
		}
	}

	seen := make(map[weekContributor]bool)
	for key, records := range weekly {
		kept := records[:0]
		for _, r := range records {
			k := weekContributor{key, r.Name}
			applyManual(&r, matched[k])
			if r.TotalCommits == 0 && !r.HasManualFields() {
				continue // manual-only record whose entries are gone
			}
			seen[k] = true
			kept = append(kept, r)
		}
		if len(kept) == 0 {
			delete(weekly, key)
			continue
		}
		weekly[key] = kept
	}

	for k, entries := range matched {
		if seen[k] {
			continue
		}
		record := schema.ContributorPeriodRecord{
			Name:    k.name,
			Email:   emails[k.name],
			Commits: []schema.CommitEntry{},
		}
		applyManual(&record, entries)
		weekly[k.week] = append(weekly[k.week], record)
	}

	RankBoard(weekly)
	out.Leaderboards.Weekly = weekly

	monthly, quarterly, err := rollupWeeks(weekly)
	if err != nil {
		return nil, fmt.Errorf("reconcile: %w", err)
	}
	out.Leaderboards.Monthly = monthly
	out.Leaderboards.Quarterly = quarterly
	return out, nil
}

// applyManual replaces a record's manual fields with the given entries.
func applyManual(r *schema.ContributorPeriodRecord, entries []schema.ManualContribution) {
	r.AdditionalContributionScore = 0
	r.AdditionalContributions = make([]schema.ManualContribution, 0, len(entries))
	notes := make([]string, 0, len(entries))
	for _, c := range entries {
		r.AdditionalContributionScore += c.Score
		r.AdditionalContributions = append(r.AdditionalContributions, c)
		notes = append(notes, c.Notes)
	}
	r.AdditionalContributionNotes = joinNotes(notes)
	finalizeRecord(r)
}

// rollupWeeks sums weekly records into monthly and quarterly boards, assigning
// each week to the month and quarter of its Monday.
func rollupWeeks(weekly schema.PeriodBoard) (schema.PeriodBoard, schema.PeriodBoard, error) {
	type rollup struct {
		index   map[string]int
		records []schema.ContributorPeriodRecord
		notes   [][]string
	}
	add := func(boards map[string]*rollup, key string, w schema.ContributorPeriodRecord) {
		b, ok := boards[key]
		if !ok {
			b = &rollup{index: make(map[string]int)}
			boards[key] = b
		}
		i, ok := b.index[w.Name]
		if !ok {
			i = len(b.records)
			b.index[w.Name] = i
			b.records = append(b.records, schema.ContributorPeriodRecord{
				Name:                    w.Name,
				Commits:                 []schema.CommitEntry{},
				AdditionalContributions: []schema.ManualContribution{},
			})
			b.notes = append(b.notes, nil)
		}
		r := &b.records[i]
		if r.Email == "" {
			r.Email = w.Email
		}
		r.TotalCommits += w.TotalCommits
		r.SignificantCommits += w.SignificantCommits
		r.SimpleCommits += w.SimpleCommits
		r.CommitScore += w.CommitScore
		r.AdditionalContributionScore += w.AdditionalContributionScore
		r.Commits = append(r.Commits, w.Commits...)
		r.AdditionalContributions = append(r.AdditionalContributions, w.AdditionalContributions...)
		b.notes[i] = append(b.notes[i], w.AdditionalContributionNotes)
	}

	months := make(map[string]*rollup)
	quarters := make(map[string]*rollup)
	for _, key := range SortedPeriodKeys(weekly) {
		monday, err := WeekStart(key)
		if err != nil {
			return nil, nil, err
		}
		for _, w := range weekly[key] {
			add(months, MonthKey(monday), w)
			add(quarters, QuarterKey(monday), w)
		}
	}

	build := func(src map[string]*rollup) schema.PeriodBoard {
		board := make(schema.PeriodBoard, len(src))
		for key, b := range src {
			for i := range b.records {
				b.records[i].AdditionalContributionNotes = joinNotes(b.notes[i])
				sortCommitsNewestFirst(b.records[i].Commits)
				finalizeRecord(&b.records[i])
			}
			RankRecords(b.records)
			board[key] = b.records
		}
		return board
	}
	return build(months), build(quarters), nil
}
