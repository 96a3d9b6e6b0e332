package core

import (
	"testing"
	"time"

	"github.com/cdc542559455/lmcache-leaderboard/schema"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func dated(score int, notes string, start time.Time) schema.ManualContribution {
	return schema.ManualContribution{Score: score, Notes: notes, StartDate: schema.NewDate(start)}
}

func manualFor(name string, contributions ...schema.ManualContribution) *schema.ManualContributions {
	return &schema.ManualContributions{
		Contributors: map[string]schema.ManualContributor{
			name: {Email: name + "@example.com", Contributions: contributions},
		},
	}
}

// marchSnapshot has Ada committing in weeks 10, 11 and 14 of 2025. Week 14 starts
// on March 31, so its commits belong to the March rollup even when dated in April.
func marchSnapshot() *schema.Snapshot {
	return snapshotOf(utcDate(2025, time.April, 2),
		makeEntry("a", "Ada", utcDate(2025, time.March, 4), 60, true),
		makeEntry("b", "Ada", utcDate(2025, time.March, 11), 20, false),
		makeEntry("c", "Bob", utcDate(2025, time.March, 12), 30, false),
		makeEntry("d", "Ada", utcDate(2025, time.April, 2), 50, true),
	)
}

func TestReconcileDatedEntryAttachesToOneWeek(t *testing.T) {
	snap := marchSnapshot()
	manual := manualFor("Ada", dated(15, "conference talk", time.Date(2025, 3, 10, 0, 0, 0, 0, time.UTC)))

	out, err := Reconcile(snap, manual)
	require.NoError(t, err)
	require.NoError(t, out.Validate())

	for key := range out.Leaderboards.Weekly {
		for _, r := range out.Leaderboards.Weekly[key] {
			if key == "2025-W11" && r.Name == "Ada" {
				assert.Equal(t, 15, r.AdditionalContributionScore)
				assert.Equal(t, "conference talk", r.AdditionalContributionNotes)
				assert.Equal(t, 35, r.TotalScore)
				continue
			}
			assert.Zero(t, r.AdditionalContributionScore, "%s %s", key, r.Name)
			assert.Empty(t, r.AdditionalContributionNotes, "%s %s", key, r.Name)
		}
	}
}

func TestReconcileMonthlyEqualsSumOfWeeks(t *testing.T) {
	manual := manualFor("Ada",
		dated(15, "talk", time.Date(2025, 3, 10, 0, 0, 0, 0, time.UTC)),
		dated(5, "blog", time.Date(2025, 4, 1, 0, 0, 0, 0, time.UTC)),
	)
	out, err := Reconcile(marchSnapshot(), manual)
	require.NoError(t, err)

	for _, pt := range []schema.PeriodType{schema.Monthly, schema.Quarterly} {
		sums := make(map[string]map[string][2]int)
		for key, records := range out.Leaderboards.Weekly {
			monday, err := WeekStart(key)
			require.NoError(t, err)
			period := PeriodKey(pt, monday)
			if sums[period] == nil {
				sums[period] = make(map[string][2]int)
			}
			for _, r := range records {
				s := sums[period][r.Name]
				s[0] += r.CommitScore
				s[1] += r.AdditionalContributionScore
				sums[period][r.Name] = s
			}
		}

		board := out.Leaderboards.Board(pt)
		require.Len(t, board, len(sums), pt)
		for period, byName := range sums {
			require.Len(t, board[period], len(byName), "%s %s", pt, period)
			for _, r := range board[period] {
				assert.Equal(t, byName[r.Name][0], r.CommitScore, "%s %s %s", pt, period, r.Name)
				assert.Equal(t, byName[r.Name][1], r.AdditionalContributionScore, "%s %s %s", pt, period, r.Name)
			}
		}
	}

	// Week 14 (Monday March 31) rolls into March even though its commit is in April.
	march := recordFor(t, out, schema.Monthly, "2025-03", "Ada")
	assert.Equal(t, 130, march.CommitScore)
	assert.Equal(t, 20, march.AdditionalContributionScore)
	assert.Equal(t, "talk; blog", march.AdditionalContributionNotes)
	assert.NotContains(t, out.Leaderboards.Monthly, "2025-04")
}

func TestReconcileResetsRemovedEntries(t *testing.T) {
	manual := manualFor("Ada", dated(15, "talk", time.Date(2025, 3, 10, 0, 0, 0, 0, time.UTC)))
	first, err := Reconcile(marchSnapshot(), manual)
	require.NoError(t, err)

	second, err := Reconcile(first, &schema.ManualContributions{})
	require.NoError(t, err)

	r := recordFor(t, second, schema.Weekly, "2025-W11", "Ada")
	assert.Zero(t, r.AdditionalContributionScore)
	assert.Empty(t, r.AdditionalContributionNotes)
	assert.Empty(t, r.AdditionalContributions)
	assert.Equal(t, r.CommitScore, r.TotalScore)
}

func TestReconcileUndatedAnchorsToLatestCommitWeek(t *testing.T) {
	manual := manualFor("Ada", schema.ManualContribution{Score: 8, Notes: "mentoring"})
	out, err := Reconcile(marchSnapshot(), manual)
	require.NoError(t, err)

	latest := recordFor(t, out, schema.Weekly, "2025-W14", "Ada")
	assert.Equal(t, 8, latest.AdditionalContributionScore)
	earlier := recordFor(t, out, schema.Weekly, "2025-W10", "Ada")
	assert.Zero(t, earlier.AdditionalContributionScore)

	// Counted exactly once in the coarser rollups.
	assert.Equal(t, 8, recordFor(t, out, schema.Monthly, "2025-03", "Ada").AdditionalContributionScore)
	assert.Equal(t, 8, recordFor(t, out, schema.Quarterly, "2025-Q1", "Ada").AdditionalContributionScore)
}

func TestReconcileUndatedWithoutCommitsIsDropped(t *testing.T) {
	manual := manualFor("Eve", schema.ManualContribution{Score: 8, Notes: "mentoring"})
	out, err := Reconcile(marchSnapshot(), manual)
	require.NoError(t, err)
	for _, records := range out.Leaderboards.Weekly {
		for _, r := range records {
			assert.NotEqual(t, "Eve", r.Name)
		}
	}
}

func TestReconcileCreatesManualOnlyRecord(t *testing.T) {
	manual := manualFor("Eve", dated(12, "docs sprint", time.Date(2025, 3, 12, 0, 0, 0, 0, time.UTC)))
	out, err := Reconcile(marchSnapshot(), manual)
	require.NoError(t, err)
	require.NoError(t, out.Validate())

	r := recordFor(t, out, schema.Weekly, "2025-W11", "Eve")
	assert.Equal(t, "Eve@example.com", r.Email)
	assert.Zero(t, r.TotalCommits)
	assert.Equal(t, 12, r.TotalScore)
	assert.Empty(t, r.Commits)
	assert.Equal(t, 12, recordFor(t, out, schema.Monthly, "2025-03", "Eve").TotalScore)

	// Removing the entry removes the record on the next pass.
	again, err := Reconcile(out, &schema.ManualContributions{})
	require.NoError(t, err)
	for _, r := range again.Leaderboards.Weekly["2025-W11"] {
		assert.NotEqual(t, "Eve", r.Name)
	}
}

func TestReconcileIdempotent(t *testing.T) {
	manual := manualFor("Ada",
		dated(15, "talk", time.Date(2025, 3, 10, 0, 0, 0, 0, time.UTC)),
		schema.ManualContribution{Score: 3, Notes: "triage"},
	)
	once, err := Reconcile(marchSnapshot(), manual)
	require.NoError(t, err)
	twice, err := Reconcile(once, manual)
	require.NoError(t, err)
	assert.Equal(t, once.Leaderboards, twice.Leaderboards)
}

func TestReconcileReranks(t *testing.T) {
	manual := manualFor("Bob", dated(100, "release lead", time.Date(2025, 3, 11, 0, 0, 0, 0, time.UTC)))
	out, err := Reconcile(marchSnapshot(), manual)
	require.NoError(t, err)

	week := out.Leaderboards.Weekly["2025-W11"]
	require.Len(t, week, 2)
	assert.Equal(t, "Bob", week[0].Name)
	assert.Equal(t, 1, week[0].Rank)
}

func TestReconcileRejectsBadWeekKey(t *testing.T) {
	snap := marchSnapshot()
	snap.Leaderboards.Weekly["2025-W99"] = nil
	_, err := Reconcile(snap, nil)
	assert.Error(t, err)
}

func TestReconcileDoesNotMutateInput(t *testing.T) {
	snap := marchSnapshot()
	before := cloneSnapshot(snap)
	_, err := Reconcile(snap, manualFor("Ada", dated(15, "talk", time.Date(2025, 3, 10, 0, 0, 0, 0, time.UTC))))
	require.NoError(t, err)
	assert.Equal(t, before, snap)
}
