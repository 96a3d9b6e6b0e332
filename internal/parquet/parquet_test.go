package parquet

import (
	"io"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/cdc542559455/lmcache-leaderboard/schema"
	"github.com/parquet-go/parquet-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// readAll reads every row of a Parquet file written by this package.
func readAll[T any](t *testing.T, path string) []T {
	t.Helper()
	file, err := os.Open(path)
	require.NoError(t, err, "Should be able to open output file")
	defer func() { _ = file.Close() }()

	reader := parquet.NewGenericReader[T](file)
	defer func() { _ = reader.Close() }()

	rows := make([]T, reader.NumRows())
	n, err := reader.Read(rows)
	if err != nil && err != io.EOF {
		require.NoError(t, err, "Should be able to read data")
	}
	return rows[:n]
}

func sampleRuns() []schema.RunRecord {
	start := time.Date(2025, 3, 14, 12, 0, 0, 123456789, time.UTC)
	end := start.Add(90 * time.Second)
	duration := int32(90000)
	latest := "c2"
	params := `{"days":180}`
	failure := "source unavailable"
	return []schema.RunRecord{
		{
			RunID: 1, StartTime: start, EndTime: &end, RunDurationMs: &duration, Source: "local",
			Success: true, CommitsAnalyzed: 42, LatestCommit: &latest, ConfigParams: &params,
		},
		{RunID: 2, StartTime: start.Add(time.Hour), Source: "github", ErrorMessage: &failure},
	}
}

func TestStructTags(t *testing.T) {
	tests := []struct {
		name    string
		schema  *parquet.Schema
		columns []string
	}{
		{
			"runs", parquet.SchemaOf(new(Run)),
			[]string{"run_id", "start_time", "end_time", "run_duration_ms", "source", "success", "commits_analyzed", "latest_commit", "error_message", "config_params"},
		},
		{
			"standings", parquet.SchemaOf(new(Standing)),
			[]string{"run_id", "period_type", "period_key", "contributor", "rank", "tier", "commit_score", "total_score", "recorded_at"},
		},
		{
			"contributors", parquet.SchemaOf(new(ContributorPeriod)),
			[]string{"period_type", "period_key", "rank", "name", "tier", "significance_ratio", "additional_contribution_notes", "total_score"},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			for _, colName := range tt.columns {
				_, ok := tt.schema.Lookup(colName)
				assert.True(t, ok, "Column %s should exist in schema", colName)
			}
		})
	}
}

func TestWriteRunsParquet(t *testing.T) {
	outputPath := filepath.Join(t.TempDir(), "runs.parquet")
	data := ConvertRunRecords(sampleRuns())
	require.NoError(t, WriteRunsParquet(data, outputPath))

	readData := readAll[Run](t, outputPath)
	require.Len(t, readData, 2)

	assert.Equal(t, int64(1), readData[0].RunID)
	assert.True(t, readData[0].Success)
	assert.Equal(t, int32(42), readData[0].CommitsAnalyzed)
	require.NotNil(t, readData[0].EndTime)
	assert.WithinDuration(t, *data[0].EndTime, *readData[0].EndTime, time.Nanosecond)
	assert.WithinDuration(t, data[0].StartTime, readData[0].StartTime, time.Nanosecond)
	require.NotNil(t, readData[0].LatestCommit)
	assert.Equal(t, "c2", *readData[0].LatestCommit)

	// Nullable fields survive as nil
	assert.Nil(t, readData[1].EndTime)
	assert.Nil(t, readData[1].RunDurationMs)
	assert.Nil(t, readData[1].ConfigParams)
	require.NotNil(t, readData[1].ErrorMessage)
	assert.Equal(t, "source unavailable", *readData[1].ErrorMessage)
}

func TestWriteStandingsParquet(t *testing.T) {
	outputPath := filepath.Join(t.TempDir(), "standings.parquet")
	recorded := time.Date(2025, 3, 14, 12, 0, 0, 0, time.UTC)
	records := []schema.StandingRecord{
		{RunID: 1, PeriodType: "weekly", PeriodKey: "2025-W11", Contributor: "Ada", Rank: 1, Tier: "T0", CommitScore: 111, TotalScore: 131, RecordedAt: recorded},
		{RunID: 1, PeriodType: "weekly", PeriodKey: "2025-W11", Contributor: "Bob", Rank: 2, Tier: "T0", CommitScore: 30, TotalScore: 30, RecordedAt: recorded},
	}
	require.NoError(t, WriteStandingsParquet(ConvertStandingRecords(records), outputPath))

	readData := readAll[Standing](t, outputPath)
	require.Len(t, readData, 2)
	assert.Equal(t, "Ada", readData[0].Contributor)
	assert.Equal(t, int32(131), readData[0].TotalScore)
	assert.Equal(t, "T0", readData[1].Tier)
	assert.True(t, recorded.Equal(readData[1].RecordedAt))
}

func TestConvertBoard(t *testing.T) {
	board := schema.PeriodBoard{
		"2025-W10": {{Name: "Bob", Rank: 1, Tier: schema.TierElite, TotalCommits: 1, SimpleCommits: 1, CommitScore: 30, TotalScore: 30}},
		"2025-W11": {
			{Name: "Ada", Rank: 1, Tier: schema.TierElite, TotalCommits: 2, SignificantCommits: 1, SimpleCommits: 1, SignificanceRatio: 0.5, CommitScore: 111, AvgScore: 55.5, AdditionalContributionScore: 20, AdditionalContributionNotes: "talk", TotalScore: 131},
			{Name: "Bob", Rank: 2, Tier: schema.TierElite, TotalCommits: 1, SimpleCommits: 1, CommitScore: 30, TotalScore: 30},
		},
	}
	rows := ConvertBoard(schema.Weekly, []string{"2025-W11", "2025-W10"}, board)
	require.Len(t, rows, 3)
	assert.Equal(t, "2025-W11", rows[0].PeriodKey)
	assert.Equal(t, "Ada", rows[0].Name)
	assert.Equal(t, int32(20), rows[0].AdditionalScore)
	require.NotNil(t, rows[0].AdditionalNotes)
	assert.Equal(t, "talk", *rows[0].AdditionalNotes)
	assert.Nil(t, rows[1].AdditionalNotes)
	assert.Equal(t, "2025-W10", rows[2].PeriodKey)

	outputPath := filepath.Join(t.TempDir(), "weekly.parquet")
	require.NoError(t, WriteContributorPeriodsParquet(rows, outputPath))
	readData := readAll[ContributorPeriod](t, outputPath)
	require.Len(t, readData, 3)
	assert.InDelta(t, 55.5, readData[0].AvgScore, 0.001)
	assert.Equal(t, "weekly", readData[2].PeriodType)
}

func TestWriteEmptyData(t *testing.T) {
	outputPath := filepath.Join(t.TempDir(), "empty.parquet")
	require.NoError(t, WriteRunsParquet([]Run{}, outputPath))

	info, err := os.Stat(outputPath)
	require.NoError(t, err, "Output file should exist")
	assert.Greater(t, info.Size(), int64(0), "Output file should contain schema even if empty")
}

func TestWriteInvalidPath(t *testing.T) {
	err := WriteStandingsParquet(nil, "/nonexistent/directory/output.parquet")
	require.Error(t, err, "Writing to invalid path should produce error")
}
