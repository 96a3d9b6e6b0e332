// Package parquet provides data structures and functions for exporting leaderboard
// data to Parquet files using github.com/parquet-go/parquet-go.
package parquet

import (
	"fmt"
	"os"
	"time"

	"github.com/cdc542559455/lmcache-leaderboard/schema"
	"github.com/parquet-go/parquet-go"
)

// Run represents a single analysis run with metadata.
// This struct maps to the leaderboard_runs database table.
type Run struct {
	// RunID is the unique identifier for this run
	RunID int64 `parquet:"run_id,snappy"`

	// StartTime is when the run began (stored as TIMESTAMP with nanosecond precision)
	StartTime time.Time `parquet:"start_time,snappy"`

	// EndTime is when the run completed (nullable)
	EndTime *time.Time `parquet:"end_time,optional,snappy"`

	// RunDurationMs is the duration of the run in milliseconds (nullable)
	RunDurationMs *int32 `parquet:"run_duration_ms,optional,snappy"`

	// Source is the commit source of the run
	Source string `parquet:"source,snappy"`

	// Success reports whether the snapshot was saved
	Success bool `parquet:"success,snappy"`

	// CommitsAnalyzed is the number of commits scored in this run
	CommitsAnalyzed int32 `parquet:"commits_analyzed,snappy"`

	// LatestCommit is the newest analyzed commit hash (nullable)
	LatestCommit *string `parquet:"latest_commit,optional,snappy"`

	// ErrorMessage explains a failed run (nullable)
	ErrorMessage *string `parquet:"error_message,optional,snappy"`

	// ConfigParams contains the JSON-encoded configuration parameters (nullable)
	ConfigParams *string `parquet:"config_params,optional,snappy"`
}

// Standing is one contributor's position in one period at the end of a run.
// This struct maps to the leaderboard_standings database table.
type Standing struct {
	RunID       int64     `parquet:"run_id,snappy"`
	PeriodType  string    `parquet:"period_type,dict,snappy"`
	PeriodKey   string    `parquet:"period_key,dict,snappy"`
	Contributor string    `parquet:"contributor,dict,snappy"`
	Rank        int32     `parquet:"rank,snappy"`
	Tier        string    `parquet:"tier,dict,snappy"`
	CommitScore int32     `parquet:"commit_score,snappy"`
	TotalScore  int32     `parquet:"total_score,snappy"`
	RecordedAt  time.Time `parquet:"recorded_at,snappy"`
}

// ContributorPeriod is one leaderboard row, without the embedded commit list.
type ContributorPeriod struct {
	PeriodType         string  `parquet:"period_type,dict,snappy"`
	PeriodKey          string  `parquet:"period_key,dict,snappy"`
	Rank               int32   `parquet:"rank,snappy"`
	Name               string  `parquet:"name,snappy"`
	Email              string  `parquet:"email,snappy"`
	Tier               string  `parquet:"tier,dict,snappy"`
	TotalCommits       int32   `parquet:"total_commits,snappy"`
	SignificantCommits int32   `parquet:"significant_commits,snappy"`
	SimpleCommits      int32   `parquet:"simple_commits,snappy"`
	SignificanceRatio  float64 `parquet:"significance_ratio,snappy"`
	CommitScore        int32   `parquet:"commit_score,snappy"`
	AvgScore           float64 `parquet:"avg_score,snappy"`
	AdditionalScore    int32   `parquet:"additional_contribution_score,snappy"`
	AdditionalNotes    *string `parquet:"additional_contribution_notes,optional,snappy"`
	TotalScore         int32   `parquet:"total_score,snappy"`
}

// writeParquet writes rows to outputPath, deriving the schema from T's struct tags.
func writeParquet[T any](data []T, outputPath string) error {
	file, err := os.Create(outputPath)
	if err != nil {
		return fmt.Errorf("failed to create output file: %w", err)
	}
	defer func() { _ = file.Close() }()

	writer := parquet.NewGenericWriter[T](file)
	if _, err := writer.Write(data); err != nil {
		_ = writer.Close()
		return fmt.Errorf("failed to write data to parquet file: %w", err)
	}
	if err := writer.Close(); err != nil {
		return fmt.Errorf("failed to finalize parquet file: %w", err)
	}
	return file.Close()
}

// WriteRunsParquet writes runs to a Parquet file.
func WriteRunsParquet(data []Run, outputPath string) error {
	return writeParquet(data, outputPath)
}

// WriteStandingsParquet writes standings to a Parquet file.
func WriteStandingsParquet(data []Standing, outputPath string) error {
	return writeParquet(data, outputPath)
}

// WriteContributorPeriodsParquet writes leaderboard rows to a Parquet file.
func WriteContributorPeriodsParquet(data []ContributorPeriod, outputPath string) error {
	return writeParquet(data, outputPath)
}

// ConvertRunRecords converts schema.RunRecord to Run for Parquet export.
func ConvertRunRecords(records []schema.RunRecord) []Run {
	result := make([]Run, len(records))
	for i, record := range records {
		result[i] = Run{
			RunID:           record.RunID,
			StartTime:       record.StartTime,
			EndTime:         record.EndTime,
			RunDurationMs:   record.RunDurationMs,
			Source:          record.Source,
			Success:         record.Success,
			CommitsAnalyzed: record.CommitsAnalyzed,
			LatestCommit:    record.LatestCommit,
			ErrorMessage:    record.ErrorMessage,
			ConfigParams:    record.ConfigParams,
		}
	}
	return result
}

// ConvertStandingRecords converts schema.StandingRecord to Standing for Parquet export.
func ConvertStandingRecords(records []schema.StandingRecord) []Standing {
	result := make([]Standing, len(records))
	for i, record := range records {
		result[i] = Standing(record)
	}
	return result
}

// ConvertBoard flattens one period type of a snapshot into rows, in key then rank order.
func ConvertBoard(pt schema.PeriodType, keys []string, board schema.PeriodBoard) []ContributorPeriod {
	var result []ContributorPeriod
	for _, key := range keys {
		for _, r := range board[key] {
			row := ContributorPeriod{
				PeriodType:         string(pt),
				PeriodKey:          key,
				Rank:               int32(r.Rank),
				Name:               r.Name,
				Email:              r.Email,
				Tier:               string(r.Tier),
				TotalCommits:       int32(r.TotalCommits),
				SignificantCommits: int32(r.SignificantCommits),
				SimpleCommits:      int32(r.SimpleCommits),
				SignificanceRatio:  r.SignificanceRatio,
				CommitScore:        int32(r.CommitScore),
				AvgScore:           r.AvgScore,
				AdditionalScore:    int32(r.AdditionalContributionScore),
				TotalScore:         int32(r.TotalScore),
			}
			if r.AdditionalContributionNotes != "" {
				notes := r.AdditionalContributionNotes
				row.AdditionalNotes = &notes
			}
			result = append(result, row)
		}
	}
	return result
}
