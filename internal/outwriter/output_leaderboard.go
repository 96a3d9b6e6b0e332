package outwriter

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"strconv"
	"time"

	"github.com/cdc542559455/lmcache-leaderboard/internal/contract"
	"github.com/cdc542559455/lmcache-leaderboard/internal/parquet"
	"github.com/cdc542559455/lmcache-leaderboard/schema"
)

// errParquetNeedsFile is returned when Parquet output would go to stdout.
var errParquetNeedsFile = errors.New("parquet output requires --output-file")

// WriteLeaderboard outputs one period of a leaderboard, dispatching based on the output format configured.
func WriteLeaderboard(view schema.LeaderboardView, cfg *contract.Config, duration time.Duration) error {
	fmtFloat, intFmt := createFormatters(cfg.Precision)

	switch cfg.Output {
	case schema.JSONOut:
		if err := writeWithFile(cfg.OutputFile, func(w io.Writer) error {
			return writeJSON(w, view)
		}, "Wrote JSON"); err != nil {
			return fmt.Errorf("error writing JSON output: %w", err)
		}
	case schema.CSVOut:
		if err := writeWithFile(cfg.OutputFile, func(w io.Writer) error {
			return writeLeaderboardCSV(w, view, fmtFloat, intFmt)
		}, "Wrote CSV"); err != nil {
			return fmt.Errorf("error writing CSV output: %w", err)
		}
	case schema.ParquetOut:
		if err := writeLeaderboardParquet(view, cfg.OutputFile); err != nil {
			return fmt.Errorf("error writing Parquet output: %w", err)
		}
	default:
		// Default to human-readable table
		return writeWithFile(cfg.OutputFile, func(w io.Writer) error {
			return writeLeaderboardTable(w, view, cfg, fmtFloat, intFmt, duration)
		}, "Wrote table")
	}
	return nil
}

// writeLeaderboardTable generates and writes the human-readable table.
func writeLeaderboardTable(
	w io.Writer,
	view schema.LeaderboardView,
	cfg *contract.Config,
	fmtFloat func(float64) string,
	intFmt string,
	duration time.Duration,
) error {
	headers := []string{"Rank", "Contributor", "Tier", "Commits", "Sig", "Ratio", "Commit Score", "Avg", "Manual", "Total"}
	nameWidth := GetMaxTableNameWidth(cfg)

	var data [][]string
	for _, r := range view.Records {
		data = append(data, []string{
			strconv.Itoa(r.Rank),
			contract.TruncateText(r.Name, nameWidth),
			tierLabel(r.Tier, cfg.UseColors),
			fmt.Sprintf(intFmt, r.TotalCommits),
			fmt.Sprintf(intFmt, r.SignificantCommits),
			fmtFloat(r.SignificanceRatio),
			fmt.Sprintf(intFmt, r.CommitScore),
			fmtFloat(r.AvgScore),
			fmt.Sprintf(intFmt, r.AdditionalContributionScore),
			fmt.Sprintf(intFmt, r.TotalScore),
		})
	}
	if err := writeTable(w, headers, data); err != nil {
		return err
	}

	if _, err := fmt.Fprintf(w, "Showing %d of %d contributors for %s period %s (last updated: %s)\n",
		len(view.Records), view.TotalContributors, view.PeriodType, view.PeriodKey,
		view.LastUpdated.Format(contract.DateTimeFormat)); err != nil {
		return err
	}
	if duration > 0 {
		if _, err := fmt.Fprintf(w, "Completed in %v with %d workers. Cache backend: %s\n", duration, cfg.Workers, cfg.CacheBackend); err != nil {
			return err
		}
	}
	return nil
}

// leaderboardCSVHeader is shared by the leaderboard and contributor CSV outputs.
var leaderboardCSVHeader = []string{
	"period_type",
	"period_key",
	"rank",
	"name",
	"email",
	"tier",
	"tier_name",
	"total_commits",
	"significant_commits",
	"simple_commits",
	"significance_ratio",
	"commit_score",
	"avg_score",
	"additional_contribution_score",
	"additional_contribution_notes",
	"total_score",
}

// writeLeaderboardCSV writes the records of one period in CSV format.
func writeLeaderboardCSV(w io.Writer, view schema.LeaderboardView, fmtFloat func(float64) string, intFmt string) error {
	return writeCSVWithHeader(w, leaderboardCSVHeader, func(cw *csv.Writer) error {
		for _, r := range view.Records {
			if err := cw.Write(recordCSVRow(view.PeriodType, view.PeriodKey, r, fmtFloat, intFmt)); err != nil {
				return err
			}
		}
		return nil
	})
}

// recordCSVRow formats a contributor period record in leaderboardCSVHeader order.
func recordCSVRow(pt schema.PeriodType, key string, r schema.ContributorPeriodRecord, fmtFloat func(float64) string, intFmt string) []string {
	return []string{
		string(pt),
		key,
		strconv.Itoa(r.Rank),
		r.Name,
		r.Email,
		string(r.Tier),
		r.TierName,
		fmt.Sprintf(intFmt, r.TotalCommits),
		fmt.Sprintf(intFmt, r.SignificantCommits),
		fmt.Sprintf(intFmt, r.SimpleCommits),
		fmtFloat(r.SignificanceRatio),
		fmt.Sprintf(intFmt, r.CommitScore),
		fmtFloat(r.AvgScore),
		fmt.Sprintf(intFmt, r.AdditionalContributionScore),
		r.AdditionalContributionNotes,
		fmt.Sprintf(intFmt, r.TotalScore),
	}
}

// writeLeaderboardParquet writes the records of one period to a Parquet file.
func writeLeaderboardParquet(view schema.LeaderboardView, outputFile string) error {
	if outputFile == "" {
		return errParquetNeedsFile
	}
	board := schema.PeriodBoard{view.PeriodKey: view.Records}
	rows := parquet.ConvertBoard(view.PeriodType, []string{view.PeriodKey}, board)
	if err := parquet.WriteContributorPeriodsParquet(rows, outputFile); err != nil {
		return err
	}
	_, _ = fmt.Fprintf(os.Stderr, "💾 Wrote Parquet to %s\n", outputFile)
	return nil
}
